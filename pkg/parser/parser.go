package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

// ErrSyntax marks source whose declarations could not be parsed.
var ErrSyntax = errors.New("syntax error")

// Language represents a supported source language.
type Language string

const (
	LangKotlin  Language = "kotlin"
	LangUnknown Language = "unknown"
)

// Parser wraps a tree-sitter parser configured for Kotlin.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed tree and the source it was built from.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(kotlin.GetLanguage())
	return &Parser{parser: p}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(source, path)
}

// Parse parses Kotlin source. The tree is returned even when it contains
// error or missing nodes; callers decide which regions must be well formed.
func (p *Parser) Parse(source []byte, path string) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source, path)
}

// ParseCtx is Parse with cancellation support.
func (p *Parser) ParseCtx(ctx context.Context, source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if tree.RootNode() == nil {
		tree.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrSyntax)
	}

	return &ParseResult{
		Tree:     tree,
		Language: LangKotlin,
		Source:   source,
		Path:     path,
	}, nil
}

// Close releases the tree held by the result.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// HasError reports whether the tree contains any error or missing node.
func (r *ParseResult) HasError() bool {
	return r.Tree.RootNode().HasError()
}

// FirstError returns the first error or missing node below node in source
// order, or nil when the subtree is well formed.
func FirstError(node *sitter.Node) *sitter.Node {
	var found *sitter.Node
	Walk(node, nil, func(n *sitter.Node, _ []byte) bool {
		if found != nil {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kt", ".kts":
		return LangKotlin
	default:
		return LangUnknown
	}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// NodeVisitor is a function that visits tree-sitter nodes.
// Returning false skips the node's children.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// Walk traverses the tree calling visitor for each node.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// FindNodesByType returns all nodes of a specific type.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	Walk(root, source, func(node *sitter.Node, source []byte) bool {
		if node.Type() == nodeType {
			results = append(results, node)
		}
		return true
	})
	return results
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
