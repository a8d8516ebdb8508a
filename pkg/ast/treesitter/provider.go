package treesitter

import (
	"slices"
	"strings"
	"unicode"

	"github.com/panbanda/ctrlmetrics/pkg/ast"
	"github.com/panbanda/ctrlmetrics/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Ensure Provider implements ast.Provider.
var _ ast.Provider = (*Provider)(nil)

// Provider implements ast.Provider using the tree-sitter Kotlin grammar.
// A Provider is not safe for concurrent use.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// NewWithParser creates a provider around an existing parser. The caller
// keeps ownership of psr.
func NewWithParser(psr *parser.Parser) *Provider {
	return &Provider{parser: psr}
}

// Parse reads and parses a file.
func (p *Provider) Parse(path string) (*ast.File, error) {
	if parser.DetectLanguage(path) != parser.LangKotlin {
		return nil, ast.ErrUnsupportedLanguage
	}
	result, err := p.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return Lower(result), nil
}

// ParseSource parses already loaded content.
func (p *Provider) ParseSource(path string, source []byte) (*ast.File, error) {
	result, err := p.parser.Parse(source, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return Lower(result), nil
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}

// Lower converts a tree-sitter parse result into the typed tree.
// Only top-level class and interface declarations are kept. Error nodes
// are recorded on the declaration they fall in, or on the file.
func Lower(result *parser.ParseResult) *ast.File {
	l := &lowerer{source: result.Source, path: result.Path}
	file := &ast.File{Path: result.Path}

	root := result.Tree.RootNode()
	for i := range int(root.ChildCount()) {
		child := root.Child(i)
		if child.Type() == "class_declaration" {
			file.Decls = append(file.Decls, l.class(child))
			continue
		}
		if pos, ok := l.malformed(child); ok {
			file.Errors = append(file.Errors, pos)
		}
	}
	return file
}

type lowerer struct {
	source []byte
	path   string
}

func (l *lowerer) pos(node *sitter.Node) ast.Position {
	pt := node.StartPoint()
	return ast.Position{
		File:   l.path,
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
	}
}

func (l *lowerer) text(node *sitter.Node) string {
	return parser.GetNodeText(node, l.source)
}

// malformed returns the position of the first error or missing node in n.
func (l *lowerer) malformed(n *sitter.Node) (ast.Position, bool) {
	if bad := parser.FirstError(n); bad != nil {
		return l.pos(bad), true
	}
	return ast.Position{}, false
}

func (l *lowerer) class(node *sitter.Node) *ast.ClassDecl {
	cls := &ast.ClassDecl{Pos: l.pos(node)}

	// Anything before the body belongs to the header. Without a body the
	// members are lost, so every stray node counts.
	bodyStart := ^uint32(0)
	for i := range int(node.NamedChildCount()) {
		if child := node.NamedChild(i); child.Type() == "class_body" {
			bodyStart = child.StartByte()
			break
		}
	}

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "class", "interface":
			if !child.IsNamed() {
				cls.Keyword = child.Type()
			}
		case "type_identifier", "simple_identifier":
			if cls.Name == "" {
				cls.Name = l.text(child)
			}
		case "primary_constructor":
			cls.Constructor = l.constructor(child)
		case "delegation_specifier":
			cls.Supertypes = append(cls.Supertypes, l.supertype(child))
		case "delegation_specifiers":
			for j := range int(child.NamedChildCount()) {
				if spec := child.NamedChild(j); spec.Type() == "delegation_specifier" {
					cls.Supertypes = append(cls.Supertypes, l.supertype(spec))
				}
			}
		case "class_body":
			cls.Members = l.members(cls, child)
			continue
		}
		if child.StartByte() < bodyStart {
			if pos, ok := l.malformed(child); ok {
				cls.Errors = append(cls.Errors, pos)
			}
		}
	}
	return cls
}

func (l *lowerer) constructor(node *sitter.Node) *ast.ConstructorDecl {
	ctor := &ast.ConstructorDecl{Params: []*ast.ParamDecl{}, Pos: l.pos(node)}
	parser.Walk(node, l.source, func(n *sitter.Node, _ []byte) bool {
		if n.Type() != "class_parameter" {
			return true
		}
		ctor.Params = append(ctor.Params, l.param(n))
		return false
	})
	return ctor
}

func (l *lowerer) param(node *sitter.Node) *ast.ParamDecl {
	p := &ast.ParamDecl{Pos: l.pos(node)}
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch t := child.Type(); {
		case t == "binding_pattern_kind":
			p.Binding = binding(l.text(child))
		case (t == "val" || t == "var") && !child.IsNamed():
			p.Binding = ast.Binding(t)
		case t == "simple_identifier" && p.Name == "":
			p.Name = l.text(child)
		case isTypeNode(t) && p.Type == nil:
			p.Type = l.typeRef(child)
		}
	}
	return p
}

func (l *lowerer) supertype(node *sitter.Node) ast.Supertype {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "constructor_invocation":
			return ast.Supertype{Form: ast.SupertypeCall, Type: l.firstType(child)}
		case "explicit_delegation":
			return ast.Supertype{Form: ast.SupertypeDelegation, Type: l.firstType(child)}
		default:
			if isTypeNode(child.Type()) {
				return ast.Supertype{Form: ast.SupertypeType, Type: l.typeRef(child)}
			}
		}
	}
	return ast.Supertype{Form: ast.SupertypeType, Type: &ast.TypeRef{Name: compact(l.text(node))}}
}

// members lowers the direct properties and functions of a class body.
// Errors in their signatures are recorded on cls; anything else in the
// body, including stray error nodes, is ignored.
func (l *lowerer) members(cls *ast.ClassDecl, body *sitter.Node) []ast.Member {
	var members []ast.Member
	for i := range int(body.NamedChildCount()) {
		child := body.NamedChild(i)
		switch child.Type() {
		case "property_declaration":
			l.checkSignature(cls, child, "=", "property_delegate", "getter", "setter")
			if prop := l.property(child); prop != nil {
				members = append(members, prop)
			}
		case "function_declaration":
			l.checkSignature(cls, child, "function_body")
			members = append(members, l.function(child))
		}
	}
	return members
}

// checkSignature records the first malformed child of decl that appears
// before any child of the given stop types.
func (l *lowerer) checkSignature(cls *ast.ClassDecl, decl *sitter.Node, stop ...string) {
	for i := range int(decl.ChildCount()) {
		child := decl.Child(i)
		if slices.Contains(stop, child.Type()) {
			return
		}
		if pos, ok := l.malformed(child); ok {
			cls.Errors = append(cls.Errors, pos)
			return
		}
	}
}

// property returns nil for destructuring declarations, which have no single type.
func (l *lowerer) property(node *sitter.Node) *ast.PropertyDecl {
	prop := &ast.PropertyDecl{Pos: l.pos(node)}
	found := false
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch t := child.Type(); {
		case t == "binding_pattern_kind":
			prop.Binding = binding(l.text(child))
		case (t == "val" || t == "var") && !child.IsNamed():
			prop.Binding = ast.Binding(t)
		case t == "variable_declaration":
			found = true
			for j := range int(child.NamedChildCount()) {
				part := child.NamedChild(j)
				switch {
				case part.Type() == "simple_identifier" && prop.Name == "":
					prop.Name = l.text(part)
				case isTypeNode(part.Type()) && prop.Type == nil:
					prop.Type = l.typeRef(part)
				}
			}
		}
	}
	if !found {
		return nil
	}
	return prop
}

func (l *lowerer) function(node *sitter.Node) *ast.FunctionDecl {
	fn := &ast.FunctionDecl{Pos: l.pos(node)}
	afterParams := false
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch t := child.Type(); {
		case t == "simple_identifier" && fn.Name == "":
			fn.Name = l.text(child)
		case t == "function_value_parameters":
			afterParams = true
		case afterParams && isTypeNode(t) && fn.Type == nil:
			fn.Type = l.typeRef(child)
		}
	}
	return fn
}

// firstType lowers the first direct type child of node.
func (l *lowerer) firstType(node *sitter.Node) *ast.TypeRef {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		if isTypeNode(child.Type()) {
			return l.typeRef(child)
		}
	}
	return nil
}

func (l *lowerer) typeRef(node *sitter.Node) *ast.TypeRef {
	switch node.Type() {
	case "user_type":
		return l.userType(node)
	case "nullable_type":
		inner := l.firstType(node)
		if inner == nil {
			inner = &ast.TypeRef{Name: compact(strings.TrimRight(l.text(node), "? \t\n"))}
		}
		inner.Nullable = true
		return inner
	case "parenthesized_type", "non_nullable_type":
		if inner := l.firstType(node); inner != nil {
			return inner
		}
	}
	return &ast.TypeRef{Name: compact(l.text(node))}
}

func (l *lowerer) userType(node *sitter.Node) *ast.TypeRef {
	ref := &ast.TypeRef{}
	var parts []string
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		for i := range int(n.NamedChildCount()) {
			child := n.NamedChild(i)
			switch child.Type() {
			case "type_identifier", "simple_identifier":
				parts = append(parts, l.text(child))
				ref.Args = nil
			case "type_arguments":
				ref.Args = l.typeArgs(child)
			case "simple_user_type":
				collect(child)
			}
		}
	}
	collect(node)
	ref.Name = strings.Join(parts, ".")
	return ref
}

func (l *lowerer) typeArgs(node *sitter.Node) []*ast.TypeRef {
	var args []*ast.TypeRef
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		if child.Type() != "type_projection" {
			continue
		}
		if arg := l.firstType(child); arg != nil {
			args = append(args, arg)
		} else {
			args = append(args, &ast.TypeRef{Name: compact(l.text(child))})
		}
	}
	return args
}

// binding maps the text of a binding_pattern_kind node to a Binding.
func binding(text string) ast.Binding {
	switch b := ast.Binding(strings.TrimSpace(text)); b {
	case ast.BindingVal, ast.BindingVar:
		return b
	}
	return ast.BindingNone
}

func isTypeNode(t string) bool {
	switch t {
	case "user_type", "nullable_type", "function_type", "parenthesized_type", "non_nullable_type":
		return true
	}
	return false
}

// compact removes all whitespace.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
