package controller

import (
	"github.com/panbanda/ctrlmetrics/pkg/ast"
	"github.com/panbanda/ctrlmetrics/pkg/models"
)

// CountDependencies counts primary constructor parameters declared with val.
func CountDependencies(ctor *ast.ConstructorDecl) int {
	n := 0
	for _, p := range ctor.Params {
		if p.Binding == ast.BindingVal {
			n++
		}
	}
	return n
}

// streamCounter is an ast.Visitor that counts direct class members whose
// declared type is one of the stream types.
type streamCounter struct {
	root     *ast.ClassDecl
	types    []*ast.TypeRef
	excluded map[string]bool
	count    int
}

func (c *streamCounter) Visit(node ast.Node) ast.Visitor {
	switch n := node.(type) {
	case *ast.ClassDecl:
		if n == c.root {
			return c
		}
	case *ast.PropertyDecl:
		c.match(n)
	case *ast.FunctionDecl:
		c.match(n)
	}
	return nil
}

func (c *streamCounter) match(m ast.Member) {
	if c.excluded[m.MemberName()] {
		return
	}
	declared := m.DeclaredType()
	if declared == nil {
		return
	}
	for _, t := range c.types {
		if declared.Equal(t) {
			c.count++
			return
		}
	}
}

// CountStreams counts body members of cls typed as one of streamTypes,
// skipping members whose name is in excluded.
func CountStreams(cls *ast.ClassDecl, streamTypes []*ast.TypeRef, excluded []string) int {
	c := &streamCounter{
		root:     cls,
		types:    streamTypes,
		excluded: make(map[string]bool, len(excluded)),
	}
	for _, name := range excluded {
		c.excluded[name] = true
	}
	ast.Walk(c, cls)
	return c.count
}

// Extract builds the record for a class already classified as a controller.
func Extract(name string, cls *ast.ClassDecl, rules Rules) (models.Record, error) {
	if cls.Constructor == nil {
		return models.Record{}, ErrNoConstructor
	}
	return models.Record{
		Name:         name,
		Dependencies: CountDependencies(cls.Constructor),
		Streams:      CountStreams(cls, rules.StreamTypes, rules.ExcludedMembers),
	}, nil
}
