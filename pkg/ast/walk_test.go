package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleClass() *ClassDecl {
	return &ClassDecl{
		Keyword: "class",
		Name:    "FooController",
		Supertypes: []Supertype{
			{Form: SupertypeType, Type: MustParseTypeRef("ObservableTransformer<UiEvent, UiChange>")},
		},
		Constructor: &ConstructorDecl{
			Params: []*ParamDecl{
				{Binding: BindingVal, Name: "repo", Type: MustParseTypeRef("Repository")},
			},
		},
		Members: []Member{
			&PropertyDecl{Binding: BindingVal, Name: "changes", Type: MustParseTypeRef("Observable<UiChange>")},
			&FunctionDecl{Name: "apply", Type: MustParseTypeRef("ObservableSource<UiChange>")},
		},
	}
}

func TestInspectOrder(t *testing.T) {
	file := &File{Path: "FooController.kt", Decls: []*ClassDecl{sampleClass()}}

	var kinds []NodeKind
	Inspect(file, func(n Node) bool {
		if n != nil {
			kinds = append(kinds, n.Kind())
		}
		return true
	})

	assert.Equal(t, []NodeKind{
		KindFile,
		KindClass,
		KindTypeRef, KindTypeRef, KindTypeRef, // supertype and its two arguments
		KindConstructor,
		KindParam, KindTypeRef,
		KindProperty, KindTypeRef, KindTypeRef,
		KindFunction, KindTypeRef, KindTypeRef,
	}, kinds)
}

func TestInspectPrune(t *testing.T) {
	var names []string
	Inspect(sampleClass(), func(n Node) bool {
		switch n := n.(type) {
		case *ClassDecl:
			return true
		case Member:
			names = append(names, n.MemberName())
		}
		return false
	})

	assert.Equal(t, []string{"changes", "apply"}, names)
}

type countingVisitor struct {
	nils int
}

func (v *countingVisitor) Visit(n Node) Visitor {
	if n == nil {
		v.nils++
	}
	return v
}

func TestWalkVisitsNilAfterChildren(t *testing.T) {
	v := &countingVisitor{}
	Walk(v, &ConstructorDecl{Params: []*ParamDecl{{Name: "a"}, {Name: "b"}}})

	// One trailing nil per node: the constructor and both params.
	assert.Equal(t, 3, v.nils)
}
