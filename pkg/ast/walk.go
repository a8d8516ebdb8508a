package ast

// Visitor is invoked for each node encountered by Walk. If the returned
// visitor w is not nil, Walk visits each child of node with w, followed by
// a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses a tree in depth-first source order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *File:
		for _, d := range n.Decls {
			Walk(v, d)
		}
	case *ClassDecl:
		for _, s := range n.Supertypes {
			if s.Type != nil {
				Walk(v, s.Type)
			}
		}
		if n.Constructor != nil {
			Walk(v, n.Constructor)
		}
		for _, m := range n.Members {
			Walk(v, m)
		}
	case *ConstructorDecl:
		for _, p := range n.Params {
			Walk(v, p)
		}
	case *ParamDecl:
		if n.Type != nil {
			Walk(v, n.Type)
		}
	case *PropertyDecl:
		if n.Type != nil {
			Walk(v, n.Type)
		}
	case *FunctionDecl:
		if n.Type != nil {
			Walk(v, n.Type)
		}
	case *TypeRef:
		for _, a := range n.Args {
			Walk(v, a)
		}
	}

	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree calling f for each node; f(nil) is called after
// the children of a node. Returning false skips the node's children.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
