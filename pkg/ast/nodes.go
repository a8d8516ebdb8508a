package ast

// NodeKind enumerates the node variants of the tree.
type NodeKind int

const (
	KindFile NodeKind = iota
	KindClass
	KindConstructor
	KindParam
	KindProperty
	KindFunction
	KindTypeRef
)

func (k NodeKind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindClass:
		return "ClassDecl"
	case KindConstructor:
		return "ConstructorDecl"
	case KindParam:
		return "ParamDecl"
	case KindProperty:
		return "PropertyDecl"
	case KindFunction:
		return "FunctionDecl"
	case KindTypeRef:
		return "TypeRef"
	default:
		return "Unknown"
	}
}

// Node is implemented by every tree node.
type Node interface {
	Kind() NodeKind
}

// Member is a declaration that can appear in a class body.
type Member interface {
	Node
	// MemberName returns the declared identifier.
	MemberName() string
	// DeclaredType returns the explicit type, or nil when it is inferred.
	DeclaredType() *TypeRef
}

// Binding is the mutability keyword on a property or constructor parameter.
type Binding string

const (
	BindingNone Binding = ""
	BindingVal  Binding = "val"
	BindingVar  Binding = "var"
)

// File is the root of a parsed source file.
type File struct {
	Path string
	// Decls holds the top-level class and interface declarations in source order.
	Decls []*ClassDecl
	// Errors locates malformed top-level syntax outside any declaration.
	Errors []Position
}

func (*File) Kind() NodeKind { return KindFile }

// SupertypeForm distinguishes the shapes an inheritance entry can take.
type SupertypeForm int

const (
	// SupertypeType is a bare type reference: `: Interface<A, B>`.
	SupertypeType SupertypeForm = iota
	// SupertypeCall is a superclass constructor invocation: `: Base()`.
	SupertypeCall
	// SupertypeDelegation is interface delegation: `: Interface by impl`.
	SupertypeDelegation
)

// Supertype is one entry of a class inheritance list.
type Supertype struct {
	Form SupertypeForm
	Type *TypeRef
}

// ClassDecl is a class or interface declaration.
type ClassDecl struct {
	// Keyword is "class" or "interface".
	Keyword     string
	Name        string
	Supertypes  []Supertype
	Constructor *ConstructorDecl
	Members     []Member
	Pos         Position
	// Errors locates malformed syntax in the header, the primary
	// constructor or a member signature. Bodies and nested
	// declarations are not checked.
	Errors []Position
}

func (*ClassDecl) Kind() NodeKind { return KindClass }

// IsClass reports whether the declaration uses the class keyword.
func (c *ClassDecl) IsClass() bool { return c.Keyword == "class" }

// ConstructorDecl is a primary constructor.
type ConstructorDecl struct {
	Params []*ParamDecl
	Pos    Position
}

func (*ConstructorDecl) Kind() NodeKind { return KindConstructor }

// ParamDecl is a primary constructor parameter.
type ParamDecl struct {
	Binding Binding
	Name    string
	Type    *TypeRef
	Pos     Position
}

func (*ParamDecl) Kind() NodeKind { return KindParam }

// PropertyDecl is a val or var declared in a class body.
type PropertyDecl struct {
	Binding Binding
	Name    string
	Type    *TypeRef
	Pos     Position
}

func (*PropertyDecl) Kind() NodeKind { return KindProperty }
func (p *PropertyDecl) MemberName() string { return p.Name }
func (p *PropertyDecl) DeclaredType() *TypeRef { return p.Type }

// FunctionDecl is a fun declared in a class body. Type is the declared return type.
type FunctionDecl struct {
	Name string
	Type *TypeRef
	Pos  Position
}

func (*FunctionDecl) Kind() NodeKind { return KindFunction }
func (f *FunctionDecl) MemberName() string { return f.Name }
func (f *FunctionDecl) DeclaredType() *TypeRef { return f.Type }
