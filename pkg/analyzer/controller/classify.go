package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/panbanda/ctrlmetrics/pkg/ast"
	"github.com/panbanda/ctrlmetrics/pkg/parser"
)

var (
	// ErrNoDeclaration means the file has no top-level class named after it.
	ErrNoDeclaration = errors.New("no top-level class matching file name")
	// ErrNotController means the class does not implement the target interface.
	ErrNotController = errors.New("class does not implement the controller interface")
	// ErrNoConstructor means a controller class declares no primary constructor.
	ErrNoConstructor = errors.New("controller has no primary constructor")
)

// BaseName returns the file name up to its first dot, which is the class
// name a controller file is expected to declare.
func BaseName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// FindClass returns the top-level class declaration called name.
// Interfaces and nested classes are not considered.
func FindClass(file *ast.File, name string) (*ast.ClassDecl, error) {
	for _, decl := range file.Decls {
		if decl.IsClass() && decl.Name == name {
			return decl, nil
		}
	}
	return nil, ErrNoDeclaration
}

// IsController reports whether cls lists iface as a plain supertype.
// Names and type arguments are compared case-insensitively. Superclass
// constructor calls and delegated supertypes never match.
func IsController(cls *ast.ClassDecl, iface *ast.TypeRef) bool {
	for _, st := range cls.Supertypes {
		if st.Form == ast.SupertypeType && st.Type.EqualFold(iface) {
			return true
		}
	}
	return false
}

// syntaxError reports malformed source at pos.
func syntaxError(pos ast.Position) error {
	return fmt.Errorf("%s:%d: %w", pos.File, pos.Line, parser.ErrSyntax)
}
