// Package ast defines a small typed syntax tree for the subset of Kotlin
// that controller analysis needs: class declarations with their supertypes,
// primary constructor parameters and body members, and structured type
// references.
//
// Trees are produced by a Provider (see the treesitter subpackage) and
// traversed with Walk or Inspect:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	file, err := provider.Parse("app/src/main/FooController.kt")
//	if err != nil {
//	    return err
//	}
//
//	ast.Inspect(file, func(n ast.Node) bool {
//	    if cls, ok := n.(*ast.ClassDecl); ok {
//	        fmt.Println(cls.Name)
//	    }
//	    return true
//	})
package ast
