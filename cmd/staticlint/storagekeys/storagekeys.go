// Package storagekeys defines an analyzer that keeps the durable storage key
// namespaces in one place. Keys handed to the storage package must come from
// named constants or key builders, never from inline string literals.
package storagekeys

import (
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer reports string literals passed as the key argument of the storage
// helpers and of the storage.Storage interface methods. Test files are skipped.
var Analyzer = &analysis.Analyzer{
	Name:     "storagekeys",
	Doc:      "prohibits string literal keys in calls to the durable storage package",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

const storagePackageSuffix = "/db/storage"

// Position of the key argument.
var (
	keyedFuncs = map[string]int{
		"GetJSON": 2,
		"SetJSON": 2,
		"Wrap":    1,
	}
	keyedMethods = map[string]int{
		"Get":    1,
		"Set":    1,
		"Remove": 1,
	}
)

func run(pass *analysis.Pass) (interface{}, error) {
	if strings.HasSuffix(pass.Pkg.Path(), storagePackageSuffix) {
		return nil, nil
	}

	nodeInspector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	nodeInspector.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)

		filename := pass.Fset.File(call.Pos()).Name()
		if strings.HasSuffix(filename, "_test.go") || isGoBuildCacheFile(filename) {
			return
		}

		index, ok := keyArgument(pass.TypesInfo, call)
		if !ok || index >= len(call.Args) {
			return
		}

		lit, ok := ast.Unparen(call.Args[index]).(*ast.BasicLit)
		if ok && lit.Kind == token.STRING {
			pass.Reportf(lit.Pos(), "storage key %s is a string literal; use a named key", lit.Value)
		}
	})

	return nil, nil
}

// keyArgument returns the index of the key argument when call targets the
// storage package.
func keyArgument(info *types.Info, call *ast.CallExpr) (int, bool) {
	fn, ok := typeutil.Callee(info, call).(*types.Func)
	if !ok || fn.Pkg() == nil || !strings.HasSuffix(fn.Pkg().Path(), storagePackageSuffix) {
		return 0, false
	}

	if signature, ok := fn.Type().(*types.Signature); ok && signature.Recv() != nil {
		index, ok := keyedMethods[fn.Name()]
		return index, ok
	}
	index, ok := keyedFuncs[fn.Name()]

	return index, ok
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/")
}
