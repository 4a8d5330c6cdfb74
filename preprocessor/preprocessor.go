// Package preprocessor tidies the imports of a generated file.
package preprocessor

import (
	"fmt"
	"go/ast"
	"go/token"
	"slices"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"
)

type visitFn func(node ast.Node)

func (fn visitFn) Visit(node ast.Node) ast.Visitor {
	fn(node)
	return fn
}

// Import is an import spec. Name is empty for an import under the
// package's default name.
type Import struct {
	Name string
	Path string
}

func (imp Import) String() string {
	if imp.Name == "" {
		return strconv.Quote(imp.Path)
	}
	return imp.Name + " " + strconv.Quote(imp.Path)
}

// FileImports returns the imports of f, except for the cgo
// pseudo-package "C".
func FileImports(f *ast.File) ([]Import, error) {
	var res []Import
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, err
		}
		if path == "C" {
			continue
		}
		imp := Import{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		res = append(res, imp)
	}
	return res, nil
}

// AddImports adds imps to f, skipping the ones f already has.
func AddImports(fset *token.FileSet, f *ast.File, imps []Import) {
	for _, imp := range imps {
		astutil.AddNamedImport(fset, f, imp.Name, imp.Path)
	}
}

// PruneImports removes all imports f does not reference, including
// imports as "_". Imports as "." and the cgo pseudo-package "C" are kept.
// Different packages sharing a name are only an error if that name is
// referenced.
//
// Passing an unpopulated fset may lead to a nil pointer dereference!
// getDefaultPackageName should return the default import name of the
// given package.
func PruneImports(fset *token.FileSet, f *ast.File, getDefaultPackageName func(path string) (string, error)) error {
	strip := map[Import]struct{}{}
	// Resolved name to the distinct imports using it, in source order.
	importsByName := map[string][]Import{}
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return err
		}
		if path == "C" {
			continue
		}
		name := ""
		var resolvedName string
		if spec.Name == nil {
			var err error
			resolvedName, err = getDefaultPackageName(path)
			if err != nil {
				return fmt.Errorf("get import name for %v at %v: %w", path, fset.Position(spec.Pos()), err)
			}
		} else {
			name = spec.Name.Name
			resolvedName = spec.Name.Name
		}
		if resolvedName == "" {
			return fmt.Errorf("empty import name for %v", path)
		}
		imp := Import{Name: name, Path: path}
		switch name {
		case "_":
			strip[imp] = struct{}{}
		case ".":
			// Uses of dot imports are not qualified, so there is no way
			// to tell whether they are needed.
		default:
			if slices.ContainsFunc(importsByName[resolvedName], func(other Import) bool {
				return other.Path == imp.Path
			}) {
				// Same package imported twice under the same name.
				strip[imp] = struct{}{}
				continue
			}
			importsByName[resolvedName] = append(importsByName[resolvedName], imp)
		}
	}

	used := map[string]struct{}{}
	ast.Walk(visitFn(func(n ast.Node) {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return
		}
		id, ok := sel.X.(*ast.Ident)
		if !ok {
			return
		}
		if _, ok := importsByName[id.Name]; ok {
			used[id.Name] = struct{}{}
		}
	}), f)

	for name, imps := range importsByName {
		if _, ok := used[name]; !ok {
			for _, imp := range imps {
				strip[imp] = struct{}{}
			}
			continue
		}
		if len(imps) > 1 {
			return fmt.Errorf("conflicting imports %v and %v both use the name %v", imps[0], imps[1], name)
		}
	}
	for imp := range strip {
		if !astutil.DeleteNamedImport(fset, f, imp.Name, imp.Path) {
			return fmt.Errorf("unable to remove import %v", imp)
		}
	}
	return nil
}
