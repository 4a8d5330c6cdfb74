package pyglue

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/refaktor/pyglue/binder/binderio"
	"github.com/refaktor/pyglue/config"
	"github.com/refaktor/pyglue/diag"
	"github.com/refaktor/pyglue/loader"
	"github.com/refaktor/pyglue/module"
	"github.com/refaktor/pyglue/preprocessor"
)

// Header is the first line of every generated file.
const Header = "// Code generated by pyglue. DO NOT EDIT."

// RuntimeName is the name the runtime package is imported as in
// generated code.
const RuntimeName = "pyrt"

// Package is a parsed package to generate code for.
type Package struct {
	Fset  *token.FileSet
	Files []*ast.File
	// ImportName returns the default name of an imported package.
	ImportName func(path string) (string, error)
}

// Generate processes the marked functions of pkg and returns the
// formatted source of the generated file.
//
// Diagnostics of single functions are returned as a [*multierror.Error]
// together with the source for the functions that succeeded. If the
// wrappers need two different packages under one name, src is nil. If the
// package has no pyglue directives, src and mod are nil.
func Generate(pkg Package, cfg *config.Config, opts module.Options) (src []byte, mod *module.Module, err error) {
	if len(pkg.Files) == 0 {
		return nil, nil, nil
	}
	var errs *multierror.Error
	mod, err = module.ProcessFunctionsInModule(pkg.Files, opts)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	if mod == nil {
		return nil, nil, errs.ErrorOrNil()
	}

	var cb binderio.CodeBuilder
	cb.Linef(`%v`, Header)
	cb.Linef(``)
	if cfg.BuildTag != "" {
		cb.Linef(`//go:build %v`, cfg.BuildTag)
		cb.Linef(``)
	}
	cb.Linef(`package %v`, pkg.Files[0].Name.Name)
	cb.Linef(``)
	cb.Linef(`/*`)
	cb.Linef(`#cgo pkg-config: %v`, cfg.PkgConfig)
	cb.Linef(`#include <Python.h>`)
	cb.Linef(``)
	for _, f := range mod.Functions {
		cb.Linef(`%v`, f.CDecl)
	}
	cb.Linef(`*/`)
	cb.Linef(`import "C"`)
	cb.Linef(``)
	cb.Openf(`import (`)
	cb.Linef(`"unsafe"`)
	cb.Linef(``)
	cb.Linef(`%v %v`, RuntimeName, strconv.Quote(cfg.Runtime))
	cb.Closef(`)`)
	for _, f := range mod.Functions {
		cb.Linef(``)
		cb.Append(f.Raw)
		cb.Linef(``)
		cb.Append(f.ThunkSrc)
	}
	if mod.InitSrc != "" {
		cb.Linef(``)
		cb.Append(mod.InitSrc)
	}

	importName := pkg.ImportName
	if importName == nil {
		importName = loader.PackageNameFunc(nil)
	}
	imps, err := sourceImports(pkg.Files, mod, importName)
	if err != nil {
		errs = multierror.Append(errs, err)
		return nil, mod, errs
	}
	src, err = tidy(cfg.Output, cb.String(), imps, importName)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", cfg.Output, err)
	}
	return src, mod, errs.ErrorOrNil()
}

// sourceImports returns the imports the wrappers refer to: those of the
// files declaring a wrapped function whose names appear in a parameter or
// result type or in a default value. Two such imports of different
// packages under one name are reported at the second one.
func sourceImports(files []*ast.File, mod *module.Module, importName func(path string) (string, error)) ([]preprocessor.Import, error) {
	var res []preprocessor.Import
	byName := map[string]preprocessor.Import{}
	for _, file := range files {
		names := map[string]bool{}
		for _, f := range mod.Functions {
			if file.FileStart <= f.Decl.Pos() && f.Decl.End() <= file.FileEnd {
				addQualifiers(names, f)
			}
		}
		if len(names) == 0 {
			continue
		}
		imps, err := preprocessor.FileImports(file)
		if err != nil {
			return nil, err
		}
		for i, imp := range imps {
			name := imp.Name
			switch name {
			case "_", ".":
				continue
			case "":
				if name, err = importName(imp.Path); err != nil {
					// Wrappers can not refer to it by a name we don't know.
					continue
				}
			}
			if !names[name] {
				continue
			}
			if other, ok := byName[name]; ok {
				if other.Path != imp.Path {
					return nil, diag.Errorf(importSpec(file, i), "import %v conflicts with %v, wrapped functions use both as %v", imp, other, name)
				}
				continue
			}
			byName[name] = imp
			res = append(res, imp)
		}
	}
	return res, nil
}

// importSpec returns the spec of the i-th import of file, as counted by
// [preprocessor.FileImports].
func importSpec(file *ast.File, i int) *ast.ImportSpec {
	for _, spec := range file.Imports {
		if spec.Path.Value == `"C"` {
			continue
		}
		if i == 0 {
			return spec
		}
		i--
	}
	return nil
}

// addQualifiers adds the package names the wrappers of f refer to.
func addQualifiers(names map[string]bool, f *module.Function) {
	collect := func(n ast.Node) {
		ast.Inspect(n, func(n ast.Node) bool {
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := sel.X.(*ast.Ident); ok {
					names[id.Name] = true
				}
			}
			return true
		})
	}
	collect(f.Decl.Type)
	for _, a := range f.Spec.Attrs {
		if a.Default == "" {
			continue
		}
		// Invalid defaults surface when the generated file is parsed.
		if expr, err := parser.ParseExpr(a.Default); err == nil {
			collect(expr)
		}
	}
}

// tidy adds imps to the generated code, removes the unused imports and
// formats the result.
func tidy(filename, code string, imps []preprocessor.Import, importName func(path string) (string, error)) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, code, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse generated code: %w", err)
	}
	preprocessor.AddImports(fset, f, imps)
	if err := preprocessor.PruneImports(fset, f, importName); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := format.Node(&b, fset, f); err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return b.Bytes(), nil
}
