package directive

import (
	"go/ast"
	"go/token"

	"github.com/refaktor/pyglue/diag"
)

// PyfnAttrs is the decoded content of a pyfn directive.
type PyfnAttrs struct {
	// Module the function is added to, e.g. `m`.
	ModulePath Path
	// Name under which the function is visible from Python.
	PythonName string
	NamePos    token.Pos
	Attrs      PyFunctionAttr
	// Position of the directive comment.
	Pos token.Pos
}

// ExtractPyfnAttrs finds the pyfn directive in doc, decodes it and removes
// it from doc. Other comments keep their relative order.
//
// If there is no pyfn directive, ok is false and doc is left untouched.
// If decoding fails, doc is left untouched as well.
func ExtractPyfnAttrs(doc *ast.CommentGroup) (_ PyfnAttrs, ok bool, err error) {
	idxs := find(doc, NamePyfn)
	if len(idxs) == 0 {
		return PyfnAttrs{}, false, nil
	}
	if len(idxs) > 1 {
		return PyfnAttrs{}, false, diag.Errorf(doc.List[idxs[1]], "pyfn directive already specified previously")
	}
	c := doc.List[idxs[0]]

	meta, err := Parse(c)
	if err != nil {
		return PyfnAttrs{}, false, err
	}
	if meta.Kind != MetaList {
		return PyfnAttrs{}, false, diag.Errorf(c, `can not parse 'pyfn' params: expected pyfn(<module>, "<name>", ...)`)
	}

	res := PyfnAttrs{Pos: c.Slash}
	switch len(meta.List) {
	case 0:
		return PyfnAttrs{}, false, diag.ErrorAt(meta.End-1, "can not parse 'pyfn' params: missing first parameter (module path)")
	case 1:
		return PyfnAttrs{}, false, diag.ErrorAt(meta.End-1, "can not parse 'pyfn' params: missing second parameter (exported name)")
	}

	path, isPath := meta.List[0].PathOnly()
	if !isPath {
		return PyfnAttrs{}, false, diag.ErrorAt(meta.List[0].Pos(), "the first parameter of pyfn must be a module path")
	}
	res.ModulePath = path

	nameLit := meta.List[1].Lit
	var name string
	if nameLit != nil {
		name, isPath = nameLit.Str()
	}
	if nameLit == nil || !isPath {
		return PyfnAttrs{}, false, diag.ErrorAt(meta.List[1].Pos(), "the second parameter of pyfn must be a string literal")
	}
	if !token.IsIdentifier(name) {
		return PyfnAttrs{}, false, diag.ErrorAt(nameLit.Pos, "exported name %q is not a valid identifier", name)
	}
	res.PythonName = name
	res.NamePos = nameLit.Pos

	if len(meta.List) >= 3 {
		res.Attrs, err = ParsePyFunctionAttr(meta.List[2:])
		if err != nil {
			return PyfnAttrs{}, false, err
		}
	}

	doc.List = without(doc.List, idxs[0])
	return res, true, nil
}

// ExtractPyfunctionAttr finds and removes a standalone pyfunction
// directive. Its optional list holds the same flags as the third and
// later entries of a pyfn directive.
func ExtractPyfunctionAttr(doc *ast.CommentGroup) (_ PyFunctionAttr, pos token.Pos, ok bool, err error) {
	idxs := find(doc, NamePyfunction)
	if len(idxs) == 0 {
		return PyFunctionAttr{}, token.NoPos, false, nil
	}
	if len(idxs) > 1 {
		return PyFunctionAttr{}, token.NoPos, false, diag.Errorf(doc.List[idxs[1]], "pyfunction directive already specified previously")
	}
	c := doc.List[idxs[0]]
	meta, err := Parse(c)
	if err != nil {
		return PyFunctionAttr{}, token.NoPos, false, err
	}
	var attrs PyFunctionAttr
	switch meta.Kind {
	case MetaPath:
	case MetaList:
		attrs, err = ParsePyFunctionAttr(meta.List)
		if err != nil {
			return PyFunctionAttr{}, token.NoPos, false, err
		}
	default:
		return PyFunctionAttr{}, token.NoPos, false, diag.Errorf(c, "pyfunction must be of the form pyfunction or pyfunction(<args>...)")
	}
	doc.List = without(doc.List, idxs[0])
	return attrs, c.Slash, true, nil
}

// ModuleAttr is the decoded content of a pymodule directive.
type ModuleAttr struct {
	// Explicit module name, empty if the function name should be used.
	Name string
	Pos  token.Pos
}

// ExtractModuleAttr finds and removes a pymodule directive, which is
// either `pymodule` or `pymodule(<name>)`.
func ExtractModuleAttr(doc *ast.CommentGroup) (_ ModuleAttr, ok bool, err error) {
	idxs := find(doc, NamePymodule)
	if len(idxs) == 0 {
		return ModuleAttr{}, false, nil
	}
	if len(idxs) > 1 {
		return ModuleAttr{}, false, diag.Errorf(doc.List[idxs[1]], "pymodule directive already specified previously")
	}
	c := doc.List[idxs[0]]
	meta, err := Parse(c)
	if err != nil {
		return ModuleAttr{}, false, err
	}
	res := ModuleAttr{Pos: c.Slash}
	switch meta.Kind {
	case MetaPath:
	case MetaList:
		if len(meta.List) != 1 {
			return ModuleAttr{}, false, diag.Errorf(c, "pymodule takes at most one module name, got %v", len(meta.List))
		}
		path, ok := meta.List[0].PathOnly()
		if !ok || len(path.Segments) != 1 {
			return ModuleAttr{}, false, diag.ErrorAt(meta.List[0].Pos(), "module name must be an identifier")
		}
		res.Name = path.Segments[0]
	default:
		return ModuleAttr{}, false, diag.Errorf(c, "pymodule must be of the form pymodule or pymodule(<name>)")
	}
	doc.List = without(doc.List, idxs[0])
	return res, true, nil
}
