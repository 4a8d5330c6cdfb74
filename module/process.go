package module

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	"github.com/refaktor/pyglue/binder"
	"github.com/refaktor/pyglue/binder/binderio"
	"github.com/refaktor/pyglue/diag"
	"github.com/refaktor/pyglue/directive"
	"github.com/refaktor/pyglue/fnspec"
)

type Options struct {
	// Derive default Python names (pyfunction functions and modules
	// without an explicit name) in snake_case instead of using the Go name.
	SnakeCaseNames bool
	// Enabled reports whether a function is registered in the module.
	// Nil registers every function.
	Enabled func(module, pythonName string) bool
	// Rename maps the name given in a pyfn directive to the name the
	// function is registered under. Nil keeps the name.
	Rename func(module, pythonName string) (string, error)
}

func (o Options) pythonName(goName string) string {
	if o.SnakeCaseNames {
		return strcase.ToSnake(goName)
	}
	return goName
}

func (o Options) rename(module, pythonName string) (string, error) {
	if o.Rename == nil {
		return pythonName, nil
	}
	name, err := o.Rename(module, pythonName)
	if err != nil {
		return "", err
	}
	if !token.IsIdentifier(name) {
		return "", fmt.Errorf("renamed %q to %q, which is not a valid identifier", pythonName, name)
	}
	return name, nil
}

func (o Options) enabled(module, pythonName string) bool {
	return o.Enabled == nil || o.Enabled(module, pythonName)
}

// Function is a wrapped Go function.
type Function struct {
	*binder.Wrapper
	Decl *ast.FuncDecl
	// Expression the function is added to, e.g. "m". Empty for functions
	// marked with pyfunction, which are not registered automatically.
	ModulePath string
	Registered bool
}

// Module is the result of processing the files of one package.
type Module struct {
	// Python module name. Empty if the package has no pymodule function.
	Name string
	// Go name of the pymodule function.
	FuncName string
	Doc      string
	// Wrapped functions in declaration order.
	Functions []*Function
	// Registration function and PyInit entry point.
	InitSrc string

	pyParam     string
	moduleParam string
}

// ProcessFunctionsInModule wraps every marked function of files, which
// make up one package.
//
// Each marked function is processed on its own: if it fails, the error is
// collected and processing continues with the next function. The returned
// module holds every function that succeeded, and the returned error is a
// [*multierror.Error] of every failure.
//
// If the package contains no pyglue directive at all, the result is nil.
func ProcessFunctionsInModule(files []*ast.File, opts Options) (*Module, error) {
	var errs *multierror.Error
	var decls []*ast.FuncDecl
	for _, f := range files {
		for _, decl := range f.Decls {
			if fn, ok := decl.(*ast.FuncDecl); ok && directive.HasAny(fn.Doc) {
				if err := directive.CheckKnown(fn.Doc); err != nil {
					errs = multierror.Append(errs, err)
					continue
				}
				decls = append(decls, fn)
			}
		}
	}
	if len(decls) == 0 {
		return nil, errs.ErrorOrNil()
	}

	res := &Module{}
	var modDecl *ast.FuncDecl
	for _, fn := range decls {
		attr, ok, err := directive.ExtractModuleAttr(fn.Doc)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		if modDecl != nil {
			errs = multierror.Append(errs, diag.Errorf(fn.Name, "only one pymodule function is allowed per package, %v is already one", modDecl.Name.Name))
			continue
		}
		pyParam, moduleParam, err := moduleParams(fn)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		modDecl = fn
		res.Name = attr.Name
		if res.Name == "" {
			res.Name = opts.pythonName(fn.Name.Name)
		}
		res.FuncName = fn.Name.Name
		res.Doc = directive.GetDoc(fn.Doc, "", false)
		res.pyParam = pyParam
		res.moduleParam = moduleParam
	}

	pythonNames := map[string]*ast.FuncDecl{}
	for _, fn := range decls {
		f, err := res.processFunction(fn, modDecl, opts)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%v: %w", fn.Name.Name, err))
			continue
		}
		if f == nil {
			continue
		}
		if other, ok := pythonNames[f.Spec.PythonName]; ok && f.Registered {
			errs = multierror.Append(errs, diag.Errorf(fn.Name, "python name %q is already used by %v", f.Spec.PythonName, other.Name.Name))
			continue
		}
		if f.Registered {
			pythonNames[f.Spec.PythonName] = fn
		}
		res.Functions = append(res.Functions, f)
	}

	if modDecl != nil {
		initSrc, err := res.initSrc()
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		res.InitSrc = initSrc
	}
	return res, errs.ErrorOrNil()
}

// processFunction wraps fn if it is marked with pyfn or pyfunction. It
// returns nil if it is neither.
func (m *Module) processFunction(fn, modDecl *ast.FuncDecl, opts Options) (*Function, error) {
	if directive.Has(fn.Doc, directive.NamePyfn) && directive.Has(fn.Doc, directive.NamePyfunction) {
		return nil, diag.Errorf(fn.Name, "pyfn and pyfunction can not be combined")
	}

	attrs, ok, err := directive.ExtractPyfnAttrs(fn.Doc)
	if err != nil {
		return nil, err
	}
	if ok {
		if fn == modDecl {
			return nil, diag.ErrorAt(attrs.Pos, "the pymodule function can not be wrapped with pyfn")
		}
		if modDecl == nil {
			return nil, diag.ErrorAt(attrs.Pos, "pyfn needs a pymodule function in the package")
		}
		if !attrs.ModulePath.IsIdent(m.moduleParam) {
			return nil, diag.ErrorAt(attrs.ModulePath.Pos, "pyfn module %v must be the module parameter %v of %v", attrs.ModulePath, m.moduleParam, modDecl.Name.Name)
		}
		pythonName, err := opts.rename(m.Name, attrs.PythonName)
		if err != nil {
			return nil, diag.ErrorAt(attrs.NamePos, "%v", err)
		}
		w, err := binder.AddFnToModule(fn, pythonName, attrs.Attrs)
		if err != nil {
			return nil, err
		}
		return &Function{
			Wrapper:    w,
			Decl:       fn,
			ModulePath: attrs.ModulePath.String(),
			Registered: opts.enabled(m.Name, pythonName),
		}, nil
	}

	fattrs, _, ok, err := directive.ExtractPyfunctionAttr(fn.Doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	w, err := binder.AddFnToModule(fn, opts.pythonName(fn.Name.Name), fattrs)
	if err != nil {
		return nil, err
	}
	return &Function{Wrapper: w, Decl: fn}, nil
}

// moduleParams checks that fn has the form
//
//	func(py Python, m *Module) error
//
// and returns the parameter names.
func moduleParams(fn *ast.FuncDecl) (py, module string, err error) {
	errShape := diag.Errorf(fn.Type, "pymodule function %v must have the form func(py Python, m *Module) error", fn.Name.Name)
	if fn.Recv != nil || fn.Type.TypeParams != nil {
		return "", "", errShape
	}
	var names []*ast.Ident
	for _, field := range fn.Type.Params.List {
		if len(field.Names) == 0 {
			return "", "", diag.Errorf(field, "parameters of the pymodule function %v must be named", fn.Name.Name)
		}
		names = append(names, field.Names...)
	}
	params := fn.Type.Params.List
	if len(names) != 2 ||
		!fnspec.IsPython(params[0].Type) ||
		!fnspec.IsModuleRef(params[len(params)-1].Type) {
		return "", "", errShape
	}
	if info, err := fnspec.GetReturnInfo(fn.Type); err != nil || info.Kind != fnspec.ReturnError {
		return "", "", errShape
	}
	if names[1].Name == "_" {
		return "", "", diag.Errorf(names[1], "module parameter of the pymodule function %v must be named", fn.Name.Name)
	}
	py = names[0].Name
	if py == "_" {
		py = "_py"
	}
	return py, names[1].Name, nil
}

func (m *Module) initSrc() (string, error) {
	initFn := binder.InitWrapperIdent(m.Name)

	var cb binderio.CodeBuilder
	cb.Openf(`func %v(%v pyrt.Python, %v *pyrt.Module) error {`, initFn, m.pyParam, m.moduleParam)
	for _, f := range m.Functions {
		if !f.Registered {
			continue
		}
		cb.Openf(`if err := %v.AddFunction(%v); err != nil {`, f.ModulePath, f.Thunk)
		cb.Linef(`return err`)
		cb.Closef(`}`)
	}
	cb.Linef(`return %v(%v, %v)`, m.FuncName, m.pyParam, m.moduleParam)
	cb.Closef(`}`)

	pyInit, err := PyInit(initFn, m.Name, m.Doc)
	if err != nil {
		return "", err
	}
	return cb.String() + "\n" + pyInit, nil
}
