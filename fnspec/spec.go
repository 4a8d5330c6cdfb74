// Package fnspec turns a marked Go function declaration into a [FnSpec],
// the description the wrapper generator works from.
package fnspec

import (
	"fmt"
	"go/ast"

	"github.com/refaktor/pyglue/diag"
	"github.com/refaktor/pyglue/directive"
)

type FnType int

const (
	// FnStatic is a free function. It is the only kind pyglue wraps.
	FnStatic FnType = iota
)

// FnSpec is everything needed to generate the wrappers of one function.
type FnSpec struct {
	Type FnType
	// Identifier of the registration thunk.
	Name string
	// Name of the wrapped Go function.
	GoName string
	// Name visible from Python.
	PythonName string
	Attrs      []directive.Argument
	// The function takes the module it is registered in as first
	// parameter. That parameter is not part of Args.
	PassModule bool
	Args       []FnArg
	Output     ReturnInfo
	// Python docstring, null terminated.
	Doc string
}

// Build assembles the [FnSpec] of fn. name is the identifier of the
// registration thunk. Doc comment directives consumed here (the text
// signature) are removed from fn.Doc.
func Build(fn *ast.FuncDecl, pythonName string, attrs directive.PyFunctionAttr, name string) (*FnSpec, error) {
	if fn.Recv != nil {
		return nil, diag.Errorf(fn.Recv, "Unexpected receiver for pyfn")
	}
	if fn.Type.TypeParams != nil {
		return nil, diag.Errorf(fn.Type.TypeParams, "generic functions can not be wrapped")
	}

	fields := fn.Type.Params.List
	if attrs.PassModule {
		var err error
		fields, err = consumeModuleParam(fn.Type.Params)
		if err != nil {
			return nil, err
		}
	}

	var args []FnArg
	for _, field := range fields {
		fa, err := WrapFnArgument(field)
		if err != nil {
			return nil, err
		}
		args = append(args, fa...)
	}

	output, err := GetReturnInfo(fn.Type)
	if err != nil {
		return nil, err
	}

	spec := &FnSpec{
		Type:       FnStatic,
		Name:       name,
		GoName:     fn.Name.Name,
		PythonName: pythonName,
		Attrs:      attrs.Arguments,
		PassModule: attrs.PassModule,
		Args:       args,
		Output:     output,
	}
	if err := spec.checkAttrs(); err != nil {
		return nil, err
	}

	textSig, _, err := directive.ParseTextSignatureAttrs(fn.Doc, pythonName)
	if err != nil {
		return nil, err
	}
	spec.Doc = directive.GetDoc(fn.Doc, textSig, true)
	return spec, nil
}

// consumeModuleParam checks that the first parameter is a *Module and
// returns the parameter list without it.
func consumeModuleParam(params *ast.FieldList) ([]*ast.Field, error) {
	if len(params.List) == 0 {
		return nil, diag.Errorf(params, "Expected *Module as first argument with pass_module")
	}
	first := params.List[0]
	if !IsModuleRef(first.Type) {
		return nil, diag.Errorf(first, "Expected *Module as first argument with pass_module")
	}
	if len(first.Names) <= 1 {
		return params.List[1:], nil
	}
	// `m, other *Module`: only m is consumed.
	rest := &ast.Field{Names: first.Names[1:], Type: first.Type}
	return append([]*ast.Field{rest}, params.List[1:]...), nil
}

// checkAttrs makes sure every argument named in the directive is a
// parameter of the function.
func (s *FnSpec) checkAttrs() error {
	for _, a := range s.Attrs {
		if a.Kind == directive.VarArgsSeparator {
			continue
		}
		arg := s.arg(a.Name)
		if arg == nil {
			return diag.ErrorAt(a.Pos, "argument %v is not a parameter of %v", a.Name, s.GoName)
		}
		if arg.Py {
			return diag.ErrorAt(a.Pos, "argument %v is the interpreter context and can not be bound", a.Name)
		}
		if a.Kind == directive.VarArgs && arg.Optional != nil {
			return diag.ErrorAt(a.Pos, "variable arguments %v can not be optional", a.Name)
		}
	}
	return nil
}

func (s *FnSpec) arg(name string) *FnArg {
	for i := range s.Args {
		if s.Args[i].Name.Name == name {
			return &s.Args[i]
		}
	}
	return nil
}

func (s *FnSpec) attr(name string) (directive.Argument, bool) {
	for _, a := range s.Attrs {
		if a.Kind != directive.VarArgsSeparator && a.Name == name {
			return a, true
		}
	}
	return directive.Argument{}, false
}

// IsArgs reports whether name receives the remaining positional arguments.
func (s *FnSpec) IsArgs(name string) bool {
	a, ok := s.attr(name)
	return ok && a.Kind == directive.VarArgs
}

// IsKwargs reports whether name receives the remaining keyword arguments.
func (s *FnSpec) IsKwargs(name string) bool {
	a, ok := s.attr(name)
	return ok && a.Kind == directive.KeywordArgs
}

// DefaultValue returns the Go expression used when name is not passed.
func (s *FnSpec) DefaultValue(name string) (string, bool) {
	a, ok := s.attr(name)
	if !ok || !a.HasDefault() {
		return "", false
	}
	return a.Default, true
}

// IsKwOnly reports whether name can only be passed by keyword.
func (s *FnSpec) IsKwOnly(name string) bool {
	a, ok := s.attr(name)
	return ok && a.Kind == directive.Kwarg
}

// AcceptArgs reports whether the function takes variable positional
// arguments.
func (s *FnSpec) AcceptArgs() bool {
	for _, a := range s.Attrs {
		if a.Kind == directive.VarArgs {
			return true
		}
	}
	return false
}

// AcceptKwargs reports whether the function takes variable keyword
// arguments.
func (s *FnSpec) AcceptKwargs() bool {
	for _, a := range s.Attrs {
		if a.Kind == directive.KeywordArgs {
			return true
		}
	}
	return false
}

func (s *FnSpec) String() string {
	return fmt.Sprintf("%v (python: %v, %v args, returns %v)", s.GoName, s.PythonName, len(s.Args), s.Output.Kind)
}
