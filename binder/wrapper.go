// Package binder generates the Go code exposing a single function to
// Python: the exported raw callback the interpreter calls, and the
// registration thunk creating the Python function object.
//
// Generated code refers to the runtime package as `pyrt` and to cgo as
// `C`; the file assembling the code provides both imports.
package binder

import (
	"fmt"
	"go/ast"
	"strconv"
	"strings"

	"github.com/refaktor/pyglue/binder/binderio"
	"github.com/refaktor/pyglue/directive"
	"github.com/refaktor/pyglue/fnspec"
)

// Wrapper is the generated code for one function.
type Wrapper struct {
	Spec *fnspec.FnSpec
	// Thunk identifier, the value passed to (*pyrt.Module).AddFunction.
	Thunk string
	// Source of the //export'ed raw callback.
	Raw string
	// Source of the registration thunk.
	ThunkSrc string
	// C declaration of the raw callback, for the cgo preamble.
	CDecl string
}

// AddFnToModule builds the [fnspec.FnSpec] of fn and generates its wrappers.
func AddFnToModule(fn *ast.FuncDecl, pythonName string, attrs directive.PyFunctionAttr) (*Wrapper, error) {
	name := fn.Name.Name
	thunk := FunctionWrapperIdent(name)
	spec, err := fnspec.Build(fn, pythonName, attrs, thunk)
	if err != nil {
		return nil, err
	}
	return &Wrapper{
		Spec:     spec,
		Thunk:    thunk,
		Raw:      FunctionCWrapper(name, spec),
		ThunkSrc: functionThunk(name, spec),
		CDecl:    fmt.Sprintf("extern PyObject* %v(PyObject*, PyObject*, PyObject*);", RawWrapperIdent(name)),
	}, nil
}

// FunctionCWrapper generates the raw callback of the Go function name.
func FunctionCWrapper(name string, spec *fnspec.FnSpec) string {
	raw := RawWrapperIdent(name)

	var cb binderio.CodeBuilder
	cb.Linef(`//export %v`, raw)
	cb.Openf(`func %v(_slf, _args, _kwargs *C.PyObject) *C.PyObject {`, raw)
	cb.Linef(`const _location = %q`, spec.GoName+"()")
	cb.Openf(`return (*C.PyObject)(pyrt.CallbackBody(func(_py pyrt.Python) (unsafe.Pointer, error) {`)

	var callArgs []string
	if spec.PassModule {
		cb.Linef(`_slf := pyrt.FromBorrowedPtr[pyrt.Module](_py, unsafe.Pointer(_slf))`)
		callArgs = append(callArgs, "_slf")
	}
	cb.Linef(`_args := pyrt.FromBorrowedPtr[pyrt.Tuple](_py, unsafe.Pointer(_args))`)
	cb.Linef(`_kwargs := pyrt.FromBorrowedPtrOrNil[pyrt.Dict](_py, unsafe.Pointer(_kwargs))`)
	callArgs = append(callArgs, ImplArgParams(&cb, spec)...)
	writeCall(&cb, spec, fmt.Sprintf("%v(%v)", spec.GoName, strings.Join(callArgs, ", ")))

	cb.Closef(`}))`)
	cb.Closef(`}`)
	return cb.String()
}

// writeCall writes the call of the wrapped function and the conversion of
// its result.
func writeCall(cb *binderio.CodeBuilder, spec *fnspec.FnSpec, call string) {
	switch spec.Output.Kind {
	case fnspec.ReturnNone:
		cb.Linef(`%v`, call)
		cb.Linef(`return pyrt.None(_py), nil`)
	case fnspec.ReturnValue:
		cb.Linef(`_result := %v`, call)
		cb.Linef(`return pyrt.IntoPyCallbackOutput(_py, _result)`)
	case fnspec.ReturnError:
		cb.Openf(`if err := %v; err != nil {`, call)
		cb.Linef(`return nil, err`)
		cb.Closef(`}`)
		cb.Linef(`return pyrt.None(_py), nil`)
	case fnspec.ReturnValueError:
		cb.Linef(`_result, err := %v`, call)
		cb.ReturnOnErr(`err`, `nil`)
		cb.Linef(`return pyrt.IntoPyCallbackOutput(_py, _result)`)
	default:
		panic(fmt.Sprintf("unhandled return kind %v", spec.Output.Kind))
	}
}

func functionThunk(name string, spec *fnspec.FnSpec) string {
	var cb binderio.CodeBuilder
	cb.Openf(`func %v(args pyrt.WrapArguments) (*pyrt.CFunction, error) {`, FunctionWrapperIdent(name))
	cb.Linef(`py, maybeModule := args.PyAndMaybeModule()`)
	cb.Linef(`return pyrt.NewCFunctionWithKeywords(unsafe.Pointer(C.%v), %v, %v, maybeModule, py)`,
		RawWrapperIdent(name), strconv.Quote(spec.PythonName), strconv.Quote(spec.Doc))
	cb.Closef(`}`)
	return cb.String()
}
