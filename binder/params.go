package binder

import (
	"fmt"
	"go/types"

	"github.com/refaktor/pyglue/binder/binderio"
	"github.com/refaktor/pyglue/fnspec"
)

// ImplArgParams writes the code binding the Python call arguments (`_args`
// and `_kwargs`) to Go values, one variable per entry of spec.Args. It
// returns the variable names in parameter order.
//
// The written code runs inside a function returning (unsafe.Pointer,
// error) with `_py`, `_args`, `_kwargs` and `_location` in scope.
func ImplArgParams(cb *binderio.CodeBuilder, spec *fnspec.FnSpec) []string {
	cb.Openf(`_params := []pyrt.ParamDescription{`)
	nParams := 0
	for _, arg := range spec.Args {
		name := arg.Name.Name
		if arg.Py || spec.IsArgs(name) || spec.IsKwargs(name) {
			continue
		}
		_, hasDefault := spec.DefaultValue(name)
		cb.Linef(`{Name: %q, IsOptional: %v, KwOnly: %v},`, name, hasDefault || arg.Optional != nil, spec.IsKwOnly(name))
		nParams++
	}
	cb.Closef(`}`)
	cb.Linef(`var _output [%v]*pyrt.Any`, nParams)
	cb.Linef(`_args, _kwargs, err := pyrt.ParseFnArgs(_location, _params, _args, _kwargs, %v, %v, _output[:])`,
		spec.AcceptArgs(), spec.AcceptKwargs())
	cb.ReturnOnErr(`err`, `nil`)

	vars := make([]string, len(spec.Args))
	outPos := 0
	for i, arg := range spec.Args {
		vars[i] = fmt.Sprintf("arg%v", i)
		implArgParam(cb, spec, arg, vars[i], &outPos)
	}
	return vars
}

func implArgParam(cb *binderio.CodeBuilder, spec *fnspec.FnSpec, arg fnspec.FnArg, v string, outPos *int) {
	name := arg.Name.Name
	typ := types.ExprString(arg.Type)

	switch {
	case arg.Py:
		cb.Linef(`%v := _py`, v)
		return
	case spec.IsArgs(name):
		cb.Linef(`%v, err := pyrt.Extract[%v](_args.AsAny())`, v, typ)
		cb.ReturnOnErr(`err`, `nil`)
		return
	case spec.IsKwargs(name):
		cb.Linef(`%v := _kwargs`, v)
		return
	}

	out := fmt.Sprintf("_output[%v]", *outPos)
	*outPos++
	def, hasDefault := spec.DefaultValue(name)

	switch {
	case arg.Optional != nil:
		inner := types.ExprString(arg.Optional)
		cb.Linef(`var %v %v`, v, typ)
		cb.Openf(`if %v != nil && !%v.IsNone() {`, out, out)
		cb.Linef(`_v, err := pyrt.Extract[%v](%v)`, inner, out)
		cb.ReturnOnErr(`err`, `nil`)
		cb.Linef(`%v = pyrt.Some(_v)`, v)
		if hasDefault {
			cb.Indent--
			cb.Openf(`} else {`)
			cb.Linef(`%v = pyrt.Some[%v](%v)`, v, inner, def)
		}
		cb.Closef(`}`)
	case hasDefault:
		cb.Linef(`var %v %v`, v, typ)
		cb.Openf(`if %v != nil {`, out)
		cb.Linef(`%v, err = pyrt.Extract[%v](%v)`, v, typ, out)
		cb.ReturnOnErr(`err`, `nil`)
		cb.Indent--
		cb.Openf(`} else {`)
		cb.Linef(`%v = %v`, v, def)
		cb.Closef(`}`)
	default:
		cb.Linef(`%v, err := pyrt.Extract[%v](%v)`, v, typ, out)
		cb.ReturnOnErr(`err`, `nil`)
	}
}
