package binder

import "go/ast"

// Generated identifier prefixes. Code outside a single generation run
// relies on them, so they must not change.
const (
	thunkPrefix     = "_pyglue_get_function_"
	rawPrefix       = "_pyglue_raw_"
	pyInitPrefix    = "PyInit_"
	initPrefix      = "_pyglue_init_"
	moduleDefPrefix = "_pyglue_module_def_"
)

// FunctionWrapperIdent returns the identifier of the registration thunk
// of the Go function name.
func FunctionWrapperIdent(name string) string {
	return thunkPrefix + name
}

// RawWrapperIdent returns the identifier of the exported raw callback of
// the Go function name.
func RawWrapperIdent(name string) string {
	return rawPrefix + name
}

// PyInitIdent returns the name of the entry point the interpreter looks
// up when importing module.
func PyInitIdent(module string) string {
	return pyInitPrefix + module
}

// InitWrapperIdent returns the identifier of the generated function
// registering all functions of module.
func InitWrapperIdent(module string) string {
	return initPrefix + module
}

// ModuleDefIdent returns the identifier of the module descriptor variable.
func ModuleDefIdent(module string) string {
	return moduleDefPrefix + module
}

// WrapPyFunction returns an expression referring to the registration
// thunk of the Go function name, e.g. for
//
//	m.AddFunction(_pyglue_get_function_add)
func WrapPyFunction(name string) ast.Expr {
	return ast.NewIdent(FunctionWrapperIdent(name))
}
