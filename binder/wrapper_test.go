package binder_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/refaktor/pyglue/binder"
	"github.com/refaktor/pyglue/directive"
	"github.com/stretchr/testify/require"
)

func addFn(t *testing.T, src string) (*binder.Wrapper, error) {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "x.go", "package p\n\n"+src, parser.ParseComments|parser.SkipObjectResolution)
	require.NoError(t, err)
	fn := f.Decls[0].(*ast.FuncDecl)
	attrs, ok, err := directive.ExtractPyfnAttrs(fn.Doc)
	require.NoError(t, err)
	require.True(t, ok)
	return binder.AddFnToModule(fn, attrs.PythonName, attrs.Attrs)
}

// requireValidGo checks that the generated declarations parse as a file.
func requireValidGo(t *testing.T, w *binder.Wrapper) {
	t.Helper()
	src := "package p\n\nimport \"C\"\n\n" + w.Raw + "\n" + w.ThunkSrc
	_, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	require.NoError(t, err, src)
}

func TestAddFnToModuleSimple(t *testing.T) {
	require := require.New(t)
	w, err := addFn(t, `
// add adds two numbers.
//pyglue:pyfn(m, "add")
func add(a, b int64) int64 { return a + b }
`)
	require.NoError(err)
	requireValidGo(t, w)

	require.Equal("_pyglue_get_function_add", w.Thunk)
	require.Equal("extern PyObject* _pyglue_raw_add(PyObject*, PyObject*, PyObject*);", w.CDecl)

	require.True(strings.HasPrefix(w.Raw, "//export _pyglue_raw_add\nfunc _pyglue_raw_add(_slf, _args, _kwargs *C.PyObject) *C.PyObject {\n"))
	require.Contains(w.Raw, `const _location = "add()"`)
	require.Contains(w.Raw, `{Name: "a", IsOptional: false, KwOnly: false},`)
	require.Contains(w.Raw, `{Name: "b", IsOptional: false, KwOnly: false},`)
	require.Contains(w.Raw, `var _output [2]*pyrt.Any`)
	require.Contains(w.Raw, `pyrt.ParseFnArgs(_location, _params, _args, _kwargs, false, false, _output[:])`)
	require.Contains(w.Raw, `arg0, err := pyrt.Extract[int64](_output[0])`)
	require.Contains(w.Raw, `arg1, err := pyrt.Extract[int64](_output[1])`)
	require.Contains(w.Raw, `_result := add(arg0, arg1)`)
	require.Contains(w.Raw, `return pyrt.IntoPyCallbackOutput(_py, _result)`)
	require.NotContains(w.Raw, `pyrt.Module`)

	require.Contains(w.ThunkSrc, "func _pyglue_get_function_add(args pyrt.WrapArguments) (*pyrt.CFunction, error) {")
	require.Contains(w.ThunkSrc, `pyrt.NewCFunctionWithKeywords(unsafe.Pointer(C._pyglue_raw_add), "add", "add adds two numbers.\x00", maybeModule, py)`)
}

func TestAddFnToModulePassModule(t *testing.T) {
	require := require.New(t)
	w, err := addFn(t, `
//pyglue:pyfn(m, "configure", pass_module)
func configure(module *pyrt.Module, level pyrt.Option[int64]) {}
`)
	require.NoError(err)
	requireValidGo(t, w)

	require.Contains(w.Raw, `_slf := pyrt.FromBorrowedPtr[pyrt.Module](_py, unsafe.Pointer(_slf))`)
	require.Contains(w.Raw, `{Name: "level", IsOptional: true, KwOnly: false},`)
	require.Contains(w.Raw, `var arg0 pyrt.Option[int64]`)
	require.Contains(w.Raw, `if _output[0] != nil && !_output[0].IsNone() {`)
	require.Contains(w.Raw, `_v, err := pyrt.Extract[int64](_output[0])`)
	require.Contains(w.Raw, `arg0 = pyrt.Some(_v)`)
	require.NotContains(w.Raw, `} else {`)
	require.Contains(w.Raw, "configure(_slf, arg0)\n")
	require.Contains(w.Raw, `return pyrt.None(_py), nil`)
}

func TestAddFnToModuleFlags(t *testing.T) {
	require := require.New(t)
	w, err := addFn(t, `
//pyglue:pyfn(m, "mix_all", rest = "*", scale = "2", limit = "10", kw = "**")
func mix(py pyrt.Python, rest []int64, scale float64, limit pyrt.Option[int], kw *pyrt.Dict) (int64, error) {
	return 0, nil
}
`)
	require.NoError(err)
	requireValidGo(t, w)

	// Argument errors name the Go function, the thunk the Python name.
	require.Contains(w.Raw, `const _location = "mix()"`)
	require.Contains(w.ThunkSrc, `"mix_all"`)
	require.Contains(w.Raw, `pyrt.ParseFnArgs(_location, _params, _args, _kwargs, true, true, _output[:])`)
	require.Contains(w.Raw, `var _output [2]*pyrt.Any`)
	require.Contains(w.Raw, `{Name: "scale", IsOptional: true, KwOnly: true},`)
	require.Contains(w.Raw, `{Name: "limit", IsOptional: true, KwOnly: true},`)
	require.NotContains(w.Raw, `{Name: "rest"`)
	require.NotContains(w.Raw, `{Name: "kw"`)
	require.NotContains(w.Raw, `{Name: "py"`)

	require.Contains(w.Raw, `arg0 := _py`)
	require.Contains(w.Raw, `arg1, err := pyrt.Extract[[]int64](_args.AsAny())`)
	require.Contains(w.Raw, `var arg2 float64`)
	require.Contains(w.Raw, `arg2, err = pyrt.Extract[float64](_output[0])`)
	require.Contains(w.Raw, `arg2 = 2`)
	require.Contains(w.Raw, `arg3 = pyrt.Some[int](10)`)
	require.Contains(w.Raw, `arg4 := _kwargs`)
	require.Contains(w.Raw, `_result, err := mix(arg0, arg1, arg2, arg3, arg4)`)
}

func TestAddFnToModuleErrorResult(t *testing.T) {
	require := require.New(t)
	w, err := addFn(t, `
//pyglue:text_signature = "()"
//pyglue:pyfn(m, "reset")
func reset() error { return nil }
`)
	require.NoError(err)
	requireValidGo(t, w)
	require.Contains(w.Raw, `var _output [0]*pyrt.Any`)
	require.Contains(w.Raw, `if err := reset(); err != nil {`)
	require.Contains(w.ThunkSrc, `"reset()\n--\n\n\x00"`)
}

func TestAddFnToModuleUnsupportedArgument(t *testing.T) {
	_, err := addFn(t, `
//pyglue:pyfn(m, "bad")
func bad(int64, int64) {}
`)
	require.EqualError(t, err, "Unsupported argument")
}

func TestNamingIsDeterministic(t *testing.T) {
	require := require.New(t)
	require.Equal(binder.FunctionWrapperIdent("foo"), binder.FunctionWrapperIdent("foo"))
	require.Equal(binder.RawWrapperIdent("foo"), binder.RawWrapperIdent("foo"))
	require.Equal("_pyglue_get_function_foo", binder.FunctionWrapperIdent("foo"))
	require.Equal("_pyglue_raw_foo", binder.RawWrapperIdent("foo"))
	require.NotEqual(binder.FunctionWrapperIdent("foo"), binder.RawWrapperIdent("foo"))
	require.Equal("PyInit_mymod", binder.PyInitIdent("mymod"))
	require.Equal("_pyglue_init_mymod", binder.InitWrapperIdent("mymod"))
	require.Equal("_pyglue_module_def_mymod", binder.ModuleDefIdent("mymod"))

	id, ok := binder.WrapPyFunction("foo").(*ast.Ident)
	require.True(ok)
	require.Equal("_pyglue_get_function_foo", id.Name)
}
