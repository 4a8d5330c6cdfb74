package module_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/refaktor/pyglue/diag"
	"github.com/refaktor/pyglue/module"
	"github.com/stretchr/testify/require"
)

const mymodSrc = `package mymod

import pyrt "example.com/pyrt"

// mymod is an example module.
//
//pyglue:pymodule
func mymod(py pyrt.Python, m *pyrt.Module) error {
	return nil
}

// add adds two numbers.
//
//pyglue:pyfn(m, "add")
func add(a, b int64) int64 { return a + b }

//pyglue:pyfn(m, "configure", pass_module)
func configure(module *pyrt.Module, level pyrt.Option[int64]) {}

func helper() {}

//pyglue:pyfunction
func Standalone(x string) string { return x }
`

func parseFiles(t *testing.T, srcs ...string) (*token.FileSet, []*ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	var files []*ast.File
	for i, src := range srcs {
		f, err := parser.ParseFile(fset, string(rune('a'+i))+".go", src, parser.ParseComments|parser.SkipObjectResolution)
		require.NoError(t, err)
		files = append(files, f)
	}
	return fset, files
}

func TestProcessFunctionsInModule(t *testing.T) {
	require := require.New(t)
	_, files := parseFiles(t, mymodSrc)

	mod, err := module.ProcessFunctionsInModule(files, module.Options{})
	require.NoError(err)
	require.NotNil(mod)
	require.Equal("mymod", mod.Name)
	require.Equal("mymod", mod.FuncName)
	require.Equal("mymod is an example module.", mod.Doc)

	require.Len(mod.Functions, 3)
	add, configure, standalone := mod.Functions[0], mod.Functions[1], mod.Functions[2]
	require.Equal("add", add.Spec.PythonName)
	require.Equal("m", add.ModulePath)
	require.True(add.Registered)
	require.True(configure.Spec.PassModule)
	require.Equal("level", configure.Spec.Args[0].Name.Name)
	require.Equal("Standalone", standalone.Spec.PythonName)
	require.False(standalone.Registered)
	require.Empty(standalone.ModulePath)

	require.Contains(mod.InitSrc, "func _pyglue_init_mymod(py pyrt.Python, m *pyrt.Module) error {\n")
	addReg := strings.Index(mod.InitSrc, "if err := m.AddFunction(_pyglue_get_function_add); err != nil {")
	confReg := strings.Index(mod.InitSrc, "if err := m.AddFunction(_pyglue_get_function_configure); err != nil {")
	userCall := strings.Index(mod.InitSrc, "return mymod(py, m)")
	require.True(addReg >= 0 && confReg > addReg && userCall > confReg, mod.InitSrc)
	require.NotContains(mod.InitSrc, "_pyglue_get_function_Standalone")

	require.Contains(mod.InitSrc, `var _pyglue_module_def_mymod = pyrt.NewModuleDef("mymod\x00")`)
	require.Contains(mod.InitSrc, "//export PyInit_mymod\nfunc PyInit_mymod() *C.PyObject {")
	require.Contains(mod.InitSrc, `return _pyglue_module_def_mymod.MakeModule(_py, "mymod is an example module.", _pyglue_init_mymod)`)

	_, err = parser.ParseFile(token.NewFileSet(), "gen.go", "package mymod\n\nimport \"C\"\n\n"+mod.InitSrc, 0)
	require.NoError(err)

	// Directives are consumed, ordinary doc lines stay.
	decl := add.Decl
	require.Len(decl.Doc.List, 2)
	require.Equal("// add adds two numbers.", decl.Doc.List[0].Text)
}

func TestProcessFunctionsInModuleOptions(t *testing.T) {
	require := require.New(t)
	_, files := parseFiles(t, `package p

//pyglue:pymodule
func MyModule(_ Python, mod *Module) error { return nil }

//pyglue:pyfn(mod, "one")
func one() {}

//pyglue:pyfn(mod, "two")
func two() {}

//pyglue:pyfunction
func ParseValue() {}
`)
	mod, err := module.ProcessFunctionsInModule(files, module.Options{
		SnakeCaseNames: true,
		Enabled: func(module, pythonName string) bool {
			return !(module == "my_module" && pythonName == "two")
		},
	})
	require.NoError(err)
	require.Equal("my_module", mod.Name)
	require.Len(mod.Functions, 3)
	require.True(mod.Functions[0].Registered)
	require.False(mod.Functions[1].Registered)
	require.Equal("parse_value", mod.Functions[2].Spec.PythonName)

	require.Contains(mod.InitSrc, "func _pyglue_init_my_module(_py pyrt.Python, mod *pyrt.Module) error {")
	require.Contains(mod.InitSrc, "mod.AddFunction(_pyglue_get_function_one)")
	require.NotContains(mod.InitSrc, "_pyglue_get_function_two")
	require.Contains(mod.InitSrc, "return MyModule(_py, mod)")
	require.Contains(mod.InitSrc, "PyInit_my_module")
}

func TestProcessFunctionsInModuleRename(t *testing.T) {
	require := require.New(t)
	_, files := parseFiles(t, `package p

//pyglue:pymodule(ext)
func init_(py Python, m *Module) error { return nil }

//pyglue:pyfn(m, "getValue")
func getValue() int64 { return 1 }

//pyglue:pyfn(m, "bad")
func bad() {}
`)
	var enabledNames []string
	mod, err := module.ProcessFunctionsInModule(files, module.Options{
		Rename: func(module, pythonName string) (string, error) {
			if pythonName == "bad" {
				return "not-an-ident", nil
			}
			return "get_value", nil
		},
		Enabled: func(module, pythonName string) bool {
			enabledNames = append(enabledNames, module+"."+pythonName)
			return true
		},
	})
	require.Error(err)
	require.Contains(err.Error(), `bad: renamed "bad" to "not-an-ident", which is not a valid identifier`)
	require.Len(mod.Functions, 1)
	require.Equal("get_value", mod.Functions[0].Spec.PythonName)
	require.Equal("_pyglue_get_function_getValue", mod.Functions[0].Thunk)
	require.Equal([]string{"ext.get_value"}, enabledNames)
}

func TestProcessFunctionsInModuleNamedModule(t *testing.T) {
	require := require.New(t)
	_, files := parseFiles(t, `package p

//pyglue:pymodule(fast)
func initFast(py Python, m *Module) error { return nil }
`)
	mod, err := module.ProcessFunctionsInModule(files, module.Options{SnakeCaseNames: true})
	require.NoError(err)
	require.Equal("fast", mod.Name)
	require.Empty(mod.Functions)
	require.Contains(mod.InitSrc, "PyInit_fast")
	require.Contains(mod.InitSrc, "return initFast(py, m)")
}

func TestProcessFunctionsInModuleNothing(t *testing.T) {
	_, files := parseFiles(t, "package p\n\n// f does things.\nfunc f() {}\n")
	mod, err := module.ProcessFunctionsInModule(files, module.Options{})
	require.NoError(t, err)
	require.Nil(t, mod)
}

func TestProcessFunctionsInModuleContinuesAfterErrors(t *testing.T) {
	require := require.New(t)
	fset, files := parseFiles(t, `package p

//pyglue:pymodule
func mymod(py Python, m *Module) error { return nil }

//pyglue:pyfn(m)
func broken(a int64) {}

//pyglue:pyfn(m, "bad")
func bad(int64, int64) {}

//pyglue:pyfn(m, "good")
func good(a int64) int64 { return a }

//pyglue:pyfn(other, "wrong_module")
func wrongModule() {}

//pyglue:pyfn(m.sub, "submodule")
func submodule() {}

//pyglue:pyfn(m, "good")
func duplicate() {}

//pyglue:pyfm(m, "typo")
func typo() {}
`)
	mod, err := module.ProcessFunctionsInModule(files, module.Options{})
	require.Error(err)
	require.NotNil(mod)
	require.Len(mod.Functions, 1)
	require.Equal("good", mod.Functions[0].Spec.GoName)
	require.Contains(mod.InitSrc, "_pyglue_get_function_good")

	errs := diag.Flatten(err)
	require.Len(errs, 6)
	formatted := diag.Format(fset, err)
	require.Contains(formatted, `unknown directive "pyglue:pyfm(m, \"typo\")"`)
	require.Contains(formatted, "broken: can not parse 'pyfn' params: missing second parameter (exported name)")
	require.Contains(formatted, "bad: Unsupported argument")
	require.Contains(formatted, "wrongModule: pyfn module other must be the module parameter m of mymod")
	require.Contains(formatted, "submodule: pyfn module m.sub must be the module parameter m of mymod")
	require.Contains(formatted, `python name "good" is already used by good`)
}

func TestProcessFunctionsInModuleModuleErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
		err  string
	}{
		{
			"wrong shape",
			"//pyglue:pymodule\nfunc mymod(m *Module) error { return nil }",
			"pymodule function mymod must have the form func(py Python, m *Module) error",
		},
		{
			"no error result",
			"//pyglue:pymodule\nfunc mymod(py Python, m *Module) {}",
			"pymodule function mymod must have the form func(py Python, m *Module) error",
		},
		{
			"unnamed",
			"//pyglue:pymodule\nfunc mymod(Python, *Module) error { return nil }",
			"parameters of the pymodule function mymod must be named",
		},
		{
			"blank module",
			"//pyglue:pymodule\nfunc mymod(py Python, _ *Module) error { return nil }",
			"module parameter of the pymodule function mymod must be named",
		},
		{
			"two modules",
			"//pyglue:pymodule\nfunc a(py Python, m *Module) error { return nil }\n\n//pyglue:pymodule\nfunc b(py Python, m *Module) error { return nil }",
			"only one pymodule function is allowed per package, a is already one",
		},
		{
			"pyfn without module",
			"//pyglue:pyfn(m, \"f\")\nfunc f() {}",
			"f: pyfn needs a pymodule function in the package",
		},
		{
			"pyfn and pyfunction",
			"//pyglue:pymodule\nfunc a(py Python, m *Module) error { return nil }\n\n//pyglue:pyfn(m, \"f\")\n//pyglue:pyfunction\nfunc f() {}",
			"f: pyfn and pyfunction can not be combined",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, files := parseFiles(t, "package p\n\n"+tt.src+"\n")
			_, err := module.ProcessFunctionsInModule(files, module.Options{})
			errs := diag.Flatten(err)
			require.Len(t, errs, 1)
			require.EqualError(t, errs[0], tt.err)
		})
	}
}

func TestPyInit(t *testing.T) {
	require := require.New(t)
	src, err := module.PyInit("_pyglue_init_mymod", "mymod", "Line one.\nLine \"two\".")
	require.NoError(err)
	require.Equal(`var _pyglue_module_def_mymod = pyrt.NewModuleDef("mymod\x00")

//export PyInit_mymod
func PyInit_mymod() *C.PyObject {
	return (*C.PyObject)(pyrt.CallbackBody(func(_py pyrt.Python) (unsafe.Pointer, error) {
		return _pyglue_module_def_mymod.MakeModule(_py, "Line one.\nLine \"two\".", _pyglue_init_mymod)
	}))
}
`, src)
}
