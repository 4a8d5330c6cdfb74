package fnspec_test

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/refaktor/pyglue/diag"
	"github.com/refaktor/pyglue/directive"
	"github.com/refaktor/pyglue/fnspec"
	"github.com/stretchr/testify/require"
)

func parseFunc(t *testing.T, src string) *ast.FuncDecl {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "x.go", "package p\n\n"+src, parser.ParseComments|parser.SkipObjectResolution)
	require.NoError(t, err)
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			return fn
		}
	}
	t.Fatal("no function in source")
	return nil
}

func build(t *testing.T, src string) (*fnspec.FnSpec, error) {
	t.Helper()
	fn := parseFunc(t, src)
	attrs, ok, err := directive.ExtractPyfnAttrs(fn.Doc)
	require.NoError(t, err)
	require.True(t, ok)
	return fnspec.Build(fn, attrs.PythonName, attrs.Attrs, "_pyglue_get_function_"+fn.Name.Name)
}

func TestBuildSimple(t *testing.T) {
	require := require.New(t)
	spec, err := build(t, `
// add adds two numbers.
//pyglue:pyfn(m, "add")
func add(a, b int64) int64 { return a + b }
`)
	require.NoError(err)
	require.Equal(fnspec.FnStatic, spec.Type)
	require.Equal("_pyglue_get_function_add", spec.Name)
	require.Equal("add", spec.GoName)
	require.Equal("add", spec.PythonName)
	require.False(spec.PassModule)
	require.Len(spec.Args, 2)
	require.Equal("a", spec.Args[0].Name.Name)
	require.Equal("b", spec.Args[1].Name.Name)
	for _, a := range spec.Args {
		require.Equal("int64", types.ExprString(a.Type))
		require.Nil(a.Optional)
		require.False(a.Py)
		require.False(a.ByRef)
	}
	require.Equal(fnspec.ReturnValue, spec.Output.Kind)
	require.Equal("int64", types.ExprString(spec.Output.Type))
	require.Equal("add adds two numbers.\x00", spec.Doc)
}

func TestBuildPassModule(t *testing.T) {
	require := require.New(t)
	spec, err := build(t, `
//pyglue:pyfn(m, "configure", pass_module)
func configure(module *pyrt.Module, level pyrt.Option[int64]) {}
`)
	require.NoError(err)
	require.True(spec.PassModule)
	require.Len(spec.Args, 1)
	require.Equal("level", spec.Args[0].Name.Name)
	require.NotNil(spec.Args[0].Optional)
	require.Equal("int64", types.ExprString(spec.Args[0].Optional))
	require.Equal(fnspec.ReturnNone, spec.Output.Kind)
}

func TestBuildPassModuleSharedField(t *testing.T) {
	require := require.New(t)
	spec, err := build(t, `
//pyglue:pyfn(m, "pair", pass_module)
func pair(m, other *Module) {}
`)
	require.NoError(err)
	require.Len(spec.Args, 1)
	require.Equal("other", spec.Args[0].Name.Name)
	require.True(spec.Args[0].ByRef)
}

func TestBuildPassModulePosition(t *testing.T) {
	for _, tt := range []struct {
		name string
		fn   string
		col  int
	}{
		// Points at the opening parenthesis.
		{"no parameters", "func bad() {}", 9},
		{"by value", "func bad(m Module, n int64) {}", 10},
		{"second parameter", "func bad(n int64, m *Module) {}", 10},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			fset := token.NewFileSet()
			src := "package p\n\n//pyglue:pyfn(m, \"bad\", pass_module)\n" + tt.fn + "\n"
			f, err := parser.ParseFile(fset, "x.go", src, parser.ParseComments|parser.SkipObjectResolution)
			require.NoError(err)
			fn := f.Decls[0].(*ast.FuncDecl)
			attrs, ok, err := directive.ExtractPyfnAttrs(fn.Doc)
			require.NoError(err)
			require.True(ok)

			_, err = fnspec.Build(fn, attrs.PythonName, attrs.Attrs, "_pyglue_get_function_bad")
			var dErr *diag.Error
			require.True(errors.As(err, &dErr))
			require.Equal("Expected *Module as first argument with pass_module", dErr.Msg)
			pos := fset.Position(dErr.Pos)
			require.Equal(4, pos.Line)
			require.Equal(tt.col, pos.Column)
		})
	}
}

func TestBuildContextAndFlags(t *testing.T) {
	require := require.New(t)
	spec, err := build(t, `
//pyglue:text_signature = "(a, *rest, scale=1, **kw)"
//pyglue:pyfn(m, "mix", a, rest = "*", scale = "1", kw = "**")
func mix(py pyrt.Python, a int64, rest []int64, scale float64, kw *pyrt.Dict) (int64, error) {
	return 0, nil
}
`)
	require.NoError(err)
	require.Len(spec.Args, 5)
	require.True(spec.Args[0].Py)
	require.True(spec.Args[4].ByRef)

	require.True(spec.IsArgs("rest"))
	require.False(spec.IsArgs("a"))
	require.True(spec.IsKwargs("kw"))
	require.True(spec.IsKwOnly("scale"))
	require.False(spec.IsKwOnly("a"))
	def, ok := spec.DefaultValue("scale")
	require.True(ok)
	require.Equal("1", def)
	_, ok = spec.DefaultValue("a")
	require.False(ok)
	require.True(spec.AcceptArgs())
	require.True(spec.AcceptKwargs())

	require.Equal(fnspec.ReturnValueError, spec.Output.Kind)
	require.Equal("mix(a, *rest, scale=1, **kw)\n--\n\n\x00", spec.Doc)
}

func TestBuildErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		src  string
		err  string
	}{
		{
			"unnamed parameters",
			"//pyglue:pyfn(m, \"bad\")\nfunc bad(int64, int64) {}",
			"Unsupported argument",
		},
		{
			"blank parameter",
			"//pyglue:pyfn(m, \"bad\")\nfunc bad(_ int64) {}",
			"Unsupported argument",
		},
		{
			"variadic parameter",
			"//pyglue:pyfn(m, \"bad\")\nfunc bad(a ...int64) {}",
			"Unsupported argument",
		},
		{
			"receiver",
			"//pyglue:pyfn(m, \"bad\")\nfunc (T) bad() {}",
			"Unexpected receiver for pyfn",
		},
		{
			"generic",
			"//pyglue:pyfn(m, \"bad\")\nfunc bad[T any](a T) {}",
			"generic functions can not be wrapped",
		},
		{
			"pass_module without parameters",
			"//pyglue:pyfn(m, \"bad\", pass_module)\nfunc bad() {}",
			"Expected *Module as first argument with pass_module",
		},
		{
			"pass_module wrong type",
			"//pyglue:pyfn(m, \"bad\", pass_module)\nfunc bad(m Module) {}",
			"Expected *Module as first argument with pass_module",
		},
		{
			"too many results",
			"//pyglue:pyfn(m, \"bad\")\nfunc bad() (int64, int64) { return 0, 0 }",
			"unsupported results: expected none, T, error or (T, error)",
		},
		{
			"error first",
			"//pyglue:pyfn(m, \"bad\")\nfunc bad() (error, int64) { return nil, 0 }",
			"unsupported results: expected none, T, error or (T, error)",
		},
		{
			"unknown argument",
			"//pyglue:pyfn(m, \"bad\", c = \"1\")\nfunc bad(a int64) {}",
			"argument c is not a parameter of bad",
		},
		{
			"optional varargs",
			"//pyglue:pyfn(m, \"bad\", a = \"*\")\nfunc bad(a Option[[]int64]) {}",
			"variable arguments a can not be optional",
		},
		{
			"bound context",
			"//pyglue:pyfn(m, \"bad\", py = \"1\")\nfunc bad(py Python) {}",
			"argument py is the interpreter context and can not be bound",
		},
		{
			"bad text signature",
			"//pyglue:text_signature = \"a\"\n//pyglue:pyfn(m, \"bad\")\nfunc bad() {}",
			`text_signature must start with "(" and end with ")", got "a"`,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, tt.src)
			require.EqualError(t, err, tt.err)
		})
	}
}

func TestGetReturnInfo(t *testing.T) {
	for _, tt := range []struct {
		results string
		kind    fnspec.ReturnKind
		typ     string
	}{
		{"", fnspec.ReturnNone, ""},
		{"error", fnspec.ReturnError, ""},
		{"string", fnspec.ReturnValue, "string"},
		{"*pyrt.Any", fnspec.ReturnValue, "*pyrt.Any"},
		{"(n int64, err error)", fnspec.ReturnValueError, "int64"},
		{"([]string, error)", fnspec.ReturnValueError, "[]string"},
	} {
		t.Run(tt.results, func(t *testing.T) {
			require := require.New(t)
			fn := parseFunc(t, "func f() "+tt.results+" { panic(0) }")
			info, err := fnspec.GetReturnInfo(fn.Type)
			require.NoError(err)
			require.Equal(tt.kind, info.Kind)
			if tt.typ == "" {
				require.Nil(info.Type)
			} else {
				require.Equal(tt.typ, types.ExprString(info.Type))
			}
		})
	}
}

func TestTypeClassification(t *testing.T) {
	require := require.New(t)
	expr := func(s string) ast.Expr {
		e, err := parser.ParseExpr(s)
		require.NoError(err)
		return e
	}

	require.Equal("int64", types.ExprString(fnspec.OptionTypeArgument(expr("Option[int64]"))))
	require.Equal("*Point", types.ExprString(fnspec.OptionTypeArgument(expr("pyrt.Option[*Point]"))))
	require.Nil(fnspec.OptionTypeArgument(expr("Maybe[int64]")))
	require.Nil(fnspec.OptionTypeArgument(expr("[]int64")))

	require.True(fnspec.IsPython(expr("Python")))
	require.True(fnspec.IsPython(expr("pyrt.Python")))
	require.False(fnspec.IsPython(expr("*pyrt.Python")))

	require.True(fnspec.IsModuleRef(expr("*Module")))
	require.True(fnspec.IsModuleRef(expr("*pyrt.Module")))
	require.False(fnspec.IsModuleRef(expr("pyrt.Module")))
	require.False(fnspec.IsModuleRef(expr("*a.b.Module")))
}
