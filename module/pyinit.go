// Package module generates the module level code of a package: the
// function registering every wrapped function and the PyInit entry point
// the interpreter calls when importing the module.
package module

import (
	"bytes"
	"embed"
	"strconv"
	"text/template"

	"github.com/refaktor/pyglue/binder"
)

//go:embed templates
var templates embed.FS

var templateFuncMap = template.FuncMap{
	"quote": strconv.Quote,
	"nullTerminated": func(s string) string {
		return s + "\x00"
	},
}

var pyInitTmpl = template.Must(template.New("pyinit.go.tmpl").Funcs(templateFuncMap).
	ParseFS(templates, "templates/pyinit.go.tmpl"))

type pyInitData struct {
	ModuleName  string
	FnName      string
	Doc         string
	DefIdent    string
	PyInitIdent string
}

// PyInit generates the module descriptor and the exported
// PyInit_<moduleName> function, which builds the module by calling
// fnName with the interpreter and the new module.
func PyInit(fnName, moduleName, doc string) (string, error) {
	var b bytes.Buffer
	err := pyInitTmpl.Execute(&b, pyInitData{
		ModuleName:  moduleName,
		FnName:      fnName,
		Doc:         doc,
		DefIdent:    binder.ModuleDefIdent(moduleName),
		PyInitIdent: binder.PyInitIdent(moduleName),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
