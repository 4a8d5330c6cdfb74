package mymod

import (
	"strings"
	"time"

	pyrt "example.com/pyrt"
)

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

// Upper returns s in upper case.
//
//pyglue:pyfn(m, "upper")
func upper(s string) string { return strings.ToUpper(s) }

// wait sleeps for d.
//
//pyglue:pyfn(m, "wait", d = "time.Second")
func wait(d time.Duration) error {
	time.Sleep(d)
	return nil
}

//pyglue:pyfn(m, "debug_dump", pass_module)
func debugDump(module *pyrt.Module) {}
