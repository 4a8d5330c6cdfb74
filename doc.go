/*
Package pyglue exposes Go functions to CPython.

It is a code generator run by "go generate". Functions marked with pyglue
directives are wrapped in cgo callbacks, and a PyInit_<module> entry point is
generated, so the package can be built with -buildmode=c-shared and imported
from Python:

	//pyglue:pymodule
	func mymod(py pyrt.Python, m *pyrt.Module) error {
		return nil
	}

	// add adds two numbers.
	//
	//pyglue:pyfn(m, "add")
	func add(a, b int64) int64 {
		return a + b
	}

# Architecture pipeline (for developers)

Each element in the pipeline has distinct sub-packages that do a specific part. These are then "glued" together in the [Generate] and [Run] functions.
 1. [config]: Parse user-supplied 'pyglue.toml' and 'pyglue.txt' files
 2. [loader]: Resolve package patterns and parse the package files
 3. [directive]: Read and remove the pyglue directives of each function
 4. [fnspec]: Classify the arguments and build the function specification
 5. [binder]: Generate the raw callback and the registration thunk of each function
 6. [module]: Generate the module initializer and the PyInit entry point
 7. [preprocessor]: Tidy the imports of the generated file
*/
package pyglue
