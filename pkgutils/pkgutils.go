// Package pkgutils has helpers for Go import paths.
package pkgutils

import "strings"

// IsPkgPathStd reports whether path belongs to the standard library,
// i.e. its first element has no dot. It does not check that the package
// exists.
func IsPkgPathStd(path string) bool {
	if path == "" {
		return false
	}
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}
