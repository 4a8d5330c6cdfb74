package mymod

import "fmt"

// Describe formats v.
//
//pyglue:pyfunction
func Describe(v int64) string { return fmt.Sprint(v) }
