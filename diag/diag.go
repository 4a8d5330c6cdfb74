// Package diag holds generation-time diagnostics tied to a source position.
package diag

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Error is a diagnostic for the syntax at Pos.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// Errorf creates an [*Error] spanning node.
func Errorf(node ast.Node, format string, args ...any) error {
	var pos token.Pos
	if node != nil {
		pos = node.Pos()
	}
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ErrorAt creates an [*Error] at an explicit position.
func ErrorAt(pos token.Pos, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Format renders err as "file:line:col: msg". Multierrors are expanded,
// one diagnostic per line.
func Format(fset *token.FileSet, err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	for i, e := range Flatten(err) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatOne(fset, e))
	}
	return b.String()
}

func formatOne(fset *token.FileSet, err error) string {
	var dErr *Error
	if errors.As(err, &dErr) && dErr.Pos.IsValid() && fset != nil {
		pos := fset.Position(dErr.Pos)
		if err == error(dErr) {
			return pos.String() + ": " + dErr.Msg
		}
		// Keep the wrapping context, e.g. "add: Unsupported argument".
		return pos.String() + ": " + err.Error()
	}
	return err.Error()
}

// Flatten returns the individual errors of a [*multierror.Error], or err
// itself.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var mErr *multierror.Error
	if errors.As(err, &mErr) {
		var res []error
		for _, e := range mErr.Errors {
			res = append(res, Flatten(e)...)
		}
		return res
	}
	return []error{err}
}
