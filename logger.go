package pyglue

import (
	"go/token"
	"strings"

	"github.com/refaktor/pyglue/diag"
	"github.com/refaktor/pyglue/textutils"
	"go.uber.org/zap"
)

// logDiagnostics logs each diagnostic in err as its own entry and returns
// their number.
func logDiagnostics(log *zap.Logger, fset *token.FileSet, err error) int {
	errs := diag.Flatten(err)
	for _, e := range errs {
		log.Error(formatDiagnostic(fset, e))
	}
	return len(errs)
}

// formatDiagnostic renders err as "file:line:col: msg". Messages
// spanning multiple lines, such as config errors, continue indented
// below the first line.
func formatDiagnostic(fset *token.FileSet, err error) string {
	s := diag.Format(fset, err)
	if first, rest, ok := strings.Cut(s, "\n"); ok {
		return first + "\n" + textutils.IndentString(rest, "  ", 1)
	}
	return s
}
