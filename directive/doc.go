package directive

import (
	"go/ast"
	"strings"
)

// GetDoc builds the Python docstring for a declaration.
//
// A text signature, if not empty, comes first and is separated from the
// description by a "--" line, which is how CPython recognizes
// __text_signature__. The description is made of the doc comment lines
// with one leading space removed. Directive lines and other comment
// directives (e.g. //go:noinline) are skipped, as are trailing blank
// lines.
func GetDoc(doc *ast.CommentGroup, textSignature string, nullTerminated bool) string {
	var lines []string
	if doc != nil {
		for _, c := range doc.List {
			lines = append(lines, commentLines(c)...)
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	var b strings.Builder
	if textSignature != "" {
		b.WriteString(textSignature)
		b.WriteString("\n--\n\n")
	}
	b.WriteString(strings.Join(lines, "\n"))
	if nullTerminated {
		b.WriteByte(0)
	}
	return b.String()
}

func commentLines(c *ast.Comment) []string {
	text := c.Text
	if strings.HasPrefix(text, "/*") {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		var res []string
		for _, l := range strings.Split(text, "\n") {
			res = append(res, strings.TrimPrefix(l, " "))
		}
		return res
	}
	text = strings.TrimPrefix(text, "//")
	if isCommentDirective(text) {
		return nil
	}
	return []string{strings.TrimPrefix(text, " ")}
}

// isCommentDirective reports whether text (without the leading "//") is
// a directive such as "go:generate" or "pyglue:pyfn(...)".
func isCommentDirective(text string) bool {
	colon := strings.IndexByte(text, ':')
	if colon <= 0 || colon+1 >= len(text) || text[colon+1] == ' ' {
		return false
	}
	for _, r := range text[:colon] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
