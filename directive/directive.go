// Package directive reads and removes pyglue marker directives from the doc
// comments of Go declarations.
//
// A directive is a comment line of the form
//
//	//pyglue:<meta>
//
// where <meta> follows a small attribute grammar:
//
//	Meta       = Path [ "(" [ NestedMeta { "," NestedMeta } ] ")" | "=" Lit ]
//	NestedMeta = Meta | Lit
//	Path       = ident { "." ident }
//
// For example:
//
//	//pyglue:pyfn(m, "add", pass_module, "*", scale = "1.0")
//	//pyglue:text_signature = "(a, b, /)"
//	//pyglue:pymodule(mymod)
package directive

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/refaktor/pyglue/diag"
)

// Prefix starts every pyglue directive.
const Prefix = "//pyglue:"

// Directive names.
const (
	NamePyfn          = "pyfn"
	NamePyfunction    = "pyfunction"
	NamePymodule      = "pymodule"
	NameTextSignature = "text_signature"
)

// IsDirective reports whether c is a pyglue directive line.
func IsDirective(c *ast.Comment) bool {
	return strings.HasPrefix(c.Text, Prefix)
}

// Name returns the directive name of c (e.g. "pyfn"), or "" if c is not
// a pyglue directive.
func Name(c *ast.Comment) string {
	rest, ok := strings.CutPrefix(c.Text, Prefix)
	if !ok {
		return ""
	}
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if end == -1 {
		return rest
	}
	return rest[:end]
}

// Parse parses the meta of a pyglue directive. Positions in the result
// point into the comment.
func Parse(c *ast.Comment) (*Meta, error) {
	rest, ok := strings.CutPrefix(c.Text, Prefix)
	if !ok {
		return nil, diag.Errorf(c, "not a pyglue directive")
	}
	return ParseMeta(rest, c.Slash+token.Pos(len(Prefix)))
}

// find returns the indices of all directives named name.
func find(doc *ast.CommentGroup, name string) []int {
	if doc == nil {
		return nil
	}
	var res []int
	for i, c := range doc.List {
		if Name(c) == name {
			res = append(res, i)
		}
	}
	return res
}

// without builds a new comment list lacking the entry at index skip.
// The caller replaces the group's list with it once nothing can fail
// anymore.
func without(list []*ast.Comment, skip int) []*ast.Comment {
	res := make([]*ast.Comment, 0, len(list)-1)
	for i, c := range list {
		if i != skip {
			res = append(res, c)
		}
	}
	return res
}

// Has reports whether doc contains a directive named name.
func Has(doc *ast.CommentGroup, name string) bool {
	return len(find(doc, name)) > 0
}

// HasAny reports whether doc contains any pyglue directive.
func HasAny(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if IsDirective(c) {
			return true
		}
	}
	return false
}

// CheckKnown returns an error for the first pyglue directive in doc
// whose name is not known.
func CheckKnown(doc *ast.CommentGroup) error {
	if doc == nil {
		return nil
	}
	for _, c := range doc.List {
		if !IsDirective(c) {
			continue
		}
		switch Name(c) {
		case NamePyfn, NamePyfunction, NamePymodule, NameTextSignature:
		default:
			return diag.Errorf(c, "unknown directive %q", strings.TrimPrefix(c.Text, "//"))
		}
	}
	return nil
}
