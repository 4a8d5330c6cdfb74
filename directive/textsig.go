package directive

import (
	"go/ast"
	"strings"

	"github.com/refaktor/pyglue/diag"
)

// ParseTextSignatureAttrs finds and removes a directive of the form
//
//	//pyglue:text_signature = "(a, b, /)"
//
// and returns pythonName followed by the signature, e.g. "add(a, b, /)".
func ParseTextSignatureAttrs(doc *ast.CommentGroup, pythonName string) (sig string, ok bool, err error) {
	idxs := find(doc, NameTextSignature)
	if len(idxs) == 0 {
		return "", false, nil
	}
	if len(idxs) > 1 {
		return "", false, diag.Errorf(doc.List[idxs[1]], "text_signature attribute already specified previously")
	}
	c := doc.List[idxs[0]]
	meta, err := Parse(c)
	if err != nil {
		return "", false, err
	}
	if meta.Kind != MetaNameValue {
		return "", false, diag.Errorf(c, `text_signature must be of the form text_signature = "(<args>)"`)
	}
	val, isStr := meta.Value.Str()
	if !isStr {
		return "", false, diag.ErrorAt(meta.Value.Pos, "text_signature must be a string literal")
	}
	if !validTextSignature(val) {
		return "", false, diag.ErrorAt(meta.Value.Pos, "text_signature must start with \"(\" and end with \")\", got %q", val)
	}
	doc.List = without(doc.List, idxs[0])
	return pythonName + val, true, nil
}

func validTextSignature(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
}
