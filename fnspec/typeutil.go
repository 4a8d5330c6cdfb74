package fnspec

import "go/ast"

// lastSegment returns the last identifier of a type name such as `Option`
// or `pyrt.Option`, or "" if expr is not a (qualified) name.
func lastSegment(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		if _, ok := e.X.(*ast.Ident); ok {
			return e.Sel.Name
		}
	case *ast.ParenExpr:
		return lastSegment(e.X)
	}
	return ""
}

// OptionTypeArgument returns T if typ is syntactically `Option[T]` or
// `x.Option[T]`, otherwise nil.
func OptionTypeArgument(typ ast.Expr) ast.Expr {
	idx, ok := typ.(*ast.IndexExpr)
	if !ok || lastSegment(idx.X) != "Option" {
		return nil
	}
	return idx.Index
}

// IsPython reports whether typ is the interpreter context type `Python`
// or `x.Python`.
func IsPython(typ ast.Expr) bool {
	return lastSegment(typ) == "Python"
}

// IsModuleRef reports whether typ is `*Module` or `*x.Module`.
func IsModuleRef(typ ast.Expr) bool {
	star, ok := typ.(*ast.StarExpr)
	return ok && lastSegment(star.X) == "Module"
}

// IsError reports whether typ is the predeclared error type.
func IsError(typ ast.Expr) bool {
	id, ok := typ.(*ast.Ident)
	return ok && id.Name == "error"
}
