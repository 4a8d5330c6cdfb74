package fnspec

import (
	"go/ast"

	"github.com/refaktor/pyglue/diag"
)

// FnArg describes one Go parameter of a wrapped function.
type FnArg struct {
	Name *ast.Ident
	// Pointer typed parameter.
	ByRef bool
	Type  ast.Expr
	// Inner type of an Option[T] parameter, nil if not optional.
	Optional ast.Expr
	// Interpreter context parameter, filled in instead of extracted.
	Py bool
}

// WrapFnArgument classifies the parameters of field. A field declaring
// several names (`a, b int64`) yields one [FnArg] per name.
func WrapFnArgument(field *ast.Field) ([]FnArg, error) {
	if len(field.Names) == 0 {
		return nil, diag.Errorf(field, "Unsupported argument")
	}
	if _, ok := field.Type.(*ast.Ellipsis); ok {
		return nil, diag.Errorf(field, "Unsupported argument")
	}

	_, byRef := field.Type.(*ast.StarExpr)
	opt := OptionTypeArgument(field.Type)
	py := IsPython(field.Type)

	res := make([]FnArg, 0, len(field.Names))
	for _, name := range field.Names {
		if name.Name == "_" {
			return nil, diag.Errorf(name, "Unsupported argument")
		}
		res = append(res, FnArg{
			Name:     name,
			ByRef:    byRef,
			Type:     field.Type,
			Optional: opt,
			Py:       py,
		})
	}
	return res, nil
}
