package fnspec

import (
	"go/ast"

	"github.com/refaktor/pyglue/diag"
)

type ReturnKind int

const (
	// ReturnNone is a function without results.
	ReturnNone ReturnKind = iota
	// ReturnValue is `func(...) T`.
	ReturnValue
	// ReturnError is `func(...) error`.
	ReturnError
	// ReturnValueError is `func(...) (T, error)`.
	ReturnValueError
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnNone:
		return "none"
	case ReturnValue:
		return "value"
	case ReturnError:
		return "error"
	case ReturnValueError:
		return "value and error"
	default:
		return "invalid"
	}
}

// ReturnInfo classifies the results of a wrapped function.
type ReturnInfo struct {
	Kind ReturnKind
	// Value type for ReturnValue and ReturnValueError.
	Type ast.Expr
}

// GetReturnInfo classifies the result list of ft.
func GetReturnInfo(ft *ast.FuncType) (ReturnInfo, error) {
	var types []ast.Expr
	if ft.Results != nil {
		for _, field := range ft.Results.List {
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for range n {
				types = append(types, field.Type)
			}
		}
	}

	switch {
	case len(types) == 0:
		return ReturnInfo{Kind: ReturnNone}, nil
	case len(types) == 1 && IsError(types[0]):
		return ReturnInfo{Kind: ReturnError}, nil
	case len(types) == 1:
		return ReturnInfo{Kind: ReturnValue, Type: types[0]}, nil
	case len(types) == 2 && !IsError(types[0]) && IsError(types[1]):
		return ReturnInfo{Kind: ReturnValueError, Type: types[0]}, nil
	default:
		return ReturnInfo{}, diag.Errorf(ft.Results, "unsupported results: expected none, T, error or (T, error)")
	}
}
