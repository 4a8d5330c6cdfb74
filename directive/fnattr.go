package directive

import (
	"go/token"

	"github.com/refaktor/pyglue/diag"
)

type ArgumentKind int

const (
	// VarArgsSeparator is a bare "*". Arguments after it are keyword only.
	VarArgsSeparator ArgumentKind = iota
	// VarArgs is `name = "*"`: name receives the remaining positional arguments.
	VarArgs
	// KeywordArgs is `name = "**"`: name receives the remaining keyword arguments.
	KeywordArgs
	// Arg is a positional-or-keyword argument, optionally with a default.
	Arg
	// Kwarg is a keyword-only argument, with or without a default.
	Kwarg
)

// Argument is one entry of the signature part of a pyfn or pyfunction
// directive.
type Argument struct {
	Kind ArgumentKind
	Name string
	// Go expression used when the caller omits the argument. Empty if none.
	Default string
	Pos     token.Pos
}

// HasDefault reports whether the argument has a default value.
func (a Argument) HasDefault() bool {
	return (a.Kind == Arg || a.Kind == Kwarg) && a.Default != ""
}

// PyFunctionAttr is the flag set following the module path and the
// exported name of a pyfn directive (or the whole list of a pyfunction
// directive).
type PyFunctionAttr struct {
	Arguments  []Argument
	HasKw      bool
	HasVarargs bool
	HasKwargs  bool
	PassModule bool
}

// ParsePyFunctionAttr parses a flag list such as
//
//	pass_module, a, "*", b = "2", rest = "**"
func ParsePyFunctionAttr(metas []NestedMeta) (PyFunctionAttr, error) {
	var res PyFunctionAttr
	for _, item := range metas {
		if err := res.addItem(item); err != nil {
			return PyFunctionAttr{}, err
		}
	}
	return res, nil
}

func (a *PyFunctionAttr) addItem(item NestedMeta) error {
	if item.Lit != nil {
		return a.addLiteral(item.Lit)
	}
	m := item.Meta
	switch m.Kind {
	case MetaPath:
		if m.Path.IsIdent("pass_module") {
			a.PassModule = true
			return nil
		}
		return a.addWork(m)
	case MetaNameValue:
		return a.addNameValue(m)
	default:
		return diag.ErrorAt(m.Pos, "list is not supported as argument: %v", m)
	}
}

func (a *PyFunctionAttr) addLiteral(lit *Lit) error {
	s, ok := lit.Str()
	if !ok {
		return diag.ErrorAt(lit.Pos, "only string literal is supported, got %v", lit.Value)
	}
	if s != "*" {
		return diag.ErrorAt(lit.Pos, `only "*" is supported here, got %q`, s)
	}
	if a.HasKwargs {
		return diag.ErrorAt(lit.Pos, "syntax error, keyword arguments is defined")
	}
	if a.HasVarargs {
		return diag.ErrorAt(lit.Pos, "arguments already define * (var args)")
	}
	a.HasVarargs = true
	a.Arguments = append(a.Arguments, Argument{Kind: VarArgsSeparator, Pos: lit.Pos})
	return nil
}

func (a *PyFunctionAttr) addWork(m *Meta) error {
	if len(m.Path.Segments) != 1 {
		return diag.ErrorAt(m.Pos, "argument name must be a single identifier, got %v", m.Path)
	}
	if a.HasKw || a.HasKwargs {
		return diag.ErrorAt(m.Pos, "positional argument or varargs(*) not allowed after keyword arguments")
	}
	kind := Arg
	if a.HasVarargs {
		// Required keyword-only argument.
		kind = Kwarg
	}
	a.Arguments = append(a.Arguments, Argument{Kind: kind, Name: m.Path.Segments[0], Pos: m.Pos})
	return nil
}

func (a *PyFunctionAttr) addNameValue(m *Meta) error {
	if len(m.Path.Segments) != 1 {
		return diag.ErrorAt(m.Pos, "argument name must be a single identifier, got %v", m.Path)
	}
	name := m.Path.Segments[0]

	var value string
	switch m.Value.Kind {
	case token.STRING:
		value, _ = m.Value.Str()
	case token.INT:
		value = m.Value.Value
	default:
		return diag.ErrorAt(m.Value.Pos, "only string literal is supported, got %v", m.Value.Value)
	}
	if value == "" {
		return diag.ErrorAt(m.Value.Pos, "default value of %v must not be empty", name)
	}

	switch {
	case m.Value.Kind == token.STRING && value == "*":
		if a.HasKwargs {
			return diag.ErrorAt(m.Pos, "* - syntax error, keyword arguments is defined")
		}
		if a.HasVarargs {
			return diag.ErrorAt(m.Pos, "*(var args) is defined")
		}
		a.HasVarargs = true
		a.Arguments = append(a.Arguments, Argument{Kind: VarArgs, Name: name, Pos: m.Pos})
	case m.Value.Kind == token.STRING && value == "**":
		if a.HasKwargs {
			return diag.ErrorAt(m.Pos, "arguments already define ** (kw args)")
		}
		a.HasKwargs = true
		a.Arguments = append(a.Arguments, Argument{Kind: KeywordArgs, Name: name, Pos: m.Pos})
	case a.HasVarargs:
		a.Arguments = append(a.Arguments, Argument{Kind: Kwarg, Name: name, Default: value, Pos: m.Pos})
	default:
		if a.HasKwargs {
			return diag.ErrorAt(m.Pos, "syntax error, keyword arguments is defined")
		}
		a.HasKw = true
		a.Arguments = append(a.Arguments, Argument{Kind: Arg, Name: name, Default: value, Pos: m.Pos})
	}
	return nil
}
