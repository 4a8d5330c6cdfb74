// Package rules applies the [[rule]] entries of a pyglue config to the
// Python names of wrapped functions.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/refaktor/pyglue/config"
)

// Symbol is a function registered in a Python module.
type Symbol struct {
	Module string
	Name   string
}

func (s Symbol) String() string {
	return config.BindingName(s.Module, s.Name)
}

// Result is the outcome of executing the rules on a symbol.
type Result struct {
	Name     string
	Included bool
}

// Execute runs every rule, in order, on every symbol. Later rules see
// the names produced by earlier ones.
//
// A rule matches a symbol if each of its selectors matches the whole of
// the module or name. Capture groups of the selectors can be referred
// to in a rename action as \1 to \9, module groups first.
func Execute(rules []config.Rule, syms []Symbol) (_ map[Symbol]Result, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("execute rules: %w", err)
		}
	}()

	res := make(map[Symbol]Result, len(syms))
	// Current names in each module, to avoid collisions.
	taken := map[Symbol]bool{}
	for _, sym := range syms {
		if _, ok := res[sym]; ok {
			return nil, fmt.Errorf("duplicate symbol: %v", sym)
		}
		res[sym] = Result{Name: sym.Name, Included: true}
		taken[sym] = true
	}

	var backrefs []string
	for i, rule := range rules {
		for _, sym := range syms {
			backrefs = backrefs[:0]
			if rule.Select.Module != nil {
				m := rule.Select.Module.FindStringSubmatch(sym.Module)
				if len(m) == 0 || len(m[0]) != len(sym.Module) {
					continue
				}
				backrefs = append(backrefs, m[1:]...)
			}
			curr := res[sym]
			if rule.Select.Name != nil {
				m := rule.Select.Name.FindStringSubmatch(curr.Name)
				if len(m) == 0 || len(m[0]) != len(curr.Name) {
					continue
				}
				backrefs = append(backrefs, m[1:]...)
			}

			renameTo := func(newName string) error {
				if newName == curr.Name {
					return nil
				}
				newSym := Symbol{Module: sym.Module, Name: newName}
				if taken[newSym] {
					return fmt.Errorf("rule %v: renaming %v to %v would cause a conflict",
						i+1, strconv.Quote(curr.Name), strconv.Quote(newName))
				}
				delete(taken, Symbol{Module: sym.Module, Name: curr.Name})
				taken[newSym] = true
				curr.Name = newName
				return nil
			}

			if rule.Actions.Rename != "" {
				if err := renameTo(expandBackrefs(rule.Actions.Rename, backrefs)); err != nil {
					return nil, err
				}
			}
			if rule.Actions.Include != nil {
				curr.Included = *rule.Actions.Include
			}
			if rule.Actions.ToCasing != "" {
				newName, err := toCasing(rule.Actions.ToCasing, curr.Name)
				if err != nil {
					return nil, fmt.Errorf("rule %v: %w", i+1, err)
				}
				if err := renameTo(newName); err != nil {
					return nil, err
				}
			}
			res[sym] = curr
		}
	}
	return res, nil
}

func expandBackrefs(s string, backrefs []string) string {
	oldnew := [2 * 9]string{
		`\1`, "",
		`\2`, "",
		`\3`, "",
		`\4`, "",
		`\5`, "",
		`\6`, "",
		`\7`, "",
		`\8`, "",
		`\9`, "",
	}
	for i := range min(len(backrefs), 9) {
		oldnew[2*i+1] = backrefs[i]
	}
	return strings.NewReplacer(oldnew[:]...).Replace(s)
}

func toCasing(casing, name string) (string, error) {
	switch casing {
	case "snake":
		return strcase.ToSnake(name), nil
	case "camel":
		return strcase.ToCamel(name), nil
	case "lower-camel":
		return strcase.ToLowerCamel(name), nil
	default:
		return "", fmt.Errorf("action: unknown casing: %v", casing)
	}
}
