package config

import (
	"bufio"
	"bytes"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// BindingList is the user editable list of wrapped functions (pyglue.txt).
// Entries are named "<module>.<python name>".
type BindingList struct {
	Enabled map[string]bool
}

func NewBindingList() *BindingList {
	return &BindingList{
		Enabled: make(map[string]bool),
	}
}

// BindingName returns the binding list entry name of a function.
func BindingName(module, pythonName string) string {
	return module + "." + pythonName
}

// IsEnabled reports whether name is enabled. Functions not listed yet
// are enabled.
func (bl *BindingList) IsEnabled(name string) bool {
	enabled, ok := bl.Enabled[name]
	return !ok || enabled
}

// LoadBindingListFromFileOrEmpty is like [LoadBindingListFromFile], but
// returns an empty list if the file doesn't exist.
func LoadBindingListFromFileOrEmpty(filename string) (*BindingList, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return NewBindingList(), nil
	}
	return LoadBindingListFromFile(filename)
}

func LoadBindingListFromFile(filename string) (*BindingList, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := NewBindingList()

	type section int
	const (
		sectionNone section = iota
		sectionEnabled
		sectionDisabled
	)

	currSection := sectionNone
	sc := bufio.NewScanner(f)
	for lineNum := 1; sc.Scan(); lineNum++ {
		makeErr := func(format string, a ...any) error {
			return fmt.Errorf("%v: line %v: %v", filename, lineNum, fmt.Errorf(format, a...))
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			switch line {
			case "[enabled]":
				currSection = sectionEnabled
			case "[disabled]":
				currSection = sectionDisabled
			default:
				return nil, makeErr("invalid section name %v", line)
			}
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r)
		})
		name := fields[0]
		if currSection == sectionNone {
			return nil, makeErr("expected binding name \"%v\" to be under a section ([enabled] or [disabled])", name)
		}
		if !strings.Contains(name, ".") {
			return nil, makeErr("expected binding name \"%v\" to have the form <module>.<name>", name)
		}
		switch currSection {
		case sectionEnabled:
			if v, ok := res.Enabled[name]; ok && !v {
				return nil, makeErr("cannot have binding \"%v\" in both [enabled] and [disabled] sections", name)
			}
			res.Enabled[name] = true
		case sectionDisabled:
			if v, ok := res.Enabled[name]; ok && v {
				return nil, makeErr("cannot have binding \"%v\" in both [enabled] and [disabled] sections", name)
			}
			res.Enabled[name] = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SaveToFile writes the list, sorted, to filename. Only bindings in
// bindingsToSummaries are written, each followed by its doc summary.
// Bindings missing in bl are enabled.
func (bl *BindingList) SaveToFile(filename string, bindingsToSummaries map[string]string) error {
	var enabledBindings []string
	var disabledBindings []string
	for _, name := range slices.Sorted(maps.Keys(bindingsToSummaries)) {
		if bl.IsEnabled(name) {
			enabledBindings = append(enabledBindings, name)
		} else {
			disabledBindings = append(disabledBindings, name)
		}
	}

	var res bytes.Buffer
	fmt.Fprintln(&res, "# This file lists the Go functions exposed to Python. Functions can be enabled/disabled by placing them under the according section.")
	fmt.Fprintln(&res, "# Disabled functions are still generated, but not added to their module.")
	fmt.Fprintln(&res, "# Re-run `go generate ./...` to update and sort the list.")

	writeBindings := func(bs []string) {
		maxCol0Len := 0
		for _, name := range bs {
			maxCol0Len = max(maxCol0Len, len(name))
		}
		for _, name := range bs {
			summary := bindingsToSummaries[name]
			if summary == "" {
				fmt.Fprintln(&res, name)
				continue
			}
			fmt.Fprintf(
				&res,
				"%v %v%v\n",
				name,
				strings.Repeat(" ", maxCol0Len-len(name)),
				strconv.Quote(summary),
			)
		}
	}
	fmt.Fprintln(&res)
	fmt.Fprintln(&res, "[enabled]")
	writeBindings(enabledBindings)
	fmt.Fprintln(&res)
	fmt.Fprintln(&res, "[disabled]")
	writeBindings(disabledBindings)

	return os.WriteFile(filename, res.Bytes(), 0666)
}

// DocSummary returns the first line of a docstring, without a text
// signature.
func DocSummary(doc string) string {
	doc = strings.TrimRight(doc, "\x00")
	if _, after, ok := strings.Cut(doc, "\n--\n\n"); ok {
		doc = after
	}
	line, _, _ := strings.Cut(doc, "\n")
	return strings.TrimSpace(line)
}
