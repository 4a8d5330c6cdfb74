// Package loader finds and parses the packages pyglue generates code for.
package loader

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/refaktor/pyglue/pkgutils"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"
)

type Config struct {
	// Packages to load
	PackagePatterns []string
	// Additional env vars (e.g. "GOOS=...", "GOARCH=...", "CGO_ENABLED=..." etc.)
	Env []string
	// Additional build flags (e.g. "-tags=...")
	BuildFlags []string
}

// Package is a resolved package pattern.
type Package struct {
	Name string
	Path string
	Dir  string
	// Maps the paths of direct imports to their package names.
	ImportNames map[string]string
}

func loadPackagesStep(c *Config, pc *packages.Config) ([]*packages.Package, error) {
	{
		prevEnv := pc.Env
		prevBuildFlags := pc.BuildFlags
		defer func() {
			pc.Env = prevEnv
			pc.BuildFlags = prevBuildFlags
		}()
		// NOTE: Ensure we always fully clone any slices here!
		pc.Env = append(os.Environ(), c.Env...)
		pc.BuildFlags = append(slices.Clone(c.BuildFlags), pc.BuildFlags...)
	}

	pkgs, err := packages.Load(pc, c.PackagePatterns...)
	if err != nil {
		return nil, err
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, errors.New("loader had errors")
	}
	return pkgs, nil
}

// ResolvePatterns resolves the given package patterns to package
// directories, sorted by package path.
func ResolvePatterns(c *Config) ([]Package, error) {
	pkgs, err := loadPackagesStep(c, &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedImports,
	})
	if err != nil {
		return nil, err
	}

	var res []Package
	for _, pkg := range pkgs {
		if len(pkg.GoFiles) == 0 {
			continue
		}
		p := Package{
			Name:        pkg.Name,
			Path:        pkg.PkgPath,
			Dir:         filepath.Dir(pkg.GoFiles[0]),
			ImportNames: map[string]string{},
		}
		for path, imp := range pkg.Imports {
			p.ImportNames[path] = imp.Name
		}
		res = append(res, p)
	}
	slices.SortFunc(res, func(a, b Package) int {
		return strings.Compare(a.Path, b.Path)
	})
	return res, nil
}

// PackageNameFunc returns a function looking up the default import name of
// a package path. Paths missing in importNames fall back to the last path
// element, ignoring a major version suffix.
func PackageNameFunc(importNames map[string]string) func(path string) (string, error) {
	return func(path string) (string, error) {
		if name, ok := importNames[path]; ok && name != "" {
			return name, nil
		}
		return GuessPackageName(path)
	}
}

// GuessPackageName returns the conventional name of the package at path,
// e.g. "yaml" for "gopkg.in/yaml.v3" and "mergo" for "dario.cat/mergo/v2".
func GuessPackageName(path string) (string, error) {
	stripVersionSuffix := func(path string) string {
		lastSlash := strings.LastIndex(path, "/")
		if lastSlash != -1 {
			if after, ok := strings.CutPrefix(path[lastSlash+1:], "v"); ok {
				v, err := strconv.Atoi(after)
				if err == nil && v >= 2 {
					return path[:lastSlash]
				}
			}
		}
		return path
	}
	name := stripVersionSuffix(path)
	if lastSlash := strings.LastIndex(name, "/"); lastSlash != -1 {
		name = name[lastSlash+1:]
	}
	if !pkgutils.IsPkgPathStd(path) {
		if strings.HasPrefix(path, "gopkg.in/") {
			name, _, _ = strings.Cut(name, ".")
		}
		name = strings.TrimPrefix(name, "go-")
		name = strings.ReplaceAll(name, "-", "_")
	}
	if !token.IsIdentifier(name) {
		return "", fmt.Errorf("can not guess package name of %v", strconv.Quote(path))
	}
	return name, nil
}

// ParseDir parses the Go files of the package in dir which are part of a
// cgo build with buildTags. Test files and the file named skip are left
// out. Files are returned sorted by name.
func ParseDir(fset *token.FileSet, dir, skip string, buildTags []string) ([]*ast.File, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var res []*ast.File
	for _, ent := range ents {
		name := ent.Name()
		if ent.IsDir() ||
			!strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") ||
			strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") ||
			name == skip {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.SkipObjectResolution|parser.ParseComments)
		if err != nil {
			return nil, err
		}
		constr, err := fullConstraints(f, name)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}
		if constr != nil && !constr.Eval(haveTag(buildTags)) {
			continue
		}
		if len(res) > 0 && res[0].Name.Name != f.Name.Name {
			return nil, fmt.Errorf("package in %v has conflicting names: %v and %v", dir, res[0].Name.Name, f.Name.Name)
		}
		res = append(res, f)
	}
	return res, nil
}

// ModulePath returns the module path declared in the go.mod closest to
// dir, or "" if there is none.
func ModulePath(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		goModPath := filepath.Join(dir, "go.mod")
		data, err := os.ReadFile(goModPath)
		if err == nil {
			mod, err := modfile.Parse(goModPath, data, nil)
			if err != nil {
				return "", err
			}
			if mod.Module == nil {
				return "", fmt.Errorf("%v: missing module directive", goModPath)
			}
			return mod.Module.Mod.Path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
