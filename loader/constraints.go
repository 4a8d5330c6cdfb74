package loader

import (
	"go/ast"
	"go/build/constraint"
	"runtime"
	"slices"
	"strings"
)

var (
	GOOSsuffixes   = []string{"aix", "android", "darwin", "dragonfly", "freebsd", "hurd", "illumos", "ios", "js", "linux", "nacl", "netbsd", "openbsd", "plan9", "solaris", "wasip1", "windows", "zos"}
	GOARCHsuffixes = []string{"386", "amd64", "amd64p32", "arm", "arm64", "arm64be", "armbe", "loong64", "mips", "mips64", "mips64le", "mips64p32", "mips64p32le", "mipsle", "ppc", "ppc64", "ppc64le", "riscv", "riscv64", "s390", "s390x", "sparc", "sparc64", "wasm"}
	UnixOSes       = []string{"aix", "android", "darwin", "dragonfly", "freebsd", "hurd", "illumos", "ios", "linux", "netbsd", "openbsd", "solaris"}
)

// fullConstraints returns a constraint expression for all
// go:/+ build constraints and all filename build constraints.
// Returns nil if there are no constraints.
func fullConstraints(f *ast.File, filename string) (constraint.Expr, error) {
	var resExpr constraint.Expr
	add := func(expr constraint.Expr) {
		if resExpr == nil {
			resExpr = expr
		} else {
			resExpr = &constraint.AndExpr{
				X: resExpr,
				Y: expr,
			}
		}
	}
	goos, goarch := filenameSuffixConstraints(filename)
	if goos != "" {
		add(&constraint.TagExpr{Tag: goos})
	}
	if goarch != "" {
		add(&constraint.TagExpr{Tag: goarch})
	}
	for _, c := range f.Comments {
		// Build constraints must appear before the package clause.
		if c.Pos() > f.Package {
			break
		}
		for _, c := range c.List {
			if !constraint.IsGoBuild(c.Text) && !constraint.IsPlusBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return nil, err
			}
			add(expr)
		}
	}
	return resExpr, nil
}

func filenameSuffixConstraints(filename string) (goosConstraint, goarchConstraint string) {
	for _, goos := range GOOSsuffixes {
		if strings.HasSuffix(filename, "_"+goos+".go") {
			return goos, ""
		}
	}
	for _, goarch := range GOARCHsuffixes {
		if strings.HasSuffix(filename, "_"+goarch+".go") {
			for _, goos := range GOOSsuffixes {
				if strings.HasSuffix(filename, "_"+goos+"_"+goarch+".go") {
					return goos, goarch
				}
			}
			return "", goarch
		}
	}
	return "", ""
}

// haveTag returns the tag predicate of a cgo build for the host platform
// with the additional buildTags.
func haveTag(buildTags []string) func(tag string) bool {
	return func(tag string) bool {
		switch tag {
		case runtime.GOOS, runtime.GOARCH, "cgo", "gc":
			return true
		case "unix":
			return slices.Contains(UnixOSes, runtime.GOOS)
		}
		if strings.HasPrefix(tag, "go1.") {
			return true
		}
		return slices.Contains(buildTags, tag)
	}
}
