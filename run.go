package pyglue

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/refaktor/pyglue/config"
	"github.com/refaktor/pyglue/config/rules"
	"github.com/refaktor/pyglue/loader"
	"github.com/refaktor/pyglue/module"
	"go.uber.org/zap"
)

const (
	DefaultConfigPath   = "pyglue.toml"
	DefaultBindingsPath = "pyglue.txt"
)

// ErrDiagnostics is returned by [Run] if any package had diagnostics.
var ErrDiagnostics = errors.New("pyglue: generation failed")

type Options struct {
	ConfigPath   string
	BindingsPath string
	// Package directories or patterns, e.g. "./...". Defaults to ".".
	Patterns []string
	// Build tags used to select the files of each package.
	BuildTags []string
	Logger    *zap.Logger
	// Receives the stats table. Nil discards it.
	Stats io.Writer
}

func (o *Options) setDefaults() {
	if o.ConfigPath == "" {
		o.ConfigPath = DefaultConfigPath
	}
	if o.BindingsPath == "" {
		o.BindingsPath = DefaultBindingsPath
	}
	if len(o.Patterns) == 0 {
		o.Patterns = []string{"."}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Stats == nil {
		o.Stats = io.Discard
	}
}

// Run generates the glue code of every package matched by
// opts.Patterns.
//
// Packages with diagnostics are reported through the logger and their
// generated file is left untouched. If there were any, Run returns
// [ErrDiagnostics] after processing all packages.
func Run(opts Options) error {
	opts.setDefaults()
	if modPath, err := loader.ModulePath("."); err != nil {
		return err
	} else if modPath != "" {
		opts.Logger = opts.Logger.With(zap.String("go_module", modPath))
	}
	log := opts.Logger

	cfg, createdDefault, err := config.ReadConfigFromFileOrCreateDefault(opts.ConfigPath)
	if err != nil {
		var cErr *config.Error
		if errors.As(err, &cErr) {
			log.Error(formatDiagnostic(nil, errors.New(cErr.String())))
			return ErrDiagnostics
		}
		return fmt.Errorf("open config: %w", err)
	}
	if createdDefault {
		log.Info("created default config, set the runtime package and run again", zap.String("path", opts.ConfigPath))
		return nil
	}

	timeStart := time.Now()
	pkgs, err := loader.ResolvePatterns(&loader.Config{
		PackagePatterns: opts.Patterns,
		BuildFlags:      buildTagsFlag(opts.BuildTags),
	})
	if err != nil {
		return fmt.Errorf("resolve packages: %w", err)
	}
	timeResolve := time.Since(timeStart)

	return generateAll(opts, cfg, pkgs, timeResolve)
}

// generateAll generates the code of the resolved packages pkgs.
func generateAll(opts Options, cfg *config.Config, pkgs []loader.Package, timeResolve time.Duration) error {
	log := opts.Logger
	bindingList, err := config.LoadBindingListFromFileOrEmpty(opts.BindingsPath)
	if err != nil {
		return err
	}
	names := newNameResolver(cfg.Rules, bindingList)

	timeStart := time.Now()
	var stats []functionStats
	bindingsToSummaries := map[string]string{}
	numDiagnostics := 0
	for _, pkg := range pkgs {
		pkgLog := log.With(zap.String("package", pkg.Path))
		res, err := generatePackage(pkg, cfg, opts.BuildTags, names)
		if err != nil {
			n := logDiagnostics(pkgLog, res.fset, err)
			numDiagnostics += n
			pkgLog.Warn("skipped writing generated file", zap.Int("diagnostics", n))
			continue
		}
		outFile := filepath.Join(pkg.Dir, cfg.Output)
		if res.mod == nil {
			if err := removeGenerated(outFile); err != nil {
				return err
			}
			pkgLog.Debug("no pyglue directives")
			continue
		}
		if err := os.WriteFile(outFile, res.src, 0666); err != nil {
			return err
		}
		pkgLog.Info("wrote generated file",
			zap.String("file", outFile),
			zap.String("module", res.mod.Name),
			zap.Int("functions", len(res.mod.Functions)),
		)
		for _, f := range res.mod.Functions {
			stats = append(stats, newFunctionStats(res.mod.Name, f))
			if f.ModulePath != "" && !names.ruleExcluded(res.mod.Name, f.Spec.PythonName) {
				bindingsToSummaries[config.BindingName(res.mod.Name, f.Spec.PythonName)] = config.DocSummary(f.Spec.Doc)
			}
		}
	}
	timeGenerate := time.Since(timeStart)

	if numDiagnostics > 0 {
		// Functions of failed packages would drop out of the list.
		log.Error("generation failed", zap.Int("diagnostics", numDiagnostics))
		return ErrDiagnostics
	}
	if err := bindingList.SaveToFile(opts.BindingsPath, bindingsToSummaries); err != nil {
		return err
	}

	writeStats(opts.Stats, stats)
	log.Info("done",
		zap.Int("packages", len(pkgs)),
		zap.Duration("resolve", timeResolve),
		zap.Duration("generate", timeGenerate),
	)
	return nil
}

type packageResult struct {
	fset *token.FileSet
	src  []byte
	mod  *module.Module
}

func generatePackage(pkg loader.Package, cfg *config.Config, buildTags []string, names *nameResolver) (packageResult, error) {
	res := packageResult{fset: token.NewFileSet()}
	files, err := loader.ParseDir(res.fset, pkg.Dir, cfg.Output, buildTags)
	if err != nil {
		return res, err
	}
	res.src, res.mod, err = Generate(Package{
		Fset:       res.fset,
		Files:      files,
		ImportName: loader.PackageNameFunc(pkg.ImportNames),
	}, cfg, module.Options{
		SnakeCaseNames: cfg.SnakeCaseNames,
		Enabled:        names.enabled,
		Rename:         names.rename,
	})
	return res, err
}

// removeGenerated removes a file left over from a previous run.
func removeGenerated(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}
	if !bytes.HasPrefix(data, []byte(Header)) {
		return fmt.Errorf("%v exists, but was not generated by pyglue", path)
	}
	return os.Remove(path)
}

func buildTagsFlag(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return []string{"-tags=" + strings.Join(tags, ",")}
}

// nameResolver applies the config rules and the binding list to the
// functions registered with pyfn.
type nameResolver struct {
	rules    []config.Rule
	bindings *config.BindingList
	// Renamed symbols excluded by a rule.
	excluded map[rules.Symbol]bool
}

func newNameResolver(rs []config.Rule, bindings *config.BindingList) *nameResolver {
	return &nameResolver{
		rules:    rs,
		bindings: bindings,
		excluded: map[rules.Symbol]bool{},
	}
}

func (r *nameResolver) rename(module, pythonName string) (string, error) {
	sym := rules.Symbol{Module: module, Name: pythonName}
	res, err := rules.Execute(r.rules, []rules.Symbol{sym})
	if err != nil {
		return "", err
	}
	if !res[sym].Included {
		r.excluded[rules.Symbol{Module: module, Name: res[sym].Name}] = true
	}
	return res[sym].Name, nil
}

func (r *nameResolver) ruleExcluded(module, pythonName string) bool {
	return r.excluded[rules.Symbol{Module: module, Name: pythonName}]
}

func (r *nameResolver) enabled(module, pythonName string) bool {
	return !r.ruleExcluded(module, pythonName) &&
		r.bindings.IsEnabled(config.BindingName(module, pythonName))
}

type functionStats struct {
	module     string
	goName     string
	pythonName string
	status     string
}

func newFunctionStats(moduleName string, f *module.Function) functionStats {
	status := "registered"
	switch {
	case f.ModulePath == "":
		status = "standalone"
	case !f.Registered:
		status = "disabled"
	}
	return functionStats{
		module:     moduleName,
		goName:     f.Spec.GoName,
		pythonName: f.Spec.PythonName,
		status:     status,
	}
}

func writeStats(w io.Writer, stats []functionStats) {
	numRegistered := 0
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Module", "Go function", "Python name", "Status"})
	for _, s := range stats {
		if s.status == "registered" {
			numRegistered++
		}
		tbl.Append([]string{s.module, s.goName, s.pythonName, s.status})
	}
	tbl.Append([]string{"==TOTAL==", "", "", fmt.Sprintf("%v/%v registered", numRegistered, len(stats))})
	tbl.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})
	tbl.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tbl.SetCenterSeparator("|")
	tbl.Render()
}
