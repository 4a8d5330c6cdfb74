package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/refaktor/pyglue"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	optConfig   string
	optBindings string
	optLogLevel string
	optTags     string
	optQuiet    bool
)

func init() {
	flag.StringVar(&optConfig, "config", pyglue.DefaultConfigPath, "config file")
	flag.StringVar(&optBindings, "bindings", pyglue.DefaultBindingsPath, "binding list file")
	flag.StringVar(&optLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&optTags, "tags", "", "comma separated build tags used to select files")
	flag.BoolVar(&optQuiet, "q", false, "don't print the stats table")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `usage: pyglue [options...] [packages...]

options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(),
			`
examples:
  pyglue
  	Generate the glue code of the package in the current directory
  pyglue -tags=python ./...
  	Generate the glue code of all packages in the current module, selecting files with the "python" tag

go generate:
  //go:generate go run github.com/refaktor/pyglue/cmd/pyglue
`)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func main() {
	flag.Parse()

	logger, err := newLogger(optLogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log-level:", err)
		os.Exit(2)
	}
	defer logger.Sync()

	opts := pyglue.Options{
		ConfigPath:   optConfig,
		BindingsPath: optBindings,
		Patterns:     flag.Args(),
		Logger:       logger,
	}
	if optTags != "" {
		opts.BuildTags = strings.Split(optTags, ",")
	}
	if !optQuiet {
		opts.Stats = os.Stdout
	}

	if err := pyglue.Run(opts); err != nil {
		if !errors.Is(err, pyglue.ErrDiagnostics) {
			logger.Error("pyglue failed", zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}
