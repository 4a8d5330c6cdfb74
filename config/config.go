// Package config reads the pyglue configuration (pyglue.toml) and the
// binding list (pyglue.txt).
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/module"
)

const (
	DefaultOutput    = "zz_pyglue.go"
	DefaultPkgConfig = "python3-embed"
)

//go:embed default_config.toml
var defaultConfig []byte

type Rule struct {
	Select struct {
		Module *regexp.Regexp `toml:"module"`
		Name   *regexp.Regexp `toml:"name"`
	} `toml:"select"`
	Actions struct {
		Include  *bool  `toml:"include"`
		Rename   string `toml:"rename"`
		ToCasing string `toml:"to-casing"`
	} `toml:"action"`
}

type Config struct {
	Imports []string `toml:"imports"`
	// Import path of the runtime package generated code is built on.
	Runtime string `toml:"runtime"`
	// Name of the generated file, relative to the package directory.
	Output string `toml:"output"`
	// Build constraint expression written to the generated file.
	BuildTag string `toml:"build-tag"`
	// pkg-config package providing the Python headers and libraries.
	PkgConfig string `toml:"pkg-config"`
	// Derive default Python names in snake_case.
	SnakeCaseNames bool   `toml:"snake-case-names"`
	Rules          []Rule `toml:"rule"`
}

type Error struct {
	filePath string
	err      error  // short, single-line error
	str      string // full, multi-line error string, or err string, if none
}

// Error returns a short error message.
func (e *Error) Error() string {
	return e.filePath + ": " + e.err.Error()
}

// String returns the full multi-line error string.
func (e *Error) String() string {
	if e.str != "" {
		return "Error in file " + strconv.Quote(e.filePath) + ":\n" + e.str
	} else {
		return e.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.err
}

// Load reads the config file at path together with all files it imports,
// fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, &Error{filePath: path, err: err}
	}
	return c, nil
}

func load(path string) (_ *Config, err error) {
	defer func() {
		if err != nil {
			if cErr := (&Error{}); errors.As(err, &cErr) {
				return
			}
			if tErr := (&toml.DecodeError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else if tErr := (&toml.StrictMissingError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else {
				err = &Error{filePath: path, err: err}
			}
		}
	}()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &Config{}
	err = toml.NewDecoder(bytes.NewReader(file)).
		DisallowUnknownFields().
		Decode(c)
	if err != nil {
		return nil, err
	}

	var importedCs []*Config // collect imported files first so their imports don't leak into our file's imports
	for _, imp := range c.Imports {
		newC, err := load(imp)
		if err != nil {
			return nil, err
		}
		importedCs = append(importedCs, newC)
	}
	for _, newC := range importedCs {
		if err := mergo.Merge(c, newC, mergo.WithAppendSlice); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Config) setDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.PkgConfig == "" {
		c.PkgConfig = DefaultPkgConfig
	}
}

// Validate checks the values of c.
func (c *Config) Validate() error {
	if c.Runtime == "" {
		return errors.New("runtime: missing import path of the runtime package")
	}
	if err := module.CheckImportPath(c.Runtime); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if c.Output == "" || c.Output != filepath.Base(c.Output) {
		return fmt.Errorf("output: %v must be a file name without directory", strconv.Quote(c.Output))
	}
	for i, rule := range c.Rules {
		switch rule.Actions.ToCasing {
		case "", "snake", "camel", "lower-camel":
		default:
			return fmt.Errorf("rule %v: unknown casing %v", i+1, strconv.Quote(rule.Actions.ToCasing))
		}
	}
	return nil
}

// ReadConfigFromFileOrCreateDefault loads the config at path. If there is
// no file at path, a default config is written there instead and
// createdDefault is true.
func ReadConfigFromFileOrCreateDefault(path string) (_ *Config, createdDefault bool, err error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, defaultConfig, 0666); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	} else if err != nil {
		return nil, false, err
	}
	c, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}
