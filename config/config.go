/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package config loads tsgraft's configuration from defaults, an optional
// config file, the environment and the project's tsconfig.json.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/resolve"
)

// Sentinel validation errors.
var (
	ErrModuleKind = errors.New("the module kind should be an ES module kind")
	ErrTarget     = errors.New("invalid target")
	ErrJSX        = errors.New("invalid jsx mode")
	ErrPattern    = errors.New("invalid filter pattern")
	ErrLogLevel   = errors.New("invalid log level")
	ErrLogFormat  = errors.New("invalid log format")
	ErrTSConfig   = errors.New("invalid tsconfig")
)

// Defaults.
const (
	DefaultModule    = "es2015"
	DefaultTarget    = "es2015"
	DefaultSourceMap = true
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// TSConfigDisabled as the tsconfig value skips tsconfig.json entirely.
	TSConfigDisabled = "false"
)

// DefaultInclude matches every TypeScript source.
var DefaultInclude = []string{"**/*.{ts,tsx}"}

// Config is the complete configuration of a build session.
type Config struct {
	// Root is the project directory. Relative paths are resolved against it.
	Root      string              `mapstructure:"root"`
	Target    string              `mapstructure:"target"`
	Module    string              `mapstructure:"module"`
	Include   []string            `mapstructure:"include"`
	Exclude   []string            `mapstructure:"exclude"`
	SourceMap bool                `mapstructure:"sourceMap"`
	BaseURL   string              `mapstructure:"baseUrl"`
	Paths     map[string][]string `mapstructure:"paths"`
	// PathsBase is where "paths" targets resolve when BaseURL is empty.
	PathsBase          string   `mapstructure:"pathsBase"`
	JSX                string   `mapstructure:"jsx"`
	JSXFactory         string   `mapstructure:"jsxFactory"`
	JSXFragmentFactory string   `mapstructure:"jsxFragmentFactory"`
	Conditions         []string `mapstructure:"conditions"`
	// TSConfig is the tsconfig.json to merge. Empty means discover it from
	// Root upwards, TSConfigDisabled means none.
	TSConfig string    `mapstructure:"tsconfig"`
	Log      LogConfig `mapstructure:"log"`
}

// LogConfig selects the logger built by internal/logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration Load produces with no input.
func Default() *Config {
	return &Config{
		Root:      ".",
		Target:    DefaultTarget,
		Module:    DefaultModule,
		Include:   append([]string(nil), DefaultInclude...),
		SourceMap: DefaultSourceMap,
		Log:       LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// envKeys are bound explicitly so Unmarshal sees TSGRAFT_* values for keys
// without a default.
var envKeys = []string{"target", "exclude", "baseUrl", "jsx", "jsxFactory", "jsxFragmentFactory", "conditions", "tsconfig"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("module", DefaultModule)
	v.SetDefault("sourceMap", DefaultSourceMap)
	v.SetDefault("include", DefaultInclude)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// Load reads configuration from v, which may already carry flags or explicit
// values, then merges tsconfig.json compilerOptions read through fsys.
//
// Precedence follows tsconfig < defaults < explicit: a default (module,
// sourceMap) overrides tsconfig.json, anything set explicitly overrides
// both, and tsconfig.json fills in what neither sets.
func Load(v *viper.Viper, fsys fs.FileSystem) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("TSGRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("tsgraft")
		v.AddConfigPath(v.GetString("root"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	cfg.Root = root
	cfg.BaseURL = cfg.abs(cfg.BaseURL)
	cfg.PathsBase = cfg.abs(cfg.PathsBase)

	if err := cfg.mergeTSConfig(v, fsys); err != nil {
		return nil, err
	}
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if cfg.PathsBase == "" {
		cfg.PathsBase = cfg.Root
	}
	return cfg, nil
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// mergeTSConfig fills every option v has no value for from tsconfig.json.
func (c *Config) mergeTSConfig(v *viper.Viper, fsys fs.FileSystem) error {
	path, ok := c.tsconfigPath(fsys)
	if !ok {
		return nil
	}
	ts, err := ReadTSConfig(fsys, path)
	if err != nil {
		return err
	}
	opts := ts.CompilerOptions
	dir := filepath.Dir(path)
	c.TSConfig = path

	// module and sourceMap always have a value by now, so tsconfig.json
	// cannot override them.
	unset := func(key string) bool { return !v.IsSet(key) }
	if unset("target") && opts.Target != "" {
		c.Target = opts.Target
	}
	if unset("baseUrl") && opts.BaseURL != "" {
		c.BaseURL = joinIfRelative(dir, opts.BaseURL)
	}
	if unset("paths") && len(opts.Paths) > 0 {
		c.Paths = opts.Paths
		if unset("pathsBase") {
			c.PathsBase = dir
		}
	}
	if unset("jsx") && opts.JSX != "" {
		c.JSX = opts.JSX
	}
	if unset("jsxFactory") && opts.JSXFactory != "" {
		c.JSXFactory = opts.JSXFactory
	}
	if unset("jsxFragmentFactory") && opts.JSXFragmentFactory != "" {
		c.JSXFragmentFactory = opts.JSXFragmentFactory
	}
	return nil
}

func (c *Config) tsconfigPath(fsys fs.FileSystem) (string, bool) {
	switch c.TSConfig {
	case TSConfigDisabled:
		return "", false
	case "":
		p := resolve.FindUp(fsys, c.Root, "tsconfig.json")
		return p, p != ""
	default:
		return c.abs(c.TSConfig), true
	}
}

func joinIfRelative(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

// Validate checks every option. It fails with ErrModuleKind unless the module
// kind emits ES modules.
func (c *Config) Validate() error {
	var errs []error

	module, err := engine.ParseModuleKind(c.Module)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("%w, found: %q", ErrModuleKind, c.Module))
	case !module.IsESM():
		errs = append(errs, fmt.Errorf("%w, found: %q", ErrModuleKind, module))
	}
	if _, err := engine.ParseScriptTarget(c.Target); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrTarget, err))
	}
	if _, err := engine.ParseJSXMode(c.JSX); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrJSX, err))
	}
	for _, p := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrPattern, p))
		}
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrLogFormat, c.Log.Format))
	}
	return errors.Join(errs...)
}

// Compiler converts the configuration into engine options. The
// configuration must be valid.
func (c *Config) Compiler() (engine.Options, error) {
	target, err := engine.ParseScriptTarget(c.Target)
	if err != nil {
		return engine.Options{}, fmt.Errorf("%w: %w", ErrTarget, err)
	}
	module, err := engine.ParseModuleKind(c.Module)
	if err != nil {
		return engine.Options{}, fmt.Errorf("%w: %w", ErrModuleKind, err)
	}
	jsx, err := engine.ParseJSXMode(c.JSX)
	if err != nil {
		return engine.Options{}, fmt.Errorf("%w: %w", ErrJSX, err)
	}
	return engine.Options{
		Target:             target,
		Module:             module,
		SourceMap:          c.SourceMap,
		BaseURL:            c.BaseURL,
		Paths:              c.Paths,
		JSX:                jsx,
		JSXFactory:         c.JSXFactory,
		JSXFragmentFactory: c.JSXFragmentFactory,
	}, nil
}

// ParseLogLevel maps a configured level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrLogLevel, s)
	}
	return level, nil
}
