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

// Package plugin exposes a build session as the three pipeline hooks a
// bundler drives: ResolveID, Load and Transform.
//
// A session owns one file registry. Load preloads a file and everything it
// imports; Transform rebuilds the whole-program unit over every registered
// file and emits just the requested one. Callers must Load a file before
// they Transform it. A Plugin is not safe for concurrent use.
package plugin

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"bennypowers.dev/tsgraft/augment"
	"bennypowers.dev/tsgraft/config"
	"bennypowers.dev/tsgraft/diagnostics"
	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/engine/native"
	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/helpers"
	"bennypowers.dev/tsgraft/host"
	"bennypowers.dev/tsgraft/internal/logging"
	"bennypowers.dev/tsgraft/internal/metrics"
	"bennypowers.dev/tsgraft/packagejson"
	"bennypowers.dev/tsgraft/program"
	"bennypowers.dev/tsgraft/registry"
	"bennypowers.dev/tsgraft/resolve"
)

// SourceMap is a parsed version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// TransformResult is the code and source map Transform hands back to the
// bundler.
type TransformResult struct {
	Code string
	// Map is nil when source maps are disabled.
	Map *SourceMap
}

// Option customizes a Plugin.
type Option func(*Plugin)

// WithFileSystem sets the filesystem files are read from. Defaults to the
// OS filesystem.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(p *Plugin) { p.fs = fsys }
}

// WithEngine substitutes the language-processing engine. Defaults to the
// native engine.
func WithEngine(eng engine.Engine) Option {
	return func(p *Plugin) { p.engine = eng }
}

// WithLogger sets the session logger. Defaults to a logger writing to
// standard error at the configured level and format.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) { p.logger = logger }
}

// WithSink adds a destination for diagnostics. Without any, diagnostics are
// logged.
func WithSink(s diagnostics.Sink) Option {
	return func(p *Plugin) { p.sinks = append(p.sinks, s) }
}

// WithMetrics records session metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Plugin) { p.metrics = m }
}

// Plugin is one build session.
type Plugin struct {
	cfg      *config.Config
	compiler engine.Options
	fs       fs.FileSystem
	engine   engine.Engine
	logger   *slog.Logger
	sinks    []diagnostics.Sink
	metrics  *metrics.Metrics

	registry  *registry.Registry
	resolver  resolve.Resolver
	preloader *registry.Preloader
	builder   *program.Builder
	filter    *Filter
	libFile   string
	unit      *program.Unit
}

// New validates cfg and starts a session. An invalid configuration, such as
// a module kind that does not emit ES modules, fails here before any hook
// can run. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Plugin, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tsgraft: %w", err)
	}
	compiler, err := cfg.Compiler()
	if err != nil {
		return nil, fmt.Errorf("tsgraft: %w", err)
	}

	p := &Plugin{cfg: cfg, compiler: compiler}
	for _, opt := range opts {
		opt(p)
	}
	if p.fs == nil {
		p.fs = fs.NewOSFileSystem()
	}
	if p.engine == nil {
		p.engine = native.New()
	}
	if p.logger == nil {
		p.logger = logging.New(cfg.Log, os.Stderr)
	}

	root := cfg.Root
	if !filepath.IsAbs(root) {
		if root, err = filepath.Abs(root); err != nil {
			return nil, fmt.Errorf("tsgraft: resolving root: %w", err)
		}
	}
	pathsBase := cfg.PathsBase
	if pathsBase == "" {
		pathsBase = root
	}

	p.registry = registry.New()
	if err := p.registerLib(); err != nil {
		return nil, err
	}

	p.resolver = resolve.Cached(resolve.NewChain(
		resolve.NewConfigStrategy(p.fs, resolve.ConfigOptions{
			BaseURL:   compiler.BaseURL,
			PathsBase: pathsBase,
			Paths:     compiler.Paths,
		}),
		resolve.NewNodeModulesStrategy(p.fs, resolve.NodeOptions{
			RootDir:    root,
			Conditions: cfg.Conditions,
			Cache:      packagejson.NewMemoryCache(),
		}),
	), resolve.DefaultCacheSize)

	preloadOpts := registry.PreloadOptions{Target: compiler.Target, Logger: p.logger}
	builderOpts := program.Options{Compiler: compiler, Logger: p.logger}
	sinks := p.sinks
	if len(sinks) == 0 {
		sinks = []diagnostics.Sink{diagnostics.SlogSink{Logger: p.logger}}
	}
	if p.metrics != nil {
		preloadOpts.Observer = p.metrics
		builderOpts.Recorder = p.metrics
		sinks = append(sinks, p.metrics)
	}
	builderOpts.Reporter = diagnostics.NewReporter(sinks...)

	p.preloader = registry.NewPreloader(p.fs, p.registry, p.engine, p.resolver, preloadOpts)
	h := host.New(p.registry, p.fs, host.Options{
		DefaultLibFileName: p.libFile,
		CurrentDirectory:   root,
		CaseSensitive:      runtime.GOOS != "windows" && runtime.GOOS != "darwin",
	})
	p.builder = program.NewBuilder(p.registry, p.engine, h, builderOpts)
	p.filter = NewFilter(root, cfg.Include, cfg.Exclude)

	p.logger.Debug("session started",
		"engine", p.engine.Name(),
		"version", p.engine.Version(),
		"target", compiler.Target,
		"module", compiler.Module,
	)
	return p, nil
}

// registerLib creates the single synthetic record for the engine's built-in
// declarations.
func (p *Plugin) registerLib() error {
	name, text := p.engine.DefaultLib()
	source, err := p.engine.CreateSourceFile(name, text, p.compiler.Target)
	if err != nil {
		return fmt.Errorf("tsgraft: parsing built-in declarations: %w", err)
	}
	if _, err := p.registry.Register(name, source); err != nil {
		return fmt.Errorf("tsgraft: %w", err)
	}
	p.libFile = name
	return nil
}

// ResolveID resolves importee as imported by importer. It reports false when
// the bundler's own resolution should apply: for entry points, which have no
// importer, and for specifiers no strategy resolves.
func (p *Plugin) ResolveID(importee, importer string) (string, bool) {
	if helpers.IsID(importee) {
		return helpers.ID, true
	}
	if importer == "" {
		return "", false
	}
	importer = resolve.Normalize(strings.ReplaceAll(importer, `\`, "/"))

	r := p.resolver.Resolve(importee, importer)
	if !r.OK() {
		return "", false
	}
	return resolve.Normalize(r.Path), true
}

// Load returns the helpers source for the helpers id. For TypeScript files
// it preloads id and its imports and reports false, leaving the bundler to
// read the file itself. A read failure is returned.
func (p *Plugin) Load(id string) (string, bool, error) {
	if helpers.IsID(id) {
		return helpers.Source(), true, nil
	}
	if !IsTypeScript(id) {
		return "", false, nil
	}
	if err := p.preloader.Preload(id); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// Transform compiles the registered file id. It returns nil for ids the
// include/exclude filter rejects and empty code for declaration files. The
// registered parsed form is compiled; code is not re-read.
func (p *Plugin) Transform(code, id string) (*TransformResult, error) {
	if !p.filter.Match(id) {
		return nil, nil
	}
	if resolve.IsDeclarationFile(id) {
		return &TransformResult{Code: ""}, nil
	}

	path := resolve.Normalize(strings.ReplaceAll(id, `\`, "/"))
	result, unit, err := p.builder.EmitOne(path, p.unit)
	if unit != nil {
		p.unit = unit
	}
	if err != nil {
		return nil, err
	}

	file, ok := p.registry.Get(path)
	if !ok {
		return nil, fmt.Errorf("transforming %s: %w", path, host.ErrNotPreloaded)
	}

	out := &TransformResult{Code: augment.Augment(result.OutputText, file.Imports, helpers.ID)}
	if result.SourceMapText != "" {
		out.Map = &SourceMap{}
		if err := json.Unmarshal([]byte(result.SourceMapText), out.Map); err != nil {
			return nil, fmt.Errorf("transforming %s: parsing source map: %w", path, err)
		}
	}
	file.Result = &registry.EmitResult{OutputText: out.Code, SourceMapText: result.SourceMapText}
	return out, nil
}

// Registry returns the session's file registry.
func (p *Plugin) Registry() *registry.Registry { return p.registry }

// Unit returns the most recent compilation unit, or nil before the first
// Transform.
func (p *Plugin) Unit() *program.Unit { return p.unit }

// Config returns the session configuration.
func (p *Plugin) Config() *config.Config { return p.cfg }

// LibFile returns the path of the built-in declarations record.
func (p *Plugin) LibFile() string { return p.libFile }

// Sources returns every registered file Transform would compile, in
// registration order: the built-in declarations, declaration files and
// filtered-out files are skipped.
func (p *Plugin) Sources() []string {
	var out []string
	for _, key := range p.registry.Keys() {
		if key == p.libFile || resolve.IsDeclarationFile(key) || !p.filter.Match(key) {
			continue
		}
		out = append(out, key)
	}
	return out
}

// IsTypeScript reports whether id names a TypeScript source or declaration.
func IsTypeScript(id string) bool {
	switch strings.ToLower(filepath.Ext(id)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	}
	return false
}
