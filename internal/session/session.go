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

// Package session opens a build session for the CLI commands from the
// process configuration.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/viper"

	"bennypowers.dev/tsgraft/config"
	"bennypowers.dev/tsgraft/diagnostics"
	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/entries"
	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/internal/logging"
	"bennypowers.dev/tsgraft/internal/metrics"
	"bennypowers.dev/tsgraft/plugin"
	"bennypowers.dev/tsgraft/program"
)

// Options configures Open.
type Options struct {
	// FS defaults to the OS filesystem.
	FS fs.FileSystem
	// Stderr receives logs and diagnostics.
	Stderr io.Writer
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Engine defaults to the native engine.
	Engine engine.Engine
}

// Session is an opened build session.
type Session struct {
	*plugin.Plugin
	FS     fs.FileSystem
	Config *config.Config
	Logger *slog.Logger
}

// Open loads the configuration from v and starts a session. Diagnostics are
// printed as colored tsc-style lines, or logged when the log format is json.
func Open(v *viper.Viper, opts Options) (*Session, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fs.NewOSFileSystem()
	}
	cfg, err := config.Load(v, fsys)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, opts.Stderr)

	pluginOpts := []plugin.Option{plugin.WithFileSystem(fsys), plugin.WithLogger(logger)}
	if cfg.Log.Format != "json" {
		pluginOpts = append(pluginOpts, plugin.WithSink(diagnostics.ColorSink{W: opts.Stderr}))
	}
	if opts.Metrics != nil {
		pluginOpts = append(pluginOpts, plugin.WithMetrics(opts.Metrics))
	}
	if opts.Engine != nil {
		pluginOpts = append(pluginOpts, plugin.WithEngine(opts.Engine))
	}
	p, err := plugin.New(cfg, pluginOpts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "root", cfg.Root, "tsconfig", cfg.TSConfig)
	return &Session{Plugin: p, FS: fsys, Config: cfg, Logger: logger}, nil
}

// Entries collects the entry points named by args and glob.
func (s *Session) Entries(args []string, glob string) ([]string, error) {
	return entries.Collect(s.FS, args, entries.Options{Root: s.Config.Root, Glob: glob})
}

// Preload loads every TypeScript entry and the files it imports.
func (s *Session) Preload(paths []string) error {
	for _, p := range paths {
		if !plugin.IsTypeScript(p) {
			s.Logger.Debug("skipping non-TypeScript entry", "path", p)
			continue
		}
		if _, _, err := s.Load(filepath.ToSlash(p)); err != nil {
			return err
		}
	}
	return nil
}

// TransformAll transforms every source the session has registered. Files
// that fail to compile are returned after every file was attempted; any
// other failure stops the run.
func (s *Session) TransformAll() (failed []string, err error) {
	for _, path := range s.Sources() {
		_, err := s.Transform("", path)
		var compileErr *program.CompileError
		switch {
		case err == nil:
		case errors.As(err, &compileErr):
			failed = append(failed, path)
		default:
			return failed, fmt.Errorf("transforming %s: %w", path, err)
		}
	}
	return failed, nil
}
