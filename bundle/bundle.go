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

// Package bundle drives a tsgraft session from the esbuild bundler.
package bundle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/tsgraft/helpers"
	"bennypowers.dev/tsgraft/plugin"
)

// ErrBuild reports a build that finished with errors.
var ErrBuild = errors.New("build failed")

const (
	pluginName       = "tsgraft"
	helpersNamespace = "tsgraft-helpers"
	helpersPath      = "typescript-helpers"
)

// Hooks are the pipeline hooks a session exposes. *plugin.Plugin implements
// them.
type Hooks interface {
	ResolveID(importee, importer string) (string, bool)
	Load(id string) (string, bool, error)
	Transform(code, id string) (*plugin.TransformResult, error)
}

var _ Hooks = (*plugin.Plugin)(nil)

var typeScriptFilter = `\.(ts|tsx|mts|cts)$`

// Plugin adapts hooks to an esbuild plugin. esbuild runs callbacks on many
// goroutines; every hook call is serialized so the session keeps a single
// writer.
func Plugin(h Hooks) api.Plugin {
	var mu sync.Mutex
	return api.Plugin{
		Name: pluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: regexp.QuoteMeta(helpersPath) + "$"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if !helpers.IsID(args.Path) {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: helpersPath, Namespace: helpersNamespace}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: helpersNamespace},
				func(api.OnLoadArgs) (api.OnLoadResult, error) {
					mu.Lock()
					defer mu.Unlock()
					code, _, err := h.Load(helpers.ID)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{Contents: &code, Loader: api.LoaderJS}, nil
				})

			build.OnResolve(api.OnResolveOptions{Filter: ".*", Namespace: "file"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Importer == "" {
						return api.OnResolveResult{}, nil
					}
					mu.Lock()
					defer mu.Unlock()
					id, ok := h.ResolveID(args.Path, args.Importer)
					if !ok {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: filepath.FromSlash(id)}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: typeScriptFilter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					mu.Lock()
					defer mu.Unlock()
					return load(h, args.Path)
				})
		},
	}
}

func load(h Hooks, path string) (api.OnLoadResult, error) {
	if _, _, err := h.Load(path); err != nil {
		return api.OnLoadResult{}, err
	}
	result, err := h.Transform("", path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	if result == nil {
		// Filtered out: esbuild loads the file itself.
		return api.OnLoadResult{}, nil
	}

	contents := result.Code
	if result.Map != nil {
		data, err := json.Marshal(result.Map)
		if err != nil {
			return api.OnLoadResult{}, fmt.Errorf("encoding source map for %s: %w", path, err)
		}
		contents += "//# sourceMappingURL=data:application/json;base64," + base64.StdEncoding.EncodeToString(data) + "\n"
	}
	return api.OnLoadResult{
		Contents:   &contents,
		Loader:     api.LoaderJS,
		ResolveDir: filepath.Dir(path),
	}, nil
}

// Options configures Build.
type Options struct {
	Entries []string
	// Outdir is used unless Outfile is set. Defaults to "dist".
	Outdir    string
	Outfile   string
	Sourcemap bool
	External  []string
	Minify    bool
	// Write writes outputs to disk. Otherwise they are only returned.
	Write bool
	// WorkingDir is the absolute directory relative paths resolve against.
	WorkingDir string
}

// OutputFile is one file the build produced.
type OutputFile struct {
	Path     string
	Contents []byte
}

// Result is a finished build.
type Result struct {
	Outputs  []OutputFile
	Metafile *Metafile
	Warnings []string
}

// Build bundles opts.Entries with h installed as a plugin. Cancelling ctx
// cancels the build.
func Build(ctx context.Context, h Hooks, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buildOpts := api.BuildOptions{
		EntryPoints:   opts.Entries,
		Bundle:        true,
		Format:        api.FormatESModule,
		Platform:      api.PlatformBrowser,
		Target:        api.ESNext,
		External:      opts.External,
		Write:         opts.Write,
		Metafile:      true,
		LogLevel:      api.LogLevelSilent,
		AbsWorkingDir: opts.WorkingDir,
		Plugins:       []api.Plugin{Plugin(h)},
	}
	if opts.Outfile != "" {
		buildOpts.Outfile = opts.Outfile
	} else {
		buildOpts.Outdir = opts.Outdir
		if buildOpts.Outdir == "" {
			buildOpts.Outdir = "dist"
		}
	}
	if opts.Sourcemap {
		buildOpts.Sourcemap = api.SourceMapLinked
	}
	if opts.Minify {
		buildOpts.MinifyWhitespace = true
		buildOpts.MinifyIdentifiers = true
		buildOpts.MinifySyntax = true
	}

	bctx, ctxErr := api.Context(buildOpts)
	if ctxErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrBuild, formatMessages(ctxErr.Errors, api.ErrorMessage))
	}
	defer bctx.Dispose()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			bctx.Cancel()
		case <-done:
		}
	}()

	built := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(built.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBuild, formatMessages(built.Errors, api.ErrorMessage))
	}

	result := &Result{}
	for _, f := range built.OutputFiles {
		result.Outputs = append(result.Outputs, OutputFile{Path: f.Path, Contents: f.Contents})
	}
	if len(built.Warnings) > 0 {
		result.Warnings = api.FormatMessages(built.Warnings, api.FormatMessagesOptions{Kind: api.WarningMessage})
	}
	if built.Metafile != "" {
		meta, err := ParseMetafile([]byte(built.Metafile))
		if err != nil {
			return nil, err
		}
		result.Metafile = meta
	}
	return result, nil
}

func formatMessages(msgs []api.Message, kind api.MessageKind) string {
	return strings.TrimSpace(strings.Join(api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: kind}), ""))
}
