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
package registry

import (
	"fmt"
	"log/slog"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/internal/logging"
	"bennypowers.dev/tsgraft/resolve"
)

// Observer is notified as the preloader discovers files.
type Observer interface {
	FileRegistered(path string)
	Resolved(specifier, importer string, r resolve.Resolution)
}

// PreloadOptions configures a Preloader.
type PreloadOptions struct {
	Target   engine.ScriptTarget
	Logger   *slog.Logger
	Observer Observer
}

// Preloader populates a Registry with a file and everything it transitively
// imports.
type Preloader struct {
	fs       fs.FileSystem
	registry *Registry
	engine   engine.Engine
	resolver resolve.Resolver
	target   engine.ScriptTarget
	logger   *slog.Logger
	observer Observer
}

// NewPreloader creates a preloader writing into reg.
func NewPreloader(fsys fs.FileSystem, reg *Registry, eng engine.Engine, resolver resolve.Resolver, opts PreloadOptions) *Preloader {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Preloader{
		fs:       fsys,
		registry: reg,
		engine:   eng,
		resolver: resolver,
		target:   opts.Target,
		logger:   logger,
		observer: opts.Observer,
	}
}

// frame is one file whose specifiers are being walked. pending holds a
// resolved import that is linked once its own preload has finished.
type frame struct {
	file    *File
	imports []engine.ImportedFile
	next    int
	pending string
}

// Preload registers path and, depth first, every file reachable from it.
// Already registered paths are a no-op, which also terminates cycles: a file
// is registered before its imports are walked. Import edges are recorded in
// the order their specifiers appear, each after the imported file's own
// preload completes.
//
// A read or parse failure aborts the walk. Files registered before the
// failure stay registered.
func (p *Preloader) Preload(path string) error {
	path = resolve.Normalize(path)
	if p.registry.Has(path) {
		return nil
	}

	root, err := p.enter(path)
	if err != nil {
		return err
	}

	stack := []*frame{root}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.pending != "" {
			if err := p.registry.Link(top.file.Path, top.pending); err != nil {
				return err
			}
			top.pending = ""
		}
		if top.next >= len(top.imports) {
			stack = stack[:len(stack)-1]
			continue
		}

		spec := top.imports[top.next].Specifier
		top.next++

		r := p.resolver.Resolve(spec, top.file.Path)
		if p.observer != nil {
			p.observer.Resolved(spec, top.file.Path, r)
		}
		if !r.OK() {
			p.logger.Debug("unresolved import", "specifier", spec, "importer", top.file.Path)
			continue
		}

		target := resolve.Normalize(r.Path)
		top.file.Resolutions[spec] = target
		top.pending = target
		if p.registry.Has(target) {
			continue
		}
		child, err := p.enter(target)
		if err != nil {
			return err
		}
		stack = append(stack, child)
	}
	return nil
}

// enter reads, parses and registers one file and pre-scans its specifiers.
func (p *Preloader) enter(path string) (*frame, error) {
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preloading %s: %w", path, err)
	}
	text := string(data)

	source, err := p.engine.CreateSourceFile(path, text, p.target)
	if err != nil {
		return nil, fmt.Errorf("preloading %s: %w", path, err)
	}
	file, err := p.registry.Register(path, source)
	if err != nil {
		return nil, fmt.Errorf("preloading %s: %w", path, err)
	}
	if p.observer != nil {
		p.observer.FileRegistered(path)
	}

	imports, err := p.engine.PreProcessFile(path, text)
	if err != nil {
		return nil, fmt.Errorf("preloading %s: %w", path, err)
	}
	p.logger.Debug("preloaded", "path", path, "specifiers", len(imports))

	return &frame{file: file, imports: imports}, nil
}
