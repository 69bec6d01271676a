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

// Package native is the default engine. It parses with tree-sitter, checks
// import bindings across the whole program and generates code with esbuild.
package native

import (
	_ "embed"
	"fmt"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/internal/version"
	"bennypowers.dev/tsgraft/syntax"
)

// LibFileName is the virtual path of the built-in declarations file.
const LibFileName = "/__tsgraft__/lib.d.ts"

//go:embed lib.d.ts
var libSource string

// Engine implements engine.Engine.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

// New creates the native engine.
func New() *Engine {
	return &Engine{}
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return "native" }

// Version implements engine.Engine.
func (e *Engine) Version() string {
	return "esbuild " + version.DependencyVersion("github.com/evanw/esbuild")
}

// CreateSourceFile implements engine.Engine.
func (e *Engine) CreateSourceFile(fileName, text string, target engine.ScriptTarget) (engine.SourceFile, error) {
	sf, err := newSourceFile(fileName, text, target)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}
	return sf, nil
}

// PreProcessFile implements engine.Engine.
func (e *Engine) PreProcessFile(fileName, text string) ([]engine.ImportedFile, error) {
	imports, err := syntax.ExtractImports([]byte(text), syntax.DialectFor(fileName))
	if err != nil {
		return nil, fmt.Errorf("scanning imports of %s: %w", fileName, err)
	}
	files := make([]engine.ImportedFile, len(imports))
	for i, imp := range imports {
		files[i] = engine.ImportedFile{
			Specifier: imp.Specifier,
			Line:      imp.Line,
			Dynamic:   imp.IsDynamic(),
		}
	}
	return files, nil
}

// DefaultLib implements engine.Engine.
func (e *Engine) DefaultLib() (string, string) {
	return LibFileName, libSource
}

// CreateProgram implements engine.Engine.
func (e *Engine) CreateProgram(rootNames []string, opts engine.Options, host engine.Host, old engine.Program) (engine.Program, error) {
	p := &Program{
		roots:   append([]string(nil), rootNames...),
		opts:    opts,
		host:    host,
		files:   make(map[string]*SourceFile, len(rootNames)),
		exports: make(map[string]*exportSet),
	}

	for _, name := range rootNames {
		sf, err := host.GetSourceFile(name)
		if err != nil {
			return nil, fmt.Errorf("creating program: %w", err)
		}
		native, ok := sf.(*SourceFile)
		if !ok {
			return nil, fmt.Errorf("creating program: %s was not parsed by the native engine", name)
		}
		p.files[name] = native
	}

	if prev, ok := old.(*Program); ok && prev != nil {
		p.reuse(prev)
	}
	return p, nil
}
