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

// Package enginetest provides a scriptable engine.Engine for tests of the
// core packages. It understands just enough import syntax to drive the
// preloader and records every program it builds.
package enginetest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bennypowers.dev/tsgraft/engine"
)

// LibFileName is the fake engine's built-in declarations path.
const LibFileName = "/__fake__/lib.d.ts"

// ErrParse is returned by CreateSourceFile for paths listed in FailParse.
var ErrParse = errors.New("fake parse failure")

var specifierPattern = regexp.MustCompile(`(?m)(?:^\s*import\s+(?:[^'"]*?\s+from\s+)?|^\s*export\s+[^'"]*?\s+from\s+)['"]([^'"]+)['"]`)

// SourceFile is the fake parsed form.
type SourceFile struct {
	Name   string
	Source string
	Target engine.ScriptTarget
}

// FileName implements engine.SourceFile.
func (f *SourceFile) FileName() string { return f.Name }

// Text implements engine.SourceFile.
func (f *SourceFile) Text() string { return f.Source }

// LineAndCharacterOfPosition implements engine.SourceFile.
func (f *SourceFile) LineAndCharacterOfPosition(pos int) (int, int) {
	pos = max(0, min(pos, len(f.Source)))
	before := f.Source[:pos]
	line := strings.Count(before, "\n")
	return line, pos - (strings.LastIndex(before, "\n") + 1)
}

// ProgramCall records one CreateProgram invocation.
type ProgramCall struct {
	RootNames []string
	Options   engine.Options
	Old       engine.Program
}

// Engine is a fake engine.Engine.
type Engine struct {
	// Diagnostics are returned, attached to the file, when emitting the
	// keyed file.
	Diagnostics map[string][]engine.Diagnostic
	// Global diagnostics are returned by every emit.
	Global []engine.Diagnostic
	// FailParse lists paths CreateSourceFile rejects.
	FailParse map[string]bool
	// SkipSourceMap suppresses the .map output.
	SkipSourceMap bool

	Calls   []ProgramCall
	Parsed  []string
	Emitted []string
}

var _ engine.Engine = (*Engine)(nil)

// New creates a fake engine.
func New() *Engine {
	return &Engine{
		Diagnostics: make(map[string][]engine.Diagnostic),
		FailParse:   make(map[string]bool),
	}
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return "fake" }

// Version implements engine.Engine.
func (e *Engine) Version() string { return "0.0.0" }

// CreateSourceFile implements engine.Engine.
func (e *Engine) CreateSourceFile(fileName, text string, target engine.ScriptTarget) (engine.SourceFile, error) {
	if e.FailParse[fileName] {
		return nil, fmt.Errorf("%s: %w", fileName, ErrParse)
	}
	e.Parsed = append(e.Parsed, fileName)
	return &SourceFile{Name: fileName, Source: text, Target: target}, nil
}

// PreProcessFile implements engine.Engine.
func (e *Engine) PreProcessFile(fileName, text string) ([]engine.ImportedFile, error) {
	var files []engine.ImportedFile
	for _, m := range specifierPattern.FindAllStringSubmatchIndex(text, -1) {
		files = append(files, engine.ImportedFile{
			Specifier: text[m[2]:m[3]],
			Line:      strings.Count(text[:m[2]], "\n") + 1,
		})
	}
	return files, nil
}

// DefaultLib implements engine.Engine.
func (e *Engine) DefaultLib() (string, string) {
	return LibFileName, "interface Array<T> {}\n"
}

// CreateProgram implements engine.Engine. Every root must be served by host.
func (e *Engine) CreateProgram(rootNames []string, opts engine.Options, host engine.Host, old engine.Program) (engine.Program, error) {
	e.Calls = append(e.Calls, ProgramCall{RootNames: append([]string(nil), rootNames...), Options: opts, Old: old})

	files := make(map[string]engine.SourceFile, len(rootNames))
	for _, name := range rootNames {
		sf, err := host.GetSourceFile(name)
		if err != nil {
			return nil, err
		}
		files[name] = sf
	}
	return &Program{engine: e, roots: rootNames, files: files, opts: opts}, nil
}

// LastCall returns the most recent CreateProgram call.
func (e *Engine) LastCall() ProgramCall {
	if len(e.Calls) == 0 {
		return ProgramCall{}
	}
	return e.Calls[len(e.Calls)-1]
}

// Program is the fake engine.Program.
type Program struct {
	engine *Engine
	roots  []string
	files  map[string]engine.SourceFile
	opts   engine.Options
}

// RootNames implements engine.Program.
func (p *Program) RootNames() []string { return p.roots }

// SourceFile implements engine.Program.
func (p *Program) SourceFile(fileName string) engine.SourceFile { return p.files[fileName] }

// Emit implements engine.Program. The output is the source text prefixed with
// a marker comment, and the map lists the root count in "x_roots".
func (p *Program) Emit(target engine.SourceFile, write engine.WriteFileFunc) engine.EmitResult {
	name := target.FileName()
	p.engine.Emitted = append(p.engine.Emitted, name)

	diags := append([]engine.Diagnostic(nil), p.engine.Global...)
	for _, d := range p.engine.Diagnostics[name] {
		d.File = target
		diags = append(diags, d)
	}

	js := strings.TrimSuffix(strings.TrimSuffix(name, ".tsx"), ".ts") + ".js"
	write(js, "// emitted "+name+"\n"+target.Text())
	if !p.engine.SkipSourceMap {
		write(js+".map", fmt.Sprintf(`{"version":3,"sources":[%q],"names":[],"mappings":"","x_roots":%d}`, name, len(p.roots)))
	}
	return engine.EmitResult{Diagnostics: diags}
}
