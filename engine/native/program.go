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
package native

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/resolve"
)

// Diagnostic codes reported by the native engine, matching tsc.
const (
	CodeModuleTargetMismatch = 1204
	CodeNoDefaultExport      = 1192
	CodeNoExportedMember     = 2305
	CodeNotAModule           = 2306
)

// DowngradedTargetID marks the warning reported when an ES3 or ES5 target is
// emitted as ES2015.
const DowngradedTargetID = "tsgraft:downlevel"

// exportSet is the resolved export surface of one file, including names
// forwarded through `export *`.
type exportSet struct {
	names    map[string]bool
	isModule bool
	// opaque means the surface could not be enumerated, so no binding
	// against it is reported.
	opaque bool
	// deps are the files consulted, transitively, to build the set.
	deps []string
}

// Program implements engine.Program.
type Program struct {
	roots   []string
	opts    engine.Options
	host    engine.Host
	files   map[string]*SourceFile
	exports map[string]*exportSet
	reused  int
}

var _ engine.Program = (*Program)(nil)

// RootNames implements engine.Program.
func (p *Program) RootNames() []string { return p.roots }

// SourceFile implements engine.Program.
func (p *Program) SourceFile(fileName string) engine.SourceFile {
	if sf, ok := p.files[fileName]; ok {
		return sf
	}
	return nil
}

// Reused reports how many export analyses were carried over from the
// previous program.
func (p *Program) Reused() int { return p.reused }

// reuse copies export analyses whose every input file is unchanged.
func (p *Program) reuse(prev *Program) {
	for name, es := range prev.exports {
		if p.files[name] == nil || p.files[name] != prev.files[name] {
			continue
		}
		same := true
		for _, dep := range es.deps {
			if p.files[dep] == nil || p.files[dep] != prev.files[dep] {
				same = false
				break
			}
		}
		if same {
			p.exports[name] = es
			p.reused++
		}
	}
}

// Emit implements engine.Program.
func (p *Program) Emit(target engine.SourceFile, write engine.WriteFileFunc) engine.EmitResult {
	var result engine.EmitResult
	result.Diagnostics = append(result.Diagnostics, p.optionsDiagnostics()...)

	sf, ok := target.(*SourceFile)
	if !ok || p.files[target.FileName()] != sf {
		result.EmitSkipped = true
		result.Diagnostics = append(result.Diagnostics, engine.Diagnostic{
			Category: engine.CategoryError,
			Message:  fmt.Sprintf("File '%s' is not part of the program.", target.FileName()),
		})
		return result
	}
	if resolve.IsDeclarationFile(sf.fileName) {
		result.EmitSkipped = true
		return result
	}

	result.Diagnostics = append(result.Diagnostics, p.bindingDiagnostics(sf)...)

	out := api.Transform(sf.text, p.transformOptions(sf))
	for _, msg := range out.Errors {
		result.Diagnostics = append(result.Diagnostics, p.messageDiagnostic(sf, msg, engine.CategoryError))
	}
	for _, msg := range out.Warnings {
		result.Diagnostics = append(result.Diagnostics, p.messageDiagnostic(sf, msg, engine.CategoryWarning))
	}
	if len(out.Errors) > 0 {
		result.EmitSkipped = true
		return result
	}

	jsName := outputName(sf.fileName)
	write(jsName, string(out.Code))
	if p.opts.SourceMap && len(out.Map) > 0 {
		write(jsName+".map", string(out.Map))
	}
	return result
}

func (p *Program) optionsDiagnostics() []engine.Diagnostic {
	if p.opts.Target > engine.ES5 {
		return nil
	}
	var diags []engine.Diagnostic
	if p.opts.Module.IsESM() {
		diags = append(diags, engine.Diagnostic{
			Code:      CodeModuleTargetMismatch,
			Category:  engine.CategoryError,
			Condition: engine.ConditionModuleTargetMismatch,
			Message:   fmt.Sprintf("Cannot compile modules into '%s' when targeting '%s' or lower.", p.opts.Module, strings.ToUpper(engine.ES5.String())),
		})
	}
	return append(diags, engine.Diagnostic{
		ID:        DowngradedTargetID,
		Category:  engine.CategoryWarning,
		Condition: engine.ConditionUnsupported,
		Message:   fmt.Sprintf("Downleveling to '%s' is not supported; emitting '%s'.", strings.ToUpper(p.opts.Target.String()), strings.ToUpper(engine.ES2015.String())),
	})
}

// bindingDiagnostics checks each imported or re-exported name against the
// export surface of the file it resolved to.
func (p *Program) bindingDiagnostics(sf *SourceFile) []engine.Diagnostic {
	var diags []engine.Diagnostic
	reportedNotModule := make(map[string]bool)

	for _, b := range sf.summary.Bindings {
		resolved, ok := p.host.ResolveModuleName(b.Specifier, sf.fileName)
		if !ok {
			continue
		}
		es := p.exportsOf(resolved, make(map[string]bool))
		if es == nil {
			continue
		}

		diag := engine.Diagnostic{
			File:     sf,
			Start:    b.Start,
			Length:   b.Length,
			Category: engine.CategoryError,
		}
		switch {
		case !es.isModule:
			if reportedNotModule[b.Specifier] {
				continue
			}
			reportedNotModule[b.Specifier] = true
			diag.Code = CodeNotAModule
			diag.Condition = engine.ConditionNotAModule
			diag.Message = fmt.Sprintf("File '%s' is not a module.", resolved)
		case es.opaque, b.Imported == "*", es.names[b.Imported]:
			continue
		case b.Imported == "default":
			diag.Code = CodeNoDefaultExport
			diag.Condition = engine.ConditionMissingExport
			diag.Message = fmt.Sprintf("Module '\"%s\"' has no default export.", b.Specifier)
		default:
			diag.Code = CodeNoExportedMember
			diag.Condition = engine.ConditionMissingExport
			diag.Message = fmt.Sprintf("Module '\"%s\"' has no exported member '%s'.", b.Specifier, b.Imported)
		}
		diags = append(diags, diag)
	}
	return diags
}

// exportsOf computes the export surface of path. Results that depend on a
// file still being visited are incomplete and are not memoized.
func (p *Program) exportsOf(path string, visiting map[string]bool) *exportSet {
	es, _ := p.collectExports(path, visiting)
	return es
}

func (p *Program) collectExports(path string, visiting map[string]bool) (*exportSet, bool) {
	if es, ok := p.exports[path]; ok {
		return es, true
	}
	sf := p.files[path]
	if sf == nil {
		return nil, true
	}

	s := sf.summary
	es := &exportSet{
		names:    make(map[string]bool, len(s.Exports)),
		isModule: s.IsModule,
		opaque:   s.Opaque,
		deps:     []string{path},
	}
	for _, name := range s.Exports {
		es.names[name] = true
	}
	if visiting[path] {
		// Star exports around a cycle contribute nothing new.
		return es, false
	}
	visiting[path] = true
	defer delete(visiting, path)

	complete := true
	for _, spec := range s.StarExports {
		resolved, ok := p.host.ResolveModuleName(spec, path)
		if !ok {
			es.opaque = true
			continue
		}
		sub, subComplete := p.collectExports(resolved, visiting)
		complete = complete && subComplete
		if sub == nil {
			es.opaque = true
			continue
		}
		es.opaque = es.opaque || sub.opaque
		es.deps = append(es.deps, sub.deps...)
		for name := range sub.names {
			if name != "default" {
				es.names[name] = true
			}
		}
	}

	if complete {
		p.exports[path] = es
	}
	return es, complete
}

func (p *Program) transformOptions(sf *SourceFile) api.TransformOptions {
	opts := api.TransformOptions{
		Loader:     api.LoaderTS,
		Format:     api.FormatESModule,
		Target:     esbuildTarget(p.opts.Target),
		Sourcefile: sf.fileName,
		LogLevel:   api.LogLevelSilent,
	}
	if p.opts.SourceMap {
		opts.Sourcemap = api.SourceMapExternal
	}
	if strings.HasSuffix(sf.fileName, ".tsx") {
		opts.Loader = api.LoaderTSX
		switch p.opts.JSX {
		case engine.JSXPreserve:
			opts.JSX = api.JSXPreserve
		case engine.JSXReactJSX:
			opts.JSX = api.JSXAutomatic
		default:
			opts.JSX = api.JSXTransform
			opts.JSXFactory = p.opts.JSXFactory
			opts.JSXFragment = p.opts.JSXFragmentFactory
		}
	}
	return opts
}

func (p *Program) messageDiagnostic(sf *SourceFile, msg api.Message, category engine.Category) engine.Diagnostic {
	chain := []string{msg.Text}
	for _, note := range msg.Notes {
		chain = append(chain, note.Text)
	}
	id := "esbuild"
	if msg.ID != "" {
		id += ":" + msg.ID
	}
	d := engine.Diagnostic{
		ID:        id,
		Category:  category,
		Condition: engine.ConditionSyntax,
		Message:   engine.FlattenMessageText(chain, p.host.GetNewLine()),
	}
	if strings.Contains(msg.Text, "not supported") {
		d.Condition = engine.ConditionUnsupported
	}
	if msg.Location != nil {
		d.File = sf
		d.Start = sf.positionOf(msg.Location.Line, msg.Location.Column)
		d.Length = msg.Location.Length
	}
	return d
}

func esbuildTarget(t engine.ScriptTarget) api.Target {
	switch t {
	// esbuild cannot lower const, let or classes below ES2015.
	case engine.ES3, engine.ES5, engine.ES2015:
		return api.ES2015
	case engine.ES2016:
		return api.ES2016
	case engine.ES2017:
		return api.ES2017
	case engine.ES2018:
		return api.ES2018
	case engine.ES2019:
		return api.ES2019
	case engine.ES2020:
		return api.ES2020
	case engine.ES2021:
		return api.ES2021
	case engine.ES2022:
		return api.ES2022
	case engine.ES2023:
		return api.ES2023
	}
	return api.ESNext
}

// outputName maps a source path to its emitted JavaScript path.
func outputName(fileName string) string {
	for src, out := range map[string]string{".tsx": ".js", ".mts": ".mjs", ".cts": ".cjs", ".ts": ".js"} {
		if stem, ok := strings.CutSuffix(fileName, src); ok {
			return stem + out
		}
	}
	return fileName + ".js"
}
