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
package native_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/engine/native"
)

var errMissing = errors.New("missing")

// testHost serves parsed files and recorded resolutions from memory.
type testHost struct {
	files       map[string]engine.SourceFile
	resolutions map[string]map[string]string
}

func newTestHost(t *testing.T, e *native.Engine, sources map[string]string, resolutions map[string]map[string]string) (*testHost, []string) {
	t.Helper()
	h := &testHost{files: make(map[string]engine.SourceFile), resolutions: resolutions}
	var names []string
	for name, text := range sources {
		sf, err := e.CreateSourceFile(name, text, engine.ES2015)
		require.NoError(t, err)
		h.files[name] = sf
		names = append(names, name)
	}
	return h, names
}

func (h *testHost) GetSourceFile(fileName string) (engine.SourceFile, error) {
	if sf, ok := h.files[fileName]; ok {
		return sf, nil
	}
	return nil, errMissing
}

func (h *testHost) FileExists(fileName string) bool          { _, ok := h.files[fileName]; return ok }
func (h *testHost) WriteFile(string, []byte) error            { return nil }
func (h *testHost) DefaultLibFileName() string                { return native.LibFileName }
func (h *testHost) UseCaseSensitiveFileNames() bool           { return true }
func (h *testHost) GetCanonicalFileName(fileName string) string { return fileName }
func (h *testHost) GetCurrentDirectory() string               { return "/" }
func (h *testHost) GetNewLine() string                        { return "\n" }

func (h *testHost) ResolveModuleName(specifier, containingFile string) (string, bool) {
	p, ok := h.resolutions[containingFile][specifier]
	return p, ok
}

func emit(t *testing.T, p engine.Program, name string) (engine.EmitResult, map[string]string) {
	t.Helper()
	outputs := make(map[string]string)
	result := p.Emit(p.SourceFile(name), func(fileName, data string) {
		outputs[fileName] = data
	})
	return result, outputs
}

func defaultOptions() engine.Options {
	return engine.Options{Target: engine.ES2015, Module: engine.ES2015Module, SourceMap: true}
}

func TestLineAndCharacterOfPosition(t *testing.T) {
	t.Parallel()

	sf, err := native.New().CreateSourceFile("/a.ts", "const a = 1;\r\nconst b = 'é';\nb;", engine.ES2015)
	require.NoError(t, err)

	tests := []struct {
		pos, line, char int
	}{
		{0, 0, 0},
		{6, 0, 6},
		{14, 1, 0},
		{27, 1, 12},
		{30, 2, 0},
		{1000, 2, 2},
	}
	for _, tt := range tests {
		line, char := sf.LineAndCharacterOfPosition(tt.pos)
		assert.Equal(t, tt.line, line, "line at %d", tt.pos)
		assert.Equal(t, tt.char, char, "character at %d", tt.pos)
	}
}

func TestPreProcessFile(t *testing.T) {
	t.Parallel()

	files, err := native.New().PreProcessFile("/main.ts", "import { a } from './a';\nexport * from './b';\nawait import('./c');\n")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "./a", files[0].Specifier)
	assert.Equal(t, "./b", files[1].Specifier)
	assert.Equal(t, "./c", files[2].Specifier)
	assert.True(t, files[2].Dynamic)
}

func TestEmitWritesJavaScriptAndSourceMap(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{
		"/src/util.ts": "export const answer: number = 42;\nexport interface Shape { size: number }\n",
	}, nil)
	p, err := e.CreateProgram(names, defaultOptions(), host, nil)
	require.NoError(t, err)

	result, outputs := emit(t, p, "/src/util.ts")
	assert.Empty(t, result.Diagnostics)
	assert.False(t, result.EmitSkipped)
	require.Contains(t, outputs, "/src/util.js")
	require.Contains(t, outputs, "/src/util.js.map")
	assert.Contains(t, outputs["/src/util.js"], "export const answer = 42")
	assert.NotContains(t, outputs["/src/util.js"], "interface")
	assert.Contains(t, outputs["/src/util.js.map"], `"mappings"`)
}

func TestEmitWithoutSourceMap(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{"/a.ts": "export const a = 1;\n"}, nil)
	opts := defaultOptions()
	opts.SourceMap = false
	p, err := e.CreateProgram(names, opts, host, nil)
	require.NoError(t, err)

	_, outputs := emit(t, p, "/a.ts")
	assert.Len(t, outputs, 1)
}

func TestEmitBindingDiagnostics(t *testing.T) {
	t.Parallel()

	e := native.New()
	main := "import def, { present, absent } from './lib';\nimport * as g from './globals';\nimport { fromStar } from './barrel';\nexport { gone } from './lib';\n"
	host, names := newTestHost(t, e, map[string]string{
		"/main.ts":    main,
		"/lib.ts":     "export const present = 1;\n",
		"/globals.ts": "declare const g: number;\n",
		"/barrel.ts":  "export * from './inner';\n",
		"/inner.ts":   "export const fromStar = 1;\n",
	}, map[string]map[string]string{
		"/main.ts": {
			"./lib":     "/lib.ts",
			"./globals": "/globals.ts",
			"./barrel":  "/barrel.ts",
		},
		"/barrel.ts": {"./inner": "/inner.ts"},
	})
	p, err := e.CreateProgram(names, defaultOptions(), host, nil)
	require.NoError(t, err)

	result, _ := emit(t, p, "/main.ts")

	var codes []int
	for _, d := range result.Diagnostics {
		codes = append(codes, d.Code)
		assert.Equal(t, engine.CategoryError, d.Category)
		require.NotNil(t, d.File)
	}
	assert.Equal(t, []int{native.CodeNoDefaultExport, native.CodeNoExportedMember, native.CodeNotAModule, native.CodeNoExportedMember}, codes)

	absent := result.Diagnostics[1]
	assert.Equal(t, `Module '"./lib"' has no exported member 'absent'.`, absent.Message)
	assert.Equal(t, "absent", main[absent.Start:absent.Start+absent.Length])
	assert.Equal(t, engine.ConditionMissingExport, absent.Condition)
	assert.Equal(t, engine.ConditionNotAModule, result.Diagnostics[2].Condition)
}

func TestEmitStarExportCycle(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{
		"/main.ts": "import { a, b } from './a';\nconsole.log(a, b);\n",
		"/a.ts":    "export * from './b';\nexport const a = 1;\n",
		"/b.ts":    "export * from './a';\nexport const b = 2;\n",
	}, map[string]map[string]string{
		"/main.ts": {"./a": "/a.ts"},
		"/a.ts":    {"./b": "/b.ts"},
		"/b.ts":    {"./a": "/a.ts"},
	})
	p, err := e.CreateProgram(names, defaultOptions(), host, nil)
	require.NoError(t, err)

	result, outputs := emit(t, p, "/main.ts")
	assert.Empty(t, result.Diagnostics)
	assert.Contains(t, outputs, "/main.js")
}

func TestEmitModuleTargetMismatch(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{"/a.ts": "export var a = 1;\n"}, nil)
	opts := defaultOptions()
	opts.Target = engine.ES5
	p, err := e.CreateProgram(names, opts, host, nil)
	require.NoError(t, err)

	result, _ := emit(t, p, "/a.ts")
	require.NotEmpty(t, result.Diagnostics)
	d := result.Diagnostics[0]
	assert.Equal(t, native.CodeModuleTargetMismatch, d.Code)
	assert.Equal(t, engine.ConditionModuleTargetMismatch, d.Condition)
	assert.Nil(t, d.File)
	assert.Equal(t, "Cannot compile modules into 'es2015' when targeting 'ES5' or lower.", d.Message)
}

func TestEmitES5EmitsES2015(t *testing.T) {
	t.Parallel()

	for _, target := range []engine.ScriptTarget{engine.ES3, engine.ES5} {
		t.Run(target.String(), func(t *testing.T) {
			t.Parallel()

			e := native.New()
			host, names := newTestHost(t, e, map[string]string{
				"/a.ts": "export const f = (x: number) => x + 1;\nexport class A { n = 1; }\n",
			}, nil)
			opts := defaultOptions()
			opts.Target = target
			p, err := e.CreateProgram(names, opts, host, nil)
			require.NoError(t, err)

			result, outputs := emit(t, p, "/a.ts")
			assert.False(t, result.EmitSkipped)
			require.Contains(t, outputs, "/a.js")
			assert.Contains(t, outputs["/a.js"], "const f")
			assert.Contains(t, outputs["/a.js"], "class A")

			var fatal, downlevel int
			for _, d := range result.Diagnostics {
				if d.Category == engine.CategoryError && d.Condition != engine.ConditionModuleTargetMismatch {
					fatal++
				}
				if d.ID == native.DowngradedTargetID {
					downlevel++
					assert.Equal(t, engine.CategoryWarning, d.Category)
				}
			}
			assert.Zero(t, fatal)
			assert.Equal(t, 1, downlevel)
		})
	}
}

func TestEmitSyntaxError(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{"/bad.ts": "export const = ;\n"}, nil)
	p, err := e.CreateProgram(names, defaultOptions(), host, nil)
	require.NoError(t, err)

	result, outputs := emit(t, p, "/bad.ts")
	assert.True(t, result.EmitSkipped)
	assert.Empty(t, outputs)
	require.NotEmpty(t, result.Diagnostics)
	d := result.Diagnostics[0]
	assert.Equal(t, engine.CategoryError, d.Category)
	assert.Equal(t, engine.ConditionSyntax, d.Condition)
	assert.True(t, strings.HasPrefix(d.ID, "esbuild"), "esbuild messages carry an esbuild id, got %q", d.ID)
	require.NotNil(t, d.File)
	line, _ := d.File.LineAndCharacterOfPosition(d.Start)
	assert.Equal(t, 0, line)
}

func TestEmitTSX(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{
		"/view.tsx": "export const View = (p: { name: string }) => <b>{p.name}</b>;\n",
	}, nil)
	opts := defaultOptions()
	opts.JSXFactory = "h"
	p, err := e.CreateProgram(names, opts, host, nil)
	require.NoError(t, err)

	result, outputs := emit(t, p, "/view.tsx")
	assert.Empty(t, result.Diagnostics)
	assert.True(t, strings.Contains(outputs["/view.js"], "h(\"b\""), outputs["/view.js"])
}

func TestEmitDeclarationFileIsSkipped(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{"/types.d.ts": "export type T = string;\n"}, nil)
	p, err := e.CreateProgram(names, defaultOptions(), host, nil)
	require.NoError(t, err)

	result, outputs := emit(t, p, "/types.d.ts")
	assert.True(t, result.EmitSkipped)
	assert.Empty(t, outputs)
}

func TestCreateProgramRequiresRegisteredRoots(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, _ := newTestHost(t, e, map[string]string{"/a.ts": "export {};\n"}, nil)
	_, err := e.CreateProgram([]string{"/a.ts", "/missing.ts"}, defaultOptions(), host, nil)
	require.ErrorIs(t, err, errMissing)
}

func TestCreateProgramReusesExportAnalysis(t *testing.T) {
	t.Parallel()

	e := native.New()
	host, names := newTestHost(t, e, map[string]string{
		"/main.ts": "import { a } from './a';\nconsole.log(a);\n",
		"/a.ts":    "export const a = 1;\n",
	}, map[string]map[string]string{"/main.ts": {"./a": "/a.ts"}})

	first, err := e.CreateProgram(names, defaultOptions(), host, nil)
	require.NoError(t, err)
	emit(t, first, "/main.ts")

	second, err := e.CreateProgram(names, defaultOptions(), host, first)
	require.NoError(t, err)
	assert.Equal(t, 1, second.(*native.Program).Reused())

	result, _ := emit(t, second, "/main.ts")
	assert.Empty(t, result.Diagnostics)
}

func TestDefaultLibParses(t *testing.T) {
	t.Parallel()

	e := native.New()
	name, text := e.DefaultLib()
	assert.Equal(t, native.LibFileName, name)
	sf, err := e.CreateSourceFile(name, text, engine.ES2015)
	require.NoError(t, err)
	assert.False(t, sf.(*native.SourceFile).Summary().IsModule)
}
