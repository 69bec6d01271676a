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
package program_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tsgraft/diagnostics"
	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/host"
	"bennypowers.dev/tsgraft/internal/enginetest"
	"bennypowers.dev/tsgraft/internal/mapfs"
	"bennypowers.dev/tsgraft/program"
	"bennypowers.dev/tsgraft/registry"
	"bennypowers.dev/tsgraft/resolve"
)

type fixture struct {
	reg      *registry.Registry
	eng      *enginetest.Engine
	builder  *program.Builder
	reported []engine.Diagnostic
	statuses []string
}

func (f *fixture) ObserveEmit(status string, _ time.Duration) {
	f.statuses = append(f.statuses, status)
}

func newFixture(t *testing.T, files map[string]string, roots ...string) *fixture {
	t.Helper()

	mfs := mapfs.FromMap(files)
	f := &fixture{reg: registry.New(), eng: enginetest.New()}
	resolver := resolve.NewChain(resolve.NewConfigStrategy(mfs, resolve.ConfigOptions{}))
	pre := registry.NewPreloader(mfs, f.reg, f.eng, resolver, registry.PreloadOptions{})
	for _, root := range roots {
		require.NoError(t, pre.Preload(root))
	}

	h := host.New(f.reg, mfs, host.Options{DefaultLibFileName: enginetest.LibFileName})
	reporter := diagnostics.NewReporter(diagnostics.SinkFunc(func(d engine.Diagnostic) {
		f.reported = append(f.reported, d)
	}))
	f.builder = program.NewBuilder(f.reg, f.eng, h, program.Options{
		Compiler: engine.Options{Target: engine.ES2015, Module: engine.ES2015Module, SourceMap: true},
		Reporter: reporter,
		Recorder: f,
	})
	return f
}

var mainAndUtil = map[string]string{
	"/src/main.ts": "import { x } from './util';\nconsole.log(x);\n",
	"/src/util.ts": "export const x = 1;\n",
}

func TestEmitOneRoutesOutputs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mainAndUtil, "/src/main.ts")

	result, unit, err := f.builder.EmitOne("/src/main.ts", nil)
	require.NoError(t, err)

	assert.Contains(t, result.OutputText, "// emitted /src/main.ts")
	assert.Contains(t, result.SourceMapText, `"sources":["/src/main.ts"]`)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, []string{"/src/main.ts"}, f.eng.Emitted, "only the requested file is emitted")
	assert.Equal(t, []string{program.StatusOK}, f.statuses)

	require.NotNil(t, unit)
	assert.Equal(t, []string{"/src/main.ts", "/src/util.ts"}, unit.Keys)
	assert.Nil(t, f.eng.LastCall().Old)
}

func TestEmitOneUsesTheWholeRegistry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"/src/main.ts":  "import './util';\n",
		"/src/util.ts":  "export {};\n",
		"/src/other.ts": "export const unrelated = true;\n",
	}, "/src/main.ts", "/src/other.ts")

	_, unit, err := f.builder.EmitOne("/src/util.ts", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"/src/main.ts", "/src/util.ts", "/src/other.ts"}, f.eng.LastCall().RootNames)
	assert.Equal(t, f.eng.LastCall().RootNames, unit.Keys)
}

func TestEmitOneThreadsThePriorUnit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mainAndUtil, "/src/main.ts")

	_, first, err := f.builder.EmitOne("/src/main.ts", nil)
	require.NoError(t, err)
	_, second, err := f.builder.EmitOne("/src/util.ts", first)
	require.NoError(t, err)

	assert.Same(t, first.Program, f.eng.LastCall().Old)
	assert.NotSame(t, first, second, "each emit builds a new unit")
	assert.NotSame(t, first.Program, second.Program)
	assert.Len(t, f.eng.Calls, 2)
}

func TestEmitOneReportsEveryErrorBeforeFailing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mainAndUtil, "/src/main.ts")
	f.eng.Diagnostics["/src/main.ts"] = []engine.Diagnostic{
		{Start: 9, Code: 2305, Category: engine.CategoryError, Message: "first"},
		{Start: 28, Code: 2304, Category: engine.CategoryError, Message: "second"},
	}

	result, unit, err := f.builder.EmitOne("/src/main.ts", nil)

	var compileErr *program.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "/src/main.ts", compileErr.Path)
	assert.Len(t, compileErr.Diagnostics, 2)
	assert.Contains(t, err.Error(), "2 errors")

	require.Len(t, f.reported, 2, "both errors are reported before the call fails")
	assert.Equal(t, "first", f.reported[0].Message)
	assert.Equal(t, "second", f.reported[1].Message)

	assert.NotNil(t, result)
	assert.NotNil(t, unit, "the new unit is returned alongside the error")
	assert.Equal(t, []string{program.StatusError}, f.statuses)
}

func TestEmitOneSuppressesModuleTargetMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mainAndUtil, "/src/main.ts")
	f.eng.Global = []engine.Diagnostic{{
		Code:      1204,
		Category:  engine.CategoryError,
		Condition: engine.ConditionModuleTargetMismatch,
		Message:   "Cannot compile modules into 'es2015' when targeting 'ES5' or lower.",
	}}
	f.eng.Diagnostics["/src/main.ts"] = []engine.Diagnostic{
		{Code: 6133, Category: engine.CategoryWarning, Message: "'y' is declared but never used."},
	}

	result, _, err := f.builder.EmitOne("/src/main.ts", nil)
	require.NoError(t, err)

	require.Len(t, f.reported, 1)
	assert.Equal(t, 6133, f.reported[0].Code)
	assert.Equal(t, f.reported, result.Diagnostics)
}

func TestEmitOneUnregisteredPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mainAndUtil, "/src/main.ts")

	_, unit, err := f.builder.EmitOne("/src/nowhere.ts", nil)
	require.ErrorIs(t, err, host.ErrNotPreloaded)
	assert.Contains(t, err.Error(), "/src/nowhere.ts")
	assert.NotNil(t, unit)
	assert.Empty(t, f.eng.Emitted)
}

func TestEmitOneWithoutSourceMap(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mainAndUtil, "/src/main.ts")
	f.eng.SkipSourceMap = true

	result, _, err := f.builder.EmitOne("/src/util.ts", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.OutputText)
	assert.Empty(t, result.SourceMapText)
}
