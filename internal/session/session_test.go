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
package session_test

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tsgraft/config"
	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/internal/enginetest"
	"bennypowers.dev/tsgraft/internal/mapfs"
	"bennypowers.dev/tsgraft/internal/session"
)

func files() *mapfs.MapFileSystem {
	return mapfs.FromMap(map[string]string{
		"/project/index.html":  `<script type="module" src="/src/main.ts"></script>`,
		"/project/src/main.ts": "import { x } from './util';\nconsole.log(x);\n",
		"/project/src/util.ts": "export const x = 1;\n",
		"/project/src/bad.ts":  "export const y: string = 1;\n",
		"/project/src/app.css": "body {}\n",
	})
}

func open(t *testing.T, eng engine.Engine, set map[string]any) (*session.Session, *bytes.Buffer) {
	t.Helper()
	v := viper.New()
	v.Set("root", "/project")
	for k, val := range set {
		v.Set(k, val)
	}
	var stderr bytes.Buffer
	s, err := session.Open(v, session.Options{FS: files(), Stderr: &stderr, Engine: eng})
	require.NoError(t, err)
	return s, &stderr
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("root", "/project")
	v.Set("module", "commonjs")
	_, err := session.Open(v, session.Options{FS: files(), Stderr: &bytes.Buffer{}, Engine: enginetest.New()})
	require.ErrorIs(t, err, config.ErrModuleKind)
}

func TestEntriesAndPreload(t *testing.T) {
	t.Parallel()

	s, _ := open(t, enginetest.New(), nil)

	paths, err := s.Entries([]string{"index.html", "src/app.css"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/project/src/main.ts", "/project/src/app.css"}, paths)

	require.NoError(t, s.Preload(paths))
	assert.Equal(t, []string{"/project/src/main.ts", "/project/src/util.ts"}, s.Sources())
}

func TestTransformAllReportsEveryFailure(t *testing.T) {
	t.Parallel()

	eng := enginetest.New()
	eng.Diagnostics["/project/src/bad.ts"] = []engine.Diagnostic{
		{Code: 2322, Category: engine.CategoryError, Message: "Type 'number' is not assignable to type 'string'."},
	}
	s, stderr := open(t, eng, nil)

	require.NoError(t, s.Preload([]string{"/project/src/bad.ts", "/project/src/main.ts"}))
	failed, err := s.TransformAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"/project/src/bad.ts"}, failed)
	assert.Contains(t, stderr.String(), "error TS2322")
	assert.Contains(t, stderr.String(), "Type 'number' is not assignable to type 'string'.")

	main, ok := s.Registry().Get("/project/src/main.ts")
	require.True(t, ok)
	assert.NotNil(t, main.Result, "files after a failing one are still transformed")
}

func TestJSONLogsCarryDiagnostics(t *testing.T) {
	t.Parallel()

	eng := enginetest.New()
	eng.Diagnostics["/project/src/bad.ts"] = []engine.Diagnostic{
		{Code: 2322, Category: engine.CategoryError, Message: "bad"},
	}
	s, stderr := open(t, eng, map[string]any{"log.format": "json"})

	require.NoError(t, s.Preload([]string{"/project/src/bad.ts"}))
	_, err := s.TransformAll()
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), `"code":2322`)
	assert.NotContains(t, stderr.String(), "error TS2322")
}
