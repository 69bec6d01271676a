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
package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tsgraft/host"
	"bennypowers.dev/tsgraft/internal/enginetest"
	"bennypowers.dev/tsgraft/internal/mapfs"
	"bennypowers.dev/tsgraft/registry"
)

func TestHostServesRegistry(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	sf := &enginetest.SourceFile{Name: "/src/main.ts", Source: "export {};"}
	f, err := reg.Register("/src/main.ts", sf)
	require.NoError(t, err)
	f.Resolutions["./util"] = "/src/util.ts"

	mfs := mapfs.New()
	h := host.New(reg, mfs, host.Options{
		DefaultLibFileName: enginetest.LibFileName,
		CurrentDirectory:   "/src",
		CaseSensitive:      true,
	})

	got, err := h.GetSourceFile("/src/main.ts")
	require.NoError(t, err)
	assert.Same(t, sf, got)

	_, err = h.GetSourceFile("/src/other.ts")
	require.ErrorIs(t, err, host.ErrNotPreloaded)
	assert.Contains(t, err.Error(), "/src/other.ts")

	assert.True(t, h.FileExists("/src/main.ts"))
	assert.False(t, h.FileExists("/src/other.ts"), "existence means registration, not presence on disk")

	p, ok := h.ResolveModuleName("./util", "/src/main.ts")
	assert.True(t, ok)
	assert.Equal(t, "/src/util.ts", p)
	_, ok = h.ResolveModuleName("./nope", "/src/main.ts")
	assert.False(t, ok)
	_, ok = h.ResolveModuleName("./util", "/src/unknown.ts")
	assert.False(t, ok)

	assert.Equal(t, enginetest.LibFileName, h.DefaultLibFileName())
	assert.Equal(t, "/src", h.GetCurrentDirectory())
	assert.Equal(t, "\n", h.GetNewLine())
	assert.True(t, h.UseCaseSensitiveFileNames())
	assert.Equal(t, "/Src/Main.ts", h.GetCanonicalFileName("/Src/Main.ts"))
}

func TestHostCaseInsensitive(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	sf := &enginetest.SourceFile{Name: "/src/Main.ts", Source: "export {};"}
	_, err := reg.Register("/src/Main.ts", sf)
	require.NoError(t, err)

	h := host.New(reg, mapfs.New(), host.Options{NewLine: "\r\n"})
	assert.False(t, h.UseCaseSensitiveFileNames())

	canonical := h.GetCanonicalFileName("/SRC/main.TS")
	assert.Equal(t, "/src/Main.ts", canonical)
	assert.True(t, h.FileExists(canonical))
	assert.True(t, h.FileExists("/src/main.ts"))

	got, err := h.GetSourceFile("/SRC/MAIN.ts")
	require.NoError(t, err)
	assert.Same(t, sf, got)

	assert.Equal(t, "/src/Other.ts", h.GetCanonicalFileName("/src/Other.ts"))
	assert.False(t, h.FileExists("/src/other.ts"))
	assert.Equal(t, "\r\n", h.GetNewLine())
}

func TestHostCaseSensitiveLookups(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	_, err := reg.Register("/src/Main.ts", &enginetest.SourceFile{Name: "/src/Main.ts"})
	require.NoError(t, err)

	h := host.New(reg, mapfs.New(), host.Options{CaseSensitive: true})
	assert.False(t, h.FileExists("/src/main.ts"))
	_, err = h.GetSourceFile("/src/main.ts")
	require.ErrorIs(t, err, host.ErrNotPreloaded)
	assert.Equal(t, "/src/main.ts", h.GetCanonicalFileName("/src/main.ts"))
}

func TestHostWriteFile(t *testing.T) {
	t.Parallel()

	mfs := mapfs.New()
	h := host.New(registry.New(), mfs, host.Options{})
	require.NoError(t, h.WriteFile("/out/main.js", []byte("export {};")))

	data, err := mfs.ReadFile("/out/main.js")
	require.NoError(t, err)
	assert.Equal(t, "export {};", string(data))
}
