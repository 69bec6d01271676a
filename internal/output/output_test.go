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
package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tsgraft/internal/mapfs"
	"bennypowers.dev/tsgraft/internal/output"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mfs := mapfs.New()

	require.NoError(t, output.Write(mfs, &buf, "", []byte("hello")))
	assert.Equal(t, "hello\n", buf.String())

	require.NoError(t, output.Write(mfs, &buf, "/out/graph.json", []byte("{}\n")))
	data, err := mfs.ReadFile("/out/graph.json")
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
	assert.Equal(t, "hello\n", buf.String(), "nothing else reaches the stream")
}

func TestTable(t *testing.T) {
	t.Parallel()

	out := output.Table(
		table.Row{"File", "Size"},
		[]table.Row{{"src/main.ts", output.Bytes(1200)}},
		"1 file",
	)
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "src/main.ts")
	assert.Contains(t, out, "1.2 kB")
	assert.Contains(t, strings.ToLower(out), "1 file")
}

func TestBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 B", output.Bytes(-1))
	assert.Equal(t, "42 B", output.Bytes(42))
	assert.Equal(t, "2.0 MB", output.Bytes(2_000_000))
}

func TestRel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "src/main.ts", output.Rel("/project", "/project/src/main.ts"))
	assert.Equal(t, "/elsewhere/a.ts", output.Rel("/project", "/elsewhere/a.ts"))
	assert.Equal(t, "\x00typescript-helpers", output.Rel("/project", "\x00typescript-helpers"))
}
