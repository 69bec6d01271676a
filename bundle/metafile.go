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
package bundle

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Metafile is the subset of esbuild's metafile tsgraft reports on.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is one input file.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
}

// MetafileImport is one import of an input or output.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// MetafileOutput is one output file.
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is what one input contributed to an output.
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// ParseMetafile decodes esbuild's JSON metafile.
func ParseMetafile(data []byte) (*Metafile, error) {
	var m Metafile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing metafile: %w", err)
	}
	return &m, nil
}

// OutputSize is the size of one output.
type OutputSize struct {
	Path       string
	Bytes      int
	EntryPoint string
}

// OutputSizes lists outputs largest first.
func (m *Metafile) OutputSizes() []OutputSize {
	sizes := make([]OutputSize, 0, len(m.Outputs))
	for p, out := range m.Outputs {
		sizes = append(sizes, OutputSize{Path: p, Bytes: out.Bytes, EntryPoint: out.EntryPoint})
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].Bytes != sizes[j].Bytes {
			return sizes[i].Bytes > sizes[j].Bytes
		}
		return sizes[i].Path < sizes[j].Path
	})
	return sizes
}

// InputsOf lists the inputs bundled into output, largest contribution first.
func (m *Metafile) InputsOf(output string) []OutputSize {
	out, ok := m.Outputs[output]
	if !ok {
		return nil
	}
	sizes := make([]OutputSize, 0, len(out.Inputs))
	for p, contrib := range out.Inputs {
		sizes = append(sizes, OutputSize{Path: p, Bytes: contrib.BytesInOutput})
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].Bytes != sizes[j].Bytes {
			return sizes[i].Bytes > sizes[j].Bytes
		}
		return sizes[i].Path < sizes[j].Path
	})
	return sizes
}
