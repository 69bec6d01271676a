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

// Package graph provides the graph command for tsgraft.
package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/tsgraft/internal/output"
	"bennypowers.dev/tsgraft/internal/session"
	"bennypowers.dev/tsgraft/registry"
)

// Cmd is the graph cobra command that prints the file registry a session
// builds from the entries.
var Cmd = &cobra.Command{
	Use:   "graph [entries...]",
	Short: "Print the import graph of the entries",
	Long: `Load the entries and everything they import, then print every registered
file with its resolved imports and importers.`,
	Example: `  # Table of the files reachable from an entry
  tsgraft graph src/main.ts

  # Machine-readable graph
  tsgraft graph src/main.ts --format json -o graph.json`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "table", "Output format (table, json, yaml)")
	Cmd.Flags().String("glob", "", "Glob pattern selecting more entries")
}

// Node is one registered file, with paths relative to the project root.
type Node struct {
	Path        string            `json:"path" yaml:"path"`
	Size        int               `json:"size" yaml:"size"`
	Imports     []string          `json:"imports" yaml:"imports"`
	ImportedBy  []string          `json:"importedBy" yaml:"importedBy"`
	Resolutions map[string]string `json:"resolutions,omitempty" yaml:"resolutions,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid format %q: must be one of table, json, yaml", format)
	}
	glob, _ := cmd.Flags().GetString("glob")

	s, err := session.Open(viper.GetViper(), session.Options{Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	paths, err := s.Entries(args, glob)
	if err != nil {
		return err
	}
	if err := s.Preload(paths); err != nil {
		return err
	}

	nodes := Nodes(s.Registry(), s.Config.Root, s.LibFile())
	data, err := Format(nodes, format)
	if err != nil {
		return err
	}
	return output.Write(s.FS, cmd.OutOrStdout(), viper.GetString("output"), data)
}

// Nodes lists the registry in registration order, without the built-in
// declarations record.
func Nodes(reg *registry.Registry, root, libFile string) []Node {
	rel := func(paths []string) []string {
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = output.Rel(root, p)
		}
		return out
	}
	var nodes []Node
	for _, key := range reg.Keys() {
		if key == libFile {
			continue
		}
		f, _ := reg.Get(key)
		n := Node{
			Path:       output.Rel(root, key),
			Imports:    rel(f.Imports),
			ImportedBy: rel(f.ImportedBy),
		}
		if f.Source != nil {
			n.Size = len(f.Source.Text())
		}
		if len(f.Resolutions) > 0 {
			n.Resolutions = make(map[string]string, len(f.Resolutions))
			for spec, p := range f.Resolutions {
				n.Resolutions[spec] = output.Rel(root, p)
			}
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// Format renders nodes as a table, JSON or YAML.
func Format(nodes []Node, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(nodes, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding graph: %w", err)
		}
		return data, nil
	case "yaml":
		data, err := yaml.Marshal(nodes)
		if err != nil {
			return nil, fmt.Errorf("encoding graph: %w", err)
		}
		return data, nil
	default:
		rows := make([]table.Row, 0, len(nodes))
		total := 0
		for _, n := range nodes {
			rows = append(rows, table.Row{
				n.Path,
				strings.Join(n.Imports, "\n"),
				len(n.ImportedBy),
				output.Bytes(n.Size),
			})
			total += n.Size
		}
		return []byte(output.Table(
			table.Row{"File", "Imports", "Importers", "Size"},
			rows,
			fmt.Sprintf("%d files, %s", len(nodes), output.Bytes(total)),
		)), nil
	}
}
