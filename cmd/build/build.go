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

// Package build provides the build command for tsgraft.
package build

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/tsgraft/bundle"
	"bennypowers.dev/tsgraft/internal/metrics"
	"bennypowers.dev/tsgraft/internal/output"
	"bennypowers.dev/tsgraft/internal/session"
)

// Cmd is the build cobra command that bundles entry points with esbuild,
// transpiling TypeScript through a tsgraft session.
var Cmd = &cobra.Command{
	Use:   "build [entries...]",
	Short: "Bundle TypeScript entry points",
	Long: `Bundle entry points into ES modules with esbuild, transpiling every
TypeScript file through one whole-program session.

Entries may be TypeScript files or HTML pages, whose module scripts become
entries. The build fails when any TypeScript file has errors.`,
	Example: `  # Bundle one entry into dist/
  tsgraft build src/main.ts

  # Bundle the module scripts of every page, with source maps
  tsgraft build --glob "pages/**/*.html" --sourcemap

  # Bundle to one file, leaving lit to the page's import map
  tsgraft build src/main.ts --outfile dist/app.js --external lit

  # Record session metrics
  tsgraft build src/main.ts --metrics-file build.prom`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern selecting more entries (e.g., \"src/pages/*.ts\")")
	Cmd.Flags().String("outdir", "dist", "Output directory")
	Cmd.Flags().String("outfile", "", "Output file, for a single entry")
	Cmd.Flags().Bool("sourcemap", false, "Write linked source maps")
	Cmd.Flags().Bool("minify", false, "Minify the output")
	Cmd.Flags().StringSlice("external", nil, "Imports to leave unbundled")
	Cmd.Flags().String("metrics-file", "", "Write prometheus metrics to this file")
}

func run(cmd *cobra.Command, args []string) error {
	glob, _ := cmd.Flags().GetString("glob")
	outdir, _ := cmd.Flags().GetString("outdir")
	outfile, _ := cmd.Flags().GetString("outfile")
	sourcemap, _ := cmd.Flags().GetBool("sourcemap")
	minify, _ := cmd.Flags().GetBool("minify")
	external, _ := cmd.Flags().GetStringSlice("external")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	var m *metrics.Metrics
	if metricsFile != "" {
		m = metrics.New()
	}
	s, err := session.Open(viper.GetViper(), session.Options{Stderr: cmd.ErrOrStderr(), Metrics: m})
	if err != nil {
		return err
	}
	paths, err := s.Entries(args, glob)
	if err != nil {
		return err
	}

	opts := bundle.Options{
		Entries:    paths,
		Sourcemap:  sourcemap,
		External:   external,
		Minify:     minify,
		Write:      true,
		WorkingDir: s.Config.Root,
	}
	if outfile != "" {
		opts.Outfile = abs(s.Config.Root, outfile)
	} else {
		opts.Outdir = abs(s.Config.Root, outdir)
	}

	result, buildErr := bundle.Build(cmd.Context(), s.Plugin, opts)
	if m != nil {
		if err := m.WriteFile(abs(s.Config.Root, metricsFile)); err != nil {
			s.Logger.Warn("could not write metrics", "error", err)
		}
	}
	if buildErr != nil {
		return buildErr
	}

	warn := color.New(color.FgYellow)
	for _, w := range result.Warnings {
		warn.Fprint(cmd.ErrOrStderr(), w)
	}

	outputs := result.Outputs
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Path < outputs[j].Path })
	rows := make([]table.Row, 0, len(outputs))
	total := 0
	for _, o := range outputs {
		rows = append(rows, table.Row{output.Rel(s.Config.Root, o.Path), output.Bytes(len(o.Contents))})
		total += len(o.Contents)
	}
	fmt.Fprintln(cmd.OutOrStdout(), output.Table(
		table.Row{"Output", "Size"},
		rows,
		fmt.Sprintf("%d files, %s", len(outputs), output.Bytes(total)),
	))
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Built %d entries from %d TypeScript files\n", len(paths), len(s.Sources()))
	return nil
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
