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

// Package check provides the check command for tsgraft.
package check

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/tsgraft/depcheck"
	"bennypowers.dev/tsgraft/internal/output"
	"bennypowers.dev/tsgraft/internal/session"
	"bennypowers.dev/tsgraft/packagejson"
	"bennypowers.dev/tsgraft/syntax"
)

// ErrCheckFailed reports that at least one file has TypeScript errors.
var ErrCheckFailed = errors.New("check failed")

// Cmd is the check cobra command that transpiles every file reachable from
// the entries and reports all of their diagnostics without writing output.
var Cmd = &cobra.Command{
	Use:   "check [entries...]",
	Short: "Report TypeScript errors and undeclared dependencies",
	Long: `Load the entries and everything they import, transpile every file and
report all diagnostics. Bare imports of packages that package.json does not
declare are reported as warnings.

Exits non-zero when any file has TypeScript errors.`,
	Example: `  # Check everything reachable from one entry
  tsgraft check src/main.ts

  # Check the module scripts of every page
  tsgraft check --glob "**/*.html"`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern selecting more entries")
	Cmd.Flags().Bool("deps", true, "Report imports of undeclared packages")
}

func run(cmd *cobra.Command, args []string) error {
	glob, _ := cmd.Flags().GetString("glob")
	deps, _ := cmd.Flags().GetBool("deps")
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	s, err := session.Open(viper.GetViper(), session.Options{Stderr: stderr})
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

	failed, err := s.TransformAll()
	if err != nil {
		return err
	}
	if deps {
		if err := checkDeps(s, stderr); err != nil {
			return err
		}
	}

	checked := len(s.Sources())
	if len(failed) > 0 {
		color.New(color.FgRed).Fprintf(stderr, "%d of %d files have errors\n", len(failed), checked)
		return fmt.Errorf("%w: %d files have errors", ErrCheckFailed, len(failed))
	}
	color.New(color.FgGreen).Fprintf(stdout, "Checked %d files\n", checked)
	return nil
}

func checkDeps(s *session.Session, w io.Writer) error {
	pkgPath := filepath.Join(s.Config.Root, "package.json")
	if !s.FS.Exists(pkgPath) {
		return nil
	}
	pkg, err := packagejson.ParseFile(s.FS, pkgPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", pkgPath, err)
	}

	imports := make(map[string][]syntax.ModuleImport)
	for _, path := range s.Sources() {
		file, ok := s.Registry().Get(path)
		if !ok {
			continue
		}
		found, err := syntax.ExtractImports([]byte(file.Source.Text()), syntax.DialectFor(path))
		if err != nil {
			return err
		}
		imports[filepath.FromSlash(path)] = found
	}

	warn := color.New(color.FgYellow)
	for _, issue := range depcheck.New(s.FS, s.Config.Root, pkg).Check(imports) {
		warn.Fprintf(w, "Warning: %s:%d\n", output.Rel(s.Config.Root, issue.File), issue.Line)
		fmt.Fprintf(w, "  Import %q references %s %q\n", issue.Specifier, issue.Type, issue.Package)
	}
	return nil
}
