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

// Package entries collects the entry points of a build from command-line
// arguments, doublestar globs and the module scripts of HTML pages.
package entries

import (
	"fmt"
	iofs "io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/tsgraft/fs"
)

// Options configures Collect.
type Options struct {
	// Root is the directory relative arguments and globs resolve against,
	// and the document root for absolute script URLs in HTML pages.
	Root string
	// Glob selects extra inputs, relative to Root unless absolute.
	Glob string
}

// Collect turns inputs into a deduplicated list of absolute entry paths, in
// input order. HTML pages contribute the local module scripts they load.
func Collect(fsys fs.FileSystem, args []string, opts Options) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		inputs = append(inputs, abs(opts.Root, arg))
	}
	if opts.Glob != "" {
		matches, err := Glob(fsys, opts.Root, opts.Glob)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, matches...)
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, input := range inputs {
		if !isHTML(input) {
			add(input)
			continue
		}
		found, err := FromHTML(fsys, input, opts.Root)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no entries: provide entry arguments or use --glob")
	}
	return out, nil
}

// Glob returns the absolute paths of files matching pattern, sorted as
// doublestar returns them.
func Glob(fsys fs.FileSystem, root, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	base := filepath.ToSlash(root)
	if path.IsAbs(pattern) {
		base, pattern = doublestar.SplitPattern(pattern)
	}
	matches, err := doublestar.Glob(rooted{fsys: fsys, root: filepath.FromSlash(base)}, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
	}
	return out, nil
}

// FromHTML returns the local module scripts htmlPath loads: the src of each
// external module script and the relative imports of inline ones. Absolute
// URLs resolve against root; remote URLs are skipped.
func FromHTML(fsys fs.FileSystem, htmlPath, root string) ([]string, error) {
	content, err := fsys.ReadFile(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", htmlPath, err)
	}
	scripts, err := ExtractScripts(content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", htmlPath, err)
	}

	dir := filepath.Dir(htmlPath)
	var out []string
	for _, s := range scripts {
		if !s.IsModule() {
			continue
		}
		if s.Src != "" {
			if p, ok := local(dir, root, s.Src); ok {
				out = append(out, p)
			}
			continue
		}
		for _, spec := range s.Imports {
			if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") {
				continue
			}
			if p, ok := local(dir, root, spec); ok {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func local(dir, root, ref string) (string, bool) {
	if strings.HasPrefix(ref, "//") || strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
		return "", false
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if strings.HasPrefix(ref, "/") {
		return filepath.Join(root, filepath.FromSlash(ref)), true
	}
	return filepath.Join(dir, filepath.FromSlash(ref)), true
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func isHTML(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// rooted exposes the subtree of a FileSystem at root as an io/fs.FS.
type rooted struct {
	fsys fs.FileSystem
	root string
}

func (r rooted) join(name string) string {
	return filepath.Join(r.root, filepath.FromSlash(name))
}

func (r rooted) Open(name string) (iofs.File, error) {
	if !iofs.ValidPath(name) {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: iofs.ErrInvalid}
	}
	return r.fsys.Open(r.join(name))
}

func (r rooted) ReadDir(name string) ([]iofs.DirEntry, error) {
	return r.fsys.ReadDir(r.join(name))
}

func (r rooted) Stat(name string) (iofs.FileInfo, error) {
	return r.fsys.Stat(r.join(name))
}
