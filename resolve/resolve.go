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

// Package resolve turns import specifiers into absolute TypeScript file paths.
//
// Resolution is layered: a configuration-aware strategy handles relative,
// absolute and mapped specifiers, and a node_modules strategy emulates package
// lookup for bare specifiers. The first strategy that yields an existing file
// wins. A specifier nothing resolves is not an error; the caller simply drops it
// from the dependency graph.
package resolve

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/packagejson"
)

// Resolution is the outcome of resolving one specifier.
type Resolution struct {
	Path     string // Absolute, slash-separated path; empty when unresolved
	Strategy string // Name of the strategy that produced Path
}

// OK reports whether the specifier resolved to a file.
func (r Resolution) OK() bool {
	return r.Path != ""
}

// Resolver resolves a specifier imported by importer.
type Resolver interface {
	Resolve(specifier, importer string) Resolution
}

// Strategy is one resolution technique in a Chain.
type Strategy interface {
	Name() string
	// Resolve returns an existing file path, or false when the strategy
	// does not apply or finds nothing.
	Resolve(specifier, importer string) (string, bool)
}

// Chain tries strategies in order.
type Chain struct {
	strategies []Strategy
}

// NewChain creates a resolver that tries each strategy in order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Resolve implements Resolver.
func (c *Chain) Resolve(specifier, importer string) Resolution {
	for _, s := range c.strategies {
		if p, ok := s.Resolve(specifier, importer); ok {
			return Resolution{Path: Normalize(p), Strategy: s.Name()}
		}
	}
	return Resolution{}
}

// Strategies returns the names of the chained strategies, in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Normalize cleans a path and converts it to forward slashes, the canonical
// form used for registry keys.
func Normalize(p string) string {
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))))
}

// IsRelative reports whether specifier is "./x", "../x", "." or "..".
func IsRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// IsBareSpecifier returns true if the specifier is a bare module specifier
// (needs to be resolved via node_modules or a workspace package).
func IsBareSpecifier(specifier string) bool {
	if specifier == "" || IsRelative(specifier) {
		return false
	}
	if strings.HasPrefix(specifier, "/") || filepath.IsAbs(specifier) {
		return false
	}
	// URL schemes and node: builtins
	if strings.Contains(specifier, ":") {
		return false
	}
	return true
}

// SplitSpecifier splits a bare specifier into its package name and a
// package-relative subpath ("." or "./sub/path").
// e.g., "@lit/reactive-element/decorators.js" -> ("@lit/reactive-element", "./decorators.js")
func SplitSpecifier(specifier string) (pkgName, subpath string) {
	parts := strings.SplitN(specifier, "/", 3)
	n := 1
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		n = 2
	}
	pkgName = strings.Join(parts[:min(n, len(parts))], "/")
	rest := strings.TrimPrefix(specifier, pkgName)
	if rest == "" {
		return pkgName, "."
	}
	return pkgName, "." + rest
}

// FindWorkspaceRoot walks up the directory tree to find the workspace root.
// Returns the directory containing node_modules, workspace configuration, or .git.
func FindWorkspaceRoot(fsys fs.FileSystem, startDir string) string {
	dir := startDir
	for {
		if fs.IsDir(fsys, filepath.Join(dir, "node_modules")) {
			return dir
		}

		pkgPath := filepath.Join(dir, "package.json")
		if pkg, err := packagejson.ParseFile(fsys, pkgPath); err == nil && pkg.HasWorkspaces() {
			return dir
		}

		if fs.IsDir(fsys, filepath.Join(dir, ".git")) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// FindUp returns the closest file called name in startDir or one of its
// ancestors, or "" when there is none.
func FindUp(fsys fs.FileSystem, startDir, name string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, name)
		if fs.IsFile(fsys, candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
