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

// Package depcheck reports bare import specifiers that a package does not
// declare as dependencies.
package depcheck

import (
	"path/filepath"
	"sort"
	"strings"

	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/packagejson"
	"bennypowers.dev/tsgraft/resolve"
	"bennypowers.dev/tsgraft/syntax"
)

// IssueType classifies an undeclared import.
type IssueType int

const (
	// TransitiveDep means the package is in node_modules but not declared.
	TransitiveDep IssueType = iota
	// DevDep means the package is only a devDependency.
	DevDep
	// NotInstalled means the package is not found in node_modules.
	NotInstalled
)

func (t IssueType) String() string {
	switch t {
	case TransitiveDep:
		return "transitive dependency"
	case DevDep:
		return "devDependency"
	case NotInstalled:
		return "not installed"
	default:
		return "unknown"
	}
}

// Issue is one undeclared import.
type Issue struct {
	File      string
	Line      int
	Specifier string
	Package   string
	Type      IssueType
}

// Checker validates imports against one package.json.
type Checker struct {
	fs      fs.FileSystem
	pkg     *packagejson.PackageJSON
	modDirs []string
}

// New creates a checker for the package rooted at rootDir. node_modules is
// looked up in rootDir and in its workspace root.
func New(fsys fs.FileSystem, rootDir string, pkg *packagejson.PackageJSON) *Checker {
	dirs := []string{filepath.Join(rootDir, "node_modules")}
	if ws := resolve.FindWorkspaceRoot(fsys, rootDir); ws != "" && ws != rootDir {
		dirs = append(dirs, filepath.Join(ws, "node_modules"))
	}
	return &Checker{fs: fsys, pkg: pkg, modDirs: dirs}
}

// Check returns an issue for every bare specifier in imports that pkg does
// not list in dependencies or peerDependencies. imports maps a file path to
// the specifiers found in it. Files inside node_modules are skipped, as are
// type-only "@types/" packages the project declares.
func (c *Checker) Check(imports map[string][]syntax.ModuleImport) []Issue {
	paths := make([]string, 0, len(imports))
	for p := range imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var issues []Issue
	for _, p := range paths {
		if strings.Contains(filepath.ToSlash(p), "/node_modules/") {
			continue
		}
		for _, imp := range imports[p] {
			if !resolve.IsBareSpecifier(imp.Specifier) {
				continue
			}
			name, _ := resolve.SplitSpecifier(imp.Specifier)
			if name == c.pkg.Name || c.declared(name) {
				continue
			}
			issue := Issue{File: p, Line: imp.Line, Specifier: imp.Specifier, Package: name}
			switch {
			case has(c.pkg.DevDependencies, name):
				issue.Type = DevDep
			case c.installed(name):
				issue.Type = TransitiveDep
			default:
				issue.Type = NotInstalled
			}
			issues = append(issues, issue)
		}
	}
	return issues
}

func (c *Checker) declared(name string) bool {
	if has(c.pkg.Dependencies, name) || has(c.pkg.PeerDependencies, name) {
		return true
	}
	types := typesPackage(name)
	return has(c.pkg.Dependencies, types) || has(c.pkg.DevDependencies, types)
}

func (c *Checker) installed(name string) bool {
	for _, dir := range c.modDirs {
		if c.fs.Exists(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

// typesPackage maps "pkg" to "@types/pkg" and "@scope/pkg" to
// "@types/scope__pkg".
func typesPackage(name string) string {
	if scope, pkg, ok := strings.Cut(strings.TrimPrefix(name, "@"), "/"); ok && strings.HasPrefix(name, "@") {
		return "@types/" + scope + "__" + pkg
	}
	return "@types/" + name
}

func has(m map[string]string, key string) bool {
	_, ok := m[key]
	return ok
}
