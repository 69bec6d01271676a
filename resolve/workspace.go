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
package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/packagejson"
)

// maxWorkspaceDepth bounds the directory walk for patterns like "packages/**".
const maxWorkspaceDepth = 4

// WorkspacePackage represents a package in a monorepo workspace.
type WorkspacePackage struct {
	Name string // Package name from package.json
	Path string // Absolute path to package directory
}

// DiscoverWorkspacePackages finds all workspace packages based on the
// workspaces field in the root package.json.
// Returns nil if no workspaces are defined.
func DiscoverWorkspacePackages(fsys fs.FileSystem, rootDir string) ([]WorkspacePackage, error) {
	rootPkg, err := packagejson.ParseFile(fsys, filepath.Join(rootDir, "package.json"))
	if err != nil {
		return nil, err
	}

	patterns := rootPkg.WorkspacePatterns()
	if len(patterns) == 0 {
		return nil, nil
	}

	var packages []WorkspacePackage
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		for _, dir := range expandWorkspacePattern(fsys, rootDir, pattern) {
			if seen[dir] {
				continue
			}
			seen[dir] = true
			pkg, err := parseWorkspacePackage(fsys, dir)
			if err != nil {
				continue // skip directories without valid package.json
			}
			packages = append(packages, pkg)
		}
	}

	return packages, nil
}

// expandWorkspacePattern expands a workspace glob such as "packages/*",
// "@scope/*" or "libs/**" to the matching directories under rootDir.
func expandWorkspacePattern(fsys fs.FileSystem, rootDir, pattern string) []string {
	pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "./"), "/")
	if pattern == "" || !doublestar.ValidatePattern(pattern) {
		return nil
	}

	if !strings.ContainsAny(pattern, "*?[{") {
		full := filepath.Join(rootDir, pattern)
		if fs.IsDir(fsys, full) {
			return []string{full}
		}
		return nil
	}

	var dirs []string
	var walk func(dir, rel string, depth int)
	walk = func(dir, rel string, depth int) {
		if depth > maxWorkspaceDepth {
			return
		}
		entries, err := fsys.ReadDir(dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if !entry.IsDir() || entry.Name() == "node_modules" || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			childRel := entry.Name()
			if rel != "" {
				childRel = rel + "/" + entry.Name()
			}
			child := filepath.Join(dir, entry.Name())
			if ok, _ := doublestar.Match(pattern, childRel); ok {
				dirs = append(dirs, child)
			}
			walk(child, childRel, depth+1)
		}
	}
	walk(rootDir, "", 0)

	return dirs
}

// parseWorkspacePackage reads a package.json from a directory and returns
// a WorkspacePackage with its name and path.
func parseWorkspacePackage(fsys fs.FileSystem, dir string) (WorkspacePackage, error) {
	pkg, err := packagejson.ParseFile(fsys, filepath.Join(dir, "package.json"))
	if err != nil {
		return WorkspacePackage{}, err
	}

	if pkg.Name == "" {
		return WorkspacePackage{}, fmt.Errorf("package at %s has no name", dir)
	}

	return WorkspacePackage{Name: pkg.Name, Path: dir}, nil
}
