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
	"path/filepath"
	"strings"
	"sync"

	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/packagejson"
)

// NodeOptions configures a NodeModulesStrategy.
type NodeOptions struct {
	// RootDir is where workspace discovery starts.
	RootDir string
	// Conditions overrides packagejson.DefaultConditions.
	Conditions []string
	// Cache shares parsed package.json files; nil parses on every lookup.
	Cache packagejson.Cache
}

// NodeModulesStrategy is the secondary, conventional-lookup strategy for bare
// specifiers. It emulates Node-style package resolution with TypeScript's
// preference for declaration and source entries.
type NodeModulesStrategy struct {
	fs    fs.FileSystem
	opts  NodeOptions
	cache packagejson.Cache

	workspacesOnce sync.Once
	workspaces     map[string]string
}

// NewNodeModulesStrategy creates the fallback strategy.
func NewNodeModulesStrategy(fsys fs.FileSystem, opts NodeOptions) *NodeModulesStrategy {
	cache := opts.Cache
	if cache == nil {
		cache = packagejson.NewMemoryCache()
	}
	return &NodeModulesStrategy{fs: fsys, opts: opts, cache: cache}
}

// Name implements Strategy.
func (s *NodeModulesStrategy) Name() string { return "node_modules" }

// Resolve implements Strategy.
func (s *NodeModulesStrategy) Resolve(specifier, importer string) (string, bool) {
	if !IsBareSpecifier(specifier) {
		return "", false
	}
	pkgName, subpath := SplitSpecifier(specifier)

	if dir, ok := s.workspacePackages()[pkgName]; ok {
		if p, ok := s.resolveInPackage(dir, subpath); ok {
			return p, true
		}
	}

	dir := filepath.Dir(importer)
	for {
		nm := filepath.Join(dir, "node_modules")
		if fs.IsDir(s.fs, nm) {
			if pkgDir := filepath.Join(nm, pkgName); fs.IsDir(s.fs, pkgDir) {
				if p, ok := s.resolveInPackage(pkgDir, subpath); ok {
					return p, true
				}
			}
			if typesDir := filepath.Join(nm, "@types", typesPackageName(pkgName)); fs.IsDir(s.fs, typesDir) {
				if p, ok := s.resolveInPackage(typesDir, subpath); ok {
					return p, true
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (s *NodeModulesStrategy) workspacePackages() map[string]string {
	s.workspacesOnce.Do(func() {
		s.workspaces = make(map[string]string)
		if s.opts.RootDir == "" {
			return
		}
		root := FindWorkspaceRoot(s.fs, s.opts.RootDir)
		pkgs, err := DiscoverWorkspacePackages(s.fs, root)
		if err != nil {
			return
		}
		for _, pkg := range pkgs {
			s.workspaces[pkg.Name] = pkg.Path
		}
	})
	return s.workspaces
}

// resolveInPackage finds the file for subpath inside an installed package.
func (s *NodeModulesStrategy) resolveInPackage(pkgDir, subpath string) (string, bool) {
	pkg, err := packagejson.Load(s.cache, s.fs, filepath.Join(pkgDir, "package.json"))
	if err == nil && pkg.Exports != nil {
		target, err := pkg.ResolveExport(subpath, &packagejson.ResolveOptions{Conditions: s.opts.Conditions})
		if err != nil {
			// An exports map is authoritative for what the package exposes.
			return "", false
		}
		return probe(s.fs, filepath.Join(pkgDir, target))
	}

	if subpath != "." {
		return probe(s.fs, filepath.Join(pkgDir, strings.TrimPrefix(subpath, "./")))
	}

	if pkg != nil {
		for _, entry := range pkg.Entries() {
			if p, ok := probe(s.fs, filepath.Join(pkgDir, entry)); ok {
				return p, true
			}
		}
	}
	return probe(s.fs, pkgDir)
}

// typesPackageName maps a package name to its DefinitelyTyped directory name:
// "@scope/name" becomes "scope__name".
func typesPackageName(pkgName string) string {
	if scoped, ok := strings.CutPrefix(pkgName, "@"); ok {
		return strings.Replace(scoped, "/", "__", 1)
	}
	return pkgName
}
