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

// Package packagejson provides parsing and entry resolution for package.json files
// found in node_modules and workspace packages.
package packagejson

import (
	"encoding/json"
	"errors"
	"strings"

	"bennypowers.dev/tsgraft/fs"
)

// workspacesObjectFormat represents the object format for workspaces field.
// Used by yarn classic with nohoist: {"packages": [...], "nohoist": [...]}
type workspacesObjectFormat struct {
	Packages []string `json:"packages"`
}

// ErrNotExported is returned when a subpath is not exported by the package.
var ErrNotExported = errors.New("not exported by package.json")

// DefaultConditions is the export condition priority used when resolving
// TypeScript sources and declarations.
var DefaultConditions = []string{"types", "import", "default"}

// ResolveOptions configures how conditional exports are resolved.
type ResolveOptions struct {
	// Conditions is the ordered list of conditions to try when resolving exports.
	// If nil, defaults to DefaultConditions.
	Conditions []string
}

// PackageJSON represents the subset of package.json tsgraft reads for module
// resolution and dependency checks.
type PackageJSON struct {
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	Main          string          `json:"main,omitempty"`
	Module        string          `json:"module,omitempty"`
	Types         string          `json:"types,omitempty"`
	Typings       string          `json:"typings,omitempty"`
	Exports       any             `json:"exports,omitempty"`
	RawWorkspaces json.RawMessage `json:"workspaces,omitempty"`

	Dependencies     map[string]string `json:"dependencies,omitempty"`
	DevDependencies  map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
}

// WorkspacePatterns returns the workspace glob patterns from the workspaces field.
// Handles both array format ["packages/*"] and object format {"packages": ["libs/*"]}.
func (pkg *PackageJSON) WorkspacePatterns() []string {
	if len(pkg.RawWorkspaces) == 0 {
		return nil
	}

	var patterns []string
	if err := json.Unmarshal(pkg.RawWorkspaces, &patterns); err == nil {
		return patterns
	}

	var obj workspacesObjectFormat
	if err := json.Unmarshal(pkg.RawWorkspaces, &obj); err == nil {
		return obj.Packages
	}

	return nil
}

// HasWorkspaces returns true if the package has workspace patterns defined.
func (pkg *PackageJSON) HasWorkspaces() bool {
	return len(pkg.WorkspacePatterns()) > 0
}

// TypesEntry returns the declared typings entry (types, then typings) without
// a leading "./", or "" when neither is set.
func (pkg *PackageJSON) TypesEntry() string {
	if pkg.Types != "" {
		return trimDotSlash(pkg.Types)
	}
	return trimDotSlash(pkg.Typings)
}

// Entries returns the candidate main entry files in priority order:
// typings first, then module, then main.
func (pkg *PackageJSON) Entries() []string {
	var entries []string
	for _, e := range []string{pkg.TypesEntry(), pkg.Module, pkg.Main} {
		if e = trimDotSlash(e); e != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

// Parse parses package.json data.
func Parse(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ParseFile parses a package.json file.
func ParseFile(fs fs.FileSystem, path string) (*PackageJSON, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ResolveExport resolves a subpath through the exports field.
// The subpath should be "." for the main export or "./subpath" for subpath exports.
// Returns the resolved path without leading "./".
// Pass nil for opts to use DefaultConditions.
func (pkg *PackageJSON) ResolveExport(subpath string, opts *ResolveOptions) (string, error) {
	switch exports := pkg.Exports.(type) {
	case nil:
		return "", ErrNotExported
	case string:
		if subpath == "." {
			return trimDotSlash(exports), nil
		}
		return "", ErrNotExported
	case []any:
		if subpath == "." {
			return resolveExportValue(exports, opts)
		}
		return "", ErrNotExported
	case map[string]any:
		if !hasSubpathKeys(exports) {
			// Condition-only export for the main entry
			if subpath == "." {
				return resolveConditions(exports, opts)
			}
			return "", ErrNotExported
		}
		if value, ok := exports[subpath]; ok {
			return resolveExportValue(value, opts)
		}
		return resolvePattern(exports, subpath, opts)
	}
	return "", ErrNotExported
}

// resolvePattern matches subpath against "./prefix/*suffix" keys, preferring
// the longest prefix as Node does.
func resolvePattern(exports map[string]any, subpath string, opts *ResolveOptions) (string, error) {
	bestKey, bestMatch, bestPrefixLen := "", "", -1
	for key := range exports {
		star := strings.Index(key, "*")
		if star < 0 {
			continue
		}
		prefix, suffix := key[:star], key[star+1:]
		if len(subpath) < len(prefix)+len(suffix) {
			continue
		}
		if !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			continue
		}
		if len(prefix) > bestPrefixLen {
			bestKey, bestPrefixLen = key, len(prefix)
			bestMatch = subpath[len(prefix) : len(subpath)-len(suffix)]
		}
	}
	if bestKey == "" {
		return "", ErrNotExported
	}
	target, err := resolveExportValue(exports[bestKey], opts)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(target, "*", bestMatch), nil
}

func hasSubpathKeys(exports map[string]any) bool {
	for key := range exports {
		if strings.HasPrefix(key, ".") {
			return true
		}
	}
	return false
}

// resolveExportValue resolves a string, condition map or fallback array.
func resolveExportValue(value any, opts *ResolveOptions) (string, error) {
	switch v := value.(type) {
	case string:
		return trimDotSlash(v), nil
	case map[string]any:
		return resolveConditions(v, opts)
	case []any:
		for _, item := range v {
			if result, err := resolveExportValue(item, opts); err == nil {
				return result, nil
			}
		}
	}
	return "", ErrNotExported
}

// resolveConditions resolves a conditional export map to a path.
// Tries each condition in opts.Conditions order, recursing into nested values.
func resolveConditions(conditions map[string]any, opts *ResolveOptions) (string, error) {
	conditionList := DefaultConditions
	if opts != nil && len(opts.Conditions) > 0 {
		conditionList = opts.Conditions
	}

	for _, cond := range conditionList {
		if value, ok := conditions[cond]; ok {
			if result, err := resolveExportValue(value, opts); err == nil {
				return result, nil
			}
		}
	}

	return "", ErrNotExported
}

// trimDotSlash removes a leading "./" from a path.
func trimDotSlash(path string) string {
	return strings.TrimPrefix(path, "./")
}
