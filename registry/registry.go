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

// Package registry holds every file a build session has discovered, keyed by
// normalized absolute path, together with its import edges.
//
// The registry only grows. A path is registered once and never replaced, and
// both directions of an edge are recorded by a single Link call.
package registry

import (
	"fmt"

	"bennypowers.dev/tsgraft/engine"
)

// EmitResult is the cached output of the last successful transform of a file.
type EmitResult struct {
	OutputText    string
	SourceMapText string
}

// File is the registry record for one source file.
type File struct {
	Path   string
	Source engine.SourceFile
	// Imports holds resolved paths in discovery order. A path appears once
	// per specifier that resolved to it.
	Imports    []string
	ImportedBy []string
	// Resolutions maps each specifier found in the file to the path it
	// resolved to. Unresolved specifiers are absent.
	Resolutions map[string]string
	Result      *EmitResult
}

// Registry maps paths to file records, remembering registration order.
type Registry struct {
	files map[string]*File
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{files: make(map[string]*File)}
}

// Register adds a record for path with empty edge lists. It fails if the
// path is already registered.
func (r *Registry) Register(path string, source engine.SourceFile) (*File, error) {
	if _, ok := r.files[path]; ok {
		return nil, fmt.Errorf("%s is already registered", path)
	}
	f := &File{
		Path:        path,
		Source:      source,
		Imports:     []string{},
		ImportedBy:  []string{},
		Resolutions: make(map[string]string),
	}
	r.files[path] = f
	r.order = append(r.order, path)
	return f, nil
}

// Get returns the record for path.
func (r *Registry) Get(path string) (*File, bool) {
	f, ok := r.files[path]
	return f, ok
}

// Has reports whether path is registered.
func (r *Registry) Has(path string) bool {
	_, ok := r.files[path]
	return ok
}

// Keys returns every registered path in registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered files.
func (r *Registry) Len() int {
	return len(r.order)
}

// Link records that importer imports importee, appending to both edge lists.
func (r *Registry) Link(importer, importee string) error {
	from, ok := r.files[importer]
	if !ok {
		return fmt.Errorf("linking %s: importer is not registered", importer)
	}
	to, ok := r.files[importee]
	if !ok {
		return fmt.Errorf("linking %s: importee %s is not registered", importer, importee)
	}
	from.Imports = append(from.Imports, importee)
	to.ImportedBy = append(to.ImportedBy, importer)
	return nil
}

// TransitiveImporters returns every file that reaches path through import
// edges, nearest first. path itself is included only when it sits on a cycle.
func (r *Registry) TransitiveImporters(path string) []string {
	f, ok := r.files[path]
	if !ok {
		return nil
	}

	var result []string
	seen := make(map[string]bool)
	queue := append([]string(nil), f.ImportedBy...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		result = append(result, next)
		if importer, ok := r.files[next]; ok {
			queue = append(queue, importer.ImportedBy...)
		}
	}
	return result
}
