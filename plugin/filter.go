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
package plugin

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which module ids Transform handles. Exclude patterns win
// over include patterns. Relative patterns match the id relative to the
// project root; every pattern also matches the absolute id.
type Filter struct {
	root    string
	include []string
	exclude []string
}

// NewFilter creates a filter over doublestar patterns.
func NewFilter(root string, include, exclude []string) *Filter {
	norm := func(patterns []string) []string {
		out := make([]string, 0, len(patterns))
		for _, p := range patterns {
			out = append(out, filepath.ToSlash(p))
		}
		return out
	}
	return &Filter{root: filepath.ToSlash(root), include: norm(include), exclude: norm(exclude)}
}

// Match reports whether id passes the filter. Synthetic ids starting with
// NUL never do.
func (f *Filter) Match(id string) bool {
	if strings.HasPrefix(id, "\x00") {
		return false
	}
	candidates := f.candidates(strings.ReplaceAll(id, `\`, "/"))
	if matchAny(f.exclude, candidates) {
		return false
	}
	return matchAny(f.include, candidates)
}

func (f *Filter) candidates(id string) []string {
	out := []string{id}
	if f.root == "" || !path.IsAbs(id) {
		return out
	}
	rel := strings.TrimPrefix(id, strings.TrimSuffix(f.root, "/")+"/")
	if rel != id {
		out = append(out, rel)
	}
	return out
}

func matchAny(patterns, candidates []string) bool {
	for _, p := range patterns {
		for _, c := range candidates {
			if ok, _ := doublestar.Match(p, c); ok {
				return true
			}
		}
	}
	return false
}
