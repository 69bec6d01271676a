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
	"sort"
	"strings"

	"bennypowers.dev/tsgraft/fs"
)

// ConfigOptions are the compiler settings that influence primary resolution.
type ConfigOptions struct {
	// BaseURL resolves non-relative specifiers when set. Absolute.
	BaseURL string
	// PathsBase is the directory "paths" targets are relative to when
	// BaseURL is empty (the directory holding tsconfig.json).
	PathsBase string
	// Paths maps specifier patterns such as "@app/*" to target patterns.
	Paths map[string][]string
}

type pathMapping struct {
	prefix  string
	suffix  string
	star    bool
	targets []string
}

func (m pathMapping) match(specifier string) (string, bool) {
	if !m.star {
		return "", specifier == m.prefix
	}
	if len(specifier) < len(m.prefix)+len(m.suffix) {
		return "", false
	}
	if !strings.HasPrefix(specifier, m.prefix) || !strings.HasSuffix(specifier, m.suffix) {
		return "", false
	}
	return specifier[len(m.prefix) : len(specifier)-len(m.suffix)], true
}

// ConfigStrategy is the primary, configuration-aware strategy. It resolves
// relative and absolute specifiers against the importer and maps non-relative
// ones through "paths" and "baseUrl".
type ConfigStrategy struct {
	fs        fs.FileSystem
	baseURL   string
	pathsBase string
	mappings  []pathMapping
}

// NewConfigStrategy creates the primary strategy.
func NewConfigStrategy(fsys fs.FileSystem, opts ConfigOptions) *ConfigStrategy {
	s := &ConfigStrategy{
		fs:        fsys,
		baseURL:   opts.BaseURL,
		pathsBase: opts.PathsBase,
	}
	if s.baseURL != "" {
		s.pathsBase = s.baseURL
	}

	for pattern, targets := range opts.Paths {
		m := pathMapping{prefix: pattern, targets: targets}
		if star := strings.Index(pattern, "*"); star >= 0 {
			m.prefix, m.suffix, m.star = pattern[:star], pattern[star+1:], true
		}
		s.mappings = append(s.mappings, m)
	}
	// Exact patterns first, then the longest prefix wins.
	sort.SliceStable(s.mappings, func(i, j int) bool {
		a, b := s.mappings[i], s.mappings[j]
		if a.star != b.star {
			return !a.star
		}
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		return a.prefix < b.prefix
	})

	return s
}

// Name implements Strategy.
func (s *ConfigStrategy) Name() string { return "config" }

// Resolve implements Strategy.
func (s *ConfigStrategy) Resolve(specifier, importer string) (string, bool) {
	switch {
	case specifier == "":
		return "", false
	case IsRelative(specifier):
		return probe(s.fs, filepath.Join(filepath.Dir(importer), specifier))
	case strings.HasPrefix(specifier, "/") || filepath.IsAbs(specifier):
		return probe(s.fs, filepath.Clean(specifier))
	}

	for _, m := range s.mappings {
		wildcard, ok := m.match(specifier)
		if !ok {
			continue
		}
		for _, target := range m.targets {
			candidate := strings.ReplaceAll(target, "*", wildcard)
			if !filepath.IsAbs(candidate) {
				candidate = filepath.Join(s.pathsBase, candidate)
			}
			if p, ok := probe(s.fs, candidate); ok {
				return p, true
			}
		}
	}

	if s.baseURL != "" {
		return probe(s.fs, filepath.Join(s.baseURL, specifier))
	}
	return "", false
}
