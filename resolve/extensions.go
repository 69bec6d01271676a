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

	"bennypowers.dev/tsgraft/fs"
)

// sourceExtensions are the file kinds the compiler accepts, in probe order.
var sourceExtensions = []string{".ts", ".tsx", ".d.ts"}

// jsRewrites maps an emitted-JS extension written in a specifier to the
// TypeScript sources that produce it.
var jsRewrites = map[string][]string{
	".js":  {".ts", ".tsx", ".d.ts"},
	".jsx": {".tsx"},
	".mjs": {".mts", ".d.mts"},
	".cjs": {".cts", ".d.cts"},
}

// IsSourceFile reports whether p names a file the compiler accepts.
func IsSourceFile(p string) bool {
	switch filepath.Ext(p) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	}
	return false
}

// IsDeclarationFile reports whether p is a declaration file (".d.ts" and friends).
func IsDeclarationFile(p string) bool {
	base := filepath.Base(p)
	return strings.HasSuffix(base, ".d.ts") ||
		strings.HasSuffix(base, ".d.mts") ||
		strings.HasSuffix(base, ".d.cts")
}

// probe looks for a source file at candidate using TypeScript's lookup rules:
// the exact path, a .js-style extension swapped for its source, each source
// extension appended, then an index file inside a directory.
func probe(fsys fs.FileSystem, candidate string) (string, bool) {
	if IsSourceFile(candidate) && fs.IsFile(fsys, candidate) {
		return candidate, true
	}

	ext := filepath.Ext(candidate)
	if rewrites, ok := jsRewrites[ext]; ok {
		stem := strings.TrimSuffix(candidate, ext)
		for _, e := range rewrites {
			if fs.IsFile(fsys, stem+e) {
				return stem + e, true
			}
		}
	}

	for _, e := range sourceExtensions {
		if fs.IsFile(fsys, candidate+e) {
			return candidate + e, true
		}
	}

	if fs.IsDir(fsys, candidate) {
		for _, e := range sourceExtensions {
			index := filepath.Join(candidate, "index"+e)
			if fs.IsFile(fsys, index) {
				return index, true
			}
		}
	}

	return "", false
}
