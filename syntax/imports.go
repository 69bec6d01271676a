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
package syntax

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// ImportKind distinguishes how a specifier was referenced.
type ImportKind int

const (
	StaticImport ImportKind = iota
	ReExport
	DynamicImport
)

// ModuleImport is one specifier found by the pre-scan.
type ModuleImport struct {
	Specifier string
	Kind      ImportKind
	Line      int // 1-indexed
}

// IsDynamic reports whether the specifier came from an import() call.
func (m ModuleImport) IsDynamic() bool {
	return m.Kind == DynamicImport
}

// ExtractImports lists every import specifier in content, in source order,
// without resolving any of them.
func ExtractImports(content []byte, d Dialect) ([]ModuleImport, error) {
	qm, err := GetQueryManager()
	if err != nil {
		return nil, err
	}
	query, err := qm.Query(d, "imports")
	if err != nil {
		return nil, err
	}

	tree, err := parse(content, d)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var imports []ModuleImport
	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		for _, capture := range match.Captures {
			imp := ModuleImport{
				Specifier: capture.Node.Utf8Text(content),
				Line:      int(capture.Node.StartPosition().Row) + 1,
			}
			switch captureNames[capture.Index] {
			case "import.spec":
				imp.Kind = StaticImport
			case "reexport.spec":
				imp.Kind = ReExport
			case "dynamicImport.spec":
				imp.Kind = DynamicImport
			default:
				continue
			}
			imports = append(imports, imp)
		}
	}

	return imports, nil
}
