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
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Binding is one name a module pulls from another module, either through an
// import clause or a named re-export.
type Binding struct {
	Specifier string
	// Imported is the exported name read from the target: "default", "*"
	// for namespace forms, or a plain name.
	Imported string
	Local    string
	ReExport bool
	// Start and Length locate the binding in the source, in bytes.
	Start  int
	Length int
}

// Summary describes a parsed file's module surface.
type Summary struct {
	Bindings []Binding
	// Exports lists the names the file exports itself, "default" included.
	Exports []string
	// StarExports lists specifiers of `export * from` statements.
	StarExports []string
	// IsModule is true when the file has any top-level import or export.
	IsModule bool
	// Opaque is true for `export =` files whose surface cannot be enumerated.
	Opaque bool
	// HasErrors reports a syntax error somewhere in the tree.
	HasErrors bool
}

// Exported reports whether name is among the file's own exports.
func (s *Summary) Exported(name string) bool {
	for _, e := range s.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// Summarize parses content and collects its top-level module surface.
func Summarize(content []byte, d Dialect) (*Summary, error) {
	tree, err := parse(content, d)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	s := &Summary{HasErrors: root.HasError()}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "import_statement":
			s.IsModule = true
			s.collectImport(stmt, content)
		case "export_statement":
			s.IsModule = true
			s.collectExport(stmt, content)
		}
	}
	return s, nil
}

func (s *Summary) collectImport(stmt *ts.Node, src []byte) {
	source := stmt.ChildByFieldName("source")
	if source == nil {
		// import x = require("...") and import A = N.B carry no bindings we check.
		return
	}
	spec := stringValue(source, src)

	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		clause := stmt.NamedChild(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			part := clause.NamedChild(j)
			switch part.Kind() {
			case "identifier":
				s.addBinding(spec, "default", part, part, src, false)
			case "namespace_import":
				s.addBinding(spec, "*", part, lastNamed(part), src, false)
			case "named_imports":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					specifier := part.NamedChild(k)
					if specifier.Kind() != "import_specifier" {
						continue
					}
					name := specifier.ChildByFieldName("name")
					local := specifier.ChildByFieldName("alias")
					if local == nil {
						local = name
					}
					s.addBinding(spec, nameText(name, src), specifier, local, src, false)
				}
			}
		}
	}
}

func (s *Summary) collectExport(stmt *ts.Node, src []byte) {
	if source := stmt.ChildByFieldName("source"); source != nil {
		spec := stringValue(source, src)
		for i := uint(0); i < stmt.NamedChildCount(); i++ {
			child := stmt.NamedChild(i)
			switch child.Kind() {
			case "namespace_export":
				name := nameText(lastNamed(child), src)
				s.Exports = append(s.Exports, name)
				s.addBinding(spec, "*", child, lastNamed(child), src, true)
				return
			case "export_clause":
				s.collectExportClause(child, spec, src)
				return
			}
		}
		s.StarExports = append(s.StarExports, spec)
		return
	}

	for i := uint(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(i)
		switch child.Kind() {
		case "default":
			s.Exports = append(s.Exports, "default")
			return
		case "=":
			s.Opaque = true
			return
		case "export_clause":
			s.collectExportClause(child, "", src)
			return
		}
	}

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		s.Exports = append(s.Exports, declarationNames(decl, src)...)
		return
	}
	// export import A = N.B
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		if child := stmt.NamedChild(i); child.Kind() == "import_alias" {
			if id := firstNamed(child); id != nil {
				s.Exports = append(s.Exports, id.Utf8Text(src))
			}
		}
	}
}

func (s *Summary) collectExportClause(clause *ts.Node, spec string, src []byte) {
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		specifier := clause.NamedChild(i)
		if specifier.Kind() != "export_specifier" {
			continue
		}
		name := specifier.ChildByFieldName("name")
		alias := specifier.ChildByFieldName("alias")
		if alias == nil {
			alias = name
		}
		s.Exports = append(s.Exports, nameText(alias, src))
		if spec != "" {
			s.addBinding(spec, nameText(name, src), specifier, alias, src, true)
		}
	}
}

func (s *Summary) addBinding(spec, imported string, at, local *ts.Node, src []byte, reexport bool) {
	b := Binding{
		Specifier: spec,
		Imported:  imported,
		ReExport:  reexport,
		Start:     int(at.StartByte()),
		Length:    int(at.EndByte() - at.StartByte()),
	}
	if local != nil {
		b.Local = nameText(local, src)
	}
	s.Bindings = append(s.Bindings, b)
}

// declarationNames returns the names a declaration introduces.
func declarationNames(decl *ts.Node, src []byte) []string {
	switch decl.Kind() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			declarator := decl.NamedChild(i)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			if name := declarator.ChildByFieldName("name"); name != nil {
				names = append(names, patternNames(name, src)...)
			}
		}
		return names
	case "ambient_declaration":
		var names []string
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			names = append(names, declarationNames(decl.NamedChild(i), src)...)
		}
		return names
	}
	if name := decl.ChildByFieldName("name"); name != nil {
		return []string{nameText(name, src)}
	}
	return nil
}

// patternNames collects identifiers bound by a destructuring pattern.
func patternNames(n *ts.Node, src []byte) []string {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []string{n.Utf8Text(src)}
	case "pair_pattern":
		if value := n.ChildByFieldName("value"); value != nil {
			return patternNames(value, src)
		}
		return nil
	case "assignment_pattern", "object_assignment_pattern":
		if left := n.ChildByFieldName("left"); left != nil {
			return patternNames(left, src)
		}
		return nil
	}
	var names []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		names = append(names, patternNames(n.NamedChild(i), src)...)
	}
	return names
}

// nameText returns an identifier's text, unquoting string module export names.
func nameText(n *ts.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if n.Kind() == "string" {
		return stringValue(n, src)
	}
	return n.Utf8Text(src)
}

// stringValue returns the contents of a string literal without its quotes.
func stringValue(n *ts.Node, src []byte) string {
	text := n.Utf8Text(src)
	if len(text) >= 2 {
		q := text[0]
		if (q == '\'' || q == '"') && text[len(text)-1] == q {
			return text[1 : len(text)-1]
		}
	}
	return strings.Trim(text, `'"`)
}

func firstNamed(n *ts.Node) *ts.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

func lastNamed(n *ts.Node) *ts.Node {
	count := n.NamedChildCount()
	if count == 0 {
		return nil
	}
	return n.NamedChild(count - 1)
}
