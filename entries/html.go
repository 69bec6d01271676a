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
package entries

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"bennypowers.dev/tsgraft/syntax"
)

// ScriptTag is one <script> element of an HTML page.
type ScriptTag struct {
	Type    string
	Src     string
	Content string
	Inline  bool
	// Imports lists the specifiers of an inline script: static and dynamic
	// ones for module scripts, dynamic ones only for classic scripts.
	Imports []string
}

// IsModule reports whether the script is an ES module.
func (s ScriptTag) IsModule() bool {
	return strings.EqualFold(strings.TrimSpace(s.Type), "module")
}

// ExtractScripts lists the script elements of an HTML document in document
// order.
func ExtractScripts(content []byte) ([]ScriptTag, error) {
	z := html.NewTokenizer(bytes.NewReader(content))
	var scripts []ScriptTag
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return scripts, nil
			}
			return nil, z.Err()
		case html.SelfClosingTagToken:
			if script, ok := scriptTag(z); ok {
				scripts = append(scripts, script)
			}
		case html.StartTagToken:
			script, ok := scriptTag(z)
			if !ok {
				continue
			}
			// The tokenizer returns a script's body as a single raw text token.
			if z.Next() == html.TextToken {
				if text := strings.TrimSpace(string(z.Text())); text != "" && script.Src == "" {
					script.Content = text
					script.Inline = true
					script.Imports = inlineImports(script)
				}
			}
			scripts = append(scripts, script)
		}
	}
}

func scriptTag(z *html.Tokenizer) (ScriptTag, bool) {
	name, hasAttr := z.TagName()
	if string(name) != "script" {
		return ScriptTag{}, false
	}
	var script ScriptTag
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		switch string(key) {
		case "type":
			script.Type = string(val)
		case "src":
			script.Src = string(val)
		}
	}
	return script, true
}

// inlineImports is best-effort: a script tree-sitter cannot fully parse
// still yields the specifiers it recognized.
func inlineImports(script ScriptTag) []string {
	imports, _ := syntax.ExtractImports([]byte(script.Content), syntax.TypeScript)
	var out []string
	for _, imp := range imports {
		if script.IsModule() || imp.IsDynamic() {
			out = append(out, imp.Specifier)
		}
	}
	return out
}
