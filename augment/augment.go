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

// Package augment re-declares a file's import edges in its single-file
// output and adds the shared helpers import.
package augment

import (
	"fmt"
	"strings"
)

// HelperNames are the runtime helpers imported into every output.
var HelperNames = []string{"__assign", "__awaiter", "__extends", "__decorate", "__metadata", "__param"}

// Augment appends to output, after a newline, one side-effect import per
// entry of imports in order, then exactly one import of the helpers module.
// Backslashes in paths are normalized to forward slashes.
func Augment(output string, imports []string, helpersID string) string {
	var b strings.Builder
	b.Grow(len(output) + 64*(len(imports)+1))
	b.WriteString(output)
	b.WriteByte('\n')
	for _, p := range imports {
		fmt.Fprintf(&b, "import '%s';\n", Quote(strings.ReplaceAll(p, `\`, "/")))
	}
	fmt.Fprintf(&b, "import { %s } from '%s';\n", strings.Join(HelperNames, ", "), Quote(helpersID))
	return b.String()
}

// Quote escapes s for use inside a single-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
