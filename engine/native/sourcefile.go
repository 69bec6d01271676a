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
package native

import (
	"sort"
	"unicode/utf8"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/syntax"
)

// SourceFile is the native engine's parsed form: the text, a line index and
// the module summary. The syntax tree itself is not retained.
type SourceFile struct {
	fileName   string
	text       string
	target     engine.ScriptTarget
	dialect    syntax.Dialect
	lineStarts []int
	summary    *syntax.Summary
}

var _ engine.SourceFile = (*SourceFile)(nil)

func newSourceFile(fileName, text string, target engine.ScriptTarget) (*SourceFile, error) {
	dialect := syntax.DialectFor(fileName)
	summary, err := syntax.Summarize([]byte(text), dialect)
	if err != nil {
		return nil, err
	}
	return &SourceFile{
		fileName:   fileName,
		text:       text,
		target:     target,
		dialect:    dialect,
		lineStarts: computeLineStarts(text),
		summary:    summary,
	}, nil
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			starts = append(starts, i+1)
		case '\n':
			starts = append(starts, i+1)
		}
	}
	return starts
}

// FileName implements engine.SourceFile.
func (f *SourceFile) FileName() string { return f.fileName }

// Text implements engine.SourceFile.
func (f *SourceFile) Text() string { return f.text }

// Summary returns the file's module surface.
func (f *SourceFile) Summary() *syntax.Summary { return f.summary }

// LineAndCharacterOfPosition implements engine.SourceFile. Characters are
// counted in runes from the start of the line.
func (f *SourceFile) LineAndCharacterOfPosition(pos int) (line, character int) {
	pos = max(0, min(pos, len(f.text)))
	line = sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > pos }) - 1
	return line, utf8.RuneCountInString(f.text[f.lineStarts[line]:pos])
}

// positionOf converts a one-based line and zero-based byte column back into a
// byte offset.
func (f *SourceFile) positionOf(line, column int) int {
	if line < 1 || line > len(f.lineStarts) {
		return 0
	}
	return min(f.lineStarts[line-1]+column, len(f.text))
}
