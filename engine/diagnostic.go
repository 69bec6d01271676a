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
package engine

import "strings"

// Category is a diagnostic's severity.
type Category int

const (
	CategoryWarning Category = iota
	CategoryError
	CategorySuggestion
	CategoryMessage
)

func (c Category) String() string {
	switch c {
	case CategoryWarning:
		return "warning"
	case CategoryError:
		return "error"
	case CategorySuggestion:
		return "suggestion"
	default:
		return "message"
	}
}

// Condition names the underlying situation a diagnostic reports, independent
// of any engine's numeric code.
type Condition string

const (
	ConditionNone Condition = ""
	// ConditionModuleTargetMismatch reports an ES module kind combined with a
	// target too old to express it. The bundler links modules itself, so the
	// mismatch is irrelevant to this pipeline.
	ConditionModuleTargetMismatch Condition = "module-target-mismatch"
	ConditionSyntax               Condition = "syntax"
	ConditionMissingExport        Condition = "missing-export"
	ConditionNotAModule           Condition = "not-a-module"
	ConditionUnsupported          Condition = "unsupported"
)

// Diagnostic is one message produced while building or emitting a program.
type Diagnostic struct {
	// File is nil for global diagnostics such as options problems.
	File   SourceFile
	Start  int
	Length int
	Code   int
	// ID is an engine-specific textual identifier, when the engine has one.
	ID        string
	Category  Category
	Condition Condition
	Message   string
}

// FlattenMessageText joins a multi-part message chain with newline,
// indenting each continuation.
func FlattenMessageText(chain []string, newline string) string {
	var b strings.Builder
	for i, part := range chain {
		if i > 0 {
			b.WriteString(newline)
			b.WriteString(strings.Repeat("  ", i))
		}
		b.WriteString(part)
	}
	return b.String()
}
