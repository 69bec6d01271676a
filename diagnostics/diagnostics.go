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

// Package diagnostics filters, formats and reports engine diagnostics.
//
// Reporting is complete before failure: every diagnostic of an emit is
// rendered to every sink, and only then does the caller learn whether any of
// them was fatal.
package diagnostics

import (
	"fmt"

	"bennypowers.dev/tsgraft/engine"
)

// Suppressed reports whether a diagnostic is dropped before reporting.
//
// An ES module kind combined with an old target is reported by engines as a
// configuration error, but the bundler links modules itself so the mismatch
// never affects output.
func Suppressed(d engine.Diagnostic) bool {
	return d.Condition == engine.ConditionModuleTargetMismatch
}

// Filter returns diags without suppressed entries. The input is not modified.
func Filter(diags []engine.Diagnostic) []engine.Diagnostic {
	kept := make([]engine.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if !Suppressed(d) {
			kept = append(kept, d)
		}
	}
	return kept
}

// IsFatal reports whether d fails the compilation.
func IsFatal(d engine.Diagnostic) bool {
	return d.Category == engine.CategoryError
}

// Location returns "file(line,col)" with one-based numbers, or "" for a
// diagnostic without a file.
func Location(d engine.Diagnostic) string {
	if d.File == nil {
		return ""
	}
	line, character := d.File.LineAndCharacterOfPosition(d.Start)
	return fmt.Sprintf("%s(%d,%d)", d.File.FileName(), line+1, character+1)
}

// Label returns the category and code, as in "error TS2305".
func Label(d engine.Diagnostic) string {
	switch {
	case d.Code != 0:
		return fmt.Sprintf("%s TS%d", d.Category, d.Code)
	case d.ID != "":
		return fmt.Sprintf("%s [%s]", d.Category, d.ID)
	}
	return d.Category.String()
}

// Format renders d on one line:
//
//	/src/main.ts(3,10): error TS2305: Module '"./util"' has no exported member 'y'.
//	error TS5023: Unknown compiler option 'foo'.
func Format(d engine.Diagnostic) string {
	if loc := Location(d); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, Label(d), d.Message)
	}
	return fmt.Sprintf("%s: %s", Label(d), d.Message)
}
