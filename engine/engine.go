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

// Package engine defines the language-processing capability the core drives:
// parsing, the import pre-scan, whole-program construction and single-file
// emission. The core depends only on these interfaces so that alternate
// engines and test doubles can be substituted at configuration time.
package engine

// SourceFile is an engine's parsed form of one file.
type SourceFile interface {
	FileName() string
	Text() string
	// LineAndCharacterOfPosition converts a byte offset into zero-based
	// line and character numbers.
	LineAndCharacterOfPosition(pos int) (line, character int)
}

// ImportedFile is one specifier reported by the pre-scan.
type ImportedFile struct {
	Specifier string
	Line      int
	Dynamic   bool
}

// WriteFileFunc receives each output file of an emit.
type WriteFileFunc func(fileName, data string)

// EmitResult is the outcome of Program.Emit.
type EmitResult struct {
	Diagnostics []Diagnostic
	EmitSkipped bool
}

// Host is the engine's only window onto files. Implementations serve
// already-registered files and perform no reads of their own.
type Host interface {
	GetSourceFile(fileName string) (SourceFile, error)
	FileExists(fileName string) bool
	WriteFile(fileName string, data []byte) error
	DefaultLibFileName() string
	UseCaseSensitiveFileNames() bool
	GetCanonicalFileName(fileName string) string
	GetCurrentDirectory() string
	GetNewLine() string
	// ResolveModuleName returns the file a specifier in containingFile was
	// resolved to during preloading.
	ResolveModuleName(specifier, containingFile string) (string, bool)
}

// Program is the engine's whole-program state over a fixed set of files.
type Program interface {
	RootNames() []string
	// SourceFile returns the program's parsed form of fileName, or nil.
	SourceFile(fileName string) SourceFile
	// Emit compiles target only, passing every output to write. Diagnostics
	// cover the emitted file plus whole-program options problems.
	Emit(target SourceFile, write WriteFileFunc) EmitResult
}

// Engine creates source files and programs.
type Engine interface {
	Name() string
	Version() string
	CreateSourceFile(fileName, text string, target ScriptTarget) (SourceFile, error)
	PreProcessFile(fileName, text string) ([]ImportedFile, error)
	// DefaultLib returns the built-in declarations file as a virtual path and
	// its text.
	DefaultLib() (fileName, text string)
	// CreateProgram builds a program over rootNames. old, when non-nil, is the
	// previous program and may be used to reuse unchanged per-file analysis.
	CreateProgram(rootNames []string, opts Options, host Host, old Program) (Program, error)
}
