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

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTarget = errors.New("unknown script target")
	ErrUnknownModule = errors.New("unknown module kind")
	ErrUnknownJSX    = errors.New("unknown jsx mode")
)

// ScriptTarget is the output language version.
type ScriptTarget int

const (
	ES3 ScriptTarget = iota
	ES5
	ES2015
	ES2016
	ES2017
	ES2018
	ES2019
	ES2020
	ES2021
	ES2022
	ES2023
	ESNext
)

var targetNames = []string{
	ES3:    "es3",
	ES5:    "es5",
	ES2015: "es2015",
	ES2016: "es2016",
	ES2017: "es2017",
	ES2018: "es2018",
	ES2019: "es2019",
	ES2020: "es2020",
	ES2021: "es2021",
	ES2022: "es2022",
	ES2023: "es2023",
	ESNext: "esnext",
}

func (t ScriptTarget) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return fmt.Sprintf("ScriptTarget(%d)", int(t))
	}
	return targetNames[t]
}

// ParseScriptTarget accepts tsconfig spellings, case-insensitively.
func ParseScriptTarget(s string) (ScriptTarget, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "es6" {
		return ES2015, nil
	}
	for t, n := range targetNames {
		if n == name {
			return ScriptTarget(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// ModuleKind is the module format of emitted code.
type ModuleKind int

const (
	ModuleNone ModuleKind = iota
	CommonJS
	AMD
	UMD
	System
	ES2015Module
	ES2020Module
	ES2022Module
	ESNextModule
	Node16
	NodeNext
)

var moduleNames = []string{
	ModuleNone:   "none",
	CommonJS:     "commonjs",
	AMD:          "amd",
	UMD:          "umd",
	System:       "system",
	ES2015Module: "es2015",
	ES2020Module: "es2020",
	ES2022Module: "es2022",
	ESNextModule: "esnext",
	Node16:       "node16",
	NodeNext:     "nodenext",
}

func (m ModuleKind) String() string {
	if m < 0 || int(m) >= len(moduleNames) {
		return fmt.Sprintf("ModuleKind(%d)", int(m))
	}
	return moduleNames[m]
}

// IsESM reports whether the kind emits import/export statements a bundler
// can link.
func (m ModuleKind) IsESM() bool {
	switch m {
	case ES2015Module, ES2020Module, ES2022Module, ESNextModule:
		return true
	}
	return false
}

// ParseModuleKind accepts tsconfig spellings, case-insensitively.
func ParseModuleKind(s string) (ModuleKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "es6" {
		return ES2015Module, nil
	}
	for m, n := range moduleNames {
		if n == name {
			return ModuleKind(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModule, s)
}

// JSXMode controls how .tsx files are compiled.
type JSXMode string

const (
	JSXPreserve JSXMode = "preserve"
	JSXReact    JSXMode = "react"
	JSXReactJSX JSXMode = "react-jsx"
	JSXNone     JSXMode = ""
)

// ParseJSXMode validates a tsconfig "jsx" value.
func ParseJSXMode(s string) (JSXMode, error) {
	switch m := JSXMode(strings.ToLower(strings.TrimSpace(s))); m {
	case JSXPreserve, JSXReact, JSXReactJSX, JSXNone:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJSX, s)
}

// Options are the compiler options a program is built with.
type Options struct {
	Target    ScriptTarget
	Module    ModuleKind
	SourceMap bool
	// BaseURL and Paths mirror tsconfig compilerOptions and are absolute
	// after configuration loading.
	BaseURL string
	Paths   map[string][]string
	JSX     JSXMode
	// JSXFactory and JSXFragmentFactory apply to JSXReact.
	JSXFactory         string
	JSXFragmentFactory string
}
