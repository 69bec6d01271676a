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
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"bennypowers.dev/tsgraft/fs"
)

// maxExtendsDepth bounds "extends" chains.
const maxExtendsDepth = 16

// CompilerOptions is the subset of tsconfig.json compilerOptions tsgraft
// reads. BaseURL is relative to the tsconfig.json that declared it until
// ReadTSConfig makes it absolute.
type CompilerOptions struct {
	Target             string              `json:"target"`
	Module             string              `json:"module"`
	SourceMap          *bool               `json:"sourceMap"`
	BaseURL            string              `json:"baseUrl"`
	Paths              map[string][]string `json:"paths"`
	JSX                string              `json:"jsx"`
	JSXFactory         string              `json:"jsxFactory"`
	JSXFragmentFactory string              `json:"jsxFragmentFactory"`
}

// TSConfig is a parsed tsconfig.json with its "extends" chain applied.
type TSConfig struct {
	Extends         string          `json:"extends"`
	CompilerOptions CompilerOptions `json:"compilerOptions"`
}

// ReadTSConfig reads path and every relative configuration it extends. The
// extending file's options win. BaseURL comes back absolute.
func ReadTSConfig(fsys fs.FileSystem, path string) (*TSConfig, error) {
	return readTSConfig(fsys, path, 0)
}

func readTSConfig(fsys fs.FileSystem, path string, depth int) (*TSConfig, error) {
	if depth > maxExtendsDepth {
		return nil, fmt.Errorf("%w: %s: extends chain is too deep", ErrTSConfig, path)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tsconfig: %w", err)
	}
	data, err = StripJSONC(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTSConfig, path, err)
	}
	var ts TSConfig
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTSConfig, path, err)
	}
	dir := filepath.Dir(path)
	if ts.CompilerOptions.BaseURL != "" {
		ts.CompilerOptions.BaseURL = joinIfRelative(dir, ts.CompilerOptions.BaseURL)
	}

	// Package-name extends would need node resolution; only paths are followed.
	if !strings.HasPrefix(ts.Extends, ".") && !filepath.IsAbs(ts.Extends) {
		return &ts, nil
	}
	parentPath := joinIfRelative(dir, ts.Extends)
	if filepath.Ext(parentPath) != ".json" {
		parentPath += ".json"
	}
	parent, err := readTSConfig(fsys, parentPath, depth+1)
	if err != nil {
		return nil, err
	}
	ts.CompilerOptions = mergeCompilerOptions(parent.CompilerOptions, ts.CompilerOptions)
	return &ts, nil
}

func mergeCompilerOptions(base, over CompilerOptions) CompilerOptions {
	out := base
	if over.Target != "" {
		out.Target = over.Target
	}
	if over.Module != "" {
		out.Module = over.Module
	}
	if over.SourceMap != nil {
		out.SourceMap = over.SourceMap
	}
	if over.BaseURL != "" {
		out.BaseURL = over.BaseURL
	}
	if over.Paths != nil {
		out.Paths = over.Paths
	}
	if over.JSX != "" {
		out.JSX = over.JSX
	}
	if over.JSXFactory != "" {
		out.JSXFactory = over.JSXFactory
	}
	if over.JSXFragmentFactory != "" {
		out.JSXFragmentFactory = over.JSXFragmentFactory
	}
	return out
}

// StripJSONC removes comments and trailing commas so tsconfig.json can be
// decoded as plain JSON. Each removed byte becomes a space, so offsets in
// decode errors still point into the original file. data is not modified.
func StripJSONC(data []byte) ([]byte, error) {
	out, err := hujson.Standardize(bytes.Clone(data))
	if err != nil {
		return nil, err
	}
	return out, nil
}
