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

// Package host adapts the file registry to the engine.Host interface. Every
// source lookup is served from the registry; nothing is read from disk.
package host

import (
	"errors"
	"fmt"
	"strings"

	"bennypowers.dev/tsgraft/engine"
	"bennypowers.dev/tsgraft/fs"
	"bennypowers.dev/tsgraft/registry"
)

// ErrNotPreloaded reports a lookup of a file the registry does not hold.
var ErrNotPreloaded = errors.New("file was not preloaded")

// Options configures a Host.
type Options struct {
	DefaultLibFileName string
	CurrentDirectory   string
	// CaseSensitive reports whether file names are case sensitive.
	CaseSensitive bool
	NewLine       string
}

// Host implements engine.Host over a registry.
type Host struct {
	registry *registry.Registry
	fs       fs.FileSystem
	opts     Options
}

var _ engine.Host = (*Host)(nil)

// New creates a host reading from reg and writing through fsys.
func New(reg *registry.Registry, fsys fs.FileSystem, opts Options) *Host {
	if opts.NewLine == "" {
		opts.NewLine = "\n"
	}
	return &Host{registry: reg, fs: fsys, opts: opts}
}

// GetSourceFile returns the registered parsed form of fileName.
func (h *Host) GetSourceFile(fileName string) (engine.SourceFile, error) {
	f, ok := h.registry.Get(h.key(fileName))
	if !ok {
		return nil, fmt.Errorf("%s: %w", fileName, ErrNotPreloaded)
	}
	return f.Source, nil
}

// FileExists reports whether fileName is registered.
func (h *Host) FileExists(fileName string) bool {
	return h.registry.Has(h.key(fileName))
}

// key maps fileName to the registry key it names. On case-insensitive
// systems a name differing only in case finds the registered spelling.
func (h *Host) key(fileName string) string {
	if h.opts.CaseSensitive || h.registry.Has(fileName) {
		return fileName
	}
	for _, k := range h.registry.Keys() {
		if strings.EqualFold(k, fileName) {
			return k
		}
	}
	return fileName
}

// WriteFile writes through to the filesystem.
func (h *Host) WriteFile(fileName string, data []byte) error {
	return h.fs.WriteFile(fileName, data, 0o644)
}

// DefaultLibFileName returns the built-in declarations path.
func (h *Host) DefaultLibFileName() string { return h.opts.DefaultLibFileName }

// UseCaseSensitiveFileNames implements engine.Host.
func (h *Host) UseCaseSensitiveFileNames() bool { return h.opts.CaseSensitive }

// GetCanonicalFileName returns the registered spelling of fileName, which
// GetSourceFile and FileExists accept. Unregistered names are unchanged.
func (h *Host) GetCanonicalFileName(fileName string) string {
	return h.key(fileName)
}

// GetCurrentDirectory implements engine.Host.
func (h *Host) GetCurrentDirectory() string { return h.opts.CurrentDirectory }

// GetNewLine implements engine.Host.
func (h *Host) GetNewLine() string { return h.opts.NewLine }

// ResolveModuleName answers from the resolutions recorded while preloading.
func (h *Host) ResolveModuleName(specifier, containingFile string) (string, bool) {
	f, ok := h.registry.Get(containingFile)
	if !ok {
		return "", false
	}
	p, ok := f.Resolutions[specifier]
	return p, ok
}
