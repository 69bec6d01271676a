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
package packagejson

import (
	"sync"

	"bennypowers.dev/tsgraft/fs"
)

// Cache provides a caching interface for parsed package.json files.
// Module resolution probes the same package directories for every importer,
// so a session shares one cache across all resolutions.
type Cache interface {
	// Get retrieves a cached package.json by its file path.
	// Returns the cached package and true if found, nil and false otherwise.
	Get(path string) (*PackageJSON, bool)

	// Set stores a parsed package.json in the cache, keyed by file path.
	Set(path string, pkg *PackageJSON)

	// GetOrLoad atomically retrieves from cache or loads using the provided function.
	// Failed loads are remembered too, so a missing file is only probed once.
	GetOrLoad(path string, loader func() (*PackageJSON, error)) (*PackageJSON, error)
}

// cacheEntry holds a cached result and coordinates concurrent loading.
type cacheEntry struct {
	pkg  *PackageJSON
	err  error
	once sync.Once
}

// MemoryCache is a thread-safe in-memory implementation of Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewMemoryCache creates a new in-memory cache for package.json files.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
	}
}

func (c *MemoryCache) entry(path string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		e = &cacheEntry{}
		c.entries[path] = e
	}
	return e
}

// Get retrieves a successfully parsed package.json by its file path.
func (c *MemoryCache) Get(path string) (*PackageJSON, bool) {
	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if !ok || e.pkg == nil {
		return nil, false
	}
	return e.pkg, true
}

// Set stores a parsed package.json in the cache.
func (c *MemoryCache) Set(path string, pkg *PackageJSON) {
	e := &cacheEntry{pkg: pkg}
	e.once.Do(func() {})
	c.mu.Lock()
	c.entries[path] = e
	c.mu.Unlock()
}

// GetOrLoad retrieves from cache or loads using the provided function.
// Only one goroutine runs the loader for a given path; others wait for the result.
func (c *MemoryCache) GetOrLoad(path string, loader func() (*PackageJSON, error)) (*PackageJSON, error) {
	e := c.entry(path)
	e.once.Do(func() {
		e.pkg, e.err = loader()
	})
	return e.pkg, e.err
}

// Load parses the package.json at path through cache. A nil cache parses directly.
func Load(cache Cache, fsys fs.FileSystem, path string) (*PackageJSON, error) {
	if cache == nil {
		return ParseFile(fsys, path)
	}
	return cache.GetOrLoad(path, func() (*PackageJSON, error) {
		return ParseFile(fsys, path)
	})
}
