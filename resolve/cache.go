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
package resolve

import (
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of resolutions kept by Cached when size <= 0.
const DefaultCacheSize = 4096

// CachedResolver memoizes resolutions per (specifier, importer directory).
// Results are pure within one build session: files are never removed.
type CachedResolver struct {
	inner Resolver
	cache *lru.Cache[string, Resolution]
}

// Cached wraps inner with an LRU cache of the given size.
func Cached(inner Resolver, size int) *CachedResolver {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Resolution](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &CachedResolver{inner: inner, cache: cache}
}

// Resolve implements Resolver.
func (c *CachedResolver) Resolve(specifier, importer string) Resolution {
	key := specifier + "\x00" + filepath.Dir(importer)
	if r, ok := c.cache.Get(key); ok {
		return r
	}
	r := c.inner.Resolve(specifier, importer)
	c.cache.Add(key, r)
	return r
}

// Len returns the number of cached resolutions.
func (c *CachedResolver) Len() int {
	return c.cache.Len()
}
