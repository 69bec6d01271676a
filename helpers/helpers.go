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

// Package helpers holds the shared runtime-helpers module imported by every
// transformed file.
package helpers

import _ "embed"

// ID is the synthetic module identifier of the helpers. The leading NUL
// keeps it from colliding with a real path and out of source maps.
const ID = "\x00typescript-helpers"

//go:embed helpers.js
var source string

// Source returns the fixed helpers module text.
func Source() string {
	return source
}

// IsID reports whether id names the helpers module.
func IsID(id string) bool {
	return id == ID
}
