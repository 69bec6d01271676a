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
package helpers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"bennypowers.dev/tsgraft/augment"
	"bennypowers.dev/tsgraft/helpers"
)

func TestSourceExportsEveryAugmentedHelper(t *testing.T) {
	t.Parallel()

	src := helpers.Source()
	for _, name := range augment.HelperNames {
		assert.True(t,
			strings.Contains(src, "export function "+name+"(") || strings.Contains(src, "export var "+name+" "),
			"helpers module exports %s", name)
	}
}

func TestID(t *testing.T) {
	t.Parallel()

	assert.True(t, helpers.IsID(helpers.ID))
	assert.False(t, helpers.IsID("/typescript-helpers"))
	assert.True(t, strings.HasPrefix(helpers.ID, "\x00"))
}
