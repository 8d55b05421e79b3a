/* -*- coding: utf-8 -*-
* ------------------------------------------------------------------------------
*
*   Copyright 2018-2019 Fetch.AI Limited
*
*   Licensed under the Apache License, Version 2.0 (the "License");
*   you may not use this file except in compliance with the License.
*   You may obtain a copy of the License at
*
*       http://www.apache.org/licenses/LICENSE-2.0
*
*   Unless required by applicable law or agreed to in writing, software
*   distributed under the License is distributed on an "AS IS" BASIS,
*   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*   See the License for the specific language governing permissions and
*   limitations under the License.
*
* ------------------------------------------------------------------------------
 */

package setutil

import (
	"testing"

	"gotest.tools/assert"
)

func TestSet(t *testing.T) {
	set := NewSet[string]()

	assert.Assert(t, !set.Contains("hello"))
	assert.Equal(t, set.Size(), 0)

	set.Add("hello")
	assert.Assert(t, set.Contains("hello"))
	assert.Equal(t, set.Size(), 1)

	set.Add("world")
	assert.Assert(t, set.Contains("world"))
	assert.Equal(t, set.Size(), 2)

	set.Remove("hello")
	assert.Assert(t, !set.Contains("hello"))
	assert.Equal(t, set.Size(), 1)
}

func TestSetFromArray(t *testing.T) {
	elements := []string{"hello", "world", "world"}
	set := NewSet(elements...)

	assert.Equal(t, set.Size(), 2)
	assert.Assert(t, set.Contains("hello"))
	assert.Assert(t, set.Contains("world"))
}

func TestSetToArray(t *testing.T) {
	set := NewSet(1, 2, 3)
	array := set.ToArray()
	assert.Equal(t, len(array), 3)

	seen := NewSet(array...)
	assert.Assert(t, seen.Contains(1))
	assert.Assert(t, seen.Contains(2))
	assert.Assert(t, seen.Contains(3))
}
