// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package hash

import (
	"fmt"
	"testing"
)

func Test_HashSet_01(t *testing.T) {
	check_HashSet(t, []uint{1, 2, 3, 4, 3, 2, 1})
}

func Test_HashSet_02(t *testing.T) {
	items := make([]uint, 1000)
	// Lots of duplicates, lots of collisions.
	for i := range items {
		items[i] = uint((i * i) % 321)
	}
	//
	check_HashSet(t, items)
}

func Test_HashSet_03(t *testing.T) {
	// Insertion order is retained, with duplicates discarded.
	set := NewSet[testKey](0)
	//
	for _, item := range []uint{5, 3, 5, 9, 3, 1} {
		set.Insert(testKey{item})
	}
	//
	expected := []uint{5, 3, 9, 1}
	items := set.Items()
	//
	if len(items) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(items))
	}
	//
	for i, item := range items {
		if item.value != expected[i] {
			t.Errorf("item %d: expected %d, got %d", i, expected[i], item.value)
		}
	}
}

func Test_HashSet_04(t *testing.T) {
	// String keys
	set := NewSet[StringKey](0)
	//
	if set.Insert(NewStringKey("p(1)")) {
		t.Errorf("expected p(1) to be fresh")
	}
	//
	if !set.Insert(NewStringKey("p(1)")) {
		t.Errorf("expected p(1) to be a duplicate")
	}
	//
	if !set.Contains(NewStringKey("p(1)")) || set.Contains(NewStringKey("p(2)")) {
		t.Errorf("unexpected contents: %s", set)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_HashSet(t *testing.T, items []uint) {
	set := NewSet[testKey](0)
	dups := uint(0)
	// Insert items
	for _, item := range items {
		if set.Insert(testKey{item}) {
			// Duplicate item inserted
			dups++
		}
	}
	//
	count := uint(0)
	seen := make(map[uint]bool)
	// Count unique items
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			count++
		}
	}
	// Sanity check number of unique items
	if set.Size() != count {
		t.Errorf("expected %d unique items, got %d", count, set.Size())
	}
	// Sanity check duplicates calculation
	if count+dups != uint(len(items)) {
		t.Errorf("incorrect number of duplicates %d", dups)
	}
	// Sanity check containership
	for _, ith := range items {
		if !set.Contains(testKey{ith}) {
			t.Errorf("missing item %d", ith)
		}
	}
}

// A simple wrapper around a uint.  This is deliberately broken to ensure a
// relatively limited spread of hash values.  This helps to ensure that we get
// some collisions.
type testKey struct {
	value uint
}

// Equals compares two testKeys to check whether they represent the same
// underlying value (or not).
func (p testKey) Equals(other testKey) bool {
	return p.value == other.value
}

// Hash generates a 64-bit hashcode from the underlying value.
func (p testKey) Hash() uint64 {
	// This is a deliberate act to limit the quality of this hash function.
	return uint64(p.value % 16)
}

func (p testKey) String() string {
	return fmt.Sprintf("%d", p.value)
}
