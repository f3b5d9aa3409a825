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
	"hash/fnv"
)

// ============================================================================
// StringKey Implementation
// ============================================================================

var _ Hasher[StringKey] = StringKey("")

// StringKey wraps a string as something which can be safely placed into a
// HashSet.  Ground atoms and ground rules have canonical textual renderings,
// hence this key type is sufficient for deduplicating both.
type StringKey string

// NewStringKey constructs a new string key.
func NewStringKey(key string) StringKey {
	return StringKey(key)
}

// Equals compares two StringKeys to check whether they represent the same
// underlying string (or not).
func (p StringKey) Equals(other StringKey) bool {
	return p == other
}

// Hash generates a 64-bit hashcode from the underlying string.
func (p StringKey) Hash() uint64 {
	hash := fnv.New64a()
	hash.Write([]byte(p))
	// Done
	return hash.Sum64()
}

func (p StringKey) String() string {
	return string(p)
}
