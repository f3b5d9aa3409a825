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
package grounder

import (
	"github.com/consensys/go-asp/pkg/asp/ast"
	"github.com/consensys/go-asp/pkg/util/collection/hash"
)

// atomEntry keys a ground atom by its canonical rendering, for insertion into
// a hash set.
type atomEntry struct {
	key  hash.StringKey
	atom *ast.Atom
}

func newAtomEntry(atom *ast.Atom) atomEntry {
	return atomEntry{hash.NewStringKey(atom.String()), atom}
}

// Equals checks whether two entries identify the same ground atom.
func (p atomEntry) Equals(other atomEntry) bool {
	return p.key.Equals(other.key)
}

// Hash generates a 64-bit hashcode for this entry.
func (p atomEntry) Hash() uint64 {
	return p.key.Hash()
}

func (p atomEntry) String() string {
	return string(p.key)
}

// DerivationSet holds the ground atoms known derivable for a given predicate.
// The set grows monotonically whilst the predicate's component is being
// grounded, and is frozen once that component completes.  Atoms are retained
// in insertion order, which keeps instantiation deterministic.
type DerivationSet struct {
	items  *hash.Set[atomEntry]
	frozen bool
}

// NewDerivationSet constructs an empty derivation set.
func NewDerivationSet() *DerivationSet {
	return &DerivationSet{hash.NewSet[atomEntry](16), false}
}

// Add a ground atom to this set, returning true if it was not already
// present.
func (p *DerivationSet) Add(atom *ast.Atom) bool {
	return !p.items.Insert(newAtomEntry(atom))
}

// Contains checks whether a given ground atom is present in this set.
func (p *DerivationSet) Contains(atom *ast.Atom) bool {
	return p.items.Contains(newAtomEntry(atom))
}

// Size returns the number of atoms in this set.
func (p *DerivationSet) Size() uint {
	return p.items.Size()
}

// Atoms returns a snapshot of the atoms of this set, in insertion order.
// Atoms inserted after the snapshot is taken are not reflected in it, which
// is exactly what the instantiator relies upon when the set grows mid-join.
func (p *DerivationSet) Atoms() []*ast.Atom {
	entries := p.items.Items()
	atoms := make([]*ast.Atom, len(entries))
	//
	for i, e := range entries {
		atoms[i] = e.atom
	}
	//
	return atoms
}

// Freeze marks this set as complete: the component defining its predicate
// has been fully grounded.
func (p *DerivationSet) Freeze() {
	p.frozen = true
}

// IsFrozen checks whether this set has been frozen.
func (p *DerivationSet) IsFrozen() bool {
	return p.frozen
}

// Database maps each predicate of the program onto its derivation set.
type Database struct {
	sets map[string]*DerivationSet
}

// NewDatabase constructs an empty database.
func NewDatabase() *Database {
	return &Database{make(map[string]*DerivationSet)}
}

// Set returns the derivation set for a given predicate name, creating an
// empty one on first reference.  Predicates which never appear in any head
// simply retain an empty set throughout.
func (p *Database) Set(name string) *DerivationSet {
	s, ok := p.sets[name]
	//
	if !ok {
		s = NewDerivationSet()
		p.sets[name] = s
	}
	//
	return s
}
