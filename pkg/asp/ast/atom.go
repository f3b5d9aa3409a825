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
package ast

import (
	"fmt"
)

// Atom represents a predicate atom, such as "p(1,X)".  The identity of a
// ground atom is given by its predicate name, its arity and its (ground)
// arguments; its canonical rendering therefore serves as its key.
type Atom struct {
	Name string
	Args []Term
}

// NewAtom constructs an atom for a given predicate name and arguments.
func NewAtom(name string, args ...Term) *Atom {
	return &Atom{name, args}
}

// Arity returns the number of arguments of this atom.
func (p *Atom) Arity() uint {
	return uint(len(p.Args))
}

// Predicate returns the "name/arity" signature identifying the predicate of
// this atom.  Predicates sharing a name but differing in arity are distinct.
func (p *Atom) Predicate() string {
	return fmt.Sprintf("%s/%d", p.Name, len(p.Args))
}

// IsGround determines whether this atom contains any variables.
func (p *Atom) IsGround() bool {
	return allGround(p.Args)
}

// Vars adds the free variables of this atom to a given set.
func (p *Atom) Vars(set map[string]bool) {
	for _, arg := range p.Args {
		arg.Vars(set)
	}
}

// Substitute replaces bound variables in this atom, producing a fresh atom.
func (p *Atom) Substitute(sub *Substitution) *Atom {
	return &Atom{p.Name, substituteAll(p.Args, sub)}
}

// Evaluate reduces every arithmetic subterm of this (ground) atom to a
// number, producing a fresh atom.
func (p *Atom) Evaluate() (*Atom, error) {
	args, err := evalAll(p.Args)
	if err != nil {
		return nil, err
	}
	//
	return &Atom{p.Name, args}, nil
}

func (p *Atom) String() string {
	if len(p.Args) == 0 {
		return p.Name
	}
	//
	return fmt.Sprintf("%s(%s)", p.Name, joinTerms(p.Args, ","))
}
