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
	"strings"
)

// Compare two ground terms under the strict total order of the ASP-Core-2
// language, returning a negative value if lhs < rhs, zero if they are equal
// and a positive value otherwise.  The order places #inf below all numbers,
// numbers below strings, strings below symbolic constants and function terms,
// and everything below #sup.  Function terms (of which symbolic constants are
// the nullary case, and tuples the anonymous case) are ordered first by arity,
// then by name, then by their arguments lexicographically.
//
// Comparison of non-ground terms is not meaningful; for totality such terms
// fall into a band of their own and compare via their rendering.
func Compare(lhs Term, rhs Term) int {
	lband, rband := band(lhs), band(rhs)
	// Different bands are ordered by band.
	if lband != rband {
		return lband - rband
	}
	// Same band requires closer inspection.
	switch lband {
	case bandNumber:
		l, r := lhs.(*Number).Value, rhs.(*Number).Value
		//
		return compareInts(l, r)
	case bandString:
		return strings.Compare(lhs.(*StringTerm).Value, rhs.(*StringTerm).Value)
	case bandFunctor:
		lname, largs := functor(lhs)
		rname, rargs := functor(rhs)
		// Arity first
		if c := compareInts(int64(len(largs)), int64(len(rargs))); c != 0 {
			return c
		}
		// Then name
		if c := strings.Compare(lname, rname); c != 0 {
			return c
		}
		// Then arguments, lexicographically
		for i := range largs {
			if c := Compare(largs[i], rargs[i]); c != 0 {
				return c
			}
		}
		//
		return 0
	case bandOther:
		// Non-ground terms; arbitrary (but deterministic) order.
		return strings.Compare(lhs.String(), rhs.String())
	}
	// Infimum / Supremum
	return 0
}

// Equal checks whether two ground terms are identical under the total order.
func Equal(lhs Term, rhs Term) bool {
	return Compare(lhs, rhs) == 0
}

const (
	bandInfimum = iota
	bandNumber
	bandString
	bandFunctor
	bandSupremum
	bandOther
)

// Determine the band of the total order in which a given term lives.
func band(term Term) int {
	switch term.(type) {
	case *Infimum:
		return bandInfimum
	case *Number:
		return bandNumber
	case *StringTerm:
		return bandString
	case *Constant, *FuncTerm, *TupleTerm:
		return bandFunctor
	case *Supremum:
		return bandSupremum
	}
	//
	return bandOther
}

// Deconstruct a term of the functor band into its name and arguments.
// Symbolic constants are nullary functors, whilst tuples are functors with an
// empty name.
func functor(term Term) (string, []Term) {
	switch t := term.(type) {
	case *Constant:
		return t.Name, nil
	case *FuncTerm:
		return t.Name, t.Args
	case *TupleTerm:
		return "", t.Args
	}
	//
	panic("unreachable")
}

func compareInts(l int64, r int64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	//
	return 0
}
