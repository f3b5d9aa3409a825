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
package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/consensys/go-asp/pkg/asp/ast"
	log "github.com/sirupsen/logrus"
)

// MAX_ATOMS bounds the number of guessable atoms the naive solver will
// accept, since candidate interpretations are enumerated exhaustively.
const MAX_ATOMS = 22

// AnswerSet holds the atoms of a single answer set, ordered by predicate name,
// then arity, then arguments.
type AnswerSet struct {
	Atoms []*ast.Atom
}

func (p *AnswerSet) String() string {
	var r strings.Builder
	//
	for i, a := range p.Atoms {
		if i != 0 {
			r.WriteString(" ")
		}

		r.WriteString(a.String())
	}
	//
	return r.String()
}

// Solve enumerates the answer sets of a given ground program by guess and
// check: every subset of the head atoms is tested for being a model whose
// Gelfond-Lifschitz reduct rederives exactly that subset.  This is
// deliberately exponential; it exists to close the toolchain, not to compete
// with a real solver.  At most limit answer sets are returned (zero meaning
// all of them).
func Solve(program *ast.Program, limit uint) ([]*AnswerSet, error) {
	s, err := newSearch(program)
	if err != nil {
		return nil, err
	}
	//
	var (
		answers []*AnswerSet
		count   = uint64(1) << len(s.universe)
		mask    uint64
	)
	//
	for ; mask < count; mask++ {
		if !s.isModel(mask) || !s.isStable(mask) {
			continue
		}
		//
		answers = append(answers, s.answer(mask))
		//
		if limit > 0 && uint(len(answers)) == limit {
			mask++
			break
		}
	}
	//
	log.Debugf("enumerated %d interpretations over %d atoms", mask, len(s.universe))
	//
	return answers, nil
}

// search carries the state of one enumeration: the guessable atoms (those
// derivable by some rule head) and the program under test.
type search struct {
	program *ast.Program
	// Guessable atoms, in order of first occurrence.
	universe []*ast.Atom
	// Mapping from atom keys to universe indices.
	index map[string]int
	// Whether the program contains a proper disjunction, requiring the
	// slower minimality check.
	disjunctive bool
}

func newSearch(program *ast.Program) (*search, error) {
	s := &search{program: program, index: make(map[string]int)}
	//
	for _, rule := range program.Rules {
		for _, atom := range rule.Head.HeadAtoms() {
			key := atom.String()
			//
			if _, ok := s.index[key]; !ok {
				s.index[key] = len(s.universe)
				s.universe = append(s.universe, atom)
			}
		}
		//
		if d, ok := rule.Head.(*ast.Disjunction); ok && len(d.Atoms) > 1 {
			s.disjunctive = true
		}
	}
	//
	if len(s.universe) > MAX_ATOMS {
		return nil, fmt.Errorf("%d atoms exceeds the naive solver limit (%d)", len(s.universe), MAX_ATOMS)
	}
	//
	return s, nil
}

// Package the atoms selected by a given mask into an answer set.
func (p *search) answer(mask uint64) *AnswerSet {
	var atoms []*ast.Atom
	//
	for i, a := range p.universe {
		if mask&(1<<i) != 0 {
			atoms = append(atoms, a)
		}
	}
	//
	sort.Slice(atoms, func(i, j int) bool {
		return compareAtoms(atoms[i], atoms[j]) < 0
	})
	//
	return &AnswerSet{atoms}
}

// Check whether a given atom is selected by a given mask.  Atoms outside the
// universe are underivable, hence never selected.
func (p *search) member(mask uint64, atom *ast.Atom) bool {
	i, ok := p.index[atom.String()]
	return ok && mask&(1<<i) != 0
}

// ============================================================================
// Model Checking
// ============================================================================

// Check whether the atoms selected by a given mask form a (classical) model
// of the program: every rule whose body holds must have a satisfied head.
func (p *search) isModel(mask uint64) bool {
	for _, rule := range p.program.Rules {
		if !p.bodyHolds(rule.Body, mask) {
			continue
		}
		//
		switch h := rule.Head.(type) {
		case *ast.Disjunction:
			if !p.disjunctionHolds(h, mask) {
				return false
			}
		case *ast.ChoiceHead:
			if !p.choiceHolds(h, mask) {
				return false
			}
		}
	}
	//
	return true
}

func (p *search) disjunctionHolds(head *ast.Disjunction, mask uint64) bool {
	for _, a := range head.Atoms {
		if p.member(mask, a) {
			return true
		}
	}
	//
	return false
}

// A choice head holds when the number of chosen elements lies within its
// cardinality bounds.  An element is chosen when its atom is selected and its
// condition holds.
func (p *search) choiceHolds(head *ast.ChoiceHead, mask uint64) bool {
	chosen := int64(0)
	//
	for _, e := range head.Elements {
		if p.member(mask, e.Atom) && p.bodyHolds(e.Condition, mask) {
			chosen++
		}
	}
	//
	if lower, ok := head.Lower.(*ast.Number); head.Lower != nil && (!ok || chosen < lower.Value) {
		return false
	}

	if upper, ok := head.Upper.(*ast.Number); head.Upper != nil && (!ok || chosen > upper.Value) {
		return false
	}
	//
	return true
}

// Check whether every literal of a given (ground) body holds under the atoms
// selected by a given mask.
func (p *search) bodyHolds(body []ast.Literal, mask uint64) bool {
	for _, l := range body {
		if !p.literalHolds(l, mask) {
			return false
		}
	}
	//
	return true
}

func (p *search) literalHolds(literal ast.Literal, mask uint64) bool {
	switch lit := literal.(type) {
	case *ast.PosLiteral:
		return p.member(mask, lit.Atom)
	case *ast.NegLiteral:
		return !p.member(mask, lit.Atom)
	case *ast.BuiltinLiteral:
		lv, lerr := ast.Eval(lit.Left)
		rv, rerr := ast.Eval(lit.Right)
		//
		return lerr == nil && rerr == nil && lit.Op.Test(lv, rv)
	case *ast.AggregateLiteral:
		return p.aggregateHolds(lit, mask)
	}
	//
	return false
}

// Evaluate a ground aggregate against the atoms selected by a given mask:
// collect the distinct element tuples whose condition holds, apply the
// aggregate function, and test the guards.
func (p *search) aggregateHolds(agg *ast.AggregateLiteral, mask uint64) bool {
	var (
		tuples [][]ast.Term
		seen   = make(map[string]bool)
	)
	//
	for _, e := range agg.Elements {
		if !p.bodyHolds(e.Condition, mask) {
			continue
		}
		//
		key := joinKey(e.Terms)
		//
		if !seen[key] {
			seen[key] = true
			tuples = append(tuples, e.Terms)
		}
	}
	//
	value := apply(agg.Fn, tuples)
	//
	if g := agg.LeftGuard; g != nil && !g.Op.Test(g.Bound, value) {
		return false
	}

	if g := agg.RightGuard; g != nil && !g.Op.Test(value, g.Bound) {
		return false
	}
	//
	return true
}

// Apply an aggregate function to a set of distinct tuples.  Sum considers
// only numeric first components; min and max of an empty set are #sup and
// #inf respectively.
func apply(fn ast.AggFn, tuples [][]ast.Term) ast.Term {
	switch fn {
	case ast.AggCount:
		return ast.NewNumber(int64(len(tuples)))
	case ast.AggSum:
		sum := int64(0)
		//
		for _, t := range tuples {
			if len(t) > 0 {
				if n, ok := t[0].(*ast.Number); ok {
					sum += n.Value
				}
			}
		}
		//
		return ast.NewNumber(sum)
	case ast.AggMin:
		var best ast.Term = ast.NewSupremum()
		//
		for _, t := range tuples {
			if len(t) > 0 && ast.Compare(t[0], best) < 0 {
				best = t[0]
			}
		}
		//
		return best
	case ast.AggMax:
		var best ast.Term = ast.NewInfimum()
		//
		for _, t := range tuples {
			if len(t) > 0 && ast.Compare(t[0], best) > 0 {
				best = t[0]
			}
		}
		//
		return best
	}
	//
	panic("unreachable")
}

// ============================================================================
// Stability Checking
// ============================================================================

// Check whether a model is stable: the Gelfond-Lifschitz reduct with respect
// to the selected atoms must rederive exactly those atoms.  Without proper
// disjunction the reduct has a least model, computed as a fixed point; with
// disjunction, minimality is checked by enumerating proper subsets.
func (p *search) isStable(mask uint64) bool {
	if p.disjunctive {
		// Any proper subset of the model which still satisfies the reduct
		// refutes minimality.
		sub := (mask - 1) & mask
		//
		for ; sub != mask; sub = (sub - 1) & mask {
			if p.modelsReduct(sub, mask) {
				return false
			}
			//
			if sub == 0 {
				break
			}
		}
		//
		return true
	}
	// Non-disjunctive case: compute the least model of the reduct.
	derived := uint64(0)
	//
	for changed := true; changed; {
		changed = false
		//
		for _, rule := range p.program.Rules {
			if !p.reductBodyHolds(rule.Body, derived, mask) {
				continue
			}
			//
			switch h := rule.Head.(type) {
			case *ast.Disjunction:
				for _, a := range h.Atoms {
					changed = p.derive(a, &derived) || changed
				}
			case *ast.ChoiceHead:
				// Chosen atoms are self-supported under the reduct.
				for _, e := range h.Elements {
					if p.member(mask, e.Atom) && p.reductBodyHolds(e.Condition, derived, mask) {
						changed = p.derive(e.Atom, &derived) || changed
					}
				}
			}
		}
	}
	//
	return derived == mask
}

// Check whether a given candidate subset satisfies the reduct of the program
// with respect to a given model.
func (p *search) modelsReduct(candidate uint64, mask uint64) bool {
	for _, rule := range p.program.Rules {
		if !p.reductBodyHolds(rule.Body, candidate, mask) {
			continue
		}
		//
		switch h := rule.Head.(type) {
		case *ast.Disjunction:
			if len(h.Atoms) == 0 {
				// Constraint bodies never survive into the reduct of a model,
				// but guard against them regardless.
				return false
			}
			//
			satisfied := false
			//
			for _, a := range h.Atoms {
				satisfied = satisfied || p.member(candidate, a)
			}
			//
			if !satisfied {
				return false
			}
		case *ast.ChoiceHead:
			// Each chosen element induces a rule deriving its atom.
			for _, e := range h.Elements {
				if p.member(mask, e.Atom) && p.reductBodyHolds(e.Condition, candidate, mask) && !p.member(candidate, e.Atom) {
					return false
				}
			}
		}
	}
	//
	return true
}

// Check a body under the reduct: positive literals are tested against the
// candidate set, whilst negative literals and aggregates are fixed by the
// outer model.
func (p *search) reductBodyHolds(body []ast.Literal, candidate uint64, mask uint64) bool {
	for _, l := range body {
		switch lit := l.(type) {
		case *ast.PosLiteral:
			if !p.member(candidate, lit.Atom) {
				return false
			}
		default:
			if !p.literalHolds(lit, mask) {
				return false
			}
		}
	}
	//
	return true
}

// Mark a given atom as derived, reporting whether it was fresh.  Atoms
// outside the universe are ignored (they can never be part of a model).
func (p *search) derive(atom *ast.Atom, derived *uint64) bool {
	i, ok := p.index[atom.String()]
	//
	if !ok || *derived&(1<<i) != 0 {
		return false
	}
	//
	*derived |= 1 << i
	//
	return true
}

// ============================================================================
// Helpers
// ============================================================================

// Order ground atoms by predicate name, then arity, then arguments.
func compareAtoms(lhs *ast.Atom, rhs *ast.Atom) int {
	if c := strings.Compare(lhs.Name, rhs.Name); c != 0 {
		return c
	}
	//
	if c := len(lhs.Args) - len(rhs.Args); c != 0 {
		return c
	}
	//
	for i := range lhs.Args {
		if c := ast.Compare(lhs.Args[i], rhs.Args[i]); c != 0 {
			return c
		}
	}
	//
	return 0
}

func joinKey(terms []ast.Term) string {
	var r strings.Builder
	//
	for i, t := range terms {
		if i != 0 {
			r.WriteString(",")
		}

		r.WriteString(t.String())
	}
	//
	return r.String()
}
