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

// Emitter receives every ground instance produced for a rule, along with the
// atoms its head can derive and whether that head is a choice.
type Emitter func(rule *ast.Rule, heads []*ast.Atom, choice bool) error

// Instantiator enumerates the satisfying substitutions for the body of a
// single rule against the current derivation sets, emitting one ground rule
// per substitution.  The body is first arranged into a matching order:
// positive literals ordered greedily by how many unbound variables of the
// remaining literals they bind, builtins pushed down to the earliest point at
// which their variables are bound, aggregates once their guards are bound,
// and negative literals last.  Enumeration is a backtracking search over that
// order, threading a single substitution whose bindings are unwound via its
// trail.
type Instantiator struct {
	rule *ast.Rule
	db   *Database
	emit Emitter
	sub  *ast.Substitution
}

// NewInstantiator constructs an instantiator for a given rule.
func NewInstantiator(rule *ast.Rule, db *Database, emit Emitter) *Instantiator {
	return &Instantiator{rule, db, emit, ast.NewSubstitution()}
}

// Run enumerates every satisfying substitution, emitting each resulting
// ground rule.
func (p *Instantiator) Run() error {
	var (
		steps    = p.orderLiterals(p.rule.Body)
		grounded = make([]ast.Literal, len(p.rule.Body))
	)
	//
	return p.search(steps, 0, grounded, func() error {
		return p.emitInstance(grounded)
	})
}

// ============================================================================
// Matching Order
// ============================================================================

// A step pairs a body literal with its position in the original body, so that
// ground instances can be emitted with their literals in source order.
type step struct {
	lit   ast.Literal
	index int
}

// Arrange the literals of a body (or of an element condition) into the
// matching order described above.
func (p *Instantiator) orderLiterals(body []ast.Literal) []step {
	var (
		positives  []step
		builtins   []step
		aggregates []step
		negatives  []step
		steps      []step
		bound      = make(map[string]bool)
	)
	//
	for i, l := range body {
		switch l.(type) {
		case *ast.PosLiteral:
			positives = append(positives, step{l, i})
		case *ast.BuiltinLiteral:
			builtins = append(builtins, step{l, i})
		case *ast.AggregateLiteral:
			aggregates = append(aggregates, step{l, i})
		default:
			negatives = append(negatives, step{l, i})
		}
	}
	// Push down any builtins evaluable (or binding) from the outset.
	steps, builtins = placeBuiltins(steps, builtins, bound)
	// Greedily sequence the positive literals.
	for len(positives) > 0 {
		var (
			best      = 0
			bestScore = -1
			bestSize  = uint(0)
		)
		//
		for i, candidate := range positives {
			score := p.score(candidate, positives, builtins, aggregates, negatives, bound)
			size := p.db.Set(candidate.lit.(*ast.PosLiteral).Atom.Name).Size()
			// Prefer higher scores, breaking ties by smaller derivation sets.
			if score > bestScore || (score == bestScore && size < bestSize) {
				best, bestScore, bestSize = i, score, size
			}
		}
		//
		chosen := positives[best]
		positives = append(positives[:best], positives[best+1:]...)
		steps = append(steps, chosen)
		chosen.lit.Vars(bound)
		// Push down any builtins now evaluable.
		steps, builtins = placeBuiltins(steps, builtins, bound)
	}
	// Aggregates follow once every outside variable is bound.
	steps = append(steps, aggregates...)
	// Negative literals come last.
	steps = append(steps, negatives...)
	// Any builtin still unplaced is evaluated last.  In an element condition it
	// may mention variables bound outside the element (which this ordering does
	// not track); otherwise it contains unsafe variables, and simply discards
	// every candidate.
	steps = append(steps, builtins...)
	//
	return steps
}

// Score a candidate positive literal by the number of its currently-unbound
// variables which also occur in the other literals yet to be matched.
func (p *Instantiator) score(candidate step, positives []step, builtins []step,
	aggregates []step, negatives []step, bound map[string]bool) int {
	var (
		own    = make(map[string]bool)
		others = make(map[string]bool)
	)
	//
	candidate.lit.Vars(own)
	//
	for _, s := range positives {
		if s.index != candidate.index {
			s.lit.Vars(others)
		}
	}
	//
	for _, groups := range [][]step{builtins, aggregates, negatives} {
		for _, s := range groups {
			s.lit.Vars(others)
		}
	}
	//
	score := 0
	//
	for v := range own {
		if !bound[v] && others[v] {
			score++
		}
	}
	//
	return score
}

// Place every builtin whose variables are bound, together with any binding
// equality whose opposite side is bound, repeating until no further builtin
// can be placed.  Returns the extended steps and the remaining builtins.
func placeBuiltins(steps []step, builtins []step, bound map[string]bool) ([]step, []step) {
	for changed := true; changed; {
		changed = false
		//
		for i := 0; i < len(builtins); i++ {
			lit := builtins[i].lit.(*ast.BuiltinLiteral)
			//
			if !placeable(lit, bound) {
				continue
			}
			// Record any variable this equality binds.
			lit.Vars(bound)
			//
			steps = append(steps, builtins[i])
			builtins = append(builtins[:i], builtins[i+1:]...)
			changed = true
			i--
		}
	}
	//
	return steps, builtins
}

// Check whether a builtin can be evaluated once the given variables are
// bound.  An equality additionally acts as a binder when one side is a
// variable and the other side is fully bound.
func placeable(lit *ast.BuiltinLiteral, bound map[string]bool) bool {
	vars := make(map[string]bool)
	lit.Vars(vars)
	//
	unbound := 0
	//
	for v := range vars {
		if !bound[v] {
			unbound++
		}
	}
	//
	if unbound == 0 {
		return true
	}
	// An equality against a single unbound variable is a binder.
	if lit.Op == ast.CmpEq && unbound == 1 {
		if v, ok := lit.Left.(*ast.Variable); ok && !bound[v.Name] {
			return true
		}

		if v, ok := lit.Right.(*ast.Variable); ok && !bound[v.Name] {
			return true
		}
	}
	//
	return false
}

// ============================================================================
// Search
// ============================================================================

// Enumerate every substitution satisfying the given steps, invoking a given
// continuation for each.  The grounded array accumulates, at each literal's
// original body position, its ground image under the substitution built so
// far.
func (p *Instantiator) search(steps []step, i int, grounded []ast.Literal, yield func() error) error {
	if i == len(steps) {
		return yield()
	}
	//
	switch lit := steps[i].lit.(type) {
	case *ast.PosLiteral:
		return p.searchPositive(lit, steps, i, grounded, yield)
	case *ast.BuiltinLiteral:
		return p.searchBuiltin(lit, steps, i, grounded, yield)
	case *ast.NegLiteral:
		return p.searchNegative(lit, steps, i, grounded, yield)
	case *ast.AggregateLiteral:
		glit, ok, err := p.groundAggregate(lit)
		//
		if err != nil {
			return err
		} else if !ok {
			// Guard evaluation failed; discard this substitution.
			return nil
		}
		//
		grounded[steps[i].index] = glit
		//
		return p.search(steps, i+1, grounded, yield)
	}
	//
	panic("unreachable")
}

// Match a positive literal against each atom of its predicate's derivation
// set in turn, recursing on success.  The set is snapshotted up front, since
// instances emitted below can extend it.
func (p *Instantiator) searchPositive(lit *ast.PosLiteral, steps []step, i int,
	grounded []ast.Literal, yield func() error) error {
	atoms := p.db.Set(lit.Atom.Name).Atoms()
	//
	for _, atom := range atoms {
		mark := p.sub.Mark()
		//
		if matchAtom(lit.Atom, atom, p.sub) {
			grounded[steps[i].index] = ast.NewPosLiteral(atom)
			//
			if err := p.search(steps, i+1, grounded, yield); err != nil {
				return err
			}
		}
		//
		p.sub.Undo(mark)
	}
	//
	return nil
}

// Evaluate a builtin under the current substitution.  An equality whose one
// side is an unbound variable binds that variable; any other evaluation
// failure discards the substitution silently.
func (p *Instantiator) searchBuiltin(lit *ast.BuiltinLiteral, steps []step, i int,
	grounded []ast.Literal, yield func() error) error {
	var (
		lhs      = lit.Left.Substitute(p.sub)
		rhs      = lit.Right.Substitute(p.sub)
		lv, lerr = ast.Eval(lhs)
		rv, rerr = ast.Eval(rhs)
	)
	// Binding equalities
	if lit.Op == ast.CmpEq && lerr == nil && rerr != nil {
		return p.bindEquality(rhs, lv, steps, i, grounded, yield)
	} else if lit.Op == ast.CmpEq && rerr == nil && lerr != nil {
		return p.bindEquality(lhs, rv, steps, i, grounded, yield)
	} else if lerr != nil || rerr != nil {
		// Discard this substitution.
		return nil
	} else if !lit.Op.Test(lv, rv) {
		// Comparison failed, so backtrack.
		return nil
	}
	// Comparison held; emit with the literal's structure intact.
	grounded[steps[i].index] = lit.Substitute(p.sub)
	//
	return p.search(steps, i+1, grounded, yield)
}

// Bind one side of an equality to the value of the other.  Anything other
// than a directly unbound variable discards the substitution.
func (p *Instantiator) bindEquality(side ast.Term, value ast.Term, steps []step, i int,
	grounded []ast.Literal, yield func() error) error {
	v, ok := side.(*ast.Variable)
	//
	if !ok {
		return nil
	}
	//
	mark := p.sub.Mark()
	p.sub.Bind(v.Name, value)
	//
	grounded[steps[i].index] = steps[i].lit.Substitute(p.sub)
	//
	if err := p.search(steps, i+1, grounded, yield); err != nil {
		return err
	}
	//
	p.sub.Undo(mark)
	//
	return nil
}

// Test a negative literal.  Its atom must be ground under the current
// substitution; the literal holds exactly when that atom is absent from the
// derivation set of its predicate.  For predicates of earlier components
// that set is complete; for predicates of the same component it holds the
// atoms derived so far, which is the semi-naive approximation.
func (p *Instantiator) searchNegative(lit *ast.NegLiteral, steps []step, i int,
	grounded []ast.Literal, yield func() error) error {
	atom := lit.Atom.Substitute(p.sub)
	//
	if !atom.IsGround() {
		// Unsafe; cannot happen once safety checking has passed.
		return nil
	}
	//
	atom, err := atom.Evaluate()
	if err != nil {
		// Discard this substitution.
		return nil
	}
	//
	if p.db.Set(atom.Name).Contains(atom) {
		// Atom is derivable, so the literal fails.
		return nil
	}
	//
	grounded[steps[i].index] = ast.NewNegLiteral(atom)
	//
	return p.search(steps, i+1, grounded, yield)
}

// ============================================================================
// Aggregates
// ============================================================================

// Ground an aggregate literal under the current substitution: evaluate its
// guards, and expand its elements by enumerating every satisfying
// substitution of each element's condition.  The aggregate itself is not
// collapsed to a value, since derivation sets may still grow within the
// current component; the solver resolves its truth.  Returns false if a
// guard fails to evaluate, discarding the substitution.
func (p *Instantiator) groundAggregate(lit *ast.AggregateLiteral) (*ast.AggregateLiteral, bool, error) {
	left, ok := p.evalGuard(lit.LeftGuard)
	if !ok {
		return nil, false, nil
	}
	//
	right, ok := p.evalGuard(lit.RightGuard)
	if !ok {
		return nil, false, nil
	}
	//
	var (
		elements []*ast.AggregateElement
		seen     = hash.NewSet[hash.StringKey](16)
	)
	//
	for _, e := range lit.Elements {
		var (
			element  = e
			steps    = p.orderLiterals(e.Condition)
			grounded = make([]ast.Literal, len(e.Condition))
		)
		//
		err := p.search(steps, 0, grounded, func() error {
			instance, ok := p.groundElement(element, grounded)
			//
			if ok && !seen.Insert(hash.NewStringKey(instance.String())) {
				elements = append(elements, instance)
			}
			//
			return nil
		})
		//
		if err != nil {
			return nil, false, err
		}
	}
	//
	return ast.NewAggregateLiteral(lit.Fn, left, right, elements), true, nil
}

// Ground the term tuple of an aggregate element under the current (locally
// extended) substitution, pairing it with the ground image of its condition.
// Evaluation failure discards this instance of the element.
func (p *Instantiator) groundElement(element *ast.AggregateElement, grounded []ast.Literal) (*ast.AggregateElement, bool) {
	terms := make([]ast.Term, len(element.Terms))
	//
	for i, t := range element.Terms {
		value, err := ast.Eval(t.Substitute(p.sub))
		if err != nil {
			return nil, false
		}

		terms[i] = value
	}
	//
	condition := make([]ast.Literal, len(grounded))
	copy(condition, grounded)
	//
	return ast.NewAggregateElement(terms, condition), true
}

// Evaluate an aggregate guard under the current substitution.
func (p *Instantiator) evalGuard(guard *ast.Guard) (*ast.Guard, bool) {
	if guard == nil {
		return nil, true
	}
	//
	value, err := ast.Eval(guard.Bound.Substitute(p.sub))
	if err != nil {
		return nil, false
	}
	//
	return ast.NewGuard(guard.Op, value), true
}

// ============================================================================
// Emission
// ============================================================================

// Emit the ground instance of the rule arising from the current (complete)
// substitution.  Head atoms are evaluated down to ground terms; choice heads
// are expanded element-wise in the same manner as aggregates.  Evaluation
// failure anywhere discards the substitution silently.
func (p *Instantiator) emitInstance(grounded []ast.Literal) error {
	body := make([]ast.Literal, len(grounded))
	copy(body, grounded)
	//
	switch h := p.rule.Head.(type) {
	case *ast.Disjunction:
		atoms := make([]*ast.Atom, len(h.Atoms))
		//
		for i, a := range h.Atoms {
			atom, err := a.Substitute(p.sub).Evaluate()
			if err != nil {
				return nil
			}

			atoms[i] = atom
		}
		//
		return p.emit(ast.NewRule(ast.NewDisjunction(atoms...), body), atoms, false)
	case *ast.ChoiceHead:
		return p.emitChoice(h, body)
	}
	//
	panic("unreachable")
}

// Expand and emit a choice head under the current substitution.
func (p *Instantiator) emitChoice(head *ast.ChoiceHead, body []ast.Literal) error {
	var (
		lower, upper ast.Term
		elements     []*ast.ChoiceElement
		atoms        []*ast.Atom
		seen         = hash.NewSet[hash.StringKey](16)
	)
	// Evaluate cardinality bounds
	if head.Lower != nil {
		value, err := ast.Eval(head.Lower.Substitute(p.sub))
		if err != nil {
			return nil
		}

		lower = value
	}
	//
	if head.Upper != nil {
		value, err := ast.Eval(head.Upper.Substitute(p.sub))
		if err != nil {
			return nil
		}

		upper = value
	}
	// Expand elements
	for _, e := range head.Elements {
		var (
			element  = e
			steps    = p.orderLiterals(e.Condition)
			grounded = make([]ast.Literal, len(e.Condition))
		)
		//
		err := p.search(steps, 0, grounded, func() error {
			atom, err := element.Atom.Substitute(p.sub).Evaluate()
			if err != nil {
				return nil
			}
			//
			condition := make([]ast.Literal, len(grounded))
			copy(condition, grounded)
			//
			instance := ast.NewChoiceElement(atom, condition)
			//
			if !seen.Insert(hash.NewStringKey(instance.String())) {
				elements = append(elements, instance)
				atoms = append(atoms, atom)
			}
			//
			return nil
		})
		//
		if err != nil {
			return err
		}
	}
	//
	rule := ast.NewRule(ast.NewChoiceHead(lower, upper, elements), body)
	//
	return p.emit(rule, atoms, true)
}

// Match the arguments of a pattern atom pointwise against a ground atom of
// the same predicate.
func matchAtom(pattern *ast.Atom, target *ast.Atom, sub *ast.Substitution) bool {
	if len(pattern.Args) != len(target.Args) {
		return false
	}
	//
	for i := range pattern.Args {
		if !ast.Match(pattern.Args[i], target.Args[i], sub) {
			return false
		}
	}
	//
	return true
}
