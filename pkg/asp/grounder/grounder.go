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
	log "github.com/sirupsen/logrus"
)

// Ground transforms a given program into an equivalent ground program: every
// rule is instantiated over the Herbrand universe, with instantiation driven
// bottom-up through the components of the predicate dependency graph.  Within
// each component, rules are re-instantiated until their derivation sets reach
// a fixed point.  Duplicate ground rules are elided, and the output order is
// stable across runs on identical input.  Grounding fails (producing no
// output at all) on an unsafe rule, on inconsistent predicate arities, or on
// an internal invariant violation.
func Ground(program *ast.Program) (*ast.Program, error) {
	// Predicate arities must be consistent across the program.
	if err := checkArities(program); err != nil {
		return nil, err
	}
	// Every rule must be safe.
	for _, rule := range program.Rules {
		if err := CheckSafety(rule); err != nil {
			return nil, err
		}
	}
	// Determine the component order.
	var (
		graph      = NewDependencyGraph(program)
		components = graph.Components()
		st         = newState()
	)
	//
	log.Debugf("grounding %d rules over %d predicates in %d components",
		len(program.Rules), graph.Size(), len(components))
	//
	if !graph.Stratified(components) {
		log.Debug("program is not stratified; negation within a component resolves semi-naively")
	}
	// Map each predicate onto its component.
	compOf := make([]int, graph.Size())
	//
	for i, comp := range components {
		for _, id := range comp {
			compOf[id] = i
		}
	}
	// Ground each component in turn.  A rule belongs to the component of its
	// head predicates (which always share a component); integrity constraints
	// derive nothing, and are grounded in a final pass of their own.
	for i, comp := range components {
		var rules []*ast.Rule
		//
		for _, rule := range program.Rules {
			heads := rule.Head.HeadAtoms()
			//
			if len(heads) > 0 {
				id, _ := graph.Id(heads[0].Name)
				//
				if compOf[id] == i {
					rules = append(rules, rule)
				}
			}
		}
		//
		if err := st.groundComponent(rules); err != nil {
			return nil, err
		}
		// Freeze the component's derivation sets.
		for _, id := range comp {
			st.db.Set(graph.Name(id)).Freeze()
		}
	}
	// Ground the integrity constraints against the completed database.
	var constraints []*ast.Rule
	//
	for _, rule := range program.Rules {
		if len(rule.Head.HeadAtoms()) == 0 {
			constraints = append(constraints, rule)
		}
	}
	//
	if err := st.groundComponent(constraints); err != nil {
		return nil, err
	}
	// Sanity check the output invariants.
	for _, rule := range st.output {
		if err := checkInvariants(rule); err != nil {
			return nil, err
		}
	}
	//
	log.Debugf("grounding produced %d rules", len(st.output))
	//
	return &ast.Program{Rules: st.output, Directives: program.Directives}, nil
}

// ============================================================================
// Driver State
// ============================================================================

// state carries the evolving output of a grounding run: the derivation sets,
// the ground rules emitted so far, and the dedup index over them.
type state struct {
	db     *Database
	dedup  *hash.Set[hash.StringKey]
	output []*ast.Rule
	// Whether any derivation set grew during the current pass.
	grew bool
	// Choice-head atoms awaiting their component's completion.
	pending []*ast.Atom
}

func newState() *state {
	return &state{db: NewDatabase(), dedup: hash.NewSet[hash.StringKey](256)}
}

// Ground a single component: iterate its rules to a fixed point, emitting
// every fresh ground instance and growing the derivation sets of the
// component's predicates.  Choice-head atoms are withheld from derivation
// sets until the component completes (the pessimistic regime), at which point
// they become visible to later components as possible atoms.
func (p *state) groundComponent(rules []*ast.Rule) error {
	passes := 0
	//
	for {
		passes++
		p.grew = false
		//
		for _, rule := range rules {
			if err := NewInstantiator(rule, p.db, p.record).Run(); err != nil {
				return err
			}
		}
		//
		if !p.grew {
			break
		}
	}
	// Flush withheld choice atoms.
	for _, atom := range p.pending {
		p.db.Set(atom.Name).Add(atom)
	}
	//
	p.pending = nil
	//
	if len(rules) > 0 {
		log.Debugf("component of %d rules reached fixed point after %d passes", len(rules), passes)
	}
	//
	return nil
}

// Record a single ground instance: append it to the output (unless it
// duplicates an earlier instance) and feed its head atoms into the
// appropriate derivation sets.
func (p *state) record(rule *ast.Rule, heads []*ast.Atom, choice bool) error {
	key := hash.NewStringKey(rule.String())
	//
	if !p.dedup.Insert(key) {
		p.output = append(p.output, rule)
	}
	//
	if choice {
		p.pending = append(p.pending, heads...)
		return nil
	}
	//
	for _, atom := range heads {
		if p.db.Set(atom.Name).Add(atom) {
			p.grew = true
		}
	}
	//
	return nil
}

// ============================================================================
// Static Checks
// ============================================================================

// Check that every use of a predicate name across a given program agrees on
// its arity.
func checkArities(program *ast.Program) error {
	arities := make(map[string]uint)
	//
	visit := func(atom *ast.Atom) error {
		if prev, ok := arities[atom.Name]; ok && prev != atom.Arity() {
			return &ArityMismatchError{atom.Name, prev, atom.Arity()}
		}
		//
		arities[atom.Name] = atom.Arity()
		//
		return nil
	}
	//
	for _, rule := range program.Rules {
		if err := visitAtoms(rule, visit); err != nil {
			return err
		}
	}
	//
	return nil
}

// Apply a given visitor to every atom of a given rule, including those
// within aggregates and choice elements.
func visitAtoms(rule *ast.Rule, visit func(*ast.Atom) error) error {
	for _, atom := range rule.Head.HeadAtoms() {
		if err := visit(atom); err != nil {
			return err
		}
	}
	//
	if choice, ok := rule.Head.(*ast.ChoiceHead); ok {
		for _, e := range choice.Elements {
			if err := visitLiteralAtoms(e.Condition, visit); err != nil {
				return err
			}
		}
	}
	//
	return visitLiteralAtoms(rule.Body, visit)
}

func visitLiteralAtoms(literals []ast.Literal, visit func(*ast.Atom) error) error {
	for _, l := range literals {
		switch lit := l.(type) {
		case *ast.PosLiteral:
			if err := visit(lit.Atom); err != nil {
				return err
			}
		case *ast.NegLiteral:
			if err := visit(lit.Atom); err != nil {
				return err
			}
		case *ast.AggregateLiteral:
			for _, e := range lit.Elements {
				if err := visitLiteralAtoms(e.Condition, visit); err != nil {
					return err
				}
			}
		}
	}
	//
	return nil
}

// Check the output invariants of a single emitted rule: it must be ground,
// and no atom (nor aggregate element, nor guard, nor choice bound) may retain
// unresolved arithmetic.  Builtin body literals are exempt from the latter,
// since they are emitted with their original structure intact.
func checkInvariants(rule *ast.Rule) error {
	if !rule.IsGround() {
		return &InternalError{rule, "non-ground rule emitted"}
	}
	// Check atoms are free of arithmetic.
	err := visitAtoms(rule, func(atom *ast.Atom) error {
		for _, arg := range atom.Args {
			if containsArith(arg) {
				return &InternalError{rule, "unresolved arithmetic"}
			}
		}
		//
		return nil
	})
	//
	if err != nil {
		return err
	}
	// As are choice bounds.
	if choice, ok := rule.Head.(*ast.ChoiceHead); ok {
		if (choice.Lower != nil && containsArith(choice.Lower)) ||
			(choice.Upper != nil && containsArith(choice.Upper)) {
			return &InternalError{rule, "unresolved arithmetic"}
		}
	}
	// As are aggregate element tuples and guards.
	for _, l := range rule.Body {
		if agg, ok := l.(*ast.AggregateLiteral); ok {
			if aggregateContainsArith(agg) {
				return &InternalError{rule, "unresolved arithmetic"}
			}
		}
	}
	//
	return nil
}

func aggregateContainsArith(agg *ast.AggregateLiteral) bool {
	if agg.LeftGuard != nil && containsArith(agg.LeftGuard.Bound) {
		return true
	}

	if agg.RightGuard != nil && containsArith(agg.RightGuard.Bound) {
		return true
	}
	//
	for _, e := range agg.Elements {
		for _, t := range e.Terms {
			if containsArith(t) {
				return true
			}
		}
	}
	//
	return false
}

// Check whether a given term contains any arithmetic node.
func containsArith(term ast.Term) bool {
	switch t := term.(type) {
	case *ast.Arith, *ast.UnaryMinus:
		return true
	case *ast.FuncTerm:
		for _, arg := range t.Args {
			if containsArith(arg) {
				return true
			}
		}
	case *ast.TupleTerm:
		for _, arg := range t.Args {
			if containsArith(arg) {
				return true
			}
		}
	}
	//
	return false
}
