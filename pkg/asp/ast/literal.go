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
	"strings"
)

// Literal represents a single conjunct of a rule body: a predicate atom
// (either positive or under default negation), a builtin comparison, or an
// aggregate.
type Literal interface {
	// IsGround determines whether this literal contains any variables.
	IsGround() bool
	// Vars adds the free variables of this literal to a given set.
	Vars(set map[string]bool)
	// Substitute replaces bound variables in this literal, producing a fresh
	// literal.
	Substitute(sub *Substitution) Literal
	// String returns this literal rendered in the standard ASP surface syntax.
	String() string
}

// CmpOp describes a builtin comparison operator.
type CmpOp uint

// The available comparison operators.  Equality and disequality apply the
// total order over ground terms, whilst the remaining operators are defined
// on numbers only.
const (
	// CmpEq is equality over ground terms.
	CmpEq CmpOp = iota
	// CmpNeq is disequality over ground terms.
	CmpNeq
	// CmpLt is numeric less-than.
	CmpLt
	// CmpLeq is numeric less-than-or-equal.
	CmpLeq
	// CmpGt is numeric greater-than.
	CmpGt
	// CmpGeq is numeric greater-than-or-equal.
	CmpGeq
)

// String returns the surface syntax of this operator.
func (p CmpOp) String() string {
	switch p {
	case CmpEq:
		return "="
	case CmpNeq:
		return "!="
	case CmpLt:
		return "<"
	case CmpLeq:
		return "<="
	case CmpGt:
		return ">"
	case CmpGeq:
		return ">="
	}
	//
	panic("unreachable")
}

// Test applies this comparison to two ground (and evaluated) terms.  Equality
// and disequality use the total term order; the ordering operators use
// numeric order and simply fail when either operand is not a number.
func (p CmpOp) Test(lhs Term, rhs Term) bool {
	switch p {
	case CmpEq:
		return Equal(lhs, rhs)
	case CmpNeq:
		return !Equal(lhs, rhs)
	}
	// Remaining operators require numeric operands.
	l, lok := lhs.(*Number)
	r, rok := rhs.(*Number)
	//
	if !lok || !rok {
		return false
	}
	//
	switch p {
	case CmpLt:
		return l.Value < r.Value
	case CmpLeq:
		return l.Value <= r.Value
	case CmpGt:
		return l.Value > r.Value
	case CmpGeq:
		return l.Value >= r.Value
	}
	//
	panic("unreachable")
}

// AggFn describes an aggregate function.
type AggFn uint

// The available aggregate functions.
const (
	// AggCount counts the distinct element tuples whose condition holds.
	AggCount AggFn = iota
	// AggSum sums the first component of each distinct element tuple.
	AggSum
	// AggMin takes the least first component over the distinct element tuples.
	AggMin
	// AggMax takes the greatest first component over the distinct element
	// tuples.
	AggMax
)

// String returns the surface syntax of this aggregate function.
func (p AggFn) String() string {
	switch p {
	case AggCount:
		return "#count"
	case AggSum:
		return "#sum"
	case AggMin:
		return "#min"
	case AggMax:
		return "#max"
	}
	//
	panic("unreachable")
}

// ============================================================================
// Positive Literal
// ============================================================================

// PosLiteral represents a positive occurrence of a predicate atom.
type PosLiteral struct{ Atom *Atom }

// NewPosLiteral constructs a positive literal over a given atom.
func NewPosLiteral(atom *Atom) *PosLiteral {
	return &PosLiteral{atom}
}

// IsGround determines whether this literal contains any variables.
func (p *PosLiteral) IsGround() bool { return p.Atom.IsGround() }

// Vars adds the free variables of this literal to a given set.
func (p *PosLiteral) Vars(set map[string]bool) { p.Atom.Vars(set) }

// Substitute replaces bound variables in this literal.
func (p *PosLiteral) Substitute(sub *Substitution) Literal {
	return &PosLiteral{p.Atom.Substitute(sub)}
}

func (p *PosLiteral) String() string {
	return p.Atom.String()
}

// ============================================================================
// Negative Literal
// ============================================================================

// NegLiteral represents an occurrence of a predicate atom under default
// negation.
type NegLiteral struct{ Atom *Atom }

// NewNegLiteral constructs a negative literal over a given atom.
func NewNegLiteral(atom *Atom) *NegLiteral {
	return &NegLiteral{atom}
}

// IsGround determines whether this literal contains any variables.
func (p *NegLiteral) IsGround() bool { return p.Atom.IsGround() }

// Vars adds the free variables of this literal to a given set.
func (p *NegLiteral) Vars(set map[string]bool) { p.Atom.Vars(set) }

// Substitute replaces bound variables in this literal.
func (p *NegLiteral) Substitute(sub *Substitution) Literal {
	return &NegLiteral{p.Atom.Substitute(sub)}
}

func (p *NegLiteral) String() string {
	return fmt.Sprintf("not %s", p.Atom)
}

// ============================================================================
// Builtin Literal
// ============================================================================

// BuiltinLiteral represents a builtin comparison between two terms.
type BuiltinLiteral struct {
	Op    CmpOp
	Left  Term
	Right Term
}

// NewBuiltinLiteral constructs a builtin comparison literal.
func NewBuiltinLiteral(op CmpOp, left Term, right Term) *BuiltinLiteral {
	return &BuiltinLiteral{op, left, right}
}

// IsGround determines whether this literal contains any variables.
func (p *BuiltinLiteral) IsGround() bool {
	return p.Left.IsGround() && p.Right.IsGround()
}

// Vars adds the free variables of this literal to a given set.
func (p *BuiltinLiteral) Vars(set map[string]bool) {
	p.Left.Vars(set)
	p.Right.Vars(set)
}

// Substitute replaces bound variables in this literal.
func (p *BuiltinLiteral) Substitute(sub *Substitution) Literal {
	return &BuiltinLiteral{p.Op, p.Left.Substitute(sub), p.Right.Substitute(sub)}
}

func (p *BuiltinLiteral) String() string {
	return fmt.Sprintf("%s%s%s", p.Left, p.Op, p.Right)
}

// ============================================================================
// Aggregate Literal
// ============================================================================

// Guard bounds an aggregate by a term under a comparison operator.
type Guard struct {
	Op    CmpOp
	Bound Term
}

// NewGuard constructs an aggregate guard.
func NewGuard(op CmpOp, bound Term) *Guard {
	return &Guard{op, bound}
}

// AggregateElement pairs a tuple of terms with the condition under which that
// tuple contributes to the enclosing aggregate.
type AggregateElement struct {
	Terms     []Term
	Condition []Literal
}

// NewAggregateElement constructs an aggregate element.
func NewAggregateElement(terms []Term, condition []Literal) *AggregateElement {
	return &AggregateElement{terms, condition}
}

// IsGround determines whether this element contains any variables.
func (p *AggregateElement) IsGround() bool {
	if !allGround(p.Terms) {
		return false
	}
	//
	for _, l := range p.Condition {
		if !l.IsGround() {
			return false
		}
	}
	//
	return true
}

// Vars adds the free variables of this element to a given set.
func (p *AggregateElement) Vars(set map[string]bool) {
	for _, t := range p.Terms {
		t.Vars(set)
	}
	//
	for _, l := range p.Condition {
		l.Vars(set)
	}
}

// Substitute replaces bound variables in this element.
func (p *AggregateElement) Substitute(sub *Substitution) *AggregateElement {
	condition := make([]Literal, len(p.Condition))
	//
	for i, l := range p.Condition {
		condition[i] = l.Substitute(sub)
	}
	//
	return &AggregateElement{substituteAll(p.Terms, sub), condition}
}

func (p *AggregateElement) String() string {
	var r strings.Builder
	//
	r.WriteString(joinTerms(p.Terms, ","))
	//
	if len(p.Condition) > 0 {
		r.WriteString(" : ")
		r.WriteString(joinLiterals(p.Condition, ", "))
	}
	//
	return r.String()
}

// AggregateLiteral represents an aggregate over a set of elements, bounded on
// either side by an optional guard.
type AggregateLiteral struct {
	Fn         AggFn
	LeftGuard  *Guard
	RightGuard *Guard
	Elements   []*AggregateElement
}

// NewAggregateLiteral constructs an aggregate literal.
func NewAggregateLiteral(fn AggFn, left *Guard, right *Guard, elements []*AggregateElement) *AggregateLiteral {
	return &AggregateLiteral{fn, left, right, elements}
}

// IsGround determines whether this literal contains any variables.
func (p *AggregateLiteral) IsGround() bool {
	if p.LeftGuard != nil && !p.LeftGuard.Bound.IsGround() {
		return false
	}

	if p.RightGuard != nil && !p.RightGuard.Bound.IsGround() {
		return false
	}
	//
	for _, e := range p.Elements {
		if !e.IsGround() {
			return false
		}
	}
	//
	return true
}

// Vars adds the free variables of this literal to a given set.  Observe that
// this includes the local variables of its elements.
func (p *AggregateLiteral) Vars(set map[string]bool) {
	if p.LeftGuard != nil {
		p.LeftGuard.Bound.Vars(set)
	}

	if p.RightGuard != nil {
		p.RightGuard.Bound.Vars(set)
	}
	//
	for _, e := range p.Elements {
		e.Vars(set)
	}
}

// GuardVars adds the free variables of the guards of this literal to a given
// set.  These are exactly the variables which safety requires to be bound
// outside the aggregate.
func (p *AggregateLiteral) GuardVars(set map[string]bool) {
	if p.LeftGuard != nil {
		p.LeftGuard.Bound.Vars(set)
	}

	if p.RightGuard != nil {
		p.RightGuard.Bound.Vars(set)
	}
}

// Substitute replaces bound variables in this literal.
func (p *AggregateLiteral) Substitute(sub *Substitution) Literal {
	var (
		left     = p.LeftGuard
		right    = p.RightGuard
		elements = make([]*AggregateElement, len(p.Elements))
	)
	//
	if left != nil {
		left = &Guard{left.Op, left.Bound.Substitute(sub)}
	}

	if right != nil {
		right = &Guard{right.Op, right.Bound.Substitute(sub)}
	}
	//
	for i, e := range p.Elements {
		elements[i] = e.Substitute(sub)
	}
	//
	return &AggregateLiteral{p.Fn, left, right, elements}
}

func (p *AggregateLiteral) String() string {
	var r strings.Builder
	//
	if p.LeftGuard != nil {
		r.WriteString(fmt.Sprintf("%s %s ", p.LeftGuard.Bound, p.LeftGuard.Op))
	}
	//
	r.WriteString(p.Fn.String())
	r.WriteString(" { ")
	//
	for i, e := range p.Elements {
		if i != 0 {
			r.WriteString("; ")
		}

		r.WriteString(e.String())
	}
	//
	r.WriteString(" }")
	//
	if p.RightGuard != nil {
		r.WriteString(fmt.Sprintf(" %s %s", p.RightGuard.Op, p.RightGuard.Bound))
	}
	//
	return r.String()
}

// ============================================================================
// Helpers
// ============================================================================

// Render a given array of literals, separated by a given string.
func joinLiterals(literals []Literal, sep string) string {
	var r strings.Builder
	//
	for i, l := range literals {
		if i != 0 {
			r.WriteString(sep)
		}

		r.WriteString(l.String())
	}
	//
	return r.String()
}
