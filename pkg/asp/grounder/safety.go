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
	"sort"

	"github.com/consensys/go-asp/pkg/asp/ast"
)

// CheckSafety determines whether a given rule is safe, returning an error
// identifying its unsafe variables otherwise.  A rule is safe when every
// variable appearing in its head, in a negative literal, in a builtin
// literal, or in an aggregate guard also appears in some positive
// (non-aggregate) body literal, or is bound by chained equalities to such a
// variable.  Variables local to an aggregate (or choice) element must
// likewise be bound, either globally or by a positive literal of the
// element's own condition.
func CheckSafety(rule *ast.Rule) *SafetyError {
	// Compute the globally bound variables.
	bound := positiveVars(rule.Body)
	extendByEqualities(rule.Body, bound)
	// Collect every variable which safety requires to be bound.
	unsafe := make(map[string]bool)
	//
	checkHead(rule.Head, bound, unsafe)
	checkBody(rule.Body, bound, unsafe)
	// Determine overall outcome
	if len(unsafe) == 0 {
		return nil
	}
	// Report unsafe variables in lexical order.
	names := make([]string, 0, len(unsafe))
	//
	for n := range unsafe {
		names = append(names, n)
	}
	//
	sort.Strings(names)
	//
	return &SafetyError{rule, names}
}

// Compute the set of variables occurring in positive (non-aggregate) literals
// of a given body.
func positiveVars(body []ast.Literal) map[string]bool {
	vars := make(map[string]bool)
	//
	for _, l := range body {
		if pos, ok := l.(*ast.PosLiteral); ok {
			pos.Vars(vars)
		}
	}
	//
	return vars
}

// Extend a set of bound variables by a fixpoint over chained equalities: an
// equality "x = t" (or "t = x") binds x whenever every variable of t is
// already bound.
func extendByEqualities(body []ast.Literal, bound map[string]bool) {
	for changed := true; changed; {
		changed = false
		//
		for _, l := range body {
			builtin, ok := l.(*ast.BuiltinLiteral)
			if !ok || builtin.Op != ast.CmpEq {
				continue
			}
			//
			changed = propagate(builtin.Left, builtin.Right, bound) || changed
			changed = propagate(builtin.Right, builtin.Left, bound) || changed
		}
	}
}

// Propagate one direction of an equality: if the left side is an unbound
// variable and the right side is fully bound, then bind it.
func propagate(lhs ast.Term, rhs ast.Term, bound map[string]bool) bool {
	v, ok := lhs.(*ast.Variable)
	if !ok || bound[v.Name] {
		return false
	}
	//
	if !covered(rhs, bound) {
		return false
	}
	//
	bound[v.Name] = true
	//
	return true
}

// Check whether every variable of a given term is bound.
func covered(term ast.Term, bound map[string]bool) bool {
	vars := make(map[string]bool)
	term.Vars(vars)
	//
	for v := range vars {
		if !bound[v] {
			return false
		}
	}
	//
	return true
}

// Check the variables of a rule head against the bound set, recording any
// which are unsafe.
func checkHead(head ast.Head, bound map[string]bool, unsafe map[string]bool) {
	switch h := head.(type) {
	case *ast.Disjunction:
		vars := make(map[string]bool)
		h.Vars(vars)
		record(vars, bound, unsafe)
	case *ast.ChoiceHead:
		// Cardinality bounds must be bound by the body.
		vars := make(map[string]bool)
		h.BoundVars(vars)
		record(vars, bound, unsafe)
		// Elements may additionally be bound by their own condition.
		for _, e := range h.Elements {
			atomVars := make(map[string]bool)
			e.Atom.Vars(atomVars)
			checkElement(atomVars, e.Condition, bound, unsafe)
		}
	}
}

// Check the variables of a rule body against the bound set, recording any
// which are unsafe.  Positive literals are trivially safe; negative and
// builtin literals must be covered; aggregates require their guards to be
// covered globally, and their elements to be locally safe.
func checkBody(body []ast.Literal, bound map[string]bool, unsafe map[string]bool) {
	for _, l := range body {
		switch lit := l.(type) {
		case *ast.NegLiteral, *ast.BuiltinLiteral:
			vars := make(map[string]bool)
			lit.Vars(vars)
			record(vars, bound, unsafe)
		case *ast.AggregateLiteral:
			vars := make(map[string]bool)
			lit.GuardVars(vars)
			record(vars, bound, unsafe)
			//
			for _, e := range lit.Elements {
				termVars := make(map[string]bool)
				//
				for _, t := range e.Terms {
					t.Vars(termVars)
				}
				//
				checkElement(termVars, e.Condition, bound, unsafe)
			}
		}
	}
}

// Check the local safety of an aggregate (or choice) element.  The element's
// condition can bind variables of its own, hence local binding extends the
// global one; every variable of the element must then be covered.
func checkElement(vars map[string]bool, condition []ast.Literal, bound map[string]bool, unsafe map[string]bool) {
	local := make(map[string]bool)
	//
	for v := range bound {
		local[v] = true
	}
	//
	for _, l := range condition {
		if pos, ok := l.(*ast.PosLiteral); ok {
			pos.Vars(local)
		}
	}
	//
	extendByEqualities(condition, local)
	// Condition literals are checked against the local binding.
	checkBody(condition, local, unsafe)
	// As are the element's own variables.
	record(vars, local, unsafe)
}

// Record every variable of a given set which is not bound.
func record(vars map[string]bool, bound map[string]bool, unsafe map[string]bool) {
	for v := range vars {
		if !bound[v] {
			unsafe[v] = true
		}
	}
}
