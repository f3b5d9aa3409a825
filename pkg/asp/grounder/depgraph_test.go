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
	"testing"

	"github.com/consensys/go-asp/pkg/asp/parser"
)

func Test_DepGraph_01(t *testing.T) {
	// Linear chain: p before q before r.
	check_ComponentOrder(t, "p(1). q(X) :- p(X). r(X) :- q(X).", "p", "q", "r")
}

func Test_DepGraph_02(t *testing.T) {
	// Mutual recursion collapses into one component.
	check_ComponentOrder(t, "e(1). p(X) :- e(X). p(X) :- q(X). q(X) :- p(X).", "e", "p q")
}

func Test_DepGraph_03(t *testing.T) {
	// Negation is just another edge for ordering purposes.  Observe that p
	// and q are independent, hence their relative order falls out of the
	// traversal rather than the condensation.
	check_ComponentOrder(t, "p(1). q(1). r(X) :- p(X), not q(X).", "q", "p", "r")
}

func Test_DepGraph_04(t *testing.T) {
	// Aggregate conditions induce dependencies.
	check_ComponentOrder(t, "n(1). big :- 2 <= #count { X : n(X) }.", "n", "big")
}

func Test_DepGraph_05(t *testing.T) {
	// Head predicates of one rule share a component.
	check_ComponentOrder(t, "c(1). a | b :- c(1).", "c", "a b")
}

func Test_DepGraph_06(t *testing.T) {
	// Choice element conditions guard their own atom.
	check_ComponentOrder(t, "n(1). { in(X) : n(X) }.", "n", "in")
}

func Test_DepGraph_07(t *testing.T) {
	// Stratification: negation within a component is detected.
	check_Stratified(t, "p(1). q(X) :- p(X), not r(X).", true)
	check_Stratified(t, "a :- not b. b :- not a.", false)
	check_Stratified(t, "p :- not p.", false)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Stratified(t *testing.T, input string, expected bool) {
	program, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	graph := NewDependencyGraph(program)
	//
	if actual := graph.Stratified(graph.Components()); actual != expected {
		t.Errorf("expected stratified=%t for \"%s\"", expected, input)
	}
}

// Check the components of a program's dependency graph arrive in the
// expected order, with each expected component given as a space-separated
// list of predicate names (in identifier order).
func check_ComponentOrder(t *testing.T, input string, expected ...string) {
	program, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	graph := NewDependencyGraph(program)
	components := graph.Components()
	//
	if len(components) != len(expected) {
		t.Fatalf("expected %d components, got %d", len(expected), len(components))
	}
	//
	for i, comp := range components {
		actual := ""
		//
		for j, id := range comp {
			if j != 0 {
				actual += " "
			}

			actual += graph.Name(id)
		}
		//
		if actual != expected[i] {
			t.Errorf("component %d: expected \"%s\", got \"%s\"", i, expected[i], actual)
		}
	}
}
