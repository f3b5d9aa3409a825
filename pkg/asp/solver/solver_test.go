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
	"sort"
	"strings"
	"testing"

	"github.com/consensys/go-asp/pkg/asp/ast"
	"github.com/consensys/go-asp/pkg/asp/grounder"
	"github.com/consensys/go-asp/pkg/asp/parser"
)

func Test_Solve_01(t *testing.T) {
	// Facts admit exactly one answer set.
	check_Solve(t, "p(1). p(2).", "p(1) p(2)")
}

func Test_Solve_02(t *testing.T) {
	// Stratified negation.
	check_Solve(t, "p(1). p(2). q(1). r(X) :- p(X), not q(X).",
		"p(1) p(2) q(1) r(2)")
}

func Test_Solve_03(t *testing.T) {
	// An unbounded choice is free.
	check_Solve(t, "{ a }.", "", "a")
}

func Test_Solve_04(t *testing.T) {
	// Cardinality bounds prune.
	check_Solve(t, "1 { a } 1.", "a")
}

func Test_Solve_05(t *testing.T) {
	// Constraints prune.
	check_Solve(t, "{ a }. :- a.", "")
}

func Test_Solve_06(t *testing.T) {
	// Unsupported atoms are never stable.
	check_Solve(t, "a :- b. b :- a.", "")
}

func Test_Solve_07(t *testing.T) {
	// Choice with bounds over two elements.
	check_Solve(t, "n(1). n(2). 1 { in(X) : n(X) } 1.",
		"in(1) n(1) n(2)",
		"in(2) n(1) n(2)")
}

func Test_Solve_08(t *testing.T) {
	// Aggregate constraint forces both atoms in.
	check_Solve(t, "n(1). n(2). { in(X) : n(X) }. :- #count { X : in(X) } < 2.",
		"in(1) in(2) n(1) n(2)")
}

func Test_Solve_09(t *testing.T) {
	// Disjunctive heads admit minimal models only.
	check_Solve(t, "a | b.", "a", "b")
}

func Test_Solve_10(t *testing.T) {
	// The limit caps enumeration.
	program := ground_Program(t, "{ a }. { b }.")
	//
	answers, err := Solve(program, 1)
	if err != nil {
		t.Fatalf("solving failed: %s", err)
	}
	//
	if len(answers) != 1 {
		t.Errorf("expected 1 answer set, got %d", len(answers))
	}
}

func Test_Solve_11(t *testing.T) {
	// Sum aggregate.
	check_Solve(t, "w(a,2). w(b,3). big :- #sum { W,X : w(X,W) } >= 5.",
		"big w(a,2) w(b,3)")
}

// ===================================================================
// Test Helpers
// ===================================================================

// Ground and solve a given program, expecting the given answer sets (in some
// order).
func check_Solve(t *testing.T, input string, expected ...string) {
	program := ground_Program(t, input)
	//
	answers, err := Solve(program, 0)
	if err != nil {
		t.Fatalf("solving \"%s\" failed: %s", input, err)
	}
	//
	actual := make([]string, len(answers))
	//
	for i, a := range answers {
		actual[i] = a.String()
	}
	//
	sort.Strings(actual)
	sort.Strings(expected)
	//
	if strings.Join(actual, "\n") != strings.Join(expected, "\n") {
		t.Errorf("solving \"%s\":\nexpected:\n%s\ngot:\n%s", input,
			strings.Join(expected, "\n"), strings.Join(actual, "\n"))
	}
}

func ground_Program(t *testing.T, input string) *ast.Program {
	program, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	ground, gerr := grounder.Ground(program)
	if gerr != nil {
		t.Fatalf("grounding \"%s\" failed: %s", input, gerr)
	}
	//
	return ground
}
