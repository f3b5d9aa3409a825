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
	"strings"
	"testing"

	"github.com/consensys/go-asp/pkg/asp/ast"
	"github.com/consensys/go-asp/pkg/asp/parser"
)

// ===================================================================
// End-to-End Scenarios
// ===================================================================

func Test_Ground_01(t *testing.T) {
	// Facts only.
	check_Ground(t, "p(1). p(2).",
		"p(1).",
		"p(2).")
}

func Test_Ground_02(t *testing.T) {
	// Simple rule.
	check_Ground(t, "p(1). p(2). q(X) :- p(X).",
		"p(1).",
		"p(2).",
		"q(1) :- p(1).",
		"q(2) :- p(2).")
}

func Test_Ground_03(t *testing.T) {
	// Builtin filter.
	check_Ground(t, "n(1). n(2). n(3). r(X,Y) :- n(X), n(Y), X<Y.",
		"n(1).",
		"n(2).",
		"n(3).",
		"r(1,2) :- n(1), n(2), 1<2.",
		"r(1,3) :- n(1), n(3), 1<3.",
		"r(2,3) :- n(2), n(3), 2<3.")
}

func Test_Ground_04(t *testing.T) {
	// Choice head.
	check_Ground(t, "n(0). n(1). 1 { q(X,0); q(X,1) } :- n(X).",
		"n(0).",
		"n(1).",
		"1 { q(0,0); q(0,1) } :- n(0).",
		"1 { q(1,0); q(1,1) } :- n(1).")
}

func Test_Ground_05(t *testing.T) {
	// Arithmetic in a constraint.
	check_Ground(t, "n(1). n(2). n(3). :- n(X), n(Y), Y = X + 1.",
		"n(1).",
		"n(2).",
		"n(3).",
		":- n(1), n(2), 2=1+1.",
		":- n(2), n(3), 3=2+1.")
}

func Test_Ground_06(t *testing.T) {
	// Negation across a stratum.
	check_Ground(t, "p(1). p(2). q(1). r(X) :- p(X), not q(X).",
		"q(1).",
		"p(1).",
		"p(2).",
		"r(2) :- p(2), not q(2).")
}

func Test_Ground_07(t *testing.T) {
	// Transitive closure requires a fixed point.
	check_Ground(t, "e(1,2). e(2,3). t(X,Y) :- e(X,Y). t(X,Z) :- e(X,Y), t(Y,Z).",
		"e(1,2).",
		"e(2,3).",
		"t(1,2) :- e(1,2).",
		"t(2,3) :- e(2,3).",
		"t(1,3) :- e(1,2), t(2,3).")
}

func Test_Ground_08(t *testing.T) {
	// Aggregates are expanded, not collapsed.
	check_Ground(t, "n(1). n(2). big :- 2 <= #count { X : n(X) }.",
		"n(1).",
		"n(2).",
		"big :- 2 <= #count { 1 : n(1); 2 : n(2) }.")
}

func Test_Ground_09(t *testing.T) {
	// Division by zero silently discards the substitution.
	check_Ground(t, "n(0). n(2). q(X) :- n(X), Y = 4/X, n(Y).",
		"n(0).",
		"n(2).",
		"q(2) :- n(2), 2=4/2, n(2).")
}

func Test_Ground_10(t *testing.T) {
	// References to predicates without defining rules never match.
	check_Ground(t, "q(X) :- p(X).")
}

func Test_Ground_11(t *testing.T) {
	// Anonymous variables.
	check_Ground(t, "p(1,2). p(2,3). q :- p(_,_).",
		"p(1,2).",
		"p(2,3).",
		"q :- p(1,2).",
		"q :- p(2,3).")
}

func Test_Ground_12(t *testing.T) {
	// Facts with arithmetic heads are reduced.
	check_Ground(t, "p(1+1).",
		"p(2).")
}

func Test_Ground_13(t *testing.T) {
	// Choice over a condition, feeding a downstream constraint.
	check_Ground(t, "n(1). n(2). { in(X) : n(X) }. :- in(X), n(X), X > 1.",
		"n(1).",
		"n(2).",
		"{ in(1) : n(1); in(2) : n(2) }.",
		":- in(2), n(2), 2>1.")
}

// ===================================================================
// Invariants
// ===================================================================

func Test_GroundInvariant_01(t *testing.T) {
	// Output is ground and free of unresolved arithmetic.
	inputs := []string{
		"p(1). p(2). q(X) :- p(X), X < 2.",
		"n(1). n(2). { in(X) : n(X) }.",
		"e(1,2). t(X,Y) :- e(X,Y). t(X,Z) :- e(X,Y), t(Y,Z).",
		"n(1). q(f(X+1)) :- n(X).",
	}
	//
	for _, input := range inputs {
		ground := ground_Program(t, input)
		//
		for _, rule := range ground.Rules {
			if err := checkInvariants(rule); err != nil {
				t.Errorf("grounding \"%s\": %s", input, err)
			}
		}
	}
}

func Test_GroundInvariant_02(t *testing.T) {
	// Determinism: two runs produce structurally identical output.
	input := "n(1). n(2). n(3). e(1,2). e(2,3). t(X,Y) :- e(X,Y). t(X,Z) :- e(X,Y), t(Y,Z). r(X,Y) :- n(X), n(Y), X<Y."
	//
	first := ground_Program(t, input)
	second := ground_Program(t, input)
	//
	if first.String() != second.String() {
		t.Errorf("grounding is not deterministic:\n%s\nvs\n%s", first, second)
	}
}

func Test_GroundInvariant_03(t *testing.T) {
	// Idempotence: grounding ground output changes nothing (modulo order).
	inputs := []string{
		"p(1). p(2). q(X) :- p(X).",
		"n(0). n(1). 1 { q(X,0); q(X,1) } :- n(X).",
		"p(1). p(2). q(1). r(X) :- p(X), not q(X).",
		"n(1). n(2). n(3). :- n(X), n(Y), Y = X + 1.",
	}
	//
	for _, input := range inputs {
		once := ground_Program(t, input)
		twice := ground_Program(t, once.String())
		//
		if !sameRules(once, twice) {
			t.Errorf("grounding \"%s\" is not idempotent:\n%s\nvs\n%s", input, once, twice)
		}
	}
}

func Test_GroundInvariant_04(t *testing.T) {
	// Monotonicity: adding a fact only ever adds rules.
	base := ground_Program(t, "p(1). p(2). q(X) :- p(X).")
	extended := ground_Program(t, "p(1). p(2). q(X) :- p(X). p(3).")
	//
	lines := make(map[string]bool)
	//
	for _, rule := range extended.Rules {
		lines[rule.String()] = true
	}
	//
	for _, rule := range base.Rules {
		if !lines[rule.String()] {
			t.Errorf("rule \"%s\" lost after adding a fact", rule)
		}
	}
}

func Test_GroundInvariant_05(t *testing.T) {
	// Directives pass through untouched.
	ground := ground_Program(t, "p(1). #show p/1.")
	//
	if len(ground.Directives) != 1 || ground.Directives[0].String() != "#show p/1." {
		t.Errorf("expected directive to pass through, got %v", ground.Directives)
	}
}

// ===================================================================
// Errors
// ===================================================================

func Test_GroundError_01(t *testing.T) {
	// Safety violations abort grounding.
	program, err := parser.ParseString("q(X) :- not p(X).")
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	//
	ground, gerr := Ground(program)
	//
	if gerr == nil {
		t.Fatalf("expected safety error")
	} else if _, ok := gerr.(*SafetyError); !ok {
		t.Errorf("expected safety error, got %s", gerr)
	} else if ground != nil {
		t.Errorf("expected no output on fatal error")
	}
}

func Test_GroundError_02(t *testing.T) {
	// Arity mismatches abort grounding.
	program, err := parser.ParseString("p(1). q :- p(1,2).")
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	//
	_, gerr := Ground(program)
	//
	if gerr == nil {
		t.Fatalf("expected arity error")
	} else if _, ok := gerr.(*ArityMismatchError); !ok {
		t.Errorf("expected arity error, got %s", gerr)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

// Ground a given program, expecting the given rules (in order).
func check_Ground(t *testing.T, input string, expected ...string) {
	ground := ground_Program(t, input)
	//
	actual := make([]string, len(ground.Rules))
	//
	for i, rule := range ground.Rules {
		actual[i] = rule.String()
	}
	//
	if strings.Join(actual, "\n") != strings.Join(expected, "\n") {
		t.Errorf("grounding \"%s\":\nexpected:\n%s\ngot:\n%s", input,
			strings.Join(expected, "\n"), strings.Join(actual, "\n"))
	}
}

func ground_Program(t *testing.T, input string) *ast.Program {
	program, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	ground, gerr := Ground(program)
	if gerr != nil {
		t.Fatalf("grounding \"%s\" failed: %s", input, gerr)
	}
	//
	return ground
}

// Compare the rules of two programs as sets.
func sameRules(lhs *ast.Program, rhs *ast.Program) bool {
	l := make([]string, len(lhs.Rules))
	r := make([]string, len(rhs.Rules))
	//
	for i, rule := range lhs.Rules {
		l[i] = rule.String()
	}
	//
	for i, rule := range rhs.Rules {
		r[i] = rule.String()
	}
	//
	sort.Strings(l)
	sort.Strings(r)
	//
	return strings.Join(l, "\n") == strings.Join(r, "\n")
}
