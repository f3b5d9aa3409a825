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
	"strings"
	"testing"

	"github.com/consensys/go-asp/pkg/asp/parser"
)

// ===================================================================
// Safe Rules
// ===================================================================

func Test_Safety_01(t *testing.T) {
	check_Safe(t, "p(1).")
	check_Safe(t, "q(X) :- p(X).")
	check_Safe(t, "q(X) :- p(X), not r(X).")
}

func Test_Safety_02(t *testing.T) {
	// Chained equalities bind.
	check_Safe(t, "q(Y) :- p(X), Y = X+1.")
	check_Safe(t, "q(Z) :- p(X), Y = X+1, Z = Y*2.")
	check_Safe(t, "q(Y) :- p(X), X+1 = Y.")
}

func Test_Safety_03(t *testing.T) {
	// Aggregate elements may be bound by their own condition.
	check_Safe(t, "big :- 2 <= #count { Y : n(Y) }.")
	check_Safe(t, "{ in(X) : n(X) }.")
	check_Safe(t, "s :- #sum { W : w(X,W), X < 3 } >= 4.")
}

func Test_Safety_04(t *testing.T) {
	// Anonymous variables need no binding.
	check_Safe(t, "q :- p(_,_).")
}

// ===================================================================
// Unsafe Rules
// ===================================================================

func Test_Unsafety_01(t *testing.T) {
	check_Unsafe(t, "p(X).", "X")
	check_Unsafe(t, "q(X) :- not p(X).", "X")
	check_Unsafe(t, "q(X,Y) :- p(X).", "Y")
}

func Test_Unsafety_02(t *testing.T) {
	// Variables occurring only in builtins are unsafe.
	check_Unsafe(t, "q :- X < 3.", "X")
	// An equality cannot bind from an unbound right-hand side.
	check_Unsafe(t, "q(Y) :- p(X), Y = Z+1.", "Y", "Z")
}

func Test_Unsafety_03(t *testing.T) {
	// Aggregates do not bind outside variables.
	check_Unsafe(t, "q(Y) :- 1 <= #count { Y : n(Y) }.", "Y")
	// Guards must be bound outside the aggregate.
	check_Unsafe(t, "q :- N <= #count { Y : n(Y) }.", "N")
}

func Test_Unsafety_04(t *testing.T) {
	// Choice element atoms must be bound globally or by their condition.
	check_Unsafe(t, "{ in(X) }.", "X")
	// As must choice bounds.
	check_Unsafe(t, "N { in(X) : n(X) }.", "N")
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Safe(t *testing.T, input string) {
	program, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	for _, rule := range program.Rules {
		if serr := CheckSafety(rule); serr != nil {
			t.Errorf("expected \"%s\" to be safe: %s", input, serr)
		}
	}
}

func check_Unsafe(t *testing.T, input string, variables ...string) {
	program, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	serr := CheckSafety(program.Rules[0])
	//
	if serr == nil {
		t.Errorf("expected \"%s\" to be unsafe", input)
	} else if strings.Join(serr.Variables, ",") != strings.Join(variables, ",") {
		t.Errorf("expected unsafe variables %v in \"%s\", got %v", variables, input, serr.Variables)
	}
}
