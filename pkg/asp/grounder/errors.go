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
	"fmt"
	"strings"

	"github.com/consensys/go-asp/pkg/asp/ast"
)

// SafetyError indicates that a rule is not safe: it contains variables which
// no positive (non-aggregate) body literal can bind.  Safety errors are fatal
// and abort grounding before any output is produced.
type SafetyError struct {
	// Rule in violation.
	Rule *ast.Rule
	// Names of the unsafe variables, in lexical order.
	Variables []string
}

// Error implements the error interface.
func (p *SafetyError) Error() string {
	return fmt.Sprintf("unsafe variable(s) %s in rule \"%s\"",
		strings.Join(p.Variables, ", "), p.Rule)
}

// ArityMismatchError indicates that a predicate name is used with two
// different arities somewhere in the program.  This is fatal.
type ArityMismatchError struct {
	// Name of the offending predicate.
	Name string
	// The two arities observed.
	First  uint
	Second uint
}

// Error implements the error interface.
func (p *ArityMismatchError) Error() string {
	return fmt.Sprintf("predicate %s used with arities %d and %d", p.Name, p.First, p.Second)
}

// InternalError indicates that grounding produced a rule violating its own
// output invariants (e.g. a rule containing variables, or unresolved
// arithmetic within an atom).  This is fatal, and indicates a bug in the
// grounder itself.
type InternalError struct {
	// Rule in violation.
	Rule *ast.Rule
	// Description of the violated invariant.
	Msg string
}

// Error implements the error interface.
func (p *InternalError) Error() string {
	return fmt.Sprintf("internal grounding failure: %s in rule \"%s\"", p.Msg, p.Rule)
}
