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

// Rule represents a single rule of a logic program, comprising a head and a
// body.  A rule with an empty body is a fact, whilst a rule whose head is an
// empty disjunction is an integrity constraint.
type Rule struct {
	Head Head
	Body []Literal
}

// NewRule constructs a rule from a given head and body.
func NewRule(head Head, body []Literal) *Rule {
	return &Rule{head, body}
}

// NewFact constructs a rule deriving a given atom unconditionally.
func NewFact(atom *Atom) *Rule {
	return &Rule{NewDisjunction(atom), nil}
}

// NewConstraint constructs an integrity constraint over a given body.
func NewConstraint(body []Literal) *Rule {
	return &Rule{NewDisjunction(), body}
}

// IsFact checks whether this rule has an empty body.
func (p *Rule) IsFact() bool {
	return len(p.Body) == 0
}

// IsConstraint checks whether this rule has an empty head.
func (p *Rule) IsConstraint() bool {
	d, ok := p.Head.(*Disjunction)
	return ok && d.IsEmpty()
}

// IsGround determines whether this rule contains any variables.
func (p *Rule) IsGround() bool {
	if !p.Head.IsGround() {
		return false
	}
	//
	for _, l := range p.Body {
		if !l.IsGround() {
			return false
		}
	}
	//
	return true
}

// Vars adds the free variables of this rule to a given set.
func (p *Rule) Vars(set map[string]bool) {
	p.Head.Vars(set)
	//
	for _, l := range p.Body {
		l.Vars(set)
	}
}

func (p *Rule) String() string {
	var (
		r    strings.Builder
		head = p.Head.String()
	)
	//
	r.WriteString(head)
	//
	if len(p.Body) > 0 {
		if head != "" {
			r.WriteString(" ")
		}

		r.WriteString(":- ")
		r.WriteString(joinLiterals(p.Body, ", "))
	}
	//
	r.WriteString(".")
	// Done
	return r.String()
}

// Program represents an ordered sequence of rules, together with any
// directives encountered alongside them.  Directives are opaque to grounding
// and simply pass through to the output.
type Program struct {
	Rules      []*Rule
	Directives []*Directive
}

// NewProgram constructs an empty program.
func NewProgram() *Program {
	return &Program{}
}

// AddRule appends a rule to this program.
func (p *Program) AddRule(rule *Rule) {
	p.Rules = append(p.Rules, rule)
}

// AddDirective appends a directive to this program.
func (p *Program) AddDirective(directive *Directive) {
	p.Directives = append(p.Directives, directive)
}

// IsGround determines whether every rule of this program is ground.
func (p *Program) IsGround() bool {
	for _, r := range p.Rules {
		if !r.IsGround() {
			return false
		}
	}
	//
	return true
}

func (p *Program) String() string {
	var r strings.Builder
	//
	for _, rule := range p.Rules {
		r.WriteString(rule.String())
		r.WriteString("\n")
	}
	//
	for _, d := range p.Directives {
		r.WriteString(d.String())
		r.WriteString("\n")
	}
	//
	return r.String()
}

// Directive represents a statement which grounding does not interpret, such
// as "#show p/1.".  Its original text is retained verbatim.
type Directive struct {
	Text string
}

// NewDirective constructs a directive from its source text.
func NewDirective(text string) *Directive {
	return &Directive{text}
}

func (p *Directive) String() string {
	return p.Text
}

// assert interface conformances
var _ Head = &Disjunction{}
var _ Head = &ChoiceHead{}
var _ Literal = &PosLiteral{}
var _ Literal = &NegLiteral{}
var _ Literal = &BuiltinLiteral{}
var _ Literal = &AggregateLiteral{}
var _ fmt.Stringer = &Rule{}
