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
package parser

import (
	"strconv"
	"strings"

	"github.com/consensys/go-asp/pkg/asp/ast"
	"github.com/consensys/go-asp/pkg/util/source"
)

// Parse a given source file into a program, or return a syntax error if the
// file is malformed.  The accepted grammar is the ASP-Core-2 surface syntax
// minus weak constraints; statements beginning with an unrecognised "#" word
// (such as "#show") are retained verbatim as directives.
func Parse(srcfile *source.File) (*ast.Program, *source.SyntaxError) {
	tokens, err := NewScanner(srcfile).Collect()
	if err != nil {
		return nil, err
	}
	//
	p := &Parser{srcfile, tokens, 0, 0}
	//
	return p.parseProgram()
}

// ParseString parses a program held in a given string, which is useful for
// testing.
func ParseString(input string) (*ast.Program, *source.SyntaxError) {
	return Parse(source.NewSourceFile("<string>", []byte(input)))
}

// Parser represents a parser in the process of parsing a given token stream
// into a program.
type Parser struct {
	srcfile *source.File
	tokens  []Token
	// Current position within the token stream
	index int
	// Counter for numbering anonymous variables
	anon uint
}

// ============================================================================
// Statements
// ============================================================================

func (p *Parser) parseProgram() (*ast.Program, *source.SyntaxError) {
	program := ast.NewProgram()
	//
	for p.lookahead().Kind != END_OF {
		if err := p.parseStatement(program); err != nil {
			return nil, err
		}
	}
	//
	return program, nil
}

func (p *Parser) parseStatement(program *ast.Program) *source.SyntaxError {
	var (
		head ast.Head = ast.NewDisjunction()
		body []ast.Literal
		err  *source.SyntaxError
	)
	//
	tok := p.lookahead()
	// Directives are captured verbatim, rather than parsed.
	if tok.Kind == HASHWORD && p.isDirectiveWord(tok) {
		directive, err := p.parseDirective()
		if err != nil {
			return err
		}
		//
		program.AddDirective(directive)
		//
		return nil
	}
	// Otherwise, this is a rule of some form.
	if tok.Kind != IMPLIES {
		if head, err = p.parseHead(); err != nil {
			return err
		}
	}
	//
	if p.matches(IMPLIES) {
		p.index++
		//
		if body, err = p.parseLiterals(); err != nil {
			return err
		}
	}
	//
	if _, err := p.expect(DOT, "expected '.'"); err != nil {
		return err
	}
	//
	program.AddRule(ast.NewRule(head, body))
	//
	return nil
}

// Capture a directive verbatim, from its leading "#" word up to (and
// including) its terminating dot.
func (p *Parser) parseDirective() (*ast.Directive, *source.SyntaxError) {
	startTok := p.lookahead()
	start := startTok.Span.Start()
	//
	for {
		tok := p.lookahead()
		//
		switch tok.Kind {
		case END_OF:
			return nil, p.error(tok, "unterminated directive")
		case DOT:
			p.index++
			span := source.NewSpan(start, tok.Span.End())
			//
			return ast.NewDirective(p.srcfile.Text(span)), nil
		default:
			p.index++
		}
	}
}

// Check whether a given "#" word introduces a directive, as opposed to an
// aggregate or the #inf / #sup terms.
func (p *Parser) isDirectiveWord(tok Token) bool {
	switch p.text(tok) {
	case "#count", "#sum", "#min", "#max", "#inf", "#sup":
		return false
	}
	//
	return true
}

// ============================================================================
// Heads
// ============================================================================

func (p *Parser) parseHead() (ast.Head, *source.SyntaxError) {
	// A head opening with a brace is an unbounded choice.
	if p.matches(LBRACE) {
		return p.parseChoiceHead(nil)
	}
	//
	tok := p.lookahead()
	//
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	// A term followed by a brace is the lower bound of a choice.
	if p.matches(LBRACE) {
		return p.parseChoiceHead(term)
	}
	// Otherwise, this is a disjunction of one or more atoms.
	atom, err := p.termToAtom(term, tok)
	if err != nil {
		return nil, err
	}
	//
	atoms := []*ast.Atom{atom}
	//
	for p.matches(PIPE) {
		p.index++
		//
		tok = p.lookahead()
		//
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		//
		atom, err := p.termToAtom(term, tok)
		if err != nil {
			return nil, err
		}
		//
		atoms = append(atoms, atom)
	}
	//
	return ast.NewDisjunction(atoms...), nil
}

func (p *Parser) parseChoiceHead(lower ast.Term) (ast.Head, *source.SyntaxError) {
	var (
		upper    ast.Term
		elements []*ast.ChoiceElement
	)
	// Skip '{'
	p.index++
	//
	for !p.matches(RBRACE) {
		element, err := p.parseChoiceElement()
		if err != nil {
			return nil, err
		}
		//
		elements = append(elements, element)
		//
		if p.matches(SEMICOLON) {
			p.index++
		} else {
			break
		}
	}
	//
	if _, err := p.expect(RBRACE, "expected '}'"); err != nil {
		return nil, err
	}
	// An upper bound may follow the closing brace.
	if p.startsTerm() {
		var err *source.SyntaxError
		//
		if upper, err = p.parseTerm(); err != nil {
			return nil, err
		}
	}
	//
	return ast.NewChoiceHead(lower, upper, elements), nil
}

func (p *Parser) parseChoiceElement() (*ast.ChoiceElement, *source.SyntaxError) {
	var condition []ast.Literal
	//
	tok := p.lookahead()
	//
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	//
	atom, err := p.termToAtom(term, tok)
	if err != nil {
		return nil, err
	}
	//
	if p.matches(COLON) {
		p.index++
		//
		if condition, err = p.parseLiterals(); err != nil {
			return nil, err
		}
	}
	//
	return ast.NewChoiceElement(atom, condition), nil
}

// ============================================================================
// Literals
// ============================================================================

// Parse a comma-separated sequence of literals.
func (p *Parser) parseLiterals() ([]ast.Literal, *source.SyntaxError) {
	var literals []ast.Literal
	//
	for {
		literal, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		//
		literals = append(literals, literal)
		//
		if !p.matches(COMMA) {
			return literals, nil
		}
		// Skip ','
		p.index++
	}
}

func (p *Parser) parseLiteral() (ast.Literal, *source.SyntaxError) {
	tok := p.lookahead()
	// Default negation
	if tok.Kind == IDENTIFIER && p.text(tok) == "not" {
		p.index++
		//
		tok = p.lookahead()
		//
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		//
		atom, err := p.termToAtom(term, tok)
		if err != nil {
			return nil, err
		}
		//
		return ast.NewNegLiteral(atom), nil
	}
	// Aggregate without a left guard
	if tok.Kind == HASHWORD && p.isAggregateWord(tok) {
		return p.parseAggregate(nil)
	}
	// Otherwise, parse a term and disambiguate on what follows.
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	//
	if op, ok := comparator(p.lookahead().Kind); ok {
		p.index++
		// A left-guarded aggregate, or a builtin comparison.
		if next := p.lookahead(); next.Kind == HASHWORD && p.isAggregateWord(next) {
			return p.parseAggregate(ast.NewGuard(op, term))
		}
		//
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		//
		return ast.NewBuiltinLiteral(op, term, rhs), nil
	}
	//
	atom, err := p.termToAtom(term, tok)
	if err != nil {
		return nil, err
	}
	//
	return ast.NewPosLiteral(atom), nil
}

func (p *Parser) parseAggregate(left *ast.Guard) (ast.Literal, *source.SyntaxError) {
	var (
		right    *ast.Guard
		elements []*ast.AggregateElement
	)
	//
	fn := p.aggregateFn(p.lookahead())
	p.index++
	//
	if _, err := p.expect(LBRACE, "expected '{'"); err != nil {
		return nil, err
	}
	//
	for !p.matches(RBRACE) {
		element, err := p.parseAggregateElement()
		if err != nil {
			return nil, err
		}
		//
		elements = append(elements, element)
		//
		if p.matches(SEMICOLON) {
			p.index++
		} else {
			break
		}
	}
	//
	if _, err := p.expect(RBRACE, "expected '}'"); err != nil {
		return nil, err
	}
	// A right guard may follow the closing brace.
	if op, ok := comparator(p.lookahead().Kind); ok {
		p.index++
		//
		bound, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		//
		right = ast.NewGuard(op, bound)
	}
	//
	return ast.NewAggregateLiteral(fn, left, right, elements), nil
}

func (p *Parser) parseAggregateElement() (*ast.AggregateElement, *source.SyntaxError) {
	var (
		terms     []ast.Term
		condition []ast.Literal
	)
	//
	for {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		//
		terms = append(terms, term)
		//
		if !p.matches(COMMA) {
			break
		}
		// Skip ','
		p.index++
	}
	//
	if p.matches(COLON) {
		p.index++
		//
		var err *source.SyntaxError
		//
		if condition, err = p.parseLiterals(); err != nil {
			return nil, err
		}
	}
	//
	return ast.NewAggregateElement(terms, condition), nil
}

// Check whether a given "#" word names an aggregate function.
func (p *Parser) isAggregateWord(tok Token) bool {
	switch p.text(tok) {
	case "#count", "#sum", "#min", "#max":
		return true
	}
	//
	return false
}

func (p *Parser) aggregateFn(tok Token) ast.AggFn {
	switch p.text(tok) {
	case "#count":
		return ast.AggCount
	case "#sum":
		return ast.AggSum
	case "#min":
		return ast.AggMin
	case "#max":
		return ast.AggMax
	}
	//
	panic("unreachable")
}

// ============================================================================
// Terms
// ============================================================================

func (p *Parser) parseTerm() (ast.Term, *source.SyntaxError) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	//
	for p.matches(PLUS) || p.matches(MINUS) {
		op := ast.OpAdd
		if p.matches(MINUS) {
			op = ast.OpSub
		}
		//
		p.index++
		//
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		//
		lhs = ast.NewArith(op, lhs, rhs)
	}
	//
	return lhs, nil
}

func (p *Parser) parseMultiplicative() (ast.Term, *source.SyntaxError) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	//
	for p.matches(STAR) || p.matches(SLASH) || p.matches(BSLASH) {
		var op ast.ArithOp
		//
		switch p.lookahead().Kind {
		case STAR:
			op = ast.OpMul
		case SLASH:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		//
		p.index++
		//
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		//
		lhs = ast.NewArith(op, lhs, rhs)
	}
	//
	return lhs, nil
}

func (p *Parser) parseUnary() (ast.Term, *source.SyntaxError) {
	if p.matches(MINUS) {
		p.index++
		//
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// Trivial constant folding
		if n, ok := arg.(*ast.Number); ok {
			return ast.NewNumber(-n.Value), nil
		}
		//
		return ast.NewUnaryMinus(arg), nil
	}
	//
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Term, *source.SyntaxError) {
	tok := p.lookahead()
	//
	switch tok.Kind {
	case NUMBER:
		value, err := strconv.ParseInt(p.text(tok), 10, 64)
		if err != nil {
			return nil, p.error(tok, "invalid number")
		}
		//
		p.index++
		//
		return ast.NewNumber(value), nil
	case STRING:
		p.index++
		return ast.NewString(unquote(p.text(tok))), nil
	case VARIABLE:
		p.index++
		//
		if p.text(tok) == "_" {
			p.anon++
			return ast.NewAnonymous(p.anon), nil
		}
		//
		return ast.NewVariable(p.text(tok)), nil
	case IDENTIFIER:
		return p.parseSymbolic(tok)
	case HASHWORD:
		switch p.text(tok) {
		case "#inf":
			p.index++
			return ast.NewInfimum(), nil
		case "#sup":
			p.index++
			return ast.NewSupremum(), nil
		}
		//
		return nil, p.error(tok, "unexpected directive")
	case LPAREN:
		return p.parseParenthesised()
	}
	//
	return nil, p.error(tok, "expected term")
}

// Parse a symbolic constant or function term.
func (p *Parser) parseSymbolic(tok Token) (ast.Term, *source.SyntaxError) {
	name := p.text(tok)
	p.index++
	// Without an argument list, this is a symbolic constant.
	if !p.matches(LPAREN) {
		return ast.NewConstant(name), nil
	}
	// Skip '('
	p.index++
	//
	args, err := p.parseTerms()
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.expect(RPAREN, "expected ')'"); err != nil {
		return nil, err
	}
	//
	return ast.NewFuncTerm(name, args...), nil
}

// Parse a parenthesised term, which is either a grouping or a tuple.
func (p *Parser) parseParenthesised() (ast.Term, *source.SyntaxError) {
	// Skip '('
	p.index++
	//
	args, err := p.parseTerms()
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.expect(RPAREN, "expected ')'"); err != nil {
		return nil, err
	}
	// A single parenthesised term is just a grouping.
	if len(args) == 1 {
		return args[0], nil
	}
	//
	return ast.NewTupleTerm(args...), nil
}

// Parse a comma-separated sequence of terms.
func (p *Parser) parseTerms() ([]ast.Term, *source.SyntaxError) {
	var terms []ast.Term
	//
	for {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		//
		terms = append(terms, term)
		//
		if !p.matches(COMMA) {
			return terms, nil
		}
		// Skip ','
		p.index++
	}
}

// Convert a parsed term into a predicate atom, which must be either a
// symbolic constant (a propositional atom) or a function term.
func (p *Parser) termToAtom(term ast.Term, tok Token) (*ast.Atom, *source.SyntaxError) {
	switch t := term.(type) {
	case *ast.Constant:
		return ast.NewAtom(t.Name), nil
	case *ast.FuncTerm:
		return ast.NewAtom(t.Name, t.Args...), nil
	}
	//
	return nil, p.error(tok, "expected atom")
}

// Check whether the current token could begin a term.
func (p *Parser) startsTerm() bool {
	tok := p.lookahead()
	//
	switch tok.Kind {
	case NUMBER, STRING, VARIABLE, IDENTIFIER, MINUS, LPAREN:
		return true
	case HASHWORD:
		text := p.text(tok)
		return text == "#inf" || text == "#sup"
	}
	//
	return false
}

// Map a comparison token onto its operator.
func comparator(kind uint) (ast.CmpOp, bool) {
	switch kind {
	case EQUALS:
		return ast.CmpEq, true
	case NOT_EQUALS:
		return ast.CmpNeq, true
	case LESS_THAN:
		return ast.CmpLt, true
	case LESS_EQUALS:
		return ast.CmpLeq, true
	case GREATER_THAN:
		return ast.CmpGt, true
	case GREATER_EQUALS:
		return ast.CmpGeq, true
	}
	//
	return 0, false
}

// Strip the enclosing quotes from a string literal, and resolve any escape
// sequences.
func unquote(text string) string {
	var r strings.Builder
	// Drop enclosing quotes
	runes := []rune(text)
	runes = runes[1 : len(runes)-1]
	//
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			i++
			//
			switch runes[i] {
			case 'n':
				r.WriteRune('\n')
			default:
				r.WriteRune(runes[i])
			}
		} else {
			r.WriteRune(runes[i])
		}
	}
	//
	return r.String()
}

// ============================================================================
// Token Stream Helpers
// ============================================================================

// Peek at the current token without advancing.
func (p *Parser) lookahead() Token {
	return p.tokens[p.index]
}

// Check whether the current token has a given kind.
func (p *Parser) matches(kind uint) bool {
	return p.tokens[p.index].Kind == kind
}

// Consume a token of the given kind, or report an error.
func (p *Parser) expect(kind uint, msg string) (Token, *source.SyntaxError) {
	tok := p.lookahead()
	//
	if tok.Kind != kind {
		return Token{}, p.error(tok, msg)
	}
	//
	p.index++
	//
	return tok, nil
}

// Extract the source text of a given token.
func (p *Parser) text(tok Token) string {
	return p.srcfile.Text(tok.Span)
}

// Construct a syntax error at a given token.
func (p *Parser) error(tok Token, msg string) *source.SyntaxError {
	return p.srcfile.SyntaxError(tok.Span, msg)
}
