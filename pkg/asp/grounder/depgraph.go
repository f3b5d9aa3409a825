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
)

// Dependency records a labeled edge of the predicate dependency graph.
type Dependency struct {
	// Target predicate identifier.
	Target uint
	// Whether the source occurs under default negation.
	Negative bool
}

// DependencyGraph is the directed graph over the predicate symbols of a
// program, with an edge from b to h (labeled positive or negative) whenever b
// occurs in the body of a rule deriving h.  Predicates are interned to dense
// integer identifiers in order of first occurrence, with the graph itself a
// flat adjacency structure over those identifiers.
type DependencyGraph struct {
	// Mapping from predicate names to identifiers.
	index map[string]uint
	// Mapping from identifiers back to predicate names.
	names []string
	// Adjacency lists, indexed by source identifier.
	edges [][]Dependency
}

// NewDependencyGraph constructs the dependency graph of a given program.
func NewDependencyGraph(program *ast.Program) *DependencyGraph {
	g := &DependencyGraph{index: make(map[string]uint)}
	//
	for _, rule := range program.Rules {
		g.addRule(rule)
	}
	//
	return g
}

// Size returns the number of predicates in this graph.
func (p *DependencyGraph) Size() uint {
	return uint(len(p.names))
}

// Name returns the predicate name associated with a given identifier.
func (p *DependencyGraph) Name(id uint) string {
	return p.names[id]
}

// Id returns the identifier of a given predicate name (which must occur in
// the program).
func (p *DependencyGraph) Id(name string) (uint, bool) {
	id, ok := p.index[name]
	return id, ok
}

// Components computes the strongly connected components of this graph, in a
// topological order of the condensation: every component appears after all
// components it depends upon.  Predicates within a component are given in
// order of their identifiers.  The computation is an iterative Tarjan
// traversal, hence safe on deep graphs.
func (p *DependencyGraph) Components() [][]uint {
	t := &tarjan{
		graph:   p,
		number:  make([]int, len(p.names)),
		lowlink: make([]int, len(p.names)),
		onstack: make([]bool, len(p.names)),
	}
	//
	for i := range t.number {
		t.number[i] = -1
	}
	//
	for i := uint(0); i < p.Size(); i++ {
		if t.number[i] < 0 {
			t.visit(i)
		}
	}
	// Tarjan emits components in reverse topological order.
	reverse(t.components)
	//
	return t.components
}

// Stratified checks whether negation ever occurs within a component, given
// the components of this graph.  A non-stratified program is still accepted:
// negative literals inside a component are resolved against the atoms
// derived so far, which is the semi-naive approximation.
func (p *DependencyGraph) Stratified(components [][]uint) bool {
	comp := make([]int, len(p.names))
	//
	for i, c := range components {
		for _, id := range c {
			comp[id] = i
		}
	}
	//
	for from, edges := range p.edges {
		for _, e := range edges {
			if e.Negative && comp[from] == comp[e.Target] {
				return false
			}
		}
	}
	//
	return true
}

// Register a predicate name, returning its identifier.
func (p *DependencyGraph) intern(name string) uint {
	if id, ok := p.index[name]; ok {
		return id
	}
	//
	id := uint(len(p.names))
	p.index[name] = id
	p.names = append(p.names, name)
	p.edges = append(p.edges, nil)
	//
	return id
}

// Add an edge from a given body predicate to a given head predicate.
func (p *DependencyGraph) addEdge(from uint, to uint, negative bool) {
	p.edges[from] = append(p.edges[from], Dependency{to, negative})
}

// Add all edges arising from a given rule.
func (p *DependencyGraph) addRule(rule *ast.Rule) {
	heads := make([]uint, 0, 1)
	//
	for _, atom := range rule.Head.HeadAtoms() {
		heads = append(heads, p.intern(atom.Name))
	}
	// Head predicates of one rule are grounded together; linking them pairwise
	// forces them into a single component.
	for i := 1; i < len(heads); i++ {
		p.addEdge(heads[0], heads[i], false)
		p.addEdge(heads[i], heads[0], false)
	}
	// Body occurrences depend into every head predicate.
	p.addLiterals(rule.Body, heads)
	// Choice element conditions guard their own atom.
	if choice, ok := rule.Head.(*ast.ChoiceHead); ok {
		for _, e := range choice.Elements {
			p.addLiterals(e.Condition, []uint{p.index[e.Atom.Name]})
		}
	}
}

// Add edges from every predicate occurrence in a given sequence of literals
// to every given head predicate.
func (p *DependencyGraph) addLiterals(literals []ast.Literal, heads []uint) {
	for _, l := range literals {
		switch lit := l.(type) {
		case *ast.PosLiteral:
			p.addOccurrence(lit.Atom, false, heads)
		case *ast.NegLiteral:
			p.addOccurrence(lit.Atom, true, heads)
		case *ast.AggregateLiteral:
			for _, e := range lit.Elements {
				p.addLiterals(e.Condition, heads)
			}
		}
	}
}

func (p *DependencyGraph) addOccurrence(atom *ast.Atom, negative bool, heads []uint) {
	from := p.intern(atom.Name)
	//
	for _, h := range heads {
		p.addEdge(from, h, negative)
	}
}

// ============================================================================
// Strongly Connected Components
// ============================================================================

type tarjan struct {
	graph *DependencyGraph
	// Visitation number of each node, or -1 if unvisited.
	number []int
	// Least visitation number reachable from each node.
	lowlink []int
	// Whether each node is currently on the component stack.
	onstack []bool
	// Component stack.
	stack []uint
	// Next visitation number.
	counter int
	// Completed components.
	components [][]uint
}

// A frame of the explicit traversal stack, recording how far through its
// adjacency list a given node has progressed.
type tarjanFrame struct {
	node uint
	edge int
}

// Visit a given root node, along with everything reachable from it.
func (t *tarjan) visit(root uint) {
	frames := []tarjanFrame{{root, 0}}
	t.push(root)
	//
	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		edges := t.graph.edges[f.node]
		//
		if f.edge < len(edges) {
			next := edges[f.edge].Target
			f.edge++
			// Descend into unvisited targets.
			if t.number[next] < 0 {
				t.push(next)
				frames = append(frames, tarjanFrame{next, 0})
			} else if t.onstack[next] {
				t.lowlink[f.node] = min(t.lowlink[f.node], t.number[next])
			}
		} else {
			// Node exhausted; pop a component if this is a root.
			if t.lowlink[f.node] == t.number[f.node] {
				t.pop(f.node)
			}
			//
			node := f.node
			frames = frames[:len(frames)-1]
			// Propagate lowlink to parent.
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				t.lowlink[parent] = min(t.lowlink[parent], t.lowlink[node])
			}
		}
	}
}

// Push a node onto the component stack, numbering it.
func (t *tarjan) push(node uint) {
	t.number[node] = t.counter
	t.lowlink[node] = t.counter
	t.counter++
	t.onstack[node] = true
	t.stack = append(t.stack, node)
}

// Pop a completed component rooted at a given node.
func (t *tarjan) pop(root uint) {
	var component []uint
	//
	for {
		node := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onstack[node] = false
		component = append(component, node)
		//
		if node == root {
			break
		}
	}
	// Order members by identifier for determinism.
	sortUints(component)
	//
	t.components = append(t.components, component)
}

func reverse(components [][]uint) {
	for i, j := 0, len(components)-1; i < j; i, j = i+1, j-1 {
		components[i], components[j] = components[j], components[i]
	}
}

func sortUints(items []uint) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j-1] > items[j]; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}
