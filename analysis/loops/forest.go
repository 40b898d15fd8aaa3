// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loops

import (
	"fmt"
	"sort"

	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/tools/container/intsets"
)

// Edge is a flow graph edge between two blocks
type Edge struct {
	From int
	To   int
}

func (e Edge) String() string {
	return fmt.Sprintf("b%d->b%d", e.From, e.To)
}

// Loop is a natural loop or an irreducible region of the flow graph
type Loop struct {
	// Header is the entry block of a natural loop, and the smallest entry block of an irreducible region
	Header int
	// Body is the set of blocks of the loop, header included
	Body *intsets.Sparse
	// BackEdges are the edges from the body to the header
	BackEdges []Edge
	// Exits are the edges from the body to blocks outside, ordered by origin block and successor order
	Exits []Edge
	// Entries are the blocks of the body with a predecessor outside the body
	Entries []int
	// Assigned are the variables written in the body, in block order and without duplicates
	Assigned []model.Variable
	// Irreducible is true for a region with several entries
	Irreducible bool
	// HeaderDominates is true when the header dominates every block of the back edges
	HeaderDominates bool

	node *graphutil.Tree[*Loop]
}

// Contains returns true if the block is in the body of the loop
func (l *Loop) Contains(block int) bool {
	return l.Body.Has(block)
}

// Size returns the number of blocks of the loop
func (l *Loop) Size() int {
	return l.Body.Len()
}

// Parent returns the closest enclosing loop, or nil for top-level loops
func (l *Loop) Parent() *Loop {
	if l.node == nil || l.node.Parent == nil {
		return nil
	}
	return l.node.Parent.Label
}

// Depth returns the nesting depth of the loop, top-level loops having depth 1
func (l *Loop) Depth() int {
	if l.node == nil {
		return 0
	}
	return l.node.Depth()
}

// IsBackEdge returns true if from->to is a back edge of the loop
func (l *Loop) IsBackEdge(from, to int) bool {
	for _, e := range l.BackEdges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// IsExit returns true if from->to leaves the loop
func (l *Loop) IsExit(from, to int) bool {
	return l.Contains(from) && !l.Contains(to)
}

func (l *Loop) String() string {
	kind := "loop"
	if l.Irreducible {
		kind = "irreducible region"
	}
	return fmt.Sprintf("%s at b%d (%d blocks, entries %v)", kind, l.Header, l.Size(), l.Entries)
}

// Forest is the set of loops of a procedure, organized by nesting
type Forest struct {
	root *graphutil.Tree[*Loop]
	// loops in pre-order of the nesting tree; siblings ordered by header
	loops []*Loop
	// innermost[b] is the innermost loop containing block b
	innermost []*Loop
}

// BuildForest computes the loops of the procedure
func BuildForest(proc *model.Procedure) *Forest {
	g := proc.Graph()
	f := &Forest{
		root:      graphutil.NewTree[*Loop](nil),
		innermost: make([]*Loop, g.Order()),
	}
	dom := graphutil.Dominators(g, 0)
	reachable := graphutil.ReachableFrom(g, 0)

	f.addComponents(proc, g, dom, reachable, graph.StrongComponents(g), f.root)
	f.root.Walk(func(t *graphutil.Tree[*Loop]) {
		if t.Label == nil {
			return
		}
		f.loops = append(f.loops, t.Label)
		for _, b := range t.Label.Body.AppendTo(nil) {
			f.innermost[b] = t.Label
		}
	})
	return f
}

// addComponents adds the non-trivial components as children of parent, and decomposes the natural loops
func (f *Forest) addComponents(proc *model.Procedure, g graphutil.FlowGraph, dom graphutil.DomTree,
	reachable *intsets.Sparse, sccs [][]int, parent *graphutil.Tree[*Loop]) {
	var found []*Loop
	for _, scc := range sccs {
		if l := newLoop(proc, g, dom, reachable, scc); l != nil {
			found = append(found, l)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Header < found[j].Header })
	for _, l := range found {
		l.node = parent.AddChild(l)
		if l.Irreducible {
			continue
		}
		// nested loops are the components of the body without the header
		f.addComponents(proc, g, dom, reachable, graphutil.NestedComponents(g, l.Header, l.Body), l.node)
	}
}

// newLoop returns the loop of a strongly connected component, or nil if the component is trivial or unreachable
func newLoop(proc *model.Procedure, g graphutil.FlowGraph, dom graphutil.DomTree, reachable *intsets.Sparse,
	scc []int) *Loop {
	body := &intsets.Sparse{}
	for _, b := range scc {
		body.Insert(b)
	}
	if len(scc) == 1 && !g.HasEdge(scc[0], scc[0]) {
		return nil
	}
	if !reachable.Has(scc[0]) {
		return nil
	}
	l := &Loop{Body: body}
	for _, b := range body.AppendTo(nil) {
		external := b == 0
		for _, p := range g.Preds(b) {
			if !body.Has(p) && reachable.Has(p) {
				external = true
			}
		}
		if external {
			l.Entries = append(l.Entries, b)
		}
		for _, s := range g.Succs(b) {
			if !body.Has(s) {
				l.Exits = append(l.Exits, Edge{From: b, To: s})
			}
		}
	}
	if len(l.Entries) == 0 {
		return nil
	}
	l.Header = l.Entries[0]
	l.Irreducible = len(l.Entries) > 1
	l.HeaderDominates = !l.Irreducible
	for _, b := range body.AppendTo(nil) {
		if g.HasEdge(b, l.Header) {
			l.BackEdges = append(l.BackEdges, Edge{From: b, To: l.Header})
			if !dom.Dominates(l.Header, b) {
				l.HeaderDominates = false
			}
		}
	}
	l.Assigned = assignedIn(proc, body)
	return l
}

func assignedIn(proc *model.Procedure, body *intsets.Sparse) []model.Variable {
	var vars []model.Variable
	seen := map[string]bool{}
	add := func(v model.Variable) {
		if !v.IsZero() && !seen[v.Key()] {
			seen[v.Key()] = true
			vars = append(vars, v)
		}
	}
	for _, b := range body.AppendTo(nil) {
		for _, s := range proc.Blocks[b].Stmts {
			switch s.Kind {
			case model.StmtDecl, model.StmtAssign:
				add(s.Target)
			}
			for _, c := range s.Clobbers {
				add(c)
			}
		}
	}
	return vars
}

// Loops returns the loops of the forest, outer loops before the loops they contain
func (f *Forest) Loops() []*Loop {
	return f.loops
}

// Innermost returns the innermost loop containing the block, or nil
func (f *Forest) Innermost(block int) *Loop {
	if block < 0 || block >= len(f.innermost) {
		return nil
	}
	return f.innermost[block]
}

// Entered returns the outermost loop that the edge from->to enters, or nil if the edge enters no loop. A from of
// -1 stands for the entry of the procedure.
func (f *Forest) Entered(from, to int) *Loop {
	l := f.Innermost(to)
	var entered *Loop
	for ; l != nil; l = l.Parent() {
		if from < 0 || !l.Contains(from) {
			entered = l
		}
	}
	return entered
}
