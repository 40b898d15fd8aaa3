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

package graphutil

import (
	"sort"
	"testing"

	"github.com/yourbasic/graph"
)

var diamond = [][]int{{1, 2}, {3}, {3}, {}}

func TestFlowGraphNodesIncludesFirst(t *testing.T) {
	g := NewFlowGraph(diamond)
	it := g.Nodes()
	var ids []int64
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	if len(ids) != 4 || ids[0] != 0 || ids[3] != 3 {
		t.Fatalf("expected nodes 0..3, got %v", ids)
	}
	if it.Len() != 0 {
		t.Errorf("expected exhausted iterator, got Len() = %d", it.Len())
	}
	it.Reset()
	if !it.Next() || it.Node().ID() != 0 {
		t.Errorf("expected node 0 after reset")
	}
}

func TestFlowGraphEdges(t *testing.T) {
	g := NewFlowGraph([][]int{{1, 1, 5}, {0}})
	if len(g.Succs(0)) != 1 {
		t.Errorf("expected duplicate and out of range successors to be dropped, got %v", g.Succs(0))
	}
	if !g.HasEdgeBetween(1, 0) || !g.HasEdgeFromTo(1, 0) || g.Edge(0, 1) == nil {
		t.Errorf("missing edge between 0 and 1")
	}
	if g.Edge(0, 0) != nil {
		t.Errorf("unexpected self edge")
	}
	if p := g.Preds(0); len(p) != 1 || p[0] != 1 {
		t.Errorf("expected predecessors of 0 to be [1], got %v", p)
	}
}

func TestDominators(t *testing.T) {
	g := NewFlowGraph(diamond)
	dom := Dominators(g, 0)
	for _, v := range []int{1, 2, 3} {
		if dom.Immediate(v) != 0 {
			t.Errorf("expected idom(%d) = 0, got %d", v, dom.Immediate(v))
		}
	}
	if !dom.Dominates(0, 3) || dom.Dominates(1, 3) || !dom.Dominates(3, 3) {
		t.Errorf("wrong dominance relation on diamond")
	}

	unreachable := Dominators(NewFlowGraph([][]int{{1}, {}, {1}}), 0)
	if unreachable.Reachable(2) || unreachable.Dominates(0, 2) {
		t.Errorf("node 2 should be unreachable")
	}
}

func TestPostDominators(t *testing.T) {
	pdom := PostDominators(NewFlowGraph(diamond))
	if pdom.Immediate(0) != 3 || pdom.Immediate(1) != 3 || pdom.Immediate(2) != 3 {
		t.Errorf("expected 3 to be the immediate post-dominator of the diamond nodes")
	}
	if pdom.Immediate(3) != -1 {
		t.Errorf("expected exit block to be post-dominated by the virtual exit, got %d", pdom.Immediate(3))
	}
	if !pdom.PostDominates(3, 0) || pdom.PostDominates(1, 0) {
		t.Errorf("wrong post-dominance relation on diamond")
	}
}

func TestReachability(t *testing.T) {
	g := NewFlowGraph([][]int{{1}, {2}, {1, 3}, {}, {3}})
	if r := ReachableFrom(g, 0); r.Has(4) || !r.Has(3) {
		t.Errorf("wrong forward reachability: %v", r)
	}
	if r := CanReach(g, 3); r.Len() != 5 {
		t.Errorf("expected every node to reach 3, got %v", r)
	}
	if r := CanReach(g, 1); r.Has(3) || r.Has(4) {
		t.Errorf("wrong backward reachability: %v", r)
	}
}

func TestFlowGraphStrongComponents(t *testing.T) {
	g := NewFlowGraph([][]int{{1}, {2}, {1, 3}, {}})
	var loop []int
	for _, c := range graph.StrongComponents(g) {
		if len(c) > 1 {
			sort.Ints(c)
			loop = c
		}
	}
	if len(loop) != 2 || loop[0] != 1 || loop[1] != 2 {
		t.Fatalf("expected {1, 2} to be the only non-trivial component, got %v", loop)
	}
	sub := Subgraph(g, func(x int) bool { return x != 1 })
	if sub.Order() != 4 || sub.HasEdge(0, 1) || sub.HasEdge(2, 1) || !sub.HasEdge(2, 3) {
		t.Errorf("wrong subgraph edges")
	}
}
