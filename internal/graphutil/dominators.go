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
	"golang.org/x/tools/container/intsets"
	"gonum.org/v1/gonum/graph/flow"
)

// DomTree is the dominator tree of a flow graph rooted at some node. The tree is computed once; queries are
// answered from the immediate dominator array.
type DomTree struct {
	root int
	// idom[v] is the immediate dominator of v, or -1 if v is the root or is unreachable from the root
	idom []int
}

// Dominators computes the dominator tree of g rooted at root.
func Dominators(g FlowGraph, root int) DomTree {
	t := DomTree{root: root, idom: make([]int, g.Order())}
	for i := range t.idom {
		t.idom[i] = -1
	}
	if root < 0 || root >= g.Order() {
		return t
	}
	tree := flow.Dominators(FlowNode(root), g)
	for v := 0; v < g.Order(); v++ {
		if v == root {
			continue
		}
		if d := tree.DominatorOf(int64(v)); d != nil {
			t.idom[v] = int(d.ID())
		}
	}
	return t
}

// Root returns the root of the dominator tree
func (t DomTree) Root() int {
	return t.root
}

// Immediate returns the immediate dominator of v, or -1 if there is none
func (t DomTree) Immediate(v int) int {
	if v < 0 || v >= len(t.idom) {
		return -1
	}
	return t.idom[v]
}

// Reachable returns true if v is reachable from the root of the tree
func (t DomTree) Reachable(v int) bool {
	return v == t.root || t.Immediate(v) >= 0
}

// Dominates returns true if every path from the root to b goes through a. Every node dominates itself.
// Unreachable nodes are not dominated by anything.
func (t DomTree) Dominates(a, b int) bool {
	if !t.Reachable(b) {
		return false
	}
	for cur := b; cur >= 0; cur = t.Immediate(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

// PostDomTree is the post-dominator tree of a flow graph, rooted at a virtual exit node that succeeds every block
// with no successor.
type PostDomTree struct {
	exit int
	tree DomTree
}

// PostDominators computes the post-dominators of g
func PostDominators(g FlowGraph) PostDomTree {
	r := Reversed(g)
	return PostDomTree{exit: g.Order(), tree: Dominators(r, g.Order())}
}

// Immediate returns the immediate post-dominator of v. It returns -1 if the immediate post-dominator is the virtual
// exit, or if v cannot reach any exit.
func (t PostDomTree) Immediate(v int) int {
	d := t.tree.Immediate(v)
	if d == t.exit {
		return -1
	}
	return d
}

// PostDominates returns true if every path from b to an exit goes through a
func (t PostDomTree) PostDominates(a, b int) bool {
	return t.tree.Dominates(a, b)
}

// ReachableFrom returns the set of nodes reachable from root in g, including root itself.
func ReachableFrom(g FlowGraph, root int) *intsets.Sparse {
	var seen intsets.Sparse
	if root < 0 || root >= g.Order() {
		return &seen
	}
	stack := []int{root}
	seen.Insert(root)
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, y := range g.Succs(x) {
			if seen.Insert(y) {
				stack = append(stack, y)
			}
		}
	}
	return &seen
}

// CanReach returns the set of nodes from which target is reachable in g, including target itself.
func CanReach(g FlowGraph, target int) *intsets.Sparse {
	var seen intsets.Sparse
	if target < 0 || target >= g.Order() {
		return &seen
	}
	stack := []int{target}
	seen.Insert(target)
	for len(stack) > 0 {
		y := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, x := range g.Preds(y) {
			if seen.Insert(x) {
				stack = append(stack, x)
			}
		}
	}
	return &seen
}
