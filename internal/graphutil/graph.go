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
	"gonum.org/v1/gonum/graph"
)

// FlowGraph is an abstraction over the control-flow graph of a procedure to work with existing graph libraries.
// Nodes are the integers 0..order-1 (block indexes). It implements the methods to satisfy yourbasic's
// graph.Iterator and Gonum's graph.Directed.
type FlowGraph struct {
	// The order of the graph
	order int

	// succs[x] lists the successors of x in edge order, without duplicates
	succs [][]int

	// preds[y] lists the predecessors of y in increasing order, without duplicates
	preds [][]int

	// edges is an adjacency matrix: edges[x][y] means there is a directed edge from x to y
	edges []map[int]bool
}

// NewFlowGraph returns a flow graph with len(succs) nodes, and an edge from x to each element of succs[x].
// Successors that are out of range are ignored.
func NewFlowGraph(succs [][]int) FlowGraph {
	n := len(succs)
	g := FlowGraph{
		order: n,
		succs: make([][]int, n),
		preds: make([][]int, n),
		edges: make([]map[int]bool, n),
	}
	for x := range succs {
		g.edges[x] = map[int]bool{}
	}
	for x, out := range succs {
		for _, y := range out {
			if y < 0 || y >= n || g.edges[x][y] {
				continue
			}
			g.edges[x][y] = true
			g.succs[x] = append(g.succs[x], y)
		}
	}
	for x := 0; x < n; x++ {
		for _, y := range g.succs[x] {
			g.preds[y] = append(g.preds[y], x)
		}
	}
	return g
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order is the same as in origin, meaning that node indices will stay consistent
// across subgraphs.
func Subgraph(original FlowGraph, include func(int) bool) FlowGraph {
	succs := make([][]int, original.order)
	for x := 0; x < original.order; x++ {
		if !include(x) {
			continue
		}
		for _, y := range original.succs[x] {
			if include(y) {
				succs[x] = append(succs[x], y)
			}
		}
	}
	return NewFlowGraph(succs)
}

// Reversed returns the graph with all the edges reversed and one additional node (with index Order()) that has an
// edge to every node without successors in the original graph. The additional node is the root of post-dominator
// computations.
func Reversed(original FlowGraph) FlowGraph {
	exit := original.order
	succs := make([][]int, original.order+1)
	for x := 0; x < original.order; x++ {
		if len(original.succs[x]) == 0 {
			succs[exit] = append(succs[exit], x)
		}
		for _, y := range original.succs[x] {
			succs[y] = append(succs[y], x)
		}
	}
	return NewFlowGraph(succs)
}

// Succs returns the successors of x
func (g FlowGraph) Succs(x int) []int {
	if x < 0 || x >= g.order {
		return nil
	}
	return g.succs[x]
}

// Preds returns the predecessors of x
func (g FlowGraph) Preds(x int) []int {
	if x < 0 || x >= g.order {
		return nil
	}
	return g.preds[x]
}

// HasEdge returns true if there is an edge from x to y
func (g FlowGraph) HasEdge(x, y int) bool {
	if x < 0 || x >= g.order {
		return false
	}
	return g.edges[x][y]
}

// Order implements the order of the graph.Iterator interface for the FlowGraph
func (g FlowGraph) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface for the FlowGraph
func (g FlowGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, w := range g.Succs(v) {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (g FlowGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(g.order) {
		return nil
	}
	return FlowNode(id)
}

// Nodes returns the set of nodes in the graph
func (g FlowGraph) Nodes() graph.Nodes {
	ids := make([]int, g.order)
	for i := range ids {
		ids[i] = i
	}
	return newNodeSet(ids)
}

// From returns the set of successors of the node with the id
func (g FlowGraph) From(id int64) graph.Nodes {
	return newNodeSet(g.Succs(int(id)))
}

// To returns the set of predecessors of the node with the id
func (g FlowGraph) To(id int64) graph.Nodes {
	return newNodeSet(g.Preds(int(id)))
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g FlowGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdge(int(xid), int(yid)) || g.HasEdge(int(yid), int(xid))
}

// HasEdgeFromTo returns whether there is an edge from uid to vid
func (g FlowGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.HasEdge(int(uid), int(vid))
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g FlowGraph) Edge(uid, vid int64) graph.Edge {
	if g.HasEdge(int(uid), int(vid)) {
		return FlowEdge{from: FlowNode(uid), to: FlowNode(vid)}
	}
	return nil
}

// *************** Nodes implementation **********************

// FlowNode is a block index that implements the graph.Node interface
type FlowNode int64

// ID returns the id of the node
func (n FlowNode) ID() int64 {
	return int64(n)
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	ids []int

	// cur is the current index of the iterator; -1 before the first call to Next
	cur int
}

func newNodeSet(ids []int) *NodeSet {
	return &NodeSet{ids: ids, cur: -1}
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false
// and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of nodes remaining in the iterator
func (ns *NodeSet) Len() int {
	return len(ns.ids) - ns.cur - 1
}

// Reset resets the iterator before its first node
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node return the current node in the set
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return FlowNode(ns.ids[ns.cur])
}

// *************** Edge implementation **********************

// FlowEdge implements the graph.Edge interface
type FlowEdge struct {
	from FlowNode
	to   FlowNode
}

// From returns the origin of the edge
func (e FlowEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e FlowEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e FlowEdge) ReversedEdge() graph.Edge {
	return FlowEdge{from: e.to, to: e.from}
}
