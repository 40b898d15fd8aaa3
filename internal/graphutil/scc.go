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

	"golang.org/x/tools/container/intsets"
)

// NestedComponents returns the strongly connected components of the subgraph of g induced by the blocks of body
// other than header. Use a header outside of the graph (e.g. -1) to decompose the whole body.
// Components are sorted, and ordered by their smallest block. This is Tarjan's algorithm with an explicit stack,
// so that long chains of blocks do not grow the goroutine stack.
func NestedComponents(g FlowGraph, header int, body *intsets.Sparse) [][]int {
	in := func(b int) bool { return b != header && body.Has(b) }
	// index[b] is 0 for unvisited blocks, the visit order plus one otherwise
	index := make([]int, g.order)
	low := make([]int, g.order)
	onStack := make([]bool, g.order)
	var stack []int
	var comps [][]int
	next := 1

	type visit struct {
		block int
		succ  int
	}
	push := func(b int) {
		index[b], low[b] = next, next
		next++
		stack = append(stack, b)
		onStack[b] = true
	}

	for _, root := range body.AppendTo(nil) {
		if !in(root) || index[root] != 0 {
			continue
		}
		push(root)
		work := []visit{{block: root}}
		for len(work) > 0 {
			top := &work[len(work)-1]
			b := top.block
			if top.succ < len(g.succs[b]) {
				s := g.succs[b][top.succ]
				top.succ++
				if !in(s) {
					continue
				}
				if index[s] == 0 {
					push(s)
					work = append(work, visit{block: s})
				} else if onStack[s] && index[s] < low[b] {
					low[b] = index[s]
				}
				continue
			}
			work = work[:len(work)-1]
			if low[b] == index[b] {
				var comp []int
				for {
					x := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[x] = false
					comp = append(comp, x)
					if x == b {
						break
					}
				}
				sort.Ints(comp)
				comps = append(comps, comp)
			}
			if len(work) > 0 {
				if p := work[len(work)-1].block; low[b] < low[p] {
					low[p] = low[b]
				}
			}
		}
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}
