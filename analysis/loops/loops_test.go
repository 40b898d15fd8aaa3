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
	"errors"
	"math/rand"
	"testing"

	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/internal/graphutil"
)

// mkProc returns a procedure with the given successors. Blocks with two successors branch on an opaque condition.
func mkProc(succs ...[]int) *model.Procedure {
	proc := &model.Procedure{Name: "test"}
	for i, s := range succs {
		b := &model.Block{Index: i, Succs: s}
		if len(s) == 2 {
			b.Branch = &model.Cond{Opaque: true, Text: "c"}
		}
		proc.Blocks = append(proc.Blocks, b)
	}
	return proc
}

func TestNaturalLoop(t *testing.T) {
	proc := mkProc([]int{1}, []int{2, 3}, []int{1}, nil)
	proc.Blocks[2].Stmts = []model.Stmt{{Kind: model.StmtAssign, Target: model.ParseVariable("i"),
		Value: model.ParseExpr("i + 1"), HasValue: true}}
	f := BuildForest(proc)
	if len(f.Loops()) != 1 {
		t.Fatalf("expected one loop, got %v", f.Loops())
	}
	l := f.Loops()[0]
	if l.Header != 1 || l.Size() != 2 || l.Irreducible || !l.HeaderDominates {
		t.Errorf("wrong loop %s", l)
	}
	if len(l.BackEdges) != 1 || l.BackEdges[0] != (Edge{From: 2, To: 1}) || !l.IsBackEdge(2, 1) {
		t.Errorf("wrong back edges %v", l.BackEdges)
	}
	if len(l.Exits) != 1 || l.Exits[0] != (Edge{From: 1, To: 3}) || !l.IsExit(1, 3) {
		t.Errorf("wrong exits %v", l.Exits)
	}
	if len(l.Assigned) != 1 || l.Assigned[0].Key() != "i" {
		t.Errorf("wrong assigned variables %v", l.Assigned)
	}
	if f.Entered(0, 1) != l || f.Entered(2, 1) != nil || f.Innermost(3) != nil || l.Depth() != 1 {
		t.Errorf("wrong entry queries")
	}
}

func TestNestedLoops(t *testing.T) {
	proc := mkProc([]int{1}, []int{2, 5}, []int{3, 4}, []int{2}, []int{1}, nil)
	f := BuildForest(proc)
	if len(f.Loops()) != 2 {
		t.Fatalf("expected two loops, got %v", f.Loops())
	}
	outer, inner := f.Loops()[0], f.Loops()[1]
	if outer.Header != 1 || outer.Size() != 4 || inner.Header != 2 || inner.Size() != 2 {
		t.Fatalf("wrong loops %s and %s", outer, inner)
	}
	if inner.Parent() != outer || outer.Parent() != nil || inner.Depth() != 2 {
		t.Errorf("wrong nesting")
	}
	if f.Innermost(3) != inner || f.Innermost(4) != outer {
		t.Errorf("wrong innermost loops")
	}
	if f.Entered(0, 1) != outer || f.Entered(1, 2) != inner || f.Entered(4, 1) != nil {
		t.Errorf("wrong entered loops")
	}
	if len(inner.Exits) != 1 || inner.Exits[0] != (Edge{From: 2, To: 4}) {
		t.Errorf("wrong inner exits %v", inner.Exits)
	}
}

func TestSelfLoopAndEntryLoop(t *testing.T) {
	f := BuildForest(mkProc([]int{0, 1}, nil))
	if len(f.Loops()) != 1 {
		t.Fatalf("expected the self loop on the entry block")
	}
	l := f.Loops()[0]
	if l.Header != 0 || l.Size() != 1 || !l.IsBackEdge(0, 0) || f.Entered(-1, 0) != l {
		t.Errorf("wrong entry self loop %s", l)
	}
}

func TestIrreducibleRegion(t *testing.T) {
	proc := mkProc([]int{1, 2}, []int{2}, []int{1, 3}, nil)
	f := BuildForest(proc)
	if len(f.Loops()) != 1 {
		t.Fatalf("expected one region, got %v", f.Loops())
	}
	l := f.Loops()[0]
	if !l.Irreducible || len(l.Entries) != 2 || l.Header != 1 {
		t.Errorf("expected an irreducible region with entries 1 and 2, got %s", l)
	}
	if f.Entered(0, 2) != l || f.Entered(0, 1) != l {
		t.Errorf("both entries should enter the region")
	}
	c := NewClassifier(proc, 0, nil)
	r, err := c.Classify(l, &fakeOracle{keyStmts: map[model.Point]bool{{Block: 1, Offset: 0}: true}})
	if !errors.Is(err, ErrModelUnavailable) || r != Irrelevant || c.State(l) != Irrelevant {
		t.Errorf("irreducible regions should be unavailable, got %s, %v", r, err)
	}
}

func TestUnreachableLoopIgnored(t *testing.T) {
	f := BuildForest(mkProc(nil, []int{2}, []int{1}))
	if len(f.Loops()) != 0 {
		t.Errorf("unreachable loops should be ignored, got %v", f.Loops())
	}
}

type fakeOracle struct {
	keyStmts    map[model.Point]bool
	keyBranches map[int]bool
	infeasible  map[int]bool // then-edges that are infeasible
	unreachable map[int]bool // blocks that do not reach the defect
}

func (o *fakeOracle) KeyStatement(p model.Point) bool { return o.keyStmts[p] }
func (o *fakeOracle) KeyBranch(b int) bool            { return o.keyBranches[b] }
func (o *fakeOracle) Feasible(b int, taken bool) bool { return !(taken && o.infeasible[b]) }
func (o *fakeOracle) ReachesDefect(b int) bool        { return !o.unreachable[b] }

func TestClassify(t *testing.T) {
	// b1 loop header, b2 branch inside the body, b3 holds a key statement, b4 latch
	proc := mkProc([]int{1}, []int{2, 5}, []int{3, 4}, []int{4}, []int{1}, nil)
	proc.Blocks[3].Stmts = []model.Stmt{{Kind: model.StmtAssign, Target: model.ParseVariable("b"),
		Value: model.ParseExpr("a"), HasValue: true}}
	l := BuildForest(proc).Loops()[0]
	key := map[model.Point]bool{{Block: 3, Offset: 0}: true}

	c := NewClassifier(proc, 0, nil)
	if r, err := c.Classify(l, &fakeOracle{keyStmts: key}); err != nil || r != Relevant {
		t.Errorf("expected relevant loop, got %s, %v", r, err)
	}
	if r, _ := c.Classify(l, &fakeOracle{}); r != Relevant {
		t.Errorf("the relevance of a loop is final for a defect and its feasible edges")
	}
	c.Reset()
	if c.State(l) != Unvisited {
		t.Errorf("reset should make loops unvisited")
	}
	if r, _ := c.Classify(l, &fakeOracle{}); r != Irrelevant {
		t.Errorf("a loop without key events should be irrelevant")
	}
	c.Reset()
	if r, _ := c.Classify(l, &fakeOracle{keyStmts: key, infeasible: map[int]bool{2: true}}); r != Irrelevant {
		t.Errorf("key events behind pruned edges should not make the loop relevant")
	}
	c.Reset()
	if r, _ := c.Classify(l, &fakeOracle{keyStmts: key, unreachable: map[int]bool{3: true}}); r != Irrelevant {
		t.Errorf("key events that do not reach the defect should not make the loop relevant")
	}
	c.Reset()
	if r, _ := c.Classify(l, &fakeOracle{keyBranches: map[int]bool{2: true}}); r != Relevant {
		t.Errorf("a branch on a relevant variable should make the loop relevant")
	}

	small := NewClassifier(proc, 2, nil)
	if _, err := small.Classify(l, &fakeOracle{keyStmts: key}); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("loops larger than the limit should be unavailable, got %v", err)
	}
	if err := small.Check(l); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("check should report the limit, got %v", err)
	}
	if err := c.Check(l); err != nil {
		t.Errorf("unexpected check error %v", err)
	}
}

func TestClassifyPrunedEntry(t *testing.T) {
	// the key statement of b3 is behind the then-edge of b2
	proc := mkProc([]int{1}, []int{2, 5}, []int{3, 4}, []int{4}, []int{1}, nil)
	l := BuildForest(proc).Loops()[0]
	key := map[model.Point]bool{{Block: 3, Offset: 0}: true}
	pruned := &fakeOracle{keyStmts: key, infeasible: map[int]bool{2: true}}

	c := NewClassifier(proc, 0, nil)
	if r, _ := c.Classify(l, pruned); r != Irrelevant {
		t.Fatalf("expected irrelevant loop when the key statement is pruned, got %s", r)
	}
	if r, _ := c.Classify(l, &fakeOracle{keyStmts: key}); r != Relevant || c.State(l) != Relevant {
		t.Errorf("an entry with more feasible edges should be decided again, got %s", r)
	}
	if r, _ := c.Classify(l, pruned); r != Irrelevant || c.State(l) != Irrelevant {
		t.Errorf("the decision for the pruned entry should be kept, got %s", r)
	}
}

type facts map[string]int

func (f facts) Clone() facts {
	c := facts{}
	for k, v := range f {
		c[k] = v
	}
	return c
}

func (f facts) Join(o facts) {
	for k, v := range f {
		if w, ok := o[k]; !ok || w != v {
			delete(f, k)
		}
	}
}

func TestWiden(t *testing.T) {
	entry := facts{"i": 0, "n": 10, "p": 1}
	w := Widen(entry, []facts{{"i": 1, "n": 10, "p": 1}, {"i": 2, "n": 10}})
	if len(w) != 1 || w["n"] != 10 {
		t.Errorf("expected only n to survive the widening, got %v", w)
	}
	if len(entry) != 3 {
		t.Errorf("widening should not modify the entry state")
	}
}

// TestForestProperties checks on random graphs that natural loop headers dominate their bodies and that nested
// loops are strictly included in their parents
func TestForestProperties(t *testing.T) {
	for i := 0; i < 200; i++ {
		r := rand.New(rand.NewSource(7349 + int64(i)))
		n := 2 + r.Intn(12)
		succs := make([][]int, n)
		for b := range succs {
			for j := 0; j < 2; j++ {
				if r.Float32() < 0.6 {
					succs[b] = append(succs[b], r.Intn(n))
				}
			}
		}
		proc := mkProc(succs...)
		dom := graphutil.Dominators(proc.Graph(), 0)
		for _, l := range BuildForest(proc).Loops() {
			if p := l.Parent(); p != nil {
				if p.Irreducible || !p.Contains(l.Header) || p.Header == l.Header || p.Size() <= l.Size() {
					t.Fatalf("loop %s is not strictly nested in %s, graph %v", l, p, succs)
				}
			}
			if l.Irreducible {
				continue
			}
			for _, b := range l.Body.AppendTo(nil) {
				if !dom.Dominates(l.Header, b) {
					t.Fatalf("header of %s does not dominate b%d, graph %v", l, b, succs)
				}
			}
		}
	}
}
