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

package keyevent

import (
	"testing"

	"github.com/awslabs/keytrail/analysis/alias"
	"github.com/awslabs/keytrail/analysis/model"
)

func pt(block, offset int) model.Point {
	return model.Point{Block: block, Offset: offset}
}

func kinds(events []Event) []Kind {
	var ks []Kind
	for _, e := range events {
		ks = append(ks, e.Kind)
	}
	return ks
}

func sameKinds(a []Kind, b ...Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func access(p model.Point) Event {
	return New(Access, p, Payload{Vars: []model.Variable{model.ParseVariable("buf")}, Text: "index 'i'"}, NoIteration)
}

func aliasing(p model.Point, it Iteration) Event {
	fact := alias.Fact{Point: p, Var: model.ParseVariable("b"), Expr: alias.VarExpr(model.ParseVariable("a"))}
	return New(Aliasing, p, Payload{Vars: []model.Variable{fact.Var}, Alias: &fact}, it)
}

func branch(k Kind, p model.Point) Event {
	c := model.ParseCond("i < n")
	return New(k, p, Payload{Cond: &c, Taken: k == BranchEnter}, NoIteration)
}

func TestSteadyStateDedup(t *testing.T) {
	r := NewRecorder(false)
	trail := []int{0, 1, 2, 1, 2, 1, 2, 3}
	c := model.ParseCond("i < n")
	r.Record(New(LoopEnter, pt(1, 0), Payload{Cond: &c, Taken: true, Loop: 1}, FirstIteration), 1)
	r.Record(aliasing(pt(2, 0), FirstIteration), 2)
	r.Record(New(LoopContinue, pt(1, 0), Payload{Cond: &c, Taken: true, Loop: 1}, SteadyIteration), 3)
	r.Record(aliasing(pt(2, 0), SteadyIteration), 4)
	r.Record(New(LoopContinue, pt(1, 0), Payload{Cond: &c, Taken: true, Loop: 1}, SteadyIteration), 5)
	r.Record(aliasing(pt(2, 0), SteadyIteration), 6)
	r.Record(access(pt(3, 0)), 7)

	events := r.Finalize(trail, nil)
	if !sameKinds(kinds(events), LoopEnter, Aliasing, LoopContinue, Aliasing, Access) {
		t.Fatalf("expected one first and one steady representative, got %v", events)
	}
	for i, e := range events {
		if e.ID != i+1 {
			t.Errorf("event %d has id %d", i, e.ID)
		}
	}
	if events[1].Iteration != FirstIteration || events[3].Iteration != SteadyIteration {
		t.Errorf("wrong iteration classes in %v", events)
	}
}

func TestBranchFiltering(t *testing.T) {
	// b0 branches to b1 or b2, both join in b3; the defect is in b4
	trail := []int{0, 1, 3, 4}

	r := NewRecorder(false)
	r.Branch(branch(BranchEnter, pt(0, 0)), 0, false, 3)
	r.Record(access(pt(4, 0)), 3)
	if events := r.Finalize(trail, nil); !sameKinds(kinds(events), Access) {
		t.Errorf("a branch whose arm holds no event should be dropped, got %v", events)
	}

	r = NewRecorder(false)
	r.Branch(branch(BranchEnter, pt(0, 0)), 0, false, 3)
	r.Record(aliasing(pt(1, 0), NoIteration), 1)
	r.Record(access(pt(4, 0)), 3)
	if events := r.Finalize(trail, nil); !sameKinds(kinds(events), BranchEnter, Aliasing, Access) {
		t.Errorf("a branch whose arm holds an aliasing should be kept, got %v", events)
	}

	r = NewRecorder(false)
	r.Branch(branch(BranchSkip, pt(0, 0)), 0, true, 3)
	r.Record(access(pt(4, 0)), 3)
	if events := r.Finalize(trail, nil); !sameKinds(kinds(events), BranchSkip, Access) {
		t.Errorf("required branches should be kept, got %v", events)
	}

	// the arms of an outer branch hold an inner branch, which is only kept for its own arm
	nested := []int{0, 1, 2, 5, 6}
	r = NewRecorder(false)
	r.Branch(branch(BranchEnter, pt(0, 0)), 0, false, 6)
	r.Branch(branch(BranchEnter, pt(1, 0)), 1, false, 5)
	r.Record(aliasing(pt(2, 0), NoIteration), 2)
	r.Record(access(pt(6, 0)), 4)
	if events := r.Finalize(nested, nil); !sameKinds(kinds(events), BranchEnter, BranchEnter, Aliasing, Access) {
		t.Errorf("both nested branches should be kept, got %v", events)
	}
}

func TestUnimportantEvents(t *testing.T) {
	decl := New(Declaration, pt(0, 0), Payload{Vars: []model.Variable{model.ParseVariable("b")}}, NoIteration)
	if decl.Importance != Unimportant {
		t.Fatalf("declarations should be unimportant")
	}
	for _, keep := range []bool{false, true} {
		r := NewRecorder(keep)
		r.Record(decl, 0)
		r.Record(access(pt(0, 1)), 0)
		events := r.Finalize([]int{0}, nil)
		if keep && !sameKinds(kinds(events), Declaration, Access) || !keep && !sameKinds(kinds(events), Access) {
			t.Errorf("keepUnimportant=%v: got %v", keep, events)
		}
	}
}

func TestBacktracking(t *testing.T) {
	r := NewRecorder(false)
	r.Record(aliasing(pt(0, 0), NoIteration), 0)
	m := r.Mark()
	r.Branch(branch(BranchEnter, pt(0, 1)), 0, true, -1)
	snap := r.Snapshot()
	r.Reset(m)
	if r.Len() != 1 {
		t.Fatalf("reset should drop the branch, got %d candidates", r.Len())
	}
	r.Record(access(pt(2, 0)), 1)
	r.Restore(snap)
	if r.Len() != 2 {
		t.Fatalf("restore should bring back the snapshot, got %d candidates", r.Len())
	}
	r.Record(access(pt(1, 0)), 1)
	located := r.Finalize([]int{0, 1}, func(p model.Point) model.Location {
		return model.Location{File: "f.cpp", Line: 10 + p.Block}
	})
	if !sameKinds(kinds(located), Aliasing, BranchEnter, Access) || located[2].Location.Line != 11 {
		t.Errorf("wrong located trail %v", located)
	}
}

func TestMessages(t *testing.T) {
	tests := []struct {
		ev       Event
		expected string
	}{
		{aliasing(pt(0, 0), NoIteration), "'b' is an alias of 'a'"},
		{branch(BranchEnter, pt(0, 0)), "Enter this branch, (assume 'i < n')"},
		{branch(BranchSkip, pt(0, 0)), "Skip this branch, (assume 'i < n' is false)"},
		{access(pt(0, 0)), "Invalid access to 'buf': index 'i'"},
		{New(LoopExit, pt(0, 0), Payload{Loop: 0}, FirstIteration), "Exit this loop"},
	}
	for _, test := range tests {
		if got := Describe(test.ev); got != test.expected {
			t.Errorf("Describe(%s) = %q, expected %q", test.ev.Kind, got, test.expected)
		}
	}
	if k, err := ParseKind("loopcontinue"); err != nil || k != LoopContinue {
		t.Errorf("ParseKind should be case insensitive")
	}
	if _, err := ParseKind("Jump"); err == nil {
		t.Errorf("expected an error for an unknown kind")
	}
}
