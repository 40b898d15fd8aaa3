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

package explain

import (
	"github.com/awslabs/keytrail/analysis/branch"
	"github.com/awslabs/keytrail/analysis/keyevent"
	"github.com/awslabs/keytrail/analysis/loops"
	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/internal/funcutil"
)

// frame is a loop under simulation. The first pass starts from the entry state; the steady pass starts from the
// widened state and stands for every later iteration.
type frame struct {
	loop *loops.Loop
	pass int
	// topTested loops decide at the header whether the body runs
	topTested bool
	backs     []*capture
	exits     []*capture
}

func (f *frame) enterKind() keyevent.Kind {
	if f.pass == 1 {
		return keyevent.LoopEnter
	}
	return keyevent.LoopContinue
}

// decides returns true if the branch of block b decides whether the loop l runs again: the header or a block with no
// edge staying in the body, with an edge going back to the header or leaving the loop
func (w *walker) decides(l *loops.Loop, b int) bool {
	block := w.pa.proc.Blocks[b]
	if block.Branch == nil {
		return false
	}
	loopEdge, bodyEdge := false, false
	for _, s := range block.Succs {
		if l.IsExit(b, s) || l.IsBackEdge(b, s) {
			loopEdge = true
		} else {
			bodyEdge = true
		}
	}
	return loopEdge && (b == l.Header || !bodyEdge)
}

// topTested returns true if the header of l decides between running the body and leaving the loop
func (w *walker) topTested(l *loops.Loop) bool {
	if !w.decides(l, l.Header) {
		return false
	}
	for _, s := range w.pa.proc.Blocks[l.Header].Succs {
		if l.Contains(s) && !l.IsBackEdge(l.Header, s) {
			return true
		}
	}
	return false
}

// headerEvent records an event without condition at the start of the header, for loops tested at the bottom
func (w *walker) headerEvent(kind keyevent.Kind, l *loops.Loop) {
	ev := keyevent.New(kind, model.Point{Block: l.Header}, keyevent.Payload{Loop: l.Header}, w.iteration())
	w.rec.Record(ev, len(w.trail))
}

// capture is a path suspended at a back edge or an exit of a simulated loop
type capture struct {
	edge  loops.Edge
	pass  int
	state *pathState
	snap  keyevent.Snapshot
	trail []int
	pos   int
}

func (w *walker) capture(f *frame, from, to int, st *pathState, pos int) *capture {
	return &capture{
		edge:  loops.Edge{From: from, To: to},
		pass:  f.pass,
		state: st,
		snap:  w.rec.Snapshot(),
		trail: append([]int(nil), w.trail...),
		pos:   pos,
	}
}

// loopRec is the record of a loop classified during the walk
type loopRec struct {
	loop        *loops.Loop
	record      loops.Record
	unavailable bool
}

// recordLoop records the classification of l at one of its entries. A loop relevant at any entry is relevant.
func (w *walker) recordLoop(l *loops.Loop, r loops.Relevance, unavailable bool) {
	for _, lr := range w.loops {
		if lr.loop == l {
			if r == loops.Relevant {
				lr.record.Relevance = loops.Relevant
			}
			lr.unavailable = lr.unavailable || unavailable
			return
		}
	}
	w.loops = append(w.loops, &loopRec{loop: l, record: loops.NewRecord(l, r), unavailable: unavailable})
}

// enter handles the edge entering the loop l at block to
func (w *walker) enter(l *loops.Loop, to int, st *pathState, pos int) (bool, error) {
	r, err := w.pa.classifier.Classify(l, w.oracle(l, st))
	w.recordLoop(l, r, err != nil)
	if err != nil {
		w.pa.unavailable(l, err)
		w.pa.e.log.Debugf("%s: going around %s: %v", w.pa.proc.Name, l, err)
		return w.skip(l, to, st)
	}
	if r == loops.Irrelevant {
		return w.skip(l, to, st)
	}
	return w.simulate(l, st)
}

// skip goes around the loop l entered at block entry: the variables it assigns are forgotten and the walk
// continues at its exits. The blocks of the loop are put on the trail, in block order, so that the branches
// joining inside the loop end there. No event is recorded for the loop.
func (w *walker) skip(l *loops.Loop, entry int, st *pathState) (bool, error) {
	if err := w.tick(); err != nil {
		return false, err
	}
	p := model.Point{Block: entry}
	for _, v := range l.Assigned {
		st.aliases.Havoc(p, v)
		w.pa.pruner.Havoc(st.values, v)
	}
	base := len(w.trail)
	at := map[int]int{}
	for _, b := range l.Body.AppendTo(nil) {
		at[b] = len(w.trail)
		w.trail = append(w.trail, b)
	}
	exits := funcutil.Filter(l.Exits, func(e loops.Edge) bool { return w.d.reaching.Has(e.To) })
	for n, e := range exits {
		next := st
		if n < len(exits)-1 {
			next = st.Clone()
		}
		mark := w.rec.Mark()
		found, err := w.route(e.From, e.To, next, at[e.From])
		if found || err != nil {
			return found, err
		}
		w.rec.Reset(mark)
	}
	w.trail = w.trail[:base]
	return false, nil
}

// simulate walks the relevant loop l: one literal first pass, then one steady pass from the join of the entry
// state and the states at the back edges of the first pass. The paths leaving the loop are then continued.
func (w *walker) simulate(l *loops.Loop, st *pathState) (bool, error) {
	f := &frame{loop: l, pass: 1, topTested: w.topTested(l)}
	entry := st.Clone()
	base := len(w.trail)
	snap := w.rec.Snapshot()
	w.frames = append(w.frames, f)
	if !f.topTested {
		w.headerEvent(keyevent.LoopEnter, l)
	}

	found, err := w.visit(l.Header, st)
	if found || err != nil {
		return found, err
	}
	if len(f.backs) > 0 {
		states := make([]*pathState, len(f.backs))
		for i, c := range f.backs {
			states[i] = c.state
		}
		widened := loops.Widen(entry, states)
		first := f.backs[0]
		w.rec.Restore(first.snap)
		w.trail = append([]int(nil), first.trail...)
		f.pass = 2
		if !f.topTested && !w.decides(l, first.edge.From) {
			w.headerEvent(keyevent.LoopContinue, l)
		}
		found, err = w.visit(l.Header, widened)
		if found || err != nil {
			return found, err
		}
	}
	w.frames = w.frames[:len(w.frames)-1]

	for _, c := range exitOrder(f) {
		w.rec.Restore(c.snap)
		w.trail = append([]int(nil), c.trail...)
		found, err := w.route(c.edge.From, c.edge.To, c.state, c.pos)
		if found || err != nil {
			return found, err
		}
	}
	w.rec.Restore(snap)
	w.trail = w.trail[:base]
	return false, nil
}

// exitOrder returns the exits in the order a depth-first walk of the unrolled loop meets them: leaving the body
// during the first pass, leaving in the steady state, and skipping the body from the header
func exitOrder(f *frame) []*capture {
	var first, steady, skips []*capture
	for _, c := range f.exits {
		switch {
		case c.pass == 2:
			steady = append(steady, c)
		case c.edge.From == f.loop.Header && f.topTested:
			skips = append(skips, c)
		default:
			first = append(first, c)
		}
	}
	return append(append(first, steady...), skips...)
}

// loopOracle answers the classifier from the state at the entry of the loop
type loopOracle struct {
	w      *walker
	st     *pathState
	values *branch.State
}

func (w *walker) oracle(l *loops.Loop, st *pathState) *loopOracle {
	values := st.values.Clone()
	for _, v := range l.Assigned {
		w.pa.pruner.Havoc(values, v)
	}
	return &loopOracle{w: w, st: st, values: values}
}

func (o *loopOracle) KeyStatement(p model.Point) bool {
	return o.w.isKeyStatement(p, o.st)
}

func (o *loopOracle) KeyBranch(b int) bool {
	block := o.w.pa.proc.Blocks[b]
	return block.Branch != nil && o.w.readsRelevant(*block.Branch)
}

func (o *loopOracle) Feasible(b int, taken bool) bool {
	block := o.w.pa.proc.Blocks[b]
	if block.Branch == nil {
		return true
	}
	return o.w.pa.pruner.IsFeasible(block.Terminator(), *block.Branch, o.values, taken)
}

func (o *loopOracle) ReachesDefect(b int) bool {
	return o.w.d.reaching.Has(b)
}
