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
	"context"
	"errors"
	"fmt"

	"github.com/awslabs/keytrail/analysis/alias"
	"github.com/awslabs/keytrail/analysis/branch"
	"github.com/awslabs/keytrail/analysis/keyevent"
	"github.com/awslabs/keytrail/analysis/loops"
	"github.com/awslabs/keytrail/analysis/model"
)

// errAbandoned is returned by a walk that ran out of budget or was cancelled
var errAbandoned = errors.New("analysis abandoned")

// pathState is the abstract state along the current path
type pathState struct {
	aliases *alias.Tracker
	values  *branch.State
}

func (s *pathState) Clone() *pathState {
	return &pathState{aliases: s.aliases.Clone(), values: s.values.Clone()}
}

func (s *pathState) Join(o *pathState) {
	s.aliases.Join(o.aliases)
	s.values.Join(o.values)
}

// walker is the depth-first walk from the entry of a procedure to one defect. The first path reaching the access
// is the counterexample; the recorder and the trail then hold its events and blocks.
type walker struct {
	pa  *procAnalysis
	d   *defect
	ctx context.Context
	rec *keyevent.Recorder
	// trail is the sequence of blocks of the current path
	trail []int
	// frames are the loops being simulated, innermost last
	frames []*frame
	loops  []*loopRec
}

func (w *walker) tick() error {
	if err := w.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", errAbandoned, err)
	}
	w.pa.steps++
	if w.pa.e.config.ExceedsMaxSteps(w.pa.steps) {
		return fmt.Errorf("%w: more than %d steps", errAbandoned, w.pa.e.config.MaxSteps)
	}
	return nil
}

// iteration is steady when any enclosing loop is in its steady pass: the first pass of an inner loop during the
// steady pass of an outer loop is a later iteration of the outer loop
func (w *walker) iteration() keyevent.Iteration {
	if len(w.frames) == 0 {
		return keyevent.NoIteration
	}
	for _, f := range w.frames {
		if f.pass == 2 {
			return keyevent.SteadyIteration
		}
	}
	return keyevent.FirstIteration
}

func (w *walker) frame() *frame {
	if len(w.frames) == 0 {
		return nil
	}
	return w.frames[len(w.frames)-1]
}

func (w *walker) relevant(v model.Variable) bool {
	return w.d.isRelevant(w.pa.norm, v)
}

func (w *walker) readsRelevant(c model.Cond) bool {
	for _, v := range c.Vars() {
		if w.relevant(v) {
			return true
		}
	}
	return false
}

// visit walks the block b and its successors in state st, which it owns. It returns true when the defect is
// reached; otherwise the recorder and the trail are left as they were.
func (w *walker) visit(b int, st *pathState) (bool, error) {
	if err := w.tick(); err != nil {
		return false, err
	}
	pos := len(w.trail)
	w.trail = append(w.trail, b)
	mark := w.rec.Mark()
	for i, s := range w.pa.proc.Blocks[b].Stmts {
		p := model.Point{Block: b, Offset: i}
		if p == w.d.point {
			w.rec.Record(w.accessEvent(), pos)
			return true, nil
		}
		w.apply(p, s, st, pos)
	}
	found, err := w.leave(b, st, pos)
	if found || err != nil {
		return found, err
	}
	w.rec.Reset(mark)
	w.trail = w.trail[:pos]
	return false, nil
}

func (w *walker) apply(p model.Point, s model.Stmt, st *pathState, pos int) {
	switch s.Kind {
	case model.StmtDecl:
		st.aliases.Declare(p, s.Target)
		w.pa.pruner.Havoc(st.values, s.Target)
		if w.relevant(s.Target) {
			payload := keyevent.Payload{Vars: []model.Variable{w.pa.norm.Identity(s.Target)}}
			w.rec.Record(keyevent.New(keyevent.Declaration, p, payload, w.iteration()), pos)
		}
		if s.HasValue {
			w.assign(p, s.Target, s.Value, st, pos)
		}
	case model.StmtAssign:
		w.assign(p, s.Target, s.Value, st, pos)
	}
	for _, c := range s.Clobbers {
		st.aliases.RecordAssignment(p, c, alias.Expr{Kind: alias.ThroughCall, Text: s.Value.Text})
		w.pa.pruner.Havoc(st.values, c)
	}
}

func (w *walker) assign(p model.Point, lhs model.Variable, rhs model.Expr, st *pathState, pos int) {
	e := st.aliases.Classify(rhs)
	recorded := st.aliases.RecordAssignment(p, lhs, e)
	w.pa.pruner.Assign(st.values, lhs, rhs)
	if !recorded || e.Kind != alias.Variable || !w.relevant(lhs) {
		return
	}
	fact, ok := st.aliases.Current(lhs).Get()
	if !ok {
		return
	}
	payload := keyevent.Payload{Vars: []model.Variable{fact.Var, e.Var}, Alias: &fact}
	w.rec.Record(keyevent.New(keyevent.Aliasing, p, payload, w.iteration()), pos)
}

// isKeyStatement returns true if the statement at p records a key event for the defect
func (w *walker) isKeyStatement(p model.Point, st *pathState) bool {
	if p == w.d.point {
		return true
	}
	s, ok := w.pa.proc.Stmt(p)
	if !ok || (s.Kind != model.StmtDecl && s.Kind != model.StmtAssign) || !w.relevant(s.Target) {
		return false
	}
	if s.Kind == model.StmtDecl && w.pa.e.config.ReportUnimportant {
		return true
	}
	return s.HasValue && st.aliases.Classify(s.Value).Kind == alias.Variable
}

func (w *walker) accessEvent() keyevent.Event {
	a := w.d.access
	text := fmt.Sprintf("index '%s' is out of bounds", a.Index)
	if w.d.bound != "" {
		text = fmt.Sprintf("index '%s' exceeds bound '%s'", a.Index, w.d.bound)
	}
	payload := keyevent.Payload{Vars: a.Vars(), Text: text}
	return keyevent.New(keyevent.Access, w.d.point, payload, w.iteration())
}

// leave follows the feasible successors of b that lead to the defect, in successor order. A decision between two
// feasible edges is a branch candidate; a decision forced by pruning records nothing.
func (w *walker) leave(b int, st *pathState, pos int) (bool, error) {
	block := w.pa.proc.Blocks[b]
	var feasible []int
	for i := range block.Succs {
		if block.Branch == nil || w.pa.pruner.IsFeasible(block.Terminator(), *block.Branch, st.values, i == 0) {
			feasible = append(feasible, i)
		}
	}
	f := w.frame()
	decision := f != nil && w.decides(f.loop, b)
	for n, i := range feasible {
		succ := block.Succs[i]
		if !w.d.reaching.Has(succ) {
			continue
		}
		next := st
		if n < len(feasible)-1 {
			next = st.Clone()
		}
		mark := w.rec.Mark()
		if block.Branch != nil {
			w.pa.pruner.Refine(*block.Branch, next.values, i == 0)
			if len(feasible) == 2 && !decision {
				w.branchEvent(block, i, pos)
			}
		}
		found, err := w.route(b, succ, next, pos)
		if found || err != nil {
			return found, err
		}
		w.rec.Reset(mark)
	}
	return false, nil
}

func (w *walker) branchEvent(block *model.Block, i int, pos int) {
	kind := keyevent.BranchEnter
	if i == 1 {
		kind = keyevent.BranchSkip
	}
	cond := *block.Branch
	required := w.readsRelevant(cond) || !w.d.reaching.Has(block.Succs[1-i])
	payload := keyevent.Payload{Vars: cond.Vars(), Cond: &cond, Taken: i == 0}
	ev := keyevent.New(kind, block.Terminator(), payload, w.iteration())
	w.rec.Branch(ev, pos, required, w.pa.pdom.Immediate(block.Index))
}

// route follows the edge from->to, where from is at position pos of the trail. Inside a simulated loop, back
// edges and exits are captured for the simulation instead of being followed. A from of -1 is the procedure
// entry.
func (w *walker) route(from, to int, st *pathState, pos int) (bool, error) {
	if f := w.frame(); f != nil {
		l := f.loop
		switch {
		case l.IsExit(from, to):
			kind := keyevent.LoopExit
			if from == l.Header && f.pass == 1 && f.topTested {
				kind = keyevent.LoopSkip
			}
			w.loopEvent(kind, l, from, to, pos)
			f.exits = append(f.exits, w.capture(f, from, to, st, pos))
			return false, nil
		case l.IsBackEdge(from, to):
			if w.decides(l, from) {
				w.loopEvent(keyevent.LoopContinue, l, from, to, pos)
			}
			if f.pass == 1 {
				f.backs = append(f.backs, w.capture(f, from, to, st, pos))
			}
			return false, nil
		case from == l.Header && f.topTested:
			w.loopEvent(f.enterKind(), l, from, to, pos)
		}
	}
	if l := w.pa.forest.Entered(from, to); l != nil {
		return w.enter(l, to, st, pos)
	}
	return w.visit(to, st)
}

func (w *walker) loopEvent(kind keyevent.Kind, l *loops.Loop, from, to int, pos int) {
	block := w.pa.proc.Blocks[from]
	payload := keyevent.Payload{Loop: l.Header}
	if block.Branch != nil {
		cond := *block.Branch
		payload.Cond = &cond
		payload.Taken = block.Succs[0] == to
		payload.Vars = cond.Vars()
	}
	w.rec.Record(keyevent.New(kind, block.Terminator(), payload, w.iteration()), pos)
}
