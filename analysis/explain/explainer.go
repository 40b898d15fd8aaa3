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

// Package explain reconstructs the key-event trails of the flagged accesses of a program model.
//
// Each defect is explained by one depth-first walk from the entry of its procedure over the edges that the
// branch pruner cannot refute and that lead to the access. The walk records candidate events as it goes: aliasing
// of relevant variables, branch decisions, loop iteration classes. Relevant loops are simulated with one literal
// pass and one steady-state pass; irrelevant loops and loops that cannot be modeled are gone around. The first
// path reaching the access is finalized into an immutable [DefectReport].
//
// Procedures are independent: [Explainer.Program] explains them in parallel, and the walks of one procedure run
// sequentially under a shared step budget.
package explain

import (
	"context"

	"github.com/awslabs/keytrail/analysis/alias"
	"github.com/awslabs/keytrail/analysis/branch"
	"github.com/awslabs/keytrail/analysis/config"
	"github.com/awslabs/keytrail/analysis/keyevent"
	"github.com/awslabs/keytrail/analysis/loops"
	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/internal/funcutil"
	"github.com/awslabs/keytrail/internal/graphutil"
)

// Explainer explains the defects of program models. An Explainer is safe for concurrent use.
type Explainer struct {
	config  *config.Config
	log     *config.LogGroup
	locator model.Locator
}

// New returns an explainer. logger defaults to the log group of the config and locator to the positions of the
// model.
func New(cfg *config.Config, logger *config.LogGroup, locator model.Locator) *Explainer {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	if locator == nil {
		locator = model.DefaultLocator{}
	}
	return &Explainer{config: cfg, log: logger, locator: locator}
}

// Program explains every procedure of the program, with up to num-workers procedures in parallel. The results
// are in procedure order.
func (e *Explainer) Program(ctx context.Context, prog *model.Program) []ProcedureResult {
	return funcutil.MapParallel(prog.Procedures, func(proc *model.Procedure) ProcedureResult {
		return e.Procedure(ctx, prog, proc)
	}, e.config.NumWorkers)
}

// procAnalysis holds what the walks of one procedure share
type procAnalysis struct {
	e          *Explainer
	prog       *model.Program
	proc       *model.Procedure
	graph      graphutil.FlowGraph
	norm       *alias.Normalizer
	pdom       graphutil.PostDomTree
	forest     *loops.Forest
	pruner     *branch.Pruner
	classifier *loops.Classifier
	// interesting is the seed set of the procedure with the relevant variables of every defect
	interesting []model.Variable
	steps       int
	result      *ProcedureResult
}

// Procedure explains the defects of one procedure of prog. The analysis stops at the first defect that exceeds
// the step budget or the timeout, or when ctx is done; the reports finished before are kept and the result is
// flagged incomplete.
func (e *Explainer) Procedure(ctx context.Context, prog *model.Program, proc *model.Procedure) ProcedureResult {
	if e.config.ProcedureTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ProcedureTimeout)
		defer cancel()
	}
	res := ProcedureResult{Procedure: proc.Name}
	g := proc.Graph()
	pa := &procAnalysis{
		e:          e,
		prog:       prog,
		proc:       proc,
		graph:      g,
		norm:       alias.NewNormalizer(proc, prog.Globals),
		pdom:       graphutil.PostDominators(g),
		forest:     loops.BuildForest(proc),
		classifier: loops.NewClassifier(proc, e.config.MaxLoopBlocks, e.log),
		result:     &res,
	}
	pa.pruner = branch.NewPruner(proc, pa.norm, e.config, e.log)
	for _, l := range pa.forest.Loops() {
		if err := pa.classifier.Check(l); err != nil {
			pa.unavailable(l, err)
		}
	}

	defects := pa.defects()
	for _, d := range defects {
		report, err := pa.explain(ctx, d)
		if err != nil {
			res.Incomplete = true
			res.addDiagnostic(Diagnostic{Kind: DiagAbandoned, Point: d.point, Message: err.Error()})
			e.log.Warnf("abandoned %s at %s after %d steps: %v", proc.Name, d.point, pa.steps, err)
			break
		}
		if report == nil {
			res.Incomplete = true
			res.addDiagnostic(Diagnostic{
				Kind:    DiagUnexplained,
				Point:   d.point,
				Message: "no feasible path reaches the access",
			})
			e.log.Debugf("%s: no feasible path to %s", proc.Name, d.point)
			continue
		}
		res.Reports = append(res.Reports, report)
	}
	e.log.Debugf("%s: %d reports in %d steps", proc.Name, len(res.Reports), pa.steps)
	return res
}

// unavailable flags the result for a loop whose iterations cannot be modeled
func (pa *procAnalysis) unavailable(l *loops.Loop, err error) {
	pa.result.Incomplete = true
	pa.result.addDiagnostic(Diagnostic{
		Kind:    DiagModelUnavailable,
		Point:   model.Point{Block: l.Header},
		Message: err.Error(),
	})
}

// defects returns the defects of the procedure whose bound resolves, and computes the interesting variables
func (pa *procAnalysis) defects() []*defect {
	var defects []*defect
	seen := map[string]bool{}
	addInteresting := func(v model.Variable) {
		id := pa.norm.Identity(v)
		if !seen[id.Key()] {
			seen[id.Key()] = true
			pa.interesting = append(pa.interesting, id)
		}
	}
	for _, v := range pa.proc.Interesting {
		addInteresting(v)
	}
	for _, p := range pa.proc.Accesses() {
		d, err := newDefect(pa.proc, pa.graph, pa.norm, p)
		if err != nil {
			pa.result.Incomplete = true
			pa.result.addDiagnostic(Diagnostic{Kind: DiagInconsistentAnnotation, Point: p, Message: err.Error()})
			pa.e.log.Debugf("%s: unresolved access at %s: %v", pa.proc.Name, p, err)
			continue
		}
		for _, k := range funcutil.SetToOrderedSlice(keySet(d.relevant)) {
			addInteresting(d.relevant[k])
		}
		defects = append(defects, d)
	}
	return defects
}

func keySet[V any](m map[string]V) map[string]bool {
	s := make(map[string]bool, len(m))
	for k := range m {
		s[k] = true
	}
	return s
}

func (pa *procAnalysis) entryState() *pathState {
	st := &pathState{aliases: alias.NewTracker(pa.norm, pa.e.config), values: branch.NewState()}
	for _, v := range pa.interesting {
		st.aliases.MarkInteresting(v)
	}
	pa.pruner.Assume(st.values, pa.proc.Assume)
	return st
}

// explain walks to the defect. It returns a nil report when no feasible path reaches the access, and an error
// wrapping errAbandoned when the walk was cut short.
func (pa *procAnalysis) explain(ctx context.Context, d *defect) (*DefectReport, error) {
	pa.classifier.Reset()
	w := &walker{pa: pa, d: d, ctx: ctx, rec: keyevent.NewRecorder(pa.e.config.ReportUnimportant)}
	found, err := w.route(-1, 0, pa.entryState(), -1)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return w.report(), nil
}

func (pa *procAnalysis) locate(p model.Point) model.Location {
	return pa.e.locator.Locate(pa.proc, p)
}

// report builds the report of the path held by the walker
func (w *walker) report() *DefectReport {
	events := w.rec.Finalize(w.trail, w.pa.locate)
	onTrail := map[int]bool{}
	for _, b := range w.trail {
		onTrail[b] = true
	}
	r := &DefectReport{
		id:       w.d.id(w.pa.proc),
		info:     w.d.access.Defect,
		location: w.pa.locate(w.d.point),
		events:   make([]keyevent.Event, len(events)),
	}
	for i, ev := range events {
		r.events[i] = ev.Clone()
	}
	for _, lr := range w.loops {
		if !funcutil.Exists(lr.loop.Body.AppendTo(nil), func(b int) bool { return onTrail[b] }) {
			continue
		}
		rec := lr.record
		for _, ev := range events {
			if c, ok := loopClass(ev.Kind); ok && ev.Payload.Loop == lr.loop.Header {
				rec.Classes = append(rec.Classes, c)
			}
		}
		r.loops = append(r.loops, rec)
		r.partial = r.partial || lr.unavailable
	}
	return r
}

func loopClass(k keyevent.Kind) (loops.Class, bool) {
	switch k {
	case keyevent.LoopEnter:
		return loops.Enter, true
	case keyevent.LoopContinue:
		return loops.Continue, true
	case keyevent.LoopExit:
		return loops.Exit, true
	case keyevent.LoopSkip:
		return loops.Skip, true
	}
	return 0, false
}
