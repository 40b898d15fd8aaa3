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
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/awslabs/keytrail/analysis/config"
	"github.com/awslabs/keytrail/analysis/keyevent"
	"github.com/awslabs/keytrail/analysis/loops"
	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/internal/analysistest"
)

//go:embed testdata
var testfsys embed.FS

func loadFixture(t *testing.T, name string) analysistest.Fixture {
	return analysistest.LoadTest(t, testfsys, filepath.Join("testdata", name))
}

func quietLogger(cfg *config.Config) *config.LogGroup {
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	return logger
}

func newTestExplainer(cfg *config.Config) *Explainer {
	return New(cfg, quietLogger(cfg), nil)
}

// explainFixture explains every procedure of the fixture and indexes the results by procedure name
func explainFixture(t *testing.T, f analysistest.Fixture) map[string]ProcedureResult {
	results := map[string]ProcedureResult{}
	for _, res := range newTestExplainer(f.Config).Program(context.Background(), f.Program) {
		results[res.Procedure] = res
	}
	return results
}

func findReport(res ProcedureResult, p model.Point) *DefectReport {
	for _, r := range res.Reports {
		if r.ID().Point == p {
			return r
		}
	}
	return nil
}

func hasDiagnostic(res ProcedureResult, kind DiagnosticKind) bool {
	for _, d := range res.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func checkExpectations(t *testing.T, f analysistest.Fixture, results map[string]ProcedureResult) {
	for _, e := range f.Expect {
		p, _ := e.Point()
		report := findReport(results[e.Procedure], p)
		if report == nil {
			t.Errorf("%s: no report for %s@%s", f.Name, e.Procedure, e.Access)
			continue
		}
		if err := analysistest.CheckTrail(e, report.Events()); err != nil {
			t.Errorf("%s: %v", f.Name, err)
		}
	}
}

func countKind(events []keyevent.Event, kinds ...keyevent.Kind) int {
	n := 0
	for _, ev := range events {
		for _, k := range kinds {
			if ev.Kind == k {
				n++
			}
		}
	}
	return n
}

func TestAliasing(t *testing.T) {
	f := loadFixture(t, "alias.yaml")
	results := explainFixture(t, f)
	checkExpectations(t, f, results)
	for name, res := range results {
		if res.Incomplete || len(res.Diagnostics) > 0 {
			t.Errorf("%s should be complete, got %v", name, res.Diagnostics)
		}
	}
}

func TestBranchPruning(t *testing.T) {
	f := loadFixture(t, "pruning.yaml")
	results := explainFixture(t, f)
	checkExpectations(t, f, results)

	guarded := results["Guarded"].Reports
	once := results["GuardedOnce"].Reports
	if len(guarded) != 1 || len(once) != 1 || guarded[0].Len() != once[0].Len() {
		t.Fatalf("the infeasible second check should not change the trail")
	}
	for _, name := range []string{"Dead", "Excluded"} {
		res := results[name]
		if len(res.Reports) != 0 || !res.Incomplete || !hasDiagnostic(res, DiagUnexplained) {
			t.Errorf("%s: expected no report and an unexplained diagnostic, got %d reports, %v", name,
				len(res.Reports), res.Diagnostics)
		}
	}
}

func TestLoops(t *testing.T) {
	f := loadFixture(t, "loops.yaml")
	results := explainFixture(t, f)
	checkExpectations(t, f, results)

	second := findReport(results["SecondIteration"], model.Point{Block: 3, Offset: 0})
	if second == nil {
		t.Fatalf("no report for SecondIteration")
	}
	if n := countKind(second.Events(), keyevent.LoopContinue); n != 1 {
		t.Errorf("expected exactly one LoopContinue, got %d", n)
	}
	recs := second.Loops()
	if len(recs) != 1 || recs[0].Relevance != loops.Relevant || len(recs[0].Classes) != 2 ||
		recs[0].Classes[0] != loops.Enter || recs[0].Classes[1] != loops.Continue {
		t.Errorf("unexpected loop records %v", recs)
	}

	irrelevant := results["IrrelevantLoop"]
	if len(irrelevant.Reports) != 1 {
		t.Fatalf("expected one report for IrrelevantLoop")
	}
	events := irrelevant.Reports[0].Events()
	if n := countKind(events, keyevent.LoopEnter, keyevent.LoopExit, keyevent.LoopContinue, keyevent.LoopSkip); n != 0 {
		t.Errorf("irrelevant loop produced %d loop events", n)
	}
	if recs := irrelevant.Reports[0].Loops(); len(recs) != 1 || recs[0].Relevance != loops.Irrelevant {
		t.Errorf("unexpected loop records %v", recs)
	}
	if irrelevant.Incomplete {
		t.Errorf("irrelevant loops do not make the result incomplete")
	}

	after := findReport(results["AfterLoop"], model.Point{Block: 3, Offset: 0})
	if after == nil {
		t.Fatalf("no report for AfterLoop")
	}
	if recs := after.Loops(); len(recs) != 1 || len(recs[0].Classes) != 2 || recs[0].Classes[1] != loops.Exit {
		t.Errorf("unexpected loop records %v", recs)
	}
}

func loopRecord(r *DefectReport, header int) (loops.Record, bool) {
	for _, rec := range r.Loops() {
		if rec.Header == header {
			return rec, true
		}
	}
	return loops.Record{}, false
}

func TestNestedLoopTrails(t *testing.T) {
	f := loadFixture(t, "loops.yaml")
	results := explainFixture(t, f)

	// the inner loop is irrelevant while first is 1, and relevant in the later outer iterations
	cached := findReport(results["CachedRelevance"], model.Point{Block: 5, Offset: 0})
	if cached == nil {
		t.Fatalf("no report for CachedRelevance")
	}
	if rec, ok := loopRecord(cached, 3); !ok || rec.Relevance != loops.Relevant {
		t.Errorf("the inner loop should be relevant, got %v", cached.Loops())
	}
	if results["CachedRelevance"].Incomplete {
		t.Errorf("CachedRelevance should be complete, got %v", results["CachedRelevance"].Diagnostics)
	}

	steady := findReport(results["NestedSteady"], model.Point{Block: 5, Offset: 0})
	if steady == nil {
		t.Fatalf("no report for NestedSteady")
	}
	events := steady.Events()
	if len(events) != 9 {
		t.Fatalf("unexpected trail %v", analysistest.Kinds(events))
	}
	for i, it := range []keyevent.Iteration{keyevent.FirstIteration, keyevent.FirstIteration,
		keyevent.FirstIteration, keyevent.SteadyIteration, keyevent.SteadyIteration, keyevent.SteadyIteration,
		keyevent.SteadyIteration, keyevent.SteadyIteration, keyevent.SteadyIteration} {
		if events[i].Iteration != it {
			t.Errorf("event %s: expected %s", events[i], it)
		}
	}
	if events[1].Point != events[5].Point {
		t.Errorf("the inner loop should be entered again at %s, got %s", events[1].Point, events[5].Point)
	}
}

func TestBottomTestedLoop(t *testing.T) {
	f := loadFixture(t, "loops.yaml")
	r := findReport(explainFixture(t, f)["DoWhile"], model.Point{Block: 2, Offset: 0})
	if r == nil {
		t.Fatalf("no report for DoWhile")
	}
	events := r.Events()
	latch := model.Point{Block: 3, Offset: 2}
	for _, ev := range events {
		if ev.Kind.IsBranch() && ev.Point == latch {
			t.Errorf("the loop condition should not be a branch event: %s", ev)
		}
	}
	if len(events) != 4 || events[1].Point != latch || events[1].Payload.Loop != 1 {
		t.Errorf("expected the loop to continue at the latch, got %v", events)
	}
	if rec, ok := loopRecord(r, 1); !ok || len(rec.Classes) != 2 || rec.Classes[0] != loops.Enter ||
		rec.Classes[1] != loops.Continue {
		t.Errorf("unexpected loop records %v", r.Loops())
	}
}

func TestIrreducibleRegion(t *testing.T) {
	f := loadFixture(t, "loops.yaml")
	res := explainFixture(t, f)["Irreducible"]
	if len(res.Reports) != 2 {
		t.Fatalf("expected the defects before and after the region to be reported, got %d", len(res.Reports))
	}
	if !res.Incomplete || !hasDiagnostic(res, DiagModelUnavailable) {
		t.Errorf("expected a model unavailable diagnostic, got %v", res.Diagnostics)
	}
	before, after := res.Reports[0], res.Reports[1]
	if before.Partial() {
		t.Errorf("the defect before the region does not depend on it")
	}
	if !after.Partial() {
		t.Errorf("the defect after the region should be marked partial")
	}
	for _, r := range res.Reports {
		if n := countKind(r.Events(), keyevent.LoopEnter, keyevent.LoopExit, keyevent.LoopContinue,
			keyevent.LoopSkip); n != 0 {
			t.Errorf("%s: %d loop events fabricated for an irreducible region", r.ID(), n)
		}
	}

	// the region is reported even when no walk goes through it
	res = explainFixture(t, f)["IrreducibleAfter"]
	if len(res.Reports) != 1 || res.Reports[0].Partial() {
		t.Fatalf("expected one complete report before the region, got %d", len(res.Reports))
	}
	if !res.Incomplete || !hasDiagnostic(res, DiagModelUnavailable) {
		t.Errorf("expected a model unavailable diagnostic, got %v", res.Diagnostics)
	}
	for _, d := range res.Diagnostics {
		if d.Kind == DiagModelUnavailable && d.Point != (model.Point{Block: 1}) {
			t.Errorf("expected the diagnostic at the smallest entry block, got %s", d)
		}
	}
}

func TestAnnotations(t *testing.T) {
	f := loadFixture(t, "annotations.yaml")
	results := explainFixture(t, f)
	checkExpectations(t, f, results)

	res := results["DefaultParam"]
	if len(res.Reports) != 0 || !res.Incomplete {
		t.Errorf("unresolved bounds should produce no report and an incomplete result")
	}
	n := 0
	for _, d := range res.Diagnostics {
		if d.Kind == DiagInconsistentAnnotation {
			n++
		}
	}
	if n != 2 {
		t.Errorf("expected 2 inconsistent annotations, got %v", res.Diagnostics)
	}

	bounded := results["Bounded"]
	if len(bounded.Reports) != 1 {
		t.Fatalf("expected one report for Bounded")
	}
	r := bounded.Reports[0]
	if id := r.ID(); id.Bound != "_In_reads_(n)" || id.Procedure != "Bounded" {
		t.Errorf("unexpected defect id %v", id)
	}
	if info := r.Info(); info.Code != "26017" || info.Category != "READ_OVERRUN" || info.Rank != 2 {
		t.Errorf("unexpected defect info %+v", info)
	}
	if loc := r.Location(); loc.File != "sal.cpp" || loc.Line != 12 {
		t.Errorf("unexpected location %v", loc)
	}
}

func TestBudget(t *testing.T) {
	f := loadFixture(t, "budget.yaml")
	results := explainFixture(t, f)
	checkExpectations(t, f, results)
	res := results["TwoAccesses"]
	if len(res.Reports) != 1 || !res.Incomplete || !hasDiagnostic(res, DiagAbandoned) {
		t.Errorf("expected one report before abandonment, got %d reports, %v", len(res.Reports),
			res.Diagnostics)
	}
}

func TestCancellation(t *testing.T) {
	f := loadFixture(t, "alias.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newTestExplainer(f.Config)
	for _, proc := range f.Program.Procedures {
		res := e.Procedure(ctx, f.Program, proc)
		if len(res.Reports) != 0 || !res.Incomplete || !hasDiagnostic(res, DiagAbandoned) {
			t.Errorf("%s: a cancelled analysis should keep no report, got %d", proc.Name, len(res.Reports))
		}
	}
}

func TestDeterminism(t *testing.T) {
	for _, name := range []string{"alias.yaml", "pruning.yaml", "loops.yaml", "annotations.yaml"} {
		f := loadFixture(t, name)
		e := newTestExplainer(f.Config)
		var runs [][]byte
		for i := 0; i < 3; i++ {
			var all []*DefectReport
			results := e.Program(context.Background(), f.Program)
			for j, res := range results {
				if res.Procedure != f.Program.Procedures[j].Name {
					t.Fatalf("%s: results out of procedure order", name)
				}
				all = append(all, res.Reports...)
			}
			b, err := json.Marshal(all)
			if err != nil {
				t.Fatalf("%s: failed to marshal reports: %v", name, err)
			}
			runs = append(runs, b)
		}
		for _, b := range runs[1:] {
			if !bytes.Equal(b, runs[0]) {
				t.Errorf("%s: reports differ between runs", name)
			}
		}
	}
}

func TestReportImmutable(t *testing.T) {
	f := loadFixture(t, "alias.yaml")
	res := newTestExplainer(f.Config).Procedure(context.Background(), f.Program, f.Program.Procedure("Interesting"))
	if len(res.Reports) != 1 {
		t.Fatalf("expected one report")
	}
	r := res.Reports[0]
	events := r.Events()
	events[0].Message = "changed"
	events[0].Payload.Vars[0].Name = "changed"
	events[0].Payload.Alias.Var.Name = "changed"
	again := r.Events()[0]
	if again.Message == "changed" || again.Payload.Vars[0].Name == "changed" ||
		again.Payload.Alias.Var.Name == "changed" {
		t.Errorf("Events should return a copy, got %s", again)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Procedure string `json:"procedure"`
		Point     string `json:"point"`
		Code      string `json:"code"`
		Events    []struct {
			ID   int    `json:"id"`
			Kind string `json:"kind"`
		} `json:"events"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Procedure != "Interesting" || decoded.Point != "b0:3" || decoded.Code != "26000" ||
		len(decoded.Events) != 2 || decoded.Events[1].Kind != "Access" || decoded.Events[1].ID != 2 {
		t.Errorf("unexpected json %s", b)
	}
}

func TestReportConditionsImmutable(t *testing.T) {
	f := loadFixture(t, "loops.yaml")
	res := newTestExplainer(f.Config).Procedure(context.Background(), f.Program,
		f.Program.Procedure("SecondIteration"))
	if len(res.Reports) != 1 {
		t.Fatalf("expected one report")
	}
	r := res.Reports[0]
	ev := r.Events()[0]
	if ev.Payload.Cond == nil {
		t.Fatalf("expected the condition of the loop in %s", ev)
	}
	ev.Payload.Cond.Text = "changed"
	ev.Payload.Cond.Right.Var.Name = "changed"
	again := r.Events()[0].Payload.Cond
	if again.Text == "changed" || again.Right.Var.Name == "changed" {
		t.Errorf("Events should not share conditions, got %s", again)
	}
	if b := f.Program.Procedure("SecondIteration").Blocks[1].Branch; b.Text == "changed" {
		t.Errorf("the model condition was changed through a report")
	}
}

func TestUnimportantEvents(t *testing.T) {
	f := loadFixture(t, "alias.yaml")
	cfg := config.NewDefault()
	cfg.ReportUnimportant = true
	res := newTestExplainer(cfg).Procedure(context.Background(), f.Program, f.Program.Procedure("Interesting"))
	if len(res.Reports) != 1 {
		t.Fatalf("expected one report")
	}
	got := analysistest.Kinds(res.Reports[0].Events())
	if len(got) != 3 || got[0] != "Declaration" || got[1] != "Aliasing" || got[2] != "Access" {
		t.Errorf("unexpected trail %v", got)
	}
}
