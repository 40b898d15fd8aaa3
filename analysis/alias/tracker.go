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

package alias

import (
	"sort"

	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/internal/funcutil"
)

// Tracker holds the alias facts of the interesting variables along one path. A Tracker is not safe for concurrent
// use; each walk owns its trackers and clones them at branch points.
type Tracker struct {
	norm  *Normalizer
	calls CallClassifier

	// interesting is the set of keys of interesting variables
	interesting map[string]bool

	// current maps keys to the fact currently live for the variable
	current map[string]Fact

	// remembered maps keys to the fact replaced by the current one, when it was an alias of another variable
	remembered map[string]Fact
}

// NewTracker returns an empty tracker. calls may be nil, in which case every call is opaque.
func NewTracker(norm *Normalizer, calls CallClassifier) *Tracker {
	return &Tracker{
		norm:        norm,
		calls:       calls,
		interesting: map[string]bool{},
		current:     map[string]Fact{},
		remembered:  map[string]Fact{},
	}
}

// Normalizer returns the normalizer of the tracker
func (t *Tracker) Normalizer() *Normalizer {
	return t.norm
}

// MarkInteresting makes v interesting: its subsequent assignments are tracked
func (t *Tracker) MarkInteresting(v model.Variable) {
	t.interesting[t.norm.Identity(v).Key()] = true
}

// IsInteresting returns true if v has been marked interesting
func (t *Tracker) IsInteresting(v model.Variable) bool {
	return t.interesting[t.norm.Identity(v).Key()]
}

// Classify returns the aliased expression of a right-hand side. Variables are normalized; calls are Fresh for
// allocators, the classification of their first argument for identities and ThroughCall otherwise.
func (t *Tracker) Classify(rhs model.Expr) Expr {
	switch rhs.Kind {
	case model.ExprVar:
		return VarExpr(t.norm.Identity(rhs.Var))
	case model.ExprCall:
		if t.calls != nil {
			if t.calls.IsAllocator(rhs.Text) {
				return Expr{Kind: Fresh, Text: rhs.Text}
			}
			if t.calls.IsIdentity(rhs.Text) && len(rhs.Args) > 0 {
				return t.Classify(rhs.Args[0])
			}
		}
		return Expr{Kind: ThroughCall, Text: rhs.Text}
	}
	return Expr{Kind: Tag, Text: rhs.String()}
}

// RecordAssignment records that lhs is assigned rhs at point. It returns false when nothing is recorded, which
// happens for uninteresting variables and self-assignments.
func (t *Tracker) RecordAssignment(point model.Point, lhs model.Variable, rhs Expr) bool {
	lhs = t.norm.Identity(lhs)
	k := lhs.Key()
	if !t.interesting[k] {
		return false
	}
	if rhs.Kind == Variable && rhs.Var.Key() == k {
		return false
	}
	if prev, ok := t.current[k]; ok && prev.Expr.Kind == Variable {
		t.remembered[k] = prev
	} else {
		delete(t.remembered, k)
	}
	t.current[k] = Fact{Point: point, Var: lhs, Expr: rhs}
	return true
}

// Declare installs the Itself fact for v at point
func (t *Tracker) Declare(point model.Point, v model.Variable) bool {
	return t.RecordAssignment(point, v, Expr{Kind: Itself})
}

// Query returns what v aliases just before point executes. A fact established at point itself is not live yet,
// in which case the fact it replaced is returned when it was remembered.
func (t *Tracker) Query(point model.Point, v model.Variable) Expr {
	k := t.norm.Identity(v).Key()
	f, ok := t.current[k]
	if !ok {
		return UnknownExpr
	}
	if f.Point == point {
		if prev, ok := t.remembered[k]; ok {
			return prev.Expr
		}
		return UnknownExpr
	}
	return f.Expr
}

// Current returns the live fact of v, if v is tracked
func (t *Tracker) Current(v model.Variable) funcutil.Optional[Fact] {
	if f, ok := t.current[t.norm.Identity(v).Key()]; ok {
		return funcutil.Some(f)
	}
	return funcutil.None[Fact]()
}

// Previous returns the alias fact that the current fact of v replaced. It is empty once a non-alias fact has
// been replaced, i.e. facts are retained one generation back only.
func (t *Tracker) Previous(v model.Variable) funcutil.Optional[Fact] {
	if f, ok := t.remembered[t.norm.Identity(v).Key()]; ok {
		return funcutil.Some(f)
	}
	return funcutil.None[Fact]()
}

// Resolve follows the alias chain of v just before point and returns the last expression of the chain. A cycle
// in the chain resolves to Unknown.
func (t *Tracker) Resolve(point model.Point, v model.Variable) Expr {
	visited := map[string]bool{t.norm.Identity(v).Key(): true}
	e := t.Query(point, v)
	for e.Kind == Variable {
		k := e.Var.Key()
		if visited[k] {
			return UnknownExpr
		}
		visited[k] = true
		next := t.Query(point, e.Var)
		if next.Kind == Unknown || next.Kind == Itself {
			return e
		}
		e = next
	}
	return e
}

// Havoc forgets what v aliases. The remembered fact is kept.
func (t *Tracker) Havoc(point model.Point, v model.Variable) {
	v = t.norm.Identity(v)
	k := v.Key()
	if !t.interesting[k] {
		return
	}
	if prev, ok := t.current[k]; ok && prev.Expr.Kind == Variable {
		t.remembered[k] = prev
	}
	t.current[k] = Fact{Point: point, Var: v, Expr: UnknownExpr}
}

// Clone returns a copy of the tracker that can be updated independently
func (t *Tracker) Clone() *Tracker {
	c := &Tracker{
		norm:        t.norm,
		calls:       t.calls,
		interesting: make(map[string]bool, len(t.interesting)),
		current:     make(map[string]Fact, len(t.current)),
		remembered:  make(map[string]Fact, len(t.remembered)),
	}
	for k, v := range t.interesting {
		c.interesting[k] = v
	}
	for k, f := range t.current {
		c.current[k] = f
	}
	for k, f := range t.remembered {
		c.remembered[k] = f
	}
	return c
}

// Join merges the facts of o into t: facts that agree are kept, facts that disagree or are only known on one side
// become Unknown.
func (t *Tracker) Join(o *Tracker) {
	for k := range o.interesting {
		t.interesting[k] = true
	}
	for k, f := range t.current {
		g, ok := o.current[k]
		if !ok || !f.Expr.Equal(g.Expr) {
			t.current[k] = Fact{Point: f.Point, Var: f.Var, Expr: UnknownExpr}
		}
	}
	for k, g := range o.current {
		if _, ok := t.current[k]; !ok {
			t.current[k] = Fact{Point: g.Point, Var: g.Var, Expr: UnknownExpr}
		}
	}
	for k, f := range t.remembered {
		if g, ok := o.remembered[k]; !ok || g != f {
			delete(t.remembered, k)
		}
	}
}

// Facts returns the live facts, ordered by variable key
func (t *Tracker) Facts() []Fact {
	keys := make([]string, 0, len(t.current))
	for k := range t.current {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	facts := make([]Fact, len(keys))
	for i, k := range keys {
		facts[i] = t.current[k]
	}
	return facts
}
