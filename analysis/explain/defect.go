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
	"fmt"

	"github.com/awslabs/keytrail/analysis/alias"
	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/internal/graphutil"
	"golang.org/x/tools/container/intsets"
)

// defect is a flagged access with the data computed once before its walk
type defect struct {
	point  model.Point
	access *model.Access
	// bound is the text of the bound predicate, empty when the bound is the declared size
	bound string
	// relevant are the variables the access transitively depends on, by key
	relevant map[string]model.Variable
	// reaching are the blocks with a path to the access
	reaching *intsets.Sparse
}

func (d *defect) id(proc *model.Procedure) DefectID {
	return DefectID{Procedure: proc.Name, Point: d.point, Bound: d.bound}
}

// newDefect returns the defect of the access at p. It returns an error when the bound predicate of the access
// cannot be resolved: the predicate is missing, is not a bound, or references an unbound location.
func newDefect(proc *model.Procedure, g graphutil.FlowGraph, norm *alias.Normalizer, p model.Point) (*defect,
	error) {
	s, ok := proc.Stmt(p)
	if !ok || s.Access == nil {
		return nil, fmt.Errorf("no access at %s", p)
	}
	d := &defect{point: p, access: s.Access, reaching: graphutil.CanReach(g, p.Block)}
	seeds := s.Access.Vars()
	if id := s.Access.Bound; id != "" {
		pred, ok := proc.Predicate(id)
		if !ok {
			return nil, fmt.Errorf("bound predicate %q is not defined", id)
		}
		if pred.Kind != model.PredBound {
			return nil, fmt.Errorf("predicate %q is not a bound", id)
		}
		for _, ref := range pred.Refs {
			if !norm.IsBound(ref) {
				return nil, fmt.Errorf("bound %s references %s, which is unbound", pred.Expr, ref)
			}
		}
		d.bound = pred.Expr
		seeds = append(seeds, pred.Refs...)
	}
	d.relevant = relevantClosure(proc, norm, d.reaching, seeds)
	return d, nil
}

// relevantClosure returns the seeds and the variables that flow into them through assignments in
// the reaching blocks. The closure is flow-insensitive.
func relevantClosure(proc *model.Procedure, norm *alias.Normalizer, reaching *intsets.Sparse,
	seeds []model.Variable) map[string]model.Variable {
	relevant := map[string]model.Variable{}
	add := func(v model.Variable) bool {
		changed := false
		for ; !v.IsZero(); v = parentOf(v) {
			id := norm.Identity(v)
			if _, ok := relevant[id.Key()]; !ok {
				relevant[id.Key()] = id
				changed = true
			}
		}
		return changed
	}
	for _, v := range seeds {
		add(v)
	}
	blocks := reaching.AppendTo(nil)
	for changed := true; changed; {
		changed = false
		for _, b := range blocks {
			for _, s := range proc.Blocks[b].Stmts {
				if s.Kind != model.StmtDecl && s.Kind != model.StmtAssign || !s.HasValue {
					continue
				}
				if _, ok := relevant[norm.Identity(s.Target).Key()]; !ok {
					continue
				}
				for _, v := range s.Value.Vars() {
					if add(v) {
						changed = true
					}
				}
			}
		}
	}
	return relevant
}

// parentOf returns the owner of a field, or the zero variable
func parentOf(v model.Variable) model.Variable {
	if v.Scope != model.Field || v.Owner == "this" {
		return model.Variable{}
	}
	return model.ParseVariable(v.Owner)
}

func (d *defect) isRelevant(norm *alias.Normalizer, v model.Variable) bool {
	_, ok := d.relevant[norm.Identity(v).Key()]
	return ok
}
