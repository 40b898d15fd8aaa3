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

package model

import (
	"errors"
	"fmt"
)

// Validate checks the structural well-formedness of the program: successor indexes are in range, branch blocks
// have two distinct successors, other blocks at most one, predicate ids are unique and exclusions refer to
// when-predicates. Missing bound predicates are not structural errors; they are reported by the analysis.
func (p *Program) Validate() error {
	var errs []error
	names := map[string]bool{}
	for _, proc := range p.Procedures {
		if names[proc.Name] {
			errs = append(errs, fmt.Errorf("duplicate procedure %q", proc.Name))
		}
		names[proc.Name] = true
		if err := proc.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks the structural well-formedness of the procedure
func (p *Procedure) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("procedure without a name")
	}
	if len(p.Blocks) == 0 {
		return fmt.Errorf("procedure %s: no blocks", p.Name)
	}
	preds := map[string]Predicate{}
	for _, pred := range p.Predicates {
		if _, ok := preds[pred.ID]; ok || pred.ID == "" {
			return fmt.Errorf("procedure %s: invalid or duplicate predicate id %q", p.Name, pred.ID)
		}
		switch pred.Kind {
		case PredBound:
		case PredWhen:
			if pred.Cond == nil {
				return fmt.Errorf("procedure %s: when-predicate %s has no condition", p.Name, pred.ID)
			}
		default:
			return fmt.Errorf("procedure %s: predicate %s has unknown kind %q", p.Name, pred.ID, pred.Kind)
		}
		preds[pred.ID] = pred
	}
	for i, b := range p.Blocks {
		if b.Index != i {
			return fmt.Errorf("procedure %s: block %d has index %d", p.Name, i, b.Index)
		}
		for _, s := range b.Succs {
			if s < 0 || s >= len(p.Blocks) {
				return fmt.Errorf("procedure %s: block %d has out of range successor %d", p.Name, i, s)
			}
		}
		if b.Branch != nil {
			if len(b.Succs) != 2 || b.Succs[0] == b.Succs[1] {
				return fmt.Errorf("procedure %s: branch block %d needs two distinct successors, has %v",
					p.Name, i, b.Succs)
			}
			for _, id := range b.Branch.ExcludedWhen {
				if pred, ok := preds[id]; !ok || pred.Kind != PredWhen {
					return fmt.Errorf("procedure %s: block %d is excluded by %q, which is not a when-predicate",
						p.Name, i, id)
				}
			}
		} else if len(b.Succs) > 1 {
			return fmt.Errorf("procedure %s: block %d has %d successors but no branch", p.Name, i, len(b.Succs))
		}
		for j, s := range b.Stmts {
			if s.Kind == StmtAccess && s.Access == nil {
				return fmt.Errorf("procedure %s: access statement %s has no access", p.Name, Point{i, j})
			}
			if (s.Kind == StmtDecl || s.Kind == StmtAssign) && s.Target.IsZero() {
				return fmt.Errorf("procedure %s: statement %s has no target", p.Name, Point{i, j})
			}
		}
	}
	return nil
}
