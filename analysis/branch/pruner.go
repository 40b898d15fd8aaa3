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

// Package branch decides which edges of conditional blocks are feasible given the abstract values known on the
// current path. Only provably infeasible edges are pruned: a condition that cannot be decided is feasible both
// ways.
package branch

import (
	"github.com/awslabs/keytrail/analysis/alias"
	"github.com/awslabs/keytrail/analysis/config"
	"github.com/awslabs/keytrail/analysis/model"
)

// Truth is the value of a condition in an abstract state
type Truth int

const (
	// Unknown means that the condition may hold or not
	Unknown Truth = iota
	// True means that the condition holds
	True
	// False means that the condition does not hold
	False
)

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

func truthOf(b bool) Truth {
	if b {
		return True
	}
	return False
}

// Pruner evaluates the conditions of one procedure
type Pruner struct {
	norm  *alias.Normalizer
	calls alias.CallClassifier
	preds map[string]model.Predicate
	log   *config.LogGroup
}

// NewPruner returns the pruner of the procedure. calls and logger may be nil.
func NewPruner(proc *model.Procedure, norm *alias.Normalizer, calls alias.CallClassifier,
	logger *config.LogGroup) *Pruner {
	p := &Pruner{norm: norm, calls: calls, preds: map[string]model.Predicate{}, log: logger}
	for _, pred := range proc.Predicates {
		p.preds[pred.ID] = pred
	}
	return p
}

func (p *Pruner) key(v model.Variable) string {
	return p.norm.Identity(v).Key()
}

// Evaluate returns the truth value of the condition in state s
func (p *Pruner) Evaluate(c model.Cond, s *State) Truth {
	if c.Opaque {
		return Unknown
	}
	left := s.Get(p.key(c.Left))
	switch c.Right.Kind {
	case model.ExprNull:
		return compareNull(left, c.Op)
	case model.ExprInt:
		if left.HasConst {
			return compareInts(left.Const, c.Op, c.Right.Int)
		}
		if c.Right.Int == 0 {
			return compareNull(left, c.Op)
		}
	case model.ExprVar:
		rk := p.key(c.Right.Var)
		if rk == p.key(c.Left) {
			return compareInts(0, c.Op, 0)
		}
		right := s.Get(rk)
		if left.HasConst && right.HasConst {
			return compareInts(left.Const, c.Op, right.Const)
		}
	}
	return Unknown
}

func compareNull(f Fact, op model.Op) Truth {
	isNull := Unknown
	switch {
	case f.HasConst:
		isNull = truthOf(f.Const == 0)
	case f.Null == IsNull:
		isNull = True
	case f.Null == NonNull:
		isNull = False
	}
	switch op {
	case model.OpEq:
		return isNull
	case model.OpNe:
		switch isNull {
		case True:
			return False
		case False:
			return True
		}
	}
	return Unknown
}

func compareInts(a int64, op model.Op, b int64) Truth {
	switch op {
	case model.OpEq:
		return truthOf(a == b)
	case model.OpNe:
		return truthOf(a != b)
	case model.OpLt:
		return truthOf(a < b)
	case model.OpLe:
		return truthOf(a <= b)
	case model.OpGt:
		return truthOf(a > b)
	case model.OpGe:
		return truthOf(a >= b)
	}
	return Unknown
}

// IsFeasible returns false if the edge of the branch at point is provably not taken in state s. taken selects
// the then-edge. The then-edge is also infeasible when one of the when-predicates excluding it provably holds.
func (p *Pruner) IsFeasible(point model.Point, c model.Cond, s *State, taken bool) bool {
	t := p.Evaluate(c, s)
	if (taken && t == False) || (!taken && t == True) {
		p.tracef("pruned %v edge at %s: %s is %s in %s", taken, point, c, t, s)
		return false
	}
	if taken {
		for _, id := range c.ExcludedWhen {
			pred, ok := p.preds[id]
			if ok && pred.Kind == model.PredWhen && pred.Cond != nil && p.Evaluate(*pred.Cond, s) == True {
				p.tracef("pruned then edge at %s: excluded by %s", point, pred.Expr)
				return false
			}
		}
	}
	return true
}

// ProvablyExcluded returns the when-predicates excluding the condition that hold in s
func (p *Pruner) ProvablyExcluded(c model.Cond, s *State) []model.Predicate {
	var res []model.Predicate
	for _, id := range c.ExcludedWhen {
		if pred, ok := p.preds[id]; ok && pred.Cond != nil && p.Evaluate(*pred.Cond, s) == True {
			res = append(res, pred)
		}
	}
	return res
}

// Refine updates s with the knowledge that the edge selected by taken is followed
func (p *Pruner) Refine(c model.Cond, s *State, taken bool) {
	if c.Opaque {
		return
	}
	if !taken {
		c = c.Negate()
	}
	k := p.key(c.Left)
	f := s.Get(k)
	switch c.Right.Kind {
	case model.ExprNull:
		switch c.Op {
		case model.OpEq:
			s.Set(k, Fact{Null: IsNull, Const: 0, HasConst: true})
		case model.OpNe:
			f.Null = NonNull
			s.Set(k, f)
		}
	case model.ExprInt:
		switch {
		case c.Op == model.OpEq:
			s.Set(k, constFact(c.Right.Int))
		case c.Op == model.OpNe && c.Right.Int == 0,
			c.Op == model.OpGt && c.Right.Int >= 0,
			c.Op == model.OpLt && c.Right.Int <= 0:
			f.Null = NonNull
			s.Set(k, f)
		}
	case model.ExprVar:
		r := s.Get(p.key(c.Right.Var))
		if c.Op == model.OpEq && r.HasConst {
			s.Set(k, r)
		}
	}
}

func constFact(x int64) Fact {
	f := Fact{Const: x, HasConst: true, Null: NonNull}
	if x == 0 {
		f.Null = IsNull
	}
	return f
}

// Assign updates s for the assignment of rhs to lhs
func (p *Pruner) Assign(s *State, lhs model.Variable, rhs model.Expr) {
	k := p.key(lhs)
	switch rhs.Kind {
	case model.ExprInt:
		s.Set(k, constFact(rhs.Int))
	case model.ExprNull:
		s.Set(k, constFact(0))
	case model.ExprVar:
		s.Set(k, s.Get(p.key(rhs.Var)))
	case model.ExprCall:
		if p.calls != nil && p.calls.IsAllocator(rhs.Text) {
			s.Set(k, Fact{Null: NonNull})
		} else if p.calls != nil && p.calls.IsIdentity(rhs.Text) && len(rhs.Args) > 0 {
			p.Assign(s, lhs, rhs.Args[0])
		} else {
			s.Havoc(k)
		}
	default:
		s.Havoc(k)
	}
}

// Havoc forgets what is known of v in s
func (p *Pruner) Havoc(s *State, v model.Variable) {
	s.Havoc(p.key(v))
}

// Assume refines s with entry facts
func (p *Pruner) Assume(s *State, conds []model.Cond) {
	for _, c := range conds {
		p.Refine(c, s, true)
	}
}

func (p *Pruner) tracef(format string, args ...any) {
	if p.log != nil {
		p.log.Tracef(format, args...)
	}
}
