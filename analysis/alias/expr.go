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
	"fmt"

	"github.com/awslabs/keytrail/analysis/model"
)

// Kind is the kind of an aliased expression
type Kind int

const (
	// Unknown is the absence of information. Queries on untracked variables return Unknown.
	Unknown Kind = iota
	// Itself is the fact of a freshly declared variable
	Itself
	// Variable means the variable aliases another variable
	Variable
	// Tag is an unresolved expression (constants, arithmetic)
	Tag
	// Fresh is a newly allocated value that aliases nothing
	Fresh
	// ThroughCall is a value returned or written by a call the analysis does not model
	ThroughCall
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Itself:
		return "itself"
	case Variable:
		return "variable"
	case Tag:
		return "tag"
	case Fresh:
		return "fresh"
	case ThroughCall:
		return "through-call"
	}
	return "?"
}

// Expr is what a variable aliases
type Expr struct {
	Kind Kind
	// Var is the aliased variable of a Variable expression
	Var model.Variable
	// Text is the text of a Tag, or the callee of Fresh and ThroughCall expressions
	Text string
}

// UnknownExpr is the unknown expression
var UnknownExpr = Expr{Kind: Unknown}

// VarExpr returns the expression aliasing v
func VarExpr(v model.Variable) Expr {
	return Expr{Kind: Variable, Var: v}
}

// Equal returns true if both expressions denote the same alias
func (e Expr) Equal(o Expr) bool {
	return e.Kind == o.Kind && e.Var.Key() == o.Var.Key() && e.Text == o.Text
}

func (e Expr) String() string {
	switch e.Kind {
	case Variable:
		return e.Var.String()
	case Tag:
		return e.Text
	case Fresh:
		return fmt.Sprintf("fresh(%s)", e.Text)
	case ThroughCall:
		return fmt.Sprintf("unknown-through-call(%s)", e.Text)
	}
	return e.Kind.String()
}

// Fact is an alias fact: at Point, Var was assigned Expr
type Fact struct {
	Point model.Point
	Var   model.Variable
	Expr  Expr
}

func (f Fact) String() string {
	return fmt.Sprintf("%s: %s = %s", f.Point, f.Var, f.Expr)
}

// CallClassifier identifies the callees with a known aliasing behavior. *config.Config implements it.
type CallClassifier interface {
	IsAllocator(callee string) bool
	IsIdentity(callee string) bool
}
