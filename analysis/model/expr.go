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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ExprKind is the kind of a right-hand side expression
type ExprKind int

const (
	// ExprVar is a variable read
	ExprVar ExprKind = iota
	// ExprInt is an integer constant
	ExprInt
	// ExprNull is the null pointer constant
	ExprNull
	// ExprOpaque is an expression the front-end did not decompose
	ExprOpaque
	// ExprCall is a call, already resolved to candidate targets by the front-end
	ExprCall
)

// Expr is a right-hand side expression
type Expr struct {
	Kind ExprKind
	// Var is the variable read by an ExprVar
	Var Variable
	// Int is the value of an ExprInt
	Int int64
	// Text is the source text of an ExprOpaque and the callee of an ExprCall
	Text string
	// Uses are the variables read by an ExprOpaque
	Uses []Variable
	// Targets are the candidate targets of a call; empty when unknown
	Targets []string
	// Args are the arguments of a call
	Args []Expr
}

// VarExpr returns the expression reading v
func VarExpr(v Variable) Expr {
	return Expr{Kind: ExprVar, Var: v}
}

// IntExpr returns the integer constant x
func IntExpr(x int64) Expr {
	return Expr{Kind: ExprInt, Int: x}
}

// NullExpr returns the null constant
func NullExpr() Expr {
	return Expr{Kind: ExprNull}
}

// Clone returns a deep copy of the expression
func (e Expr) Clone() Expr {
	c := e
	c.Uses = append([]Variable(nil), e.Uses...)
	c.Targets = append([]string(nil), e.Targets...)
	if e.Args != nil {
		c.Args = make([]Expr, len(e.Args))
		for i, a := range e.Args {
			c.Args[i] = a.Clone()
		}
	}
	return c
}

// Vars returns the variables read by the expression (for calls, the variables read by the arguments)
func (e Expr) Vars() []Variable {
	switch e.Kind {
	case ExprVar:
		return []Variable{e.Var}
	case ExprOpaque:
		return e.Uses
	case ExprCall:
		var vars []Variable
		for _, a := range e.Args {
			vars = append(vars, a.Vars()...)
		}
		return vars
	}
	return nil
}

func (e Expr) String() string {
	switch e.Kind {
	case ExprVar:
		return e.Var.String()
	case ExprInt:
		return strconv.FormatInt(e.Int, 10)
	case ExprNull:
		return "NULL"
	case ExprCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s(%s)", e.Text, strings.Join(args, ", "))
	}
	return e.Text
}

var intRegex = regexp.MustCompile(`^-?[0-9]+$`)

// ParseExpr decomposes the text of an expression
func ParseExpr(text string) Expr {
	s := strings.TrimSpace(text)
	switch {
	case s == "null" || s == "NULL" || s == "nullptr":
		return NullExpr()
	case intRegex.MatchString(s):
		if x, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntExpr(x)
		}
	case IsVariableSpelling(s):
		return VarExpr(ParseVariable(s))
	}
	return Expr{Kind: ExprOpaque, Text: s, Uses: extractUses(s)}
}

// Op is a comparison operator
type Op string

// The comparison operators of decomposed conditions
const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Negate returns the operator of the negated comparison
func (op Op) Negate() Op {
	switch op {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	}
	return op
}

// Cond is a branch condition. A decomposed condition compares a variable to a variable, an integer or null. A
// condition that cannot be decomposed is opaque, and only the variables it reads are known.
type Cond struct {
	Left  Variable
	Op    Op
	Right Expr
	// Text is the source text of the condition
	Text string
	// Opaque is true when the condition could not be decomposed
	Opaque bool
	// Uses are the variables read by an opaque condition
	Uses []Variable
	// ExcludedWhen lists the ids of when-predicates that exclude the then-edge when they hold
	ExcludedWhen []string
}

// Clone returns a deep copy of the condition
func (c Cond) Clone() Cond {
	x := c
	x.Right = c.Right.Clone()
	x.Uses = append([]Variable(nil), c.Uses...)
	x.ExcludedWhen = append([]string(nil), c.ExcludedWhen...)
	return x
}

// Vars returns the variables read by the condition
func (c Cond) Vars() []Variable {
	if c.Opaque {
		return c.Uses
	}
	return append([]Variable{c.Left}, c.Right.Vars()...)
}

// Negate returns the negation of a decomposed condition. Opaque conditions are returned unchanged.
func (c Cond) Negate() Cond {
	if c.Opaque {
		return c
	}
	n := c
	n.Op = c.Op.Negate()
	n.Text = "!(" + c.Text + ")"
	n.ExcludedWhen = nil
	return n
}

func (c Cond) String() string {
	if c.Text != "" {
		return c.Text
	}
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

var condRegex = regexp.MustCompile(`^(` + varPattern + `)\s*(==|!=|<=|>=|<|>)\s*(` + varPattern + `|-?[0-9]+)$`)

// ParseCond decomposes the text of a condition. "p" and "!p" are read as p != null and p == null.
func ParseCond(text string) Cond {
	s := strings.TrimSpace(text)
	if m := condRegex.FindStringSubmatch(s); m != nil && !isKeyword(m[1]) {
		return Cond{Left: ParseVariable(m[1]), Op: Op(m[2]), Right: ParseExpr(m[3]), Text: s}
	}
	if IsVariableSpelling(s) {
		return Cond{Left: ParseVariable(s), Op: OpNe, Right: NullExpr(), Text: s}
	}
	if strings.HasPrefix(s, "!") && IsVariableSpelling(s[1:]) {
		return Cond{Left: ParseVariable(s[1:]), Op: OpEq, Right: NullExpr(), Text: s}
	}
	return Cond{Text: s, Opaque: true, Uses: extractUses(s)}
}
