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
	"github.com/awslabs/keytrail/internal/graphutil"
)

// StmtKind is the kind of a statement
type StmtKind int

const (
	// StmtDecl declares Target, with an optional initializer in Value
	StmtDecl StmtKind = iota
	// StmtAssign assigns Value to Target
	StmtAssign
	// StmtCall is a call whose result is discarded. The callee may write the Clobbers variables.
	StmtCall
	// StmtAccess is a buffer access flagged by the value-range analysis
	StmtAccess
)

func (k StmtKind) String() string {
	switch k {
	case StmtDecl:
		return "decl"
	case StmtAssign:
		return "assign"
	case StmtCall:
		return "call"
	case StmtAccess:
		return "access"
	}
	return "?"
}

// Stmt is a statement of a basic block
type Stmt struct {
	Kind StmtKind
	Pos  Position
	// Target is the declared or assigned variable
	Target Variable
	// Value is the right-hand side of an assignment, the initializer of a declaration (HasValue) or the call of a
	// StmtCall
	Value    Expr
	HasValue bool
	// Clobbers are the variables written by a call, other than its result
	Clobbers []Variable
	// Access is the flagged access of a StmtAccess
	Access *Access
}

// Access is a flagged buffer access
type Access struct {
	Buffer Variable
	Index  Expr
	// Bound is the id of the bound predicate of the buffer; empty when the bound is the declared size
	Bound  string
	Defect DefectInfo
}

// Vars returns the operands of the access
func (a Access) Vars() []Variable {
	return append([]Variable{a.Buffer}, a.Index.Vars()...)
}

// DefectInfo is the tag of a flagged access, supplied by the value-range analysis
type DefectInfo struct {
	Code        string `yaml:"code" json:"code"`
	Category    string `yaml:"category" json:"category"`
	Severity    string `yaml:"severity" json:"severity"`
	Rank        int    `yaml:"rank" json:"rank"`
	Probability int    `yaml:"probability" json:"probability"`
}

// DefaultDefect is the tag of accesses that carry none
var DefaultDefect = DefectInfo{
	Code:        "26000",
	Category:    "BUFFER_OVERRUN",
	Severity:    "warning",
	Rank:        1,
	Probability: 1,
}

// Block is a basic block of a procedure
type Block struct {
	Index int
	Stmts []Stmt
	// Branch is the condition of a conditional block; Succs is then [then, else]
	Branch *Cond
	Succs  []int
	// Pos is the position of the terminator
	Pos Position
}

// Terminator returns the point of the terminator of the block
func (b *Block) Terminator() Point {
	return Point{Block: b.Index, Offset: len(b.Stmts)}
}

// PredicateKind is the kind of an annotation predicate
type PredicateKind string

const (
	// PredBound is a buffer bound annotation, e.g. _In_reads_(n). Only its references are interpreted.
	PredBound PredicateKind = "bound"
	// PredWhen is a conditional annotation, e.g. _When_(n == 0). Its condition is interpreted.
	PredWhen PredicateKind = "when"
)

// Predicate is an annotation fact resolved by the front-end
type Predicate struct {
	ID   string
	Kind PredicateKind
	// Expr is the text of the annotation
	Expr string
	// Refs are the locations the bound refers to
	Refs []Variable
	// Cond is the condition of a when-predicate
	Cond *Cond
}

// Parameter is a formal parameter
type Parameter struct {
	Name string
	// Unbound is true for a defaulted parameter with no caller-supplied actual
	Unbound bool
}

// Procedure is the flow graph of one procedure. Block 0 is the entry.
type Procedure struct {
	Name string
	File string
	Pos  Position
	// Receiver is the class of a method, empty for free functions
	Receiver string
	// Fields are the members of the receiver class
	Fields  []string
	Params  []Parameter
	Statics []string
	// Interesting is the seed set of interesting variables
	Interesting []Variable
	// Assume are facts that hold at entry
	Assume     []Cond
	Predicates []Predicate
	Blocks     []*Block
}

// Program is the unit of input: global names and the procedures
type Program struct {
	Globals    []string
	Procedures []*Procedure
}

// Procedure returns the procedure with the given name, or nil
func (p *Program) Procedure(name string) *Procedure {
	for _, proc := range p.Procedures {
		if proc.Name == name {
			return proc
		}
	}
	return nil
}

// Succs returns the successor lists of the blocks
func (p *Procedure) Succs() [][]int {
	succs := make([][]int, len(p.Blocks))
	for i, b := range p.Blocks {
		succs[i] = b.Succs
	}
	return succs
}

// Graph returns the flow graph of the procedure
func (p *Procedure) Graph() graphutil.FlowGraph {
	return graphutil.NewFlowGraph(p.Succs())
}

// Stmt returns the statement at point, and false if the point is a terminator or out of range
func (p *Procedure) Stmt(pt Point) (Stmt, bool) {
	if pt.Block < 0 || pt.Block >= len(p.Blocks) {
		return Stmt{}, false
	}
	b := p.Blocks[pt.Block]
	if pt.Offset < 0 || pt.Offset >= len(b.Stmts) {
		return Stmt{}, false
	}
	return b.Stmts[pt.Offset], true
}

// Accesses returns the points of the flagged accesses, in block and statement order
func (p *Procedure) Accesses() []Point {
	var points []Point
	for _, b := range p.Blocks {
		for i, s := range b.Stmts {
			if s.Kind == StmtAccess {
				points = append(points, Point{Block: b.Index, Offset: i})
			}
		}
	}
	return points
}

// Predicate returns the predicate with the given id
func (p *Procedure) Predicate(id string) (Predicate, bool) {
	for _, pred := range p.Predicates {
		if pred.ID == id {
			return pred, true
		}
	}
	return Predicate{}, false
}

// Param returns the parameter with the given name
func (p *Procedure) Param(name string) (Parameter, bool) {
	for _, param := range p.Params {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// HasPathTo returns true if there is a path from block a to block b. Every block has a path to itself.
func (p *Procedure) HasPathTo(a, b int) bool {
	return graphutil.ReachableFrom(p.Graph(), a).Has(b)
}
