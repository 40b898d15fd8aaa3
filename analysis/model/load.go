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
	"os"

	"gopkg.in/yaml.v3"
)

type rawProgram struct {
	Globals    []string       `yaml:"globals"`
	Procedures []rawProcedure `yaml:"procedures"`
}

type rawProcedure struct {
	Name        string         `yaml:"name"`
	File        string         `yaml:"file"`
	Line        int            `yaml:"line"`
	Column      int            `yaml:"column"`
	Receiver    string         `yaml:"receiver"`
	Fields      []string       `yaml:"fields"`
	Params      []rawParam     `yaml:"params"`
	Statics     []string       `yaml:"statics"`
	Interesting []string       `yaml:"interesting"`
	Assume      []string       `yaml:"assume"`
	Predicates  []rawPredicate `yaml:"predicates"`
	Blocks      []rawBlock     `yaml:"blocks"`
}

type rawParam struct {
	Name    string `yaml:"name"`
	Unbound bool   `yaml:"unbound"`
}

// UnmarshalYAML accepts both a bare parameter name and a mapping
func (p *rawParam) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.Name = value.Value
		return nil
	}
	type plain rawParam
	return value.Decode((*plain)(p))
}

type rawPredicate struct {
	ID   string   `yaml:"id"`
	Kind string   `yaml:"kind"`
	Expr string   `yaml:"expr"`
	Refs []string `yaml:"refs"`
	Cond string   `yaml:"cond"`
}

type rawBlock struct {
	Stmts  []rawStmt  `yaml:"stmts"`
	Branch *rawBranch `yaml:"branch"`
	Succs  []int      `yaml:"succs"`
	Line   int        `yaml:"line"`
	Column int        `yaml:"column"`
}

type rawBranch struct {
	Cond         string   `yaml:"cond"`
	ExcludedWhen []string `yaml:"excluded-when"`
	Line         int      `yaml:"line"`
	Column       int      `yaml:"column"`
}

type rawStmt struct {
	Decl     string      `yaml:"decl"`
	Assign   string      `yaml:"assign"`
	Value    string      `yaml:"value"`
	Call     string      `yaml:"call"`
	Targets  []string    `yaml:"targets"`
	Args     []string    `yaml:"args"`
	Clobbers []string    `yaml:"clobbers"`
	Access   string      `yaml:"access"`
	Index    string      `yaml:"index"`
	Bound    string      `yaml:"bound"`
	Defect   *DefectInfo `yaml:"defect"`
	Line     int         `yaml:"line"`
	Column   int         `yaml:"column"`
}

// Load reads a program model from a yaml file
func Load(filename string) (*Program, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program model: %w", err)
	}
	prog, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return prog, nil
}

// Parse decodes and validates a yaml program model
func Parse(b []byte) (*Program, error) {
	var raw rawProgram
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("could not unmarshal program model: %w", err)
	}
	prog := &Program{Globals: raw.Globals}
	for _, rp := range raw.Procedures {
		proc, err := rp.convert()
		if err != nil {
			return nil, err
		}
		prog.Procedures = append(prog.Procedures, proc)
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

func (rp rawProcedure) convert() (*Procedure, error) {
	proc := &Procedure{
		Name:        rp.Name,
		File:        rp.File,
		Pos:         Position{Line: rp.Line, Column: rp.Column},
		Receiver:    rp.Receiver,
		Fields:      rp.Fields,
		Statics:     rp.Statics,
		Interesting: ParseVariables(rp.Interesting),
	}
	for _, p := range rp.Params {
		proc.Params = append(proc.Params, Parameter{Name: p.Name, Unbound: p.Unbound})
	}
	for _, a := range rp.Assume {
		proc.Assume = append(proc.Assume, ParseCond(a))
	}
	for _, rpred := range rp.Predicates {
		pred := Predicate{
			ID:   rpred.ID,
			Kind: PredicateKind(rpred.Kind),
			Expr: rpred.Expr,
			Refs: ParseVariables(rpred.Refs),
		}
		if rpred.Cond != "" {
			c := ParseCond(rpred.Cond)
			pred.Cond = &c
		}
		proc.Predicates = append(proc.Predicates, pred)
	}
	for i, rb := range rp.Blocks {
		b := &Block{
			Index: i,
			Succs: rb.Succs,
			Pos:   Position{Line: rb.Line, Column: rb.Column},
		}
		if rb.Branch != nil {
			c := ParseCond(rb.Branch.Cond)
			c.ExcludedWhen = rb.Branch.ExcludedWhen
			b.Branch = &c
			if rb.Branch.Line > 0 {
				b.Pos = Position{Line: rb.Branch.Line, Column: rb.Branch.Column}
			}
		}
		for j, rs := range rb.Stmts {
			s, err := rs.convert()
			if err != nil {
				return nil, fmt.Errorf("procedure %s, statement %s: %w", rp.Name, Point{i, j}, err)
			}
			b.Stmts = append(b.Stmts, s)
		}
		proc.Blocks = append(proc.Blocks, b)
	}
	return proc, nil
}

func (rs rawStmt) convert() (Stmt, error) {
	s := Stmt{Pos: Position{Line: rs.Line, Column: rs.Column}}
	kinds := 0
	for _, x := range []string{rs.Decl, rs.Assign, rs.Access} {
		if x != "" {
			kinds++
		}
	}
	if kinds > 1 {
		return s, fmt.Errorf("statement has more than one of decl, assign and access")
	}
	switch {
	case rs.Decl != "":
		s.Kind = StmtDecl
		s.Target = ParseVariable(rs.Decl)
		s.Value, s.HasValue = rs.rhs()
	case rs.Assign != "":
		s.Kind = StmtAssign
		s.Target = ParseVariable(rs.Assign)
		s.Value, s.HasValue = rs.rhs()
		if !s.HasValue {
			return s, fmt.Errorf("assignment to %s has no value", rs.Assign)
		}
	case rs.Access != "":
		s.Kind = StmtAccess
		defect := DefaultDefect
		if rs.Defect != nil {
			defect = *rs.Defect
		}
		s.Access = &Access{
			Buffer: ParseVariable(rs.Access),
			Index:  ParseExpr(rs.Index),
			Bound:  rs.Bound,
			Defect: defect,
		}
	case rs.Call != "":
		s.Kind = StmtCall
		s.Value, s.HasValue = rs.rhs()
	default:
		return s, fmt.Errorf("statement has no kind")
	}
	s.Clobbers = ParseVariables(rs.Clobbers)
	return s, nil
}

// rhs returns the right-hand side of a statement: a call if the statement has a callee, its value otherwise
func (rs rawStmt) rhs() (Expr, bool) {
	if rs.Call != "" {
		call := Expr{Kind: ExprCall, Text: rs.Call, Targets: rs.Targets}
		for _, a := range rs.Args {
			call.Args = append(call.Args, ParseExpr(a))
		}
		return call, true
	}
	if rs.Value != "" {
		return ParseExpr(rs.Value), true
	}
	return Expr{}, false
}
