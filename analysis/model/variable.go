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
	"regexp"
	"strings"
)

// Scope is the kind of storage a variable names
type Scope int

const (
	// Local is a local variable of the procedure. Unqualified spellings are parsed as locals until a normalizer
	// resolves them.
	Local Scope = iota
	// Param is a formal parameter
	Param
	// Static is a function-level static variable
	Static
	// Global is a process-wide variable
	Global
	// Field is a field of an owning object
	Field
)

func (s Scope) String() string {
	switch s {
	case Local:
		return "local"
	case Param:
		return "param"
	case Static:
		return "static"
	case Global:
		return "global"
	case Field:
		return "field"
	}
	return "?"
}

// Variable is a named storage location. Two variables are the same entity iff their keys are equal; for fields,
// the owner is part of the identity, which means that a bare field name and its this-> spelling are distinct until
// normalized.
type Variable struct {
	Scope Scope
	// Owner is the spelling of the owning object of a field ("this" for members of the receiver)
	Owner string
	Name  string
}

// Key returns the identity of the variable
func (v Variable) Key() string {
	switch v.Scope {
	case Global:
		return "::" + v.Name
	case Field:
		return v.Owner + "." + v.Name
	case Static:
		return "static " + v.Name
	default:
		return v.Name
	}
}

func (v Variable) String() string {
	switch v.Scope {
	case Global:
		return "::" + v.Name
	case Field:
		if v.Owner == "this" {
			return "this->" + v.Name
		}
		return v.Owner + "." + v.Name
	default:
		return v.Name
	}
}

// IsZero returns true for the zero variable, which stands for "no variable"
func (v Variable) IsZero() bool {
	return v.Name == ""
}

// Root returns the outermost variable of a field access path (e.g. p for p->a.b). Fields of this are their own
// root.
func (v Variable) Root() Variable {
	if v.Scope != Field || v.Owner == "this" {
		return v
	}
	return ParseVariable(v.Owner).Root()
}

const identPattern = `[A-Za-z_][A-Za-z0-9_]*`

// varPattern matches the spelling of a variable: an identifier, optionally prefixed by :: and followed by member
// accesses
var varPattern = `(?:::)?` + identPattern + `(?:(?:->|\.)` + identPattern + `)*`

var (
	varRegex  = regexp.MustCompile(`^` + varPattern + `$`)
	usesRegex = regexp.MustCompile(varPattern)
)

// IsVariableSpelling returns true if s is the spelling of a variable
func IsVariableSpelling(s string) bool {
	s = strings.TrimSpace(s)
	return varRegex.MatchString(s) && !isKeyword(s)
}

// ParseVariable parses the spelling of a variable: "this->x" and "obj.x" are fields, "::g" is a global and an
// identifier is a local. The result for a spelling that is not a variable is unspecified.
func ParseVariable(s string) Variable {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "::") {
		return Variable{Scope: Global, Name: s[2:]}
	}
	// the last member access separates the owner from the field name
	arrow := strings.LastIndex(s, "->")
	dot := strings.LastIndex(s, ".")
	switch {
	case arrow >= 0 && arrow > dot:
		return Variable{Scope: Field, Owner: s[:arrow], Name: s[arrow+2:]}
	case dot >= 0:
		return Variable{Scope: Field, Owner: s[:dot], Name: s[dot+1:]}
	}
	return Variable{Scope: Local, Name: s}
}

// ParseVariables parses each spelling with ParseVariable
func ParseVariables(spellings []string) []Variable {
	vars := make([]Variable, 0, len(spellings))
	for _, s := range spellings {
		vars = append(vars, ParseVariable(s))
	}
	return vars
}

// extractUses returns the variables read by an expression text, in order of first appearance
func extractUses(text string) []Variable {
	var uses []Variable
	seen := map[string]bool{}
	for _, m := range usesRegex.FindAllStringIndex(text, -1) {
		// skip identifiers that are the tail of a number (e.g. 0x10) or a callee
		if m[0] > 0 && isIdentByte(text[m[0]-1]) {
			continue
		}
		s := text[m[0]:m[1]]
		if isKeyword(s) || strings.HasPrefix(strings.TrimSpace(text[m[1]:]), "(") {
			continue
		}
		v := ParseVariable(s)
		if !seen[v.Key()] {
			seen[v.Key()] = true
			uses = append(uses, v)
		}
	}
	return uses
}

func isIdentByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

var keywords = map[string]bool{
	"null": true, "NULL": true, "nullptr": true, "true": true, "false": true, "sizeof": true, "new": true,
	"delete": true, "this": true, "operator": true, "int": true, "char": true, "void": true, "unsigned": true,
	"const": true, "return": true,
}

func isKeyword(s string) bool {
	return keywords[s]
}
