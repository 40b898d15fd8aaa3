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
	"github.com/awslabs/keytrail/analysis/model"
)

// Normalizer maps the spellings of variables in a procedure to their identities. Bare names are resolved in the
// order of C++ name lookup: declared locals, parameters, statics, members of the receiver, globals.
type Normalizer struct {
	receiver bool
	locals   map[string]bool
	params   map[string]model.Parameter
	statics  map[string]bool
	fields   map[string]bool
	globals  map[string]bool
}

// NewNormalizer returns the normalizer of the procedure, with the program globals
func NewNormalizer(proc *model.Procedure, globals []string) *Normalizer {
	n := &Normalizer{
		receiver: proc.Receiver != "",
		locals:   map[string]bool{},
		params:   map[string]model.Parameter{},
		statics:  toSet(proc.Statics),
		fields:   toSet(proc.Fields),
		globals:  toSet(globals),
	}
	for _, p := range proc.Params {
		n.params[p.Name] = p
	}
	for _, b := range proc.Blocks {
		for _, s := range b.Stmts {
			if s.Kind == model.StmtDecl && s.Target.Scope == model.Local {
				n.locals[s.Target.Name] = true
			}
		}
	}
	return n
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, x := range names {
		m[x] = true
	}
	return m
}

// Identity returns the normalized variable of a spelling
func (n *Normalizer) Identity(v model.Variable) model.Variable {
	switch v.Scope {
	case model.Field:
		// the owner of a field is itself a spelling (e.g. source.len with source a member)
		owner := n.Identity(model.ParseVariable(v.Owner))
		if owner.Scope == model.Field || owner.Scope == model.Global {
			return model.Variable{Scope: model.Field, Owner: owner.String(), Name: v.Name}
		}
		return v
	case model.Local:
		name := v.Name
		switch {
		case n.locals[name]:
			return v
		case hasKey(n.params, name):
			return model.Variable{Scope: model.Param, Name: name}
		case n.statics[name]:
			return model.Variable{Scope: model.Static, Name: name}
		case n.receiver && n.fields[name]:
			return model.Variable{Scope: model.Field, Owner: "this", Name: name}
		case n.globals[name]:
			return model.Variable{Scope: model.Global, Name: name}
		}
	}
	return v
}

func hasKey[K comparable, V any](m map[K]V, k K) bool {
	_, ok := m[k]
	return ok
}

// IsBound returns true if the variable denotes a location that exists in every execution of the procedure.
// Defaulted parameters with no caller-supplied actual and names that are never declared are unbound.
func (n *Normalizer) IsBound(v model.Variable) bool {
	id := n.Identity(v)
	switch id.Scope {
	case model.Param:
		return !n.params[id.Name].Unbound
	case model.Local:
		return n.locals[id.Name]
	case model.Field:
		if id.Owner == "this" {
			return n.receiver && n.fields[id.Name]
		}
		return n.IsBound(id.Root())
	}
	return true
}
