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

package branch

import (
	"fmt"
	"sort"
	"strings"
)

// Nullness is what is known of a variable compared to null (or zero)
type Nullness int

const (
	// MaybeNull means nothing is known
	MaybeNull Nullness = iota
	// IsNull means the variable is null or zero
	IsNull
	// NonNull means the variable is neither null nor zero
	NonNull
)

// Fact is the abstract value of one variable
type Fact struct {
	Null     Nullness
	Const    int64
	HasConst bool
}

func (f Fact) isTop() bool {
	return f.Null == MaybeNull && !f.HasConst
}

func (f Fact) String() string {
	switch {
	case f.HasConst:
		return fmt.Sprintf("%d", f.Const)
	case f.Null == IsNull:
		return "null"
	case f.Null == NonNull:
		return "non-null"
	}
	return "?"
}

// State maps variable keys to their abstract values. Variables that are absent are unknown.
type State struct {
	facts map[string]Fact
}

// NewState returns the state where nothing is known
func NewState() *State {
	return &State{facts: map[string]Fact{}}
}

// Get returns the fact of the variable with key k
func (s *State) Get(k string) Fact {
	return s.facts[k]
}

// Set sets the fact of the variable with key k. Unknown facts are removed.
func (s *State) Set(k string, f Fact) {
	if f.isTop() {
		delete(s.facts, k)
		return
	}
	s.facts[k] = f
}

// Havoc forgets everything known of the variable with key k
func (s *State) Havoc(k string) {
	delete(s.facts, k)
}

// Clone returns a copy of the state
func (s *State) Clone() *State {
	c := &State{facts: make(map[string]Fact, len(s.facts))}
	for k, f := range s.facts {
		c.facts[k] = f
	}
	return c
}

// Join keeps in s what holds both in s and o
func (s *State) Join(o *State) {
	for k, f := range s.facts {
		g := o.facts[k]
		if f.Null != g.Null {
			f.Null = MaybeNull
		}
		if !f.HasConst || !g.HasConst || f.Const != g.Const {
			f.HasConst = false
			f.Const = 0
		}
		s.Set(k, f)
	}
}

// Len returns the number of variables with a known fact
func (s *State) Len() int {
	return len(s.facts)
}

func (s *State) String() string {
	keys := make([]string, 0, len(s.facts))
	for k := range s.facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.facts[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
