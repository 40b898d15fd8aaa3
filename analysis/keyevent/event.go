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

package keyevent

import (
	"fmt"
	"strings"

	"github.com/awslabs/keytrail/analysis/alias"
	"github.com/awslabs/keytrail/analysis/model"
)

// Kind is the kind of a key event
type Kind int

const (
	// Declaration of a relevant variable
	Declaration Kind = iota
	// Aliasing of a relevant variable to another variable
	Aliasing
	// BranchEnter is the then-edge of a branch
	BranchEnter
	// BranchSkip is the else-edge of a branch
	BranchSkip
	// LoopEnter is the first entry in a loop body
	LoopEnter
	// LoopExit is leaving a loop after entering its body
	LoopExit
	// LoopContinue is entering a loop body again, in the steady state
	LoopContinue
	// LoopSkip is leaving a loop without entering its body
	LoopSkip
	// Access is the defective access, always the last event of a trail
	Access
)

var kindNames = [...]string{
	Declaration:  "Declaration",
	Aliasing:     "Aliasing",
	BranchEnter:  "BranchEnter",
	BranchSkip:   "BranchSkip",
	LoopEnter:    "LoopEnter",
	LoopExit:     "LoopExit",
	LoopContinue: "LoopContinue",
	LoopSkip:     "LoopSkip",
	Access:       "Access",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "?"
	}
	return kindNames[k]
}

// ParseKind returns the kind named s
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown key event kind %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsLoop returns true for the loop event kinds
func (k Kind) IsLoop() bool {
	return k == LoopEnter || k == LoopExit || k == LoopContinue || k == LoopSkip
}

// IsBranch returns true for the branch event kinds
func (k Kind) IsBranch() bool {
	return k == BranchEnter || k == BranchSkip
}

// Iteration is the iteration class of an event recorded inside a loop
type Iteration int

const (
	// NoIteration is the class of events outside loops
	NoIteration Iteration = iota
	// FirstIteration is the class of events of the first pass of a loop
	FirstIteration
	// SteadyIteration is the class of events of the steady-state pass, standing for every later iteration
	SteadyIteration
)

func (it Iteration) String() string {
	switch it {
	case FirstIteration:
		return "first"
	case SteadyIteration:
		return "steady"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler
func (it Iteration) MarshalText() ([]byte, error) {
	return []byte(it.String()), nil
}

// Importance ranks the events for presentation
type Importance int

const (
	// Essential events are needed to understand the defect
	Essential Importance = iota
	// Important events are the path decisions
	Important
	// Unimportant events can be hidden
	Unimportant
)

func (im Importance) String() string {
	switch im {
	case Essential:
		return "essential"
	case Important:
		return "important"
	}
	return "unimportant"
}

// MarshalText implements encoding.TextMarshaler
func (im Importance) MarshalText() ([]byte, error) {
	return []byte(im.String()), nil
}

// ImportanceOf returns the importance of events of kind k
func ImportanceOf(k Kind) Importance {
	switch {
	case k == Access || k == Aliasing:
		return Essential
	case k.IsBranch() || k.IsLoop():
		return Important
	}
	return Unimportant
}

// Payload is the data of an event
type Payload struct {
	// Vars are the variables of the event: the declared or aliasing variable, the buffer and index of an access
	Vars []model.Variable
	// Alias is the fact of an aliasing event
	Alias *alias.Fact
	// Cond is the condition of a branch or loop event, assumed to hold when Taken
	Cond  *model.Cond
	Taken bool
	// Loop is the header of the loop of a loop event
	Loop int
	// Text is the description of an access
	Text string
}

// Clone returns a copy of the payload sharing nothing with p
func (p Payload) Clone() Payload {
	c := p
	c.Vars = append([]model.Variable(nil), p.Vars...)
	if p.Alias != nil {
		fact := *p.Alias
		c.Alias = &fact
	}
	if p.Cond != nil {
		cond := p.Cond.Clone()
		c.Cond = &cond
	}
	return c
}

func (p Payload) key() string {
	var sb strings.Builder
	for _, v := range p.Vars {
		sb.WriteString(v.Key())
		sb.WriteByte(',')
	}
	if p.Alias != nil {
		sb.WriteString(p.Alias.String())
	}
	sb.WriteByte('|')
	if p.Cond != nil {
		fmt.Fprintf(&sb, "%s/%v", p.Cond, p.Taken)
	}
	fmt.Fprintf(&sb, "|%d|%s", p.Loop, p.Text)
	return sb.String()
}

// Event is a key event of a trail
type Event struct {
	// ID is the 1-based position of the event in its trail
	ID         int
	Point      model.Point
	Kind       Kind
	Payload    Payload
	Iteration  Iteration
	Importance Importance
	Message    string
	Location   model.Location
}

// New returns an event of kind k at point p, with its importance
func New(k Kind, p model.Point, payload Payload, it Iteration) Event {
	return Event{Point: p, Kind: k, Payload: payload, Iteration: it, Importance: ImportanceOf(k)}
}

// Clone returns a copy of the event sharing nothing with e
func (e Event) Clone() Event {
	e.Payload = e.Payload.Clone()
	return e
}

func (e Event) String() string {
	return fmt.Sprintf("%d %s %s (%s): %s", e.ID, e.Point, e.Kind, e.Iteration, e.Message)
}

// Describe returns the message of the event
func Describe(e Event) string {
	p := e.Payload
	name := func(i int) string {
		if i < len(p.Vars) {
			return p.Vars[i].String()
		}
		return "?"
	}
	switch e.Kind {
	case Declaration:
		return fmt.Sprintf("'%s' is declared", name(0))
	case Aliasing:
		if p.Alias != nil {
			return fmt.Sprintf("'%s' is an alias of '%s'", p.Alias.Var, p.Alias.Expr)
		}
		return fmt.Sprintf("'%s' is an alias", name(0))
	case BranchEnter:
		return "Enter this branch" + assumption(p)
	case BranchSkip:
		return "Skip this branch" + assumption(p)
	case LoopEnter:
		return "Enter this loop" + assumption(p)
	case LoopContinue:
		return "Continue this loop" + assumption(p)
	case LoopExit:
		return "Exit this loop" + assumption(p)
	case LoopSkip:
		return "Skip this loop" + assumption(p)
	case Access:
		if p.Text != "" {
			return fmt.Sprintf("Invalid access to '%s': %s", name(0), p.Text)
		}
		return fmt.Sprintf("Invalid access to '%s'", name(0))
	}
	return e.Kind.String()
}

func assumption(p Payload) string {
	if p.Cond == nil {
		return ""
	}
	if p.Taken {
		return fmt.Sprintf(", (assume '%s')", p.Cond)
	}
	return fmt.Sprintf(", (assume '%s' is false)", p.Cond)
}
