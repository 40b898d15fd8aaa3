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

package loops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/awslabs/keytrail/analysis/config"
	"github.com/awslabs/keytrail/analysis/model"
)

// ErrModelUnavailable is returned when the iterations of a loop cannot be modeled
var ErrModelUnavailable = errors.New("loop model unavailable")

// Relevance is the classification state of a loop for one defect
type Relevance int

const (
	// Unvisited loops have not been classified yet
	Unvisited Relevance = iota
	// Classifying is the state of a loop during its classification
	Classifying
	// Irrelevant loops contain no key event on a path to the defect
	Irrelevant
	// Relevant loops contain a key event on a path to the defect
	Relevant
)

func (r Relevance) String() string {
	switch r {
	case Unvisited:
		return "unvisited"
	case Classifying:
		return "classifying"
	case Irrelevant:
		return "irrelevant"
	case Relevant:
		return "relevant"
	}
	return "?"
}

// An Oracle answers the questions of the classifier about the defect under explanation
type Oracle interface {
	// KeyStatement returns true if the statement at the point would produce a key event for the defect
	KeyStatement(p model.Point) bool
	// KeyBranch returns true if the branch of the block reads a variable relevant to the defect
	KeyBranch(block int) bool
	// Feasible returns false if the edge of the branch of the block is provably not taken when entering the
	// loop. Only conditions on variables the loop does not assign can be decided.
	Feasible(block int, taken bool) bool
	// ReachesDefect returns true if there is a path from the block to the defect
	ReachesDefect(block int) bool
}

// Classifier holds the relevance states of the loops of a procedure for one defect
type Classifier struct {
	proc      *model.Procedure
	maxBlocks int
	// states are the last decisions; decisions are kept per loop and feasible edges of its body
	states    map[*Loop]Relevance
	decisions map[decisionKey]Relevance
	log       *config.LogGroup
}

type decisionKey struct {
	loop     *Loop
	feasible string
}

// NewClassifier returns a classifier where every loop is unvisited. Loops with more than maxBlocks blocks are not
// modeled; maxBlocks <= 0 means no limit.
func NewClassifier(proc *model.Procedure, maxBlocks int, logger *config.LogGroup) *Classifier {
	c := &Classifier{proc: proc, maxBlocks: maxBlocks, log: logger}
	c.Reset()
	return c
}

// State returns the relevance state of the loop
func (c *Classifier) State(l *Loop) Relevance {
	return c.states[l]
}

// Reset makes every loop unvisited, before explaining another defect
func (c *Classifier) Reset() {
	c.states = map[*Loop]Relevance{}
	c.decisions = map[decisionKey]Relevance{}
}

// Classify decides the relevance of the loop. The decision is final for the defect and the edges of the body that
// the oracle finds feasible: classifying again with the same feasible edges returns the first decision, while an
// entry where other edges are pruned is decided again. Loops that cannot be modeled are irrelevant, and the error
// wraps ErrModelUnavailable.
func (c *Classifier) Classify(l *Loop, o Oracle) (Relevance, error) {
	if err := c.Check(l); err != nil {
		c.states[l] = Irrelevant
		return Irrelevant, err
	}
	k := decisionKey{loop: l, feasible: c.feasibleEdges(l, o)}
	if r, ok := c.decisions[k]; ok {
		c.states[l] = r
		return r, nil
	}
	c.states[l] = Classifying
	r := Irrelevant
	if c.hasKeyEvent(l, o) {
		r = Relevant
	}
	c.states[l] = r
	c.decisions[k] = r
	if c.log != nil {
		c.log.Tracef("%s in %s is %s", l, c.proc.Name, r)
	}
	return r, nil
}

// Check returns an error wrapping ErrModelUnavailable if the iterations of the loop cannot be modeled
func (c *Classifier) Check(l *Loop) error {
	switch {
	case l.Irreducible:
		return fmt.Errorf("%s: %w", l, ErrModelUnavailable)
	case !l.HeaderDominates:
		return fmt.Errorf("%s: header does not dominate its latches: %w", l, ErrModelUnavailable)
	case c.maxBlocks > 0 && l.Size() > c.maxBlocks:
		return fmt.Errorf("%s: more than %d blocks: %w", l, c.maxBlocks, ErrModelUnavailable)
	}
	return nil
}

// feasibleEdges returns the feasibility of both edges of every branch of the body, in block order
func (c *Classifier) feasibleEdges(l *Loop, o Oracle) string {
	var sb strings.Builder
	for _, b := range l.Body.AppendTo(nil) {
		if c.proc.Blocks[b].Branch == nil {
			continue
		}
		for _, taken := range []bool{true, false} {
			if o.Feasible(b, taken) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}

// hasKeyEvent searches the blocks of the body reachable from the header through feasible edges for a key
// statement or a key branch on a path to the defect
func (c *Classifier) hasKeyEvent(l *Loop, o Oracle) bool {
	visited := map[int]bool{l.Header: true}
	queue := []int{l.Header}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		block := c.proc.Blocks[b]
		if o.ReachesDefect(b) {
			if block.Branch != nil && o.KeyBranch(b) {
				return true
			}
			for i := range block.Stmts {
				if o.KeyStatement(model.Point{Block: b, Offset: i}) {
					return true
				}
			}
		}
		for i, s := range block.Succs {
			if block.Branch != nil && !o.Feasible(b, i == 0) {
				continue
			}
			if l.Contains(s) && !visited[s] {
				visited[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}
