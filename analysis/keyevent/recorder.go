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

// Package keyevent accumulates the candidate key events of a walk to a defect and turns them into a trail.
//
// Candidates are recorded in execution order with the position, in the walk trail of blocks, of the block where
// they occur. Branch candidates carry whether they are required to explain the defect and the join block of the
// branch. When the walk reaches the defect, [Recorder.Finalize] keeps the required branches and the branches whose
// arm holds a kept event, then removes the events that repeat an earlier event of the same iteration group.
package keyevent

import (
	"github.com/awslabs/keytrail/analysis/model"
)

type candidate struct {
	ev       Event
	trailPos int
	branch   bool
	required bool
	join     int
}

// Recorder is the candidate stream of one walk
type Recorder struct {
	keepUnimportant bool
	cands           []candidate
}

// NewRecorder returns an empty recorder. Unimportant events are dropped from the trails unless keepUnimportant
// is set.
func NewRecorder(keepUnimportant bool) *Recorder {
	return &Recorder{keepUnimportant: keepUnimportant}
}

// Record adds an event that occurs in the block at position trailPos of the trail
func (r *Recorder) Record(ev Event, trailPos int) {
	r.cands = append(r.cands, candidate{ev: ev, trailPos: trailPos})
}

// Branch adds a branch event of the block at position trailPos of the trail. join is the immediate
// post-dominator of the block, -1 if the arms never join.
func (r *Recorder) Branch(ev Event, trailPos int, required bool, join int) {
	r.cands = append(r.cands, candidate{ev: ev, trailPos: trailPos, branch: true, required: required, join: join})
}

// Len returns the number of candidates
func (r *Recorder) Len() int {
	return len(r.cands)
}

// Mark returns a mark to backtrack to with Reset
func (r *Recorder) Mark() int {
	return len(r.cands)
}

// Reset drops the candidates recorded after the mark
func (r *Recorder) Reset(mark int) {
	if mark < len(r.cands) {
		r.cands = r.cands[:mark]
	}
}

// Snapshot is a copy of the candidate stream
type Snapshot struct {
	cands []candidate
}

// Snapshot returns a copy of the current candidates
func (r *Recorder) Snapshot() Snapshot {
	return Snapshot{cands: append([]candidate(nil), r.cands...)}
}

// Restore replaces the candidates with the snapshot
func (r *Recorder) Restore(s Snapshot) {
	r.cands = append(r.cands[:0:0], s.cands...)
}

type dedupKey struct {
	point   model.Point
	kind    Kind
	payload string
	steady  bool
}

// Finalize returns the trail of the candidates. trail is the sequence of blocks of the walk; locate maps points to
// locations. The recorder is not modified.
func (r *Recorder) Finalize(trail []int, locate func(model.Point) model.Location) []Event {
	n := len(r.cands)
	kept := make([]bool, n)
	for i, c := range r.cands {
		kept[i] = !c.branch && (r.keepUnimportant || c.ev.Importance != Unimportant)
	}
	// inner branches are decided before the branches enclosing them
	for i := n - 1; i >= 0; i-- {
		c := r.cands[i]
		if !c.branch {
			continue
		}
		if c.required {
			kept[i] = true
			continue
		}
		end := armEnd(trail, c.trailPos, c.join)
		for j := i + 1; j < n && r.cands[j].trailPos < end; j++ {
			if kept[j] && r.cands[j].trailPos > c.trailPos {
				kept[i] = true
				break
			}
		}
	}

	var events []Event
	seen := map[dedupKey]bool{}
	for i, c := range r.cands {
		if !kept[i] {
			continue
		}
		k := dedupKey{
			point:   c.ev.Point,
			kind:    c.ev.Kind,
			payload: c.ev.Payload.key(),
			steady:  c.ev.Iteration == SteadyIteration,
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		ev := c.ev
		ev.ID = len(events) + 1
		ev.Message = Describe(ev)
		if locate != nil {
			ev.Location = locate(ev.Point)
		}
		events = append(events, ev)
	}
	return events
}

// armEnd returns the trail position where the arm of the branch at pos ends: the next occurrence of the join
// block, or past the end of the trail
func armEnd(trail []int, pos int, join int) int {
	if join >= 0 {
		for k := pos + 1; k < len(trail); k++ {
			if trail[k] == join {
				return k
			}
		}
	}
	return len(trail) + 1
}
