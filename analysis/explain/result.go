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

package explain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/awslabs/keytrail/analysis/keyevent"
	"github.com/awslabs/keytrail/analysis/loops"
	"github.com/awslabs/keytrail/analysis/model"
)

// DiagnosticKind is the kind of a procedure diagnostic
type DiagnosticKind int

const (
	// DiagModelUnavailable marks a loop or region whose iterations could not be modeled. The walk went around it,
	// so the reports of the procedure may miss events or defects.
	DiagModelUnavailable DiagnosticKind = iota
	// DiagInconsistentAnnotation marks a defect whose bound predicate is unresolved. No report is produced.
	DiagInconsistentAnnotation
	// DiagAbandoned marks the defect at which the procedure exhausted its budget or was cancelled
	DiagAbandoned
	// DiagUnexplained marks a defect that no feasible path reaches
	DiagUnexplained
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagModelUnavailable:
		return "ModelUnavailable"
	case DiagInconsistentAnnotation:
		return "InconsistentAnnotation"
	case DiagAbandoned:
		return "Abandoned"
	case DiagUnexplained:
		return "Unexplained"
	}
	return "?"
}

// MarshalText implements encoding.TextMarshaler
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Diagnostic is a condition of the analysis of a procedure that degraded its results
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Point   model.Point    `json:"-"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Point, d.Message)
}

// ProcedureResult is the outcome of explaining the defects of one procedure
type ProcedureResult struct {
	Procedure string
	// Reports are the finished reports, in access order
	Reports []*DefectReport
	// Incomplete is set when some defect of the procedure may be missing or under-explained
	Incomplete  bool
	Diagnostics []Diagnostic
}

func (r *ProcedureResult) addDiagnostic(d Diagnostic) {
	for _, x := range r.Diagnostics {
		if x.Kind == d.Kind && x.Point == d.Point {
			return
		}
	}
	r.Diagnostics = append(r.Diagnostics, d)
}

// DefectID is the stable identity of a defect
type DefectID struct {
	Procedure string
	Point     model.Point
	// Bound is the text of the bound predicate, empty for the declared size of the buffer
	Bound string
}

func (id DefectID) String() string {
	if id.Bound == "" {
		return fmt.Sprintf("%s@%s", id.Procedure, id.Point)
	}
	return fmt.Sprintf("%s@%s[%s]", id.Procedure, id.Point, id.Bound)
}

// DefectReport is the explanation of one flagged access: its key events in execution order, the last one being
// the access. A DefectReport is never modified once built.
type DefectReport struct {
	id       DefectID
	info     model.DefectInfo
	location model.Location
	events   []keyevent.Event
	loops    []loops.Record
	partial  bool
}

// ID returns the identity of the defect
func (r *DefectReport) ID() DefectID {
	return r.id
}

// Info returns the tag of the defect, as supplied with the access
func (r *DefectReport) Info() model.DefectInfo {
	return r.info
}

// Location returns the location of the access
func (r *DefectReport) Location() model.Location {
	return r.location
}

// Events returns a deep copy of the key events
func (r *DefectReport) Events() []keyevent.Event {
	events := make([]keyevent.Event, len(r.events))
	for i, ev := range r.events {
		events[i] = ev.Clone()
	}
	return events
}

// Len returns the number of key events
func (r *DefectReport) Len() int {
	return len(r.events)
}

// Loops returns a copy of the records of the loops on the path to the defect
func (r *DefectReport) Loops() []loops.Record {
	res := make([]loops.Record, len(r.loops))
	for i, rec := range r.loops {
		rec.BackEdges = append([]loops.Edge(nil), rec.BackEdges...)
		rec.Classes = append([]loops.Class(nil), rec.Classes...)
		res[i] = rec
	}
	return res
}

// Partial returns true if the path went around a region whose model was unavailable
func (r *DefectReport) Partial() bool {
	return r.partial
}

func (r *DefectReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s (%s) at %s\n", r.info.Code, r.info.Category, r.id, r.location)
	for _, ev := range r.events {
		fmt.Fprintf(&sb, "  %d %s: %s\n", ev.ID, ev.Location, ev.Message)
	}
	return sb.String()
}

type jsonEvent struct {
	ID         int                 `json:"id"`
	Point      string              `json:"point"`
	Kind       keyevent.Kind       `json:"kind"`
	Iteration  keyevent.Iteration  `json:"iteration"`
	Importance keyevent.Importance `json:"importance"`
	Message    string              `json:"message"`
	Location   model.Location      `json:"location"`
}

type jsonLoop struct {
	Header    int      `json:"header"`
	Relevance string   `json:"relevance"`
	Classes   []string `json:"classes"`
}

type jsonReport struct {
	Procedure string `json:"procedure"`
	Point     string `json:"point"`
	Bound     string `json:"bound,omitempty"`
	model.DefectInfo
	Location model.Location `json:"location"`
	Partial  bool           `json:"partial,omitempty"`
	Events   []jsonEvent    `json:"events"`
	Loops    []jsonLoop     `json:"loops,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (r *DefectReport) MarshalJSON() ([]byte, error) {
	jr := jsonReport{
		Procedure:  r.id.Procedure,
		Point:      r.id.Point.String(),
		Bound:      r.id.Bound,
		DefectInfo: r.info,
		Location:   r.location,
		Partial:    r.partial,
		Events:     make([]jsonEvent, len(r.events)),
	}
	for i, ev := range r.events {
		jr.Events[i] = jsonEvent{
			ID:         ev.ID,
			Point:      ev.Point.String(),
			Kind:       ev.Kind,
			Iteration:  ev.Iteration,
			Importance: ev.Importance,
			Message:    ev.Message,
			Location:   ev.Location,
		}
	}
	for _, rec := range r.loops {
		jl := jsonLoop{Header: rec.Header, Relevance: rec.Relevance.String(), Classes: []string{}}
		for _, c := range rec.Classes {
			jl.Classes = append(jl.Classes, c.String())
		}
		jr.Loops = append(jr.Loops, jl)
	}
	return json.Marshal(jr)
}
