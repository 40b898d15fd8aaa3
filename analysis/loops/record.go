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
	"fmt"
	"strings"
)

// Class is the iteration class of a loop event
type Class int

const (
	// Enter is the first entry in the body
	Enter Class = iota
	// Continue is the re-entry in the body in the steady state
	Continue
	// Exit is leaving the loop after at least one entry in the body
	Exit
	// Skip is leaving the loop from the header without entering the body
	Skip
)

func (c Class) String() string {
	switch c {
	case Enter:
		return "Enter"
	case Continue:
		return "Continue"
	case Exit:
		return "Exit"
	case Skip:
		return "Skip"
	}
	return "?"
}

// Record is the explanation of one loop for one defect: its relevance and the iteration classes of the events
// in the trail, in trail order
type Record struct {
	Header    int
	BackEdges []Edge
	Relevance Relevance
	Classes   []Class
}

// NewRecord returns the record of the loop with its relevance
func NewRecord(l *Loop, r Relevance) Record {
	return Record{Header: l.Header, BackEdges: append([]Edge(nil), l.BackEdges...), Relevance: r}
}

func (r Record) String() string {
	classes := make([]string, len(r.Classes))
	for i, c := range r.Classes {
		classes[i] = c.String()
	}
	return fmt.Sprintf("loop b%d %s [%s]", r.Header, r.Relevance, strings.Join(classes, " "))
}
