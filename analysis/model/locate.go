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

import "fmt"

// Location is a source location
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

func (l Location) String() string {
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// A Locator maps the points of a procedure to source locations
type Locator interface {
	Locate(proc *Procedure, p Point) Location
}

// DefaultLocator locates points with the positions recorded in the model: the statement position, or the
// terminator position for terminators. Points without a position are located at the procedure.
type DefaultLocator struct{}

// Locate implements the Locator interface
func (DefaultLocator) Locate(proc *Procedure, p Point) Location {
	loc := Location{File: proc.File, Line: proc.Pos.Line, Column: proc.Pos.Column}
	var pos Position
	if s, ok := proc.Stmt(p); ok {
		pos = s.Pos
	} else if p.Block >= 0 && p.Block < len(proc.Blocks) {
		pos = proc.Blocks[p.Block].Pos
	}
	if pos.Line > 0 {
		loc.Line = pos.Line
		loc.Column = pos.Column
	}
	return loc
}
