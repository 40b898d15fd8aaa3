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
	"regexp"
	"strconv"
)

// Point is a position in the flow graph of a procedure. Offset i < len(stmts) is the i-th statement of the
// block; offset len(stmts) is the terminator of the block, where its branch is evaluated.
type Point struct {
	Block  int
	Offset int
}

func (p Point) String() string {
	return fmt.Sprintf("b%d:%d", p.Block, p.Offset)
}

var pointRegex = regexp.MustCompile(`^b([0-9]+):([0-9]+)$`)

// ParsePoint reads a point printed by String
func ParsePoint(s string) (Point, error) {
	m := pointRegex.FindStringSubmatch(s)
	if m == nil {
		return Point{}, fmt.Errorf("invalid point %q, expected b<block>:<offset>", s)
	}
	block, _ := strconv.Atoi(m[1])
	offset, _ := strconv.Atoi(m[2])
	return Point{Block: block, Offset: offset}, nil
}

// Less orders points by block and then by offset. This is only used to produce deterministic orders; execution
// order is given by the walk of the flow graph.
func (p Point) Less(q Point) bool {
	if p.Block != q.Block {
		return p.Block < q.Block
	}
	return p.Offset < q.Offset
}

// Position is a source position
type Position struct {
	Line   int `yaml:"line" json:"line"`
	Column int `yaml:"column" json:"column"`
}
