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

// Package loops implements the front-end printing the loop forest of program models.
package loops

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/awslabs/keytrail/analysis/loops"
	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/cmd/keytrail/tools"
	"github.com/awslabs/keytrail/internal/formatutil"
	"github.com/yourbasic/graph"
)

// Usage for CLI
const Usage = ` Print the loops of the procedures of program models, with the flow graph statistics.
Usage:
  keytrail loops [options] <model path(s)>
Examples:
  % keytrail loops model.yaml
`

// Run prints the loop forests of the models in flags.
func Run(flags tools.CommonFlags) error {
	progs, err := tools.LoadModels(flags.FlagSet.Args())
	if err != nil {
		return err
	}
	for _, prog := range progs {
		for _, proc := range prog.Procedures {
			PrintForest(os.Stdout, proc, flags.Verbose)
		}
	}
	return nil
}

// PrintForest writes the loops of proc to w, indented by nesting depth. If verbose, the body and the assigned
// variables of each loop are printed too.
func PrintForest(w io.Writer, proc *model.Procedure, verbose bool) {
	stats := graph.Check(proc.Graph())
	fmt.Fprintf(w, "%s: %d blocks, %d edges, %d self loops, %d isolated\n",
		formatutil.Bold(proc.Name), proc.Graph().Order(), stats.Size, stats.Loops, stats.Isolated)
	forest := loops.BuildForest(proc)
	for _, l := range forest.Loops() {
		indent := strings.Repeat("  ", l.Depth())
		fmt.Fprintf(w, "%s- %s\n", indent, l)
		if !verbose {
			continue
		}
		fmt.Fprintf(w, "%s  body: %s\n", indent, l.Body)
		fmt.Fprintf(w, "%s  back edges: %v\n", indent, l.BackEdges)
		fmt.Fprintf(w, "%s  exits: %v\n", indent, l.Exits)
		if len(l.Assigned) > 0 {
			names := make([]string, len(l.Assigned))
			for i, v := range l.Assigned {
				names[i] = v.String()
			}
			fmt.Fprintf(w, "%s  assigned: %s\n", indent, strings.Join(names, ", "))
		}
	}
}
