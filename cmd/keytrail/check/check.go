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

// Package check implements the front-end validating program models.
package check

import (
	"fmt"
	"io"
	"os"

	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/cmd/keytrail/tools"
	"github.com/awslabs/keytrail/internal/formatutil"
)

// Usage for CLI
const Usage = ` Check that program models are well-formed, and print a summary of each.
Usage:
  keytrail check [options] <model path(s)>
Examples:
  % keytrail check model.yaml other.yaml
`

// Run loads every model of flags and prints its summary. Returns an error if any model is invalid.
func Run(flags tools.CommonFlags) error {
	files := flags.FlagSet.Args()
	if len(files) == 0 {
		return fmt.Errorf("could not load program model: no file given")
	}
	failed := 0
	for _, f := range files {
		prog, err := model.Load(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", formatutil.Red("[invalid]"), f, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", formatutil.Green("[ok]"), f)
		Summarize(os.Stdout, prog)
	}
	if failed > 0 {
		return fmt.Errorf("could not load program model: %d of %d models are invalid", failed, len(files))
	}
	return nil
}

// Summarize writes the number of blocks and flagged accesses of each procedure of prog
func Summarize(w io.Writer, prog *model.Program) {
	for _, proc := range prog.Procedures {
		fmt.Fprintf(w, "  %s: %d blocks, %d accesses, %d predicates\n",
			proc.Name, len(proc.Blocks), len(proc.Accesses()), len(proc.Predicates))
	}
}
