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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/keytrail/analysis"
	"github.com/awslabs/keytrail/cmd/keytrail/check"
	"github.com/awslabs/keytrail/cmd/keytrail/explain"
	"github.com/awslabs/keytrail/cmd/keytrail/loops"
	"github.com/awslabs/keytrail/cmd/keytrail/tools"
)

const usage = `Keytrail: key event paths for buffer overrun defects
Usage:
  keytrail [tool] [options] <model path(s)>
Tools:
  - explain: explains each flagged access of the models with the key events of a path reaching it
  - loops: prints the loops of each procedure of the models
  - check: checks that the models are well-formed
Examples:
  Explain the defects of a model: keytrail explain -config config.yaml model.yaml
  Print the reports in json: keytrail explain -json model.yaml`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "explain":
		flags, err := explain.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := explain.Run(flags); err != nil {
			errExit(err)
		}
	case "loops":
		flags, err := tools.NewCommonFlags("loops", args, loops.Usage)
		if err != nil {
			errExit(err)
		}
		if err := loops.Run(flags); err != nil {
			errExit(err)
		}
	case "check":
		flags, err := tools.NewCommonFlags("check", args, check.Usage)
		if err != nil {
			errExit(err)
		}
		if err := check.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
