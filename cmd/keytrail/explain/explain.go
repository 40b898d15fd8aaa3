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

// Package explain implements the front-end to the key event path explainer.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/awslabs/keytrail/analysis/config"
	"github.com/awslabs/keytrail/analysis/explain"
	"github.com/awslabs/keytrail/analysis/keyevent"
	"github.com/awslabs/keytrail/analysis/model"
	"github.com/awslabs/keytrail/cmd/keytrail/tools"
	"github.com/awslabs/keytrail/internal/formatutil"
)

// Usage for CLI
const Usage = ` Explain the buffer overrun defects of program models with their key events.
Usage:
  keytrail explain [options] <model path(s)>
Examples:
  % keytrail explain -config config.yaml model.yaml
  % keytrail explain -json -procedure Copy model.yaml
`

// Flags represents the parsed flags for the explain command.
type Flags struct {
	tools.CommonFlags
	jsonOutput bool
	procedure  string
	maxSteps   int
}

// NewFlags returns the parsed flags for the explain command with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("explain")
	jsonOutput := flags.FlagSet.Bool("json", false, "print the reports in json")
	procedure := flags.FlagSet.String("procedure", "", "only explain the procedures whose name contains this string")
	maxSteps := flags.FlagSet.Int("max-steps", 0, "override the step budget of each defect in config")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command explain with args %v: %v", args, err)
	}
	return Flags{
		CommonFlags: flags.Parsed(),
		jsonOutput:  *jsonOutput,
		procedure:   *procedure,
		maxSteps:    *maxSteps,
	}, nil
}

// Run runs the explainer on the program models of flags.
func Run(flags Flags) error {
	cfg, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if flags.maxSteps > 0 {
		cfg.MaxSteps = flags.maxSteps
	}
	logger := config.NewLogGroup(cfg)

	progs, err := tools.LoadModels(flags.FlagSet.Args())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := explain.New(cfg, logger, model.DefaultLocator{})
	var results []explain.ProcedureResult
	start := time.Now()
	for _, prog := range progs {
		if flags.procedure != "" {
			prog = filter(prog, flags.procedure)
		}
		results = append(results, e.Program(ctx, prog)...)
	}
	logger.Infof("explained %d procedures in %3.4f s", len(results), time.Since(start).Seconds())
	if ctx.Err() != nil {
		logger.Warnf("interrupted, results are incomplete")
	}

	if flags.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	Print(os.Stdout, results)
	return nil
}

func filter(prog *model.Program, name string) *model.Program {
	filtered := &model.Program{Globals: prog.Globals}
	for _, proc := range prog.Procedures {
		if strings.Contains(proc.Name, name) {
			filtered.Procedures = append(filtered.Procedures, proc)
		}
	}
	return filtered
}

// Print writes the results in a human-readable form to w
func Print(w io.Writer, results []explain.ProcedureResult) {
	for _, res := range results {
		status := formatutil.Green("complete")
		if res.Incomplete {
			status = formatutil.Yellow("incomplete")
		}
		fmt.Fprintf(w, "%s (%s)\n", formatutil.Bold(res.Procedure), status)
		for _, r := range res.Reports {
			info := r.Info()
			fmt.Fprintf(w, "  %s %s %s at %s\n", formatutil.Red(info.Code), info.Category, r.ID(), r.Location())
			if r.Partial() {
				fmt.Fprintf(w, "    %s\n", formatutil.Yellow("partial: some loops on the path could not be modeled"))
			}
			for _, ev := range r.Events() {
				text := fmt.Sprintf("%d %s %s", ev.ID, ev.Location, formatutil.Sanitize(ev.Message))
				if ev.Importance == keyevent.Unimportant {
					text = formatutil.Faint(text)
				}
				fmt.Fprintf(w, "    %s\n", text)
			}
			for _, l := range r.Loops() {
				fmt.Fprintf(w, "    %s\n", formatutil.Cyan(l.String()))
			}
		}
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  %s %s\n", formatutil.Purple("[diagnostic]"), d)
		}
	}
}
