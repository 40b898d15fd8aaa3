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
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/awslabs/keytrail/analysis/config"
	"github.com/awslabs/keytrail/analysis/explain"
	"github.com/awslabs/keytrail/analysis/model"
)

const twoProcedures = `
procedures:
  - name: Overrun
    file: print.cpp
    params: [buf, n]
    blocks:
      - stmts:
          - {decl: p, value: buf, line: 2}
          - {access: p, index: n, line: 3}
  - name: Other
    file: print.cpp
    params: [buf]
    blocks:
      - stmts:
          - {access: buf, index: "8", line: 7}
`

func TestPrint(t *testing.T) {
	prog, err := model.Parse([]byte(twoProcedures))
	if err != nil {
		t.Fatalf("failed to parse model: %v", err)
	}
	cfg := config.NewDefault()
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	e := explain.New(cfg, logger, model.DefaultLocator{})
	results := e.Program(context.Background(), filter(prog, "Overrun"))
	if len(results) != 1 {
		t.Fatalf("expected the filter to keep one procedure, got %d results", len(results))
	}
	var out bytes.Buffer
	Print(&out, results)
	text := out.String()
	for _, expected := range []string{"Overrun (complete)", "print.cpp:3", "index 'n' is out of bounds"} {
		if !strings.Contains(text, expected) {
			t.Errorf("expected %q in output:\n%s", expected, text)
		}
	}
	if strings.Contains(text, "Other") {
		t.Errorf("filtered procedure printed:\n%s", text)
	}
}
