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

package tools

import (
	"strings"
	"testing"
)

func validateHint(t *testing.T, errorMsg string, containedHint string) {
	hint := HintForErrorMessage(errorMsg)
	if !strings.Contains(hint, containedHint) {
		t.Fatalf("incorrect hint %q for %q; check and update error message if necessary", hint, errorMsg)
	}
}

func TestHintForFlagAfterFiles(t *testing.T) {
	errorMsg := "error: could not load program model: could not read program model: open -json: no such file"
	validateHint(t, errorMsg, "all command line flags should be before the paths")
}

func TestHintForInvalidGraph(t *testing.T) {
	errorMsg := "error: could not load program model: m.yaml: procedure f: branch block 2 needs two distinct" +
		" successors, has [3]"
	validateHint(t, errorMsg, "every branch block needs a then and an else successor")
}

func TestHintForFailedLoad(t *testing.T) {
	errorMsg := "error: could not load program model: no file given"
	validateHint(t, errorMsg, "paths to yaml program models")
	if hint := HintForErrorMessage("unrelated"); hint != "" {
		t.Errorf("unexpected hint %q", hint)
	}
}

func TestLoadConfigDefault(t *testing.T) {
	cfg, err := LoadConfig("", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Verbose() {
		t.Errorf("verbose flag should raise the log level")
	}
	if _, err := LoadConfig("does-not-exist.yaml", false); err == nil {
		t.Errorf("expected an error for a missing config file")
	}
}
