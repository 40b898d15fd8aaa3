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

// Package analysistest loads the program model fixtures of the tests. A fixture is one yaml file holding a
// program model, optional explainer options, and the expected trails:
//
//	options:
//	  max-steps: 10
//	procedures:
//	  - name: f
//	    blocks: ...
//	expect:
//	  - procedure: f
//	    access: b2:0
//	    events: [Aliasing, BranchEnter, Access]
//
// The sections are independent: the program model and the config are both read from the whole file.
package analysistest

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/awslabs/keytrail/analysis/config"
	"github.com/awslabs/keytrail/analysis/keyevent"
	"github.com/awslabs/keytrail/analysis/model"
	"gopkg.in/yaml.v3"
)

// Expectation is the expected trail of one defect
type Expectation struct {
	Procedure string `yaml:"procedure"`
	// Access is the point of the access, e.g. b2:0
	Access string `yaml:"access"`
	// Events are the kinds of the events of the trail, in order
	Events []string `yaml:"events"`
	// Messages, when present, are the messages of the events, in order
	Messages []string `yaml:"messages"`
}

// Point returns the point of the access
func (e Expectation) Point() (model.Point, error) {
	return model.ParsePoint(e.Access)
}

// Fixture is a loaded test file
type Fixture struct {
	Name    string
	Program *model.Program
	Config  *config.Config
	Expect  []Expectation
}

type rawExpectations struct {
	Expect []Expectation `yaml:"expect"`
}

// LoadTest loads the fixture name of fsys. It fails the test if the file cannot be read or parsed.
func LoadTest(t *testing.T, fsys fs.FS, name string) Fixture {
	t.Helper()
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	prog, err := model.Parse(b)
	if err != nil {
		t.Fatalf("failed to load program model %s: %v", name, err)
	}
	cfg, err := config.LoadFromBytes(name, b)
	if err != nil {
		t.Fatalf("failed to load config of %s: %v", name, err)
	}
	var raw rawExpectations
	if err := yaml.Unmarshal(b, &raw); err != nil {
		t.Fatalf("failed to read expectations of %s: %v", name, err)
	}
	for _, e := range raw.Expect {
		if prog.Procedure(e.Procedure) == nil {
			t.Fatalf("%s: expectation for unknown procedure %q", name, e.Procedure)
		}
		if _, err := e.Point(); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for _, k := range e.Events {
			if _, err := keyevent.ParseKind(k); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
		}
	}
	return Fixture{Name: name, Program: prog, Config: cfg, Expect: raw.Expect}
}

// Kinds returns the kinds of the events
func Kinds(events []keyevent.Event) []string {
	kinds := make([]string, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind.String()
	}
	return kinds
}

// CheckTrail returns an error describing the first difference between the events and the expectation
func CheckTrail(e Expectation, events []keyevent.Event) error {
	got := Kinds(events)
	if strings.Join(got, " ") != strings.Join(e.Events, " ") {
		return fmt.Errorf("%s@%s: got events [%s], expected [%s]", e.Procedure, e.Access,
			strings.Join(got, " "), strings.Join(e.Events, " "))
	}
	if len(e.Messages) == 0 {
		return nil
	}
	if len(e.Messages) != len(events) {
		return fmt.Errorf("%s@%s: %d messages expected for %d events", e.Procedure, e.Access, len(e.Messages),
			len(events))
	}
	for i, ev := range events {
		if ev.Message != e.Messages[i] {
			return fmt.Errorf("%s@%s: event %d: got message %q, expected %q", e.Procedure, e.Access, ev.ID,
				ev.Message, e.Messages[i])
		}
	}
	return nil
}
