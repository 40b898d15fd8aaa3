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

package config

import (
	"fmt"
	"regexp"
)

// A CallIdentifier identifies callees by name. Callee is a regular expression matched against the callee name as
// spelled by the front-end (e.g. "operator new[]", "std::move").
type CallIdentifier struct {
	Callee string `yaml:"callee"`

	// This will not be part of the yaml config
	computedRegex *regexp.Regexp
}

// NewCallIdentifier returns a compiled call identifier matching the callee regex
func NewCallIdentifier(callee string) (CallIdentifier, error) {
	return compileRegex(CallIdentifier{Callee: callee})
}

// MatchCallee returns true if the callee name matches the identifier. An identifier whose regex has not been
// compiled matches only the exact callee name.
func (cid CallIdentifier) MatchCallee(callee string) bool {
	if cid.computedRegex != nil {
		return cid.computedRegex.MatchString(callee)
	}
	return cid.Callee == callee
}

func (cid CallIdentifier) String() string {
	return fmt.Sprintf("callee: %q", cid.Callee)
}

func compileRegex(cid CallIdentifier) (CallIdentifier, error) {
	r, err := regexp.Compile(cid.Callee)
	if err != nil {
		return cid, fmt.Errorf("could not compile %q: %w", cid.Callee, err)
	}
	cid.computedRegex = r
	return cid, nil
}

func compileAll(cids []CallIdentifier) []CallIdentifier {
	for i := range cids {
		cids[i].computedRegex = regexp.MustCompile(cids[i].Callee)
	}
	return cids
}

func matchesAny(cids []CallIdentifier, callee string) bool {
	for _, cid := range cids {
		if cid.MatchCallee(callee) {
			return true
		}
	}
	return false
}

func defaultAllocators() []CallIdentifier {
	return []CallIdentifier{
		{Callee: `^new(\[\])?$`},
		{Callee: `^operator new(\[\])?$`},
		{Callee: `^(malloc|calloc|_alloca|alloca)$`},
	}
}

func defaultIdentities() []CallIdentifier {
	return []CallIdentifier{
		{Callee: `^std::(move|forward)$`},
	}
}
