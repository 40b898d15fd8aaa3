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

import "regexp"

// Captures errors happening before any analysis starts (program model could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program model")

// Captures the kind of error that happen when you put a flag at the end instead of model files
var flagAfterFiles = regexp.MustCompile("open -(\\w+)")

// Captures the validation errors of the flow graphs
var regexInvalidGraph = regexp.MustCompile("successor|branch block")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexCouldNotLoad.MatchString(errMsg) {
		if flagAfterFiles.MatchString(errMsg) {
			return "all command line flags should be before the paths to the program models"
		}
		if regexInvalidGraph.MatchString(errMsg) {
			return "every branch block needs a then and an else successor, other blocks at most one successor"
		}
		return "make sure you have provided the paths to yaml program models"
	}
	return ""
}
