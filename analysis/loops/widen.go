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

package loops

// Lattice is an abstract state that can be copied and joined in place
type Lattice[S any] interface {
	Clone() S
	Join(S)
}

// Widen returns the join of the entry state of a loop with the states gathered at the end of its first pass.
// This is the state of every iteration after the first one, which are all explained by one steady-state pass.
func Widen[S Lattice[S]](entry S, passes []S) S {
	w := entry.Clone()
	for _, p := range passes {
		w.Join(p)
	}
	return w
}
