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

// Package loops finds the loops of a procedure and decides, for each defect under explanation, whether a loop is
// relevant to the defect.
//
// The loop forest is computed from the strongly connected components of the flow graph. A component with a
// single entry block is a natural loop whose header is that block; its body without the header is decomposed
// again to find the nested loops. A component with several entry blocks is an irreducible region: it is not
// decomposed and the classifier refuses to model it.
package loops
