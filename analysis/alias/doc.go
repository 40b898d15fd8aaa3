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

// Package alias tracks what the interesting variables of a procedure alias along one path of the flow graph.
//
// Only interesting variables have facts; assignments to other variables are dropped as soon as they are
// recorded. An interesting variable keeps its current fact and, when the fact it replaced was an alias of another
// variable, that previous fact. Spellings of the same storage (source and this->source in a method) are mapped
// to one identity by a [Normalizer] before any fact is recorded.
package alias
