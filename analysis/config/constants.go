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

const (
	// DefaultMaxSteps is the default number of block visits allowed for one procedure
	DefaultMaxSteps = 100000
	// DefaultNumWorkers is the default number of procedures explained in parallel
	DefaultNumWorkers = 4
	// DefaultMaxLoopBlocks is the default size limit of a simulated loop body
	DefaultMaxLoopBlocks = 512
)
