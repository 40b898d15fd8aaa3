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

/*
Package model is the read-only flow-graph view of a procedure that the key-event analysis consumes.

A [Program] is made of global variable names and a list of [Procedure]. Each procedure is a list of basic blocks
whose statements are already decomposed by the front-end into declarations, assignments, calls and flagged buffer
accesses. Block 0 is the entry of the procedure. A block with a branch condition has exactly two successors, the
first one is taken when the condition holds.

Programs are usually loaded from a yaml file with [Load] or [Parse]:

	globals: [g_table]
	procedures:
	  - name: Copy
	    file: copy.cpp
	    params: [src, {name: n, unbound: true}]
	    interesting: [dst]
	    predicates:
	      - {id: p0, kind: bound, expr: "_In_reads_(n)", refs: [n]}
	    blocks:
	      - stmts:
	          - {decl: dst, line: 3}
	          - {assign: dst, value: src, line: 4}
	        branch: {cond: "dst == null", line: 5}
	        succs: [1, 2]
	      - stmts: []
	      - stmts:
	          - {access: dst, index: n, bound: p0, line: 7}

Expression strings are decomposed: a variable spelling, an integer, null (or NULL, nullptr) and otherwise an opaque
expression whose variable uses are extracted from the text.
*/
package model
