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

package graphutil

import "github.com/awslabs/keytrail/internal/funcutil"

// Tree is a simple generic implementation of a tree
type Tree[T any] struct {
	Parent   *Tree[T]
	Children []*Tree[T]
	Label    T
}

// NewTree returns a new tree with the labels of the type provided
func NewTree[T any](rootLabel T) *Tree[T] {
	return &Tree[T]{Label: rootLabel}
}

// AddChild adds a new child labelled label to t, and returns the child
func (t *Tree[T]) AddChild(label T) *Tree[T] {
	newChild := &Tree[T]{Parent: t, Label: label}
	t.Children = append(t.Children, newChild)
	return newChild
}

// Depth returns the number of ancestors of t, the root having depth 0
func (t *Tree[T]) Depth() int {
	d := 0
	for cur := t.Parent; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// Ancestors returns the chain of the n closest ancestors of t, from the farthest to t itself. If n < 0, then it
// returns the chain up to the root of the tree
func (t *Tree[T]) Ancestors(n int) []*Tree[T] {
	var ans []*Tree[T]
	i := 0
	for cur := t; cur != nil && (i < n || n < 0); cur = cur.Parent {
		ans = append(ans, cur)
		i++
	}
	funcutil.Reverse(ans)
	return ans
}

// Walk calls f on every node of the tree in pre-order. Children are visited in insertion order.
func (t *Tree[T]) Walk(f func(*Tree[T])) {
	f(t)
	for _, c := range t.Children {
		c.Walk(f)
	}
}
