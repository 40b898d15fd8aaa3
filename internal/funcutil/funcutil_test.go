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

package funcutil

import (
	"strconv"
	"testing"

	"golang.org/x/exp/slices"
)

func TestMapParallelKeepsOrder(t *testing.T) {
	var in []int
	for i := 0; i < 200; i++ {
		in = append(in, i)
	}
	var expected []string
	for _, x := range in {
		expected = append(expected, strconv.Itoa(x))
	}
	for _, workers := range []int{-1, 1, 3, 16, 500} {
		out := MapParallel(in, strconv.Itoa, workers)
		if !slices.Equal(out, expected) {
			t.Fatalf("MapParallel with %d workers returned %v", workers, out)
		}
	}
}

func TestSetToOrderedSlice(t *testing.T) {
	s := SetToOrderedSlice(map[string]bool{"b": true, "a": true, "c": false})
	if !slices.Equal(s, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", s)
	}
}

func TestOptional(t *testing.T) {
	var zero Optional[int]
	if zero.IsSome() || zero.ValueOr(4) != 4 || zero.String() != "none" {
		t.Errorf("the zero optional should be none, got %v", zero)
	}
	if x, ok := Some(6).Get(); !ok || x != 6 {
		t.Errorf("expected Some(6), got %v %v", x, ok)
	}
	if _, ok := None[string]().Get(); ok {
		t.Errorf("expected none")
	}
	if len(MapParallel([]int{}, strconv.Itoa, 4)) != 0 {
		t.Errorf("expected an empty result for an empty input")
	}
}
