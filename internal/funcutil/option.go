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

import "fmt"

// Optional holds a value or none. The zero Optional is none.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns an optional holding x
func Some[T any](x T) Optional[T] {
	return Optional[T]{value: x, ok: true}
}

// None returns an optional holding no value
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and true, or the zero value and false if o is none
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// ValueOr returns the value of o, or defaultVal if o is none
func (o Optional[T]) ValueOr(defaultVal T) T {
	if o.ok {
		return o.value
	}
	return defaultVal
}

// Value returns the value or panics if o is none
func (o Optional[T]) Value() T {
	if !o.ok {
		panic("value of a none optional")
	}
	return o.value
}

// IsSome returns true if o holds a value
func (o Optional[T]) IsSome() bool { return o.ok }

// IsNone returns true if o holds no value
func (o Optional[T]) IsNone() bool { return !o.ok }

func (o Optional[T]) String() string {
	if !o.ok {
		return "none"
	}
	return fmt.Sprintf("%v", o.value)
}
