// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package markdown

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
)

// A Registry is an ordered collection of named items.
// Items are ordered by descending priority.
// Items with equal priority are ordered by insertion:
// the item registered first comes first.
//
// The zero value is an empty registry.
type Registry[T any] struct {
	entries []registryEntry[T]
	nextSeq int
}

type registryEntry[T any] struct {
	name     string
	item     T
	priority int
	seq      int
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return new(Registry[T])
}

// Register adds item to the registry under the given name.
// If an entry with the same name already exists,
// its item and priority are replaced
// but it keeps its original insertion order among equal priorities.
// Register returns a [*ContractError] if name is empty or item is nil.
func (r *Registry[T]) Register(item T, name string, priority int) error {
	if err := checkEntry(item, name); err != nil {
		return err
	}
	if i := r.index(name); i >= 0 {
		r.entries[i].item = item
		r.entries[i].priority = priority
	} else {
		r.entries = append(r.entries, registryEntry[T]{
			name:     name,
			item:     item,
			priority: priority,
			seq:      r.nextSeq,
		})
		r.nextSeq++
	}
	r.sort()
	return nil
}

// InsertBefore adds item so that it is ordered immediately before
// the entry named anchor.
// The new entry takes the anchor's priority.
// Any existing entry with the same name is removed first.
func (r *Registry[T]) InsertBefore(anchor string, item T, name string) error {
	return r.insert(anchor, item, name, 0)
}

// InsertAfter adds item so that it is ordered immediately after
// the entry named anchor.
// The new entry takes the anchor's priority.
// Any existing entry with the same name is removed first.
func (r *Registry[T]) InsertAfter(anchor string, item T, name string) error {
	return r.insert(anchor, item, name, 1)
}

func (r *Registry[T]) insert(anchor string, item T, name string, offset int) error {
	if err := checkEntry(item, name); err != nil {
		return err
	}
	if anchor == name {
		return &ContractError{What: "registry insert", Reason: fmt.Sprintf("%q cannot be its own anchor", name)}
	}
	if r.index(anchor) < 0 {
		return fmt.Errorf("markdown: insert %q relative to %q: %w", name, anchor, ErrNotRegistered)
	}
	r.Deregister(name)
	a := r.entries[r.index(anchor)]
	seq := a.seq + offset
	for i := range r.entries {
		if r.entries[i].seq >= seq {
			r.entries[i].seq++
		}
	}
	r.entries = append(r.entries, registryEntry[T]{
		name:     name,
		item:     item,
		priority: a.priority,
		seq:      seq,
	})
	r.nextSeq++
	r.sort()
	return nil
}

// Deregister removes the entry with the given name,
// reporting whether such an entry existed.
func (r *Registry[T]) Deregister(name string) bool {
	i := r.index(name)
	if i < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return true
}

// Get returns the item registered under the given name.
func (r *Registry[T]) Get(name string) (_ T, ok bool) {
	i := r.index(name)
	if i < 0 {
		var zero T
		return zero, false
	}
	return r.entries[i].item, true
}

// Has reports whether an entry with the given name exists.
func (r *Registry[T]) Has(name string) bool {
	return r.index(name) >= 0
}

// Priority returns the priority of the named entry.
func (r *Registry[T]) Priority(name string) (_ int, ok bool) {
	i := r.index(name)
	if i < 0 {
		return 0, false
	}
	return r.entries[i].priority, true
}

// Len returns the number of entries in the registry.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}

// Names returns the entry names in order.
func (r *Registry[T]) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Items returns the registered items in order.
// The returned slice is a copy,
// so later registry changes do not affect it.
func (r *Registry[T]) Items() []T {
	items := make([]T, len(r.entries))
	for i, e := range r.entries {
		items[i] = e.item
	}
	return items
}

func (r *Registry[T]) index(name string) int {
	for i, e := range r.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

func (r *Registry[T]) sort() {
	slices.SortFunc(r.entries, func(a, b registryEntry[T]) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}

func checkEntry(item any, name string) error {
	if name == "" {
		return &ContractError{What: "registry", Reason: "entry name is empty"}
	}
	if isNil(item) {
		return &ContractError{What: "registry", Reason: fmt.Sprintf("%q has a nil item", name)}
	}
	return nil
}

func isNil(x any) bool {
	if x == nil {
		return true
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
