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
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry[string]()
	for _, e := range []struct {
		name     string
		priority int
	}{
		{"low", 10},
		{"high", 50},
		{"mid1", 30},
		{"mid2", 30},
	} {
		if err := r.Register(e.name, e.name, e.priority); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"high", "mid1", "mid2", "low"}
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, r.Items()); diff != "" {
		t.Errorf("Items() (-want +got):\n%s", diff)
	}
	if got := r.Len(); got != 4 {
		t.Errorf("Len() = %d; want 4", got)
	}
}

func TestRegistryReregisterKeepsSequence(t *testing.T) {
	r := NewRegistry[string]()
	mustRegister(r, "a", "a", 10)
	mustRegister(r, "b", "b", 10)
	mustRegister(r, "c", "c", 10)

	if err := r.Register("A", "a", 10); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"A", "b", "c"}, r.Items()); diff != "" {
		t.Errorf("after same-priority replace, Items() (-want +got):\n%s", diff)
	}

	if err := r.Register("A", "a", 5); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, r.Names()); diff != "" {
		t.Errorf("after lowering priority, Names() (-want +got):\n%s", diff)
	}
	if p, ok := r.Priority("a"); !ok || p != 5 {
		t.Errorf("Priority(%q) = %d, %t; want 5, true", "a", p, ok)
	}
}

func TestRegistryInsert(t *testing.T) {
	newRegistry := func() *Registry[string] {
		r := NewRegistry[string]()
		mustRegister(r, "x", "x", 30)
		mustRegister(r, "y", "y", 20)
		mustRegister(r, "z", "z", 20)
		return r
	}

	t.Run("Before", func(t *testing.T) {
		r := newRegistry()
		if err := r.InsertBefore("z", "new", "new"); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"x", "y", "new", "z"}, r.Names()); diff != "" {
			t.Errorf("Names() (-want +got):\n%s", diff)
		}
		if p, _ := r.Priority("new"); p != 20 {
			t.Errorf("Priority(%q) = %d; want 20", "new", p)
		}
	})
	t.Run("After", func(t *testing.T) {
		r := newRegistry()
		if err := r.InsertAfter("x", "new", "new"); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"x", "new", "y", "z"}, r.Names()); diff != "" {
			t.Errorf("Names() (-want +got):\n%s", diff)
		}
		if p, _ := r.Priority("new"); p != 30 {
			t.Errorf("Priority(%q) = %d; want 30", "new", p)
		}
	})
	t.Run("AfterMovesExisting", func(t *testing.T) {
		r := newRegistry()
		if err := r.InsertAfter("z", "X", "x"); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"y", "z", "x"}, r.Names()); diff != "" {
			t.Errorf("Names() (-want +got):\n%s", diff)
		}
	})
	t.Run("MissingAnchor", func(t *testing.T) {
		r := newRegistry()
		err := r.InsertBefore("nope", "new", "new")
		if !errors.Is(err, ErrNotRegistered) {
			t.Errorf("InsertBefore with missing anchor = %v; want %v", err, ErrNotRegistered)
		}
		if r.Has("new") {
			t.Error("entry was added despite the error")
		}
	})
	t.Run("SelfAnchor", func(t *testing.T) {
		r := newRegistry()
		err := r.InsertBefore("x", "X", "x")
		var contractErr *ContractError
		if !errors.As(err, &contractErr) {
			t.Errorf("InsertBefore(%q, ..., %q) = %v; want ContractError", "x", "x", err)
		}
	})
}

func TestRegistryDeregister(t *testing.T) {
	r := NewRegistry[string]()
	mustRegister(r, "a", "a", 10)
	if !r.Deregister("a") {
		t.Error("Deregister(\"a\") = false; want true")
	}
	if r.Deregister("a") {
		t.Error("second Deregister(\"a\") = true; want false")
	}
	if _, ok := r.Get("a"); ok {
		t.Error("Get(\"a\") found a removed entry")
	}
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	r := NewRegistry[Preprocessor]()
	var contractErr *ContractError
	if err := r.Register(PreprocessorFunc(nil), "nil", 10); !errors.As(err, &contractErr) {
		t.Errorf("Register(nil func) = %v; want ContractError", err)
	}
	if err := r.Register(nil, "nil", 10); !errors.As(err, &contractErr) {
		t.Errorf("Register(nil) = %v; want ContractError", err)
	}
	identity := PreprocessorFunc(func(lines []string) []string { return lines })
	if err := r.Register(identity, "", 10); !errors.As(err, &contractErr) {
		t.Errorf("Register with empty name = %v; want ContractError", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after rejected registrations; want 0", r.Len())
	}
}

func TestRegistryItemsIsCopy(t *testing.T) {
	r := NewRegistry[string]()
	mustRegister(r, "a", "a", 10)
	items := r.Items()
	mustRegister(r, "b", "b", 20)
	if diff := cmp.Diff([]string{"a"}, items); diff != "" {
		t.Errorf("snapshot changed after Register (-want +got):\n%s", diff)
	}
}

func TestRegistryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("items are sorted by priority then registration", prop.ForAll(
		func(priorities []int) bool {
			r := NewRegistry[int]()
			for i, p := range priorities {
				mustRegister(r, i, fmt.Sprint(i), p)
			}
			got := r.Items()
			want := make([]int, len(priorities))
			for i := range want {
				want[i] = i
			}
			slices.SortStableFunc(want, func(a, b int) int {
				return priorities[b] - priorities[a]
			})
			return slices.Equal(want, got)
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.Property("inserted item lands next to its anchor", prop.ForAll(
		func(n int, anchor int, after bool) bool {
			if anchor >= n {
				anchor = n - 1
			}
			r := NewRegistry[string]()
			for i := 0; i < n; i++ {
				mustRegister(r, fmt.Sprint(i), fmt.Sprint(i), i%3)
			}
			anchorName := fmt.Sprint(anchor)
			var err error
			if after {
				err = r.InsertAfter(anchorName, "new", "new")
			} else {
				err = r.InsertBefore(anchorName, "new", "new")
			}
			if err != nil {
				return false
			}
			names := r.Names()
			ai := slices.Index(names, anchorName)
			ni := slices.Index(names, "new")
			if after {
				return ni == ai+1
			}
			return ni == ai-1
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 11),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
