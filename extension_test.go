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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConfig(t *testing.T) {
	c := NewConfig()
	c.Define("enabled", true, "Turn the feature on")
	c.Define("linenums", nil, "Show line numbers")
	c.Define("prefix", "x-", "Class prefix")
	c.Define("width", 4, "Tab width")
	c.Define("extra", []string{"a"}, "Anything")

	if diff := cmp.Diff([]string{"enabled", "linenums", "prefix", "width", "extra"}, c.Keys()); diff != "" {
		t.Errorf("Keys() (-want +got):\n%s", diff)
	}
	if got, want := c.Describe("width"), "Tab width"; got != want {
		t.Errorf("Describe(\"width\") = %q; want %q", got, want)
	}
	if !c.Bool("enabled") {
		t.Error("Bool(\"enabled\") = false; want default true")
	}
	if _, isSet := c.OptionalBool("linenums"); isSet {
		t.Error("OptionalBool(\"linenums\") is set before any override")
	}

	err := c.SetAll(map[string]any{
		"enabled":  "off",
		"linenums": "yes",
		"prefix":   "lang-",
		"width":    "8",
		"extra":    42,
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Bool("enabled") {
		t.Error("Bool(\"enabled\") = true after setting \"off\"")
	}
	if v, isSet := c.OptionalBool("linenums"); !v || !isSet {
		t.Errorf("OptionalBool(\"linenums\") = %t, %t; want true, true", v, isSet)
	}
	if got := c.String("prefix"); got != "lang-" {
		t.Errorf("String(\"prefix\") = %q; want \"lang-\"", got)
	}
	if got := c.Int("width"); got != 8 {
		t.Errorf("Int(\"width\") = %d; want 8", got)
	}
	if got := c.Get("extra"); got != 42 {
		t.Errorf("Get(\"extra\") = %v; want 42", got)
	}
	if err := c.Set("linenums", "none"); err != nil {
		t.Fatal(err)
	}
	if _, isSet := c.OptionalBool("linenums"); isSet {
		t.Error("OptionalBool(\"linenums\") is set after setting \"none\"")
	}
	if c.Get("missing") != nil {
		t.Error("Get(\"missing\") != nil")
	}
}

func TestConfigErrors(t *testing.T) {
	c := NewConfig()
	c.Define("enabled", false, "")
	c.Define("prefix", "", "")
	c.Define("width", 4, "")
	tests := []struct {
		key   string
		value any
	}{
		{"unknown", true},
		{"enabled", "maybe"},
		{"prefix", 7},
		{"width", "wide"},
		{"width", 2.5},
	}
	for _, test := range tests {
		err := c.Set(test.key, test.value)
		var configErr *ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("Set(%q, %#v) = %v; want *ConfigError", test.key, test.value, err)
			continue
		}
		if configErr.Option != test.key {
			t.Errorf("Set(%q, %#v) error Option = %q", test.key, test.value, configErr.Option)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value        any
		preserveNone bool
		want         any
	}{
		{true, false, true},
		{"Yes", false, true},
		{"on", false, true},
		{"1", false, true},
		{"n", false, false},
		{"OFF", false, false},
		{0, false, false},
		{int64(3), false, true},
		{nil, false, false},
		{nil, true, nil},
		{"None", false, false},
		{"none", true, nil},
	}
	for _, test := range tests {
		got, err := ParseBool(test.value, test.preserveNone)
		if err != nil {
			t.Errorf("ParseBool(%#v, %t): %v", test.value, test.preserveNone, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseBool(%#v, %t) = %#v; want %#v", test.value, test.preserveNone, got, test.want)
		}
	}
	for _, bad := range []any{"maybe", 1.5, []int{1}} {
		if _, err := ParseBool(bad, false); err == nil {
			t.Errorf("ParseBool(%#v, false) did not return an error", bad)
		}
	}
}

func TestFactories(t *testing.T) {
	plain := func(map[string]any) (Extension, error) { return plainExtension{}, nil }
	tab := Factories{"b": plain, "a": plain}
	if f, err := tab.Resolve("a"); err != nil || f == nil {
		t.Errorf("Resolve(\"a\") = %p, %v; want factory", f, err)
	}
	_, err := tab.Resolve("zzz")
	if err == nil {
		t.Fatal("Resolve(\"zzz\") did not return an error")
	}
	if !strings.Contains(err.Error(), "a, b") {
		t.Errorf("Resolve(\"zzz\") error = %q; want it to list the known names", err)
	}

	var asked string
	fn := ResolverFunc(func(name string) (Factory, error) {
		asked = name
		return plain, nil
	})
	md, err := New(&Options{Extensions: []any{"anything"}, Resolver: fn})
	if err != nil {
		t.Fatal(err)
	}
	if asked != "anything" {
		t.Errorf("ResolverFunc asked for %q; want \"anything\"", asked)
	}
	if len(md.Extensions()) != 1 {
		t.Errorf("len(Extensions()) = %d; want 1", len(md.Extensions()))
	}
}
