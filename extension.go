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
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// An Extension adds behavior to a [Markdown] converter
// by changing its registries.
// An extension instance is attached to at most one converter.
type Extension interface {
	// Name returns the name used to look up the extension's configuration.
	Name() string
	// Extend attaches the extension to md.
	Extend(md *Markdown) error
}

// Configurable is implemented by extensions that accept options.
// The returned Config belongs to the extension instance.
type Configurable interface {
	Config() *Config
}

// Resetter is implemented by extensions that keep state between conversions.
// [*Markdown.Reset] calls Reset on every attached extension that implements it.
type Resetter interface {
	Reset()
}

// A Factory creates a new extension instance with the given option overrides.
type Factory func(options map[string]any) (Extension, error)

// A Resolver maps an extension name to a [Factory].
type Resolver interface {
	Resolve(name string) (Factory, error)
}

// ResolverFunc is a function that implements [Resolver].
type ResolverFunc func(name string) (Factory, error)

// Resolve returns f(name).
func (f ResolverFunc) Resolve(name string) (Factory, error) {
	return f(name)
}

// Factories is a [Resolver] backed by a fixed table.
type Factories map[string]Factory

// Resolve returns the factory registered under name.
func (tab Factories) Resolve(name string) (Factory, error) {
	f := tab[name]
	if f == nil {
		names := make([]string, 0, len(tab))
		for k := range tab {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown extension (known: %s)", strings.Join(names, ", "))
	}
	return f, nil
}

type optionKind int

const (
	kindBool optionKind = 1 + iota
	kindOptionalBool
	kindString
	kindInt
	kindAny
)

type option struct {
	value       any
	description string
	kind        optionKind
}

// Config is a set of named extension options.
// The type of each option is fixed by its default value:
// a bool default accepts booleans and boolean strings,
// a nil default makes the option an optional boolean
// that is unset (nil), true, or false,
// a string default accepts only strings,
// and an int default accepts integers and numeric strings.
type Config struct {
	opts  map[string]*option
	order []string
}

// NewConfig returns an empty option set.
func NewConfig() *Config {
	return &Config{opts: make(map[string]*option)}
}

// Define adds an option with a default value and a description.
// Defining an option twice replaces the earlier definition.
func (c *Config) Define(key string, def any, description string) {
	var kind optionKind
	switch def.(type) {
	case nil:
		kind = kindOptionalBool
	case bool:
		kind = kindBool
	case string:
		kind = kindString
	case int:
		kind = kindInt
	default:
		kind = kindAny
	}
	if _, exists := c.opts[key]; !exists {
		c.order = append(c.order, key)
	}
	c.opts[key] = &option{value: def, description: description, kind: kind}
}

// Set changes the value of an option,
// coercing the value to the option's type.
// It returns a [*ConfigError] if the key is unknown
// or the value does not fit the option.
func (c *Config) Set(key string, value any) error {
	opt := c.opts[key]
	if opt == nil {
		return &ConfigError{Option: key, Value: value, Reason: "unknown option"}
	}
	v, err := coerce(opt.kind, value)
	if err != nil {
		return &ConfigError{Option: key, Value: value, Reason: err.Error()}
	}
	opt.value = v
	return nil
}

// SetAll calls [*Config.Set] for each entry in values
// in key order, stopping at the first error.
func (c *Config) SetAll(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the current value of an option
// or nil if the option does not exist.
func (c *Config) Get(key string) any {
	opt := c.opts[key]
	if opt == nil {
		return nil
	}
	return opt.value
}

// Bool returns the value of a boolean option.
// Unset optional booleans report false.
func (c *Config) Bool(key string) bool {
	b, _ := c.Get(key).(bool)
	return b
}

// OptionalBool returns the value of an optional boolean option
// and whether it has been set.
func (c *Config) OptionalBool(key string) (value, isSet bool) {
	b, ok := c.Get(key).(bool)
	return b, ok
}

// String returns the value of a string option.
func (c *Config) String(key string) string {
	s, _ := c.Get(key).(string)
	return s
}

// Int returns the value of an integer option.
func (c *Config) Int(key string) int {
	i, _ := c.Get(key).(int)
	return i
}

// Keys returns the option names in definition order.
func (c *Config) Keys() []string {
	return slices.Clone(c.order)
}

// Describe returns the description of an option.
func (c *Config) Describe(key string) string {
	if opt := c.opts[key]; opt != nil {
		return opt.description
	}
	return ""
}

func coerce(kind optionKind, value any) (any, error) {
	switch kind {
	case kindBool:
		b, err := ParseBool(value, false)
		if err != nil {
			return nil, err
		}
		return b, nil
	case kindOptionalBool:
		return ParseBool(value, true)
	case kindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%v (%T) is not a string", value, value)
		}
		return s, nil
	case kindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case uint64:
			return int(v), nil
		case float64:
			if v != float64(int(v)) {
				return nil, fmt.Errorf("%v is not an integer", v)
			}
			return int(v), nil
		case string:
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", v)
			}
			return i, nil
		default:
			return nil, fmt.Errorf("%v (%T) is not an integer", value, value)
		}
	default:
		return value, nil
	}
}

// ParseBool converts a boolean-like value to a bool.
// Strings are matched case-insensitively against
// "true", "yes", "y", "on", "1" and "false", "no", "n", "off", "0", "none".
// Integers are true when nonzero.
// If preserveNone is true, nil and the string "none" yield nil
// rather than false.
func ParseBool(value any, preserveNone bool) (any, error) {
	switch v := value.(type) {
	case nil:
		if preserveNone {
			return nil, nil
		}
		return false, nil
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case uint64:
		return v != 0, nil
	case string:
		switch s := strings.ToLower(v); s {
		case "true", "yes", "y", "on", "1":
			return true, nil
		case "none":
			if preserveNone {
				return nil, nil
			}
			return false, nil
		case "false", "no", "n", "off", "0":
			return false, nil
		}
		return nil, fmt.Errorf("cannot parse bool value %q", v)
	default:
		return nil, fmt.Errorf("cannot parse bool value %v (%T)", value, value)
	}
}
