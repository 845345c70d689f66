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
)

// ErrNotRegistered is returned (possibly wrapped)
// when a [Registry] operation names an entry that does not exist.
var ErrNotRegistered = errors.New("not registered")

// ConfigError is returned when an option is unknown
// or its value cannot be coerced to the option's type.
type ConfigError struct {
	Option string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Option == "" {
		return "markdown: configuration: " + e.Reason
	}
	return fmt.Sprintf("markdown: configuration: %s: %s", e.Option, e.Reason)
}

// ExtensionLoadError is returned when a named extension
// cannot be resolved or instantiated.
type ExtensionLoadError struct {
	Name string
	Err  error
}

func (e *ExtensionLoadError) Error() string {
	return fmt.Sprintf("markdown: load extension %q: %v", e.Name, e.Err)
}

func (e *ExtensionLoadError) Unwrap() error {
	return e.Err
}

// ContractError is returned when a value handed to the pipeline
// does not provide a capability it is required to have.
type ContractError struct {
	What   string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("markdown: %s: %s", e.What, e.Reason)
}

// InternalError signals a bug in tree construction or in a pipeline stage.
// It is only ever used as a panic value.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "markdown: internal error: " + e.Msg
}

func internalErrorf(format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}
