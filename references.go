// Copyright 2023 Ross Light
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
	"strings"

	"golang.org/x/text/cases"
)

// LinkDefinition is the data of a link reference definition
// such as:
//
//	[id]: http://example.com/ "Title"
type LinkDefinition struct {
	Destination  string
	Title        string
	TitlePresent bool
}

// ReferenceMap is a mapping of normalized labels to link definitions.
// Labels are normalized with [NormalizeLabel].
type ReferenceMap map[string]LinkDefinition

// NormalizeLabel returns the case-folded form of a reference label
// with every run of whitespace collapsed to a single space
// and leading and trailing whitespace removed.
func NormalizeLabel(label string) string {
	return cases.Fold().String(strings.Join(strings.Fields(label), " "))
}

// Define adds a definition for label unless the label is empty
// or already defined, reporting whether the definition was added.
// The first definition of a label in source order wins.
func (m ReferenceMap) Define(label string, def LinkDefinition) bool {
	key := NormalizeLabel(label)
	if key == "" {
		return false
	}
	if _, exists := m[key]; exists {
		return false
	}
	m[key] = def
	return true
}

// Lookup returns the definition for label,
// normalizing it with [NormalizeLabel] first.
func (m ReferenceMap) Lookup(label string) (LinkDefinition, bool) {
	def, ok := m[NormalizeLabel(label)]
	return def, ok
}
