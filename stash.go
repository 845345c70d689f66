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
	"regexp"
	"strconv"
	"strings"
)

// Sentinel bytes that delimit placeholders.
// The normalize_whitespace preprocessor strips them from input,
// so they can only appear in text as part of a placeholder.
const (
	stx = '\x02'
	etx = '\x03'
)

const placeholderPrefix = "\x02wzxhzdk:"

var placeholderRE = regexp.MustCompile("\x02wzxhzdk:([0-9]+)\x03")

// A Stash holds raw content that must survive the pipeline untouched.
// Content is referred to by placeholders:
// opaque tokens that no processor looks inside
// until the raw_html postprocessor swaps them back.
type Stash struct {
	blocks []string
}

// Store saves s in the stash and returns its placeholder.
func (s *Stash) Store(content string) string {
	s.blocks = append(s.blocks, content)
	return Placeholder(len(s.blocks) - 1)
}

// Get returns the content stored at index i.
func (s *Stash) Get(i int) (string, bool) {
	if i < 0 || i >= len(s.blocks) {
		return "", false
	}
	return s.blocks[i], true
}

// Len returns the number of items in the stash.
func (s *Stash) Len() int {
	return len(s.blocks)
}

// Reset empties the stash.
func (s *Stash) Reset() {
	clear(s.blocks)
	s.blocks = s.blocks[:0]
}

// Placeholder returns the placeholder for the stash index i.
func Placeholder(i int) string {
	return placeholderPrefix + strconv.Itoa(i) + string(etx)
}

// ParsePlaceholder reports whether s is exactly a placeholder
// and if so, returns its stash index.
func ParsePlaceholder(s string) (int, bool) {
	m := placeholderRE.FindStringSubmatchIndex(s)
	if m == nil || m[0] != 0 || m[1] != len(s) {
		return 0, false
	}
	i, err := strconv.Atoi(s[m[2]:m[3]])
	if err != nil {
		return 0, false
	}
	return i, true
}

// insidePlaceholder reports whether text offset i
// falls strictly inside a placeholder token.
func insidePlaceholder(text string, i int) bool {
	if i <= 0 || i >= len(text) {
		return false
	}
	start := strings.LastIndexByte(text[:i], stx)
	if start < 0 {
		return false
	}
	return strings.IndexByte(text[start:i], etx) < 0
}
