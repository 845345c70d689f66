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

// A Postprocessor transforms the serialized document.
type Postprocessor interface {
	Run(text string) string
}

// PostprocessorFunc is a function that implements [Postprocessor].
type PostprocessorFunc func(text string) string

// Run returns f(text).
func (f PostprocessorFunc) Run(text string) string {
	return f(text)
}

func buildPostprocessors(md *Markdown) *Registry[Postprocessor] {
	r := NewRegistry[Postprocessor]()
	mustRegister[Postprocessor](r, &rawHTMLPostprocessor{md}, "raw_html", 30)
	return r
}

// rawHTMLPostprocessor swaps placeholders for their stashed content.
// A placeholder that makes up a whole paragraph
// and holds block-level markup replaces the paragraph.
type rawHTMLPostprocessor struct {
	md *Markdown
}

var (
	stashedParagraphRE = regexp.MustCompile("(<p>)?\x02wzxhzdk:([0-9]+)\x03(</p>)?")
	leadingTagRE       = regexp.MustCompile(`^</?([^ >]+)`)
)

func (p *rawHTMLPostprocessor) Run(text string) string {
	// Stashed content may itself hold placeholders.
	for range p.md.Stash.Len() + 1 {
		next := p.replace(text)
		if next == text {
			return text
		}
		text = next
	}
	panic(internalErrorf("stash placeholders did not resolve"))
}

func (p *rawHTMLPostprocessor) replace(text string) string {
	matches := stashedParagraphRE.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}
	sb := new(strings.Builder)
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m[0]])
		last = m[1]
		i, _ := strconv.Atoi(text[m[4]:m[5]])
		content, ok := p.md.Stash.Get(i)
		if !ok {
			sb.WriteString(text[m[0]:m[1]])
			continue
		}
		open, close := m[2] >= 0, m[6] >= 0
		if open && close && p.isBlockLevel(content) {
			sb.WriteString(content)
			continue
		}
		if open {
			sb.WriteString("<p>")
		}
		sb.WriteString(content)
		if close {
			sb.WriteString("</p>")
		}
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// isBlockLevel reports whether raw markup starts with a block-level tag,
// a comment, or another markup declaration.
func (p *rawHTMLPostprocessor) isBlockLevel(html string) bool {
	m := leadingTagRE.FindStringSubmatch(html)
	if m == nil {
		return false
	}
	if strings.ContainsRune("!?@%", rune(m[1][0])) {
		return true
	}
	return p.md.IsBlockLevel(m[1])
}
