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
	"regexp"
	"unicode/utf8"
)

// An InlinePattern recognizes one kind of inline markup.
//
// The text given to an InlinePattern is always the unconsumed remainder
// of a text run: anything before it has already been turned into nodes,
// so patterns cannot look behind the start of text.
type InlinePattern interface {
	// Find returns the location of the leftmost candidate match
	// that starts at or after byte offset from,
	// or nil if there is none.
	// loc[0] and loc[1] are the match's bounds.
	// Any further elements are pattern-specific
	// and are passed back to Build unchanged.
	Find(text string, from int) (loc []int)
	// Build converts a match into a node.
	// Elements in the returned tree may hold non-atomic [Text] children,
	// which are processed again with every pattern.
	// A top-level [Text] result is treated as literal text.
	// If ok is false, the candidate is rejected
	// and the engine looks for the pattern's next candidate.
	Build(text string, loc []int) (n Node, ok bool)
}

// An OpaquePattern is an [InlinePattern] whose matches hide their content
// from the patterns that come after it in priority order.
// Those patterns see each of its candidates as ordinary text,
// so they cannot take a delimiter from inside one.
// Build must accept every candidate of an opaque pattern.
type OpaquePattern interface {
	InlinePattern
	Opaque() bool
}

// RegexpPattern is an [InlinePattern] driven by a regular expression.
type RegexpPattern struct {
	// Regexp is the expression to search for.
	// The locations passed to Handle are submatch indices.
	Regexp *regexp.Regexp
	// Handle builds the node for a match.
	Handle func(text string, loc []int) (Node, bool)
}

// Find returns the location of the first match of p.Regexp
// in text[from:], offset to be relative to text.
func (p *RegexpPattern) Find(text string, from int) []int {
	loc := p.Regexp.FindStringSubmatchIndex(text[from:])
	if loc == nil {
		return nil
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += from
		}
	}
	return loc
}

// Build calls p.Handle.
func (p *RegexpPattern) Build(text string, loc []int) (Node, bool) {
	return p.Handle(text, loc)
}

// inlineEngine replaces the markup in text runs with nodes.
type inlineEngine struct {
	patterns []InlinePattern
}

// apply converts text into a sequence of nodes.
// Every returned text node is atomic.
func (e *inlineEngine) apply(text string) []Node {
	var out []Node
	for text != "" {
		loc, n := e.next(text)
		if loc == nil {
			out = append(out, Text{Data: text, Atomic: true})
			break
		}
		if loc[0] > 0 {
			out = append(out, Text{Data: text[:loc[0]], Atomic: true})
		}
		out = append(out, e.resolve(n))
		text = text[loc[1]:]
	}
	return out
}

// next finds the leftmost match in text that a pattern accepts.
// Ties go to the pattern that comes first in priority order.
func (e *inlineEngine) next(text string) ([]int, Node) {
	masked := e.mask(text)
	cands := make([][]int, len(e.patterns))
	for i, p := range e.patterns {
		cands[i] = findCandidate(p, masked[i], 0)
	}
	for {
		best := -1
		for i, loc := range cands {
			if loc != nil && (best < 0 || loc[0] < cands[best][0]) {
				best = i
			}
		}
		if best < 0 {
			return nil, nil
		}
		loc := cands[best]
		if n, ok := e.patterns[best].Build(text, loc); ok {
			if n == nil {
				panic(internalErrorf("inline pattern %T built a nil node", e.patterns[best]))
			}
			return loc, n
		}
		cands[best] = findCandidate(e.patterns[best], masked[best], nextRune(masked[best], loc[0]))
	}
}

// maskByte replaces the bytes of an opaque match.
// No built-in pattern treats it as markup.
const maskByte = '\x1a'

// mask returns the text each pattern searches:
// text with the candidates of every opaque pattern
// that comes before it blanked out.
// Offsets are unchanged, so locations index text as well.
func (e *inlineEngine) mask(text string) []string {
	masked := make([]string, len(e.patterns))
	curr := text
	for i, p := range e.patterns {
		masked[i] = curr
		if op, ok := p.(OpaquePattern); ok && op.Opaque() {
			curr = blankMatches(p, curr)
		}
	}
	return masked
}

func blankMatches(p InlinePattern, text string) string {
	var buf []byte
	for from := 0; from < len(text); {
		loc := findCandidate(p, text, from)
		if loc == nil {
			break
		}
		if buf == nil {
			buf = []byte(text)
		}
		for i := loc[0]; i < loc[1]; i++ {
			buf[i] = maskByte
		}
		from = loc[1]
	}
	if buf == nil {
		return text
	}
	return string(buf)
}

// findCandidate returns p's first candidate at or after from
// that neither starts nor ends inside a placeholder.
func findCandidate(p InlinePattern, text string, from int) []int {
	for from < len(text) {
		loc := p.Find(text, from)
		if loc == nil {
			return nil
		}
		if len(loc) < 2 || loc[0] < from || loc[1] <= loc[0] || loc[1] > len(text) {
			panic(internalErrorf("inline pattern %T returned invalid location %v", p, loc))
		}
		if !insidePlaceholder(text, loc[0]) && !insidePlaceholder(text, loc[1]) {
			return loc
		}
		from = nextRune(text, loc[0])
	}
	return nil
}

func nextRune(text string, i int) int {
	_, size := utf8.DecodeRuneInString(text[i:])
	return i + max(size, 1)
}

// resolve processes the unprocessed text inside a built node.
func (e *inlineEngine) resolve(n Node) Node {
	switch n := n.(type) {
	case Text:
		return Text{Data: n.Data, Atomic: true}
	case *Element:
		e.processChildren(n)
	}
	return n
}

// processChildren replaces each unprocessed text child of el
// with the nodes its markup produces.
func (e *inlineEngine) processChildren(el *Element) {
	var children []Node
	for _, c := range el.Children {
		switch c := c.(type) {
		case Text:
			if c.Atomic {
				children = append(children, c)
			} else {
				children = append(children, e.apply(c.Data)...)
			}
		case *Element:
			e.processChildren(c)
			children = append(children, c)
		default:
			children = append(children, c)
		}
	}
	el.Children = children
}

// inlineProcessor is the tree pass that runs the inline patterns
// over every text run in the document.
type inlineProcessor struct {
	md *Markdown
}

func (p *inlineProcessor) Run(root *Element) *Element {
	e := &inlineEngine{patterns: p.md.InlinePatterns.Items()}
	e.processChildren(root)
	return root
}
