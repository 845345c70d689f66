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

// Package fencedcode adds fenced code blocks to Markdown.
//
// A fence is a line of three or more backticks or tildes.
// The opening fence may name a language,
// or give attributes in braces:
//
//	```{.python #example data-x=1}
//	print("hi")
//	```
//
// A block ends at the first line that repeats the opening fence exactly.
// An opening fence with no closing fence is left as ordinary text.
package fencedcode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go4.org/bytereplacer"
	"zombiezen.com/go/markdown"
)

// Name is the name the extension is registered under.
const Name = "fenced_code"

// A Highlighter renders code as highlighted HTML.
// If an attached extension implements Highlighter,
// fenced blocks are passed to it.
type Highlighter interface {
	// Highlight returns the HTML for code written in lang
	// (empty if unknown) with the given 1-based lines emphasized.
	// If ok is false, the block is rendered without highlighting.
	Highlight(code, lang string, hlLines []int) (html string, ok bool)
}

var (
	openFenceRE = regexp.MustCompile(
		"^(~{3,}|`{3,}) *" +
			`(?:\{([^}\n]*)\}|(?:\.?([\w#.+-]*) *)?(?:hl_lines=(?:"([^"]*)"|'([^']*)') *)?)$`)
	attrRE = regexp.MustCompile(
		`#([^\s}]+)|\.([^\s}]+)|([\w-]+)=(?:"([^"]*)"|'([^']*)'|([^\s}]+))|([\w-]+)`)
)

var codeEscaper = bytereplacer.New(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Extension is the fenced code extension.
type Extension struct {
	cfg *markdown.Config
	md  *markdown.Markdown
}

// New returns a new fenced code extension with default options.
func New() *Extension {
	cfg := markdown.NewConfig()
	cfg.Define("lang_prefix", "language-", "Prefix prepended to the language class")
	return &Extension{cfg: cfg}
}

// Factory creates the extension from a set of options.
func Factory(options map[string]any) (markdown.Extension, error) {
	e := New()
	if err := e.cfg.SetAll(options); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns "fenced_code".
func (*Extension) Name() string { return Name }

// Config returns the extension's options.
func (e *Extension) Config() *markdown.Config { return e.cfg }

// Extend registers the fence preprocessor.
// It runs after whitespace normalization and before raw HTML is stashed.
func (e *Extension) Extend(md *markdown.Markdown) error {
	e.md = md
	return md.Preprocessors.Register(markdown.PreprocessorFunc(e.run), Name, 25)
}

// block is a parsed fenced code block.
type block struct {
	code    string
	lang    string
	id      string
	classes []string
	attrs   []markdown.Attr
	hlLines []int
}

func (e *Extension) run(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		b, end, ok := parseBlock(lines, i)
		if !ok {
			out = append(out, lines[i])
			continue
		}
		out = append(out, "", e.md.Stash.Store(e.render(b)), "")
		i = end
	}
	return out
}

// parseBlock parses the fenced block whose opening fence is lines[start].
// end is the index of the closing fence.
func parseBlock(lines []string, start int) (b *block, end int, ok bool) {
	m := openFenceRE.FindStringSubmatch(lines[start])
	if m == nil {
		return nil, 0, false
	}
	fence := m[1]
	end = -1
	for j := start + 1; j < len(lines); j++ {
		if strings.TrimRight(lines[j], " ") == fence {
			end = j
			break
		}
	}
	if end < 0 {
		return nil, 0, false
	}
	b = new(block)
	if body := lines[start+1 : end]; len(body) > 0 {
		b.code = strings.Join(body, "\n") + "\n"
	}
	if m[2] != "" {
		parseAttrs(b, m[2])
		if len(b.classes) > 0 {
			b.lang, b.classes = b.classes[0], b.classes[1:]
		}
	} else {
		b.lang = m[3]
		b.hlLines = parseLineList(m[4] + m[5])
	}
	return b, end, true
}

// parseAttrs fills in b from the contents of a brace attribute list.
func parseAttrs(b *block, s string) {
	for _, m := range attrRE.FindAllStringSubmatch(s, -1) {
		switch {
		case m[1] != "":
			b.id = m[1]
		case m[2] != "":
			b.classes = append(b.classes, m[2])
		case m[3] != "":
			v := m[4] + m[5] + m[6]
			switch m[3] {
			case "id":
				b.id = v
			case "hl_lines":
				b.hlLines = parseLineList(v)
			default:
				b.attrs = append(b.attrs, markdown.Attr{Key: m[3], Value: v})
			}
		case m[7] != "":
			b.attrs = append(b.attrs, markdown.Attr{Key: m[7], Value: m[7]})
		}
	}
}

// parseLineList parses a space-separated list of line numbers.
// Any malformed entry makes the whole list empty.
func parseLineList(s string) []int {
	var lines []int
	for _, f := range strings.Fields(s) {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil
		}
		lines = append(lines, n)
	}
	return lines
}

func (e *Extension) render(b *block) string {
	if h := e.highlighter(); h != nil {
		if html, ok := h.Highlight(b.code, b.lang, b.hlLines); ok {
			return html
		}
	}
	classes := b.classes
	if b.lang != "" {
		classes = append([]string{e.cfg.String("lang_prefix") + b.lang}, classes...)
	}
	sb := new(strings.Builder)
	sb.WriteString("<pre")
	if b.id != "" {
		fmt.Fprintf(sb, ` id="%s"`, escape(b.id))
	}
	sb.WriteString("><code")
	if len(classes) > 0 {
		fmt.Fprintf(sb, ` class="%s"`, escape(strings.Join(classes, " ")))
	}
	for _, a := range b.attrs {
		fmt.Fprintf(sb, ` %s="%s"`, a.Key, escape(a.Value))
	}
	sb.WriteString(">")
	sb.WriteString(escape(b.code))
	sb.WriteString("</code></pre>")
	return sb.String()
}

// highlighter returns the first attached extension that can highlight code.
func (e *Extension) highlighter() Highlighter {
	for _, ext := range e.md.Extensions() {
		if h, ok := ext.(Highlighter); ok {
			return h
		}
	}
	return nil
}

func escape(s string) string {
	return string(codeEscaper.Replace([]byte(s)))
}
