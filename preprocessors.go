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
	"strings"

	"golang.org/x/net/html"
)

// A Preprocessor transforms the source lines before block parsing.
// It may return a different number of lines than it was given.
type Preprocessor interface {
	Run(lines []string) []string
}

// PreprocessorFunc is a function that implements [Preprocessor].
type PreprocessorFunc func(lines []string) []string

// Run returns f(lines).
func (f PreprocessorFunc) Run(lines []string) []string {
	return f(lines)
}

func buildPreprocessors(md *Markdown) *Registry[Preprocessor] {
	r := NewRegistry[Preprocessor]()
	mustRegister[Preprocessor](r, &normalizeWhitespace{md: md}, "normalize_whitespace", 30)
	mustRegister[Preprocessor](r, &htmlBlockPreprocessor{md: md}, "html_block", 20)
	mustRegister[Preprocessor](r, &referencePreprocessor{md: md}, "reference", 10)
	return r
}

func mustRegister[T any](r *Registry[T], item T, name string, priority int) {
	if err := r.Register(item, name, priority); err != nil {
		panic(err)
	}
}

// normalizeWhitespace normalizes line endings, expands tabs,
// and removes any stray placeholder delimiters from the source.
type normalizeWhitespace struct {
	md *Markdown
}

func (p *normalizeWhitespace) Run(lines []string) []string {
	source := strings.Join(lines, "\n")
	source = strings.NewReplacer(
		string(stx), "",
		string(etx), "",
		"\r\n", "\n",
		"\r", "\n",
	).Replace(source)
	source += "\n\n"
	lines = strings.Split(source, "\n")
	for i, line := range lines {
		line = expandTabs(line, p.md.TabLength)
		if strings.TrimLeft(line, " ") == "" {
			line = ""
		}
		lines[i] = line
	}
	return lines
}

// expandTabs replaces each tab in line with enough spaces
// to reach the next multiple of size columns.
func expandTabs(line string, size int) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	sb := new(strings.Builder)
	col := 0
	for _, c := range line {
		if c == '\t' {
			n := size - col%size
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteRune(c)
		col++
	}
	return sb.String()
}

// htmlBlockPreprocessor stashes blocks of raw HTML
// so that they are passed through to the output unchanged.
type htmlBlockPreprocessor struct {
	md *Markdown
}

var htmlBlockStartRE = regexp.MustCompile(`^<(?:!--|/?([a-zA-Z][a-zA-Z0-9]*))`)

func (p *htmlBlockPreprocessor) Run(lines []string) []string {
	var out []string
	for i := 0; i < len(lines); {
		line := lines[i]
		prevBlank := len(out) == 0 || out[len(out)-1] == ""
		if !prevBlank || !p.startsBlock(line) {
			out = append(out, line)
			i++
			continue
		}
		n := rawBlockLines(lines[i:])
		raw := strings.Join(lines[i:i+n], "\n")
		out = append(out, "", p.md.Stash.Store(raw), "")
		i += n
	}
	return out
}

func (p *htmlBlockPreprocessor) startsBlock(line string) bool {
	m := htmlBlockStartRE.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	return m[1] == "" || p.md.IsBlockLevel(m[1])
}

// rawBlockLines returns the number of lines at the start of lines
// that belong to the raw HTML block beginning on the first line.
func rawBlockLines(lines []string) int {
	text := strings.Join(lines, "\n")
	end := rawBlockEnd(text)
	if end < 0 {
		// Unterminated: the block runs to the next blank line.
		for i, line := range lines {
			if line == "" {
				return max(i, 1)
			}
		}
		return len(lines)
	}
	return strings.Count(text[:end], "\n") + 1
}

// rawBlockEnd returns the byte offset in text
// just past the tag that closes the element opened at the start of text,
// or -1 if the element is never closed.
func rawBlockEnd(text string) int {
	z := html.NewTokenizer(strings.NewReader(text))
	var name string
	depth := 0
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return -1
		}
		offset += len(z.Raw())
		switch tt {
		case html.CommentToken:
			// The tokenizer ends an unterminated comment at end of input.
			if name == "" && strings.HasSuffix(string(z.Raw()), "-->") {
				return offset
			}
			if name == "" {
				return -1
			}
		case html.DoctypeToken, html.SelfClosingTagToken:
			if name == "" {
				return offset
			}
		case html.StartTagToken:
			tag, _ := z.TagName()
			if name == "" {
				name = string(tag)
				if isVoidElement(name) {
					return offset
				}
			}
			if string(tag) == name {
				depth++
			}
		case html.EndTagToken:
			tag, _ := z.TagName()
			if name == "" {
				return offset
			}
			if string(tag) == name {
				depth--
				if depth == 0 {
					return offset
				}
			}
		}
	}
}

// referencePreprocessor collects link reference definitions
// and removes them from the source.
type referencePreprocessor struct {
	md *Markdown
}

var (
	referenceDefRE   = regexp.MustCompile(`^ {0,3}\[([^\]]*)\]:\s*([^ ]*) *(?:(?:"(.*)"|'(.*)'|\((.*)\)) *)?$`)
	referenceTitleRE = regexp.MustCompile(`^ *(?:"(.*)"|'(.*)'|\((.*)\)) *$`)
)

func (p *referencePreprocessor) Run(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		m := referenceDefRE.FindStringSubmatchIndex(lines[i])
		if m == nil || m[4] == m[5] || NormalizeLabel(lines[i][m[2]:m[3]]) == "" {
			out = append(out, lines[i])
			continue
		}
		line := lines[i]
		label := strings.TrimSpace(line[m[2]:m[3]])
		def := LinkDefinition{
			Destination: strings.TrimSuffix(strings.TrimPrefix(line[m[4]:m[5]], "<"), ">"),
		}
		def.Title, def.TitlePresent = firstGroup(line, m[6:])
		if !def.TitlePresent && i+1 < len(lines) {
			if tm := referenceTitleRE.FindStringSubmatchIndex(lines[i+1]); tm != nil {
				def.Title, def.TitlePresent = firstGroup(lines[i+1], tm[2:])
				i++
				out = append(out, "")
			}
		}
		p.md.References.Define(label, def)
		// Keep the line count stable for the raw HTML positions already computed.
		out = append(out, "")
	}
	return out
}

// firstGroup returns the first participating submatch in m,
// which holds start/end index pairs into s.
func firstGroup(s string, m []int) (string, bool) {
	for i := 0; i+1 < len(m); i += 2 {
		if m[i] >= 0 {
			return s[m[i]:m[i+1]], true
		}
	}
	return "", false
}
