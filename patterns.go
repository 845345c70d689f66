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
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultEscapedChars is the set of characters that a backslash escapes.
const DefaultEscapedChars = "\\`*_{}[]()>#+-.!"

func buildInlinePatterns(md *Markdown) *Registry[InlinePattern] {
	r := NewRegistry[InlinePattern]()
	mustRegister[InlinePattern](r, backtickPattern{}, "backtick", 190)
	mustRegister[InlinePattern](r, &escapePattern{md}, "escape", 180)
	mustRegister[InlinePattern](r, &referencePattern{md: md}, "reference", 170)
	mustRegister[InlinePattern](r, &linkPattern{md: md}, "link", 160)
	mustRegister[InlinePattern](r, &linkPattern{md: md, image: true}, "image_link", 150)
	mustRegister[InlinePattern](r, &referencePattern{md: md, image: true}, "image_reference", 140)
	mustRegister[InlinePattern](r, &referencePattern{md: md, short: true}, "short_reference", 130)
	mustRegister[InlinePattern](r, &referencePattern{md: md, image: true, short: true}, "short_image_ref", 125)
	mustRegister[InlinePattern](r, autolinkPattern(), "autolink", 120)
	mustRegister[InlinePattern](r, automailPattern(md), "automail", 110)
	mustRegister[InlinePattern](r, lineBreakPattern(), "linebreak", 100)
	mustRegister[InlinePattern](r, stashPattern(md, htmlTagRE), "html", 90)
	mustRegister[InlinePattern](r, stashPattern(md, entityRE), "entity", 80)
	mustRegister[InlinePattern](r, notStrongPattern(), "not_strong", 70)
	mustRegister[InlinePattern](r, asteriskPattern{}, "em_strong", 60)
	mustRegister[InlinePattern](r, underscorePattern{}, "em_strong2", 50)
	return r
}

// backtickPattern matches code spans.
type backtickPattern struct{}

func (backtickPattern) Find(text string, from int) []int {
	for i := from; i < len(text); {
		k := strings.IndexByte(text[i:], '`')
		if k < 0 {
			return nil
		}
		start := i + k
		if escaped(text, start) {
			i = start + 1
			continue
		}
		n := runLength(text, start, '`')
		contentStart := start + n
		for j := contentStart + 1; j < len(text); {
			k := strings.IndexByte(text[j:], '`')
			if k < 0 {
				break
			}
			closeStart := j + k
			m := runLength(text, closeStart, '`')
			if m == n {
				return []int{start, closeStart + m, contentStart, closeStart}
			}
			j = closeStart + m
		}
		i = contentStart
	}
	return nil
}

// Opaque returns true: code span content is never markup.
func (backtickPattern) Opaque() bool { return true }

func (backtickPattern) Build(text string, loc []int) (Node, bool) {
	code := NewElement("code")
	code.Append(Text{Data: strings.TrimSpace(text[loc[2]:loc[3]]), Atomic: true})
	return code, true
}

// escaped reports whether the byte at i follows an odd number of backslashes.
func escaped(text string, i int) bool {
	n := 0
	for n < i && text[i-n-1] == '\\' {
		n++
	}
	return n%2 == 1
}

func runLength(text string, i int, c byte) int {
	n := 0
	for i+n < len(text) && text[i+n] == c {
		n++
	}
	return n
}

// escapePattern turns a backslash-escaped character into literal text.
type escapePattern struct {
	md *Markdown
}

func (p *escapePattern) Find(text string, from int) []int {
	for i := from; i < len(text); {
		k := strings.IndexByte(text[i:], '\\')
		if k < 0 {
			return nil
		}
		start := i + k
		c, size := utf8.DecodeRuneInString(text[start+1:])
		if size > 0 && strings.ContainsRune(p.md.EscapedChars, c) {
			return []int{start, start + 1 + size}
		}
		i = start + 1
	}
	return nil
}

// Opaque returns true: an escaped character is never a delimiter.
func (p *escapePattern) Opaque() bool { return true }

func (p *escapePattern) Build(text string, loc []int) (Node, bool) {
	return Text{Data: text[loc[0]+1 : loc[1]], Atomic: true}, true
}

// unescape removes backslashes from escaped characters in s.
func (md *Markdown) unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	sb := new(strings.Builder)
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(md.EscapedChars, s[i+1]) >= 0 {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// matchBracket returns the index of the "]" that closes a "["
// whose content starts at i.
func matchBracket(text string, i int) (int, bool) {
	depth := 1
	for j := i; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

// findBracket returns the start of the next link or image opener
// at or after from, and the index just past its "[".
func findBracket(text string, from int, image bool) (start, content int, ok bool) {
	for i := from; i < len(text); {
		k := strings.IndexByte(text[i:], '[')
		if k < 0 {
			return 0, 0, false
		}
		k += i
		switch {
		case image && k > from && text[k-1] == '!':
			return k - 1, k + 1, true
		case !image && (k == 0 || text[k-1] != '!'):
			return k, k + 1, true
		}
		i = k + 1
	}
	return 0, 0, false
}

// referencePattern matches "[text][id]", "![alt][id]",
// and their short forms "[text]" and "![alt]".
type referencePattern struct {
	md    *Markdown
	image bool
	short bool
}

var referenceLabelRE = regexp.MustCompile(`\A\s?\[([^\]]*)\]`)

func (p *referencePattern) Find(text string, from int) []int {
	for from < len(text) {
		start, content, ok := findBracket(text, from, p.image)
		if !ok {
			return nil
		}
		end, ok := matchBracket(text, content)
		if ok && p.short {
			return []int{start, end + 1, content, end, -1, -1}
		}
		if ok {
			if m := referenceLabelRE.FindStringSubmatchIndex(text[end+1:]); m != nil {
				off := end + 1
				return []int{start, off + m[1], content, end, off + m[2], off + m[3]}
			}
		}
		from = content
	}
	return nil
}

func (p *referencePattern) Build(text string, loc []int) (Node, bool) {
	label := text[loc[2]:loc[3]]
	id := label
	if loc[4] >= 0 && loc[4] < loc[5] {
		id = text[loc[4]:loc[5]]
	}
	def, ok := p.md.References.Lookup(id)
	if !ok {
		return nil, false
	}
	return p.md.makeLink(p.image, label, def.Destination, def.Title, def.TitlePresent), true
}

func (md *Markdown) makeLink(image bool, label, dest, title string, hasTitle bool) *Element {
	if image {
		img := NewElement("img", Attr{Key: "src", Value: dest})
		if hasTitle {
			img.Set("title", title)
		}
		img.Set("alt", md.unescape(label))
		return img
	}
	a := NewElement("a", Attr{Key: "href", Value: dest})
	if hasTitle {
		a.Set("title", title)
	}
	a.AppendText(label)
	return a
}

// linkPattern matches inline links "[text](url "title")"
// and inline images "![alt](src "title")".
type linkPattern struct {
	md    *Markdown
	image bool
}

func (p *linkPattern) Find(text string, from int) []int {
	for from < len(text) {
		start, content, ok := findBracket(text, from, p.image)
		if !ok {
			return nil
		}
		end, ok := matchBracket(text, content)
		if ok && end+1 < len(text) && text[end+1] == '(' {
			if close, ok := matchParen(text, end+2); ok {
				return []int{start, close + 1, content, end, end + 2, close}
			}
		}
		from = content
	}
	return nil
}

// matchParen returns the index of the ")" that closes a link destination
// starting at i. Parentheses inside a quoted title are ignored.
func matchParen(text string, i int) (int, bool) {
	depth := 1
	var quote byte
	for j := i; j < len(text); j++ {
		c := text[j]
		switch {
		case c == '\\':
			j++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && j > i && isSpaceByte(text[j-1]):
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

var linkTitleRE = regexp.MustCompile(`(?s)\A(\S*)\s+(?:"(.*)"|'(.*)'|\((.*)\))\z`)

func (p *linkPattern) Build(text string, loc []int) (Node, bool) {
	label := text[loc[2]:loc[3]]
	dest := strings.TrimSpace(text[loc[4]:loc[5]])
	var title string
	hasTitle := false
	if strings.HasPrefix(dest, "<") {
		if end := strings.IndexByte(dest, '>'); end >= 0 {
			rest := strings.TrimSpace(dest[end+1:])
			dest = dest[1:end]
			if rest != "" {
				m := linkTitleRE.FindStringSubmatchIndex("_ " + rest)
				if m == nil {
					return nil, false
				}
				title, hasTitle = firstGroup("_ "+rest, m[4:])
			}
		}
	} else if m := linkTitleRE.FindStringSubmatchIndex(dest); m != nil {
		title, hasTitle = firstGroup(dest, m[4:])
		dest = dest[m[2]:m[3]]
	}
	dest = p.md.unescape(dest)
	if hasTitle {
		title = p.md.unescape(title)
	}
	return p.md.makeLink(p.image, label, dest, title, hasTitle), true
}

var (
	autolinkRE = regexp.MustCompile(`<((?:[Ff]|[Hh][Tt])[Tt][Pp][Ss]?://[^<>]*)>`)
	automailRE = regexp.MustCompile(`<([^<> !]+@[^@<> ]+)>`)
	htmlTagRE  = regexp.MustCompile(`(?s)<(?:/?[a-zA-Z][^<>@ ]*(?: [^<>]*)?|!--.*?--)>`)
	entityRE   = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z0-9]+);`)
)

// autolinkPattern matches "<http://example.com/>".
func autolinkPattern() *RegexpPattern {
	return &RegexpPattern{
		Regexp: autolinkRE,
		Handle: func(text string, loc []int) (Node, bool) {
			url := text[loc[2]:loc[3]]
			a := NewElement("a", Attr{Key: "href", Value: url})
			a.Append(Text{Data: url, Atomic: true})
			return a, true
		},
	}
}

// automailPattern matches "<user@example.com>".
// The address is written as character references
// to make it harder to harvest.
func automailPattern(md *Markdown) *RegexpPattern {
	return &RegexpPattern{
		Regexp: automailRE,
		Handle: func(text string, loc []int) (Node, bool) {
			email := strings.TrimPrefix(text[loc[2]:loc[3]], "mailto:")
			a := NewElement("a", Attr{Key: "href", Value: md.Stash.Store(charRefs("mailto:" + email))})
			a.Append(Raw{Data: charRefs(email)})
			return a, true
		},
	}
}

func charRefs(s string) string {
	sb := new(strings.Builder)
	for _, c := range s {
		fmt.Fprintf(sb, "&#%d;", c)
	}
	return sb.String()
}

// lineBreakPattern turns two trailing spaces into a line break.
func lineBreakPattern() *RegexpPattern {
	return &RegexpPattern{
		Regexp: regexp.MustCompile(`  \n`),
		Handle: func(text string, loc []int) (Node, bool) {
			return NewElement("br"), true
		},
	}
}

// stashPattern stashes every match of re as raw HTML.
func stashPattern(md *Markdown, re *regexp.Regexp) *RegexpPattern {
	return &RegexpPattern{
		Regexp: re,
		Handle: func(text string, loc []int) (Node, bool) {
			return Text{Data: md.Stash.Store(md.unescape(text[loc[0]:loc[1]])), Atomic: true}, true
		},
	}
}

// notStrongPattern keeps a lone "*" or "_" surrounded by whitespace literal.
func notStrongPattern() *RegexpPattern {
	return &RegexpPattern{
		Regexp: regexp.MustCompile(`(?:^|\s)[*_]\s`),
		Handle: func(text string, loc []int) (Node, bool) {
			return Text{Data: text[loc[0]:loc[1]], Atomic: true}, true
		},
	}
}

// Emphasis shapes.
const (
	shapeStrongEm     = iota // <strong><em>1</em>2</strong>
	shapeEmStrong            // <em><strong>1</strong>2</em>
	shapeStrongThenEm        // <strong>1<em>2</em></strong>
	shapeStrong              // <strong>1</strong>
	shapeEm                  // <em>1</em>
)

var asteriskForms = []struct {
	re    *regexp.Regexp
	shape int
}{
	{regexp.MustCompile(`(?s)\A\*{3}(.+?)\*(.*?)\*{2}`), shapeStrongEm},
	{regexp.MustCompile(`(?s)\A\*{3}(.+?)\*{2}(.*?)\*`), shapeEmStrong},
	{regexp.MustCompile(`(?s)\A\*{2}([^*]+?)\*([^*].*?)\*{3}`), shapeStrongThenEm},
	{regexp.MustCompile(`(?s)\A\*{2}(.+?)\*{2}`), shapeStrong},
	{regexp.MustCompile(`(?s)\A\*([^*]+)\*`), shapeEm},
}

// asteriskPattern matches "*em*", "**strong**", and their combinations.
type asteriskPattern struct{}

func (asteriskPattern) Find(text string, from int) []int {
	for i := from; i < len(text); {
		k := strings.IndexByte(text[i:], '*')
		if k < 0 {
			return nil
		}
		start := i + k
		for _, form := range asteriskForms {
			m := form.re.FindStringSubmatchIndex(text[start:])
			if m == nil {
				continue
			}
			loc := []int{start, start + m[1], form.shape}
			for _, x := range m[2:] {
				if x >= 0 {
					x += start
				}
				loc = append(loc, x)
			}
			for len(loc) < 7 {
				loc = append(loc, -1)
			}
			return loc
		}
		i = start + 1
	}
	return nil
}

func (asteriskPattern) Build(text string, loc []int) (Node, bool) {
	return buildEmphasis(text, loc[2], loc[3:]), true
}

// buildEmphasis builds the tree for an emphasis shape
// from up to two submatch index pairs.
func buildEmphasis(text string, shape int, groups []int) *Element {
	group := func(i int) string {
		if groups[2*i] < 0 {
			return ""
		}
		return text[groups[2*i]:groups[2*i+1]]
	}
	wrap := func(name string, content string) *Element {
		el := NewElement(name)
		el.AppendText(content)
		return el
	}
	switch shape {
	case shapeStrongEm:
		outer := NewElement("strong")
		outer.Append(wrap("em", group(0)))
		outer.AppendText(group(1))
		return outer
	case shapeEmStrong:
		outer := NewElement("em")
		outer.Append(wrap("strong", group(0)))
		outer.AppendText(group(1))
		return outer
	case shapeStrongThenEm:
		outer := wrap("strong", group(0))
		outer.Append(wrap("em", group(1)))
		return outer
	case shapeStrong:
		return wrap("strong", group(0))
	default:
		return wrap("em", group(0))
	}
}

// underscorePattern matches "_em_", "__strong__", and "___both___"
// only at word boundaries, so snake_case_words are left alone.
type underscorePattern struct{}

func (underscorePattern) Find(text string, from int) []int {
	for i := from; i < len(text); {
		k := strings.IndexByte(text[i:], '_')
		if k < 0 {
			return nil
		}
		start := i + k
		n := runLength(text, start, '_')
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if n <= 3 && (start == 0 || !isWordRune(prev)) {
			if end, ok := underscoreClose(text, start+n, n); ok {
				shape := shapeEm
				switch n {
				case 3:
					shape = shapeStrongEm
				case 2:
					shape = shapeStrong
				}
				return []int{start, end + n, shape, start + n, end, -1, -1}
			}
		}
		i = start + n
	}
	return nil
}

func (underscorePattern) Build(text string, loc []int) (Node, bool) {
	return buildEmphasis(text, loc[2], loc[3:]), true
}

// underscoreClose finds a closing run of exactly n underscores
// for content that starts at i.
func underscoreClose(text string, i, n int) (int, bool) {
	delim := strings.Repeat("_", n)
	for j := i + 1; j+n <= len(text); j++ {
		if text[j:j+n] != delim || text[j-1] == '_' {
			continue
		}
		next, size := utf8.DecodeRuneInString(text[j+n:])
		if size == 0 || !isWordRune(next) {
			return j, true
		}
	}
	return 0, false
}

func isWordRune(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
