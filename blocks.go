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
)

// A BlockProcessor recognizes one kind of block structure.
type BlockProcessor interface {
	// Test reports whether the processor wants to handle block,
	// the first block in the queue, as a child of parent.
	Test(parent *Element, block string) bool
	// Run consumes one or more blocks from the front of the queue
	// and adds the resulting nodes to parent.
	// If Run returns false, the parser tries the next processor
	// and the queue must be left as Run found it.
	Run(parent *Element, blocks *BlockQueue) bool
}

// A BlockQueue is the sequence of blank-line separated blocks
// that remain to be parsed.
type BlockQueue struct {
	blocks []string
	size   int
}

func newBlockQueue(blocks []string) *BlockQueue {
	q := &BlockQueue{blocks: blocks}
	for _, b := range blocks {
		q.size += len(b) + 1
	}
	return q
}

// Len returns the number of blocks left in the queue.
func (q *BlockQueue) Len() int {
	return len(q.blocks)
}

// Peek returns the first block in the queue.
func (q *BlockQueue) Peek() string {
	return q.blocks[0]
}

// Pop removes and returns the first block in the queue.
func (q *BlockQueue) Pop() string {
	b := q.blocks[0]
	q.blocks = q.blocks[1:]
	q.size -= len(b) + 1
	return b
}

// Push puts a block at the front of the queue.
func (q *BlockQueue) Push(block string) {
	q.blocks = append([]string{block}, q.blocks...)
	q.size += len(block) + 1
}

// A BlockParser builds a document tree out of lines of text
// by handing blocks to its processors in priority order.
type BlockParser struct {
	// Processors is the set of block processors, tried in order.
	Processors *Registry[BlockProcessor]

	md    *Markdown
	state []string
}

// Parser states.
const (
	stateList       = "list"
	stateLooseList  = "looselist"
	stateDetabbed   = "detabbed"
	stateBlockquote = "blockquote"
)

func newBlockParser(md *Markdown) *BlockParser {
	p := &BlockParser{md: md, Processors: NewRegistry[BlockProcessor]()}
	mustRegister[BlockProcessor](p.Processors, &emptyBlockProcessor{p}, "empty", 100)
	mustRegister[BlockProcessor](p.Processors, &listIndentProcessor{p}, "indent", 90)
	mustRegister[BlockProcessor](p.Processors, &codeBlockProcessor{p}, "code", 80)
	mustRegister[BlockProcessor](p.Processors, &hashHeaderProcessor{p}, "hashheader", 70)
	mustRegister[BlockProcessor](p.Processors, &setextHeaderProcessor{p}, "setextheader", 60)
	mustRegister[BlockProcessor](p.Processors, &hrProcessor{p}, "hr", 50)
	mustRegister[BlockProcessor](p.Processors, newListProcessor(p, "ol"), "olist", 40)
	mustRegister[BlockProcessor](p.Processors, newListProcessor(p, "ul"), "ulist", 30)
	mustRegister[BlockProcessor](p.Processors, &blockQuoteProcessor{p}, "quote", 20)
	mustRegister[BlockProcessor](p.Processors, &paragraphProcessor{p}, "paragraph", 10)
	return p
}

// Markdown returns the converter the parser belongs to.
func (p *BlockParser) Markdown() *Markdown {
	return p.md
}

// ParseDocument parses lines into a new tree
// rooted at a [DocumentTag] wrapper element.
func (p *BlockParser) ParseDocument(lines []string) *Element {
	root := NewElement(DocumentTag)
	p.state = p.state[:0]
	p.ParseChunk(root, strings.Join(lines, "\n"))
	return root
}

// ParseChunk parses a chunk of text as children of parent.
func (p *BlockParser) ParseChunk(parent *Element, text string) {
	p.ParseBlocks(parent, strings.Split(text, "\n\n"))
}

// ParseBlocks parses a sequence of blocks as children of parent.
// It panics with an [*InternalError] if no processor makes progress.
func (p *BlockParser) ParseBlocks(parent *Element, blocks []string) {
	q := newBlockQueue(blocks)
	processors := p.Processors.Items()
	for q.Len() > 0 {
		before, beforeLen := q.size, q.Len()
		handled := false
		for _, proc := range processors {
			if !proc.Test(parent, q.Peek()) {
				continue
			}
			if proc.Run(parent, q) {
				handled = true
				break
			}
		}
		if !handled {
			panic(internalErrorf("no block processor accepted %q", q.Peek()))
		}
		if q.size >= before && q.Len() >= beforeLen {
			panic(internalErrorf("block parser made no progress on %q", q.Peek()))
		}
	}
}

// SetState pushes a parser state.
func (p *BlockParser) SetState(s string) {
	p.state = append(p.state, s)
}

// ResetState pops the most recent parser state.
func (p *BlockParser) ResetState() {
	if len(p.state) > 0 {
		p.state = p.state[:len(p.state)-1]
	}
}

// IsState reports whether s is the current parser state.
func (p *BlockParser) IsState(s string) bool {
	return len(p.state) > 0 && p.state[len(p.state)-1] == s
}

// Detab removes one level of indentation from the leading indented lines of text.
// It returns the detabbed lines and the remaining text
// that starts with the first line that was not indented.
func (p *BlockParser) Detab(text string) (detabbed, rest string) {
	indent := strings.Repeat(" ", p.md.TabLength)
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, indent):
			out = append(out, line[len(indent):])
		case strings.TrimSpace(line) == "":
			out = append(out, "")
		default:
			return strings.Join(out, "\n"), strings.Join(lines[len(out):], "\n")
		}
	}
	return strings.Join(out, "\n"), ""
}

// looseDetab removes level indentations from every line that has them.
func (p *BlockParser) looseDetab(text string, level int) string {
	indent := strings.Repeat(" ", p.md.TabLength*level)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.Join(lines, "\n")
}

func isCodeBlock(el *Element) (*Element, bool) {
	if el == nil || el.Name != "pre" || len(el.Children) == 0 {
		return nil, false
	}
	code, ok := el.Children[0].(*Element)
	if !ok || code.Name != "code" {
		return nil, false
	}
	return code, true
}

func codeText(code *Element) string {
	s, _ := leadingText(code)
	return s
}

// emptyBlockProcessor handles blank blocks.
// A blank line after a code block is kept in the code.
type emptyBlockProcessor struct {
	parser *BlockParser
}

func (p *emptyBlockProcessor) Test(parent *Element, block string) bool {
	return block == "" || strings.HasPrefix(block, "\n")
}

func (p *emptyBlockProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	filler := "\n\n"
	if block != "" {
		filler = "\n"
		if rest := block[1:]; rest != "" {
			blocks.Push(rest)
		}
	}
	if code, ok := isCodeBlock(parent.LastElement()); ok {
		code.Children = []Node{Text{Data: codeText(code) + filler, Atomic: true}}
	}
	return true
}

// listIndentProcessor handles indented blocks that continue a list item.
type listIndentProcessor struct {
	parser *BlockParser
}

func isListTag(name string) bool { return name == "ul" || name == "ol" }

func (p *listIndentProcessor) Test(parent *Element, block string) bool {
	if !strings.HasPrefix(block, strings.Repeat(" ", p.parser.md.TabLength)) ||
		p.parser.IsState(stateDetabbed) {
		return false
	}
	if parent.Name == "li" {
		return true
	}
	last := parent.LastElement()
	return last != nil && isListTag(last.Name)
}

func (p *listIndentProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	level, sibling := p.level(parent, block)
	block = p.parser.looseDetab(block, level)

	p.parser.SetState(stateDetabbed)
	defer p.parser.ResetState()
	switch {
	case parent.Name == "li":
		// A nested list parsed earlier is the real parent.
		if last := parent.LastElement(); last != nil && isListTag(last.Name) {
			p.parser.ParseBlocks(last, []string{block})
		} else {
			p.parser.ParseBlocks(parent, []string{block})
		}
	case sibling.Name == "li":
		p.parser.ParseBlocks(sibling, []string{block})
	case sibling.LastElement() != nil && sibling.LastElement().Name == "li":
		li := sibling.LastElement()
		if text, end := leadingText(li); strings.TrimSpace(text) != "" {
			// The item's loose text moves into a paragraph.
			para := NewElement("p")
			para.AppendText(text)
			replaceRange(li, 0, end)
			li.Insert(0, para)
		}
		p.parser.ParseChunk(li, block)
	default:
		li := sibling.AppendElement("li")
		p.parser.ParseBlocks(li, []string{block})
	}
	return true
}

// level returns the nesting level of block's indentation
// and the element that should be its parent.
func (p *listIndentProcessor) level(parent *Element, block string) (int, *Element) {
	indentLevel := 0
	for strings.HasPrefix(block[indentLevel*p.parser.md.TabLength:], strings.Repeat(" ", p.parser.md.TabLength)) {
		indentLevel++
	}
	level := 0
	if p.parser.IsState(stateList) {
		// Tight list: the parent is already right.
		level = 1
	}
	for indentLevel > level {
		child := parent.LastElement()
		if child == nil || !(isListTag(child.Name) || child.Name == "li") {
			break
		}
		if isListTag(child.Name) {
			level++
		}
		parent = child
	}
	return level, parent
}

// codeBlockProcessor handles indented code blocks.
type codeBlockProcessor struct {
	parser *BlockParser
}

func (p *codeBlockProcessor) Test(parent *Element, block string) bool {
	return strings.HasPrefix(block, strings.Repeat(" ", p.parser.md.TabLength))
}

func (p *codeBlockProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	code, rest := p.parser.Detab(block)
	code = strings.TrimRight(code, " \t\n")
	if c, ok := isCodeBlock(parent.LastElement()); ok {
		// Blank lines do not end a code block.
		c.Children = []Node{Text{Data: codeText(c) + "\n" + code + "\n", Atomic: true}}
	} else {
		pre := parent.AppendElement("pre")
		pre.AppendElement("code").Append(Text{Data: code + "\n", Atomic: true})
	}
	if rest != "" {
		blocks.Push(rest)
	}
	return true
}

// hashHeaderProcessor handles "# Heading" lines.
type hashHeaderProcessor struct {
	parser *BlockParser
}

var hashHeaderRE = regexp.MustCompile(`(?:^|\n)(#{1,6})((?:\\.|[^\\])*?)#*(?:\n|$)`)

func (p *hashHeaderProcessor) Test(parent *Element, block string) bool {
	return hashHeaderRE.MatchString(block)
}

func (p *hashHeaderProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	m := hashHeaderRE.FindStringSubmatchIndex(block)
	if m == nil {
		blocks.Push(block)
		return false
	}
	if before := block[:m[0]]; before != "" {
		p.parser.ParseBlocks(parent, []string{before})
	}
	h := parent.AppendElement(fmt.Sprintf("h%d", m[3]-m[2]))
	h.AppendText(strings.TrimSpace(block[m[4]:m[5]]))
	if after := block[m[1]:]; after != "" {
		blocks.Push(after)
	}
	return true
}

// setextHeaderProcessor handles headings underlined with "=" or "-".
type setextHeaderProcessor struct {
	parser *BlockParser
}

var setextHeaderRE = regexp.MustCompile(`\A.*\n[=-]+ *(?:\n|\z)`)

func (p *setextHeaderProcessor) Test(parent *Element, block string) bool {
	return setextHeaderRE.MatchString(block)
}

func (p *setextHeaderProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	lines := strings.Split(blocks.Pop(), "\n")
	name := "h2"
	if strings.HasPrefix(lines[1], "=") {
		name = "h1"
	}
	parent.AppendElement(name).AppendText(strings.TrimSpace(lines[0]))
	if len(lines) > 2 {
		blocks.Push(strings.Join(lines[2:], "\n"))
	}
	return true
}

// hrProcessor handles thematic breaks.
type hrProcessor struct {
	parser *BlockParser
}

var hrRE = regexp.MustCompile(`(?m)^ {0,3}(?:(?:-+ {0,2}){3,}|(?:_+ {0,2}){3,}|(?:\*+ {0,2}){3,}) *$`)

func (p *hrProcessor) Test(parent *Element, block string) bool {
	return hrRE.MatchString(block)
}

func (p *hrProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	m := hrRE.FindStringIndex(block)
	if pre := strings.TrimRight(block[:m[0]], "\n"); pre != "" {
		p.parser.ParseBlocks(parent, []string{pre})
	}
	parent.AppendElement("hr")
	if post := strings.TrimLeft(block[m[1]:], "\n"); post != "" {
		blocks.Push(post)
	}
	return true
}

// listProcessor handles ordered ("1.") and unordered ("*", "+", "-") lists.
type listProcessor struct {
	parser   *BlockParser
	tag      string
	re       *regexp.Regexp
	childRE  *regexp.Regexp
	indentRE *regexp.Regexp
}

func newListProcessor(p *BlockParser, tag string) *listProcessor {
	n := p.md.TabLength
	marker := `\d+\.`
	if tag == "ul" {
		marker = `[*+-]`
	}
	return &listProcessor{
		parser:   p,
		tag:      tag,
		re:       regexp.MustCompile(fmt.Sprintf(`^ {0,%d}%s +(.*)`, n-1, marker)),
		childRE:  regexp.MustCompile(fmt.Sprintf(`^ {0,%d}(?:\d+\.|[*+-]) +(.*)`, n-1)),
		indentRE: regexp.MustCompile(fmt.Sprintf(`^ {%d,%d}(?:\d+\.|[*+-]) +.*`, n, n*2-1)),
	}
}

func (p *listProcessor) Test(parent *Element, block string) bool {
	return p.re.MatchString(block)
}

func (p *listProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	items := p.items(blocks.Pop())
	var list *Element
	if sibling := parent.LastElement(); sibling != nil && isListTag(sibling.Name) {
		// Continuing a loose list.
		list = sibling
		last := list.LastElement()
		if last == nil {
			last = list.AppendElement("li")
		}
		if text, end := leadingText(last); strings.TrimSpace(text) != "" {
			para := NewElement("p")
			para.AppendText(text)
			replaceRange(last, 0, end)
			last.Insert(0, para)
		}
		// Text trailing the item's last child also moves into a paragraph.
		for i := len(last.Children) - 1; i >= 0; i-- {
			if _, ok := last.Children[i].(*Element); !ok {
				continue
			}
			if tail, end := tailText(last, i); strings.TrimSpace(tail) != "" {
				para := NewElement("p")
				para.AppendText(strings.TrimLeft(tail, " \t\n"))
				replaceRange(last, i+1, end, para)
			}
			break
		}
		li := list.AppendElement("li")
		p.parser.SetState(stateLooseList)
		p.parser.ParseBlocks(li, items[:1])
		p.parser.ResetState()
		items = items[1:]
	} else if isListTag(parent.Name) {
		// A multi-item list nested in an otherwise empty item.
		list = parent
	} else {
		list = parent.AppendElement(p.tag)
	}

	p.parser.SetState(stateList)
	defer p.parser.ResetState()
	indent := strings.Repeat(" ", p.parser.md.TabLength)
	for _, item := range items {
		if strings.HasPrefix(item, indent) {
			if last := list.LastElement(); last != nil {
				p.parser.ParseBlocks(last, []string{item})
				continue
			}
		}
		li := list.AppendElement("li")
		p.parser.ParseBlocks(li, []string{item})
	}
	return true
}

// items splits a block into its list items.
func (p *listProcessor) items(block string) []string {
	indent := strings.Repeat(" ", p.parser.md.TabLength)
	var items []string
	for _, line := range strings.Split(block, "\n") {
		switch m := p.childRE.FindStringSubmatch(line); {
		case m != nil:
			items = append(items, m[1])
		case p.indentRE.MatchString(line) && len(items) > 0 && !strings.HasPrefix(items[len(items)-1], indent):
			// A nested list item starts its own block.
			items = append(items, line)
		case len(items) > 0:
			items[len(items)-1] += "\n" + line
		default:
			items = append(items, line)
		}
	}
	return items
}

// blockQuoteProcessor handles "> " quoted blocks.
type blockQuoteProcessor struct {
	parser *BlockParser
}

var blockQuoteRE = regexp.MustCompile(`(?:^|\n) {0,3}> ?(.*)`)

func (p *blockQuoteProcessor) Test(parent *Element, block string) bool {
	return blockQuoteRE.MatchString(block)
}

func (p *blockQuoteProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	if m := blockQuoteRE.FindStringIndex(block); m != nil {
		// Lines before the quote are parsed first.
		p.parser.ParseBlocks(parent, []string{block[:m[0]]})
		lines := strings.Split(block[m[0]:], "\n")
		for i, line := range lines {
			lines[i] = cleanQuoteLine(line)
		}
		block = strings.Join(lines, "\n")
	}
	quote := parent.LastElement()
	if quote == nil || quote.Name != "blockquote" {
		quote = parent.AppendElement("blockquote")
	}
	p.parser.SetState(stateBlockquote)
	p.parser.ParseChunk(quote, block)
	p.parser.ResetState()
	return true
}

var quoteLineRE = regexp.MustCompile(`^ {0,3}> ?(.*)`)

func cleanQuoteLine(line string) string {
	if strings.TrimSpace(line) == ">" {
		return ""
	}
	if m := quoteLineRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return line
}

// paragraphProcessor turns any remaining block into a paragraph.
// It accepts every block, so parsing always makes progress.
type paragraphProcessor struct {
	parser *BlockParser
}

func (p *paragraphProcessor) Test(parent *Element, block string) bool {
	return true
}

func (p *paragraphProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	if strings.TrimSpace(block) == "" {
		return true
	}
	if !p.parser.IsState(stateList) {
		parent.AppendElement("p").AppendText(strings.TrimLeft(block, " \t\n"))
		return true
	}
	// Tight list item: text goes directly in the item.
	switch n := len(parent.Children); {
	case n == 0:
		parent.AppendText(strings.TrimLeft(block, " \t\n"))
	default:
		if t, ok := parent.Children[n-1].(Text); ok {
			parent.Children[n-1] = Text{Data: t.Data + "\n" + block}
		} else {
			parent.AppendText("\n" + block)
		}
	}
	return true
}
