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

import "strings"

// A TreeProcessor transforms the document tree.
// Run must return the resulting root:
// root itself if the tree was changed in place.
type TreeProcessor interface {
	Run(root *Element) *Element
}

// TreeProcessorFunc is a function that implements [TreeProcessor].
type TreeProcessorFunc func(root *Element) *Element

// Run returns f(root).
func (f TreeProcessorFunc) Run(root *Element) *Element {
	return f(root)
}

func buildTreeProcessors(md *Markdown) *Registry[TreeProcessor] {
	r := NewRegistry[TreeProcessor]()
	mustRegister[TreeProcessor](r, &inlineProcessor{md}, "inline", 20)
	mustRegister[TreeProcessor](r, &prettifyProcessor{md}, "prettify", 10)
	return r
}

// prettifyProcessor adds line breaks between block-level elements.
type prettifyProcessor struct {
	md *Markdown
}

func (p *prettifyProcessor) Run(root *Element) *Element {
	p.prettify(root)
	Walk(root, &WalkOptions{
		Pre: func(c *Cursor) bool {
			el, ok := c.Node().(*Element)
			if !ok {
				return false
			}
			for i := 0; i < len(el.Children); i++ {
				br, ok := el.Children[i].(*Element)
				if !ok || br.Name != "br" {
					continue
				}
				tail, end := tailText(el, i)
				if strings.TrimSpace(tail) == "" {
					tail = "\n"
				} else {
					tail = "\n" + tail
				}
				replaceRange(el, i+1, end, Text{Data: tail, Atomic: true})
			}
			if code, ok := isCodeBlock(el); ok && len(code.Children) > 0 {
				if text, end := leadingText(code); end == len(code.Children) {
					code.Children = []Node{Text{Data: strings.TrimRight(text, " \t\n") + "\n", Atomic: true}}
				}
			}
			return true
		},
	})
	return root
}

// prettify puts a newline after el and before its first block-level child.
func (p *prettifyProcessor) prettify(el *Element) {
	if !p.md.IsBlockLevel(el.Name) || el.Name == "code" || el.Name == "pre" {
		return
	}
	text, end := leadingText(el)
	if strings.TrimSpace(text) == "" && end < len(el.Children) && p.md.IsBlockLevelNode(el.Children[end]) {
		replaceRange(el, 0, end, Text{Data: "\n", Atomic: true})
	}
	for i := 0; i < len(el.Children); i++ {
		child, ok := el.Children[i].(*Element)
		if !ok || !p.md.IsBlockLevel(child.Name) {
			continue
		}
		p.prettify(child)
		if tail, end := tailText(el, i); strings.TrimSpace(tail) == "" {
			replaceRange(el, i+1, end, Text{Data: "\n", Atomic: true})
		}
	}
}
