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

// Package normhtml normalizes HTML so that converter output can be compared
// without regard to insignificant differences:
// whitespace between blocks, attribute order,
// XHTML versus HTML void tags, and character reference spelling.
package normhtml

import (
	"bytes"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"go4.org/bytereplacer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var spaceRunRE = regexp.MustCompile(`\s+`)

var textEscaper = bytereplacer.New(
	"&", "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// Normalize returns a canonical form of an HTML fragment.
func Normalize(s string) string {
	n := &normalizer{tok: html.NewTokenizerFragment(strings.NewReader(s), "div")}
	return string(n.run())
}

// Equal reports whether two HTML fragments have the same normal form.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

type normalizer struct {
	tok      *html.Tokenizer
	out      []byte
	last     html.TokenType
	lastTag  atom.Atom
	preDepth int
}

func (n *normalizer) run() []byte {
	n.last = html.StartTagToken
	for {
		tt := n.tok.Next()
		switch tt {
		case html.ErrorToken:
			return bytes.TrimSpace(n.out)
		case html.TextToken:
			n.text(n.tok.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			n.startTag()
		case html.EndTagToken:
			n.endTag()
		case html.CommentToken:
			n.out = append(n.out, n.tok.Raw()...)
		}
		n.last = tt
		if tt == html.SelfClosingTagToken {
			n.last = html.EndTagToken
		}
	}
}

func (n *normalizer) text(data []byte) {
	afterTag := n.last == html.StartTagToken || n.last == html.EndTagToken
	if afterTag && n.lastTag == atom.Br {
		data = bytes.TrimLeft(data, "\n")
	}
	if n.preDepth == 0 {
		data = spaceRunRE.ReplaceAll(data, []byte(" "))
		if afterTag && isBlock(n.lastTag) {
			data = bytes.TrimLeftFunc(data, unicode.IsSpace)
		}
	}
	n.out = append(n.out, textEscaper.Replace(bytes.Clone(data))...)
}

func (n *normalizer) startTag() {
	name, hasAttr := n.tok.TagName()
	a := atom.Lookup(name)
	tag := string(name)
	if isBlock(a) && n.preDepth == 0 {
		n.out = bytes.TrimRightFunc(n.out, unicode.IsSpace)
	}
	if a == atom.Pre {
		n.preDepth++
	}
	n.out = append(n.out, '<')
	n.out = append(n.out, tag...)
	var attrs []html.Attribute
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = n.tok.TagAttr()
		attrs = append(attrs, html.Attribute{Key: string(k), Val: string(v)})
	}
	slices.SortFunc(attrs, func(a, b html.Attribute) int {
		return strings.Compare(a.Key, b.Key)
	})
	for _, attr := range attrs {
		n.out = append(n.out, ' ')
		n.out = append(n.out, attr.Key...)
		if attr.Val != "" {
			n.out = append(n.out, `="`...)
			n.out = append(n.out, html.EscapeString(attr.Val)...)
			n.out = append(n.out, '"')
		}
	}
	n.out = append(n.out, '>')
	n.lastTag = a
}

func (n *normalizer) endTag() {
	name, _ := n.tok.TagName()
	a := atom.Lookup(name)
	if a == atom.Pre && n.preDepth > 0 {
		n.preDepth--
	} else if isBlock(a) && n.preDepth == 0 {
		n.out = bytes.TrimRightFunc(n.out, unicode.IsSpace)
	}
	n.out = append(n.out, "</"...)
	n.out = append(n.out, name...)
	n.out = append(n.out, '>')
	n.lastTag = a
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Body,
		atom.Canvas, atom.Caption, atom.Col, atom.Colgroup, atom.Dd, atom.Details,
		atom.Div, atom.Dl, atom.Dt, atom.Fieldset, atom.Figcaption, atom.Figure,
		atom.Footer, atom.Form, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Hgroup, atom.Hr, atom.Iframe, atom.Li, atom.Main, atom.Map,
		atom.Nav, atom.Ol, atom.P, atom.Pre, atom.Script, atom.Section, atom.Style,
		atom.Table, atom.Tbody, atom.Td, atom.Tfoot, atom.Th, atom.Thead, atom.Tr,
		atom.Ul, atom.Video:
		return true
	}
	return false
}
