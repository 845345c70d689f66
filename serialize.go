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
	"io"
	"sort"
	"strings"

	"go4.org/bytereplacer"
	"golang.org/x/net/html/atom"
)

// OutputFormat selects the HTML dialect the serializer writes.
type OutputFormat int

// Output formats.
const (
	// XHTML closes empty elements with " />".
	XHTML OutputFormat = 1 + iota
	// HTML writes empty elements without a closing slash.
	HTML
)

var outputFormats = map[string]OutputFormat{
	"html":  HTML,
	"xhtml": XHTML,
}

// String returns the format's name.
func (f OutputFormat) String() string {
	switch f {
	case HTML:
		return "html"
	case XHTML:
		return "xhtml"
	default:
		return fmt.Sprintf("OutputFormat(%d)", int(f))
	}
}

// ParseOutputFormat converts a format name to an [OutputFormat].
// The name is lowercased and any trailing version digits are removed,
// so "HTML5" and "xhtml1" are accepted.
// An unknown name yields a [*ConfigError] listing the valid names.
func ParseOutputFormat(name string) (OutputFormat, error) {
	key := strings.TrimRight(strings.ToLower(name), "0123456789")
	if f, ok := outputFormats[key]; ok {
		return f, nil
	}
	valid := make([]string, 0, len(outputFormats))
	for k := range outputFormats {
		valid = append(valid, fmt.Sprintf("%q", k))
	}
	sort.Strings(valid)
	return 0, &ConfigError{
		Option: "output_format",
		Value:  name,
		Reason: fmt.Sprintf("invalid output format %q; use one of %s", name, strings.Join(valid, ", ")),
	}
}

var voidElements = map[atom.Atom]struct{}{
	atom.Area:     {},
	atom.Base:     {},
	atom.Basefont: {},
	atom.Br:       {},
	atom.Col:      {},
	atom.Frame:    {},
	atom.Hr:       {},
	atom.Img:      {},
	atom.Input:    {},
	atom.Isindex:  {},
	atom.Link:     {},
	atom.Meta:     {},
	atom.Param:    {},
}

func isVoidElement(name string) bool {
	a := atom.Lookup([]byte(strings.ToLower(name)))
	_, ok := voidElements[a]
	return a != 0 && ok
}

var (
	textEscaper = bytereplacer.New(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	xhtmlAttrEscaper = bytereplacer.New(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\n", "&#10;",
	)
	htmlAttrEscaper = bytereplacer.New(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
)

// RenderHTML writes the given nodes to w in the given dialect.
// Placeholders in text and attributes are written unchanged.
func RenderHTML(w io.Writer, nodes []Node, format OutputFormat) error {
	var buf []byte
	for _, n := range nodes {
		buf = AppendHTML(buf, n, format)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("render markdown to html: %w", err)
	}
	return nil
}

// AppendHTML appends the serialized form of n to dst
// and returns the resulting byte slice.
// AppendHTML panics with an [*InternalError] if the tree is malformed.
func AppendHTML(dst []byte, n Node, format OutputFormat) []byte {
	state := &renderState{
		dst:    dst,
		format: format,
	}
	state.node(n, false)
	return state.dst
}

type renderState struct {
	dst    []byte
	format OutputFormat
}

func (r *renderState) node(n Node, rawText bool) {
	switch n := n.(type) {
	case *Element:
		r.element(n)
	case Text:
		if rawText {
			r.dst = append(r.dst, n.Data...)
		} else {
			r.dst = append(r.dst, textEscaper.Replace([]byte(n.Data))...)
		}
	case Comment:
		r.dst = append(r.dst, "<!--"...)
		r.dst = append(r.dst, textEscaper.Replace([]byte(n.Data))...)
		r.dst = append(r.dst, "-->"...)
	case Raw:
		r.dst = append(r.dst, n.Data...)
	case nil:
		panic(internalErrorf("serialize nil node"))
	default:
		panic(internalErrorf("serialize unknown node type %T", n))
	}
}

func (r *renderState) element(el *Element) {
	if el == nil {
		panic(internalErrorf("serialize nil element"))
	}
	if el.Name == "" {
		panic(internalErrorf("serialize element with empty name"))
	}
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, el.Name...)
	for _, attr := range el.Attrs {
		r.attr(attr)
	}
	if len(el.Children) == 0 && isVoidElement(el.Name) {
		if r.format == HTML {
			r.dst = append(r.dst, '>')
		} else {
			r.dst = append(r.dst, " />"...)
		}
		return
	}
	r.dst = append(r.dst, '>')
	a := atom.Lookup([]byte(strings.ToLower(el.Name)))
	rawText := a == atom.Script || a == atom.Style
	for _, c := range el.Children {
		r.node(c, rawText)
	}
	r.dst = append(r.dst, "</"...)
	r.dst = append(r.dst, el.Name...)
	r.dst = append(r.dst, '>')
}

func (r *renderState) attr(attr Attr) {
	if attr.Key == "" {
		panic(internalErrorf("serialize attribute with empty name"))
	}
	r.dst = append(r.dst, ' ')
	if r.format == HTML && attr.Key == attr.Value {
		// Boolean attribute in minimized form.
		r.dst = append(r.dst, attr.Key...)
		return
	}
	r.dst = append(r.dst, attr.Key...)
	r.dst = append(r.dst, `="`...)
	if r.format == HTML {
		r.dst = append(r.dst, htmlAttrEscaper.Replace([]byte(attr.Value))...)
	} else {
		r.dst = append(r.dst, xhtmlAttrEscaper.Replace([]byte(attr.Value))...)
	}
	r.dst = append(r.dst, '"')
}
