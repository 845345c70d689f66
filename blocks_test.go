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
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBlockProcessors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "SetextH1", source: "Title\n=====", want: "<h1>Title</h1>"},
		{name: "SetextH2", source: "Sub\n---", want: "<h2>Sub</h2>"},
		{name: "ClosedHashHeader", source: "### H3 ###", want: "<h3>H3</h3>"},
		{name: "HeaderInsideParagraph", source: "before\n# H\nafter", want: "<p>before</p>\n<h1>H</h1>\n<p>after</p>"},
		{name: "HorizontalRuleStars", source: "***", want: "<hr />"},
		{name: "HorizontalRuleSpaced", source: "- - -", want: "<hr />"},
		{name: "HorizontalRuleUnderscores", source: "___", want: "<hr />"},
		{name: "BlockQuote", source: "> quote", want: "<blockquote>\n<p>quote</p>\n</blockquote>"},
		{name: "OrderedList", source: "1. one\n2. two", want: "<ol>\n<li>one</li>\n<li>two</li>\n</ol>"},
		{
			name:   "LooseList",
			source: "* a\n\n* b",
			want:   "<ul>\n<li>\n<p>a</p>\n</li>\n<li>\n<p>b</p>\n</li>\n</ul>",
		},
		{name: "CodeBlockBlankLine", source: "    a\n\n    b", want: "<pre><code>a\n\nb\n</code></pre>"},
		{name: "CodeBlockTab", source: "\tcode", want: "<pre><code>code\n</code></pre>"},
		{name: "CodeBlockEscapes", source: "    <b>", want: "<pre><code>&lt;b&gt;\n</code></pre>"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Convert(test.source, nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Convert(%q) (-want +got):\n%s", test.source, diff)
			}
		})
	}
}

func TestDetab(t *testing.T) {
	md, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		text         string
		wantDetabbed string
		wantRest     string
	}{
		{"    a\n\n    b\nc", "a\n\nb", "c"},
		{"    a\n    b", "a\nb", ""},
		{"a", "", "a"},
	}
	for _, test := range tests {
		detabbed, rest := md.Parser.Detab(test.text)
		if detabbed != test.wantDetabbed || rest != test.wantRest {
			t.Errorf("Detab(%q) = %q, %q; want %q, %q",
				test.text, detabbed, rest, test.wantDetabbed, test.wantRest)
		}
	}
}

func TestBlockQueue(t *testing.T) {
	q := newBlockQueue([]string{"a", "b"})
	if q.Len() != 2 || q.Peek() != "a" {
		t.Fatalf("new queue: Len() = %d, Peek() = %q; want 2, \"a\"", q.Len(), q.Peek())
	}
	if got := q.Pop(); got != "a" {
		t.Errorf("Pop() = %q; want \"a\"", got)
	}
	q.Push("c")
	var got []string
	for q.Len() > 0 {
		got = append(got, q.Pop())
	}
	if diff := cmp.Diff([]string{"c", "b"}, got); diff != "" {
		t.Errorf("remaining blocks (-want +got):\n%s", diff)
	}
	if q.size != 0 {
		t.Errorf("size = %d after draining; want 0", q.size)
	}
}

// asideProcessor turns blocks that start with "%%% " into asides.
type asideProcessor struct{}

func (asideProcessor) Test(parent *Element, block string) bool {
	return strings.HasPrefix(block, "%%% ")
}

func (asideProcessor) Run(parent *Element, blocks *BlockQueue) bool {
	block := blocks.Pop()
	parent.AppendElement("aside").AppendText(strings.TrimPrefix(block, "%%% "))
	return true
}

func TestCustomBlockProcessor(t *testing.T) {
	md, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := md.Parser.Processors.Register(asideProcessor{}, "aside", 75); err != nil {
		t.Fatal(err)
	}
	got := md.Convert("%%% *note*\n\ntext")
	want := "<aside><em>note</em></aside>\n<p>text</p>"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Convert (-want +got):\n%s", diff)
	}
}

// stuckProcessor claims every block without consuming it.
type stuckProcessor struct{}

func (stuckProcessor) Test(parent *Element, block string) bool { return true }
func (stuckProcessor) Run(parent *Element, q *BlockQueue) bool { return true }

func TestBlockParserNoProgressPanics(t *testing.T) {
	md, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := md.Parser.Processors.Register(stuckProcessor{}, "stuck", 1000); err != nil {
		t.Fatal(err)
	}
	defer func() {
		err, _ := recover().(error)
		var internalErr *InternalError
		if !errors.As(err, &internalErr) {
			t.Errorf("recovered %v; want *InternalError", err)
		}
	}()
	md.Convert("x")
}
