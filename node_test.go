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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestElementAttributes(t *testing.T) {
	el := NewElement("a", Attr{Key: "href", Value: "/"})
	el.Set("title", "T")
	el.Set("href", "/x")
	want := []Attr{{Key: "href", Value: "/x"}, {Key: "title", Value: "T"}}
	if diff := cmp.Diff(want, el.Attrs); diff != "" {
		t.Errorf("Attrs (-want +got):\n%s", diff)
	}
	if v, ok := el.Get("title"); !ok || v != "T" {
		t.Errorf("Get(%q) = %q, %t; want %q, true", "title", v, ok, "T")
	}
	if _, ok := el.Get("id"); ok {
		t.Errorf("Get(%q) found a missing attribute", "id")
	}
}

func TestElementAppendText(t *testing.T) {
	el := NewElement("p")
	el.AppendText("a")
	el.AppendText("b")
	el.Append(Text{Data: "c", Atomic: true})
	el.AppendText("d")
	el.AppendText("")
	want := []Node{Text{Data: "ab"}, Text{Data: "c", Atomic: true}, Text{Data: "d"}}
	if diff := cmp.Diff(want, el.Children); diff != "" {
		t.Errorf("Children (-want +got):\n%s", diff)
	}
	if got := el.TextContent(); got != "abcd" {
		t.Errorf("TextContent() = %q; want %q", got, "abcd")
	}
}

func TestElementStructure(t *testing.T) {
	root := NewElement(DocumentTag)
	ul := root.AppendElement("ul")
	root.AppendText("tail")
	li := ul.AppendElement("li")
	ul.Insert(0, Comment{Data: "first"})

	if got := root.LastElement(); got != ul {
		t.Errorf("LastElement() = %v; want the list", got)
	}
	if got := root.ChildCount(); got != 2 {
		t.Errorf("ChildCount() = %d; want 2", got)
	}
	if got := ul.Child(1); got != Node(li) {
		t.Errorf("ul.Child(1) = %v; want the item", got)
	}
	if NewElement("p").LastElement() != nil {
		t.Error("LastElement() of an empty element is not nil")
	}
}

func TestLeadingAndTailText(t *testing.T) {
	br := NewElement("br")
	el := &Element{
		Name:     "p",
		Children: []Node{Text{Data: "a"}, Text{Data: "b", Atomic: true}, br, Text{Data: "c"}, Text{Data: "d"}},
	}
	if text, end := leadingText(el); text != "ab" || end != 2 {
		t.Errorf("leadingText = %q, %d; want %q, 2", text, end, "ab")
	}
	if text, end := tailText(el, 2); text != "cd" || end != 5 {
		t.Errorf("tailText(2) = %q, %d; want %q, 5", text, end, "cd")
	}
	replaceRange(el, 3, 5, Text{Data: "x"})
	want := []Node{Text{Data: "a"}, Text{Data: "b", Atomic: true}, br, Text{Data: "x"}}
	if diff := cmp.Diff(want, el.Children); diff != "" {
		t.Errorf("after replaceRange (-want +got):\n%s", diff)
	}
}

func TestWalk(t *testing.T) {
	root := &Element{
		Name: DocumentTag,
		Children: []Node{
			&Element{Name: "p", Children: []Node{Text{Data: "a"}, &Element{Name: "em", Children: []Node{Text{Data: "b"}}}}},
			&Element{Name: "pre", Children: []Node{&Element{Name: "code", Children: []Node{Text{Data: "c"}}}}},
		},
	}
	var pre, post []string
	name := func(n Node) string {
		switch n := n.(type) {
		case *Element:
			return n.Name
		case Text:
			return "#" + n.Data
		}
		return "?"
	}
	Walk(root, &WalkOptions{
		Pre: func(c *Cursor) bool {
			pre = append(pre, name(c.Node()))
			el, ok := c.Node().(*Element)
			return !ok || el.Name != "pre"
		},
		Post: func(c *Cursor) bool {
			post = append(post, name(c.Node()))
			return true
		},
	})
	wantPre := []string{"div", "p", "#a", "em", "#b", "pre"}
	if diff := cmp.Diff(wantPre, pre); diff != "" {
		t.Errorf("pre-order (-want +got):\n%s", diff)
	}
	wantPost := []string{"#a", "#b", "em", "p", "div"}
	if diff := cmp.Diff(wantPost, post); diff != "" {
		t.Errorf("post-order (-want +got):\n%s", diff)
	}
}

func TestWalkCursor(t *testing.T) {
	em := NewElement("em")
	root := &Element{Name: "p", Children: []Node{Text{Data: "a"}, em}}
	Walk(root, &WalkOptions{
		Pre: func(c *Cursor) bool {
			if c.Node() == Node(em) {
				if c.Parent() != root || c.Index() != 1 {
					t.Errorf("cursor at em: parent = %v, index = %d; want root, 1", c.Parent(), c.Index())
				}
			}
			if c.Node() == Node(root) && c.Parent() != nil {
				t.Errorf("root cursor has parent %v", c.Parent())
			}
			return true
		},
	})
}

func TestWalkPreSeesReplacedChildren(t *testing.T) {
	root := &Element{Name: "p", Children: []Node{Text{Data: "old"}}}
	var seen []string
	Walk(root, &WalkOptions{
		Pre: func(c *Cursor) bool {
			switch n := c.Node().(type) {
			case *Element:
				n.Children = []Node{Text{Data: "new"}}
			case Text:
				seen = append(seen, n.Data)
			}
			return true
		},
	})
	if diff := cmp.Diff([]string{"new"}, seen); diff != "" {
		t.Errorf("visited text (-want +got):\n%s", diff)
	}
}
