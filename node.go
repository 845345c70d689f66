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
	"slices"
	"strings"
)

// Node is a member of the document tree.
// It is one of [*Element], [Text], [Comment], or [Raw].
type Node interface {
	// ChildCount returns the number of children the node has.
	ChildCount() int
	// Child returns the i'th child of the node.
	Child(i int) Node

	isNode()
}

// DocumentTag is the name of the wrapper element
// that the block parser places at the root of every document.
// The wrapper itself is never serialized.
const DocumentTag = "div"

// An Element is a named tree node with attributes and children.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []Node
}

// Attr is a single element attribute.
type Attr struct {
	Key   string
	Value string
}

// NewElement returns a new element with the given name and attributes.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// ChildCount returns len(el.Children).
func (el *Element) ChildCount() int {
	return len(el.Children)
}

// Child returns el.Children[i].
func (el *Element) Child(i int) Node {
	return el.Children[i]
}

// Get returns the value of the attribute with the given key.
func (el *Element) Get(key string) (string, bool) {
	for _, a := range el.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Set sets an attribute's value.
// A new attribute is placed after all existing attributes;
// setting an existing attribute keeps its position.
func (el *Element) Set(key, value string) {
	for i := range el.Attrs {
		if el.Attrs[i].Key == key {
			el.Attrs[i].Value = value
			return
		}
	}
	el.Attrs = append(el.Attrs, Attr{Key: key, Value: value})
}

// Append adds nodes to the end of el's children.
func (el *Element) Append(children ...Node) {
	el.Children = append(el.Children, children...)
}

// AppendElement creates a new element with the given name,
// appends it to el, and returns it.
func (el *Element) AppendElement(name string) *Element {
	child := NewElement(name)
	el.Children = append(el.Children, child)
	return child
}

// AppendText appends an unprocessed text run to el.
// Adjacent unprocessed runs are merged.
func (el *Element) AppendText(s string) {
	if s == "" {
		return
	}
	if n := len(el.Children); n > 0 {
		if last, ok := el.Children[n-1].(Text); ok && !last.Atomic {
			el.Children[n-1] = Text{Data: last.Data + s}
			return
		}
	}
	el.Children = append(el.Children, Text{Data: s})
}

// Insert inserts nodes at index i of el's children.
func (el *Element) Insert(i int, children ...Node) {
	el.Children = slices.Insert(el.Children, i, children...)
}

// LastElement returns the last child of el that is an element,
// or nil if el has no element children.
func (el *Element) LastElement() *Element {
	for i := len(el.Children) - 1; i >= 0; i-- {
		if c, ok := el.Children[i].(*Element); ok {
			return c
		}
	}
	return nil
}

// TextContent returns the concatenation of all text inside el.
func (el *Element) TextContent() string {
	sb := new(strings.Builder)
	Walk(el, &WalkOptions{
		Pre: func(c *Cursor) bool {
			if t, ok := c.Node().(Text); ok {
				sb.WriteString(t.Data)
			}
			return true
		},
	})
	return sb.String()
}

func (*Element) isNode() {}

// Text is a run of character data.
// An atomic run is final:
// the inline pass will not look for markup inside it.
// Text values are never modified in place; they are replaced.
type Text struct {
	Data   string
	Atomic bool
}

// ChildCount returns 0.
func (Text) ChildCount() int { return 0 }

// Child panics.
func (Text) Child(i int) Node { panic("Child on Text") }

func (Text) isNode() {}

// Comment is an HTML comment.
type Comment struct {
	Data string
}

// ChildCount returns 0.
func (Comment) ChildCount() int { return 0 }

// Child panics.
func (Comment) Child(i int) Node { panic("Child on Comment") }

func (Comment) isNode() {}

// Raw is markup that is written to the output verbatim.
type Raw struct {
	Data string
}

// ChildCount returns 0.
func (Raw) ChildCount() int { return 0 }

// Child panics.
func (Raw) Child(i int) Node { panic("Child on Raw") }

func (Raw) isNode() {}

// leadingText returns the text that appears in el before its first element child
// and the index of that child (or len(el.Children)).
func leadingText(el *Element) (string, int) {
	sb := new(strings.Builder)
	for i, c := range el.Children {
		switch c := c.(type) {
		case Text:
			sb.WriteString(c.Data)
		case *Element:
			return sb.String(), i
		}
	}
	return sb.String(), len(el.Children)
}

// tailText returns the text that follows the child at index i
// up to the next element child, and the index just past that text.
func tailText(el *Element, i int) (string, int) {
	sb := new(strings.Builder)
	j := i + 1
	for ; j < len(el.Children); j++ {
		t, ok := el.Children[j].(Text)
		if !ok {
			break
		}
		sb.WriteString(t.Data)
	}
	return sb.String(), j
}

// replaceRange replaces el.Children[start:end] with the given nodes.
func replaceRange(el *Element, start, end int, nodes ...Node) {
	el.Children = slices.Replace(el.Children, start, end, nodes...)
}
