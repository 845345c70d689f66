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

// Package mathjax passes TeX math through the converter untouched
// so that MathJax can typeset it in the browser.
//
// Text between single dollar signs is inline math
// and text between double dollar signs is display math.
// A dollar sign preceded by a backslash does not open math.
// Math is written to the output exactly as it appears in the source.
package mathjax

import (
	"regexp"

	"zombiezen.com/go/markdown"
)

// Name is the name the extension is registered under.
const Name = "mathjax"

var mathRE = regexp.MustCompile(`(?s)\$\$(.+?)\$\$|\$(.+?)\$`)

// Extension is the MathJax extension. It has no options.
type Extension struct {
	cfg *markdown.Config
}

// New returns a new MathJax extension.
func New() *Extension {
	return &Extension{cfg: markdown.NewConfig()}
}

// Factory creates the extension from a set of options.
// Any option is an error.
func Factory(options map[string]any) (markdown.Extension, error) {
	e := New()
	if err := e.cfg.SetAll(options); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns "mathjax".
func (*Extension) Name() string { return Name }

// Config returns the extension's (empty) option set.
func (e *Extension) Config() *markdown.Config { return e.cfg }

// Extend adds the math pattern ahead of backslash escapes.
func (e *Extension) Extend(md *markdown.Markdown) error {
	return md.InlinePatterns.InsertBefore("escape", &mathPattern{md}, Name)
}

// mathPattern stashes math verbatim.
// Its matches are opaque, so emphasis never reaches inside them.
type mathPattern struct {
	md *markdown.Markdown
}

func (p *mathPattern) Find(text string, from int) []int {
	for from < len(text) {
		loc := mathRE.FindStringIndex(text[from:])
		if loc == nil {
			return nil
		}
		start := from + loc[0]
		if start > 0 && text[start-1] == '\\' {
			from = start + 1
			continue
		}
		return []int{start, from + loc[1]}
	}
	return nil
}

func (p *mathPattern) Build(text string, loc []int) (markdown.Node, bool) {
	return markdown.Text{Data: p.md.Stash.Store(text[loc[0]:loc[1]]), Atomic: true}, true
}

func (*mathPattern) Opaque() bool { return true }
