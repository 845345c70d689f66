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

// Package codehilite highlights code blocks with Chroma.
//
// The first line of an indented code block may name the language:
//
//	    :::python
//	    print("hi")
//
// A "#!" line does the same and also turns on line numbers
// unless the linenums option is set.
// A shebang with a path, like "#!/usr/bin/python", is kept as code.
//
// The extension also highlights fenced code blocks
// when the fenced_code extension is attached.
package codehilite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"zombiezen.com/go/markdown"
)

// Name is the name the extension is registered under.
const Name = "codehilite"

var headerRE = regexp.MustCompile(
	`^(?:::+|(#!))((?:/\w+)*[/ ])?([\w#.+-]*)\s*(?:hl_lines=(?:"(.*?)"|'(.*?)'))?`)

// Extension is the code highlighting extension.
type Extension struct {
	cfg *markdown.Config
	md  *markdown.Markdown
}

// New returns a new code highlighting extension with default options.
func New() *Extension {
	cfg := markdown.NewConfig()
	cfg.Define("linenums", nil, "Show line numbers (unset means only for shebang headers)")
	cfg.Define("guess_lang", true, "Guess the language of code without a header")
	cfg.Define("css_class", "codehilite", "Class of the wrapping div")
	cfg.Define("style", "pygments", "Chroma style to use")
	cfg.Define("noclasses", false, "Use inline styles instead of CSS classes")
	return &Extension{cfg: cfg}
}

// Factory creates the extension from a set of options.
func Factory(options map[string]any) (markdown.Extension, error) {
	e := New()
	if err := e.cfg.SetAll(options); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns "codehilite".
func (*Extension) Name() string { return Name }

// Config returns the extension's options.
func (e *Extension) Config() *markdown.Config { return e.cfg }

// Extend registers the highlighting tree pass.
// It runs before the inline pass.
func (e *Extension) Extend(md *markdown.Markdown) error {
	e.md = md
	return md.TreeProcessors.Register(markdown.TreeProcessorFunc(e.run), "hilite", 30)
}

func (e *Extension) run(root *markdown.Element) *markdown.Element {
	markdown.Walk(root, &markdown.WalkOptions{
		Pre: func(c *markdown.Cursor) bool {
			pre, ok := c.Node().(*markdown.Element)
			if !ok || pre.Name != "pre" || len(pre.Children) != 1 {
				return true
			}
			code, ok := pre.Children[0].(*markdown.Element)
			if !ok || code.Name != "code" || !textOnly(code) {
				return true
			}
			src, lang, linenums, hlLines := e.parseHeader(code.TextContent())
			out, ok := e.highlight(src, lang, linenums, hlLines)
			if !ok {
				return false
			}
			// The placeholder paragraph is replaced by the stashed markup.
			pre.Name = "p"
			pre.Attrs = nil
			pre.Children = []markdown.Node{markdown.Text{Data: e.md.Stash.Store(out), Atomic: true}}
			return false
		},
	})
	return root
}

func textOnly(el *markdown.Element) bool {
	for _, c := range el.Children {
		if _, ok := c.(markdown.Text); !ok {
			return false
		}
	}
	return len(el.Children) > 0
}

// parseHeader strips a language header from the first line of code.
func (e *Extension) parseHeader(code string) (src, lang string, linenums bool, hlLines []int) {
	linenums, linenumsSet := e.cfg.OptionalBool("linenums")
	first, rest, _ := strings.Cut(code, "\n")
	m := headerRE.FindStringSubmatch(first)
	if m == nil {
		return strings.Trim(code, "\n"), "", linenums, nil
	}
	lang = strings.ToLower(m[3])
	if m[2] != "" {
		rest = code
	}
	if !linenumsSet && m[1] != "" {
		linenums = true
	}
	for _, f := range strings.Fields(m[4] + m[5]) {
		n, err := strconv.Atoi(f)
		if err != nil {
			hlLines = nil
			break
		}
		hlLines = append(hlLines, n)
	}
	return strings.Trim(rest, "\n"), lang, linenums, hlLines
}

// Highlight renders code as highlighted HTML.
// It lets fenced code blocks share this extension's options.
func (e *Extension) Highlight(code, lang string, hlLines []int) (string, bool) {
	linenums, _ := e.cfg.OptionalBool("linenums")
	return e.highlight(strings.Trim(code, "\n"), strings.ToLower(lang), linenums, hlLines)
}

func (e *Extension) highlight(code, lang string, linenums bool, hlLines []int) (string, bool) {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil && e.cfg.Bool("guess_lang") {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	opts := []chromahtml.Option{
		chromahtml.WithClasses(!e.cfg.Bool("noclasses")),
		chromahtml.WithLineNumbers(linenums),
		chromahtml.TabWidth(e.md.TabLength),
	}
	if len(hlLines) > 0 {
		ranges := make([][2]int, 0, len(hlLines))
		for _, n := range hlLines {
			ranges = append(ranges, [2]int{n, n})
		}
		opts = append(opts, chromahtml.HighlightLines(ranges))
	}

	tokens, err := lexer.Tokenise(nil, code+"\n")
	if err != nil {
		e.md.Logger().Warn("Could not tokenize code block", "lang", lang, "error", err)
		return "", false
	}
	sb := new(strings.Builder)
	fmt.Fprintf(sb, `<div class="%s">`, html.EscapeString(e.cfg.String("css_class")))
	if err := chromahtml.New(opts...).Format(sb, e.style(), tokens); err != nil {
		e.md.Logger().Warn("Could not highlight code block", "lang", lang, "error", err)
		return "", false
	}
	sb.WriteString("</div>")
	return sb.String(), true
}

func (e *Extension) style() *chroma.Style {
	name := e.cfg.String("style")
	if name == "default" {
		name = "pygments"
	}
	return styles.Get(name)
}
