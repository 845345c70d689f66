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

// Package citations adds academic citations to Markdown.
//
// A citation is an @key inside square brackets, like "[see @knuth84]".
// A reference is defined on its own line, like
//
//	[@knuth84]: Donald Knuth. Literate Programming. 1984.
//
// and may continue on following lines indented by four spaces.
// Cited keys become links to a table of references
// that is appended to the end of the document.
//
// Keys without a definition are looked up in the BibTeX file
// named by the bibtex_file option, if any.
// A key found there is cited by its authors and year,
// like "Knuth 1984", and listed as a formatted reference.
package citations

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"zombiezen.com/go/markdown"
)

// Name is the name the extension is registered under.
const Name = "citations"

// Reference orders for the "order" option.
const (
	Unsorted     = "unsorted"
	Alphabetical = "alphabetical"
)

const key = `([\p{L}\p{N}_]+)`

var (
	bracketRE    = regexp.MustCompile(`\[([^\[]+)\]`)
	citeRE       = regexp.MustCompile(`@` + key)
	definitionRE = regexp.MustCompile(`^ {0,3}\[@` + key + `\]:\s*(.*)`)
	continuedRE  = regexp.MustCompile(`^ {4}(.*)`)
	figcaptionRE = regexp.MustCompile(`(?s)<figcaption([^>]*)>(.*?)</figcaption>`)
)

// Extension is the citations extension.
// It keeps the citations and references seen since the last reset.
type Extension struct {
	cfg *markdown.Config
	md  *markdown.Markdown

	cited        []string
	citedSet     map[string]struct{}
	references   map[string]string
	bibliography map[string]*bibEntry
}

// New returns a new citations extension with default options.
func New() *Extension {
	cfg := markdown.NewConfig()
	cfg.Define("bibtex_file", "", "BibTeX file path")
	cfg.Define("order", Unsorted, `Order of the references ("unsorted" or "alphabetical")`)
	return &Extension{
		cfg:        cfg,
		citedSet:   make(map[string]struct{}),
		references: make(map[string]string),
	}
}

// Factory creates the extension from a set of options.
func Factory(options map[string]any) (markdown.Extension, error) {
	e := New()
	if err := e.cfg.SetAll(options); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns "citations".
func (*Extension) Name() string { return Name }

// Config returns the extension's options.
func (e *Extension) Config() *markdown.Config { return e.cfg }

// Extend registers the extension's preprocessor, inline pattern, and tree pass.
func (e *Extension) Extend(md *markdown.Markdown) error {
	switch order := e.cfg.String("order"); order {
	case Unsorted, Alphabetical:
	default:
		return &markdown.ConfigError{
			Option: "order",
			Value:  order,
			Reason: fmt.Sprintf("must be %q or %q", Unsorted, Alphabetical),
		}
	}
	e.md = md
	if path := e.cfg.String("bibtex_file"); path != "" && e.bibliography == nil {
		bib, err := loadBibliography(path)
		if err != nil {
			md.Logger().Warn("Could not load bibliography", "file", path, "error", err)
		}
		e.bibliography = bib
	}
	if err := md.Preprocessors.Register(markdown.PreprocessorFunc(e.collect), Name, 25); err != nil {
		return err
	}
	cite := &markdown.RegexpPattern{Regexp: citeRE, Handle: e.link}
	if err := md.InlinePatterns.InsertBefore("reference", cite, Name); err != nil {
		return err
	}
	return md.TreeProcessors.Register(markdown.TreeProcessorFunc(e.appendReferences), Name, 26)
}

// Reset forgets the citations and references
// of the previous conversion.
// The bibliography stays loaded.
func (e *Extension) Reset() {
	e.cited = e.cited[:0]
	clear(e.citedSet)
	clear(e.references)
}

// Cited returns the cited keys in the order they will be listed.
func (e *Extension) Cited() []string {
	keys := slices.Clone(e.cited)
	if e.cfg.String("order") == Alphabetical {
		slices.Sort(keys)
	}
	return keys
}

func (e *Extension) cite(k string) {
	if _, ok := e.citedSet[k]; ok {
		return
	}
	e.citedSet[k] = struct{}{}
	e.cited = append(e.cited, k)
}

// collect removes reference definitions from lines
// and records the keys cited in brackets.
func (e *Extension) collect(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if m := definitionRE.FindStringSubmatch(lines[i]); m != nil {
			parts := []string{m[2]}
			for i++; i < len(lines); i++ {
				cont := continuedRE.FindStringSubmatch(lines[i])
				if cont == nil {
					break
				}
				parts = append(parts, cont[1])
			}
			e.references[m[1]] = strings.TrimSpace(strings.Join(parts, " "))
			continue
		}
		for _, bracket := range bracketRE.FindAllStringSubmatch(lines[i], -1) {
			for _, c := range citeRE.FindAllStringSubmatch(bracket[1], -1) {
				e.cite(c[1])
			}
		}
		out = append(out, lines[i])
		i++
	}
	return e.linkFigureCaptions(out)
}

// linkFigureCaptions turns citations inside raw <figcaption> elements
// into links, since raw HTML is not seen by the inline patterns.
func (e *Extension) linkFigureCaptions(lines []string) []string {
	text := strings.Join(lines, "\n")
	if !strings.Contains(text, "<figcaption") {
		return lines
	}
	text = figcaptionRE.ReplaceAllStringFunc(text, func(caption string) string {
		m := figcaptionRE.FindStringSubmatch(caption)
		content := citeRE.ReplaceAllStringFunc(m[2], func(c string) string {
			k := c[1:]
			return fmt.Sprintf(`<a class="citation" href="#%s" id="%s">%s</a>`,
				referenceID(k), citationID(k), html.EscapeString(e.label(k)))
		})
		return "<figcaption" + m[1] + ">" + content + "</figcaption> "
	})
	return strings.Split(text, "\n")
}

func (e *Extension) link(text string, loc []int) (markdown.Node, bool) {
	k := text[loc[2]:loc[3]]
	if _, ok := e.citedSet[k]; !ok {
		return nil, false
	}
	a := markdown.NewElement("a",
		markdown.Attr{Key: "id", Value: citationID(k)},
		markdown.Attr{Key: "href", Value: "#" + referenceID(k)},
		markdown.Attr{Key: "class", Value: "citation"},
	)
	a.Append(markdown.Text{Data: e.label(k), Atomic: true})
	return a, true
}

// label returns the link text for a cited key.
func (e *Extension) label(k string) string {
	if ent, ok := e.bibliography[k]; ok {
		if l := ent.citationLabel(); l != "" {
			return l
		}
	}
	return k
}

// appendReferences adds the reference table to the end of the document.
// Documents without citations are left alone.
func (e *Extension) appendReferences(root *markdown.Element) *markdown.Element {
	if len(e.cited) == 0 {
		return root
	}
	div := markdown.NewElement("div", markdown.Attr{Key: "class", Value: "references"})
	tbody := div.AppendElement("table").AppendElement("tbody")
	for _, k := range e.Cited() {
		tr := tbody.AppendElement("tr")
		tr.Set("id", referenceID(k))
		td := tr.AppendElement("td")
		if ref, ok := e.references[k]; ok {
			e.md.Parser.ParseChunk(td, ref)
		} else if ent, ok := e.bibliography[k]; ok {
			ent.appendReference(td)
		} else {
			td.AppendText("Missing citation")
		}
	}
	root.Append(div)
	return root
}

func citationID(k string) string { return "cite-" + k }
func referenceID(k string) string { return "ref-" + k }
