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

package citations

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/nickng/bibtex"
	"zombiezen.com/go/markdown"
)

// bibtex.Parse keeps its parser state in package variables.
var parseMu sync.Mutex

var (
	authorSepRE   = regexp.MustCompile(`\s+and\s+`)
	braceStripper = strings.NewReplacer("{", "", "}", "")
)

// A bibEntry is a BibTeX entry reduced to what a reference shows.
type bibEntry struct {
	authors []person
	// fields is keyed by lowercased field name.
	fields map[string]string
}

type person struct {
	first  string
	middle string
	last   string
}

// loadBibliography reads the BibTeX file at path
// and returns its entries keyed by citation key.
func loadBibliography(path string) (map[string]*bibEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load bibliography: %w", err)
	}
	defer f.Close()
	parseMu.Lock()
	bib, err := bibtex.Parse(f)
	parseMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("load bibliography %s: %w", path, err)
	}
	entries := make(map[string]*bibEntry, len(bib.Entries))
	for _, ent := range bib.Entries {
		fields := make(map[string]string, len(ent.Fields))
		for k, v := range ent.Fields {
			if v != nil {
				fields[strings.ToLower(k)] = strings.TrimSpace(braceStripper.Replace(v.String()))
			}
		}
		entries[ent.CiteName] = &bibEntry{
			authors: parseAuthors(fields["author"]),
			fields:  fields,
		}
	}
	return entries, nil
}

// parseAuthors splits a BibTeX name list such as
// "Knuth, Donald E. and Leslie Lamport".
func parseAuthors(s string) []person {
	var people []person
	for _, name := range authorSepRE.Split(strings.TrimSpace(s), -1) {
		if p := parsePerson(name); p != (person{}) {
			people = append(people, p)
		}
	}
	return people
}

// parsePerson parses "Last, First Middle" or "First Middle Last".
func parsePerson(name string) person {
	if last, rest, ok := strings.Cut(name, ","); ok {
		p := person{last: strings.TrimSpace(last)}
		given := strings.Fields(rest)
		if len(given) > 0 {
			p.first = given[0]
		}
		if len(given) > 1 {
			p.middle = given[1]
		}
		return p
	}
	parts := strings.Fields(name)
	var p person
	switch n := len(parts); {
	case n == 0:
		return p
	case n > 2:
		p.middle = parts[1]
		fallthrough
	case n > 1:
		p.first = parts[0]
		fallthrough
	default:
		p.last = parts[n-1]
	}
	return p
}

func (p person) String() string {
	switch {
	case p.first != "" && p.last != "":
		s := p.first
		if p.middle != "" {
			s += " " + strings.TrimSuffix(p.middle, ".") + "."
		}
		return s + " " + p.last
	case p.last != "":
		return p.last
	default:
		return p.first
	}
}

// citationLabel returns the in-text form of a citation,
// such as "Knuth 1984", "Knuth and Lamport 1984", or "Knuth et al. 1984".
// It returns the empty string for an entry without authors.
func (ent *bibEntry) citationLabel() string {
	var names string
	switch len(ent.authors) {
	case 0:
		return ""
	case 1:
		names = ent.authors[0].last
	case 2:
		names = ent.authors[0].last + " and " + ent.authors[1].last
	default:
		names = ent.authors[0].last + " et al."
	}
	return strings.TrimSpace(names + " " + ent.fields["year"])
}

func formatAuthorList(authors []person) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0].String()
	}
	names := make([]string, len(authors)-1)
	for i, a := range authors[:len(authors)-1] {
		names[i] = a.String()
	}
	return strings.Join(names, ", ") + " and " + authors[len(authors)-1].String()
}

// appendReference adds the formatted reference to td:
//
//	Authors. Year. Title. <i>Journal</i> Volume, (Year)
func (ent *bibEntry) appendReference(td *markdown.Element) {
	year := ent.fields["year"]
	p := td.AppendElement("p")
	p.Append(markdown.Text{
		Data:   fmt.Sprintf("%s. %s. %s.", formatAuthorList(ent.authors), year, ent.fields["title"]),
		Atomic: true,
	})
	journal := ent.fields["journal"]
	if journal == "" {
		return
	}
	p.Append(markdown.Text{Data: " ", Atomic: true})
	p.AppendElement("i").Append(markdown.Text{Data: journal, Atomic: true})
	tail := ","
	if volume := ent.fields["volume"]; volume != "" {
		tail = " " + volume + ","
	}
	p.Append(markdown.Text{Data: tail + " (" + year + ")", Atomic: true})
}
