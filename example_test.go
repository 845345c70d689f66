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

package markdown_test

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/extensions"
)

func Example() {
	html, err := markdown.Convert("Hello, **World**!", nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(html)
	// Output:
	// <p>Hello, <strong>World</strong>!</p>
}

func ExampleMarkdown_Convert() {
	md, err := markdown.New(nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(md.Convert("Hello, [World][]!\n\n[World]: https://www.example.com/"))

	// Definitions stay around until Reset.
	fmt.Println(md.Convert("[World]"))
	md.Reset()
	fmt.Println(md.Convert("[World]"))
	// Output:
	// <p>Hello, <a href="https://www.example.com/">World</a>!</p>
	// <p><a href="https://www.example.com/">World</a></p>
	// <p>[World]</p>
}

func ExampleMarkdown_ConvertFile() {
	md, err := markdown.New(&markdown.Options{OutputFormat: "html"})
	if err != nil {
		panic(err)
	}
	input := strings.NewReader("# Notes\n\n---\n")
	if err := md.ConvertFile(os.Stdout, input, "utf-8"); err != nil {
		panic(err)
	}
	// Output:
	// <h1>Notes</h1>
	// <hr>
}

func ExampleOptions_extensions() {
	html, err := markdown.Convert("Euler: $e^{i\\pi} + 1 = 0$", &markdown.Options{
		Extensions: []any{"mathjax"},
		Resolver:   extensions.Builtin(),
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(html)
	// Output:
	// <p>Euler: $e^{i\pi} + 1 = 0$</p>
}

func ExampleRegexpPattern() {
	md, err := markdown.New(nil)
	if err != nil {
		panic(err)
	}
	// Turn ==text== into <mark>text</mark>.
	mark := &markdown.RegexpPattern{
		Regexp: regexp.MustCompile(`==(.+?)==`),
		Handle: func(text string, loc []int) (markdown.Node, bool) {
			el := markdown.NewElement("mark")
			el.AppendText(text[loc[2]:loc[3]])
			return el, true
		},
	}
	if err := md.InlinePatterns.Register(mark, "mark", 55); err != nil {
		panic(err)
	}
	fmt.Println(md.Convert("Read ==*this*== first."))
	// Output:
	// <p>Read <mark><em>this</em></mark> first.</p>
}

func ExampleRegistry() {
	r := markdown.NewRegistry[string]()
	r.Register("paragraphs", "paragraph", 10)
	r.Register("headers", "header", 70)
	r.InsertBefore("paragraph", "quotes", "quote")
	fmt.Println(r.Names())
	// Output:
	// [header quote paragraph]
}
