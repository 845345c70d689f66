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

// Package markdown converts Markdown text to HTML
// through a pipeline of pluggable stages:
//
//  1. [Preprocessor] values rewrite the source lines.
//  2. A [BlockParser] builds a document tree from the lines.
//  3. [TreeProcessor] values transform the tree.
//     One of them runs the [InlinePattern] values over every text run.
//  4. The tree is serialized as HTML or XHTML.
//  5. [Postprocessor] values rewrite the serialized text.
//
// Each stage is a [Registry] ordered by priority,
// and an [Extension] changes the converter by editing those registries.
//
// Raw HTML is protected from the pipeline by a [Stash]:
// it is replaced with a placeholder early on
// and swapped back in by the raw_html postprocessor.
package markdown

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options is the set of parameters to [New].
// The zero value (or nil) is a valid set of options.
type Options struct {
	// Extensions is a list of extensions to attach.
	// Each item is either an [Extension] or a name
	// that Resolver maps to a [Factory].
	Extensions []any
	// ExtensionConfigs maps an extension name
	// to the option overrides for that extension.
	ExtensionConfigs map[string]map[string]any
	// OutputFormat is "html" or "xhtml" (the default).
	OutputFormat string
	// TabLength is the width of a tab stop. It defaults to 4.
	TabLength int
	// Resolver resolves extensions given by name.
	// If nil, naming an extension is an error.
	Resolver Resolver
	// Logger receives debug messages. If nil, nothing is logged.
	Logger *slog.Logger
}

// Markdown is a Markdown to HTML converter.
//
// The registries are set up by [New] and by extensions.
// They must not be changed while a conversion is in progress.
// A Markdown value must not be used by multiple goroutines at once.
type Markdown struct {
	Preprocessors  *Registry[Preprocessor]
	Parser         *BlockParser
	InlinePatterns *Registry[InlinePattern]
	TreeProcessors *Registry[TreeProcessor]
	Postprocessors *Registry[Postprocessor]

	// Stash holds the raw content of the current conversion.
	Stash *Stash
	// References holds the link reference definitions seen so far.
	References ReferenceMap

	// EscapedChars is the set of characters a backslash escapes.
	EscapedChars string
	// TabLength is the width of a tab stop.
	TabLength int

	blockLevel map[string]struct{}
	format     OutputFormat
	extensions []Extension
	resolver   Resolver
	logger     *slog.Logger
	lines      []string
}

// New returns a converter with the built-in stages
// and the extensions named in opts attached.
func New(opts *Options) (*Markdown, error) {
	if opts == nil {
		opts = new(Options)
	}
	md := &Markdown{
		Stash:        new(Stash),
		References:   make(ReferenceMap),
		EscapedChars: DefaultEscapedChars,
		TabLength:    opts.TabLength,
		blockLevel:   cloneBlockLevel(),
		format:       XHTML,
		resolver:     opts.Resolver,
		logger:       opts.Logger,
	}
	if md.TabLength <= 0 {
		md.TabLength = 4
	}
	if md.logger == nil {
		md.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	md.Preprocessors = buildPreprocessors(md)
	md.Parser = newBlockParser(md)
	md.InlinePatterns = buildInlinePatterns(md)
	md.TreeProcessors = buildTreeProcessors(md)
	md.Postprocessors = buildPostprocessors(md)
	if opts.OutputFormat != "" {
		if err := md.SetOutputFormat(opts.OutputFormat); err != nil {
			return nil, err
		}
	}
	if err := md.RegisterExtensions(opts.Extensions, opts.ExtensionConfigs); err != nil {
		return nil, err
	}
	return md, nil
}

// Convert converts source to HTML using a new converter
// configured with opts.
func Convert(source string, opts *Options) (string, error) {
	md, err := New(opts)
	if err != nil {
		return "", err
	}
	return md.Convert(source), nil
}

// RegisterExtensions attaches extensions to md.
// Each item must be an [Extension] or a string naming one.
// configs maps an extension's name to its option overrides.
// A named extension is created by the converter's [Resolver]
// with its overrides; an [Extension] value that is also [Configurable]
// has its overrides applied before it is attached.
func (md *Markdown) RegisterExtensions(items []any, configs map[string]map[string]any) error {
	for _, item := range items {
		var ext Extension
		switch item := item.(type) {
		case string:
			var err error
			ext, err = md.resolve(item, configs[item])
			if err != nil {
				return err
			}
		case Extension:
			if isNil(item) {
				return &ContractError{What: "register extension", Reason: "nil extension"}
			}
			ext = item
			if overrides := configs[ext.Name()]; len(overrides) > 0 {
				c, ok := ext.(Configurable)
				if !ok {
					return &ConfigError{Option: ext.Name(), Reason: "extension has no options"}
				}
				if err := c.Config().SetAll(overrides); err != nil {
					return err
				}
			}
		default:
			return &ContractError{
				What:   "register extension",
				Reason: fmt.Sprintf("%T is neither an extension nor an extension name", item),
			}
		}
		if err := ext.Extend(md); err != nil {
			return fmt.Errorf("markdown: attach extension %s: %w", ext.Name(), err)
		}
		md.extensions = append(md.extensions, ext)
		md.logger.Debug("Attached extension", "name", ext.Name())
	}
	return nil
}

func (md *Markdown) resolve(name string, overrides map[string]any) (Extension, error) {
	if md.resolver == nil {
		return nil, &ExtensionLoadError{Name: name, Err: fmt.Errorf("no resolver configured")}
	}
	factory, err := md.resolver.Resolve(name)
	if err != nil {
		return nil, &ExtensionLoadError{Name: name, Err: err}
	}
	if factory == nil {
		return nil, &ContractError{What: "resolve extension " + name, Reason: "resolver returned no factory"}
	}
	ext, err := factory(overrides)
	if err != nil {
		return nil, &ExtensionLoadError{Name: name, Err: err}
	}
	if isNil(ext) {
		return nil, &ContractError{What: "resolve extension " + name, Reason: "factory returned no extension"}
	}
	return ext, nil
}

// Extensions returns the attached extensions in the order they were attached.
func (md *Markdown) Extensions() []Extension {
	return append([]Extension(nil), md.extensions...)
}

// Logger returns the converter's logger.
func (md *Markdown) Logger() *slog.Logger {
	return md.logger
}

// SetOutputFormat selects the serializer dialect by name.
// See [ParseOutputFormat] for the accepted names.
func (md *Markdown) SetOutputFormat(name string) error {
	f, err := ParseOutputFormat(name)
	if err != nil {
		return err
	}
	md.format = f
	md.logger.Debug("Set output format", "format", f)
	return nil
}

// OutputFormat returns the serializer dialect in use.
func (md *Markdown) OutputFormat() OutputFormat {
	return md.format
}

// IsBlockLevel reports whether tag is a block-level element name for md.
// The comparison is case-insensitive and ignores a trailing slash.
func (md *Markdown) IsBlockLevel(tag string) bool {
	return isBlockLevelIn(md.blockLevel, tag)
}

// IsBlockLevelNode reports whether n is an element
// with a block-level name for md.
func (md *Markdown) IsBlockLevelNode(n Node) bool {
	el, ok := n.(*Element)
	return ok && md.IsBlockLevel(el.Name)
}

// AddBlockLevel adds tag names to md's set of block-level elements.
func (md *Markdown) AddBlockLevel(tags ...string) {
	for _, t := range tags {
		md.blockLevel[strings.ToLower(t)] = struct{}{}
	}
}

// Reset clears the state of the previous conversion:
// the stash, the reference definitions,
// and the state of every attached extension that implements [Resetter].
//
// Convert does not reset on its own.
// Reference definitions from one conversion stay visible to later ones
// until Reset is called.
func (md *Markdown) Reset() {
	md.Stash.Reset()
	clear(md.References)
	md.lines = nil
	for _, ext := range md.extensions {
		if r, ok := ext.(Resetter); ok {
			r.Reset()
			md.logger.Debug("Reset extension", "name", ext.Name())
		}
	}
}

// Lines returns the source lines of the conversion in progress
// as left by the preprocessors.
func (md *Markdown) Lines() []string {
	return md.lines
}

// Convert converts Markdown source to HTML.
// Input that is empty or only whitespace yields the empty string.
// Convert panics with an [*InternalError] if a stage breaks the tree.
func (md *Markdown) Convert(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}

	md.lines = strings.Split(source, "\n")
	for _, p := range md.Preprocessors.Items() {
		md.lines = p.Run(md.lines)
	}

	root := md.Parser.ParseDocument(md.lines)
	for _, tp := range md.TreeProcessors.Items() {
		root = tp.Run(root)
		if root == nil {
			panic(internalErrorf("tree processor %T returned a nil root", tp))
		}
	}

	var buf []byte
	for _, c := range root.Children {
		buf = AppendHTML(buf, c, md.format)
	}
	output := string(buf)

	for _, pp := range md.Postprocessors.Items() {
		output = pp.Run(output)
	}
	return strings.TrimSpace(output)
}
