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

// markdown converts a Markdown file to HTML.
//
// Usage:
//
//	markdown [flags] [INPUTFILE]
//
// Without INPUTFILE, the Markdown is read from standard input.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/extensions"
)

// Exit codes.
const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

// maxConfigSize limits the size of an extension configuration file.
const maxConfigSize = 1 << 20

// errUsage marks errors caused by the command line or its configuration.
var errUsage = errors.New("usage error")

type options struct {
	input            string
	output           string
	encoding         string
	outputFormat     string
	extensions       []string
	extensionConfigs string
	logLevel         slog.Level
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns its exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitSuccess
	}
	if err != nil {
		fmt.Fprintf(stderr, "markdown: %v\n", err)
		return exitUsage
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: opts.logLevel}))
	if err := convert(opts, stdin, stdout, logger); err != nil {
		logger.Error("Conversion failed", "error", err)
		return exitCodeFor(err)
	}
	return exitSuccess
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := new(options)
	var quiet, verbose, noisy bool
	fset := flag.NewFlagSet("markdown", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.StringVarP(&opts.output, "file", "f", "", "Write output to `OUTPUT_FILE` (default stdout)")
	fset.StringVarP(&opts.encoding, "encoding", "e", "utf-8", "Encoding for input and output files")
	fset.StringVarP(&opts.outputFormat, "output_format", "o", "xhtml", `Output format: "xhtml" or "html"`)
	fset.StringArrayVarP(&opts.extensions, "extension", "x", nil, "Load extension `NAME` (may be repeated)")
	fset.StringVarP(&opts.extensionConfigs, "extension_configs", "c", "", "Read extension options from a YAML or JSON `CONFIG_FILE`")
	fset.BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	fset.BoolVarP(&verbose, "verbose", "v", false, "Log informational messages")
	fset.BoolVar(&noisy, "noisy", false, "Log debug messages")
	fset.Usage = func() {
		fmt.Fprintln(stderr, "Usage: markdown [flags] [INPUTFILE]")
		fmt.Fprintln(stderr, "\nWithout INPUTFILE, Markdown is read from stdin.")
		fmt.Fprintf(stderr, "Known extensions: %v\n", extensionNames())
		fmt.Fprintln(stderr, "\nFlags:")
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	switch fset.NArg() {
	case 0:
	case 1:
		opts.input = fset.Arg(0)
	default:
		fset.Usage()
		return nil, fmt.Errorf("at most one input file may be given")
	}
	switch {
	case noisy:
		opts.logLevel = slog.LevelDebug
	case verbose:
		opts.logLevel = slog.LevelInfo
	case quiet:
		opts.logLevel = slog.LevelError
	default:
		opts.logLevel = slog.LevelWarn
	}
	return opts, nil
}

func convert(opts *options, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	configs, err := readExtensionConfigs(opts.extensionConfigs)
	if err != nil {
		return err
	}
	exts := make([]any, 0, len(opts.extensions))
	for _, name := range opts.extensions {
		exts = append(exts, name)
	}
	md, err := markdown.New(&markdown.Options{
		Extensions:       exts,
		ExtensionConfigs: configs,
		OutputFormat:     opts.outputFormat,
		Resolver:         extensions.Builtin(),
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	in := stdin
	if opts.input == "" {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return fmt.Errorf("%w: no input file given and stdin is a terminal", errUsage)
		}
	} else {
		f, err := os.Open(opts.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	out := stdout
	var outFile *os.File
	if opts.output != "" {
		outFile, err = os.Create(opts.output)
		if err != nil {
			return err
		}
		out = outFile
	}
	logger.Info("Converting", "input", displayName(opts.input, "stdin"), "output", displayName(opts.output, "stdout"))
	err = md.ConvertFile(out, in, opts.encoding)
	if outFile != nil {
		if closeErr := outFile.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// readExtensionConfigs reads a file that maps extension names
// to option maps. JSON is accepted since it is a subset of YAML.
func readExtensionConfigs(path string) (map[string]map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read extension configs: %v", errUsage, err)
	}
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("%w: extension configs %s exceed %d bytes", errUsage, path, maxConfigSize)
	}
	var configs map[string]map[string]any
	if err := yaml.UnmarshalWithOptions(data, &configs, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: parse extension configs %s: %v", errUsage, path, err)
	}
	return configs, nil
}

// exitCodeFor maps an error to the command's exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	var configErr *markdown.ConfigError
	var loadErr *markdown.ExtensionLoadError
	if errors.Is(err, errUsage) || errors.As(err, &configErr) || errors.As(err, &loadErr) {
		return exitUsage
	}
	return exitFailure
}

func extensionNames() []string {
	names := make([]string, 0, len(extensions.Builtin()))
	for name := range extensions.Builtin() {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func displayName(path, def string) string {
	if path == "" {
		return def
	}
	return path
}
