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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		input    string
		want     string
	}{
		{name: "UTF8", encoding: "utf-8", input: "café", want: "<p>café</p>"},
		{name: "DefaultEncoding", encoding: "", input: "*a*", want: "<p><em>a</em></p>"},
		{name: "ByteOrderMark", encoding: "utf-8", input: "\ufeffhi", want: "<p>hi</p>"},
		{name: "Latin1", encoding: "iso-8859-1", input: "caf\xe9", want: "<p>caf\xe9</p>"},
		{name: "Windows1252", encoding: "windows-1252", input: "\x93q\x94", want: "<p>\x93q\x94</p>"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			md, err := New(nil)
			if err != nil {
				t.Fatal(err)
			}
			out := new(bytes.Buffer)
			if err := md.ConvertFile(out, strings.NewReader(test.input), test.encoding); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, out.String()); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertFileUnencodable(t *testing.T) {
	md, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	arrow := PostprocessorFunc(func(text string) string { return text + "→" })
	if err := md.Postprocessors.Register(arrow, "arrow", 1); err != nil {
		t.Fatal(err)
	}
	out := new(bytes.Buffer)
	if err := md.ConvertFile(out, strings.NewReader("x"), "latin1"); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "<p>x</p>\n&#8594;"; got != want {
		t.Errorf("output = %q; want %q", got, want)
	}
}

func TestConvertFileUnknownEncoding(t *testing.T) {
	md, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	err = md.ConvertFile(new(bytes.Buffer), strings.NewReader("x"), "klingon")
	var configErr *ConfigError
	if !errors.As(err, &configErr) || configErr.Option != "encoding" {
		t.Errorf("ConvertFile with unknown encoding = %v; want *ConfigError for \"encoding\"", err)
	}
}
