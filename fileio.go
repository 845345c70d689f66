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
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ConvertFile reads Markdown from r in the named character encoding,
// converts it, and writes the HTML to w in the same encoding.
// An empty encoding means UTF-8.
// A leading byte order mark is dropped.
// Characters that the encoding cannot represent
// are written as numeric character references.
func (md *Markdown) ConvertFile(w io.Writer, r io.Reader, encodingName string) error {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return err
	}
	source, err := io.ReadAll(enc.NewDecoder().Reader(r))
	if err != nil {
		return fmt.Errorf("markdown: read %s input: %w", encodingName, err)
	}
	html := md.Convert(strings.TrimPrefix(string(source), "\ufeff"))
	out, err := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).String(html)
	if err != nil {
		return fmt.Errorf("markdown: encode output as %s: %w", encodingName, err)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("markdown: write output: %w", err)
	}
	return nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, &ConfigError{Option: "encoding", Value: name, Reason: err.Error()}
	}
	return enc, nil
}
