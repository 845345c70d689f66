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

package mathjax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/markdown"
)

func TestMath(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "Inline", source: "where $x_1 < x_2$ holds", want: "<p>where $x_1 < x_2$ holds</p>"},
		{name: "Display", source: "$$\\sum_{i} *a*_i$$", want: "<p>$$\\sum_{i} *a*_i$$</p>"},
		{name: "EscapedDollar", source: `costs \$5 or $6`, want: `<p>costs \$5 or $6</p>`},
		{name: "InsideCode", source: "`$x$` and $y$", want: "<p><code>$x$</code> and $y$</p>"},
		{name: "InsideEmphasis", source: "*a $b*c$ d*", want: "<p><em>a $b*c$ d</em></p>"},
		{name: "Unclosed", source: "just $ one", want: "<p>just $ one</p>"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			md, err := markdown.New(&markdown.Options{Extensions: []any{New()}})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, md.Convert(test.source)); diff != "" {
				t.Errorf("Convert(%q) (-want +got):\n%s", test.source, diff)
			}
		})
	}
}

func TestFactoryRejectsOptions(t *testing.T) {
	if _, err := Factory(map[string]any{"inline": true}); err == nil {
		t.Error("Factory with an option did not return an error")
	}
	if _, err := Factory(nil); err != nil {
		t.Errorf("Factory(nil): %v", err)
	}
}
