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

package normhtml

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		html string
		want string
	}{
		{"<p>a  \t b</p>", "<p>a b</p>"},
		{"<p>a  \t\nb</p>", "<p>a b</p>"},
		{" <p>a  b</p>\n", "<p>a b</p>"},
		{"\n\t<p>\n\t\ta  b\t\t</p>\n\t", "<p>a b</p>"},
		{"<p><em>a</em> <strong>b</strong></p>", "<p><em>a</em> <strong>b</strong></p>"},
		{"<p>x<br />\ny</p>", "<p>x<br>y</p>"},
		{"<hr />\n<hr>", "<hr><hr>"},
		{`<a title="bar" HREF="foo">x</a>`, `<a href="foo" title="bar">x</a>`},
		{"&#97;&amp;&gt;&lt;&quot;", "a&amp;&gt;&lt;&quot;"},
		{"<pre><code>a  b\n\n c\n</code></pre>", "<pre><code>a  b\n\n c\n</code></pre>"},
		{"<ul>\n<li>a</li>\n<li>b</li>\n</ul>", "<ul><li>a</li><li>b</li></ul>"},
		{"<!-- x  y -->", "<!-- x  y -->"},
	}
	for _, test := range tests {
		if got := Normalize(test.html); got != test.want {
			t.Errorf("Normalize(%q) = %q; want %q", test.html, got, test.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("<p>a</p>\n<p>b</p>", "<p>a</p><p>b</p>") {
		t.Error("Equal reported a difference in block whitespace")
	}
	if Equal("<p>a</p>", "<p>b</p>") {
		t.Error("Equal ignored a difference in text")
	}
}
