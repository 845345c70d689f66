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
	"maps"
	"strings"
)

// defaultBlockLevel is the set of tags that are never wrapped in a paragraph.
var defaultBlockLevel = map[string]struct{}{
	// HTML block-level elements.
	"address":    {},
	"article":    {},
	"aside":      {},
	"blockquote": {},
	"details":    {},
	"div":        {},
	"dl":         {},
	"fieldset":   {},
	"figcaption": {},
	"figure":     {},
	"footer":     {},
	"form":       {},
	"h1":         {},
	"h2":         {},
	"h3":         {},
	"h4":         {},
	"h5":         {},
	"h6":         {},
	"header":     {},
	"hgroup":     {},
	"hr":         {},
	"main":       {},
	"menu":       {},
	"nav":        {},
	"ol":         {},
	"p":          {},
	"pre":        {},
	"section":    {},
	"table":      {},
	"ul":         {},

	// Other elements treated as block-level.
	"canvas":   {},
	"colgroup": {},
	"dd":       {},
	"body":     {},
	"dt":       {},
	"group":    {},
	"iframe":   {},
	"li":       {},
	"legend":   {},
	"math":     {},
	"map":      {},
	"noscript": {},
	"output":   {},
	"object":   {},
	"option":   {},
	"progress": {},
	"script":   {},
	"style":    {},
	"tbody":    {},
	"td":       {},
	"textarea": {},
	"tfoot":    {},
	"th":       {},
	"thead":    {},
	"tr":       {},
	"video":    {},
}

// IsBlockLevel reports whether tag names a block-level element.
// The comparison is case-insensitive
// and ignores a trailing slash (as in "hr/").
func IsBlockLevel(tag string) bool {
	return isBlockLevelIn(defaultBlockLevel, tag)
}

// IsBlockLevelNode reports whether n is an element with a block-level name.
// It is always false for text, comments, and raw nodes.
func IsBlockLevelNode(n Node) bool {
	el, ok := n.(*Element)
	return ok && IsBlockLevel(el.Name)
}

func isBlockLevelIn(set map[string]struct{}, tag string) bool {
	_, ok := set[strings.TrimRight(strings.ToLower(tag), "/")]
	return ok
}

func cloneBlockLevel() map[string]struct{} {
	return maps.Clone(defaultBlockLevel)
}
