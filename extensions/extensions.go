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

// Package extensions provides the extensions that ship with the converter.
package extensions

import (
	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/extensions/citations"
	"zombiezen.com/go/markdown/extensions/codehilite"
	"zombiezen.com/go/markdown/extensions/fencedcode"
	"zombiezen.com/go/markdown/extensions/mathjax"
)

// Builtin returns a resolver for the bundled extensions
// keyed by their registration names.
func Builtin() markdown.Factories {
	return markdown.Factories{
		citations.Name:  citations.Factory,
		codehilite.Name: codehilite.Factory,
		fencedcode.Name: fencedcode.Factory,
		mathjax.Name:    mathjax.Factory,
	}
}
