// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0


// Package natsort orders host identifiers so that embedded runs of decimal
// digits compare as integers: "10.0.0.2" sorts before "10.0.0.10".
package natsort

import (
	"sort"

	natural "github.com/facette/natsort"
)

// Less reports whether a sorts before b in natural order. Identifiers that
// compare equal numerically, such as "web01" and "web1", fall back to byte
// order so the ordering stays total.
func Less(a, b string) bool {
	if a == b {
		return false
	}
	ab, ba := natural.Compare(a, b), natural.Compare(b, a)
	if ab != ba {
		return ab
	}
	return a < b
}

// Strings sorts s in place in natural order.
func Strings(s []string) {
	sort.SliceStable(s, func(i, j int) bool { return Less(s[i], s[j]) })
}

// Sorted returns a naturally sorted copy of s.
func Sorted(s []string) []string {
	out := append([]string(nil), s...)
	Strings(out)
	return out
}
