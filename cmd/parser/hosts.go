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


package parser

import "strings"

// ParseHosts expands comma separated host arguments. Order and duplicates
// are kept; an argument with no comma is passed through untouched.
func ParseHosts(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !strings.Contains(a, ",") {
			out = append(out, a)
			continue
		}
		for _, part := range strings.Split(a, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ValidOutputFormat reports whether format is accepted by the output flags.
func ValidOutputFormat(format string) bool {
	switch format {
	case "", "text", "table", "json", "yaml":
		return true
	}
	return false
}
