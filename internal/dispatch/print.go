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

package dispatch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/pkg/api"
	"go.yaml.in/yaml/v3"
)

// PrintResults writes results as text (each line prefixed with its host),
// json or yaml.
func PrintResults(w io.Writer, results []api.CommandResult, format string) error {
	switch format {
	case "", "text":
		for _, r := range results {
			text := r.Output
			if r.Error && r.ErrorOutput != "" {
				text = r.ErrorOutput
			}
			if text == "" {
				continue
			}
			for _, line := range strings.Split(text, "\n") {
				fmt.Fprintf(w, "[%s] %s\n", r.Host, strings.TrimRight(line, "\r"))
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		b, err := yaml.Marshal(results)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("%w: %q (use text|json|yaml)", errdefs.ErrInvalidOutputFormat, format)
	}
}
