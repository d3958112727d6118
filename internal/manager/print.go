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


package manager

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/pkg/api"
	"go.yaml.in/yaml/v3"
)

// PrintOutcomes writes one line per outcome, or the whole batch as json or
// yaml.
func PrintOutcomes(w io.Writer, outcomes []api.HostOutcome, format string) error {
	switch format {
	case "", "text":
		for _, o := range outcomes {
			if o.Error != "" {
				fmt.Fprintf(w, "%s: %s: %s\n", o.Host, o.Action, o.Error)
				continue
			}
			fmt.Fprintf(w, "%s: %s\n", o.Host, o.Action)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	case "yaml":
		b, err := yaml.Marshal(outcomes)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("%w: %q (use text|json|yaml)", errdefs.ErrInvalidOutputFormat, format)
	}
}

// AllFailed is true when the batch is non-empty and no host succeeded.
func AllFailed(outcomes []api.HostOutcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if o.Action != api.ActionFailed {
			return false
		}
	}
	return true
}
