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

package pool

import (
	"fmt"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/prompt"
)

// ResolveTargets turns an explicit host list and the all flag into the
// ordered hosts to act on. Explicit hosts keep their order and duplicates.
// With all set the pool is snapshotted in natural order; when explicit
// hosts are given too, confirm must accept before they are discarded.
func ResolveTargets(p SessionPool, hosts []string, all bool, confirm prompt.Confirmer) ([]string, error) {
	if p == nil {
		return nil, errdefs.ErrNoPool
	}
	if !all {
		if len(hosts) == 0 {
			return nil, errdefs.ErrNoTargets
		}
		for _, h := range hosts {
			if h == "" {
				return nil, errdefs.ErrEmptyHost
			}
		}
		out := make([]string, len(hosts))
		copy(out, hosts)
		return out, nil
	}
	if len(hosts) > 0 {
		q := fmt.Sprintf("Both %d explicit host(s) and --all were given. Act on every pooled host instead?", len(hosts))
		if err := prompt.Confirm(confirm, q); err != nil {
			return nil, err
		}
	}
	return p.Hosts(), nil
}
