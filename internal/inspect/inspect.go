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

package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/pool"
	"github.com/eminwux/sshpool/pkg/api"
	"go.yaml.in/yaml/v3"
)

const NoSessionsString = "no sessions in pool\n"

// Inspect reports the pool entry for each host, or for every pooled host
// in natural order when hosts is empty. It never mutates the pool.
func Inspect(p pool.SessionPool, hosts []string) ([]api.HostStatus, error) {
	if p == nil {
		return nil, errdefs.ErrNoPool
	}
	if len(hosts) == 0 {
		hosts = p.Hosts()
	}
	out := make([]api.HostStatus, 0, len(hosts))
	for _, h := range hosts {
		st := api.HostStatus{Host: h}
		if c, ok := p.Get(h); ok {
			connected := c.IsConnected()
			st.Present = true
			st.Connected = &connected
			st.State = c.State().String()
			st.User = c.User()
			st.Port = c.Port()
		}
		out = append(out, st)
	}
	return out, nil
}

func Print(w io.Writer, statuses []api.HostStatus, format string) error {
	switch format {
	case "", "table":
		return printTable(w, statuses)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	case "yaml":
		b, err := yaml.Marshal(statuses)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("%w: %q (use table|json|yaml)", errdefs.ErrInvalidOutputFormat, format)
	}
}

func printTable(w io.Writer, statuses []api.HostStatus) error {
	//nolint:mnd // tabwriter padding
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(statuses) == 0 {
		fmt.Fprint(tw, NoSessionsString)
		return tw.Flush()
	}
	fmt.Fprintln(tw, "HOST\tCONNECTED\tSTATE\tUSER\tPORT")
	for _, s := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Host, connectedCell(s), orDash(s.State), orDash(s.User), portCell(s))
	}
	return tw.Flush()
}

func connectedCell(s api.HostStatus) string {
	if s.Connected == nil {
		return "absent"
	}
	if *s.Connected {
		return "yes"
	}
	return "no"
}

func portCell(s api.HostStatus) string {
	if !s.Present {
		return "-"
	}
	return fmt.Sprintf("%d", s.Port)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
