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
	"fmt"

	"github.com/eminwux/sshpool/pkg/api"
	"github.com/fatih/color"
)

//nolint:gochecknoglobals // colour markers
var (
	okArrow   = color.GreenString("->")
	failArrow = color.RedString("=:")
	skipArrow = color.YellowString("!!")
)

func (d *Dispatcher) report(opts Options, r *api.CommandResult) {
	if opts.Quiet {
		return
	}
	d.progressMu.Lock()
	defer d.progressMu.Unlock()

	switch r.Kind {
	case api.ResultSuccess:
		fmt.Fprintf(d.Progress, "%s %s\n", okArrow, r.Host)
	case api.ResultExitStatus:
		fmt.Fprintf(d.Progress, "%s %s exit status %d\n", failArrow, r.Host, r.ExitStatus)
	default:
		fmt.Fprintf(d.Progress, "%s %s %s: %s\n", failArrow, r.Host, r.Kind, r.ErrorOutput)
	}
}

func (d *Dispatcher) skipped(opts Options, host, reason string) {
	if opts.Quiet {
		return
	}
	d.progressMu.Lock()
	defer d.progressMu.Unlock()
	fmt.Fprintf(d.Progress, "%s %s skipped: %s\n", skipArrow, host, reason)
}
