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
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/fanout"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/naming"
	"github.com/eminwux/sshpool/internal/pool"
	"github.com/eminwux/sshpool/internal/prompt"
	"github.com/eminwux/sshpool/pkg/api"
)

// Dispatcher runs one command across pooled hosts.
type Dispatcher struct {
	Pool     pool.SessionPool
	Logger   *slog.Logger
	Progress io.Writer

	progressMu sync.Mutex
}

type Targets struct {
	Hosts []string
	All   bool
}

type Options struct {
	Quiet   bool
	Timeout time.Duration
	// Parallel <= 1 runs hosts one after another.
	Parallel int
	Confirm  prompt.Confirmer
}

func New(p pool.SessionPool, logger *slog.Logger, progress io.Writer) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Dispatcher{Pool: p, Logger: logger, Progress: progress}
}

// Invoke runs command on every resolved host and returns one result per
// host that had a live session, in resolution order. A failing host never
// makes Invoke return an error; only structural problems do.
func (d *Dispatcher) Invoke(ctx context.Context, targets Targets, command string, opts Options) ([]api.CommandResult, error) {
	if d.Pool == nil {
		return nil, errdefs.ErrNoPool
	}
	if strings.TrimSpace(command) == "" {
		return nil, errdefs.ErrEmptyCommand
	}

	hosts, err := pool.ResolveTargets(d.Pool, targets.Hosts, targets.All, opts.Confirm)
	if err != nil {
		return nil, err
	}
	if len(hosts) == 0 {
		return []api.CommandResult{}, errdefs.ErrNoTargets
	}

	logger := d.Logger.With("batch", naming.RandomID(), "op", "invoke")
	logger.Debug("dispatching", "command", logging.SanitizeForLog(command), "targets", len(hosts), "parallel", opts.Parallel)

	slots := make([]*api.CommandResult, len(hosts))
	fanout.Each(ctx, len(hosts), opts.Parallel, func(ctx context.Context, i int) {
		slots[i] = d.invokeOne(ctx, logger, hosts[i], command, opts)
	})

	results := make([]api.CommandResult, 0, len(hosts))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

func (d *Dispatcher) invokeOne(
	ctx context.Context,
	logger *slog.Logger,
	host, command string,
	opts Options,
) *api.CommandResult {
	logger = logger.With("host", logging.SanitizeForLog(host))

	conn, ok := d.Pool.Get(host)
	if !ok {
		logger.Warn("no session for host, skipping")
		d.skipped(opts, host, "no session")
		return nil
	}
	if !conn.IsConnected() {
		logger.Warn("session not connected, skipping", "state", conn.State())
		d.skipped(opts, host, "not connected")
		return nil
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	out, err := conn.Run(runCtx, command)
	res := &api.CommandResult{
		Host:        host,
		Output:      TrimTerminators(out.Stdout),
		ErrorOutput: TrimTerminators(out.Stderr),
		ExitStatus:  out.ExitStatus,
		Kind:        api.ResultSuccess,
	}
	switch {
	case err != nil:
		res.Error = true
		res.Kind = api.ResultExecError
		if errors.Is(err, errdefs.ErrCommandTimeout) ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			res.Kind = api.ResultTimeout
		}
		if res.ErrorOutput == "" {
			res.ErrorOutput = err.Error()
		}
		logger.Warn("command failed", "kind", res.Kind, "error", err)
	case out.ExitStatus != 0:
		res.Error = true
		res.Kind = api.ResultExitStatus
		logger.Info("command exited non-zero", "exit_status", out.ExitStatus)
	default:
		logger.Debug("command succeeded")
	}

	d.report(opts, res)
	return res
}

// TrimTerminators drops the trailing run of \r and \n; nothing else changes.
func TrimTerminators(s string) string {
	return strings.TrimRight(s, "\r\n")
}

// AllFailed reports whether a batch produced nothing useful: zero results
// or every result failed.
func AllFailed(results []api.CommandResult) bool {
	for _, r := range results {
		if !r.Error {
			return false
		}
	}
	return true
}
