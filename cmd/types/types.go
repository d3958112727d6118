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


package types

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/eminwux/sshpool/internal/dispatch"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/manager"
	"github.com/eminwux/sshpool/internal/pool"
	"github.com/eminwux/sshpool/internal/prompt"
	"github.com/eminwux/sshpool/internal/transport"
)

type CtxKey string

const (
	CtxLogger   CtxKey = "logger"
	CtxLevelVar CtxKey = "logLevelVar"
	CtxRuntime  CtxKey = "runtime"
)

// Runtime is the state shared by every command run in one process. The
// console keeps a single Runtime for its whole lifetime so pooled sessions
// survive between lines.
type Runtime struct {
	Pool       *pool.Exec
	Manager    *manager.Manager
	Dispatcher *dispatch.Dispatcher

	Stdin  *bufio.Reader
	Stdout io.Writer
	Stderr io.Writer

	// InConsole is set while commands are driven by the console loop.
	InConsole bool

	closers []io.Closer
}

// NewRuntime wires an empty pool to an SSH dialer. resolver may be nil.
func NewRuntime(logger *slog.Logger, resolver transport.Resolver) *Runtime {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := pool.NewSessionPoolExec(logger)
	mgr := manager.New(p, transport.NewSSHDialer(logger), logger)
	mgr.Prompter = prompt.NewTermPrompter()
	if resolver != nil {
		mgr.Resolver = resolver
	}
	return &Runtime{
		Pool:       p,
		Manager:    mgr,
		Dispatcher: dispatch.New(p, logger, os.Stderr),
		Stdin:      bufio.NewReader(os.Stdin),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// Ready reports whether the pool has been wired.
func (r *Runtime) Ready() bool {
	return r != nil && r.Manager != nil
}

// Adopt copies the wiring of other into r.
func (r *Runtime) Adopt(other *Runtime) {
	closers := r.closers
	*r = *other
	r.closers = append(closers, other.closers...)
}

// OnClose registers c to be closed after the pool is torn down.
func (r *Runtime) OnClose(c io.Closer) {
	if c != nil {
		r.closers = append(r.closers, c)
	}
}

// Close disposes every pooled session, then the registered closers.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Manager != nil {
		if err := r.Manager.CloseAll(); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// RuntimeFrom returns the wired Runtime stored in ctx.
func RuntimeFrom(ctx context.Context) (*Runtime, error) {
	rt, ok := ctx.Value(CtxRuntime).(*Runtime)
	if !ok || !rt.Ready() {
		return nil, errdefs.ErrPoolNotFound
	}
	return rt, nil
}
