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

package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/eminwux/sshpool/internal/dispatch"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/pool"
	"github.com/eminwux/sshpool/internal/transport"
)

const UnknownPath = "unknown"

// lostGrace bounds how long a failed command waits for the transport to
// report its closure.
const lostGrace = 250 * time.Millisecond

type Params struct {
	Pool   pool.SessionPool
	Host   string
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	Logger *slog.Logger

	// SeedPrompt runs pwd once to show the remote directory in the prompt.
	SeedPrompt bool
	Timeout    time.Duration
	// Interrupt cancels the command in flight; the loop keeps going.
	Interrupt <-chan os.Signal
}

// Run drives a line-at-a-time shell against one pooled host until EOF,
// exit or quit. Losing the connection ends the loop with ErrConnectionLost.
func Run(ctx context.Context, p Params) error {
	if p.Pool == nil {
		return errdefs.ErrNoPool
	}
	if p.Logger == nil {
		p.Logger = slog.New(slog.DiscardHandler)
	}
	if p.ErrOut == nil {
		p.ErrOut = p.Out
	}
	logger := p.Logger.With("host", logging.SanitizeForLog(p.Host), "op", "shell")

	conn, ok := p.Pool.Get(p.Host)
	if !ok {
		return fmt.Errorf("%w: %s", errdefs.ErrSessionNotFound, p.Host)
	}
	if !conn.IsConnected() {
		return fmt.Errorf("%w: %s", errdefs.ErrConnectionLost, p.Host)
	}

	path := UnknownPath
	if p.SeedPrompt {
		path = seedPath(ctx, p, conn)
	}
	prompt := fmt.Sprintf("[%s]: %s> ", p.Host, path)
	logger.Debug("shell started", "path", logging.SanitizeForLog(path))

	r := bufio.NewReader(p.In)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(p.Out, prompt)

		line, readErr := r.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		cmd := strings.TrimSpace(line)
		eof := readErr != nil

		switch {
		case cmd == "":
			if eof {
				fmt.Fprintln(p.Out)
				return lostError(p.Host, conn, nil)
			}
			continue
		case IsSentinel(cmd):
			logger.Debug("shell closed by user")
			return nil
		}

		if !conn.IsConnected() {
			return fmt.Errorf("%w: %s", errdefs.ErrConnectionLost, p.Host)
		}
		if err := execute(ctx, p, logger, conn, cmd); err != nil {
			return err
		}
		if eof {
			return lostError(p.Host, conn, nil)
		}
	}
}

// IsSentinel reports whether line ends the shell.
func IsSentinel(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	default:
		return false
	}
}

func seedPath(ctx context.Context, p Params, conn *transport.Connection) string {
	out, err := runWithInterrupt(ctx, p, conn, "pwd")
	switch {
	case err != nil:
		fmt.Fprintf(p.ErrOut, "could not read remote working directory: %v\n", err)
		return UnknownPath
	case out.ExitStatus != 0:
		fmt.Fprintf(p.ErrOut, "could not read remote working directory: exit status %d\n", out.ExitStatus)
		return UnknownPath
	}
	path := dispatch.TrimTerminators(out.Stdout)
	if path == "" {
		return UnknownPath
	}
	return path
}

func execute(ctx context.Context, p Params, logger *slog.Logger, conn *transport.Connection, cmd string) error {
	out, err := runWithInterrupt(ctx, p, conn, cmd)
	if err != nil {
		if connectionLost(conn, err) {
			return lostError(p.Host, conn, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("command failed", "error", err)
		fmt.Fprintln(p.ErrOut, dispatch.TrimTerminators(err.Error()))
		return nil
	}

	if out.ExitStatus == 0 {
		if s := dispatch.TrimTerminators(out.Stdout); s != "" {
			fmt.Fprintln(p.Out, s)
		}
		return nil
	}
	text := out.Stderr
	if text == "" {
		text = out.Stdout
	}
	if s := dispatch.TrimTerminators(text); s != "" {
		fmt.Fprintln(p.ErrOut, s)
	}
	return nil
}

// connectionLost reports whether err came from a transport that is going
// away. The watcher flips the state asynchronously, so a transport failure
// waits up to lostGrace for the closure to land.
func connectionLost(conn *transport.Connection, err error) bool {
	if !conn.IsConnected() {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	select {
	case <-conn.Closed():
		return true
	case <-time.After(lostGrace):
		return false
	}
}

// lostError is nil while conn is live.
func lostError(host string, conn *transport.Connection, cause error) error {
	if conn.IsConnected() {
		return nil
	}
	if cause == nil {
		return fmt.Errorf("%w: %s", errdefs.ErrConnectionLost, host)
	}
	return fmt.Errorf("%w: %s: %w", errdefs.ErrConnectionLost, host, cause)
}

func runWithInterrupt(ctx context.Context, p Params, conn *transport.Connection, cmd string) (transport.Output, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if p.Timeout > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(runCtx, p.Timeout)
		defer tcancel()
	}

	done := make(chan struct{})
	defer close(done)
	if p.Interrupt != nil {
		go func() {
			select {
			case <-p.Interrupt:
				cancel()
			case <-done:
			}
		}()
	}
	return conn.Run(runCtx, cmd)
}
