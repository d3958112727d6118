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

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/eminwux/sshpool/internal/errdefs"
	"golang.org/x/sync/semaphore"
)

// Connection is one pooled transport session. Commands on a Connection are
// serialized; a Disposed Connection is never reused.
type Connection struct {
	target Target
	handle Handle
	logger *slog.Logger

	sem *semaphore.Weighted

	mu           sync.RWMutex
	state        State
	handleClosed bool
	done         chan struct{}
}

// Connect dials target and returns a Connected Connection.
func Connect(ctx context.Context, logger *slog.Logger, dialer Dialer, target Target, auth *Auth) (*Connection, error) {
	if dialer == nil {
		return nil, errdefs.ErrNoDialer
	}
	if target.Host == "" {
		return nil, errdefs.ErrEmptyHost
	}
	if target.Port < 0 || target.Port > 65535 {
		return nil, fmt.Errorf("%w: %d", errdefs.ErrInvalidPort, target.Port)
	}
	if target.Port == 0 {
		target.Port = DefaultPort
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h, err := dialer.Dial(ctx, target, auth)
	if err != nil {
		return nil, err
	}
	return newConnection(logger, target, h), nil
}

func newConnection(logger *slog.Logger, target Target, h Handle) *Connection {
	c := &Connection{
		target: target,
		handle: h,
		logger: logger.With("host", target.Host),
		sem:    semaphore.NewWeighted(1),
		state:  Connected,
		done:   make(chan struct{}),
	}
	go c.watch()
	return c
}

// watch flips the state once the transport reports closure. It cannot see a
// peer that vanished without closing TCP, so IsConnected may lag reality.
func (c *Connection) watch() {
	err := c.handle.Wait()
	c.mu.Lock()
	if c.state == Connected {
		c.state = Disconnected
		c.logger.Warn("transport closed by peer", "error", err)
	}
	c.mu.Unlock()
	close(c.done)
}

func (c *Connection) Host() string { return c.target.Host }
func (c *Connection) Port() int    { return c.target.Port }
func (c *Connection) User() string { return c.target.User }

func (c *Connection) Target() Target { return c.target }

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) IsConnected() bool {
	return c.State() == Connected
}

// Closed is closed after the transport has gone away.
func (c *Connection) Closed() <-chan struct{} {
	return c.done
}

// Run executes command on the remote host. Waiting for the connection's
// command slot honours ctx.
func (c *Connection) Run(ctx context.Context, command string) (Output, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return Output{ExitStatus: -1}, contextError(err)
	}
	defer c.sem.Release(1)

	switch c.State() {
	case Connected:
	case Disposed:
		return Output{ExitStatus: -1}, errdefs.ErrConnectionDisposed
	default:
		return Output{ExitStatus: -1}, errdefs.ErrConnectionNotLive
	}

	c.logger.Debug("run command", "command_len", len(command))
	return c.handle.Run(ctx, command)
}

// Disconnect closes the transport. It is a no-op unless Connected.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Connected {
		return nil
	}
	c.state = Disconnected
	return c.closeHandle()
}

// Dispose releases the Connection for good. Safe to call repeatedly and on
// a Connection the peer already closed; the handle is closed exactly once.
func (c *Connection) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Disposed
	return c.closeHandle()
}

// closeHandle must be called with mu held.
func (c *Connection) closeHandle() error {
	if c.handleClosed {
		return nil
	}
	c.handleClosed = true
	err := c.handle.Close()
	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", errdefs.ErrCommandTimeout, err)
	}
	return err
}
