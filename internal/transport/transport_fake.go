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
	"log/slog"
	"sync"

	"github.com/eminwux/sshpool/internal/errdefs"
)

// TestHandle is a scriptable Handle. Wait blocks until Close or Drop.
type TestHandle struct {
	mu       sync.Mutex
	Commands []string

	RunFunc   func(ctx context.Context, command string) (Output, error)
	CloseFunc func() error

	closed chan struct{}
	once   sync.Once
}

func NewTestHandle() *TestHandle {
	return &TestHandle{
		RunFunc: func(_ context.Context, command string) (Output, error) {
			return Output{Stdout: command + "\n"}, nil
		},
		closed: make(chan struct{}),
	}
}

func (h *TestHandle) Run(ctx context.Context, command string) (Output, error) {
	h.mu.Lock()
	h.Commands = append(h.Commands, command)
	h.mu.Unlock()
	if h.RunFunc != nil {
		return h.RunFunc(ctx, command)
	}
	return Output{ExitStatus: -1}, errdefs.ErrFuncNotSet
}

func (h *TestHandle) Ran() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Commands))
	copy(out, h.Commands)
	return out
}

func (h *TestHandle) Wait() error {
	<-h.closed
	return nil
}

func (h *TestHandle) Close() error {
	h.Drop()
	if h.CloseFunc != nil {
		return h.CloseFunc()
	}
	return nil
}

// Drop simulates the peer closing the transport.
func (h *TestHandle) Drop() {
	h.once.Do(func() { close(h.closed) })
}

// TestDialer records every dial and delegates to DialFunc.
type TestDialer struct {
	mu    sync.Mutex
	Dials []Target

	DialFunc func(ctx context.Context, target Target, auth *Auth) (Handle, error)
}

func NewTestDialer() *TestDialer {
	return &TestDialer{
		DialFunc: func(context.Context, Target, *Auth) (Handle, error) {
			return NewTestHandle(), nil
		},
	}
}

func (d *TestDialer) Dial(ctx context.Context, target Target, auth *Auth) (Handle, error) {
	d.mu.Lock()
	d.Dials = append(d.Dials, target)
	d.mu.Unlock()
	if d.DialFunc != nil {
		return d.DialFunc(ctx, target, auth)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (d *TestDialer) Dialed() []Target {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Target, len(d.Dials))
	copy(out, d.Dials)
	return out
}

// NewTestConnection wraps h in a Connected Connection without dialing.
func NewTestConnection(host string, h Handle) *Connection {
	return newConnection(slog.New(slog.DiscardHandler), Target{Host: host, Port: DefaultPort, User: "test"}, h)
}

// TestAuth returns an Auth carrying no credential, for fake dialers.
func TestAuth() *Auth {
	return &Auth{Method: AuthPassword, Timeout: DefaultConnectTimeout}
}
