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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/logging"
	"golang.org/x/crypto/ssh"
)

// SSHDialer dials real SSH servers.
type SSHDialer struct {
	Logger *slog.Logger
}

func NewSSHDialer(logger *slog.Logger) *SSHDialer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SSHDialer{Logger: logger}
}

func (d *SSHDialer) Dial(ctx context.Context, target Target, auth *Auth) (Handle, error) {
	if auth == nil {
		return nil, errdefs.ErrNoCredential
	}
	if auth.keyErr != nil {
		return nil, auth.keyErr
	}

	addr := target.Addr()
	cfg := &ssh.ClientConfig{
		User:            target.User,
		Auth:            auth.Methods,
		HostKeyCallback: auth.HostKeyCallback,
		Timeout:         auth.Timeout,
	}

	dialCtx, cancel := context.WithTimeout(ctx, auth.Timeout)
	defer cancel()

	d.Logger.Debug("dialing", "host", logging.SanitizeForLog(target.Host), "addr", logging.SanitizeForLog(addr))
	nd := net.Dialer{Timeout: auth.Timeout}
	conn, err := nd.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		if dialCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", errdefs.ErrConnectTimeout, addr, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", errdefs.ErrConnect, addr, err)
	}

	type handshake struct {
		c     ssh.Conn
		chans <-chan ssh.NewChannel
		reqs  <-chan *ssh.Request
		err   error
	}
	hs := make(chan handshake, 1)
	go func() {
		c, chans, reqs, herr := ssh.NewClientConn(conn, addr, cfg)
		hs <- handshake{c, chans, reqs, herr}
	}()

	select {
	case <-dialCtx.Done():
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s: %w", errdefs.ErrConnectTimeout, addr, dialCtx.Err())
	case r := <-hs:
		if r.err != nil {
			_ = conn.Close()
			return nil, classifyHandshake(addr, r.err)
		}
		return &sshHandle{client: ssh.NewClient(r.c, r.chans, r.reqs)}, nil
	}
}

func classifyHandshake(addr string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"):
		return fmt.Errorf("%w: %s: %w", errdefs.ErrAuthentication, addr, err)
	case strings.Contains(msg, "i/o timeout"):
		return fmt.Errorf("%w: %s: %w", errdefs.ErrConnectTimeout, addr, err)
	default:
		return fmt.Errorf("%w: %s: %w", errdefs.ErrConnect, addr, err)
	}
}

type sshHandle struct {
	client *ssh.Client
}

type runResult struct {
	out Output
	err error
}

// Run opens a fresh exec channel for command and closes it before
// returning. A non-zero exit is reported in Output, not as an error. ctx
// bounds the whole exchange, channel open included; a peer that stalls
// before the channel is open has its client closed.
func (h *sshHandle) Run(ctx context.Context, command string) (Output, error) {
	var (
		mu   sync.Mutex
		sess *ssh.Session
	)
	done := make(chan runResult, 1)

	go func() {
		s, err := h.client.NewSession()
		if err != nil {
			done <- runResult{Output{ExitStatus: -1}, fmt.Errorf("%w: open channel: %w", errdefs.ErrCommandExec, err)}
			return
		}
		defer s.Close()
		mu.Lock()
		sess = s
		mu.Unlock()

		var stdout, stderr bytes.Buffer
		s.Stdout = &stdout
		s.Stderr = &stderr

		if err = s.Start(command); err != nil {
			done <- runResult{Output{ExitStatus: -1}, fmt.Errorf("%w: %w", errdefs.ErrCommandExec, err)}
			return
		}
		err = s.Wait()
		out, err := exitOutput(stdout.String(), stderr.String(), err)
		done <- runResult{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		mu.Lock()
		s := sess
		mu.Unlock()
		if s != nil {
			_ = s.Signal(ssh.SIGKILL)
			_ = s.Close()
		} else {
			_ = h.client.Close()
		}
		return Output{ExitStatus: -1}, contextError(ctx.Err())
	}
}

func exitOutput(stdout, stderr string, err error) (Output, error) {
	out := Output{Stdout: stdout, Stderr: stderr}
	if err == nil {
		return out, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		out.ExitStatus = exitErr.ExitStatus()
		return out, nil
	}
	out.ExitStatus = -1
	return out, fmt.Errorf("%w: %w", errdefs.ErrCommandExec, err)
}

func (h *sshHandle) Wait() error {
	return h.client.Wait()
}

func (h *sshHandle) Close() error {
	return h.client.Close()
}
