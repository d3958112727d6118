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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/fanout"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/naming"
	"github.com/eminwux/sshpool/internal/pool"
	"github.com/eminwux/sshpool/internal/prompt"
	"github.com/eminwux/sshpool/internal/transport"
	"github.com/eminwux/sshpool/pkg/api"
)

// Manager creates, replaces and removes pool entries.
type Manager struct {
	Pool     pool.SessionPool
	Dialer   transport.Dialer
	Logger   *slog.Logger
	Resolver transport.Resolver
	Prompter prompt.SecretPrompter
}

type ConnectOptions struct {
	Reconnect bool
	// Parallel <= 1 connects one host after another.
	Parallel int
	Timeout  time.Duration
}

func New(p pool.SessionPool, d transport.Dialer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{Pool: p, Dialer: d, Logger: logger}
}

// Connect ensures every host has a live pool entry. Structural problems are
// returned before any host is attempted; per-host failures land in the
// outcome for that host and the batch continues.
func (m *Manager) Connect(
	ctx context.Context,
	hosts []string,
	spec api.AuthSpec,
	port int,
	opts ConnectOptions,
) ([]api.HostOutcome, error) {
	if m.Pool == nil {
		return nil, errdefs.ErrNoPool
	}
	if m.Dialer == nil {
		return nil, errdefs.ErrNoDialer
	}
	if len(hosts) == 0 {
		return nil, errdefs.ErrNoTargets
	}
	for _, h := range hosts {
		if h == "" {
			return nil, errdefs.ErrEmptyHost
		}
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("%w: %d", errdefs.ErrInvalidPort, port)
	}
	if spec.User == "" && m.Resolver == nil {
		return nil, errdefs.ErrNoUser
	}
	if opts.Timeout > 0 {
		spec.ConnectTimeout = opts.Timeout
	}

	logger := m.Logger.With("batch", naming.RandomID(), "op", "connect")

	var auth *transport.Auth
	if m.needsDial(hosts, opts.Reconnect) {
		var err error
		auth, err = transport.ResolveAuth(logger, spec, m.Prompter)
		if err != nil {
			logger.Error("credential resolution failed", "error", err)
			return nil, err
		}
		defer func() { _ = auth.Close() }()
	}

	outcomes := make([]api.HostOutcome, len(hosts))
	fanout.Each(ctx, len(hosts), opts.Parallel, func(ctx context.Context, i int) {
		outcomes[i] = m.connectOne(ctx, logger, hosts[i], spec.User, port, auth, opts.Reconnect)
	})
	return outcomes, nil
}

func (m *Manager) needsDial(hosts []string, reconnect bool) bool {
	if reconnect {
		return true
	}
	for _, h := range hosts {
		c, ok := m.Pool.Get(h)
		if !ok || !c.IsConnected() {
			return true
		}
	}
	return false
}

func (m *Manager) connectOne(
	ctx context.Context,
	logger *slog.Logger,
	host, user string,
	port int,
	auth *transport.Auth,
	reconnect bool,
) api.HostOutcome {
	logger = logger.With("host", logging.SanitizeForLog(host))

	unlock := m.Pool.Lock(host)
	defer unlock()

	action := api.ActionConnected
	if old, ok := m.Pool.Get(host); ok {
		switch {
		case old.IsConnected() && !reconnect:
			logger.Info("already connected, skipping")
			return api.NewOutcome(host, api.ActionAlreadyConnected, nil)
		case reconnect:
			action = api.ActionReconnected
			logger.Info("reconnect requested, dropping existing session")
		default:
			logger.Info("replacing stale session", "state", old.State())
		}
		m.Pool.Remove(host)
		m.retire(logger, old)
	}

	if auth == nil {
		return api.NewOutcome(host, api.ActionFailed, errdefs.ErrNoCredential)
	}

	target := transport.Target{Host: host, Port: port, User: user}
	if m.Resolver != nil {
		target = m.Resolver.Resolve(host).Apply(target)
	}
	if target.User == "" {
		logger.Warn("no username for host")
		return api.NewOutcome(host, api.ActionFailed, errdefs.ErrNoUser)
	}

	conn, err := transport.Connect(ctx, logger, m.Dialer, target, auth)
	if err != nil {
		logger.Warn("connect failed", "error", err)
		return api.NewOutcome(host, api.ActionFailed, err)
	}

	if prev := m.Pool.Put(conn); prev != nil && prev != conn {
		m.retire(logger, prev)
	}
	logger.Info("session established", "addr", logging.SanitizeForLog(target.Addr()), "user", target.User)
	return api.NewOutcome(host, action, nil)
}

func (m *Manager) retire(logger *slog.Logger, c *transport.Connection) {
	if err := c.Disconnect(); err != nil {
		logger.Warn("disconnect failed", "error", err)
	}
	if err := c.Dispose(); err != nil {
		logger.Warn("dispose failed", "error", err)
	}
}

// Remove disconnects and forgets the resolved hosts. An absent host is
// reported and skipped.
func (m *Manager) Remove(
	ctx context.Context,
	hosts []string,
	all bool,
	confirm prompt.Confirmer,
) ([]api.HostOutcome, error) {
	targets, err := pool.ResolveTargets(m.Pool, hosts, all, confirm)
	if err != nil {
		return nil, err
	}

	logger := m.Logger.With("batch", naming.RandomID(), "op", "remove")
	outcomes := make([]api.HostOutcome, 0, len(targets))
	for _, host := range targets {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, m.removeOne(logger, host))
	}
	return outcomes, nil
}

func (m *Manager) removeOne(logger *slog.Logger, host string) api.HostOutcome {
	logger = logger.With("host", logging.SanitizeForLog(host))

	unlock := m.Pool.Lock(host)
	defer unlock()

	conn, ok := m.Pool.Remove(host)
	if !ok {
		logger.Warn("no session for host, skipping")
		return api.NewOutcome(host, api.ActionAbsent, nil)
	}
	m.retire(logger, conn)
	logger.Info("session removed")
	return api.NewOutcome(host, api.ActionRemoved, nil)
}

// CloseAll disposes every pooled session.
func (m *Manager) CloseAll() error {
	if m.Pool == nil {
		return errdefs.ErrNoPool
	}
	return m.Pool.CloseAll()
}
