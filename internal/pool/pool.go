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
	"errors"
	"log/slog"
	"sync"

	"github.com/eminwux/sshpool/internal/natsort"
	"github.com/eminwux/sshpool/internal/transport"
)

// SessionPool maps host identifiers to Connections. Keys are compared as
// exact strings; at most one Connection exists per key.
type SessionPool interface {
	Get(host string) (*transport.Connection, bool)
	// Put stores conn under conn.Host() and returns the entry it replaced.
	Put(conn *transport.Connection) *transport.Connection
	Remove(host string) (*transport.Connection, bool)
	// Hosts returns a naturally sorted snapshot of the keys.
	Hosts() []string
	Len() int
	// Lock serializes connect and remove work on one host.
	Lock(host string) (unlock func())
	CloseAll() error
}

type slot struct {
	mu   sync.Mutex
	refs int
}

type Exec struct {
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[string]*transport.Connection

	slotsMu sync.Mutex
	slots   map[string]*slot
}

func NewSessionPoolExec(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exec{
		logger: logger,
		conns:  make(map[string]*transport.Connection),
		slots:  make(map[string]*slot),
	}
}

func (p *Exec) Get(host string) (*transport.Connection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.conns[host]
	return c, ok
}

func (p *Exec) Put(conn *transport.Connection) *transport.Connection {
	if conn == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.conns[conn.Host()]
	p.conns[conn.Host()] = conn
	p.logger.Debug("pool entry stored", "host", conn.Host(), "replaced", old != nil)
	return old
}

func (p *Exec) Remove(host string) (*transport.Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns[host]
	if ok {
		delete(p.conns, host)
		p.logger.Debug("pool entry removed", "host", host)
	}
	return c, ok
}

func (p *Exec) Hosts() []string {
	p.mu.RLock()
	hosts := make([]string, 0, len(p.conns))
	for h := range p.conns {
		hosts = append(hosts, h)
	}
	p.mu.RUnlock()
	natsort.Strings(hosts)
	return hosts
}

func (p *Exec) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

func (p *Exec) Lock(host string) func() {
	p.slotsMu.Lock()
	s, ok := p.slots[host]
	if !ok {
		s = &slot{}
		p.slots[host] = s
	}
	s.refs++
	p.slotsMu.Unlock()

	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		p.slotsMu.Lock()
		s.refs--
		if s.refs == 0 {
			delete(p.slots, host)
		}
		p.slotsMu.Unlock()
	}
}

// CloseAll empties the pool and disposes every Connection it held.
func (p *Exec) CloseAll() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*transport.Connection)
	p.mu.Unlock()

	var errs []error
	for host, c := range conns {
		if err := c.Dispose(); err != nil {
			p.logger.Warn("dispose failed", "host", host, "error", err)
			errs = append(errs, err)
		}
	}
	p.logger.Debug("pool closed", "count", len(conns))
	return errors.Join(errs...)
}
