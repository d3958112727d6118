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
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/transport"
)

type Test struct {
	// Last-call trackers
	LastGetHost    string
	LastPut        *transport.Connection
	LastRemoveHost string

	GetFunc      func(host string) (*transport.Connection, bool)
	PutFunc      func(conn *transport.Connection) *transport.Connection
	RemoveFunc   func(host string) (*transport.Connection, bool)
	HostsFunc    func() []string
	LenFunc      func() int
	LockFunc     func(host string) func()
	CloseAllFunc func() error
}

func NewSessionPoolTest() *Test {
	return &Test{
		GetFunc: func(string) (*transport.Connection, bool) {
			return nil, false
		},
		PutFunc: func(*transport.Connection) *transport.Connection {
			return nil
		},
		RemoveFunc: func(string) (*transport.Connection, bool) {
			return nil, false
		},
		HostsFunc: func() []string {
			return nil
		},
		LockFunc: func(string) func() {
			return func() {}
		},
	}
}

func (t *Test) Get(host string) (*transport.Connection, bool) {
	t.LastGetHost = host
	if t.GetFunc != nil {
		return t.GetFunc(host)
	}
	return nil, false
}

func (t *Test) Put(conn *transport.Connection) *transport.Connection {
	t.LastPut = conn
	if t.PutFunc != nil {
		return t.PutFunc(conn)
	}
	return nil
}

func (t *Test) Remove(host string) (*transport.Connection, bool) {
	t.LastRemoveHost = host
	if t.RemoveFunc != nil {
		return t.RemoveFunc(host)
	}
	return nil, false
}

func (t *Test) Hosts() []string {
	if t.HostsFunc != nil {
		return t.HostsFunc()
	}
	return nil
}

func (t *Test) Len() int {
	if t.LenFunc != nil {
		return t.LenFunc()
	}
	return len(t.Hosts())
}

func (t *Test) Lock(host string) func() {
	if t.LockFunc != nil {
		return t.LockFunc(host)
	}
	return func() {}
}

func (t *Test) CloseAll() error {
	if t.CloseAllFunc != nil {
		return t.CloseAllFunc()
	}
	return errdefs.ErrFuncNotSet
}
