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
	"net"
	"strconv"
)

const DefaultPort = 22

type State int

const (
	Unconnected State = iota
	Connected
	Disconnected
	Disposed
)

func (s State) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Target names one remote endpoint. Host is the pool key exactly as typed;
// DialHost, when set, is where the TCP connection actually goes.
type Target struct {
	Host     string
	DialHost string
	Port     int
	User     string
}

func (t Target) Addr() string {
	h := t.DialHost
	if h == "" {
		h = t.Host
	}
	p := t.Port
	if p == 0 {
		p = DefaultPort
	}
	return net.JoinHostPort(h, strconv.Itoa(p))
}

// Output of one remote command. ExitStatus is -1 when the remote side
// reported none.
type Output struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Dialer opens authenticated transport handles.
type Dialer interface {
	Dial(ctx context.Context, target Target, auth *Auth) (Handle, error)
}

// Handle is one live transport session to a host.
type Handle interface {
	Run(ctx context.Context, command string) (Output, error)
	// Wait blocks until the transport is closed from either side.
	Wait() error
	Close() error
}
