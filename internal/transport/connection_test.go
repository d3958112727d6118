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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eminwux/sshpool/internal/errdefs"
)

func waitClosed(t *testing.T, c *Connection) {
	t.Helper()
	select {
	case <-c.Closed():
	case <-time.After(2 * time.Second):
		t.Fatalf("connection did not observe transport closure")
	}
}

func Test_Connect_Validation(t *testing.T) {
	d := NewTestDialer()
	if _, err := Connect(context.Background(), nil, nil, Target{Host: "h"}, TestAuth()); !errors.Is(err, errdefs.ErrNoDialer) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrNoDialer, err)
	}
	if _, err := Connect(context.Background(), nil, d, Target{}, TestAuth()); !errors.Is(err, errdefs.ErrEmptyHost) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrEmptyHost, err)
	}
	if _, err := Connect(context.Background(), nil, d, Target{Host: "h", Port: 70000}, TestAuth()); !errors.Is(err, errdefs.ErrInvalidPort) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrInvalidPort, err)
	}
	if len(d.Dialed()) != 0 {
		t.Fatalf("expected no dial; got: '%v'", d.Dialed())
	}
}

func Test_Connect_DefaultsPort(t *testing.T) {
	d := NewTestDialer()
	c, err := Connect(context.Background(), nil, d, Target{Host: "web1", User: "root"}, TestAuth())
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	defer c.Dispose()
	if c.Port() != DefaultPort {
		t.Fatalf("expected '%v'; got: '%v'", DefaultPort, c.Port())
	}
	if !c.IsConnected() || c.State() != Connected {
		t.Fatalf("expected connected; got: '%v'", c.State())
	}
}

func Test_Connection_Lifecycle(t *testing.T) {
	h := NewTestHandle()
	closes := 0
	h.CloseFunc = func() error {
		closes++
		return nil
	}
	c := NewTestConnection("web1", h)

	if err := c.Disconnect(); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if c.IsConnected() {
		t.Fatalf("expected disconnected")
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("second disconnect: expected '%v'; got: '%v'", nil, err)
	}
	if err := c.Dispose(); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if err := c.Dispose(); err != nil {
		t.Fatalf("second dispose: expected '%v'; got: '%v'", nil, err)
	}
	if c.State() != Disposed {
		t.Fatalf("expected '%v'; got: '%v'", Disposed, c.State())
	}
	if closes != 1 {
		t.Fatalf("expected transport closed once; got: '%d'", closes)
	}

	if _, err := c.Run(context.Background(), "true"); !errors.Is(err, errdefs.ErrConnectionDisposed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrConnectionDisposed, err)
	}
}

func Test_Connection_PeerClose(t *testing.T) {
	h := NewTestHandle()
	c := NewTestConnection("web1", h)

	h.Drop()
	waitClosed(t, c)

	if c.IsConnected() {
		t.Fatalf("expected IsConnected false after peer close")
	}
	if _, err := c.Run(context.Background(), "uptime"); !errors.Is(err, errdefs.ErrConnectionNotLive) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrConnectionNotLive, err)
	}
	if err := c.Dispose(); err != nil {
		t.Fatalf("dispose after peer close: expected '%v'; got: '%v'", nil, err)
	}
}

func Test_Connection_DisposeReleasesHandleOnce(t *testing.T) {
	var closes atomic.Int32
	h := NewTestHandle()
	h.CloseFunc = func() error {
		closes.Add(1)
		return nil
	}
	c := NewTestConnection("web1", h)

	h.Drop()
	waitClosed(t, c)

	if err := c.Dispose(); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if err := c.Dispose(); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if got := closes.Load(); got != 1 {
		t.Fatalf("expected handle closed '%v' time; got: '%v'", 1, got)
	}

	h2 := NewTestHandle()
	h2.CloseFunc = func() error {
		closes.Add(1)
		return nil
	}
	c2 := NewTestConnection("web2", h2)
	if err := c2.Disconnect(); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if err := c2.Dispose(); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if got := closes.Load(); got != 2 {
		t.Fatalf("expected '%v' closes in total; got: '%v'", 2, got)
	}
}

func Test_Connection_SerializesCommands(t *testing.T) {
	var inflight, peak atomic.Int32
	h := NewTestHandle()
	h.RunFunc = func(_ context.Context, command string) (Output, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
		return Output{Stdout: command}, nil
	}
	c := NewTestConnection("web1", h)
	defer c.Dispose()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Run(context.Background(), "hostname"); err != nil {
				t.Errorf("run: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() != 1 {
		t.Fatalf("expected at most one command in flight; got: '%d'", peak.Load())
	}
	if len(h.Ran()) != 5 {
		t.Fatalf("expected '%d'; got: '%d'", 5, len(h.Ran()))
	}
}

func Test_Connection_SlotWaitHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	h := NewTestHandle()
	h.RunFunc = func(context.Context, string) (Output, error) {
		<-release
		return Output{}, nil
	}
	c := NewTestConnection("web1", h)
	defer c.Dispose()

	go func() { _, _ = c.Run(context.Background(), "sleep 60") }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Run(ctx, "uptime")
	close(release)

	if !errors.Is(err, errdefs.ErrCommandTimeout) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrCommandTimeout, err)
	}
}

func Test_State_String(t *testing.T) {
	tests := map[State]string{
		Unconnected:  "unconnected",
		Connected:    "connected",
		Disconnected: "disconnected",
		Disposed:     "disposed",
		State(42):    "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Fatalf("expected '%v'; got: '%v'", want, s.String())
		}
	}
}

func Test_Target_Addr(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Host: "web1"}, "web1:22"},
		{Target{Host: "web1", Port: 2222}, "web1:2222"},
		{Target{Host: "alias", DialHost: "10.0.0.5", Port: 22}, "10.0.0.5:22"},
		{Target{Host: "::1", Port: 22}, "[::1]:22"},
	}
	for _, tt := range tests {
		if got := tt.target.Addr(); got != tt.want {
			t.Fatalf("expected '%v'; got: '%v'", tt.want, got)
		}
	}
}
