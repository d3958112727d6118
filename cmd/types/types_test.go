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
	"context"
	"errors"
	"testing"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/transport"
)

type recordCloser struct {
	name  string
	order *[]string
}

func (c recordCloser) Close() error {
	*c.order = append(*c.order, c.name)
	return nil
}

func Test_RuntimeFrom_Missing(t *testing.T) {
	_, err := RuntimeFrom(context.Background())
	if !errors.Is(err, errdefs.ErrPoolNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrPoolNotFound, err)
	}

	// an unwired holder is not usable either
	ctx := context.WithValue(context.Background(), CtxRuntime, &Runtime{})
	_, err = RuntimeFrom(ctx)
	if !errors.Is(err, errdefs.ErrPoolNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrPoolNotFound, err)
	}
}

func Test_NewRuntime_Wired(t *testing.T) {
	rt := NewRuntime(nil, nil)
	if !rt.Ready() {
		t.Fatal("expected runtime to be ready")
	}
	if rt.Manager.Pool != rt.Pool {
		t.Fatal("expected manager to share the runtime pool")
	}
	if rt.Manager.Resolver != nil {
		t.Fatalf("expected no resolver; got: '%v'", rt.Manager.Resolver)
	}

	ctx := context.WithValue(context.Background(), CtxRuntime, rt)
	got, err := RuntimeFrom(ctx)
	if err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if got != rt {
		t.Fatal("expected the stored runtime back")
	}
}

func Test_Runtime_CloseDisposesPool(t *testing.T) {
	rt := NewRuntime(nil, nil)
	h := transport.NewTestHandle()
	conn := transport.NewTestConnection("web1", h)
	rt.Pool.Put(conn)

	var order []string
	rt.OnClose(recordCloser{name: "first", order: &order})
	rt.OnClose(recordCloser{name: "second", order: &order})

	if err := rt.Close(); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if rt.Pool.Len() != 0 {
		t.Fatalf("expected empty pool; got: '%d'", rt.Pool.Len())
	}
	if conn.State() != transport.Disposed {
		t.Fatalf("expected '%v'; got: '%v'", transport.Disposed, conn.State())
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("expected closers in reverse order; got: '%v'", order)
	}

	// a second close has nothing left to do
	if err := rt.Close(); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if len(order) != 2 {
		t.Fatalf("expected closers to run once; got: '%v'", order)
	}
}

func Test_Runtime_Adopt(t *testing.T) {
	var order []string
	holder := &Runtime{}
	holder.OnClose(recordCloser{name: "log", order: &order})

	holder.Adopt(NewRuntime(nil, nil))
	if !holder.Ready() {
		t.Fatal("expected adopted runtime to be ready")
	}
	if err := holder.Close(); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if len(order) != 1 {
		t.Fatalf("expected the pre-registered closer to survive adoption; got: '%v'", order)
	}
}
