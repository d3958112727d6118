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
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/transport"
)

// NewTestRuntime returns a Runtime over an empty pool that dials through a
// transport.TestDialer. stdin feeds Stdin; Stdout, Stderr and dispatcher
// progress are captured in buffers.
func NewTestRuntime(stdin string) (*Runtime, *transport.TestDialer) {
	rt := NewRuntime(nil, nil)
	dialer := transport.NewTestDialer()
	rt.Manager.Dialer = dialer
	rt.Manager.Prompter = nil
	rt.Stdin = bufio.NewReader(strings.NewReader(stdin))
	rt.Stdout = &bytes.Buffer{}
	rt.Stderr = &bytes.Buffer{}
	rt.Dispatcher.Progress = rt.Stderr
	return rt, dialer
}

// NewTestContext stores rt and a silent logger in a fresh context.
func NewTestContext(rt *Runtime) context.Context {
	ctx := context.WithValue(context.Background(), CtxLogger, logging.NewNoopLogger())
	return context.WithValue(ctx, CtxRuntime, rt)
}

// Output returns what was written to a test runtime's stdout.
func (r *Runtime) Output() string {
	if b, ok := r.Stdout.(*bytes.Buffer); ok {
		return b.String()
	}
	return ""
}

// ErrOutput returns what was written to a test runtime's stderr.
func (r *Runtime) ErrOutput() string {
	if b, ok := r.Stderr.(*bytes.Buffer); ok {
		return b.String()
	}
	return ""
}
