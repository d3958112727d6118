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


package shell

import (
	"context"
	"errors"
	"testing"

	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/transport"
	"github.com/spf13/viper"
)

func Test_ErrLoggerNotFound_Shell_RunE(t *testing.T) {
	cmd := NewShellCmd()
	ctx := context.Background()
	// Don't set CtxLogger, so it will be nil
	cmd.SetContext(ctx)

	err := cmd.RunE(cmd, []string{"web1"})
	if !errors.Is(err, errdefs.ErrLoggerNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrLoggerNotFound, err)
	}
}

func Test_Shell_Arguments(t *testing.T) {
	rt, _ := types.NewTestRuntime("")
	cmd := NewShellCmd()
	cmd.SetContext(types.NewTestContext(rt))

	if err := cmd.RunE(cmd, []string{}); !errors.Is(err, errdefs.ErrMissingHostArgument) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrMissingHostArgument, err)
	}
	if err := cmd.RunE(cmd, []string{"a", "b"}); !errors.Is(err, errdefs.ErrTooManyArguments) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrTooManyArguments, err)
	}
}

func Test_Shell_SessionNotFound(t *testing.T) {
	t.Cleanup(viper.Reset)
	rt, _ := types.NewTestRuntime("")
	cmd := NewShellCmd()
	cmd.SetContext(types.NewTestContext(rt))
	cmd.SetArgs([]string{"ghost"})

	err := cmd.Execute()
	if !errors.Is(err, errdefs.ErrSessionNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrSessionNotFound, err)
	}
}

func Test_Shell_RunsLinesUntilExit(t *testing.T) {
	t.Cleanup(viper.Reset)
	rt, _ := types.NewTestRuntime("ls /tmp\n\nEXIT\nnot reached\n")
	t.Cleanup(func() { _ = rt.Close() })
	h := transport.NewTestHandle()
	rt.Pool.Put(transport.NewTestConnection("web1", h))

	cmd := NewShellCmd()
	cmd.SetContext(types.NewTestContext(rt))
	cmd.SetArgs([]string{"web1", "--no-pwd"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}

	want := "[web1]: unknown> ls /tmp\n[web1]: unknown> [web1]: unknown> "
	if rt.Output() != want {
		t.Fatalf("expected '%v'; got: '%v'", want, rt.Output())
	}
	if ran := h.Ran(); len(ran) != 1 || ran[0] != "ls /tmp" {
		t.Fatalf("unexpected commands: %v", ran)
	}

	// the rest of stdin stays available to the caller
	rest, _ := rt.Stdin.ReadString('\n')
	if rest != "not reached\n" {
		t.Fatalf("expected '%v'; got: '%v'", "not reached\n", rest)
	}
}

func Test_Shell_SeedsPrompt(t *testing.T) {
	t.Cleanup(viper.Reset)
	rt, _ := types.NewTestRuntime("quit\n")
	t.Cleanup(func() { _ = rt.Close() })
	h := transport.NewTestHandle()
	h.RunFunc = func(_ context.Context, command string) (transport.Output, error) {
		if command == "pwd" {
			return transport.Output{Stdout: "/home/deploy\n"}, nil
		}
		return transport.Output{}, nil
	}
	rt.Pool.Put(transport.NewTestConnection("web1", h))

	cmd := NewShellCmd()
	cmd.SetContext(types.NewTestContext(rt))
	cmd.SetArgs([]string{"web1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if rt.Output() != "[web1]: /home/deploy> " {
		t.Fatalf("expected '%v'; got: '%v'", "[web1]: /home/deploy> ", rt.Output())
	}
}
