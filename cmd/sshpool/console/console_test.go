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


package console

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/spf13/cobra"
)

type recorder struct {
	calls [][]string
}

func (r *recorder) newRoot() *cobra.Command {
	root := &cobra.Command{Use: "sshpool", SilenceUsage: true}
	root.AddCommand(&cobra.Command{
		Use: "record",
		RunE: func(_ *cobra.Command, args []string) error {
			r.calls = append(r.calls, args)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use: "fail",
		RunE: func(*cobra.Command, []string) error {
			return errdefs.ErrAllTargetsFailed
		},
	})
	root.AddCommand(NewConsoleCmd(r.newRoot))
	return root
}

func Test_ErrLoggerNotFound_Console_RunE(t *testing.T) {
	r := &recorder{}
	cmd := NewConsoleCmd(r.newRoot)
	ctx := context.Background()
	// Don't set CtxLogger, so it will be nil
	cmd.SetContext(ctx)

	err := cmd.RunE(cmd, []string{})
	if !errors.Is(err, errdefs.ErrLoggerNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrLoggerNotFound, err)
	}
}

func Test_ErrTooManyArguments_Console(t *testing.T) {
	r := &recorder{}
	cmd := NewConsoleCmd(r.newRoot)
	err := cmd.RunE(cmd, []string{"extra"})
	if !errors.Is(err, errdefs.ErrTooManyArguments) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrTooManyArguments, err)
	}
}

func Test_Console_Loop(t *testing.T) {
	input := strings.Join([]string{
		`record a 'b c'`,
		``,
		`record "unterminated`,
		`fail`,
		`console`,
		`record last`,
		`Quit`,
		`record never`,
	}, "\n") + "\n"
	rt, _ := types.NewTestRuntime(input)
	r := &recorder{}

	cmd := NewConsoleCmd(r.newRoot)
	cmd.SetContext(types.NewTestContext(rt))
	if err := cmd.RunE(cmd, []string{}); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}

	want := [][]string{{"a", "b c"}, {"last"}}
	if !reflect.DeepEqual(r.calls, want) {
		t.Fatalf("expected '%v'; got: '%v'", want, r.calls)
	}
	errOut := rt.ErrOutput()
	if !strings.Contains(errOut, errdefs.ErrConsoleParse.Error()) {
		t.Fatalf("expected parse error on stderr; got: '%v'", errOut)
	}
	if !strings.Contains(errOut, errdefs.ErrAllTargetsFailed.Error()) {
		t.Fatalf("expected command error on stderr; got: '%v'", errOut)
	}
	if !strings.Contains(errOut, "console is already running") {
		t.Fatalf("expected nested console to be refused; got: '%v'", errOut)
	}
	if rt.InConsole {
		t.Fatal("expected console flag to be cleared on exit")
	}
	if got := strings.Count(rt.Output(), Prompt); got != 7 {
		t.Fatalf("expected '%v' prompts; got: '%v'", 7, got)
	}
}

func Test_Console_EOFWithoutNewline(t *testing.T) {
	rt, _ := types.NewTestRuntime("record tail")
	r := &recorder{}

	cmd := NewConsoleCmd(r.newRoot)
	cmd.SetContext(types.NewTestContext(rt))
	if err := cmd.RunE(cmd, []string{}); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if !reflect.DeepEqual(r.calls, [][]string{{"tail"}}) {
		t.Fatalf("expected '%v'; got: '%v'", [][]string{{"tail"}}, r.calls)
	}
	if !strings.HasSuffix(rt.Output(), Prompt+"\n") {
		t.Fatalf("expected a newline after the last prompt; got: %q", rt.Output())
	}
}
