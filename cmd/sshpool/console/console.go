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
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/shell"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

const Prompt = "sshpool> "

func NewConsoleCmd(newRoot func() *cobra.Command) *cobra.Command {
	// consoleCmd represents the console command.
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Read sshpool commands interactively against one pool",
		Long: `Read sshpool commands line by line. Sessions opened by connect stay in the
pool until they are removed or the console ends. Type exit or quit (or send
EOF) to leave; every pooled session is closed on the way out.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errdefs.ErrTooManyArguments
			}
			return Run(cmd, newRoot)
		},
	}
	return cmd
}

// Run drives the console loop. newRoot builds a fresh command tree for every
// line so flags never leak from one line into the next.
func Run(cmd *cobra.Command, newRoot func() *cobra.Command) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}
	rt, err := types.RuntimeFrom(cmd.Context())
	if err != nil {
		return err
	}
	if rt.InConsole {
		return fmt.Errorf("%w: console is already running", errdefs.ErrInvalidFlag)
	}
	rt.InConsole = true
	defer func() { rt.InConsole = false }()

	logger.Debug("console started")
	for {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		fmt.Fprint(rt.Stdout, Prompt)

		line, readErr := rt.Stdin.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		eof := readErr != nil

		if done := Exec(cmd.Context(), rt, logger, newRoot, line); done {
			logger.Debug("console closed by user")
			return nil
		}
		if eof {
			fmt.Fprintln(rt.Stdout)
			return nil
		}
	}
}

// Exec runs one console line and reports whether it asked to leave.
// Command failures are printed by cobra and never end the console.
func Exec(
	ctx context.Context,
	rt *types.Runtime,
	logger *slog.Logger,
	newRoot func() *cobra.Command,
	line string,
) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case shell.IsSentinel(line):
		return true
	}

	words, err := shellquote.Split(line)
	if err != nil {
		fmt.Fprintf(rt.Stderr, "Error: %v\n", fmt.Errorf("%w: %w", errdefs.ErrConsoleParse, err))
		return false
	}
	if len(words) == 0 {
		return false
	}

	root := newRoot()
	root.SetArgs(words)
	root.SetIn(rt.Stdin)
	root.SetOut(rt.Stdout)
	root.SetErr(rt.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Debug("console command failed",
			"line", logging.SanitizeForLog(line),
			"error", err,
		)
	}
	return false
}
