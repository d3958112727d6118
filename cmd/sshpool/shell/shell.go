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
	"log/slog"
	"os"
	"os/signal"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	poolshell "github.com/eminwux/sshpool/internal/shell"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

const (
	noPwdInput   = "sshpool.shell.noPwd"
	timeoutInput = "sshpool.shell.timeout"
)

func NewShellCmd() *cobra.Command {
	// shellCmd represents the shell command.
	cmd := &cobra.Command{
		Use:     "shell HOST",
		Aliases: []string{"sh"},
		Short:   "Type commands at one pooled host",
		Long: `Read commands line by line and run each one on HOST's pooled session.

Type exit or quit (or send EOF) to leave. Ctrl-C cancels the running command
and keeps the shell open. Every line runs in a fresh remote shell, so cd and
variable assignments do not carry over.`,
		SilenceUsage:      true,
		ValidArgsFunction: completeOneHost,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, args)
		},
	}

	setupShellCmd(cmd)
	return cmd
}

func setupShellCmd(cmd *cobra.Command) {
	cmd.Flags().Bool("no-pwd", false, "Do not query the remote directory for the prompt")
	_ = viper.BindPFlag(noPwdInput, cmd.Flags().Lookup("no-pwd"))

	cmd.Flags().DurationP("timeout", "t", 0, "Per-command timeout (0 waits forever)")
	_ = viper.BindPFlag(timeoutInput, cmd.Flags().Lookup("timeout"))
}

func completeOneHost(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.CompletePooledHosts(cmd, args, toComplete)
}

func runShell(cmd *cobra.Command, args []string) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}
	if len(args) == 0 {
		return errdefs.ErrMissingHostArgument
	}
	if len(args) > 1 {
		return errdefs.ErrTooManyArguments
	}
	rt, err := types.RuntimeFrom(cmd.Context())
	if err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, unix.SIGINT)
	defer signal.Stop(interrupt)

	logger.Debug("shell command invoked", "host", args[0])

	return poolshell.Run(cmd.Context(), poolshell.Params{
		Pool:       rt.Pool,
		Host:       args[0],
		In:         rt.Stdin,
		Out:        rt.Stdout,
		ErrOut:     rt.Stderr,
		Logger:     logger,
		SeedPrompt: !viper.GetBool(noPwdInput),
		Timeout:    viper.GetDuration(timeoutInput),
		Interrupt:  interrupt,
	})
}
