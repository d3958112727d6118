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


package invoke

import (
	"fmt"
	"log/slog"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/parser"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/dispatch"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	commandInput  = "sshpool.invoke.command"
	allInput      = "sshpool.invoke.all"
	yesInput      = "sshpool.invoke.yes"
	quietInput    = "sshpool.invoke.quiet"
	timeoutInput  = "sshpool.invoke.timeout"
	parallelInput = "sshpool.invoke.parallel"
	outputFormat  = "sshpool.invoke.output"
)

func NewInvokeCmd() *cobra.Command {
	// invokeCmd represents the invoke command.
	cmd := &cobra.Command{
		Use:     "invoke [HOST...] [-c COMMAND | -- COMMAND...]",
		Aliases: []string{"i", "exec"},
		Short:   "Run a command on pooled hosts",
		Long: `Run one command on every named HOST, or on every pooled host with --all.

Hosts without a live session are skipped with a warning. A command that exits
non-zero on some hosts is reported per host; the exit status of sshpool is
non-zero only when no host succeeded.`,
		SilenceUsage:      true,
		ValidArgsFunction: config.CompletePooledHosts,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd, args)
		},
	}

	setupInvokeCmd(cmd)
	return cmd
}

func setupInvokeCmd(cmd *cobra.Command) {
	cmd.Flags().StringP("command", "c", "", "Command to run")
	_ = viper.BindPFlag(commandInput, cmd.Flags().Lookup("command"))

	cmd.Flags().BoolP("all", "a", false, "Target every pooled host")
	_ = viper.BindPFlag(allInput, cmd.Flags().Lookup("all"))

	cmd.Flags().BoolP("yes", "y", false, "Do not ask before combining --all with named hosts")
	_ = viper.BindPFlag(yesInput, cmd.Flags().Lookup("yes"))

	cmd.Flags().BoolP("quiet", "q", false, "Suppress per-host progress lines")
	_ = viper.BindPFlag(quietInput, cmd.Flags().Lookup("quiet"))

	cmd.Flags().DurationP("timeout", "t", 0, "Per-host command timeout (0 waits forever)")
	_ = viper.BindPFlag(timeoutInput, cmd.Flags().Lookup("timeout"))

	cmd.Flags().IntP("parallel", "P", 0, "Run on up to N hosts at once (default 1)")
	_ = viper.BindPFlag(parallelInput, cmd.Flags().Lookup("parallel"))

	cmd.Flags().StringP("output", "o", "", "Output format: text|json|yaml")
	_ = viper.BindPFlag(outputFormat, cmd.Flags().Lookup("output"))

	_ = cmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
		},
	)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}
	format := viper.GetString(outputFormat)
	if !parser.ValidOutputFormat(format) || format == "table" {
		return fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, format)
	}
	rt, err := types.RuntimeFrom(cmd.Context())
	if err != nil {
		return err
	}

	hosts, command := parser.SplitCommand(cmd, args, viper.GetString(commandInput))
	opts := dispatch.Options{
		Quiet:    viper.GetBool(quietInput),
		Timeout:  parser.DurationOrGlobal(timeoutInput, &config.TIMEOUT, 0),
		Parallel: parser.IntOrGlobal(parallelInput, &config.PARALLEL, 1),
		Confirm:  prompt.LineConfirmer(rt.Stdin, rt.Stderr),
	}
	if viper.GetBool(yesInput) {
		opts.Confirm = prompt.AlwaysYes
	}

	logger.Debug("invoke command invoked",
		"hosts", len(hosts),
		"all", viper.GetBool(allInput),
		"command", logging.SanitizeForLog(command),
		"timeout", opts.Timeout,
		"parallel", opts.Parallel,
	)

	results, err := rt.Dispatcher.Invoke(
		cmd.Context(),
		dispatch.Targets{Hosts: hosts, All: viper.GetBool(allInput)},
		command,
		opts,
	)
	if err != nil {
		return err
	}
	if err := dispatch.PrintResults(rt.Stdout, results, format); err != nil {
		return err
	}
	if dispatch.AllFailed(results) {
		return fmt.Errorf("%w: %s", errdefs.ErrAllTargetsFailed, logging.SanitizeForLog(command))
	}
	return nil
}
