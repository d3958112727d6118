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


package connect

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/parser"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/manager"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyPrefix      = "sshpool.connect"
	reconnectInput = "sshpool.connect.reconnect"
	parallelInput  = "sshpool.connect.parallel"
	outputFormat   = "sshpool.connect.output"
)

func NewConnectCmd() *cobra.Command {
	// connectCmd represents the connect command.
	cmd := &cobra.Command{
		Use:     "connect HOST...",
		Aliases: []string{"c", "conn"},
		Short:   "Open pooled sessions to one or more hosts",
		Long: `Open a session to every HOST and keep it in the pool.

Hosts that already have a live session are left alone unless --reconnect is
given. A host that cannot be reached is reported and the others proceed.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(cmd, args)
		},
	}

	setupConnectCmd(cmd)
	return cmd
}

func setupConnectCmd(cmd *cobra.Command) {
	parser.BindAuthFlags(cmd, keyPrefix)

	cmd.Flags().BoolP("reconnect", "r", false, "Replace live sessions with fresh ones")
	_ = viper.BindPFlag(reconnectInput, cmd.Flags().Lookup("reconnect"))

	cmd.Flags().IntP("parallel", "P", 0, "Connect to up to N hosts at once (default 1)")
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

func runConnect(cmd *cobra.Command, args []string) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}
	if len(args) == 0 {
		return errdefs.ErrMissingHostArgument
	}
	format := viper.GetString(outputFormat)
	if !parser.ValidOutputFormat(format) || format == "table" {
		return fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, format)
	}
	rt, err := types.RuntimeFrom(cmd.Context())
	if err != nil {
		return err
	}

	spec, port, err := parser.AuthFromFlags(cmd.Context(), keyPrefix, os.Getenv)
	if err != nil {
		return err
	}
	opts := manager.ConnectOptions{
		Reconnect: viper.GetBool(reconnectInput),
		Parallel:  parser.IntOrGlobal(parallelInput, &config.PARALLEL, 1),
	}
	hosts := parser.ParseHosts(args)

	logger.Debug("connect command invoked",
		"hosts", len(hosts),
		"user", spec.User,
		"port", port,
		"reconnect", opts.Reconnect,
		"parallel", opts.Parallel,
	)

	outcomes, err := rt.Manager.Connect(cmd.Context(), hosts, spec, port, opts)
	if err != nil {
		return err
	}
	if err := manager.PrintOutcomes(rt.Stdout, outcomes, format); err != nil {
		return err
	}
	if manager.AllFailed(outcomes) {
		return fmt.Errorf("%w: connect", errdefs.ErrAllTargetsFailed)
	}
	return nil
}
