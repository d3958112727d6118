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


package remove

import (
	"fmt"
	"log/slog"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/parser"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/manager"
	"github.com/eminwux/sshpool/internal/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	allInput     = "sshpool.remove.all"
	yesInput     = "sshpool.remove.yes"
	outputFormat = "sshpool.remove.output"
)

func NewRemoveCmd() *cobra.Command {
	// removeCmd represents the remove command.
	cmd := &cobra.Command{
		Use:     "remove [HOST...] [--all]",
		Aliases: []string{"rm", "disconnect"},
		Short:   "Close pooled sessions and drop them from the pool",
		Long: `Close the session of every named HOST, or of every pooled host with --all.

Hosts with no session are reported as absent and the others proceed.`,
		SilenceUsage:      true,
		ValidArgsFunction: config.CompletePooledHosts,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args)
		},
	}

	setupRemoveCmd(cmd)
	return cmd
}

func setupRemoveCmd(cmd *cobra.Command) {
	cmd.Flags().BoolP("all", "a", false, "Remove every pooled host")
	_ = viper.BindPFlag(allInput, cmd.Flags().Lookup("all"))

	cmd.Flags().BoolP("yes", "y", false, "Do not ask before combining --all with named hosts")
	_ = viper.BindPFlag(yesInput, cmd.Flags().Lookup("yes"))

	cmd.Flags().StringP("output", "o", "", "Output format: text|json|yaml")
	_ = viper.BindPFlag(outputFormat, cmd.Flags().Lookup("output"))
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	confirm := prompt.LineConfirmer(rt.Stdin, rt.Stderr)
	if viper.GetBool(yesInput) {
		confirm = prompt.AlwaysYes
	}
	hosts := parser.ParseHosts(args)
	all := viper.GetBool(allInput)

	logger.Debug("remove command invoked", "hosts", len(hosts), "all", all)

	outcomes, err := rt.Manager.Remove(cmd.Context(), hosts, all, confirm)
	if err != nil {
		return err
	}
	return manager.PrintOutcomes(rt.Stdout, outcomes, format)
}
