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


package inspect

import (
	"fmt"
	"log/slog"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/parser"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	poolinspect "github.com/eminwux/sshpool/internal/inspect"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const outputFormat = "sshpool.inspect.output"

func NewInspectCmd() *cobra.Command {
	// inspectCmd represents the inspect command.
	cmd := &cobra.Command{
		Use:     "inspect [HOST...]",
		Aliases: []string{"ls", "status"},
		Short:   "Show pooled sessions",
		Long: `Show the state of every named HOST, or of the whole pool when none is given.

A host with no session is listed as absent.`,
		SilenceUsage:      true,
		ValidArgsFunction: config.CompletePooledHosts,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args)
		},
	}

	setupInspectCmd(cmd)
	return cmd
}

func setupInspectCmd(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output format: table|json|yaml")
	_ = viper.BindPFlag(outputFormat, cmd.Flags().Lookup("output"))

	_ = cmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
		},
	)
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}
	format := viper.GetString(outputFormat)
	if !parser.ValidOutputFormat(format) || format == "text" {
		return fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, format)
	}
	rt, err := types.RuntimeFrom(cmd.Context())
	if err != nil {
		return err
	}

	logger.Debug("inspect command invoked", "hosts", len(args), "output_format", format)

	statuses, err := poolinspect.Inspect(rt.Pool, parser.ParseHosts(args))
	if err != nil {
		return err
	}
	return poolinspect.Print(rt.Stdout, statuses, format)
}
