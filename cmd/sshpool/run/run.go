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


package run

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/parser"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/dispatch"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/manager"
	"github.com/eminwux/sshpool/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyPrefix     = "sshpool.run"
	commandInput  = "sshpool.run.command"
	quietInput    = "sshpool.run.quiet"
	timeoutInput  = "sshpool.run.timeout"
	parallelInput = "sshpool.run.parallel"
	outputFormat  = "sshpool.run.output"
)

func NewRunCmd() *cobra.Command {
	// runCmd represents the run command.
	cmd := &cobra.Command{
		Use:   "run HOST... [-c COMMAND | -- COMMAND...]",
		Short: "Connect, run one command and disconnect",
		Long: `Connect to every HOST, run the command on the hosts that connected and
close the sessions this command opened. Sessions that were already pooled
(inside the console) are used and left open.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args)
		},
	}

	setupRunCmd(cmd)
	return cmd
}

func setupRunCmd(cmd *cobra.Command) {
	parser.BindAuthFlags(cmd, keyPrefix)

	cmd.Flags().StringP("command", "c", "", "Command to run")
	_ = viper.BindPFlag(commandInput, cmd.Flags().Lookup("command"))

	cmd.Flags().BoolP("quiet", "q", false, "Suppress per-host progress lines")
	_ = viper.BindPFlag(quietInput, cmd.Flags().Lookup("quiet"))

	cmd.Flags().DurationP("timeout", "t", 0, "Per-host command timeout (0 waits forever)")
	_ = viper.BindPFlag(timeoutInput, cmd.Flags().Lookup("timeout"))

	cmd.Flags().IntP("parallel", "P", 0, "Work on up to N hosts at once (default 1)")
	_ = viper.BindPFlag(parallelInput, cmd.Flags().Lookup("parallel"))

	cmd.Flags().StringP("output", "o", "", "Output format: text|json|yaml")
	_ = viper.BindPFlag(outputFormat, cmd.Flags().Lookup("output"))
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}
	format := viper.GetString(outputFormat)
	if !parser.ValidOutputFormat(format) || format == "table" {
		return fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, format)
	}
	hosts, command := parser.SplitCommand(cmd, args, viper.GetString(commandInput))
	if len(hosts) == 0 {
		return errdefs.ErrMissingHostArgument
	}
	if strings.TrimSpace(command) == "" {
		return errdefs.ErrEmptyCommand
	}
	rt, err := types.RuntimeFrom(cmd.Context())
	if err != nil {
		return err
	}

	spec, port, err := parser.AuthFromFlags(cmd.Context(), keyPrefix, os.Getenv)
	if err != nil {
		return err
	}
	parallel := parser.IntOrGlobal(parallelInput, &config.PARALLEL, 1)
	quiet := viper.GetBool(quietInput)

	logger.Debug("run command invoked",
		"hosts", len(hosts),
		"command", logging.SanitizeForLog(command),
		"parallel", parallel,
	)

	outcomes, err := rt.Manager.Connect(cmd.Context(), hosts, spec, port, manager.ConnectOptions{Parallel: parallel})
	if err != nil {
		return err
	}
	live, opened := split(outcomes)
	if !quiet {
		for _, o := range outcomes {
			if o.Action == api.ActionFailed {
				fmt.Fprintf(rt.Stderr, "%s: %s: %s\n", o.Host, o.Action, o.Error)
			}
		}
	}
	defer func() {
		if len(opened) == 0 {
			return
		}
		if _, rmErr := rt.Manager.Remove(cmd.Context(), opened, false, nil); rmErr != nil {
			logger.Warn("could not close sessions opened by run", "error", rmErr)
		}
	}()
	if len(live) == 0 {
		return fmt.Errorf("%w: connect", errdefs.ErrAllTargetsFailed)
	}

	results, err := rt.Dispatcher.Invoke(
		cmd.Context(),
		dispatch.Targets{Hosts: live},
		command,
		dispatch.Options{
			Quiet:    quiet,
			Timeout:  parser.DurationOrGlobal(timeoutInput, &config.TIMEOUT, 0),
			Parallel: parallel,
		},
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

// split returns the hosts that ended up with a live session, and the subset
// this batch opened.
func split(outcomes []api.HostOutcome) ([]string, []string) {
	var live, opened []string
	for _, o := range outcomes {
		switch o.Action {
		case api.ActionConnected, api.ActionReconnected:
			live = append(live, o.Host)
			opened = append(opened, o.Host)
		case api.ActionAlreadyConnected:
			live = append(live, o.Host)
		}
	}
	return live, opened
}
