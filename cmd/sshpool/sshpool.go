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


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/sshpool/connect"
	"github.com/eminwux/sshpool/cmd/sshpool/console"
	"github.com/eminwux/sshpool/cmd/sshpool/inspect"
	"github.com/eminwux/sshpool/cmd/sshpool/invoke"
	"github.com/eminwux/sshpool/cmd/sshpool/profiles"
	"github.com/eminwux/sshpool/cmd/sshpool/remove"
	"github.com/eminwux/sshpool/cmd/sshpool/run"
	"github.com/eminwux/sshpool/cmd/sshpool/shell"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCmd() *cobra.Command {
	// rootCmd represents the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:   "sshpool",
		Short: "sshpool keeps SSH sessions to many hosts and runs commands across them",
		Long: `sshpool keeps a pool of SSH sessions keyed by host and runs commands
across them, one host after another or in parallel.

Running sshpool without a command starts the console, which keeps the pool
alive between commands. Outside the console every invocation starts with an
empty pool, so 'run' is the one-shot way to connect, invoke and disconnect.

Examples:
  sshpool
  sshpool run web1,web2 -u deploy -i ~/.ssh/id_ed25519 -- uptime
  sshpool profiles list

Inside the console:
  connect web1 web2 -u deploy --agent
  invoke --all -- df -h /
  shell web1
  inspect
  remove --all
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return prepare(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return console.Run(cmd, NewRootCmd)
		},
	}

	setupRootCmd(rootCmd)
	return rootCmd
}

func setupRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(connect.NewConnectCmd())
	rootCmd.AddCommand(invoke.NewInvokeCmd())
	rootCmd.AddCommand(remove.NewRemoveCmd())
	rootCmd.AddCommand(inspect.NewInspectCmd())
	rootCmd.AddCommand(shell.NewShellCmd())
	rootCmd.AddCommand(run.NewRunCmd())
	rootCmd.AddCommand(profiles.NewProfilesCmd())
	rootCmd.AddCommand(console.NewConsoleCmd(NewRootCmd))

	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.sshpool/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("profiles-file", "", "Host profiles file (default is $HOME/.sshpool/profiles.yaml)")
	rootCmd.PersistentFlags().String("ssh-config", "", "ssh client config used to resolve host aliases (default is $HOME/.ssh/config)")

	// Bind flag to Viper
	if err := viper.BindPFlag(config.CONFIG_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Warn("failed to bind flag", "flag", "config", "error", err)
	}
	if err := viper.BindPFlag(config.LOG_LEVEL.ViperKey, rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		slog.Warn("failed to bind flag", "flag", "log-level", "error", err)
	}
	if err := viper.BindPFlag(config.LOG_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		slog.Warn("failed to bind flag", "flag", "log-file", "error", err)
	}
	if err := viper.BindPFlag(config.PROFILES_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("profiles-file")); err != nil {
		slog.Warn("failed to bind flag", "flag", "profiles-file", "error", err)
	}
	if err := viper.BindPFlag(config.SSH_CONFIG_FILE.ViperKey, rootCmd.PersistentFlags().Lookup("ssh-config")); err != nil {
		slog.Warn("failed to bind flag", "flag", "ssh-config", "error", err)
	}
}

// prepare loads config and wires the logger and the pool into the command
// context. Commands run by the console find both already in place.
func prepare(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	holder, _ := ctx.Value(types.CtxRuntime).(*types.Runtime)
	logger, _ := ctx.Value(types.CtxLogger).(*slog.Logger)
	if holder.Ready() && logger != nil {
		return nil
	}
	if holder == nil {
		holder = &types.Runtime{}
	}

	if err := LoadConfig(); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrConfig, err)
	}

	if logger == nil {
		var closer io.Closer
		var err error
		logger, closer, err = newLogger(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("%w: %w", errdefs.ErrConfig, err)
		}
		holder.OnClose(closer)
	}

	if !holder.Ready() {
		resolver, err := transport.LoadSSHConfig(config.SSH_CONFIG_FILE.ValueOrDefault())
		if err != nil {
			return err
		}
		holder.Adopt(types.NewRuntime(logger, resolver))
	}

	ctx = context.WithValue(ctx, types.CtxLogger, logger)
	ctx = context.WithValue(ctx, types.CtxRuntime, holder)
	cmd.SetContext(ctx)

	logger.Debug("sshpool ready",
		"command", cmd.CommandPath(),
		"config", viper.ConfigFileUsed(),
		"log_level", config.LOG_LEVEL.ValueOrDefault(),
	)
	return nil
}

func newLogger(stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level := config.LOG_LEVEL.ValueOrDefault()
	if file := config.LOG_FILE.ValueOrDefault(); file != "" {
		return logging.NewFileLogger(file, level)
	}
	logger, _ := logging.NewLogger(stderr, level)
	return logger, nil, nil
}

func LoadConfig() error {
	_ = config.CONFIG_FILE.BindEnv()
	if path := viper.GetString(config.CONFIG_FILE.ViperKey); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		// Add the directory containing the config file
		viper.AddConfigPath(filepath.Dir(config.DefaultConfigFile()))
	}

	_ = config.PROFILES_FILE.BindEnv()
	config.PROFILES_FILE.SetDefault(config.DefaultProfilesFile())

	_ = config.SSH_CONFIG_FILE.BindEnv()
	config.SSH_CONFIG_FILE.SetDefault(transport.DefaultSSHConfigFile())

	_ = config.KNOWN_HOSTS_FILE.BindEnv()
	config.KNOWN_HOSTS_FILE.SetDefault(transport.DefaultKnownHostsFile())

	_ = config.LOG_LEVEL.BindEnv()
	config.LOG_LEVEL.SetDefault("info")

	for _, v := range []*config.Var{
		&config.LOG_FILE,
		&config.STRICT_HOST_KEY,
		&config.PARALLEL,
		&config.TIMEOUT,
		&config.CONNECT_TIMEOUT,
		&config.USER,
		&config.PORT,
	} {
		_ = v.BindEnv()
	}

	if err := viper.ReadInConfig(); err != nil {
		// File not found is OK if ENV is set
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return err // Config file was found but another error was produced
		}
	}

	return nil
}

// exitCode maps a command error to the process exit status: 2 when the
// command could not start its batch, 1 for any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errdefs.IsStructural(err):
		return 2
	default:
		return 1
	}
}
