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


package profiles

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/profile"
	"github.com/spf13/cobra"
)

func NewProfilesListCmd() *cobra.Command {
	// profilesListCmd represents the profiles list command.
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List available profiles",
		Long: `List available profiles.
This command reads every HostProfile document in the profiles file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errdefs.ErrTooManyArguments
			}
			return listProfiles(cmd)
		},
	}
}

func listProfiles(cmd *cobra.Command) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}
	path := config.PROFILES_FILE.ValueOrDefault()
	logger.Debug("profiles list command invoked", "profiles_file", path)

	docs, err := profile.LoadProfilesFromPath(cmd.Context(), path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return profile.PrintProfilesTable(cmd.OutOrStdout(), docs)
}
