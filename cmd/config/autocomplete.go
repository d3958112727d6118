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


package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/eminwux/sshpool/cmd/types"
	"github.com/eminwux/sshpool/internal/logging"
	"github.com/eminwux/sshpool/internal/pool"
	"github.com/eminwux/sshpool/internal/profile"
	"github.com/spf13/cobra"
)

func AutoCompleteListProfileNames(ctx context.Context, logger *slog.Logger, profilesFile string) ([]string, error) {
	// logger is not set on autocomplete calls
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	profiles, err := profile.LoadProfilesFromPath(ctx, profilesFile)
	if err != nil {
		logger.ErrorContext(ctx, "ListProfiles: failed to load profiles", "path", profilesFile, "error", err)
		return nil, err
	}
	if profiles == nil {
		return nil, errors.New("no profiles found")
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Metadata.Name)
	}
	return names, nil
}

// AutoCompleteListHosts returns pooled host identifiers starting with
// toComplete, skipping the ones already present in args.
func AutoCompleteListHosts(p pool.SessionPool, args []string, toComplete string) []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(args))
	for _, a := range args {
		seen[a] = struct{}{}
	}

	var out []string
	for _, h := range p.Hosts() {
		if _, dup := seen[h]; dup {
			continue
		}
		if toComplete == "" || strings.HasPrefix(h, toComplete) {
			out = append(out, h)
		}
	}
	return out
}

// CompletePooledHosts is a ValidArgsFunction offering the hosts held by the
// pool in the command context.
func CompletePooledHosts(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	rt, err := types.RuntimeFrom(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return AutoCompleteListHosts(rt.Pool, args, toComplete), cobra.ShellCompDirectiveNoFileComp
}
