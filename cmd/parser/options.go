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


package parser

import (
	"strings"
	"time"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// IntOrGlobal returns the command value at key, or the global variable when
// the command left it at zero.
func IntOrGlobal(key string, global *config.Var, fallback int) int {
	if n := viper.GetInt(key); n != 0 {
		return n
	}
	return global.IntOrDefault(fallback)
}

func DurationOrGlobal(key string, global *config.Var, fallback time.Duration) time.Duration {
	if d := viper.GetDuration(key); d != 0 {
		return d
	}
	return global.DurationOrDefault(fallback)
}

// SplitCommand separates hosts from the remote command. The command comes
// from flagValue when set, otherwise from everything after "--".
func SplitCommand(cmd *cobra.Command, args []string, flagValue string) ([]string, string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return ParseHosts(args), flagValue
	}
	hosts := ParseHosts(args[:dash])
	if flagValue != "" {
		return hosts, flagValue
	}
	return hosts, strings.Join(args[dash:], " ")
}
