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
	"context"
	"fmt"

	"github.com/eminwux/sshpool/cmd/config"
	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/profile"
	"github.com/eminwux/sshpool/internal/transport"
	"github.com/eminwux/sshpool/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//nolint:gochecknoglobals // flag name to viper key suffix
var authKeys = map[string]string{
	"user":            "user",
	"port":            "port",
	"identity":        "identity",
	"passphrase-env":  "passphraseEnv",
	"password-env":    "passwordEnv",
	"agent":           "agent",
	"known-hosts":     "knownHosts",
	"strict-host-key": "strictHostKey",
	"connect-timeout": "connectTimeout",
	"profile":         "profile",
}

// BindAuthFlags registers the credential flags shared by connect and run,
// binding each one under prefix.
func BindAuthFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringP("user", "u", "", "Remote username (default from ssh_config or SSHPOOL_USER)")
	cmd.Flags().IntP("port", "p", 0, "Remote port (default 22 or ssh_config Port)")
	cmd.Flags().StringP("identity", "i", "", "Private key file")
	cmd.Flags().String("passphrase-env", "", "Environment variable holding the key passphrase")
	cmd.Flags().String("password-env", "", "Environment variable holding the password")
	cmd.Flags().Bool("agent", false, "Authenticate through the ssh-agent at SSH_AUTH_SOCK")
	cmd.Flags().String("known-hosts", "", "known_hosts file used with --strict-host-key")
	cmd.Flags().Bool("strict-host-key", false, "Verify host keys against known_hosts")
	cmd.Flags().Duration("connect-timeout", 0, "Dial and handshake timeout per host")
	cmd.Flags().String("profile", "", "Host profile supplying defaults")

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if suffix, ok := authKeys[f.Name]; ok {
			_ = viper.BindPFlag(prefix+"."+suffix, f)
		}
	})

	_ = cmd.RegisterFlagCompletionFunc(
		"profile",
		func(c *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			names, err := config.AutoCompleteListProfileNames(
				c.Context(), nil, config.GetProfilesFileFromEnvAndFlags(c),
			)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
	)
}

// AuthFromFlags builds the connect settings bound under prefix. Explicit
// flags win, then the named profile, then global config and environment.
func AuthFromFlags(ctx context.Context, prefix string, getenv func(string) string) (api.AuthSpec, int, error) {
	spec := api.AuthSpec{
		User:           viper.GetString(prefix + ".user"),
		KeyFile:        viper.GetString(prefix + ".identity"),
		UseAgent:       viper.GetBool(prefix + ".agent"),
		StrictHostKey:  viper.GetBool(prefix + ".strictHostKey"),
		ConnectTimeout: viper.GetDuration(prefix + ".connectTimeout"),
		KnownHostsFile: viper.GetString(prefix + ".knownHosts"),
	}
	port := viper.GetInt(prefix + ".port")
	if port < 0 || port > 65535 {
		return spec, 0, fmt.Errorf("%w: %d", errdefs.ErrInvalidPort, port)
	}
	if name := viper.GetString(prefix + ".passphraseEnv"); name != "" {
		spec.Passphrase = getenv(name)
	}
	if name := viper.GetString(prefix + ".passwordEnv"); name != "" {
		spec.Password = getenv(name)
		if spec.Password == "" {
			return spec, 0, fmt.Errorf("%w: %s is empty", errdefs.ErrNoCredential, name)
		}
	}

	if name := viper.GetString(prefix + ".profile"); name != "" {
		doc, err := profile.FindProfileByName(ctx, config.PROFILES_FILE.ValueOrDefault(), name)
		if err != nil {
			return spec, 0, err
		}
		profile.ApplyProfile(doc, &spec, &port, getenv)
	}

	if spec.User == "" {
		spec.User = config.USER.ValueOrDefault()
	}
	if port == 0 {
		port = config.PORT.IntOrDefault(0)
	}
	if spec.KnownHostsFile == "" {
		spec.KnownHostsFile = config.KNOWN_HOSTS_FILE.ValueOrDefault()
	}
	if !spec.StrictHostKey {
		spec.StrictHostKey = config.STRICT_HOST_KEY.BoolOrDefault(false)
	}
	if spec.ConnectTimeout <= 0 {
		spec.ConnectTimeout = config.CONNECT_TIMEOUT.DurationOrDefault(transport.DefaultConnectTimeout)
	}
	return spec, port, nil
}
