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
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Var struct {
	Key        string // e.g. "SSHPOOL_LOG_LEVEL"
	ViperKey   string // optional, e.g. "sshpool.global.logLevel"
	Default    string // optional
	HasDefault bool
}

func DefineKV(envName, viperKey string, defaultVal ...string) Var {
	v := Var{Key: envName, ViperKey: viperKey}
	if len(defaultVal) > 0 {
		v.Default = defaultVal[0]
		v.HasDefault = true
	}
	return v
}

func (v *Var) EnvVar() string               { return v.Key }
func (v *Var) DefaultValue() (string, bool) { return v.Default, v.HasDefault }

// ValueOrDefault defines precedence: viper (if ViperKey set and value present) → OS env → default → "".
func (v *Var) ValueOrDefault() string {
	if v.ViperKey != "" && viper.IsSet(v.ViperKey) {
		if s := viper.GetString(v.ViperKey); s != "" {
			return s
		}
	}
	if val, ok := os.LookupEnv(v.Key); ok {
		return val
	}
	if v.HasDefault {
		return v.Default
	}
	return ""
}

// IntOrDefault parses ValueOrDefault, returning fallback when empty or malformed.
func (v *Var) IntOrDefault(fallback int) int {
	n, err := strconv.Atoi(v.ValueOrDefault())
	if err != nil {
		return fallback
	}
	return n
}

func (v *Var) BoolOrDefault(fallback bool) bool {
	b, err := strconv.ParseBool(v.ValueOrDefault())
	if err != nil {
		return fallback
	}
	return b
}

func (v *Var) DurationOrDefault(fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.ValueOrDefault())
	if err != nil {
		return fallback
	}
	return d
}

// BindEnv is safe if ViperKey is empty: does nothing.
func (v *Var) BindEnv() error {
	if v.ViperKey == "" {
		return nil
	}
	return viper.BindEnv(v.ViperKey, v.Key)
}

func (v *Var) Set(value string) error {
	return os.Setenv(v.Key, value)
}

func (v *Var) SetDefault(val string) {
	v.Default = val
	v.HasDefault = true
	if v.ViperKey != "" {
		viper.SetDefault(v.ViperKey, val)
	}
}

func KV(v Var, value string) string { return v.Key + "=" + value }

// ---- Declare statically (Viper key optional per var) ----.
var (
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	CONFIG_FILE = DefineKV("SSHPOOL_CONFIG_FILE", "sshpool.global.configFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_LEVEL = DefineKV("SSHPOOL_LOG_LEVEL", "sshpool.global.logLevel", "info")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_FILE = DefineKV("SSHPOOL_LOG_FILE", "sshpool.global.logFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	PROFILES_FILE = DefineKV("SSHPOOL_PROFILES_FILE", "sshpool.global.profilesFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SSH_CONFIG_FILE = DefineKV("SSHPOOL_SSH_CONFIG_FILE", "sshpool.global.sshConfigFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	KNOWN_HOSTS_FILE = DefineKV("SSHPOOL_KNOWN_HOSTS_FILE", "sshpool.global.knownHostsFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	STRICT_HOST_KEY = DefineKV("SSHPOOL_STRICT_HOST_KEY", "sshpool.global.strictHostKey", "false")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	PARALLEL = DefineKV("SSHPOOL_PARALLEL", "sshpool.global.parallel", "1")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	TIMEOUT = DefineKV("SSHPOOL_TIMEOUT", "sshpool.global.timeout", "0s")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	CONNECT_TIMEOUT = DefineKV("SSHPOOL_CONNECT_TIMEOUT", "sshpool.global.connectTimeout", "10s")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	USER = DefineKV("SSHPOOL_USER", "sshpool.global.user")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	PORT = DefineKV("SSHPOOL_PORT", "sshpool.global.port")
)
