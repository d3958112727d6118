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
	"path/filepath"

	"github.com/spf13/cobra"
)

func baseDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		// fallback to tmp if home dir cannot be determined
		base = "tmp"
	}
	return filepath.Join(base, ".sshpool")
}

func DefaultConfigFile() string {
	return filepath.Join(baseDir(), "config.yaml")
}

func DefaultProfilesFile() string {
	return filepath.Join(baseDir(), "profiles.yaml")
}

// GetProfilesFileFromEnvAndFlags resolves the profiles file for completion
// calls, which run before config is loaded.
func GetProfilesFileFromEnvAndFlags(cmd *cobra.Command) string {
	if f := cmd.Flag("profiles-file"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	if env := os.Getenv(PROFILES_FILE.Key); env != "" {
		return env
	}
	// final fallback: same default you use at runtime
	return DefaultProfilesFile()
}
