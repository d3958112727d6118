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

package transport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/kevinburke/ssh_config"
)

// Resolved holds ssh_config values for one alias. Zero fields mean unset.
type Resolved struct {
	HostName string
	Port     int
	User     string
}

// Resolver maps a host identifier to dial settings without changing the
// identifier itself.
type Resolver interface {
	Resolve(alias string) Resolved
}

type SSHConfigResolver struct {
	cfg *ssh_config.Config
}

func DefaultSSHConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "config")
}

// LoadSSHConfig parses an OpenSSH client config. A missing file yields a
// resolver that resolves nothing.
func LoadSSHConfig(path string) (*SSHConfigResolver, error) {
	if path == "" {
		path = DefaultSSHConfigFile()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SSHConfigResolver{}, nil
		}
		return nil, fmt.Errorf("%w: %w", errdefs.ErrSSHConfig, err)
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errdefs.ErrSSHConfig, path, err)
	}
	return &SSHConfigResolver{cfg: cfg}, nil
}

func (r *SSHConfigResolver) Resolve(alias string) Resolved {
	var res Resolved
	if r == nil || r.cfg == nil {
		return res
	}
	if v, _ := r.cfg.Get(alias, "HostName"); v != "" {
		res.HostName = v
	}
	if v, _ := r.cfg.Get(alias, "Port"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			res.Port = p
		}
	}
	if v, _ := r.cfg.Get(alias, "User"); v != "" {
		res.User = v
	}
	return res
}

// Apply fills the unset fields of t. Host is left untouched.
func (res Resolved) Apply(t Target) Target {
	if res.HostName != "" && res.HostName != t.Host {
		t.DialHost = res.HostName
	}
	if t.Port == 0 && res.Port != 0 {
		t.Port = res.Port
	}
	if t.User == "" && res.User != "" {
		t.User = res.User
	}
	return t
}
