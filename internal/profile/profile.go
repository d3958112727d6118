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

// Package profile loads HostProfile documents and merges them into connect
// settings.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/pkg/api"
	"gopkg.in/yaml.v3"
)

// LoadProfilesFromPath reads a multi-document YAML file.
func LoadProfilesFromPath(_ context.Context, path string) ([]api.HostProfileDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file %q: %w", path, err)
	}
	defer f.Close()
	return LoadProfilesFromReader(f)
}

// LoadProfilesFromReader decodes one or more YAML documents from r,
// skipping empty ones.
func LoadProfilesFromReader(r io.Reader) ([]api.HostProfileDoc, error) {
	dec := yaml.NewDecoder(r)

	var out []api.HostProfileDoc
	for {
		var p api.HostProfileDoc
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: decode profile: %w", errdefs.ErrInvalidProfile, err)
		}
		if p.Metadata.Name == "" || p.APIVersion == "" || p.Kind == "" {
			slog.Debug("skipping empty/invalid profile document", "name", p.Metadata.Name)
			continue
		}
		if err := Validate(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func Validate(p *api.HostProfileDoc) error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", errdefs.ErrInvalidProfile)
	}
	if p.APIVersion != api.APIVersionV1Beta1 {
		return fmt.Errorf("%w: %q: unsupported apiVersion %q", errdefs.ErrInvalidProfile, p.Metadata.Name, p.APIVersion)
	}
	if p.Kind != api.KindHostProfile {
		return fmt.Errorf("%w: %q: invalid kind %q (expected %q)", errdefs.ErrInvalidProfile, p.Metadata.Name, p.Kind, api.KindHostProfile)
	}
	if p.Spec.Port < 0 || p.Spec.Port > 65535 {
		return fmt.Errorf("%w: %q: port %d", errdefs.ErrInvalidProfile, p.Metadata.Name, p.Spec.Port)
	}
	return nil
}

// FindProfileByName returns the profile whose metadata.name matches exactly.
func FindProfileByName(ctx context.Context, path, name string) (*api.HostProfileDoc, error) {
	profiles, err := LoadProfilesFromPath(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Metadata.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", errdefs.ErrProfileNotFound, name, path)
}

// ApplyProfile fills unset fields of spec and port from p. Values already
// set by the caller win. Secrets come from the environment variables the
// profile names, looked up with getenv.
func ApplyProfile(p *api.HostProfileDoc, spec *api.AuthSpec, port *int, getenv func(string) string) {
	if p == nil || spec == nil {
		return
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	s := p.Spec
	if spec.User == "" {
		spec.User = s.User
	}
	if port != nil && *port == 0 {
		*port = s.Port
	}
	if spec.KeyFile == "" {
		spec.KeyFile = expandHome(s.IdentityFile)
	}
	if spec.Passphrase == "" && s.PassphraseEnv != "" {
		spec.Passphrase = getenv(s.PassphraseEnv)
	}
	if spec.Password == "" && s.PasswordEnv != "" {
		spec.Password = getenv(s.PasswordEnv)
	}
	if spec.KnownHostsFile == "" {
		spec.KnownHostsFile = expandHome(s.KnownHostsFile)
	}
	spec.UseAgent = spec.UseAgent || s.UseAgent
	spec.StrictHostKey = spec.StrictHostKey || s.StrictHostKey
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// PrintProfilesTable renders a compact table of profiles.
func PrintProfilesTable(w io.Writer, profiles []api.HostProfileDoc) error {
	//nolint:mnd // tabwriter padding
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(profiles) == 0 {
		fmt.Fprintln(tw, "no profiles found")
		return tw.Flush()
	}

	fmt.Fprintln(tw, "NAME\tUSER\tPORT\tAUTH\tSTRICT")
	for _, p := range profiles {
		port := "-"
		if p.Spec.Port != 0 {
			port = fmt.Sprintf("%d", p.Spec.Port)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
			p.Metadata.Name,
			orDash(p.Spec.User),
			port,
			authSummary(p.Spec),
			p.Spec.StrictHostKey,
		)
	}
	return tw.Flush()
}

func authSummary(s api.HostProfileSpec) string {
	switch {
	case s.IdentityFile != "":
		return "key"
	case s.PasswordEnv != "":
		return "password"
	case s.UseAgent:
		return "agent"
	default:
		return "prompt"
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
