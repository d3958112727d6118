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

package api

// apiVersion: sshpool/v1beta1
// kind: HostProfile

type (
	Version string
	Kind    string
)

const (
	APIVersionV1Beta1 Version = "sshpool/v1beta1"
	KindHostProfile   Kind    = "HostProfile"
)

// HostProfileDoc models one YAML document containing a HostProfile.
type HostProfileDoc struct {
	APIVersion Version             `json:"apiVersion" yaml:"apiVersion"`
	Kind       Kind                `json:"kind"       yaml:"kind"`
	Metadata   HostProfileMetadata `json:"metadata"   yaml:"metadata"`
	Spec       HostProfileSpec     `json:"spec"       yaml:"spec"`
}

type HostProfileMetadata struct {
	Name   string            `json:"name"             yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// HostProfileSpec holds connection defaults. Secrets are never stored in the
// file; PassphraseEnv and PasswordEnv name environment variables instead.
type HostProfileSpec struct {
	User           string `json:"user,omitempty"           yaml:"user,omitempty"`
	Port           int    `json:"port,omitempty"           yaml:"port,omitempty"`
	IdentityFile   string `json:"identityFile,omitempty"   yaml:"identityFile,omitempty"`
	PassphraseEnv  string `json:"passphraseEnv,omitempty"  yaml:"passphraseEnv,omitempty"`
	PasswordEnv    string `json:"passwordEnv,omitempty"    yaml:"passwordEnv,omitempty"`
	UseAgent       bool   `json:"useAgent,omitempty"       yaml:"useAgent,omitempty"`
	KnownHostsFile string `json:"knownHostsFile,omitempty" yaml:"knownHostsFile,omitempty"`
	StrictHostKey  bool   `json:"strictHostKey,omitempty"  yaml:"strictHostKey,omitempty"`
}
