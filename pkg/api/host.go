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

import "time"

// HostStatus is the Inspector's view of one requested host. Connected is
// nil when the pool holds no entry for Host.
type HostStatus struct {
	Host      string `json:"host"           yaml:"host"`
	Present   bool   `json:"present"        yaml:"present"`
	Connected *bool  `json:"connected"      yaml:"connected"`
	State     string `json:"state,omitempty" yaml:"state,omitempty"`
	User      string `json:"user,omitempty" yaml:"user,omitempty"`
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
}

type OutcomeAction string

const (
	ActionConnected        OutcomeAction = "connected"
	ActionReconnected      OutcomeAction = "reconnected"
	ActionAlreadyConnected OutcomeAction = "already-connected"
	ActionFailed           OutcomeAction = "failed"
	ActionRemoved          OutcomeAction = "removed"
	ActionAbsent           OutcomeAction = "absent"
)

// Informational reports outcomes that are neither a change nor a failure:
// the host was already in the requested state.
func (a OutcomeAction) Informational() bool {
	return a == ActionAlreadyConnected || a == ActionAbsent
}

// HostOutcome is the per-host result of a Connect or Remove batch.
type HostOutcome struct {
	Host   string        `json:"host"            yaml:"host"`
	Action OutcomeAction `json:"action"          yaml:"action"`
	Err    error         `json:"-"               yaml:"-"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func NewOutcome(host string, action OutcomeAction, err error) HostOutcome {
	o := HostOutcome{Host: host, Action: action, Err: err}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// AuthSpec carries the credential for a connect batch. KeyFile wins over
// Password when both are set.
type AuthSpec struct {
	User           string        `json:"user"                     yaml:"user"`
	KeyFile        string        `json:"keyFile,omitempty"        yaml:"keyFile,omitempty"`
	Passphrase     string        `json:"-"                        yaml:"-"`
	Password       string        `json:"-"                        yaml:"-"`
	UseAgent       bool          `json:"useAgent,omitempty"       yaml:"useAgent,omitempty"`
	AgentSocket    string        `json:"agentSocket,omitempty"    yaml:"agentSocket,omitempty"`
	KnownHostsFile string        `json:"knownHostsFile,omitempty" yaml:"knownHostsFile,omitempty"`
	StrictHostKey  bool          `json:"strictHostKey,omitempty"  yaml:"strictHostKey,omitempty"`
	ConnectTimeout time.Duration `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"`
}
