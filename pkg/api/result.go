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

// ResultKind tags a CommandResult as success or one failure variant.
type ResultKind string

const (
	ResultSuccess    ResultKind = "success"
	ResultExitStatus ResultKind = "exit-status"
	ResultExecError  ResultKind = "exec-error"
	ResultTimeout    ResultKind = "timeout"
)

// CommandResult is the per-host outcome of one dispatched command. The same
// shape is returned for one target or many.
type CommandResult struct {
	Host        string     `json:"host"                  yaml:"host"`
	Output      string     `json:"output"                yaml:"output"`
	ErrorOutput string     `json:"errorOutput,omitempty" yaml:"errorOutput,omitempty"`
	Error       bool       `json:"error"                 yaml:"error"`
	ExitStatus  int        `json:"exitStatus"            yaml:"exitStatus"`
	Kind        ResultKind `json:"kind"                  yaml:"kind"`
}

func (r CommandResult) Succeeded() bool {
	return !r.Error
}
