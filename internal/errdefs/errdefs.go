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

package errdefs

import "errors"

// Structural errors abort the enclosing operation.
var (
	ErrFuncNotSet            = errors.New("function not set")
	ErrNoPool                = errors.New("no session pool configured")
	ErrNoDialer              = errors.New("no transport dialer configured")
	ErrNoTargets             = errors.New("no target hosts resolved")
	ErrEmptyHost             = errors.New("host identifier is empty")
	ErrEmptyCommand          = errors.New("command is empty")
	ErrInvalidPort           = errors.New("invalid port")
	ErrNoCredential          = errors.New("no credential supplied: provide a key file, a password or run interactively")
	ErrNoUser                = errors.New("no username supplied")
	ErrKeyFileNotFound       = errors.New("key file not found")
	ErrKnownHostsNotFound    = errors.New("known_hosts file not found and strict host key checking is enabled")
	ErrConfirmationRequired  = errors.New("explicit hosts and --all given together: confirmation required")
	ErrConfirmationDeclined  = errors.New("confirmation declined")
	ErrSessionNotFound       = errors.New("no session for host")
	ErrConnectionLost        = errors.New("connection lost")
	ErrNotATerminal          = errors.New("input is not a terminal")
	ErrConfig                = errors.New("config error")
	ErrLoggerNotFound        = errors.New("logger not found in context")
	ErrPoolNotFound          = errors.New("session pool not found in context")
	ErrInvalidFlag           = errors.New("invalid flag usage")
	ErrInvalidOutputFormat   = errors.New("invalid output format")
	ErrTooManyArguments      = errors.New("too many arguments")
	ErrMissingHostArgument   = errors.New("a host argument is required")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrInvalidProfile        = errors.New("invalid profile")
	ErrAllTargetsFailed      = errors.New("command failed on every target")
	ErrConsoleParse          = errors.New("could not parse console line")
	ErrSSHConfig             = errors.New("could not load ssh client config")
	ErrConnectionDisposed    = errors.New("connection has been disposed")
	ErrConnectionNotLive     = errors.New("connection is not connected")
	ErrKeyPassphraseRequired = errors.New("private key is encrypted; provide --passphrase-env")
)

// Per-host errors are captured into that host's outcome and never abort a batch.
var (
	ErrConnect        = errors.New("connect failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrLoadKey        = errors.New("could not load private key")
	ErrCommandExec    = errors.New("command execution failed")
	ErrCommandTimeout = errors.New("command timed out")
	ErrConnectTimeout = errors.New("connect timed out")
)

//nolint:gochecknoglobals // classification table
var structural = []error{
	ErrNoPool,
	ErrNoDialer,
	ErrNoTargets,
	ErrEmptyHost,
	ErrEmptyCommand,
	ErrInvalidPort,
	ErrNoCredential,
	ErrNoUser,
	ErrKeyFileNotFound,
	ErrKnownHostsNotFound,
	ErrConfirmationRequired,
	ErrConfirmationDeclined,
	ErrSessionNotFound,
	ErrConnectionLost,
	ErrNotATerminal,
	ErrSSHConfig,
}

// IsStructural reports whether err belongs to the fatal class.
func IsStructural(err error) bool {
	if err == nil {
		return false
	}
	for _, s := range structural {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
