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
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/prompt"
	"github.com/eminwux/sshpool/pkg/api"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

const DefaultConnectTimeout = 10 * time.Second

// AuthMethod records which credential ResolveAuth picked.
type AuthMethod string

const (
	AuthKeyFile  AuthMethod = "key"
	AuthPassword AuthMethod = "password"
	AuthAgent    AuthMethod = "agent"
	AuthPrompt   AuthMethod = "prompt"
)

// Auth is a resolved credential shared by every host of one connect batch.
type Auth struct {
	Method          AuthMethod
	Methods         []ssh.AuthMethod
	HostKeyCallback ssh.HostKeyCallback
	Timeout         time.Duration

	// keyErr holds a key that exists but could not be parsed. It fails
	// each dial instead of the whole batch.
	keyErr error
	agent  net.Conn
}

// KeyError returns the deferred key parse failure, if any.
func (a *Auth) KeyError() error {
	return a.keyErr
}

func (a *Auth) Close() error {
	if a == nil || a.agent == nil {
		return nil
	}
	err := a.agent.Close()
	a.agent = nil
	return err
}

// ResolveAuth picks exactly one credential in the order key file, password,
// agent, interactive prompt. Structural problems are returned; a key that
// fails to parse is carried in the Auth and reported per host.
func ResolveAuth(logger *slog.Logger, spec api.AuthSpec, prompter prompt.SecretPrompter) (*Auth, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	hostKeys, err := HostKeyCallback(spec.KnownHostsFile, spec.StrictHostKey)
	if err != nil {
		return nil, err
	}

	timeout := spec.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	a := &Auth{HostKeyCallback: hostKeys, Timeout: timeout}

	switch {
	case spec.KeyFile != "":
		if _, statErr := os.Stat(spec.KeyFile); statErr != nil {
			return nil, fmt.Errorf("%w: %s", errdefs.ErrKeyFileNotFound, spec.KeyFile)
		}
		a.Method = AuthKeyFile
		signer, keyErr := LoadSigner(spec.KeyFile, spec.Passphrase)
		if keyErr != nil {
			logger.Warn("private key unusable", "path", spec.KeyFile, "error", keyErr)
			a.keyErr = keyErr
			return a, nil
		}
		a.Methods = []ssh.AuthMethod{ssh.PublicKeys(signer)}

	case spec.Password != "":
		a.Method = AuthPassword
		a.Methods = []ssh.AuthMethod{ssh.Password(spec.Password)}

	case spec.UseAgent:
		sock := spec.AgentSocket
		if sock == "" {
			sock = os.Getenv("SSH_AUTH_SOCK")
		}
		if sock == "" {
			return nil, fmt.Errorf("%w: agent requested but SSH_AUTH_SOCK is empty", errdefs.ErrNoCredential)
		}
		conn, dialErr := net.Dial("unix", sock)
		if dialErr != nil {
			return nil, fmt.Errorf("%w: agent: %w", errdefs.ErrNoCredential, dialErr)
		}
		a.Method = AuthAgent
		a.agent = conn
		a.Methods = []ssh.AuthMethod{ssh.PublicKeysCallback(agent.NewClient(conn).Signers)}

	case prompter != nil:
		label := "Password"
		if spec.User != "" {
			label = fmt.Sprintf("Password for %s", spec.User)
		}
		secret, promptErr := prompter.ReadSecret(label)
		if promptErr != nil {
			return nil, fmt.Errorf("%w: %w", errdefs.ErrNoCredential, promptErr)
		}
		if secret == "" {
			return nil, errdefs.ErrNoCredential
		}
		a.Method = AuthPrompt
		a.Methods = []ssh.AuthMethod{ssh.Password(secret)}

	default:
		return nil, errdefs.ErrNoCredential
	}

	logger.Debug("credential resolved", "method", a.Method, "user", spec.User)
	return a, nil
}

// LoadSigner reads a private key, optionally passphrase protected.
func LoadSigner(path, passphrase string) (ssh.Signer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errdefs.ErrKeyFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", errdefs.ErrLoadKey, err)
	}
	if passphrase != "" {
		s, perr := ssh.ParsePrivateKeyWithPassphrase(b, []byte(passphrase))
		if perr != nil {
			return nil, fmt.Errorf("%w: %w", errdefs.ErrLoadKey, perr)
		}
		return s, nil
	}
	s, err := ssh.ParsePrivateKey(b)
	if err == nil {
		return s, nil
	}
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return nil, fmt.Errorf("%w: %w", errdefs.ErrLoadKey, errdefs.ErrKeyPassphraseRequired)
	}
	return nil, fmt.Errorf("%w: %w", errdefs.ErrLoadKey, err)
}
