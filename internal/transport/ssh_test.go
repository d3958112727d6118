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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/sshtest"
	"github.com/eminwux/sshpool/pkg/api"
	"golang.org/x/crypto/ssh/knownhosts"
)

func dialTestServer(t *testing.T, srv *sshtest.Server, spec api.AuthSpec) (*Connection, error) {
	t.Helper()
	auth, err := ResolveAuth(nil, spec, nil)
	if err != nil {
		t.Fatalf("resolve auth: %v", err)
	}
	t.Cleanup(func() { _ = auth.Close() })
	target := Target{Host: srv.Host, Port: srv.Port, User: spec.User}
	return Connect(context.Background(), nil, NewSSHDialer(nil), target, auth)
}

func Test_SSHDialer_PasswordRun(t *testing.T) {
	srv := sshtest.Start(t, sshtest.Options{
		User:     "alice",
		Password: "pw",
		Handler: sshtest.Script(map[string]sshtest.Result{
			"hostname": {Stdout: "web1\n"},
			"false":    {Stderr: "boom\n", Exit: 1},
			"lost":     {Stdout: "partial", Exit: -1},
		}),
	})

	c, err := dialTestServer(t, srv, api.AuthSpec{User: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	defer c.Dispose()

	out, err := c.Run(context.Background(), "hostname")
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if out.Stdout != "web1\n" || out.ExitStatus != 0 {
		t.Fatalf("expected '%v'; got: '%+v'", "web1\\n exit 0", out)
	}

	out, err = c.Run(context.Background(), "false")
	if err != nil {
		t.Fatalf("non-zero exit must not be an error; got: '%v'", err)
	}
	if out.ExitStatus != 1 || out.Stderr != "boom\n" {
		t.Fatalf("expected '%v'; got: '%+v'", "boom\\n exit 1", out)
	}

	out, err = c.Run(context.Background(), "lost")
	if !errors.Is(err, errdefs.ErrCommandExec) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrCommandExec, err)
	}
	if out.ExitStatus != -1 {
		t.Fatalf("expected '%v'; got: '%v'", -1, out.ExitStatus)
	}
}

func Test_SSHDialer_WrongPassword(t *testing.T) {
	srv := sshtest.Start(t, sshtest.Options{User: "alice", Password: "pw"})

	_, err := dialTestServer(t, srv, api.AuthSpec{User: "alice", Password: "nope"})
	if !errors.Is(err, errdefs.ErrAuthentication) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrAuthentication, err)
	}
}

func Test_SSHDialer_Unreachable(t *testing.T) {
	srv := sshtest.Start(t, sshtest.Options{})
	srv.Close()

	_, err := dialTestServer(t, srv, api.AuthSpec{User: "alice", Password: "pw"})
	if !errors.Is(err, errdefs.ErrConnect) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrConnect, err)
	}
}

func Test_SSHDialer_KeyAuth(t *testing.T) {
	signer, pemBytes := sshtest.GenerateKey(t, "")
	srv := sshtest.Start(t, sshtest.Options{User: "bob", AuthorizedKey: signer.PublicKey()})

	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyPath, pemBytes, 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := dialTestServer(t, srv, api.AuthSpec{User: "bob", KeyFile: keyPath, Password: "ignored"})
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	defer c.Dispose()
	if !c.IsConnected() {
		t.Fatalf("expected connected")
	}
}

func Test_SSHDialer_CommandTimeout(t *testing.T) {
	srv := sshtest.Start(t, sshtest.Options{
		Handler: func(ctx context.Context, command string) sshtest.Result {
			if command == "sleep" {
				return sshtest.Block(ctx, command)
			}
			return sshtest.Echo(ctx, command)
		},
	})

	c, err := dialTestServer(t, srv, api.AuthSpec{User: "u", Password: "x"})
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	defer c.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.Run(ctx, "sleep")
	if !errors.Is(err, errdefs.ErrCommandTimeout) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrCommandTimeout, err)
	}

	out, err := c.Run(context.Background(), "after")
	if err != nil {
		t.Fatalf("connection must survive a timed out command; got: '%v'", err)
	}
	if out.Stdout != "after\n" {
		t.Fatalf("expected '%v'; got: '%v'", "after\\n", out.Stdout)
	}
}

func Test_SSHDialer_UnresponsivePeerTimesOut(t *testing.T) {
	srv := sshtest.Start(t, sshtest.Options{Unresponsive: true})

	c, err := dialTestServer(t, srv, api.AuthSpec{User: "u", Password: "x"})
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	defer c.Dispose()
	if !c.IsConnected() {
		t.Fatalf("expected connected after handshake")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, runErr := c.Run(ctx, "uptime")
		errCh <- runErr
	}()

	select {
	case err = <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatalf("Run with a 200ms deadline still blocked after 3s")
	}
	if !errors.Is(err, errdefs.ErrCommandTimeout) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrCommandTimeout, err)
	}

	waitClosed(t, c)
	if c.IsConnected() {
		t.Fatalf("expected the stalled transport to be closed")
	}

	next := make(chan error, 1)
	go func() {
		_, runErr := c.Run(context.Background(), "uptime")
		next <- runErr
	}()
	select {
	case err = <-next:
	case <-time.After(3 * time.Second):
		t.Fatalf("command slot still held after timeout")
	}
	if !errors.Is(err, errdefs.ErrConnectionNotLive) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrConnectionNotLive, err)
	}
}

func Test_SSHDialer_ServerDrop(t *testing.T) {
	srv := sshtest.Start(t, sshtest.Options{})
	c, err := dialTestServer(t, srv, api.AuthSpec{User: "u", Password: "x"})
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	defer c.Dispose()

	srv.DropConnections()
	waitClosed(t, c)
	if c.IsConnected() {
		t.Fatalf("expected IsConnected false after server drop")
	}
}

func Test_SSHDialer_StrictHostKey(t *testing.T) {
	srv := sshtest.Start(t, sshtest.Options{})
	other := sshtest.Start(t, sshtest.Options{})

	kh := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(srv.Addr())}, srv.HostKey) + "\n"
	if err := os.WriteFile(kh, []byte(line), 0o600); err != nil {
		t.Fatal(err)
	}
	spec := api.AuthSpec{User: "u", Password: "x", KnownHostsFile: kh, StrictHostKey: true}

	c, err := dialTestServer(t, srv, spec)
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	_ = c.Dispose()

	if _, err = dialTestServer(t, other, spec); !errors.Is(err, errdefs.ErrConnect) {
		t.Fatalf("unknown host key: expected '%v'; got: '%v'", errdefs.ErrConnect, err)
	}
}
