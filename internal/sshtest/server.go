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

// Package sshtest runs an in-process SSH server for tests. Exec requests are
// answered by a Handler; no real shell is involved.
package sshtest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/pem"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// Result is what a Handler answers for one exec request. A negative Exit
// closes the channel without sending an exit-status.
type Result struct {
	Stdout string
	Stderr string
	Exit   int
}

// Handler answers one command. ctx is cancelled when the client signals or
// closes the channel.
type Handler func(ctx context.Context, command string) Result

type Options struct {
	User          string
	Password      string
	AuthorizedKey ssh.PublicKey
	Handler       Handler
	// Unresponsive completes the handshake and then never answers a
	// channel open, like a peer that went away without closing TCP.
	Unresponsive bool
}

type Server struct {
	Host    string
	Port    int
	HostKey ssh.PublicKey

	cfg          *ssh.ServerConfig
	handler      Handler
	listener     net.Listener
	unresponsive bool

	mu    sync.Mutex
	conns map[*ssh.ServerConn]struct{}
	execs []string
	wg    sync.WaitGroup
}

// Start listens on a loopback port and serves until the test ends.
func Start(t testing.TB, opts Options) *Server {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host signer: %v", err)
	}

	cfg := &ssh.ServerConfig{}
	switch {
	case opts.Password == "" && opts.AuthorizedKey == nil:
		cfg.NoClientAuth = true
	default:
		if opts.Password != "" {
			cfg.PasswordCallback = func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
				if (opts.User == "" || c.User() == opts.User) &&
					subtle.ConstantTimeCompare(pass, []byte(opts.Password)) == 1 {
					return &ssh.Permissions{}, nil
				}
				return nil, errors.New("password rejected")
			}
		}
		if opts.AuthorizedKey != nil {
			want := opts.AuthorizedKey.Marshal()
			cfg.PublicKeyCallback = func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
				if (opts.User == "" || c.User() == opts.User) &&
					subtle.ConstantTimeCompare(key.Marshal(), want) == 1 {
					return &ssh.Permissions{}, nil
				}
				return nil, errors.New("key rejected")
			}
		}
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)

	h := opts.Handler
	if h == nil {
		h = Echo
	}
	s := &Server{
		Host:         addr.IP.String(),
		Port:         addr.Port,
		HostKey:      signer.PublicKey(),
		cfg:          cfg,
		handler:      h,
		listener:     ln,
		conns:        make(map[*ssh.ServerConn]struct{}),
		unresponsive: opts.Unresponsive,
	}

	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Commands returns every command executed so far, in arrival order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.execs))
	copy(out, s.execs)
	return out
}

// DropConnections closes every client connection while keeping the listener.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*ssh.ServerConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) Close() {
	_ = s.listener.Close()
	s.DropConnections()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		raw, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleConn(raw)
	}
}

func (s *Server) handleConn(raw net.Conn) {
	defer s.wg.Done()
	sc, chans, reqs, err := ssh.NewServerConn(raw, s.cfg)
	if err != nil {
		_ = raw.Close()
		return
	}
	s.mu.Lock()
	s.conns[sc] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, sc)
		s.mu.Unlock()
		_ = sc.Close()
	}()

	go ssh.DiscardRequests(reqs)
	if s.unresponsive {
		_ = sc.Wait()
		return
	}
	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "only session channels")
			continue
		}
		ch, in, err := nc.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, in)
	}
}

func (s *Server) handleSession(ch ssh.Channel, in <-chan *ssh.Request) {
	defer ch.Close()

	var command string
	for req := range in {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		command = payload.Command
		_ = req.Reply(true, nil)
		break
	}
	if command == "" {
		return
	}

	s.mu.Lock()
	s.execs = append(s.execs, command)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for req := range in {
			if req.Type == "signal" {
				cancel()
			}
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
		cancel()
	}()

	res := s.handler(ctx, command)
	if ctx.Err() != nil {
		return
	}
	if res.Stdout != "" {
		_, _ = ch.Write([]byte(res.Stdout))
	}
	if res.Stderr != "" {
		_, _ = ch.Stderr().Write([]byte(res.Stderr))
	}
	if res.Exit >= 0 {
		status := struct{ Status uint32 }{uint32(res.Exit)}
		_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
	}
}

// Echo answers every command with the command text and exit 0.
func Echo(_ context.Context, command string) Result {
	return Result{Stdout: command + "\n"}
}

// Script answers known commands from a table; anything else exits 127.
func Script(table map[string]Result) Handler {
	return func(_ context.Context, command string) Result {
		if r, ok := table[command]; ok {
			return r
		}
		return Result{Stderr: command + ": command not found\n", Exit: 127}
	}
}

// Block waits until the client gives up on the command.
func Block(ctx context.Context, _ string) Result {
	<-ctx.Done()
	return Result{Exit: -1}
}

// GenerateKey returns a fresh client signer and its OpenSSH PEM encoding,
// encrypted when passphrase is non-empty.
func GenerateKey(t testing.TB, passphrase string) (ssh.Signer, []byte) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	}
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return signer, pem.EncodeToMemory(block)
}
