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

package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eminwux/sshpool/internal/errdefs"
	"golang.org/x/term"
)

// SecretPrompter supplies a secret the user types without echo.
type SecretPrompter interface {
	ReadSecret(label string) (string, error)
}

// TermPrompter reads masked input from a terminal.
type TermPrompter struct {
	In  *os.File
	Out io.Writer
}

func NewTermPrompter() *TermPrompter {
	return &TermPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TermPrompter) ReadSecret(label string) (string, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: cannot prompt for %s", errdefs.ErrNotATerminal, label)
	}
	fmt.Fprintf(p.Out, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Confirmer asks a yes/no question.
type Confirmer func(question string) (bool, error)

func AlwaysYes(string) (bool, error) {
	return true, nil
}

// LineConfirmer reads one answer line; only y or yes accepts.
func LineConfirmer(r *bufio.Reader, w io.Writer) Confirmer {
	return func(question string) (bool, error) {
		fmt.Fprintf(w, "%s [y/N]: ", question)
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// Confirm runs c, treating a nil Confirmer as a refusal.
func Confirm(c Confirmer, question string) error {
	if c == nil {
		return errdefs.ErrConfirmationRequired
	}
	ok, err := c(question)
	if err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrConfirmationRequired, err)
	}
	if !ok {
		return errdefs.ErrConfirmationDeclined
	}
	return nil
}
