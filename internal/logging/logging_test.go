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


package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func Test_ParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"err":     slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected '%v'; got: '%v'", in, want, got)
		}
	}
}

func Test_ReformatHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := NewLogger(&buf, "info")

	logger.With("op", "connect").Warn("dial failed", "host", "web1")

	line := buf.String()
	if !strings.HasSuffix(line, " WARN \"dial failed\" op=connect host=web1\n") {
		t.Fatalf("unexpected log line: '%v'", line)
	}
}

func Test_ReformatHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, levelVar := NewLogger(&buf, "info")

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output; got: '%v'", buf.String())
	}

	levelVar.Set(slog.LevelDebug)
	logger.Debug("shown")
	if !strings.Contains(buf.String(), "DEBUG \"shown\"") {
		t.Fatalf("expected debug line; got: '%v'", buf.String())
	}
}

func Test_NewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sshpool.log")

	logger, closer, err := NewFileLogger(path, "info")
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	logger.Info("started")
	if err := closer.Close(); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if !strings.Contains(string(data), "INFO \"started\"") {
		t.Fatalf("unexpected file contents: '%v'", string(data))
	}
}

func Test_NewFileLogger_EmptyArgs(t *testing.T) {
	if _, _, err := NewFileLogger("", "info"); err == nil {
		t.Fatalf("expected error for empty logfile")
	}
}

func Test_SanitizeForLog(t *testing.T) {
	got := SanitizeForLog("uptime\n\x1b[31mred\tx\x7f")
	if got != "uptime [31mred x" {
		t.Fatalf("expected '%v'; got: '%v'", "uptime [31mred x", got)
	}
}
