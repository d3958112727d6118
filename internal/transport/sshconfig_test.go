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
	"os"
	"path/filepath"
	"testing"
)

const sampleSSHConfig = `
Host bastion
  HostName 192.0.2.10
  Port 2222
  User ops

Host web*
  User deploy
`

func Test_SSHConfigResolver(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(p, []byte(sampleSSHConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	r, err := LoadSSHConfig(p)
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}

	got := r.Resolve("bastion").Apply(Target{Host: "bastion"})
	want := Target{Host: "bastion", DialHost: "192.0.2.10", Port: 2222, User: "ops"}
	if got != want {
		t.Fatalf("expected '%+v'; got: '%+v'", want, got)
	}

	got = r.Resolve("web1").Apply(Target{Host: "web1", Port: 22, User: "root"})
	want = Target{Host: "web1", Port: 22, User: "root"}
	if got != want {
		t.Fatalf("explicit values must win: expected '%+v'; got: '%+v'", want, got)
	}
}

func Test_LoadSSHConfig_Missing(t *testing.T) {
	r, err := LoadSSHConfig(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if res := r.Resolve("anything"); res != (Resolved{}) {
		t.Fatalf("expected empty resolution; got: '%+v'", res)
	}
}
