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


package manager

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/pkg/api"
)

func Test_PrintOutcomes_Text(t *testing.T) {
	outcomes := []api.HostOutcome{
		api.NewOutcome("web1", api.ActionConnected, nil),
		api.NewOutcome("web2", api.ActionFailed, errdefs.ErrAuthentication),
	}
	var buf bytes.Buffer
	if err := PrintOutcomes(&buf, outcomes, ""); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	want := "web1: connected\nweb2: failed: authentication failed\n"
	if buf.String() != want {
		t.Fatalf("expected '%v'; got: '%v'", want, buf.String())
	}
}

func Test_PrintOutcomes_Structured(t *testing.T) {
	outcomes := []api.HostOutcome{api.NewOutcome("db1", api.ActionAbsent, nil)}

	var buf bytes.Buffer
	if err := PrintOutcomes(&buf, outcomes, "json"); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if !strings.Contains(buf.String(), `"action": "absent"`) {
		t.Fatalf("unexpected json: %s", buf.String())
	}

	buf.Reset()
	if err := PrintOutcomes(&buf, outcomes, "yaml"); err != nil {
		t.Fatalf("expected no error; got: '%v'", err)
	}
	if !strings.Contains(buf.String(), "action: absent") {
		t.Fatalf("unexpected yaml: %s", buf.String())
	}

	err := PrintOutcomes(&buf, outcomes, "xml")
	if !errors.Is(err, errdefs.ErrInvalidOutputFormat) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrInvalidOutputFormat, err)
	}
}

func Test_AllFailed_Outcomes(t *testing.T) {
	failed := api.NewOutcome("a", api.ActionFailed, errdefs.ErrConnect)
	ok := api.NewOutcome("b", api.ActionAlreadyConnected, nil)

	if AllFailed(nil) {
		t.Fatal("expected an empty batch not to count as failed")
	}
	if !AllFailed([]api.HostOutcome{failed, failed}) {
		t.Fatal("expected all-failed batch")
	}
	if AllFailed([]api.HostOutcome{failed, ok}) {
		t.Fatal("expected partial failure not to count as all failed")
	}
}
