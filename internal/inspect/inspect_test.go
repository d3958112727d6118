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

package inspect

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/eminwux/sshpool/internal/errdefs"
	"github.com/eminwux/sshpool/internal/pool"
	"github.com/eminwux/sshpool/internal/transport"
)

func testPool(t *testing.T, hosts ...string) *pool.Exec {
	t.Helper()
	p := pool.NewSessionPoolExec(nil)
	for _, h := range hosts {
		p.Put(transport.NewTestConnection(h, transport.NewTestHandle()))
	}
	t.Cleanup(func() { _ = p.CloseAll() })
	return p
}

func Test_Inspect_NaturalSortWhenNoHosts(t *testing.T) {
	p := testPool(t, "10.0.0.2", "10.0.0.10", "10.0.0.1")

	st, err := Inspect(p, nil)
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	var got []string
	for _, s := range st {
		got = append(got, s.Host)
	}
	want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected '%v'; got: '%v'", want, got)
	}
}

func Test_Inspect_AbsentHasNilConnected(t *testing.T) {
	p := testPool(t, "web1", "web2")
	c, _ := p.Get("web2")
	_ = c.Disconnect()

	st, err := Inspect(p, []string{"web2", "ghost", "web1"})
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if st[0].Connected == nil || *st[0].Connected {
		t.Fatalf("expected web2 present and not connected; got: '%+v'", st[0])
	}
	if st[1].Present || st[1].Connected != nil {
		t.Fatalf("expected ghost absent with nil flag; got: '%+v'", st[1])
	}
	if st[2].Connected == nil || !*st[2].Connected || st[2].Port != transport.DefaultPort {
		t.Fatalf("expected web1 connected; got: '%+v'", st[2])
	}
	if p.Len() != 2 {
		t.Fatalf("inspect must not mutate the pool")
	}
}

func Test_Inspect_NoPool(t *testing.T) {
	if _, err := Inspect(nil, nil); !errors.Is(err, errdefs.ErrNoPool) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrNoPool, err)
	}
}

func Test_Print_Formats(t *testing.T) {
	p := testPool(t, "web1")
	st, _ := Inspect(p, []string{"web1", "ghost"})

	var table bytes.Buffer
	if err := Print(&table, st, ""); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "HOST") {
		t.Fatalf("unexpected table: '%s'", table.String())
	}
	if !strings.Contains(lines[2], "ghost") || !strings.Contains(lines[2], "absent") {
		t.Fatalf("unexpected absent row: '%s'", lines[2])
	}

	var js bytes.Buffer
	if err := Print(&js, st, "json"); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(js.Bytes(), &raw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if v, ok := raw[1]["connected"]; !ok || v != nil {
		t.Fatalf("expected connected:null for absent host; got: '%v'", raw[1])
	}

	var y bytes.Buffer
	if err := Print(&y, st, "yaml"); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if !strings.Contains(y.String(), "connected: null") {
		t.Fatalf("expected yaml null for absent host; got: '%s'", y.String())
	}

	if err := Print(&y, st, "csv"); !errors.Is(err, errdefs.ErrInvalidOutputFormat) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrInvalidOutputFormat, err)
	}
}

func Test_Print_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, nil, "table"); err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if buf.String() != NoSessionsString {
		t.Fatalf("expected '%q'; got: '%q'", NoSessionsString, buf.String())
	}
}
