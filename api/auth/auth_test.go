// Copyright 2020-2021 Dolthub, Inc.
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

package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/api/auth"
)

func TestNoneAllowsEverything(t *testing.T) {
	a := auth.NewNone()
	require.True(t, a.Allowed(auth.ReadPerm, "d.t"))
	require.True(t, a.Allowed(auth.WritePerm, "d.t"))
	require.True(t, a.Allowed(auth.AllPermissions, "anything"))
}

func TestNativeSingleGrant(t *testing.T) {
	a := auth.NewNativeSingle(auth.ReadPerm)
	require.True(t, a.Allowed(auth.ReadPerm, "d.t"))
	require.False(t, a.Allowed(auth.WritePerm, "d.t"))
}

func TestNativeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grants.json")
	body := `[{"Table":"d.readonly","Permissions":["read"]},{"Table":"d.full","Permissions":["read","write"]}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	a, err := auth.NewNativeFile(path)
	require.NoError(t, err)
	require.True(t, a.Allowed(auth.ReadPerm, "d.readonly"))
	require.False(t, a.Allowed(auth.WritePerm, "d.readonly"))
	require.True(t, a.Allowed(auth.WritePerm, "d.full"))
	require.False(t, a.Allowed(auth.ReadPerm, "d.unknown"))
}

func TestNativeFileUnknownPermission(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grants.json")
	body := `[{"Table":"d.t","Permissions":["execute"]}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := auth.NewNativeFile(path)
	require.Error(t, err)
}

type recordingAudit struct {
	authorizations int
	lastAllowed    bool
}

func (r *recordingAudit) Authorization(ref string, p auth.Permission, allowed bool) {
	r.authorizations++
	r.lastAllowed = allowed
}

func (r *recordingAudit) Job(jobID string, d time.Duration, err error) {}

func TestAuditWrapsAllowed(t *testing.T) {
	rec := &recordingAudit{}
	a := auth.NewAudit(auth.NewNone(), rec)
	require.True(t, a.Allowed(auth.ReadPerm, "d.t"))
	require.Equal(t, 1, rec.authorizations)
	require.True(t, rec.lastAllowed)
}

func TestPermissionString(t *testing.T) {
	require.Equal(t, "read", auth.ReadPerm.String())
	require.Equal(t, "write", auth.WritePerm.String())
}
