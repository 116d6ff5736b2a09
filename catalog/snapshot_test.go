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

package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

func TestSnapshotRestore(t *testing.T) {
	c := New()
	name := sql.ColumnName{Column: "name"}
	order := []sql.ColumnName{name}
	columns := map[sql.ColumnName]*sql.Column{
		name: {Type: types.String, Mode: types.Required, Values: []interface{}{"a", "b"}},
	}
	c.AddTable("ds", "people", order, sql.NewContext(2, order, columns, nil))

	path := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, c.Snapshot(path))

	restored := New()
	require.NoError(t, restored.Restore(path))

	tbl, ok := restored.LookupTable("ds", "people")
	require.True(t, ok)
	require.Equal(t, 2, tbl.Context.NumRows)
	require.Equal(t, []interface{}{"a", "b"}, tbl.Context.Columns[name].Values)
}
