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

package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	engine, records := personEngine("db", "person")
	db := sqlOpen(t, engine, t.Name())

	var id int64
	var name, email string
	var count int64

	cases := []struct {
		Name, Query string
		Pointers    Pointers
		Expect      Records
	}{
		{"Select All", "SELECT * FROM db.person ORDER BY id", Pointers{&id, &name, &email}, records},
		{"Select First", "SELECT * FROM db.person ORDER BY id LIMIT 1", Pointers{&id, &name, &email}, records.Rows(0)},
		{"Select Name", "SELECT name FROM db.person ORDER BY id", Pointers{&name}, records.Columns(1)},
		{"Select Count", "SELECT count(1) FROM db.person", Pointers{&count}, Records{{int64(len(records))}}},
		{"Select Where", "SELECT name, email FROM db.person WHERE name = 'Jane Doe'", Pointers{&name, &email}, Records{{"Jane Doe", "jane@doe.com"}}},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			rows, err := db.Query(c.Query)
			require.NoError(t, err, "Query")

			var i int
			for ; rows.Next(); i++ {
				require.NoError(t, rows.Scan(c.Pointers...), "Scan")
				values := c.Pointers.Values()

				if i >= len(c.Expect) {
					t.Errorf("Got row %d, expected %d total: %v", i+1, len(c.Expect), values)
					continue
				}
				assert.Equal(t, c.Expect[i], values, "Values")
			}

			require.NoError(t, rows.Err(), "Rows.Err")
			if i < len(c.Expect) {
				t.Errorf("Expected %d row(s), got %d", len(c.Expect), i)
			}
		})
	}
}

func TestExec(t *testing.T) {
	engine, records := personEngine("db", "person")
	db := sqlOpen(t, engine, t.Name())

	res, err := db.Exec("SELECT * FROM db.person")
	require.NoError(t, err, "Exec")

	count, err := res.RowsAffected()
	require.NoError(t, err, "RowsAffected")
	assert.EqualValues(t, len(records), count, "RowsAffected")
}

func TestQueryWithParamsRejected(t *testing.T) {
	engine, _ := personEngine("db", "person")
	db := sqlOpen(t, engine, t.Name())

	_, err := db.Query("SELECT * FROM db.person WHERE id = ?", 1)
	require.Error(t, err)
}
