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

package rowexec_test

import (
	stdctx "context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/analyzer"
	"github.com/dolthub/tinyquery/catalog"
	"github.com/dolthub/tinyquery/loaders"
	"github.com/dolthub/tinyquery/parse"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/rowexec"
	"github.com/dolthub/tinyquery/sql/types"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	schema := []loaders.Field{
		{Name: "id", Type: loaders.FieldInteger},
		{Name: "name", Type: loaders.FieldString},
	}
	require.NoError(t, c.LoadTableFromCSV("ds", "people", schema, strings.NewReader("1,alice\n2,bob\n3,bob\n")))
	return c
}

func run(t *testing.T, c *catalog.Catalog, query string) *sql.Context {
	t.Helper()
	sel, err := parse.Text(query)
	require.NoError(t, err)
	reqCtx := sql.NewRequestContext(stdctx.Background(), logrus.NewEntry(logrus.StandardLogger()), "test-job")
	compiled, err := analyzer.New(c).Compile(reqCtx, sel)
	require.NoError(t, err)
	out, err := rowexec.New(c).Execute(reqCtx, compiled)
	require.NoError(t, err)
	return out
}

func TestExecuteProjectionAndFilter(t *testing.T) {
	c := newCatalog(t)
	out := run(t, c, "SELECT name FROM ds.people WHERE id = 2")
	require.Equal(t, 1, out.NumRows)
	assert.Equal(t, "bob", out.Columns[out.Order[0]].Values[0])
}

func TestExecuteOrderByDesc(t *testing.T) {
	c := newCatalog(t)
	out := run(t, c, "SELECT id FROM ds.people ORDER BY id DESC")
	require.Equal(t, 3, out.NumRows)
	col := out.Columns[out.Order[0]]
	assert.EqualValues(t, 3, col.Values[0])
	assert.EqualValues(t, 1, col.Values[2])
}

func TestExecuteLimit(t *testing.T) {
	c := newCatalog(t)
	out := run(t, c, "SELECT id FROM ds.people ORDER BY id LIMIT 1")
	assert.Equal(t, 1, out.NumRows)
}

func TestExecuteGroupByCount(t *testing.T) {
	c := newCatalog(t)
	out := run(t, c, "SELECT name, count(1) AS c FROM ds.people GROUP BY name ORDER BY name")
	require.Equal(t, 2, out.NumRows)
	nameCol := out.Columns[out.Order[0]]
	countCol := out.Columns[out.Order[1]]
	assert.Equal(t, "alice", nameCol.Values[0])
	assert.EqualValues(t, 1, countCol.Values[0])
	assert.Equal(t, "bob", nameCol.Values[1])
	assert.EqualValues(t, 2, countCol.Values[1])
}

func TestExecuteGroupByRawColumn(t *testing.T) {
	c := newCatalog(t)
	out := run(t, c, "SELECT count(1) AS c FROM ds.people GROUP BY name ORDER BY c")
	require.Equal(t, 2, out.NumRows)
	countCol := out.Columns[out.Order[0]]
	assert.EqualValues(t, 1, countCol.Values[0])
	assert.EqualValues(t, 2, countCol.Values[1])
}

func repeatedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	schema := []loaders.Field{
		{Name: "id", Type: loaders.FieldInteger},
		{Name: "values", Type: loaders.FieldInteger, Mode: types.Repeated},
	}
	body := `{"id": 1, "values": [1, 2, 3]}` + "\n" + `{"id": 2, "values": [10, 20]}` + "\n"
	require.NoError(t, c.LoadTableFromNewlineDelimitedJSON("ds", "records", schema, strings.NewReader(body)))
	return c
}

func TestExecuteWithinRecordAggregatesPerRow(t *testing.T) {
	c := repeatedCatalog(t)
	out := run(t, c, "SELECT id, sum(values) WITHIN RECORD AS total FROM ds.records ORDER BY id")
	require.Equal(t, 2, out.NumRows)
	idCol := out.Columns[out.Order[0]]
	totalCol := out.Columns[out.Order[1]]
	assert.EqualValues(t, 1, idCol.Values[0])
	assert.EqualValues(t, 6, totalCol.Values[0])
	assert.EqualValues(t, 2, idCol.Values[1])
	assert.EqualValues(t, 30, totalCol.Values[1])
}

func TestExecuteJoin(t *testing.T) {
	c := newCatalog(t)
	schema := []loaders.Field{
		{Name: "id", Type: loaders.FieldInteger},
		{Name: "city", Type: loaders.FieldString},
	}
	require.NoError(t, c.LoadTableFromCSV("ds", "addresses", schema, strings.NewReader("1,NYC\n2,LA\n")))

	out := run(t, c, "SELECT ds.people.name, ds.addresses.city FROM ds.people JOIN ds.addresses ON ds.people.id = ds.addresses.id ORDER BY ds.people.name")
	require.Equal(t, 2, out.NumRows)
}
