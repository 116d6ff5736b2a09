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

package analyzer_test

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
	"github.com/dolthub/tinyquery/sql/types"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	schema := []loaders.Field{
		{Name: "id", Type: loaders.FieldInteger},
		{Name: "name", Type: loaders.FieldString},
	}
	require.NoError(t, c.LoadTableFromCSV("ds", "people", schema, strings.NewReader("1,alice\n2,bob\n")))
	return c
}

func requestContext() *sql.RequestContext {
	return sql.NewRequestContext(stdctx.Background(), logrus.NewEntry(logrus.StandardLogger()), "test-job")
}

func compile(t *testing.T, c *catalog.Catalog, query string) error {
	t.Helper()
	sel, err := parse.Text(query)
	require.NoError(t, err)
	_, err = analyzer.New(c).Compile(requestContext(), sel)
	return err
}

func TestCompileSimpleSelect(t *testing.T) {
	c := newCatalog(t)
	require.NoError(t, compile(t, c, "SELECT id, name FROM ds.people WHERE id = 1"))
}

func TestCompileUnknownColumn(t *testing.T) {
	c := newCatalog(t)
	err := compile(t, c, "SELECT bogus FROM ds.people")
	require.Error(t, err)
}

func TestCompileUnknownTable(t *testing.T) {
	c := newCatalog(t)
	err := compile(t, c, "SELECT id FROM ds.missing")
	require.Error(t, err)
}

func TestCompileGroupBy(t *testing.T) {
	c := newCatalog(t)
	sel, err := parse.Text("SELECT name, count(1) FROM ds.people GROUP BY name")
	require.NoError(t, err)
	plan, err := analyzer.New(c).Compile(requestContext(), sel)
	require.NoError(t, err)
	assert.Len(t, plan.Fields, 2)
}

func TestCompileStarExpansion(t *testing.T) {
	c := newCatalog(t)
	sel, err := parse.Text("SELECT * FROM ds.people")
	require.NoError(t, err)
	plan, err := analyzer.New(c).Compile(requestContext(), sel)
	require.NoError(t, err)
	assert.Len(t, plan.Fields, 2)
}

func TestCompileAggregateWithoutGroupByInfersTrivialGroup(t *testing.T) {
	c := newCatalog(t)
	sel, err := parse.Text("SELECT count(1) FROM ds.people")
	require.NoError(t, err)
	plan, err := analyzer.New(c).Compile(requestContext(), sel)
	require.NoError(t, err)
	assert.True(t, plan.Groups.Trivial)
}

func TestCompileAggregateWithoutGroupByRejectsUngroupedColumn(t *testing.T) {
	c := newCatalog(t)
	err := compile(t, c, "SELECT name, count(1) FROM ds.people")
	require.Error(t, err)
}

func TestCompileWhereMustBeBoolean(t *testing.T) {
	c := newCatalog(t)
	err := compile(t, c, "SELECT id FROM ds.people WHERE id")
	require.Error(t, err)
}

func TestCompileGroupByRawColumn(t *testing.T) {
	c := newCatalog(t)
	sel, err := parse.Text("SELECT count(1) AS c FROM ds.people GROUP BY name")
	require.NoError(t, err)
	p, err := analyzer.New(c).Compile(requestContext(), sel)
	require.NoError(t, err)
	require.Len(t, p.Groups.FieldGroups, 1)
	assert.Empty(t, p.Groups.AliasGroups)
}

func TestCompileUnaliasedFunctionCallGetsGeneratedName(t *testing.T) {
	c := newCatalog(t)
	sel, err := parse.Text("SELECT count(1) FROM ds.people")
	require.NoError(t, err)
	p, err := analyzer.New(c).Compile(requestContext(), sel)
	require.NoError(t, err)
	require.Len(t, p.Fields, 1)
	assert.Equal(t, "f0_", p.Fields[0].Alias)
}

func TestCompileUnaliasedFunctionCallsSkipTakenNames(t *testing.T) {
	c := newCatalog(t)
	sel, err := parse.Text("SELECT count(1) AS f0_, count(id) FROM ds.people")
	require.NoError(t, err)
	p, err := analyzer.New(c).Compile(requestContext(), sel)
	require.NoError(t, err)
	require.Len(t, p.Fields, 2)
	assert.Equal(t, "f0_", p.Fields[0].Alias)
	assert.Equal(t, "f1_", p.Fields[1].Alias)
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

func TestCompileWithinRecordAggregatesOneGroupPerRow(t *testing.T) {
	c := repeatedCatalog(t)
	sel, err := parse.Text("SELECT id, sum(values) WITHIN RECORD AS total FROM ds.records")
	require.NoError(t, err)
	p, err := analyzer.New(c).Compile(requestContext(), sel)
	require.NoError(t, err)
	assert.True(t, p.Groups.PerRow)
	assert.False(t, p.Groups.Trivial)
	require.Len(t, p.Fields, 2)
	assert.Equal(t, "id", p.Fields[0].Alias)
	assert.Contains(t, p.Groups.AliasGroups, "id")
}

func TestCompileWithinFieldIsNotImplemented(t *testing.T) {
	c := repeatedCatalog(t)
	err := compile(t, c, "SELECT sum(values) WITHIN values AS total FROM ds.records")
	require.Error(t, err)
}

func TestCompileMultipleWithinClausesNotImplemented(t *testing.T) {
	c := repeatedCatalog(t)
	err := compile(t, c,
		"SELECT sum(values) WITHIN RECORD AS a, count(values) WITHIN RECORD AS b FROM ds.records")
	require.Error(t, err)
}
