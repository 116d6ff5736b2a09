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

package tinyquery_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery"
	"github.com/dolthub/tinyquery/catalog"
	"github.com/dolthub/tinyquery/loaders"
)

func newTestEngine(t *testing.T) *tinyquery.Engine {
	t.Helper()
	engine := tinyquery.New(tinyquery.Config{})
	schema := []loaders.Field{
		{Name: "id", Type: loaders.FieldInteger},
		{Name: "name", Type: loaders.FieldString},
	}
	require.NoError(t, engine.Catalog.LoadTableFromCSV("ds", "people", schema, strings.NewReader("1,alice\n2,bob\n")))
	return engine
}

func TestEngineQuery(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Query("SELECT name FROM ds.people WHERE id = 2")
	require.NoError(t, err)
	require.Equal(t, 1, result.NumRows)
	assert.Equal(t, "bob", result.Columns[result.Order[0]].Values[0])
}

func TestEngineQueryParseError(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Query("SELECT FROM")
	require.Error(t, err)
}

func TestEngineCopy(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Copy("ds", "people", "ds2", "people", catalog.CreateIfNeeded, catalog.WriteEmpty))

	result, err := engine.Query("SELECT count(1) FROM ds2.people")
	require.NoError(t, err)
	assert.EqualValues(t, int64(2), result.Columns[result.Order[0]].Values[0])
}

func TestEngineReadOnlyRejectsCopy(t *testing.T) {
	engine := newTestEngine(t)
	engine.SetReadOnly(true)
	assert.True(t, engine.IsReadOnly())

	err := engine.Copy("ds", "people", "ds2", "people", catalog.CreateIfNeeded, catalog.WriteEmpty)
	require.Error(t, err)
}
