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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/loaders"
	"github.com/dolthub/tinyquery/sql"
)

func schema() []loaders.Field {
	return []loaders.Field{
		{Name: "id", Type: loaders.FieldInteger},
		{Name: "name", Type: loaders.FieldString},
	}
}

func TestMakeEmptyTable(t *testing.T) {
	c := New()
	require.NoError(t, c.MakeEmptyTable("ds", "t", schema()))

	tbl, ok := c.LookupTable("ds", "t")
	require.True(t, ok)
	assert.Equal(t, 0, tbl.Context.NumRows)
	assert.ElementsMatch(t, []string{"id", "name"}, columnNames(tbl.Columns))
}

func columnNames(order []sql.ColumnName) []string {
	out := make([]string, len(order))
	for i, n := range order {
		out[i] = n.Column
	}
	return out
}

func TestLoadTableFromCSV(t *testing.T) {
	c := New()
	r := strings.NewReader("1,alice\n2,bob\n")
	require.NoError(t, c.LoadTableFromCSV("ds", "t", schema(), r))

	tbl, ok := c.LookupTable("ds", "t")
	require.True(t, ok)
	assert.Equal(t, 2, tbl.Context.NumRows)
}

func TestDeleteTable(t *testing.T) {
	c := New()
	require.NoError(t, c.MakeEmptyTable("ds", "t", schema()))
	c.DeleteTable("ds", "t")
	_, ok := c.LookupTable("ds", "t")
	assert.False(t, ok)

	// Deleting an already-absent table is a no-op, not an error.
	c.DeleteTable("ds", "t")
}

func TestListTables(t *testing.T) {
	c := New()
	require.NoError(t, c.MakeEmptyTable("ds", "b", schema()))
	require.NoError(t, c.MakeEmptyTable("ds", "a", schema()))
	assert.Equal(t, []string{"ds.a", "ds.b"}, c.ListTables())
}

func TestCopyCreateNeverOnMissingDestination(t *testing.T) {
	c := New()
	r := strings.NewReader("1,alice\n")
	require.NoError(t, c.LoadTableFromCSV("src", "t", schema(), r))

	err := c.Copy("src", "t", "dst", "t", CreateNever, WriteEmpty)
	require.Error(t, err)
}

func TestCopyCreateIfNeeded(t *testing.T) {
	c := New()
	r := strings.NewReader("1,alice\n2,bob\n")
	require.NoError(t, c.LoadTableFromCSV("src", "t", schema(), r))

	require.NoError(t, c.Copy("src", "t", "dst", "t", CreateIfNeeded, WriteEmpty))

	tbl, ok := c.LookupTable("dst", "t")
	require.True(t, ok)
	assert.Equal(t, 2, tbl.Context.NumRows)
}

func TestCopyWriteEmptyRejectsNonEmptyDestination(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadTableFromCSV("src", "t", schema(), strings.NewReader("1,alice\n")))
	require.NoError(t, c.LoadTableFromCSV("dst", "t", schema(), strings.NewReader("9,z\n")))

	err := c.Copy("src", "t", "dst", "t", CreateIfNeeded, WriteEmpty)
	require.Error(t, err)
}

func TestCopyWriteTruncate(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadTableFromCSV("src", "t", schema(), strings.NewReader("1,alice\n")))
	require.NoError(t, c.LoadTableFromCSV("dst", "t", schema(), strings.NewReader("9,z\n8,y\n")))

	require.NoError(t, c.Copy("src", "t", "dst", "t", CreateIfNeeded, WriteTruncate))

	tbl, ok := c.LookupTable("dst", "t")
	require.True(t, ok)
	assert.Equal(t, 1, tbl.Context.NumRows)
}

func TestCopyWriteAppend(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadTableFromCSV("src", "t", schema(), strings.NewReader("1,alice\n")))
	require.NoError(t, c.LoadTableFromCSV("dst", "t", schema(), strings.NewReader("9,z\n")))

	require.NoError(t, c.Copy("src", "t", "dst", "t", CreateIfNeeded, WriteAppend))

	tbl, ok := c.LookupTable("dst", "t")
	require.True(t, ok)
	assert.Equal(t, 2, tbl.Context.NumRows)
}

func TestCopySourceNotFound(t *testing.T) {
	c := New()
	err := c.Copy("src", "missing", "dst", "t", CreateIfNeeded, WriteEmpty)
	require.Error(t, err)
}
