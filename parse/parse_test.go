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

package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/parse"
)

func TestParseSimpleSelect(t *testing.T) {
	sel, err := parse.Text("SELECT a, b FROM ds.t WHERE a = 1")
	require.NoError(t, err)
	require.Len(t, sel.SelectFields, 2)
	require.NotNil(t, sel.TableExpr)
	require.NotNil(t, sel.WhereExpr)
}

func TestParseSelectStar(t *testing.T) {
	sel, err := parse.Text("SELECT * FROM ds.t")
	require.NoError(t, err)
	require.Len(t, sel.SelectFields, 1)
}

func TestParseGroupByAndHaving(t *testing.T) {
	sel, err := parse.Text("SELECT a, count(1) FROM ds.t GROUP BY a HAVING count(1) > 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sel.Groups)
	assert.NotNil(t, sel.HavingExpr)
}

func TestParseOrderByAndLimit(t *testing.T) {
	sel, err := parse.Text("SELECT a FROM ds.t ORDER BY a DESC LIMIT 5")
	require.NoError(t, err)
	require.Len(t, sel.Orderings, 1)
	assert.True(t, sel.HasLimit)
	assert.EqualValues(t, 5, sel.Limit)
}

func TestParseJoin(t *testing.T) {
	sel, err := parse.Text("SELECT * FROM ds.a JOIN ds.b ON ds.a.id = ds.b.id")
	require.NoError(t, err)
	require.NotNil(t, sel.TableExpr)
}

func TestParseCaseExpression(t *testing.T) {
	sel, err := parse.Text("SELECT CASE WHEN a > 1 THEN 'big' ELSE 'small' END FROM ds.t")
	require.NoError(t, err)
	require.Len(t, sel.SelectFields, 1)
}

func TestParseAliasAndWithinRecord(t *testing.T) {
	sel, err := parse.Text("SELECT count(1) WITHIN RECORD AS c FROM ds.t")
	require.NoError(t, err)
	require.Len(t, sel.SelectFields, 1)
	f := sel.SelectFields[0]
	assert.True(t, f.HasAlias)
	assert.Equal(t, "c", f.Alias)
}

func TestParseBracketedIdentifier(t *testing.T) {
	sel, err := parse.Text("SELECT [my col] FROM ds.t")
	require.NoError(t, err)
	require.Len(t, sel.SelectFields, 1)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := parse.Text("SELECT FROM")
	require.Error(t, err)
}

func TestParseMissingFromIsValid(t *testing.T) {
	sel, err := parse.Text("SELECT 1 + 1")
	require.NoError(t, err)
	assert.Nil(t, sel.TableExpr)
}
