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

package function_test

import (
	stdctx "context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/expression/function"
	"github.com/dolthub/tinyquery/sql/types"
)

func requestContext() *sql.RequestContext {
	return sql.NewRequestContext(stdctx.Background(), logrus.NewEntry(logrus.StandardLogger()), "test-job")
}

func TestLookupScalarAndAggregate(t *testing.T) {
	_, ok := function.LookupScalar("hash")
	assert.True(t, ok)
	_, ok = function.LookupAggregate("sum")
	assert.True(t, ok)
	_, ok = function.LookupScalar("no_such_function")
	assert.False(t, ok)
	assert.True(t, function.IsAggregate("count"))
	assert.False(t, function.IsAggregate("hash"))
}

func TestHashFunctionIsDeterministicAndNullSafe(t *testing.T) {
	fn, ok := function.LookupScalar("hash")
	require.True(t, ok)

	col := &sql.Column{Type: types.String, Mode: types.Nullable, Values: []interface{}{"a", "a", nil, "b"}}
	out, err := fn.Evaluate(requestContext(), 4, []*sql.Column{col})
	require.NoError(t, err)
	require.Equal(t, types.Int, out.Type)
	assert.Equal(t, out.Values[0], out.Values[1])
	assert.Nil(t, out.Values[2])
	assert.NotEqual(t, out.Values[0], out.Values[3])
}

func TestConcatFunction(t *testing.T) {
	fn, ok := function.LookupScalar("concat")
	require.True(t, ok)

	a := &sql.Column{Type: types.String, Mode: types.Nullable, Values: []interface{}{"foo", "bar"}}
	b := &sql.Column{Type: types.String, Mode: types.Nullable, Values: []interface{}{"1", "2"}}
	out, err := fn.Evaluate(requestContext(), 2, []*sql.Column{a, b})
	require.NoError(t, err)
	assert.Equal(t, "foo1", out.Values[0])
	assert.Equal(t, "bar2", out.Values[1])
}

func TestAbsFunctionCheckTypes(t *testing.T) {
	fn, ok := function.LookupScalar("abs")
	require.True(t, ok)
	_, err := fn.CheckTypes([]types.Type{types.String})
	require.Error(t, err)

	retType, err := fn.CheckTypes([]types.Type{types.Int})
	require.NoError(t, err)
	assert.Equal(t, types.Float, retType)
}

func TestSumAggregate(t *testing.T) {
	fn, ok := function.LookupAggregate("sum")
	require.True(t, ok)

	col := &sql.Column{Type: types.Int, Mode: types.Nullable, Values: []interface{}{int64(1), int64(2), int64(3)}}
	out, err := fn.Evaluate(requestContext(), 3, []*sql.Column{col})
	require.NoError(t, err)
	assert.EqualValues(t, 6, out)
}

func TestCountAggregateSkipsNulls(t *testing.T) {
	fn, ok := function.LookupAggregate("count")
	require.True(t, ok)

	col := &sql.Column{Type: types.Int, Mode: types.Nullable, Values: []interface{}{int64(1), nil, int64(3)}}
	out, err := fn.Evaluate(requestContext(), 3, []*sql.Column{col})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out)
}

func TestLookupBinaryOperator(t *testing.T) {
	fn, ok := function.LookupBinaryOperator("+")
	require.True(t, ok)
	retType, err := fn.CheckTypes([]types.Type{types.Int, types.Int})
	require.NoError(t, err)
	assert.Equal(t, types.Int, retType)
}
