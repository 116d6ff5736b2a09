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

package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/sql/types"
)

func TestCheckMode(t *testing.T) {
	assert.True(t, types.CheckMode(nil, types.Nullable))
	assert.False(t, types.CheckMode(nil, types.Required))
	assert.True(t, types.CheckMode([]interface{}{1, 2}, types.Repeated))
	assert.False(t, types.CheckMode([]interface{}{1, 2}, types.Required))
	assert.True(t, types.CheckMode(int64(5), types.Required))
}

func TestCastInt(t *testing.T) {
	v, err := types.Cast(int64(5), types.Int)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	v, err = types.Cast("42", types.Int)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = types.Cast(true, types.Int)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = types.Cast("not a number", types.Int)
	require.Error(t, err)
}

func TestCastFloat(t *testing.T) {
	v, err := types.Cast(int64(3), types.Float)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = types.Cast("2.5", types.Float)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
}

func TestCastBool(t *testing.T) {
	v, err := types.Cast("true", types.Bool)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = types.Cast("FALSE", types.Bool)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = types.Cast("maybe", types.Bool)
	require.Error(t, err)
}

func TestCastString(t *testing.T) {
	v, err := types.Cast(int64(7), types.String)
	require.NoError(t, err)
	assert.Equal(t, "7", v)
}

func TestCastTimestamp(t *testing.T) {
	v, err := types.Cast("2021-01-02", types.Timestamp)
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2021, ts.Year())

	_, err = types.Cast("not-a-date", types.Timestamp)
	require.Error(t, err)
}

func TestCastNilAlwaysNil(t *testing.T) {
	v, err := types.Cast(nil, types.Int)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCastUnknownType(t *testing.T) {
	_, err := types.Cast("x", types.Type("BOGUS"))
	require.Error(t, err)
}

func TestMergeModes(t *testing.T) {
	assert.Equal(t, types.Required, types.MergeModes(types.Required, types.Required))
	assert.Equal(t, types.Repeated, types.MergeModes(types.Repeated, types.Repeated))
	assert.Equal(t, types.Nullable, types.MergeModes(types.Repeated, types.Required))
	assert.Equal(t, types.Nullable, types.MergeModes(types.Nullable, types.Required))
}
