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
	"database/sql"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery"
	tqdriver "github.com/dolthub/tinyquery/driver"
)

type V = interface{}

func sqlOpen(t *testing.T, engine *tinyquery.Engine, dsn string) *sql.DB {
	drv := tqdriver.New(tqdriver.SingleEngine{Engine: engine})
	conn, err := drv.OpenConnector(dsn)
	require.NoError(t, err)
	return sql.OpenDB(conn)
}

type Pointers []V

func (ptrs Pointers) Values() []V {
	values := make([]V, len(ptrs))
	for i := range values {
		values[i] = reflect.ValueOf(ptrs[i]).Elem().Interface()
	}
	return values
}

type Records [][]V

func (records Records) Rows(rows ...int) Records {
	result := make(Records, len(rows))

	for i := range rows {
		result[i] = records[rows[i]]
	}

	return result
}

func (records Records) Columns(cols ...int) Records {
	result := make(Records, len(records))

	for i := range records {
		result[i] = make([]V, len(cols))
		for j := range cols {
			result[i][j] = records[i][cols[j]]
		}
	}

	return result
}
