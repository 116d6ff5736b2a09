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
	"github.com/dolthub/tinyquery"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// personEngine builds an Engine with a "person" table registered under
// the given dataset, for driver tests to query against.
func personEngine(dataset, table string) (*tinyquery.Engine, Records) {
	records := Records{
		[]V{int64(1), "John Doe", "john@doe.com"},
		[]V{int64(2), "John Doe", "johnalt@doe.com"},
		[]V{int64(3), "Jane Doe", "jane@doe.com"},
		[]V{int64(4), "Evil Bob", "evilbob@gmail.com"},
	}

	order := []sql.ColumnName{
		{Table: table, Column: "id"},
		{Table: table, Column: "name"},
		{Table: table, Column: "email"},
	}
	columns := map[sql.ColumnName]*sql.Column{
		order[0]: {Type: types.Int, Mode: types.Required},
		order[1]: {Type: types.String, Mode: types.Required},
		order[2]: {Type: types.String, Mode: types.Required},
	}
	for _, row := range records {
		columns[order[0]].Values = append(columns[order[0]].Values, row[0])
		columns[order[1]].Values = append(columns[order[1]].Values, row[1])
		columns[order[2]].Values = append(columns[order[2]].Values, row[2])
	}

	ctx := sql.NewContext(len(records), order, columns, nil)
	engine := tinyquery.New(tinyquery.Config{})
	engine.Catalog.AddTable(dataset, table, order, ctx)
	return engine, records
}
