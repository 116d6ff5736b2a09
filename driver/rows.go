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

package driver

import (
	"database/sql/driver"
	"encoding/json"
	"io"

	"github.com/dolthub/tinyquery/sql"
)

// Rows is an iterator over an executed query's already-materialized
// result Context: TinyQuery computes its whole result up front rather
// than streaming it, so Rows just walks it by index.
type Rows struct {
	ctx     *sql.Context
	columns []string
	next    int
}

func newRows(ctx *sql.Context) *Rows {
	names := make([]string, len(ctx.Order))
	for i, name := range ctx.Order {
		names[i] = name.String()
	}
	return &Rows{ctx: ctx, columns: names}
}

// Columns returns the result's column names, in schema order.
func (r *Rows) Columns() []string {
	return r.columns
}

// Close does nothing; Rows holds no external resource.
func (r *Rows) Close() error {
	return nil
}

// Next populates dest with the next row's values, converting each to one
// of the limited set of types database/sql/driver.Value permits.
func (r *Rows) Next(dest []driver.Value) error {
	if r.next >= r.ctx.NumRows {
		return io.EOF
	}
	row := r.next
	r.next++
	for i, name := range r.ctx.Order {
		col := r.ctx.Columns[name]
		dest[i] = convertRowValue(col, row)
	}
	return nil
}

func convertRowValue(col *sql.Column, row int) driver.Value {
	v := col.Values[row]
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case int64, float64, bool, string, []byte:
		return val
	case []interface{}:
		// REPEATED columns have no direct driver.Value representation;
		// render them as their JSON array, same as the Python client's
		// convenience string forms.
		b, err := json.Marshal(val)
		if err != nil {
			return err.Error()
		}
		return string(b)
	default:
		return v
	}
}
