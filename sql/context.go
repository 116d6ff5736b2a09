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

// Package sql holds TinyQuery's core runtime data model: the columnar
// Context that every stage of query execution reads and writes, and the
// RequestContext that carries a deadline, a logger and other per-request
// values through the analyzer and evaluator — a deliberate split between
// "the data" (Context) and "the request" (RequestContext).
package sql

import (
	stdctx "context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dolthub/tinyquery/sql/types"
)

// ColumnName identifies a column by its owning table (empty string if the
// column has no table qualifier) and its own name, matching the Python
// implementation's (table_name, column_name) tuple keys.
type ColumnName struct {
	Table  string
	Column string
}

func (c ColumnName) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Column is a single column of data: its declared type, mode, and the raw
// values backing it. Values is mutated in place by row-building helpers
// (AppendRow, etc.), matching the Python implementation's use of plain
// mutable lists.
type Column struct {
	Type   types.Type
	Mode   types.Mode
	Values []interface{}
}

// EmptyColumnLike returns a new, empty column with the same type and mode
// as col.
func EmptyColumnLike(col *Column) *Column {
	return &Column{Type: col.Type, Mode: col.Mode, Values: nil}
}

// Context is the basic container for intermediate data while evaluating a
// query: a set of named, equal-length columns, plus an optional nested
// AggregateContext used whenever evaluation descends into an aggregate
// function call (WITHIN RECORD / WITHIN aggregation, see sql/rowexec).
type Context struct {
	NumRows          int
	Order            []ColumnName
	Columns          map[ColumnName]*Column
	AggregateContext *Context
}

// NewContext builds a Context from an explicit column order and column map,
// validating that every column has exactly numRows values.
func NewContext(numRows int, order []ColumnName, columns map[ColumnName]*Column, aggregateContext *Context) *Context {
	for _, name := range order {
		col := columns[name]
		if len(col.Values) != numRows {
			panic(fmt.Sprintf("column %s had %d rows, expected %d", name, len(col.Values), numRows))
		}
	}
	return &Context{NumRows: numRows, Order: order, Columns: columns, AggregateContext: aggregateContext}
}

// ColumnFromRef returns the column named by ref, panicking (as the Python
// dict-subscript does) if it isn't present — callers are expected to have
// validated the reference against a TypeContext at compile time.
func (c *Context) ColumnFromRef(ref ColumnName) *Column {
	col, ok := c.Columns[ref]
	if !ok {
		panic(fmt.Sprintf("no such column %s in context", ref))
	}
	return col
}

// EmptyLike returns a new, empty Context with the same schema as c.
func (c *Context) EmptyLike() *Context {
	columns := make(map[ColumnName]*Column, len(c.Columns))
	for name, col := range c.Columns {
		columns[name] = EmptyColumnLike(col)
	}
	order := make([]ColumnName, len(c.Order))
	copy(order, c.Order)
	return &Context{NumRows: 0, Order: order, Columns: columns}
}

// AppendRow copies row index from src into dest, which must have the same
// schema.
func AppendRow(src *Context, index int, dest *Context) {
	dest.NumRows++
	for name, col := range dest.Columns {
		col.Values = append(col.Values, src.Columns[name].Values[index])
	}
}

// AppendContext appends every row of src onto dest. Columns present in dest
// but absent from src (matched by unqualified column name) are padded with
// NULL, matching append_partial_context_to_context's behavior for UNION-style
// table unions where only short names are tracked.
func AppendContext(src, dest *Context) {
	dest.NumRows += src.NumRows
	shortNamed := make(map[string][]interface{}, len(src.Columns))
	for name, col := range src.Columns {
		shortNamed[name.Column] = col.Values
	}
	for _, name := range dest.Order {
		col := dest.Columns[name]
		if values, ok := shortNamed[name.Column]; ok {
			col.Values = append(col.Values, values...)
		} else {
			for i := 0; i < src.NumRows; i++ {
				col.Values = append(col.Values, nil)
			}
		}
	}
}

// RowContext pulls a single row out of src as its own one-row Context.
func RowContext(src *Context, index int) *Context {
	columns := make(map[ColumnName]*Column, len(src.Columns))
	for name, col := range src.Columns {
		columns[name] = &Column{Type: col.Type, Mode: col.Mode, Values: []interface{}{col.Values[index]}}
	}
	order := make([]ColumnName, len(src.Order))
	copy(order, src.Order)
	return &Context{NumRows: 1, Order: order, Columns: columns}
}

// CrossJoin returns the Cartesian product of left and right, with left's
// columns followed by right's.
func CrossJoin(left, right *Context) *Context {
	order := make([]ColumnName, 0, len(left.Order)+len(right.Order))
	columns := make(map[ColumnName]*Column, len(left.Order)+len(right.Order))
	for _, name := range left.Order {
		order = append(order, name)
		columns[name] = &Column{Type: left.Columns[name].Type, Mode: left.Columns[name].Mode}
	}
	for _, name := range right.Order {
		order = append(order, name)
		columns[name] = &Column{Type: right.Columns[name].Type, Mode: right.Columns[name].Mode}
	}
	for i := 0; i < left.NumRows; i++ {
		for j := 0; j < right.NumRows; j++ {
			for _, name := range left.Order {
				col := columns[name]
				col.Values = append(col.Values, left.Columns[name].Values[i])
			}
			for _, name := range right.Order {
				col := columns[name]
				col.Values = append(col.Values, right.Columns[name].Values[j])
			}
		}
	}
	return &Context{NumRows: left.NumRows * right.NumRows, Order: order, Columns: columns}
}

// Truncate trims c to at most limit rows, in place.
func Truncate(c *Context, limit int) {
	if c.NumRows <= limit {
		return
	}
	c.NumRows = limit
	for _, col := range c.Columns {
		col.Values = col.Values[:limit]
	}
}

// RequestContext carries request-scoped state — a cancellation/deadline
// signal and a structured logger — through the analyzer and evaluator.
type RequestContext struct {
	stdctx.Context
	logger *logrus.Entry
	jobID  string
}

// NewRequestContext builds a RequestContext around a standard context and a
// base logger, tagging every log line it emits with the given job id.
func NewRequestContext(ctx stdctx.Context, logger *logrus.Entry, jobID string) *RequestContext {
	if ctx == nil {
		ctx = stdctx.Background()
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RequestContext{Context: ctx, logger: logger.WithField("job_id", jobID), jobID: jobID}
}

// GetLogger returns the logger scoped to this request.
func (c *RequestContext) GetLogger() *logrus.Entry {
	return c.logger
}

// JobID returns the id of the job this context was created for, if any.
func (c *RequestContext) JobID() string {
	return c.jobID
}
