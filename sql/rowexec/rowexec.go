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

// Package rowexec is TinyQuery's evaluator: it executes a compiled
// sql/plan.Select against the catalog's loaded sql.Context data and
// produces a result sql.Context.
package rowexec

import (
	"fmt"
	"sort"
	"time"

	"github.com/dolthub/tinyquery/catalog"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/ast"
	"github.com/dolthub/tinyquery/sql/expression"
	"github.com/dolthub/tinyquery/sql/plan"
	"github.com/dolthub/tinyquery/sql/types"
)

// Evaluator executes compiled plans against a Catalog's table data.
type Evaluator struct {
	Catalog *catalog.Catalog
}

// New returns an Evaluator reading table data from cat.
func New(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{Catalog: cat}
}

// Execute runs p and returns its result as a Context whose column order
// matches p.Fields.
func (e *Evaluator) Execute(ctx *sql.RequestContext, p *plan.Select) (*sql.Context, error) {
	var source *sql.Context
	var err error
	if p.Source != nil {
		source, err = e.evalTableExpr(ctx, p.Source)
		if err != nil {
			return nil, err
		}
	} else {
		source = sql.NewContext(1, nil, map[sql.ColumnName]*sql.Column{}, nil)
	}

	if p.Where != nil {
		source, err = filterContext(ctx, source, p.Where)
		if err != nil {
			return nil, err
		}
	}

	var result *sql.Context
	if p.Groups.AliasGroups != nil || p.Groups.FieldGroups != nil || p.Groups.Trivial || p.Groups.PerRow {
		result, err = e.evalGrouped(ctx, source, p)
	} else {
		result, err = e.evalProjection(ctx, source, p.Fields)
	}
	if err != nil {
		return nil, err
	}

	if p.Having != nil {
		result, err = filterContext(ctx, result, p.Having)
		if err != nil {
			return nil, err
		}
	}

	if len(p.Orderings) > 0 {
		result = sortContext(result, p.Orderings)
	}

	if p.HasLimit && result.NumRows > p.Limit {
		sql.Truncate(result, p.Limit)
	}

	return result, nil
}

func (e *Evaluator) evalTableExpr(ctx *sql.RequestContext, t plan.TableExpr) (*sql.Context, error) {
	switch node := t.(type) {
	case *plan.Table:
		tbl, ok := e.Catalog.LookupTable("", node.CatalogName)
		if !ok {
			return nil, sql.ErrTableNotFound.New(node.CatalogName)
		}
		return rekeyToAlias(tbl.Context, tbl.Columns, node.Context.Order), nil
	case *plan.Select:
		sub, err := e.Execute(ctx, node)
		if err != nil {
			return nil, err
		}
		return rekeyToAlias(sub, nil, node.Context.Order), nil
	case *plan.Join:
		return e.evalJoin(ctx, node)
	case *plan.TableUnion:
		return e.evalUnion(ctx, node)
	default:
		return nil, sql.ErrNotImplemented.New("unsupported table expression in evaluator")
	}
}

// rekeyToAlias builds a Context whose column keys are newOrder (the
// alias-qualified names the plan expects), copying values positionally
// from src (optionally itself keyed by srcColumns, for a base table
// whose on-disk column names may differ from the alias they're exposed
// under).
func rekeyToAlias(src *sql.Context, srcColumns []sql.ColumnName, newOrder []sql.ColumnName) *sql.Context {
	if srcColumns == nil {
		srcColumns = src.Order
	}
	columns := make(map[sql.ColumnName]*sql.Column, len(newOrder))
	for i, name := range newOrder {
		var col *sql.Column
		if i < len(srcColumns) {
			col = src.Columns[srcColumns[i]]
		}
		if col == nil {
			col = &sql.Column{Mode: types.Nullable, Values: make([]interface{}, src.NumRows)}
		}
		columns[name] = col
	}
	return &sql.Context{NumRows: src.NumRows, Order: newOrder, Columns: columns}
}

func filterContext(ctx *sql.RequestContext, src *sql.Context, cond expression.Expr) (*sql.Context, error) {
	mask, err := evalExpr(ctx, src, cond)
	if err != nil {
		return nil, err
	}
	out := src.EmptyLike()
	for row := 0; row < src.NumRows; row++ {
		keep, _ := mask.Values[row].(bool)
		if keep {
			sql.AppendRow(src, row, out)
		}
	}
	return out, nil
}

func (e *Evaluator) evalProjection(ctx *sql.RequestContext, src *sql.Context, fields []plan.SelectField) (*sql.Context, error) {
	order := make([]sql.ColumnName, len(fields))
	columns := make(map[sql.ColumnName]*sql.Column, len(fields))
	for i, f := range fields {
		name := sql.ColumnName{Column: f.Alias}
		col, err := evalExpr(ctx, src, f.Expr)
		if err != nil {
			return nil, err
		}
		order[i] = name
		columns[name] = col
	}
	return &sql.Context{NumRows: src.NumRows, Order: order, Columns: columns}, nil
}

// evalExpr evaluates a scalar or aggregate expression over every row of
// src at once, returning a whole Column.
func evalExpr(ctx *sql.RequestContext, src *sql.Context, e expression.Expr) (*sql.Column, error) {
	switch x := e.(type) {
	case expression.Literal:
		values := make([]interface{}, src.NumRows)
		for i := range values {
			values[i] = x.Value
		}
		return &sql.Column{Type: x.T, Mode: types.Nullable, Values: values}, nil
	case expression.ColumnRef:
		col, ok := src.Columns[x.Name()]
		if !ok {
			return nil, sql.ErrFieldNotFound.New(x.Name().String())
		}
		return col, nil
	case expression.FunctionCall:
		args := make([]*sql.Column, len(x.Args))
		for i, a := range x.Args {
			col, err := evalExpr(ctx, src, a)
			if err != nil {
				return nil, err
			}
			args[i] = col
		}
		return x.Func.Evaluate(ctx, src.NumRows, args)
	case expression.AggregateFunctionCall:
		args := make([]*sql.Column, len(x.Args))
		for i, a := range x.Args {
			col, err := evalExpr(ctx, src, a)
			if err != nil {
				return nil, err
			}
			args[i] = col
		}
		value, err := x.Func.Evaluate(ctx, src.NumRows, args)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, src.NumRows)
		for i := range values {
			values[i] = value
		}
		return &sql.Column{Type: x.T, Mode: types.Nullable, Values: values}, nil
	default:
		return nil, sql.ErrNotImplemented.New("unsupported compiled expression")
	}
}

// groupKey is a hashable representative of one group's grouping-column
// values.
type groupKey string

// makeGroupKey builds a hashable representative of one row's value across
// every grouping column, already evaluated into cols by groupKeyColumns.
func makeGroupKey(cols []*sql.Column, row int) groupKey {
	var key string
	for _, col := range cols {
		key += "\x1f" + typedValueKey(col.Values[row])
	}
	return groupKey(key)
}

func typedValueKey(v interface{}) string {
	if v == nil {
		return "\x00"
	}
	return "\x01" + fmt.Sprintf("%v", v)
}

// groupKeyColumns evaluates every GROUP BY term over the whole source: an
// AliasGroups entry by re-evaluating the matching select field's
// expression, a FieldGroups entry directly. The result is one Column per
// term, aligned with src's rows, for makeGroupKey to read from.
func (e *Evaluator) groupKeyColumns(ctx *sql.RequestContext, src *sql.Context, p *plan.Select) ([]*sql.Column, error) {
	cols := make([]*sql.Column, 0, len(p.Groups.AliasGroups)+len(p.Groups.FieldGroups))
	for _, alias := range p.Groups.AliasGroups {
		var fieldExpr expression.Expr
		for _, f := range p.Fields {
			if f.Alias == alias {
				fieldExpr = f.Expr
				break
			}
		}
		if fieldExpr == nil {
			return nil, sql.ErrCompile.New("GROUP BY alias " + alias + " not found among select fields")
		}
		col, err := evalExpr(ctx, src, fieldExpr)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	for _, fg := range p.Groups.FieldGroups {
		col, err := evalExpr(ctx, src, fg)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// evalGrouped partitions src into groups and evaluates every select field
// once per group, returning one result row per group. A Trivial GroupSet
// (an unqualified aggregate query) always produces exactly one row, even
// for a zero-row source. A PerRow GroupSet (a WITHIN RECORD query) puts
// every source row in its own singleton group, and a field whose own
// WITHIN clause is RECORD is evaluated against that row's REPEATED
// columns flattened out to one evaluator row per element instead of the
// group's single row.
func (e *Evaluator) evalGrouped(ctx *sql.RequestContext, src *sql.Context, p *plan.Select) (*sql.Context, error) {
	var rowGroups [][]int

	switch {
	case p.Groups.PerRow:
		rowGroups = make([][]int, src.NumRows)
		for i := range rowGroups {
			rowGroups[i] = []int{i}
		}
	case p.Groups.IsTrivial():
		all := make([]int, src.NumRows)
		for i := range all {
			all[i] = i
		}
		rowGroups = [][]int{all}
	default:
		keyCols, err := e.groupKeyColumns(ctx, src, p)
		if err != nil {
			return nil, err
		}
		order := []groupKey{}
		byKey := map[groupKey][]int{}
		for row := 0; row < src.NumRows; row++ {
			key := makeGroupKey(keyCols, row)
			if _, ok := byKey[key]; !ok {
				order = append(order, key)
			}
			byKey[key] = append(byKey[key], row)
		}
		rowGroups = make([][]int, len(order))
		for i, key := range order {
			rowGroups[i] = byKey[key]
		}
	}

	resultOrder := make([]sql.ColumnName, len(p.Fields))
	resultColumns := make(map[sql.ColumnName]*sql.Column, len(p.Fields))
	for i, f := range p.Fields {
		resultOrder[i] = sql.ColumnName{Column: f.Alias}
		resultColumns[resultOrder[i]] = &sql.Column{Type: f.Expr.Type(), Mode: types.Nullable, Values: make([]interface{}, 0, len(rowGroups))}
	}

	for _, rows := range rowGroups {
		groupCtx := subContext(src, rows)
		for i, f := range p.Fields {
			fieldCtx := groupCtx
			if f.Within == ast.WithinRecord {
				fieldCtx = flattenRecordContext(groupCtx)
			}
			col, err := evalExpr(ctx, fieldCtx, f.Expr)
			if err != nil {
				return nil, err
			}
			var value interface{}
			if len(col.Values) > 0 {
				value = col.Values[0]
			}
			resultColumns[resultOrder[i]].Values = append(resultColumns[resultOrder[i]].Values, value)
		}
	}

	return &sql.Context{NumRows: len(rowGroups), Order: resultOrder, Columns: resultColumns}, nil
}

// flattenRecordContext unpacks a single-row context into one row per
// element of its widest REPEATED column, so a WITHIN RECORD aggregate
// consumes that row's repeated values like an ordinary multi-row group.
// Non-repeated columns are broadcast across the expanded rows.
func flattenRecordContext(ctx *sql.Context) *sql.Context {
	n := 1
	for _, col := range ctx.Columns {
		if col.Mode == types.Repeated && len(col.Values) > 0 {
			if values, ok := col.Values[0].([]interface{}); ok && len(values) > n {
				n = len(values)
			}
		}
	}

	columns := make(map[sql.ColumnName]*sql.Column, len(ctx.Columns))
	for name, col := range ctx.Columns {
		if col.Mode == types.Repeated {
			var values []interface{}
			if len(col.Values) > 0 {
				values, _ = col.Values[0].([]interface{})
			}
			flat := make([]interface{}, n)
			for i := 0; i < n; i++ {
				if i < len(values) {
					flat[i] = values[i]
				}
			}
			columns[name] = &sql.Column{Type: col.Type, Mode: types.Nullable, Values: flat}
			continue
		}
		var v interface{}
		if len(col.Values) > 0 {
			v = col.Values[0]
		}
		flat := make([]interface{}, n)
		for i := range flat {
			flat[i] = v
		}
		columns[name] = &sql.Column{Type: col.Type, Mode: col.Mode, Values: flat}
	}
	order := make([]sql.ColumnName, len(ctx.Order))
	copy(order, ctx.Order)
	return &sql.Context{NumRows: n, Order: order, Columns: columns}
}

func subContext(src *sql.Context, rows []int) *sql.Context {
	out := src.EmptyLike()
	for _, row := range rows {
		sql.AppendRow(src, row, out)
	}
	return out
}

func (e *Evaluator) evalJoin(ctx *sql.RequestContext, j *plan.Join) (*sql.Context, error) {
	left, err := e.evalTableExpr(ctx, j.Base)
	if err != nil {
		return nil, err
	}
	for _, part := range j.Parts {
		right, err := e.evalTableExpr(ctx, part.Table)
		if err != nil {
			return nil, err
		}
		left, err = joinOne(ctx, left, right, part)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func joinOne(ctx *sql.RequestContext, left, right *sql.Context, part plan.JoinPart) (*sql.Context, error) {
	out := sql.CrossJoin(left.EmptyLike(), right.EmptyLike())
	matched := make([]bool, right.NumRows)
	for lrow := 0; lrow < left.NumRows; lrow++ {
		anyMatch := false
		for rrow := 0; rrow < right.NumRows; rrow++ {
			keep := true
			if part.Type != plan.CrossJoin {
				combined := sql.CrossJoin(sql.RowContext(left, lrow), sql.RowContext(right, rrow))
				mask, err := evalExpr(ctx, combined, part.Condition)
				if err != nil {
					return nil, err
				}
				keep, _ = mask.Values[0].(bool)
			}
			if keep {
				appendJoinedRow(left, lrow, right, rrow, out)
				anyMatch = true
				matched[rrow] = true
			}
		}
		if !anyMatch && part.Type == plan.LeftOuterJoin {
			appendJoinedRow(left, lrow, nil, -1, out)
		}
	}
	return out, nil
}

func appendJoinedRow(left *sql.Context, lrow int, right *sql.Context, rrow int, out *sql.Context) {
	for _, name := range left.Order {
		col := out.Columns[name]
		if lrow >= 0 {
			col.Values = append(col.Values, left.Columns[name].Values[lrow])
		} else {
			col.Values = append(col.Values, nil)
		}
	}
	if right != nil {
		for _, name := range right.Order {
			col := out.Columns[name]
			if rrow >= 0 {
				col.Values = append(col.Values, right.Columns[name].Values[rrow])
			} else {
				col.Values = append(col.Values, nil)
			}
		}
	} else {
		for _, name := range out.Order {
			_ = name
		}
	}
	out.NumRows++
}

func (e *Evaluator) evalUnion(ctx *sql.RequestContext, u *plan.TableUnion) (*sql.Context, error) {
	var result *sql.Context
	for _, t := range u.Tables {
		sub, err := e.evalTableExpr(ctx, t)
		if err != nil {
			return nil, err
		}
		renamed := rekeyToAlias(sub, sub.Order, u.Context.Order)
		if result == nil {
			result = renamed
			continue
		}
		sql.AppendContext(renamed, result)
	}
	if result == nil {
		columns := make(map[sql.ColumnName]*sql.Column, len(u.Context.Order))
		for _, name := range u.Context.Order {
			columns[name] = &sql.Column{Type: u.Context.Columns[name], Mode: types.Nullable, Values: []interface{}{}}
		}
		return sql.NewContext(0, u.Context.Order, columns, nil), nil
	}
	return result, nil
}

// compareForSort orders NULL before every non-null value, then compares
// same-typed values; mismatched non-null types compare as equal (should
// not occur for a well-typed plan).
func compareForSort(x, y interface{}) int {
	if x == nil && y == nil {
		return 0
	}
	if x == nil {
		return -1
	}
	if y == nil {
		return 1
	}
	switch a := x.(type) {
	case string:
		b := y.(string)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	case bool:
		b := y.(bool)
		ai, bi := 0, 0
		if a {
			ai = 1
		}
		if b {
			bi = 1
		}
		return ai - bi
	case time.Time:
		b := y.(time.Time)
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		default:
			return 0
		}
	default:
		af, bf := toFloat(x), toFloat(y)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

func sortContext(src *sql.Context, orderings []plan.Ordering) *sql.Context {
	indices := make([]int, src.NumRows)
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		for _, o := range orderings {
			if o.ColumnIndex < 0 {
				continue
			}
			name := src.Order[o.ColumnIndex]
			col := src.Columns[name]
			cmp := compareForSort(col.Values[indices[a]], col.Values[indices[b]])
			if cmp == 0 {
				continue
			}
			if o.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	out := src.EmptyLike()
	for _, idx := range indices {
		sql.AppendRow(src, idx, out)
	}
	return out
}
