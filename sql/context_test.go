package sql_test

import (
	stdctx "context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

func idNameContext(ids []interface{}, names []interface{}) *sql.Context {
	order := []sql.ColumnName{{Column: "id"}, {Column: "name"}}
	columns := map[sql.ColumnName]*sql.Column{
		{Column: "id"}:   {Type: types.Int, Values: ids},
		{Column: "name"}: {Type: types.String, Values: names},
	}
	return sql.NewContext(len(ids), order, columns, nil)
}

func TestNewContextPanicsOnRowCountMismatch(t *testing.T) {
	order := []sql.ColumnName{{Column: "id"}}
	columns := map[sql.ColumnName]*sql.Column{
		{Column: "id"}: {Type: types.Int, Values: []interface{}{1, 2}},
	}
	assert.Panics(t, func() {
		sql.NewContext(3, order, columns, nil)
	})
}

func TestAppendRowCopiesAcrossContexts(t *testing.T) {
	src := idNameContext([]interface{}{1, 2}, []interface{}{"a", "b"})
	dest := idNameContext(nil, nil)
	dest.NumRows = 0

	sql.AppendRow(src, 1, dest)
	assert.Equal(t, 1, dest.NumRows)
	assert.Equal(t, []interface{}{2}, dest.Columns[sql.ColumnName{Column: "id"}].Values)
	assert.Equal(t, []interface{}{"b"}, dest.Columns[sql.ColumnName{Column: "name"}].Values)
}

func TestAppendContextPadsMissingColumnsWithNil(t *testing.T) {
	src := sql.NewContext(2,
		[]sql.ColumnName{{Column: "id"}},
		map[sql.ColumnName]*sql.Column{
			{Column: "id"}: {Type: types.Int, Values: []interface{}{1, 2}},
		}, nil)

	dest := idNameContext([]interface{}{0}, []interface{}{"zero"})

	sql.AppendContext(src, dest)
	assert.Equal(t, 3, dest.NumRows)
	assert.Equal(t, []interface{}{0, 1, 2}, dest.Columns[sql.ColumnName{Column: "id"}].Values)
	assert.Equal(t, []interface{}{"zero", nil, nil}, dest.Columns[sql.ColumnName{Column: "name"}].Values)
}

func TestAppendContextMatchesByShortNameAcrossTables(t *testing.T) {
	src := sql.NewContext(1,
		[]sql.ColumnName{{Table: "other", Column: "id"}},
		map[sql.ColumnName]*sql.Column{
			{Table: "other", Column: "id"}: {Type: types.Int, Values: []interface{}{42}},
		}, nil)
	dest := sql.NewContext(0,
		[]sql.ColumnName{{Table: "people", Column: "id"}},
		map[sql.ColumnName]*sql.Column{
			{Table: "people", Column: "id"}: {Type: types.Int, Values: []interface{}{}},
		}, nil)

	sql.AppendContext(src, dest)
	assert.Equal(t, []interface{}{42}, dest.Columns[sql.ColumnName{Table: "people", Column: "id"}].Values)
}

func TestRowContextExtractsSingleRow(t *testing.T) {
	src := idNameContext([]interface{}{1, 2, 3}, []interface{}{"a", "b", "c"})
	row := sql.RowContext(src, 1)
	assert.Equal(t, 1, row.NumRows)
	assert.Equal(t, []interface{}{2}, row.Columns[sql.ColumnName{Column: "id"}].Values)
	assert.Equal(t, []interface{}{"b"}, row.Columns[sql.ColumnName{Column: "name"}].Values)
}

func TestCrossJoinProducesCartesianProduct(t *testing.T) {
	left := sql.NewContext(2,
		[]sql.ColumnName{{Table: "l", Column: "x"}},
		map[sql.ColumnName]*sql.Column{
			{Table: "l", Column: "x"}: {Type: types.Int, Values: []interface{}{1, 2}},
		}, nil)
	right := sql.NewContext(3,
		[]sql.ColumnName{{Table: "r", Column: "y"}},
		map[sql.ColumnName]*sql.Column{
			{Table: "r", Column: "y"}: {Type: types.Int, Values: []interface{}{10, 20, 30}},
		}, nil)

	joined := sql.CrossJoin(left, right)
	assert.Equal(t, 6, joined.NumRows)
	assert.Len(t, joined.Order, 2)
	assert.Equal(t,
		[]interface{}{1, 1, 1, 2, 2, 2},
		joined.Columns[sql.ColumnName{Table: "l", Column: "x"}].Values)
	assert.Equal(t,
		[]interface{}{10, 20, 30, 10, 20, 30},
		joined.Columns[sql.ColumnName{Table: "r", Column: "y"}].Values)
}

func TestTruncateTrimsRowsInPlace(t *testing.T) {
	ctx := idNameContext([]interface{}{1, 2, 3, 4}, []interface{}{"a", "b", "c", "d"})
	sql.Truncate(ctx, 2)
	assert.Equal(t, 2, ctx.NumRows)
	assert.Equal(t, []interface{}{1, 2}, ctx.Columns[sql.ColumnName{Column: "id"}].Values)
}

func TestTruncateIsNoOpWhenUnderLimit(t *testing.T) {
	ctx := idNameContext([]interface{}{1, 2}, []interface{}{"a", "b"})
	sql.Truncate(ctx, 10)
	assert.Equal(t, 2, ctx.NumRows)
}

func TestRequestContextTagsLoggerWithJobID(t *testing.T) {
	rc := sql.NewRequestContext(stdctx.Background(), logrus.NewEntry(logrus.StandardLogger()), "job-1")
	require.NotNil(t, rc.GetLogger())
	assert.Equal(t, "job-1", rc.JobID())
}

func TestNewRequestContextDefaultsNilInputs(t *testing.T) {
	rc := sql.NewRequestContext(nil, nil, "job-2")
	require.NotNil(t, rc.GetLogger())
	assert.NotNil(t, rc.Context)
}
