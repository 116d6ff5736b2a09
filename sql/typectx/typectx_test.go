package typectx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/typectx"
	"github.com/dolthub/tinyquery/sql/types"
)

func peopleContext() *typectx.TypeContext {
	return typectx.FromTableAndColumns("people", []sql.ColumnName{
		{Column: "id"},
		{Column: "name"},
	}, map[sql.ColumnName]types.Type{
		{Column: "id"}:   types.Int,
		{Column: "name"}: types.String,
	}, nil)
}

func TestColumnRefForNameExactHit(t *testing.T) {
	tc := peopleContext()
	ref, err := tc.ColumnRefForName("people.name")
	require.NoError(t, err)
	assert.Equal(t, sql.ColumnName{Table: "people", Column: "name"}, ref.Name)
	assert.Equal(t, types.String, ref.Type)
}

func TestColumnRefForNameUnambiguousBareAlias(t *testing.T) {
	tc := peopleContext()
	ref, err := tc.ColumnRefForName("id")
	require.NoError(t, err)
	assert.Equal(t, sql.ColumnName{Table: "people", Column: "id"}, ref.Name)
	assert.Equal(t, types.Int, ref.Type)
}

func TestColumnRefForNameUnknownField(t *testing.T) {
	tc := peopleContext()
	_, err := tc.ColumnRefForName("missing")
	assert.True(t, sql.ErrFieldNotFound.Is(err))
}

func TestColumnRefForNameAmbiguousAlias(t *testing.T) {
	people := peopleContext()
	addresses := typectx.FromTableAndColumns("addresses", []sql.ColumnName{
		{Column: "id"},
		{Column: "city"},
	}, map[sql.ColumnName]types.Type{
		{Column: "id"}:   types.Int,
		{Column: "city"}: types.String,
	}, nil)
	joined := typectx.JoinContexts([]*typectx.TypeContext{people, addresses})

	_, err := joined.ColumnRefForName("id")
	assert.True(t, sql.ErrAmbiguousField.Is(err))

	ref, err := joined.ColumnRefForName("people.id")
	require.NoError(t, err)
	assert.Equal(t, sql.ColumnName{Table: "people", Column: "id"}, ref.Name)
}

func TestColumnRefForNameFallsThroughToImplicitContext(t *testing.T) {
	outer := peopleContext()
	inner := typectx.FromFullColumns(outer.Order, outer.Columns, outer.Modes, nil, nil)
	wrapper := &typectx.TypeContext{
		Order:                 []sql.ColumnName{},
		Columns:               map[sql.ColumnName]types.Type{},
		Aliases:               map[string]sql.ColumnName{},
		AmbigAliases:          map[string]bool{},
		ImplicitColumnContext: inner,
	}

	ref, err := wrapper.ColumnRefForName("name")
	require.NoError(t, err)
	assert.Equal(t, sql.ColumnName{Table: "people", Column: "name"}, ref.Name)
}

func TestJoinContextsLaterOverwritesOnExactCollision(t *testing.T) {
	a := typectx.FromFullColumns(
		[]sql.ColumnName{{Table: "t", Column: "x"}},
		map[sql.ColumnName]types.Type{{Table: "t", Column: "x"}: types.Int},
		nil, nil, nil,
	)
	b := typectx.FromFullColumns(
		[]sql.ColumnName{{Table: "t", Column: "x"}},
		map[sql.ColumnName]types.Type{{Table: "t", Column: "x"}: types.String},
		nil, nil, nil,
	)
	joined := typectx.JoinContexts([]*typectx.TypeContext{a, b})
	assert.Equal(t, types.String, joined.Columns[sql.ColumnName{Table: "t", Column: "x"}])
	assert.Len(t, joined.Order, 1)
}

func TestUnionContextsDropsTableQualifierAndChecksTypes(t *testing.T) {
	a := peopleContext()
	b := typectx.FromTableAndColumns("other_people", []sql.ColumnName{
		{Column: "id"},
		{Column: "name"},
	}, map[sql.ColumnName]types.Type{
		{Column: "id"}:   types.Int,
		{Column: "name"}: types.String,
	}, nil)
	union, err := typectx.UnionContexts([]*typectx.TypeContext{a, b})
	require.NoError(t, err)
	assert.Equal(t, types.Int, union.Columns[sql.ColumnName{Column: "id"}])
	assert.Len(t, union.Order, 2)
}

func TestUnionContextsRejectsTypeMismatch(t *testing.T) {
	a := peopleContext()
	b := typectx.FromFullColumns(
		[]sql.ColumnName{{Column: "id"}},
		map[sql.ColumnName]types.Type{{Column: "id"}: types.String},
		nil, nil, nil,
	)
	_, err := typectx.UnionContexts([]*typectx.TypeContext{a, b})
	assert.True(t, sql.ErrCompile.Is(err))
}

func repeatedContext() *typectx.TypeContext {
	return typectx.FromTableAndColumns("records", []sql.ColumnName{
		{Column: "id"},
		{Column: "values"},
	}, map[sql.ColumnName]types.Type{
		{Column: "id"}:     types.Int,
		{Column: "values"}: types.Int,
	}, map[sql.ColumnName]types.Mode{
		{Column: "values"}: types.Repeated,
	})
}

func TestColumnRefForNameCarriesMode(t *testing.T) {
	tc := repeatedContext()
	ref, err := tc.ColumnRefForName("values")
	require.NoError(t, err)
	assert.Equal(t, types.Repeated, ref.Mode)

	idRef, err := tc.ColumnRefForName("id")
	require.NoError(t, err)
	assert.NotEqual(t, types.Repeated, idRef.Mode)
}

func TestContextWithFullAliasPreservesMode(t *testing.T) {
	tc := repeatedContext()
	aliased := tc.ContextWithFullAlias("r")
	ref, err := aliased.ColumnRefForName("r.values")
	require.NoError(t, err)
	assert.Equal(t, types.Repeated, ref.Mode)
}

func TestContextWithFullAliasRequalifiesEveryColumn(t *testing.T) {
	tc := peopleContext()
	aliased := tc.ContextWithFullAlias("p")
	ref, err := aliased.ColumnRefForName("p.name")
	require.NoError(t, err)
	assert.Equal(t, sql.ColumnName{Table: "p", Column: "name"}, ref.Name)
}

func TestStripTablePrefix(t *testing.T) {
	assert.True(t, typectx.StripTablePrefix("people.name", "people"))
	assert.False(t, typectx.StripTablePrefix("peoplename", "people"))
}
