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

// Package typectx defines TypeContext, the compile-time twin of sql.Context:
// it tracks which (table, column) pairs are visible at a point in the
// query, what bare names they can be addressed by, and which of those bare
// names are ambiguous.
package typectx

import (
	"strings"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// ColumnRef is a resolved reference to a column: the (table, column) pair it
// names plus its type and mode, as produced by TypeContext.ColumnRefForName.
type ColumnRef struct {
	Name sql.ColumnName
	Type types.Type
	Mode types.Mode
}

// TypeContext is the set of valid fields at a point in the compiled query,
// plus enough alias bookkeeping to resolve bare names unambiguously.
type TypeContext struct {
	// Order and Columns together form an ordered mapping from (table,
	// column) to type — Order fixes iteration order for SELECT * and for
	// naming the materialized result.
	Order   []sql.ColumnName
	Columns map[sql.ColumnName]types.Type
	// Modes holds each column's REPEATED/NULLABLE/REQUIRED mode, keyed
	// the same as Columns. A name absent from Modes (e.g. a synthesized
	// result column no one has bothered to track the mode of) resolves
	// to the zero Mode, which is never types.Repeated.
	Modes map[sql.ColumnName]types.Mode

	// Aliases maps an unqualified column name to the single (table,
	// column) pair it refers to, when that name is unambiguous.
	Aliases map[string]sql.ColumnName
	// AmbigAliases holds every unqualified name that refers to more than
	// one column and therefore cannot be used bare.
	AmbigAliases map[string]bool

	// ImplicitColumnContext holds columns that are reachable but not part
	// of the "regular" context — e.g. columns referenced inside a
	// subquery that an enclosing query may still reach.
	ImplicitColumnContext *TypeContext
	// AggregateContext, when non-nil, is the TypeContext to switch to
	// when compiling inside an aggregate function call.
	AggregateContext *TypeContext
}

// FromFullColumns builds a TypeContext from an explicit column order and
// type map, deriving Aliases/AmbigAliases from it. modes may be nil when no
// column's mode matters in this context.
func FromFullColumns(order []sql.ColumnName, columns map[sql.ColumnName]types.Type, modes map[sql.ColumnName]types.Mode, implicit, aggregate *TypeContext) *TypeContext {
	aliases := map[string]sql.ColumnName{}
	ambig := map[string]bool{}
	for _, name := range order {
		if ambig[name.Column] {
			continue
		}
		if _, ok := aliases[name.Column]; ok {
			delete(aliases, name.Column)
			ambig[name.Column] = true
			continue
		}
		aliases[name.Column] = name
	}
	if modes == nil {
		modes = map[sql.ColumnName]types.Mode{}
	}
	return &TypeContext{
		Order:                 order,
		Columns:               columns,
		Modes:                 modes,
		Aliases:               aliases,
		AmbigAliases:          ambig,
		ImplicitColumnContext: implicit,
		AggregateContext:      aggregate,
	}
}

// FromTableAndColumns builds a TypeContext for a single table: every column
// is qualified by tableName. modes may be nil when no column in this table
// is REPEATED.
func FromTableAndColumns(tableName string, columnsWithoutTable []sql.ColumnName, columnTypes map[sql.ColumnName]types.Type, modes map[sql.ColumnName]types.Mode) *TypeContext {
	order := make([]sql.ColumnName, len(columnsWithoutTable))
	full := make(map[sql.ColumnName]types.Type, len(columnsWithoutTable))
	fullModes := make(map[sql.ColumnName]types.Mode, len(columnsWithoutTable))
	for i, n := range columnsWithoutTable {
		qualified := sql.ColumnName{Table: tableName, Column: n.Column}
		order[i] = qualified
		full[qualified] = columnTypes[n]
		fullModes[qualified] = modes[n]
	}
	return FromFullColumns(order, full, fullModes, nil, nil)
}

// UnionContexts implements the comma-operator union semantics: columns are
// added in first-seen order, keyed only by their bare name (table
// qualifiers are dropped), and a column name repeated with a different type
// across branches is a compile error.
func UnionContexts(contexts []*TypeContext) (*TypeContext, error) {
	order := make([]sql.ColumnName, 0)
	result := make(map[sql.ColumnName]types.Type)
	modes := make(map[sql.ColumnName]types.Mode)
	seenOrder := map[sql.ColumnName]bool{}
	for _, tc := range contexts {
		for _, name := range tc.Order {
			full := sql.ColumnName{Column: name.Column}
			t := tc.Columns[name]
			if existing, ok := result[full]; ok {
				if existing != t {
					return nil, sql.ErrCompile.New(
						"incompatible types when performing union on field " +
							full.Column + ": " + string(existing) + " vs. " + string(t))
				}
				continue
			}
			result[full] = t
			modes[full] = tc.Modes[name]
			if !seenOrder[full] {
				order = append(order, full)
				seenOrder[full] = true
			}
		}
	}
	return FromFullColumns(order, result, modes, nil, nil), nil
}

// JoinContexts concatenates the columns of several TypeContexts, in order,
// keeping full (table, column) qualification — later contexts overwrite
// earlier ones on exact (table, column) collisions, matching a Python dict
// update.
func JoinContexts(contexts []*TypeContext) *TypeContext {
	order := make([]sql.ColumnName, 0)
	result := make(map[sql.ColumnName]types.Type)
	modes := make(map[sql.ColumnName]types.Mode)
	seen := map[sql.ColumnName]bool{}
	for _, tc := range contexts {
		for _, name := range tc.Order {
			if !seen[name] {
				order = append(order, name)
				seen[name] = true
			}
			result[name] = tc.Columns[name]
			modes[name] = tc.Modes[name]
		}
	}
	return FromFullColumns(order, result, modes, nil, nil)
}

// ColumnRefForName resolves a bare or dotted name to a single column,
// following the precedence described by the runtime's name-resolution
// rules: an exact (table, column) hit; then every way of splitting the
// name at a '.'; then an unambiguous short alias; then the implicit column
// context; otherwise a "field not found" (or "ambiguous field") error.
func (tc *TypeContext) ColumnRefForName(name string) (ColumnRef, error) {
	if t, ok := tc.Columns[sql.ColumnName{Column: name}]; ok {
		full := sql.ColumnName{Column: name}
		return ColumnRef{Name: full, Type: t, Mode: tc.Modes[full]}, nil
	}

	var candidates []ColumnRef
	for i := 0; i < len(name); i++ {
		if name[i] != '.' {
			continue
		}
		left, right := name[:i], name[i+1:]
		if t, ok := tc.Columns[sql.ColumnName{Table: left, Column: right}]; ok {
			full := sql.ColumnName{Table: left, Column: right}
			candidates = append(candidates, ColumnRef{Name: full, Type: t, Mode: tc.Modes[full]})
		}
	}

	if tc.AmbigAliases[name] {
		// Bare name matches more than one column; it may still be
		// resolvable through the dotted-split candidates above, but if
		// not, fall through to the ambiguity error below.
	} else if full, ok := tc.Aliases[name]; ok {
		candidates = append(candidates, ColumnRef{Name: full, Type: tc.Columns[full], Mode: tc.Modes[full]})
	}

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		if tc.AmbigAliases[name] {
			return ColumnRef{}, sql.ErrAmbiguousField.New(name)
		}
		if tc.ImplicitColumnContext != nil {
			return tc.ImplicitColumnContext.ColumnRefForName(name)
		}
		return ColumnRef{}, sql.ErrFieldNotFound.New(name)
	default:
		return ColumnRef{}, sql.ErrAmbiguousField.New(name)
	}
}

// ContextWithSubqueryAlias re-aliases only the implicit column context of
// tc under subqueryAlias — used when a subquery is given an alias: its own
// projected columns stay unqualified, but columns it leaked from its inner
// tables become reachable as subqueryAlias.column.
func (tc *TypeContext) ContextWithSubqueryAlias(subqueryAlias string) *TypeContext {
	if tc.ImplicitColumnContext == nil {
		return tc
	}
	order := make([]sql.ColumnName, len(tc.ImplicitColumnContext.Order))
	columns := make(map[sql.ColumnName]types.Type, len(tc.ImplicitColumnContext.Order))
	modes := make(map[sql.ColumnName]types.Mode, len(tc.ImplicitColumnContext.Order))
	for i, name := range tc.ImplicitColumnContext.Order {
		qualified := sql.ColumnName{Table: subqueryAlias, Column: name.Column}
		order[i] = qualified
		columns[qualified] = tc.ImplicitColumnContext.Columns[name]
		modes[qualified] = tc.ImplicitColumnContext.Modes[name]
	}
	newImplicit := FromFullColumns(order, columns, modes, nil, nil)
	clone := *tc
	clone.ImplicitColumnContext = newImplicit
	return &clone
}

// ContextWithFullAlias re-aliases every column of tc (and, recursively, its
// implicit column context) under alias — used when an entire table
// expression (a subquery, a base table, a join) is given an explicit alias.
func (tc *TypeContext) ContextWithFullAlias(alias string) *TypeContext {
	order := make([]sql.ColumnName, len(tc.Order))
	columns := make(map[sql.ColumnName]types.Type, len(tc.Order))
	modes := make(map[sql.ColumnName]types.Mode, len(tc.Order))
	for i, name := range tc.Order {
		qualified := sql.ColumnName{Table: alias, Column: name.Column}
		order[i] = qualified
		columns[qualified] = tc.Columns[name]
		modes[qualified] = tc.Modes[name]
	}
	var implicit *TypeContext
	if tc.ImplicitColumnContext != nil {
		implicit = tc.ImplicitColumnContext.ContextWithFullAlias(alias)
	}
	return FromFullColumns(order, columns, modes, implicit, nil)
}

// StripTablePrefix reports whether name begins with prefix followed by '.',
// used when expanding "prefix.*".
func StripTablePrefix(alias, prefix string) bool {
	return strings.HasPrefix(alias, prefix+".")
}
