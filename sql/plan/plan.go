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

// Package plan defines the typed query plan the analyzer produces from
// an sql/ast tree and package rowexec executes. Unlike the ast package,
// every expression here is fully resolved: columns carry their types,
// table references name an already-loaded table or a nested plan, and
// aggregation is explicit via GroupSet rather than implied by the
// presence of GROUP BY in the source text.
package plan

import (
	"github.com/dolthub/tinyquery/sql/ast"
	"github.com/dolthub/tinyquery/sql/expression"
	"github.com/dolthub/tinyquery/sql/typectx"
)

// TableExpr is any typed table-valued expression: Table, Select, Join or
// TableUnion.
type TableExpr interface {
	TypeContext() *typectx.TypeContext
}

// Table references an already-resolved, loaded table by its catalog
// name, exposed to the rest of the plan under Alias (which equals
// CatalogName when the query gives it no explicit alias).
type Table struct {
	CatalogName string
	Alias       string
	Context     *typectx.TypeContext
}

func (t *Table) TypeContext() *typectx.TypeContext { return t.Context }

// SelectField is one compiled output column: its expression, the name it
// is exposed under, and its WITHIN mode (none/record/field) carried over
// from the source ast.SelectField so the evaluator knows to scope a
// WITHIN RECORD field's aggregation to its own source row.
type SelectField struct {
	Expr        expression.Expr
	Alias       string
	Within      ast.WithinMode
	WithinField string // set when Within == ast.WithinField
}

// GroupSet describes how input rows are partitioned into groups for
// aggregation. A GroupSet with no AliasGroups and no FieldGroups but
// Trivial set is TRIVIAL_GROUP_SET: the plan is an unqualified aggregate
// query (no GROUP BY) and must still produce exactly one output row even
// when the input has zero rows. PerRow is set for a WITHIN RECORD query:
// every source row forms its own singleton group, overriding Trivial.
type GroupSet struct {
	AliasGroups []string
	FieldGroups []expression.Expr
	Trivial     bool
	PerRow      bool
}

// IsTrivial reports whether this is the distinguished empty-input-still-
// one-row aggregate group set.
func (g GroupSet) IsTrivial() bool {
	return g.Trivial && len(g.AliasGroups) == 0 && len(g.FieldGroups) == 0
}

// Select is a fully analyzed SELECT: resolved fields, an optional typed
// source table expression, filter/grouping/ordering/limit.
type Select struct {
	Fields     []SelectField
	Source     TableExpr // nil for a SELECT with no FROM clause
	Where      expression.Expr
	Groups     GroupSet
	Having     expression.Expr
	Orderings  []Ordering
	Limit      int
	HasLimit   bool
	Alias      string
	Context    *typectx.TypeContext
}

func (s *Select) TypeContext() *typectx.TypeContext { return s.Context }

// Ordering is one ORDER BY term, resolved to its selected output column
// index.
type Ordering struct {
	ColumnIndex int
	Ascending   bool
}

// JoinType mirrors ast.JoinType at the typed-plan level.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	CrossJoin
)

// JoinPart is one typed join clause: the right-hand table, the join
// type, and (for INNER/LEFT_OUTER) the equality condition linking it to
// everything joined so far.
type JoinPart struct {
	Table     TableExpr
	Type      JoinType
	Condition expression.Expr
	Each      bool
}

// Join is a left-deep chain of joined tables: Base joined in order with
// each of Parts.
type Join struct {
	Base    TableExpr
	Parts   []JoinPart
	Context *typectx.TypeContext
}

func (j *Join) TypeContext() *typectx.TypeContext { return j.Context }

// TableUnion is a compile-time UNION ALL of same-shaped table
// expressions (the comma-separated table list form).
type TableUnion struct {
	Tables  []TableExpr
	Context *typectx.TypeContext
}

func (u *TableUnion) TypeContext() *typectx.TypeContext { return u.Context }
