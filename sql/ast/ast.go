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

// Package ast defines the untyped syntax tree the parser produces. It
// mirrors the query text closely and carries no type information — that's
// added by the analyzer, which turns this tree into a sql/plan tree.
package ast

import "fmt"

// Expr is any scalar expression node: UnaryOperator, BinaryOperator,
// FunctionCall, Literal, ColumnID, CaseExpression or Star.
type Expr interface {
	exprNode()
	String() string
}

// TableExpr is any table-producing node: TableID, TableUnion, Join, Select
// (as a subquery), or a parenthesized alias wrapper.
type TableExpr interface {
	tableExprNode()
	String() string
}

// Select is a top-level (or subquery) SELECT statement.
type Select struct {
	SelectFields []SelectField
	TableExpr    TableExpr // nil if there is no FROM clause
	WhereExpr    Expr      // nil if there is no WHERE clause
	Groups       []string  // nil if there is no GROUP BY clause
	HavingExpr   Expr      // nil if there is no HAVING clause
	Orderings    []Ordering
	Limit        int64
	HasLimit     bool
	Alias        string // subquery alias, "" if none
}

func (s *Select) tableExprNode() {}

func (s *Select) String() string {
	out := "SELECT "
	for i, f := range s.SelectFields {
		if i > 0 {
			out += ", "
		}
		out += f.String()
	}
	if s.TableExpr != nil {
		out += " FROM " + s.TableExpr.String()
	}
	if s.WhereExpr != nil {
		out += " WHERE " + s.WhereExpr.String()
	}
	if len(s.Groups) > 0 {
		out += " GROUP BY "
		for i, g := range s.Groups {
			if i > 0 {
				out += ", "
			}
			out += g
		}
	}
	if s.HavingExpr != nil {
		out += " HAVING " + s.HavingExpr.String()
	}
	if len(s.Orderings) > 0 {
		out += " ORDER BY "
		for i, o := range s.Orderings {
			if i > 0 {
				out += ", "
			}
			out += o.String()
		}
	}
	if s.HasLimit {
		out += fmt.Sprintf(" LIMIT %d", s.Limit)
	}
	return out
}

// WithinMode marks what scope, if any, a select field's aggregate should
// run within.
type WithinMode int

const (
	// WithinNone is the default: ordinary aggregate scope (the whole
	// group) or no aggregate at all.
	WithinNone WithinMode = iota
	// WithinRecord aggregates independently per source row (WITHIN
	// RECORD).
	WithinRecord
	// WithinField aggregates within a named repeated field (WITHIN
	// <field>).
	WithinField
)

// SelectField is one expression in a SELECT list, with its optional alias
// and WITHIN clause.
type SelectField struct {
	Expr        Expr
	Alias       string // "" if none given
	HasAlias    bool
	Within      WithinMode
	WithinField string // set when Within == WithinField
}

func (f SelectField) String() string {
	if f.HasAlias {
		switch f.Within {
		case WithinRecord:
			return fmt.Sprintf("%s WITHIN RECORD AS %s", f.Expr, f.Alias)
		case WithinField:
			return fmt.Sprintf("%s WITHIN %s AS %s", f.Expr, f.WithinField, f.Alias)
		default:
			return fmt.Sprintf("%s AS %s", f.Expr, f.Alias)
		}
	}
	return f.Expr.String()
}

// Star is the `*` or `prefix.*` select field.
type Star struct {
	TablePrefix string // "" for bare `*`
}

func (Star) exprNode() {}
func (s Star) String() string {
	if s.TablePrefix == "" {
		return "*"
	}
	return s.TablePrefix + ".*"
}

// UnaryOperator is a prefix operator expression: -x, NOT x.
type UnaryOperator struct {
	Operator string
	Expr     Expr
}

func (UnaryOperator) exprNode() {}
func (u UnaryOperator) String() string { return fmt.Sprintf("(%s%s)", u.Operator, u.Expr) }

// BinaryOperator is an infix operator expression.
type BinaryOperator struct {
	Operator string
	Left     Expr
	Right    Expr
}

func (BinaryOperator) exprNode() {}
func (b BinaryOperator) String() string {
	return fmt.Sprintf("(%s%s%s)", b.Left, b.Operator, b.Right)
}

// FunctionCall is a named function or aggregate invocation.
type FunctionCall struct {
	Name string
	Args []Expr
}

func (FunctionCall) exprNode() {}
func (f FunctionCall) String() string { return fmt.Sprintf("(%s(%v))", f.Name, f.Args) }

// Literal is a constant value: int64, float64, bool, string, or nil for
// NULL.
type Literal struct {
	Value interface{}
}

func (Literal) exprNode() {}
func (l Literal) String() string { return fmt.Sprintf("%v", l.Value) }

// ColumnID is a (possibly dotted) reference to a column by name, to be
// resolved by the analyzer against the enclosing TypeContext.
type ColumnID struct {
	Name string
}

func (ColumnID) exprNode() {}
func (c ColumnID) String() string { return c.Name }

// Ordering is one key of an ORDER BY clause.
type Ordering struct {
	ColumnID    string
	IsAscending bool
}

func (o Ordering) String() string {
	if o.IsAscending {
		return o.ColumnID + " ASC"
	}
	return o.ColumnID + " DESC"
}

// TableID references a table (or view) in the catalog by name, with an
// optional alias.
type TableID struct {
	Name  string
	Alias string // "" if none given
}

func (TableID) tableExprNode() {}
func (t TableID) String() string { return t.Name }

// TableUnion is the comma-operator union of two or more table expressions.
type TableUnion struct {
	Tables []TableExpr
}

func (TableUnion) tableExprNode() {}
func (u TableUnion) String() string {
	out := ""
	for i, t := range u.Tables {
		if i > 0 {
			out += ", "
		}
		out += t.String()
	}
	return out
}

// JoinType distinguishes the three supported join kinds.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
	CrossJoin
)

func (j JoinType) String() string {
	switch j {
	case LeftOuterJoin:
		return "LEFT OUTER JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	default:
		return "INNER JOIN"
	}
}

// PartialJoin is the right-hand side of one join step: its table
// expression, join type, and (for non-CROSS joins) its ON condition.
type PartialJoin struct {
	TableExpr TableExpr
	JoinType  JoinType
	Condition Expr // nil for CROSS JOIN
	Each      bool // EACH modifier, parsed but semantically a no-op
}

func (p PartialJoin) String() string {
	if p.JoinType == CrossJoin {
		return fmt.Sprintf("%s %s", p.JoinType, p.TableExpr)
	}
	return fmt.Sprintf("%s %s ON %s", p.JoinType, p.TableExpr, p.Condition)
}

// Join is a base table expression followed by one or more join steps.
type Join struct {
	Base       TableExpr
	JoinParts  []PartialJoin
}

func (Join) tableExprNode() {}
func (j Join) String() string {
	out := j.Base.String()
	for _, p := range j.JoinParts {
		out += " " + p.String()
	}
	return out
}

// CaseClause is a single WHEN/THEN clause; ELSE is represented as a final
// clause whose Condition is a literal TRUE.
type CaseClause struct {
	Condition  Expr
	ResultExpr Expr
}

func (c CaseClause) String() string {
	return fmt.Sprintf("WHEN %s THEN %s", c.Condition, c.ResultExpr)
}

// CaseExpression is a CASE/WHEN/.../END expression with one or more
// clauses.
type CaseExpression struct {
	Clauses []CaseClause
}

func (CaseExpression) exprNode() {}
func (c CaseExpression) String() string {
	out := "CASE "
	for _, clause := range c.Clauses {
		out += clause.String() + " "
	}
	return out + "END"
}
