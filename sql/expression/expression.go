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

// Package expression defines the typed expression tree the analyzer
// produces and the evaluator executes: literals, column references, and
// calls to the built-in function library (package
// sql/expression/function).
package expression

import (
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// Expr is any typed scalar expression: Literal, ColumnRef, FunctionCall or
// AggregateFunctionCall.
type Expr interface {
	// Type returns the static result type of the expression, as
	// determined by the function/operator's CheckTypes.
	Type() types.Type
}

// Literal is a constant value with its resolved type.
type Literal struct {
	Value interface{}
	T     types.Type
}

func (l Literal) Type() types.Type { return l.T }

// ColumnRef references a column visible in the enclosing Context.
type ColumnRef struct {
	Table  string
	Column string
	T      types.Type
	Mode   types.Mode
}

func (c ColumnRef) Type() types.Type { return c.T }

// Name returns the (table, column) pair this reference names.
func (c ColumnRef) Name() sql.ColumnName {
	return sql.ColumnName{Table: c.Table, Column: c.Column}
}

// FunctionCall is a call to a scalar function.
type FunctionCall struct {
	Func Function
	Args []Expr
	T    types.Type
}

func (f FunctionCall) Type() types.Type { return f.T }

// AggregateFunctionCall is a call to an aggregate function; the evaluator
// dispatches these differently, evaluating Args against the enclosing
// aggregate context rather than the row context.
type AggregateFunctionCall struct {
	Func AggregateFunction
	Args []Expr
	T    types.Type
}

func (f AggregateFunctionCall) Type() types.Type { return f.T }

// Function is a scalar (non-aggregate) runtime function or operator: it
// validates its argument types at compile time and evaluates over whole
// columns at once (so it can apply per-row for REPEATED-mode arguments).
type Function interface {
	// CheckTypes validates the static types of the call's arguments,
	// returning the result type or a compile error naming the function
	// and the offending argument types.
	CheckTypes(argTypes []types.Type) (types.Type, error)
	// Evaluate computes the function over numRows rows given one Column
	// per argument, returning the result column (whose Mode reflects
	// whether any argument was REPEATED).
	Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error)
}

// AggregateFunction is a runtime aggregate function: it validates argument
// types the same way a scalar Function does, but evaluates once per group,
// consuming whole argument columns (one row per group member) and
// producing a single result value.
type AggregateFunction interface {
	CheckTypes(argTypes []types.Type) (types.Type, error)
	// Evaluate computes the aggregate over the numRows rows of a single
	// group, given one Column per argument (each with numRows values),
	// returning the single aggregated value.
	Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error)
}
