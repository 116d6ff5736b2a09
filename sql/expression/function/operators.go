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

// Package function implements TinyQuery's built-in runtime function
// library: the scalar, aggregate and timestamp functions the compiled
// query plan calls through sql/expression.FunctionCall and
// AggregateFunctionCall.
package function

import (
	"fmt"
	"time"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/expression"
	"github.com/dolthub/tinyquery/sql/types"
)

func numeric(t types.Type) bool { return types.NumericSet[t] }

func typeErr(format string, args ...interface{}) error {
	return sql.ErrRuntimeType.New(fmt.Sprintf(format, args...))
}

// arithmeticOp implements +, -, *, %, /: two numeric operands,
// promoted to FLOAT if either side is FLOAT, INT otherwise; null
// propagates.
type arithmeticOp struct {
	name string
	fn   func(a, b float64) float64
}

func (o arithmeticOp) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || !numeric(args[0]) || !numeric(args[1]) {
		return "", typeErr("%s: expected two numeric arguments, got %v", o.name, args)
	}
	if args[0] == types.Float || args[1] == types.Float {
		return types.Float, nil
	}
	return types.Int, nil
}

func (o arithmeticOp) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		resultType, err := o.CheckTypes([]types.Type{args[0].Type, args[1].Type})
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			x, y := args[0].Values[i], args[1].Values[i]
			if x == nil || y == nil {
				continue
			}
			xf, yf := toFloat(x), toFloat(y)
			result := o.fn(xf, yf)
			if resultType == types.Int {
				values[i] = int64(result)
			} else {
				values[i] = result
			}
		}
		return &sql.Column{Type: resultType, Mode: types.Nullable, Values: values}, nil
	})
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case time.Time:
		return float64(x.UnixMicro())
	default:
		return 0
	}
}

func toInt(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case time.Time:
		return x.UnixMicro()
	default:
		return 0
	}
}

// comparisonOp implements =, !=, <, >, <=, >=. Same-type, numeric-set
// cross-type, or STRING-vs-TIMESTAMP (string parsed as ISO-8601) operand
// pairs are accepted.
type comparisonOp struct {
	name string
	fn   func(cmp int) bool
}

func (o comparisonOp) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 {
		return "", typeErr("%s: expected two arguments", o.name)
	}
	t1, t2 := args[0], args[1]
	if t1 == t2 {
		return types.Bool, nil
	}
	if numeric(t1) && numeric(t2) {
		return types.Bool, nil
	}
	if (t1 == types.String && t2 == types.Timestamp) || (t1 == types.Timestamp && t2 == types.String) {
		return types.Bool, nil
	}
	return "", typeErr("%s: unexpected types %v", o.name, args)
}

func (o comparisonOp) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		col1, col2 := args[0], args[1]
		if _, err := o.CheckTypes([]types.Type{col1.Type, col2.Type}); err != nil {
			return nil, err
		}
		if col1.Type == types.Timestamp && col2.Type != types.Timestamp {
			converted, err := coerceToTimestamp(col2)
			if err != nil {
				return nil, err
			}
			col2 = converted
		} else if col2.Type == types.Timestamp && col1.Type != types.Timestamp {
			converted, err := coerceToTimestamp(col1)
			if err != nil {
				return nil, err
			}
			col1 = converted
		}
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			x, y := col1.Values[i], col2.Values[i]
			if x == nil || y == nil {
				continue
			}
			values[i] = o.fn(compareValues(x, y))
		}
		return &sql.Column{Type: types.Bool, Mode: types.Nullable, Values: values}, nil
	})
}

func coerceToTimestamp(col *sql.Column) (*sql.Column, error) {
	values := make([]interface{}, len(col.Values))
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		converted, err := types.Cast(v, types.Timestamp)
		if err != nil {
			return nil, typeErr("invalid comparison on timestamp: %v", err)
		}
		values[i] = converted
	}
	return &sql.Column{Type: col.Type, Mode: col.Mode, Values: values}, nil
}

// compareValues returns -1, 0 or 1 comparing two non-nil column values of
// compatible type.
func compareValues(x, y interface{}) int {
	if xs, ok := x.(string); ok {
		ys := y.(string)
		switch {
		case xs < ys:
			return -1
		case xs > ys:
			return 1
		default:
			return 0
		}
	}
	if xb, ok := x.(bool); ok {
		yb := y.(bool)
		xi, yi := 0, 0
		if xb {
			xi = 1
		}
		if yb {
			yi = 1
		}
		return xi - yi
	}
	if xt, ok := x.(time.Time); ok {
		if yt, ok := y.(time.Time); ok {
			switch {
			case xt.Before(yt):
				return -1
			case xt.After(yt):
				return 1
			default:
				return 0
			}
		}
	}
	xf, yf := toFloat(x), toFloat(y)
	switch {
	case xf < yf:
		return -1
	case xf > yf:
		return 1
	default:
		return 0
	}
}

// booleanOp implements AND/OR: both operands must be BOOL.
type booleanOp struct {
	name string
	fn   func(a, b bool) bool
}

func (o booleanOp) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.Bool || args[1] != types.Bool {
		return "", typeErr("%s: expected two bool arguments", o.name)
	}
	return types.Bool, nil
}

func (o booleanOp) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			x, y := args[0].Values[i], args[1].Values[i]
			if x == nil || y == nil {
				continue
			}
			values[i] = o.fn(x.(bool), y.(bool))
		}
		return &sql.Column{Type: types.Bool, Mode: types.Nullable, Values: values}, nil
	})
}

// unaryIntOp implements functions over the INT-like set that return INT,
// propagating null (e.g. unary minus).
type unaryIntOp struct {
	name string
	fn   func(int64) int64
}

func (o unaryIntOp) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !types.IntLikeSet[args[0]] {
		return "", typeErr("%s: expected an int-like argument", o.name)
	}
	return types.Int, nil
}

func (o unaryIntOp) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			values[i] = o.fn(toInt(v))
		}
		return &sql.Column{Type: types.Int, Mode: types.Nullable, Values: values}, nil
	})
}

// unaryBoolOp implements NOT/IS NULL/IS NOT NULL: the takeNone flag
// controls whether the function is called on a nil argument (IS [NOT]
// NULL must see the nil; NOT must not, so that NOT NULL still yields
// null).
type unaryBoolOp struct {
	name     string
	fn       func(interface{}) bool
	takeNone bool
}

func (o unaryBoolOp) CheckTypes(args []types.Type) (types.Type, error) {
	return types.Bool, nil
}

func (o unaryBoolOp) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil && !o.takeNone {
				continue
			}
			values[i] = o.fn(v)
		}
		return &sql.Column{Type: types.Bool, Mode: types.Nullable, Values: values}, nil
	})
}

// UnaryOperators maps the lexical unary operator names to their runtime
// Function implementations.
var UnaryOperators = map[string]expression.Function{
	"-":           unaryIntOp{name: "-", fn: func(a int64) int64 { return -a }},
	"not":         unaryBoolOp{name: "not", fn: func(v interface{}) bool { return !v.(bool) }, takeNone: false},
	"is_null":     unaryBoolOp{name: "is_null", fn: func(v interface{}) bool { return v == nil }, takeNone: true},
	"is_not_null": unaryBoolOp{name: "is_not_null", fn: func(v interface{}) bool { return v != nil }, takeNone: true},
}

// BinaryOperators maps the lexical binary operator names to their runtime
// Function implementations.
var BinaryOperators = map[string]expression.Function{
	"+":        arithmeticOp{name: "+", fn: func(a, b float64) float64 { return a + b }},
	"-":        arithmeticOp{name: "-", fn: func(a, b float64) float64 { return a - b }},
	"*":        arithmeticOp{name: "*", fn: func(a, b float64) float64 { return a * b }},
	"/":        arithmeticOp{name: "/", fn: func(a, b float64) float64 { return a / b }},
	"%":        arithmeticOp{name: "%", fn: func(a, b float64) float64 { return float64(int64(a) % int64(b)) }},
	"=":        comparisonOp{name: "=", fn: func(c int) bool { return c == 0 }},
	"!=":       comparisonOp{name: "!=", fn: func(c int) bool { return c != 0 }},
	">":        comparisonOp{name: ">", fn: func(c int) bool { return c > 0 }},
	"<":        comparisonOp{name: "<", fn: func(c int) bool { return c < 0 }},
	">=":       comparisonOp{name: ">=", fn: func(c int) bool { return c >= 0 }},
	"<=":       comparisonOp{name: "<=", fn: func(c int) bool { return c <= 0 }},
	"and":      booleanOp{name: "and", fn: func(a, b bool) bool { return a && b }},
	"or":       booleanOp{name: "or", fn: func(a, b bool) bool { return a || b }},
	"contains": containsFunction{},
}
