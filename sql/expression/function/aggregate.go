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

package function

import (
	"math"
	"sort"
	"strings"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// sumFunction implements sum(x) over a numeric column; null rows are
// skipped, an all-null (or empty) group sums to null.
type sumFunction struct{}

func (sumFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !numeric(args[0]) {
		return "", typeErr("sum: expected one numeric argument")
	}
	return args[0], nil
}

func (sumFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	col := args[0]
	var total float64
	seen := false
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		total += toFloat(v)
		seen = true
	}
	if !seen {
		return nil, nil
	}
	if col.Type == types.Int {
		return int64(total), nil
	}
	return total, nil
}

// minMaxFunction implements min(x)/max(x).
type minMaxFunction struct {
	name string
	pick func(cmp int) bool
}

func (f minMaxFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 {
		return "", typeErr("%s: expected one argument", f.name)
	}
	return args[0], nil
}

func (f minMaxFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	var best interface{}
	for _, v := range args[0].Values {
		if v == nil {
			continue
		}
		if best == nil || f.pick(compareValues(v, best)) {
			best = v
		}
	}
	return best, nil
}

// countFunction implements count(x): the number of non-null values.
type countFunction struct{}

func (countFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 {
		return "", typeErr("count: expected one argument")
	}
	return types.Int, nil
}

func (countFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	var n int64
	for _, v := range args[0].Values {
		if v != nil {
			n++
		}
	}
	return n, nil
}

// countDistinctFunction implements count(distinct x).
type countDistinctFunction struct{}

func (countDistinctFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 {
		return "", typeErr("count_distinct: expected one argument")
	}
	return types.Int, nil
}

func (countDistinctFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	seen := map[interface{}]bool{}
	for _, v := range args[0].Values {
		if v != nil {
			seen[v] = true
		}
	}
	return int64(len(seen)), nil
}

// avgFunction implements avg(x): the mean of non-null values, always
// FLOAT, null for an empty group.
type avgFunction struct{}

func (avgFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !numeric(args[0]) {
		return "", typeErr("avg: expected one numeric argument")
	}
	return types.Float, nil
}

func (avgFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	var total float64
	var n int
	for _, v := range args[0].Values {
		if v == nil {
			continue
		}
		total += toFloat(v)
		n++
	}
	if n == 0 {
		return nil, nil
	}
	return total / float64(n), nil
}

// stddevSampFunction implements stddev_samp(x): sample standard
// deviation, null for groups with fewer than two non-null values.
type stddevSampFunction struct{}

func (stddevSampFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !numeric(args[0]) {
		return "", typeErr("stddev_samp: expected one numeric argument")
	}
	return types.Float, nil
}

func (stddevSampFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	var values []float64
	for _, v := range args[0].Values {
		if v != nil {
			values = append(values, toFloat(v))
		}
	}
	if len(values) < 2 {
		return nil, nil
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1)), nil
}

// quantilesFunction implements quantiles(x, n): n+1 boundary values (min,
// n-1 interior quantiles, max) of the sorted non-null values, returned as
// a REPEATED column.
type quantilesFunction struct{}

func (quantilesFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || !numeric(args[0]) || !types.IntLikeSet[args[1]] {
		return "", typeErr("quantiles: expected (numeric, int)")
	}
	return args[0], nil
}

func (quantilesFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	n, ok, err := literalIntArg(args[1], "quantiles")
	if err != nil {
		return nil, err
	}
	if !ok || n < 1 {
		return []interface{}{}, nil
	}
	var values []float64
	for _, v := range args[0].Values {
		if v != nil {
			values = append(values, toFloat(v))
		}
	}
	if len(values) == 0 {
		return []interface{}{}, nil
	}
	sort.Float64s(values)
	result := make([]interface{}, n+1)
	for i := 0; i <= n; i++ {
		pos := float64(i) / float64(n) * float64(len(values)-1)
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		if hi >= len(values) {
			hi = len(values) - 1
		}
		frac := pos - float64(lo)
		v := values[lo] + frac*(values[hi]-values[lo])
		if args[0].Type == types.Int {
			result[i] = int64(v)
		} else {
			result[i] = v
		}
	}
	return result, nil
}

func literalIntArg(col *sql.Column, name string) (int, bool, error) {
	pattern, ok, err := literalIntLike(col, name)
	return pattern, ok, err
}

func literalIntLike(col *sql.Column, name string) (int, bool, error) {
	var value int64
	seen := false
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		n := toInt(v)
		if !seen {
			value = n
			seen = true
		} else if n != value {
			return 0, false, typeErr("%s: argument must be constant across all rows", name)
		}
	}
	return int(value), seen, nil
}

// groupConcatUnquotedAggregate implements the one-argument aggregate form
// group_concat_unquoted(x): comma-joins the non-null string values of the
// group.
type groupConcatUnquotedAggregate struct{}

func (groupConcatUnquotedAggregate) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || args[0] != types.String {
		return "", typeErr("group_concat_unquoted: expected one string argument")
	}
	return types.String, nil
}

func (groupConcatUnquotedAggregate) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	var parts []string
	for _, v := range args[0].Values {
		if v != nil {
			parts = append(parts, v.(string))
		}
	}
	return strings.Join(parts, ","), nil
}

// firstAggregateFunction implements the aggregate form first(x): the
// first row's value within the group (as materialized in group order).
type firstAggregateFunction struct{}

func (firstAggregateFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 {
		return "", typeErr("first: expected one argument")
	}
	return args[0], nil
}

func (firstAggregateFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (interface{}, error) {
	if len(args[0].Values) == 0 {
		return nil, nil
	}
	return args[0].Values[0], nil
}
