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
	"encoding/json"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure"
	"github.com/pkg/errors"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// mathFunction implements the unary numeric-in/numeric-out functions abs,
// floor, ln, log10, log2.
type mathFunction struct {
	name    string
	argType types.Type
	retType types.Type
	fn      func(float64) float64
}

func (f mathFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !numeric(args[0]) {
		return "", typeErr("%s: expected one numeric argument", f.name)
	}
	return f.retType, nil
}

func (f mathFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			result := f.fn(toFloat(v))
			if f.retType == types.Int {
				values[i] = int64(result)
			} else {
				values[i] = result
			}
		}
		return &sql.Column{Type: f.retType, Mode: types.Nullable, Values: values}, nil
	})
}

var absFunction = mathFunction{name: "abs", retType: types.Float, fn: math.Abs}
var floorFunction = mathFunction{name: "floor", retType: types.Int, fn: math.Floor}
var lnFunction = mathFunction{name: "ln", retType: types.Float, fn: math.Log}
var log10Function = mathFunction{name: "log10", retType: types.Float, fn: math.Log10}
var log2Function = mathFunction{name: "log2", retType: types.Float, fn: func(x float64) float64 { return math.Log2(x) }}

// logFunction implements log(x) (natural log) and log(x, base).
type logFunction struct{}

func (logFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) == 1 && numeric(args[0]) {
		return types.Float, nil
	}
	if len(args) == 2 && numeric(args[0]) && numeric(args[1]) {
		return types.Float, nil
	}
	return "", typeErr("log: expected one or two numeric arguments")
}

func (logFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			x := args[0].Values[i]
			if x == nil {
				continue
			}
			if len(args) == 1 {
				values[i] = math.Log(toFloat(x))
				continue
			}
			base := args[1].Values[i]
			if base == nil {
				continue
			}
			values[i] = math.Log(toFloat(x)) / math.Log(toFloat(base))
		}
		return &sql.Column{Type: types.Float, Mode: types.Nullable, Values: values}, nil
	})
}

// powFunction implements pow(base, exponent).
type powFunction struct{}

func (powFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || !numeric(args[0]) || !numeric(args[1]) {
		return "", typeErr("pow: expected two numeric arguments")
	}
	return types.Float, nil
}

func (powFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			x, y := args[0].Values[i], args[1].Values[i]
			if x == nil || y == nil {
				continue
			}
			values[i] = math.Pow(toFloat(x), toFloat(y))
		}
		return &sql.Column{Type: types.Float, Mode: types.Nullable, Values: values}, nil
	})
}

// integerFunction implements integer(x): truncating cast to INT.
type integerFunction struct{}

func (integerFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !numeric(args[0]) {
		return "", typeErr("integer: expected one numeric argument")
	}
	return types.Int, nil
}

func (integerFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			values[i] = int64(toFloat(v))
		}
		return &sql.Column{Type: types.Int, Mode: types.Nullable, Values: values}, nil
	})
}

// randFunction implements rand(): zero-argument, returns a uniform FLOAT
// in [0, 1) per row.
type randFunction struct{}

func (randFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 0 {
		return "", typeErr("rand: expected no arguments")
	}
	return types.Float, nil
}

func (randFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	values := make([]interface{}, numRows)
	for i := range values {
		values[i] = rand.Float64()
	}
	return &sql.Column{Type: types.Float, Mode: types.Nullable, Values: values}, nil
}

// hashFunction implements hash(value): a stable 64-bit hash of the value
// itself (hashstructure.Hash), returned as INT (matching BigQuery's hash()
// semantics of an opaque deterministic integer, not any particular
// algorithm).
type hashFunction struct{}

func (hashFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 {
		return "", typeErr("hash: expected one argument")
	}
	return types.Int, nil
}

func (hashFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			sum, err := hashstructure.Hash(v, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "hash: %v", v)
			}
			values[i] = int64(sum)
		}
		return &sql.Column{Type: types.Int, Mode: types.Nullable, Values: values}, nil
	})
}

// leastGreatest implements least(...)/greatest(...): variadic, all
// arguments comparable, returns the min/max non-null value, or null if
// every argument is null.
type leastGreatest struct {
	name string
	pick func(cmp int) bool // true if the first value should be kept
}

func (f leastGreatest) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) == 0 {
		return "", typeErr("%s: expected at least one argument", f.name)
	}
	result := args[0]
	for _, t := range args[1:] {
		if t != result && !(numeric(t) && numeric(result)) {
			return "", typeErr("%s: mismatched argument types %v", f.name, args)
		}
		if result != types.Float && t == types.Float {
			result = types.Float
		}
	}
	return result, nil
}

func (f leastGreatest) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		resultType, err := f.CheckTypes(columnTypes(args))
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		for row := 0; row < numRows; row++ {
			var best interface{}
			for _, col := range args {
				v := col.Values[row]
				if v == nil {
					continue
				}
				if best == nil {
					best = v
					continue
				}
				if f.pick(compareValues(v, best)) {
					best = v
				}
			}
			values[row] = best
		}
		return &sql.Column{Type: resultType, Mode: types.Nullable, Values: values}, nil
	})
}

func columnTypes(cols []*sql.Column) []types.Type {
	out := make([]types.Type, len(cols))
	for i, c := range cols {
		out[i] = c.Type
	}
	return out
}

// ifFunction implements if(cond, then, else).
type ifFunction struct{}

func (ifFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 3 || args[0] != types.Bool {
		return "", typeErr("if: expected (bool, T, T)")
	}
	if args[1] == args[2] {
		return args[1], nil
	}
	if numeric(args[1]) && numeric(args[2]) {
		if args[1] == types.Float || args[2] == types.Float {
			return types.Float, nil
		}
		return types.Int, nil
	}
	return "", typeErr("if: branch type mismatch %v / %v", args[1], args[2])
}

func (ifFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		resultType, err := ifFunction{}.CheckTypes(columnTypes(args))
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			cond := args[0].Values[i]
			if cond == nil {
				continue
			}
			if cond.(bool) {
				values[i] = args[1].Values[i]
			} else {
				values[i] = args[2].Values[i]
			}
		}
		return &sql.Column{Type: resultType, Mode: types.Nullable, Values: values}, nil
	})
}

// ifNullFunction implements ifnull(expr, default): returns expr if
// non-null, else default.
type ifNullFunction struct{}

func (ifNullFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 {
		return "", typeErr("ifnull: expected two arguments")
	}
	if args[0] == args[1] || (numeric(args[0]) && numeric(args[1])) {
		if args[0] == types.Float || args[1] == types.Float {
			return types.Float, nil
		}
		return args[0], nil
	}
	return "", typeErr("ifnull: type mismatch %v / %v", args[0], args[1])
}

func (ifNullFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		resultType, err := ifNullFunction{}.CheckTypes(columnTypes(args))
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			if args[0].Values[i] != nil {
				values[i] = args[0].Values[i]
			} else {
				values[i] = args[1].Values[i]
			}
		}
		return &sql.Column{Type: resultType, Mode: types.Nullable, Values: values}, nil
	})
}

// coalesceFunction implements coalesce(...): first non-null argument.
type coalesceFunction struct{}

func (coalesceFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) == 0 {
		return "", typeErr("coalesce: expected at least one argument")
	}
	result := args[0]
	for _, t := range args[1:] {
		if t != result && !(numeric(t) && numeric(result)) {
			return "", typeErr("coalesce: mismatched argument types %v", args)
		}
		if t == types.Float {
			result = types.Float
		}
	}
	return result, nil
}

func (coalesceFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		resultType, err := coalesceFunction{}.CheckTypes(columnTypes(args))
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		for row := 0; row < numRows; row++ {
			for _, col := range args {
				if col.Values[row] != nil {
					values[row] = col.Values[row]
					break
				}
			}
		}
		return &sql.Column{Type: resultType, Mode: types.Nullable, Values: values}, nil
	})
}

// inFunction implements expr IN (candidates...): true if expr equals any
// candidate, propagating null only when expr itself is null.
type inFunction struct{}

func (inFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) < 2 {
		return "", typeErr("in: expected a subject and at least one candidate")
	}
	return types.Bool, nil
}

func (inFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for row := 0; row < numRows; row++ {
			subject := args[0].Values[row]
			if subject == nil {
				continue
			}
			found := false
			for _, col := range args[1:] {
				v := col.Values[row]
				if v != nil && compareValues(subject, v) == 0 {
					found = true
					break
				}
			}
			values[row] = found
		}
		return &sql.Column{Type: types.Bool, Mode: types.Nullable, Values: values}, nil
	})
}

// containsFunction implements `haystack CONTAINS needle` for strings.
type containsFunction struct{}

func (containsFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.String || args[1] != types.String {
		return "", typeErr("contains: expected two string arguments")
	}
	return types.Bool, nil
}

func (containsFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for row := 0; row < numRows; row++ {
			h, n := args[0].Values[row], args[1].Values[row]
			if h == nil || n == nil {
				continue
			}
			values[row] = strings.Contains(h.(string), n.(string))
		}
		return &sql.Column{Type: types.Bool, Mode: types.Nullable, Values: values}, nil
	})
}

// concatFunction implements concat(a, b, ...): concatenates same-length
// string columns without flattening REPEATED mode. In the reference
// implementation this is dispatched like an aggregate (bypassing the
// scalar REPEATED-flatten wrapper) while still being registered as a
// plain scalar function for compile-time purposes; replicated here by
// simply never calling evaluateScalar.
type concatFunction struct{}

func (concatFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) == 0 {
		return "", typeErr("concat: expected at least one argument")
	}
	for _, t := range args {
		if t != types.String {
			return "", typeErr("concat: expected string arguments, got %v", args)
		}
	}
	return types.String, nil
}

func (concatFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	values := make([]interface{}, numRows)
	for row := 0; row < numRows; row++ {
		var sb strings.Builder
		isNull := false
		for _, col := range args {
			v := col.Values[row]
			if v == nil {
				isNull = true
				break
			}
			sb.WriteString(v.(string))
		}
		if !isNull {
			values[row] = sb.String()
		}
	}
	return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
}

// stringFunction implements string(x): casts any scalar value to its
// STRING representation.
type stringFunction struct{}

func (stringFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 {
		return "", typeErr("string: expected one argument")
	}
	return types.String, nil
}

func (stringFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			converted, err := types.Cast(v, types.String)
			if err != nil {
				return nil, err
			}
			values[i] = converted
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

// leftFunction implements left(str, n): the first n characters of str.
type leftFunction struct{}

func (leftFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.String || !types.IntLikeSet[args[1]] {
		return "", typeErr("left: expected (string, int)")
	}
	return types.String, nil
}

func (leftFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for row := 0; row < numRows; row++ {
			s, n := args[0].Values[row], args[1].Values[row]
			if s == nil || n == nil {
				continue
			}
			str := s.(string)
			count := int(toInt(n))
			if count > len(str) {
				count = len(str)
			}
			if count < 0 {
				count = 0
			}
			values[row] = str[:count]
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

// literalPattern pulls a single, column-constant regex/JSON-path literal
// out of a column: every value in the column must agree (this mirrors the
// reference implementation's restriction that the pattern argument to
// regexp_* / json_extract_* must be a compile-time constant, enforced at
// runtime by checking all rows agree).
func literalPattern(col *sql.Column, name string) (string, bool, error) {
	var pattern string
	seen := false
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		s := v.(string)
		if !seen {
			pattern = s
			seen = true
		} else if s != pattern {
			return "", false, typeErr("%s: pattern argument must be constant across all rows", name)
		}
	}
	return pattern, seen, nil
}

// regexpMatchFunction implements regexp_match(str, pattern).
type regexpMatchFunction struct{}

func (regexpMatchFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.String || args[1] != types.String {
		return "", typeErr("regexp_match: expected (string, string)")
	}
	return types.Bool, nil
}

func (regexpMatchFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		pattern, ok, err := literalPattern(args[1], "regexp_match")
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		if !ok {
			return &sql.Column{Type: types.Bool, Mode: types.Nullable, Values: values}, nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, typeErr("regexp_match: invalid pattern %q: %v", pattern, err)
		}
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			values[i] = re.MatchString(v.(string))
		}
		return &sql.Column{Type: types.Bool, Mode: types.Nullable, Values: values}, nil
	})
}

// regexpExtractFunction implements regexp_extract(str, pattern): the
// first capture group of the first match, or null if no match.
type regexpExtractFunction struct{}

func (regexpExtractFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.String || args[1] != types.String {
		return "", typeErr("regexp_extract: expected (string, string)")
	}
	return types.String, nil
}

func (regexpExtractFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		pattern, ok, err := literalPattern(args[1], "regexp_extract")
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		if !ok {
			return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, typeErr("regexp_extract: invalid pattern %q: %v", pattern, err)
		}
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			m := re.FindStringSubmatch(v.(string))
			if m == nil {
				continue
			}
			if len(m) > 1 {
				values[i] = m[1]
			} else {
				values[i] = m[0]
			}
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

// regexpReplaceFunction implements regexp_replace(str, pattern, repl).
type regexpReplaceFunction struct{}

func (regexpReplaceFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 3 || args[0] != types.String || args[1] != types.String || args[2] != types.String {
		return "", typeErr("regexp_replace: expected (string, string, string)")
	}
	return types.String, nil
}

func (regexpReplaceFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		pattern, ok, err := literalPattern(args[1], "regexp_replace")
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		if !ok {
			return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, typeErr("regexp_replace: invalid pattern %q: %v", pattern, err)
		}
		for i := 0; i < numRows; i++ {
			s, repl := args[0].Values[i], args[2].Values[i]
			if s == nil || repl == nil {
				continue
			}
			goRepl := regexp.MustCompile(`\\(\d)`).ReplaceAllString(repl.(string), `$$$1`)
			values[i] = re.ReplaceAllString(s.(string), goRepl)
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

// groupConcatUnquotedScalar implements the two-argument scalar form
// group_concat_unquoted(str, sep), which just joins each row's own
// REPEATED string values (flattened by evaluateScalar's wrapper would be
// wrong here, since the join is over a single row's repeated values, not
// across rows) -- handled directly against the raw column.
type groupConcatUnquotedScalar struct{}

func (groupConcatUnquotedScalar) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.String || args[1] != types.String {
		return "", typeErr("group_concat_unquoted: expected (string, string)")
	}
	return types.String, nil
}

func (groupConcatUnquotedScalar) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	sepCol := args[1]
	values := make([]interface{}, numRows)
	for row := 0; row < numRows; row++ {
		sep := sepCol.Values[row]
		if sep == nil {
			continue
		}
		parts := normalizeRepeatedNull(args[0].Values[row])
		strs := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != nil {
				strs = append(strs, p.(string))
			}
		}
		values[row] = strings.Join(strs, sep.(string))
	}
	return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
}

// nthFunction implements nth(index, list): 1-based index into a repeated
// field; out-of-range yields null.
type nthFunction struct{}

func (nthFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || !types.IntLikeSet[args[0]] {
		return "", typeErr("nth: expected (int, repeated)")
	}
	return args[1], nil
}

func (nthFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	idxCol, listCol := args[0], args[1]
	values := make([]interface{}, numRows)
	for row := 0; row < numRows; row++ {
		idx := idxCol.Values[row]
		if idx == nil {
			continue
		}
		n := int(toInt(idx))
		list := normalizeRepeatedNull(listCol.Values[row])
		if n < 1 || n > len(list) {
			continue
		}
		values[row] = list[n-1]
	}
	return &sql.Column{Type: listCol.Type, Mode: types.Nullable, Values: values}, nil
}

// firstScalarFunction implements the scalar form first(list): the first element
// of a repeated field for each row.
type firstScalarFunction struct{}

func (firstScalarFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 {
		return "", typeErr("first: expected one argument")
	}
	return args[0], nil
}

func (firstScalarFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	values := make([]interface{}, numRows)
	for row := 0; row < numRows; row++ {
		list := normalizeRepeatedNull(args[0].Values[row])
		if len(list) > 0 {
			values[row] = list[0]
		}
	}
	return &sql.Column{Type: args[0].Type, Mode: types.Nullable, Values: values}, nil
}

// jsonNoResult distinguishes "path not found" (returns SQL NULL) from a
// JSON null found at the path (returned as the literal string "null" for
// json_extract, consistent with BigQuery legacy SQL's JSON string
// semantics).
var jsonNoResult = struct{}{}

func jsonExtractPath(data interface{}, path string) (interface{}, bool) {
	path = strings.TrimPrefix(path, "$")
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '[' || r == ']' })
	cur := data
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := cur.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
			continue
		}
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := obj[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// jsonExtractFunction implements json_extract(json, path) and
// json_extract_scalar(json, path); scalar controls whether the result is
// re-serialized as JSON text (json_extract) or returned as a bare scalar
// string (json_extract_scalar).
type jsonExtractFunction struct {
	name   string
	scalar bool
}

func (f jsonExtractFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.String || args[1] != types.String {
		return "", typeErr("%s: expected (string, string)", f.name)
	}
	return types.String, nil
}

func (f jsonExtractFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		path, ok, err := literalPattern(args[1], f.name)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		if !ok {
			return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
		}
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			var parsed interface{}
			if err := json.Unmarshal([]byte(v.(string)), &parsed); err != nil {
				return nil, typeErr("%s: invalid JSON: %v", f.name, err)
			}
			result, found := jsonExtractPath(parsed, path)
			if !found {
				continue
			}
			if f.scalar {
				values[i] = scalarJSONToString(result)
			} else {
				encoded, err := json.Marshal(result)
				if err != nil {
					return nil, typeErr("%s: %v", f.name, err)
				}
				values[i] = string(encoded)
			}
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

func scalarJSONToString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		encoded, _ := json.Marshal(x)
		return string(encoded)
	}
}
