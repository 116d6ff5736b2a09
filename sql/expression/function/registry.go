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
	"strings"

	"github.com/dolthub/tinyquery/sql/expression"
)

// Scalars maps lowercased builtin function names to their scalar runtime
// implementation. concat is registered here (not in Aggregates) even
// though its Evaluate bypasses the REPEATED-flattening wrapper every
// other scalar function goes through -- it still behaves as an ordinary,
// non-aggregate call from the compiler's point of view.
var Scalars = map[string]expression.Function{
	"abs":     absFunction,
	"floor":   floorFunction,
	"integer": integerFunction{},
	"ln":      lnFunction,
	"log":     logFunction{},
	"log10":   log10Function,
	"log2":    log2Function,
	"pow":     powFunction{},
	"rand":    randFunction{},
	"hash":    hashFunction{},
	"least":   leastGreatest{name: "least", pick: func(c int) bool { return c < 0 }},
	"greatest": leastGreatest{name: "greatest", pick: func(c int) bool { return c > 0 }},

	"concat":               concatFunction{},
	"string":               stringFunction{},
	"left":                 leftFunction{},
	"regexp_match":         regexpMatchFunction{},
	"regexp_extract":       regexpExtractFunction{},
	"regexp_replace":       regexpReplaceFunction{},
	"contains":             containsFunction{},
	"group_concat_unquoted": groupConcatUnquotedScalar{},

	"json_extract":        jsonExtractFunction{name: "json_extract", scalar: false},
	"json_extract_scalar": jsonExtractFunction{name: "json_extract_scalar", scalar: true},

	"if":          ifFunction{},
	"ifnull":      ifNullFunction{},
	"coalesce":    coalesceFunction{},
	"in":          inFunction{},
	"is_null":     UnaryOperators["is_null"],
	"is_not_null": UnaryOperators["is_not_null"],
	"not":         UnaryOperators["not"],

	"nth":   nthFunction{},
	"first": firstScalarFunction{},

	"timestamp":          timestampFunction{},
	"current_timestamp":  currentTimestampFunction,
	"current_date":       currentDateFunction,
	"current_time":       currentTimeFunction,
	"now":                nowFunction,
	"date":               dateFunction{},
	"day":                dayFunction,
	"dayofweek":          dayOfWeekFunction,
	"dayofyear":          dayOfYearFunction,
	"format_utc_usec":    formatUTCUsecFunction{},
	"hour":               hourFunction,
	"minute":             minuteFunction,
	"month":              monthFunction,
	"quarter":            quarterFunction,
	"second":             secondFunction,
	"time":               timeFunction{},
	"timestamp_to_msec":  timestampToMsecFunction,
	"timestamp_to_sec":   timestampToSecFunction,
	"timestamp_to_usec":  timestampToUsecFunction,
	"msec_to_timestamp":  msecToTimestampFunction,
	"sec_to_timestamp":   secToTimestampFunction,
	"usec_to_timestamp":  usecToTimestampFunction,
	"parse_utc_usec":     parseUTCUsecFunction{},
	"date_add":           dateAddFunction{},
	"datediff":           dateDiffFunction{},
	"strftime_utc_usec":  strftimeUTCUsecFunction{},
	"utc_usec_to_day":    utcUsecToDayFunction,
	"utc_usec_to_hour":   utcUsecToHourFunction,
	"utc_usec_to_month":  utcUsecToMonthFunction,
	"utc_usec_to_year":   utcUsecToYearFunction,
	"utc_usec_to_week":   utcUsecToWeekFunction,
	"week":               weekFunction,
	"year":               yearFunction,
}

// Aggregates maps lowercased builtin aggregate function names to their
// runtime implementation. first appears in both Scalars and Aggregates:
// as a scalar it takes the first element of a REPEATED value per row; as
// an aggregate it takes the first row of a group. The analyzer decides
// which one a given call resolves to based on the call's position.
var Aggregates = map[string]expression.AggregateFunction{
	"sum":                   sumFunction{},
	"min":                   minMaxFunction{name: "min", pick: func(c int) bool { return c < 0 }},
	"max":                   minMaxFunction{name: "max", pick: func(c int) bool { return c > 0 }},
	"count":                 countFunction{},
	"count_distinct":        countDistinctFunction{},
	"avg":                   avgFunction{},
	"stddev_samp":           stddevSampFunction{},
	"quantiles":             quantilesFunction{},
	"group_concat_unquoted": groupConcatUnquotedAggregate{},
	"first":                 firstAggregateFunction{},
}

// IsAggregate reports whether name identifies a function that can only
// be used as an aggregate (i.e. it has no scalar counterpart and must
// appear in a position that supplies a whole group's column).
func IsAggregate(name string) bool {
	name = strings.ToLower(name)
	_, isAgg := Aggregates[name]
	_, isScalar := Scalars[name]
	return isAgg && !isScalar
}

// LookupScalar returns the scalar Function registered for name, if any.
func LookupScalar(name string) (expression.Function, bool) {
	f, ok := Scalars[strings.ToLower(name)]
	return f, ok
}

// LookupAggregate returns the AggregateFunction registered for name, if
// any.
func LookupAggregate(name string) (expression.AggregateFunction, bool) {
	f, ok := Aggregates[strings.ToLower(name)]
	return f, ok
}

// LookupUnaryOperator returns the Function implementing unary operator
// op (e.g. "-").
func LookupUnaryOperator(op string) (expression.Function, bool) {
	f, ok := UnaryOperators[strings.ToLower(op)]
	return f, ok
}

// LookupBinaryOperator returns the Function implementing binary operator
// op (e.g. "+", "and").
func LookupBinaryOperator(op string) (expression.Function, bool) {
	f, ok := BinaryOperators[strings.ToLower(op)]
	return f, ok
}
