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
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// normalizeRepeatedNull canonicalizes the three equivalent ways of writing
// "no values" for a repeated field (nil, []interface{}{nil}, an empty
// slice) down to an empty slice.
func normalizeRepeatedNull(value interface{}) []interface{} {
	if value == nil {
		return []interface{}{}
	}
	if list, ok := value.([]interface{}); ok {
		if len(list) == 1 && list[0] == nil {
			return []interface{}{}
		}
		return list
	}
	return []interface{}{value}
}

// normalizeColumnToLength expands a scalar or short repeated value to
// exactly desiredCount elements, per the rule: a scalar is repeated
// desiredCount times; a repeated value of length 0 or 1 is padded (with
// NULL or its single element); a repeated value already of length
// desiredCount passes through unchanged.
func normalizeColumnToLength(value interface{}, desiredCount int) []interface{} {
	if desiredCount < 1 {
		desiredCount = 1
	}
	if list, ok := value.([]interface{}); ok {
		if len(list) == desiredCount {
			return list
		}
		fill := interface{}(nil)
		if len(list) == 1 {
			fill = list[0]
		}
		out := make([]interface{}, desiredCount)
		for i := range out {
			out[i] = fill
		}
		return out
	}
	out := make([]interface{}, desiredCount)
	for i := range out {
		out[i] = value
	}
	return out
}

// flattenColumnValues flattens a set of argument columns (identified by
// repeatedIndices as REPEATED) into one row per individual repeated value,
// duplicating scalar argument values across the expansion and returning the
// per-source-row repetition counts needed to rebuild the result afterwards.
func flattenColumnValues(repeatedIndices []int, columnValues [][]interface{}, numRows int) ([]int, [][]interface{}) {
	repetitionCounts := make([]int, numRows)
	for row := 0; row < numRows; row++ {
		count := 1
		for _, idx := range repeatedIndices {
			if list, ok := columnValues[idx][row].([]interface{}); ok && len(list) > count {
				count = len(list)
			}
		}
		repetitionCounts[row] = count
	}

	flattened := make([][]interface{}, len(columnValues))
	for col := range columnValues {
		flattened[col] = make([]interface{}, 0, numRows)
	}
	for row := 0; row < numRows; row++ {
		count := repetitionCounts[row]
		for col, values := range columnValues {
			normalized := normalizeColumnToLength(values[row], count)
			flattened[col] = append(flattened[col], normalized...)
		}
	}
	return repetitionCounts, flattened
}

// rebuildColumnValues is the inverse of flattenColumnValues: given the
// repetition counts recorded per source row and the flat per-value results,
// it repacks them into one (possibly empty) slice per source row.
func rebuildColumnValues(repetitions []int, values []interface{}) []interface{} {
	result := make([]interface{}, len(repetitions))
	pos := 0
	for i, count := range repetitions {
		take := count
		if take < 1 {
			take = 1
		}
		chunk := values[pos : pos+take]
		pos += take
		normalized := make([]interface{}, len(chunk))
		copy(normalized, chunk)
		result[i] = normalizeRepeatedNull(interface{}(normalized))
	}
	return result
}

// evaluateScalar implements the ScalarFunction wrapping behavior shared by
// every non-aggregate builtin: if none of the arguments are REPEATED, it
// calls inner directly; otherwise it flattens every argument to one row per
// individual repeated value, calls inner over the flattened rows, and
// repacks the result back into a REPEATED column.
func evaluateScalar(numRows int, args []*sql.Column, inner func(numRows int, args []*sql.Column) (*sql.Column, error)) (*sql.Column, error) {
	var repeatedIndices []int
	for i, col := range args {
		if col.Mode == types.Repeated {
			repeatedIndices = append(repeatedIndices, i)
		}
	}
	if len(repeatedIndices) == 0 {
		return inner(numRows, args)
	}

	columnValues := make([][]interface{}, len(args))
	for i, col := range args {
		columnValues[i] = col.Values
	}
	repetitions, flattened := flattenColumnValues(repeatedIndices, columnValues, numRows)

	flatArgs := make([]*sql.Column, len(args))
	for i, col := range args {
		flatArgs[i] = &sql.Column{Type: col.Type, Mode: types.Nullable, Values: flattened[i]}
	}
	result, err := inner(len(flattened[0]), flatArgs)
	if err != nil {
		return nil, err
	}
	rebuilt := rebuildColumnValues(repetitions, result.Values)
	return &sql.Column{Type: result.Type, Mode: types.Repeated, Values: rebuilt}, nil
}
