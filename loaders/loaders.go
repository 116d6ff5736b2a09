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

// Package loaders turns external table data — headerless CSV and
// newline-delimited JSON into the sql.Context shape the
// catalog stores. Record-typed JSON fields are flattened into dotted
// column names at load time, with REPEATED-ness inherited from any
// REPEATED ancestor, matching the Python original's load_table_from_csv /
// load_table_from_newline_delimited_json.
package loaders

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// FieldType is the JSON schema type vocabulary BigQuery table schemas
// use: every
// scalar column type, plus RECORD for nested objects that flatten away.
type FieldType string

const (
	FieldInteger   FieldType = "INTEGER"
	FieldFloat     FieldType = "FLOAT"
	FieldBoolean   FieldType = "BOOLEAN"
	FieldString    FieldType = "STRING"
	FieldTimestamp FieldType = "TIMESTAMP"
	FieldRecord    FieldType = "RECORD"
)

func (t FieldType) toType() (types.Type, error) {
	switch t {
	case FieldInteger:
		return types.Int, nil
	case FieldFloat:
		return types.Float, nil
	case FieldBoolean:
		return types.Bool, nil
	case FieldString:
		return types.String, nil
	case FieldTimestamp:
		return types.Timestamp, nil
	default:
		return "", errors.Errorf("unknown field type %q", t)
	}
}

// Field is one entry of a load schema: a column name, its declared type
// and mode, and (for RECORD fields) its nested fields.
type Field struct {
	Name   string
	Type   FieldType
	Mode   types.Mode
	Fields []Field
}

// Flatten exposes the schema-flattening algorithm used by LoadCSV and
// LoadNDJSON so callers (e.g. catalog.MakeEmptyTable) can derive a
// table's column order/types/modes without loading any rows.
func Flatten(schema []Field) ([]sql.ColumnName, map[sql.ColumnName]types.Type, map[sql.ColumnName]types.Mode, error) {
	return flatten(schema, "", false)
}

// flatten walks schema depth-first, producing the ordered list of leaf
// (non-RECORD) columns under dotted names, with mode REPEATED whenever
// any ancestor field was REPEATED — a field that is a child of any
// REPEATED record becomes itself REPEATED.
func flatten(fields []Field, prefix string, ancestorRepeated bool) ([]sql.ColumnName, map[sql.ColumnName]types.Type, map[sql.ColumnName]types.Mode, error) {
	var order []sql.ColumnName
	typesOut := map[sql.ColumnName]types.Type{}
	modesOut := map[sql.ColumnName]types.Mode{}
	for _, f := range fields {
		full := f.Name
		if prefix != "" {
			full = prefix + "." + f.Name
		}
		effectiveRepeated := ancestorRepeated || f.Mode == types.Repeated
		if f.Type == FieldRecord {
			childOrder, childTypes, childModes, err := flatten(f.Fields, full, effectiveRepeated)
			if err != nil {
				return nil, nil, nil, err
			}
			order = append(order, childOrder...)
			for k, v := range childTypes {
				typesOut[k] = v
			}
			for k, v := range childModes {
				modesOut[k] = v
			}
			continue
		}
		t, err := f.Type.toType()
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "field %q", full)
		}
		mode := f.Mode
		if effectiveRepeated {
			mode = types.Repeated
		}
		name := sql.ColumnName{Column: full}
		order = append(order, name)
		typesOut[name] = t
		modesOut[name] = mode
	}
	return order, typesOut, modesOut, nil
}

func leafDottedNames(fields []Field, prefix string) []string {
	var out []string
	for _, f := range fields {
		full := f.Name
		if prefix != "" {
			full = prefix + "." + f.Name
		}
		if f.Type == FieldRecord {
			out = append(out, leafDottedNames(f.Fields, full)...)
			continue
		}
		out = append(out, full)
	}
	return out
}

func newColumns(order []sql.ColumnName, typesOut map[sql.ColumnName]types.Type, modesOut map[sql.ColumnName]types.Mode) map[sql.ColumnName]*sql.Column {
	columns := make(map[sql.ColumnName]*sql.Column, len(order))
	for _, name := range order {
		columns[name] = &sql.Column{Type: typesOut[name], Mode: modesOut[name]}
	}
	return columns
}

// LoadCSV parses headerless, comma-delimited rows against a flat schema
// (no RECORD fields): the literal field value "null" becomes a NULL,
// everything else is cast to the column's declared type. Row count must
// match schema field count.
func LoadCSV(r io.Reader, schema []Field) (*sql.Context, []sql.ColumnName, error) {
	for _, f := range schema {
		if f.Type == FieldRecord {
			return nil, nil, errors.New("CSV loader does not support RECORD fields")
		}
	}
	order, typesOut, modesOut, err := flatten(schema, "", false)
	if err != nil {
		return nil, nil, err
	}
	columns := newColumns(order, typesOut, modesOut)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	numRows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, sql.ErrLoad.New(err.Error())
		}
		if len(record) != len(order) {
			return nil, nil, sql.ErrLoad.New(
				errors.Errorf("row has %d fields, schema has %d", len(record), len(order)).Error())
		}
		for i, name := range order {
			col := columns[name]
			cell := record[i]
			var value interface{}
			if cell == "null" {
				value = nil
			} else {
				value, err = types.Cast(cell, col.Type)
				if err != nil {
					return nil, nil, sql.ErrLoad.New(err.Error())
				}
			}
			col.Values = append(col.Values, value)
		}
		numRows++
	}
	return sql.NewContext(numRows, order, columns, nil), order, nil
}

// LoadNDJSON parses one JSON object per line against schema, flattening
// nested RECORD fields into dotted column names. A field missing from a
// given line's object becomes NULL (or an empty list, if REPEATED).
// Fields nested under a REPEATED RECORD are aggregated into one list per
// parent record, in array iteration order.
func LoadNDJSON(r io.Reader, schema []Field) (*sql.Context, []sql.ColumnName, error) {
	order, typesOut, modesOut, err := flatten(schema, "", false)
	if err != nil {
		return nil, nil, err
	}
	columns := newColumns(order, typesOut, modesOut)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	numRows := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, nil, sql.ErrLoad.New(err.Error())
		}
		out := map[string]interface{}{}
		if err := extractObject(obj, schema, "", out); err != nil {
			return nil, nil, err
		}
		for _, name := range order {
			columns[name].Values = append(columns[name].Values, out[name.Column])
		}
		numRows++
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, sql.ErrLoad.New(err.Error())
	}
	return sql.NewContext(numRows, order, columns, nil), order, nil
}

func extractObject(obj map[string]interface{}, fields []Field, prefix string, out map[string]interface{}) error {
	for _, f := range fields {
		full := f.Name
		if prefix != "" {
			full = prefix + "." + f.Name
		}
		raw, present := obj[f.Name]
		if f.Mode == types.Repeated {
			arr, _ := raw.([]interface{})
			if f.Type == FieldRecord {
				lists := map[string][]interface{}{}
				for _, leaf := range leafDottedNames(f.Fields, full) {
					lists[leaf] = []interface{}{}
				}
				for _, elem := range arr {
					elemMap, _ := elem.(map[string]interface{})
					tmp := map[string]interface{}{}
					if err := extractObject(elemMap, f.Fields, full, tmp); err != nil {
						return err
					}
					for k, v := range tmp {
						lists[k] = append(lists[k], v)
					}
				}
				for k, v := range lists {
					out[k] = v
				}
			} else {
				t, err := f.Type.toType()
				if err != nil {
					return err
				}
				vals := make([]interface{}, 0, len(arr))
				for _, e := range arr {
					casted, err := types.Cast(e, t)
					if err != nil {
						return sql.ErrLoad.New(err.Error())
					}
					vals = append(vals, casted)
				}
				out[full] = vals
			}
			continue
		}
		if f.Type == FieldRecord {
			var childMap map[string]interface{}
			if present && raw != nil {
				childMap, _ = raw.(map[string]interface{})
			}
			if err := extractObject(childMap, f.Fields, full, out); err != nil {
				return err
			}
			continue
		}
		if !present || raw == nil {
			out[full] = nil
			continue
		}
		t, err := f.Type.toType()
		if err != nil {
			return err
		}
		casted, err := types.Cast(raw, t)
		if err != nil {
			return sql.ErrLoad.New(err.Error())
		}
		out[full] = casted
	}
	return nil
}
