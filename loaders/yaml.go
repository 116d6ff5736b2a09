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

package loaders

import (
	"io"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// YAMLDataset is a convenience fixture format for tests and the
// cmd/tinyquery CLI's --load flag: a flat schema plus inline rows,
// avoiding the need to hand-write CSV or NDJSON files for small
// datasets — a Go-native addition alongside the BigQuery-shaped CSV/
// NDJSON load surface.
type YAMLDataset struct {
	Name   string                   `yaml:"name"`
	Schema []YAMLField              `yaml:"schema"`
	Rows   []map[string]interface{} `yaml:"rows"`
}

// YAMLField is one flat schema entry of a YAMLDataset.
type YAMLField struct {
	Name string    `yaml:"name"`
	Type FieldType `yaml:"type"`
	Mode types.Mode `yaml:"mode"`
}

// LoadYAML parses a YAMLDataset fixture and returns the table's column
// order, types/modes and materialized Context.
func LoadYAML(r io.Reader) (*YAMLDataset, *sql.Context, []sql.ColumnName, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, nil, nil, sql.ErrLoad.New(err.Error())
	}
	var ds YAMLDataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, nil, nil, sql.ErrLoad.New(err.Error())
	}

	fields := make([]Field, len(ds.Schema))
	for i, f := range ds.Schema {
		mode := f.Mode
		if mode == "" {
			mode = types.Nullable
		}
		fields[i] = Field{Name: f.Name, Type: f.Type, Mode: mode}
	}
	order, typesOut, modesOut, err := flatten(fields, "", false)
	if err != nil {
		return nil, nil, nil, err
	}
	columns := newColumns(order, typesOut, modesOut)
	for _, row := range ds.Rows {
		out := map[string]interface{}{}
		if err := extractObject(row, fields, "", out); err != nil {
			return nil, nil, nil, err
		}
		for _, name := range order {
			columns[name].Values = append(columns[name].Values, out[name.Column])
		}
	}
	ctx := sql.NewContext(len(ds.Rows), order, columns, nil)
	return &ds, ctx, order, nil
}
