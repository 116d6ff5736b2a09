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

package benchmark

import "github.com/dolthub/tinyquery/loaders"

// tableMetadata describes one generated TPC-H-style table: its schema
// and how many rows to synthesize — just the two tables the benchmark
// queries below actually join.
type tableMetadata struct {
	name   string
	schema []loaders.Field
	rows   int
}

var tpchTableMetadata = []tableMetadata{
	{
		name: "part",
		rows: 2000,
		schema: []loaders.Field{
			{Name: "p_partkey", Type: loaders.FieldInteger},
			{Name: "p_name", Type: loaders.FieldString},
			{Name: "p_mfgr", Type: loaders.FieldString},
			{Name: "p_brand", Type: loaders.FieldString},
			{Name: "p_type", Type: loaders.FieldString},
			{Name: "p_size", Type: loaders.FieldInteger},
			{Name: "p_retailprice", Type: loaders.FieldFloat},
			{Name: "p_comment", Type: loaders.FieldString},
		},
	},
	{
		name: "supplier",
		rows: 200,
		schema: []loaders.Field{
			{Name: "s_suppkey", Type: loaders.FieldInteger},
			{Name: "s_name", Type: loaders.FieldString},
			{Name: "s_address", Type: loaders.FieldString},
			{Name: "s_nationkey", Type: loaders.FieldInteger},
			{Name: "s_acctbal", Type: loaders.FieldFloat},
		},
	},
}
