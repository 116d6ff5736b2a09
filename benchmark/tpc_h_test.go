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

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/dolthub/tinyquery"
)

// queries holds a couple of representative TPC-H-flavored queries run
// against the synthetic part/supplier tables below, one testing.B
// sub-benchmark each.
var queries = []struct {
	name  string
	query string
}{
	{"CountPart", "SELECT count(1) FROM tpch.part"},
	{"AvgRetailPriceByMfgr", "SELECT p_mfgr, avg(p_retailprice) FROM tpch.part GROUP BY p_mfgr"},
	{"PartSupplierJoin", "SELECT p_name, s_name FROM tpch.part JOIN tpch.supplier ON tpch.part.p_partkey = tpch.supplier.s_suppkey"},
}

func BenchmarkTpch(b *testing.B) {
	b.Log("generating database")
	engine, err := genEngine(b)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			for n := 0; n < b.N; n++ {
				if _, err := engine.Query(q.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func genEngine(b *testing.B) (*tinyquery.Engine, error) {
	engine := tinyquery.New(tinyquery.Config{})
	rng := rand.New(rand.NewSource(1))

	for _, m := range tpchTableMetadata {
		b.Log("generating table", m.name)
		r := strings.NewReader(genCSV(rng, m))
		if err := engine.Catalog.LoadTableFromCSV("tpch", m.name, m.schema, r); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// genCSV synthesizes m.rows of headerless CSV matching m.schema, so the
// benchmark needs no external fixture files or generator binary.
func genCSV(rng *rand.Rand, m tableMetadata) string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		fields := make([]string, len(m.schema))
		for j, f := range m.schema {
			switch f.Type {
			case "INTEGER":
				fields[j] = fmt.Sprintf("%d", i+1)
			case "FLOAT":
				fields[j] = fmt.Sprintf("%.2f", rng.Float64()*1000)
			default:
				fields[j] = fmt.Sprintf("%s_%d", f.Name, i)
			}
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}
