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

// Command tinyquery is a small REPL wired directly to a tinyquery.Engine:
// it loads zero or more --load dataset fixtures, then runs either the
// queries given on the command line or, with none given, reads queries
// one per line from stdin until EOF. TinyQuery is an in-process engine
// with no wire-protocol server of its own, so this is the only way to
// drive it interactively.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dolthub/tinyquery"
	"github.com/dolthub/tinyquery/loaders"
	"github.com/dolthub/tinyquery/sql"
)

func main() {
	var loadFlags multiFlag
	flag.Var(&loadFlags, "load", "path to a YAML dataset fixture to load before running queries (repeatable)")
	readOnly := flag.Bool("read-only", false, "disallow COPY against the catalog")
	snapshotPath := flag.String("snapshot", "", "boltdb file to restore the catalog from on start and persist it to on exit")
	flag.Parse()

	engine := tinyquery.New(tinyquery.Config{IsReadOnly: *readOnly})

	if *snapshotPath != "" {
		if err := engine.Catalog.Restore(*snapshotPath); err != nil {
			log.Fatalf("restoring snapshot %s: %v", *snapshotPath, err)
		}
	}

	for _, path := range loadFlags {
		if err := loadFixture(engine, path); err != nil {
			log.Fatalf("loading %s: %v", path, err)
		}
	}

	queries := flag.Args()
	if len(queries) > 0 {
		for _, q := range queries {
			runQuery(engine, q)
		}
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			runQuery(engine, line)
		}
	}

	if *snapshotPath != "" {
		if err := engine.Catalog.Snapshot(*snapshotPath); err != nil {
			log.Fatalf("persisting snapshot %s: %v", *snapshotPath, err)
		}
	}
}

func loadFixture(engine *tinyquery.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ds, ctx, order, err := loaders.LoadYAML(f)
	if err != nil {
		return err
	}
	engine.Catalog.AddTable("", ds.Name, order, ctx)
	return nil
}

func runQuery(engine *tinyquery.Engine, query string) {
	result, err := engine.Query(query)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	printContext(result)
}

func printContext(ctx *sql.Context) {
	header := make([]string, len(ctx.Order))
	for i, name := range ctx.Order {
		header[i] = name.String()
	}
	fmt.Println(strings.Join(header, "\t"))

	for r := 0; r < ctx.NumRows; r++ {
		cells := make([]string, len(ctx.Order))
		for i, name := range ctx.Order {
			cells[i] = fmt.Sprintf("%v", ctx.Columns[name].Values[r])
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
