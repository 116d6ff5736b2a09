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

// Package catalog is TinyQuery's table/view registry: a single
// in-process namespace of "dataset.table"-named tables and views,
// holding tables and views behind a single mutex, without the
// grant-table and multi-database-server machinery that doesn't apply
// to an in-process engine.
package catalog

import (
	"io"
	"sort"
	"sync"

	"github.com/dolthub/tinyquery/loaders"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/ast"
	"github.com/dolthub/tinyquery/sql/typectx"
	"github.com/dolthub/tinyquery/sql/types"
)

// CreateDisposition mirrors the BigQuery copy-job configuration field of
// the same name.
type CreateDisposition string

// WriteDisposition mirrors the BigQuery copy-job configuration field of
// the same name.
type WriteDisposition string

const (
	CreateIfNeeded CreateDisposition = "CREATE_IF_NEEDED"
	CreateNever    CreateDisposition = "CREATE_NEVER"

	WriteEmpty    WriteDisposition = "WRITE_EMPTY"
	WriteAppend   WriteDisposition = "WRITE_APPEND"
	WriteTruncate WriteDisposition = "WRITE_TRUNCATE"
)

// Table is a materialized, loaded table: its schema and its data.
type Table struct {
	Name    string
	Columns []sql.ColumnName
	Context *sql.Context
}

// View is a named, parsed query; the analyzer inlines a view's AST
// wherever it's referenced.
type View struct {
	Name  string
	Query *ast.Select
}

// Catalog is the mutable set of tables and views visible to compiled
// queries, keyed by "dataset.table" name. Safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
	views  map[string]*View
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{tables: map[string]*Table{}, views: map[string]*View{}}
}

func qualifiedName(dataset, table string) string {
	if dataset == "" {
		return table
	}
	return dataset + "." + table
}

// AddTable registers or replaces a table.
func (c *Catalog) AddTable(dataset, name string, columns []sql.ColumnName, ctx *sql.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[qualifiedName(dataset, name)] = &Table{Name: qualifiedName(dataset, name), Columns: columns, Context: ctx}
}

// AddView registers or replaces a view. Returns ErrViewCycle if query
// transitively references name itself.
func (c *Catalog) AddView(dataset, name string, query *ast.Select) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	full := qualifiedName(dataset, name)
	if referencesView(query, full, map[string]bool{full: true}, c.views) {
		return sql.ErrViewCycle.New(full)
	}
	c.views[full] = &View{Name: full, Query: query}
	return nil
}

func referencesView(node ast.TableExpr, root string, seen map[string]bool, views map[string]*View) bool {
	switch t := node.(type) {
	case ast.TableID:
		name := qualifiedName("", t.Name)
		if name == root {
			return true
		}
		view, ok := views[name]
		if !ok || seen[name] {
			return false
		}
		seen[name] = true
		return referencesView(view.Query, root, seen, views)
	case *ast.Select:
		if t.TableExpr != nil {
			return referencesView(t.TableExpr, root, seen, views)
		}
		return false
	case ast.Join:
		if referencesView(t.Base, root, seen, views) {
			return true
		}
		for _, p := range t.JoinParts {
			if referencesView(p.TableExpr, root, seen, views) {
				return true
			}
		}
		return false
	case ast.TableUnion:
		for _, tbl := range t.Tables {
			if referencesView(tbl, root, seen, views) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// LookupTable returns the table registered under dataset.name.
func (c *Catalog) LookupTable(dataset, name string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[qualifiedName(dataset, name)]
	return t, ok
}

// LookupView returns the view registered under dataset.name.
func (c *Catalog) LookupView(dataset, name string) (*View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[qualifiedName(dataset, name)]
	return v, ok
}

// Resolve looks up name (which may be "table" or "dataset.table") as
// either a table or a view, returning whichever is found.
func (c *Catalog) Resolve(name string) (table *Table, view *View, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.tables[name]; ok {
		return t, nil, nil
	}
	if v, ok := c.views[name]; ok {
		return nil, v, nil
	}
	return nil, nil, sql.ErrTableNotFound.New(name)
}

// MakeEmptyTable registers a zero-row table with the given schema,
// matching the Python original's TinyQuery.make_empty_table.
func (c *Catalog) MakeEmptyTable(dataset, name string, schema []loaders.Field) error {
	order, typesOut, modesOut, err := loaders.Flatten(schema)
	if err != nil {
		return err
	}
	columns := make(map[sql.ColumnName]*sql.Column, len(order))
	for _, n := range order {
		columns[n] = &sql.Column{Type: typesOut[n], Mode: modesOut[n]}
	}
	c.AddTable(dataset, name, order, sql.NewContext(0, order, columns, nil))
	return nil
}

// LoadTableFromCSV loads r as headerless CSV against schema and registers
// the result as dataset.name, matching the Python original's
// load_table_from_csv.
func (c *Catalog) LoadTableFromCSV(dataset, name string, schema []loaders.Field, r io.Reader) error {
	ctx, order, err := loaders.LoadCSV(r, schema)
	if err != nil {
		return err
	}
	c.AddTable(dataset, name, order, ctx)
	return nil
}

// LoadTableFromNewlineDelimitedJSON loads r as newline-delimited JSON
// against schema and registers the result as dataset.name, matching the
// Python original's load_table_from_newline_delimited_json.
func (c *Catalog) LoadTableFromNewlineDelimitedJSON(dataset, name string, schema []loaders.Field, r io.Reader) error {
	ctx, order, err := loaders.LoadNDJSON(r, schema)
	if err != nil {
		return err
	}
	c.AddTable(dataset, name, order, ctx)
	return nil
}

// DeleteTable removes dataset.name from the catalog. A no-op if it
// doesn't exist, matching the Python original's delete_table.
func (c *Catalog) DeleteTable(dataset, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, qualifiedName(dataset, name))
}

// ListTables returns every registered table's fully-qualified name, in
// sorted order, matching the Python original's get_all_tables.
func (c *Catalog) ListTables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Copy copies sourceDataset.sourceName's rows into destDataset.destName
// under the given create/write dispositions.
func (c *Catalog) Copy(sourceDataset, sourceName, destDataset, destName string, create CreateDisposition, write WriteDisposition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	src, ok := c.tables[qualifiedName(sourceDataset, sourceName)]
	if !ok {
		return sql.ErrTableNotFound.New(qualifiedName(sourceDataset, sourceName))
	}
	return c.materializeInto(destDataset, destName, src.Columns, src.Context, create, write)
}

// MaterializeInto writes srcCtx's rows (ordered by srcOrder) into
// destDataset.destName under the given dispositions — the same
// create/write-disposition semantics Copy applies between two catalog
// tables, exposed for callers (e.g. package api's query-job
// destinationTable handling) materializing an arbitrary computed result
// rather than an existing table's rows.
func (c *Catalog) MaterializeInto(destDataset, destName string, srcOrder []sql.ColumnName, srcCtx *sql.Context, create CreateDisposition, write WriteDisposition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.materializeInto(destDataset, destName, srcOrder, srcCtx, create, write)
}

// materializeInto must be called with c.mu held.
func (c *Catalog) materializeInto(destDataset, destName string, srcOrder []sql.ColumnName, srcCtx *sql.Context, create CreateDisposition, write WriteDisposition) error {
	destFull := qualifiedName(destDataset, destName)
	dest, exists := c.tables[destFull]
	if !exists {
		if create == CreateNever {
			return sql.ErrDisposition.New("destination table " + destFull + " does not exist and createDisposition is CREATE_NEVER")
		}
		columns := make(map[sql.ColumnName]*sql.Column, len(srcOrder))
		for _, name := range srcOrder {
			srcCol := srcCtx.Columns[name]
			columns[name] = &sql.Column{Type: srcCol.Type, Mode: srcCol.Mode}
		}
		order := make([]sql.ColumnName, len(srcOrder))
		copy(order, srcOrder)
		dest = &Table{Name: destFull, Columns: order, Context: sql.NewContext(0, order, columns, nil)}
		c.tables[destFull] = dest
	} else if dest.Context.NumRows > 0 {
		switch write {
		case WriteEmpty:
			return sql.ErrDisposition.New("destination table " + destFull + " is not empty and writeDisposition is WRITE_EMPTY")
		case WriteTruncate:
			for _, col := range dest.Context.Columns {
				col.Values = col.Values[:0]
			}
			dest.Context.NumRows = 0
		case WriteAppend:
			// fall through to the append below.
		}
	}

	sql.AppendContext(srcCtx, dest.Context)
	return nil
}

// TypeContext builds the TypeContext a resolved table exposes under the
// given alias, for use by the analyzer's name resolution.
func (t *Table) TypeContext(alias string) *typectx.TypeContext {
	tableName := t.Name
	if alias != "" {
		tableName = alias
	}
	columnsWithoutTable := make([]sql.ColumnName, len(t.Columns))
	columnTypes := make(map[sql.ColumnName]types.Type, len(t.Columns))
	columnModes := make(map[sql.ColumnName]types.Mode, len(t.Columns))
	for i, name := range t.Columns {
		bare := sql.ColumnName{Column: name.Column}
		columnsWithoutTable[i] = bare
		if col, ok := t.Context.Columns[name]; ok {
			columnTypes[bare] = col.Type
			columnModes[bare] = col.Mode
		}
	}
	return typectx.FromTableAndColumns(tableName, columnsWithoutTable, columnTypes, columnModes)
}
