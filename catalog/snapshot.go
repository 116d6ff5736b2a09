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

package catalog

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

var tablesBucket = []byte("tables")

func init() {
	gob.Register(time.Time{})
	gob.Register([]interface{}{})
}

// snapshotColumn is the gob-serializable form of a *sql.Column: Column
// itself isn't registered with gob directly since its Values field holds
// interface{} elements gob can't discover without the concrete types
// above being registered first.
type snapshotColumn struct {
	Type   types.Type
	Mode   types.Mode
	Values []interface{}
}

type snapshotTable struct {
	Columns []sql.ColumnName
	Data    map[sql.ColumnName]snapshotColumn
}

// Snapshot persists every registered table (not views, which are just
// query text and are cheap to recompile) to a boltdb file at path, one
// bucket entry per qualified table name. It does not hold the catalog's
// lock across the boltdb write to avoid blocking concurrent queries on
// disk I/O; callers that need a consistent point-in-time snapshot under
// concurrent writers should pause writers themselves.
func (c *Catalog) Snapshot(path string) error {
	c.mu.RLock()
	tables := make(map[string]*Table, len(c.tables))
	for name, t := range c.tables {
		tables[name] = t
	}
	c.mu.RUnlock()

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return errors.Wrap(err, "opening snapshot file")
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(tablesBucket)
		if err != nil {
			return err
		}
		for name, t := range tables {
			data := make(map[sql.ColumnName]snapshotColumn, len(t.Columns))
			for _, col := range t.Columns {
				c := t.Context.Columns[col]
				data[col] = snapshotColumn{Type: c.Type, Mode: c.Mode, Values: c.Values}
			}
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(snapshotTable{Columns: t.Columns, Data: data}); err != nil {
				return errors.Wrapf(err, "encoding table %s", name)
			}
			if err := bucket.Put([]byte(name), buf.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore loads every table persisted by Snapshot at path into c,
// replacing any table already registered under the same name.
func (c *Catalog) Restore(path string) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return errors.Wrap(err, "opening snapshot file")
	}
	defer db.Close()

	restored := map[string]*Table{}
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tablesBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var snap snapshotTable
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&snap); err != nil {
				return errors.Wrapf(err, "decoding table %s", k)
			}
			columns := make(map[sql.ColumnName]*sql.Column, len(snap.Columns))
			numRows := 0
			for _, name := range snap.Columns {
				col := snap.Data[name]
				columns[name] = &sql.Column{Type: col.Type, Mode: col.Mode, Values: col.Values}
				numRows = len(col.Values)
			}
			name := string(k)
			restored[name] = &Table{
				Name:    name,
				Columns: snap.Columns,
				Context: sql.NewContext(numRows, snap.Columns, columns, nil),
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, t := range restored {
		c.tables[name] = t
	}
	return nil
}
