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

package driver

import (
	"database/sql/driver"
)

// Conn is a connection to an Engine.
type Conn struct {
	connector *Connector
	id        uint64
}

// Prepare returns query as a Stmt. TinyQuery has no placeholder syntax
// (BigQuery legacy SQL takes none), so there's nothing to
// validate ahead of Query/Exec beyond what parsing and compiling a Stmt's
// query text already catches at execution time.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{conn: c, queryStr: query}, nil
}

// Close does nothing; the underlying Engine outlives any one Conn.
func (c *Conn) Close() error {
	return nil
}

// Begin returns a fake transaction. TinyQuery has no transactional
// semantics to speak of; every query runs and commits atomically.
func (c *Conn) Begin() (driver.Tx, error) {
	return fakeTransaction{}, nil
}

type fakeTransaction struct{}

func (fakeTransaction) Commit() error   { return nil }
func (fakeTransaction) Rollback() error { return nil }
