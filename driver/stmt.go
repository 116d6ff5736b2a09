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
	"context"
	"database/sql/driver"
	"errors"
)

// ErrParametersNotSupported is returned by Exec/Query when called with
// bound arguments: TinyQuery's grammar has no placeholder syntax, so
// there's nothing for a bound value to fill in.
var ErrParametersNotSupported = errors.New("tinyquery: parameterized queries are not supported")

// Stmt is a prepared statement: just the query text, since there's
// nothing further to precompute ahead of Query/Exec.
type Stmt struct {
	conn     *Conn
	queryStr string
}

// Close does nothing.
func (s *Stmt) Close() error {
	return nil
}

// NumInput reports that Stmt takes no placeholder parameters.
func (s *Stmt) NumInput() int {
	return 0
}

// Exec runs the statement's query and reports the result's row count as
// RowsAffected. TinyQuery has no INSERT/UPDATE, so nothing is written.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	if len(args) != 0 {
		return nil, ErrParametersNotSupported
	}
	return s.exec(context.Background())
}

// Query runs a SELECT and returns its rows.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	if len(args) != 0 {
		return nil, ErrParametersNotSupported
	}
	return s.query(context.Background())
}

// ExecContext runs a query for its row-count side effect.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if len(args) != 0 {
		return nil, ErrParametersNotSupported
	}
	return s.exec(ctx)
}

// QueryContext runs a SELECT and returns its rows.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) != 0 {
		return nil, ErrParametersNotSupported
	}
	return s.query(ctx)
}

func (s *Stmt) exec(ctx context.Context) (driver.Result, error) {
	result, err := s.conn.connector.engine.QueryContext(ctx, s.queryStr)
	if err != nil {
		return nil, err
	}
	return &Result{rowsAffected: int64(result.NumRows)}, nil
}

func (s *Stmt) query(ctx context.Context) (driver.Rows, error) {
	result, err := s.conn.connector.engine.QueryContext(ctx, s.queryStr)
	if err != nil {
		return nil, err
	}
	return newRows(result), nil
}
