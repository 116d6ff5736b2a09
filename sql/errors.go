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

package sql

import (
	errors "gopkg.in/src-d/go-errors.v1"
)

// Declared error kinds, one per the runtime's error taxonomy: lexing and
// parsing failures, compile-time (analyzer) failures, runtime type and
// value errors raised by the evaluator and the function library, and the
// not-implemented marker for BigQuery syntax TinyQuery intentionally
// doesn't support.
var (
	ErrSyntax         = errors.NewKind("syntax error: %s")
	ErrCompile        = errors.NewKind("%s")
	ErrFieldNotFound  = errors.NewKind("field not found: %s")
	ErrAmbiguousField = errors.NewKind("ambiguous field: %s")
	ErrRuntimeType    = errors.NewKind("%s")
	ErrRuntimeValue   = errors.NewKind("%s")
	ErrNotImplemented = errors.NewKind("not implemented: %s")
	ErrTableNotFound  = errors.NewKind("table not found: %s")
	ErrViewCycle      = errors.NewKind("cycle detected in view definitions: %s")

	// ErrReadOnly is returned by write operations against an engine
	// configured as read-only.
	ErrReadOnly = errors.NewKind("engine is read-only")
	// ErrCatalogLocked is declared but no code path returns it: TinyQuery
	// serializes all catalog mutations under a single mutex, so a
	// mutation waits for the lock instead of failing.
	ErrCatalogLocked = errors.NewKind("catalog is locked for writes")

	// ErrDisposition is returned by a copy job whose create/write
	// disposition is violated: CREATE_NEVER with no existing destination,
	// or WRITE_EMPTY into a non-empty destination.
	ErrDisposition = errors.NewKind("%s")
	// ErrLoad is returned by the CSV/NDJSON loaders on malformed input.
	ErrLoad = errors.NewKind("%s")
)
