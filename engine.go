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

// Package tinyquery is an in-process emulator of a BigQuery-like
// analytical SQL service: Engine wires the catalog, the compiler
// (package analyzer) and the evaluator (package rowexec) together behind
// a small synchronous Query/Copy surface.
package tinyquery

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"

	"github.com/dolthub/tinyquery/analyzer"
	"github.com/dolthub/tinyquery/catalog"
	"github.com/dolthub/tinyquery/parse"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/rowexec"
)

// Config controls how an Engine behaves.
type Config struct {
	// IsReadOnly makes Engine.Copy fail with sql.ErrReadOnly.
	IsReadOnly bool
	// Logger is the base logger every RequestContext derives its
	// per-job entry from. Defaults to logrus.StandardLogger().
	Logger *logrus.Logger
	// Tracer wraps Engine.Query/Engine.Copy in a span when non-nil;
	// defaults to opentracing.NoopTracer{}.
	Tracer opentracing.Tracer
}

// Engine is the entry point: it owns a Catalog and dispatches query and
// copy jobs against it. Safe for concurrent use — all catalog mutation
// happens under the catalog's own mutex.
type Engine struct {
	Catalog *catalog.Catalog

	mu         sync.Mutex
	readOnly   atomic.Bool
	logger     *logrus.Logger
	tracer     opentracing.Tracer
	compiler   *analyzer.Compiler
	evaluator  *rowexec.Evaluator
	jobSeq     uint64
}

// New returns an Engine backed by a fresh, empty Catalog.
func New(cfg Config) *Engine {
	return NewWithCatalog(cfg, catalog.New())
}

// NewWithCatalog returns an Engine backed by an existing Catalog, e.g.
// one restored from a snapshot (see Catalog.Snapshot / Catalog.Restore).
func NewWithCatalog(cfg Config, cat *catalog.Catalog) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}
	e := &Engine{
		Catalog:   cat,
		logger:    logger,
		tracer:    tracer,
		compiler:  analyzer.New(cat),
		evaluator: rowexec.New(cat),
	}
	e.readOnly.Store(cfg.IsReadOnly)
	return e
}

// SetReadOnly flips the engine's read-only flag.
func (e *Engine) SetReadOnly(readOnly bool) { e.readOnly.Store(readOnly) }

// IsReadOnly reports the engine's current read-only flag.
func (e *Engine) IsReadOnly() bool { return e.readOnly.Load() }

func (e *Engine) nextJobID() string {
	e.mu.Lock()
	e.jobSeq++
	seq := e.jobSeq
	e.mu.Unlock()
	id, err := uuid.NewV4()
	if err != nil {
		return itoa(seq)
	}
	return id.String() + "-" + itoa(seq)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Query compiles and evaluates a single SELECT statement, returning the
// materialized result Context. Equivalent to QueryContext(context.Background(), query).
func (e *Engine) Query(query string) (*sql.Context, error) {
	return e.QueryContext(context.Background(), query)
}

// QueryContext is Query with an externally supplied context.Context for
// the call boundary — the evaluator itself remains the synchronous,
// non-yielding loop; this context is only consulted at job submission,
// not polled mid-evaluation.
func (e *Engine) QueryContext(ctx context.Context, query string) (*sql.Context, error) {
	span, _ := opentracing.StartSpanFromContextWithTracer(ctx, e.tracer, "tinyquery.Query")
	defer span.Finish()

	jobID := e.nextJobID()
	reqCtx := sql.NewRequestContext(ctx, logrus.NewEntry(e.logger), jobID)
	reqCtx.GetLogger().Tracef("compiling query: %s", query)

	sel, err := parse.Text(query)
	if err != nil {
		return nil, err
	}
	plan, err := e.compiler.Compile(reqCtx, sel)
	if err != nil {
		return nil, err
	}
	reqCtx.GetLogger().Tracef("evaluating compiled plan for job %s", jobID)
	return e.evaluator.Execute(reqCtx, plan)
}

// Copy implements the copy-job semantics at the engine
// boundary: it validates the read-only flag, then delegates to
// Catalog.Copy.
func (e *Engine) Copy(sourceDataset, sourceTable, destDataset, destTable string, create catalog.CreateDisposition, write catalog.WriteDisposition) error {
	span, _ := opentracing.StartSpanFromContextWithTracer(context.Background(), e.tracer, "tinyquery.Copy")
	defer span.Finish()

	if e.IsReadOnly() {
		return errors.Wrap(sql.ErrReadOnly.New(), "copy job rejected")
	}
	return e.Catalog.Copy(sourceDataset, sourceTable, destDataset, destTable, create, write)
}
