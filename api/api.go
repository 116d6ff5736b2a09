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

// Package api is TinyQuery's mock BigQuery-REST-shaped facade: a
// Service exposing Tables()/Jobs()/Tabledata(), each returning request
// objects whose Execute() step runs the deferred operation and returns a
// response shaped like the real BigQuery REST API, or a structured
// 404-shaped *APIError on a catalog miss. This package is thin glue
// around the query engine, not part of the SQL pipeline itself.
package api

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/dolthub/tinyquery"
	"github.com/dolthub/tinyquery/api/auth"
	"github.com/dolthub/tinyquery/loaders"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// APIError is the structured error every Execute() call returns on
// failure, mirroring the real BigQuery client's {error:{code,message}}
// response body.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%d: %s", e.Code, e.Message) }

func notFound(name string) *APIError {
	return &APIError{Code: 404, Message: "Table not found: " + name}
}

func badRequest(msg string) *APIError {
	return &APIError{Code: 400, Message: msg}
}

func forbidden(msg string) *APIError {
	return &APIError{Code: 403, Message: msg}
}

// TableReference names a table the way the real API's
// {tableReference:{projectId,datasetId,tableId}} body does. ProjectID is
// accepted for shape-fidelity but otherwise unused — TinyQuery has a
// single, project-less catalog: tables live under "dataset.table".
type TableReference struct {
	ProjectID string `json:"projectId,omitempty"`
	DatasetID string `json:"datasetId"`
	TableID   string `json:"tableId"`
}

func (r TableReference) qualified() string { return r.DatasetID + "." + r.TableID }

// Field is one entry of a Table resource's schema, or a copy-job's
// destination schema hint, shaped after the real API's {name,type,mode,
// fields} TableFieldSchema.
type Field struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Mode   string  `json:"mode,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

func fieldsToSchema(fields []Field) []loaders.Field {
	out := make([]loaders.Field, len(fields))
	for i, f := range fields {
		out[i] = loaders.Field{
			Name:   f.Name,
			Type:   loaders.FieldType(f.Type),
			Mode:   modeOf(f.Mode),
			Fields: fieldsToSchema(f.Fields),
		}
	}
	return out
}

func modeOf(mode string) types.Mode {
	switch mode {
	case "REQUIRED":
		return types.Required
	case "REPEATED":
		return types.Repeated
	default:
		return types.Nullable
	}
}

// Table is the subset of the real API's Table resource TinyQuery's mock
// exposes: the schema used by tables().insert and the fields needed to
// render tables().get.
type Table struct {
	TableReference TableReference `json:"tableReference"`
	Schema         *struct {
		Fields []Field `json:"fields"`
	} `json:"schema,omitempty"`
}

// View is the subset of the real API's Table resource carrying a view
// definition, matching the real API's {view:{query}} body.
type View struct {
	TableReference TableReference `json:"tableReference"`
	View           struct {
		Query string `json:"query"`
	} `json:"view"`
}

// Service is the mock client surface's root object: it owns the Engine
// being driven and the Permission checks guarding reads/writes.
type Service struct {
	Engine *tinyquery.Engine
	Auth   auth.Auth

	jobs *jobRegistry
}

// New returns a Service driving engine with no access control (every
// caller authorized for everything) — pass a non-nil auth.Auth via
// NewWithAuth to enforce Permission checks.
func New(engine *tinyquery.Engine) *Service {
	return NewWithAuth(engine, auth.NewNone())
}

// NewWithAuth returns a Service driving engine, checking a.Allowed
// before every table mutation.
func NewWithAuth(engine *tinyquery.Engine, a auth.Auth) *Service {
	return &Service{Engine: engine, Auth: a, jobs: newJobRegistry()}
}

// Tables returns the tables() sub-resource.
func (s *Service) Tables() *TablesService { return &TablesService{svc: s} }

// Jobs returns the jobs() sub-resource.
func (s *Service) Jobs() *JobsService { return &JobsService{svc: s} }

// Tabledata returns the tabledata() sub-resource.
func (s *Service) Tabledata() *TabledataService { return &TabledataService{svc: s} }

func (s *Service) checkPermission(p auth.Permission, ref string) error {
	if s.Auth == nil {
		return nil
	}
	if !s.Auth.Allowed(p, ref) {
		return forbidden(auth.ErrNotAuthorized.New().Error())
	}
	return nil
}

// stringifyRow renders one result row as the real API's
// {f:[{v:stringified}]} shape, using spf13/cast for the loose
// scalar-to-string coercion the mock API performs on every value
// regardless of column type — the real API stringifies every value.
func stringifyRow(ctx *sql.Context, row int) []map[string]string {
	cells := make([]map[string]string, len(ctx.Order))
	for i, name := range ctx.Order {
		col := ctx.Columns[name]
		cells[i] = map[string]string{"v": stringifyValue(col.Values[row])}
	}
	return cells
}

func stringifyValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if list, ok := v.([]interface{}); ok {
		out := make([]string, len(list))
		for i, e := range list {
			out[i] = stringifyValue(e)
		}
		return fmt.Sprintf("%v", out)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// SchemaField is one entry of a rendered QueryResponse/GetQueryResults
// schema, mirroring the real API's {name,type} shape.
type SchemaField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Row is one rendered result row, matching the real API's {f:[{v:...}]}
// shape.
type Row struct {
	F []map[string]string `json:"f"`
}

// RenderContext converts an evaluated sql.Context into the real API's
// {rows:[...], schema:{fields:[...]}} response shape.
func RenderContext(ctx *sql.Context) (rows []Row, fields []SchemaField) {
	fields = make([]SchemaField, len(ctx.Order))
	for i, name := range ctx.Order {
		fields[i] = SchemaField{Name: name.Column, Type: string(ctx.Columns[name].Type)}
	}
	rows = make([]Row, ctx.NumRows)
	for r := 0; r < ctx.NumRows; r++ {
		rows[r] = Row{F: stringifyRow(ctx, r)}
	}
	return rows, fields
}
