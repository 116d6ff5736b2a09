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

package api

import "github.com/dolthub/tinyquery/api/auth"

// TabledataService is the tabledata() mock-client sub-resource: direct
// row access to an already-loaded table, without going through a query
// job.
type TabledataService struct{ svc *Service }

// TabledataListCall is the deferred request built by
// TabledataService.List.
type TabledataListCall struct {
	svc *Service
	ref TableReference
}

// List constructs a deferred row listing of ref.
func (t *TabledataService) List(ref TableReference) *TabledataListCall {
	return &TabledataListCall{svc: t.svc, ref: ref}
}

// TabledataListResponse is the rendered response of tabledata().list,
// matching the real API's {rows:[...], schema:{fields:[...]}} shape.
type TabledataListResponse struct {
	Rows        []Row       `json:"rows"`
	Schema      SchemaShape `json:"schema"`
	TotalRows   string      `json:"totalRows"`
}

// Execute renders ref's current rows, or a 404 APIError if it isn't a
// registered table (tabledata().list does not resolve views).
func (c *TabledataListCall) Execute() (*TabledataListResponse, error) {
	if err := c.svc.checkPermission(auth.ReadPerm, c.ref.qualified()); err != nil {
		return nil, err
	}
	tbl, ok := c.svc.Engine.Catalog.LookupTable(c.ref.DatasetID, c.ref.TableID)
	if !ok {
		return nil, notFound(c.ref.qualified())
	}
	rows, fields := RenderContext(tbl.Context)
	return &TabledataListResponse{
		Rows:      rows,
		Schema:    SchemaShape{Fields: fields},
		TotalRows: itoa(uint64(tbl.Context.NumRows)),
	}, nil
}
