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

import (
	"strings"

	"github.com/dolthub/tinyquery/api/auth"
	"github.com/dolthub/tinyquery/parse"
)

// TablesService is the tables() mock-client sub-resource.
type TablesService struct{ svc *Service }

// TableInsertBody is the request body of tables().insert/patch: either a
// Schema (plain table) or a View definition, matching the real API's
// Table resource where exactly one of the two is populated.
type TableInsertBody struct {
	TableReference TableReference `json:"tableReference"`
	Schema         *struct {
		Fields []Field `json:"fields"`
	} `json:"schema,omitempty"`
	View *struct {
		Query string `json:"query"`
	} `json:"view,omitempty"`
}

// TablesInsertCall is the deferred request built by TablesService.Insert.
type TablesInsertCall struct {
	svc  *Service
	body TableInsertBody
}

// Insert constructs a deferred table or view creation.
func (t *TablesService) Insert(body TableInsertBody) *TablesInsertCall {
	return &TablesInsertCall{svc: t.svc, body: body}
}

// Execute creates the table or view, matching the Python original's
// make_empty_table / create_view.
func (c *TablesInsertCall) Execute() (*Table, error) {
	ref := c.body.TableReference
	if err := c.svc.checkPermission(auth.WritePerm, ref.qualified()); err != nil {
		return nil, err
	}
	if c.body.View != nil {
		sel, err := parse.Text(c.body.View.Query)
		if err != nil {
			return nil, badRequest(err.Error())
		}
		if err := c.svc.Engine.Catalog.AddView(ref.DatasetID, ref.TableID, sel); err != nil {
			return nil, toAPIError(err)
		}
		return &Table{TableReference: ref}, nil
	}
	if c.body.Schema == nil {
		return nil, badRequest("tables().insert requires schema or view")
	}
	schema := fieldsToSchema(c.body.Schema.Fields)
	if err := c.svc.Engine.Catalog.MakeEmptyTable(ref.DatasetID, ref.TableID, schema); err != nil {
		return nil, toAPIError(err)
	}
	return &Table{TableReference: ref, Schema: c.body.Schema}, nil
}

// TablesGetCall is the deferred request built by TablesService.Get.
type TablesGetCall struct {
	svc *Service
	ref TableReference
}

// Get constructs a deferred table/view metadata lookup.
func (t *TablesService) Get(ref TableReference) *TablesGetCall {
	return &TablesGetCall{svc: t.svc, ref: ref}
}

// Execute returns the table or view's metadata, or a 404 APIError if
// ref names neither.
func (c *TablesGetCall) Execute() (*Table, error) {
	if err := c.svc.checkPermission(auth.ReadPerm, c.ref.qualified()); err != nil {
		return nil, err
	}
	tbl, view, err := c.svc.Engine.Catalog.Resolve(c.ref.qualified())
	if err != nil {
		return nil, notFound(c.ref.qualified())
	}
	if view != nil {
		out := &Table{TableReference: c.ref}
		return out, nil
	}
	fields := make([]Field, len(tbl.Columns))
	for i, name := range tbl.Columns {
		col := tbl.Context.Columns[name]
		fields[i] = Field{Name: name.Column, Type: string(col.Type), Mode: string(col.Mode)}
	}
	return &Table{
		TableReference: c.ref,
		Schema: &struct {
			Fields []Field `json:"fields"`
		}{Fields: fields},
	}, nil
}

// TablesListCall is the deferred request built by TablesService.List.
type TablesListCall struct {
	svc       *Service
	datasetID string
}

// List constructs a deferred listing of every table registered under
// datasetID.
func (t *TablesService) List(datasetID string) *TablesListCall {
	return &TablesListCall{svc: t.svc, datasetID: datasetID}
}

// TablesListResponse is the rendered response of tables().list.
type TablesListResponse struct {
	Tables []Table `json:"tables"`
}

// Execute returns every dataset.table entry whose dataset matches
// datasetID.
func (c *TablesListCall) Execute() (*TablesListResponse, error) {
	prefix := c.datasetID + "."
	var out []Table
	for _, name := range c.svc.Engine.Catalog.ListTables() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		tableID := strings.TrimPrefix(name, prefix)
		out = append(out, Table{TableReference: TableReference{DatasetID: c.datasetID, TableID: tableID}})
	}
	return &TablesListResponse{Tables: out}, nil
}

// TablesDeleteCall is the deferred request built by TablesService.Delete.
type TablesDeleteCall struct {
	svc *Service
	ref TableReference
}

// Delete constructs a deferred table deletion.
func (t *TablesService) Delete(ref TableReference) *TablesDeleteCall {
	return &TablesDeleteCall{svc: t.svc, ref: ref}
}

// Execute deletes the table. A no-op if it doesn't exist, matching the
// Python original's delete_table.
func (c *TablesDeleteCall) Execute() error {
	if err := c.svc.checkPermission(auth.WritePerm, c.ref.qualified()); err != nil {
		return err
	}
	c.svc.Engine.Catalog.DeleteTable(c.ref.DatasetID, c.ref.TableID)
	return nil
}

// TablesPatchCall is the deferred request built by TablesService.Patch.
type TablesPatchCall struct {
	svc  *Service
	ref  TableReference
	body TableInsertBody
}

// Patch constructs a deferred table/view redefinition: it behaves like
// Insert but replaces whatever ref already names.
func (t *TablesService) Patch(ref TableReference, body TableInsertBody) *TablesPatchCall {
	body.TableReference = ref
	return &TablesPatchCall{svc: t.svc, ref: ref, body: body}
}

// Execute replaces ref's definition.
func (c *TablesPatchCall) Execute() (*Table, error) {
	insert := &TablesInsertCall{svc: c.svc, body: c.body}
	return insert.Execute()
}
