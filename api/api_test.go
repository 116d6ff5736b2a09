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

package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery"
	"github.com/dolthub/tinyquery/api"
	"github.com/dolthub/tinyquery/api/auth"
)

func newService(t *testing.T) *api.Service {
	t.Helper()
	engine := tinyquery.New(tinyquery.Config{})
	return api.New(engine)
}

func TestTablesInsertGetList(t *testing.T) {
	svc := newService(t)
	ref := api.TableReference{DatasetID: "ds", TableID: "people"}

	_, err := svc.Tables().Insert(api.TableInsertBody{
		TableReference: ref,
		Schema: &struct {
			Fields []api.Field `json:"fields"`
		}{Fields: []api.Field{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "STRING"},
		}},
	}).Execute()
	require.NoError(t, err)

	got, err := svc.Tables().Get(ref).Execute()
	require.NoError(t, err)
	require.NotNil(t, got.Schema)
	assert.Len(t, got.Schema.Fields, 2)

	list, err := svc.Tables().List("ds").Execute()
	require.NoError(t, err)
	assert.Len(t, list.Tables, 1)

	require.NoError(t, svc.Tables().Delete(ref).Execute())
	_, err = svc.Tables().Get(ref).Execute()
	require.Error(t, err)
}

func TestTablesGetMissing(t *testing.T) {
	svc := newService(t)
	_, err := svc.Tables().Get(api.TableReference{DatasetID: "ds", TableID: "missing"}).Execute()
	apiErr, ok := err.(*api.APIError)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Code)
}

func TestJobsQueryAndGetResults(t *testing.T) {
	svc := newService(t)
	ref := api.TableReference{DatasetID: "ds", TableID: "people"}
	_, err := svc.Tables().Insert(api.TableInsertBody{
		TableReference: ref,
		Schema: &struct {
			Fields []api.Field `json:"fields"`
		}{Fields: []api.Field{{Name: "id", Type: "INTEGER"}}},
	}).Execute()
	require.NoError(t, err)

	job, err := svc.Jobs().Insert(api.JobInsertBody{
		Configuration: api.JobConfiguration{
			Query: &api.JobConfigurationQuery{Query: "SELECT count(1) FROM ds.people"},
		},
	}).Execute()
	require.NoError(t, err)
	assert.Equal(t, "DONE", job.Status.State)

	results, err := svc.Jobs().GetQueryResults(job.JobReference.JobID).Execute()
	require.NoError(t, err)
	assert.True(t, results.JobComplete)
	require.Len(t, results.Rows, 1)
}

func TestJobsGetMissing(t *testing.T) {
	svc := newService(t)
	_, err := svc.Jobs().Get("no-such-job").Execute()
	apiErr, ok := err.(*api.APIError)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.Code)
}

func TestTabledataList(t *testing.T) {
	svc := newService(t)
	ref := api.TableReference{DatasetID: "ds", TableID: "people"}
	_, err := svc.Tables().Insert(api.TableInsertBody{
		TableReference: ref,
		Schema: &struct {
			Fields []api.Field `json:"fields"`
		}{Fields: []api.Field{{Name: "id", Type: "INTEGER"}}},
	}).Execute()
	require.NoError(t, err)

	resp, err := svc.Tabledata().List(ref).Execute()
	require.NoError(t, err)
	assert.Equal(t, "0", resp.TotalRows)
}

func TestServiceDeniesWithoutPermission(t *testing.T) {
	engine := tinyquery.New(tinyquery.Config{})
	svc := api.NewWithAuth(engine, auth.NewNone())

	denyAll := denyingAuth{}
	svc.Auth = denyAll

	ref := api.TableReference{DatasetID: "ds", TableID: "people"}
	_, err := svc.Tables().Insert(api.TableInsertBody{
		TableReference: ref,
		Schema: &struct {
			Fields []api.Field `json:"fields"`
		}{Fields: []api.Field{{Name: "id", Type: "INTEGER"}}},
	}).Execute()
	apiErr, ok := err.(*api.APIError)
	require.True(t, ok)
	assert.Equal(t, 403, apiErr.Code)
}

type denyingAuth struct{}

func (denyingAuth) Allowed(auth.Permission, string) bool { return false }
