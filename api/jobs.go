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
	"sort"
	"sync"

	"github.com/dolthub/tinyquery/api/auth"
	"github.com/dolthub/tinyquery/catalog"
	"github.com/dolthub/tinyquery/sql"
)

// JobReference names a submitted job, matching the real API's
// {jobReference:{projectId,jobId}}.
type JobReference struct {
	ProjectID string `json:"projectId,omitempty"`
	JobID     string `json:"jobId"`
}

// JobStatistics is the notional job-statistics field the original's
// api_client.py stubs out as an always-present, if not very meaningful,
// totalBytesProcessed; for query jobs TinyQuery fills it with a
// deterministic, non-zero number derived from the result's row and
// column counts (see estimateBytesProcessed). Copy jobs leave it zero.
type JobStatistics struct {
	TotalBytesProcessed int64 `json:"totalBytesProcessed,string"`
}

// JobStatus mirrors the real API's {state, errorResult?} job status.
type JobStatus struct {
	State       string     `json:"state"`
	ErrorResult *APIError  `json:"errorResult,omitempty"`
}

// job is the engine-side record backing one submitted query or copy job:
// every submitted job transitions immediately to DONE, so there is no
// pending/running state to track.
type job struct {
	reference  JobReference
	status     JobStatus
	statistics JobStatistics

	// result and resultOrder are set only for query jobs, so a later
	// getQueryResults call can render rows.
	result      *sql.Context
	resultOrder []sql.ColumnName
}

type jobRegistry struct {
	mu   sync.Mutex
	seq  uint64
	jobs map[string]*job
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: map[string]*job{}}
}

func (r *jobRegistry) nextID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return "job_" + itoa(r.seq)
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

func (r *jobRegistry) put(j *job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.reference.JobID] = j
}

func (r *jobRegistry) get(jobID string) (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	return j, ok
}

func (r *jobRegistry) list() []*job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	// Ids are "job_N": a shorter id has a smaller N, so compare by length
	// first to keep submission order past job_9.
	sort.Slice(out, func(i, k int) bool {
		a, b := out[i].reference.JobID, out[k].reference.JobID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return out
}

// JobsService is the jobs() mock-client sub-resource.
type JobsService struct{ svc *Service }

// JobConfigurationQuery is the {configuration:{query:{...}}} body of a
// query job insert.
type JobConfigurationQuery struct {
	Query             string          `json:"query"`
	DestinationTable  *TableReference `json:"destinationTable,omitempty"`
	CreateDisposition string          `json:"createDisposition,omitempty"`
	WriteDisposition  string          `json:"writeDisposition,omitempty"`
}

// JobConfigurationCopy is the {configuration:{copy:{...}}} body of a
// copy job insert.
type JobConfigurationCopy struct {
	SourceTable       TableReference `json:"sourceTable"`
	DestinationTable  TableReference `json:"destinationTable"`
	CreateDisposition string         `json:"createDisposition,omitempty"`
	WriteDisposition  string         `json:"writeDisposition,omitempty"`
}

// JobConfiguration is the {configuration:{...}} body of a job insert;
// exactly one of Query/Copy is set.
type JobConfiguration struct {
	Query *JobConfigurationQuery `json:"query,omitempty"`
	Copy  *JobConfigurationCopy  `json:"copy,omitempty"`
}

// JobInsertBody is the full request body of jobs().insert.
type JobInsertBody struct {
	Configuration JobConfiguration `json:"configuration"`
}

// JobResponse is the rendered response of jobs().insert/get.
type JobResponse struct {
	JobReference JobReference  `json:"jobReference"`
	Status       JobStatus     `json:"status"`
	Statistics   JobStatistics `json:"statistics"`
}

func createDispositionOf(s string) catalog.CreateDisposition {
	if s == "" {
		return catalog.CreateIfNeeded
	}
	return catalog.CreateDisposition(s)
}

func writeDispositionOf(s string) catalog.WriteDisposition {
	if s == "" {
		return catalog.WriteEmpty
	}
	return catalog.WriteDisposition(s)
}

// JobsInsertCall is the deferred request built by JobsService.Insert.
type JobsInsertCall struct {
	svc  *Service
	body JobInsertBody
}

// Insert constructs a deferred query or copy job submission, matching
// the real client's jobs().insert(body=...).
func (j *JobsService) Insert(body JobInsertBody) *JobsInsertCall {
	return &JobsInsertCall{svc: j.svc, body: body}
}

// Execute runs the job to completion and returns its terminal (always
// DONE) status.
func (c *JobsInsertCall) Execute() (*JobResponse, error) {
	jobID := c.svc.jobs.nextID()
	rec := &job{reference: JobReference{JobID: jobID}}

	var err error
	switch {
	case c.body.Configuration.Query != nil:
		err = c.runQuery(rec, c.body.Configuration.Query)
	case c.body.Configuration.Copy != nil:
		err = c.runCopy(rec, c.body.Configuration.Copy)
	default:
		err = badRequest("job configuration must set query or copy")
	}

	if err != nil {
		rec.status = JobStatus{State: "DONE", ErrorResult: toAPIError(err)}
	} else {
		rec.status = JobStatus{State: "DONE"}
	}
	c.svc.jobs.put(rec)

	if err != nil {
		return nil, err
	}
	return &JobResponse{JobReference: rec.reference, Status: rec.status, Statistics: rec.statistics}, nil
}

func toAPIError(err error) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return &APIError{Code: 400, Message: err.Error()}
}

func (c *JobsInsertCall) runQuery(rec *job, q *JobConfigurationQuery) error {
	if err := c.svc.checkPermission(auth.ReadPerm, "*"); err != nil {
		return err
	}
	result, err := c.svc.Engine.Query(q.Query)
	if err != nil {
		return badRequest(err.Error())
	}
	rec.result = result
	rec.resultOrder = result.Order
	rec.statistics = JobStatistics{TotalBytesProcessed: estimateBytesProcessed(result)}

	if q.DestinationTable != nil {
		if err := c.svc.checkPermission(auth.WritePerm, q.DestinationTable.qualified()); err != nil {
			return err
		}
		create := createDispositionOf(q.CreateDisposition)
		write := writeDispositionOf(q.WriteDisposition)
		if err := c.svc.Engine.Catalog.MaterializeInto(
			q.DestinationTable.DatasetID, q.DestinationTable.TableID, result.Order, result, create, write,
		); err != nil {
			return toAPIError(err)
		}
	}
	return nil
}

func (c *JobsInsertCall) runCopy(rec *job, copyCfg *JobConfigurationCopy) error {
	if err := c.svc.checkPermission(auth.ReadPerm, copyCfg.SourceTable.qualified()); err != nil {
		return err
	}
	if err := c.svc.checkPermission(auth.WritePerm, copyCfg.DestinationTable.qualified()); err != nil {
		return err
	}
	create := createDispositionOf(copyCfg.CreateDisposition)
	write := writeDispositionOf(copyCfg.WriteDisposition)
	err := c.svc.Engine.Copy(
		copyCfg.SourceTable.DatasetID, copyCfg.SourceTable.TableID,
		copyCfg.DestinationTable.DatasetID, copyCfg.DestinationTable.TableID,
		create, write,
	)
	if err != nil {
		return toAPIError(err)
	}
	return nil
}

// estimateBytesProcessed derives a deterministic, non-zero
// totalBytesProcessed from a result's shape — not a real byte accounting,
// just a stable stand-in so a caller's statistics field isn't always
// zero.
func estimateBytesProcessed(ctx *sql.Context) int64 {
	return int64(ctx.NumRows*len(ctx.Order)*8) + 1
}

// JobsGetCall is the deferred request built by JobsService.Get.
type JobsGetCall struct {
	svc   *Service
	jobID string
}

// Get constructs a deferred job status lookup.
func (j *JobsService) Get(jobID string) *JobsGetCall {
	return &JobsGetCall{svc: j.svc, jobID: jobID}
}

// Execute returns the job's status, or a 404 APIError if jobID is
// unknown.
func (c *JobsGetCall) Execute() (*JobResponse, error) {
	rec, ok := c.svc.jobs.get(c.jobID)
	if !ok {
		return nil, &APIError{Code: 404, Message: "Job not found: " + c.jobID}
	}
	return &JobResponse{JobReference: rec.reference, Status: rec.status, Statistics: rec.statistics}, nil
}

// JobsListCall is the deferred request built by JobsService.List.
type JobsListCall struct{ svc *Service }

// List constructs a deferred listing of every submitted job, in
// submission order.
func (j *JobsService) List() *JobsListCall { return &JobsListCall{svc: j.svc} }

// JobsListResponse is the rendered response of jobs().list.
type JobsListResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// Execute returns every submitted job's status, oldest first.
func (c *JobsListCall) Execute() (*JobsListResponse, error) {
	recs := c.svc.jobs.list()
	out := make([]JobResponse, len(recs))
	for i, rec := range recs {
		out[i] = JobResponse{JobReference: rec.reference, Status: rec.status, Statistics: rec.statistics}
	}
	return &JobsListResponse{Jobs: out}, nil
}

// GetQueryResultsResponse is the rendered response of
// jobs().getQueryResults, matching the real API's
// {rows:[...], schema:{fields:[...]}} shape.
type GetQueryResultsResponse struct {
	JobReference JobReference  `json:"jobReference"`
	Rows         []Row         `json:"rows"`
	Schema       SchemaShape   `json:"schema"`
	JobComplete  bool          `json:"jobComplete"`
}

// SchemaShape is the real API's {fields:[...]} schema wrapper.
type SchemaShape struct {
	Fields []SchemaField `json:"fields"`
}

// JobsGetQueryResultsCall is the deferred request built by
// JobsService.GetQueryResults.
type JobsGetQueryResultsCall struct {
	svc   *Service
	jobID string
}

// GetQueryResults constructs a deferred fetch of a completed query job's
// materialized rows.
func (j *JobsService) GetQueryResults(jobID string) *JobsGetQueryResultsCall {
	return &JobsGetQueryResultsCall{svc: j.svc, jobID: jobID}
}

// Execute renders the query job's result Context as rows + schema, or a
// 404 APIError if jobID is unknown or names a copy (not query) job.
func (c *JobsGetQueryResultsCall) Execute() (*GetQueryResultsResponse, error) {
	rec, ok := c.svc.jobs.get(c.jobID)
	if !ok {
		return nil, &APIError{Code: 404, Message: "Job not found: " + c.jobID}
	}
	if rec.result == nil {
		return nil, badRequest("job " + c.jobID + " is not a query job")
	}
	rows, fields := RenderContext(rec.result)
	return &GetQueryResultsResponse{
		JobReference: rec.reference,
		Rows:         rows,
		Schema:       SchemaShape{Fields: fields},
		JobComplete:  true,
	}, nil
}
