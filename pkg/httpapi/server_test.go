// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	batchv1 "k8s.io/api/batch/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faradayio/falconeri/pkg/cluster"
	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/enumerator"
	"github.com/faradayio/falconeri/pkg/model"
	"github.com/faradayio/falconeri/pkg/service"
	"github.com/faradayio/falconeri/pkg/spec"
)

const testSecret = "s3cr3t"

type fakeJobFacade struct{ jobs map[string]*model.Job }

func (f *fakeJobFacade) Create(ctx context.Context, job *model.Job) error {
	f.jobs[job.ID] = job
	return nil
}
func (f *fakeJobFacade) Get(ctx context.Context, id string) (*model.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, assert.AnError
	}
	return job, nil
}
func (f *fakeJobFacade) List(ctx context.Context, filter database.JobFilter) ([]*model.Job, error) {
	var out []*model.Job
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out, nil
}
func (f *fakeJobFacade) Transition(ctx context.Context, id, from, to string) error {
	job := f.jobs[id]
	if job.Status != from {
		return assert.AnError
	}
	job.Status = to
	return nil
}

type fakeDatumFacade struct {
	datums     map[string]*model.Datum
	outOfLease *model.Datum
}

func (f *fakeDatumFacade) CreateBatch(ctx context.Context, datums []*model.Datum) error {
	for _, d := range datums {
		f.datums[d.ID] = d
	}
	return nil
}
func (f *fakeDatumFacade) Get(ctx context.Context, id string) (*model.Datum, error) {
	d, ok := f.datums[id]
	if !ok {
		return nil, assert.AnError
	}
	return d, nil
}
func (f *fakeDatumFacade) ListByJob(ctx context.Context, jobID string) ([]*model.Datum, error) {
	var out []*model.Datum
	for _, d := range f.datums {
		if d.JobID == jobID {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDatumFacade) ListRunningByJob(ctx context.Context, jobID string) ([]*model.Datum, error) {
	return nil, nil
}
func (f *fakeDatumFacade) CountByStatus(ctx context.Context, jobID string) (map[string]int, error) {
	counts := map[string]int{}
	for _, d := range f.datums {
		if d.JobID == jobID {
			counts[d.Status]++
		}
	}
	return counts, nil
}
func (f *fakeDatumFacade) LeaseNext(ctx context.Context, jobID, podName, nodeName string) (*model.Datum, error) {
	if f.outOfLease != nil {
		d := f.outOfLease
		f.outOfLease = nil
		d.Status = model.DatumStatusRunning
		d.PodName = &podName
		return d, nil
	}
	return nil, nil
}
func (f *fakeDatumFacade) Transition(ctx context.Context, id, from, to string, updates map[string]interface{}) error {
	d := f.datums[id]
	if d.Status != from {
		return assert.AnError
	}
	d.Status = to
	return nil
}
func (f *fakeDatumFacade) SetLastPodMissingAt(ctx context.Context, id string, at *time.Time) error {
	return nil
}

type fakeInputFileFacade struct{ files map[string][]*model.InputFile }

func (f *fakeInputFileFacade) CreateBatch(ctx context.Context, files []*model.InputFile) error {
	for _, file := range files {
		f.files[file.DatumID] = append(f.files[file.DatumID], file)
	}
	return nil
}
func (f *fakeInputFileFacade) ListByDatum(ctx context.Context, datumID string) ([]*model.InputFile, error) {
	return f.files[datumID], nil
}

type fakeOutputFileFacade struct{ registered []*model.OutputFile }

func (f *fakeOutputFileFacade) Register(ctx context.Context, file *model.OutputFile) error {
	f.registered = append(f.registered, file)
	return nil
}
func (f *fakeOutputFileFacade) ListByDatum(ctx context.Context, datumID string) ([]*model.OutputFile, error) {
	return nil, nil
}

type fakeFacade struct {
	job        *fakeJobFacade
	datum      *fakeDatumFacade
	inputFile  *fakeInputFileFacade
	outputFile *fakeOutputFileFacade
}

func newFakeFacade() *fakeFacade {
	return &fakeFacade{
		job:        &fakeJobFacade{jobs: map[string]*model.Job{}},
		datum:      &fakeDatumFacade{datums: map[string]*model.Datum{}},
		inputFile:  &fakeInputFileFacade{files: map[string][]*model.InputFile{}},
		outputFile: &fakeOutputFileFacade{},
	}
}

func (f *fakeFacade) GetJob() database.JobFacadeInterface                     { return f.job }
func (f *fakeFacade) GetDatum() database.DatumFacadeInterface                 { return f.datum }
func (f *fakeFacade) GetInputFile() database.InputFileFacadeInterface         { return f.inputFile }
func (f *fakeFacade) GetOutputFile() database.OutputFileFacadeInterface       { return f.outputFile }
func (f *fakeFacade) GetBabysitterLock() database.BabysitterLockFacadeInterface {
	return nil
}
func (f *fakeFacade) Transaction(fn func(tx database.FacadeInterface) error) error {
	return fn(f)
}

type fakeScheduler struct{}

func (s *fakeScheduler) SubmitJob(ctx context.Context, job *batchv1.Job) error { return nil }
func (s *fakeScheduler) DeleteJob(ctx context.Context, namespace, name string) error {
	return nil
}
func (s *fakeScheduler) GetPodPhase(ctx context.Context, namespace, podName string) (cluster.PodPhase, bool, error) {
	return "", false, nil
}
func (s *fakeScheduler) JobExists(ctx context.Context, namespace, name string) (bool, error) {
	return false, nil
}

func newTestServer(t *testing.T) (*Server, *fakeFacade) {
	t.Helper()
	facade := newFakeFacade()
	jobs := service.NewJobService(facade, &fakeScheduler{}, service.JobServiceConfig{Namespace: "falconeri", DefaultWorkerImage: "default:latest"})
	leasing := service.NewLeasingService(facade)
	return NewServer(facade, jobs, leasing), facade
}

func doRequest(engine http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Falconeri-Token", testSecret)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuth_RejectsMissingToken(t *testing.T) {
	s, _ := newTestServer(t)
	engine := NewRouter(s, testSecret, 30*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz_NeedsNoAuth(t *testing.T) {
	s, _ := newTestServer(t)
	engine := NewRouter(s, testSecret, 30*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostJobs_CreatesAndReturnsJob(t *testing.T) {
	s, _ := newTestServer(t)
	s.jobs.SetEnumerateForTest(func(_ context.Context, _ *spec.AtomInput) ([]enumerator.Match, error) {
		return []enumerator.Match{{URI: "s3://bucket/in/a.png", MountPath: "/pfs/images/a.png"}}, nil
	})
	engine := NewRouter(s, testSecret, 30*time.Second)

	p := spec.Pipeline{
		Pipeline:         spec.PipelineIdentity{Name: "test-pipeline"},
		Transform:        spec.Transform{Image: "worker:latest", Cmd: []string{"run"}},
		ParallelismSpec:  spec.ParallelismSpec{Constant: 1},
		ResourceRequests: spec.ResourceRequests{Memory: "256Mi", CPU: "500m"},
		DatumTries:       2,
		Input:            spec.Input{Atom: &spec.AtomInput{URI: "s3://bucket/in", Repo: "images", Glob: "/*.png"}},
		Egress:           spec.Egress{URI: "s3://bucket/out"},
	}
	body, err := json.Marshal(p)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Falconeri-Token", testSecret)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2000, resp.Meta.Code)
}

func TestGetJob_NotFoundMapsTo404(t *testing.T) {
	s, _ := newTestServer(t)
	engine := NewRouter(s, testSecret, 30*time.Second)

	rec := doRequest(engine, http.MethodGet, "/v1/jobs/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveDatum_JobDoneWhenNothingPresent(t *testing.T) {
	s, facade := newTestServer(t)
	facade.job.jobs["job1"] = &model.Job{ID: "job1", Status: model.JobStatusRunning}
	engine := NewRouter(s, testSecret, 30*time.Second)

	rec := doRequest(engine, http.MethodPost, "/v1/datums/reserve", reserveDatumRequest{JobID: "job1", PodName: "pod-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Meta testMeta            `json:"meta"`
		Data reserveDatumResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job_done", resp.Data.Outcome)
}

func TestReportFailure_UnknownDatumIsAnError(t *testing.T) {
	s, _ := newTestServer(t)
	engine := NewRouter(s, testSecret, 30*time.Second)

	rec := doRequest(engine, http.MethodPost, "/v1/datums/missing/report-failure", reportFailureRequest{ErrorMessage: "boom"})
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

// testEnvelope/testMeta mirror pkg/rest's envelope shape for decoding test
// responses without creating an import cycle on the production type names.
type testMeta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
type testEnvelope struct {
	Meta testMeta       `json:"meta"`
	Data json.RawMessage `json:"data"`
}
