// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package service

import (
	"context"
	"time"

	batchv1 "k8s.io/api/batch/v1"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/cluster"
	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/model"
	"github.com/faradayio/falconeri/pkg/state"
)

// fakeFacade is an in-memory stand-in for database.FacadeInterface, used to
// exercise leasing and job-lifecycle rules without a real database
// (SPEC_FULL.md §8: "properties are about transition logic, not SQL").
type fakeFacade struct {
	jobs        map[string]*model.Job
	datums      map[string]*model.Datum
	inputFiles  map[string][]*model.InputFile // keyed by datum id
	outputFiles map[string]*model.OutputFile  // keyed by job_id+"/"+uri
}

func newFakeFacade() *fakeFacade {
	return &fakeFacade{
		jobs:        map[string]*model.Job{},
		datums:      map[string]*model.Datum{},
		inputFiles:  map[string][]*model.InputFile{},
		outputFiles: map[string]*model.OutputFile{},
	}
}

func (f *fakeFacade) GetJob() database.JobFacadeInterface             { return &fakeJobFacade{f} }
func (f *fakeFacade) GetDatum() database.DatumFacadeInterface         { return &fakeDatumFacade{f} }
func (f *fakeFacade) GetInputFile() database.InputFileFacadeInterface { return &fakeInputFileFacade{f} }
func (f *fakeFacade) GetOutputFile() database.OutputFileFacadeInterface {
	return &fakeOutputFileFacade{f}
}
func (f *fakeFacade) GetBabysitterLock() database.BabysitterLockFacadeInterface { return nil }
func (f *fakeFacade) Transaction(fn func(tx database.FacadeInterface) error) error {
	return fn(f)
}

type fakeJobFacade struct{ f *fakeFacade }

func (j *fakeJobFacade) Create(ctx context.Context, job *model.Job) error {
	j.f.jobs[job.ID] = job
	return nil
}

func (j *fakeJobFacade) Get(ctx context.Context, id string) (*model.Job, error) {
	job, ok := j.f.jobs[id]
	if !ok {
		return nil, apierrors.NewError().WithCode(apierrors.CodeNotFound).WithMessagef("job %q not found", id)
	}
	return job, nil
}

func (j *fakeJobFacade) List(ctx context.Context, filter database.JobFilter) ([]*model.Job, error) {
	var out []*model.Job
	for _, job := range j.f.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

func (j *fakeJobFacade) Transition(ctx context.Context, id, from, to string) error {
	if err := state.JobTransition(from, to); err != nil {
		return err
	}
	job, ok := j.f.jobs[id]
	if !ok || job.Status != from {
		return apierrors.NewError().WithCode(apierrors.CodeStaleState).WithMessagef("job %q was not in state %q", id, from)
	}
	job.Status = to
	return nil
}

type fakeDatumFacade struct{ f *fakeFacade }

func (d *fakeDatumFacade) CreateBatch(ctx context.Context, datums []*model.Datum) error {
	for _, datum := range datums {
		d.f.datums[datum.ID] = datum
	}
	return nil
}

func (d *fakeDatumFacade) Get(ctx context.Context, id string) (*model.Datum, error) {
	datum, ok := d.f.datums[id]
	if !ok {
		return nil, apierrors.NewError().WithCode(apierrors.CodeNotFound).WithMessagef("datum %q not found", id)
	}
	return datum, nil
}

func (d *fakeDatumFacade) ListByJob(ctx context.Context, jobID string) ([]*model.Datum, error) {
	var out []*model.Datum
	for _, datum := range d.f.datums {
		if datum.JobID == jobID {
			out = append(out, datum)
		}
	}
	return out, nil
}

func (d *fakeDatumFacade) ListRunningByJob(ctx context.Context, jobID string) ([]*model.Datum, error) {
	var out []*model.Datum
	for _, datum := range d.f.datums {
		if datum.JobID == jobID && datum.Status == model.DatumStatusRunning {
			out = append(out, datum)
		}
	}
	return out, nil
}

func (d *fakeDatumFacade) CountByStatus(ctx context.Context, jobID string) (map[string]int, error) {
	counts := map[string]int{}
	for _, datum := range d.f.datums {
		if datum.JobID == jobID {
			counts[datum.Status]++
		}
	}
	return counts, nil
}

// LeaseNext picks the oldest-CreatedAt, then lowest-id, ready datum — the
// same tie-break the real SQL ORDER BY uses.
func (d *fakeDatumFacade) LeaseNext(ctx context.Context, jobID, podName, nodeName string) (*model.Datum, error) {
	var best *model.Datum
	for _, datum := range d.f.datums {
		if datum.JobID != jobID || datum.Status != model.DatumStatusReady {
			continue
		}
		if best == nil || datum.CreatedAt.Before(best.CreatedAt) || (datum.CreatedAt.Equal(best.CreatedAt) && datum.ID < best.ID) {
			best = datum
		}
	}
	if best == nil {
		return nil, nil
	}
	best.Status = model.DatumStatusRunning
	best.PodName = &podName
	best.NodeName = &nodeName
	best.AttemptedRunCount++
	return best, nil
}

func (d *fakeDatumFacade) Transition(ctx context.Context, id, from, to string, updates map[string]interface{}) error {
	if err := state.DatumTransition(from, to); err != nil {
		return err
	}
	datum, ok := d.f.datums[id]
	if !ok || datum.Status != from {
		return apierrors.NewError().WithCode(apierrors.CodeStaleState).WithMessagef("datum %q was not in state %q", id, from)
	}
	datum.Status = to
	if v, set := updates["error_message"]; set {
		if s, ok := v.(string); ok {
			datum.ErrorMessage = &s
		} else {
			datum.ErrorMessage = nil
		}
	}
	if v, set := updates["output"]; set {
		if s, ok := v.(*string); ok {
			datum.Output = s
		}
	}
	if v, set := updates["stderr"]; set {
		if s, ok := v.(*string); ok {
			datum.Stderr = s
		}
	}
	if _, set := updates["pod_name"]; set {
		datum.PodName = nil
	}
	if _, set := updates["node_name"]; set {
		datum.NodeName = nil
	}
	return nil
}

func (d *fakeDatumFacade) SetLastPodMissingAt(ctx context.Context, id string, at *time.Time) error {
	datum, ok := d.f.datums[id]
	if !ok {
		return apierrors.NewError().WithCode(apierrors.CodeNotFound).WithMessagef("datum %q not found", id)
	}
	datum.LastPodMissingAt = at
	return nil
}

type fakeInputFileFacade struct{ f *fakeFacade }

func (i *fakeInputFileFacade) CreateBatch(ctx context.Context, files []*model.InputFile) error {
	for _, file := range files {
		i.f.inputFiles[file.DatumID] = append(i.f.inputFiles[file.DatumID], file)
	}
	return nil
}

func (i *fakeInputFileFacade) ListByDatum(ctx context.Context, datumID string) ([]*model.InputFile, error) {
	return i.f.inputFiles[datumID], nil
}

type fakeOutputFileFacade struct{ f *fakeFacade }

func (o *fakeOutputFileFacade) Register(ctx context.Context, file *model.OutputFile) error {
	key := file.JobID + "/" + file.URI
	if existing, ok := o.f.outputFiles[key]; ok {
		return apierrors.NewError().
			WithCode(apierrors.CodeOutputClobber).
			WithMessagef("output uri %q already registered for job %q by datum %q", file.URI, file.JobID, existing.DatumID)
	}
	o.f.outputFiles[key] = file
	return nil
}

func (o *fakeOutputFileFacade) ListByDatum(ctx context.Context, datumID string) ([]*model.OutputFile, error) {
	var out []*model.OutputFile
	for _, f := range o.f.outputFiles {
		if f.DatumID == datumID {
			out = append(out, f)
		}
	}
	return out, nil
}

// fakeScheduler is an in-memory stand-in for cluster.Scheduler.
type fakeScheduler struct {
	submitted []*batchv1.Job
	deleted   []string
	jobExists map[string]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobExists: map[string]bool{}}
}

func (s *fakeScheduler) SubmitJob(ctx context.Context, job *batchv1.Job) error {
	s.submitted = append(s.submitted, job)
	s.jobExists[job.Name] = true
	return nil
}

func (s *fakeScheduler) DeleteJob(ctx context.Context, namespace, name string) error {
	s.deleted = append(s.deleted, name)
	delete(s.jobExists, name)
	return nil
}

func (s *fakeScheduler) GetPodPhase(ctx context.Context, namespace, podName string) (cluster.PodPhase, bool, error) {
	return "", false, nil
}

func (s *fakeScheduler) JobExists(ctx context.Context, namespace, name string) (bool, error) {
	return s.jobExists[name], nil
}
