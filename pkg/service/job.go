// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/cluster"
	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/enumerator"
	"github.com/faradayio/falconeri/pkg/manifest"
	"github.com/faradayio/falconeri/pkg/model"
	"github.com/faradayio/falconeri/pkg/spec"
)

// JobServiceConfig carries the values JobService needs to build and submit
// cluster manifests (spec.md §4.1, §4.4).
type JobServiceConfig struct {
	Namespace          string
	DefaultWorkerImage string
}

// JobService orchestrates job creation, retry, and cancellation: it ties
// together pipeline validation (pkg/spec), input enumeration
// (pkg/enumerator), manifest construction (pkg/manifest), cluster
// submission (pkg/cluster), and persistence (pkg/database).
type JobService struct {
	facade    database.FacadeInterface
	scheduler cluster.Scheduler
	config    JobServiceConfig

	// enumerate resolves an atom input's lister and walks it. Overridable
	// so tests can exercise Create/Retry without a real s3/gs endpoint.
	enumerate func(ctx context.Context, atom *spec.AtomInput) ([]enumerator.Match, error)
}

// NewJobService builds a JobService.
func NewJobService(facade database.FacadeInterface, scheduler cluster.Scheduler, config JobServiceConfig) *JobService {
	return &JobService{
		facade:    facade,
		scheduler: scheduler,
		config:    config,
		enumerate: defaultEnumerate,
	}
}

// SetEnumerateForTest overrides the atom-input enumeration step. Production
// callers never need this; it exists so httpapi and other consumers outside
// this package can exercise Create/Retry without real object-store access.
func (s *JobService) SetEnumerateForTest(fn func(ctx context.Context, atom *spec.AtomInput) ([]enumerator.Match, error)) {
	s.enumerate = fn
}

func defaultEnumerate(ctx context.Context, atom *spec.AtomInput) ([]enumerator.Match, error) {
	lister, err := enumerator.ListerFor(atom.URI)
	if err != nil {
		return nil, err
	}
	return enumerator.Enumerate(ctx, lister, atom.URI, atom.Repo, atom.Glob)
}

// Create validates specBytes, enumerates its atom input, builds the cluster
// manifest, submits it, and persists the Job/Datum/InputFile rows — in that
// order, so nothing is persisted if validation, enumeration, or submission
// fails (spec.md §4.1).
func (s *JobService) Create(ctx context.Context, specBytes json.RawMessage) (*model.Job, error) {
	var p spec.Pipeline
	if err := json.Unmarshal(specBytes, &p); err != nil {
		return nil, apierrors.NewError().WithCode(apierrors.CodeValidation).WithMessage("invalid pipeline spec JSON").WithError(err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	matches, err := s.enumerateAtom(ctx, &p)
	if err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	job := &model.Job{
		ID:           jobID,
		Status:       model.JobStatusRunning,
		PipelineSpec: specBytes,
		Command:      p.Transform.Cmd,
		EgressURI:    p.Egress.URI,
	}
	if p.JobTimeout != "" {
		d, err := spec.ParseDuration(p.JobTimeout)
		if err != nil {
			return nil, apierrors.WrapError(err, "invalid job_timeout", apierrors.CodeValidation)
		}
		seconds := int(d.Seconds())
		job.JobTimeout = &seconds
	}

	batchJob, err := manifest.Build(&p, manifest.Options{
		JobID:              jobID,
		Namespace:          s.config.Namespace,
		DefaultWorkerImage: s.config.DefaultWorkerImage,
	})
	if err != nil {
		return nil, err
	}
	job.ClusterJobName = batchJob.Name

	if err := s.scheduler.SubmitJob(ctx, batchJob); err != nil {
		return nil, err
	}

	if err := s.persistJobAndDatums(ctx, job, p.DatumTries, matches); err != nil {
		// The cluster job is already running with nothing to lease against;
		// tear it down rather than leave an orphan.
		_ = s.scheduler.DeleteJob(ctx, s.config.Namespace, batchJob.Name)
		return nil, err
	}

	return job, nil
}

func (s *JobService) enumerateAtom(ctx context.Context, p *spec.Pipeline) ([]enumerator.Match, error) {
	return s.enumerate(ctx, p.Input.Atom)
}

func (s *JobService) persistJobAndDatums(ctx context.Context, job *model.Job, datumTries int, matches []enumerator.Match) error {
	return s.facade.Transaction(func(tx database.FacadeInterface) error {
		if err := tx.GetJob().Create(ctx, job); err != nil {
			return err
		}
		for _, match := range matches {
			datumID := uuid.New().String()
			datum := &model.Datum{
				ID:                     datumID,
				JobID:                  job.ID,
				Status:                 model.DatumStatusReady,
				MaximumAllowedRunCount: datumTries,
			}
			if err := tx.GetDatum().CreateBatch(ctx, []*model.Datum{datum}); err != nil {
				return err
			}
			inputFile := &model.InputFile{
				ID:        uuid.New().String(),
				JobID:     job.ID,
				DatumID:   datumID,
				URI:       match.URI,
				MountPath: match.MountPath,
			}
			if err := tx.GetInputFile().CreateBatch(ctx, []*model.InputFile{inputFile}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Retry re-enumerates only the failed datums of jobID into a new Job using
// the original pipeline spec (spec.md §4.9, scenario 6). The original Job
// is left unchanged.
func (s *JobService) Retry(ctx context.Context, jobID string) (*model.Job, error) {
	original, err := s.facade.GetJob().Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var p spec.Pipeline
	if err := json.Unmarshal(original.PipelineSpec, &p); err != nil {
		return nil, apierrors.WrapError(err, "stored pipeline spec is corrupt", apierrors.CodeInternal)
	}

	failedDatums, err := s.facade.GetDatum().ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var matches []enumerator.Match
	for _, datum := range failedDatums {
		if datum.Status != model.DatumStatusError {
			continue
		}
		inputFiles, err := s.facade.GetInputFile().ListByDatum(ctx, datum.ID)
		if err != nil {
			return nil, err
		}
		for _, f := range inputFiles {
			matches = append(matches, enumerator.Match{URI: f.URI, MountPath: f.MountPath})
		}
	}
	if len(matches) == 0 {
		return nil, apierrors.NewError().WithCode(apierrors.CodeValidation).WithMessagef("job %q has no failed datums to retry", jobID)
	}

	newJobID := uuid.New().String()
	newJob := &model.Job{
		ID:               newJobID,
		Status:           model.JobStatusRunning,
		PipelineSpec:     original.PipelineSpec,
		Command:          p.Transform.Cmd,
		EgressURI:        p.Egress.URI,
		JobTimeout:       original.JobTimeout,
		RetriedFromJobID: &jobID,
	}

	batchJob, err := manifest.Build(&p, manifest.Options{
		JobID:              newJobID,
		Namespace:          s.config.Namespace,
		DefaultWorkerImage: s.config.DefaultWorkerImage,
	})
	if err != nil {
		return nil, err
	}
	newJob.ClusterJobName = batchJob.Name

	if err := s.scheduler.SubmitJob(ctx, batchJob); err != nil {
		return nil, err
	}

	if err := s.persistJobAndDatums(ctx, newJob, p.DatumTries, matches); err != nil {
		_ = s.scheduler.DeleteJob(ctx, s.config.Namespace, batchJob.Name)
		return nil, err
	}

	return newJob, nil
}

// Cancel transitions jobID and cascades to its non-terminal datums. It is
// idempotent: canceling an already-terminal job is a no-op, not an error
// (spec.md §4.9 "POST /cancel is idempotent").
func (s *JobService) Cancel(ctx context.Context, jobID string) error {
	return s.facade.Transaction(func(tx database.FacadeInterface) error {
		job, err := tx.GetJob().Get(ctx, jobID)
		if err != nil {
			return err
		}
		if job.IsTerminal() {
			return nil
		}

		if err := tx.GetJob().Transition(ctx, jobID, model.JobStatusRunning, model.JobStatusCanceled); err != nil {
			return err
		}

		datums, err := tx.GetDatum().ListByJob(ctx, jobID)
		if err != nil {
			return err
		}
		for _, datum := range datums {
			if datum.IsTerminal() {
				continue
			}
			if err := tx.GetDatum().Transition(ctx, datum.ID, datum.Status, model.DatumStatusCanceled, map[string]interface{}{"pod_name": nil}); err != nil {
				return err
			}
		}

		return s.scheduler.DeleteJob(ctx, s.config.Namespace, job.ClusterJobName)
	})
}
