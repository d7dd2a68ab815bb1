// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Masterminds/squirrel"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/model"
	"github.com/faradayio/falconeri/pkg/state"
)

// JobFacadeInterface covers every operation C1/C5/C9 need against the jobs
// table.
type JobFacadeInterface interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter JobFilter) ([]*model.Job, error)
	// Transition moves a job from `from` to `to`, guarded by a conditional
	// WHERE so a stale caller never silently coerces state.
	Transition(ctx context.Context, id, from, to string) error
}

// JobFilter is GET /jobs's optional query filter (spec.md §4.9).
type JobFilter struct {
	Status       string
	PipelineName string
	Limit        int
	Offset       int
}

type JobFacade struct {
	db *gorm.DB
}

func (f *JobFacade) Create(ctx context.Context, job *model.Job) error {
	if job.Status == "" {
		job.Status = model.JobStatusRunning
	}
	return f.db.WithContext(ctx).Create(job).Error
}

func (f *JobFacade) Get(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	err := f.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apierrors.NewError().WithCode(apierrors.CodeNotFound).WithMessagef("job %q not found", id)
	}
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to load job", apierrors.CodeStorageUnavailable)
	}
	return &job, nil
}

// List builds its WHERE clause with squirrel rather than string
// concatenation, since the filter set is optional and combinatorial.
func (f *JobFacade) List(ctx context.Context, filter JobFilter) ([]*model.Job, error) {
	builder := squirrel.Select("*").From(model.TableNameJob).PlaceholderFormat(squirrel.Dollar)
	if filter.Status != "" {
		builder = builder.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.PipelineName != "" {
		builder = builder.Where(squirrel.Expr("pipeline_spec->'pipeline'->>'name' = ?", filter.PipelineName))
	}
	builder = builder.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to build job list query", apierrors.CodeInternal)
	}

	var jobs []*model.Job
	if err := f.db.WithContext(ctx).Raw(query, args...).Scan(&jobs).Error; err != nil {
		return nil, apierrors.WrapError(err, "failed to list jobs", apierrors.CodeStorageUnavailable)
	}
	return jobs, nil
}

func (f *JobFacade) Transition(ctx context.Context, id, from, to string) error {
	if err := state.JobTransition(from, to); err != nil {
		return err
	}
	result := f.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return apierrors.WrapError(result.Error, "failed to transition job", apierrors.CodeStorageUnavailable)
	}
	if result.RowsAffected == 0 {
		return apierrors.NewError().
			WithCode(apierrors.CodeStaleState).
			WithMessagef("job %q was not in state %q", id, from)
	}
	return nil
}
