// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/model"
	"github.com/faradayio/falconeri/pkg/state"
)

// DatumFacadeInterface covers C1/C5/C6/C8's operations against the datums
// table.
type DatumFacadeInterface interface {
	CreateBatch(ctx context.Context, datums []*model.Datum) error
	Get(ctx context.Context, id string) (*model.Datum, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Datum, error)
	ListRunningByJob(ctx context.Context, jobID string) ([]*model.Datum, error)
	CountByStatus(ctx context.Context, jobID string) (map[string]int, error)
	// LeaseNext atomically picks one ready datum (oldest created_at first,
	// id breaks ties) and flips it to running, under SKIP LOCKED so
	// concurrent pollers never collide (spec.md §4.6, §5).
	LeaseNext(ctx context.Context, jobID, podName, nodeName string) (*model.Datum, error)
	Transition(ctx context.Context, id, from, to string, updates map[string]interface{}) error
	// SetLastPodMissingAt persists the lost-pod sweep's miss observation so
	// it survives a babysitter restart; nil clears it (pod observed alive).
	SetLastPodMissingAt(ctx context.Context, id string, at *time.Time) error
}

type DatumFacade struct {
	db *gorm.DB
}

func (f *DatumFacade) CreateBatch(ctx context.Context, datums []*model.Datum) error {
	if len(datums) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Create(&datums).Error
}

func (f *DatumFacade) Get(ctx context.Context, id string) (*model.Datum, error) {
	var datum model.Datum
	err := f.db.WithContext(ctx).Where("id = ?", id).First(&datum).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apierrors.NewError().WithCode(apierrors.CodeNotFound).WithMessagef("datum %q not found", id)
	}
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to load datum", apierrors.CodeStorageUnavailable)
	}
	return &datum, nil
}

func (f *DatumFacade) ListByJob(ctx context.Context, jobID string) ([]*model.Datum, error) {
	var datums []*model.Datum
	err := f.db.WithContext(ctx).Where("job_id = ?", jobID).Order("created_at ASC").Find(&datums).Error
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to list datums", apierrors.CodeStorageUnavailable)
	}
	return datums, nil
}

func (f *DatumFacade) ListRunningByJob(ctx context.Context, jobID string) ([]*model.Datum, error) {
	var datums []*model.Datum
	err := f.db.WithContext(ctx).
		Where("job_id = ? AND status = ?", jobID, model.DatumStatusRunning).
		Order("created_at ASC").
		Find(&datums).Error
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to list running datums", apierrors.CodeStorageUnavailable)
	}
	return datums, nil
}

func (f *DatumFacade) CountByStatus(ctx context.Context, jobID string) (map[string]int, error) {
	type row struct {
		Status string
		Count  int
	}
	var rows []row
	err := f.db.WithContext(ctx).
		Model(&model.Datum{}).
		Select("status, count(*) as count").
		Where("job_id = ?", jobID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to count datums by status", apierrors.CodeStorageUnavailable)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (f *DatumFacade) LeaseNext(ctx context.Context, jobID, podName, nodeName string) (*model.Datum, error) {
	var datum model.Datum
	err := f.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("job_id = ? AND status = ?", jobID, model.DatumStatusReady).
		Order("created_at ASC, id ASC").
		Limit(1).
		First(&datum).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to select next ready datum", apierrors.CodeStorageUnavailable)
	}

	result := f.db.WithContext(ctx).
		Model(&model.Datum{}).
		Where("id = ? AND status = ?", datum.ID, model.DatumStatusReady).
		Updates(map[string]interface{}{
			"status":              model.DatumStatusRunning,
			"pod_name":            podName,
			"node_name":           nodeName,
			"attempted_run_count": gorm.Expr("attempted_run_count + 1"),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return nil, apierrors.WrapError(result.Error, "failed to lease datum", apierrors.CodeStorageUnavailable)
	}
	if result.RowsAffected == 0 {
		// Another transaction won the race between our SELECT and UPDATE;
		// the caller should simply poll again.
		return nil, nil
	}

	return f.Get(ctx, datum.ID)
}

func (f *DatumFacade) Transition(ctx context.Context, id, from, to string, updates map[string]interface{}) error {
	if err := state.DatumTransition(from, to); err != nil {
		return err
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()

	result := f.db.WithContext(ctx).
		Model(&model.Datum{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return apierrors.WrapError(result.Error, "failed to transition datum", apierrors.CodeStorageUnavailable)
	}
	if result.RowsAffected == 0 {
		return apierrors.NewError().
			WithCode(apierrors.CodeStaleState).
			WithMessagef("datum %q was not in state %q", id, from)
	}
	return nil
}

func (f *DatumFacade) SetLastPodMissingAt(ctx context.Context, id string, at *time.Time) error {
	err := f.db.WithContext(ctx).
		Model(&model.Datum{}).
		Where("id = ?", id).
		Update("last_pod_missing_at", at).Error
	if err != nil {
		return apierrors.WrapError(err, "failed to update last_pod_missing_at", apierrors.CodeStorageUnavailable)
	}
	return nil
}
