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
)

// BabysitterLockFacadeInterface is the singleton advisory lock the
// reconciliation loop uses to ensure only one daemon replica runs it at a
// time (spec.md §9 "Long-running control loop").
type BabysitterLockFacadeInterface interface {
	// TryAcquire attempts to acquire or re-acquire the lock for holderID.
	// Returns true if the caller now owns it.
	TryAcquire(ctx context.Context, holderID string, duration time.Duration) (bool, error)
	Extend(ctx context.Context, holderID string, duration time.Duration) (bool, error)
	Release(ctx context.Context, holderID string) error
}

type BabysitterLockFacade struct {
	db *gorm.DB
}

// ensureRow creates the singleton row if it doesn't exist yet; called
// lazily so schema migration doesn't need a seed step.
func (f *BabysitterLockFacade) ensureRow(ctx context.Context) error {
	return f.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.BabysitterLock{ID: model.SingletonLockID}).Error
}

func (f *BabysitterLockFacade) TryAcquire(ctx context.Context, holderID string, duration time.Duration) (bool, error) {
	if err := f.ensureRow(ctx); err != nil {
		return false, apierrors.WrapError(err, "failed to ensure babysitter lock row", apierrors.CodeStorageUnavailable)
	}

	expiresAt := time.Now().Add(duration)
	result := f.db.WithContext(ctx).
		Model(&model.BabysitterLock{}).
		Where("id = ? AND (lock_owner IS NULL OR lock_expires_at < NOW() OR lock_owner = ?)", model.SingletonLockID, holderID).
		Updates(map[string]interface{}{
			"lock_owner":       holderID,
			"lock_acquired_at": time.Now(),
			"lock_expires_at":  expiresAt,
			"lock_version":     gorm.Expr("lock_version + 1"),
		})
	if result.Error != nil {
		return false, apierrors.WrapError(result.Error, "failed to acquire babysitter lock", apierrors.CodeStorageUnavailable)
	}
	return result.RowsAffected > 0, nil
}

func (f *BabysitterLockFacade) Extend(ctx context.Context, holderID string, duration time.Duration) (bool, error) {
	expiresAt := time.Now().Add(duration)
	result := f.db.WithContext(ctx).
		Model(&model.BabysitterLock{}).
		Where("id = ? AND lock_owner = ?", model.SingletonLockID, holderID).
		Updates(map[string]interface{}{
			"lock_expires_at": expiresAt,
			"lock_version":    gorm.Expr("lock_version + 1"),
		})
	if result.Error != nil {
		return false, apierrors.WrapError(result.Error, "failed to extend babysitter lock", apierrors.CodeStorageUnavailable)
	}
	return result.RowsAffected > 0, nil
}

func (f *BabysitterLockFacade) Release(ctx context.Context, holderID string) error {
	err := f.db.WithContext(ctx).
		Model(&model.BabysitterLock{}).
		Where("id = ? AND lock_owner = ?", model.SingletonLockID, holderID).
		Updates(map[string]interface{}{
			"lock_owner":       nil,
			"lock_acquired_at": nil,
			"lock_expires_at":  nil,
		}).Error
	if err != nil {
		return apierrors.WrapError(err, "failed to release babysitter lock", apierrors.CodeStorageUnavailable)
	}
	return nil
}
