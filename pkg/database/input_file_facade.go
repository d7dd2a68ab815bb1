// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/model"
)

// InputFileFacadeInterface covers C1's operations against input_files.
// Rows are immutable once written; there is no Update here by design
// (spec.md §3).
type InputFileFacadeInterface interface {
	CreateBatch(ctx context.Context, files []*model.InputFile) error
	ListByDatum(ctx context.Context, datumID string) ([]*model.InputFile, error)
}

type InputFileFacade struct {
	db *gorm.DB
}

func (f *InputFileFacade) CreateBatch(ctx context.Context, files []*model.InputFile) error {
	if len(files) == 0 {
		return nil
	}
	if err := f.db.WithContext(ctx).Create(&files).Error; err != nil {
		return apierrors.WrapError(err, "failed to create input files", apierrors.CodeStorageUnavailable)
	}
	return nil
}

func (f *InputFileFacade) ListByDatum(ctx context.Context, datumID string) ([]*model.InputFile, error) {
	var files []*model.InputFile
	err := f.db.WithContext(ctx).Where("datum_id = ?", datumID).Order("created_at ASC").Find(&files).Error
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to list input files", apierrors.CodeStorageUnavailable)
	}
	return files, nil
}
