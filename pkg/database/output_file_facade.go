// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/model"
)

// OutputFileFacadeInterface covers C7's registry operations.
type OutputFileFacadeInterface interface {
	// Register pre-registers an output file. A conflict on (job_id, uri)
	// resolves to an apierrors.Error with CodeOutputClobber identifying the
	// existing row's datum id (spec.md §4.7).
	Register(ctx context.Context, file *model.OutputFile) error
	ListByDatum(ctx context.Context, datumID string) ([]*model.OutputFile, error)
}

type OutputFileFacade struct {
	db *gorm.DB
}

func (f *OutputFileFacade) Register(ctx context.Context, file *model.OutputFile) error {
	result := f.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(file)
	if err := result.Error; err != nil {
		if isUniqueViolation(err) {
			return f.clobberError(ctx, file.JobID, file.URI)
		}
		return apierrors.WrapError(err, "failed to register output file", apierrors.CodeStorageUnavailable)
	}

	// clause.OnConflict{DoNothing: true} makes the INSERT report success
	// with zero rows affected instead of a driver error; detect that case
	// explicitly since GORM's Create doesn't surface RowsAffected via err.
	if result.RowsAffected == 0 {
		return f.clobberError(ctx, file.JobID, file.URI)
	}
	return nil
}

func (f *OutputFileFacade) clobberError(ctx context.Context, jobID, uri string) error {
	var existing model.OutputFile
	if err := f.db.WithContext(ctx).Where("job_id = ? AND uri = ?", jobID, uri).First(&existing).Error; err != nil {
		return apierrors.NewError().
			WithCode(apierrors.CodeOutputClobber).
			WithMessagef("output uri %q already registered for job %q", uri, jobID)
	}
	return apierrors.NewError().
		WithCode(apierrors.CodeOutputClobber).
		WithMessagef("output uri %q already registered for job %q by datum %q", uri, jobID, existing.DatumID)
}

func (f *OutputFileFacade) ListByDatum(ctx context.Context, datumID string) ([]*model.OutputFile, error) {
	var files []*model.OutputFile
	err := f.db.WithContext(ctx).Where("datum_id = ?", datumID).Order("created_at ASC").Find(&files).Error
	if err != nil {
		return nil, apierrors.WrapError(err, "failed to list output files", apierrors.CodeStorageUnavailable)
	}
	return files, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
