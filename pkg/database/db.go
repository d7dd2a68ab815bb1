// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package database is the persistent store adapter (spec.md §4.1): a
// Facade aggregating per-entity facades over a single *gorm.DB connection,
// with conditional-update transitions and retry-wrapped transient errors.
package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/faradayio/falconeri/pkg/apierrors"
)

// Open connects to Postgres and returns a ready *gorm.DB. Callers pass the
// result to NewFacade.
func Open(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("failed to open database connection").
			WithError(err)
	}
	return db, nil
}
