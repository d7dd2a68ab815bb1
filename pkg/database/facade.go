// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// FacadeInterface is the unified entry point for database operations,
// aggregating all sub-Facades.
type FacadeInterface interface {
	GetJob() JobFacadeInterface
	GetDatum() DatumFacadeInterface
	GetInputFile() InputFileFacadeInterface
	GetOutputFile() OutputFileFacadeInterface
	GetBabysitterLock() BabysitterLockFacadeInterface
	// Transaction runs fn inside one serializable transaction, passing a
	// Facade scoped to that transaction's *gorm.DB.
	Transaction(fn func(tx FacadeInterface) error) error
}

// Facade aggregates all sub-facades over a single *gorm.DB.
type Facade struct {
	Job             JobFacadeInterface
	Datum           DatumFacadeInterface
	InputFile       InputFileFacadeInterface
	OutputFile      OutputFileFacadeInterface
	BabysitterLock  BabysitterLockFacadeInterface
	db              *gorm.DB
}

// NewFacade builds a Facade over db, wiring every sub-facade to the same
// connection.
func NewFacade(db *gorm.DB) *Facade {
	return &Facade{
		Job:            &JobFacade{db: db},
		Datum:          &DatumFacade{db: db},
		InputFile:      &InputFileFacade{db: db},
		OutputFile:     &OutputFileFacade{db: db},
		BabysitterLock: &BabysitterLockFacade{db: db},
		db:             db,
	}
}

func (f *Facade) GetJob() JobFacadeInterface                       { return f.Job }
func (f *Facade) GetDatum() DatumFacadeInterface                   { return f.Datum }
func (f *Facade) GetInputFile() InputFileFacadeInterface           { return f.InputFile }
func (f *Facade) GetOutputFile() OutputFileFacadeInterface         { return f.OutputFile }
func (f *Facade) GetBabysitterLock() BabysitterLockFacadeInterface { return f.BabysitterLock }

// Transaction opens a serializable transaction and passes a Facade bound to
// it; every sub-facade reached through that FacadeInterface runs on the
// transaction, so multi-step operations (report-success, cancel, job
// creation) compose inside one commit/rollback. The attempt is wrapped in WithRetry so
// a serialization failure under concurrent datum leasing (SQLSTATE 40001) is
// retried with backoff rather than surfaced to the caller.
func (f *Facade) Transaction(fn func(tx FacadeInterface) error) error {
	return WithRetry(context.Background(), func() error {
		return f.db.Transaction(func(tx *gorm.DB) error {
			return fn(NewFacade(tx))
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	})
}
