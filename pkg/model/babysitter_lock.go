// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import "time"

const TableNameBabysitterLock = "babysitter_locks"

// SingletonLockID is the fixed primary key of the one row this table ever
// holds. There is exactly one reconciliation loop to elect a leader for, so
// there is exactly one lock row, rather than one per task as in the
// multi-task lock table this is adapted from.
const SingletonLockID = "babysitter"

// BabysitterLock mapped from table <babysitter_locks>. Generalizes a
// per-task distributed lock down to a single advisory holder record so that
// only one daemon replica runs the reconciliation loop at a time.
type BabysitterLock struct {
	ID             string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	LockOwner      *string    `gorm:"column:lock_owner;size:253" json:"lock_owner,omitempty"`
	LockAcquiredAt *time.Time `gorm:"column:lock_acquired_at" json:"lock_acquired_at,omitempty"`
	LockExpiresAt  *time.Time `gorm:"column:lock_expires_at" json:"lock_expires_at,omitempty"`
	LockVersion    int        `gorm:"column:lock_version;not null;default:0" json:"lock_version"`
}

func (*BabysitterLock) TableName() string {
	return TableNameBabysitterLock
}
