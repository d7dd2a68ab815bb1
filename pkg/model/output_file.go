// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import "time"

const TableNameOutputFile = "output_files"

// OutputFile status values (spec.md §3).
const (
	OutputFileStatusRunning = "running"
	OutputFileStatusDone    = "done"
	OutputFileStatusError   = "error"
)

// OutputFile mapped from table <output_files>. The pair (job_id, uri) is
// globally unique (spec.md §3, §4.7) — enforced by a unique index, not just
// application logic, so a race between two workers still surfaces a clobber.
type OutputFile struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	JobID     string    `gorm:"column:job_id;not null;size:36;uniqueIndex:idx_output_files_job_uri" json:"job_id"`
	DatumID   string    `gorm:"column:datum_id;not null;size:36;index" json:"datum_id"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
	URI       string    `gorm:"column:uri;not null;uniqueIndex:idx_output_files_job_uri" json:"uri"`
	Status    string    `gorm:"column:status;not null;size:16;default:'running'" json:"status"`
}

func (*OutputFile) TableName() string {
	return TableNameOutputFile
}
