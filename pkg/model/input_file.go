// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import "time"

const TableNameInputFile = "input_files"

// InputFile mapped from table <input_files>. Immutable once written
// (spec.md §3): created alongside the Datum it belongs to, never updated.
type InputFile struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	JobID     string    `gorm:"column:job_id;not null;size:36;index" json:"job_id"`
	DatumID   string    `gorm:"column:datum_id;not null;size:36;index" json:"datum_id"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	URI       string    `gorm:"column:uri;not null" json:"uri"`
	// MountPath is the in-container location, "/pfs/<repo>/<relative>"
	// (spec.md §4.3).
	MountPath string `gorm:"column:mount_path;not null" json:"mount_path"`
}

func (*InputFile) TableName() string {
	return TableNameInputFile
}
