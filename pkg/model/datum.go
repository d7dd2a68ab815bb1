// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import "time"

const TableNameDatum = "datums"

// Datum status values (spec.md §3, §4.5).
const (
	DatumStatusReady    = "ready"
	DatumStatusRunning  = "running"
	DatumStatusDone     = "done"
	DatumStatusError    = "error"
	DatumStatusCanceled = "canceled"
)

// Datum mapped from table <datums>.
type Datum struct {
	ID                     string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	JobID                  string     `gorm:"column:job_id;not null;size:36;index" json:"job_id"`
	CreatedAt              time.Time  `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
	Status                 string     `gorm:"column:status;not null;size:16;default:'ready'" json:"status"`
	AttemptedRunCount      int        `gorm:"column:attempted_run_count;not null;default:0" json:"attempted_run_count"`
	MaximumAllowedRunCount int        `gorm:"column:maximum_allowed_run_count;not null;default:1" json:"maximum_allowed_run_count"`
	// PodName is non-null only while Status == running; any other state
	// clears it (spec.md §3 relational invariant).
	PodName      *string    `gorm:"column:pod_name;size:253" json:"pod_name,omitempty"`
	NodeName     *string    `gorm:"column:node_name;size:253" json:"node_name,omitempty"`
	ErrorMessage *string    `gorm:"column:error_message;size:2048" json:"error_message,omitempty"`
	Output       *string    `gorm:"column:output" json:"output,omitempty"`
	Stderr       *string    `gorm:"column:stderr" json:"stderr,omitempty"`
	// LastPodMissingAt records the first negative pod-existence observation
	// during a babysitter lost-pod sweep; the second consecutive negative
	// observation (one interval later) is what actually transitions the
	// datum (spec.md §4.8). Cleared whenever the pod is observed alive.
	LastPodMissingAt *time.Time `gorm:"column:last_pod_missing_at" json:"-"`
}

func (*Datum) TableName() string {
	return TableNameDatum
}

// IsTerminal reports whether status is a sink state for this datum.
func (d *Datum) IsTerminal() bool {
	switch d.Status {
	case DatumStatusDone, DatumStatusError, DatumStatusCanceled:
		return true
	default:
		return false
	}
}
