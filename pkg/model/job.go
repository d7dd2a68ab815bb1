// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package model

import (
	"encoding/json"
	"time"
)

const TableNameJob = "jobs"

// Job status values (spec.md §3).
const (
	JobStatusRunning  = "running"
	JobStatusDone     = "done"
	JobStatusError    = "error"
	JobStatusCanceled = "canceled"
)

// Job mapped from table <jobs>.
type Job struct {
	ID            string          `gorm:"column:id;primaryKey;size:36" json:"id"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
	Status        string          `gorm:"column:status;not null;size:16;default:'running'" json:"status"`
	PipelineSpec  json.RawMessage `gorm:"column:pipeline_spec;type:jsonb;not null" json:"pipeline_spec"`
	Command       []string        `gorm:"column:command;type:jsonb;not null;serializer:json" json:"command"`
	EgressURI     string          `gorm:"column:egress_uri;not null" json:"egress_uri"`
	ClusterJobName string         `gorm:"column:cluster_job_name;not null;size:128" json:"cluster_job_name"`
	JobTimeout    *int            `gorm:"column:job_timeout" json:"job_timeout,omitempty"`
	// RetriedFromJobID is set when this Job was created by POST /jobs/{id}/retry.
	RetriedFromJobID *string `gorm:"column:retried_from_job_id;size:36" json:"retried_from_job_id,omitempty"`
}

func (*Job) TableName() string {
	return TableNameJob
}

// IsTerminal reports whether status is a sink state (spec.md §8).
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusDone, JobStatusError, JobStatusCanceled:
		return true
	default:
		return false
	}
}
