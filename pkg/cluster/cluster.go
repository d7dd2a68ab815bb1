// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package cluster is the read-mostly oracle the daemon consults for pod and
// batch-job existence (spec.md §5 "Shared resources"). Writes only happen
// on job submission and deletion.
package cluster

import (
	"context"

	batchv1 "k8s.io/api/batch/v1"
)

// PodPhase mirrors the subset of corev1.PodPhase the babysitter cares about.
type PodPhase string

const (
	PodPhasePending   PodPhase = "Pending"
	PodPhaseRunning   PodPhase = "Running"
	PodPhaseSucceeded PodPhase = "Succeeded"
	PodPhaseFailed    PodPhase = "Failed"
	PodPhaseUnknown   PodPhase = "Unknown"
)

// IsLive reports whether a pod in this phase still counts as doing work
// (spec.md §4.8 lost-pod sweep: "pending/running").
func (p PodPhase) IsLive() bool {
	return p == PodPhasePending || p == PodPhaseRunning
}

// Scheduler is the daemon's view of the container scheduler: submit a batch
// job, check on pods and jobs, and tear down on cancel.
type Scheduler interface {
	SubmitJob(ctx context.Context, job *batchv1.Job) error
	DeleteJob(ctx context.Context, namespace, name string) error
	// GetPodPhase returns the phase of the named pod, or ok=false if the
	// cluster reports no such pod (spec.md §4.8 lost-pod sweep).
	GetPodPhase(ctx context.Context, namespace, podName string) (phase PodPhase, ok bool, err error)
	// JobExists reports whether the named batch Job resource is still
	// present (spec.md §4.8 vanished-job sweep).
	JobExists(ctx context.Context, namespace, name string) (bool, error)
}
