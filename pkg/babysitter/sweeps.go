// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package babysitter

import (
	"context"
	"time"

	"github.com/faradayio/falconeri/pkg/logger/log"
	"github.com/faradayio/falconeri/pkg/model"
)

const lostPodMessage = "worker pod disappeared"

// vanishedJobSweep (spec.md §4.8 sweep 1... actually sweep 2, run first
// here since it short-circuits every other sweep): if the cluster batch-job
// resource no longer exists, the Job is terminal regardless of what its
// datums say. Returns stillRunning=false once the Job has been marked
// error, so the caller skips the remaining sweeps.
func (b *Babysitter) vanishedJobSweep(ctx context.Context, job *model.Job) (stillRunning bool, err error) {
	exists, err := b.scheduler.JobExists(ctx, b.namespace, job.ClusterJobName)
	if err != nil {
		return true, err
	}
	if exists {
		return true, nil
	}

	log.Warnf("cluster batch job %s for falconeri job %s no longer exists, marking error", job.ClusterJobName, job.ID)
	if err := b.facade.GetJob().Transition(ctx, job.ID, model.JobStatusRunning, model.JobStatusError); err != nil {
		return true, err
	}
	if err := b.cascadeNonTerminalDatums(ctx, job.ID, model.DatumStatusError, "cluster batch job vanished"); err != nil {
		return false, err
	}
	return false, nil
}

// lostPodSweep (spec.md §4.8 sweep 1): for each running Datum, ask the
// cluster whether its pod still exists and is live. A negative observation
// only counts after it repeats on the next tick, since a single failed
// listing query must never be mistaken for a genuinely missing pod.
func (b *Babysitter) lostPodSweep(ctx context.Context, job *model.Job) error {
	datums, err := b.facade.GetDatum().ListRunningByJob(ctx, job.ID)
	if err != nil {
		return err
	}

	for _, datum := range datums {
		if datum.PodName == nil {
			continue
		}
		if err := b.checkDatumPod(ctx, datum); err != nil {
			log.Errorf("lost-pod check failed for datum %s: %v", datum.ID, err)
		}
	}
	return nil
}

// checkDatumPod persists each negative observation to LastPodMissingAt
// rather than tracking it in memory, so a babysitter restart between two
// consecutive ticks doesn't reset the count back to zero (spec.md §4.8).
func (b *Babysitter) checkDatumPod(ctx context.Context, datum *model.Datum) error {
	phase, exists, err := b.scheduler.GetPodPhase(ctx, b.namespace, *datum.PodName)
	if err != nil {
		// Tolerate transient listing errors: do not advance the miss
		// observation on a query failure, only on a confirmed negative.
		return err
	}

	live := exists && phase.IsLive()
	if live {
		if datum.LastPodMissingAt != nil {
			return b.facade.GetDatum().SetLastPodMissingAt(ctx, datum.ID, nil)
		}
		return nil
	}

	if datum.LastPodMissingAt == nil {
		now := time.Now()
		return b.facade.GetDatum().SetLastPodMissingAt(ctx, datum.ID, &now)
	}

	if err := b.facade.GetDatum().SetLastPodMissingAt(ctx, datum.ID, nil); err != nil {
		return err
	}

	if datum.AttemptedRunCount < datum.MaximumAllowedRunCount {
		log.Warnf("datum %s pod missing twice, retrying (attempt %d/%d)", datum.ID, datum.AttemptedRunCount, datum.MaximumAllowedRunCount)
		return b.facade.GetDatum().Transition(ctx, datum.ID, model.DatumStatusRunning, model.DatumStatusReady, map[string]interface{}{
			"pod_name":  nil,
			"node_name": nil,
		})
	}

	log.Warnf("datum %s pod missing twice, retry cap reached, marking error", datum.ID)
	return b.facade.GetDatum().Transition(ctx, datum.ID, model.DatumStatusRunning, model.DatumStatusError, map[string]interface{}{
		"error_message": lostPodMessage,
		"pod_name":      nil,
	})
}

// completionSweep (spec.md §4.8 sweep 3): corrects races where the last
// worker wrote its outputs but the Job row never got marked done, or where
// every live datum has already been exhausted into error.
func (b *Babysitter) completionSweep(ctx context.Context, job *model.Job) error {
	counts, err := b.facade.GetDatum().CountByStatus(ctx, job.ID)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil
	}

	if counts[model.DatumStatusDone] == total {
		log.Infof("job %s: all datums done, marking done", job.ID)
		return b.facade.GetJob().Transition(ctx, job.ID, model.JobStatusRunning, model.JobStatusDone)
	}

	if counts[model.DatumStatusReady] == 0 && counts[model.DatumStatusRunning] == 0 && counts[model.DatumStatusError] > 0 {
		log.Warnf("job %s: no ready/running datums and at least one error, marking error", job.ID)
		return b.facade.GetJob().Transition(ctx, job.ID, model.JobStatusRunning, model.JobStatusError)
	}

	return nil
}

// timeoutSweep (spec.md §4.8 sweep 4): enforces job_timeout, cascading any
// non-terminal datums to canceled. Returns stillRunning=false once the Job
// has been canceled so the caller skips the completion sweep.
func (b *Babysitter) timeoutSweep(ctx context.Context, job *model.Job) (stillRunning bool, err error) {
	if job.JobTimeout == nil {
		return true, nil
	}

	deadline := job.CreatedAt.Add(time.Duration(*job.JobTimeout) * time.Second)
	if time.Now().Before(deadline) {
		return true, nil
	}

	log.Warnf("job %s exceeded its timeout, canceling", job.ID)
	if err := b.facade.GetJob().Transition(ctx, job.ID, model.JobStatusRunning, model.JobStatusCanceled); err != nil {
		return true, err
	}
	if err := b.cascadeNonTerminalDatums(ctx, job.ID, model.DatumStatusCanceled, "job timed out"); err != nil {
		return false, err
	}
	return false, nil
}

// cascadeNonTerminalDatums attempts to move every ready/running datum of job
// to toStatus. Used when a Job itself becomes terminal out from under its
// still-in-flight datums (vanished cluster job, timeout). Each move goes
// through pkg/state's table: ready->error is not a legal transition there,
// so with toStatus error only running datums change, and the rejected
// ready datums are logged and left as they are.
func (b *Babysitter) cascadeNonTerminalDatums(ctx context.Context, jobID, toStatus, message string) error {
	datums, err := b.facade.GetDatum().ListByJob(ctx, jobID)
	if err != nil {
		return err
	}
	for _, datum := range datums {
		if datum.IsTerminal() {
			continue
		}
		updates := map[string]interface{}{"pod_name": nil}
		if toStatus == model.DatumStatusError {
			updates["error_message"] = message
		}
		if err := b.facade.GetDatum().Transition(ctx, datum.ID, datum.Status, toStatus, updates); err != nil {
			log.Errorf("failed to cascade datum %s to %s: %v", datum.ID, toStatus, err)
		}
	}
	return nil
}
