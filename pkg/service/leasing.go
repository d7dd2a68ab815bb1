// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package service implements the daemon's business operations: datum
// leasing (C6), and job lifecycle orchestration (create/retry/cancel).
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/model"
)

// ReserveOutcome distinguishes ReserveDatum's three normal-control returns
// (spec.md §4.6, §7): a leased datum, NoWork (nothing ready right now, but
// other datums are still running — poll again), or JobDone (nothing ready
// or running remains — the worker should exit cleanly).
type ReserveOutcome int

const (
	ReserveOutcomeLeased ReserveOutcome = iota
	ReserveOutcomeNoWork
	ReserveOutcomeJobDone
)

// ReserveResult is ReserveDatum's return value: a DatumBundle (Datum plus
// its InputFiles) when Outcome is ReserveOutcomeLeased, empty otherwise.
type ReserveResult struct {
	Outcome    ReserveOutcome
	Datum      *model.Datum
	InputFiles []*model.InputFile
}

// LeasingService implements ReserveDatum/ReportSuccess/ReportFailure
// (spec.md §4.6), generalized from the teacher's
// TryAcquireLock/ExtendLock/ReleaseLock conditional-update idiom.
type LeasingService struct {
	facade database.FacadeInterface
}

// NewLeasingService builds a LeasingService over facade.
func NewLeasingService(facade database.FacadeInterface) *LeasingService {
	return &LeasingService{facade: facade}
}

// ReserveDatum atomically leases the oldest ready datum for jobID (ties
// broken by id) and assigns it to podName/nodeName.
func (s *LeasingService) ReserveDatum(ctx context.Context, jobID, podName, nodeName string) (*ReserveResult, error) {
	datum, err := s.facade.GetDatum().LeaseNext(ctx, jobID, podName, nodeName)
	if err != nil {
		return nil, err
	}
	if datum != nil {
		inputFiles, err := s.facade.GetInputFile().ListByDatum(ctx, datum.ID)
		if err != nil {
			return nil, err
		}
		return &ReserveResult{Outcome: ReserveOutcomeLeased, Datum: datum, InputFiles: inputFiles}, nil
	}

	counts, err := s.facade.GetDatum().CountByStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if counts[model.DatumStatusReady] == 0 && counts[model.DatumStatusRunning] == 0 {
		return &ReserveResult{Outcome: ReserveOutcomeJobDone}, nil
	}
	return &ReserveResult{Outcome: ReserveOutcomeNoWork}, nil
}

// ReportSuccess marks a leased datum done and registers its output files.
// Output-file registration happens in the same transaction as the status
// transition so a crash between the two can never leave a done datum with
// missing outputs, or a registered output belonging to a not-yet-done datum.
func (s *LeasingService) ReportSuccess(ctx context.Context, datumID string, outputs []*model.OutputFile, stdout, stderr *string) error {
	return s.facade.Transaction(func(tx database.FacadeInterface) error {
		datum, err := tx.GetDatum().Get(ctx, datumID)
		if err != nil {
			return err
		}
		if datum.Status == model.DatumStatusCanceled {
			return canceledByServerError(datumID)
		}
		for _, output := range outputs {
			if output.ID == "" {
				output.ID = uuid.New().String()
			}
			output.DatumID = datum.ID
			output.JobID = datum.JobID
			output.Status = model.OutputFileStatusDone
			if err := tx.GetOutputFile().Register(ctx, output); err != nil {
				return err
			}
		}
		return tx.GetDatum().Transition(ctx, datumID, model.DatumStatusRunning, model.DatumStatusDone, map[string]interface{}{
			"output":   stdout,
			"stderr":   stderr,
			"pod_name": nil,
		})
	})
}

// ReportFailure records a worker-reported failure. A datum under its retry
// cap goes back to ready for another attempt; one at the cap goes to error
// (spec.md §4.5 "running → error (worker failure at the cap...)").
func (s *LeasingService) ReportFailure(ctx context.Context, datumID, errorMessage string) error {
	datum, err := s.facade.GetDatum().Get(ctx, datumID)
	if err != nil {
		return err
	}
	if datum.Status == model.DatumStatusCanceled {
		return canceledByServerError(datumID)
	}
	if datum.Status != model.DatumStatusRunning {
		return apierrors.NewError().
			WithCode(apierrors.CodeStaleState).
			WithMessagef("datum %q is not running", datumID)
	}

	updates := map[string]interface{}{
		"error_message": errorMessage,
		"pod_name":      nil,
		"node_name":     nil,
	}
	if datum.AttemptedRunCount < datum.MaximumAllowedRunCount {
		return s.facade.GetDatum().Transition(ctx, datumID, model.DatumStatusRunning, model.DatumStatusReady, updates)
	}
	return s.facade.GetDatum().Transition(ctx, datumID, model.DatumStatusRunning, model.DatumStatusError, updates)
}

// canceledByServerError is the rejection a worker gets for reporting against
// a datum the babysitter or an explicit cancel already moved to canceled
// out from under it; the worker is expected to exit on receiving it
// (spec.md §7, §4.9 "in-flight worker reports against canceled datums").
func canceledByServerError(datumID string) error {
	return apierrors.NewError().
		WithCode(apierrors.CodeCanceledByServer).
		WithMessagef("datum %q was canceled by the server", datumID)
}
