// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package state centralizes the Job and Datum transition-legality tables
// (spec.md §4.5) so that the leasing service and the babysitter both guard
// their mutations through the same source of truth instead of duplicating
// conditionals.
package state

import (
	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/model"
)

var jobTransitions = map[string]map[string]bool{
	model.JobStatusRunning: {
		model.JobStatusDone:     true,
		model.JobStatusError:    true,
		model.JobStatusCanceled: true,
	},
}

var datumTransitions = map[string]map[string]bool{
	model.DatumStatusReady: {
		model.DatumStatusRunning:  true,
		model.DatumStatusCanceled: true,
	},
	model.DatumStatusRunning: {
		model.DatumStatusDone:     true,
		model.DatumStatusReady:    true,
		model.DatumStatusError:    true,
		model.DatumStatusCanceled: true,
	},
}

// JobTransition reports whether moving a Job from `from` to `to` is legal.
// An illegal transition is reported as CodeStaleState and must never be
// silently coerced (spec.md §4.5).
func JobTransition(from, to string) error {
	if from == to {
		return nil
	}
	if jobTransitions[from][to] {
		return nil
	}
	return staleState(from, to)
}

// DatumTransition reports whether moving a Datum from `from` to `to` is
// legal.
func DatumTransition(from, to string) error {
	if from == to {
		return nil
	}
	if datumTransitions[from][to] {
		return nil
	}
	return staleState(from, to)
}

func staleState(from, to string) *apierrors.Error {
	return apierrors.NewError().
		WithCode(apierrors.CodeStaleState).
		WithMessagef("illegal transition from %q to %q", from, to)
}
