// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"

	"github.com/MKhiriev/go-offline-sync/models"
)

// pushOutcome is what the coordinator does with a mutation after a send.
type pushOutcome int

const (
	outcomeAcknowledged pushOutcome = iota
	outcomeRetry
	outcomeConflict
	outcomeRejected
	// outcomeUnsent means the remote gave no verdict on the mutation: the
	// send was cancelled or the credentials were refused.
	outcomeUnsent
)

// classifyPushError maps a send error onto the failure taxonomy. cancelled
// tells whether the coordinator itself cancelled the send. Anything outside
// the known classes has an unknown outcome and is retried, never dropped.
func classifyPushError(err error, cancelled bool) pushOutcome {
	switch {
	case err == nil:
		return outcomeAcknowledged
	case cancelled, errors.Is(err, models.ErrAuthFailure):
		return outcomeUnsent
	case errors.Is(err, models.ErrConflictFailure):
		return outcomeConflict
	case errors.Is(err, models.ErrRejected):
		return outcomeRejected
	default:
		return outcomeRetry
	}
}

func (o pushOutcome) String() string {
	switch o {
	case outcomeAcknowledged:
		return "acknowledged"
	case outcomeConflict:
		return "conflict"
	case outcomeRejected:
		return "rejected"
	case outcomeUnsent:
		return "unsent"
	default:
		return "retry"
	}
}
