// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/models"
)

// Sentinel errors returned by the adapters. Each wraps the failure class the
// engine acts on, so both errors.Is(err, ErrConflict) and
// errors.Is(err, models.ErrConflictFailure) hold.
var (
	ErrConflict     = fmt.Errorf("remote revision conflict: %w", models.ErrConflictFailure)
	ErrBadRequest   = fmt.Errorf("bad request: %w", models.ErrRejected)
	ErrUnauthorized = fmt.Errorf("client unauthorized: %w", models.ErrAuthFailure)
	ErrForbidden    = fmt.Errorf("forbidden: %w", models.ErrAuthFailure)
	ErrNotFound     = fmt.Errorf("not found: %w", models.ErrRejected)

	ErrUnavailable = fmt.Errorf("remote unavailable: %w", models.ErrTransportFailure)
	ErrNetwork     = fmt.Errorf("network error: %w", models.ErrTransportFailure)
	ErrBadResponse = fmt.Errorf("malformed response: %w", models.ErrProtocolFailure)

	ErrLiveClosed = errors.New("live channel closed")
)
