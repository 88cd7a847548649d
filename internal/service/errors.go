// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/models"
)

var (
	// ErrStopped is returned by operations of a component that has been
	// stopped, and by sync handles whose pass never ran.
	ErrStopped = errors.New("sync engine stopped")

	// ErrUnknownResolution is returned for a resolution value outside the
	// known set.
	ErrUnknownResolution = errors.New("unknown conflict resolution")

	// ErrNoProgress is returned when the remote keeps reporting more deltas
	// without moving the watermark.
	ErrNoProgress = fmt.Errorf("remote paging made no progress: %w", models.ErrProtocolFailure)
)

// Reference remote errors.
var (
	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	// ErrRevisionConflict is returned when a mutation's base revision is not
	// the entity's current revision.
	ErrRevisionConflict = errors.New("base revision is not the current revision")

	// ErrEntityNotFound is returned for an update or delete of an entity the
	// remote does not have.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityExists is returned for a create of an entity that exists.
	ErrEntityExists = errors.New("entity already exists")

	// ErrTokenMismatch is returned when the idempotency key header and the
	// body token differ.
	ErrTokenMismatch = errors.New("idempotency key does not match mutation token")

	// ErrTokenReused is returned when a token already applied is sent again
	// with a different mutation.
	ErrTokenReused = errors.New("idempotency token reused for a different mutation")
)
