// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"errors"

	"github.com/MKhiriev/go-offline-sync/models"
)

// ErrStorage is the engine-wide storage failure. Every error produced by a
// failed read or write of the local database matches it with [errors.Is].
var ErrStorage = models.ErrStorageFailure

// Domain errors.
var (
	// ErrRecordNotFound is returned when no record exists for the key.
	ErrRecordNotFound = errors.New("record not found")

	// ErrMutationNotFound is returned when no queue entry has the given
	// sequence number, or the entry is not in a state the operation accepts.
	ErrMutationNotFound = errors.New("mutation not found")

	// ErrNotHeld is returned by Rebase when the mutation is not a held conflict.
	ErrNotHeld = errors.New("mutation is not held")

	// ErrPendingMutations is returned by Evict when the entity still has
	// unacknowledged mutations.
	ErrPendingMutations = errors.New("entity has pending mutations")
)

// Infrastructure errors. They are always joined with [ErrStorage].
var (
	// ErrBuildingSQLQuery is returned when squirrel fails to render a query.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when a statement fails to execute.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when BEGIN fails.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when COMMIT fails.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when a single row cannot be scanned.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a result set fails.
	ErrScanningRows = errors.New("failed to scan rows")
)
