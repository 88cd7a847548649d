// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by every layer of the engine. Lower layers wrap
// their concrete errors with one of these so callers can branch with
// [errors.Is] regardless of where the failure happened.
var (
	// ErrStorageFailure means a local durable read or write failed. It is
	// fatal to the calling operation and never retried silently.
	ErrStorageFailure = errors.New("storage failure")

	// ErrTransportFailure means a network send or receive failed, timed out,
	// or had an unknown outcome. It is retried with backoff.
	ErrTransportFailure = errors.New("transport failure")

	// ErrConflictFailure means the remote revision moved past the revision a
	// mutation was based on. Terminal for the mutation; no automatic retry.
	ErrConflictFailure = errors.New("conflict failure")

	// ErrProtocolFailure means the remote answered with something that could
	// not be decoded. Logged and retried like a transport failure.
	ErrProtocolFailure = errors.New("protocol failure")

	// ErrRejected means the remote refused a mutation definitively
	// (validation, unknown entity). Terminal for the mutation.
	ErrRejected = errors.New("mutation rejected")

	// ErrAuthFailure means the remote refused the client's credentials. It
	// says nothing about the mutation, so the queue is kept and the failure
	// is retried like a transport failure once credentials are refreshed.
	ErrAuthFailure = fmt.Errorf("auth failure: %w", ErrTransportFailure)

	// ErrInvalidMutation is returned when a mutation input is malformed.
	ErrInvalidMutation = errors.New("invalid mutation")
)

// Retryable reports whether err belongs to the retry-with-backoff class.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransportFailure) || errors.Is(err, ErrProtocolFailure)
}
