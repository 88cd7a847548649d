// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

var (
	// ErrInvalidAdapterConfigs is returned when the remote base URL or the
	// request timeout is missing.
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")

	// ErrInvalidStorageConfigs is returned when the database DSN is empty or
	// points to an in-memory database, which cannot survive a restart.
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")

	// ErrInvalidWorkerConfigs is returned when sync scheduling or backoff
	// values are out of range.
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")

	// ErrNoCollections is returned when no collection to pull is configured.
	ErrNoCollections = errors.New("no collections configured")

	// ErrInvalidServerConfigs is returned when the reference server address
	// or timeout is missing.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
)
