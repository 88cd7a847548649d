// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Authorization errors. All of them answer 401.
var (
	ErrEmptyAuthorizationHeader   = errors.New("empty `Authorization` header")
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")
	ErrEmptyToken                 = errors.New("empty token in `Authorization` header")
	ErrWrongToken                 = errors.New("wrong bearer token")
)

// Request errors.
var (
	ErrInvalidJSON    = errors.New("invalid JSON was passed")
	ErrInvalidQuery   = errors.New("invalid query parameter")
	ErrMissingIdemKey = errors.New("missing `Idempotency-Key` header")
)
