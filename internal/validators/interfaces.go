// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks the wire requests accepted by the reference
// remote before they reach the authoritative store.
//
// A [Validator] may be scoped to a subset of fields by name, so a handler
// can check only what it parsed.
package validators

import "context"

// Validator validates a value, optionally limited to the named fields.
type Validator interface {
	Validate(ctx context.Context, obj any, fields ...string) error
}
