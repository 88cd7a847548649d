// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MutationOp is the kind of change a pending mutation applies to an entity.
type MutationOp string

const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// Valid reports whether op is one of the known operations.
func (op MutationOp) Valid() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// MutationStatus is the lifecycle status of a pending mutation.
type MutationStatus string

const (
	StatusQueued       MutationStatus = "queued"
	StatusInFlight     MutationStatus = "in_flight"
	StatusAcknowledged MutationStatus = "acknowledged"
	StatusFailed       MutationStatus = "failed"
)

// MutationInput is what the application submits to the queue.
type MutationInput struct {
	Collection string          `json:"collection"`
	EntityID   string          `json:"entity_id"`
	Op         MutationOp      `json:"op"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the input before it is written to the queue.
func (in MutationInput) Validate() error {
	if strings.TrimSpace(in.Collection) == "" {
		return fmt.Errorf("%w: empty collection", ErrInvalidMutation)
	}
	if strings.TrimSpace(in.EntityID) == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidMutation)
	}
	if !in.Op.Valid() {
		return fmt.Errorf("%w: unknown op %q", ErrInvalidMutation, in.Op)
	}
	if in.Op != OpDelete && len(in.Payload) == 0 {
		return fmt.Errorf("%w: %s requires a payload", ErrInvalidMutation, in.Op)
	}
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return fmt.Errorf("%w: payload is not valid JSON", ErrInvalidMutation)
	}
	return nil
}

// Mutation is a durable entry of the pending-change queue.
type Mutation struct {
	// Seq is the local sequence number, strictly increasing in enqueue order.
	Seq int64 `json:"seq"`

	// Token is the client-generated idempotency token sent with every attempt.
	Token string `json:"token"`

	Collection string          `json:"collection"`
	EntityID   string          `json:"entity_id"`
	Op         MutationOp      `json:"op"`
	Payload    json.RawMessage `json:"payload,omitempty"`

	// BaseRevision is the confirmed revision of the entity when the mutation
	// was enqueued (or rebased).
	BaseRevision int64 `json:"base_revision"`

	Status MutationStatus `json:"status"`

	// Retryable is meaningful for StatusFailed: a retryable failure is drained
	// again, a non-retryable one is held until the application resolves it.
	Retryable bool `json:"retryable"`

	// Attempts counts failed delivery attempts.
	Attempts int `json:"attempts"`

	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the entity key the mutation targets.
func (m Mutation) Key() EntityKey {
	return EntityKey{Collection: m.Collection, EntityID: m.EntityID}
}

// Request builds the wire form of the mutation.
func (m Mutation) Request() MutationRequest {
	return MutationRequest{
		Token:        m.Token,
		Collection:   m.Collection,
		EntityID:     m.EntityID,
		Op:           m.Op,
		Payload:      m.Payload,
		BaseRevision: m.BaseRevision,
	}
}

// Held reports whether the mutation failed terminally and waits for resolution.
func (m Mutation) Held() bool {
	return m.Status == StatusFailed && !m.Retryable
}

// Resolution tells the engine how to settle a held conflict.
type Resolution int

const (
	// ResolutionDiscard drops the local intent and accepts the remote state.
	ResolutionDiscard Resolution = iota
	// ResolutionRebase re-sends the local intent on top of the latest remote revision.
	ResolutionRebase
)

func (r Resolution) String() string {
	switch r {
	case ResolutionDiscard:
		return "discard"
	case ResolutionRebase:
		return "rebase"
	}
	return fmt.Sprintf("resolution(%d)", int(r))
}
