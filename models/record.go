package models

import (
	"encoding/json"
	"time"
)

// EntityKey identifies a single cached entity inside a collection.
type EntityKey struct {
	Collection string `json:"collection"`
	EntityID   string `json:"entity_id"`
}

// String returns the key in "collection/entity_id" form, used in logs.
func (k EntityKey) String() string {
	return k.Collection + "/" + k.EntityID
}

// Record is a cached domain object held by the local store.
//
// Revision, Payload and Deleted always describe the remote-confirmed state:
// Revision is the highest revision ever observed for the entity. A local
// mutation that has not been acknowledged yet is kept apart in the optimistic
// overlay (Speculative, LocalPayload, LocalDeleted) so readers can always tell
// speculative state from confirmed state.
type Record struct {
	// Collection is the logical entity collection (e.g. "courses").
	Collection string `json:"collection"`

	// EntityID is the stable identifier of the entity inside Collection.
	EntityID string `json:"entity_id"`

	// Revision is the remote-assigned revision of the confirmed payload.
	// Zero means the entity has never been confirmed by the remote.
	Revision int64 `json:"revision"`

	// Payload is the opaque confirmed payload.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Deleted marks a confirmed tombstone.
	Deleted bool `json:"deleted"`

	// Speculative reports that an unacknowledged local mutation is applied on
	// top of the confirmed state.
	Speculative bool `json:"speculative"`

	// LocalPayload is the optimistic payload, valid when Speculative is true.
	LocalPayload json.RawMessage `json:"local_payload,omitempty"`

	// LocalDeleted is the optimistic tombstone flag, valid when Speculative is true.
	LocalDeleted bool `json:"local_deleted"`

	// UpdatedAt is the time of the last local write to the record.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Key returns the entity key of the record.
func (r Record) Key() EntityKey {
	return EntityKey{Collection: r.Collection, EntityID: r.EntityID}
}

// View returns the payload the application should display: the optimistic
// overlay when one exists, the confirmed payload otherwise.
func (r Record) View() (json.RawMessage, bool) {
	if r.Speculative {
		return r.LocalPayload, r.LocalDeleted
	}
	return r.Payload, r.Deleted
}
