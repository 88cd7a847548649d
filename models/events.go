package models

import "time"

// ChangeKind tells an observer what happened to an entity.
type ChangeKind string

const (
	EntityChanged ChangeKind = "changed"
	EntityDeleted ChangeKind = "deleted"
)

// ChangeEvent is published to observers whenever the visible state of an
// entity changes, optimistically or through reconciliation.
type ChangeEvent struct {
	Kind       ChangeKind `json:"kind"`
	Collection string     `json:"collection"`
	EntityID   string     `json:"entity_id"`

	// Record is a read-only snapshot; nil when the entity no longer exists locally.
	Record *Record   `json:"record,omitempty"`
	At     time.Time `json:"at"`
}

// NewChangeEvent builds the event describing rec's visible state.
func NewChangeEvent(rec Record) ChangeEvent {
	kind := EntityChanged
	if _, deleted := rec.View(); deleted {
		kind = EntityDeleted
	}
	snapshot := rec
	return ChangeEvent{
		Kind:       kind,
		Collection: rec.Collection,
		EntityID:   rec.EntityID,
		Record:     &snapshot,
		At:         time.Now(),
	}
}

// NewRemovedEvent builds the event for an entity that vanished from the store.
func NewRemovedEvent(key EntityKey) ChangeEvent {
	return ChangeEvent{
		Kind:       EntityDeleted,
		Collection: key.Collection,
		EntityID:   key.EntityID,
		At:         time.Now(),
	}
}

// EngineEventKind classifies failures and status changes surfaced to the
// application.
type EngineEventKind string

const (
	// EventConflict: a mutation hit a remote revision mismatch and is held.
	EventConflict EngineEventKind = "conflict"
	// EventRejected: the remote refused a mutation definitively.
	EventRejected EngineEventKind = "rejected"
	// EventExhausted: a mutation ran out of transport retries.
	EventExhausted EngineEventKind = "exhausted"
	// EventStorage: a local durable read or write failed.
	EventStorage EngineEventKind = "storage"
	// EventDegraded: syncing is failing and backing off.
	EventDegraded EngineEventKind = "degraded"
	// EventRecovered: syncing succeeded again after being degraded.
	EventRecovered EngineEventKind = "recovered"
)

// EngineEvent is a discrete failure or status notification.
type EngineEvent struct {
	Kind       EngineEventKind `json:"kind"`
	Seq        int64           `json:"seq,omitempty"`
	Collection string          `json:"collection,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`

	// Mutation is the originating mutation, when there is one.
	Mutation *Mutation `json:"mutation,omitempty"`

	Err error     `json:"-"`
	At  time.Time `json:"at"`
}

// NewMutationEvent builds an event tied to a mutation.
func NewMutationEvent(kind EngineEventKind, m Mutation, err error) EngineEvent {
	snapshot := m
	return EngineEvent{
		Kind:       kind,
		Seq:        m.Seq,
		Collection: m.Collection,
		EntityID:   m.EntityID,
		Mutation:   &snapshot,
		Err:        err,
		At:         time.Now(),
	}
}

// NewStatusEvent builds an aggregate status event.
func NewStatusEvent(kind EngineEventKind, err error) EngineEvent {
	return EngineEvent{Kind: kind, Err: err, At: time.Now()}
}

// NewEntityEvent builds an event tied to an entity but no single mutation.
func NewEntityEvent(kind EngineEventKind, key EntityKey, err error) EngineEvent {
	return EngineEvent{
		Kind:       kind,
		Collection: key.Collection,
		EntityID:   key.EntityID,
		Err:        err,
		At:         time.Now(),
	}
}
