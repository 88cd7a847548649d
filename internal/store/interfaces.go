package store

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

// ApplyOutcome reports what ApplyRemote did with a remote delta.
type ApplyOutcome int

const (
	// Applied: the delta replaced the confirmed state of the record.
	Applied ApplyOutcome = iota
	// Held: the entity has pending mutations, the delta was parked until
	// they settle.
	Held
	// Stale: the delta's revision is not newer than the stored one; nothing changed.
	Stale
)

func (o ApplyOutcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Held:
		return "held"
	case Stale:
		return "stale"
	}
	return "unknown"
}

// RecordRepository is the local cache of domain records.
//
// The confirmed columns of a record only move forward: a delta whose
// revision does not exceed the stored revision is ignored.
type RecordRepository interface {
	// Get returns the record for key, or ErrRecordNotFound.
	Get(ctx context.Context, key models.EntityKey) (models.Record, error)

	// List returns every record of a collection ordered by entity id.
	List(ctx context.Context, collection string) ([]models.Record, error)

	// ApplyRemote applies a remote delta. Stale deltas are no-ops. When the
	// entity has pending mutations the delta is held and applied once the
	// last of them settles.
	ApplyRemote(ctx context.Context, delta models.RemoteDelta) (ApplyOutcome, error)

	// Watermark returns the highest remote revision fully reconciled for
	// collection, zero when none.
	Watermark(ctx context.Context, collection string) (int64, error)

	// AdvanceWatermark raises the collection watermark to revision. Lower
	// values are ignored.
	AdvanceWatermark(ctx context.Context, collection string, revision int64) error

	// Evict drops a cached record. It refuses with ErrPendingMutations when
	// the entity still has queued or held mutations.
	Evict(ctx context.Context, key models.EntityKey) error

	// EvictionCandidates returns up to limit records of collection without
	// pending mutations, least recently updated first.
	EvictionCandidates(ctx context.Context, collection string, limit int) ([]models.EntityKey, error)

	// Count returns the number of cached records in collection.
	Count(ctx context.Context, collection string) (int, error)
}

// MutationRepository is the durable pending-change queue.
//
// Every write that changes the queue also refreshes the optimistic overlay
// of the affected record in the same transaction, so the overlay always
// reflects the newest unsettled mutation.
type MutationRepository interface {
	// Enqueue persists a new mutation and its optimistic overlay atomically.
	// It returns the stored mutation and the resulting record.
	Enqueue(ctx context.Context, in models.MutationInput, token string) (models.Mutation, models.Record, error)

	// PeekBatch returns up to limit drainable mutations in sequence order.
	// A mutation is drainable when it is queued or failed-retryable and no
	// earlier mutation of the same entity is in flight or held.
	PeekBatch(ctx context.Context, limit int) ([]models.Mutation, error)

	// Get returns the mutation with the given sequence number.
	Get(ctx context.Context, seq int64) (models.Mutation, error)

	// MarkInFlight moves a drainable mutation to in_flight and stamps its
	// base revision with the record's current confirmed revision.
	MarkInFlight(ctx context.Context, seq int64) (models.Mutation, error)

	// Acknowledge settles an in-flight mutation with the remote's ack. The
	// mutation is removed from the queue and the confirmed state of the
	// record advances to the acknowledged revision. Acknowledging an
	// unknown sequence number is a no-op.
	Acknowledge(ctx context.Context, seq int64, ack models.MutationAck) error

	// Fail records a failed attempt. A retryable failure leaves the mutation
	// drainable; a non-retryable one holds it and reverts the overlay to the
	// confirmed state.
	Fail(ctx context.Context, seq int64, cause error, retryable bool) (models.Mutation, error)

	// Release returns an in-flight mutation to queued without counting an
	// attempt. It is used when the send never got a verdict from the remote.
	Release(ctx context.Context, seq int64) (models.Mutation, error)

	// Remove drops a mutation (rejected, exhausted or discarded) and
	// recomputes the overlay.
	Remove(ctx context.Context, seq int64) (models.Mutation, error)

	// Rebase applies the held remote state of a conflicted mutation and
	// queues the mutation again on top of it.
	Rebase(ctx context.Context, seq int64) (models.Mutation, error)

	// Recover returns in-flight and retryable-failed mutations to the queue
	// after a restart. Held conflicts stay held.
	Recover(ctx context.Context) (int64, error)

	// Count returns the number of unacknowledged mutations, held ones included.
	Count(ctx context.Context) (int, error)

	// List returns all unacknowledged mutations in sequence order.
	List(ctx context.Context) ([]models.Mutation, error)
}
