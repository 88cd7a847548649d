package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// PendingQueue is the durable, ordered log of local mutations. Every queue
// write is a single storage transaction together with the optimistic
// overlay of the affected record.
type PendingQueue interface {
	// Enqueue persists in and its optimistic overlay atomically and returns
	// the assigned sequence number. On a storage failure nothing is written
	// and the error wraps [models.ErrStorageFailure].
	Enqueue(ctx context.Context, in models.MutationInput) (int64, error)

	// Get returns the mutation with the given sequence number.
	Get(ctx context.Context, seq int64) (models.Mutation, error)

	// PeekBatch returns up to maxSize queued or retryable-failed mutations,
	// oldest first. A mutation is only returned when no earlier mutation of
	// the same entity is in flight or held.
	PeekBatch(ctx context.Context, maxSize int) ([]models.Mutation, error)

	// MarkInFlight moves the given mutations to in_flight and returns them
	// with their base revisions stamped. Sequence numbers that are no longer
	// drainable are skipped.
	MarkInFlight(ctx context.Context, seqs ...int64) ([]models.Mutation, error)

	// MarkAcknowledged settles a mutation. Unknown sequence numbers are a
	// no-op.
	MarkAcknowledged(ctx context.Context, seq int64, ack models.MutationAck) error

	// MarkFailed records a failed attempt of an in_flight mutation. The
	// boolean result is false when seq was not in flight and nothing
	// changed.
	MarkFailed(ctx context.Context, seq int64, retryable bool, cause error) (models.Mutation, bool, error)

	// Release puts an in_flight mutation back to queued without charging
	// an attempt. The boolean result is false when seq was not in flight.
	Release(ctx context.Context, seq int64) (models.Mutation, bool, error)

	// Discard drops a mutation and reverts its overlay.
	Discard(ctx context.Context, seq int64) (models.Mutation, error)

	// Rebase queues a held mutation again on top of the latest remote state.
	Rebase(ctx context.Context, seq int64) (models.Mutation, error)

	// Recover returns every in_flight and retryable-failed mutation to
	// queued after a restart.
	Recover(ctx context.Context) (int64, error)

	// PendingCount returns the number of unacknowledged mutations.
	PendingCount(ctx context.Context) (int, error)
}

// ConnectivityMonitor classifies reachability into a [models.ConnectivityState]
// and publishes every change. It never starts a sync by itself.
type ConnectivityMonitor interface {
	State() models.ConnectivityState

	// Subscribe returns a channel that always holds the latest state change.
	// Intermediate states may be skipped by a slow reader. cancel releases
	// the subscription and closes the channel.
	Subscribe() (states <-chan models.ConnectivityState, cancel func())

	// ReportReachability feeds the platform's reachability signal.
	ReportReachability(reachable bool)

	// ReportChannel feeds the live channel's health.
	ReportChannel(up bool)

	// ReportLatency feeds one round-trip sample.
	ReportLatency(rtt time.Duration)

	Start(ctx context.Context) error
	Stop()
}

// Pinger is the probe the connectivity monitor polls.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TriggerReason names why a sync pass was requested.
type TriggerReason string

const (
	TriggerConnectivity TriggerReason = "connectivity"
	TriggerLive         TriggerReason = "live"
	TriggerLiveGap      TriggerReason = "live_gap"
	TriggerTimer        TriggerReason = "timer"
	TriggerForced       TriggerReason = "forced"
	TriggerRetry        TriggerReason = "retry"
	TriggerEnqueue      TriggerReason = "enqueue"
	TriggerResume       TriggerReason = "resume"
)

// Trigger requests a sync pass.
type Trigger interface {
	Trigger(reason TriggerReason)
}

// SyncCoordinator is the single owner of sync state: it drains the queue,
// pulls remote deltas and reconciles them with local state.
type SyncCoordinator interface {
	Trigger

	// ForceSync schedules an immediate pass and returns a handle to await
	// its outcome.
	ForceSync() *SyncHandle

	// Deliver hands a live remote delta to the reconciling path.
	Deliver(ctx context.Context, delta models.RemoteDelta) error

	// Resolve settles a held mutation with the collaborator's decision.
	Resolve(ctx context.Context, seq int64, resolution models.Resolution) error

	State() models.SyncState

	Start(ctx context.Context) error
	Stop()
}

// LiveChannel keeps the push connection open while not paused.
type LiveChannel interface {
	State() models.ChannelState

	// Pause closes the connection and suspends reconnect attempts.
	Pause()
	// Resume reconnects at once with a fresh retry budget.
	Resume()

	Start(ctx context.Context) error
	Stop()
}

// ClientSyncJob triggers a pass on a fixed interval.
type ClientSyncJob interface {
	Start(ctx context.Context) error
	Stop()
	Pause()
	Resume()
}

// EvictionPolicy picks cached records the engine may drop after a pass.
// Records with pending mutations are never evicted, whatever it returns.
type EvictionPolicy interface {
	Candidates(ctx context.Context, collection string) ([]models.EntityKey, error)
}
