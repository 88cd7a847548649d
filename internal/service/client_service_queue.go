package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// TokenGenerator produces idempotency tokens.
type TokenGenerator interface {
	Generate() string
}

type pendingQueue struct {
	mutations store.MutationRepository
	tokens    TokenGenerator
	notifier  *Notifier
	metrics   *metrics.Metrics

	logger *logger.Logger
}

// NewPendingQueue wraps the mutation repository with token assignment,
// change notification and the pending gauge.
func NewPendingQueue(mutations store.MutationRepository, tokens TokenGenerator, notifier *Notifier, m *metrics.Metrics, log *logger.Logger) PendingQueue {
	return &pendingQueue{
		mutations: mutations,
		tokens:    tokens,
		notifier:  notifier,
		metrics:   m,
		logger:    log,
	}
}

// Enqueue implements [PendingQueue]. The optimistic record state is
// published right after the commit.
func (q *pendingQueue) Enqueue(ctx context.Context, in models.MutationInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	mutation, rec, err := q.mutations.Enqueue(ctx, in, q.tokens.Generate())
	if err != nil {
		return 0, fmt.Errorf("enqueue %s %s: %w", in.Op, models.EntityKey{Collection: in.Collection, EntityID: in.EntityID}, err)
	}

	q.logger.Debug().
		Str("func", "pendingQueue.Enqueue").
		Int64("seq", mutation.Seq).
		Str("collection", mutation.Collection).
		Str("entity_id", mutation.EntityID).
		Str("op", string(mutation.Op)).
		Msg("mutation queued")

	q.notifier.Changes.Publish(models.NewChangeEvent(rec))
	q.refreshGauge(ctx)

	return mutation.Seq, nil
}

func (q *pendingQueue) Get(ctx context.Context, seq int64) (models.Mutation, error) {
	return q.mutations.Get(ctx, seq)
}

func (q *pendingQueue) PeekBatch(ctx context.Context, maxSize int) ([]models.Mutation, error) {
	if maxSize <= 0 {
		return nil, nil
	}
	return q.mutations.PeekBatch(ctx, maxSize)
}

func (q *pendingQueue) MarkInFlight(ctx context.Context, seqs ...int64) ([]models.Mutation, error) {
	marked := make([]models.Mutation, 0, len(seqs))
	for _, seq := range seqs {
		m, err := q.mutations.MarkInFlight(ctx, seq)
		if errors.Is(err, store.ErrMutationNotFound) {
			continue
		}
		if err != nil {
			return marked, err
		}
		marked = append(marked, m)
	}
	return marked, nil
}

func (q *pendingQueue) MarkAcknowledged(ctx context.Context, seq int64, ack models.MutationAck) error {
	if err := q.mutations.Acknowledge(ctx, seq, ack); err != nil {
		return err
	}
	q.refreshGauge(ctx)
	return nil
}

// MarkFailed implements [PendingQueue]. A mutation that is not in flight is
// left alone, which makes repeated calls harmless.
func (q *pendingQueue) MarkFailed(ctx context.Context, seq int64, retryable bool, cause error) (models.Mutation, bool, error) {
	m, err := q.mutations.Fail(ctx, seq, cause, retryable)
	if errors.Is(err, store.ErrMutationNotFound) {
		return models.Mutation{}, false, nil
	}
	if err != nil {
		return models.Mutation{}, false, err
	}
	return m, true, nil
}

func (q *pendingQueue) Release(ctx context.Context, seq int64) (models.Mutation, bool, error) {
	m, err := q.mutations.Release(ctx, seq)
	if errors.Is(err, store.ErrMutationNotFound) {
		return models.Mutation{}, false, nil
	}
	if err != nil {
		return models.Mutation{}, false, err
	}
	return m, true, nil
}

func (q *pendingQueue) Discard(ctx context.Context, seq int64) (models.Mutation, error) {
	m, err := q.mutations.Remove(ctx, seq)
	if err != nil {
		return models.Mutation{}, err
	}
	q.refreshGauge(ctx)
	return m, nil
}

func (q *pendingQueue) Rebase(ctx context.Context, seq int64) (models.Mutation, error) {
	return q.mutations.Rebase(ctx, seq)
}

func (q *pendingQueue) Recover(ctx context.Context) (int64, error) {
	n, err := q.mutations.Recover(ctx)
	if err != nil {
		return 0, err
	}
	q.refreshGauge(ctx)
	return n, nil
}

func (q *pendingQueue) PendingCount(ctx context.Context) (int, error) {
	return q.mutations.Count(ctx)
}

func (q *pendingQueue) refreshGauge(ctx context.Context) {
	n, err := q.mutations.Count(ctx)
	if err != nil {
		return
	}
	q.metrics.SetPending(n)
}
