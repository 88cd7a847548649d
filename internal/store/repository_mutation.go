package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type mutationRepository struct {
	*DB
	logger *logger.Logger
}

// NewMutationRepository returns the SQLite-backed [MutationRepository].
func NewMutationRepository(db *DB, logger *logger.Logger) MutationRepository {
	return &mutationRepository{
		DB:     db,
		logger: logger,
	}
}

func (m *mutationRepository) Enqueue(ctx context.Context, in models.MutationInput, token string) (models.Mutation, models.Record, error) {
	key := models.EntityKey{Collection: in.Collection, EntityID: in.EntityID}

	var (
		mutation models.Mutation
		record   models.Record
	)
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		base, err := revisionTx(ctx, tx, key)
		if err != nil {
			return err
		}

		ts := now()
		res, err := tx.ExecContext(ctx, insertMutation,
			token, in.Collection, in.EntityID, string(in.Op), []byte(in.Payload), base, ts, ts,
		)
		if err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return storageError(ErrExecutingQuery, err)
		}

		if err = refreshOverlayTx(ctx, tx, key); err != nil {
			return err
		}

		if mutation, err = getMutationTx(ctx, tx, seq); err != nil {
			return err
		}
		record, err = getRecordTx(ctx, tx, key)
		return err
	})
	if err != nil {
		m.logger.Err(err).
			Str("func", "mutationRepository.Enqueue").
			Str("collection", in.Collection).
			Str("entity_id", in.EntityID).
			Str("op", string(in.Op)).
			Msg("failed to enqueue mutation")
		return models.Mutation{}, models.Record{}, err
	}

	m.logger.Debug().
		Str("func", "mutationRepository.Enqueue").
		Int64("seq", mutation.Seq).
		Str("collection", in.Collection).
		Str("entity_id", in.EntityID).
		Str("op", string(in.Op)).
		Msg("mutation enqueued")

	return mutation, record, nil
}

func (m *mutationRepository) PeekBatch(ctx context.Context, limit int) ([]models.Mutation, error) {
	query, args, err := buildPeekBatchQuery(limit)
	if err != nil {
		return nil, storageError(ErrBuildingSQLQuery, err)
	}
	return m.listMutations(ctx, "mutationRepository.PeekBatch", query, args)
}

func (m *mutationRepository) List(ctx context.Context) ([]models.Mutation, error) {
	query, args, err := buildListMutationsQuery()
	if err != nil {
		return nil, storageError(ErrBuildingSQLQuery, err)
	}
	return m.listMutations(ctx, "mutationRepository.List", query, args)
}

func (m *mutationRepository) listMutations(ctx context.Context, fn, query string, args []any) ([]models.Mutation, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		m.logger.Err(err).Str("func", fn).Msg("failed to query mutations")
		return nil, storageError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var mutations []models.Mutation
	for rows.Next() {
		mutation, scanErr := scanMutation(rows)
		if scanErr != nil {
			m.logger.Err(scanErr).Str("func", fn).Msg("failed to scan mutation row")
			return nil, storageError(ErrScanningRow, scanErr)
		}
		mutations = append(mutations, mutation)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		m.logger.Err(rowsErr).Str("func", fn).Msg("error occurred during rows iteration")
		return nil, storageError(ErrScanningRows, rowsErr)
	}

	return mutations, nil
}

func (m *mutationRepository) Get(ctx context.Context, seq int64) (models.Mutation, error) {
	return getMutationTx(ctx, m.DB.DB, seq)
}

func (m *mutationRepository) MarkInFlight(ctx context.Context, seq int64) (models.Mutation, error) {
	var mutation models.Mutation
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, markInFlight, now(), seq)
		if err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		if err = expectAffected(res, seq); err != nil {
			return err
		}
		mutation, err = getMutationTx(ctx, tx, seq)
		return err
	})
	if err != nil && !errors.Is(err, ErrMutationNotFound) {
		m.logger.Err(err).
			Str("func", "mutationRepository.MarkInFlight").
			Int64("seq", seq).
			Msg("failed to mark mutation in flight")
	}
	return mutation, err
}

func (m *mutationRepository) Acknowledge(ctx context.Context, seq int64, ack models.MutationAck) error {
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		mutation, err := getMutationTx(ctx, tx, seq)
		if errors.Is(err, ErrMutationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		key := mutation.Key()

		if _, err = tx.ExecContext(ctx, deleteMutation, seq); err != nil {
			return storageError(ErrExecutingQuery, err)
		}

		current, err := revisionTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if ack.Revision > current {
			var payload []byte
			if mutation.Op != models.OpDelete {
				payload = mutation.Payload
			}
			if err = setConfirmedTx(ctx, tx, key, ack.Revision, payload, mutation.Op == models.OpDelete); err != nil {
				return err
			}
		}

		if err = refreshOverlayTx(ctx, tx, key); err != nil {
			return err
		}
		return applyHeldIfSettledTx(ctx, tx, key)
	})
	if err != nil {
		m.logger.Err(err).
			Str("func", "mutationRepository.Acknowledge").
			Int64("seq", seq).
			Int64("revision", ack.Revision).
			Msg("failed to acknowledge mutation")
		return err
	}
	return nil
}

func (m *mutationRepository) Fail(ctx context.Context, seq int64, cause error, retryable bool) (models.Mutation, error) {
	var lastError string
	if cause != nil {
		lastError = cause.Error()
	}

	var mutation models.Mutation
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, failMutation, retryable, lastError, now(), seq)
		if err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		if err = expectAffected(res, seq); err != nil {
			return err
		}
		if mutation, err = getMutationTx(ctx, tx, seq); err != nil {
			return err
		}
		if retryable {
			return nil
		}
		return refreshOverlayTx(ctx, tx, mutation.Key())
	})
	if err != nil && !errors.Is(err, ErrMutationNotFound) {
		m.logger.Err(err).
			Str("func", "mutationRepository.Fail").
			Int64("seq", seq).
			Msg("failed to record mutation failure")
	}
	return mutation, err
}

func (m *mutationRepository) Release(ctx context.Context, seq int64) (models.Mutation, error) {
	var mutation models.Mutation
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, releaseMutation, now(), seq)
		if err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		if err = expectAffected(res, seq); err != nil {
			return err
		}
		mutation, err = getMutationTx(ctx, tx, seq)
		return err
	})
	if err != nil && !errors.Is(err, ErrMutationNotFound) {
		m.logger.Err(err).
			Str("func", "mutationRepository.Release").
			Int64("seq", seq).
			Msg("failed to release mutation")
	}
	return mutation, err
}

func (m *mutationRepository) Remove(ctx context.Context, seq int64) (models.Mutation, error) {
	var mutation models.Mutation
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if mutation, err = getMutationTx(ctx, tx, seq); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, deleteMutation, seq); err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		if err = refreshOverlayTx(ctx, tx, mutation.Key()); err != nil {
			return err
		}
		return applyHeldIfSettledTx(ctx, tx, mutation.Key())
	})
	if err != nil && !errors.Is(err, ErrMutationNotFound) {
		m.logger.Err(err).
			Str("func", "mutationRepository.Remove").
			Int64("seq", seq).
			Msg("failed to remove mutation")
	}
	return mutation, err
}

func (m *mutationRepository) Rebase(ctx context.Context, seq int64) (models.Mutation, error) {
	var mutation models.Mutation
	err := m.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if mutation, err = getMutationTx(ctx, tx, seq); err != nil {
			return err
		}
		if !mutation.Held() {
			return fmt.Errorf("%w: seq %d is %s", ErrNotHeld, seq, mutation.Status)
		}
		key := mutation.Key()

		if err = applyHeldTx(ctx, tx, key); err != nil {
			return err
		}
		base, err := revisionTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, requeueMutation, base, now(), seq); err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		if err = refreshOverlayTx(ctx, tx, key); err != nil {
			return err
		}
		mutation, err = getMutationTx(ctx, tx, seq)
		return err
	})
	if err != nil && !errors.Is(err, ErrMutationNotFound) && !errors.Is(err, ErrNotHeld) {
		m.logger.Err(err).
			Str("func", "mutationRepository.Rebase").
			Int64("seq", seq).
			Msg("failed to rebase mutation")
	}
	return mutation, err
}

func (m *mutationRepository) Recover(ctx context.Context) (int64, error) {
	res, err := m.DB.ExecContext(ctx, recoverMutations, now())
	if err != nil {
		m.logger.Err(err).Str("func", "mutationRepository.Recover").Msg("failed to recover mutations")
		return 0, storageError(ErrExecutingQuery, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError(ErrExecutingQuery, err)
	}
	if n > 0 {
		m.logger.Info().Str("func", "mutationRepository.Recover").Int64("count", n).Msg("mutations returned to queue")
	}
	return n, nil
}

func (m *mutationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := m.DB.QueryRowContext(ctx, countMutations).Scan(&n); err != nil {
		m.logger.Err(err).Str("func", "mutationRepository.Count").Msg("failed to count mutations")
		return 0, storageError(ErrExecutingQuery, err)
	}
	return n, nil
}

func getMutationTx(ctx context.Context, q queryer, seq int64) (models.Mutation, error) {
	mutation, err := scanMutation(q.QueryRowContext(ctx, getMutation, seq))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Mutation{}, fmt.Errorf("%w: seq %d", ErrMutationNotFound, seq)
	case err != nil:
		return models.Mutation{}, storageError(ErrScanningRow, err)
	}
	return mutation, nil
}

func scanMutation(s scanner) (models.Mutation, error) {
	var (
		mutation models.Mutation
		op       string
		status   string
		payload  []byte
	)
	err := s.Scan(
		&mutation.Seq,
		&mutation.Token,
		&mutation.Collection,
		&mutation.EntityID,
		&op,
		&payload,
		&mutation.BaseRevision,
		&status,
		&mutation.Retryable,
		&mutation.Attempts,
		&mutation.LastError,
		&mutation.CreatedAt,
		&mutation.UpdatedAt,
	)
	if err != nil {
		return models.Mutation{}, err
	}

	mutation.Op = models.MutationOp(op)
	mutation.Status = models.MutationStatus(status)
	mutation.Payload = payload
	return mutation, nil
}

func expectAffected(res sql.Result, seq int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(ErrExecutingQuery, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: seq %d", ErrMutationNotFound, seq)
	}
	return nil
}

// refreshOverlayTx recomputes the optimistic overlay of key from the newest
// mutation that is not a held conflict. Without one the overlay is cleared
// and a record that was never confirmed disappears.
func refreshOverlayTx(ctx context.Context, tx *sql.Tx, key models.EntityKey) error {
	var (
		op      string
		payload []byte
	)
	err := tx.QueryRowContext(ctx, getOverlayMutation, key.Collection, key.EntityID).Scan(&op, &payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ts := now()
		if _, err = tx.ExecContext(ctx, clearOverlay, ts, key.Collection, key.EntityID); err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		if _, err = tx.ExecContext(ctx, deleteOrphanRecord, key.Collection, key.EntityID); err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		return nil
	case err != nil:
		return storageError(ErrExecutingQuery, err)
	}

	deleted := models.MutationOp(op) == models.OpDelete
	if deleted {
		payload = nil
	}
	if _, err = tx.ExecContext(ctx, upsertOverlay, key.Collection, key.EntityID, payload, deleted, now()); err != nil {
		return storageError(ErrExecutingQuery, err)
	}
	return nil
}

// applyHeldIfSettledTx applies the held remote delta of key once no
// mutation of the entity remains.
func applyHeldIfSettledTx(ctx context.Context, tx *sql.Tx, key models.EntityKey) error {
	pending, err := countEntityMutationsTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if pending > 0 {
		return nil
	}
	return applyHeldTx(ctx, tx, key)
}

// applyHeldTx moves a held delta newer than the confirmed revision into the
// confirmed columns. The held row is dropped either way.
func applyHeldTx(ctx context.Context, tx *sql.Tx, key models.EntityKey) error {
	var (
		revision int64
		payload  []byte
		deleted  bool
	)
	err := tx.QueryRowContext(ctx, getHeldDelta, key.Collection, key.EntityID).Scan(&revision, &payload, &deleted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return storageError(ErrExecutingQuery, err)
	}

	current, err := revisionTx(ctx, tx, key)
	if err != nil {
		return err
	}
	if revision > current {
		if err = setConfirmedTx(ctx, tx, key, revision, payload, deleted); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, deleteHeldDelta, key.Collection, key.EntityID); err != nil {
		return storageError(ErrExecutingQuery, err)
	}
	return nil
}
