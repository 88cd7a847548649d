package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository returns the SQLite-backed [RecordRepository].
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *recordRepository) Get(ctx context.Context, key models.EntityKey) (models.Record, error) {
	rec, err := getRecordTx(ctx, r.DB.DB, key)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		r.logger.Err(err).
			Str("func", "recordRepository.Get").
			Str("collection", key.Collection).
			Str("entity_id", key.EntityID).
			Msg("failed to read record")
	}
	return rec, err
}

func (r *recordRepository) List(ctx context.Context, collection string) ([]models.Record, error) {
	query, args, err := buildListRecordsQuery(collection)
	if err != nil {
		return nil, storageError(ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "recordRepository.List").
			Str("collection", collection).
			Msg("failed to query records")
		return nil, storageError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			r.logger.Err(scanErr).
				Str("func", "recordRepository.List").
				Str("collection", collection).
				Msg("failed to scan record row")
			return nil, storageError(ErrScanningRow, scanErr)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, storageError(ErrScanningRows, rowsErr)
	}

	return records, nil
}

func (r *recordRepository) ApplyRemote(ctx context.Context, delta models.RemoteDelta) (ApplyOutcome, error) {
	key := delta.Key()
	outcome := Stale

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := revisionTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if delta.Revision <= current {
			outcome = Stale
			return nil
		}

		pending, err := countEntityMutationsTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if pending > 0 {
			if _, err = tx.ExecContext(ctx, upsertHeldDelta,
				key.Collection, key.EntityID, delta.Revision, []byte(delta.Payload), delta.Deleted,
			); err != nil {
				return storageError(ErrExecutingQuery, err)
			}
			outcome = Held
			return nil
		}

		if err = setConfirmedTx(ctx, tx, key, delta.Revision, delta.Payload, delta.Deleted); err != nil {
			return err
		}
		outcome = Applied
		return nil
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "recordRepository.ApplyRemote").
			Str("collection", key.Collection).
			Str("entity_id", key.EntityID).
			Int64("revision", delta.Revision).
			Msg("failed to apply remote delta")
		return Stale, err
	}

	r.logger.Debug().
		Str("func", "recordRepository.ApplyRemote").
		Str("collection", key.Collection).
		Str("entity_id", key.EntityID).
		Int64("revision", delta.Revision).
		Stringer("outcome", outcome).
		Send()

	return outcome, nil
}

func (r *recordRepository) Watermark(ctx context.Context, collection string) (int64, error) {
	var revision int64
	err := r.DB.QueryRowContext(ctx, getWatermark, collection).Scan(&revision)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		r.logger.Err(err).
			Str("func", "recordRepository.Watermark").
			Str("collection", collection).
			Msg("failed to read watermark")
		return 0, storageError(ErrExecutingQuery, err)
	}
	return revision, nil
}

func (r *recordRepository) AdvanceWatermark(ctx context.Context, collection string, revision int64) error {
	if _, err := r.DB.ExecContext(ctx, advanceWatermark, collection, revision); err != nil {
		r.logger.Err(err).
			Str("func", "recordRepository.AdvanceWatermark").
			Str("collection", collection).
			Int64("revision", revision).
			Msg("failed to advance watermark")
		return storageError(ErrExecutingQuery, err)
	}
	return nil
}

func (r *recordRepository) Evict(ctx context.Context, key models.EntityKey) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		pending, err := countEntityMutationsTx(ctx, tx, key)
		if err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: %s", ErrPendingMutations, key)
		}

		if _, err = tx.ExecContext(ctx, deleteRecord, key.Collection, key.EntityID); err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		if _, err = tx.ExecContext(ctx, deleteHeldDelta, key.Collection, key.EntityID); err != nil {
			return storageError(ErrExecutingQuery, err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrPendingMutations) {
		r.logger.Err(err).
			Str("func", "recordRepository.Evict").
			Str("collection", key.Collection).
			Str("entity_id", key.EntityID).
			Msg("failed to evict record")
	}
	return err
}

func (r *recordRepository) EvictionCandidates(ctx context.Context, collection string, limit int) ([]models.EntityKey, error) {
	query, args, err := buildEvictionCandidatesQuery(collection, limit)
	if err != nil {
		return nil, storageError(ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var keys []models.EntityKey
	for rows.Next() {
		key := models.EntityKey{Collection: collection}
		if err = rows.Scan(&key.EntityID); err != nil {
			return nil, storageError(ErrScanningRow, err)
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		return nil, storageError(ErrScanningRows, err)
	}
	return keys, nil
}

func (r *recordRepository) Count(ctx context.Context, collection string) (int, error) {
	query, args, err := buildCountRecordsQuery(collection)
	if err != nil {
		return 0, storageError(ErrBuildingSQLQuery, err)
	}

	var n int
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, storageError(ErrExecutingQuery, err)
	}
	return n, nil
}

// getRecordTx reads one record through q.
func getRecordTx(ctx context.Context, q queryer, key models.EntityKey) (models.Record, error) {
	rec, err := scanRecord(q.QueryRowContext(ctx, getRecord, key.Collection, key.EntityID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	case err != nil:
		return models.Record{}, storageError(ErrScanningRow, err)
	}
	return rec, nil
}

func scanRecord(s scanner) (models.Record, error) {
	var (
		rec          models.Record
		payload      []byte
		localPayload []byte
		updatedAt    time.Time
	)
	err := s.Scan(
		&rec.Collection,
		&rec.EntityID,
		&rec.Revision,
		&payload,
		&rec.Deleted,
		&rec.Speculative,
		&localPayload,
		&rec.LocalDeleted,
		&updatedAt,
	)
	if err != nil {
		return models.Record{}, err
	}

	rec.Payload = payload
	rec.LocalPayload = localPayload
	rec.UpdatedAt = &updatedAt
	return rec, nil
}

func revisionTx(ctx context.Context, q queryer, key models.EntityKey) (int64, error) {
	var revision int64
	err := q.QueryRowContext(ctx, getRecordRevision, key.Collection, key.EntityID).Scan(&revision)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, storageError(ErrExecutingQuery, err)
	}
	return revision, nil
}

func countEntityMutationsTx(ctx context.Context, q queryer, key models.EntityKey) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, countEntityMutations, key.Collection, key.EntityID).Scan(&n); err != nil {
		return 0, storageError(ErrExecutingQuery, err)
	}
	return n, nil
}

func setConfirmedTx(ctx context.Context, q queryer, key models.EntityKey, revision int64, payload []byte, deleted bool) error {
	if _, err := q.ExecContext(ctx, upsertConfirmed,
		key.Collection, key.EntityID, revision, payload, deleted, now(),
	); err != nil {
		return storageError(ErrExecutingQuery, err)
	}
	return nil
}
