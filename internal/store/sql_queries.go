// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	getRecord = `SELECT collection, entity_id, revision, payload, deleted, speculative, local_payload, local_deleted, updated_at
		FROM records
		WHERE collection = ? AND entity_id = ?;`

	getRecordRevision = `SELECT revision FROM records WHERE collection = ? AND entity_id = ?;`

	upsertConfirmed = `INSERT INTO records (collection, entity_id, revision, payload, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, entity_id) DO UPDATE SET
			revision = excluded.revision,
			payload = excluded.payload,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at;`

	upsertOverlay = `INSERT INTO records (collection, entity_id, speculative, local_payload, local_deleted, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (collection, entity_id) DO UPDATE SET
			speculative = 1,
			local_payload = excluded.local_payload,
			local_deleted = excluded.local_deleted,
			updated_at = excluded.updated_at;`

	clearOverlay = `UPDATE records
		SET speculative = 0, local_payload = NULL, local_deleted = 0, updated_at = ?
		WHERE collection = ? AND entity_id = ?;`

	// A record that was never confirmed by the remote and lost its overlay
	// has no state left to show.
	deleteOrphanRecord = `DELETE FROM records
		WHERE collection = ? AND entity_id = ? AND revision = 0 AND speculative = 0;`

	deleteRecord = `DELETE FROM records WHERE collection = ? AND entity_id = ?;`

	upsertHeldDelta = `INSERT INTO held_deltas (collection, entity_id, revision, payload, deleted)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, entity_id) DO UPDATE SET
			revision = excluded.revision,
			payload = excluded.payload,
			deleted = excluded.deleted
		WHERE excluded.revision > held_deltas.revision;`

	getHeldDelta = `SELECT revision, payload, deleted FROM held_deltas WHERE collection = ? AND entity_id = ?;`

	deleteHeldDelta = `DELETE FROM held_deltas WHERE collection = ? AND entity_id = ?;`

	getWatermark = `SELECT revision FROM watermarks WHERE collection = ?;`

	advanceWatermark = `INSERT INTO watermarks (collection, revision)
		VALUES (?, ?)
		ON CONFLICT (collection) DO UPDATE SET revision = MAX(watermarks.revision, excluded.revision);`

	insertMutation = `INSERT INTO mutations (token, collection, entity_id, op, payload, base_revision, status, retryable, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'queued', 1, 0, '', ?, ?);`

	getMutation = `SELECT seq, token, collection, entity_id, op, payload, base_revision, status, retryable, attempts, last_error, created_at, updated_at
		FROM mutations
		WHERE seq = ?;`

	// The newest mutation that is not a held conflict defines the overlay.
	getOverlayMutation = `SELECT op, payload
		FROM mutations
		WHERE collection = ? AND entity_id = ? AND NOT (status = 'failed' AND retryable = 0)
		ORDER BY seq DESC
		LIMIT 1;`

	countEntityMutations = `SELECT COUNT(*) FROM mutations WHERE collection = ? AND entity_id = ?;`

	markInFlight = `UPDATE mutations
		SET status = 'in_flight',
			base_revision = COALESCE((SELECT revision FROM records r WHERE r.collection = mutations.collection AND r.entity_id = mutations.entity_id), 0),
			updated_at = ?
		WHERE seq = ? AND (status = 'queued' OR (status = 'failed' AND retryable = 1));`

	failMutation = `UPDATE mutations
		SET status = 'failed', retryable = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE seq = ? AND status = 'in_flight';`

	deleteMutation = `DELETE FROM mutations WHERE seq = ?;`

	releaseMutation = `UPDATE mutations
		SET status = 'queued', updated_at = ?
		WHERE seq = ? AND status = 'in_flight';`

	requeueMutation = `UPDATE mutations
		SET status = 'queued', retryable = 1, attempts = 0, last_error = '', base_revision = ?, updated_at = ?
		WHERE seq = ?;`

	recoverMutations = `UPDATE mutations
		SET status = 'queued', updated_at = ?
		WHERE status = 'in_flight' OR (status = 'failed' AND retryable = 1);`

	countMutations = `SELECT COUNT(*) FROM mutations;`
)

var (
	recordColumns = []string{
		"collection", "entity_id", "revision", "payload", "deleted",
		"speculative", "local_payload", "local_deleted", "updated_at",
	}
	mutationColumns = []string{
		"m.seq", "m.token", "m.collection", "m.entity_id", "m.op", "m.payload", "m.base_revision",
		"m.status", "m.retryable", "m.attempts", "m.last_error", "m.created_at", "m.updated_at",
	}
)

// buildPeekBatchQuery selects drainable mutations: queued or
// failed-retryable ones whose entity has no earlier in-flight or held entry.
func buildPeekBatchQuery(limit int) (string, []any, error) {
	blocked := sq.Select("1").
		From("mutations p").
		Where("p.collection = m.collection AND p.entity_id = m.entity_id AND p.seq < m.seq").
		Where(sq.Or{
			sq.Eq{"p.status": string(models.StatusInFlight)},
			sq.And{sq.Eq{"p.status": string(models.StatusFailed)}, sq.Eq{"p.retryable": 0}},
		})

	blockedSQL, blockedArgs, err := blocked.ToSql()
	if err != nil {
		return "", nil, err
	}

	return sq.Select(mutationColumns...).
		From("mutations m").
		Where(sq.Or{
			sq.Eq{"m.status": string(models.StatusQueued)},
			sq.And{sq.Eq{"m.status": string(models.StatusFailed)}, sq.Eq{"m.retryable": 1}},
		}).
		Where("NOT EXISTS ("+blockedSQL+")", blockedArgs...).
		OrderBy("m.seq").
		Limit(uint64(limit)).
		ToSql()
}

// buildListMutationsQuery selects every unacknowledged mutation in order.
func buildListMutationsQuery() (string, []any, error) {
	return sq.Select(mutationColumns...).
		From("mutations m").
		OrderBy("m.seq").
		ToSql()
}

// buildListRecordsQuery selects the records of one collection.
func buildListRecordsQuery(collection string) (string, []any, error) {
	return sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"collection": collection}).
		OrderBy("entity_id").
		ToSql()
}

// buildEvictionCandidatesQuery selects records without pending mutations,
// least recently updated first.
func buildEvictionCandidatesQuery(collection string, limit int) (string, []any, error) {
	return sq.Select("r.entity_id").
		From("records r").
		Where(sq.Eq{"r.collection": collection}).
		Where("NOT EXISTS (SELECT 1 FROM mutations m WHERE m.collection = r.collection AND m.entity_id = r.entity_id)").
		OrderBy("r.updated_at", "r.entity_id").
		Limit(uint64(limit)).
		ToSql()
}

// buildCountRecordsQuery counts the records of one collection.
func buildCountRecordsQuery(collection string) (string, []any, error) {
	return sq.Select("COUNT(*)").
		From("records").
		Where(sq.Eq{"collection": collection}).
		ToSql()
}
