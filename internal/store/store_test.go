package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// newTestStorages opens a migrated SQLite database in a temporary directory.
func newTestStorages(t *testing.T) (*Storages, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	return openTestStorages(t, dsn), dsn
}

func openTestStorages(t *testing.T, dsn string) *Storages {
	t.Helper()
	s, err := NewStorages(context.Background(), config.ClientStorage{DB: config.ClientDB{DSN: dsn}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newMockDB returns a *DB backed by sqlmock for error-path tests.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &DB{
		DB:                 conn,
		errorClassificator: NewSQLiteErrorClassifier(),
		logger:             logger.Nop(),
	}, mock
}

func key(collection, id string) models.EntityKey {
	return models.EntityKey{Collection: collection, EntityID: id}
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func enqueue(t *testing.T, s *Storages, op models.MutationOp, collection, id string, body any) models.Mutation {
	t.Helper()
	in := models.MutationInput{Collection: collection, EntityID: id, Op: op}
	if body != nil {
		in.Payload = payload(t, body)
	}
	m, _, err := s.Mutations.Enqueue(context.Background(), in, uuid.NewString())
	require.NoError(t, err)
	return m
}
