package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// Storages bundles the repositories of the local store, all sharing one
// SQLite connection pool.
type Storages struct {
	Records   RecordRepository
	Mutations MutationRepository

	db *DB
}

// NewStorages opens the local database, applies migrations and builds the
// repositories.
func NewStorages(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*Storages, error) {
	log.Info().Str("func", "NewStorages").Msg("opening local store...")

	db, err := NewConnectSQLite(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewStoragesFromDB(db, log), nil
}

// NewStoragesFromDB builds the repositories on an already migrated database.
func NewStoragesFromDB(db *DB, log *logger.Logger) *Storages {
	storeLog := log.Component("store")
	return &Storages{
		Records:   NewRecordRepository(db, storeLog),
		Mutations: NewMutationRepository(db, storeLog),
		db:        db,
	}
}

// Close releases the database connection pool.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
