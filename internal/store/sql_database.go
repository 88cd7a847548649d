package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/migrations"
)

// DB wraps the *sql.DB connection pool of the local store together with the
// error classifier used to decide whether a failed transaction is retried.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// txAttempts bounds how often a transaction is retried on a busy database.
const txAttempts = 3

// Migrate applies the embedded schema.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Migrate(ctx, db.DB)
}

// withTx runs fn inside a transaction and commits it. A transaction that
// fails with a retryable error (database busy or locked) is rolled back and
// run again, up to txAttempts times.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err = db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if db.errorClassificator.Classify(err) != Retryable || ctx.Err() != nil {
			return err
		}

		db.logger.Warn().Err(err).
			Str("func", "DB.withTx").
			Int("attempt", attempt).
			Msg("database busy, retrying transaction")

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
		}
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(ErrBeginningTransaction, err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			db.logger.Err(rbErr).Str("func", "DB.runTx").Msg("rollback failed")
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return storageError(ErrCommitingTransaction, err)
	}
	return nil
}

// queryer is the subset of *sql.DB and *sql.Tx used by the read helpers, so
// they can run inside or outside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func now() time.Time {
	return time.Now().UTC()
}

// storageError tags err with both the local store category and
// the engine-wide storage failure class.
func storageError(kind, err error) error {
	return fmt.Errorf("%w: %w: %w", ErrStorage, kind, err)
}
