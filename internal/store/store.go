// Package store persists catalog data, tariff versions, special taxes and
// quote snapshots in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/frete/internal/tariff"
)

// Store wraps a SQLite handle opened with db.Open and migrated with migrations.Up.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
	}
	return err
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{tariff.ErrNotFound}, args...)...)
	}
	return fmt.Errorf("load "+format+": %w", append(args, err)...)
}
