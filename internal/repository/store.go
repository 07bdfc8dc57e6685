// Package repository is the MySQL storage backend. Every collection the
// reservation and checkout flows need lives behind one Store bound to a
// *sql.DB; the schema is created by database.Migrate.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/apperr"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
)

// Store implements store.Backend on MySQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Backend = (*Store)(nil)

// New returns a Store bound to db.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the pool.
func (s *Store) Close(context.Context) error { return s.db.Close() }

// notFound maps sql.ErrNoRows to apperr.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

// isDuplicate reports a MySQL 1062 duplicate-key error.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// withTx runs fn inside a transaction, rolling back on any error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
