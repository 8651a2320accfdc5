// Package sqlstore implements the storage data operations over database/sql.
// The sqlite and postgres packages own connection setup and migrations and
// plug their SQL dialect in here.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/julianstephens/habitflow/internal/storage"
)

// Dialect captures what differs between the supported databases
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// EncodeTime converts a timestamp to the value bound for the column
	EncodeTime func(time.Time) any
	// Classify maps a driver error to a storage error, or returns nil when the
	// error has no storage meaning
	Classify func(error) error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements every storage.Provider data operation. Lifecycle methods
// belong to the wrapping provider.
type Store struct {
	db      *sql.DB
	dialect Dialect
	// Now and NewID are replaceable in tests
	Now   func() time.Time
	NewID func() string
}

// New returns a Store over an open database
func New(db *sql.DB, d Dialect) *Store {
	return &Store{
		db:      db,
		dialect: d,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

// DB exposes the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.Placeholder)
}

// now returns the current time truncated to the precision every backend keeps
func (s *Store) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}

func (s *Store) encodeTime(t time.Time) any {
	return s.dialect.EncodeTime(t.UTC().Truncate(time.Microsecond))
}

func (s *Store) encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return s.encodeTime(*t)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.mapError(err, "commit", "")
	}
	return nil
}

func (s *Store) exec(ctx context.Context, q querier, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return q.ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, q querier, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return q.QueryContext(ctx, query, args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return q.QueryRowContext(ctx, query, args...), nil
}

// mapError converts driver errors to storage errors. Context errors pass
// through unchanged.
func (s *Store) mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
	}
	if s.dialect.Classify != nil {
		if mapped := s.dialect.Classify(err); mapped != nil {
			return fmt.Errorf("%s %s: %w", entity, id, mapped)
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}

func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
	}
	return nil
}
