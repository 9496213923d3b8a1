// Package engine is the narrow contract this module consumes from the data
// layer: a shared query interface, lazily-begun transaction handles, and a
// registry of named models with relation descriptors. It wraps pgx without
// adding query-building or ORM semantics of its own.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the query interface handed to request handlers.
// both *pgxpool.Pool and pgx.Tx satisfy it, so code written against Querier
// runs identically on the shared pool and inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the slice of a pgx pool the engine needs: shared queries plus the
// ability to begin transactions. satisfied by *pgxpool.Pool, and by pgxmock
// in tests.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Pool = (*pgxpool.Pool)(nil)

// handle state errors
var (
	ErrNotBegun     = errors.New("engine: transaction not begun")
	ErrAlreadyBegun = errors.New("engine: transaction already begun")
)

// DB is the database handle: the shared query interface plus a factory for
// transaction handles.
type DB struct {
	pool Pool
}

// NewDB wraps a pool (or anything satisfying Pool) as a database handle.
func NewDB(pool Pool) *DB {
	return &DB{pool: pool}
}

// Querier returns the shared, non-transactional query interface.
func (d *DB) Querier() Querier {
	return d.pool
}

// Transaction returns a new, un-begun transaction handle. this is pure
// construction: no connection is taken and no BEGIN is sent until Begin runs.
func (d *DB) Transaction() *Handle {
	return &Handle{pool: d.pool}
}

// Handle represents one atomic unit of work. it performs no I/O until Begin,
// and after Begin exposes the transaction-scoped query interface.
type Handle struct {
	pool Pool
	tx   pgx.Tx
}

// Begin starts the underlying transaction. calling Begin twice is an error,
// not a nested transaction.
func (h *Handle) Begin(ctx context.Context) error {
	if h.tx != nil {
		return ErrAlreadyBegun
	}
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	h.tx = tx
	return nil
}

// Began reports whether Begin has completed successfully.
func (h *Handle) Began() bool {
	return h.tx != nil
}

// Querier returns the transaction-scoped query interface.
// returns nil before Begin.
func (h *Handle) Querier() Querier {
	if h.tx == nil {
		return nil
	}
	return h.tx
}

// Commit commits the transaction. the handle does not guard against repeat
// calls; close-exactly-once arbitration belongs to the caller.
func (h *Handle) Commit(ctx context.Context) error {
	if h.tx == nil {
		return ErrNotBegun
	}
	if err := h.tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction.
func (h *Handle) Rollback(ctx context.Context) error {
	if h.tx == nil {
		return ErrNotBegun
	}
	if err := h.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}
