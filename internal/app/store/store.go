/*
Package store provides typed access to the relational state of the chat
application: users, rooms, participants, messages, friendships and friend
requests.

All methods run against a DBTX, which is satisfied by both *pgxpool.Pool and
pgx.Tx, so multi-statement sequences can be grouped with ExecTx and commit
all-or-nothing.
*/
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations the queries need. Both the pool and a
// transaction implement it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store executes queries against the database.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New returns a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// withTx returns a Store whose queries run inside the given transaction.
func (s *Store) withTx(tx pgx.Tx) *Store {
	return &Store{db: tx, pool: s.pool}
}

// ExecTx runs fn inside a database transaction. If fn returns an error the
// transaction is rolled back and that error is returned.
func (s *Store) ExecTx(ctx context.Context, fn func(q *Store) error) error {
	if s.pool == nil {
		return fmt.Errorf("store: ExecTx called on a transactional store")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(s.withTx(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
