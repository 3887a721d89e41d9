// Package db is the Postgres data-access layer. It exposes a Querier
// interface plus a concrete Queries implementation so callers (api, store,
// worker, features) can be tested against in-memory stubs.
//
// The schema lives in schema.sql next to this file.
package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every query method works
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries is the concrete Querier backed by a live connection or transaction.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to a connection pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries scoped to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
