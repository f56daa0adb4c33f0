// Package repository provides typed CRUD and locking primitives over the
// settlement ledger schema. Every repository is constructed against a
// Querier — either *sql.DB for standalone reads or a *sql.Tx shared across
// repositories for multi-step writes — mirroring the single-session
// discipline the original implementation got from SQLAlchemy's AsyncSession.
package repository

import (
	"context"
	"database/sql"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
