// Package postgres implements store.Store on PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretap/caretap_backend/internal/store"
)

// DB is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which is how the query layer is tested without a server.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Postgres struct {
	db DB
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// NewWithDB allows injecting a mock connection for tests.
func NewWithDB(db DB) *Postgres {
	return &Postgres{db: db}
}

var _ store.Store = (*Postgres)(nil)
