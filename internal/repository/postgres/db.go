// Package postgres implements the relational repositories (games,
// positions, embedding jobs) on top of pgx, following the query/Scan
// conventions of the teacher's own postgres repository package.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool (or an open transaction) every
// repository in this package needs. Defining it explicitly lets tests
// swap in pgxmock without depending on the concrete pool type.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ DB = (*pgxpool.Pool)(nil)
