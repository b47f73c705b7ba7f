package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore stores registrations in PostgreSQL through a pgx pool.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	begin := func(ctx context.Context) (tx, error) {
		t, err := db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		return pgxTx{pgxConn{t}, t}, nil
	}
	return &PostgresStore{newSQLStore(postgresDialect, pgxConn{db}, begin)}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgxConn struct{ q pgxQuerier }

func (c pgxConn) exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.q.Exec(ctx, sql, args...)
	return err
}

func (c pgxConn) queryRow(ctx context.Context, sql string, args ...any) row {
	return c.q.QueryRow(ctx, sql, args...)
}

func (c pgxConn) query(ctx context.Context, sql string, args ...any) (rows, error) {
	rs, err := c.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

type pgxTx struct {
	pgxConn
	t pgx.Tx
}

func (t pgxTx) commit(ctx context.Context) error   { return t.t.Commit(ctx) }
func (t pgxTx) rollback(ctx context.Context) error { return t.t.Rollback(ctx) }
