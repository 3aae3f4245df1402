// Package datasets adapts PostgreSQL to the rule engine's data source contract.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

// OpenPool parses dsn, connects, and verifies the pool with a ping.
func OpenPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("datasets.OpenPool: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("datasets.OpenPool: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("datasets.OpenPool: ping: %w", err)
	}
	return pool, nil
}

// Pool hands out one pooled connection per audit run.
type Pool struct {
	pool *pgxpool.Pool
}

func NewPool(pool *pgxpool.Pool) *Pool {
	return &Pool{pool: pool}
}

func (p *Pool) Acquire(ctx context.Context) (engine.Conn, error) {
	if p == nil || p.pool == nil {
		return nil, engine.ConnectionError{Err: errors.New("database pool is not configured")}
	}
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, engine.ConnectionError{Err: err}
	}
	if err := c.Ping(ctx); err != nil {
		c.Release()
		return nil, engine.ConnectionError{Err: err}
	}
	return &Conn{
		q:        c,
		release:  c.Release,
		isClosed: func() bool { return c.Conn().IsClosed() },
	}, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Conn is an engine.DataSource bound to a single connection.
type Conn struct {
	q        queryer
	release  func()
	isClosed func() bool
}

func (c *Conn) Query(ctx context.Context, statement string, args ...any) ([]engine.Row, error) {
	if c == nil || c.q == nil {
		return nil, engine.DataAccessError{Kind: engine.DataAccessConnectionLost, Err: errors.New("connection released")}
	}
	rows, err := c.q.Query(ctx, statement, args...)
	if err != nil {
		return nil, c.classify(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, c.classify(err)
	}
	out := make([]engine.Row, len(maps))
	for i, m := range maps {
		out[i] = engine.Row(m)
	}
	return out, nil
}

// Release returns the connection to the pool. Later calls are no-ops.
func (c *Conn) Release() {
	if c == nil || c.release == nil {
		return
	}
	c.release()
	c.release = nil
	c.q = nil
}

func (c *Conn) classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return engine.DataAccessError{Kind: pgErrorKind(pgErr), Err: err}
	}
	var scanErr pgx.ScanArgError
	if errors.As(err, &scanErr) {
		return engine.DataAccessError{Kind: engine.DataAccessDecodeFailed, Err: err}
	}
	if pgconn.Timeout(err) || (c.isClosed != nil && c.isClosed()) {
		return engine.DataAccessError{Kind: engine.DataAccessConnectionLost, Err: err}
	}
	return engine.DataAccessError{Kind: engine.DataAccessQueryFailed, Err: err}
}

// pgErrorKind maps SQLSTATE classes onto data access error kinds.
func pgErrorKind(pgErr *pgconn.PgError) engine.DataAccessErrorKind {
	code := pgErr.Code
	switch {
	case strings.HasPrefix(code, "42"):
		return engine.DataAccessInvalidQuery
	case strings.HasPrefix(code, "22"):
		return engine.DataAccessDecodeFailed
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"):
		return engine.DataAccessConnectionLost
	default:
		return engine.DataAccessQueryFailed
	}
}
