package runner

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditRequestChannel = "healthcare_dq_audit_requested"

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RequestAudit asks any listening worker to start an audit now.
func RequestAudit(ctx context.Context, db execer) error {
	if db == nil {
		return errors.New("audit request: database is nil")
	}
	_, err := db.Exec(ctx, "SELECT pg_notify($1, '')", auditRequestChannel)
	return err
}

// ListenForAuditRequests holds one pooled connection in LISTEN mode and
// forwards each notification to out. Requests arriving while one is already
// pending are coalesced. It returns nil once ctx is done.
func ListenForAuditRequests(ctx context.Context, pool *pgxpool.Pool, out chan<- struct{}) error {
	if pool == nil {
		return errors.New("audit request listener: pool is nil")
	}
	if out == nil {
		return errors.New("audit request listener: channel is nil")
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+auditRequestChannel); err != nil {
		return err
	}

	for {
		_, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		select {
		case out <- struct{}{}:
		default:
		}
	}
}
