package runner

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1)`
	advisoryLockSQL    = `SELECT pg_advisory_lock($1)`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1)`
)

var auditRunLockKey = lockKey("healthcare-dq", "audit-run")

func lockKey(scope, name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(scope))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

type advisoryLockRunner struct {
	pool    *pgxpool.Pool
	inner   Runner
	tryLock bool
}

// NewBlockingLockRunner waits for the run lock before running inner.
func NewBlockingLockRunner(pool *pgxpool.Pool, inner Runner) Runner {
	return &advisoryLockRunner{pool: pool, inner: inner}
}

// NewTryLockRunner returns ErrRunAlreadyInProgress instead of waiting.
func NewTryLockRunner(pool *pgxpool.Pool, inner Runner) Runner {
	return &advisoryLockRunner{pool: pool, inner: inner, tryLock: true}
}

func (r *advisoryLockRunner) RunOnce(ctx context.Context) error {
	if r == nil || r.pool == nil || r.inner == nil {
		return errors.New("audit runner is not configured")
	}

	lockConn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	locked := false
	defer func() {
		if locked {
			unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			var released bool
			_ = lockConn.QueryRow(unlockCtx, advisoryUnlockSQL, auditRunLockKey).Scan(&released)
		}
		lockConn.Release()
	}()

	if r.tryLock {
		var ok bool
		if err := lockConn.QueryRow(ctx, tryAdvisoryLockSQL, auditRunLockKey).Scan(&ok); err != nil {
			return err
		}
		if !ok {
			return ErrRunAlreadyInProgress
		}
		locked = true
		return r.inner.RunOnce(ctx)
	}

	if _, err := lockConn.Exec(ctx, advisoryLockSQL, auditRunLockKey); err != nil {
		return err
	}
	locked = true
	return r.inner.RunOnce(ctx)
}
