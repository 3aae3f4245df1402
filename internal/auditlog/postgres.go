// Package auditlog persists findings to the append-only quality audit log.
package auditlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

const insertAuditEntry = `
INSERT INTO quality_audit_log (check_type, table_name, record_id, issue_type, issue_description, severity)
VALUES ($1, $2, $3, $4, $5, $6)`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink inserts one quality_audit_log row per finding. Each insert
// runs in its own implicit transaction; logged_at is assigned by the server.
type PostgresSink struct {
	db execer
}

func NewPostgresSink(db execer) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Record(ctx context.Context, f engine.Finding) error {
	if s == nil || s.db == nil {
		return engine.AuditWriteError{CheckType: f.CheckType, RecordID: f.RecordID, Err: errors.New("audit sink is not configured")}
	}
	severity, err := f.Severity.MarshalText()
	if err != nil {
		return engine.AuditWriteError{CheckType: f.CheckType, RecordID: f.RecordID, Err: err}
	}
	tag, err := s.db.Exec(ctx, insertAuditEntry,
		f.CheckType, f.TableName, f.RecordID,
		f.IssueType, f.Description, string(severity),
	)
	if err != nil {
		return engine.AuditWriteError{CheckType: f.CheckType, RecordID: f.RecordID, Err: fmt.Errorf("auditlog.PostgresSink.Record: %w", err)}
	}
	if tag.RowsAffected() != 1 {
		return engine.AuditWriteError{
			CheckType: f.CheckType,
			RecordID:  f.RecordID,
			Err:       fmt.Errorf("auditlog.PostgresSink.Record: expected 1 row inserted, got %d", tag.RowsAffected()),
		}
	}
	return nil
}
