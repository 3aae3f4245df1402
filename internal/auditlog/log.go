package auditlog

import (
	"context"
	"log/slog"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

// LogSink writes findings to a structured logger instead of the database.
// It backs dry runs and AUDIT_SINK=log.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Record(ctx context.Context, f engine.Finding) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "quality issue",
		"check_type", f.CheckType,
		"table_name", f.TableName,
		"record_id", f.RecordID,
		"issue_type", f.IssueType,
		"severity", f.Severity.String(),
		"description", f.Description,
	)
	return nil
}
