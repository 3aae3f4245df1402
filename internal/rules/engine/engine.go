package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kabirhiking/healthcare-data-quality/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/kabirhiking/healthcare-data-quality/internal/rules/engine")

// Engine runs a fixed, ordered set of rules against one connection and
// records every finding to the audit sink.
type Engine struct {
	Connector Connector
	Sink      AuditSink
	Rules     []Rule
	Reporter  Reporter
	Logger    *slog.Logger
	Now       func() time.Time
	NewRunID  func() string
}

// RunAll executes every rule in order. A failing rule is reported in its
// result and does not stop the run; only an unreachable data source aborts
// it with a ConnectionError.
func (e *Engine) RunAll(ctx context.Context) (*Report, error) {
	if e == nil || e.Connector == nil {
		return nil, errors.New("engine: missing connector")
	}
	if e.Sink == nil {
		return nil, errors.New("engine: missing audit sink")
	}
	if err := ValidateRules(e.Rules); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "engine.RunAll")
	defer span.End()

	report := &Report{RunID: e.runID(), Timestamp: e.now().UTC()}
	span.SetAttributes(attribute.String("audit.run_id", report.RunID))

	conn, err := e.Connector.Acquire(ctx)
	if err != nil {
		var ce ConnectionError
		if !errors.As(err, &ce) {
			err = ConnectionError{Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect failed")
		return nil, err
	}
	defer conn.Release()

	logger := e.logger().With("run_id", report.RunID)
	logger.Info("audit run started", "rules", len(e.Rules))

	for _, rule := range e.Rules {
		res, writeFailures := e.runRule(ctx, conn, rule)
		report.add(res)
		report.auditWriteFailures += writeFailures
	}

	summary := report.Summary()
	span.SetAttributes(
		attribute.Int("audit.total_issues", summary.TotalIssuesFound),
		attribute.String("audit.status", string(summary.Status)),
	)
	logger.Info("audit run complete",
		"status", summary.Status,
		"total_issues_found", summary.TotalIssuesFound,
		"checks_performed", summary.ChecksPerformed,
		"checks_failed", summary.ChecksFailed,
		"audit_write_failures", report.auditWriteFailures,
	)
	return report, nil
}

func (e *Engine) runRule(ctx context.Context, ds DataSource, rule Rule) (RuleResult, int) {
	key := strings.TrimSpace(rule.Key())
	name := strings.TrimSpace(rule.Name())

	ctx, span := tracer.Start(ctx, "rule."+key, trace.WithAttributes(attribute.String("rule.key", key)))
	defer span.End()

	e.report(Event{Rule: key, Stage: StageExecute, Message: "running " + name})

	started := time.Now()
	res, err := rule.Execute(ctx, ds)
	metrics.RuleExecutionDuration.WithLabelValues(key).Observe(time.Since(started).Seconds())
	if err != nil {
		de, ok := asDataAccessError(err)
		if !ok {
			de = DataAccessError{Kind: DataAccessQueryFailed, Err: err}
		}
		de.Rule = key
		span.RecordError(de)
		span.SetStatus(codes.Error, string(de.Kind))
		metrics.RuleExecutionsTotal.WithLabelValues(key, "error").Inc()
		e.report(Event{Rule: key, Stage: StageExecute, Err: de, Done: true})
		return RuleResult{Key: key, CheckName: name, Err: de}, 0
	}

	out := RuleResult{
		Key:       key,
		CheckName: name,
		Findings:  res.Findings,
		Aggregate: res.Aggregate,
	}
	if checkName := strings.TrimSpace(res.CheckName); checkName != "" {
		out.CheckName = checkName
	}
	metrics.RuleExecutionsTotal.WithLabelValues(key, "ok").Inc()
	span.SetAttributes(attribute.Int("rule.findings", len(out.Findings)))

	failures := e.recordFindings(ctx, key, out.Findings)
	e.report(Event{
		Rule:    key,
		Stage:   StageExecute,
		Current: int64(len(out.Findings)),
		Message: fmt.Sprintf("%s complete: %d issues", name, len(out.Findings)),
		Done:    true,
	})
	return out, failures
}

func (e *Engine) recordFindings(ctx context.Context, key string, findings []Finding) int {
	total := int64(len(findings))
	failed := 0
	for i, f := range findings {
		metrics.FindingsTotal.WithLabelValues(key, f.Severity.String()).Inc()
		if err := e.Sink.Record(ctx, f); err != nil {
			failed++
			var we AuditWriteError
			if !errors.As(err, &we) {
				we = AuditWriteError{CheckType: f.CheckType, RecordID: f.RecordID, Err: err}
			}
			metrics.AuditWriteFailuresTotal.WithLabelValues(key).Inc()
			e.logger().Warn("audit write failed", "rule", key, "record_id", f.RecordID, "err", we)
			continue
		}
		e.report(Event{
			Rule:    key,
			Stage:   StageAudit,
			Current: int64(i + 1),
			Total:   total,
			Message: fmt.Sprintf("recorded %d/%d findings", i+1, total),
		})
	}
	return failed
}

// ValidateRules rejects an empty rule set and duplicate or blank keys.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return errors.New("engine: no rules configured")
	}
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		if rule == nil {
			return fmt.Errorf("engine: rule %d is nil", i)
		}
		key := strings.TrimSpace(rule.Key())
		if key == "" {
			return fmt.Errorf("engine: rule %d has an empty key", i)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("engine: duplicate rule key %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (e *Engine) report(ev Event) {
	if e.Reporter == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.Reporter.Report(ev)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) runID() string {
	if e.NewRunID != nil {
		if id := strings.TrimSpace(e.NewRunID()); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
