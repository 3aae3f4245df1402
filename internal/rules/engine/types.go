package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Severity is the ordered impact level of a finding.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityLow || s > SeverityCritical {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts the upper or lower case severity name.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", raw)
	}
}

// Finding is a single data-quality issue about one record.
type Finding struct {
	CheckType   string
	TableName   string
	RecordID    string
	IssueType   string
	Description string
	Severity    Severity
	Detail      map[string]any
}

// Aggregate is a rule-level number reported next to the findings, such as
// the total claim discrepancy.
type Aggregate struct {
	Name  string
	Value decimal.Decimal
}

// RuleResult is the outcome of one rule within a run. A rule that could not
// execute carries Err and no findings.
type RuleResult struct {
	Key       string
	CheckName string
	Findings  []Finding
	Aggregate *Aggregate
	Err       error
}

func (r RuleResult) IssuesFound() int { return len(r.Findings) }

func (r RuleResult) Failed() bool { return r.Err != nil }

// Rule is a named data-quality check. Execute must only read from ds.
type Rule interface {
	Key() string
	Name() string
	Execute(ctx context.Context, ds DataSource) (RuleResult, error)
}

// DataSource runs read-only statements and returns rows keyed by column name.
type DataSource interface {
	Query(ctx context.Context, statement string, args ...any) ([]Row, error)
}

// Conn is a DataSource held for the duration of a run.
type Conn interface {
	DataSource
	Release()
}

// Connector hands out a Conn for a single run.
type Connector interface {
	Acquire(ctx context.Context) (Conn, error)
}

// AuditSink durably appends findings. Implementations never update or
// delete previously written entries.
type AuditSink interface {
	Record(ctx context.Context, f Finding) error
}
