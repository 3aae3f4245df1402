// Package reporting renders audit reports to files and ships them to object storage.
package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"gopkg.in/yaml.v3"
)

// Document is the export shape of a report shared by every format.
type Document struct {
	RunID              string          `json:"run_id" yaml:"run_id"`
	Timestamp          string          `json:"timestamp" yaml:"timestamp"`
	Checks             Checks          `json:"checks" yaml:"checks"`
	Summary            SummaryDocument `json:"summary" yaml:"summary"`
	AuditWriteFailures int             `json:"audit_write_failures" yaml:"audit_write_failures"`
}

type CheckDocument struct {
	Key         string             `json:"-" yaml:"-"`
	CheckName   string             `json:"check_name" yaml:"check_name"`
	IssuesFound int                `json:"issues_found" yaml:"issues_found"`
	Aggregate   *AggregateDocument `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`
	Details     []map[string]any   `json:"details" yaml:"details"`
}

type AggregateDocument struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

type SummaryDocument struct {
	TotalIssuesFound int    `json:"total_issues_found" yaml:"total_issues_found"`
	ChecksPerformed  int    `json:"checks_performed" yaml:"checks_performed"`
	ChecksFailed     int    `json:"checks_failed" yaml:"checks_failed"`
	Status           string `json:"status" yaml:"status"`
}

// Checks keeps rule results in run order when encoded as an object.
type Checks []CheckDocument

func (c Checks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, check := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(check.Key)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(check)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", check.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c Checks) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, check := range c {
		value := &yaml.Node{}
		if err := value.Encode(check); err != nil {
			return nil, fmt.Errorf("check %s: %w", check.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: check.Key},
			value,
		)
	}
	return node, nil
}

// NewDocument converts a report into its export shape.
func NewDocument(report *engine.Report) *Document {
	summary := report.Summary()
	doc := &Document{
		RunID:     report.RunID,
		Timestamp: report.Timestamp.UTC().Format(time.RFC3339),
		Summary: SummaryDocument{
			TotalIssuesFound: summary.TotalIssuesFound,
			ChecksPerformed:  summary.ChecksPerformed,
			ChecksFailed:     summary.ChecksFailed,
			Status:           string(summary.Status),
		},
		AuditWriteFailures: report.AuditWriteFailures(),
	}
	for _, res := range report.Results() {
		check := CheckDocument{
			Key:         res.Key,
			CheckName:   res.CheckName,
			IssuesFound: res.IssuesFound(),
			Details:     make([]map[string]any, 0, len(res.Findings)),
		}
		if res.Aggregate != nil {
			check.Aggregate = &AggregateDocument{Name: res.Aggregate.Name, Value: res.Aggregate.Value.InexactFloat64()}
		}
		if res.Err != nil {
			check.Error = res.Err.Error()
		}
		for _, f := range res.Findings {
			check.Details = append(check.Details, detailRow(f))
		}
		doc.Checks = append(doc.Checks, check)
	}
	return doc
}

func detailRow(f engine.Finding) map[string]any {
	row := make(map[string]any, len(f.Detail)+3)
	for k, v := range f.Detail {
		row[k] = v
	}
	row["record_id"] = f.RecordID
	row["severity"] = f.Severity.String()
	row["description"] = f.Description
	return row
}

// detailColumns returns the sorted union of keys across rows, with
// record_id first.
func detailColumns(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	delete(seen, "record_id")
	cols := make([]string, 0, len(seen)+1)
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return append([]string{"record_id"}, cols...)
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
