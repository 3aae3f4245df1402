package engine

import (
	"slices"
	"time"
)

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Summary is derived from a report's results on every call.
type Summary struct {
	TotalIssuesFound int
	ChecksPerformed  int
	ChecksFailed     int
	Status           Status
}

// Report is the result of one audit run. Results keep the order rules ran in.
type Report struct {
	RunID     string
	Timestamp time.Time

	results            []RuleResult
	auditWriteFailures int
}

// NewReport builds a report from already-computed results.
func NewReport(runID string, timestamp time.Time, results []RuleResult) *Report {
	r := &Report{RunID: runID, Timestamp: timestamp}
	for _, res := range results {
		r.add(res)
	}
	return r
}

func (r *Report) add(res RuleResult) {
	r.results = append(r.results, res)
}

func (r *Report) Results() []RuleResult {
	if r == nil {
		return nil
	}
	return slices.Clone(r.results)
}

func (r *Report) Result(key string) (RuleResult, bool) {
	if r == nil {
		return RuleResult{}, false
	}
	for _, res := range r.results {
		if res.Key == key {
			return res, true
		}
	}
	return RuleResult{}, false
}

// Failures returns the results of rules that could not execute.
func (r *Report) Failures() []RuleResult {
	if r == nil {
		return nil
	}
	var out []RuleResult
	for _, res := range r.results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// AuditWriteFailures is the number of findings the sink rejected during the run.
func (r *Report) AuditWriteFailures() int {
	if r == nil {
		return 0
	}
	return r.auditWriteFailures
}

func (r *Report) Summary() Summary {
	s := Summary{Status: StatusPass}
	if r == nil {
		return s
	}
	for _, res := range r.results {
		s.ChecksPerformed++
		s.TotalIssuesFound += res.IssuesFound()
		if res.Failed() {
			s.ChecksFailed++
		}
	}
	if s.TotalIssuesFound > 0 {
		s.Status = StatusFail
	}
	return s
}
