package checks

import (
	"context"
	"time"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

const temporalQuery = `
SELECT claim_id, patient_id, service_date, submission_date, processing_date
FROM claims
WHERE submission_date < service_date
   OR (processing_date IS NOT NULL AND processing_date < submission_date)
ORDER BY claim_id`

const (
	anomalySubmissionBeforeService    = "Submission before service"
	anomalyProcessingBeforeSubmission = "Processing before submission"
)

// TemporalOrdering flags claims whose lifecycle dates are out of order.
type TemporalOrdering struct{}

func (TemporalOrdering) Key() string  { return temporalInfo.Key }
func (TemporalOrdering) Name() string { return temporalInfo.Name }

func (TemporalOrdering) Execute(ctx context.Context, ds engine.DataSource) (engine.RuleResult, error) {
	rows, err := ds.Query(ctx, temporalQuery)
	if err != nil {
		return engine.RuleResult{}, err
	}
	findings, err := temporalFindings(rows)
	if err != nil {
		return engine.RuleResult{}, err
	}
	return engine.RuleResult{Key: temporalInfo.Key, CheckName: temporalInfo.Name, Findings: findings}, nil
}

func temporalFindings(rows []engine.Row) ([]engine.Finding, error) {
	var findings []engine.Finding
	for _, row := range rows {
		service, err := row.NullableDate("service_date")
		if err != nil {
			return nil, err
		}
		submission, err := row.NullableDate("submission_date")
		if err != nil {
			return nil, err
		}
		processing, err := row.NullableDate("processing_date")
		if err != nil {
			return nil, err
		}

		anomaly := temporalAnomaly(service, submission, processing)
		if anomaly == "" {
			continue
		}

		claimID, err := row.String("claim_id")
		if err != nil {
			return nil, err
		}
		patientID, err := optionalString(row, "patient_id")
		if err != nil {
			return nil, err
		}
		findings = append(findings, temporalInfo.finding(claimID, anomaly, engine.SeverityHigh, map[string]any{
			"claim_id":        claimID,
			"patient_id":      patientID,
			"service_date":    optionalDate(service),
			"submission_date": optionalDate(submission),
			"processing_date": optionalDate(processing),
			"anomaly_type":    anomaly,
		}))
	}
	return findings, nil
}

// temporalAnomaly returns the first violated ordering, or "" when the dates
// are consistent. A missing date never triggers an anomaly.
func temporalAnomaly(service, submission, processing *time.Time) string {
	if submission == nil {
		return ""
	}
	if service != nil && submission.Before(*service) {
		return anomalySubmissionBeforeService
	}
	if processing != nil && processing.Before(*submission) {
		return anomalyProcessingBeforeSubmission
	}
	return ""
}
