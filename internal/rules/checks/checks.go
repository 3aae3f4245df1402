// Package checks holds the fixed battery of healthcare data-quality rules.
package checks

import (
	"time"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

// Info describes a rule for listings and reports.
type Info struct {
	Key       string
	Name      string
	CheckType string
	TableName string
	IssueType string
	Summary   string
}

var (
	completenessInfo = Info{
		Key:       "patient_completeness",
		Name:      "Patient Completeness",
		CheckType: "completeness_check",
		TableName: "patient_records",
		IssueType: "incomplete_record",
		Summary:   "Active patients missing required demographic, insurance, provider or contact fields.",
	}
	reconciliationInfo = Info{
		Key:       "claims_discrepancies",
		Name:      "Claims Discrepancies",
		CheckType: "discrepancy_check",
		TableName: "claims",
		IssueType: "amount_mismatch",
		Summary:   "Claims whose stated total differs from the sum of their line items by more than $0.01.",
	}
	temporalInfo = Info{
		Key:       "temporal_anomalies",
		Name:      "Temporal Anomalies",
		CheckType: "temporal_check",
		TableName: "claims",
		IssueType: "temporal_anomaly",
		Summary:   "Claims submitted before service or processed before submission.",
	}
	duplicatesInfo = Info{
		Key:       "duplicate_records",
		Name:      "Duplicate Records",
		CheckType: "duplicate_check",
		TableName: "patient_records",
		IssueType: "potential_duplicate",
		Summary:   "Active patients sharing the same name and date of birth.",
	}
	credentialsInfo = Info{
		Key:       "provider_credentials",
		Name:      "Provider Credentials",
		CheckType: "credential_check",
		TableName: "providers",
		IssueType: "expired_license",
		Summary:   "Active providers whose license expired before today.",
	}
)

// Catalog lists every rule in execution order.
func Catalog() []Info {
	return []Info{completenessInfo, reconciliationInfo, temporalInfo, duplicatesInfo, credentialsInfo}
}

// Default returns the rules in execution order. now supplies the clock used
// for license expiry; nil means time.Now.
func Default(now func() time.Time) []engine.Rule {
	return []engine.Rule{
		Completeness{},
		AmountReconciliation{},
		TemporalOrdering{},
		DuplicateDetection{},
		CredentialExpiry{Now: now},
	}
}

func (i Info) finding(recordID, description string, severity engine.Severity, detail map[string]any) engine.Finding {
	return engine.Finding{
		CheckType:   i.CheckType,
		TableName:   i.TableName,
		RecordID:    recordID,
		IssueType:   i.IssueType,
		Description: description,
		Severity:    severity,
		Detail:      detail,
	}
}

func optionalString(row engine.Row, column string) (any, error) {
	s, err := row.NullableString(column)
	if err != nil || s == nil {
		return nil, err
	}
	return *s, nil
}

func optionalDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}
