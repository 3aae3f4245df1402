package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

const completenessQuery = `
SELECT patient_id, name, date_of_birth, insurance_id, primary_provider, contact_phone, contact_email
FROM patient_records
WHERE is_active = TRUE
  AND (name IS NULL
       OR date_of_birth IS NULL
       OR insurance_id IS NULL
       OR primary_provider IS NULL
       OR (contact_phone IS NULL AND contact_email IS NULL))
ORDER BY patient_id`

// requiredPatientFields are reported in this order.
var requiredPatientFields = []string{"name", "date_of_birth", "insurance_id", "primary_provider"}

const contactInfoField = "contact_info"

// Completeness flags active patients with missing required fields.
type Completeness struct{}

func (Completeness) Key() string  { return completenessInfo.Key }
func (Completeness) Name() string { return completenessInfo.Name }

func (Completeness) Execute(ctx context.Context, ds engine.DataSource) (engine.RuleResult, error) {
	rows, err := ds.Query(ctx, completenessQuery)
	if err != nil {
		return engine.RuleResult{}, err
	}
	findings, err := completenessFindings(rows)
	if err != nil {
		return engine.RuleResult{}, err
	}
	return engine.RuleResult{Key: completenessInfo.Key, CheckName: completenessInfo.Name, Findings: findings}, nil
}

func completenessFindings(rows []engine.Row) ([]engine.Finding, error) {
	var findings []engine.Finding
	for _, row := range rows {
		missing := missingPatientFields(row)
		if len(missing) == 0 {
			continue
		}
		id, err := row.String("patient_id")
		if err != nil {
			return nil, err
		}
		findings = append(findings, completenessInfo.finding(
			id,
			fmt.Sprintf("Missing fields: %s", strings.Join(missing, ", ")),
			completenessSeverity(len(missing)),
			map[string]any{
				"patient_id":     id,
				"missing_fields": missing,
			},
		))
	}
	return findings, nil
}

func missingPatientFields(row engine.Row) []string {
	var missing []string
	for _, field := range requiredPatientFields {
		if row.IsNull(field) {
			missing = append(missing, field)
		}
	}
	if row.IsNull("contact_phone") && row.IsNull("contact_email") {
		missing = append(missing, contactInfoField)
	}
	return missing
}

func completenessSeverity(missing int) engine.Severity {
	if missing > 2 {
		return engine.SeverityHigh
	}
	return engine.SeverityMedium
}
