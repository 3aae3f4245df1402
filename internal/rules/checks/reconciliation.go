package checks

import (
	"context"
	"fmt"
	"sort"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/shopspring/decimal"
)

var (
	reconciliationTolerance = decimal.RequireFromString("0.01")
	criticalDiscrepancy     = decimal.NewFromInt(1000)
	hundred                 = decimal.NewFromInt(100)
)

const reconciliationQuery = `
SELECT c.claim_id,
       c.patient_id,
       c.provider_id,
       c.claim_total_amount,
       COALESCE(SUM(cli.line_item_amount), 0) AS calculated_total,
       COUNT(cli.line_item_id) AS line_item_count
FROM claims c
LEFT JOIN claims_line_items cli ON c.claim_id = cli.claim_id
GROUP BY c.claim_id, c.patient_id, c.provider_id, c.claim_total_amount
HAVING ABS(c.claim_total_amount - COALESCE(SUM(cli.line_item_amount), 0)) > $1::numeric
ORDER BY c.claim_id`

// AmountReconciliation flags claims whose stated total disagrees with the
// sum of their line items.
type AmountReconciliation struct{}

func (AmountReconciliation) Key() string  { return reconciliationInfo.Key }
func (AmountReconciliation) Name() string { return reconciliationInfo.Name }

func (AmountReconciliation) Execute(ctx context.Context, ds engine.DataSource) (engine.RuleResult, error) {
	rows, err := ds.Query(ctx, reconciliationQuery, reconciliationTolerance.String())
	if err != nil {
		return engine.RuleResult{}, err
	}
	findings, total, err := reconciliationFindings(rows)
	if err != nil {
		return engine.RuleResult{}, err
	}
	return engine.RuleResult{
		Key:       reconciliationInfo.Key,
		CheckName: reconciliationInfo.Name,
		Findings:  findings,
		Aggregate: &engine.Aggregate{Name: "total_discrepancy", Value: total},
	}, nil
}

type claimDiscrepancy struct {
	finding engine.Finding
	amount  decimal.Decimal
}

func reconciliationFindings(rows []engine.Row) ([]engine.Finding, decimal.Decimal, error) {
	total := decimal.Zero
	var flagged []claimDiscrepancy
	for _, row := range rows {
		stated, err := row.Decimal("claim_total_amount")
		if err != nil {
			return nil, decimal.Zero, err
		}
		calculated := decimal.Zero
		if !row.IsNull("calculated_total") {
			calculated, err = row.Decimal("calculated_total")
			if err != nil {
				return nil, decimal.Zero, err
			}
		}
		amount := stated.Sub(calculated).Abs()
		if !amount.GreaterThan(reconciliationTolerance) {
			continue
		}

		claimID, err := row.String("claim_id")
		if err != nil {
			return nil, decimal.Zero, err
		}
		patientID, err := optionalString(row, "patient_id")
		if err != nil {
			return nil, decimal.Zero, err
		}
		providerID, err := optionalString(row, "provider_id")
		if err != nil {
			return nil, decimal.Zero, err
		}
		var lineItems int64
		if !row.IsNull("line_item_count") {
			lineItems, err = row.Int("line_item_count")
			if err != nil {
				return nil, decimal.Zero, err
			}
		}

		var percentage any
		if !stated.IsZero() {
			percentage = amount.Div(stated).Mul(hundred).Round(2).InexactFloat64()
		}

		severity := engine.SeverityHigh
		if amount.GreaterThan(criticalDiscrepancy) {
			severity = engine.SeverityCritical
		}

		description := fmt.Sprintf("Claim total: $%s, Line items sum: $%s, Discrepancy: $%s",
			stated.StringFixed(2), calculated.StringFixed(2), amount.StringFixed(2))

		flagged = append(flagged, claimDiscrepancy{
			amount: amount,
			finding: reconciliationInfo.finding(claimID, description, severity, map[string]any{
				"claim_id":               claimID,
				"patient_id":             patientID,
				"provider_id":            providerID,
				"claim_total_amount":     stated.InexactFloat64(),
				"calculated_total":       calculated.InexactFloat64(),
				"line_item_count":        lineItems,
				"discrepancy_amount":     amount.InexactFloat64(),
				"discrepancy_percentage": percentage,
			}),
		})
		total = total.Add(amount)
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].amount.GreaterThan(flagged[j].amount)
	})

	findings := make([]engine.Finding, 0, len(flagged))
	for _, d := range flagged {
		findings = append(findings, d.finding)
	}
	return findings, total, nil
}
