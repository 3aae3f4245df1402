package checks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
)

const credentialsQuery = `
SELECT provider_id, provider_name, license_number, license_state, license_expiry_date
FROM providers
WHERE license_expiry_date < $1::date
  AND is_active = TRUE
ORDER BY license_expiry_date, provider_id`

// CredentialExpiry flags active providers whose license expired before today.
type CredentialExpiry struct {
	Now func() time.Time
}

func (CredentialExpiry) Key() string  { return credentialsInfo.Key }
func (CredentialExpiry) Name() string { return credentialsInfo.Name }

func (r CredentialExpiry) today() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return engine.CivilDate(now())
}

func (r CredentialExpiry) Execute(ctx context.Context, ds engine.DataSource) (engine.RuleResult, error) {
	today := r.today()
	rows, err := ds.Query(ctx, credentialsQuery, today.Format(time.DateOnly))
	if err != nil {
		return engine.RuleResult{}, err
	}
	findings, err := credentialFindings(rows, today)
	if err != nil {
		return engine.RuleResult{}, err
	}
	return engine.RuleResult{Key: credentialsInfo.Key, CheckName: credentialsInfo.Name, Findings: findings}, nil
}

type expiredLicense struct {
	finding engine.Finding
	expiry  time.Time
}

func credentialFindings(rows []engine.Row, today time.Time) ([]engine.Finding, error) {
	today = engine.CivilDate(today)
	var expired []expiredLicense
	for _, row := range rows {
		expiry, err := row.NullableDate("license_expiry_date")
		if err != nil {
			return nil, err
		}
		if expiry == nil || !expiry.Before(today) {
			continue
		}
		days := daysBetween(*expiry, today)

		providerID, err := row.String("provider_id")
		if err != nil {
			return nil, err
		}
		detail := map[string]any{
			"provider_id":         providerID,
			"license_expiry_date": expiry.Format(time.DateOnly),
			"days_expired":        days,
		}
		for _, col := range []string{"provider_name", "license_number", "license_state"} {
			v, err := optionalString(row, col)
			if err != nil {
				return nil, err
			}
			detail[col] = v
		}

		expired = append(expired, expiredLicense{
			expiry: *expiry,
			finding: credentialsInfo.finding(
				providerID,
				fmt.Sprintf("License expired %d days ago", days),
				engine.SeverityCritical,
				detail,
			),
		})
	}

	sort.SliceStable(expired, func(i, j int) bool {
		return expired[i].expiry.Before(expired[j].expiry)
	})

	findings := make([]engine.Finding, 0, len(expired))
	for _, e := range expired {
		findings = append(findings, e.finding)
	}
	return findings, nil
}

// daysBetween counts whole calendar days from earlier to later. Both must be
// civil dates.
func daysBetween(earlier, later time.Time) int {
	return int((later.Unix() - earlier.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
