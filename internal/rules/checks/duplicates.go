package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/shopspring/decimal"
)

// Members are read ordered by patient_id so each group's first id is stable.
const duplicatesQuery = `
SELECT patient_id, name, date_of_birth
FROM patient_records
WHERE name IS NOT NULL
  AND date_of_birth IS NOT NULL
  AND is_active = TRUE
ORDER BY patient_id`

// DuplicateDetection groups active patients by exact name and birth date.
type DuplicateDetection struct{}

func (DuplicateDetection) Key() string  { return duplicatesInfo.Key }
func (DuplicateDetection) Name() string { return duplicatesInfo.Name }

func (DuplicateDetection) Execute(ctx context.Context, ds engine.DataSource) (engine.RuleResult, error) {
	rows, err := ds.Query(ctx, duplicatesQuery)
	if err != nil {
		return engine.RuleResult{}, err
	}
	findings, total, err := duplicateFindings(rows)
	if err != nil {
		return engine.RuleResult{}, err
	}
	return engine.RuleResult{
		Key:       duplicatesInfo.Key,
		CheckName: duplicatesInfo.Name,
		Findings:  findings,
		Aggregate: &engine.Aggregate{Name: "total_duplicates", Value: decimal.NewFromInt(int64(total))},
	}, nil
}

type patientIdentity struct {
	name string
	dob  time.Time
}

type duplicateGroup struct {
	identity   patientIdentity
	patientIDs []string
}

func duplicateFindings(rows []engine.Row) ([]engine.Finding, int, error) {
	index := make(map[patientIdentity]int)
	var groups []*duplicateGroup
	for _, row := range rows {
		id, err := row.String("patient_id")
		if err != nil {
			return nil, 0, err
		}
		name, err := row.String("name")
		if err != nil {
			return nil, 0, err
		}
		dob, err := row.Date("date_of_birth")
		if err != nil {
			return nil, 0, err
		}
		key := patientIdentity{name: name, dob: dob}
		if i, ok := index[key]; ok {
			groups[i].patientIDs = append(groups[i].patientIDs, id)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, &duplicateGroup{identity: key, patientIDs: []string{id}})
	}

	var dupes []*duplicateGroup
	for _, g := range groups {
		if len(g.patientIDs) > 1 {
			dupes = append(dupes, g)
		}
	}
	sort.SliceStable(dupes, func(i, j int) bool {
		return len(dupes[i].patientIDs) > len(dupes[j].patientIDs)
	})

	total := 0
	findings := make([]engine.Finding, 0, len(dupes))
	for _, g := range dupes {
		total += len(g.patientIDs)
		findings = append(findings, duplicatesInfo.finding(
			g.patientIDs[0],
			fmt.Sprintf("Duplicate patients found: %s", strings.Join(g.patientIDs, ", ")),
			engine.SeverityMedium,
			map[string]any{
				"name":            g.identity.name,
				"date_of_birth":   g.identity.dob.Format(time.DateOnly),
				"duplicate_count": len(g.patientIDs),
				"patient_ids":     g.patientIDs,
			},
		))
	}
	return findings, total, nil
}
