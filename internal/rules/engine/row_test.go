package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowDecimalAcceptsDriverTypes(t *testing.T) {
	t.Parallel()

	row := Row{
		"text":    "100.02",
		"bytes":   []byte("7.5"),
		"int":     int64(3),
		"float":   float64(1.25),
		"decimal": decimal.RequireFromString("12.34"),
		"null":    nil,
		"bad":     "abc",
	}

	for col, want := range map[string]string{"text": "100.02", "bytes": "7.5", "int": "3", "float": "1.25", "decimal": "12.34"} {
		got, err := row.Decimal(col)
		require.NoError(t, err, col)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s: got %s", col, got)
	}

	_, err := row.Decimal("null")
	var de DataAccessError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, DataAccessDecodeFailed, de.Kind)

	_, err = row.Decimal("bad")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, DataAccessDecodeFailed, de.Kind)
}

func TestRowNullableDate(t *testing.T) {
	t.Parallel()

	row := Row{
		"time":   time.Date(2024, 5, 6, 15, 30, 0, 0, time.FixedZone("x", 3600)),
		"string": "2024-05-07",
		"null":   nil,
	}

	d, err := row.NullableDate("time")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-05-06", d.Format(time.DateOnly))
	assert.Equal(t, time.UTC, d.Location())

	d, err = row.NullableDate("string")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-07", d.Format(time.DateOnly))

	d, err = row.NullableDate("null")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = row.NullableDate("missing")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = row.Date("null")
	assert.Error(t, err)
}

func TestRowStringAndNull(t *testing.T) {
	t.Parallel()

	row := Row{"id": int64(42), "name": "Ada", "empty": nil}

	id, err := row.String("id")
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	name, err := row.NullableString("name")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Ada", *name)

	assert.True(t, row.IsNull("empty"))
	assert.True(t, row.IsNull("missing"))
	assert.False(t, row.IsNull("name"))

	_, err = row.String("empty")
	assert.Error(t, err)
}

func TestRowIntAndBool(t *testing.T) {
	t.Parallel()

	row := Row{"count": int32(4), "active": true, "flag": "false"}

	n, err := row.Int("count")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	b, err := row.Bool("active")
	require.NoError(t, err)
	assert.True(t, b)

	b, err = row.Bool("flag")
	require.NoError(t, err)
	assert.False(t, b)
}

func TestSeverityOrderingAndText(t *testing.T) {
	t.Parallel()

	assert.Less(t, SeverityLow, SeverityMedium)
	assert.Less(t, SeverityMedium, SeverityHigh)
	assert.Less(t, SeverityHigh, SeverityCritical)

	text, err := SeverityCritical.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "CRITICAL", string(text))

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("medium")))
	assert.Equal(t, SeverityMedium, s)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)
	_, err = Severity(0).MarshalText()
	assert.Error(t, err)
}

func TestReportSummaryIsDerived(t *testing.T) {
	t.Parallel()

	empty := NewReport("r", time.Now(), nil)
	assert.Equal(t, Summary{Status: StatusPass}, empty.Summary())

	report := NewReport("r", time.Now(), []RuleResult{
		{Key: "a", Findings: []Finding{{RecordID: "1"}, {RecordID: "2"}}},
		{Key: "b"},
		{Key: "c", Err: DataAccessError{Kind: DataAccessQueryFailed}},
	})
	assert.Equal(t, Summary{TotalIssuesFound: 2, ChecksPerformed: 3, ChecksFailed: 1, Status: StatusFail}, report.Summary())

	results := report.Results()
	results[0].Key = "mutated"
	_, ok := report.Result("a")
	assert.True(t, ok)
}
