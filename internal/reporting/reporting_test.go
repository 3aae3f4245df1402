package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func sampleReport() *engine.Report {
	completeness := make([]engine.Finding, 0, 12)
	for i := range 12 {
		completeness = append(completeness, engine.Finding{
			CheckType:   "completeness_check",
			TableName:   "patient_records",
			RecordID:    fmt.Sprintf("P%03d", i+1),
			IssueType:   "incomplete_record",
			Description: "Missing fields: <name>",
			Severity:    engine.SeverityMedium,
			Detail:      map[string]any{"patient_id": fmt.Sprintf("P%03d", i+1), "missing_fields": []string{"name"}},
		})
	}
	return engine.NewReport("run-42", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), []engine.RuleResult{
		{Key: "patient_completeness", CheckName: "Patient Completeness", Findings: completeness},
		{
			Key:       "claims_discrepancies",
			CheckName: "Claims Discrepancies",
			Aggregate: &engine.Aggregate{Name: "total_discrepancy", Value: decimal.RequireFromString("12.50")},
			Findings: []engine.Finding{{
				CheckType: "discrepancy_check", TableName: "claims", RecordID: "C1", IssueType: "amount_mismatch",
				Description: "Claim total: $100.00, Line items sum: $87.50, Discrepancy: $12.50",
				Severity:    engine.SeverityHigh,
				Detail:      map[string]any{"claim_id": "C1", "discrepancy_amount": 12.5},
			}},
		},
		{Key: "temporal_anomalies", CheckName: "Temporal Anomalies", Err: errors.New("relation \"claims\" does not exist")},
	})
}

func TestJSONKeepsCheckOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, jsonRenderer{}.Render(&buf, NewDocument(sampleReport())))
	out := buf.String()

	first := strings.Index(out, `"patient_completeness"`)
	second := strings.Index(out, `"claims_discrepancies"`)
	third := strings.Index(out, `"temporal_anomalies"`)
	require.True(t, first >= 0 && second > first && third > second, out)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-42", decoded["run_id"])
	assert.Equal(t, "2025-01-02T03:04:05Z", decoded["timestamp"])

	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, float64(13), summary["total_issues_found"])
	assert.Equal(t, float64(3), summary["checks_performed"])
	assert.Equal(t, float64(1), summary["checks_failed"])
	assert.Equal(t, "FAIL", summary["status"])

	checks := decoded["checks"].(map[string]any)
	temporal := checks["temporal_anomalies"].(map[string]any)
	assert.Contains(t, temporal["error"], "does not exist")
	assert.Empty(t, temporal["details"])
	claims := checks["claims_discrepancies"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "total_discrepancy", "value": 12.5}, claims["aggregate"])
}

func TestYAMLKeepsCheckOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, yamlRenderer{}.Render(&buf, NewDocument(sampleReport())))

	var root yaml.Node
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &root))
	doc := root.Content[0]

	var checks *yaml.Node
	for i := 0; i < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "checks" {
			checks = doc.Content[i+1]
		}
	}
	require.NotNil(t, checks)
	var keys []string
	for i := 0; i < len(checks.Content); i += 2 {
		keys = append(keys, checks.Content[i].Value)
	}
	assert.Equal(t, []string{"patient_completeness", "claims_discrepancies", "temporal_anomalies"}, keys)
}

func TestHTMLLimitsDetailsAndEscapes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, htmlRenderer{}.Render(&buf, NewDocument(sampleReport())))
	out := buf.String()

	assert.Contains(t, out, "<h2>Patient Completeness</h2>")
	assert.Contains(t, out, "P010")
	assert.NotContains(t, out, "P011")
	assert.Contains(t, out, "2 more not shown")
	assert.NotContains(t, out, "<name>")
	assert.Contains(t, out, "&lt;name&gt;")
	assert.Contains(t, out, `class="fail"`)
	assert.Contains(t, out, "Check failed:")
}

func TestXLSXHasSummaryAndCheckSheets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, xlsxRenderer{}.Render(&buf, NewDocument(sampleReport())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "patient_completeness", "claims_discrepancies"}, f.GetSheetList())

	status, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "FAIL", status)

	rows, err := f.GetRows("patient_completeness")
	require.NoError(t, err)
	assert.Len(t, rows, 13)
	assert.Equal(t, "record_id", rows[0][0])
}

func TestWriteCreatesOneFilePerFormat(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outputs")
	paths, err := Write(sampleReport(), dir, []string{"html", "json", "yaml", "xlsx"})
	require.NoError(t, err)

	require.Len(t, paths, 4)
	assert.Equal(t, filepath.Join(dir, "run-42.html"), paths[0])
	assert.Equal(t, filepath.Join(dir, "run-42.yaml"), paths[2])
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = Write(sampleReport(), dir, []string{"pdf"})
	assert.Error(t, err)
}

func TestParseFormats(t *testing.T) {
	t.Parallel()

	formats, err := ParseFormats(" HTML, json,yml,json ,")
	require.NoError(t, err)
	assert.Equal(t, []string{"html", "json", "yaml"}, formats)

	_, err = ParseFormats("html,csv")
	assert.Error(t, err)
}

func TestParseDestination(t *testing.T) {
	t.Parallel()

	d, err := ParseDestination("s3://audit-bucket/reports/daily/")
	require.NoError(t, err)
	assert.Equal(t, Destination{Scheme: "s3", Bucket: "audit-bucket", Prefix: "reports/daily"}, d)
	assert.Equal(t, "reports/daily/run-42.json", d.objectKey("/tmp/out/run-42.json"))

	d, err = ParseDestination("gs://bucket")
	require.NoError(t, err)
	assert.Equal(t, "run-42.html", d.objectKey("run-42.html"))

	_, err = ParseDestination("ftp://bucket/x")
	assert.Error(t, err)
	_, err = ParseDestination("s3:///nobucket")
	assert.Error(t, err)
}

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3UploaderUploadAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := Write(sampleReport(), dir, []string{"json", "html"})
	require.NoError(t, err)

	client := &mockS3Client{}
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "audit" && strings.HasPrefix(*in.Key, "reports/run-42.")
	})).Return(&s3.PutObjectOutput{}, nil)

	u := &S3Uploader{client: client, dest: Destination{Scheme: "s3", Bucket: "audit", Prefix: "reports"}}
	remote, err := UploadAll(context.Background(), u, paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://audit/reports/run-42.json", "s3://audit/reports/run-42.html"}, remote)
	client.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestS3UploaderPropagatesErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := Write(sampleReport(), dir, []string{"json"})
	require.NoError(t, err)

	client := &mockS3Client{}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	u := &S3Uploader{client: client, dest: Destination{Scheme: "s3", Bucket: "audit"}}
	_, err = UploadAll(context.Background(), u, paths)
	assert.ErrorContains(t, err, "access denied")

	remote, err := UploadAll(context.Background(), nil, paths)
	assert.NoError(t, err)
	assert.Nil(t, remote)
}
