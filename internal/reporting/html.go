package reporting

import (
	"html/template"
	"io"
)

// htmlDetailLimit caps the detail rows shown per check.
const htmlDetailLimit = 10

var htmlTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Healthcare Data Quality Report</title>
<style>
body{font-family:Arial,sans-serif;margin:20px}
h1{color:#2c3e50} h2{color:#34495e;margin-top:30px}
.summary{background:#ecf0f1;padding:15px;border-radius:5px}
.pass{color:#27ae60;font-weight:bold} .fail{color:#e74c3c;font-weight:bold}
.error{color:#e74c3c}
table{border-collapse:collapse;width:100%;margin-top:15px}
th{background:#3498db;color:white;padding:10px;text-align:left}
td{border:1px solid #ddd;padding:8px}
tr:nth-child(even){background:#f9f9f9}
.dim{color:#666}
</style>
</head>
<body>
<h1>Healthcare Data Quality Report</h1>
<div class="summary">
<h2>Executive Summary</h2>
<p><strong>Run ID:</strong> {{.RunID}}</p>
<p><strong>Report Generated:</strong> {{.Timestamp}}</p>
<p><strong>Total Checks Performed:</strong> {{.Summary.ChecksPerformed}}</p>
<p><strong>Total Issues Found:</strong> {{.Summary.TotalIssuesFound}}</p>
{{- if .Summary.ChecksFailed}}
<p><strong>Checks Failed To Run:</strong> {{.Summary.ChecksFailed}}</p>
{{- end}}
<p><strong>Overall Status:</strong> <span class="{{if eq .Summary.Status "PASS"}}pass{{else}}fail{{end}}">{{.Summary.Status}}</span></p>
</div>
{{- range .Checks}}
<h2>{{.Name}}</h2>
<p><strong>Issues Found:</strong> {{.IssuesFound}}</p>
{{- if .Aggregate}}
<p><strong>{{.AggregateName}}:</strong> {{.Aggregate}}</p>
{{- end}}
{{- if .Error}}
<p class="error"><strong>Check failed:</strong> {{.Error}}</p>
{{- end}}
{{- if .Rows}}
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- if .Hidden}}
<p class="dim">{{.Hidden}} more not shown</p>
{{- end}}
{{- end}}
{{- end}}
</body>
</html>
`))

type htmlCheck struct {
	Name          string
	IssuesFound   int
	AggregateName string
	Aggregate     string
	Error         string
	Columns       []string
	Rows          [][]string
	Hidden        int
}

type htmlRenderer struct{}

func (htmlRenderer) Extension() string { return "html" }

func (htmlRenderer) Render(w io.Writer, doc *Document) error {
	checks := make([]htmlCheck, 0, len(doc.Checks))
	for _, c := range doc.Checks {
		hc := htmlCheck{Name: c.CheckName, IssuesFound: c.IssuesFound, Error: c.Error}
		if c.Aggregate != nil {
			hc.AggregateName = c.Aggregate.Name
			hc.Aggregate = formatCell(c.Aggregate.Value)
		}
		shown := c.Details
		if len(shown) > htmlDetailLimit {
			hc.Hidden = len(shown) - htmlDetailLimit
			shown = shown[:htmlDetailLimit]
		}
		if len(shown) > 0 {
			hc.Columns = detailColumns(shown)
			for _, row := range shown {
				cells := make([]string, len(hc.Columns))
				for i, col := range hc.Columns {
					cells[i] = formatCell(row[col])
				}
				hc.Rows = append(hc.Rows, cells)
			}
		}
		checks = append(checks, hc)
	}

	return htmlTemplate.Execute(w, struct {
		RunID     string
		Timestamp string
		Summary   SummaryDocument
		Checks    []htmlCheck
	}{
		RunID:     doc.RunID,
		Timestamp: doc.Timestamp,
		Summary:   doc.Summary,
		Checks:    checks,
	})
}
