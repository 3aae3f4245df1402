package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

type xlsxRenderer struct{}

func (xlsxRenderer) Extension() string { return "xlsx" }

// Render writes a Summary sheet followed by one sheet per check holding
// every detail row.
func (xlsxRenderer) Render(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}

	summaryRows := [][]any{
		{"Run ID", doc.RunID},
		{"Report Generated", doc.Timestamp},
		{"Overall Status", doc.Summary.Status},
		{"Total Issues Found", doc.Summary.TotalIssuesFound},
		{"Checks Performed", doc.Summary.ChecksPerformed},
		{"Checks Failed", doc.Summary.ChecksFailed},
		{"Audit Write Failures", doc.AuditWriteFailures},
		{},
		{"Check", "Name", "Issues Found", "Error"},
	}
	for _, c := range doc.Checks {
		summaryRows = append(summaryRows, []any{c.Key, c.CheckName, c.IssuesFound, c.Error})
	}
	if err := setRows(f, summarySheet, summaryRows); err != nil {
		return err
	}

	for _, c := range doc.Checks {
		if len(c.Details) == 0 {
			continue
		}
		sheet := sheetName(c.Key)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		cols := detailColumns(c.Details)
		rows := make([][]any, 0, len(c.Details)+1)
		header := make([]any, len(cols))
		for i, col := range cols {
			header[i] = col
		}
		rows = append(rows, header)
		for _, d := range c.Details {
			row := make([]any, len(cols))
			for i, col := range cols {
				row[i] = xlsxValue(d[col])
			}
			rows = append(rows, row)
		}
		if err := setRows(f, sheet, rows); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, values := range rows {
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func xlsxValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return formatCell(t)
	default:
		return t
	}
}

// sheetName trims to the 31 character limit spreadsheet apps enforce.
func sheetName(key string) string {
	if len(key) > 31 {
		return key[:31]
	}
	return key
}
