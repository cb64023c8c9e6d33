// Package export writes batch results as an .xlsx workbook
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/estatescout/internal/model"
)

// Sheet names
const (
	SheetCases     = "Cases"
	SheetQualified = "Qualified"
	SheetErrors    = "Errors"
)

var (
	caseHeader = []any{
		"Source", "Case Number", "Status", "Filing Date", "County",
		"Decedent", "Executor", "Beneficiaries", "Documents",
		"Quality", "Confidence", "Needs Review",
	}
	qualifiedHeader = []any{"Source", "Case Number", "Decedent", "Link", "Resolved"}
	errorHeader     = []any{"Source", "Error"}
)

// Entry is one processed source
type Entry struct {
	Source string
	Report *model.Report
	Err    error
}

// WriteWorkbook writes detail records, qualified listing cases and failures
// to separate sheets
func WriteWorkbook(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetCases); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetQualified, SheetErrors} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetCases, caseHeader, caseRows(entries)},
		{SheetQualified, qualifiedHeader, qualifiedRows(entries)},
		{SheetErrors, errorHeader, errorRows(entries)},
	}

	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.rows, bold); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("%s widths: %w", sheet, err)
	}
	if err := f.AutoFilter(sheet, "A1:"+lastCol+"1", nil); err != nil {
		return fmt.Errorf("%s filter: %w", sheet, err)
	}
	return nil
}

func caseRows(entries []Entry) [][]any {
	var rows [][]any
	for _, e := range entries {
		if e.Err != nil || e.Report == nil || e.Report.Record == nil {
			continue
		}
		rec := e.Report.Record
		confidence, review := "", false
		if a := e.Report.Assessment; a != nil {
			confidence, review = a.Confidence, a.NeedsReview
		}
		rows = append(rows, []any{
			e.Source,
			rec.CaseNumber,
			rec.CaseStatus,
			rec.FilingDate,
			rec.County,
			rec.Parties.Decedent.Name,
			rec.Parties.Executor.Name,
			beneficiaryNames(rec.Parties.Beneficiaries),
			len(rec.Documents),
			rec.ExtractionQuality,
			confidence,
			review,
		})
	}
	return rows
}

func qualifiedRows(entries []Entry) [][]any {
	var rows [][]any
	for _, e := range entries {
		if e.Err != nil || e.Report == nil {
			continue
		}
		for _, c := range e.Report.Cases {
			rows = append(rows, []any{e.Source, c.CaseNumber, c.DecedentName, c.Target.Href, c.Target.Resolved})
		}
	}
	return rows
}

func errorRows(entries []Entry) [][]any {
	var rows [][]any
	for _, e := range entries {
		if e.Err != nil {
			rows = append(rows, []any{e.Source, e.Err.Error()})
		}
	}
	return rows
}

func beneficiaryNames(people []model.PersonRecord) string {
	names := make([]string, 0, len(people))
	for _, p := range people {
		names = append(names, p.Name)
	}
	return strings.Join(names, "; ")
}
