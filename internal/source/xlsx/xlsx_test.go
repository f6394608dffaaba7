package xlsx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/theflourishcollective/flourish-dashboard/internal/source"
)

// buildWorkbook renders sheet matrices into an in-memory .xlsx file.
func buildWorkbook(t *testing.T, sheets map[string][][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatal(err)
			}
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = v
			}
			if err := f.SetSheetRow(name, cell, &cells); err != nil {
				t.Fatal(err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func minimalSheets() map[string][][]string {
	return map[string][][]string{
		"Revenue": {
			{"Period", "Category", "Amount", "Budget"},
			{"2026-01", "Community Contributions", "25000", "375000"},
		},
		"Expenses": {
			{"Period", "Category", "Amount"},
			{"2026-01", "Programs", "15000"},
		},
	}
}

func TestParseRoundTrip(t *testing.T) {
	buf := buildWorkbook(t, minimalSheets())
	ds, warns, err := Parse(buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("warnings: %v", warns)
	}
	if len(ds.Revenue) != 1 || len(ds.Expenses) != 1 {
		t.Fatalf("records: %d revenue, %d expenses", len(ds.Revenue), len(ds.Expenses))
	}
	if ds.Revenue[0].Amount.Cents != 2_500_000 {
		t.Fatalf("amount = %d", ds.Revenue[0].Amount.Cents)
	}
	if ds.Source != "upload" {
		t.Fatalf("source = %q", ds.Source)
	}
}

func TestParseRejectsMissingSheet(t *testing.T) {
	sheets := minimalSheets()
	delete(sheets, "Expenses")
	buf := buildWorkbook(t, sheets)
	_, _, err := Parse(buf)
	if err == nil || !source.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRejectsNonWorkbook(t *testing.T) {
	_, _, err := Parse(strings.NewReader("this is not a zip archive"))
	if err == nil || !source.IsValidationError(err) {
		t.Fatalf("garbage input must be a validation failure, got %v", err)
	}
}
