// Package xlsx ingests Excel workbooks into dashboard datasets.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
	"github.com/theflourishcollective/flourish-dashboard/internal/source"
)

// Parse decodes an .xlsx workbook from r. Structural problems come back
// as a *source.ValidationError so callers can distinguish a bad upload
// from an I/O failure; warnings report skipped rows.
func Parse(r io.Reader) (core.Dataset, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		// Not an xlsx file at all; treat as a validation failure so the
		// dashboard falls back instead of erroring out.
		return core.Dataset{}, nil, &source.ValidationError{
			Problems: []string{fmt.Sprintf("cannot read workbook: %v", err)},
		}
	}
	defer f.Close()

	sheets := make(map[string][][]string)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return core.Dataset{}, nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets[name] = rows
	}
	return source.DecodeWorkbook(sheets, "upload")
}

// Reader loads a workbook from a configured path, for deployments that
// mount the workbook instead of uploading it.
type Reader struct {
	Path string
}

func NewReader(path string) *Reader {
	return &Reader{Path: path}
}

func (r *Reader) ReadDataset(_ context.Context) (core.Dataset, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("open workbook %s: %w", r.Path, err)
	}
	defer f.Close()
	ds, _, err := Parse(f)
	if err != nil {
		return core.Dataset{}, err
	}
	ds.Source = "workbook"
	return ds, nil
}
