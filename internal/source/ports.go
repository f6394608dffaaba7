// Package source defines the dataset ingestion port and the shared
// tabular decoding used by every adapter (xlsx upload, Google Sheets,
// demo data).
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

// Sheet and column names every source adapter normalizes to.
const (
	SheetRevenue    = "Revenue"
	SheetExpenses   = "Expenses"
	SheetMembership = "Membership"
	SheetGoals      = "Goals"
)

// DatasetReader is the inbound port for anything that can produce a
// dashboard dataset.
type DatasetReader interface {
	ReadDataset(ctx context.Context) (core.Dataset, error)
}

// ValidationError reports workbook structure problems in user-facing
// terms. It marks the class of failures that trigger the demo-data
// fallback instead of crashing the dashboard.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid workbook: " + strings.Join(e.Problems, "; ")
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Problems: []string{fmt.Sprintf(format, args...)}}
}

// IsValidationError reports whether err is (or wraps) a workbook
// validation failure, as opposed to an I/O or infrastructure error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
