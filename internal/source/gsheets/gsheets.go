// Package gsheets reads the collective's workbook from a Google Sheets
// spreadsheet and exports report summaries back to it.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
	"github.com/theflourishcollective/flourish-dashboard/internal/source"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	exportSheet   string
}

var _ source.DatasetReader = (*Client)(nil)

// New creates a Sheets client with service-account credentials.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, exportSheet string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		exportSheet:   exportSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case inline != "":
		credentialsJSON = []byte(inline)
	case file != "":
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// ReadDataset pulls the Revenue, Expenses, Membership and Goals sheets
// and decodes them through the shared tabular decoder. Optional sheets
// that do not exist in the spreadsheet are simply absent from the decode
// input.
func (c *Client) ReadDataset(ctx context.Context) (core.Dataset, error) {
	sheetNames := []string{
		source.SheetRevenue,
		source.SheetExpenses,
		source.SheetMembership,
		source.SheetGoals,
	}
	required := map[string]bool{
		source.SheetRevenue:  true,
		source.SheetExpenses: true,
	}

	sheets := make(map[string][][]string, len(sheetNames))
	for _, name := range sheetNames {
		rows, err := c.readSheet(ctx, name)
		if err != nil {
			if required[name] {
				return core.Dataset{}, fmt.Errorf("read sheet %q: %w", name, err)
			}
			slog.DebugContext(ctx, "Optional sheet unavailable", "sheet", name, "error", err)
			continue
		}
		sheets[name] = rows
	}

	ds, warns, err := source.DecodeWorkbook(sheets, "sheets")
	if err != nil {
		return core.Dataset{}, err
	}
	for _, w := range warns {
		slog.WarnContext(ctx, "Workbook row skipped", "detail", w)
	}
	return ds, nil
}

func (c *Client) readSheet(ctx context.Context, name string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, name).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendReportSummary appends one summary row to the export sheet, for
// board reporting. Columns: timestamp, range, revenue, expenses, net,
// member count.
func (c *Client) AppendReportSummary(ctx context.Context, rep core.Report) error {
	if c.exportSheet == "" {
		return errors.New("no export sheet configured")
	}
	row := []interface{}{
		time.Now().UTC().Format(time.RFC3339),
		rep.From.Label() + ".." + rep.To.Label(),
		rep.TotalRevenue.Dollars(),
		rep.TotalExpenses.Dollars(),
		rep.Net.Dollars(),
		rep.Membership.Latest.MemberCount,
	}
	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.exportSheet+"!A:F", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append report summary: %w", err)
	}
	slog.InfoContext(ctx, "Report summary exported",
		"spreadsheet_id", c.spreadsheetID,
		"sheet", c.exportSheet,
		"range", rep.From.Label()+".."+rep.To.Label())
	return nil
}
