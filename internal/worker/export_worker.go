package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/theflourishcollective/flourish-dashboard/internal/amqp"
	"github.com/theflourishcollective/flourish-dashboard/internal/core"
	"github.com/theflourishcollective/flourish-dashboard/internal/storage"
)

// SnapshotLoader loads a persisted dataset snapshot by id.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, id int64) (core.Dataset, error)
	PruneSnapshots(ctx context.Context, keep int) error
}

// SummaryWriter appends a high-level report summary to an external
// destination, the board spreadsheet in production.
type SummaryWriter interface {
	AppendReportSummary(ctx context.Context, rep core.Report) error
}

// ExportWorker turns dataset refresh events into board report rows:
// it loads the referenced snapshot, builds the full-span report, and
// appends a summary line to the export spreadsheet.
type ExportWorker struct {
	snapshots SnapshotLoader
	summaries SummaryWriter
	keep      int
}

func NewExportWorker(snapshots SnapshotLoader, summaries SummaryWriter, keepSnapshots int) *ExportWorker {
	return &ExportWorker{
		snapshots: snapshots,
		summaries: summaries,
		keep:      keepSnapshots,
	}
}

// HandleRefreshMessage processes a single dataset refresh message.
func (w *ExportWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.DatasetRefreshMessage) error {
	slog.InfoContext(ctx, "Processing dataset refresh",
		"snapshot_id", msg.SnapshotID,
		"source", msg.Source)

	ds, err := w.snapshots.LoadSnapshot(ctx, msg.SnapshotID)
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			// Snapshot was pruned before we got to it. Dropping the
			// message is correct: a newer snapshot superseded it.
			slog.WarnContext(ctx, "Snapshot no longer exists, skipping",
				"snapshot_id", msg.SnapshotID)
			return nil
		}
		return fmt.Errorf("load snapshot %d: %w", msg.SnapshotID, err)
	}

	rep := core.BuildReport(ds, core.Period{}, core.Period{})

	if err := w.summaries.AppendReportSummary(ctx, rep); err != nil {
		return fmt.Errorf("append report summary: %w", err)
	}

	if err := w.snapshots.PruneSnapshots(ctx, w.keep); err != nil {
		slog.ErrorContext(ctx, "Failed to prune old snapshots", "error", err)
		// The export succeeded; pruning is housekeeping.
	}

	slog.InfoContext(ctx, "Exported report summary",
		"snapshot_id", msg.SnapshotID,
		"total_revenue_cents", rep.TotalRevenue.Cents,
		"total_expenses_cents", rep.TotalExpenses.Cents)

	return nil
}
