package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/theflourishcollective/flourish-dashboard/internal/amqp"
	"github.com/theflourishcollective/flourish-dashboard/internal/core"
	"github.com/theflourishcollective/flourish-dashboard/internal/source/demo"
	"github.com/theflourishcollective/flourish-dashboard/internal/storage"
)

type fakeSnapshots struct {
	datasets map[int64]core.Dataset
	pruned   int
	pruneErr error
}

func (f *fakeSnapshots) LoadSnapshot(ctx context.Context, id int64) (core.Dataset, error) {
	ds, ok := f.datasets[id]
	if !ok {
		return core.Dataset{}, storage.ErrNoSnapshot
	}
	return ds, nil
}

func (f *fakeSnapshots) PruneSnapshots(ctx context.Context, keep int) error {
	f.pruned++
	return f.pruneErr
}

type fakeSummaries struct {
	appended []core.Report
	err      error
}

func (f *fakeSummaries) AppendReportSummary(ctx context.Context, rep core.Report) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, rep)
	return nil
}

func TestExportWorker_HandleRefreshMessage(t *testing.T) {
	snapshots := &fakeSnapshots{datasets: map[int64]core.Dataset{7: demo.Dataset()}}
	summaries := &fakeSummaries{}
	w := NewExportWorker(snapshots, summaries, 10)

	msg := amqp.NewDatasetRefreshMessage(7, "demo", "2026-01", "2026-05")
	if err := w.HandleRefreshMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefreshMessage() error = %v", err)
	}

	if len(summaries.appended) != 1 {
		t.Fatalf("appended %d summaries, want 1", len(summaries.appended))
	}
	rep := summaries.appended[0]
	if rep.TotalRevenue.Cents != 17_130_000 {
		t.Errorf("TotalRevenue = %d cents, want 17130000", rep.TotalRevenue.Cents)
	}
	if snapshots.pruned != 1 {
		t.Errorf("PruneSnapshots called %d times, want 1", snapshots.pruned)
	}
}

func TestExportWorker_MissingSnapshotIsSkipped(t *testing.T) {
	snapshots := &fakeSnapshots{datasets: map[int64]core.Dataset{}}
	summaries := &fakeSummaries{}
	w := NewExportWorker(snapshots, summaries, 10)

	msg := amqp.NewDatasetRefreshMessage(99, "upload", "2026-01", "2026-05")
	if err := w.HandleRefreshMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefreshMessage() error = %v, want nil for pruned snapshot", err)
	}
	if len(summaries.appended) != 0 {
		t.Errorf("appended %d summaries, want 0", len(summaries.appended))
	}
}

func TestExportWorker_ExportFailureRequeues(t *testing.T) {
	snapshots := &fakeSnapshots{datasets: map[int64]core.Dataset{1: demo.Dataset()}}
	summaries := &fakeSummaries{err: errors.New("sheets unavailable")}
	w := NewExportWorker(snapshots, summaries, 10)

	msg := amqp.NewDatasetRefreshMessage(1, "demo", "2026-01", "2026-05")
	if err := w.HandleRefreshMessage(context.Background(), msg); err == nil {
		t.Fatal("HandleRefreshMessage() should return error when export fails")
	}
	if snapshots.pruned != 0 {
		t.Errorf("PruneSnapshots called %d times before successful export, want 0", snapshots.pruned)
	}
}

func TestExportWorker_PruneFailureDoesNotFailMessage(t *testing.T) {
	snapshots := &fakeSnapshots{
		datasets: map[int64]core.Dataset{1: demo.Dataset()},
		pruneErr: errors.New("db locked"),
	}
	summaries := &fakeSummaries{}
	w := NewExportWorker(snapshots, summaries, 10)

	msg := amqp.NewDatasetRefreshMessage(1, "demo", "2026-01", "2026-05")
	if err := w.HandleRefreshMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleRefreshMessage() error = %v, prune failures should not requeue", err)
	}
	if len(summaries.appended) != 1 {
		t.Errorf("appended %d summaries, want 1", len(summaries.appended))
	}
}
