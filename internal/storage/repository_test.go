package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

func newTestRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	repo, err := NewSnapshotRepository(filepath.Join(t.TempDir(), "flourish.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleDataset() core.Dataset {
	return core.Dataset{
		Revenue: []core.RevenueRecord{
			{Period: core.NewPeriod(2026, 1), Category: "Community Contributions", Amount: core.Money{Cents: 2_500_000}, Budget: core.Money{Cents: 37_500_000}},
		},
		Expenses: []core.ExpenseRecord{
			{Period: core.NewPeriod(2026, 1), Category: "Programs", Amount: core.Money{Cents: 1_500_000}},
		},
		Membership: []core.MembershipRecord{
			{Period: core.NewPeriod(2026, 1), MemberCount: 250, NewMembers: 10, ChurnedMembers: 2},
		},
		Goals: []core.Goal{
			{Metric: "Grants Given", Target: 1_000_000, Current: 310_000, HasCurrent: true, Unit: core.UnitUSD},
		},
		Source:   "upload",
		LoadedAt: time.Now(),
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.SaveSnapshot(ctx, sampleDataset())
	if err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	got, err := repo.LoadSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if got.Source != "upload" {
		t.Fatalf("source = %q", got.Source)
	}
	if len(got.Revenue) != 1 || got.Revenue[0].Amount.Cents != 2_500_000 {
		t.Fatalf("revenue round trip: %+v", got.Revenue)
	}
	if got.Revenue[0].Period != core.NewPeriod(2026, 1) {
		t.Fatalf("period round trip: %v", got.Revenue[0].Period)
	}
	if len(got.Goals) != 1 || !got.Goals[0].HasCurrent || got.Goals[0].Unit != core.UnitUSD {
		t.Fatalf("goal round trip: %+v", got.Goals)
	}
	if len(got.Membership) != 1 || got.Membership[0].MemberCount != 250 {
		t.Fatalf("membership round trip: %+v", got.Membership)
	}
}

func TestLoadLatestSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, _, err := repo.LoadLatestSnapshot(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("empty repo must return ErrNoSnapshot, got %v", err)
	}

	first := sampleDataset()
	if _, err := repo.SaveSnapshot(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := sampleDataset()
	second.Source = "sheets"
	wantID, err := repo.SaveSnapshot(ctx, second)
	if err != nil {
		t.Fatal(err)
	}

	got, id, err := repo.LoadLatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if id != wantID || got.Source != "sheets" {
		t.Fatalf("latest = id %d source %q, want id %d source sheets", id, got.Source, wantID)
	}
}

func TestPruneSnapshots(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var lastID int64
	for i := 0; i < 5; i++ {
		id, err := repo.SaveSnapshot(ctx, sampleDataset())
		if err != nil {
			t.Fatal(err)
		}
		lastID = id
	}

	if err := repo.PruneSnapshots(ctx, 2); err != nil {
		t.Fatalf("prune: %v", err)
	}

	// The newest snapshot is still loadable after pruning.
	if _, err := repo.LoadSnapshot(ctx, lastID); err != nil {
		t.Fatalf("newest snapshot lost: %v", err)
	}
	// The oldest is gone.
	if _, err := repo.LoadSnapshot(ctx, lastID-4); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected oldest snapshot pruned, got %v", err)
	}
}
