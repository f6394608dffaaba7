package demo

import (
	"context"
	"testing"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

func TestDatasetTotalsMatchPublishedFigures(t *testing.T) {
	ds := Dataset()

	byCat := map[string]int64{}
	for _, r := range ds.Revenue {
		byCat[r.Category] += r.Amount.Cents
	}
	for _, seed := range revenueSeed {
		if byCat[seed.name] != seed.ytd {
			t.Fatalf("%s: spread sums to %d, want %d", seed.name, byCat[seed.name], seed.ytd)
		}
	}

	byCat = map[string]int64{}
	for _, e := range ds.Expenses {
		byCat[e.Category] += e.Amount.Cents
	}
	for _, seed := range expenseSeed {
		if byCat[seed.name] != seed.ytd {
			t.Fatalf("%s: spread sums to %d, want %d", seed.name, byCat[seed.name], seed.ytd)
		}
	}
}

func TestDatasetRecordsAreValid(t *testing.T) {
	ds := Dataset()
	for _, r := range ds.Revenue {
		if err := r.Validate(); err != nil {
			t.Fatalf("revenue %+v: %v", r, err)
		}
	}
	for _, e := range ds.Expenses {
		if err := e.Validate(); err != nil {
			t.Fatalf("expense %+v: %v", e, err)
		}
	}
	for _, g := range ds.Goals {
		if err := g.Validate(); err != nil {
			t.Fatalf("goal %+v: %v", g, err)
		}
	}
}

func TestMembershipSeriesIsConsistent(t *testing.T) {
	ds := Dataset()
	for i := 1; i < len(ds.Membership); i++ {
		if !ds.Membership[i].Consistent(ds.Membership[i-1]) {
			t.Fatalf("demo membership breaks the count identity at %s", ds.Membership[i].Period.Label())
		}
	}
	last := ds.Membership[len(ds.Membership)-1]
	if last.MemberCount != 272 {
		t.Fatalf("series must end at 272, got %d", last.MemberCount)
	}
}

func TestReaderReturnsDemoSource(t *testing.T) {
	ds, err := NewReader().ReadDataset(context.Background())
	if err != nil {
		t.Fatalf("demo reader cannot fail: %v", err)
	}
	if ds.Source != SourceName {
		t.Fatalf("source = %q", ds.Source)
	}
	rep := core.BuildReport(ds, core.Period{}, core.Period{})
	if rep.TotalRevenue.Cents != 17_130_000 {
		t.Fatalf("demo total revenue = %d", rep.TotalRevenue.Cents)
	}
	if rep.TotalExpenses.Cents != 15_800_000 {
		t.Fatalf("demo total expenses = %d", rep.TotalExpenses.Cents)
	}
}

func TestSplitEvenly(t *testing.T) {
	parts := splitEvenly(1003, 3)
	if len(parts) != 3 {
		t.Fatalf("parts = %v", parts)
	}
	var sum int64
	for _, p := range parts {
		sum += p
	}
	if sum != 1003 {
		t.Fatalf("parts %v sum to %d", parts, sum)
	}
}
