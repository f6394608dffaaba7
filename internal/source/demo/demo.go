// Package demo provides the built-in dataset the dashboard serves when no
// workbook has been uploaded or an upload fails validation. The figures
// are the collective's published FY26 year-to-date numbers.
package demo

import (
	"context"
	"time"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

// SourceName labels demo data in the sidebar banner.
const SourceName = "demo"

type categorySeed struct {
	name   string
	budget int64 // annual budget, cents
	ytd    int64 // year-to-date actual, cents
}

var revenueSeed = []categorySeed{
	{"Community Contributions", 37_500_000, 12_500_000},
	{"Fundraising Events", 10_000_000, 3_500_000},
	{"Learning Events", 1_000_000, 350_000},
	{"Annual Gathering", 2_000_000, 700_000},
	{"Merchandise", 200_000, 80_000},
}

var expenseSeed = []categorySeed{
	{"Development", 18_553_300, 6_200_000},
	{"Programs", 17_327_000, 5_800_000},
	{"Overhead", 7_004_500, 2_300_000},
	{"Grantmaking", 5_000_000, 1_500_000},
}

// Reader implements source.DatasetReader over the fixed demo figures.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

func (r *Reader) ReadDataset(_ context.Context) (core.Dataset, error) {
	return Dataset(), nil
}

// Dataset builds the demo dataset. The year-to-date figures are spread
// over the first five months of 2026 so trend views have a real series;
// per-category month sums add up to the published YTD exactly.
func Dataset() core.Dataset {
	months := []core.Period{
		core.NewPeriod(2026, 1),
		core.NewPeriod(2026, 2),
		core.NewPeriod(2026, 3),
		core.NewPeriod(2026, 4),
		core.NewPeriod(2026, 5),
	}

	ds := core.Dataset{Source: SourceName, LoadedAt: time.Now()}
	for _, seed := range revenueSeed {
		for i, amount := range splitEvenly(seed.ytd, len(months)) {
			ds.Revenue = append(ds.Revenue, core.RevenueRecord{
				Period:   months[i],
				Category: seed.name,
				Amount:   core.Money{Cents: amount},
				Budget:   core.Money{Cents: seed.budget},
			})
		}
	}
	for _, seed := range expenseSeed {
		for i, amount := range splitEvenly(seed.ytd, len(months)) {
			ds.Expenses = append(ds.Expenses, core.ExpenseRecord{
				Period:   months[i],
				Category: seed.name,
				Amount:   core.Money{Cents: amount},
				Budget:   core.Money{Cents: seed.budget},
			})
		}
	}

	// Membership series ends at the published 272 active community
	// members and satisfies the count identity month over month.
	ds.Membership = []core.MembershipRecord{
		{Period: months[0], MemberCount: 240, NewMembers: 12, ChurnedMembers: 3},
		{Period: months[1], MemberCount: 248, NewMembers: 11, ChurnedMembers: 3},
		{Period: months[2], MemberCount: 256, NewMembers: 10, ChurnedMembers: 2},
		{Period: months[3], MemberCount: 264, NewMembers: 12, ChurnedMembers: 4},
		{Period: months[4], MemberCount: 272, NewMembers: 11, ChurnedMembers: 3},
	}

	ds.Goals = []core.Goal{
		{Metric: "Grants Given", Target: 1_000_000, Current: 310_000, HasCurrent: true, Unit: core.UnitUSD},
		{Metric: "Individuals Engaged", Target: 20_000, Current: 1_800, HasCurrent: true, Unit: core.UnitCount},
		{Metric: "Active Allies", Target: 1_000, Current: 224, HasCurrent: true, Unit: core.UnitCount},
		{Metric: "Impact Partners", Target: 50, Current: 21, HasCurrent: true, Unit: core.UnitCount},
	}
	return ds
}

// splitEvenly divides cents across n buckets, putting the remainder on
// the last bucket so the parts always sum back to the whole.
func splitEvenly(cents int64, n int) []int64 {
	out := make([]int64, n)
	per := cents / int64(n)
	for i := range out {
		out[i] = per
	}
	out[n-1] += cents - per*int64(n)
	return out
}
