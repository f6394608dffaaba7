package core

import "testing"

func testDataset() Dataset {
	return Dataset{
		Revenue: []RevenueRecord{
			{Period: NewPeriod(2026, 1), Category: "Community Contributions", Amount: Money{Cents: 2_500_000}, Budget: Money{Cents: 37_500_000}},
			{Period: NewPeriod(2026, 2), Category: "Community Contributions", Amount: Money{Cents: 3_000_000}, Budget: Money{Cents: 37_500_000}},
			{Period: NewPeriod(2026, 2), Category: "Fundraising Events", Amount: Money{Cents: 1_000_000}, Budget: Money{Cents: 10_000_000}},
			{Period: NewPeriod(2026, 3), Category: "Community Contributions", Amount: Money{Cents: 2_000_000}, Budget: Money{Cents: 37_500_000}},
		},
		Expenses: []ExpenseRecord{
			{Period: NewPeriod(2026, 1), Category: "Programs", Amount: Money{Cents: 1_500_000}, Budget: Money{Cents: 17_327_000}},
			{Period: NewPeriod(2026, 2), Category: "Programs", Amount: Money{Cents: 1_500_000}, Budget: Money{Cents: 17_327_000}},
			{Period: NewPeriod(2026, 2), Category: "Grantmaking", Amount: Money{Cents: 2_000_000}, Budget: Money{Cents: 5_000_000}},
			{Period: NewPeriod(2026, 3), Category: "Grantmaking", Amount: Money{Cents: 1_000_000}, Budget: Money{Cents: 5_000_000}},
		},
		Membership: []MembershipRecord{
			{Period: NewPeriod(2026, 1), MemberCount: 250, NewMembers: 10, ChurnedMembers: 2},
			{Period: NewPeriod(2026, 2), MemberCount: 260, NewMembers: 15, ChurnedMembers: 5},
			{Period: NewPeriod(2026, 3), MemberCount: 272, NewMembers: 14, ChurnedMembers: 2},
		},
		Goals: []Goal{
			{Metric: "Grants Given", Target: 1_000_000, Unit: UnitUSD},
			{Metric: "Active Allies", Target: 1000, Current: 224, HasCurrent: true, Unit: UnitCount},
			{Metric: "Impact Partners", Target: 50, Current: 75, HasCurrent: true, Unit: UnitCount},
		},
		Source: "test",
	}
}

func TestBuildReportTotalsEqualRecordSums(t *testing.T) {
	ds := testDataset()
	rep := BuildReport(ds, Period{}, Period{})

	var wantRev, wantExp int64
	for _, r := range ds.Revenue {
		wantRev += r.Amount.Cents
	}
	for _, e := range ds.Expenses {
		wantExp += e.Amount.Cents
	}
	if rep.TotalRevenue.Cents != wantRev {
		t.Fatalf("total revenue = %d, want %d", rep.TotalRevenue.Cents, wantRev)
	}
	if rep.TotalExpenses.Cents != wantExp {
		t.Fatalf("total expenses = %d, want %d", rep.TotalExpenses.Cents, wantExp)
	}
	if rep.Net.Cents != wantRev-wantExp {
		t.Fatalf("net = %d, want %d", rep.Net.Cents, wantRev-wantExp)
	}
}

func TestBuildReportRangeSelection(t *testing.T) {
	ds := testDataset()
	feb := NewPeriod(2026, 2)
	rep := BuildReport(ds, feb, feb)

	// Only February rows: 3_000_000 + 1_000_000 revenue.
	if rep.TotalRevenue.Cents != 4_000_000 {
		t.Fatalf("february revenue = %d", rep.TotalRevenue.Cents)
	}
	if rep.TotalExpenses.Cents != 3_500_000 {
		t.Fatalf("february expenses = %d", rep.TotalExpenses.Cents)
	}
	if len(rep.Periods) != 1 {
		t.Fatalf("period count = %d", len(rep.Periods))
	}
}

func TestBuildReportSwapsInvertedRange(t *testing.T) {
	ds := testDataset()
	rep := BuildReport(ds, NewPeriod(2026, 3), NewPeriod(2026, 1))
	if rep.From != NewPeriod(2026, 1) || rep.To != NewPeriod(2026, 3) {
		t.Fatalf("range not normalized: %v..%v", rep.From, rep.To)
	}
}

func TestBuildReportPeriodDeltas(t *testing.T) {
	rep := BuildReport(testDataset(), Period{}, Period{})
	if len(rep.Periods) != 3 {
		t.Fatalf("period count = %d", len(rep.Periods))
	}
	if rep.Periods[0].HasDelta {
		t.Fatal("first period must not carry a delta")
	}
	feb := rep.Periods[1]
	if !feb.HasDelta {
		t.Fatal("second period must carry a delta")
	}
	// Jan revenue 2_500_000 -> Feb 4_000_000.
	if feb.RevenueDelta.Cents != 1_500_000 {
		t.Fatalf("feb revenue delta = %d", feb.RevenueDelta.Cents)
	}
	// Jan expenses 1_500_000 -> Feb 3_500_000.
	if feb.ExpenseDelta.Cents != 2_000_000 {
		t.Fatalf("feb expense delta = %d", feb.ExpenseDelta.Cents)
	}
}

func TestBuildReportBreakdownOrdering(t *testing.T) {
	rep := BuildReport(testDataset(), Period{}, Period{})
	if len(rep.RevenueByCategory) != 2 {
		t.Fatalf("revenue categories = %d", len(rep.RevenueByCategory))
	}
	if rep.RevenueByCategory[0].Name != "Community Contributions" {
		t.Fatalf("largest category first, got %q", rep.RevenueByCategory[0].Name)
	}
	cc := rep.RevenueByCategory[0]
	if cc.Budget.Cents != 37_500_000 {
		t.Fatalf("budget carried once per category, got %d", cc.Budget.Cents)
	}
	if cc.PctOfBudget <= 0 {
		t.Fatal("pct of budget must be computed when a budget exists")
	}
}

func TestBuildReportGoalProgress(t *testing.T) {
	rep := BuildReport(testDataset(), Period{}, Period{})
	byMetric := map[string]GoalProgress{}
	for _, g := range rep.Goals {
		byMetric[g.Metric] = g
	}

	// No explicit current and no category named "Grants Given": zero.
	grants := byMetric["Grants Given"]
	if grants.Current != 0 || grants.Progress != 0 {
		t.Fatalf("unresolvable metric should be zero, got %v", grants)
	}

	allies := byMetric["Active Allies"]
	if allies.Current != 224 {
		t.Fatalf("explicit current must win, got %v", allies.Current)
	}
	if allies.Progress != 0.224 {
		t.Fatalf("allies progress = %v", allies.Progress)
	}

	// Overshoot: 75 of 50 clamps to 1.
	partners := byMetric["Impact Partners"]
	if partners.Progress != 1 {
		t.Fatalf("overshoot must clamp to 1, got %v", partners.Progress)
	}
}

func TestBuildReportGoalDerivedFromCategory(t *testing.T) {
	ds := testDataset()
	ds.Goals = []Goal{{Metric: "Grantmaking", Target: 1_000_000, Unit: UnitUSD}}
	rep := BuildReport(ds, Period{}, Period{})
	// Cumulative grantmaking expenses: 2_000_000 + 1_000_000 cents = $30,000.
	if rep.Goals[0].Current != 30_000 {
		t.Fatalf("derived current = %v", rep.Goals[0].Current)
	}
	if rep.Goals[0].Progress != 0.03 {
		t.Fatalf("derived progress = %v", rep.Goals[0].Progress)
	}
}

func TestClampProgress(t *testing.T) {
	cases := []struct {
		current, target, want float64
	}{
		{50, 100, 0.5},
		{150, 100, 1},
		{0, 100, 0},
		{-5, 100, 0},
		{10, 0, 0},
		{10, -1, 0},
	}
	for _, tc := range cases {
		if got := ClampProgress(tc.current, tc.target); got != tc.want {
			t.Fatalf("ClampProgress(%v, %v) = %v, want %v", tc.current, tc.target, got, tc.want)
		}
	}
}

func TestBuildReportMembership(t *testing.T) {
	rep := BuildReport(testDataset(), Period{}, Period{})
	m := rep.Membership
	if !m.HasData {
		t.Fatal("membership summary missing")
	}
	if m.Latest.MemberCount != 272 {
		t.Fatalf("latest count = %d", m.Latest.MemberCount)
	}
	if m.NetGrowth != 22 {
		t.Fatalf("net growth = %d", m.NetGrowth)
	}
	// March: 260 + 14 - 2 = 272, consistent. February: 250 + 15 - 5 = 260,
	// consistent. No advisories expected.
	if len(m.Advisories) != 0 {
		t.Fatalf("unexpected advisories: %v", m.Advisories)
	}
}

func TestBuildReportMembershipAdvisory(t *testing.T) {
	ds := testDataset()
	ds.Membership[2].MemberCount = 300 // breaks the identity for March
	rep := BuildReport(ds, Period{}, Period{})
	if len(rep.Membership.Advisories) != 1 {
		t.Fatalf("advisories = %v", rep.Membership.Advisories)
	}
}

func TestBuildReportEmptyDataset(t *testing.T) {
	rep := BuildReport(Dataset{}, Period{}, Period{})
	if rep.TotalRevenue.Cents != 0 || len(rep.Periods) != 0 || rep.Membership.HasData {
		t.Fatalf("empty dataset must produce an empty report: %+v", rep)
	}
}
