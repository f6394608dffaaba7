package core

import (
	"fmt"
	"sort"
	"strings"
)

type (
	// CategoryBreakdown is one category's aggregate within a report range.
	CategoryBreakdown struct {
		Name        string
		Amount      Money
		Budget      Money
		PctOfBudget float64 // 0 when the category carries no budget
	}

	// PeriodTotal carries one month's totals plus the delta against the
	// preceding month in the range.
	PeriodTotal struct {
		Period       Period
		Revenue      Money
		Expenses     Money
		Net          Money
		RevenueDelta Money
		ExpenseDelta Money
		HasDelta     bool // false on the first period of the range
	}

	// GoalProgress binds a 2030 goal to its resolved current value.
	GoalProgress struct {
		Metric   string
		Target   float64
		Current  float64
		Unit     GoalUnit
		Progress float64 // always clamped to [0,1]
	}

	MembershipSummary struct {
		HasData      bool
		Latest       MembershipRecord
		NetGrowth    int
		TotalNew     int
		TotalChurned int
		// Advisories lists periods whose member count does not satisfy
		// the count identity against the prior period.
		Advisories []string
	}

	// Report is the aggregate view the presentation layer renders from.
	Report struct {
		From, To Period

		TotalRevenue  Money
		TotalExpenses Money
		Net           Money
		NetMarginPct  float64

		RevenueBudget      Money
		ExpenseBudget      Money
		RevenuePctOfBudget float64
		ExpensePctOfBudget float64

		Periods            []PeriodTotal
		RevenueByCategory  []CategoryBreakdown
		ExpensesByCategory []CategoryBreakdown

		Membership MembershipSummary
		Goals      []GoalProgress
	}
)

// BuildReport computes every aggregate the dashboard renders from, over
// records whose period falls inside [from, to]. It is a pure function of
// its inputs: no side effects, deterministic ordering everywhere.
//
// Zero from/to select the dataset's full span. Goal current values are
// cumulative through `to`, since the 2030 goals measure progress to date
// rather than activity inside the selected window.
func BuildReport(ds Dataset, from, to Period) Report {
	if from.IsZero() || to.IsZero() {
		if f, t, ok := ds.Span(); ok {
			if from.IsZero() {
				from = f
			}
			if to.IsZero() {
				to = t
			}
		}
	}
	if to.Before(from) {
		from, to = to, from
	}

	rep := Report{From: from, To: to}
	inRange := func(p Period) bool {
		return !p.Before(from) && !p.After(to)
	}

	revByPeriod := map[int]int64{}
	expByPeriod := map[int]int64{}
	revByCat := map[string]int64{}
	expByCat := map[string]int64{}
	revBudget := map[string]int64{}
	expBudget := map[string]int64{}

	for _, r := range ds.Revenue {
		// Budgets are annual per category; record them even for rows
		// outside the range so budget bars stay stable across filters.
		if r.Budget.Cents > revBudget[r.Category] {
			revBudget[r.Category] = r.Budget.Cents
		}
		if !inRange(r.Period) {
			continue
		}
		rep.TotalRevenue = rep.TotalRevenue.Add(r.Amount)
		revByPeriod[r.Period.Index()] += r.Amount.Cents
		revByCat[r.Category] += r.Amount.Cents
	}
	for _, e := range ds.Expenses {
		if e.Budget.Cents > expBudget[e.Category] {
			expBudget[e.Category] = e.Budget.Cents
		}
		if !inRange(e.Period) {
			continue
		}
		rep.TotalExpenses = rep.TotalExpenses.Add(e.Amount)
		expByPeriod[e.Period.Index()] += e.Amount.Cents
		expByCat[e.Category] += e.Amount.Cents
	}

	rep.Net = rep.TotalRevenue.Sub(rep.TotalExpenses)
	if rep.TotalRevenue.Cents > 0 {
		rep.NetMarginPct = float64(rep.Net.Cents) / float64(rep.TotalRevenue.Cents) * 100
	}
	for _, b := range revBudget {
		rep.RevenueBudget.Cents += b
	}
	for _, b := range expBudget {
		rep.ExpenseBudget.Cents += b
	}
	if rep.RevenueBudget.Cents > 0 {
		rep.RevenuePctOfBudget = float64(rep.TotalRevenue.Cents) / float64(rep.RevenueBudget.Cents) * 100
	}
	if rep.ExpenseBudget.Cents > 0 {
		rep.ExpensePctOfBudget = float64(rep.TotalExpenses.Cents) / float64(rep.ExpenseBudget.Cents) * 100
	}

	rep.Periods = buildPeriodTotals(from, to, revByPeriod, expByPeriod)
	rep.RevenueByCategory = buildBreakdown(revByCat, revBudget)
	rep.ExpensesByCategory = buildBreakdown(expByCat, expBudget)
	rep.Membership = buildMembershipSummary(ds.Membership, from, to)
	rep.Goals = buildGoalProgress(ds, to)
	return rep
}

func buildPeriodTotals(from, to Period, rev, exp map[int]int64) []PeriodTotal {
	if from.IsZero() || to.IsZero() {
		return nil
	}
	var out []PeriodTotal
	for p := from; !p.After(to); p = p.Next() {
		pt := PeriodTotal{
			Period:   p,
			Revenue:  Money{Cents: rev[p.Index()]},
			Expenses: Money{Cents: exp[p.Index()]},
		}
		pt.Net = pt.Revenue.Sub(pt.Expenses)
		if len(out) > 0 {
			prev := out[len(out)-1]
			pt.RevenueDelta = pt.Revenue.Sub(prev.Revenue)
			pt.ExpenseDelta = pt.Expenses.Sub(prev.Expenses)
			pt.HasDelta = true
		}
		out = append(out, pt)
	}
	return out
}

func buildBreakdown(byCat, budgets map[string]int64) []CategoryBreakdown {
	names := make([]string, 0, len(byCat))
	for name := range byCat {
		names = append(names, name)
	}
	// Categories that only carry a budget still belong in the breakdown.
	for name := range budgets {
		if _, ok := byCat[name]; !ok {
			names = append(names, name)
		}
	}
	out := make([]CategoryBreakdown, 0, len(names))
	for _, name := range names {
		cb := CategoryBreakdown{
			Name:   name,
			Amount: Money{Cents: byCat[name]},
			Budget: Money{Cents: budgets[name]},
		}
		if cb.Budget.Cents > 0 {
			cb.PctOfBudget = float64(cb.Amount.Cents) / float64(cb.Budget.Cents) * 100
		}
		out = append(out, cb)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func buildMembershipSummary(records []MembershipRecord, from, to Period) MembershipSummary {
	inRange := make([]MembershipRecord, 0, len(records))
	for _, m := range records {
		if m.Period.Before(from) || m.Period.After(to) {
			continue
		}
		inRange = append(inRange, m)
	}
	if len(inRange) == 0 {
		return MembershipSummary{}
	}
	sort.Slice(inRange, func(i, j int) bool {
		return inRange[i].Period.Before(inRange[j].Period)
	})

	sum := MembershipSummary{HasData: true, Latest: inRange[len(inRange)-1]}
	for i, m := range inRange {
		sum.TotalNew += m.NewMembers
		sum.TotalChurned += m.ChurnedMembers
		if i == 0 {
			continue
		}
		prev := inRange[i-1]
		// The identity only binds consecutive calendar months.
		if prev.Period.Next() == m.Period && !m.Consistent(prev) {
			sum.Advisories = append(sum.Advisories,
				fmt.Sprintf("%s: member count %d does not match %d + %d new - %d churned",
					m.Period.Label(), m.MemberCount, prev.MemberCount, m.NewMembers, m.ChurnedMembers))
		}
	}
	sum.NetGrowth = sum.Latest.MemberCount - inRange[0].MemberCount
	return sum
}

func buildGoalProgress(ds Dataset, through Period) []GoalProgress {
	out := make([]GoalProgress, 0, len(ds.Goals))
	for _, g := range ds.Goals {
		gp := GoalProgress{Metric: g.Metric, Target: g.Target, Unit: g.Unit}
		gp.Current = resolveGoalCurrent(ds, g, through)
		gp.Progress = ClampProgress(gp.Current, g.Target)
		out = append(out, gp)
	}
	return out
}

// resolveGoalCurrent picks the goal's current value: an explicit value from
// the Goals sheet wins; otherwise a metric matching a revenue or expense
// category sums that category cumulatively through the given period.
func resolveGoalCurrent(ds Dataset, g Goal, through Period) float64 {
	if g.HasCurrent {
		return g.Current
	}
	var cents int64
	matched := false
	for _, r := range ds.Revenue {
		if strings.EqualFold(r.Category, g.Metric) && !r.Period.After(through) {
			cents += r.Amount.Cents
			matched = true
		}
	}
	for _, e := range ds.Expenses {
		if strings.EqualFold(e.Category, g.Metric) && !e.Period.After(through) {
			cents += e.Amount.Cents
			matched = true
		}
	}
	if matched {
		return float64(cents) / 100.0
	}
	return 0
}

// ClampProgress returns current/target limited to [0, 1]. Overshooting a
// goal caps at 1 for display; a non-positive target yields 0.
func ClampProgress(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	p := current / target
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
