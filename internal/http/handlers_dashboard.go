package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

// parseRange reads the optional from/to query parameters. Unparseable
// values are ignored so a bad link degrades to the full span.
func (s *Server) parseRange(r *http.Request) (from, to core.Period) {
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		if p, err := core.ParsePeriod(v); err == nil {
			from = p
		} else {
			slog.WarnContext(r.Context(), "Invalid from parameter", "value", v)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		if p, err := core.ParsePeriod(v); err == nil {
			to = p
		} else {
			slog.WarnContext(r.Context(), "Invalid to parameter", "value", v)
		}
	}
	return from, to
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", name)
		_, _ = w.Write([]byte(`<div class="placeholder">Error rendering ` + name + `</div>`))
	}
}

// handleKPIs renders the headline metric cards.
func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	type card struct {
		Label      string
		Value      string
		Detail     string
		TrendValue string
		TrendClass string
	}

	revenue := card{Label: "Total Revenue", Value: core.FormatUSD(rep.TotalRevenue.Cents)}
	if rep.RevenueBudget.Cents > 0 {
		revenue.Detail = core.FormatUSD(rep.RevenueBudget.Cents) + " budgeted"
	}
	expenses := card{Label: "Total Expenses", Value: core.FormatUSD(rep.TotalExpenses.Cents)}
	if rep.ExpenseBudget.Cents > 0 {
		expenses.Detail = core.FormatUSD(rep.ExpenseBudget.Cents) + " budgeted"
	}

	// Trend arrows come from the last month-over-month delta in range.
	if n := len(rep.Periods); n > 0 && rep.Periods[n-1].HasDelta {
		last := rep.Periods[n-1]
		revenue.TrendValue, revenue.TrendClass = describeDelta(last.RevenueDelta.Cents, true)
		expenses.TrendValue, expenses.TrendClass = describeDelta(last.ExpenseDelta.Cents, false)
	}

	net := card{Label: "Net", Value: core.FormatUSD(rep.Net.Cents)}
	if rep.TotalRevenue.Cents > 0 {
		net.Detail = core.FormatPercent(rep.NetMarginPct) + " margin"
	}
	if rep.Net.Cents >= 0 {
		net.TrendClass = "kpi-card__trend--up"
	} else {
		net.TrendClass = "kpi-card__trend--down"
	}

	members := card{Label: "Active Members", Value: "–"}
	if rep.Membership.HasData {
		members.Value = core.FormatCount(float64(rep.Membership.Latest.MemberCount))
		members.TrendValue, members.TrendClass = describeGrowth(rep.Membership.NetGrowth)
	}

	data := struct {
		RangeLabel string
		Cards      []card
	}{
		RangeLabel: rep.From.DisplayLabel() + " – " + rep.To.DisplayLabel(),
		Cards:      []card{revenue, expenses, net, members},
	}
	s.renderPartial(w, r, "kpi_cards", data)
}

// describeDelta renders a signed month-over-month change. For revenue an
// increase is good; for expenses it is the other way around.
func describeDelta(cents int64, upIsGood bool) (value, class string) {
	switch {
	case cents > 0:
		value = "+" + core.FormatUSD(cents) + " MoM"
		if upIsGood {
			class = "kpi-card__trend--up"
		} else {
			class = "kpi-card__trend--down"
		}
	case cents < 0:
		value = "-" + core.FormatUSD(-cents) + " MoM"
		if upIsGood {
			class = "kpi-card__trend--down"
		} else {
			class = "kpi-card__trend--up"
		}
	default:
		value = "flat MoM"
		class = "kpi-card__trend--neutral"
	}
	return value, class
}

func describeGrowth(net int) (value, class string) {
	switch {
	case net > 0:
		return "+" + core.FormatCount(float64(net)) + " in range", "kpi-card__trend--up"
	case net < 0:
		return "-" + core.FormatCount(float64(-net)) + " in range", "kpi-card__trend--down"
	default:
		return "flat", "kpi-card__trend--neutral"
	}
}

type breakdownRow struct {
	Name      string
	Amount    string
	Budget    string
	HasBudget bool
	Width     int
}

type breakdownData struct {
	Title    string
	Total    string
	ChartURL string
	Rows     []breakdownRow
}

// buildBreakdownRows scales each category bar against the largest one,
// the same trick the category chart uses for its axis.
func buildBreakdownRows(cats []core.CategoryBreakdown) []breakdownRow {
	var maxCents int64
	for _, c := range cats {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}
	rows := make([]breakdownRow, 0, len(cats))
	for _, c := range cats {
		// Breakdown rows are the detail tables, so amounts keep cents.
		row := breakdownRow{
			Name:   c.Name,
			Amount: core.FormatUSDExact(c.Amount.Cents),
		}
		if c.Budget.Cents > 0 {
			row.Budget = core.FormatUSD(c.Budget.Cents)
			row.HasBudget = true
		}
		if maxCents > 0 && c.Amount.Cents > 0 {
			row.Width = int((c.Amount.Cents*100 + maxCents/2) / maxCents)
			if row.Width > 0 && row.Width < 2 {
				row.Width = 2
			}
			if row.Width > 100 {
				row.Width = 100
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	data := breakdownData{
		Title:    "Revenue by Category",
		Total:    core.FormatUSD(rep.TotalRevenue.Cents),
		ChartURL: "/charts/categories.png?kind=revenue&" + r.URL.RawQuery,
		Rows:     buildBreakdownRows(rep.RevenueByCategory),
	}
	s.renderPartial(w, r, "category_breakdown", data)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	data := breakdownData{
		Title:    "Expenses by Category",
		Total:    core.FormatUSD(rep.TotalExpenses.Cents),
		ChartURL: "/charts/categories.png?kind=expenses&" + r.URL.RawQuery,
		Rows:     buildBreakdownRows(rep.ExpensesByCategory),
	}
	s.renderPartial(w, r, "category_breakdown", data)
}

// handleGoals renders the 2030 goal progress bars.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	type goalRow struct {
		Metric  string
		Current string
		Target  string
		Percent int
	}

	rows := make([]goalRow, 0, len(rep.Goals))
	for _, g := range rep.Goals {
		row := goalRow{
			Metric:  g.Metric,
			Percent: int(g.Progress * 100),
		}
		if g.Unit == core.UnitUSD {
			row.Current = core.FormatUSD(int64(g.Current * 100))
			row.Target = core.FormatUSD(int64(g.Target * 100))
		} else {
			row.Current = core.FormatCount(g.Current)
			row.Target = core.FormatCount(g.Target)
		}
		rows = append(rows, row)
	}

	data := struct {
		TargetYear int
		Goals      []goalRow
	}{TargetYear: core.TargetYear, Goals: rows}
	s.renderPartial(w, r, "goal_progress", data)
}

// handleMembership renders the community membership panel.
func (s *Server) handleMembership(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	data := struct {
		HasData    bool
		Latest     string
		AsOf       string
		NetGrowth  string
		TotalNew   string
		Churned    string
		Advisories []string
	}{HasData: rep.Membership.HasData}

	if rep.Membership.HasData {
		m := rep.Membership
		data.Latest = core.FormatCount(float64(m.Latest.MemberCount))
		data.AsOf = m.Latest.Period.DisplayLabel()
		data.NetGrowth, _ = describeGrowth(m.NetGrowth)
		data.TotalNew = core.FormatCount(float64(m.TotalNew))
		data.Churned = core.FormatCount(float64(m.TotalChurned))
		data.Advisories = m.Advisories
	}
	s.renderPartial(w, r, "membership_panel", data)
}

// handleTrend renders the trend chart wrapper. Serving the <img> as a
// partial lets every refresh re-point src at the selected range and the
// current dataset generation, so the browser never caches a stale chart.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	chartURL := fmt.Sprintf("/charts/trend.png?v=%d", s.store.Generation())
	if q := r.URL.RawQuery; q != "" {
		chartURL += "&" + q
	}
	data := struct {
		ChartURL string
	}{ChartURL: chartURL}
	s.renderPartial(w, r, "trend_panel", data)
}

// handleTrendJSON serves the per-month totals as JSON for client-side use.
func (s *Server) handleTrendJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	type point struct {
		Period   string  `json:"period"`
		Revenue  float64 `json:"revenue"`
		Expenses float64 `json:"expenses"`
		Net      float64 `json:"net"`
	}

	points := make([]point, 0, len(rep.Periods))
	for _, p := range rep.Periods {
		points = append(points, point{
			Period:   p.Period.Label(),
			Revenue:  p.Revenue.Dollars(),
			Expenses: p.Expenses.Dollars(),
			Net:      p.Net.Dollars(),
		})
	}

	resp := struct {
		From   string  `json:"from"`
		To     string  `json:"to"`
		Points []point `json:"points"`
	}{From: rep.From.Label(), To: rep.To.Label(), Points: points}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "Trend JSON encode error", "error", err)
	}
}
