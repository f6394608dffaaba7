package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

// handleCategoryChart renders the category breakdown as a PNG bar chart.
// The kind query parameter selects revenue (default) or expenses.
func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	cats := rep.RevenueByCategory
	title := "Revenue by Category"
	if r.URL.Query().Get("kind") == "expenses" {
		cats = rep.ExpensesByCategory
		title = "Expenses by Category"
	}

	png, err := renderCategoryChart(title, cats)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category chart render error", "error", err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// handleTrendChart renders the monthly revenue/expense trend as a PNG.
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	from, to := s.parseRange(r)
	rep := s.getReport(r.Context(), from, to)

	png, err := renderTrendChart(rep.Periods)
	if err != nil {
		slog.ErrorContext(r.Context(), "Trend chart render error", "error", err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func renderCategoryChart(title string, cats []core.CategoryBreakdown) ([]byte, error) {
	bars := make([]chart.Value, 0, len(cats))
	for _, c := range cats {
		if c.Amount.Cents <= 0 {
			continue
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s: %s", c.Name, core.FormatUSD(c.Amount.Cents)),
			Value: c.Amount.Dollars(),
		})
	}
	if len(bars) == 0 {
		return nil, nil
	}

	graph := chart.BarChart{
		Title: title,
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    900,
		Height:   450,
		BarWidth: 80,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("$%.0f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderTrendChart(periods []core.PeriodTotal) ([]byte, error) {
	// A time series needs at least two points to draw an axis.
	if len(periods) < 2 {
		return nil, nil
	}

	xValues := make([]time.Time, len(periods))
	revenueValues := make([]float64, len(periods))
	expenseValues := make([]float64, len(periods))
	netValues := make([]float64, len(periods))
	for i, p := range periods {
		xValues[i] = time.Date(p.Period.Year, p.Period.Month, 1, 0, 0, 0, 0, time.UTC)
		revenueValues[i] = p.Revenue.Dollars()
		expenseValues[i] = p.Expenses.Dollars()
		netValues[i] = p.Net.Dollars()
	}

	graph := chart.Chart{
		Width:  1200,
		Height: 500,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2006"),
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("$%.0f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Revenue",
				XValues: xValues,
				YValues: revenueValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Expenses",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Net",
				XValues: xValues,
				YValues: netValues,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 3,
				},
			},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{
			FontSize:  12,
			FontColor: chart.ColorBlack,
		}),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	return buffer.Bytes(), nil
}
