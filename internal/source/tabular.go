package source

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theflourishcollective/flourish-dashboard/internal/core"
)

// DecodeWorkbook converts per-sheet value matrices (header row first) into
// a Dataset. Revenue and Expenses are the minimum required sheet set;
// Membership and Goals are optional. Missing optional columns default to
// zero values. Structural problems (missing sheet, missing required
// column) come back as a *ValidationError; malformed individual rows are
// skipped and reported as warnings so one bad cell does not reject an
// otherwise usable workbook.
func DecodeWorkbook(sheets map[string][][]string, sourceName string) (core.Dataset, []string, error) {
	ds := core.Dataset{Source: sourceName, LoadedAt: time.Now()}
	var warns []string
	var problems []string

	revRows, ok := lookupSheet(sheets, SheetRevenue)
	if !ok {
		problems = append(problems, fmt.Sprintf("missing required sheet %q", SheetRevenue))
	}
	expRows, ok := lookupSheet(sheets, SheetExpenses)
	if !ok {
		problems = append(problems, fmt.Sprintf("missing required sheet %q", SheetExpenses))
	}
	if len(problems) > 0 {
		return core.Dataset{}, nil, &ValidationError{Problems: problems}
	}

	rev, w, err := decodeMoneyRows(revRows, SheetRevenue)
	warns = append(warns, w...)
	if err != nil {
		return core.Dataset{}, nil, err
	}
	for _, r := range rev {
		ds.Revenue = append(ds.Revenue, core.RevenueRecord(r))
	}

	exp, w, err := decodeMoneyRows(expRows, SheetExpenses)
	warns = append(warns, w...)
	if err != nil {
		return core.Dataset{}, nil, err
	}
	for _, e := range exp {
		ds.Expenses = append(ds.Expenses, core.ExpenseRecord(e))
	}

	if rows, ok := lookupSheet(sheets, SheetMembership); ok {
		members, w, err := decodeMembershipRows(rows)
		warns = append(warns, w...)
		if err != nil {
			return core.Dataset{}, nil, err
		}
		ds.Membership = members
	}
	if rows, ok := lookupSheet(sheets, SheetGoals); ok {
		goals, w, err := decodeGoalRows(rows)
		warns = append(warns, w...)
		if err != nil {
			return core.Dataset{}, nil, err
		}
		ds.Goals = goals
	}
	return ds, warns, nil
}

// moneyRow matches the shared shape of RevenueRecord and ExpenseRecord.
type moneyRow struct {
	Period   core.Period
	Category string
	Amount   core.Money
	Budget   core.Money
}

func decodeMoneyRows(rows [][]string, sheet string) ([]moneyRow, []string, error) {
	if len(rows) == 0 {
		return nil, nil, newValidationError("sheet %q is empty", sheet)
	}
	headers := rows[0]
	colPeriod := indexOf(headers, "Period")
	colCategory := indexOf(headers, "Category")
	colAmount := indexOf(headers, "Amount")
	colBudget := indexOf(headers, "Budget") // optional

	if missing := missingColumns(map[string]int{
		"Period": colPeriod, "Category": colCategory, "Amount": colAmount,
	}); len(missing) > 0 {
		return nil, nil, newValidationError("sheet %q: missing required columns %s (got headers %v)",
			sheet, strings.Join(missing, ", "), headers)
	}

	var out []moneyRow
	var warns []string
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		period, err := core.ParsePeriod(safeGet(row, colPeriod))
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s row %d: %v, row skipped", sheet, i+1, err))
			continue
		}
		amount, err := core.ParseAmountToCents(safeGet(row, colAmount))
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s row %d: amount %q: %v, row skipped", sheet, i+1, safeGet(row, colAmount), err))
			continue
		}
		var budget int64
		if colBudget >= 0 {
			budget, err = core.ParseAmountToCents(safeGet(row, colBudget))
			if err != nil {
				warns = append(warns, fmt.Sprintf("%s row %d: budget %q ignored: %v", sheet, i+1, safeGet(row, colBudget), err))
				budget = 0
			}
		}
		r := moneyRow{
			Period:   period,
			Category: strings.TrimSpace(safeGet(row, colCategory)),
			Amount:   core.Money{Cents: amount},
			Budget:   core.Money{Cents: budget},
		}
		if err := core.RevenueRecord(r).Validate(); err != nil {
			warns = append(warns, fmt.Sprintf("%s row %d: %v, row skipped", sheet, i+1, err))
			continue
		}
		out = append(out, r)
	}
	return out, warns, nil
}

func decodeMembershipRows(rows [][]string) ([]core.MembershipRecord, []string, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	headers := rows[0]
	colPeriod := indexOf(headers, "Period")
	colMembers := indexOf(headers, "Members")
	colNew := indexOf(headers, "New")         // optional
	colChurned := indexOf(headers, "Churned") // optional

	if missing := missingColumns(map[string]int{
		"Period": colPeriod, "Members": colMembers,
	}); len(missing) > 0 {
		return nil, nil, newValidationError("sheet %q: missing required columns %s (got headers %v)",
			SheetMembership, strings.Join(missing, ", "), headers)
	}

	var out []core.MembershipRecord
	var warns []string
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		period, err := core.ParsePeriod(safeGet(row, colPeriod))
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s row %d: %v, row skipped", SheetMembership, i+1, err))
			continue
		}
		m := core.MembershipRecord{
			Period:         period,
			MemberCount:    parseCount(safeGet(row, colMembers)),
			NewMembers:     optionalCount(row, colNew),
			ChurnedMembers: optionalCount(row, colChurned),
		}
		if err := m.Validate(); err != nil {
			warns = append(warns, fmt.Sprintf("%s row %d: %v, row skipped", SheetMembership, i+1, err))
			continue
		}
		out = append(out, m)
	}
	return out, warns, nil
}

func decodeGoalRows(rows [][]string) ([]core.Goal, []string, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	headers := rows[0]
	colMetric := indexOf(headers, "Metric")
	if colMetric < 0 {
		colMetric = indexOf(headers, "Goal") // the original workbook's header
	}
	colTarget := indexOf(headers, "Target")
	colCurrent := indexOf(headers, "Current") // optional
	colUnit := indexOf(headers, "Unit")       // optional

	if colMetric < 0 || colTarget < 0 {
		missing := []string{}
		if colMetric < 0 {
			missing = append(missing, "Metric")
		}
		if colTarget < 0 {
			missing = append(missing, "Target")
		}
		return nil, nil, newValidationError("sheet %q: missing required columns %s (got headers %v)",
			SheetGoals, strings.Join(missing, ", "), headers)
	}

	var out []core.Goal
	var warns []string
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		target, err := parseNumber(safeGet(row, colTarget))
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s row %d: target %q: %v, row skipped", SheetGoals, i+1, safeGet(row, colTarget), err))
			continue
		}
		g := core.Goal{
			Metric: strings.TrimSpace(safeGet(row, colMetric)),
			Target: target,
		}
		if colCurrent >= 0 {
			if cell := strings.TrimSpace(safeGet(row, colCurrent)); cell != "" {
				cur, err := parseNumber(cell)
				if err != nil {
					warns = append(warns, fmt.Sprintf("%s row %d: current %q ignored: %v", SheetGoals, i+1, cell, err))
				} else {
					g.Current = cur
					g.HasCurrent = true
				}
			}
		}
		if colUnit >= 0 {
			g.Unit = core.GoalUnit(strings.ToLower(strings.TrimSpace(safeGet(row, colUnit))))
		}
		if g.Unit == "" {
			g.Unit = inferGoalUnit(g.Target)
		}
		if err := g.Validate(); err != nil {
			warns = append(warns, fmt.Sprintf("%s row %d: %v, row skipped", SheetGoals, i+1, err))
			continue
		}
		out = append(out, g)
	}
	return out, warns, nil
}

// inferGoalUnit mirrors the original renderer: large targets are dollar
// goals, small ones are headcounts.
func inferGoalUnit(target float64) core.GoalUnit {
	if target >= 100_000 {
		return core.UnitUSD
	}
	return core.UnitCount
}

func lookupSheet(sheets map[string][][]string, name string) ([][]string, bool) {
	if rows, ok := sheets[name]; ok {
		return rows, true
	}
	for k, rows := range sheets {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return rows, true
		}
	}
	return nil, false
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func missingColumns(cols map[string]int) []string {
	var missing []string
	for name, idx := range cols {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	// map iteration order is random; keep messages deterministic
	sort.Strings(missing)
	return missing
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func optionalCount(row []string, col int) int {
	if col < 0 {
		return 0
	}
	return parseCount(safeGet(row, col))
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, core.ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, core.ErrInvalidAmount
	}
	if v < 0 {
		return 0, core.ErrNegativeAmount
	}
	return v, nil
}
