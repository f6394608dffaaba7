package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	UnitUSD   GoalUnit = "usd"
	UnitCount GoalUnit = "count"

	// TargetYear is the horizon all strategic goals are stated against.
	TargetYear = 2030
)

type (
	GoalUnit string

	// Period is a calendar month used to bucket records. Periods are
	// ordered by calendar sequence.
	Period struct {
		Year  int
		Month time.Month
	}

	Money struct {
		Cents int64
	}

	RevenueRecord struct {
		Period   Period
		Category string
		Amount   Money
		Budget   Money // annual budget for the category; zero when the source omits it
	}

	ExpenseRecord struct {
		Period   Period
		Category string
		Amount   Money
		Budget   Money
	}

	MembershipRecord struct {
		Period         Period
		MemberCount    int
		NewMembers     int
		ChurnedMembers int
	}

	Goal struct {
		Metric     string
		Target     float64
		Current    float64 // source-provided current value
		HasCurrent bool    // false means "derive from records"
		Unit       GoalUnit
	}

	// Dataset is the read-only snapshot a dashboard session works from.
	Dataset struct {
		Revenue    []RevenueRecord
		Expenses   []ExpenseRecord
		Membership []MembershipRecord
		Goals      []Goal
		Source     string // demo, upload, sheets
		LoadedAt   time.Time
	}
)

var (
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyCategory  = errors.New("empty category")
	ErrEmptyMetric    = errors.New("empty goal metric")
	ErrInvalidTarget  = errors.New("invalid goal target")
	ErrNegativeAmount = errors.New("negative amount")
)

// NewPeriod builds a Period from a year and a 1-12 month number.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: time.Month(month)}
}

func (p Period) Validate() error {
	if p.Year < 1900 || p.Year > 9999 {
		return ErrInvalidPeriod
	}
	if p.Month < time.January || p.Month > time.December {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Quarter returns the calendar quarter (1-4) the period falls in.
func (p Period) Quarter() int {
	return (int(p.Month)-1)/3 + 1
}

// Index is a sortable ordinal: consecutive months differ by exactly 1.
func (p Period) Index() int {
	return p.Year*12 + int(p.Month) - 1
}

func (p Period) Before(o Period) bool {
	return p.Index() < o.Index()
}

func (p Period) After(o Period) bool {
	return p.Index() > o.Index()
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Label renders the canonical YYYY-MM form used in URLs and templates.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// DisplayLabel renders the short human form, e.g. "Jan 2026".
func (p Period) DisplayLabel() string {
	return fmt.Sprintf("%s %d", p.Month.String()[:3], p.Year)
}

// ParsePeriod accepts the canonical "2026-01" form as well as the
// "Jan 2026" and "January 2026" forms seen in source workbooks.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, ErrInvalidPeriod
	}
	for _, layout := range []string{"2006-01", "Jan 2006", "January 2006", "2006/01", "01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			p := Period{Year: t.Year(), Month: t.Month()}
			if err := p.Validate(); err != nil {
				return Period{}, err
			}
			return p, nil
		}
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

func (r RevenueRecord) Validate() error {
	if err := r.Period.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if len(r.Category) > 120 {
		return errors.New("category too long (max 120 characters)")
	}
	if r.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if r.Budget.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (e ExpenseRecord) Validate() error {
	return RevenueRecord(e).Validate()
}

func (m MembershipRecord) Validate() error {
	if err := m.Period.Validate(); err != nil {
		return err
	}
	if m.MemberCount < 0 || m.NewMembers < 0 || m.ChurnedMembers < 0 {
		return errors.New("membership counts cannot be negative")
	}
	return nil
}

// Consistent reports whether this record satisfies the advisory
// member-count identity against the previous period's record. Source data
// is trusted; inconsistencies are surfaced, never corrected.
func (m MembershipRecord) Consistent(prev MembershipRecord) bool {
	return m.MemberCount == prev.MemberCount+m.NewMembers-m.ChurnedMembers
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Metric) == "" {
		return ErrEmptyMetric
	}
	if g.Target <= 0 {
		return ErrInvalidTarget
	}
	switch g.Unit {
	case UnitUSD, UnitCount, "":
	default:
		return fmt.Errorf("invalid goal unit %q", g.Unit)
	}
	return nil
}

// Span returns the earliest and latest period across all record
// collections, and false when the dataset holds no dated records.
func (ds Dataset) Span() (from, to Period, ok bool) {
	consider := func(p Period) {
		if !ok {
			from, to, ok = p, p, true
			return
		}
		if p.Before(from) {
			from = p
		}
		if p.After(to) {
			to = p
		}
	}
	for _, r := range ds.Revenue {
		consider(r.Period)
	}
	for _, e := range ds.Expenses {
		consider(e.Period)
	}
	for _, m := range ds.Membership {
		consider(m.Period)
	}
	return from, to, ok
}
