package models

import (
	"fmt"
	"time"
)

// Period identifies one calendar month
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod returns the period for the given year and month
func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// PeriodFromIndex is the inverse of Period.Index
func PeriodFromIndex(idx int) Period {
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return Period{Year: year, Month: time.Month(month + 1)}
}

// ParsePeriod parses a period in YYYY-MM format
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (use YYYY-MM)", s)
	}
	return PeriodOf(t), nil
}

// Index returns a monotonically increasing month number, suitable for
// arithmetic between periods
func (p Period) Index() int {
	return p.Year*12 + int(p.Month) - 1
}

// AddMonths returns the period n months after p (n may be negative)
func (p Period) AddMonths(n int) Period {
	return PeriodFromIndex(p.Index() + n)
}

// Next returns the following month
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// Before reports whether p is earlier than other
func (p Period) Before(other Period) bool {
	return p.Index() < other.Index()
}

// Valid reports whether the month is in range
func (p Period) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December
}

// Season returns the fixed calendar season of the month
func (p Period) Season() Season {
	switch p.Month {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// MarshalText encodes the period as YYYY-MM
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a YYYY-MM period
func (p *Period) UnmarshalText(data []byte) error {
	parsed, err := ParsePeriod(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Window is a caller-requested inclusive range of periods
type Window struct {
	Start Period `json:"start"`
	End   Period `json:"end"`
}

// Months returns the number of periods covered by the window
func (w Window) Months() int {
	return w.End.Index() - w.Start.Index() + 1
}

// Contains reports whether p falls inside the window
func (w Window) Contains(p Period) bool {
	idx := p.Index()
	return idx >= w.Start.Index() && idx <= w.End.Index()
}

// UsageRecord represents one month of electricity usage, either observed or
// filled in by interpolation
type UsageRecord struct {
	Period         Period  `json:"period"`
	KWh            float64 `json:"kwh"`
	IsInterpolated bool    `json:"is_interpolated"`
}

// UsageData represents a single stored usage reading
type UsageData struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Period    Period    `json:"period"`
	KWh       float64   `json:"kwh"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Where a stored monthly reading came from
const (
	SourceMonthly = "monthly" // imported as a monthly total
	SourceDaily   = "daily"   // aggregated from daily readings
	SourceManual  = "manual"
)

// Record converts a stored reading into an observed usage record
func (d UsageData) Record() UsageRecord {
	return UsageRecord{Period: d.Period, KWh: d.KWh}
}
