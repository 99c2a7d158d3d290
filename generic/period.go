package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PAY PERIOD - One calendar month, the unit of every payroll computation
// =============================================================================

// PayPeriod identifies a payroll month. Timesheets, leave accrual periods,
// advance targets, loan installments and payroll results are all keyed by it.
type PayPeriod struct {
	Year  int
	Month time.Month
}

// NewPayPeriod validates month 1-12.
func NewPayPeriod(year, month int) (PayPeriod, error) {
	if month < 1 || month > 12 {
		return PayPeriod{}, fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidPeriod, month)
	}
	if year < 1 {
		return PayPeriod{}, fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return PayPeriod{Year: year, Month: time.Month(month)}, nil
}

// MustPayPeriod panics on an invalid month. Intended for literals and tests.
func MustPayPeriod(year, month int) PayPeriod {
	p, err := NewPayPeriod(year, month)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) PayPeriod {
	return PayPeriod{Year: t.Year(), Month: t.Month()}
}

// ParsePayPeriod accepts "2025-03".
func ParsePayPeriod(s string) (PayPeriod, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return PayPeriod{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return PeriodOf(t), nil
}

func (p PayPeriod) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p PayPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p PayPeriod) DaysInMonth() int { return p.End().Day() }

// Date returns the given day of the month.
func (p PayPeriod) Date(day int) time.Time {
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

func (p PayPeriod) Next() PayPeriod     { return PeriodOf(p.Start().AddDate(0, 1, 0)) }
func (p PayPeriod) Previous() PayPeriod { return PeriodOf(p.Start().AddDate(0, -1, 0)) }

// Index orders periods: later months have larger indexes.
func (p PayPeriod) Index() int { return p.Year*12 + int(p.Month) - 1 }

func (p PayPeriod) Before(o PayPeriod) bool { return p.Index() < o.Index() }
func (p PayPeriod) After(o PayPeriod) bool  { return p.Index() > o.Index() }
func (p PayPeriod) IsZero() bool            { return p.Year == 0 && p.Month == 0 }

// String returns "2025-03".
func (p PayPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Compact returns "202503", used in derived identifiers.
func (p PayPeriod) Compact() string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

func (p PayPeriod) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PayPeriod) UnmarshalText(b []byte) error {
	parsed, err := ParsePayPeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
