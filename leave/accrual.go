package leave

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// AccrualFormula converts a month's worked days into accrued leave days.
type AccrualFormula interface {
	Accrue(period generic.PayPeriod, daysWorked int) decimal.Decimal
}

// MonthlyAccrual grants DaysPerMonth for a full month of BaseDays worked,
// pro rata below that, never more than DaysPerMonth.
type MonthlyAccrual struct {
	DaysPerMonth decimal.Decimal
	BaseDays     int
}

// DefaultAccrual is 2.5 days per 30 worked days (30 days a year).
var DefaultAccrual = MonthlyAccrual{DaysPerMonth: decimal.RequireFromString("2.5"), BaseDays: 30}

func (m MonthlyAccrual) Accrue(_ generic.PayPeriod, daysWorked int) decimal.Decimal {
	if daysWorked <= 0 || m.BaseDays <= 0 {
		return decimal.Zero
	}
	worked := daysWorked
	if worked > m.BaseDays {
		worked = m.BaseDays
	}
	days := m.DaysPerMonth.Mul(decimal.NewFromInt(int64(worked))).Div(decimal.NewFromInt(int64(m.BaseDays)))
	return generic.RoundCurrency(days)
}
