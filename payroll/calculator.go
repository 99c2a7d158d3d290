/*
calculator.go - The pure payroll arithmetic

PURPOSE:
  Turns gathered inputs (attendance summary, leave days, mission bonus,
  deductions due) and one configuration snapshot into a Result. No I/O,
  no clock, no failure: every input is already validated.

SEQUENCE (each step feeds the next):
   4. seniority years at the first day of the month
   5. base pay prorated per leave cost mode
   6. overtime (if enabled)
   7. allowances
   8. contribution base
   9. social security, rounded to cents
  10. meal and transport allowances (not contribution-eligible)
  11. taxable pay
  12. tax (prorated or flat)
  13. deductions under the deferral policy
  14. stay-at-home spouse bonus
  15. net pay

PRORATION FACTOR (one factor per mode, applied to base pay, to every
percentage allowance and to the spouse bonus):
  full:      min(30, worked + leave) / 30
  prorated:  worked / 30 + leave / 30
  hybrid:    worked / B  + leave / B     (B = BusinessDaysPerMonth)
  Per-day amounts (driver, meal, transport) use days worked.
  The night security bonus is flat.

OVERTIME:
  hourly = base / 30 / 8
  amount = business days worked × 1.33346 h × hourly × 1.5
  Minutes captured on the timesheet are reported, not paid.

SEE ALSO:
  - engine.go: gathers inputs, persists results
  - tax/bracket.go, deduction/policy.go
*/
package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/tax"
)

var (
	// OvertimeHoursPerDay is a ~34.67h monthly cap spread over ~26 business days.
	OvertimeHoursPerDay = decimal.RequireFromString("1.33346")
	OvertimePremium     = decimal.RequireFromString("1.5")
	HoursPerDay         = decimal.NewFromInt(8)
)

// Config is one immutable configuration snapshot.
type Config struct {
	Parameters Parameters
	Taxes      tax.Table
	Warnings   []string
}

// Input is everything gathered for one employee and month.
type Input struct {
	Employee       Employee
	Period         generic.PayPeriod
	Attendance     attendance.Summary
	LeaveDays      decimal.Decimal
	MissionBonus   decimal.Decimal
	ObjectiveBonus decimal.Decimal
	VariableBonus  decimal.Decimal
	Due            deduction.Due
}

// ProrationFactor returns the attendance factor of the leave cost mode.
func ProrationFactor(p Parameters, daysWorked int, leaveDays decimal.Decimal) decimal.Decimal {
	num, den := prorationTerms(p, daysWorked, leaveDays)
	return num.Div(den)
}

// prorationTerms returns the factor as numerator and denominator so amounts
// are multiplied before dividing.
func prorationTerms(p Parameters, daysWorked int, leaveDays decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	days := decimal.NewFromInt(int64(daysWorked)).Add(leaveDays)
	switch p.LeaveCostMode {
	case LeaveProrated:
		return days, generic.Thirty
	case LeaveHybrid:
		if p.BusinessDaysPerMonth <= 0 {
			return days, generic.Thirty
		}
		return days, decimal.NewFromInt(int64(p.BusinessDaysPerMonth))
	default:
		return generic.MinDecimal(generic.Thirty, days), generic.Thirty
	}
}

// Compute runs steps 4 to 15.
func Compute(cfg Config, in Input) *Result {
	p := cfg.Parameters
	emp := in.Employee
	base := emp.BaseSalary
	worked := in.Attendance.DaysWorked
	workedDec := decimal.NewFromInt(int64(worked))

	r := &Result{
		EmployeeID:              emp.ID,
		Period:                  in.Period,
		Status:                  StatusDraft,
		DaysWorked:              worked,
		BusinessDaysWorked:      in.Attendance.BusinessDaysWorked,
		LeaveDays:               in.LeaveDays,
		CapturedOvertimeMinutes: in.Attendance.OvertimeMinutes,
		BaseSalary:              base,
		MissionBonus:            generic.RoundCurrency(in.MissionBonus),
		ObjectiveBonus:          generic.RoundCurrency(in.ObjectiveBonus),
		VariableBonus:           generic.RoundCurrency(in.VariableBonus),
		Warnings:                append([]string(nil), cfg.Warnings...),
	}

	// 4. Seniority
	r.SeniorityYears = emp.SeniorityYears(in.Period.Start())

	// 5. Base pay
	num, den := prorationTerms(p, worked, in.LeaveDays)
	prorate := func(amount decimal.Decimal) decimal.Decimal {
		return generic.RoundCurrency(amount.Mul(num).Div(den))
	}
	r.ProrationFactor = num.Div(den).Round(6)
	r.BasePay = prorate(base)

	// 6. Overtime
	r.OvertimeHours = decimal.Zero
	r.OvertimeAmount = decimal.Zero
	if p.OvertimeEnabled && in.Attendance.BusinessDaysWorked > 0 {
		hourly := base.Div(generic.Thirty).Div(HoursPerDay)
		hours := decimal.NewFromInt(int64(in.Attendance.BusinessDaysWorked)).Mul(OvertimeHoursPerDay)
		r.OvertimeHours = hours.Round(2)
		r.OvertimeAmount = generic.RoundCurrency(hours.Mul(hourly).Mul(OvertimePremium))
	}

	// 7. Allowances
	r.HardshipAllowance = prorate(generic.Percent(base, p.HardshipRate))
	r.PermanenceAllowance = prorate(generic.Percent(base, p.PermanenceRate))
	r.SeniorityAllowance = prorate(generic.Percent(base, p.SeniorityRatePerYear.Mul(decimal.NewFromInt(int64(r.SeniorityYears)))))
	r.EncouragementBonus = decimal.Zero
	if r.SeniorityYears >= p.EncouragementMinYears {
		r.EncouragementBonus = prorate(generic.Percent(base, p.EncouragementRate))
	}
	r.DriverBonus = decimal.Zero
	if emp.IsDriver() {
		r.DriverBonus = generic.RoundCurrency(p.DriverDailyAmount.Mul(workedDec))
	}
	r.NightSecurityBonus = decimal.Zero
	if emp.NightSecurity {
		r.NightSecurityBonus = generic.RoundCurrency(p.NightSecurityAmount)
	}

	// 8. Contribution base
	r.ContributionBase = r.BasePay.Add(r.OvertimeAmount).Add(r.Allowances())

	// 9. Social security
	r.SocialSecurity = generic.RoundCurrency(generic.Percent(r.ContributionBase, p.SocialSecurityRate))

	// 10. Meal and transport
	r.MealAllowance = generic.RoundCurrency(p.MealDailyAmount.Mul(workedDec))
	r.TransportAllowance = generic.RoundCurrency(p.TransportDailyAmount.Mul(workedDec))

	// 11. Taxable pay
	r.TaxablePay = r.ContributionBase.Sub(r.SocialSecurity).Add(r.MealAllowance).Add(r.TransportAllowance)

	// 12. Tax
	if p.ProratedTaxEnabled {
		r.Tax = cfg.Taxes.ResolveProrated(r.TaxablePay, worked, tax.DefaultBaseDays)
	} else {
		r.Tax = cfg.Taxes.Resolve(r.TaxablePay)
	}

	// 13. Deductions
	r.DisposableIncome = r.TaxablePay.Sub(r.Tax)
	r.AdvancesDue = in.Due.AdvancesTotal
	r.LoansDue = in.Due.LoansTotal
	app := deduction.ApplyDeferralPolicy(r.DisposableIncome, r.AdvancesDue, r.LoansDue)
	r.AdvancesApplied = app.AdvancesApplied
	r.AdvancesDeferred = app.AdvancesDeferred
	r.LoansApplied = app.LoansApplied
	r.LoansDeferred = app.LoansDeferred
	r.DeductionAlert = app.Alert

	// 14. Stay-at-home spouse bonus
	r.SpouseBonus = decimal.Zero
	if emp.SpouseAtHome {
		r.SpouseBonus = prorate(p.SpouseAtHomeAmount)
	}

	// 15. Net pay
	r.NetPay = r.TaxablePay.Sub(r.Tax).Sub(r.AdvancesApplied).Sub(r.LoansApplied).Add(r.SpouseBonus)

	return r
}

// application rebuilds the deferral outcome recorded on r.
func (r *Result) application() deduction.Application {
	return deduction.Application{
		AdvancesApplied:  r.AdvancesApplied,
		AdvancesDeferred: r.AdvancesDeferred,
		LoansApplied:     r.LoansApplied,
		LoansDeferred:    r.LoansDeferred,
		Alert:            r.DeductionAlert,
	}
}
