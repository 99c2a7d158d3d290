package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusValidated Status = "validated"
	StatusPaid      Status = "paid"
)

// Configuration degradations reported in Result.Warnings.
const (
	WarnNoTaxBrackets     = "no_tax_brackets"
	WarnDefaultParameters = "default_parameters"
)

// Result snapshots every intermediate amount of one computation.
// Stored once validated, unique per (EmployeeID, Period).
type Result struct {
	EmployeeID generic.EmployeeID
	Period     generic.PayPeriod
	Status     Status

	DaysWorked         int
	BusinessDaysWorked int
	LeaveDays          decimal.Decimal
	SeniorityYears     int
	ProrationFactor    decimal.Decimal

	BaseSalary decimal.Decimal
	BasePay    decimal.Decimal

	OvertimeHours           decimal.Decimal
	OvertimeAmount          decimal.Decimal
	CapturedOvertimeMinutes int

	HardshipAllowance   decimal.Decimal
	PermanenceAllowance decimal.Decimal
	SeniorityAllowance  decimal.Decimal
	EncouragementBonus  decimal.Decimal
	DriverBonus         decimal.Decimal
	NightSecurityBonus  decimal.Decimal
	MissionBonus        decimal.Decimal
	ObjectiveBonus      decimal.Decimal
	VariableBonus       decimal.Decimal

	ContributionBase decimal.Decimal
	SocialSecurity   decimal.Decimal

	MealAllowance      decimal.Decimal
	TransportAllowance decimal.Decimal
	TaxablePay         decimal.Decimal
	Tax                decimal.Decimal
	DisposableIncome   decimal.Decimal

	AdvancesDue      decimal.Decimal
	AdvancesApplied  decimal.Decimal
	AdvancesDeferred decimal.Decimal
	LoansDue         decimal.Decimal
	LoansApplied     decimal.Decimal
	LoansDeferred    decimal.Decimal
	DeductionAlert   deduction.Alert

	SpouseBonus decimal.Decimal
	NetPay      decimal.Decimal

	Warnings    []string
	ComputedAt  time.Time
	ValidatedAt time.Time
	PaidAt      time.Time
}

// Allowances sums the contribution-eligible allowances and bonuses.
func (r *Result) Allowances() decimal.Decimal {
	return generic.SumDecimals(
		r.HardshipAllowance, r.PermanenceAllowance, r.SeniorityAllowance, r.EncouragementBonus,
		r.DriverBonus, r.NightSecurityBonus, r.MissionBonus, r.ObjectiveBonus, r.VariableBonus,
	)
}

type ResultStore interface {
	// GetPayrollResult returns nil, nil when none is stored.
	GetPayrollResult(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (*Result, error)
	// SavePayrollResult upserts by (EmployeeID, Period).
	SavePayrollResult(ctx context.Context, r *Result) error
	ListPayrollResults(ctx context.Context, period generic.PayPeriod) ([]*Result, error)
}

// =============================================================================
// TOTALS
// =============================================================================

// Totals sums every money field of a batch's successes. Allowances is the
// sum of the individual allowance lines.
type Totals struct {
	Employees           int
	BaseSalary          decimal.Decimal
	BasePay             decimal.Decimal
	OvertimeAmount      decimal.Decimal
	HardshipAllowance   decimal.Decimal
	PermanenceAllowance decimal.Decimal
	SeniorityAllowance  decimal.Decimal
	EncouragementBonus  decimal.Decimal
	DriverBonus         decimal.Decimal
	NightSecurityBonus  decimal.Decimal
	MissionBonus        decimal.Decimal
	ObjectiveBonus      decimal.Decimal
	VariableBonus       decimal.Decimal
	Allowances          decimal.Decimal
	ContributionBase    decimal.Decimal
	SocialSecurity      decimal.Decimal
	MealAllowance       decimal.Decimal
	TransportAllowance  decimal.Decimal
	TaxablePay          decimal.Decimal
	Tax                 decimal.Decimal
	DisposableIncome    decimal.Decimal
	AdvancesDue         decimal.Decimal
	AdvancesApplied     decimal.Decimal
	AdvancesDeferred    decimal.Decimal
	LoansDue            decimal.Decimal
	LoansApplied        decimal.Decimal
	LoansDeferred       decimal.Decimal
	SpouseBonus         decimal.Decimal
	NetPay              decimal.Decimal
}

// NewTotals returns empty totals. The zero Decimal already reads as 0.
func NewTotals() Totals { return Totals{} }

func (t *Totals) Add(r *Result) {
	t.Employees++
	sums := []struct {
		total *decimal.Decimal
		value decimal.Decimal
	}{
		{&t.BaseSalary, r.BaseSalary},
		{&t.BasePay, r.BasePay},
		{&t.OvertimeAmount, r.OvertimeAmount},
		{&t.HardshipAllowance, r.HardshipAllowance},
		{&t.PermanenceAllowance, r.PermanenceAllowance},
		{&t.SeniorityAllowance, r.SeniorityAllowance},
		{&t.EncouragementBonus, r.EncouragementBonus},
		{&t.DriverBonus, r.DriverBonus},
		{&t.NightSecurityBonus, r.NightSecurityBonus},
		{&t.MissionBonus, r.MissionBonus},
		{&t.ObjectiveBonus, r.ObjectiveBonus},
		{&t.VariableBonus, r.VariableBonus},
		{&t.Allowances, r.Allowances()},
		{&t.ContributionBase, r.ContributionBase},
		{&t.SocialSecurity, r.SocialSecurity},
		{&t.MealAllowance, r.MealAllowance},
		{&t.TransportAllowance, r.TransportAllowance},
		{&t.TaxablePay, r.TaxablePay},
		{&t.Tax, r.Tax},
		{&t.DisposableIncome, r.DisposableIncome},
		{&t.AdvancesDue, r.AdvancesDue},
		{&t.AdvancesApplied, r.AdvancesApplied},
		{&t.AdvancesDeferred, r.AdvancesDeferred},
		{&t.LoansDue, r.LoansDue},
		{&t.LoansApplied, r.LoansApplied},
		{&t.LoansDeferred, r.LoansDeferred},
		{&t.SpouseBonus, r.SpouseBonus},
		{&t.NetPay, r.NetPay},
	}
	for _, s := range sums {
		*s.total = s.total.Add(s.value)
	}
}
