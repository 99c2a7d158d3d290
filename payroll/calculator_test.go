package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg ...string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got, msg)
}

// April 2025 has 30 days; its Fridays are the 4th, 11th, 18th and 25th.
var april = generic.MustPayPeriod(2025, 4)

func employee(id generic.EmployeeID, base string) payroll.Employee {
	return payroll.Employee{
		ID:         id,
		FirstName:  "Amina",
		LastName:   string(id),
		JobTitle:   "Warehouse clerk",
		BaseSalary: d(base),
		HireDate:   generic.Date(2020, time.January, 15),
		Active:     true,
	}
}

func input(emp payroll.Employee, worked, business int, leave string) payroll.Input {
	return payroll.Input{
		Employee:       emp,
		Period:         april,
		Attendance:     attendance.Summary{DaysWorked: worked, BusinessDaysWorked: business},
		LeaveDays:      d(leave),
		MissionBonus:   decimal.Zero,
		ObjectiveBonus: decimal.Zero,
		VariableBonus:  decimal.Zero,
		Due:            deduction.Due{AdvancesTotal: decimal.Zero, LoansTotal: decimal.Zero},
	}
}

func defaults() payroll.Config {
	return payroll.Config{Parameters: payroll.DefaultParameters()}
}

// =============================================================================
// COMPUTE
// =============================================================================

func TestCompute_FullMonthNoDeductions(t *testing.T) {
	// GIVEN: 30000 base, 30 days worked, defaults, no tax brackets
	res := payroll.Compute(defaults(), input(employee("E1", "30000"), 30, 26, "0"))

	// THEN
	assertDecimal(t, "30000", res.BasePay)
	assertDecimal(t, "30000", res.ContributionBase)
	assertDecimal(t, "2700", res.SocialSecurity)
	assertDecimal(t, "27300", res.TaxablePay)
	assertDecimal(t, "0", res.Tax)
	assertDecimal(t, "27300", res.NetPay)
	assert.Equal(t, payroll.StatusDraft, res.Status)
	assert.Equal(t, deduction.AlertNone, res.DeductionAlert)
}

func TestCompute_PartialMonthProrated(t *testing.T) {
	cfg := defaults()
	cfg.Parameters.LeaveCostMode = payroll.LeaveProrated

	res := payroll.Compute(cfg, input(employee("E1", "30000"), 15, 13, "0"))

	assertDecimal(t, "15000", res.BasePay)
	assertDecimal(t, "0", res.OvertimeAmount)
	assertDecimal(t, "0", res.OvertimeHours)
	assertDecimal(t, "0.5", res.ProrationFactor)
}

func TestProrationFactor_Modes(t *testing.T) {
	p := payroll.DefaultParameters()

	cases := []struct {
		mode   payroll.LeaveCostMode
		worked int
		leave  string
		want   string
	}{
		{payroll.LeaveFull, 28, "5", "1"}, // clamped to a full month
		{payroll.LeaveFull, 20, "4", "0.8"},
		{payroll.LeaveProrated, 28, "5", "1.1"}, // unclamped
		{payroll.LeaveProrated, 15, "0", "0.5"},
		{payroll.LeaveHybrid, 20, "6", "1"},
	}
	for _, tc := range cases {
		p.LeaveCostMode = tc.mode
		p.BusinessDaysPerMonth = 26
		got := payroll.ProrationFactor(p, tc.worked, d(tc.leave))
		assertDecimal(t, tc.want, got, string(tc.mode))
	}

	// Hybrid without a business-day base falls back to 30
	p.LeaveCostMode = payroll.LeaveHybrid
	p.BusinessDaysPerMonth = 0
	assertDecimal(t, "0.5", payroll.ProrationFactor(p, 15, decimal.Zero))
}

func TestCompute_HybridProratesAllowancesWithBase(t *testing.T) {
	cfg := defaults()
	cfg.Parameters.LeaveCostMode = payroll.LeaveHybrid
	cfg.Parameters.BusinessDaysPerMonth = 26
	cfg.Parameters.HardshipRate = d("10")

	res := payroll.Compute(cfg, input(employee("E1", "26000"), 20, 18, "2"))

	// 22 / 26 of the base and of the 2600 hardship allowance
	assertDecimal(t, "22000", res.BasePay)
	assertDecimal(t, "2200", res.HardshipAllowance)
}

func TestCompute_Overtime(t *testing.T) {
	cfg := defaults()
	cfg.Parameters.OvertimeEnabled = true

	res := payroll.Compute(cfg, input(employee("E1", "30000"), 30, 26, "0"))

	// 26 x 1.33346 h at 125/h with a 50% premium
	assertDecimal(t, "34.67", res.OvertimeHours)
	assertDecimal(t, "6500.62", res.OvertimeAmount)
	assertDecimal(t, "36500.62", res.ContributionBase)
}

func TestCompute_AllowancesAndBonuses(t *testing.T) {
	// GIVEN: a driver on night security with a stay-at-home spouse, 5 years in
	cfg := defaults()
	p := &cfg.Parameters
	p.HardshipRate = d("5")
	p.PermanenceRate = d("2")
	p.SeniorityRatePerYear = d("1")
	p.EncouragementRate = d("3")
	p.EncouragementMinYears = 5
	p.DriverDailyAmount = d("100")
	p.NightSecurityAmount = d("1500")
	p.MealDailyAmount = d("50")
	p.TransportDailyAmount = d("20")
	p.SpouseAtHomeAmount = d("800")

	emp := employee("E1", "20000")
	emp.JobTitle = "Truck Driver"
	emp.NightSecurity = true
	emp.SpouseAtHome = true
	emp.HireDate = generic.Date(2020, time.March, 1)

	in := input(emp, 30, 26, "0")
	in.MissionBonus = d("1200")
	in.ObjectiveBonus = d("500")

	// WHEN
	res := payroll.Compute(cfg, in)

	// THEN
	assert.Equal(t, 5, res.SeniorityYears)
	assertDecimal(t, "1000", res.HardshipAllowance)
	assertDecimal(t, "400", res.PermanenceAllowance)
	assertDecimal(t, "1000", res.SeniorityAllowance)
	assertDecimal(t, "600", res.EncouragementBonus)
	assertDecimal(t, "3000", res.DriverBonus)
	assertDecimal(t, "1500", res.NightSecurityBonus)
	assertDecimal(t, "9200", res.Allowances())

	assertDecimal(t, "29200", res.ContributionBase)
	assertDecimal(t, "2628", res.SocialSecurity)
	assertDecimal(t, "1500", res.MealAllowance)
	assertDecimal(t, "600", res.TransportAllowance)
	assertDecimal(t, "28672", res.TaxablePay)
	assertDecimal(t, "800", res.SpouseBonus)
	assertDecimal(t, "29472", res.NetPay)
}

func TestCompute_ProratedTax(t *testing.T) {
	cfg := defaults()
	cfg.Parameters.LeaveCostMode = payroll.LeaveProrated
	cfg.Parameters.ProratedTaxEnabled = true
	table, err := tax.NewTable([]tax.Bracket{
		{Threshold: d("20000"), Tax: d("1000")},
		{Threshold: d("40000"), Tax: d("3000")},
	})
	require.NoError(t, err)
	cfg.Taxes = table

	res := payroll.Compute(cfg, input(employee("E1", "50000"), 15, 13, "0"))

	// 22750 taxable over 15 days extrapolates to 45500: 3000 x 15/30
	assertDecimal(t, "22750", res.TaxablePay)
	assertDecimal(t, "1500", res.Tax)

	// Flat lookup when disabled
	cfg.Parameters.ProratedTaxEnabled = false
	res = payroll.Compute(cfg, input(employee("E1", "50000"), 15, 13, "0"))
	assertDecimal(t, "1000", res.Tax)
}

func TestCompute_DeferralPolicy(t *testing.T) {
	cfg := defaults()
	cfg.Parameters.SocialSecurityRate = decimal.Zero

	in := input(employee("E1", "1000"), 30, 26, "0")
	in.Due = deduction.Due{AdvancesTotal: d("800"), LoansTotal: d("500")}

	res := payroll.Compute(cfg, in)

	assertDecimal(t, "1000", res.DisposableIncome)
	assertDecimal(t, "300", res.AdvancesApplied)
	assertDecimal(t, "500", res.AdvancesDeferred)
	assertDecimal(t, "0", res.LoansApplied)
	assertDecimal(t, "500", res.LoansDeferred)
	assert.Equal(t, deduction.AlertAdvancesAndLoansDeferred, res.DeductionAlert)
	assertDecimal(t, "700", res.NetPay)
}

func TestEmployee_IsDriver(t *testing.T) {
	for title, want := range map[string]bool{
		"Driver":                true,
		"Chauffeur poids lourd": true,
		"delivery DRIVER":       true,
		"Accountant":            false,
	} {
		assert.Equal(t, want, payroll.Employee{JobTitle: title}.IsDriver(), title)
	}
}

func TestParameters_Validate(t *testing.T) {
	assert.NoError(t, payroll.DefaultParameters().Validate())

	p := payroll.DefaultParameters()
	p.SocialSecurityRate = d("120")
	assert.ErrorIs(t, p.Validate(), generic.ErrValidation)

	p = payroll.DefaultParameters()
	p.LeaveCostMode = "weekly"
	assert.ErrorIs(t, p.Validate(), generic.ErrValidation)

	p = payroll.DefaultParameters()
	p.MealDailyAmount = d("-1")
	assert.ErrorIs(t, p.Validate(), generic.ErrValidation)
}
