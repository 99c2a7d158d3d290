package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-engine/payroll"
)

func TestTotals_SumsEveryAmount(t *testing.T) {
	// GIVEN: a driver on mission and a colleague with deferred deductions
	driver := &payroll.Result{
		BaseSalary:       d("30000"),
		BasePay:          d("30000"),
		DriverBonus:      d("1200"),
		MissionBonus:     d("2500"),
		DisposableIncome: d("27000"),
		AdvancesDue:      d("1000"),
		AdvancesApplied:  d("1000"),
		NetPay:           d("26000"),
	}
	clerk := &payroll.Result{
		BaseSalary:       d("20000"),
		BasePay:          d("15000"),
		MissionBonus:     d("500"),
		ObjectiveBonus:   d("300"),
		DisposableIncome: d("14000"),
		AdvancesDue:      d("6000"),
		AdvancesApplied:  d("4200"),
		AdvancesDeferred: d("1800"),
		LoansDue:         d("2000"),
		LoansDeferred:    d("2000"),
		NetPay:           d("9800"),
	}

	// WHEN
	totals := payroll.NewTotals()
	totals.Add(driver)
	totals.Add(clerk)

	// THEN
	assert.Equal(t, 2, totals.Employees)
	assertDecimal(t, "50000", totals.BaseSalary)
	assertDecimal(t, "45000", totals.BasePay)
	assertDecimal(t, "1200", totals.DriverBonus)
	assertDecimal(t, "3000", totals.MissionBonus)
	assertDecimal(t, "300", totals.ObjectiveBonus)
	assertDecimal(t, "4500", totals.Allowances)
	assertDecimal(t, "41000", totals.DisposableIncome)
	assertDecimal(t, "7000", totals.AdvancesDue)
	assertDecimal(t, "5200", totals.AdvancesApplied)
	assertDecimal(t, "1800", totals.AdvancesDeferred)
	assertDecimal(t, "2000", totals.LoansDue)
	assertDecimal(t, "0", totals.LoansApplied)
	assertDecimal(t, "2000", totals.LoansDeferred)
	assertDecimal(t, "35800", totals.NetPay)
	assertDecimal(t, "0", totals.HardshipAllowance)
}
