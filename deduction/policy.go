package deduction

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// DEFERRAL POLICY
// =============================================================================

type Alert string

const (
	AlertNone                     Alert = ""
	AlertAdvancesDeferred         Alert = "ADVANCES_DEFERRED"
	AlertLoansDeferred            Alert = "LOANS_DEFERRED"
	AlertAdvancesAndLoansDeferred Alert = "ADVANCES_AND_LOANS_DEFERRED"
)

// MaxDeductionShare caps deductions when disposable income is insufficient.
var MaxDeductionShare = decimal.RequireFromString("0.30")

// Application is the outcome of the deferral policy.
type Application struct {
	AdvancesApplied  decimal.Decimal
	AdvancesDeferred decimal.Decimal
	LoansApplied     decimal.Decimal
	LoansDeferred    decimal.Decimal
	Alert            Alert
}

func (a Application) TotalApplied() decimal.Decimal { return a.AdvancesApplied.Add(a.LoansApplied) }

// ApplyDeferralPolicy decides what is withheld. When disposable covers both
// dues they apply in full. Otherwise deductions are capped at 30% of
// disposable (zero when disposable is not positive), advances first.
func ApplyDeferralPolicy(disposable, advances, loans decimal.Decimal) Application {
	if disposable.GreaterThanOrEqual(advances.Add(loans)) {
		return Application{
			AdvancesApplied:  advances,
			AdvancesDeferred: decimal.Zero,
			LoansApplied:     loans,
			LoansDeferred:    decimal.Zero,
		}
	}

	capacity := generic.RoundCurrency(generic.ClampZero(disposable).Mul(MaxDeductionShare))

	advApplied := generic.MinDecimal(advances, capacity)
	loanApplied := generic.MinDecimal(loans, capacity.Sub(advApplied))

	app := Application{
		AdvancesApplied:  advApplied,
		AdvancesDeferred: advances.Sub(advApplied),
		LoansApplied:     loanApplied,
		LoansDeferred:    loans.Sub(loanApplied),
	}
	switch {
	case app.AdvancesDeferred.IsPositive() && app.LoansDeferred.IsPositive():
		app.Alert = AlertAdvancesAndLoansDeferred
	case app.AdvancesDeferred.IsPositive():
		app.Alert = AlertAdvancesDeferred
	case app.LoansDeferred.IsPositive():
		app.Alert = AlertLoansDeferred
	}
	return app
}
