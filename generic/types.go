/*
Package generic provides the domain-agnostic building blocks of the payroll engine.

PURPOSE:
  Everything that more than one business package needs lives here: decimal
  money and day helpers, the PayPeriod (one calendar month), calendar
  utilities, the error taxonomy and the transaction runner contract.
  Business packages (attendance, leave, tax, deduction, payroll) depend on
  generic; generic depends on nothing inside the module.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money and leave days are decimal.Decimal, never float64
  - RoundCurrency: 2 places, half away from zero (half-up for pay amounts)
  - TruncateCurrency: drop every fractional unit (used by prorated tax)
  - EmployeeID: type-safe identifier shared by every store

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal end to end, floats only at the API edge
  2. Explicit rounding: every rounding point is a named helper call
  3. Type Safety: IDs are distinct string types

SEE ALSO:
  - period.go: PayPeriod
  - errors.go: NotFoundError, ValidationError, InsufficientBalanceError
  - store.go: TxRunner
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	Hundred = decimal.NewFromInt(100)
	Thirty  = decimal.NewFromInt(30)
)

// RoundCurrency rounds to cents, half away from zero.
func RoundCurrency(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// TruncateCurrency drops fractional currency units entirely.
func TruncateCurrency(d decimal.Decimal) decimal.Decimal { return d.Floor() }

// Percent returns base × rate / 100.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(Hundred)
}

func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal { return MaxDecimal(d, decimal.Zero) }

func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
