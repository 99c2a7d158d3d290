/*
Package leave tracks leave accrual per month and charges leave taken against it.

PURPOSE:
  Every month an employee accrues leave days (LeavePeriod.Accrued). Leave
  taken is not booked against the month it happens in: a global total is
  spread over the accrual periods oldest-first, and each period remembers
  which payroll month its taken days are deducted from (DeductionTarget).

KEY CONCEPTS:
  Period:          one accrual month for one employee
  AccrualFormula:  days worked -> days accrued (pluggable)
  Reallocate:      pure oldest-first redistribution of a grand total
  Ledger:          store-backed operations, all-or-nothing

REPLACEMENT SEMANTICS:
  SetTotalLeaveTaken takes the NEW GRAND TOTAL of days taken across all
  periods, not a delta. Calling it with 2 after 5 days were recorded leaves
  2 days taken in total. Callers adding days must pass old total + new days.

  Every period that ends up holding taken days is charged to the NEW target,
  including days previously charged to an older, already validated payroll
  month. Pass a total that only adds days for months not yet validated, or
  those earlier days are deducted a second time from the new target.

INVARIANTS:
  - Taken <= Accrued for every period
  - Remaining (running balance through a period) is never negative
  - A failed reallocation mutates nothing

SEE ALSO:
  - ledger.go: Ledger
  - reallocate.go: Reallocate
  - payroll/engine.go: consumes DaysToDeductForPayroll
*/
package leave

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Period is the leave accrued in one month, and the part of it taken.
// Unique per (EmployeeID, Period).
type Period struct {
	EmployeeID generic.EmployeeID
	Period     generic.PayPeriod
	Accrued    decimal.Decimal
	Taken      decimal.Decimal

	// Remaining is the running balance: accrued through this period minus
	// taken through this period. Display only; recomputed on every write.
	Remaining decimal.Decimal

	// DeductionTarget is the payroll month this period's taken days are
	// charged to. nil means the period's own month.
	DeductionTarget *generic.PayPeriod
}

// Capacity is what can still be taken from this period.
func (p Period) Capacity() decimal.Decimal { return p.Accrued.Sub(p.Taken) }

// ChargedTo returns the payroll month this period's taken days hit.
func (p Period) ChargedTo() generic.PayPeriod {
	if p.DeductionTarget != nil {
		return *p.DeductionTarget
	}
	return p.Period
}

// Store persists leave periods.
type Store interface {
	// ListLeavePeriods returns the employee's periods ordered oldest first.
	ListLeavePeriods(ctx context.Context, employeeID generic.EmployeeID) ([]Period, error)

	// SaveLeavePeriods upserts by (EmployeeID, Period).
	SaveLeavePeriods(ctx context.Context, periods []Period) error
}

// recomputeRemaining refreshes the running balances. periods must be sorted.
func recomputeRemaining(periods []Period) {
	accrued := decimal.Zero
	taken := decimal.Zero
	for i := range periods {
		accrued = accrued.Add(periods[i].Accrued)
		taken = taken.Add(periods[i].Taken)
		periods[i].Remaining = accrued.Sub(taken)
	}
}
