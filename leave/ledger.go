package leave

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// LEDGER - Store-backed leave operations
// =============================================================================

type Ledger struct {
	Store   Store
	Tx      generic.TxRunner
	Accrual AccrualFormula
}

func NewLedger(store Store, tx generic.TxRunner) *Ledger {
	return &Ledger{Store: store, Tx: tx, Accrual: DefaultAccrual}
}

// RecordAccrual sets the leave accrued in period from the days worked.
// Re-recording a period overwrites its accrual, but never below the days
// already taken from it.
func (l *Ledger) RecordAccrual(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, daysWorked int) (Period, error) {
	accrued := l.Accrual.Accrue(period, daysWorked)

	var saved Period
	err := l.Tx.WithTx(ctx, func(ctx context.Context) error {
		periods, err := l.Store.ListLeavePeriods(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("list leave periods: %w", err)
		}

		idx := -1
		for i := range periods {
			if periods[i].Period == period {
				idx = i
				break
			}
		}
		if idx < 0 {
			periods = append(periods, Period{EmployeeID: employeeID, Period: period, Taken: decimal.Zero})
			idx = len(periods) - 1
		}
		if accrued.LessThan(periods[idx].Taken) {
			return generic.NewValidation("accrued",
				"%s days accrued in %s is below the %s days already taken", accrued, period, periods[idx].Taken)
		}
		periods[idx].Accrued = accrued

		sort.SliceStable(periods, func(i, j int) bool { return periods[i].Period.Before(periods[j].Period) })
		recomputeRemaining(periods)
		for _, p := range periods {
			if p.Period == period {
				saved = p
			}
		}
		return l.Store.SaveLeavePeriods(ctx, periods)
	})
	return saved, err
}

// SetTotalLeaveTaken replaces the employee's grand total of leave taken
// and charges it to target. All-or-nothing: on InsufficientBalanceError no
// period changes.
func (l *Ledger) SetTotalLeaveTaken(ctx context.Context, employeeID generic.EmployeeID, total decimal.Decimal, target generic.PayPeriod) (*Reallocation, error) {
	var result *Reallocation
	err := l.Tx.WithTx(ctx, func(ctx context.Context) error {
		periods, err := l.Store.ListLeavePeriods(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("list leave periods: %w", err)
		}
		r, err := Reallocate(employeeID, periods, total, target)
		if err != nil {
			return err
		}
		if err := l.Store.SaveLeavePeriods(ctx, r.Periods); err != nil {
			return fmt.Errorf("save leave periods: %w", err)
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DaysToDeductForPayroll sums the days taken charged to the payroll month.
func (l *Ledger) DaysToDeductForPayroll(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (decimal.Decimal, error) {
	periods, err := l.Store.ListLeavePeriods(ctx, employeeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list leave periods: %w", err)
	}
	return DaysChargedTo(periods, period), nil
}

// DaysChargedTo is the pure form of DaysToDeductForPayroll.
func DaysChargedTo(periods []Period, payroll generic.PayPeriod) decimal.Decimal {
	total := decimal.Zero
	for _, p := range periods {
		if p.ChargedTo() == payroll {
			total = total.Add(p.Taken)
		}
	}
	return total
}

// =============================================================================
// BALANCE
// =============================================================================

type Balance struct {
	EmployeeID generic.EmployeeID
	Accrued    decimal.Decimal
	Taken      decimal.Decimal
	Remaining  decimal.Decimal
	Periods    []Period
}

func (l *Ledger) Balance(ctx context.Context, employeeID generic.EmployeeID) (Balance, error) {
	periods, err := l.Store.ListLeavePeriods(ctx, employeeID)
	if err != nil {
		return Balance{}, fmt.Errorf("list leave periods: %w", err)
	}
	b := Balance{EmployeeID: employeeID, Accrued: decimal.Zero, Taken: decimal.Zero, Periods: periods}
	for _, p := range periods {
		b.Accrued = b.Accrued.Add(p.Accrued)
		b.Taken = b.Taken.Add(p.Taken)
	}
	b.Remaining = b.Accrued.Sub(b.Taken)
	return b, nil
}
