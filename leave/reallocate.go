package leave

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// REALLOCATION - Spreads a grand total of taken days oldest-first
// =============================================================================

// Allocation is the part of the total charged to one accrual period.
type Allocation struct {
	Period generic.PayPeriod
	Days   decimal.Decimal
}

// Reallocation describes the outcome of SetTotalLeaveTaken.
type Reallocation struct {
	EmployeeID     generic.EmployeeID
	TotalRequested decimal.Decimal
	Target         generic.PayPeriod
	Allocations    []Allocation

	// Periods is the full resulting state, oldest first.
	Periods []Period
}

// Reallocate resets every period's Taken to zero and redistributes total
// oldest-first, each period filled up to its Accrued. Periods receiving days
// are charged to target; the others lose any previous target. Days already
// charged to an earlier month move to target as well.
//
// The input slice is not modified. When total exceeds the sum accrued, an
// InsufficientBalanceError carrying the shortfall is returned.
func Reallocate(employeeID generic.EmployeeID, periods []Period, total decimal.Decimal, target generic.PayPeriod) (*Reallocation, error) {
	if total.IsNegative() {
		return nil, generic.NewValidation("total_days", "must not be negative")
	}

	next := make([]Period, len(periods))
	copy(next, periods)
	sort.SliceStable(next, func(i, j int) bool { return next[i].Period.Before(next[j].Period) })

	available := decimal.Zero
	for i := range next {
		next[i].Taken = decimal.Zero
		next[i].DeductionTarget = nil
		available = available.Add(next[i].Accrued)
	}

	var allocations []Allocation
	remaining := total

	// Consume from periods oldest first
	for i := range next {
		if !remaining.IsPositive() {
			break
		}
		capacity := next[i].Capacity()
		if !capacity.IsPositive() {
			continue
		}

		// Take min(remaining, capacity)
		toTake := generic.MinDecimal(remaining, capacity)
		next[i].Taken = toTake
		t := target
		next[i].DeductionTarget = &t

		allocations = append(allocations, Allocation{Period: next[i].Period, Days: toTake})
		remaining = remaining.Sub(toTake)
	}

	if remaining.IsPositive() {
		return nil, &generic.InsufficientBalanceError{
			EmployeeID: employeeID,
			Available:  available,
			Requested:  total,
			Shortfall:  remaining,
		}
	}

	recomputeRemaining(next)

	return &Reallocation{
		EmployeeID:     employeeID,
		TotalRequested: total,
		Target:         target,
		Allocations:    allocations,
		Periods:        next,
	}, nil
}
