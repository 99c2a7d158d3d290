package leave_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg ...string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got, msg)
}

func month(m int) generic.PayPeriod { return generic.MustPayPeriod(2025, m) }

func accrued(m int, days string) leave.Period {
	return leave.Period{EmployeeID: "E1", Period: month(m), Accrued: d(days), Taken: decimal.Zero}
}

func newLedger(t *testing.T, periods ...leave.Period) (*leave.Ledger, *memory.Store) {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.SaveLeavePeriods(context.Background(), periods))
	return leave.NewLedger(st, st), st
}

// =============================================================================
// REALLOCATE
// =============================================================================

func TestReallocate_OldestFirst(t *testing.T) {
	// GIVEN: periods given out of order
	periods := []leave.Period{accrued(3, "2.5"), accrued(1, "2.5"), accrued(2, "2.5")}

	// WHEN
	r, err := leave.Reallocate("E1", periods, d("4"), month(6))

	// THEN: January is drained first, then February
	require.NoError(t, err)
	require.Len(t, r.Periods, 3)
	assertDecimal(t, "2.5", r.Periods[0].Taken)
	assertDecimal(t, "1.5", r.Periods[1].Taken)
	assertDecimal(t, "0", r.Periods[2].Taken)

	require.Len(t, r.Allocations, 2)
	assert.Equal(t, month(1), r.Allocations[0].Period)
	assert.Equal(t, month(6), r.Periods[0].ChargedTo())
	assert.Equal(t, month(6), r.Periods[1].ChargedTo())
	assert.Nil(t, r.Periods[2].DeductionTarget)

	// Running balance
	assertDecimal(t, "0", r.Periods[0].Remaining)
	assertDecimal(t, "1", r.Periods[1].Remaining)
	assertDecimal(t, "3.5", r.Periods[2].Remaining)

	// Input untouched
	assertDecimal(t, "0", periods[1].Taken)
}

func TestReallocate_ReplacesPreviousTotal(t *testing.T) {
	first, err := leave.Reallocate("E1", []leave.Period{accrued(1, "2.5"), accrued(2, "2.5")}, d("5"), month(3))
	require.NoError(t, err)

	// WHEN: 2 is the new grand total, not an addition
	second, err := leave.Reallocate("E1", first.Periods, d("2"), month(4))

	// THEN
	require.NoError(t, err)
	assertDecimal(t, "2", second.Periods[0].Taken)
	assertDecimal(t, "0", second.Periods[1].Taken)
	assert.Equal(t, month(4), second.Periods[0].ChargedTo())
	assert.Nil(t, second.Periods[1].DeductionTarget)
}

func TestReallocate_InvariantsHold(t *testing.T) {
	periods := []leave.Period{accrued(1, "1.25"), accrued(2, "2.5"), accrued(3, "0"), accrued(4, "2")}

	for _, total := range []string{"0", "0.5", "1.25", "3", "3.75", "5.75"} {
		r, err := leave.Reallocate("E1", periods, d(total), month(5))
		require.NoError(t, err, total)

		sum := decimal.Zero
		for _, p := range r.Periods {
			assert.True(t, p.Taken.LessThanOrEqual(p.Accrued), "taken <= accrued for %s", p.Period)
			assert.False(t, p.Remaining.IsNegative(), "running balance for %s", p.Period)
			sum = sum.Add(p.Taken)
		}
		assertDecimal(t, total, sum, "total "+total)
	}
}

func TestReallocate_RejectsNegativeTotal(t *testing.T) {
	_, err := leave.Reallocate("E1", []leave.Period{accrued(1, "2")}, d("-1"), month(2))
	assert.ErrorIs(t, err, generic.ErrValidation)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestSetTotalLeaveTaken_ShortfallMutatesNothing(t *testing.T) {
	// GIVEN: 1.5 + 2.0 accrued, nothing taken
	ctx := context.Background()
	ledger, st := newLedger(t, accrued(1, "1.5"), accrued(2, "2.0"))

	// WHEN: 5 days are requested
	_, err := ledger.SetTotalLeaveTaken(ctx, "E1", d("5.0"), month(3))

	// THEN: shortfall 1.5 and both periods unchanged
	require.ErrorIs(t, err, generic.ErrInsufficientBalance)
	var ib *generic.InsufficientBalanceError
	require.True(t, errors.As(err, &ib))
	assertDecimal(t, "1.5", ib.Shortfall)
	assertDecimal(t, "3.5", ib.Available)

	stored, err := st.ListLeavePeriods(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, p := range stored {
		assertDecimal(t, "0", p.Taken)
		assert.Nil(t, p.DeductionTarget)
	}
}

func TestSetTotalLeaveTaken_Persists(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, accrued(1, "1.5"), accrued(2, "2.0"))

	_, err := ledger.SetTotalLeaveTaken(ctx, "E1", d("3"), month(3))
	require.NoError(t, err)

	bal, err := ledger.Balance(ctx, "E1")
	require.NoError(t, err)
	assertDecimal(t, "3.5", bal.Accrued)
	assertDecimal(t, "3", bal.Taken)
	assertDecimal(t, "0.5", bal.Remaining)

	days, err := ledger.DaysToDeductForPayroll(ctx, "E1", month(3))
	require.NoError(t, err)
	assertDecimal(t, "3", days)
}

func TestDaysChargedTo_FallsBackToOwnMonth(t *testing.T) {
	march := month(3)
	periods := []leave.Period{
		{Period: month(1), Accrued: d("2.5"), Taken: d("1")},                         // own month
		{Period: month(2), Accrued: d("2.5"), Taken: d("2"), DeductionTarget: &march}, // charged to March
		{Period: month(3), Accrued: d("2.5"), Taken: d("0.5")},                       // own month
	}

	assertDecimal(t, "1", leave.DaysChargedTo(periods, month(1)))
	assertDecimal(t, "0", leave.DaysChargedTo(periods, month(2)))
	assertDecimal(t, "2.5", leave.DaysChargedTo(periods, month(3)))
}

func TestRecordAccrual(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t)

	// Full month
	p, err := ledger.RecordAccrual(ctx, "E1", month(1), 30)
	require.NoError(t, err)
	assertDecimal(t, "2.5", p.Accrued)

	// Half month, pro rata
	p, err = ledger.RecordAccrual(ctx, "E1", month(2), 15)
	require.NoError(t, err)
	assertDecimal(t, "1.25", p.Accrued)
	assertDecimal(t, "3.75", p.Remaining)

	// Take from January, then re-accrue it below what was taken
	_, err = ledger.SetTotalLeaveTaken(ctx, "E1", d("2"), month(3))
	require.NoError(t, err)
	_, err = ledger.RecordAccrual(ctx, "E1", month(1), 6)
	assert.ErrorIs(t, err, generic.ErrValidation)

	bal, err := ledger.Balance(ctx, "E1")
	require.NoError(t, err)
	assertDecimal(t, "3.75", bal.Accrued)
}

func TestMonthlyAccrual_CapsAtFullMonth(t *testing.T) {
	assertDecimal(t, "2.5", leave.DefaultAccrual.Accrue(month(1), 31))
	assertDecimal(t, "0", leave.DefaultAccrual.Accrue(month(1), 0))
	assertDecimal(t, "0.83", leave.DefaultAccrual.Accrue(month(1), 10))
}
