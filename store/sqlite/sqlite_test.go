package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var april = generic.MustPayPeriod(2025, 4)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func employee(id generic.EmployeeID) payroll.Employee {
	return payroll.Employee{
		ID:         id,
		FirstName:  "Karim",
		LastName:   "Haddad",
		JobTitle:   "Driver",
		BaseSalary: d("30000"),
		HireDate:   generic.Date(2020, time.January, 15),
		Active:     true,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	// GIVEN: one active employee with a fixed-term contract, one inactive
	emp := employee("E1")
	emp.ContractEnd = generic.Date(2026, time.June, 30)
	emp.NightSecurity = true
	require.NoError(t, st.SaveEmployee(ctx, emp))

	gone := employee("E0")
	gone.Active = false
	require.NoError(t, st.SaveEmployee(ctx, gone))

	// WHEN
	got, err := st.GetEmployee(ctx, "E1")

	// THEN
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Karim Haddad", got.FullName())
	assert.True(t, d("30000").Equal(got.BaseSalary))
	assert.True(t, emp.HireDate.Equal(got.HireDate))
	assert.True(t, emp.ContractEnd.Equal(got.ContractEnd))
	assert.True(t, got.NightSecurity)
	assert.False(t, got.SpouseAtHome)

	missing, err := st.GetEmployee(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	active, err := st.ListEmployees(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, generic.EmployeeID("E1"), active[0].ID)

	all, err := st.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, generic.EmployeeID("E0"), all[0].ID)
}

func TestEmployees_Upsert(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	emp := employee("E1")
	require.NoError(t, st.SaveEmployee(ctx, emp))

	emp.BaseSalary = d("32500.50")
	emp.Active = false
	require.NoError(t, st.SaveEmployee(ctx, emp))

	got, err := st.GetEmployee(ctx, "E1")
	require.NoError(t, err)
	assert.True(t, d("32500.50").Equal(got.BaseSalary))
	assert.False(t, got.Active)
}

// =============================================================================
// TIMESHEETS AND LEAVE
// =============================================================================

func TestTimesheet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	require.NoError(t, st.SaveEmployee(ctx, employee("E1")))

	rec := attendance.NewRecord("E1", april)
	require.NoError(t, rec.Mark(1, attendance.StatusWorked))
	require.NoError(t, rec.Mark(2, attendance.StatusOnLeave))
	require.NoError(t, rec.SetOvertime(1, 90))
	rec.Lock()
	require.NoError(t, st.SaveTimesheet(ctx, rec))

	got, err := st.GetTimesheet(ctx, "E1", april)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Days, got.Days)
	assert.Equal(t, 90, got.OvertimeMinutes[0])
	assert.True(t, got.Locked)

	none, err := st.GetTimesheet(ctx, "E1", april.Next())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLeavePeriods_KeepDeductionTarget(t *testing.T) {
	// GIVEN: two accrued months and 3 days taken, charged to April
	ctx := context.Background()
	st := newStore(t)
	require.NoError(t, st.SaveEmployee(ctx, employee("E1")))
	ledger := leave.NewLedger(st, st)
	_, err := ledger.RecordAccrual(ctx, "E1", generic.MustPayPeriod(2025, 1), 30)
	require.NoError(t, err)
	_, err = ledger.RecordAccrual(ctx, "E1", generic.MustPayPeriod(2025, 2), 30)
	require.NoError(t, err)

	// WHEN
	_, err = ledger.SetTotalLeaveTaken(ctx, "E1", d("3"), april)
	require.NoError(t, err)

	// THEN
	periods, err := st.ListLeavePeriods(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.True(t, d("2.5").Equal(periods[0].Taken))
	require.NotNil(t, periods[0].DeductionTarget)
	assert.Equal(t, april, *periods[0].DeductionTarget)
	assert.True(t, d("2").Equal(periods[1].Remaining))

	days, err := ledger.DaysToDeductForPayroll(ctx, "E1", april)
	require.NoError(t, err)
	assert.True(t, d("3").Equal(days))
}

// =============================================================================
// TAX BRACKETS
// =============================================================================

func TestBrackets_ReplaceKeepsOnlyLatestSet(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	resolver := tax.NewResolver(st, st)

	_, err := resolver.Reload(ctx, []tax.Bracket{
		{Threshold: d("10000"), Tax: d("100")},
		{Threshold: d("20000"), Tax: d("900")},
	})
	require.NoError(t, err)

	n, err := resolver.Reload(ctx, []tax.Bracket{{Threshold: d("15000"), Tax: d("500")}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := st.ActiveBrackets(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, d("15000").Equal(active[0].Threshold))

	amount, err := resolver.Resolve(ctx, d("18000"))
	require.NoError(t, err)
	assert.True(t, d("500").Equal(amount))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, st.SaveEmployee(ctx, employee("E1")))
		// Nested calls join the outer transaction
		return st.WithTx(ctx, func(ctx context.Context) error {
			if err := st.SaveEmployee(ctx, employee("E2")); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	all, err := st.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWithTx_ReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	err := st.WithTx(ctx, func(ctx context.Context) error {
		if err := st.SaveEmployee(ctx, employee("E1")); err != nil {
			return err
		}
		got, err := st.GetEmployee(ctx, "E1")
		require.NoError(t, err)
		assert.NotNil(t, got)
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// DEDUCTIONS
// =============================================================================

func TestDeductions_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	require.NoError(t, st.SaveEmployee(ctx, employee("E1")))
	r := deduction.NewResolver(st)

	_, err := r.GrantAdvance(ctx, deduction.Advance{ID: "A1", EmployeeID: "E1", Amount: d("400"), Target: april, Reason: "rent"})
	require.NoError(t, err)
	loan, err := r.GrantLoan(ctx, "E1", d("3000"), 3, "van repair")
	require.NoError(t, err)
	_, err = r.DeferInstallment(ctx, loan.ID, april, april.Next(), "family event")
	require.NoError(t, err)

	due, err := r.Resolve(ctx, "E1", april)
	require.NoError(t, err)
	assert.True(t, d("400").Equal(due.AdvancesTotal))
	assert.True(t, due.LoansTotal.IsZero())

	advances, err := st.AdvancesForPeriod(ctx, "E1", april)
	require.NoError(t, err)
	require.Len(t, advances, 1)
	assert.Equal(t, "rent", advances[0].Reason)
	assert.False(t, advances[0].Deducted)

	loans, err := st.ListLoans(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.True(t, d("1000").Equal(loans[0].InstallmentAmount))
	assert.Equal(t, deduction.LoanInProgress, loans[0].Status)

	require.NoError(t, st.DeleteAdvance(ctx, "A1"))
	gone, err := st.GetAdvance(ctx, "A1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

// =============================================================================
// ENGINE
// =============================================================================

func TestEngine_ValidateOnSQLite(t *testing.T) {
	// GIVEN: a full month, a 3000 loan over 3 months and a mission
	ctx := context.Background()
	st := newStore(t)
	now := func() time.Time { return time.Date(2025, time.April, 30, 18, 0, 0, 0, time.UTC) }
	deductions := deduction.NewResolver(st)
	deductions.Now = now
	engine := &payroll.Engine{
		Employees:   st,
		Attendance:  attendance.NewAggregator(st),
		Leave:       leave.NewLedger(st, st),
		Taxes:       tax.NewResolver(st, st),
		Deductions:  deductions,
		Missions:    st,
		Parameters:  st,
		Results:     st,
		Tx:          st,
		Concurrency: 2,
		Now:         now,
	}
	sheets := &attendance.Service{Store: st, Tx: st, RestDay: time.Friday}

	require.NoError(t, st.SaveEmployee(ctx, employee("E1")))
	require.NoError(t, st.SaveParameters(ctx, payroll.DefaultParameters()))
	_, err := sheets.MarkRange(ctx, "E1", april, 1, 30, attendance.StatusWorked)
	require.NoError(t, err)
	_, err = deductions.GrantLoan(ctx, "E1", d("3000"), 3, "")
	require.NoError(t, err)
	require.NoError(t, st.SaveMission(ctx, payroll.Mission{
		ID: "M1", EmployeeID: "E1", Date: april.Date(12), Destination: "Oran", Bonus: d("900"),
	}))

	// WHEN
	batch, err := engine.ValidateAll(ctx, april)

	// THEN
	require.NoError(t, err)
	require.Empty(t, batch.Errors)
	require.Len(t, batch.Results, 1)

	stored, err := st.GetPayrollResult(ctx, "E1", april)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, payroll.StatusValidated, stored.Status)
	assert.True(t, batch.Results[0].NetPay.Equal(stored.NetPay))
	assert.True(t, d("900").Equal(stored.MissionBonus))
	assert.True(t, d("1000").Equal(stored.LoansApplied))
	assert.True(t, now().Equal(stored.ValidatedAt))

	loans, err := st.ListLoans(ctx, "E1")
	require.NoError(t, err)
	assert.True(t, d("1000").Equal(loans[0].Withheld))

	// WHEN: paid
	_, err = engine.MarkPaid(ctx, "E1", april)
	require.NoError(t, err)

	results, err := st.ListPayrollResults(ctx, april)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, payroll.StatusPaid, results[0].Status)
}
