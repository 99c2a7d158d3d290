package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/store/memory"
)

// March 2025 starts on a Saturday: Fridays are the 7th, 14th, 21st, 28th.
var march = generic.MustPayPeriod(2025, 3)

func newService() (*attendance.Service, *memory.Store) {
	st := memory.New()
	return &attendance.Service{Store: st, Tx: st, RestDay: time.Friday}, st
}

// =============================================================================
// AGGREGATE
// =============================================================================

func TestAggregate_WorkedAndHolidayCountAsWorked(t *testing.T) {
	// GIVEN: days 1-10 worked, 11 holiday, then one of each non-worked status
	rec := attendance.NewRecord("E1", march)
	for day := 1; day <= 10; day++ {
		require.NoError(t, rec.Mark(day, attendance.StatusWorked))
	}
	require.NoError(t, rec.Mark(11, attendance.StatusHoliday))
	require.NoError(t, rec.Mark(12, attendance.StatusSick))
	require.NoError(t, rec.Mark(13, attendance.StatusOnLeave))
	require.NoError(t, rec.Mark(14, attendance.StatusAbsent))
	require.NoError(t, rec.Mark(15, attendance.StatusSuspended))
	require.NoError(t, rec.SetOvertime(3, 45))
	require.NoError(t, rec.SetOvertime(4, 30))

	// WHEN
	sum := attendance.Aggregate(rec, time.Friday)

	// THEN: 11 worked, the 7th is the rest day
	assert.Equal(t, 11, sum.DaysWorked)
	assert.Equal(t, 10, sum.BusinessDaysWorked)
	assert.Equal(t, 10, sum.ByStatus[attendance.StatusWorked])
	assert.Equal(t, 1, sum.ByStatus[attendance.StatusHoliday])
	assert.Equal(t, 1, sum.ByStatus[attendance.StatusSick])
	assert.Equal(t, 75, sum.OvertimeMinutes)
}

func TestAggregate_AllUnsetIsZeroNotError(t *testing.T) {
	sum := attendance.Aggregate(attendance.NewRecord("E1", march), time.Friday)

	assert.Equal(t, 0, sum.DaysWorked)
	assert.Equal(t, 0, sum.BusinessDaysWorked)
	assert.Empty(t, sum.ByStatus)
}

func TestCountsAsWorked(t *testing.T) {
	for _, s := range attendance.AllStatuses {
		want := s == attendance.StatusWorked || s == attendance.StatusHoliday
		assert.Equal(t, want, s.CountsAsWorked(), s.String())
	}
	assert.False(t, attendance.StatusUnset.CountsAsWorked())
}

func TestParseDayStatus(t *testing.T) {
	cases := map[string]attendance.DayStatus{
		"W":      attendance.StatusWorked,
		"worked": attendance.StatusWorked,
		"h":      attendance.StatusHoliday,
		"Leave":  attendance.StatusOnLeave,
		"":       attendance.StatusUnset,
		" sick ": attendance.StatusSick,
		"X":      attendance.StatusSuspended,
		"ABSENT": attendance.StatusAbsent,
	}
	for in, want := range cases {
		got, err := attendance.ParseDayStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := attendance.ParseDayStatus("remote")
	assert.ErrorIs(t, err, generic.ErrValidation)
}

// =============================================================================
// RECORD
// =============================================================================

func TestRecord_RejectsDaysOutsideMonth(t *testing.T) {
	rec := attendance.NewRecord("E1", generic.MustPayPeriod(2025, 2))

	assert.ErrorIs(t, rec.Mark(29, attendance.StatusWorked), generic.ErrValidation)
	assert.ErrorIs(t, rec.Mark(0, attendance.StatusWorked), generic.ErrValidation)
	assert.NoError(t, rec.Mark(28, attendance.StatusWorked))
	assert.Equal(t, attendance.StatusUnset, rec.Status(29))
}

func TestRecord_LockedIsImmutable(t *testing.T) {
	rec := attendance.NewRecord("E1", march)
	require.NoError(t, rec.Mark(1, attendance.StatusWorked))
	rec.Lock()

	err := rec.Mark(2, attendance.StatusWorked)
	assert.ErrorIs(t, err, generic.ErrLocked)
	var locked *attendance.LockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, march, locked.Period)

	assert.ErrorIs(t, rec.SetOvertime(1, 10), generic.ErrLocked)
	assert.Equal(t, attendance.StatusUnset, rec.Status(2))
}

// =============================================================================
// SERVICE
// =============================================================================

func TestAggregator_MissingTimesheetIsNotFound(t *testing.T) {
	_, st := newService()

	_, err := attendance.NewAggregator(st).Summarize(context.Background(), "E1", march, time.Friday)

	assert.True(t, generic.IsNotFound(err))
}

func TestService_MarkRangeCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()

	_, err := svc.MarkRange(ctx, "E1", march, 1, 31, attendance.StatusWorked)
	require.NoError(t, err)
	_, err = svc.MarkDay(ctx, "E1", march, 31, attendance.StatusAbsent)
	require.NoError(t, err)

	sum, err := attendance.NewAggregator(st).Summarize(ctx, "E1", march, time.Friday)
	require.NoError(t, err)
	assert.Equal(t, 30, sum.DaysWorked)
	assert.Equal(t, 26, sum.BusinessDaysWorked)

	_, err = svc.MarkRange(ctx, "E1", march, 5, 4, attendance.StatusWorked)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestService_LockFiresHookAndBlocksEdits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	var hooked attendance.Summary
	svc.OnLock = func(_ context.Context, _ *attendance.Record, sum attendance.Summary) error {
		hooked = sum
		return nil
	}

	_, err := svc.MarkRange(ctx, "E1", march, 1, 20, attendance.StatusWorked)
	require.NoError(t, err)

	rec, err := svc.Lock(ctx, "E1", march)
	require.NoError(t, err)
	assert.True(t, rec.Locked)
	assert.Equal(t, 20, hooked.DaysWorked)

	_, err = svc.MarkDay(ctx, "E1", march, 21, attendance.StatusWorked)
	assert.ErrorIs(t, err, generic.ErrLocked)
}

func TestService_FailingHookRollsBackLock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	svc.OnLock = func(context.Context, *attendance.Record, attendance.Summary) error {
		return errors.New("accrual failed")
	}

	_, err := svc.MarkDay(ctx, "E1", march, 1, attendance.StatusWorked)
	require.NoError(t, err)

	_, err = svc.Lock(ctx, "E1", march)
	require.Error(t, err)

	rec, err := svc.Get(ctx, "E1", march)
	require.NoError(t, err)
	assert.False(t, rec.Locked)
}

func TestService_LockMissingTimesheet(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Lock(context.Background(), "E1", march)

	assert.True(t, generic.IsNotFound(err))
}
