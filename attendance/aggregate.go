package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the reduction of one Record.
type Summary struct {
	DaysWorked int

	// BusinessDaysWorked excludes worked days falling on the weekly rest day.
	BusinessDaysWorked int

	ByStatus        map[DayStatus]int
	OvertimeMinutes int
}

// Aggregate reduces a record. Pure; an all-unset record yields zero counts.
func Aggregate(r *Record, restDay time.Weekday) Summary {
	sum := Summary{ByStatus: make(map[DayStatus]int)}
	for day := 1; day <= r.Period.DaysInMonth(); day++ {
		status := r.Days[day-1]
		sum.OvertimeMinutes += r.OvertimeMinutes[day-1]
		if status == StatusUnset {
			continue
		}
		sum.ByStatus[status]++
		if !status.CountsAsWorked() {
			continue
		}
		sum.DaysWorked++
		if r.Period.Date(day).Weekday() != restDay {
			sum.BusinessDaysWorked++
		}
	}
	return sum
}

// =============================================================================
// AGGREGATOR - Store-backed
// =============================================================================

// RecordStore persists timesheets.
type RecordStore interface {
	// GetTimesheet returns nil, nil when no record exists.
	GetTimesheet(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (*Record, error)
	SaveTimesheet(ctx context.Context, r *Record) error
}

type Aggregator struct {
	Store RecordStore
}

func NewAggregator(store RecordStore) *Aggregator {
	return &Aggregator{Store: store}
}

// Summarize loads and reduces the timesheet of (employeeID, period).
// A missing timesheet is a NotFoundError, never a silent zero.
func (a *Aggregator) Summarize(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, restDay time.Weekday) (Summary, error) {
	rec, err := a.Store.GetTimesheet(ctx, employeeID, period)
	if err != nil {
		return Summary{}, fmt.Errorf("load timesheet: %w", err)
	}
	if rec == nil {
		return Summary{}, generic.NewNotFound("timesheet", string(employeeID)+"/"+period.String())
	}
	return Aggregate(rec, restDay), nil
}
