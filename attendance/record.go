package attendance

import (
	"github.com/warp/payroll-engine/generic"
)

// MaxDays is the size of the per-day arrays. Days beyond the month's
// calendar length are never set.
const MaxDays = 31

// Record is one employee's timesheet for one PayPeriod.
// Unique per (EmployeeID, Period); immutable once Locked.
type Record struct {
	EmployeeID      generic.EmployeeID
	Period          generic.PayPeriod
	Days            [MaxDays]DayStatus // index 0 is day 1
	OvertimeMinutes [MaxDays]int
	Locked          bool
}

func NewRecord(employeeID generic.EmployeeID, period generic.PayPeriod) *Record {
	return &Record{EmployeeID: employeeID, Period: period}
}

// Status returns the mark for a 1-based day, StatusUnset when out of range.
func (r *Record) Status(day int) DayStatus {
	if day < 1 || day > r.Period.DaysInMonth() {
		return StatusUnset
	}
	return r.Days[day-1]
}

// Mark sets the status of a 1-based day.
func (r *Record) Mark(day int, status DayStatus) error {
	if err := r.checkWritable(day); err != nil {
		return err
	}
	if _, ok := statusNames[status]; !ok {
		return generic.NewValidation("status", "unknown day status %d", status)
	}
	r.Days[day-1] = status
	return nil
}

// SetOvertime records captured overtime minutes for a 1-based day.
func (r *Record) SetOvertime(day, minutes int) error {
	if err := r.checkWritable(day); err != nil {
		return err
	}
	if minutes < 0 {
		return generic.NewValidation("minutes", "must not be negative")
	}
	r.OvertimeMinutes[day-1] = minutes
	return nil
}

// Lock finalizes the record. Locking twice is a no-op.
func (r *Record) Lock() { r.Locked = true }

func (r *Record) checkWritable(day int) error {
	if r.Locked {
		return &LockedError{EmployeeID: r.EmployeeID, Period: r.Period}
	}
	if day < 1 || day > r.Period.DaysInMonth() {
		return generic.NewValidation("day", "day %d outside 1-%d for %s", day, r.Period.DaysInMonth(), r.Period)
	}
	return nil
}

// LockedError is returned when editing a finalized timesheet.
type LockedError struct {
	EmployeeID generic.EmployeeID
	Period     generic.PayPeriod
}

func (e *LockedError) Error() string {
	return "timesheet " + string(e.EmployeeID) + "/" + e.Period.String() + " is locked"
}

func (e *LockedError) Unwrap() error { return generic.ErrLocked }
