package attendance

import (
	"context"
	"time"

	"github.com/warp/payroll-engine/generic"
)

// Service implements timesheet entry. Every mutation is a
// load-modify-save inside one transaction.
type Service struct {
	Store   RecordStore
	Tx      generic.TxRunner
	RestDay time.Weekday

	// OnLock runs inside the locking transaction, after the record is saved.
	// Leave accrual for the month hooks in here.
	OnLock func(ctx context.Context, r *Record, sum Summary) error
}

// Get returns the timesheet or a NotFoundError.
func (s *Service) Get(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (*Record, error) {
	rec, err := s.Store.GetTimesheet(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, generic.NewNotFound("timesheet", string(employeeID)+"/"+period.String())
	}
	return rec, nil
}

// MarkDay sets one day, creating the record on first mark.
func (s *Service) MarkDay(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, day int, status DayStatus) (*Record, error) {
	return s.MarkRange(ctx, employeeID, period, day, day, status)
}

// MarkRange sets days from..to inclusive.
func (s *Service) MarkRange(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, from, to int, status DayStatus) (*Record, error) {
	if from > to {
		return nil, generic.NewValidation("day", "range %d-%d is empty", from, to)
	}
	return s.mutate(ctx, employeeID, period, func(r *Record) error {
		for day := from; day <= to; day++ {
			if err := r.Mark(day, status); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetOvertime records captured overtime minutes for one day.
func (s *Service) SetOvertime(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, day, minutes int) (*Record, error) {
	return s.mutate(ctx, employeeID, period, func(r *Record) error {
		return r.SetOvertime(day, minutes)
	})
}

// Lock finalizes an existing timesheet and fires OnLock.
func (s *Service) Lock(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (*Record, error) {
	var locked *Record
	err := s.Tx.WithTx(ctx, func(ctx context.Context) error {
		rec, err := s.Get(ctx, employeeID, period)
		if err != nil {
			return err
		}
		rec.Lock()
		if err := s.Store.SaveTimesheet(ctx, rec); err != nil {
			return err
		}
		if s.OnLock != nil {
			if err := s.OnLock(ctx, rec, Aggregate(rec, s.RestDay)); err != nil {
				return err
			}
		}
		locked = rec
		return nil
	})
	return locked, err
}

func (s *Service) mutate(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, fn func(*Record) error) (*Record, error) {
	var out *Record
	err := s.Tx.WithTx(ctx, func(ctx context.Context) error {
		rec, err := s.Store.GetTimesheet(ctx, employeeID, period)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = NewRecord(employeeID, period)
		}
		if err := fn(rec); err != nil {
			return err
		}
		if err := s.Store.SaveTimesheet(ctx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}
