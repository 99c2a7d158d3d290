/*
Package payroll computes monthly net pay.

PURPOSE:
  The Engine gathers one employee's month (timesheet summary, leave days
  charged to the month, mission bonuses, advances and loans due), runs the
  pure Compute over one configuration snapshot, and either returns the
  result (Preview) or persists it with every deduction side effect in one
  transaction (Validate).

MODES:
  Preview:     read-only, Status draft, never stored
  Validate:    upsert by (employee, month), Status validated, deduction
               side effects committed with it or not at all
  MarkPaid:    validated -> paid
  PreviewAll / ValidateAll: every active employee, bounded parallelism,
               per-employee errors collected, batch never aborted by one
               employee; cancellation stops between employees

CONFIGURATION SNAPSHOT:
  Parameters and tax brackets are read once per call (once per batch) and
  passed down, so every employee of a batch sees the same configuration.
  Missing parameters fall back to DefaultParameters, missing brackets to
  zero tax; both are reported as warnings, not errors.

SEE ALSO:
  - calculator.go: Compute
  - deduction/resolver.go: Commit
  - leave/ledger.go: DaysToDeductForPayroll
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/tax"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// ERRORS
// =============================================================================

// Computation steps that can fail.
const (
	StepEmployee   = "employee"
	StepAttendance = "attendance"
	StepLeave      = "leave"
	StepMissions   = "missions"
	StepDeductions = "deductions"
	StepPersist    = "persist"
)

// EmployeeError labels a failure with the employee and the step.
type EmployeeError struct {
	EmployeeID generic.EmployeeID
	Step       string
	Err        error
}

func (e *EmployeeError) Error() string {
	return fmt.Sprintf("payroll %s (%s): %v", e.EmployeeID, e.Step, e.Err)
}

func (e *EmployeeError) Unwrap() error { return e.Err }

// =============================================================================
// ENGINE
// =============================================================================

// Options carries the ad-hoc bonus inputs of one computation.
type Options struct {
	ObjectiveBonus decimal.Decimal
	VariableBonus  decimal.Decimal
}

type Engine struct {
	Employees  EmployeeStore
	Attendance *attendance.Aggregator
	Leave      *leave.Ledger
	Taxes      *tax.Resolver
	Deductions *deduction.Resolver
	Missions   MissionProvider
	Parameters ParametersStore
	Results    ResultStore
	Tx         generic.TxRunner

	// Concurrency bounds batch parallelism; values below 1 mean 1.
	Concurrency int
	Now         func() time.Time
}

// LoadConfig takes a configuration snapshot.
func (e *Engine) LoadConfig(ctx context.Context) (Config, error) {
	cfg := Config{}

	params, err := e.Parameters.GetParameters(ctx)
	if err != nil {
		return Config{}, fmt.Errorf("load parameters: %w", err)
	}
	if params == nil {
		cfg.Parameters = DefaultParameters()
		cfg.Warnings = append(cfg.Warnings, WarnDefaultParameters)
	} else {
		cfg.Parameters = *params
	}

	table, err := e.Taxes.Snapshot(ctx)
	if err != nil {
		return Config{}, err
	}
	if table.IsEmpty() {
		cfg.Warnings = append(cfg.Warnings, WarnNoTaxBrackets)
	}
	cfg.Taxes = table

	if len(cfg.Warnings) > 0 {
		logging.FromContext(ctx).Warn().Strs("degradations", cfg.Warnings).Msg("payroll configuration degraded")
	}
	return cfg, nil
}

// Preview computes without persisting anything.
func (e *Engine) Preview(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, opts Options) (*Result, error) {
	cfg, err := e.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	res, _, err := e.compute(ctx, cfg, employeeID, period, opts)
	return res, err
}

// Validate computes and persists the result with its deduction side
// effects, all or nothing. Re-validating a month overwrites it.
func (e *Engine) Validate(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod, opts Options) (*Result, error) {
	cfg, err := e.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return e.validate(ctx, cfg, employeeID, period, opts)
}

func (e *Engine) validate(ctx context.Context, cfg Config, employeeID generic.EmployeeID, period generic.PayPeriod, opts Options) (*Result, error) {
	var out *Result
	err := e.Tx.WithTx(ctx, func(ctx context.Context) error {
		existing, err := e.Results.GetPayrollResult(ctx, employeeID, period)
		if err != nil {
			return &EmployeeError{EmployeeID: employeeID, Step: StepPersist, Err: err}
		}
		if existing != nil && existing.Status == StatusPaid {
			return &EmployeeError{EmployeeID: employeeID, Step: StepPersist,
				Err: generic.NewValidation("status", "payroll %s already paid", period)}
		}

		res, due, err := e.compute(ctx, cfg, employeeID, period, opts)
		if err != nil {
			return err
		}
		if err := e.Deductions.Commit(ctx, due, res.application()); err != nil {
			return &EmployeeError{EmployeeID: employeeID, Step: StepDeductions, Err: err}
		}

		res.Status = StatusValidated
		res.ValidatedAt = res.ComputedAt
		if err := e.Results.SavePayrollResult(ctx, res); err != nil {
			return &EmployeeError{EmployeeID: employeeID, Step: StepPersist, Err: err}
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().
		Str("employee_id", string(employeeID)).
		Str("period", period.String()).
		Str("net_pay", out.NetPay.StringFixed(2)).
		Msg("payroll validated")
	return out, nil
}

// MarkPaid flips a validated result to paid.
func (e *Engine) MarkPaid(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (*Result, error) {
	var out *Result
	err := e.Tx.WithTx(ctx, func(ctx context.Context) error {
		res, err := e.Results.GetPayrollResult(ctx, employeeID, period)
		if err != nil {
			return err
		}
		if res == nil {
			return generic.NewNotFound("payroll result", string(employeeID)+"/"+period.String())
		}
		if res.Status == StatusPaid {
			out = res
			return nil
		}
		res.Status = StatusPaid
		res.PaidAt = e.now()
		if err := e.Results.SavePayrollResult(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// compute runs steps 1 to 3, gathers the other inputs, then Compute.
func (e *Engine) compute(ctx context.Context, cfg Config, employeeID generic.EmployeeID, period generic.PayPeriod, opts Options) (*Result, deduction.Due, error) {
	fail := func(step string, err error) (*Result, deduction.Due, error) {
		return nil, deduction.Due{}, &EmployeeError{EmployeeID: employeeID, Step: step, Err: err}
	}

	// 1. Employee
	emp, err := e.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return fail(StepEmployee, err)
	}
	if emp == nil {
		return fail(StepEmployee, generic.NewNotFound("employee", string(employeeID)))
	}
	if !emp.Active {
		return fail(StepEmployee, generic.NewNotFound("active employee", string(employeeID)))
	}

	// 2. Attendance
	summary, err := e.Attendance.Summarize(ctx, employeeID, period, cfg.Parameters.WeeklyRestDay)
	if err != nil {
		return fail(StepAttendance, err)
	}

	// 3. Leave charged to the month
	leaveDays, err := e.Leave.DaysToDeductForPayroll(ctx, employeeID, period)
	if err != nil {
		return fail(StepLeave, err)
	}

	missionBonus := decimal.Zero
	if e.Missions != nil {
		missionBonus, err = e.Missions.MissionBonusTotal(ctx, employeeID, period)
		if err != nil {
			return fail(StepMissions, err)
		}
	}

	due, err := e.Deductions.Resolve(ctx, employeeID, period)
	if err != nil {
		return fail(StepDeductions, err)
	}

	res := Compute(cfg, Input{
		Employee:       *emp,
		Period:         period,
		Attendance:     summary,
		LeaveDays:      leaveDays,
		MissionBonus:   missionBonus,
		ObjectiveBonus: opts.ObjectiveBonus,
		VariableBonus:  opts.VariableBonus,
		Due:            due,
	})
	res.ComputedAt = e.now()
	return res, due, nil
}

// =============================================================================
// BATCH
// =============================================================================

// Batch is the outcome of a run over all active employees.
// Results and Errors keep the employee listing order.
type Batch struct {
	Period  generic.PayPeriod
	Results []*Result
	Errors  []*EmployeeError
	Totals  Totals
}

// PreviewAll previews every active employee.
func (e *Engine) PreviewAll(ctx context.Context, period generic.PayPeriod) (*Batch, error) {
	return e.runAll(ctx, period, false)
}

// ValidateAll validates every active employee, each in its own transaction.
func (e *Engine) ValidateAll(ctx context.Context, period generic.PayPeriod) (*Batch, error) {
	return e.runAll(ctx, period, true)
}

// runAll returns the partial batch together with ctx.Err() when canceled.
func (e *Engine) runAll(ctx context.Context, period generic.PayPeriod, persist bool) (*Batch, error) {
	started := e.now()
	log := logging.FromContext(ctx)

	cfg, err := e.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := e.Employees.ListEmployees(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	results := make([]*Result, len(employees))
	failures := make([]*EmployeeError, len(employees))

	var g errgroup.Group
	g.SetLimit(max(e.Concurrency, 1))
	for i, emp := range employees {
		if ctx.Err() != nil {
			break
		}
		i, emp := i, emp
		g.Go(func() error {
			// stop between employees
			if ctx.Err() != nil {
				return nil
			}
			var res *Result
			var err error
			if persist {
				res, err = e.validate(ctx, cfg, emp.ID, period, Options{})
			} else {
				res, _, err = e.compute(ctx, cfg, emp.ID, period, Options{})
			}
			if err != nil {
				var ee *EmployeeError
				if !errors.As(err, &ee) {
					ee = &EmployeeError{EmployeeID: emp.ID, Step: StepPersist, Err: err}
				}
				failures[i] = ee
				log.Warn().Err(err).Str("employee_id", string(emp.ID)).Str("period", period.String()).
					Msg("payroll failed for employee")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	batch := &Batch{Period: period, Totals: NewTotals()}
	for i := range employees {
		if results[i] != nil {
			batch.Results = append(batch.Results, results[i])
			batch.Totals.Add(results[i])
		}
		if failures[i] != nil {
			batch.Errors = append(batch.Errors, failures[i])
		}
	}

	log.Info().
		Str("period", period.String()).
		Bool("validate", persist).
		Int("employees", len(employees)).
		Int("succeeded", len(batch.Results)).
		Int("failed", len(batch.Errors)).
		Dur("duration", e.now().Sub(started)).
		Msg("payroll batch finished")

	return batch, ctx.Err()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
