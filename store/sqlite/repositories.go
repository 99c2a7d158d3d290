package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, first_name, last_name, job_title, base_salary, hire_date, contract_end,
	night_security, spouse_at_home, active`

// SaveEmployee upserts an employee.
func (s *Store) SaveEmployee(ctx context.Context, e payroll.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			job_title = excluded.job_title,
			base_salary = excluded.base_salary,
			hire_date = excluded.hire_date,
			contract_end = excluded.contract_end,
			night_security = excluded.night_security,
			spouse_at_home = excluded.spouse_at_home,
			active = excluded.active,
			updated_at = excluded.updated_at
	`
	ts := now()
	_, err := s.querier(ctx).ExecContext(ctx, query,
		e.ID, e.FirstName, e.LastName, e.JobTitle, e.BaseSalary.String(),
		generic.FormatDate(e.HireDate), nullDate(e.ContractEnd),
		boolInt(e.NightSecurity), boolInt(e.SpouseAtHome), boolInt(e.Active),
		ts, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*payroll.Employee, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	e, err := scanEmployee(row)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]payroll.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY id"

	rows, err := s.querier(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (payroll.Employee, error) {
	var (
		e                     payroll.Employee
		baseSalary, hireDate  string
		contractEnd           sql.NullString
		night, spouse, active int
	)
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.JobTitle, &baseSalary, &hireDate, &contractEnd,
		&night, &spouse, &active)
	if err != nil {
		return e, err
	}
	if e.BaseSalary, err = parseDecimal("base_salary", baseSalary); err != nil {
		return e, err
	}
	e.HireDate = parseDate(sql.NullString{String: hireDate, Valid: true})
	e.ContractEnd = parseDate(contractEnd)
	e.NightSecurity = night == 1
	e.SpouseAtHome = spouse == 1
	e.Active = active == 1
	return e, nil
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func (s *Store) GetTimesheet(ctx context.Context, employeeID generic.EmployeeID, p generic.PayPeriod) (*attendance.Record, error) {
	var daysJSON, overtimeJSON string
	var locked int
	err := s.querier(ctx).QueryRowContext(ctx, `
		SELECT days_json, overtime_json, locked FROM timesheets
		WHERE employee_id = ? AND year = ? AND month = ?`,
		employeeID, p.Year, int(p.Month),
	).Scan(&daysJSON, &overtimeJSON, &locked)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load timesheet: %w", err)
	}

	rec := attendance.NewRecord(employeeID, p)
	if err := json.Unmarshal([]byte(daysJSON), &rec.Days); err != nil {
		return nil, fmt.Errorf("failed to decode timesheet days: %w", err)
	}
	if err := json.Unmarshal([]byte(overtimeJSON), &rec.OvertimeMinutes); err != nil {
		return nil, fmt.Errorf("failed to decode timesheet overtime: %w", err)
	}
	rec.Locked = locked == 1
	return rec, nil
}

func (s *Store) SaveTimesheet(ctx context.Context, r *attendance.Record) error {
	days, err := json.Marshal(r.Days)
	if err != nil {
		return err
	}
	overtime, err := json.Marshal(r.OvertimeMinutes)
	if err != nil {
		return err
	}
	_, err = s.querier(ctx).ExecContext(ctx, `
		INSERT INTO timesheets (employee_id, year, month, days_json, overtime_json, locked, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year, month) DO UPDATE SET
			days_json = excluded.days_json,
			overtime_json = excluded.overtime_json,
			locked = excluded.locked,
			updated_at = excluded.updated_at`,
		r.EmployeeID, r.Period.Year, int(r.Period.Month), string(days), string(overtime), boolInt(r.Locked), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save timesheet: %w", err)
	}
	return nil
}

// =============================================================================
// LEAVE PERIODS
// =============================================================================

func (s *Store) ListLeavePeriods(ctx context.Context, employeeID generic.EmployeeID) ([]leave.Period, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT year, month, accrued, taken, remaining, target_year, target_month
		FROM leave_periods
		WHERE employee_id = ?
		ORDER BY year, month`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave periods: %w", err)
	}
	defer rows.Close()

	var periods []leave.Period
	for rows.Next() {
		var (
			year, month               int
			accrued, taken, remaining string
			targetYear, targetMonth   sql.NullInt64
		)
		if err := rows.Scan(&year, &month, &accrued, &taken, &remaining, &targetYear, &targetMonth); err != nil {
			return nil, err
		}
		p := leave.Period{EmployeeID: employeeID, Period: period(year, month)}
		if err := scanDecimals(
			decimalColumn{"accrued", accrued, &p.Accrued},
			decimalColumn{"taken", taken, &p.Taken},
			decimalColumn{"remaining", remaining, &p.Remaining},
		); err != nil {
			return nil, err
		}
		if targetYear.Valid && targetMonth.Valid {
			t := period(int(targetYear.Int64), int(targetMonth.Int64))
			p.DeductionTarget = &t
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) SaveLeavePeriods(ctx context.Context, periods []leave.Period) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, p := range periods {
			var targetYear, targetMonth sql.NullInt64
			if p.DeductionTarget != nil {
				targetYear = sql.NullInt64{Int64: int64(p.DeductionTarget.Year), Valid: true}
				targetMonth = sql.NullInt64{Int64: int64(p.DeductionTarget.Month), Valid: true}
			}
			_, err := s.querier(ctx).ExecContext(ctx, `
				INSERT INTO leave_periods (employee_id, year, month, accrued, taken, remaining, target_year, target_month)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(employee_id, year, month) DO UPDATE SET
					accrued = excluded.accrued,
					taken = excluded.taken,
					remaining = excluded.remaining,
					target_year = excluded.target_year,
					target_month = excluded.target_month`,
				p.EmployeeID, p.Period.Year, int(p.Period.Month),
				p.Accrued.String(), p.Taken.String(), p.Remaining.String(), targetYear, targetMonth,
			)
			if err != nil {
				return fmt.Errorf("failed to save leave period %s: %w", p.Period, err)
			}
		}
		return nil
	})
}

// =============================================================================
// TAX BRACKETS
// =============================================================================

func (s *Store) ActiveBrackets(ctx context.Context) ([]tax.Bracket, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		"SELECT threshold, tax FROM tax_brackets WHERE active = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query tax brackets: %w", err)
	}
	defer rows.Close()

	var brackets []tax.Bracket
	for rows.Next() {
		var threshold, amount string
		if err := rows.Scan(&threshold, &amount); err != nil {
			return nil, err
		}
		var b tax.Bracket
		if err := scanDecimals(
			decimalColumn{"threshold", threshold, &b.Threshold},
			decimalColumn{"tax", amount, &b.Tax},
		); err != nil {
			return nil, err
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}

// ReplaceBrackets flags the current set inactive and inserts rows.
func (s *Store) ReplaceBrackets(ctx context.Context, rows []tax.Bracket) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		q := s.querier(ctx)
		if _, err := q.ExecContext(ctx, "UPDATE tax_brackets SET active = 0 WHERE active = 1"); err != nil {
			return fmt.Errorf("failed to deactivate tax brackets: %w", err)
		}
		ts := now()
		for _, b := range rows {
			_, err := q.ExecContext(ctx,
				"INSERT INTO tax_brackets (threshold, tax, active, imported_at) VALUES (?, ?, 1, ?)",
				b.Threshold.String(), b.Tax.String(), ts)
			if err != nil {
				return fmt.Errorf("failed to insert tax bracket: %w", err)
			}
		}
		return nil
	})
}

// =============================================================================
// ADVANCES
// =============================================================================

const advanceColumns = `id, employee_id, amount, target_year, target_month, granted_on, reason,
	deducted, deducted_amount, deducted_on, carried_from_id`

func (s *Store) GetAdvance(ctx context.Context, id string) (*deduction.Advance, error) {
	advances, err := s.queryAdvances(ctx, "SELECT "+advanceColumns+" FROM advances WHERE id = ?", id)
	if err != nil || len(advances) == 0 {
		return nil, err
	}
	return &advances[0], nil
}

func (s *Store) ListAdvances(ctx context.Context, employeeID generic.EmployeeID) ([]deduction.Advance, error) {
	return s.queryAdvances(ctx, "SELECT "+advanceColumns+` FROM advances
		WHERE employee_id = ? ORDER BY granted_on, id`, employeeID)
}

func (s *Store) AdvancesForPeriod(ctx context.Context, employeeID generic.EmployeeID, p generic.PayPeriod) ([]deduction.Advance, error) {
	return s.queryAdvances(ctx, "SELECT "+advanceColumns+` FROM advances
		WHERE employee_id = ? AND target_year = ? AND target_month = ?
		ORDER BY granted_on, id`, employeeID, p.Year, int(p.Month))
}

func (s *Store) queryAdvances(ctx context.Context, query string, args ...any) ([]deduction.Advance, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query advances: %w", err)
	}
	defer rows.Close()

	var advances []deduction.Advance
	for rows.Next() {
		var (
			a                       deduction.Advance
			amount, deductedAmount  string
			targetYear, targetMonth int
			grantedOn               string
			deducted                int
			deductedOn, carriedFrom sql.NullString
		)
		err := rows.Scan(&a.ID, &a.EmployeeID, &amount, &targetYear, &targetMonth, &grantedOn, &a.Reason,
			&deducted, &deductedAmount, &deductedOn, &carriedFrom)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advance: %w", err)
		}
		if err := scanDecimals(
			decimalColumn{"amount", amount, &a.Amount},
			decimalColumn{"deducted_amount", deductedAmount, &a.DeductedAmount},
		); err != nil {
			return nil, err
		}
		a.Target = period(targetYear, targetMonth)
		a.GrantedOn = parseDate(sql.NullString{String: grantedOn, Valid: true})
		a.Deducted = deducted == 1
		a.DeductedOn = parseDate(deductedOn)
		a.CarriedFromID = carriedFrom.String
		advances = append(advances, a)
	}
	return advances, rows.Err()
}

func (s *Store) SaveAdvance(ctx context.Context, a deduction.Advance) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO advances (`+advanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			target_year = excluded.target_year,
			target_month = excluded.target_month,
			granted_on = excluded.granted_on,
			reason = excluded.reason,
			deducted = excluded.deducted,
			deducted_amount = excluded.deducted_amount,
			deducted_on = excluded.deducted_on,
			carried_from_id = excluded.carried_from_id`,
		a.ID, a.EmployeeID, a.Amount.String(), a.Target.Year, int(a.Target.Month),
		generic.FormatDate(a.GrantedOn), a.Reason,
		boolInt(a.Deducted), a.DeductedAmount.String(), nullDate(a.DeductedOn), nullString(a.CarriedFromID),
	)
	if err != nil {
		return fmt.Errorf("failed to save advance: %w", err)
	}
	return nil
}

func (s *Store) DeleteAdvance(ctx context.Context, id string) error {
	_, err := s.querier(ctx).ExecContext(ctx, "DELETE FROM advances WHERE id = ?", id)
	return err
}

// =============================================================================
// LOANS
// =============================================================================

const loanColumns = `id, employee_id, principal, installments, installment_amount, withheld, status,
	granted_on, reason`

func (s *Store) GetLoan(ctx context.Context, id string) (*deduction.Loan, error) {
	loans, err := s.queryLoans(ctx, "SELECT "+loanColumns+" FROM loans WHERE id = ?", id)
	if err != nil || len(loans) == 0 {
		return nil, err
	}
	return &loans[0], nil
}

func (s *Store) ListLoans(ctx context.Context, employeeID generic.EmployeeID) ([]deduction.Loan, error) {
	return s.queryLoans(ctx, "SELECT "+loanColumns+` FROM loans
		WHERE employee_id = ? ORDER BY granted_on, id`, employeeID)
}

func (s *Store) queryLoans(ctx context.Context, query string, args ...any) ([]deduction.Loan, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []deduction.Loan
	for rows.Next() {
		var (
			l                                      deduction.Loan
			principal, installmentAmount, withheld string
			grantedOn                              string
		)
		err := rows.Scan(&l.ID, &l.EmployeeID, &principal, &l.Installments, &installmentAmount, &withheld,
			&l.Status, &grantedOn, &l.Reason)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		if err := scanDecimals(
			decimalColumn{"principal", principal, &l.Principal},
			decimalColumn{"installment_amount", installmentAmount, &l.InstallmentAmount},
			decimalColumn{"withheld", withheld, &l.Withheld},
		); err != nil {
			return nil, err
		}
		l.GrantedOn = parseDate(sql.NullString{String: grantedOn, Valid: true})
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (s *Store) SaveLoan(ctx context.Context, l deduction.Loan) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			principal = excluded.principal,
			installments = excluded.installments,
			installment_amount = excluded.installment_amount,
			withheld = excluded.withheld,
			status = excluded.status,
			reason = excluded.reason`,
		l.ID, l.EmployeeID, l.Principal.String(), l.Installments, l.InstallmentAmount.String(),
		l.Withheld.String(), l.Status, generic.FormatDate(l.GrantedOn), l.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to save loan: %w", err)
	}
	return nil
}

func (s *Store) InstallmentsForPeriod(ctx context.Context, employeeID generic.EmployeeID, p generic.PayPeriod) ([]deduction.Installment, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT id, loan_id, amount, recorded_on FROM loan_installments
		WHERE employee_id = ? AND year = ? AND month = ?
		ORDER BY loan_id`, employeeID, p.Year, int(p.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	var installments []deduction.Installment
	for rows.Next() {
		i := deduction.Installment{EmployeeID: employeeID, Period: p}
		var amount, recordedOn string
		if err := rows.Scan(&i.ID, &i.LoanID, &amount, &recordedOn); err != nil {
			return nil, err
		}
		if i.Amount, err = parseDecimal("amount", amount); err != nil {
			return nil, err
		}
		i.RecordedOn = parseDate(sql.NullString{String: recordedOn, Valid: true})
		installments = append(installments, i)
	}
	return installments, rows.Err()
}

func (s *Store) SaveInstallment(ctx context.Context, i deduction.Installment) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO loan_installments (id, loan_id, employee_id, year, month, amount, recorded_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(loan_id, year, month) DO UPDATE SET
			amount = excluded.amount,
			recorded_on = excluded.recorded_on`,
		i.ID, i.LoanID, i.EmployeeID, i.Period.Year, int(i.Period.Month), i.Amount.String(),
		generic.FormatDate(i.RecordedOn),
	)
	if err != nil {
		return fmt.Errorf("failed to save installment: %w", err)
	}
	return nil
}

func (s *Store) DeleteInstallment(ctx context.Context, loanID string, p generic.PayPeriod) error {
	_, err := s.querier(ctx).ExecContext(ctx,
		"DELETE FROM loan_installments WHERE loan_id = ? AND year = ? AND month = ?",
		loanID, p.Year, int(p.Month))
	return err
}

func (s *Store) DeferralsForPeriod(ctx context.Context, employeeID generic.EmployeeID, from generic.PayPeriod) ([]deduction.Deferral, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT id, loan_id, to_year, to_month, reason, created_on FROM loan_deferrals
		WHERE employee_id = ? AND from_year = ? AND from_month = ?
		ORDER BY loan_id`, employeeID, from.Year, int(from.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to query deferrals: %w", err)
	}
	defer rows.Close()

	var deferrals []deduction.Deferral
	for rows.Next() {
		d := deduction.Deferral{EmployeeID: employeeID, From: from}
		var toYear, toMonth int
		var createdOn string
		if err := rows.Scan(&d.ID, &d.LoanID, &toYear, &toMonth, &d.Reason, &createdOn); err != nil {
			return nil, err
		}
		d.To = period(toYear, toMonth)
		d.CreatedOn = parseDate(sql.NullString{String: createdOn, Valid: true})
		deferrals = append(deferrals, d)
	}
	return deferrals, rows.Err()
}

func (s *Store) SaveDeferral(ctx context.Context, d deduction.Deferral) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO loan_deferrals (id, loan_id, employee_id, from_year, from_month, to_year, to_month, reason, created_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(loan_id, from_year, from_month) DO UPDATE SET
			to_year = excluded.to_year,
			to_month = excluded.to_month,
			reason = excluded.reason`,
		d.ID, d.LoanID, d.EmployeeID, d.From.Year, int(d.From.Month), d.To.Year, int(d.To.Month),
		d.Reason, generic.FormatDate(d.CreatedOn),
	)
	if err != nil {
		return fmt.Errorf("failed to save deferral: %w", err)
	}
	return nil
}

// =============================================================================
// PARAMETERS
// =============================================================================

func (s *Store) GetParameters(ctx context.Context) (*payroll.Parameters, error) {
	var configJSON string
	err := s.querier(ctx).QueryRowContext(ctx, "SELECT config_json FROM pay_parameters WHERE id = 1").Scan(&configJSON)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}
	var p payroll.Parameters
	if err := json.Unmarshal([]byte(configJSON), &p); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return &p, nil
}

func (s *Store) SaveParameters(ctx context.Context, p payroll.Parameters) error {
	configJSON, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.querier(ctx).ExecContext(ctx, `
		INSERT INTO pay_parameters (id, config_json, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json, updated_at = excluded.updated_at`,
		string(configJSON), now())
	if err != nil {
		return fmt.Errorf("failed to save parameters: %w", err)
	}
	return nil
}

// =============================================================================
// PAYROLL RESULTS
// =============================================================================

func (s *Store) GetPayrollResult(ctx context.Context, employeeID generic.EmployeeID, p generic.PayPeriod) (*payroll.Result, error) {
	results, err := s.queryResults(ctx, `
		SELECT result_json FROM payroll_results WHERE employee_id = ? AND year = ? AND month = ?`,
		employeeID, p.Year, int(p.Month))
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

func (s *Store) ListPayrollResults(ctx context.Context, p generic.PayPeriod) ([]*payroll.Result, error) {
	return s.queryResults(ctx, `
		SELECT result_json FROM payroll_results WHERE year = ? AND month = ? ORDER BY employee_id`,
		p.Year, int(p.Month))
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]*payroll.Result, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll results: %w", err)
	}
	defer rows.Close()

	var results []*payroll.Result
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, err
		}
		var r payroll.Result
		if err := json.Unmarshal([]byte(resultJSON), &r); err != nil {
			return nil, fmt.Errorf("failed to decode payroll result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

func (s *Store) SavePayrollResult(ctx context.Context, r *payroll.Result) error {
	resultJSON, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.querier(ctx).ExecContext(ctx, `
		INSERT INTO payroll_results (employee_id, year, month, status, net_pay, result_json, validated_at, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year, month) DO UPDATE SET
			status = excluded.status,
			net_pay = excluded.net_pay,
			result_json = excluded.result_json,
			validated_at = excluded.validated_at,
			paid_at = excluded.paid_at`,
		r.EmployeeID, r.Period.Year, int(r.Period.Month), r.Status, r.NetPay.StringFixed(2), string(resultJSON),
		nullTime(r.ValidatedAt), nullTime(r.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll result: %w", err)
	}
	return nil
}

// =============================================================================
// MISSIONS
// =============================================================================

func (s *Store) ListMissions(ctx context.Context, employeeID generic.EmployeeID, p generic.PayPeriod) ([]payroll.Mission, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT id, mission_date, destination, bonus FROM missions
		WHERE employee_id = ? AND mission_date >= ? AND mission_date <= ?
		ORDER BY mission_date, id`,
		employeeID, generic.FormatDate(p.Start()), generic.FormatDate(p.End()))
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer rows.Close()

	var missions []payroll.Mission
	for rows.Next() {
		m := payroll.Mission{EmployeeID: employeeID}
		var date, bonus string
		if err := rows.Scan(&m.ID, &date, &m.Destination, &bonus); err != nil {
			return nil, err
		}
		if m.Bonus, err = parseDecimal("bonus", bonus); err != nil {
			return nil, err
		}
		m.Date = parseDate(sql.NullString{String: date, Valid: true})
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

func (s *Store) SaveMission(ctx context.Context, m payroll.Mission) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO missions (id, employee_id, mission_date, destination, bonus)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mission_date = excluded.mission_date,
			destination = excluded.destination,
			bonus = excluded.bonus`,
		m.ID, m.EmployeeID, generic.FormatDate(m.Date), m.Destination, m.Bonus.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save mission: %w", err)
	}
	return nil
}

// MissionBonusTotal sums the bonuses of the missions dated within p.
func (s *Store) MissionBonusTotal(ctx context.Context, employeeID generic.EmployeeID, p generic.PayPeriod) (decimal.Decimal, error) {
	missions, err := s.ListMissions(ctx, employeeID, p)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range missions {
		total = total.Add(m.Bonus)
	}
	return total, nil
}
