/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes employees, timesheets, leave, deductions, tax brackets, pay
  parameters and payroll runs over REST. Handles HTTP request/response and
  JSON serialization, and delegates to the domain packages.

ENDPOINTS:
  Employees:
    GET    /api/employees                          List (?active=true)
    POST   /api/employees                          Create or replace
    GET    /api/employees/{id}                     Get
    POST   /api/employees/{id}/deactivate          Soft delete

  Timesheets:
    GET    /api/employees/{id}/timesheets/{year}/{month}
    PUT    /api/employees/{id}/timesheets/{year}/{month}/days/{day}
    POST   /api/employees/{id}/timesheets/{year}/{month}/lock

  Leave:
    GET    /api/employees/{id}/leave               Balance per period
    POST   /api/employees/{id}/leave/taken         Replace total taken

  Deductions and missions:
    GET    /api/employees/{id}/advances
    POST   /api/employees/{id}/advances
    GET    /api/employees/{id}/loans
    POST   /api/employees/{id}/loans
    POST   /api/loans/{id}/deferrals
    GET    /api/employees/{id}/missions            (?period=YYYY-MM)
    POST   /api/employees/{id}/missions

  Configuration:
    GET    /api/tax/brackets
    PUT    /api/tax/brackets                       JSON rows
    POST   /api/tax/brackets/upload                multipart "file", csv or xlsx
    GET    /api/parameters
    PUT    /api/parameters

  Payroll:
    GET    /api/payroll/{year}/{month}             Preview all
    POST   /api/payroll/{year}/{month}/validate    Validate all
    GET    /api/payroll/{year}/{month}/journal.xlsx
    GET    /api/payroll/{year}/{month}/employees/{id}
    POST   /api/payroll/{year}/{month}/employees/{id}/validate
    POST   /api/payroll/{year}/{month}/employees/{id}/paid
    GET    /api/payroll/{year}/{month}/employees/{id}/payslip.pdf

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status derived from the domain
  error (see statusFor):
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Locked timesheet
  - 422: Insufficient leave balance
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/report"
	"github.com/warp/payroll-engine/tax"
)

// maxUploadBytes bounds tax bracket uploads.
const maxUploadBytes = 5 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the handlers persist through. Both store/memory and
// store/sqlite implement it.
type Store interface {
	payroll.EmployeeStore
	payroll.ParametersStore
	payroll.ResultStore
	payroll.MissionStore
	attendance.RecordStore
	leave.Store
	tax.Store
	deduction.Store
	generic.TxRunner
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      Store
	Sheets     *attendance.Service
	Leave      *leave.Ledger
	Taxes      *tax.Resolver
	Deductions *deduction.Resolver
	Engine     *payroll.Engine
	Now        func() time.Time
}

// NewHandler wires the domain services over store. Locking a timesheet
// records the month's leave accrual in the same transaction.
func NewHandler(store Store, concurrency int) *Handler {
	ledger := leave.NewLedger(store, store)
	taxes := tax.NewResolver(store, store)
	deductions := deduction.NewResolver(store)

	h := &Handler{
		Store:      store,
		Leave:      ledger,
		Taxes:      taxes,
		Deductions: deductions,
		Now:        time.Now,
	}
	h.Sheets = &attendance.Service{
		Store:   store,
		Tx:      store,
		RestDay: generic.DefaultRestDay,
		OnLock: func(ctx context.Context, rec *attendance.Record, sum attendance.Summary) error {
			_, err := ledger.RecordAccrual(ctx, rec.EmployeeID, rec.Period, sum.DaysWorked)
			return err
		},
	}
	h.Engine = &payroll.Engine{
		Employees:   store,
		Attendance:  attendance.NewAggregator(store),
		Leave:       ledger,
		Taxes:       taxes,
		Deductions:  deductions,
		Missions:    store,
		Parameters:  store,
		Results:     store,
		Tx:          store,
		Concurrency: concurrency,
		Now:         func() time.Time { return h.Now() },
	}
	deductions.Now = func() time.Time { return h.Now() }
	return h
}

// restDay reads the configured weekly rest day, falling back to the default.
func (h *Handler) restDay(r *http.Request) time.Weekday {
	p, err := h.Store.GetParameters(r.Context())
	if err != nil || p == nil {
		return generic.DefaultRestDay
	}
	return p.WeeklyRestDay
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns employees, active ones only with ?active=true.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	employees, err := h.Store.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// SaveEmployee creates or replaces an employee.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if !decode(w, r, &req) {
		return
	}
	emp, err := req.toEmployee()
	if err == nil {
		err = emp.Validate()
	}
	if err != nil {
		h.fail(w, r, "Invalid employee", err)
		return
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, r, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// DeactivateEmployee flags an employee inactive. Employees are never deleted.
func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.employee(r)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	emp.Active = false
	if err := h.Store.SaveEmployee(r.Context(), *emp); err != nil {
		h.fail(w, r, "Failed to deactivate employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// employee loads the {id} employee, NotFound when unknown.
func (h *Handler) employee(r *http.Request) (*payroll.Employee, error) {
	id := chi.URLParam(r, "id")
	emp, err := h.Store.GetEmployee(r.Context(), generic.EmployeeID(id))
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, generic.NewNotFound("employee", id)
	}
	return emp, nil
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// GetTimesheet returns the month's record with its summary.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	rec, err := h.Sheets.Get(r.Context(), employeeParam(r), period)
	if err != nil {
		h.fail(w, r, "Failed to get timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(rec, h.restDay(r)))
}

// MarkDay sets one day's status, creating the record on first mark.
func (h *Handler) MarkDay(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		h.fail(w, r, "Invalid day", generic.NewValidation("day", "not a number"))
		return
	}
	var req MarkDayRequest
	if !decode(w, r, &req) {
		return
	}
	status, err := attendance.ParseDayStatus(req.Status)
	if err != nil {
		h.fail(w, r, "Invalid status", err)
		return
	}
	if _, err := h.employee(r); err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}

	var rec *attendance.Record
	err = h.Store.WithTx(r.Context(), func(ctx context.Context) error {
		var err error
		if rec, err = h.Sheets.MarkDay(ctx, employeeParam(r), period, day, status); err != nil {
			return err
		}
		if req.OvertimeMinutes != nil {
			rec, err = h.Sheets.SetOvertime(ctx, employeeParam(r), period, day, *req.OvertimeMinutes)
		}
		return err
	})
	if err != nil {
		h.fail(w, r, "Failed to mark day", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(rec, h.restDay(r)))
}

// LockTimesheet finalizes the month and records its leave accrual.
func (h *Handler) LockTimesheet(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	rec, err := h.Sheets.Lock(r.Context(), employeeParam(r), period)
	if err != nil {
		h.fail(w, r, "Failed to lock timesheet", err)
		return
	}
	logging.FromContext(r.Context()).Info().
		Str("employee_id", string(rec.EmployeeID)).
		Str("period", period.String()).
		Msg("timesheet locked")
	writeJSON(w, http.StatusOK, toTimesheetDTO(rec, h.restDay(r)))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// GetLeave returns the leave balance with one row per accrued month.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	b, err := h.Leave.Balance(r.Context(), employeeParam(r))
	if err != nil {
		h.fail(w, r, "Failed to get leave balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveBalanceDTO(b))
}

// SetLeaveTaken replaces the employee's total leave taken.
func (h *Handler) SetLeaveTaken(w http.ResponseWriter, r *http.Request) {
	var req SetLeaveTakenRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Target.IsZero() {
		h.fail(w, r, "Invalid request", generic.NewValidation("target", "required"))
		return
	}
	if _, err := h.Leave.SetTotalLeaveTaken(r.Context(), employeeParam(r), req.Total, req.Target); err != nil {
		h.fail(w, r, "Failed to set leave taken", err)
		return
	}
	h.GetLeave(w, r)
}

// =============================================================================
// DEDUCTION AND MISSION HANDLERS
// =============================================================================

func (h *Handler) ListAdvances(w http.ResponseWriter, r *http.Request) {
	advances, err := h.Store.ListAdvances(r.Context(), employeeParam(r))
	if err != nil {
		h.fail(w, r, "Failed to list advances", err)
		return
	}
	dtos := make([]AdvanceDTO, len(advances))
	for i, a := range advances {
		dtos[i] = toAdvanceDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GrantAdvance records a salary advance to withhold from its target month.
func (h *Handler) GrantAdvance(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if !decode(w, r, &req) {
		return
	}
	emp, err := h.employee(r)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	grantedOn, err := generic.ParseDate(req.GrantedOn)
	if err != nil {
		h.fail(w, r, "Invalid granted_on", generic.NewValidation("granted_on", "use YYYY-MM-DD"))
		return
	}
	adv, err := h.Deductions.GrantAdvance(r.Context(), deduction.Advance{
		EmployeeID: emp.ID,
		Amount:     req.Amount,
		Target:     req.Target,
		GrantedOn:  grantedOn,
		Reason:     req.Reason,
	})
	if err != nil {
		h.fail(w, r, "Failed to grant advance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdvanceDTO(adv))
}

func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Store.ListLoans(r.Context(), employeeParam(r))
	if err != nil {
		h.fail(w, r, "Failed to list loans", err)
		return
	}
	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GrantLoan records a loan repaid by fixed monthly installments.
func (h *Handler) GrantLoan(w http.ResponseWriter, r *http.Request) {
	var req LoanRequest
	if !decode(w, r, &req) {
		return
	}
	emp, err := h.employee(r)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	loan, err := h.Deductions.GrantLoan(r.Context(), emp.ID, req.Principal, req.Installments, req.Reason)
	if err != nil {
		h.fail(w, r, "Failed to grant loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanDTO(loan))
}

// DeferInstallment postpones a loan's installment of one month.
func (h *Handler) DeferInstallment(w http.ResponseWriter, r *http.Request) {
	var req DeferralRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := h.Deductions.DeferInstallment(r.Context(), chi.URLParam(r, "id"), req.From, req.To, req.Reason)
	if err != nil {
		h.fail(w, r, "Failed to defer installment", err)
		return
	}
	writeJSON(w, http.StatusCreated, DeferralDTO{
		ID:     d.ID,
		LoanID: d.LoanID,
		From:   d.From.String(),
		To:     d.To.String(),
		Reason: d.Reason,
	})
}

// ListMissions returns the missions of ?period=YYYY-MM, the current month by default.
func (h *Handler) ListMissions(w http.ResponseWriter, r *http.Request) {
	period := generic.PeriodOf(h.Now())
	if raw := r.URL.Query().Get("period"); raw != "" {
		p, err := generic.ParsePayPeriod(raw)
		if err != nil {
			h.fail(w, r, "Invalid period", err)
			return
		}
		period = p
	}
	missions, err := h.Store.ListMissions(r.Context(), employeeParam(r), period)
	if err != nil {
		h.fail(w, r, "Failed to list missions", err)
		return
	}
	dtos := make([]MissionDTO, len(missions))
	for i, m := range missions {
		dtos[i] = toMissionDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMission records a trip; its bonus feeds the month's payroll.
func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req MissionRequest
	if !decode(w, r, &req) {
		return
	}
	emp, err := h.employee(r)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil || date.IsZero() {
		h.fail(w, r, "Invalid date", generic.NewValidation("date", "use YYYY-MM-DD"))
		return
	}
	if req.Bonus.IsNegative() {
		h.fail(w, r, "Invalid bonus", generic.NewValidation("bonus", "must not be negative"))
		return
	}
	m := payroll.Mission{
		ID:          uuid.NewString(),
		EmployeeID:  emp.ID,
		Date:        date,
		Destination: req.Destination,
		Bonus:       req.Bonus,
	}
	if err := h.Store.SaveMission(r.Context(), m); err != nil {
		h.fail(w, r, "Failed to save mission", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMissionDTO(m))
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

func (h *Handler) GetBrackets(w http.ResponseWriter, r *http.Request) {
	table, err := h.Taxes.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to load tax brackets", err)
		return
	}
	writeJSON(w, http.StatusOK, toBracketsDTO(table.Brackets()))
}

// ReplaceBrackets replaces the active table with JSON rows.
func (h *Handler) ReplaceBrackets(w http.ResponseWriter, r *http.Request) {
	var rows []BracketDTO
	if !decode(w, r, &rows) {
		return
	}
	brackets := make([]tax.Bracket, len(rows))
	for i, b := range rows {
		brackets[i] = tax.Bracket{Threshold: b.Threshold, Tax: b.Tax}
	}
	h.reloadBrackets(w, r, brackets)
}

// UploadBrackets replaces the active table from a csv or xlsx file.
func (h *Handler) UploadBrackets(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, "Missing file", generic.NewValidation("file", "%v", err))
		return
	}
	defer file.Close()

	var brackets []tax.Bracket
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		brackets, err = tax.ParseXLSX(file)
	case ".csv", ".txt", "":
		brackets, err = tax.ParseCSV(file)
	default:
		err = generic.NewValidation("file", "unsupported file type %q", header.Filename)
	}
	if err != nil {
		h.fail(w, r, "Invalid bracket file", err)
		return
	}
	h.reloadBrackets(w, r, brackets)
}

func (h *Handler) reloadBrackets(w http.ResponseWriter, r *http.Request, brackets []tax.Bracket) {
	n, err := h.Taxes.Reload(r.Context(), brackets)
	if err != nil {
		h.fail(w, r, "Failed to replace tax brackets", err)
		return
	}
	logging.FromContext(r.Context()).Info().Int("brackets", n).Msg("tax brackets replaced")
	h.GetBrackets(w, r)
}

func (h *Handler) GetParameters(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetParameters(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to load parameters", err)
		return
	}
	if p == nil {
		dto := toParametersDTO(payroll.DefaultParameters())
		dto.Default = true
		writeJSON(w, http.StatusOK, dto)
		return
	}
	writeJSON(w, http.StatusOK, toParametersDTO(*p))
}

func (h *Handler) SaveParameters(w http.ResponseWriter, r *http.Request) {
	var req ParametersDTO
	if !decode(w, r, &req) {
		return
	}
	p := req.toParameters()
	if err := p.Validate(); err != nil {
		h.fail(w, r, "Invalid parameters", err)
		return
	}
	if err := h.Store.SaveParameters(r.Context(), p); err != nil {
		h.fail(w, r, "Failed to save parameters", err)
		return
	}
	writeJSON(w, http.StatusOK, toParametersDTO(p))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// PreviewEmployee computes a draft without side effects. Ad-hoc bonuses are
// read from ?objective_bonus= and ?variable_bonus=.
func (h *Handler) PreviewEmployee(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	opts, err := optionsFromQuery(r)
	if err != nil {
		h.fail(w, r, "Invalid bonus", err)
		return
	}
	res, err := h.Engine.Preview(r.Context(), employeeParam(r), period, opts)
	if err != nil {
		h.fail(w, r, "Failed to compute payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(res))
}

// ValidateEmployee computes, commits deductions and stores the result.
func (h *Handler) ValidateEmployee(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	var req PayrollOptionsRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Engine.Validate(r.Context(), employeeParam(r), period, payroll.Options{
		ObjectiveBonus: req.ObjectiveBonus,
		VariableBonus:  req.VariableBonus,
	})
	if err != nil {
		h.fail(w, r, "Failed to validate payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(res))
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	res, err := h.Engine.MarkPaid(r.Context(), employeeParam(r), period)
	if err != nil {
		h.fail(w, r, "Failed to mark payroll paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(res))
}

// PreviewAll computes drafts for every active employee.
func (h *Handler) PreviewAll(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, h.Engine.PreviewAll)
}

// ValidateAll validates every active employee; failures are listed per employee.
func (h *Handler) ValidateAll(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, h.Engine.ValidateAll)
}

func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request, run func(context.Context, generic.PayPeriod) (*payroll.Batch, error)) {
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	batch, err := run(r.Context(), period)
	if err != nil {
		h.fail(w, r, "Payroll run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(batch))
}

// Journal streams the month's payroll journal workbook. Stored results are
// used when the month has been validated, a preview batch otherwise.
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	batch, err := h.storedBatch(ctx, period)
	if err == nil && len(batch.Results) == 0 {
		batch, err = h.Engine.PreviewAll(ctx, period)
	}
	if err != nil {
		h.fail(w, r, "Failed to build journal", err)
		return
	}
	employees, err := h.Store.ListEmployees(ctx, false)
	if err != nil {
		h.fail(w, r, "Failed to list employees", err)
		return
	}
	byID := make(map[generic.EmployeeID]payroll.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="journal-%s.xlsx"`, period.Compact()))
	if err := report.WriteJournal(w, batch, byID); err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("failed to write journal")
	}
}

func (h *Handler) storedBatch(ctx context.Context, period generic.PayPeriod) (*payroll.Batch, error) {
	results, err := h.Store.ListPayrollResults(ctx, period)
	if err != nil {
		return nil, err
	}
	batch := &payroll.Batch{Period: period, Results: results, Totals: payroll.NewTotals()}
	for _, res := range results {
		batch.Totals.Add(res)
	}
	return batch, nil
}

// Payslip renders the stored result as a PDF, or a draft when none is stored.
func (h *Handler) Payslip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := periodParam(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	emp, err := h.employee(r)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	res, err := h.Store.GetPayrollResult(ctx, emp.ID, period)
	if err == nil && res == nil {
		res, err = h.Engine.Preview(ctx, emp.ID, period, payroll.Options{})
	}
	if err != nil {
		h.fail(w, r, "Failed to compute payroll", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="payslip-%s-%s.pdf"`, emp.ID, period.Compact()))
	if err := report.WritePayslip(w, *emp, res); err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("failed to write payslip")
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeParam(r *http.Request) generic.EmployeeID {
	return generic.EmployeeID(chi.URLParam(r, "id"))
}

func periodParam(r *http.Request) (generic.PayPeriod, error) {
	year, errY := strconv.Atoi(chi.URLParam(r, "year"))
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	if errY != nil || errM != nil {
		return generic.PayPeriod{}, generic.NewValidation("period", "year and month must be numbers")
	}
	return generic.NewPayPeriod(year, month)
}

func optionsFromQuery(r *http.Request) (payroll.Options, error) {
	opts := payroll.Options{}
	for key, dst := range map[string]*decimal.Decimal{
		"objective_bonus": &opts.ObjectiveBonus,
		"variable_bonus":  &opts.VariableBonus,
	} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return opts, generic.NewValidation(key, "not an amount: %q", raw)
		}
		*dst = v
	}
	return opts, nil
}

// decode reads a JSON body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, generic.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status; server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
