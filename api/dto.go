/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are decimal.Decimal, serialized as JSON strings ("1234.50") so no
  precision is lost. Requests accept strings or numbers.

DATES:
  Calendar dates are "YYYY-MM-DD", pay periods "YYYY-MM", instants RFC 3339.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tax"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID            string          `json:"id"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	JobTitle      string          `json:"job_title"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	HireDate      string          `json:"hire_date"`
	ContractEnd   string          `json:"contract_end,omitempty"`
	NightSecurity bool            `json:"night_security"`
	SpouseAtHome  bool            `json:"spouse_at_home"`
	Active        bool            `json:"active"`
	IsDriver      bool            `json:"is_driver"`
}

// SaveEmployeeRequest creates or replaces an employee. Active defaults to true.
type SaveEmployeeRequest struct {
	ID            string          `json:"id"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	JobTitle      string          `json:"job_title"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	HireDate      string          `json:"hire_date"`
	ContractEnd   string          `json:"contract_end,omitempty"`
	NightSecurity bool            `json:"night_security"`
	SpouseAtHome  bool            `json:"spouse_at_home"`
	Active        *bool           `json:"active,omitempty"`
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:            string(e.ID),
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		JobTitle:      e.JobTitle,
		BaseSalary:    e.BaseSalary,
		HireDate:      generic.FormatDate(e.HireDate),
		ContractEnd:   generic.FormatDate(e.ContractEnd),
		NightSecurity: e.NightSecurity,
		SpouseAtHome:  e.SpouseAtHome,
		Active:        e.Active,
		IsDriver:      e.IsDriver(),
	}
}

func (req SaveEmployeeRequest) toEmployee() (payroll.Employee, error) {
	hire, err := generic.ParseDate(req.HireDate)
	if err != nil {
		return payroll.Employee{}, generic.NewValidation("hire_date", "use YYYY-MM-DD")
	}
	end, err := generic.ParseDate(req.ContractEnd)
	if err != nil {
		return payroll.Employee{}, generic.NewValidation("contract_end", "use YYYY-MM-DD")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return payroll.Employee{
		ID:            generic.EmployeeID(req.ID),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		JobTitle:      req.JobTitle,
		BaseSalary:    req.BaseSalary,
		HireDate:      hire,
		ContractEnd:   end,
		NightSecurity: req.NightSecurity,
		SpouseAtHome:  req.SpouseAtHome,
		Active:        active,
	}, nil
}

// =============================================================================
// TIMESHEETS
// =============================================================================

type TimesheetDTO struct {
	EmployeeID string     `json:"employee_id"`
	Period     string     `json:"period"`
	Locked     bool       `json:"locked"`
	Days       []DayDTO   `json:"days"`
	Summary    SummaryDTO `json:"summary"`
}

type DayDTO struct {
	Day             int                  `json:"day"`
	Date            string               `json:"date"`
	Status          attendance.DayStatus `json:"status"`
	OvertimeMinutes int                  `json:"overtime_minutes,omitempty"`
}

type SummaryDTO struct {
	DaysWorked         int            `json:"days_worked"`
	BusinessDaysWorked int            `json:"business_days_worked"`
	ByStatus           map[string]int `json:"by_status"`
	OvertimeMinutes    int            `json:"overtime_minutes"`
}

// MarkDayRequest sets one day's status, and optionally its overtime.
type MarkDayRequest struct {
	Status          string `json:"status"`
	OvertimeMinutes *int   `json:"overtime_minutes,omitempty"`
}

func toTimesheetDTO(rec *attendance.Record, restDay time.Weekday) TimesheetDTO {
	sum := attendance.Aggregate(rec, restDay)
	dto := TimesheetDTO{
		EmployeeID: string(rec.EmployeeID),
		Period:     rec.Period.String(),
		Locked:     rec.Locked,
		Days:       make([]DayDTO, 0, rec.Period.DaysInMonth()),
		Summary: SummaryDTO{
			DaysWorked:         sum.DaysWorked,
			BusinessDaysWorked: sum.BusinessDaysWorked,
			ByStatus:           make(map[string]int, len(sum.ByStatus)),
			OvertimeMinutes:    sum.OvertimeMinutes,
		},
	}
	for day := 1; day <= rec.Period.DaysInMonth(); day++ {
		dto.Days = append(dto.Days, DayDTO{
			Day:             day,
			Date:            generic.FormatDate(rec.Period.Date(day)),
			Status:          rec.Status(day),
			OvertimeMinutes: rec.OvertimeMinutes[day-1],
		})
	}
	for status, n := range sum.ByStatus {
		dto.Summary.ByStatus[status.String()] = n
	}
	return dto
}

// =============================================================================
// LEAVE
// =============================================================================

type LeaveBalanceDTO struct {
	EmployeeID string           `json:"employee_id"`
	Accrued    decimal.Decimal  `json:"accrued"`
	Taken      decimal.Decimal  `json:"taken"`
	Remaining  decimal.Decimal  `json:"remaining"`
	Periods    []LeavePeriodDTO `json:"periods"`
}

type LeavePeriodDTO struct {
	Period    string          `json:"period"`
	Accrued   decimal.Decimal `json:"accrued"`
	Taken     decimal.Decimal `json:"taken"`
	Remaining decimal.Decimal `json:"remaining"`
	ChargedTo string          `json:"charged_to"`
}

// SetLeaveTakenRequest replaces the total leave taken; Target is the payroll
// month the days are charged to.
type SetLeaveTakenRequest struct {
	Total  decimal.Decimal   `json:"total"`
	Target generic.PayPeriod `json:"target"`
}

func toLeaveBalanceDTO(b leave.Balance) LeaveBalanceDTO {
	dto := LeaveBalanceDTO{
		EmployeeID: string(b.EmployeeID),
		Accrued:    b.Accrued,
		Taken:      b.Taken,
		Remaining:  b.Remaining,
		Periods:    make([]LeavePeriodDTO, 0, len(b.Periods)),
	}
	for _, p := range b.Periods {
		dto.Periods = append(dto.Periods, LeavePeriodDTO{
			Period:    p.Period.String(),
			Accrued:   p.Accrued,
			Taken:     p.Taken,
			Remaining: p.Remaining,
			ChargedTo: p.ChargedTo().String(),
		})
	}
	return dto
}

// =============================================================================
// ADVANCES, LOANS, MISSIONS
// =============================================================================

type AdvanceRequest struct {
	Amount    decimal.Decimal   `json:"amount"`
	Target    generic.PayPeriod `json:"target"`
	GrantedOn string            `json:"granted_on,omitempty"`
	Reason    string            `json:"reason"`
}

type AdvanceDTO struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	Amount         decimal.Decimal `json:"amount"`
	Target         string          `json:"target"`
	GrantedOn      string          `json:"granted_on"`
	Reason         string          `json:"reason,omitempty"`
	Deducted       bool            `json:"deducted"`
	DeductedAmount decimal.Decimal `json:"deducted_amount"`
	CarriedFromID  string          `json:"carried_from_id,omitempty"`
}

func toAdvanceDTO(a deduction.Advance) AdvanceDTO {
	return AdvanceDTO{
		ID:             a.ID,
		EmployeeID:     string(a.EmployeeID),
		Amount:         a.Amount,
		Target:         a.Target.String(),
		GrantedOn:      generic.FormatDate(a.GrantedOn),
		Reason:         a.Reason,
		Deducted:       a.Deducted,
		DeductedAmount: a.DeductedAmount,
		CarriedFromID:  a.CarriedFromID,
	}
}

type LoanRequest struct {
	Principal    decimal.Decimal `json:"principal"`
	Installments int             `json:"installments"`
	Reason       string          `json:"reason"`
}

type LoanDTO struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employee_id"`
	Principal         decimal.Decimal `json:"principal"`
	Installments      int             `json:"installments"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	Withheld          decimal.Decimal `json:"withheld"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	Status            string          `json:"status"`
	GrantedOn         string          `json:"granted_on"`
	Reason            string          `json:"reason,omitempty"`
}

func toLoanDTO(l deduction.Loan) LoanDTO {
	return LoanDTO{
		ID:                l.ID,
		EmployeeID:        string(l.EmployeeID),
		Principal:         l.Principal,
		Installments:      l.Installments,
		InstallmentAmount: l.InstallmentAmount,
		Withheld:          l.Withheld,
		Outstanding:       l.Outstanding(),
		Status:            string(l.Status),
		GrantedOn:         generic.FormatDate(l.GrantedOn),
		Reason:            l.Reason,
	}
}

type DeferralRequest struct {
	From   generic.PayPeriod `json:"from"`
	To     generic.PayPeriod `json:"to"`
	Reason string            `json:"reason"`
}

type DeferralDTO struct {
	ID     string `json:"id"`
	LoanID string `json:"loan_id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

type MissionRequest struct {
	Date        string          `json:"date"`
	Destination string          `json:"destination"`
	Bonus       decimal.Decimal `json:"bonus"`
}

type MissionDTO struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	Date        string          `json:"date"`
	Destination string          `json:"destination"`
	Bonus       decimal.Decimal `json:"bonus"`
}

func toMissionDTO(m payroll.Mission) MissionDTO {
	return MissionDTO{
		ID:          m.ID,
		EmployeeID:  string(m.EmployeeID),
		Date:        generic.FormatDate(m.Date),
		Destination: m.Destination,
		Bonus:       m.Bonus,
	}
}

// =============================================================================
// TAX AND PARAMETERS
// =============================================================================

type BracketDTO struct {
	Threshold decimal.Decimal `json:"threshold"`
	Tax       decimal.Decimal `json:"tax"`
}

type BracketsDTO struct {
	Count    int          `json:"count"`
	Brackets []BracketDTO `json:"brackets"`
}

func toBracketsDTO(rows []tax.Bracket) BracketsDTO {
	dto := BracketsDTO{Count: len(rows), Brackets: make([]BracketDTO, 0, len(rows))}
	for _, b := range rows {
		dto.Brackets = append(dto.Brackets, BracketDTO{Threshold: b.Threshold, Tax: b.Tax})
	}
	return dto
}

type ParametersDTO struct {
	HardshipRate          decimal.Decimal `json:"hardship_rate"`
	PermanenceRate        decimal.Decimal `json:"permanence_rate"`
	SeniorityRatePerYear  decimal.Decimal `json:"seniority_rate_per_year"`
	EncouragementRate     decimal.Decimal `json:"encouragement_rate"`
	EncouragementMinYears int             `json:"encouragement_min_years"`
	DriverDailyAmount     decimal.Decimal `json:"driver_daily_amount"`
	NightSecurityAmount   decimal.Decimal `json:"night_security_amount"`
	MealDailyAmount       decimal.Decimal `json:"meal_daily_amount"`
	TransportDailyAmount  decimal.Decimal `json:"transport_daily_amount"`
	SpouseAtHomeAmount    decimal.Decimal `json:"spouse_at_home_amount"`
	SocialSecurityRate    decimal.Decimal `json:"social_security_rate"`
	OvertimeEnabled       bool            `json:"overtime_enabled"`
	ProratedTaxEnabled    bool            `json:"prorated_tax_enabled"`
	LeaveCostMode         string          `json:"leave_cost_mode"`
	BusinessDaysPerMonth  int             `json:"business_days_per_month"`
	WeeklyRestDay         int             `json:"weekly_rest_day"`

	// Default is set on responses when no parameters are stored yet.
	Default bool `json:"default,omitempty"`
}

func toParametersDTO(p payroll.Parameters) ParametersDTO {
	return ParametersDTO{
		HardshipRate:          p.HardshipRate,
		PermanenceRate:        p.PermanenceRate,
		SeniorityRatePerYear:  p.SeniorityRatePerYear,
		EncouragementRate:     p.EncouragementRate,
		EncouragementMinYears: p.EncouragementMinYears,
		DriverDailyAmount:     p.DriverDailyAmount,
		NightSecurityAmount:   p.NightSecurityAmount,
		MealDailyAmount:       p.MealDailyAmount,
		TransportDailyAmount:  p.TransportDailyAmount,
		SpouseAtHomeAmount:    p.SpouseAtHomeAmount,
		SocialSecurityRate:    p.SocialSecurityRate,
		OvertimeEnabled:       p.OvertimeEnabled,
		ProratedTaxEnabled:    p.ProratedTaxEnabled,
		LeaveCostMode:         string(p.LeaveCostMode),
		BusinessDaysPerMonth:  p.BusinessDaysPerMonth,
		WeeklyRestDay:         int(p.WeeklyRestDay),
	}
}

func (dto ParametersDTO) toParameters() payroll.Parameters {
	return payroll.Parameters{
		HardshipRate:          dto.HardshipRate,
		PermanenceRate:        dto.PermanenceRate,
		SeniorityRatePerYear:  dto.SeniorityRatePerYear,
		EncouragementRate:     dto.EncouragementRate,
		EncouragementMinYears: dto.EncouragementMinYears,
		DriverDailyAmount:     dto.DriverDailyAmount,
		NightSecurityAmount:   dto.NightSecurityAmount,
		MealDailyAmount:       dto.MealDailyAmount,
		TransportDailyAmount:  dto.TransportDailyAmount,
		SpouseAtHomeAmount:    dto.SpouseAtHomeAmount,
		SocialSecurityRate:    dto.SocialSecurityRate,
		OvertimeEnabled:       dto.OvertimeEnabled,
		ProratedTaxEnabled:    dto.ProratedTaxEnabled,
		LeaveCostMode:         payroll.LeaveCostMode(dto.LeaveCostMode),
		BusinessDaysPerMonth:  dto.BusinessDaysPerMonth,
		WeeklyRestDay:         time.Weekday(dto.WeeklyRestDay),
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

// PayrollOptionsRequest carries the ad-hoc bonuses of one computation.
type PayrollOptionsRequest struct {
	ObjectiveBonus decimal.Decimal `json:"objective_bonus"`
	VariableBonus  decimal.Decimal `json:"variable_bonus"`
}

type ResultDTO struct {
	EmployeeID string `json:"employee_id"`
	Period     string `json:"period"`
	Status     string `json:"status"`

	DaysWorked         int             `json:"days_worked"`
	BusinessDaysWorked int             `json:"business_days_worked"`
	LeaveDays          decimal.Decimal `json:"leave_days"`
	SeniorityYears     int             `json:"seniority_years"`
	ProrationFactor    decimal.Decimal `json:"proration_factor"`

	BaseSalary     decimal.Decimal `json:"base_salary"`
	BasePay        decimal.Decimal `json:"base_pay"`
	OvertimeHours  decimal.Decimal `json:"overtime_hours"`
	OvertimeAmount decimal.Decimal `json:"overtime_amount"`

	HardshipAllowance   decimal.Decimal `json:"hardship_allowance"`
	PermanenceAllowance decimal.Decimal `json:"permanence_allowance"`
	SeniorityAllowance  decimal.Decimal `json:"seniority_allowance"`
	EncouragementBonus  decimal.Decimal `json:"encouragement_bonus"`
	DriverBonus         decimal.Decimal `json:"driver_bonus"`
	NightSecurityBonus  decimal.Decimal `json:"night_security_bonus"`
	MissionBonus        decimal.Decimal `json:"mission_bonus"`
	ObjectiveBonus      decimal.Decimal `json:"objective_bonus"`
	VariableBonus       decimal.Decimal `json:"variable_bonus"`

	ContributionBase   decimal.Decimal `json:"contribution_base"`
	SocialSecurity     decimal.Decimal `json:"social_security"`
	MealAllowance      decimal.Decimal `json:"meal_allowance"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`
	TaxablePay         decimal.Decimal `json:"taxable_pay"`
	Tax                decimal.Decimal `json:"tax"`
	DisposableIncome   decimal.Decimal `json:"disposable_income"`

	AdvancesDue      decimal.Decimal `json:"advances_due"`
	AdvancesApplied  decimal.Decimal `json:"advances_applied"`
	AdvancesDeferred decimal.Decimal `json:"advances_deferred"`
	LoansDue         decimal.Decimal `json:"loans_due"`
	LoansApplied     decimal.Decimal `json:"loans_applied"`
	LoansDeferred    decimal.Decimal `json:"loans_deferred"`
	DeductionAlert   string          `json:"deduction_alert,omitempty"`

	SpouseBonus decimal.Decimal `json:"spouse_bonus"`
	NetPay      decimal.Decimal `json:"net_pay"`

	Warnings    []string `json:"warnings,omitempty"`
	ComputedAt  string   `json:"computed_at"`
	ValidatedAt string   `json:"validated_at,omitempty"`
	PaidAt      string   `json:"paid_at,omitempty"`
}

func toResultDTO(r *payroll.Result) ResultDTO {
	return ResultDTO{
		EmployeeID:          string(r.EmployeeID),
		Period:              r.Period.String(),
		Status:              string(r.Status),
		DaysWorked:          r.DaysWorked,
		BusinessDaysWorked:  r.BusinessDaysWorked,
		LeaveDays:           r.LeaveDays,
		SeniorityYears:      r.SeniorityYears,
		ProrationFactor:     r.ProrationFactor,
		BaseSalary:          r.BaseSalary,
		BasePay:             r.BasePay,
		OvertimeHours:       r.OvertimeHours,
		OvertimeAmount:      r.OvertimeAmount,
		HardshipAllowance:   r.HardshipAllowance,
		PermanenceAllowance: r.PermanenceAllowance,
		SeniorityAllowance:  r.SeniorityAllowance,
		EncouragementBonus:  r.EncouragementBonus,
		DriverBonus:         r.DriverBonus,
		NightSecurityBonus:  r.NightSecurityBonus,
		MissionBonus:        r.MissionBonus,
		ObjectiveBonus:      r.ObjectiveBonus,
		VariableBonus:       r.VariableBonus,
		ContributionBase:    r.ContributionBase,
		SocialSecurity:      r.SocialSecurity,
		MealAllowance:       r.MealAllowance,
		TransportAllowance:  r.TransportAllowance,
		TaxablePay:          r.TaxablePay,
		Tax:                 r.Tax,
		DisposableIncome:    r.DisposableIncome,
		AdvancesDue:         r.AdvancesDue,
		AdvancesApplied:     r.AdvancesApplied,
		AdvancesDeferred:    r.AdvancesDeferred,
		LoansDue:            r.LoansDue,
		LoansApplied:        r.LoansApplied,
		LoansDeferred:       r.LoansDeferred,
		DeductionAlert:      string(r.DeductionAlert),
		SpouseBonus:         r.SpouseBonus,
		NetPay:              r.NetPay,
		Warnings:            r.Warnings,
		ComputedAt:          formatInstant(r.ComputedAt),
		ValidatedAt:         formatInstant(r.ValidatedAt),
		PaidAt:              formatInstant(r.PaidAt),
	}
}

type EmployeeErrorDTO struct {
	EmployeeID string `json:"employee_id"`
	Step       string `json:"step"`
	Error      string `json:"error"`
}

type BatchDTO struct {
	Period  string             `json:"period"`
	Results []ResultDTO        `json:"results"`
	Errors  []EmployeeErrorDTO `json:"errors"`
	Totals  TotalsDTO          `json:"totals"`
}

type TotalsDTO struct {
	Employees           int             `json:"employees"`
	BaseSalary          decimal.Decimal `json:"base_salary"`
	BasePay             decimal.Decimal `json:"base_pay"`
	OvertimeAmount      decimal.Decimal `json:"overtime_amount"`
	HardshipAllowance   decimal.Decimal `json:"hardship_allowance"`
	PermanenceAllowance decimal.Decimal `json:"permanence_allowance"`
	SeniorityAllowance  decimal.Decimal `json:"seniority_allowance"`
	EncouragementBonus  decimal.Decimal `json:"encouragement_bonus"`
	DriverBonus         decimal.Decimal `json:"driver_bonus"`
	NightSecurityBonus  decimal.Decimal `json:"night_security_bonus"`
	MissionBonus        decimal.Decimal `json:"mission_bonus"`
	ObjectiveBonus      decimal.Decimal `json:"objective_bonus"`
	VariableBonus       decimal.Decimal `json:"variable_bonus"`
	Allowances          decimal.Decimal `json:"allowances"`
	ContributionBase    decimal.Decimal `json:"contribution_base"`
	SocialSecurity      decimal.Decimal `json:"social_security"`
	MealAllowance       decimal.Decimal `json:"meal_allowance"`
	TransportAllowance  decimal.Decimal `json:"transport_allowance"`
	TaxablePay          decimal.Decimal `json:"taxable_pay"`
	Tax                 decimal.Decimal `json:"tax"`
	DisposableIncome    decimal.Decimal `json:"disposable_income"`
	AdvancesDue         decimal.Decimal `json:"advances_due"`
	AdvancesApplied     decimal.Decimal `json:"advances_applied"`
	AdvancesDeferred    decimal.Decimal `json:"advances_deferred"`
	LoansDue            decimal.Decimal `json:"loans_due"`
	LoansApplied        decimal.Decimal `json:"loans_applied"`
	LoansDeferred       decimal.Decimal `json:"loans_deferred"`
	SpouseBonus         decimal.Decimal `json:"spouse_bonus"`
	NetPay              decimal.Decimal `json:"net_pay"`
}

func toBatchDTO(b *payroll.Batch) BatchDTO {
	dto := BatchDTO{
		Period:  b.Period.String(),
		Results: make([]ResultDTO, 0, len(b.Results)),
		Errors:  make([]EmployeeErrorDTO, 0, len(b.Errors)),
		Totals:  TotalsDTO(b.Totals),
	}
	for _, r := range b.Results {
		dto.Results = append(dto.Results, toResultDTO(r))
	}
	for _, e := range b.Errors {
		dto.Errors = append(dto.Errors, EmployeeErrorDTO{
			EmployeeID: string(e.EmployeeID),
			Step:       e.Step,
			Error:      e.Err.Error(),
		})
	}
	return dto
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
