package payroll

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Employee holds the contract attributes the computation reads.
// Employees are deactivated, never deleted.
type Employee struct {
	ID            generic.EmployeeID
	FirstName     string
	LastName      string
	JobTitle      string
	BaseSalary    decimal.Decimal
	HireDate      time.Time
	ContractEnd   time.Time // zero when open-ended
	NightSecurity bool
	SpouseAtHome  bool
	Active        bool
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// IsDriver matches "driver" or "chauffeur" in the job title.
func (e Employee) IsDriver() bool {
	title := strings.ToLower(e.JobTitle)
	return strings.Contains(title, "driver") || strings.Contains(title, "chauffeur")
}

// SeniorityYears counts whole 365-day years from hire to asOf, never negative.
func (e Employee) SeniorityYears(asOf time.Time) int {
	return generic.WholeYearsBetween(e.HireDate, asOf)
}

func (e Employee) Validate() error {
	if e.ID == "" {
		return generic.NewValidation("id", "required")
	}
	if e.BaseSalary.IsNegative() {
		return generic.NewValidation("base_salary", "must not be negative")
	}
	if e.HireDate.IsZero() {
		return generic.NewValidation("hire_date", "required")
	}
	if !e.ContractEnd.IsZero() && e.ContractEnd.Before(e.HireDate) {
		return generic.NewValidation("contract_end", "before hire date")
	}
	return nil
}

type EmployeeStore interface {
	// GetEmployee returns nil, nil when unknown.
	GetEmployee(ctx context.Context, id generic.EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)
	SaveEmployee(ctx context.Context, e Employee) error
}

// =============================================================================
// MISSIONS
// =============================================================================

// Mission is one trip driven by an employee, carrying its travel bonus.
type Mission struct {
	ID          string
	EmployeeID  generic.EmployeeID
	Date        time.Time
	Destination string
	Bonus       decimal.Decimal
}

// MissionProvider sums the travel bonuses of a month.
type MissionProvider interface {
	MissionBonusTotal(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (decimal.Decimal, error)
}

type MissionStore interface {
	MissionProvider
	// ListMissions returns the missions dated within period, by date.
	ListMissions(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) ([]Mission, error)
	SaveMission(ctx context.Context, m Mission) error
}
