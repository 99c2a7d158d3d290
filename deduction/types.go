/*
Package deduction computes what is withheld from pay for advances and loans.

PURPOSE:
  An Advance is a one-time cash advance deducted in a target payroll month.
  A Loan is repaid in fixed monthly installments until the principal is
  withheld. When disposable income cannot cover both, a deferral policy caps
  what is withheld and reports the rest as deferred.

PREVIEW VS VALIDATION:
  Resolving dues and applying the policy are pure reads. Only Commit, run
  inside the payroll validation transaction, writes: installment rows,
  loan cumulative withheld and status, advance deducted flags and the
  carry-over advance for any deferred advance remainder.

IDEMPOTENCE:
  - Advances due = every advance targeting the month, deducted or not.
  - A loan with an installment already recorded for the month is due that
    recorded amount again, never a fresh computation.
  - Commit adjusts the loan's withheld amount by (new - recorded), so
    validating a month twice leaves the loan where one validation would.

INVARIANTS:
  - Withheld <= Principal
  - Status is settled iff Withheld >= Principal
  - At most one installment per (loan, month)

SEE ALSO:
  - resolver.go: dues, Commit, DeferInstallment
  - policy.go: ApplyDeferralPolicy
*/
package deduction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// ADVANCE
// =============================================================================

type Advance struct {
	ID         string
	EmployeeID generic.EmployeeID
	Amount     decimal.Decimal
	Target     generic.PayPeriod
	GrantedOn  time.Time
	Reason     string

	// Set when the target month is validated. DeductedAmount may be lower
	// than Amount when the remainder was carried over.
	Deducted       bool
	DeductedAmount decimal.Decimal
	DeductedOn     time.Time

	// CarriedFromID links a carry-over advance to the advance it continues.
	CarriedFromID string
}

// CarryOverID is the deterministic id of the advance continuing id.
func CarryOverID(id string) string { return "carry-" + id }

// =============================================================================
// LOAN
// =============================================================================

type LoanStatus string

const (
	LoanInProgress LoanStatus = "in_progress"
	LoanSettled    LoanStatus = "settled"
)

type Loan struct {
	ID                string
	EmployeeID        generic.EmployeeID
	Principal         decimal.Decimal
	Installments      int
	InstallmentAmount decimal.Decimal
	Withheld          decimal.Decimal
	Status            LoanStatus
	GrantedOn         time.Time
	Reason            string
}

// NewLoan computes the fixed installment principal / installments, rounded to cents.
func NewLoan(id string, employeeID generic.EmployeeID, principal decimal.Decimal, installments int, grantedOn time.Time) (Loan, error) {
	if !principal.IsPositive() {
		return Loan{}, generic.NewValidation("principal", "must be positive")
	}
	if installments <= 0 {
		return Loan{}, generic.NewValidation("installments", "must be positive, got %d", installments)
	}
	return Loan{
		ID:                id,
		EmployeeID:        employeeID,
		Principal:         principal,
		Installments:      installments,
		InstallmentAmount: generic.RoundCurrency(principal.Div(decimal.NewFromInt(int64(installments)))),
		Withheld:          decimal.Zero,
		Status:            LoanInProgress,
		GrantedOn:         grantedOn,
	}, nil
}

// Outstanding is what is left to withhold.
func (l Loan) Outstanding() decimal.Decimal {
	return generic.ClampZero(l.Principal.Sub(l.Withheld))
}

// settle recomputes Status from Withheld.
func (l *Loan) settle() {
	if l.Withheld.GreaterThanOrEqual(l.Principal) {
		l.Status = LoanSettled
		return
	}
	l.Status = LoanInProgress
}

// Installment is the amount withheld for a loan in one month.
type Installment struct {
	ID         string
	LoanID     string
	EmployeeID generic.EmployeeID
	Period     generic.PayPeriod
	Amount     decimal.Decimal
	RecordedOn time.Time
}

// Deferral postpones a loan's installment of From. Nothing is withheld for
// that loan in From; the outstanding principal stays due in later months.
type Deferral struct {
	ID         string
	LoanID     string
	EmployeeID generic.EmployeeID
	From       generic.PayPeriod
	To         generic.PayPeriod
	Reason     string
	CreatedOn  time.Time
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	GetAdvance(ctx context.Context, id string) (*Advance, error)
	ListAdvances(ctx context.Context, employeeID generic.EmployeeID) ([]Advance, error)
	// AdvancesForPeriod returns the advances targeting period, oldest grant first.
	AdvancesForPeriod(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) ([]Advance, error)
	SaveAdvance(ctx context.Context, a Advance) error
	// DeleteAdvance is a no-op for unknown ids.
	DeleteAdvance(ctx context.Context, id string) error

	GetLoan(ctx context.Context, id string) (*Loan, error)
	// ListLoans returns the employee's loans, oldest grant first.
	ListLoans(ctx context.Context, employeeID generic.EmployeeID) ([]Loan, error)
	SaveLoan(ctx context.Context, l Loan) error

	InstallmentsForPeriod(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) ([]Installment, error)
	// SaveInstallment upserts by (LoanID, Period).
	SaveInstallment(ctx context.Context, i Installment) error
	DeleteInstallment(ctx context.Context, loanID string, period generic.PayPeriod) error

	DeferralsForPeriod(ctx context.Context, employeeID generic.EmployeeID, from generic.PayPeriod) ([]Deferral, error)
	// SaveDeferral upserts by (LoanID, From).
	SaveDeferral(ctx context.Context, d Deferral) error
}
