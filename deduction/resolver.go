package deduction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// DUES
// =============================================================================

// LoanDue is one loan's amount due for a month.
type LoanDue struct {
	Loan     Loan
	Amount   decimal.Decimal
	Recorded *Installment // installment already recorded for the month
	Deferred bool
}

// Due gathers everything owed by one employee for one month.
type Due struct {
	EmployeeID    generic.EmployeeID
	Period        generic.PayPeriod
	Advances      []Advance
	AdvancesTotal decimal.Decimal
	Loans         []LoanDue
	LoansTotal    decimal.Decimal
}

type Resolver struct {
	Store Store
	Now   func() time.Time
}

func NewResolver(store Store) *Resolver {
	return &Resolver{Store: store, Now: time.Now}
}

// AdvancesDue sums every advance targeting the month, deducted or not.
func (r *Resolver) AdvancesDue(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (decimal.Decimal, []Advance, error) {
	advances, err := r.Store.AdvancesForPeriod(ctx, employeeID, period)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("load advances: %w", err)
	}
	total := decimal.Zero
	for _, a := range advances {
		total = total.Add(a.Amount)
	}
	return total, advances, nil
}

// LoanInstallmentDue resolves every loan's installment for the month.
// Considered loans: in progress, or holding an installment for the month.
func (r *Resolver) LoanInstallmentDue(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (decimal.Decimal, []LoanDue, error) {
	loans, err := r.Store.ListLoans(ctx, employeeID)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("load loans: %w", err)
	}
	installments, err := r.Store.InstallmentsForPeriod(ctx, employeeID, period)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("load installments: %w", err)
	}
	deferrals, err := r.Store.DeferralsForPeriod(ctx, employeeID, period)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("load deferrals: %w", err)
	}

	recorded := make(map[string]Installment, len(installments))
	for _, i := range installments {
		recorded[i.LoanID] = i
	}
	deferred := make(map[string]bool, len(deferrals))
	for _, d := range deferrals {
		deferred[d.LoanID] = true
	}

	total := decimal.Zero
	var dues []LoanDue
	for _, loan := range loans {
		inst, hasInst := recorded[loan.ID]
		if loan.Status != LoanInProgress && !hasInst {
			continue
		}
		due := LoanDue{Loan: loan, Amount: decimal.Zero}
		if hasInst {
			i := inst
			due.Recorded = &i
		}
		switch {
		case deferred[loan.ID]:
			due.Deferred = true
		case hasInst:
			due.Amount = inst.Amount
		default:
			due.Amount = generic.MinDecimal(loan.InstallmentAmount, loan.Outstanding())
		}
		total = total.Add(due.Amount)
		dues = append(dues, due)
	}
	return total, dues, nil
}

// Resolve gathers advances and loans due.
func (r *Resolver) Resolve(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (Due, error) {
	advTotal, advances, err := r.AdvancesDue(ctx, employeeID, period)
	if err != nil {
		return Due{}, err
	}
	loanTotal, loans, err := r.LoanInstallmentDue(ctx, employeeID, period)
	if err != nil {
		return Due{}, err
	}
	return Due{
		EmployeeID:    employeeID,
		Period:        period,
		Advances:      advances,
		AdvancesTotal: advTotal,
		Loans:         loans,
		LoansTotal:    loanTotal,
	}, nil
}

// =============================================================================
// COMMIT - Validation side effects, caller provides the transaction
// =============================================================================

// Commit records what app withholds from due. Must run inside the payroll
// validation transaction. Once an advance's carry-over has been withheld in
// its own month, a different application to that advance is a ValidationError.
func (r *Resolver) Commit(ctx context.Context, due Due, app Application) error {
	today := generic.StartOfDay(r.Now())

	remaining := app.LoansApplied
	for _, ld := range due.Loans {
		applied := generic.MinDecimal(remaining, ld.Amount)
		remaining = remaining.Sub(applied)
		if err := r.commitLoan(ctx, due, ld, applied, today); err != nil {
			return err
		}
	}

	remaining = app.AdvancesApplied
	for _, adv := range due.Advances {
		applied := generic.MinDecimal(remaining, adv.Amount)
		remaining = remaining.Sub(applied)
		if err := r.commitAdvance(ctx, due, adv, applied, today); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) commitLoan(ctx context.Context, due Due, ld LoanDue, applied decimal.Decimal, today time.Time) error {
	loan, err := r.Store.GetLoan(ctx, ld.Loan.ID)
	if err != nil {
		return fmt.Errorf("load loan %s: %w", ld.Loan.ID, err)
	}
	if loan == nil {
		return generic.NewNotFound("loan", ld.Loan.ID)
	}

	previous := decimal.Zero
	if ld.Recorded != nil {
		previous = ld.Recorded.Amount
	}
	loan.Withheld = loan.Withheld.Add(applied).Sub(previous)
	loan.settle()

	switch {
	case applied.IsPositive():
		inst := Installment{
			ID:         uuid.NewString(),
			LoanID:     loan.ID,
			EmployeeID: due.EmployeeID,
			Period:     due.Period,
			Amount:     applied,
			RecordedOn: today,
		}
		if ld.Recorded != nil {
			inst.ID = ld.Recorded.ID
		}
		if err := r.Store.SaveInstallment(ctx, inst); err != nil {
			return fmt.Errorf("save installment: %w", err)
		}
	case ld.Recorded != nil:
		if err := r.Store.DeleteInstallment(ctx, loan.ID, due.Period); err != nil {
			return fmt.Errorf("delete installment: %w", err)
		}
	}
	return r.Store.SaveLoan(ctx, *loan)
}

func (r *Resolver) commitAdvance(ctx context.Context, due Due, adv Advance, applied decimal.Decimal, today time.Time) error {
	carryID := CarryOverID(adv.ID)
	existing, err := r.Store.GetAdvance(ctx, carryID)
	if err != nil {
		return fmt.Errorf("load carry-over %s: %w", carryID, err)
	}
	if existing != nil && existing.Deducted {
		// The remainder was withheld in its own month, so the split is final.
		if adv.Deducted && applied.Equal(adv.DeductedAmount) {
			return nil
		}
		return generic.NewValidation("advance",
			"advance %s carried %s into %s, already withheld there; %s would withhold %s instead of %s",
			adv.ID, existing.Amount, existing.Target, due.Period, applied, adv.DeductedAmount)
	}

	adv.Deducted = true
	adv.DeductedAmount = applied
	adv.DeductedOn = today
	if err := r.Store.SaveAdvance(ctx, adv); err != nil {
		return fmt.Errorf("save advance %s: %w", adv.ID, err)
	}

	rest := adv.Amount.Sub(applied)
	if !rest.IsPositive() {
		return r.Store.DeleteAdvance(ctx, carryID)
	}
	return r.Store.SaveAdvance(ctx, Advance{
		ID:             carryID,
		EmployeeID:     adv.EmployeeID,
		Amount:         rest,
		Target:         due.Period.Next(),
		GrantedOn:      today,
		Reason:         fmt.Sprintf("carried over from %s", due.Period),
		DeductedAmount: decimal.Zero,
		CarriedFromID:  adv.ID,
	})
}

// =============================================================================
// GRANTS AND DEFERRALS
// =============================================================================

// GrantAdvance validates and stores a new advance. A blank ID gets a UUID.
func (r *Resolver) GrantAdvance(ctx context.Context, a Advance) (Advance, error) {
	if !a.Amount.IsPositive() {
		return Advance{}, generic.NewValidation("amount", "must be positive")
	}
	if a.Target.IsZero() {
		return Advance{}, generic.NewValidation("target", "required")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.GrantedOn.IsZero() {
		a.GrantedOn = generic.StartOfDay(r.Now())
	}
	a.Deducted = false
	a.DeductedAmount = decimal.Zero
	if err := r.Store.SaveAdvance(ctx, a); err != nil {
		return Advance{}, err
	}
	return a, nil
}

// GrantLoan builds a loan with NewLoan and stores it.
func (r *Resolver) GrantLoan(ctx context.Context, employeeID generic.EmployeeID, principal decimal.Decimal, installments int, reason string) (Loan, error) {
	loan, err := NewLoan(uuid.NewString(), employeeID, principal, installments, generic.StartOfDay(r.Now()))
	if err != nil {
		return Loan{}, err
	}
	loan.Reason = reason
	if err := r.Store.SaveLoan(ctx, loan); err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// DeferInstallment postpones loanID's installment of from to to.
func (r *Resolver) DeferInstallment(ctx context.Context, loanID string, from, to generic.PayPeriod, reason string) (Deferral, error) {
	if !to.After(from) {
		return Deferral{}, generic.NewValidation("to", "%s must be after %s", to, from)
	}
	loan, err := r.Store.GetLoan(ctx, loanID)
	if err != nil {
		return Deferral{}, err
	}
	if loan == nil {
		return Deferral{}, generic.NewNotFound("loan", loanID)
	}
	if loan.Status == LoanSettled {
		return Deferral{}, generic.NewValidation("loan", "loan %s is settled", loanID)
	}
	d := Deferral{
		ID:         uuid.NewString(),
		LoanID:     loanID,
		EmployeeID: loan.EmployeeID,
		From:       from,
		To:         to,
		Reason:     reason,
		CreatedOn:  generic.StartOfDay(r.Now()),
	}
	if err := r.Store.SaveDeferral(ctx, d); err != nil {
		return Deferral{}, err
	}
	return d, nil
}
