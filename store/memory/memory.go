// Package memory provides an in-memory implementation of every repository.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/tax"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu    sync.RWMutex
	state state
}

type empPeriod struct {
	EmployeeID generic.EmployeeID
	Period     generic.PayPeriod
}

type loanPeriod struct {
	LoanID string
	Period generic.PayPeriod
}

type state struct {
	employees    map[generic.EmployeeID]payroll.Employee
	timesheets   map[empPeriod]attendance.Record
	leave        map[empPeriod]leave.Period
	brackets     []tax.Bracket
	advances     map[string]deduction.Advance
	loans        map[string]deduction.Loan
	installments map[loanPeriod]deduction.Installment
	deferrals    map[loanPeriod]deduction.Deferral
	parameters   *payroll.Parameters
	results      map[empPeriod]payroll.Result
	missions     map[string]payroll.Mission
}

func New() *Store {
	return &Store{state: state{
		employees:    make(map[generic.EmployeeID]payroll.Employee),
		timesheets:   make(map[empPeriod]attendance.Record),
		leave:        make(map[empPeriod]leave.Period),
		advances:     make(map[string]deduction.Advance),
		loans:        make(map[string]deduction.Loan),
		installments: make(map[loanPeriod]deduction.Installment),
		deferrals:    make(map[loanPeriod]deduction.Deferral),
		results:      make(map[empPeriod]payroll.Result),
		missions:     make(map[string]payroll.Mission),
	}}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The write lock is held for the whole of fn; calls made with fn's context
// skip locking.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) read(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) write(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// clone copies every table. Stored values are never mutated in place, so a
// shallow copy of each map is a full snapshot.
func (st state) clone() state {
	out := state{
		employees:    maps.Clone(st.employees),
		timesheets:   maps.Clone(st.timesheets),
		leave:        maps.Clone(st.leave),
		brackets:     slices.Clone(st.brackets),
		advances:     maps.Clone(st.advances),
		loans:        maps.Clone(st.loans),
		installments: maps.Clone(st.installments),
		deferrals:    maps.Clone(st.deferrals),
		results:      maps.Clone(st.results),
		missions:     maps.Clone(st.missions),
	}
	if st.parameters != nil {
		p := *st.parameters
		out.parameters = &p
	}
	return out
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*payroll.Employee, error) {
	defer s.read(ctx)()
	e, ok := s.state.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]payroll.Employee, error) {
	defer s.read(ctx)()
	var out []payroll.Employee
	for _, e := range s.state.employees {
		if activeOnly && !e.Active {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b payroll.Employee) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) SaveEmployee(ctx context.Context, e payroll.Employee) error {
	defer s.write(ctx)()
	s.state.employees[e.ID] = e
	return nil
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func (s *Store) GetTimesheet(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (*attendance.Record, error) {
	defer s.read(ctx)()
	r, ok := s.state.timesheets[empPeriod{employeeID, period}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) SaveTimesheet(ctx context.Context, r *attendance.Record) error {
	defer s.write(ctx)()
	s.state.timesheets[empPeriod{r.EmployeeID, r.Period}] = *r
	return nil
}

// =============================================================================
// LEAVE
// =============================================================================

func (s *Store) ListLeavePeriods(ctx context.Context, employeeID generic.EmployeeID) ([]leave.Period, error) {
	defer s.read(ctx)()
	var out []leave.Period
	for k, p := range s.state.leave {
		if k.EmployeeID == employeeID {
			out = append(out, copyLeave(p))
		}
	}
	slices.SortFunc(out, func(a, b leave.Period) int { return cmp.Compare(a.Period.Index(), b.Period.Index()) })
	return out, nil
}

func (s *Store) SaveLeavePeriods(ctx context.Context, periods []leave.Period) error {
	defer s.write(ctx)()
	for _, p := range periods {
		s.state.leave[empPeriod{p.EmployeeID, p.Period}] = copyLeave(p)
	}
	return nil
}

func copyLeave(p leave.Period) leave.Period {
	if p.DeductionTarget != nil {
		t := *p.DeductionTarget
		p.DeductionTarget = &t
	}
	return p
}

// =============================================================================
// TAX BRACKETS
// =============================================================================

func (s *Store) ActiveBrackets(ctx context.Context) ([]tax.Bracket, error) {
	defer s.read(ctx)()
	return slices.Clone(s.state.brackets), nil
}

func (s *Store) ReplaceBrackets(ctx context.Context, rows []tax.Bracket) error {
	defer s.write(ctx)()
	s.state.brackets = slices.Clone(rows)
	return nil
}

// =============================================================================
// ADVANCES
// =============================================================================

func (s *Store) GetAdvance(ctx context.Context, id string) (*deduction.Advance, error) {
	defer s.read(ctx)()
	a, ok := s.state.advances[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) ListAdvances(ctx context.Context, employeeID generic.EmployeeID) ([]deduction.Advance, error) {
	defer s.read(ctx)()
	return s.advancesWhere(func(a deduction.Advance) bool { return a.EmployeeID == employeeID }), nil
}

func (s *Store) AdvancesForPeriod(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) ([]deduction.Advance, error) {
	defer s.read(ctx)()
	return s.advancesWhere(func(a deduction.Advance) bool {
		return a.EmployeeID == employeeID && a.Target == period
	}), nil
}

func (s *Store) advancesWhere(keep func(deduction.Advance) bool) []deduction.Advance {
	var out []deduction.Advance
	for _, a := range s.state.advances {
		if keep(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b deduction.Advance) int {
		if c := a.GrantedOn.Compare(b.GrantedOn); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) SaveAdvance(ctx context.Context, a deduction.Advance) error {
	defer s.write(ctx)()
	s.state.advances[a.ID] = a
	return nil
}

func (s *Store) DeleteAdvance(ctx context.Context, id string) error {
	defer s.write(ctx)()
	delete(s.state.advances, id)
	return nil
}

// =============================================================================
// LOANS
// =============================================================================

func (s *Store) GetLoan(ctx context.Context, id string) (*deduction.Loan, error) {
	defer s.read(ctx)()
	l, ok := s.state.loans[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *Store) ListLoans(ctx context.Context, employeeID generic.EmployeeID) ([]deduction.Loan, error) {
	defer s.read(ctx)()
	var out []deduction.Loan
	for _, l := range s.state.loans {
		if l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b deduction.Loan) int {
		if c := a.GrantedOn.Compare(b.GrantedOn); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) SaveLoan(ctx context.Context, l deduction.Loan) error {
	defer s.write(ctx)()
	s.state.loans[l.ID] = l
	return nil
}

func (s *Store) InstallmentsForPeriod(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) ([]deduction.Installment, error) {
	defer s.read(ctx)()
	var out []deduction.Installment
	for k, i := range s.state.installments {
		if k.Period == period && i.EmployeeID == employeeID {
			out = append(out, i)
		}
	}
	slices.SortFunc(out, func(a, b deduction.Installment) int { return cmp.Compare(a.LoanID, b.LoanID) })
	return out, nil
}

func (s *Store) SaveInstallment(ctx context.Context, i deduction.Installment) error {
	defer s.write(ctx)()
	s.state.installments[loanPeriod{i.LoanID, i.Period}] = i
	return nil
}

func (s *Store) DeleteInstallment(ctx context.Context, loanID string, period generic.PayPeriod) error {
	defer s.write(ctx)()
	delete(s.state.installments, loanPeriod{loanID, period})
	return nil
}

func (s *Store) DeferralsForPeriod(ctx context.Context, employeeID generic.EmployeeID, from generic.PayPeriod) ([]deduction.Deferral, error) {
	defer s.read(ctx)()
	var out []deduction.Deferral
	for k, d := range s.state.deferrals {
		if k.Period == from && d.EmployeeID == employeeID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b deduction.Deferral) int { return cmp.Compare(a.LoanID, b.LoanID) })
	return out, nil
}

func (s *Store) SaveDeferral(ctx context.Context, d deduction.Deferral) error {
	defer s.write(ctx)()
	s.state.deferrals[loanPeriod{d.LoanID, d.From}] = d
	return nil
}

// =============================================================================
// PARAMETERS
// =============================================================================

func (s *Store) GetParameters(ctx context.Context) (*payroll.Parameters, error) {
	defer s.read(ctx)()
	if s.state.parameters == nil {
		return nil, nil
	}
	p := *s.state.parameters
	return &p, nil
}

func (s *Store) SaveParameters(ctx context.Context, p payroll.Parameters) error {
	defer s.write(ctx)()
	s.state.parameters = &p
	return nil
}

// =============================================================================
// PAYROLL RESULTS
// =============================================================================

func (s *Store) GetPayrollResult(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (*payroll.Result, error) {
	defer s.read(ctx)()
	r, ok := s.state.results[empPeriod{employeeID, period}]
	if !ok {
		return nil, nil
	}
	r.Warnings = slices.Clone(r.Warnings)
	return &r, nil
}

func (s *Store) SavePayrollResult(ctx context.Context, r *payroll.Result) error {
	defer s.write(ctx)()
	stored := *r
	stored.Warnings = slices.Clone(r.Warnings)
	s.state.results[empPeriod{r.EmployeeID, r.Period}] = stored
	return nil
}

func (s *Store) ListPayrollResults(ctx context.Context, period generic.PayPeriod) ([]*payroll.Result, error) {
	defer s.read(ctx)()
	var out []*payroll.Result
	for k, r := range s.state.results {
		if k.Period != period {
			continue
		}
		r.Warnings = slices.Clone(r.Warnings)
		out = append(out, &r)
	}
	slices.SortFunc(out, func(a, b *payroll.Result) int { return cmp.Compare(a.EmployeeID, b.EmployeeID) })
	return out, nil
}

// =============================================================================
// MISSIONS
// =============================================================================

func (s *Store) ListMissions(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) ([]payroll.Mission, error) {
	defer s.read(ctx)()
	var out []payroll.Mission
	for _, m := range s.state.missions {
		if m.EmployeeID == employeeID && generic.PeriodOf(m.Date) == period {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b payroll.Mission) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) SaveMission(ctx context.Context, m payroll.Mission) error {
	defer s.write(ctx)()
	s.state.missions[m.ID] = m
	return nil
}

func (s *Store) MissionBonusTotal(ctx context.Context, employeeID generic.EmployeeID, period generic.PayPeriod) (decimal.Decimal, error) {
	missions, err := s.ListMissions(ctx, employeeID, period)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range missions {
		total = total.Add(m.Bonus)
	}
	return total, nil
}
