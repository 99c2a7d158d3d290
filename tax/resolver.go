package tax

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Store persists the active bracket set.
type Store interface {
	// ActiveBrackets returns the active rows, any order.
	ActiveBrackets(ctx context.Context) ([]Bracket, error)

	// ReplaceBrackets deactivates every row and inserts rows as the new
	// active set.
	ReplaceBrackets(ctx context.Context, rows []Bracket) error
}

// Resolver is the store-backed handle on the bracket table.
type Resolver struct {
	Store Store
	Tx    generic.TxRunner
}

func NewResolver(store Store, tx generic.TxRunner) *Resolver {
	return &Resolver{Store: store, Tx: tx}
}

// Snapshot reads the current active set.
func (r *Resolver) Snapshot(ctx context.Context) (Table, error) {
	rows, err := r.Store.ActiveBrackets(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("load tax brackets: %w", err)
	}
	return NewTable(rows)
}

// Resolve resolves against the current active set.
func (r *Resolver) Resolve(ctx context.Context, salary decimal.Decimal) (decimal.Decimal, error) {
	t, err := r.Snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Resolve(salary), nil
}

// Reload validates rows and atomically replaces the active set.
// Returns the number of rows imported.
func (r *Resolver) Reload(ctx context.Context, rows []Bracket) (int, error) {
	t, err := NewTable(rows)
	if err != nil {
		return 0, err
	}
	err = r.Tx.WithTx(ctx, func(ctx context.Context) error {
		return r.Store.ReplaceBrackets(ctx, t.Brackets())
	})
	if err != nil {
		return 0, fmt.Errorf("replace tax brackets: %w", err)
	}
	return t.Len(), nil
}
