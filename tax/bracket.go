/*
Package tax resolves the income tax owed on a taxable salary.

PURPOSE:
  The tax law is a stepped bracket table: ordered (threshold, tax) pairs.
  The tax for a salary is the tax of the highest threshold <= salary. Below
  the lowest threshold the tax is zero; beyond the top threshold the top
  bracket's tax applies flat (no extrapolation).

PRORATION:
  For partial months the salary is first extrapolated to a full base
  period, resolved, then the tax is scaled back by days/base and truncated
  to whole currency units:

    tax = floor( Resolve(salary * base / days) * days / base )

  days == base falls back to Resolve, days <= 0 yields zero.

CONFIGURATION:
  Only one active bracket set exists. Reload replaces it atomically. The
  Resolver holds no cache: every Snapshot reads the active set, so a reload
  is visible to the next computation. Batch runs take one Snapshot and use
  that Table for every employee.

SEE ALSO:
  - resolver.go: store-backed Resolver, Reload
  - import.go: CSV and XLSX bracket uploads
*/
package tax

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// DefaultBaseDays is the base period used by ResolveProrated.
const DefaultBaseDays = 30

// Bracket is one step of the table.
type Bracket struct {
	Threshold decimal.Decimal
	Tax       decimal.Decimal
}

// Table is an immutable, threshold-sorted bracket set.
type Table struct {
	brackets []Bracket
}

// NewTable validates and sorts rows. Thresholds and taxes must be
// non-negative, thresholds unique, and tax non-decreasing with threshold.
func NewTable(rows []Bracket) (Table, error) {
	sorted := make([]Bracket, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold.LessThan(sorted[j].Threshold) })

	for i, b := range sorted {
		if b.Threshold.IsNegative() {
			return Table{}, generic.NewValidation("threshold", "negative threshold %s", b.Threshold)
		}
		if b.Tax.IsNegative() {
			return Table{}, generic.NewValidation("tax", "negative tax %s at threshold %s", b.Tax, b.Threshold)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.Threshold.Equal(b.Threshold) {
			return Table{}, generic.NewValidation("threshold", "duplicate threshold %s", b.Threshold)
		}
		if b.Tax.LessThan(prev.Tax) {
			return Table{}, generic.NewValidation("tax",
				"tax %s at threshold %s is below %s at threshold %s", b.Tax, b.Threshold, prev.Tax, prev.Threshold)
		}
	}
	return Table{brackets: sorted}, nil
}

func (t Table) Len() int      { return len(t.brackets) }
func (t Table) IsEmpty() bool { return len(t.brackets) == 0 }

// Brackets returns a copy of the rows, threshold ascending.
func (t Table) Brackets() []Bracket {
	out := make([]Bracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// Resolve returns the tax of the highest threshold <= salary.
func (t Table) Resolve(salary decimal.Decimal) decimal.Decimal {
	// first bracket strictly above salary
	i := sort.Search(len(t.brackets), func(i int) bool {
		return t.brackets[i].Threshold.GreaterThan(salary)
	})
	if i == 0 {
		return decimal.Zero
	}
	return t.brackets[i-1].Tax
}

// ResolveProrated resolves the tax of a partial month.
func (t Table) ResolveProrated(salary decimal.Decimal, daysWorked, baseDays int) decimal.Decimal {
	if baseDays <= 0 {
		baseDays = DefaultBaseDays
	}
	if daysWorked <= 0 {
		return decimal.Zero
	}
	if daysWorked == baseDays {
		return t.Resolve(salary)
	}
	days := decimal.NewFromInt(int64(daysWorked))
	base := decimal.NewFromInt(int64(baseDays))

	extrapolated := salary.Mul(base).Div(days)
	full := t.Resolve(extrapolated)
	return generic.TruncateCurrency(full.Mul(days).Div(base))
}
