/*
store.go - Transaction contract shared by every repository

PURPOSE:
  Business packages declare the narrow repository interfaces they need
  (attendance.RecordStore, leave.Store, deduction.Store, ...). What they
  share is the ability to run several writes atomically: TxRunner.

CONTEXT-CARRIED TRANSACTIONS:
  WithTx hands fn a derived context. Every repository call made with that
  context joins the same transaction; calls made with any other context
  run on their own. This keeps repository signatures identical inside and
  outside a transaction:

    err := runner.WithTx(ctx, func(ctx context.Context) error {
        if err := leaveStore.SaveLeavePeriods(ctx, periods); err != nil {
            return err // everything rolls back
        }
        return resultStore.SavePayrollResult(ctx, result)
    })

  Nested WithTx calls join the outer transaction.

IMPLEMENTATIONS:
  - store/sqlite: database/sql transaction
  - store/memory: snapshot + restore on error

SEE ALSO:
  - leave/ledger.go: all-or-nothing reallocation
  - payroll/engine.go: all-or-nothing validation
*/
package generic

import "context"

// TxRunner executes fn atomically.
// If fn returns error, every write made through fn's context is rolled back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
