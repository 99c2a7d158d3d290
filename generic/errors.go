/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Business packages return these (or wrap them with context) so that the
  HTTP layer and batch runners can classify failures with errors.Is/As.

ERROR CATEGORIES:
  1. Not found    - employee, timesheet, loan, payroll result missing
  2. Validation   - malformed input, rejected before any mutation
  3. Balance      - leave reallocation cannot cover the requested total
  4. Locked       - edits against a finalized timesheet

  Configuration degradations (no tax brackets, no parameters row) are NOT
  errors: the engine proceeds with defaults and reports a warning.

USAGE:
  if errors.Is(err, generic.ErrInsufficientBalance) {
      var ib *generic.InsufficientBalanceError
      errors.As(err, &ib)
      fmt.Println(ib.Shortfall)
  }

SEE ALSO:
  - leave/ledger.go: InsufficientBalanceError
  - payroll/engine.go: EmployeeError wraps these per employee
  - api/handlers.go: maps categories to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientBalance is returned when leave taken exceeds leave accrued.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrLocked is returned when mutating a locked timesheet.
	ErrLocked = errors.New("record is locked")

	// ErrInvalidPeriod is returned when a month is outside 1-12.
	ErrInvalidPeriod = errors.New("invalid period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing record kind and its key.
type NotFoundError struct {
	Kind string // "employee", "timesheet", "loan", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFound(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientBalanceError provides details about a leave shortage.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Available  decimal.Decimal
	Requested  decimal.Decimal
	Shortfall  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s, shortfall %s",
		e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
