/*
Package sqlite provides a SQLite-backed implementation of every repository.

PURPOSE:
  Implements the repository interfaces declared by the business packages
  (payroll.EmployeeStore, attendance.RecordStore, leave.Store, tax.Store,
  deduction.Store, payroll.ParametersStore, payroll.ResultStore,
  payroll.MissionStore) plus generic.TxRunner, on one database.

KEY TABLES:
  employees:          contract attributes, soft-deactivated
  timesheets:         one row per (employee, month), days as JSON
  leave_periods:      one row per (employee, month)
  tax_brackets:       bulk-replaced; old rows flagged inactive, never deleted
  advances, loans:    deductions
  loan_installments:  unique per (loan, month)
  loan_deferrals:     unique per (loan, from month)
  pay_parameters:     single row, JSON
  payroll_results:    one row per (employee, month), full snapshot as JSON
  missions:           trips and their bonus

MONEY:
  Decimals are stored as TEXT and parsed back with shopspring/decimal, so
  no amount ever goes through a float.

TRANSACTIONS:
  WithTx stores the *sql.Tx in the context it hands to fn. Every method
  looks it up (querier) so repository calls made with that context join
  the transaction. Nested WithTx calls join the outer one.

CONCURRENCY:
  File databases are opened in WAL mode with immediate transactions and a
  busy timeout, so concurrent writers queue instead of failing. ":memory:"
  databases are pinned to a single connection, otherwise each connection
  would see its own empty database.

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: TxRunner and the context convention
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Store implements all repositories using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates it.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	if dbPath != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		job_title TEXT NOT NULL DEFAULT '',
		base_salary TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		contract_end TEXT,
		night_security INTEGER NOT NULL DEFAULT 0,
		spouse_at_home INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_active
		ON employees(active);

	-- One timesheet per employee and month
	CREATE TABLE IF NOT EXISTS timesheets (
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		days_json TEXT NOT NULL,
		overtime_json TEXT NOT NULL,
		locked INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, year, month)
	);

	CREATE TABLE IF NOT EXISTS leave_periods (
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		accrued TEXT NOT NULL,
		taken TEXT NOT NULL,
		remaining TEXT NOT NULL,
		target_year INTEGER,
		target_month INTEGER,
		PRIMARY KEY (employee_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_leave_periods_target
		ON leave_periods(employee_id, target_year, target_month);

	-- Only the active set is read; replaced sets stay for history
	CREATE TABLE IF NOT EXISTS tax_brackets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		threshold TEXT NOT NULL,
		tax TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_brackets_active
		ON tax_brackets(active);

	CREATE TABLE IF NOT EXISTS advances (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		target_year INTEGER NOT NULL,
		target_month INTEGER NOT NULL,
		granted_on TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		deducted INTEGER NOT NULL DEFAULT 0,
		deducted_amount TEXT NOT NULL DEFAULT '0',
		deducted_on TEXT,
		carried_from_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_advances_target
		ON advances(employee_id, target_year, target_month);

	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		principal TEXT NOT NULL,
		installments INTEGER NOT NULL,
		installment_amount TEXT NOT NULL,
		withheld TEXT NOT NULL,
		status TEXT NOT NULL,
		granted_on TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_loans_employee
		ON loans(employee_id);

	CREATE TABLE IF NOT EXISTS loan_installments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		amount TEXT NOT NULL,
		recorded_on TEXT NOT NULL,
		UNIQUE (loan_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_loan_installments_employee
		ON loan_installments(employee_id, year, month);

	CREATE TABLE IF NOT EXISTS loan_deferrals (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL,
		from_year INTEGER NOT NULL,
		from_month INTEGER NOT NULL,
		to_year INTEGER NOT NULL,
		to_month INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_on TEXT NOT NULL,
		UNIQUE (loan_id, from_year, from_month)
	);

	CREATE TABLE IF NOT EXISTS pay_parameters (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_results (
		employee_id TEXT NOT NULL REFERENCES employees(id),
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		status TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		result_json TEXT NOT NULL,
		validated_at TEXT,
		paid_at TEXT,
		PRIMARY KEY (employee_id, year, month)
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_results_period
		ON payroll_results(year, month);

	CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		mission_date TEXT NOT NULL,
		destination TEXT NOT NULL DEFAULT '',
		bonus TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_missions_employee_date
		ON missions(employee_id, mission_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS (generic.TxRunner)
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

type txValue struct {
	owner *Store
	tx    *sql.Tx
}

func (s *Store) activeTx(ctx context.Context) *sql.Tx {
	v, ok := ctx.Value(txKey{}).(txValue)
	if !ok || v.owner != s {
		return nil
	}
	return v.tx
}

// querier returns the transaction carried by ctx, or the database.
func (s *Store) querier(ctx context.Context) querier {
	if tx := s.activeTx(ctx); tx != nil {
		return tx
	}
	return s.db
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.activeTx(ctx) != nil {
		return fn(ctx)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, txValue{owner: s, tx: sqlTx})); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: generic.FormatDate(t), Valid: true}
}

func parseDate(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := generic.ParseDate(s.String)
	return t
}

func parseDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %s: %w", column, err)
	}
	return d, nil
}

// decimalColumn is a TEXT column parsed into dst.
type decimalColumn struct {
	name  string
	value string
	dst   *decimal.Decimal
}

func scanDecimals(cols ...decimalColumn) error {
	for _, c := range cols {
		d, err := parseDecimal(c.name, c.value)
		if err != nil {
			return err
		}
		*c.dst = d
	}
	return nil
}

func period(year, month int) generic.PayPeriod {
	return generic.PayPeriod{Year: year, Month: time.Month(month)}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
