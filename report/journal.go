/*
journal.go - Payroll journal workbook

PURPOSE:
  Renders a batch of payroll results as an .xlsx workbook: one row per
  employee on the "Journal" sheet followed by a totals row, and the labeled
  per-employee failures on an "Errors" sheet.

SEE ALSO:
  - payslip.go: Single-employee PDF
  - payroll/engine.go: Batch
*/
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/xuri/excelize/v2"
)

const (
	JournalSheet = "Journal"
	ErrorsSheet  = "Errors"
)

// column is one money column of the journal, read from a result and from
// the batch totals.
type column struct {
	header string
	width  float64
	result func(*payroll.Result) decimal.Decimal
	total  func(payroll.Totals) decimal.Decimal
}

var moneyColumns = []column{
	{"Base pay", 14,
		func(r *payroll.Result) decimal.Decimal { return r.BasePay },
		func(t payroll.Totals) decimal.Decimal { return t.BasePay }},
	{"Overtime", 12,
		func(r *payroll.Result) decimal.Decimal { return r.OvertimeAmount },
		func(t payroll.Totals) decimal.Decimal { return t.OvertimeAmount }},
	{"Allowances", 14,
		func(r *payroll.Result) decimal.Decimal { return r.Allowances() },
		func(t payroll.Totals) decimal.Decimal { return t.Allowances }},
	{"Contribution base", 18,
		func(r *payroll.Result) decimal.Decimal { return r.ContributionBase },
		func(t payroll.Totals) decimal.Decimal { return t.ContributionBase }},
	{"Social security", 16,
		func(r *payroll.Result) decimal.Decimal { return r.SocialSecurity },
		func(t payroll.Totals) decimal.Decimal { return t.SocialSecurity }},
	{"Meal", 10,
		func(r *payroll.Result) decimal.Decimal { return r.MealAllowance },
		func(t payroll.Totals) decimal.Decimal { return t.MealAllowance }},
	{"Transport", 12,
		func(r *payroll.Result) decimal.Decimal { return r.TransportAllowance },
		func(t payroll.Totals) decimal.Decimal { return t.TransportAllowance }},
	{"Taxable", 14,
		func(r *payroll.Result) decimal.Decimal { return r.TaxablePay },
		func(t payroll.Totals) decimal.Decimal { return t.TaxablePay }},
	{"Tax", 12,
		func(r *payroll.Result) decimal.Decimal { return r.Tax },
		func(t payroll.Totals) decimal.Decimal { return t.Tax }},
	{"Advances", 12,
		func(r *payroll.Result) decimal.Decimal { return r.AdvancesApplied },
		func(t payroll.Totals) decimal.Decimal { return t.AdvancesApplied }},
	{"Loans", 12,
		func(r *payroll.Result) decimal.Decimal { return r.LoansApplied },
		func(t payroll.Totals) decimal.Decimal { return t.LoansApplied }},
	{"Spouse bonus", 14,
		func(r *payroll.Result) decimal.Decimal { return r.SpouseBonus },
		func(t payroll.Totals) decimal.Decimal { return t.SpouseBonus }},
	{"Net pay", 14,
		func(r *payroll.Result) decimal.Decimal { return r.NetPay },
		func(t payroll.Totals) decimal.Decimal { return t.NetPay }},
}

// leading columns before the money columns
var identityHeaders = []string{"Employee", "Name", "Days worked", "Leave days", "Status", "Alert"}

// WriteJournal writes batch as an .xlsx workbook to w. employees supplies
// the display names; unknown ids are written with an empty name.
func WriteJournal(w io.Writer, batch *payroll.Batch, employees map[generic.EmployeeID]payroll.Employee) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", JournalSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	// Title, then the header on row 3
	if err := f.SetCellValue(JournalSheet, "A1", fmt.Sprintf("Payroll journal %s", batch.Period)); err != nil {
		return err
	}
	header := make([]any, 0, len(identityHeaders)+len(moneyColumns))
	for _, h := range identityHeaders {
		header = append(header, h)
	}
	for _, c := range moneyColumns {
		header = append(header, c.header)
	}
	if err := f.SetSheetRow(JournalSheet, "A3", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(JournalSheet, "A3", lastCol+"3", bold); err != nil {
		return err
	}

	row := 4
	for _, res := range batch.Results {
		values := []any{
			string(res.EmployeeID),
			employees[res.EmployeeID].FullName(),
			res.DaysWorked,
			res.LeaveDays.InexactFloat64(),
			string(res.Status),
			string(res.DeductionAlert),
		}
		for _, c := range moneyColumns {
			values = append(values, c.result(res).InexactFloat64())
		}
		if err := writeRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	totals := []any{"TOTAL", fmt.Sprintf("%d employees", batch.Totals.Employees), "", "", "", ""}
	for _, c := range moneyColumns {
		totals = append(totals, c.total(batch.Totals).InexactFloat64())
	}
	if err := writeRow(f, row, totals); err != nil {
		return err
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellStyle(JournalSheet, totalCell, fmt.Sprintf("%s%d", lastCol, row), bold); err != nil {
		return err
	}

	firstMoney, _ := excelize.ColumnNumberToName(len(identityHeaders) + 1)
	if err := f.SetCellStyle(JournalSheet, firstMoney+"4", fmt.Sprintf("%s%d", lastCol, row), money); err != nil {
		return err
	}
	for i, c := range moneyColumns {
		name, _ := excelize.ColumnNumberToName(len(identityHeaders) + 1 + i)
		if err := f.SetColWidth(JournalSheet, name, name, c.width); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(JournalSheet, "B", "B", 28); err != nil {
		return err
	}

	if len(batch.Errors) > 0 {
		if err := writeErrors(f, batch.Errors, employees, bold); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(JournalSheet, cell, &values)
}

func writeErrors(f *excelize.File, errs []*payroll.EmployeeError, employees map[generic.EmployeeID]payroll.Employee, bold int) error {
	if _, err := f.NewSheet(ErrorsSheet); err != nil {
		return err
	}
	header := []any{"Employee", "Name", "Step", "Error"}
	if err := f.SetSheetRow(ErrorsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(ErrorsSheet, "A1", "D1", bold); err != nil {
		return err
	}
	for i, e := range errs {
		values := []any{string(e.EmployeeID), employees[e.EmployeeID].FullName(), e.Step, e.Err.Error()}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ErrorsSheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(ErrorsSheet, "D", "D", 60)
}
