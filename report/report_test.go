package report_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/deduction"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/report"
	"github.com/xuri/excelize/v2"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var april = generic.MustPayPeriod(2025, 4)

func result(id generic.EmployeeID, base, net string) *payroll.Result {
	return &payroll.Result{
		EmployeeID:       id,
		Period:           april,
		Status:           payroll.StatusValidated,
		DaysWorked:       30,
		LeaveDays:        decimal.Zero,
		BasePay:          d(base),
		ContributionBase: d(base),
		SocialSecurity:   d(base).Mul(d("0.09")),
		TaxablePay:       d(net),
		NetPay:           d(net),
		DeductionAlert:   deduction.AlertNone,
	}
}

func batch() *payroll.Batch {
	b := &payroll.Batch{Period: april, Totals: payroll.NewTotals()}
	for _, r := range []*payroll.Result{result("E1", "30000", "27300"), result("E3", "10000", "9100")} {
		b.Results = append(b.Results, r)
		b.Totals.Add(r)
	}
	b.Errors = []*payroll.EmployeeError{{
		EmployeeID: "E2",
		Step:       payroll.StepAttendance,
		Err:        generic.NewNotFound("timesheet", "E2/2025-04"),
	}}
	return b
}

var staff = map[generic.EmployeeID]payroll.Employee{
	"E1": {ID: "E1", FirstName: "Amina", LastName: "Benali"},
	"E2": {ID: "E2", FirstName: "Yacine", LastName: "Mansouri"},
}

func TestWriteJournal(t *testing.T) {
	// GIVEN: two results and one failure
	var buf bytes.Buffer

	// WHEN
	require.NoError(t, report.WriteJournal(&buf, batch(), staff))

	// THEN: the workbook reopens with one row per employee and a totals row
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.JournalSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Payroll journal 2025-04", rows[0][0])
	assert.Equal(t, "Employee", rows[2][0])
	assert.Equal(t, "Net pay", rows[2][len(rows[2])-1])

	assert.Equal(t, []string{"E1", "Amina Benali"}, rows[3][:2])
	assert.Equal(t, "E3", rows[4][0])
	assert.Equal(t, "", rows[4][1])
	assert.Equal(t, "TOTAL", rows[5][0])
	assert.Equal(t, "2 employees", rows[5][1])

	net, err := f.GetCellValue(report.JournalSheet, lastCell(t, len(rows[2]), 6), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "36400", net)

	errs, err := f.GetRows(report.ErrorsSheet)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"E2", "Yacine Mansouri", payroll.StepAttendance}, errs[1][:3])
}

func TestWriteJournal_NoErrorsSheetWhenClean(t *testing.T) {
	b := batch()
	b.Errors = nil
	var buf bytes.Buffer
	require.NoError(t, report.WriteJournal(&buf, b, staff))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{report.JournalSheet}, f.GetSheetList())
}

func TestWritePayslip(t *testing.T) {
	var buf bytes.Buffer
	res := result("E1", "30000", "27300")
	res.LoansDeferred = d("500")
	res.DeductionAlert = deduction.AlertLoansDeferred

	require.NoError(t, report.WritePayslip(&buf, staff["E1"], res))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWritePayslip_PropagatesWriterErrors(t *testing.T) {
	err := report.WritePayslip(failingWriter{}, staff["E1"], result("E1", "30000", "27300"))
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func lastCell(t *testing.T, col, row int) string {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(col, row)
	require.NoError(t, err)
	return cell
}
