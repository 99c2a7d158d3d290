package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

type payslipLine struct {
	label  string
	amount decimal.Decimal
}

// WritePayslip renders a single-page payslip PDF for res to w.
// Zero earning lines are omitted.
func WritePayslip(w io.Writer, emp payroll.Employee, res *payroll.Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", emp.ID, res.Period), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", emp.FullName(), emp.ID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Job title: %s", emp.JobTitle))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Hired: %s   Seniority: %d years", generic.FormatDate(emp.HireDate), res.SeniorityYears))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s   Status: %s",
		generic.FormatDate(res.Period.Start()), generic.FormatDate(res.Period.End()), res.Status))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Days worked: %d   Leave days: %s", res.DaysWorked, res.LeaveDays.StringFixed(2)))
	pdf.Ln(10)

	section(pdf, "Earnings", []payslipLine{
		{"Base pay", res.BasePay},
		{fmt.Sprintf("Overtime (%s h)", res.OvertimeHours.StringFixed(2)), res.OvertimeAmount},
		{"Hardship allowance", res.HardshipAllowance},
		{"Permanence allowance", res.PermanenceAllowance},
		{"Seniority allowance", res.SeniorityAllowance},
		{"Encouragement bonus", res.EncouragementBonus},
		{"Driver bonus", res.DriverBonus},
		{"Night security bonus", res.NightSecurityBonus},
		{"Mission bonus", res.MissionBonus},
		{"Objective bonus", res.ObjectiveBonus},
		{"Variable bonus", res.VariableBonus},
	}, true)
	total(pdf, "Contribution base", res.ContributionBase)

	section(pdf, "Contributions and tax", []payslipLine{
		{"Social security", res.SocialSecurity.Neg()},
		{"Meal allowance", res.MealAllowance},
		{"Transport allowance", res.TransportAllowance},
	}, true)
	total(pdf, "Taxable pay", res.TaxablePay)
	section(pdf, "", []payslipLine{{"Income tax", res.Tax.Neg()}}, false)
	total(pdf, "Disposable income", res.DisposableIncome)

	section(pdf, "Deductions", []payslipLine{
		{"Advances", res.AdvancesApplied.Neg()},
		{"Loan installments", res.LoansApplied.Neg()},
		{"Spouse at home bonus", res.SpouseBonus},
	}, true)
	if res.AdvancesDeferred.IsPositive() || res.LoansDeferred.IsPositive() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, fmt.Sprintf("Deferred: advances %s, loans %s (%s)",
			res.AdvancesDeferred.StringFixed(2), res.LoansDeferred.StringFixed(2), res.DeductionAlert))
		pdf.Ln(6)
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(120, 9, "Net pay", "T", 0, "", false, 0, "")
	pdf.CellFormat(50, 9, res.NetPay.StringFixed(2), "T", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render payslip: %w", err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, title string, lines []payslipLine, skipZero bool) {
	if title != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		if skipZero && l.amount.IsZero() {
			continue
		}
		pdf.CellFormat(120, 6, l.label, "", 0, "", false, 0, "")
		pdf.CellFormat(50, 6, l.amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
}

func total(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 7, label, "T", 0, "", false, 0, "")
	pdf.CellFormat(50, 7, amount.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.Ln(3)
}
