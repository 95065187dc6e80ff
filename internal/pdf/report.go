// Package pdf renders monthly reports as PDF documents.
package pdf

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/jiangshan001/OpenISave/internal/core"
	"github.com/jiangshan001/OpenISave/internal/services"
)

const transactionsPerPage = 25

// RenderMonthlyReport writes a PDF rendition of the report: a summary page,
// a category breakdown page when any breakdown exists, and a landscape
// transaction table paginated at a fixed row count.
func RenderMonthlyReport(w io.Writer, report services.MonthlyReport) error {
	doc := fpdf.New(fpdf.OrientationPortrait, fpdf.UnitMillimeter, fpdf.PageSizeA4, "")
	doc.SetAutoPageBreak(false, 15)

	writeSummaryPage(doc, report)
	if len(report.ExpenseByCategory) > 0 || len(report.IncomeByCategory) > 0 {
		writeCategoryPage(doc, report)
	}
	writeTransactionPages(doc, report.Transactions)

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render monthly report %04d-%02d: %w", report.Year, report.Month, err)
	}
	return nil
}

func writeSummaryPage(doc *fpdf.Fpdf, report services.MonthlyReport) {
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, fmt.Sprintf("Monthly Report %04d-%02d", report.Year, report.Month), "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "", 12)
	summaryRow(doc, "Income total", report.IncomeTotal)
	summaryRow(doc, "Expense total", report.ExpenseTotal)
	summaryRow(doc, "Net", report.Net)
	doc.CellFormat(60, 8, "Transactions", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 8, fmt.Sprintf("%d", report.TransactionCount), "", 1, "R", false, 0, "")
}

func summaryRow(doc *fpdf.Fpdf, label string, amount decimal.Decimal) {
	doc.CellFormat(60, 8, label, "", 0, "L", false, 0, "")
	doc.CellFormat(0, 8, amount.Round(2).StringFixed(2), "", 1, "R", false, 0, "")
}

func writeCategoryPage(doc *fpdf.Fpdf, report services.MonthlyReport) {
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 10, "Category Breakdown", "", 1, "L", false, 0, "")

	writeCategoryTable(doc, "Expenses", report.ExpenseByCategory)
	writeCategoryTable(doc, "Income", report.IncomeByCategory)
}

func writeCategoryTable(doc *fpdf.Fpdf, title string, byCategory map[string]decimal.Decimal) {
	if len(byCategory) == 0 {
		return
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	for _, category := range categories {
		doc.CellFormat(80, 7, category, "B", 0, "L", false, 0, "")
		doc.CellFormat(40, 7, byCategory[category].Round(2).StringFixed(2), "B", 1, "R", false, 0, "")
	}
}

func writeTransactionPages(doc *fpdf.Fpdf, txs []core.Transaction) {
	for i, tx := range txs {
		if i%transactionsPerPage == 0 {
			startTransactionPage(doc)
		}
		doc.CellFormat(28, 7, core.DateString(tx.Date), "B", 0, "L", false, 0, "")
		doc.CellFormat(25, 7, string(tx.Type), "B", 0, "L", false, 0, "")
		doc.CellFormat(55, 7, tx.Category, "B", 0, "L", false, 0, "")
		doc.CellFormat(30, 7, tx.Amount.Round(2).StringFixed(2), "B", 0, "R", false, 0, "")
		doc.CellFormat(22, 7, tx.Currency, "B", 0, "L", false, 0, "")
		doc.CellFormat(50, 7, tx.AccountName, "B", 0, "L", false, 0, "")
		doc.CellFormat(0, 7, tx.Note, "B", 1, "L", false, 0, "")
	}
}

func startTransactionPage(doc *fpdf.Fpdf) {
	doc.AddPageFormat(fpdf.OrientationLandscape, fpdf.SizeType{Wd: 210, Ht: 297})
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 10, "Transactions", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(28, 7, "Date", "B", 0, "L", false, 0, "")
	doc.CellFormat(25, 7, "Type", "B", 0, "L", false, 0, "")
	doc.CellFormat(55, 7, "Category", "B", 0, "L", false, 0, "")
	doc.CellFormat(30, 7, "Amount", "B", 0, "R", false, 0, "")
	doc.CellFormat(22, 7, "Currency", "B", 0, "L", false, 0, "")
	doc.CellFormat(50, 7, "Account", "B", 0, "L", false, 0, "")
	doc.CellFormat(0, 7, "Note", "B", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
}
