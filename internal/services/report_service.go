package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jiangshan001/OpenISave/internal/core"
	"github.com/jiangshan001/OpenISave/internal/storage"
)

// reportQueryLimit bounds the month query; a single month never comes
// close to this in practice.
const reportQueryLimit = 10000

// MonthlyReport summarises one calendar month in native currencies.
// Amounts are summed as entered, without conversion.
type MonthlyReport struct {
	Year              int
	Month             int
	IncomeTotal       decimal.Decimal
	ExpenseTotal      decimal.Decimal
	Net               decimal.Decimal
	TransactionCount  int
	ExpenseByCategory map[string]decimal.Decimal
	IncomeByCategory  map[string]decimal.Decimal
	Transactions      []core.Transaction
}

type ReportService struct {
	ledger LedgerReader
}

func NewReportService(ledger LedgerReader) *ReportService {
	return &ReportService{ledger: ledger}
}

// Monthly aggregates every transaction of the given month. Transfers count
// toward the transaction count but toward neither total nor breakdown.
func (s *ReportService) Monthly(ctx context.Context, year, month int) (MonthlyReport, error) {
	txs, err := s.ledger.ListTransactions(ctx, storage.TxFilter{
		Year:  year,
		Month: month,
		Limit: reportQueryLimit,
	})
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("monthly report %04d-%02d: %w", year, month, err)
	}

	report := MonthlyReport{
		Year:              year,
		Month:             month,
		IncomeTotal:       decimal.Zero,
		ExpenseTotal:      decimal.Zero,
		TransactionCount:  len(txs),
		ExpenseByCategory: map[string]decimal.Decimal{},
		IncomeByCategory:  map[string]decimal.Decimal{},
		Transactions:      txs,
	}

	for _, tx := range txs {
		switch tx.Type {
		case core.Expense:
			report.ExpenseTotal = report.ExpenseTotal.Add(tx.Amount)
			report.ExpenseByCategory[tx.Category] = report.ExpenseByCategory[tx.Category].Add(tx.Amount)
		case core.Income:
			report.IncomeTotal = report.IncomeTotal.Add(tx.Amount)
			report.IncomeByCategory[tx.Category] = report.IncomeByCategory[tx.Category].Add(tx.Amount)
		}
	}
	report.Net = report.IncomeTotal.Sub(report.ExpenseTotal)
	return report, nil
}
