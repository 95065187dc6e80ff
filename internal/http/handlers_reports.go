package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/jiangshan001/OpenISave/internal/core"
	"github.com/jiangshan001/OpenISave/internal/pdf"
	"github.com/jiangshan001/OpenISave/internal/services"
)

type typeCurrencyTotalJSON struct {
	Type     string      `json:"type"`
	Currency string      `json:"currency"`
	Total    json.Number `json:"total"`
}

type reportJSON struct {
	Year              int                    `json:"year"`
	Month             int                    `json:"month"`
	IncomeTotal       json.Number            `json:"income_total"`
	ExpenseTotal      json.Number            `json:"expense_total"`
	Net               json.Number            `json:"net"`
	TransactionCount  int                    `json:"transaction_count"`
	ExpenseByCategory map[string]json.Number `json:"expense_by_category"`
	IncomeByCategory  map[string]json.Number `json:"income_by_category"`
	Transactions      []transactionJSON      `json:"transactions"`
}

func toReportJSON(report services.MonthlyReport) reportJSON {
	out := reportJSON{
		Year:              report.Year,
		Month:             report.Month,
		IncomeTotal:       json.Number(report.IncomeTotal.Round(2).String()),
		ExpenseTotal:      json.Number(report.ExpenseTotal.Round(2).String()),
		Net:               json.Number(report.Net.Round(2).String()),
		TransactionCount:  report.TransactionCount,
		ExpenseByCategory: map[string]json.Number{},
		IncomeByCategory:  map[string]json.Number{},
		Transactions:      make([]transactionJSON, 0, len(report.Transactions)),
	}
	for category, amount := range report.ExpenseByCategory {
		out.ExpenseByCategory[category] = json.Number(amount.Round(2).String())
	}
	for category, amount := range report.IncomeByCategory {
		out.IncomeByCategory[category] = json.Number(amount.Round(2).String())
	}
	for _, tx := range report.Transactions {
		out.Transactions = append(out.Transactions, toTransactionJSON(tx))
	}
	return out
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.balances.BuildDashboard(r.Context(), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts := make([]accountBalanceJSON, 0, len(dash.Accounts))
	for _, b := range dash.Accounts {
		accounts = append(accounts, accountBalanceJSON{
			accountJSON: toAccountJSON(b.Account),
			Balance:     json.Number(b.Balance.StringFixed(2)),
		})
	}

	summary := make([]typeCurrencyTotalJSON, 0, len(dash.MonthlySummary))
	for _, total := range dash.MonthlySummary {
		summary = append(summary, typeCurrencyTotalJSON{
			Type:     string(total.Type),
			Currency: total.Currency,
			Total:    json.Number(total.Total.Round(2).String()),
		})
	}

	recent := make([]transactionJSON, 0, len(dash.Recent))
	for _, tx := range dash.Recent {
		recent = append(recent, toTransactionJSON(tx))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts":            accounts,
		"monthly_summary":     summary,
		"recent_transactions": recent,
	})
}

func reportPeriodFromPath(r *http.Request) (int, int, error) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil || year <= 0 {
		return 0, 0, core.Invalid("year", "year must be a positive integer")
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, core.Invalid("month", "month must be between 1 and 12")
	}
	return year, month, nil
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := reportPeriodFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.reports.Monthly(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(report))
}

func (s *Server) handleMonthlyReportPDF(w http.ResponseWriter, r *http.Request) {
	year, month, err := reportPeriodFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.reports.Monthly(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := pdf.RenderMonthlyReport(&buf, report); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"monthly-report-%04d-%02d.pdf\"", year, month))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
