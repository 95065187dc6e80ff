package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jiangshan001/OpenISave/internal/core"
	"github.com/jiangshan001/OpenISave/internal/storage"
)

const defaultTransactionLimit = 100

type accountJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at,omitempty"`
}

type accountBalanceJSON struct {
	accountJSON
	Balance json.Number `json:"balance"`
}

type transactionJSON struct {
	ID          int64       `json:"id"`
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	AccountID   int64       `json:"account_id"`
	AccountName string      `json:"account_name,omitempty"`
	Note        string      `json:"note,omitempty"`
}

func toAccountJSON(acc core.Account) accountJSON {
	out := accountJSON{ID: acc.ID, Name: acc.Name, Currency: acc.Currency}
	if !acc.CreatedAt.IsZero() {
		out.CreatedAt = acc.CreatedAt.Format("2006-01-02 15:04:05")
	}
	return out
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Date:        core.DateString(tx.Date),
		Type:        string(tx.Type),
		Category:    tx.Category,
		Amount:      json.Number(tx.Amount.String()),
		Currency:    tx.Currency,
		AccountID:   tx.AccountID,
		AccountName: tx.AccountName,
		Note:        tx.Note,
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	balances, err := s.balances.AccountBalances(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]accountBalanceJSON, 0, len(balances))
	for _, b := range balances {
		out = append(out, accountBalanceJSON{
			accountJSON: toAccountJSON(b.Account),
			Balance:     json.Number(b.Balance.StringFixed(2)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	acc, err := core.AccountInput{Name: req.Name, Currency: req.Currency}.Normalize()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.CreateAccount(r.Context(), acc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountJSON{
		ID:       created.ID,
		Name:     created.Name,
		Currency: created.Currency,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func transactionFilterFromQuery(r *http.Request) (storage.TxFilter, error) {
	filter := storage.TxFilter{Limit: defaultTransactionLimit}
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return storage.TxFilter{}, core.Invalid("limit", "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	if raw := q.Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return storage.TxFilter{}, core.Invalid("account_id", "account_id must be a positive integer")
		}
		filter.AccountID = id
	}

	rawYear, rawMonth := q.Get("year"), q.Get("month")
	if (rawYear == "") != (rawMonth == "") {
		return storage.TxFilter{}, core.Invalid("month", "year and month must be provided together")
	}
	if rawYear != "" {
		year, err := strconv.Atoi(rawYear)
		if err != nil || year <= 0 {
			return storage.TxFilter{}, core.Invalid("year", "year must be a positive integer")
		}
		month, err := strconv.Atoi(rawMonth)
		if err != nil || month < 1 || month > 12 {
			return storage.TxFilter{}, core.Invalid("month", "month must be between 1 and 12")
		}
		filter.Year, filter.Month = year, month
	}
	return filter, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date      string `json:"date"`
		Type      string `json:"type"`
		Category  string `json:"category"`
		Amount    any    `json:"amount"`
		Currency  string `json:"currency"`
		AccountID int64  `json:"account_id"`
		Note      string `json:"note"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	tx, err := core.TransactionInput{
		Date:      req.Date,
		Type:      req.Type,
		Category:  req.Category,
		Amount:    req.Amount,
		Currency:  req.Currency,
		AccountID: req.AccountID,
		Note:      req.Note,
	}.Normalize()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
		Warning string `json:"warning,omitempty"`
	}{ID: created.ID, Message: "Transaction added successfully"}
	if warning, ok := core.CategoryWarning(created.Type, created.Category); ok {
		resp.Warning = warning
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"expense_categories": core.ExpenseCategories,
		"income_categories":  core.IncomeCategories,
		"currencies":         core.Currencies,
	})
}
