package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jiangshan001/OpenISave/internal/core"
	"github.com/jiangshan001/OpenISave/internal/storage"
)

type fakeLedger struct {
	accounts     []core.Account
	transactions []core.Transaction
	totals       []storage.TypeCurrencyTotal
}

func (f *fakeLedger) ListAccounts(context.Context) ([]core.Account, error) {
	return f.accounts, nil
}

func (f *fakeLedger) ListTransactions(_ context.Context, filter storage.TxFilter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range f.transactions {
		if filter.AccountID != 0 && tx.AccountID != filter.AccountID {
			continue
		}
		if filter.Year != 0 && (tx.Date.Year() != filter.Year || int(tx.Date.Month()) != filter.Month) {
			continue
		}
		out = append(out, tx)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLedger) MonthlyTypeTotals(context.Context, int, int) ([]storage.TypeCurrencyTotal, error) {
	return f.totals, nil
}

type fakeResolver struct {
	rates map[string]string
}

func (f *fakeResolver) Resolve(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := f.rates[from+"/"+to]; ok {
		return decimal.RequireFromString(rate), nil
	}
	return decimal.NewFromInt(1), nil
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(core.DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return parsed
}

func TestComputeBalanceConvertsIntoAccountCurrency(t *testing.T) {
	ledger := &fakeLedger{
		accounts: []core.Account{{ID: 1, Name: "Main Account", Currency: "CNY"}},
		transactions: []core.Transaction{
			{ID: 1, AccountID: 1, Date: day(t, "2024-03-01"), Type: core.Income, Category: "Salary", Amount: decimal.NewFromInt(10), Currency: "USD"},
		},
	}
	resolver := &fakeResolver{rates: map[string]string{"USD/CNY": "7.2"}}
	svc := NewBalanceService(ledger, resolver)

	balance, err := svc.ComputeBalance(context.Background(), ledger.accounts[0])
	if err != nil {
		t.Fatalf("ComputeBalance: %v", err)
	}
	if got := balance.Round(2).StringFixed(2); got != "72.00" {
		t.Errorf("balance = %s, want 72.00", got)
	}
}

func TestComputeBalanceExpensesSubtract(t *testing.T) {
	ledger := &fakeLedger{
		accounts: []core.Account{{ID: 1, Name: "Main Account", Currency: "CNY"}},
		transactions: []core.Transaction{
			{ID: 1, AccountID: 1, Date: day(t, "2024-03-01"), Type: core.Income, Category: "Salary", Amount: d(t, "100"), Currency: "CNY"},
			{ID: 2, AccountID: 1, Date: day(t, "2024-03-02"), Type: core.Expense, Category: "Food", Amount: d(t, "30.5"), Currency: "CNY"},
			{ID: 3, AccountID: 1, Date: day(t, "2024-03-03"), Type: core.Transfer, Category: "Transfer", Amount: d(t, "10"), Currency: "CNY"},
		},
	}
	svc := NewBalanceService(ledger, &fakeResolver{})

	balance, err := svc.ComputeBalance(context.Background(), ledger.accounts[0])
	if err != nil {
		t.Fatalf("ComputeBalance: %v", err)
	}
	if got := balance.StringFixed(2); got != "79.50" {
		t.Errorf("balance = %s, want 79.50", got)
	}
}

func TestAccountBalancesCoversEveryAccount(t *testing.T) {
	ledger := &fakeLedger{
		accounts: []core.Account{
			{ID: 1, Name: "Cash", Currency: "CNY"},
			{ID: 2, Name: "Savings", Currency: "USD"},
		},
		transactions: []core.Transaction{
			{ID: 1, AccountID: 1, Date: day(t, "2024-03-01"), Type: core.Income, Category: "Salary", Amount: d(t, "50"), Currency: "CNY"},
			{ID: 2, AccountID: 2, Date: day(t, "2024-03-01"), Type: core.Income, Category: "Salary", Amount: d(t, "20"), Currency: "USD"},
		},
	}
	svc := NewBalanceService(ledger, &fakeResolver{})

	balances, err := svc.AccountBalances(context.Background())
	if err != nil {
		t.Fatalf("AccountBalances: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	if balances[0].Account.Name != "Cash" || balances[0].Balance.StringFixed(2) != "50.00" {
		t.Errorf("first balance = %s %s", balances[0].Account.Name, balances[0].Balance)
	}
	if balances[1].Account.Name != "Savings" || balances[1].Balance.StringFixed(2) != "20.00" {
		t.Errorf("second balance = %s %s", balances[1].Account.Name, balances[1].Balance)
	}
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{
		accounts: []core.Account{{ID: 1, Name: "Main Account", Currency: "CNY"}},
		transactions: []core.Transaction{
			{ID: 1, AccountID: 1, Date: day(t, "2024-03-01"), Type: core.Expense, Category: "Food", Amount: d(t, "25"), Currency: "CNY"},
		},
		totals: []storage.TypeCurrencyTotal{
			{Type: core.Expense, Currency: "CNY", Total: d(t, "25")},
		},
	}
	svc := NewBalanceService(ledger, &fakeResolver{})

	dash, err := svc.BuildDashboard(context.Background(), now)
	if err != nil {
		t.Fatalf("BuildDashboard: %v", err)
	}
	if len(dash.Accounts) != 1 {
		t.Fatalf("got %d accounts, want 1", len(dash.Accounts))
	}
	if dash.Accounts[0].Balance.StringFixed(2) != "-25.00" {
		t.Errorf("balance = %s, want -25.00", dash.Accounts[0].Balance)
	}
	if len(dash.MonthlySummary) != 1 || !dash.MonthlySummary[0].Total.Equal(d(t, "25")) {
		t.Errorf("monthly summary = %+v", dash.MonthlySummary)
	}
	if len(dash.Recent) != 1 {
		t.Errorf("got %d recent transactions, want 1", len(dash.Recent))
	}
}
