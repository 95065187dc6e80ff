package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jiangshan001/OpenISave/internal/core"
	"github.com/jiangshan001/OpenISave/internal/storage"
)

// LedgerReader is the slice of the repository the aggregators need.
type LedgerReader interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	ListTransactions(ctx context.Context, filter storage.TxFilter) ([]core.Transaction, error)
	MonthlyTypeTotals(ctx context.Context, year, month int) ([]storage.TypeCurrencyTotal, error)
}

// RateResolver converts between currencies using the recorded rate history.
type RateResolver interface {
	Resolve(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// AccountBalance pairs an account with its balance converted into the
// account's own currency, rounded to two decimals for presentation.
type AccountBalance struct {
	Account core.Account
	Balance decimal.Decimal
}

// Dashboard is the aggregate view served on the landing endpoint.
type Dashboard struct {
	Accounts       []AccountBalance
	MonthlySummary []storage.TypeCurrencyTotal
	Recent         []core.Transaction
}

const recentTransactionLimit = 10

type BalanceService struct {
	ledger   LedgerReader
	resolver RateResolver
}

func NewBalanceService(ledger LedgerReader, resolver RateResolver) *BalanceService {
	return &BalanceService{ledger: ledger, resolver: resolver}
}

// ComputeBalance folds every transaction of the account into the account's
// currency at full precision. Expenses subtract, income and transfers add.
func (s *BalanceService) ComputeBalance(ctx context.Context, account core.Account) (decimal.Decimal, error) {
	txs, err := s.ledger.ListTransactions(ctx, storage.TxFilter{AccountID: account.ID})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("compute balance for account %d: %w", account.ID, err)
	}

	balance := decimal.Zero
	for _, tx := range txs {
		rate, err := s.resolver.Resolve(ctx, tx.Currency, account.Currency)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("compute balance for account %d: %w", account.ID, err)
		}
		converted := tx.Amount.Mul(rate)
		if tx.Type == core.Expense {
			balance = balance.Sub(converted)
		} else {
			balance = balance.Add(converted)
		}
	}
	return balance, nil
}

// AccountBalances computes the converted balance of every account
// concurrently, one goroutine per account.
func (s *BalanceService) AccountBalances(ctx context.Context) ([]AccountBalance, error) {
	accounts, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]AccountBalance, len(accounts))
	g, ctx := errgroup.WithContext(ctx)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			balance, err := s.ComputeBalance(ctx, account)
			if err != nil {
				return err
			}
			balances[i] = AccountBalance{Account: account, Balance: balance.Round(2)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return balances, nil
}

// BuildDashboard assembles account balances, the current month's totals
// grouped by type and currency, and the most recent transactions.
func (s *BalanceService) BuildDashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	balances, err := s.AccountBalances(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	summary, err := s.ledger.MonthlyTypeTotals(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return Dashboard{}, err
	}

	recent, err := s.ledger.ListTransactions(ctx, storage.TxFilter{Limit: recentTransactionLimit})
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{Accounts: balances, MonthlySummary: summary, Recent: recent}, nil
}
