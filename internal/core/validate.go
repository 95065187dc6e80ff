package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountInput is an account submission before validation.
type AccountInput struct {
	Name     string
	Currency string
}

// TransactionInput is a transaction submission before validation. Amount is
// any because JSON clients send both numbers and numeric strings.
type TransactionInput struct {
	Date      string
	Type      string
	Category  string
	Amount    any
	Currency  string
	AccountID int64 // 0 means unset; resolved to the first account at insert
	Note      string
}

// RateInput is a manual exchange rate submission before validation.
type RateInput struct {
	FromCurrency string
	ToCurrency   string
	Rate         any
}

// Normalize validates the account submission field by field and returns the
// first violated constraint. An empty currency defaults to DefaultCurrency.
func (in AccountInput) Normalize() (Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Account{}, Invalid("name", "Account name is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !SupportedCurrency(currency) {
		return Account{}, Invalid("currency", "Unsupported currency: %s", currency)
	}
	return Account{Name: name, Currency: currency}, nil
}

// Normalize validates the transaction submission field by field, in a fixed
// order, and returns the first violated constraint only. Account existence
// is checked at insert time by the store, not here.
func (in TransactionInput) Normalize() (Transaction, error) {
	if strings.TrimSpace(in.Date) == "" {
		return Transaction{}, Invalid("date", "date is required")
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(in.Date))
	if err != nil {
		return Transaction{}, Invalid("date", "Date must be in YYYY-MM-DD format")
	}

	txType := TxType(strings.ToLower(strings.TrimSpace(in.Type)))
	if txType == "" {
		return Transaction{}, Invalid("type", "type is required")
	}
	if !ValidTxType(txType) {
		return Transaction{}, Invalid("type", "invalid type (allowed: expense, income, transfer)")
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		return Transaction{}, Invalid("category", "category is required")
	}

	amount, err := parseDecimal(in.Amount)
	if err != nil || !amount.IsPositive() {
		return Transaction{}, Invalid("amount", "Invalid amount; must be positive number")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !SupportedCurrency(currency) {
		return Transaction{}, Invalid("currency", "Unsupported currency: %s", currency)
	}

	return Transaction{
		Date:      date,
		Type:      txType,
		Category:  category,
		Amount:    amount,
		Currency:  currency,
		AccountID: in.AccountID,
		Note:      strings.TrimSpace(in.Note),
	}, nil
}

// Normalize validates the rate submission and returns a record dated today
// with source=manual.
func (in RateInput) Normalize(today time.Time) (ExchangeRate, error) {
	from := strings.ToUpper(strings.TrimSpace(in.FromCurrency))
	to := strings.ToUpper(strings.TrimSpace(in.ToCurrency))
	if from == "" || to == "" || in.Rate == nil {
		return ExchangeRate{}, Invalid("rate", "All fields are required (from_currency, to_currency, rate)")
	}
	rate, err := parseDecimal(in.Rate)
	if err != nil || !rate.IsPositive() {
		return ExchangeRate{}, Invalid("rate", "Invalid rate; must be positive number")
	}
	if !SupportedCurrency(from) {
		return ExchangeRate{}, Invalid("from_currency", "Unsupported currency: %s", from)
	}
	if !SupportedCurrency(to) {
		return ExchangeRate{}, Invalid("to_currency", "Unsupported currency: %s", to)
	}
	return ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Date:         today,
		Source:       SourceManual,
	}, nil
}

// CategoryWarning returns an advisory message when category falls outside
// the curated suggestion list for txType. It never blocks ingestion.
func CategoryWarning(txType TxType, category string) (string, bool) {
	var suggestions []string
	switch txType {
	case Expense:
		suggestions = ExpenseCategories
	case Income:
		suggestions = IncomeCategories
	default:
		return "", false
	}
	for _, s := range suggestions {
		if s == category {
			return "", false
		}
	}
	return fmt.Sprintf("category %q is not in the suggested %s categories", category, txType), true
}

func parseDecimal(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(val))
	case float64:
		return decimal.NewFromFloat(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case fmt.Stringer:
		return decimal.NewFromString(val.String())
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}
