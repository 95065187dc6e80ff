package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income   TxType = "income"
	Expense  TxType = "expense"
	Transfer TxType = "transfer"
)

// Rate row provenance.
const (
	SourceManual  = "manual"
	SourceAPI     = "api"
	SourceDefault = "default"
)

const (
	// DateLayout is the only accepted calendar date format.
	DateLayout = "2006-01-02"

	// BridgeCurrency is the intermediary used when no direct or reverse
	// quote exists for a pair.
	BridgeCurrency = "USD"

	// DefaultCurrency is the primary currency, used for the seeded account
	// and as the fallback when a submission omits the currency.
	DefaultCurrency = "CNY"
)

type (
	TxType string

	Account struct {
		ID        int64
		Name      string
		Currency  string
		CreatedAt time.Time
	}

	Transaction struct {
		ID        int64
		Date      time.Time // calendar date, no time component
		Type      TxType
		Category  string
		Amount    decimal.Decimal // strictly positive; sign implied by Type
		Currency  string
		AccountID int64
		Note      string
		CreatedAt time.Time

		// AccountName is populated by list queries that join accounts.
		AccountName string
	}

	ExchangeRate struct {
		ID           int64
		FromCurrency string
		ToCurrency   string
		Rate         decimal.Decimal // 1 unit of from = Rate units of to
		Date         time.Time       // day of applicability
		Source       string
		CreatedAt    time.Time
	}
)

// Currencies is the fixed supported set. Every currency field on every
// entity must hold one of these codes.
var Currencies = []string{"CNY", "USD", "EUR", "GBP", "JPY", "CAD", "AUD"}

// Curated category suggestions per type. Advisory only: submissions with
// other categories are accepted.
var (
	ExpenseCategories = []string{"Food", "Transport", "Rent", "Utilities", "Entertainment", "Groceries", "Health", "Clothing", "Education", "Other"}
	IncomeCategories  = []string{"Salary", "Bonus", "Part-time", "Interest", "Gift", "Investment", "Freelance", "Other"}
)

// SupportedCurrency reports whether code is in the supported set.
// The code must already be uppercased.
func SupportedCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// ValidTxType reports whether t is one of the three allowed literals.
func ValidTxType(t TxType) bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// DateString formats d in the canonical calendar date layout.
func DateString(d time.Time) string {
	return d.Format(DateLayout)
}
