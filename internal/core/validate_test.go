package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionInput_Normalize(t *testing.T) {
	valid := TransactionInput{
		Date:     "2024-03-01",
		Type:     "expense",
		Category: "Food",
		Amount:   json.Number("50"),
		Currency: "CNY",
	}

	t.Run("well-formed submission", func(t *testing.T) {
		tx, err := valid.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if got := DateString(tx.Date); got != "2024-03-01" {
			t.Errorf("date = %s, want 2024-03-01", got)
		}
		if tx.Type != Expense {
			t.Errorf("type = %s, want expense", tx.Type)
		}
		if !tx.Amount.Equal(decimal.NewFromInt(50)) {
			t.Errorf("amount = %s, want 50", tx.Amount)
		}
	})

	t.Run("type and currency are normalized", func(t *testing.T) {
		in := valid
		in.Type = "  EXPENSE "
		in.Currency = "cny"
		tx, err := in.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if tx.Type != Expense || tx.Currency != "CNY" {
			t.Errorf("got type=%s currency=%s", tx.Type, tx.Currency)
		}
	})

	t.Run("empty currency defaults to CNY", func(t *testing.T) {
		in := valid
		in.Currency = ""
		tx, err := in.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if tx.Currency != DefaultCurrency {
			t.Errorf("currency = %s, want %s", tx.Currency, DefaultCurrency)
		}
	})

	rejections := []struct {
		name    string
		mutate  func(*TransactionInput)
		field   string
	}{
		{"missing date", func(in *TransactionInput) { in.Date = "" }, "date"},
		{"malformed date", func(in *TransactionInput) { in.Date = "01/03/2024" }, "date"},
		{"unknown type", func(in *TransactionInput) { in.Type = "refund" }, "type"},
		{"missing category", func(in *TransactionInput) { in.Category = " " }, "category"},
		{"zero amount", func(in *TransactionInput) { in.Amount = json.Number("0") }, "amount"},
		{"negative amount", func(in *TransactionInput) { in.Amount = json.Number("-5") }, "amount"},
		{"non-numeric amount", func(in *TransactionInput) { in.Amount = "abc" }, "amount"},
		{"unknown currency", func(in *TransactionInput) { in.Currency = "XXX" }, "currency"},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := in.Normalize()
			if err == nil {
				t.Fatal("Normalize() accepted invalid input")
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestAccountInput_Normalize(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		acc, err := AccountInput{Name: " Savings ", Currency: "usd"}.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if acc.Name != "Savings" || acc.Currency != "USD" {
			t.Errorf("got %q/%s", acc.Name, acc.Currency)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		if _, err := (AccountInput{Name: "  "}).Normalize(); err == nil {
			t.Fatal("expected validation error for empty name")
		}
	})

	t.Run("empty currency defaults", func(t *testing.T) {
		acc, err := AccountInput{Name: "Main"}.Normalize()
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if acc.Currency != DefaultCurrency {
			t.Errorf("currency = %s, want %s", acc.Currency, DefaultCurrency)
		}
	})

	t.Run("unsupported currency rejected", func(t *testing.T) {
		if _, err := (AccountInput{Name: "Main", Currency: "BTC"}).Normalize(); err == nil {
			t.Fatal("expected validation error for unsupported currency")
		}
	})
}

func TestRateInput_Normalize(t *testing.T) {
	today := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		r, err := RateInput{FromCurrency: "usd", ToCurrency: "cny", Rate: 7.2}.Normalize(today)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		if r.FromCurrency != "USD" || r.ToCurrency != "CNY" {
			t.Errorf("pair = %s/%s", r.FromCurrency, r.ToCurrency)
		}
		if r.Source != SourceManual {
			t.Errorf("source = %s, want manual", r.Source)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		if _, err := (RateInput{FromCurrency: "USD"}).Normalize(today); err == nil {
			t.Fatal("expected validation error for missing fields")
		}
	})

	t.Run("non-positive rate", func(t *testing.T) {
		if _, err := (RateInput{FromCurrency: "USD", ToCurrency: "CNY", Rate: 0.0}).Normalize(today); err == nil {
			t.Fatal("expected validation error for zero rate")
		}
	})
}

func TestCategoryWarning(t *testing.T) {
	tests := []struct {
		name     string
		txType   TxType
		category string
		want     bool
	}{
		{"curated expense category", Expense, "Food", false},
		{"custom expense category", Expense, "Crypto", true},
		{"curated income category", Income, "Salary", false},
		{"custom income category", Income, "Lottery", true},
		{"transfer has no suggestions", Transfer, "Anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := CategoryWarning(tt.txType, tt.category)
			if got != tt.want {
				t.Errorf("CategoryWarning(%s, %s) = %v, want %v", tt.txType, tt.category, got, tt.want)
			}
		})
	}
}
