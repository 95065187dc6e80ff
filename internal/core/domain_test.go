package core

import (
	"testing"
	"time"
)

func TestSupportedCurrency(t *testing.T) {
	cases := []struct {
		code string
		ok   bool
	}{
		{"CNY", true},
		{"USD", true},
		{"AUD", true},
		{"usd", false}, // must be uppercased first
		{"XYZ", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := SupportedCurrency(tc.code); got != tc.ok {
			t.Errorf("SupportedCurrency(%q) = %v, want %v", tc.code, got, tc.ok)
		}
	}
}

func TestValidTxType(t *testing.T) {
	for _, valid := range []TxType{Income, Expense, Transfer} {
		if !ValidTxType(valid) {
			t.Errorf("ValidTxType(%q) = false", valid)
		}
	}
	for _, invalid := range []TxType{"", "loan", "Expense"} {
		if ValidTxType(invalid) {
			t.Errorf("ValidTxType(%q) = true", invalid)
		}
	}
}

func TestDateString(t *testing.T) {
	d := time.Date(2024, time.March, 5, 13, 45, 0, 0, time.UTC)
	if got := DateString(d); got != "2024-03-05" {
		t.Errorf("DateString = %q, want 2024-03-05", got)
	}
}
