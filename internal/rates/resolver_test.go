package rates

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jiangshan001/OpenISave/internal/core"
)

// fakeSource holds one current rate per pair, keyed "FROM/TO".
type fakeSource map[string]string

func (f fakeSource) LatestRate(ctx context.Context, from, to string) (decimal.Decimal, bool, error) {
	s, ok := f[from+"/"+to]
	if !ok {
		return decimal.Zero, false, nil
	}
	return decimal.RequireFromString(s), true, nil
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		source fakeSource
		from   string
		to     string
		want   string
	}{
		{
			name:   "identity needs no lookup",
			source: fakeSource{},
			from:   "EUR",
			to:     "EUR",
			want:   "1",
		},
		{
			name:   "direct quote wins",
			source: fakeSource{"USD/CNY": "7.2", "CNY/USD": "0.135"},
			from:   "USD",
			to:     "CNY",
			want:   "7.2",
		},
		{
			name:   "reverse quote reciprocal",
			source: fakeSource{"CNY/USD": "0.125"},
			from:   "USD",
			to:     "CNY",
			want:   "8",
		},
		{
			name:   "bridged through USD",
			source: fakeSource{"EUR/USD": "1.1", "USD/JPY": "150"},
			from:   "EUR",
			to:     "JPY",
			want:   "165",
		},
		{
			name:   "no quote at all falls back to 1",
			source: fakeSource{},
			from:   "GBP",
			to:     "JPY",
			want:   "1",
		},
		{
			name:   "half a bridge is no bridge",
			source: fakeSource{"EUR/USD": "1.1"},
			from:   "EUR",
			to:     "JPY",
			want:   "1",
		},
		{
			name:   "bridge not used when target is USD",
			source: fakeSource{"EUR/USD": "1.1"},
			from:   "GBP",
			to:     "USD",
			want:   "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.source)
			got, err := r.Resolve(ctx, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Resolve(%s, %s) error = %v", tt.from, tt.to, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Resolve(%s, %s) = %s, want %s", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestResolver_IdentityForAllSupportedCurrencies(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(fakeSource{})
	one := decimal.NewFromInt(1)

	for _, c := range core.Currencies {
		got, err := r.Resolve(ctx, c, c)
		if err != nil {
			t.Fatalf("Resolve(%s, %s) error = %v", c, c, err)
		}
		if !got.Equal(one) {
			t.Errorf("Resolve(%s, %s) = %s, want 1", c, c, got)
		}
	}
}

func TestResolver_IsSideEffectFree(t *testing.T) {
	ctx := context.Background()
	src := fakeSource{"USD/CNY": "7.2"}
	r := NewResolver(src)

	first, err := r.Resolve(ctx, "USD", "CNY")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	second, err := r.Resolve(ctx, "USD", "CNY")
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("repeated resolution differs: %s vs %s", first, second)
	}
	if len(src) != 1 {
		t.Errorf("resolver mutated its source")
	}
}
