// Package rates resolves conversion multipliers between supported
// currencies and fetches fresh quotes from an external source.
package rates

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jiangshan001/OpenISave/internal/core"
)

// Source supplies the current rate for a currency pair: most recent by
// date, ties broken by insertion order.
type Source interface {
	LatestRate(ctx context.Context, from, to string) (decimal.Decimal, bool, error)
}

// Resolver finds a conversion multiplier for a currency pair. It is a pure
// reader over the source: no caching, no mutation.
type Resolver struct {
	source Source
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the multiplier converting one unit of from into to.
// Lookup order: identity, direct quote, reciprocal of the reverse quote,
// then a USD-bridged product. When nothing matches, 1.0 is returned as a
// documented last-resort approximation rather than an error.
func (r *Resolver) Resolve(ctx context.Context, from, to string) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)

	if from == to {
		return one, nil
	}

	direct, found, err := r.source.LatestRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve %s->%s: %w", from, to, err)
	}
	if found {
		return direct, nil
	}

	reverse, found, err := r.source.LatestRate(ctx, to, from)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve %s->%s: %w", from, to, err)
	}
	if found && !reverse.IsZero() {
		return one.Div(reverse), nil
	}

	if from != core.BridgeCurrency && to != core.BridgeCurrency {
		toBridge, foundFrom, err := r.source.LatestRate(ctx, from, core.BridgeCurrency)
		if err != nil {
			return decimal.Zero, fmt.Errorf("resolve %s->%s: %w", from, to, err)
		}
		fromBridge, foundTo, err := r.source.LatestRate(ctx, core.BridgeCurrency, to)
		if err != nil {
			return decimal.Zero, fmt.Errorf("resolve %s->%s: %w", from, to, err)
		}
		if foundFrom && foundTo && !toBridge.IsZero() && !fromBridge.IsZero() {
			return toBridge.Mul(fromBridge), nil
		}
	}

	return one, nil
}
