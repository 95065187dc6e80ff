package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jiangshan001/OpenISave/internal/core"
)

// RateFetcher pulls the latest rates from the external source.
type RateFetcher interface {
	Fetch(ctx context.Context) ([]core.ExchangeRate, error)
}

// RateRecorder appends rate rows to the history.
type RateRecorder interface {
	RecordRate(ctx context.Context, rate core.ExchangeRate) (core.ExchangeRate, error)
}

// RefreshWorker fetches exchange rates and appends them to the ledger's
// rate history. Existing rows are never touched.
type RefreshWorker struct {
	store   RateRecorder
	fetcher RateFetcher
}

func NewRefreshWorker(store RateRecorder, fetcher RateFetcher) *RefreshWorker {
	return &RefreshWorker{store: store, fetcher: fetcher}
}

// Refresh fetches the current rates and records one row per currency.
func (w *RefreshWorker) Refresh(ctx context.Context) error {
	rates, err := w.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}

	for _, rate := range rates {
		if _, err := w.store.RecordRate(ctx, rate); err != nil {
			return fmt.Errorf("record rate %s->%s: %w", rate.FromCurrency, rate.ToCurrency, err)
		}
	}

	slog.InfoContext(ctx, "Refreshed exchange rates", "count", len(rates))
	return nil
}

// RefreshDetached runs Refresh without tying it to the caller's request.
// Failures are logged and absorbed; the ledger keeps serving prior rates.
func (w *RefreshWorker) RefreshDetached(requestedBy string) {
	go func() {
		ctx := context.Background()
		if err := w.Refresh(ctx); err != nil {
			slog.ErrorContext(ctx, "Rate refresh failed",
				"requested_by", requestedBy,
				"error", err)
			return
		}
		slog.InfoContext(ctx, "Rate refresh completed", "requested_by", requestedBy)
	}()
}
