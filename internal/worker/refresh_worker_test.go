package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jiangshan001/OpenISave/internal/core"
)

type stubFetcher struct {
	rates []core.ExchangeRate
	err   error
}

func (s *stubFetcher) Fetch(context.Context) ([]core.ExchangeRate, error) {
	return s.rates, s.err
}

type recordingStore struct {
	recorded []core.ExchangeRate
	err      error
}

func (s *recordingStore) RecordRate(_ context.Context, rate core.ExchangeRate) (core.ExchangeRate, error) {
	if s.err != nil {
		return core.ExchangeRate{}, s.err
	}
	s.recorded = append(s.recorded, rate)
	return rate, nil
}

func TestRefreshAppendsFetchedRates(t *testing.T) {
	today := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	fetched := []core.ExchangeRate{
		{FromCurrency: "USD", ToCurrency: "CNY", Rate: decimal.RequireFromString("7.25"), Date: today, Source: core.SourceAPI},
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.93"), Date: today, Source: core.SourceAPI},
	}
	store := &recordingStore{}
	w := NewRefreshWorker(store, &stubFetcher{rates: fetched})

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(store.recorded) != 2 {
		t.Fatalf("recorded %d rates, want 2", len(store.recorded))
	}
	if store.recorded[0].ToCurrency != "CNY" || store.recorded[0].Source != core.SourceAPI {
		t.Errorf("first recorded rate = %+v", store.recorded[0])
	}
}

func TestRefreshPropagatesFetchFailure(t *testing.T) {
	store := &recordingStore{}
	w := NewRefreshWorker(store, &stubFetcher{err: &core.ExternalSourceError{Source: "rate-api", Err: errors.New("boom")}})

	err := w.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var srcErr *core.ExternalSourceError
	if !errors.As(err, &srcErr) {
		t.Errorf("error %v does not wrap ExternalSourceError", err)
	}
	if len(store.recorded) != 0 {
		t.Errorf("recorded %d rates on failed fetch, want 0", len(store.recorded))
	}
}

func TestRefreshPropagatesStoreFailure(t *testing.T) {
	fetched := []core.ExchangeRate{
		{FromCurrency: "USD", ToCurrency: "CNY", Rate: decimal.RequireFromString("7.25"), Date: time.Now(), Source: core.SourceAPI},
	}
	store := &recordingStore{err: errors.New("disk full")}
	w := NewRefreshWorker(store, &stubFetcher{rates: fetched})

	if err := w.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
