package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jiangshan001/OpenISave/internal/core"
)

const defaultRateLimit = 100

type rateJSON struct {
	ID           int64       `json:"id"`
	FromCurrency string      `json:"from_currency"`
	ToCurrency   string      `json:"to_currency"`
	Rate         json.Number `json:"rate"`
	Date         string      `json:"date"`
	Source       string      `json:"source"`
}

func toRateJSON(rate core.ExchangeRate) rateJSON {
	return rateJSON{
		ID:           rate.ID,
		FromCurrency: rate.FromCurrency,
		ToCurrency:   rate.ToCurrency,
		Rate:         json.Number(rate.Rate.String()),
		Date:         core.DateString(rate.Date),
		Source:       rate.Source,
	}
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	limit := defaultRateLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, r, core.Invalid("limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	rates, err := s.store.ListRates(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]rateJSON, 0, len(rates))
	for _, rate := range rates {
		out = append(out, toRateJSON(rate))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromCurrency string `json:"from_currency"`
		ToCurrency   string `json:"to_currency"`
		Rate         any    `json:"rate"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	rate, err := core.RateInput{
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		Rate:         req.Rate,
	}.Normalize(time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := s.store.RecordRate(r.Context(), rate); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Exchange rate added successfully"})
}

// handleRefreshRates accepts the refresh request and returns immediately.
// The fetch happens on a queue worker when one is wired, in-process
// otherwise. Either way the response does not wait for it.
func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	if s.publisher != nil {
		if err := s.publisher.PublishRateRefresh(r.Context(), "api"); err != nil {
			slog.ErrorContext(r.Context(), "Failed to publish refresh request, falling back to in-process refresh", "error", err)
			s.refresher.RefreshDetached("api")
		}
	} else {
		s.refresher.RefreshDetached("api")
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "exchange rate refresh started",
	})
}
