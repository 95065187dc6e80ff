// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jiangshan001/OpenISave/internal/services"
	"github.com/jiangshan001/OpenISave/internal/storage"
)

// RefreshTrigger starts a background rate refresh without blocking the caller.
type RefreshTrigger interface {
	RefreshDetached(requestedBy string)
}

// RefreshPublisher hands the refresh request to a queue for a worker to pick
// up. Optional; when absent the refresh runs in-process.
type RefreshPublisher interface {
	PublishRateRefresh(ctx context.Context, requestedBy string) error
}

type Server struct {
	http.Server
	store       *storage.SQLiteRepository
	balances    *services.BalanceService
	reports     *services.ReportService
	refresher   RefreshTrigger
	publisher   RefreshPublisher
	rateLimiter *rateLimiter
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. publisher may be nil.
func NewServer(addr string, store *storage.SQLiteRepository, balances *services.BalanceService, reports *services.ReportService, refresher RefreshTrigger, publisher RefreshPublisher) *Server {
	s := &Server{
		store:       store,
		balances:    balances,
		reports:     reports,
		refresher:   refresher,
		publisher:   publisher,
		rateLimiter: newRateLimiter(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", handleHealth)
	router.HandleFunc("/readyz", s.handleReady)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.withRequestContext)
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/exchange-rates", s.handleListRates).Methods(http.MethodGet)
	api.HandleFunc("/exchange-rates", s.handleCreateRate).Methods(http.MethodPost)
	api.HandleFunc("/exchange-rates/update", s.handleRefreshRates).Methods(http.MethodPost)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/reports/monthly/{year:[0-9]+}/{month:[0-9]+}", s.handleMonthlyReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/monthly/{year:[0-9]+}/{month:[0-9]+}/pdf", s.handleMonthlyReportPDF).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}
	return s.Server.Shutdown(ctx)
}

// withRequestContext adds a request ID, security headers, request logging,
// and rate limiting on writes.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListAccounts(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
