package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jiangshan001/OpenISave/internal/core"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			err:        &core.ValidationError{Field: "amount", Message: "amount must be positive"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found",
			err:        core.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("load account: %w", core.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no accounts is a bad request",
			err:        core.ErrNoAccounts,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unexpected error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)

			writeError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("expected an error message in the body")
			}
		})
	}
}

func TestWriteErrorValidationIncludesField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)

	writeError(rec, req, &core.ValidationError{Field: "currency", Message: "unsupported currency"})

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["field"] != "currency" {
		t.Errorf("field = %q, want %q", body["field"], "currency")
	}
	if body["error"] != "unsupported currency" {
		t.Errorf("error = %q, want %q", body["error"], "unsupported currency")
	}
}
