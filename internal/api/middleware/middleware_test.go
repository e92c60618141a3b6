package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/spendwise/internal/auth"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/statement"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("generated ID %q not echoed, header %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc" {
		t.Errorf("caller ID not propagated, got %q", seen)
	}
}

func TestAuth(t *testing.T) {
	tokens, err := auth.NewTokenService("secret")
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	valid, _ := tokens.GenerateToken("alice", time.Hour)

	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		tokens     *auth.TokenService
		path       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"no secret uses default user", nil, "/api/transactions", "", http.StatusOK, "default-user"},
		{"valid token", tokens, "/api/transactions", "Bearer " + valid, http.StatusOK, "alice"},
		{"missing token", tokens, "/api/transactions", "", http.StatusUnauthorized, ""},
		{"bad token", tokens, "/api/transactions", "Bearer nope", http.StatusUnauthorized, ""},
		{"public path", tokens, "/health", "", http.StatusOK, "default-user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			h := Auth(tt.tokens, "default-user", "/health")(next)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUser != tt.wantUser {
				t.Errorf("user = %q, want %q", gotUser, tt.wantUser)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if resp := decodeEnvelope(t, rec); resp.Success || resp.Message == "" {
					t.Errorf("unexpected envelope %+v", resp)
				}
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Success {
		t.Error("expected success=false")
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/budget", nil))

	if rec.Code != http.StatusNoContent || called {
		t.Errorf("preflight: status %d, handler called %v", rec.Code, called)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad month", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: %q", statement.ErrUnsupportedFormat, "image/png"), http.StatusBadRequest},
		{fmt.Errorf("rule x: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("keyword: %w", domain.ErrDuplicate), http.StatusConflict},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{errors.New("bigquery down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteDomainError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, logger.Nop(), errors.New("dial tcp 10.0.0.1: refused"))

	resp := decodeEnvelope(t, rec)
	if resp.Message != "Internal server error" {
		t.Errorf("message = %q", resp.Message)
	}
}
