package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httphandlers "fintrack/internal/interfaces/http"
	"fintrack/internal/shared/config"
)

func newTestServer(t *testing.T, rateLimit int) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Store:     config.StoreConfig{Backend: config.StoreMemory},
		Auth:      config.AuthConfig{Provider: config.AuthLocal, JWTSecret: "routes-test-secret"},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: rateLimit, Burst: rateLimit},
	}

	deps, err := NewDependencies(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewDependencies() failed: %v", err)
	}
	t.Cleanup(deps.Close)

	return SetupRoutes(deps, cfg)
}

func TestRoutes_PublicAndProtected(t *testing.T) {
	h := newTestServer(t, 0)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/dashboard", http.StatusUnauthorized},
		{http.MethodGet, "/api/budgets/lock", http.StatusUnauthorized},
		{http.MethodPut, "/api/budgets/categories/Food", http.StatusUnauthorized},
		{http.MethodPost, "/api/goals/g1/contributions", http.StatusUnauthorized},
		{http.MethodDelete, "/api/health", http.StatusNotFound},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRoutes_SignupThenUseToken(t *testing.T) {
	h := newTestServer(t, 0)

	body := `{"email":"saver@example.com","password":"s3cret!","name":"Saver"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rr.Code, rr.Body)
	}

	var resp httphandlers.AuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding signup response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("signup with the local provider returned no token")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/budgets", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("budgets status = %d, body %s", rr.Code, rr.Body)
	}
}

func TestRoutes_AuthEndpointsRateLimited(t *testing.T) {
	h := newTestServer(t, 2)

	var last int
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:4000"
		h.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third login status = %d, want 429", last)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 (not rate limited)", rr.Code)
	}
}
