package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func rateLimit(perSec float64) rate.Limit { return rate.Limit(perSec) }

// newTestChain はルーターと同じ順序でミドルウェアを組み立てる。
func newTestChain(buf *bytes.Buffer, rl *RateLimiter) *chi.Mux {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(NewRecoveryMiddleware())
	r.Use(NewSecurityHeadersMiddleware())
	r.Use(NewCORSMiddleware("http://localhost:5173"))
	r.Use(NewLoggingMiddleware(logger, nil))
	r.Use(rl.GeneralMiddleware())

	r.Get("/api/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	return r
}

func TestMiddlewareChain_HeadersAndLogging(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()
	r := newTestChain(&buf, rl)

	req := httptest.NewRequest(http.MethodGet, "/api/ok", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be set")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("CORS headers should be set")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	// RealIPがRemoteAddrを書き換えた後の値がログに出る
	if entry["client_ip"] != "198.51.100.9" {
		t.Errorf("client_ip = %v, want 198.51.100.9", entry["client_ip"])
	}
}

func TestMiddlewareChain_PreflightBypassesRateLimit(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRateLimiter(testConfig(1, 1, 1, 1))
	defer rl.Stop()
	r := newTestChain(&buf, rl)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodOptions, "/api/ok", nil)
		req.RemoteAddr = "192.0.2.50:1"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Errorf("preflight %d: status = %d, want 204", i, w.Code)
		}
	}
}

func TestMiddlewareChain_RecoversFromPanic(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()
	r := newTestChain(&buf, rl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
