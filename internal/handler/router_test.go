package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/fit2fit/internal/engagement"
	"github.com/hitoshi/fit2fit/internal/metrics"
	"github.com/hitoshi/fit2fit/internal/middleware"
	"github.com/hitoshi/fit2fit/internal/model"
	"github.com/hitoshi/fit2fit/internal/reminder"
	"github.com/hitoshi/fit2fit/internal/subscription"
)

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// newTestDeps はモックで構成したRouterDepsを返す。
func newTestDeps(t *testing.T, rlCfg middleware.RateLimiterConfig) *RouterDeps {
	t.Helper()
	rl := middleware.NewRateLimiter(rlCfg)
	t.Cleanup(rl.Stop)

	return &RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		HealthChecker:     &mockHealthChecker{},
		ReminderService:   &mockReminderService{},
		ReminderTrigger:   &mockReminderTrigger{},
		DietPlanService:   &mockDietPlanService{},
		EngagementService: &mockEngagementService{},
		AnalyticsService:  &mockAnalyticsService{},
		MemberService:     &mockMemberService{},
	}
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = jsonRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = "192.0.2.10:40000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRouter_AllRoutesRegistered(t *testing.T) {
	router := NewRouter(newTestDeps(t, middleware.DefaultRateLimiterConfig()))

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodPost, "/api/subscribe", `{"email":"a@example.com","class_type":"HIIT"}`, http.StatusOK},
		{http.MethodPost, "/api/subscribe-reminders", `{"email":"a@example.com","class_type":"HIIT"}`, http.StatusOK},
		{http.MethodPost, "/api/unsubscribe", `{"email":"a@example.com","class_type":"HIIT"}`, http.StatusOK},
		{http.MethodPost, "/api/unsubscribe-reminders", `{"email":"a@example.com","class_type":"HIIT"}`, http.StatusOK},
		{http.MethodGet, "/api/reminder-status/a@example.com/HIIT", "", http.StatusOK},
		{http.MethodPost, "/api/test-meal-reminder", `{"email":"a@example.com","class_type":"HIIT"}`, http.StatusOK},
		{http.MethodGet, "/api/diet-plans/Yoga", "", http.StatusOK},
		{http.MethodPost, "/api/checkin", `{"user_id":"a@example.com"}`, http.StatusOK},
		{http.MethodGet, "/api/profile/a@example.com", "", http.StatusOK},
		{http.MethodGet, "/api/achievements/a@example.com", "", http.StatusOK},
		{http.MethodGet, "/api/leaderboard", "", http.StatusOK},
		{http.MethodPost, "/api/analytics/workout", `{"user_id":"u","exercise":"Running","duration":30}`, http.StatusCreated},
		{http.MethodGet, "/api/analytics/workouts/u", "", http.StatusOK},
		{http.MethodGet, "/api/analytics/stats/u", "", http.StatusOK},
		{http.MethodGet, "/api/analytics/heatmap/u/2026", "", http.StatusOK},
		{http.MethodGet, "/api/analytics/report/u/month", "", http.StatusOK},
		{http.MethodGet, "/api/analytics/exercises", "", http.StatusOK},
		{http.MethodPost, "/api/analytics/measurement", `{"user_id":"u","weight":70}`, http.StatusCreated},
		{http.MethodGet, "/api/analytics/measurements/u", "", http.StatusOK},
		{http.MethodPost, "/api/analytics/goal", `{"user_id":"u","title":"t","target_value":10}`, http.StatusCreated},
		{http.MethodGet, "/api/analytics/goals/u", "", http.StatusOK},
		{http.MethodPut, "/api/analytics/goal/g-1", `{"status":"completed"}`, http.StatusOK},
		{http.MethodDelete, "/api/analytics/goal/g-1", "", http.StatusOK},
		{http.MethodPost, "/api/join", `{"name":"A","email":"a@example.com"}`, http.StatusCreated},
		{http.MethodGet, "/api/members", "", http.StatusOK},
		{http.MethodPost, "/api/pay", `{"member_name":"A","plan":"Pro","amount":10}`, http.StatusCreated},
		{http.MethodGet, "/api/transactions", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestNewRouter_UnknownRoute_Returns404Or405(t *testing.T) {
	router := NewRouter(newTestDeps(t, middleware.DefaultRateLimiterConfig()))

	w := doRequest(router, http.MethodGet, "/api/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/subscribe", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/subscribe status = %d, want 405", w.Code)
	}
}

func TestNewRouter_AliasesShareHandler(t *testing.T) {
	deps := newTestDeps(t, middleware.DefaultRateLimiterConfig())
	var calls []string
	deps.ReminderService = &mockReminderService{
		subscribeFn: func(ctx context.Context, in subscription.SubscribeInput) (*subscription.SubscribeResult, error) {
			calls = append(calls, in.Email)
			return &subscription.SubscribeResult{}, nil
		},
	}
	router := NewRouter(deps)

	doRequest(router, http.MethodPost, "/api/subscribe", `{"email":"one@example.com","class_type":"HIIT"}`)
	doRequest(router, http.MethodPost, "/api/subscribe-reminders", `{"email":"two@example.com","class_type":"HIIT"}`)

	if len(calls) != 2 || calls[0] != "one@example.com" || calls[1] != "two@example.com" {
		t.Errorf("calls = %v", calls)
	}
}

func TestNewRouter_TriggerHasStricterRateLimit(t *testing.T) {
	cfg := middleware.PerMinuteRateLimiterConfig(120, 2)
	deps := newTestDeps(t, cfg)
	sent := 0
	deps.ReminderTrigger = &mockReminderTrigger{
		triggerFn: func(ctx context.Context, email, classType string) (*reminder.SubscriberResult, error) {
			sent++
			return &reminder.SubscriberResult{Identity: email}, nil
		},
	}
	router := NewRouter(deps)

	body := `{"email":"a@example.com","class_type":"HIIT"}`
	for i := 0; i < 2; i++ {
		if w := doRequest(router, http.MethodPost, "/api/test-meal-reminder", body); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := doRequest(router, http.MethodPost, "/api/test-meal-reminder", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
	var errBody map[string]string
	json.NewDecoder(w.Body).Decode(&errBody)
	if errBody["code"] != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", errBody["code"])
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}

	// 一般のエンドポイントは影響を受けない
	if w := doRequest(router, http.MethodGet, "/api/leaderboard", ""); w.Code != http.StatusOK {
		t.Errorf("leaderboard status = %d, want 200", w.Code)
	}
}

func TestNewRouter_HealthDoesNotConsumeRateLimit(t *testing.T) {
	cfg := middleware.PerMinuteRateLimiterConfig(1, 1)
	router := NewRouter(newTestDeps(t, cfg))

	for i := 0; i < 3; i++ {
		if w := doRequest(router, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
			t.Fatalf("health request %d: status = %d, want 200", i+1, w.Code)
		}
	}
	if w := doRequest(router, http.MethodGet, "/api/leaderboard", ""); w.Code != http.StatusOK {
		t.Fatalf("first API request status = %d, want 200", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/api/leaderboard", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second API request status = %d, want 429", w.Code)
	}
}

func TestNewRouter_Health_DatabaseDown(t *testing.T) {
	deps := newTestDeps(t, middleware.DefaultRateLimiterConfig())
	deps.HealthChecker = &mockHealthChecker{err: errors.New("dial tcp: connection refused")}
	router := NewRouter(deps)

	w := doRequest(router, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unavailable" || body.Database != "unreachable" {
		t.Errorf("body = %+v", body)
	}
}

func TestNewRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	deps := newTestDeps(t, middleware.DefaultRateLimiterConfig())
	deps.Gatherer = reg
	deps.StatusMetrics = collector
	deps.EngagementService = &mockEngagementService{
		profileFn: func(ctx context.Context, identity string) (*engagement.ProfileView, error) {
			return nil, model.NewProfileNotFoundError(identity)
		},
	}
	router := NewRouter(deps)

	doRequest(router, http.MethodGet, "/api/profile/ghost@example.com", "")
	doRequest(router, http.MethodGet, "/api/leaderboard", "")

	w := doRequest(router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	out := w.Body.String()
	if !strings.Contains(out, `status_code="404"`) || !strings.Contains(out, `status_code="200"`) {
		t.Errorf("metrics output should count 200 and 404 responses:\n%s", out)
	}
}

func TestNewRouter_MiddlewareApplied(t *testing.T) {
	var buf bytes.Buffer
	deps := newTestDeps(t, middleware.DefaultRateLimiterConfig())
	deps.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("CORS header should be set")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers should be set")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v (raw=%s)", err, buf.String())
	}
	if entry["client_ip"] != "203.0.113.7" {
		t.Errorf("client_ip = %v, want 203.0.113.7", entry["client_ip"])
	}
	if entry["path"] != "/api/leaderboard" {
		t.Errorf("path = %v", entry["path"])
	}

	pre := httptest.NewRequest(http.MethodOptions, "/api/checkin", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, pre)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
}
