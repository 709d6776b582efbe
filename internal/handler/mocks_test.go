package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/fit2fit/internal/analytics"
	"github.com/hitoshi/fit2fit/internal/engagement"
	"github.com/hitoshi/fit2fit/internal/member"
	"github.com/hitoshi/fit2fit/internal/reminder"
	"github.com/hitoshi/fit2fit/internal/subscription"
)

// --- モック定義 ---

// mockReminderService はReminderServiceInterfaceのモック実装。
type mockReminderService struct {
	subscribeFn   func(ctx context.Context, in subscription.SubscribeInput) (*subscription.SubscribeResult, error)
	unsubscribeFn func(ctx context.Context, email, classType string) error
	statusFn      func(ctx context.Context, email, classType string) (*subscription.Status, error)
}

func (m *mockReminderService) Subscribe(ctx context.Context, in subscription.SubscribeInput) (*subscription.SubscribeResult, error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, in)
	}
	return &subscription.SubscribeResult{}, nil
}

func (m *mockReminderService) Unsubscribe(ctx context.Context, email, classType string) error {
	if m.unsubscribeFn != nil {
		return m.unsubscribeFn(ctx, email, classType)
	}
	return nil
}

func (m *mockReminderService) Status(ctx context.Context, email, classType string) (*subscription.Status, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, email, classType)
	}
	return &subscription.Status{}, nil
}

// mockReminderTrigger はReminderTriggerInterfaceのモック実装。
type mockReminderTrigger struct {
	triggerFn func(ctx context.Context, email, classType string) (*reminder.SubscriberResult, error)
}

func (m *mockReminderTrigger) TriggerReminder(ctx context.Context, email, classType string) (*reminder.SubscriberResult, error) {
	if m.triggerFn != nil {
		return m.triggerFn(ctx, email, classType)
	}
	return &reminder.SubscriberResult{}, nil
}

// mockDietPlanService はDietPlanServiceInterfaceのモック実装。
type mockDietPlanService struct {
	dietPlanFn func(classType string) (*dietPlanResponse, error)
}

func (m *mockDietPlanService) DietPlan(classType string) (*dietPlanResponse, error) {
	if m.dietPlanFn != nil {
		return m.dietPlanFn(classType)
	}
	return &dietPlanResponse{ClassType: classType}, nil
}

// mockEngagementService はEngagementServiceInterfaceのモック実装。
type mockEngagementService struct {
	checkInFn      func(ctx context.Context, in engagement.CheckInInput) (*engagement.CheckInResult, error)
	profileFn      func(ctx context.Context, identity string) (*engagement.ProfileView, error)
	achievementsFn func(ctx context.Context, identity string) ([]engagement.AchievementStatus, error)
	leaderboardFn  func(ctx context.Context) ([]engagement.ProfileView, error)
}

func (m *mockEngagementService) CheckIn(ctx context.Context, in engagement.CheckInInput) (*engagement.CheckInResult, error) {
	if m.checkInFn != nil {
		return m.checkInFn(ctx, in)
	}
	return &engagement.CheckInResult{}, nil
}

func (m *mockEngagementService) Profile(ctx context.Context, identity string) (*engagement.ProfileView, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, identity)
	}
	return &engagement.ProfileView{UserID: identity}, nil
}

func (m *mockEngagementService) Achievements(ctx context.Context, identity string) ([]engagement.AchievementStatus, error) {
	if m.achievementsFn != nil {
		return m.achievementsFn(ctx, identity)
	}
	return []engagement.AchievementStatus{}, nil
}

func (m *mockEngagementService) Leaderboard(ctx context.Context) ([]engagement.ProfileView, error) {
	if m.leaderboardFn != nil {
		return m.leaderboardFn(ctx)
	}
	return []engagement.ProfileView{}, nil
}

// mockAnalyticsService はAnalyticsServiceInterfaceのモック実装。
type mockAnalyticsService struct {
	logWorkoutFn     func(ctx context.Context, in analytics.WorkoutInput) (*analytics.Workout, error)
	workoutsFn       func(ctx context.Context, userID string) ([]analytics.Workout, error)
	statsFn          func(ctx context.Context, userID string) (*analytics.Stats, error)
	heatmapFn        func(ctx context.Context, userID string, year int) ([]analytics.HeatmapDay, error)
	reportFn         func(ctx context.Context, userID, period string) (*analytics.Report, error)
	exercisesFn      func(ctx context.Context) ([]analytics.Exercise, error)
	addMeasurementFn func(ctx context.Context, in analytics.MeasurementInput) (*analytics.Measurement, error)
	measurementsFn   func(ctx context.Context, userID string) ([]analytics.Measurement, error)
	createGoalFn     func(ctx context.Context, in analytics.GoalInput) (*analytics.Goal, error)
	goalsFn          func(ctx context.Context, userID string) ([]analytics.Goal, error)
	updateGoalFn     func(ctx context.Context, goalID string, patch analytics.GoalPatch) error
	deleteGoalFn     func(ctx context.Context, goalID string) error
}

func (m *mockAnalyticsService) LogWorkout(ctx context.Context, in analytics.WorkoutInput) (*analytics.Workout, error) {
	if m.logWorkoutFn != nil {
		return m.logWorkoutFn(ctx, in)
	}
	return &analytics.Workout{}, nil
}

func (m *mockAnalyticsService) Workouts(ctx context.Context, userID string) ([]analytics.Workout, error) {
	if m.workoutsFn != nil {
		return m.workoutsFn(ctx, userID)
	}
	return []analytics.Workout{}, nil
}

func (m *mockAnalyticsService) Stats(ctx context.Context, userID string) (*analytics.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID)
	}
	return &analytics.Stats{}, nil
}

func (m *mockAnalyticsService) Heatmap(ctx context.Context, userID string, year int) ([]analytics.HeatmapDay, error) {
	if m.heatmapFn != nil {
		return m.heatmapFn(ctx, userID, year)
	}
	return []analytics.HeatmapDay{}, nil
}

func (m *mockAnalyticsService) Report(ctx context.Context, userID, period string) (*analytics.Report, error) {
	if m.reportFn != nil {
		return m.reportFn(ctx, userID, period)
	}
	return &analytics.Report{Period: period}, nil
}

func (m *mockAnalyticsService) Exercises(ctx context.Context) ([]analytics.Exercise, error) {
	if m.exercisesFn != nil {
		return m.exercisesFn(ctx)
	}
	return []analytics.Exercise{}, nil
}

func (m *mockAnalyticsService) AddMeasurement(ctx context.Context, in analytics.MeasurementInput) (*analytics.Measurement, error) {
	if m.addMeasurementFn != nil {
		return m.addMeasurementFn(ctx, in)
	}
	return &analytics.Measurement{}, nil
}

func (m *mockAnalyticsService) Measurements(ctx context.Context, userID string) ([]analytics.Measurement, error) {
	if m.measurementsFn != nil {
		return m.measurementsFn(ctx, userID)
	}
	return []analytics.Measurement{}, nil
}

func (m *mockAnalyticsService) CreateGoal(ctx context.Context, in analytics.GoalInput) (*analytics.Goal, error) {
	if m.createGoalFn != nil {
		return m.createGoalFn(ctx, in)
	}
	return &analytics.Goal{}, nil
}

func (m *mockAnalyticsService) Goals(ctx context.Context, userID string) ([]analytics.Goal, error) {
	if m.goalsFn != nil {
		return m.goalsFn(ctx, userID)
	}
	return []analytics.Goal{}, nil
}

func (m *mockAnalyticsService) UpdateGoal(ctx context.Context, goalID string, patch analytics.GoalPatch) error {
	if m.updateGoalFn != nil {
		return m.updateGoalFn(ctx, goalID, patch)
	}
	return nil
}

func (m *mockAnalyticsService) DeleteGoal(ctx context.Context, goalID string) error {
	if m.deleteGoalFn != nil {
		return m.deleteGoalFn(ctx, goalID)
	}
	return nil
}

// mockMemberService はMemberServiceInterfaceのモック実装。
type mockMemberService struct {
	joinFn         func(ctx context.Context, in member.JoinInput) (*member.Member, error)
	membersFn      func(ctx context.Context) ([]member.Member, error)
	payFn          func(ctx context.Context, in member.PaymentInput) (*member.Transaction, error)
	transactionsFn func(ctx context.Context) ([]member.Transaction, error)
}

func (m *mockMemberService) Join(ctx context.Context, in member.JoinInput) (*member.Member, error) {
	if m.joinFn != nil {
		return m.joinFn(ctx, in)
	}
	return &member.Member{}, nil
}

func (m *mockMemberService) Members(ctx context.Context) ([]member.Member, error) {
	if m.membersFn != nil {
		return m.membersFn(ctx)
	}
	return []member.Member{}, nil
}

func (m *mockMemberService) Pay(ctx context.Context, in member.PaymentInput) (*member.Transaction, error) {
	if m.payFn != nil {
		return m.payFn(ctx, in)
	}
	return &member.Transaction{}, nil
}

func (m *mockMemberService) Transactions(ctx context.Context) ([]member.Transaction, error) {
	if m.transactionsFn != nil {
		return m.transactionsFn(ctx)
	}
	return []member.Transaction{}, nil
}

// --- テストヘルパー ---

// withChiURLParams はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// jsonRequest はJSONボディ付きのリクエストを生成する。
func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// envelope は成功レスポンスのデコード先。
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// parseEnvelope は成功レスポンスをデコードし、messageが"success"であることを確認する。
func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Message != "success" {
		t.Errorf("message = %q, want %q", env.Message, "success")
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v (raw=%s)", err, env.Data)
		}
	}
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// assertAPIError はステータスコードとエラーコードを検証する。
func assertAPIError(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d (body=%s)", w.Code, wantStatus, w.Body.String())
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != wantCode {
		t.Errorf("code = %q, want %q", body["code"], wantCode)
	}
}
