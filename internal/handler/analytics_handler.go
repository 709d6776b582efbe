package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/fit2fit/internal/analytics"
	"github.com/hitoshi/fit2fit/internal/model"
)

// AnalyticsServiceInterface はアナリティクスハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	LogWorkout(ctx context.Context, in analytics.WorkoutInput) (*analytics.Workout, error)
	Workouts(ctx context.Context, userID string) ([]analytics.Workout, error)
	Stats(ctx context.Context, userID string) (*analytics.Stats, error)
	Heatmap(ctx context.Context, userID string, year int) ([]analytics.HeatmapDay, error)
	Report(ctx context.Context, userID, period string) (*analytics.Report, error)
	Exercises(ctx context.Context) ([]analytics.Exercise, error)

	AddMeasurement(ctx context.Context, in analytics.MeasurementInput) (*analytics.Measurement, error)
	Measurements(ctx context.Context, userID string) ([]analytics.Measurement, error)

	CreateGoal(ctx context.Context, in analytics.GoalInput) (*analytics.Goal, error)
	Goals(ctx context.Context, userID string) ([]analytics.Goal, error)
	UpdateGoal(ctx context.Context, goalID string, patch analytics.GoalPatch) error
	DeleteGoal(ctx context.Context, goalID string) error
}

// AnalyticsHandler はワークアウト分析、身体測定、目標のHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// workoutRequest はワークアウト記録リクエストのボディ。
// caloriesを省略するとエクササイズライブラリから推定する。
type workoutRequest struct {
	UserID      string `json:"user_id"`
	Exercise    string `json:"exercise"`
	Duration    int    `json:"duration"`
	Calories    *int   `json:"calories"`
	Intensity   string `json:"intensity"`
	Notes       string `json:"notes"`
	WorkoutDate string `json:"workout_date"`
}

// measurementRequest は身体測定値記録リクエストのボディ。
type measurementRequest struct {
	UserID            string   `json:"user_id"`
	Weight            *float64 `json:"weight"`
	BodyFatPercentage *float64 `json:"body_fat_percentage"`
	MuscleMass        *float64 `json:"muscle_mass"`
	MeasurementDate   string   `json:"measurement_date"`
}

// goalRequest は目標作成リクエストのボディ。
type goalRequest struct {
	UserID      string  `json:"user_id"`
	GoalType    string  `json:"goal_type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	TargetValue float64 `json:"target_value"`
	TargetDate  string  `json:"target_date"`
}

// goalUpdateRequest は目標更新リクエストのボディ。
type goalUpdateRequest struct {
	CurrentValue *float64 `json:"current_value"`
	Status       *string  `json:"status"`
}

// LogWorkout はワークアウトを記録する。
// POST /api/analytics/workout
func (h *AnalyticsHandler) LogWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	workout, err := h.service.LogWorkout(r.Context(), analytics.WorkoutInput{
		UserID:      req.UserID,
		Exercise:    req.Exercise,
		Duration:    req.Duration,
		Calories:    req.Calories,
		Intensity:   req.Intensity,
		Notes:       req.Notes,
		WorkoutDate: req.WorkoutDate,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, workout)
}

// Workouts はユーザーのワークアウト一覧を返す。
// GET /api/analytics/workouts/{userID}
func (h *AnalyticsHandler) Workouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := h.service.Workouts(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, workouts)
}

// Stats はワークアウト統計を返す。
// GET /api/analytics/stats/{userID}
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}

// Heatmap は年間の日別ワークアウト数を返す。
// GET /api/analytics/heatmap/{userID}/{year}
func (h *AnalyticsHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9999 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("year", "must be a four-digit year"))
		return
	}

	days, err := h.service.Heatmap(r.Context(), chi.URLParam(r, "userID"), year)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, days)
}

// Report は期間レポートを返す。
// GET /api/analytics/report/{userID}/{period}
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "period"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

// Exercises はエクササイズライブラリを返す。
// GET /api/analytics/exercises
func (h *AnalyticsHandler) Exercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.service.Exercises(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, exercises)
}

// AddMeasurement は身体測定値を記録する。
// POST /api/analytics/measurement
func (h *AnalyticsHandler) AddMeasurement(w http.ResponseWriter, r *http.Request) {
	var req measurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.service.AddMeasurement(r.Context(), analytics.MeasurementInput{
		UserID:            req.UserID,
		Weight:            req.Weight,
		BodyFatPercentage: req.BodyFatPercentage,
		MuscleMass:        req.MuscleMass,
		MeasurementDate:   req.MeasurementDate,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, m)
}

// Measurements は身体測定値の履歴を返す。
// GET /api/analytics/measurements/{userID}
func (h *AnalyticsHandler) Measurements(w http.ResponseWriter, r *http.Request) {
	ms, err := h.service.Measurements(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, ms)
}

// CreateGoal は目標を作成する。
// POST /api/analytics/goal
func (h *AnalyticsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.service.CreateGoal(r.Context(), analytics.GoalInput{
		UserID:      req.UserID,
		GoalType:    req.GoalType,
		Title:       req.Title,
		Description: req.Description,
		TargetValue: req.TargetValue,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, goal)
}

// Goals はユーザーの目標一覧を返す。
// GET /api/analytics/goals/{userID}
func (h *AnalyticsHandler) Goals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.Goals(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, goals)
}

// UpdateGoal は目標の進捗またはステータスを更新する。
// PUT /api/analytics/goal/{goalID}
func (h *AnalyticsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goalID := chi.URLParam(r, "goalID")
	err := h.service.UpdateGoal(r.Context(), goalID, analytics.GoalPatch{
		CurrentValue: req.CurrentValue,
		Status:       req.Status,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": goalID})
}

// DeleteGoal は目標を削除する。
// DELETE /api/analytics/goal/{goalID}
func (h *AnalyticsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "goalID")
	if err := h.service.DeleteGoal(r.Context(), goalID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": goalID})
}
