package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/fit2fit/internal/engagement"
)

// EngagementServiceInterface はエンゲージメントハンドラーが必要とするサービスインターフェース。
type EngagementServiceInterface interface {
	// CheckIn はチェックインを1回記録する。
	CheckIn(ctx context.Context, in engagement.CheckInInput) (*engagement.CheckInResult, error)
	// Profile はプロフィールを返す。
	Profile(ctx context.Context, identity string) (*engagement.ProfileView, error)
	// Achievements は全実績と解除状況を返す。
	Achievements(ctx context.Context, identity string) ([]engagement.AchievementStatus, error)
	// Leaderboard は上位のプロフィールを返す。
	Leaderboard(ctx context.Context) ([]engagement.ProfileView, error)
}

// EngagementHandler はチェックインとゲーミフィケーションのHTTPハンドラー。
type EngagementHandler struct {
	service EngagementServiceInterface
}

// NewEngagementHandler はEngagementHandlerを生成する。
func NewEngagementHandler(service EngagementServiceInterface) *EngagementHandler {
	return &EngagementHandler{service: service}
}

// checkInRequest はチェックインリクエストのボディ。
type checkInRequest struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	WorkoutType string `json:"workout_type"`
}

// CheckIn はチェックインを記録する。
// POST /api/checkin
func (h *EngagementHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.CheckIn(r.Context(), engagement.CheckInInput{
		Identity:    req.UserID,
		Name:        req.Name,
		WorkoutType: req.WorkoutType,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

// Profile はプロフィールを返す。
// GET /api/profile/{identity}
func (h *EngagementHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile)
}

// Achievements は実績一覧を返す。
// GET /api/achievements/{identity}
func (h *EngagementHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.service.Achievements(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, achievements)
}

// Leaderboard はリーダーボードを返す。
// GET /api/leaderboard
func (h *EngagementHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Leaderboard(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, board)
}
