package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/fit2fit/internal/engagement"
	"github.com/hitoshi/fit2fit/internal/model"
)

func TestEngagementHandler_CheckIn_Success(t *testing.T) {
	var got engagement.CheckInInput
	svc := &mockEngagementService{
		checkInFn: func(ctx context.Context, in engagement.CheckInInput) (*engagement.CheckInResult, error) {
			got = in
			return &engagement.CheckInResult{
				PointsEarned:    10,
				Points:          10,
				CurrentStreak:   1,
				LongestStreak:   1,
				TotalWorkouts:   1,
				Level:           1,
				LevelName:       "Beginner",
				NewAchievements: []string{"First Workout"},
			}, nil
		},
	}
	h := NewEngagementHandler(svc)

	w := httptest.NewRecorder()
	h.CheckIn(w, jsonRequest(http.MethodPost, "/api/checkin", `{"user_id":"a@example.com","name":"Alice","workout_type":"general"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.Identity != "a@example.com" || got.Name != "Alice" || got.WorkoutType != "general" {
		t.Errorf("input = %+v", got)
	}
	var data engagement.CheckInResult
	parseEnvelope(t, w, &data)
	if data.PointsEarned != 10 || data.CurrentStreak != 1 {
		t.Errorf("data = %+v", data)
	}
	if len(data.NewAchievements) != 1 || data.NewAchievements[0] != "First Workout" {
		t.Errorf("new_achievements = %v", data.NewAchievements)
	}
}

func TestEngagementHandler_CheckIn_MissingUser(t *testing.T) {
	svc := &mockEngagementService{
		checkInFn: func(ctx context.Context, in engagement.CheckInInput) (*engagement.CheckInResult, error) {
			return nil, model.NewValidationError("user_id", "is required")
		},
	}
	h := NewEngagementHandler(svc)

	w := httptest.NewRecorder()
	h.CheckIn(w, jsonRequest(http.MethodPost, "/api/checkin", `{"workout_type":"class"}`))

	assertAPIError(t, w, http.StatusBadRequest, model.ErrCodeValidationFailed)
}

func TestEngagementHandler_Profile(t *testing.T) {
	svc := &mockEngagementService{
		profileFn: func(ctx context.Context, identity string) (*engagement.ProfileView, error) {
			if identity == "ghost@example.com" {
				return nil, model.NewProfileNotFoundError(identity)
			}
			last := "2026-03-10"
			return &engagement.ProfileView{
				UserID:          identity,
				Points:          120,
				Level:           2,
				LevelName:       "Regular",
				CurrentStreak:   3,
				LastCheckinDate: &last,
			}, nil
		},
	}
	h := NewEngagementHandler(svc)

	req := withChiURLParams(httptest.NewRequest(http.MethodGet, "/api/profile/a@example.com", nil), "identity", "a@example.com")
	w := httptest.NewRecorder()
	h.Profile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var data engagement.ProfileView
	parseEnvelope(t, w, &data)
	if data.UserID != "a@example.com" || data.LevelName != "Regular" {
		t.Errorf("data = %+v", data)
	}
	if data.LastCheckinDate == nil || *data.LastCheckinDate != "2026-03-10" {
		t.Errorf("last_checkin_date = %v", data.LastCheckinDate)
	}

	req = withChiURLParams(httptest.NewRequest(http.MethodGet, "/api/profile/ghost@example.com", nil), "identity", "ghost@example.com")
	w = httptest.NewRecorder()
	h.Profile(w, req)
	assertAPIError(t, w, http.StatusNotFound, model.ErrCodeProfileNotFound)
}

func TestEngagementHandler_Achievements(t *testing.T) {
	unlockedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &mockEngagementService{
		achievementsFn: func(ctx context.Context, identity string) ([]engagement.AchievementStatus, error) {
			return []engagement.AchievementStatus{
				{Achievement: engagement.Achievement{ID: "first_workout", Name: "First Workout"}, Unlocked: true, UnlockedAt: &unlockedAt},
				{Achievement: engagement.Achievement{ID: "week_streak", Name: "Week Warrior", Reward: 50}},
			}, nil
		},
	}
	h := NewEngagementHandler(svc)

	req := withChiURLParams(httptest.NewRequest(http.MethodGet, "/api/achievements/a@example.com", nil), "identity", "a@example.com")
	w := httptest.NewRecorder()
	h.Achievements(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var data []struct {
		ID       string `json:"id"`
		Unlocked bool   `json:"unlocked"`
	}
	parseEnvelope(t, w, &data)
	if len(data) != 2 {
		t.Fatalf("len = %d, want 2", len(data))
	}
	if !data[0].Unlocked || data[1].Unlocked {
		t.Errorf("unlocked flags = %v/%v, want true/false", data[0].Unlocked, data[1].Unlocked)
	}
}

func TestEngagementHandler_Leaderboard_EmptyIsArray(t *testing.T) {
	h := NewEngagementHandler(&mockEngagementService{})

	w := httptest.NewRecorder()
	h.Leaderboard(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"message":"success","data":[]}` {
		t.Errorf("body = %s, want empty data array", got)
	}
}
