package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fit2fit/internal/model"
)

// MeasurementInput は身体測定値の入力。未計測の値はnil。
type MeasurementInput struct {
	UserID            string
	Weight            *float64
	BodyFatPercentage *float64
	MuscleMass        *float64
	MeasurementDate   string
}

// Measurement は身体測定値のAPI表現。
type Measurement struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Weight            *float64  `json:"weight"`
	BodyFatPercentage *float64  `json:"body_fat_percentage"`
	MuscleMass        *float64  `json:"muscle_mass"`
	MeasurementDate   string    `json:"measurement_date"`
	CreatedAt         time.Time `json:"created_at"`
}

func toMeasurement(m *model.BodyMeasurement) Measurement {
	return Measurement{
		ID:                m.ID,
		UserID:            m.UserID,
		Weight:            m.Weight,
		BodyFatPercentage: m.BodyFatPercentage,
		MuscleMass:        m.MuscleMass,
		MeasurementDate:   m.MeasurementDate.Format(dateLayout),
		CreatedAt:         m.CreatedAt,
	}
}

func nonNegative(field string, v *float64) error {
	if v != nil && *v < 0 {
		return model.NewValidationError(field, "must not be negative")
	}
	return nil
}

// AddMeasurement は身体測定値を記録する。
func (s *Service) AddMeasurement(ctx context.Context, in MeasurementInput) (*Measurement, error) {
	if err := requireField("user_id", in.UserID); err != nil {
		return nil, err
	}
	for field, v := range map[string]*float64{
		"weight":              in.Weight,
		"body_fat_percentage": in.BodyFatPercentage,
		"muscle_mass":         in.MuscleMass,
	} {
		if err := nonNegative(field, v); err != nil {
			return nil, err
		}
	}
	date, err := s.parseDate("measurement_date", in.MeasurementDate)
	if err != nil {
		return nil, err
	}

	m := &model.BodyMeasurement{
		ID:                uuid.New().String(),
		UserID:            strings.TrimSpace(in.UserID),
		Weight:            in.Weight,
		BodyFatPercentage: in.BodyFatPercentage,
		MuscleMass:        in.MuscleMass,
		MeasurementDate:   date,
		CreatedAt:         s.now(),
	}
	if err := s.measurements.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("測定値の記録に失敗しました: %w", err)
	}
	out := toMeasurement(m)
	return &out, nil
}

// Measurements はユーザーの測定値を新しい順に返す。
func (s *Service) Measurements(ctx context.Context, userID string) ([]Measurement, error) {
	list, err := s.measurements.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("測定値一覧の取得に失敗しました: %w", err)
	}
	out := make([]Measurement, len(list))
	for i, m := range list {
		out[i] = toMeasurement(m)
	}
	return out, nil
}

// GoalInput は目標作成の入力。
type GoalInput struct {
	UserID      string
	GoalType    string
	Title       string
	Description string
	TargetValue float64
	TargetDate  string
}

// Goal は目標のAPI表現。
type Goal struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	GoalType     string           `json:"goal_type"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	TargetValue  float64          `json:"target_value"`
	CurrentValue float64          `json:"current_value"`
	TargetDate   *string          `json:"target_date"`
	Status       model.GoalStatus `json:"status"`
	CompletedAt  *time.Time       `json:"completed_at"`
	CreatedAt    time.Time        `json:"created_at"`
}

func toGoal(g *model.FitnessGoal) Goal {
	out := Goal{
		ID:           g.ID,
		UserID:       g.UserID,
		GoalType:     g.GoalType,
		Title:        g.Title,
		Description:  g.Description,
		TargetValue:  g.TargetValue,
		CurrentValue: g.CurrentValue,
		Status:       g.Status,
		CompletedAt:  g.CompletedAt,
		CreatedAt:    g.CreatedAt,
	}
	if g.TargetDate != nil {
		d := g.TargetDate.Format(dateLayout)
		out.TargetDate = &d
	}
	return out
}

// CreateGoal は目標を作成する。user_id、title、goal_typeは必須。
func (s *Service) CreateGoal(ctx context.Context, in GoalInput) (*Goal, error) {
	if err := requireField("user_id", in.UserID); err != nil {
		return nil, err
	}
	if err := requireField("title", in.Title); err != nil {
		return nil, err
	}
	if err := requireField("goal_type", in.GoalType); err != nil {
		return nil, err
	}
	if in.TargetValue < 0 {
		return nil, model.NewValidationError("target_value", "must not be negative")
	}

	var target *time.Time
	if strings.TrimSpace(in.TargetDate) != "" {
		d, err := s.parseDate("target_date", in.TargetDate)
		if err != nil {
			return nil, err
		}
		target = &d
	}

	g := &model.FitnessGoal{
		ID:          uuid.New().String(),
		UserID:      strings.TrimSpace(in.UserID),
		GoalType:    strings.TrimSpace(in.GoalType),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		TargetValue: in.TargetValue,
		TargetDate:  target,
		Status:      model.GoalStatusActive,
		CreatedAt:   s.now(),
	}
	if err := s.goals.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("目標の作成に失敗しました: %w", err)
	}

	s.logger.Info("目標を作成しました",
		slog.String("user_id", g.UserID),
		slog.String("goal_id", g.ID),
		slog.String("goal_type", g.GoalType),
	)
	out := toGoal(g)
	return &out, nil
}

// Goals はユーザーの目標をstatus、target_dateの順で返す。
func (s *Service) Goals(ctx context.Context, userID string) ([]Goal, error) {
	list, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("目標一覧の取得に失敗しました: %w", err)
	}
	out := make([]Goal, len(list))
	for i, g := range list {
		out[i] = toGoal(g)
	}
	return out, nil
}

// GoalPatch は目標の部分更新の入力。
type GoalPatch struct {
	CurrentValue *float64
	Status       *string
}

func parseGoalStatus(raw string) (model.GoalStatus, error) {
	switch st := model.GoalStatus(strings.ToLower(strings.TrimSpace(raw))); st {
	case model.GoalStatusActive, model.GoalStatusCompleted, model.GoalStatusAbandoned:
		return st, nil
	}
	return "", model.NewValidationError("status", "must be one of active, completed or abandoned")
}

// UpdateGoal は目標の進捗または状態を更新する。
// 更新項目がない場合はNO_UPDATES、目標が存在しない場合はGOAL_NOT_FOUNDを返す。
func (s *Service) UpdateGoal(ctx context.Context, goalID string, patch GoalPatch) error {
	if patch.CurrentValue == nil && patch.Status == nil {
		return model.NewNoUpdatesError()
	}
	if _, err := uuid.Parse(goalID); err != nil {
		return model.NewGoalNotFoundError(goalID)
	}

	var update model.GoalUpdate
	if patch.CurrentValue != nil {
		if err := nonNegative("current_value", patch.CurrentValue); err != nil {
			return err
		}
		update.CurrentValue = patch.CurrentValue
	}
	if patch.Status != nil {
		st, err := parseGoalStatus(*patch.Status)
		if err != nil {
			return err
		}
		update.Status = &st
	}

	found, err := s.goals.Update(ctx, goalID, update)
	if err != nil {
		return fmt.Errorf("目標の更新に失敗しました: %w", err)
	}
	if !found {
		return model.NewGoalNotFoundError(goalID)
	}
	if update.Status != nil && *update.Status == model.GoalStatusCompleted {
		s.logger.Info("目標を達成しました", slog.String("goal_id", goalID))
	}
	return nil
}

// DeleteGoal は目標を削除する。
func (s *Service) DeleteGoal(ctx context.Context, goalID string) error {
	if _, err := uuid.Parse(goalID); err != nil {
		return model.NewGoalNotFoundError(goalID)
	}
	found, err := s.goals.Delete(ctx, goalID)
	if err != nil {
		return fmt.Errorf("目標の削除に失敗しました: %w", err)
	}
	if !found {
		return model.NewGoalNotFoundError(goalID)
	}
	return nil
}
