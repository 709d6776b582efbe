// Package analytics はワークアウト記録、身体測定値、フィットネス目標の記録と集計を提供する。
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fit2fit/internal/model"
	"github.com/hitoshi/fit2fit/internal/repository"
)

// レポート期間。
const (
	PeriodMonth = "month"
	PeriodYear  = "year"
)

const (
	dateLayout       = "2006-01-02"
	defaultIntensity = "medium"
)

// Service はアナリティクスのサービス層。
type Service struct {
	workouts     repository.WorkoutRepository
	measurements repository.MeasurementRepository
	goals        repository.GoalRepository
	exercises    repository.ExerciseRepository
	loc          *time.Location
	logger       *slog.Logger
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。locは「今日」を決める基準タイムゾーン。
func NewService(
	workouts repository.WorkoutRepository,
	measurements repository.MeasurementRepository,
	goals repository.GoalRepository,
	exercises repository.ExerciseRepository,
	loc *time.Location,
	logger *slog.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		workouts:     workouts,
		measurements: measurements,
		goals:        goals,
		exercises:    exercises,
		loc:          loc,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) today() time.Time {
	return civilDay(s.now().In(s.loc))
}

// parseDate は "2006-01-02" 形式の日付を解析する。空の場合は今日を返す。
func (s *Service) parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.today(), nil
	}
	// 日時形式で送られてきた場合は日付部分のみを使う
	if len(raw) > len(dateLayout) && raw[len(dateLayout)] == 'T' {
		raw = raw[:len(dateLayout)]
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return model.NewValidationError(field, "is required")
	}
	return nil
}

// WorkoutInput はワークアウト記録の入力。Caloriesがnilの場合はエクササイズライブラリから推定する。
type WorkoutInput struct {
	UserID      string
	Exercise    string
	Duration    int
	Calories    *int
	Intensity   string
	Notes       string
	WorkoutDate string
}

// Workout はワークアウト記録のAPI表現。
type Workout struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Exercise    string    `json:"exercise"`
	Duration    int       `json:"duration"`
	Calories    int       `json:"calories"`
	Intensity   string    `json:"intensity"`
	Notes       string    `json:"notes"`
	WorkoutDate string    `json:"workout_date"`
	CreatedAt   time.Time `json:"created_at"`
}

func toWorkout(w *model.WorkoutSession) Workout {
	return Workout{
		ID:          w.ID,
		UserID:      w.UserID,
		Exercise:    w.Exercise,
		Duration:    w.Duration,
		Calories:    w.Calories,
		Intensity:   w.Intensity,
		Notes:       w.Notes,
		WorkoutDate: w.WorkoutDate.Format(dateLayout),
		CreatedAt:   w.CreatedAt,
	}
}

// LogWorkout はワークアウトを記録する。
func (s *Service) LogWorkout(ctx context.Context, in WorkoutInput) (*Workout, error) {
	if err := requireField("user_id", in.UserID); err != nil {
		return nil, err
	}
	if err := requireField("exercise", in.Exercise); err != nil {
		return nil, err
	}
	if in.Duration <= 0 {
		return nil, model.NewValidationError("duration", "must be a positive number of minutes")
	}
	if in.Calories != nil && *in.Calories < 0 {
		return nil, model.NewValidationError("calories", "must not be negative")
	}
	date, err := s.parseDate("workout_date", in.WorkoutDate)
	if err != nil {
		return nil, err
	}

	calories := 0
	if in.Calories != nil {
		calories = *in.Calories
	} else {
		ex, err := s.exercises.FindByName(ctx, strings.TrimSpace(in.Exercise))
		if err != nil {
			return nil, fmt.Errorf("エクササイズの検索に失敗しました: %w", err)
		}
		if ex != nil {
			calories = int(math.Round(float64(ex.CaloriesPer) * float64(in.Duration) / 30))
		}
	}

	intensity := strings.TrimSpace(in.Intensity)
	if intensity == "" {
		intensity = defaultIntensity
	}

	session := &model.WorkoutSession{
		ID:          uuid.New().String(),
		UserID:      strings.TrimSpace(in.UserID),
		Exercise:    strings.TrimSpace(in.Exercise),
		Duration:    in.Duration,
		Calories:    calories,
		Intensity:   intensity,
		Notes:       in.Notes,
		WorkoutDate: date,
		CreatedAt:   s.now(),
	}
	if err := s.workouts.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("ワークアウトの記録に失敗しました: %w", err)
	}

	s.logger.Info("ワークアウトを記録しました",
		slog.String("user_id", session.UserID),
		slog.String("exercise", session.Exercise),
		slog.Int("duration", session.Duration),
	)
	w := toWorkout(session)
	return &w, nil
}

// Workouts はユーザーの全ワークアウトを新しい順に返す。
func (s *Service) Workouts(ctx context.Context, userID string) ([]Workout, error) {
	sessions, err := s.workouts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウト一覧の取得に失敗しました: %w", err)
	}
	out := make([]Workout, len(sessions))
	for i, w := range sessions {
		out[i] = toWorkout(w)
	}
	return out, nil
}

// Stats はワークアウトの累計と連続日数。
type Stats struct {
	TotalWorkouts int `json:"total_workouts"`
	TotalCalories int `json:"total_calories"`
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
	MonthWorkouts int `json:"month_workouts"`
}

// Stats はユーザーのワークアウト統計を返す。連続日数は重複を除いたワークアウト日で数える。
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	sessions, err := s.workouts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークアウト一覧の取得に失敗しました: %w", err)
	}

	today := s.today()
	stats := &Stats{TotalWorkouts: len(sessions)}
	dates := make([]time.Time, len(sessions))
	for i, w := range sessions {
		stats.TotalCalories += w.Calories
		dates[i] = w.WorkoutDate
		if w.WorkoutDate.Year() == today.Year() && w.WorkoutDate.Month() == today.Month() {
			stats.MonthWorkouts++
		}
	}
	stats.CurrentStreak, stats.LongestStreak = dateStreaks(dates, today)
	return stats, nil
}

// HeatmapDay はヒートマップの1日分。
type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Heatmap は指定年のワークアウト件数を日付昇順で返す。ワークアウトのない日は含まない。
func (s *Service) Heatmap(ctx context.Context, userID string, year int) ([]HeatmapDay, error) {
	if year < 1970 || year > 9999 {
		return nil, model.NewValidationError("year", "is out of range")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := s.workouts.ListByUserBetween(ctx, userID, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}

	counts := make(map[string]int)
	for _, w := range sessions {
		counts[w.WorkoutDate.Format(dateLayout)]++
	}
	days := make([]HeatmapDay, 0, len(counts))
	for d, c := range counts {
		days = append(days, HeatmapDay{Date: d, Count: c})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// ExerciseCount はレポートのエクササイズ別集計。
type ExerciseCount struct {
	Exercise string `json:"exercise"`
	Count    int    `json:"count"`
	Calories int    `json:"calories"`
}

// WorkoutSummary はレポート期間のワークアウト集計。
type WorkoutSummary struct {
	TotalWorkouts      int     `json:"total_workouts"`
	TotalCalories      int     `json:"total_calories"`
	AvgDuration        float64 `json:"avg_duration"`
	MostCommonExercise string  `json:"most_common_exercise,omitempty"`
}

// Report は期間レポート。
type Report struct {
	Period            string          `json:"period"`
	From              string          `json:"from"`
	To                string          `json:"to"`
	WorkoutStats      WorkoutSummary  `json:"workout_stats"`
	ExerciseBreakdown []ExerciseCount `json:"exercise_breakdown"`
	MostActiveDay     string          `json:"most_active_day"`
}

// Report は当月（month）または当年（year）のレポートを返す。
func (s *Service) Report(ctx context.Context, userID, period string) (*Report, error) {
	from, to, ok := periodRange(period, s.today())
	if !ok {
		return nil, model.NewInvalidPeriodError(period)
	}
	sessions, err := s.workouts.ListByUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ワークアウトの取得に失敗しました: %w", err)
	}

	report := &Report{
		Period:            period,
		From:              from.Format(dateLayout),
		To:                to.AddDate(0, 0, -1).Format(dateLayout),
		ExerciseBreakdown: []ExerciseCount{},
		MostActiveDay:     "N/A",
	}
	if len(sessions) == 0 {
		return report, nil
	}

	byExercise := make(map[string]*ExerciseCount)
	dates := make([]time.Time, len(sessions))
	totalDuration := 0
	for i, w := range sessions {
		report.WorkoutStats.TotalWorkouts++
		report.WorkoutStats.TotalCalories += w.Calories
		totalDuration += w.Duration
		dates[i] = w.WorkoutDate

		ec, ok := byExercise[w.Exercise]
		if !ok {
			ec = &ExerciseCount{Exercise: w.Exercise}
			byExercise[w.Exercise] = ec
		}
		ec.Count++
		ec.Calories += w.Calories
	}

	for _, ec := range byExercise {
		report.ExerciseBreakdown = append(report.ExerciseBreakdown, *ec)
	}
	sort.Slice(report.ExerciseBreakdown, func(i, j int) bool {
		a, b := report.ExerciseBreakdown[i], report.ExerciseBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Exercise < b.Exercise
	})

	avg := float64(totalDuration) / float64(len(sessions))
	report.WorkoutStats.AvgDuration = math.Round(avg*10) / 10
	report.WorkoutStats.MostCommonExercise = report.ExerciseBreakdown[0].Exercise
	report.MostActiveDay = mostActiveDay(dates)
	return report, nil
}

// Exercise はエクササイズライブラリ項目のAPI表現。
type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	CaloriesPer int    `json:"calories_per_30min"`
}

// Exercises はエクササイズライブラリを返す。
func (s *Service) Exercises(ctx context.Context) ([]Exercise, error) {
	list, err := s.exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("エクササイズ一覧の取得に失敗しました: %w", err)
	}
	out := make([]Exercise, len(list))
	for i, e := range list {
		out[i] = Exercise{ID: e.ID, Name: e.Name, Category: e.Category, CaloriesPer: e.CaloriesPer}
	}
	return out, nil
}
