package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/fit2fit/internal/model"
	"github.com/hitoshi/fit2fit/internal/repository"
	"github.com/hitoshi/fit2fit/internal/security"
)

// DefaultWorkoutType はワークアウト種別が指定されない場合の値。
const DefaultWorkoutType = "general"

// Metrics は台帳が記録するメトリクス。
type Metrics interface {
	RecordCheckIn(workoutType string)
	RecordAchievementUnlocked(achievementID string)
}

// Config は台帳の設定を保持する。
type Config struct {
	Location         *time.Location // 暦日を切り出す基準タイムゾーン
	LeaderboardLimit int
}

// Ledger はエンゲージメント台帳のサービス。
// チェックインは1トランザクション内でプロフィール行をロックして読み書きする。
type Ledger struct {
	repo      repository.EngagementRepository
	sanitizer security.NameSanitizerService
	cfg       Config
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewLedger はLedgerを生成する。metricsはnilでもよい。
func NewLedger(repo repository.EngagementRepository, sanitizer security.NameSanitizerService, cfg Config, metrics Metrics, logger *slog.Logger) *Ledger {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LeaderboardLimit <= 0 {
		cfg.LeaderboardLimit = 10
	}
	return &Ledger{
		repo:      repo,
		sanitizer: sanitizer,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckInInput はチェックインの入力。
type CheckInInput struct {
	Identity    string
	Name        string
	WorkoutType string
}

// CheckInResult はチェックインの結果。
type CheckInResult struct {
	PointsEarned    int      `json:"points_earned"`
	Points          int      `json:"points"`
	CurrentStreak   int      `json:"current_streak"`
	LongestStreak   int      `json:"longest_streak"`
	TotalWorkouts   int      `json:"total_workouts"`
	Level           int      `json:"level"`
	LevelName       string   `json:"level_name"`
	NewAchievements []string `json:"new_achievements"`
}

// normalizeIdentity は購読と同じく前後の空白を除き小文字にそろえる。
func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// CheckIn はチェックインを1回記録し、ポイント、ストリーク、実績を更新する。
func (l *Ledger) CheckIn(ctx context.Context, in CheckInInput) (*CheckInResult, error) {
	identity := normalizeIdentity(in.Identity)
	if identity == "" {
		return nil, model.NewValidationError("user_id", "is required")
	}
	workoutType := strings.ToLower(strings.TrimSpace(in.WorkoutType))
	if workoutType == "" {
		workoutType = DefaultWorkoutType
	}
	name := l.sanitizer.Sanitize(in.Name)

	now := l.now()
	today := CivilDateIn(now, l.cfg.Location)

	var (
		result   *CheckInResult
		unlocked []string
	)
	err := l.repo.WithTx(ctx, func(tx repository.EngagementTx) error {
		prev, err := tx.LockProfile(ctx, identity, name)
		if err != nil {
			return err
		}

		tr := Advance(prev, workoutType, today)
		next := tr.Next
		if name != "" {
			next.Name = name
		}
		earned := tr.BaseAward
		var newNames []string

		for _, id := range tr.Candidates {
			inserted, err := tx.UnlockAchievement(ctx, identity, id, now)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			a, _ := LookupAchievement(id)
			earned += a.Reward
			next.Points += a.Reward
			newNames = append(newNames, a.Name)
			unlocked = append(unlocked, id)
		}
		next.Level = LevelFor(next.Points).Level
		next.UpdatedAt = now

		if err := tx.SaveProfile(ctx, &next); err != nil {
			return err
		}
		if err := tx.AppendCheckIn(ctx, &model.CheckInLog{
			Identity:     identity,
			WorkoutType:  workoutType,
			PointsEarned: earned,
			CheckinDate:  today,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		if newNames == nil {
			newNames = []string{}
		}
		result = &CheckInResult{
			PointsEarned:    earned,
			Points:          next.Points,
			CurrentStreak:   next.CurrentStreak,
			LongestStreak:   next.LongestStreak,
			TotalWorkouts:   next.TotalWorkouts,
			Level:           next.Level,
			LevelName:       LevelFor(next.Points).Name,
			NewAchievements: newNames,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("チェックインに失敗しました: %w", err)
	}

	if l.metrics != nil {
		l.metrics.RecordCheckIn(workoutType)
		for _, id := range unlocked {
			l.metrics.RecordAchievementUnlocked(id)
		}
	}
	l.logger.Info("チェックインを記録しました",
		slog.String("identity", identity),
		slog.String("workout_type", workoutType),
		slog.Int("points_earned", result.PointsEarned),
		slog.Int("current_streak", result.CurrentStreak),
		slog.Any("new_achievements", unlocked),
	)
	return result, nil
}

// ProfileView はプロフィールの読み取り専用の投影。
type ProfileView struct {
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Points          int       `json:"points"`
	Level           int       `json:"level"`
	LevelName       string    `json:"level_name"`
	CurrentStreak   int       `json:"current_streak"`
	LongestStreak   int       `json:"longest_streak"`
	TotalWorkouts   int       `json:"total_workouts"`
	LastCheckinDate *string   `json:"last_checkin_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newProfileView(p *model.EngagementProfile) ProfileView {
	v := ProfileView{
		UserID:        p.Identity,
		Name:          p.Name,
		Points:        p.Points,
		Level:         p.Level,
		LevelName:     LevelFor(p.Points).Name,
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
		TotalWorkouts: p.TotalWorkouts,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.LastCheckinDate != nil {
		s := p.LastCheckinDate.Format("2006-01-02")
		v.LastCheckinDate = &s
	}
	return v
}

// Profile はプロフィールを返す。未チェックインの場合はPROFILE_NOT_FOUNDを返す。
func (l *Ledger) Profile(ctx context.Context, identity string) (*ProfileView, error) {
	p, err := l.repo.FindProfile(ctx, normalizeIdentity(identity))
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if !p.Present() {
		return nil, model.NewProfileNotFoundError(identity)
	}
	v := newProfileView(p)
	return &v, nil
}

// AchievementStatus は実績定義と解除状況を組み合わせたもの。
type AchievementStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at"`
}

// Achievements は全実績の定義に解除状況を付けて返す。未チェックインの場合は全て未解除となる。
func (l *Ledger) Achievements(ctx context.Context, identity string) ([]AchievementStatus, error) {
	unlocks, err := l.repo.ListUnlocks(ctx, normalizeIdentity(identity))
	if err != nil {
		return nil, fmt.Errorf("実績の取得に失敗しました: %w", err)
	}
	at := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		at[u.AchievementID] = u.UnlockedAt
	}

	statuses := make([]AchievementStatus, 0, len(achievements))
	for _, a := range Achievements() {
		s := AchievementStatus{Achievement: a}
		if t, ok := at[a.ID]; ok {
			s.Unlocked = true
			s.UnlockedAt = &t
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// Leaderboard は上位のプロフィールを返す。
func (l *Ledger) Leaderboard(ctx context.Context) ([]ProfileView, error) {
	profiles, err := l.repo.Leaderboard(ctx, l.cfg.LeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("リーダーボードの取得に失敗しました: %w", err)
	}
	views := make([]ProfileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, newProfileView(p))
	}
	return views, nil
}
