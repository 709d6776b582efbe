package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fit2fit/internal/model"
)

// PostgresEngagementRepo はPostgreSQLを使用したエンゲージメント台帳リポジトリ。
type PostgresEngagementRepo struct {
	db *sql.DB
}

// NewPostgresEngagementRepo はPostgresEngagementRepoを生成する。
func NewPostgresEngagementRepo(db *sql.DB) *PostgresEngagementRepo {
	return &PostgresEngagementRepo{db: db}
}

const profileColumns = `identity, name, points, level, current_streak, longest_streak, total_workouts, last_checkin_date, created_at, updated_at`

func scanProfile(row rowScanner) (*model.EngagementProfile, error) {
	p := &model.EngagementProfile{}
	var last sql.NullTime
	err := row.Scan(&p.Identity, &p.Name, &p.Points, &p.Level, &p.CurrentStreak, &p.LongestStreak,
		&p.TotalWorkouts, &last, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.LastCheckinDate = dateFromNull(last)
	return p, nil
}

// WithTx はトランザクション内でfnを実行する。
func (r *PostgresEngagementRepo) WithTx(ctx context.Context, fn func(tx EngagementTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&postgresEngagementTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// FindProfile はプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresEngagementRepo) FindProfile(ctx context.Context, identity string) (*model.EngagementProfile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM engagement_profiles WHERE identity = $1`,
		identity,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	return p, nil
}

// ListUnlocks は解除済み実績を解除日時の昇順で返す。
func (r *PostgresEngagementRepo) ListUnlocks(ctx context.Context, identity string) ([]*model.AchievementUnlock, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT identity, achievement_id, unlocked_at FROM achievement_unlocks
		 WHERE identity = $1 ORDER BY unlocked_at ASC, achievement_id ASC`,
		identity,
	)
	if err != nil {
		return nil, fmt.Errorf("解除済み実績の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var unlocks []*model.AchievementUnlock
	for rows.Next() {
		u := &model.AchievementUnlock{}
		if err := rows.Scan(&u.Identity, &u.AchievementID, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("実績行の読み取りに失敗しました: %w", err)
		}
		unlocks = append(unlocks, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("実績一覧の走査に失敗しました: %w", err)
	}
	return unlocks, nil
}

// Leaderboard はpoints降順、longest_streak降順で最大limit件返す。
func (r *PostgresEngagementRepo) Leaderboard(ctx context.Context, limit int) ([]*model.EngagementProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM engagement_profiles
		 WHERE total_workouts > 0
		 ORDER BY points DESC, longest_streak DESC, identity ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("リーダーボードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var profiles []*model.EngagementProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("プロフィール行の読み取りに失敗しました: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リーダーボードの走査に失敗しました: %w", err)
	}
	return profiles, nil
}

// postgresEngagementTx は*sql.Tx上のEngagementTx実装。
type postgresEngagementTx struct {
	tx *sql.Tx
}

func (t *postgresEngagementTx) LockProfile(ctx context.Context, identity, name string) (*model.EngagementProfile, error) {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO engagement_profiles (identity, name) VALUES ($1, $2)
		 ON CONFLICT (identity) DO NOTHING`,
		identity, name,
	)
	if err != nil {
		return nil, fmt.Errorf("プロフィール行の確保に失敗しました: %w", err)
	}

	p, err := scanProfile(t.tx.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM engagement_profiles WHERE identity = $1 FOR UPDATE`,
		identity,
	))
	if err != nil {
		return nil, fmt.Errorf("プロフィールのロックに失敗しました: %w", err)
	}
	return p, nil
}

func (t *postgresEngagementTx) UnlockAchievement(ctx context.Context, identity, achievementID string, at time.Time) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		`INSERT INTO achievement_unlocks (identity, achievement_id, unlocked_at) VALUES ($1, $2, $3)
		 ON CONFLICT (identity, achievement_id) DO NOTHING`,
		identity, achievementID, at,
	)
	if err != nil {
		return false, fmt.Errorf("実績の解除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("挿入件数の取得に失敗しました: %w", err)
	}
	return n == 1, nil
}

func (t *postgresEngagementTx) SaveProfile(ctx context.Context, p *model.EngagementProfile) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE engagement_profiles SET
		   name = $2, points = $3, level = $4, current_streak = $5, longest_streak = $6,
		   total_workouts = $7, last_checkin_date = $8, updated_at = $9
		 WHERE identity = $1`,
		p.Identity, p.Name, p.Points, p.Level, p.CurrentStreak, p.LongestStreak,
		p.TotalWorkouts, nullableDate(p.LastCheckinDate), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロフィールの保存に失敗しました: %w", err)
	}
	return nil
}

func (t *postgresEngagementTx) AppendCheckIn(ctx context.Context, entry *model.CheckInLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO checkin_log (id, identity, workout_type, points_earned, checkin_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Identity, entry.WorkoutType, entry.PointsEarned, dateParam(entry.CheckinDate), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("チェックインログの追記に失敗しました: %w", err)
	}
	return nil
}

var (
	_ EngagementRepository = (*PostgresEngagementRepo)(nil)
	_ EngagementTx         = (*postgresEngagementTx)(nil)
)
