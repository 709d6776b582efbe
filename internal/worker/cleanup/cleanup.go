// Package cleanup は中止（abandoned）されたフィットネス目標を削除する日次ジョブを提供する。
// 中止から保持日数を超えた目標だけを物理削除し、進行中・達成済みの目標は残す。
// 食事リマインダー購読やエンゲージメント記録は対象外（論理削除・追記のみのため）。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// DefaultRetentionDays は中止した目標の既定保持日数。
const DefaultRetentionDays = 90

// DefaultSchedule はジョブの既定実行時刻（基準タイムゾーンで毎日03:30）。
// 食事リマインダーの発火時刻と重ならない時間帯にする。
const DefaultSchedule = "30 3 * * *"

// purgeAbandonedGoalsQuery は最終更新から保持期間を超えた中止目標を削除する。
const purgeAbandonedGoalsQuery = `DELETE FROM fitness_goals WHERE status = 'abandoned' AND updated_at < now() - $1::interval`

// CleanupJob は保持期間を超えた中止目標の削除ジョブ。
// 冪等であり、削除対象がなくてもエラーにならない。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合はDefaultRetentionDaysを使う。
func NewCleanupJob(db Executor, retentionDays int, logger *slog.Logger) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: retentionDays,
	}
}

// Run はupdated_atがRetentionDays日前より古い中止目標をDELETEする。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	result, err := j.db.ExecContext(ctx, purgeAbandonedGoalsQuery, interval)
	if err != nil {
		j.logger.Error("中止目標の削除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("中止目標の削除に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("中止目標の削除ジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
