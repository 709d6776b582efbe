// Package streak は途切れた連続チェックイン日数を日次でリセットするジョブを提供する。
// 最終チェックイン日が前日より古いプロフィールのcurrent_streakを0にする。
// チェックイン時の遷移は日数差で判定するため、このジョブは表示上の値を揃えるだけで
// チェックイン結果には影響しない。
package streak

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

// Metrics はジョブが記録するメトリクス。
type Metrics interface {
	RecordStreaksExpired(count int64)
}

// DefaultSchedule はジョブの既定実行時刻（基準タイムゾーンで毎日00:05）。
const DefaultSchedule = "5 0 * * *"

// ExpiryJob は途切れた連続日数をリセットするジョブ。
// 冪等であり、同じ日に複数回実行しても結果は変わらない。
type ExpiryJob struct {
	db      Executor
	loc     *time.Location
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewExpiryJob は新しいExpiryJobを生成する。metricsはnilでもよい。
func NewExpiryJob(db Executor, loc *time.Location, metrics Metrics, logger *slog.Logger) *ExpiryJob {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpiryJob{
		db:      db,
		loc:     loc,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// cutoff は基準タイムゾーンでの前日の暦日を返す。これより古い最終チェックインは途切れている。
func (j *ExpiryJob) cutoff() string {
	local := j.now().In(j.loc)
	yesterday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return yesterday.Format("2006-01-02")
}

// Run は最終チェックイン日が前日より古いプロフィールのcurrent_streakを0にする。
func (j *ExpiryJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.cutoff()

	query := `UPDATE engagement_profiles SET current_streak = 0, updated_at = NOW()
		WHERE last_checkin_date < $1::date AND current_streak > 0`
	result, err := j.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		j.logger.Error("連続日数リセットジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.String("cutoff", cutoff),
		)
		return fmt.Errorf("連続日数リセットの実行に失敗: %w", err)
	}

	resetCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("更新件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordStreaksExpired(resetCount)
	}

	duration := time.Since(start)
	j.logger.Info("連続日数リセットジョブが完了しました",
		slog.Int64("reset_count", resetCount),
		slog.String("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return nil
}
