// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/fit2fit/internal/model"
)

// ReminderRepository は食事リマインダー購読の永続化インターフェース。
// (identity, class_type) で一意。解除は論理削除（active=false）のみで物理削除はしない。
type ReminderRepository interface {
	// Upsert は購読を作成または更新し、active=trueに戻す。
	// 既存行がある場合はname、phone、whatsapp_enabledを上書きする（last write wins）。
	Upsert(ctx context.Context, sub *model.ReminderSubscription) (*model.ReminderSubscription, error)

	// Deactivate は購読をactive=falseにする。対象行が存在しない場合はfalseを返す。
	Deactivate(ctx context.Context, identity string, classType model.ClassType) (bool, error)

	// Find はactiveフラグに関わらず購読を取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, identity string, classType model.ClassType) (*model.ReminderSubscription, error)

	// FindActive は有効な購読を取得する。見つからない場合はnilを返す。
	FindActive(ctx context.Context, identity string, classType model.ClassType) (*model.ReminderSubscription, error)

	// ListActive は指定クラス種別の有効な購読を返す。
	// classTypesが空の場合は全クラス種別を対象とする。
	ListActive(ctx context.Context, classTypes []model.ClassType) ([]*model.ReminderSubscription, error)
}

// EngagementRepository はエンゲージメント台帳の永続化インターフェース。
type EngagementRepository interface {
	// WithTx はトランザクション内でfnを実行する。fnがエラーを返した場合はロールバックする。
	WithTx(ctx context.Context, fn func(tx EngagementTx) error) error

	// FindProfile はプロフィールを取得する。見つからない場合はnilを返す。
	FindProfile(ctx context.Context, identity string) (*model.EngagementProfile, error)

	// ListUnlocks は解除済み実績を解除日時の昇順で返す。
	ListUnlocks(ctx context.Context, identity string) ([]*model.AchievementUnlock, error)

	// Leaderboard はチェックイン済みプロフィールをpoints降順、longest_streak降順で最大limit件返す。
	Leaderboard(ctx context.Context, limit int) ([]*model.EngagementProfile, error)
}

// EngagementTx はチェックイン1回分のトランザクション内操作。
type EngagementTx interface {
	// LockProfile はプロフィール行を確保（無ければ作成）してから行ロックを取得する。
	// 新規作成された行はTotalWorkouts == 0となる。
	LockProfile(ctx context.Context, identity, name string) (*model.EngagementProfile, error)

	// UnlockAchievement は実績を解除する。既に解除済みの場合はfalseを返し何もしない。
	UnlockAchievement(ctx context.Context, identity, achievementID string, at time.Time) (bool, error)

	// SaveProfile はプロフィールの可変フィールドを保存する。
	SaveProfile(ctx context.Context, profile *model.EngagementProfile) error

	// AppendCheckIn はチェックインログを1行追記する。
	AppendCheckIn(ctx context.Context, entry *model.CheckInLog) error
}

// MemberRepository は会員データの永続化インターフェース。
type MemberRepository interface {
	// Create は会員を作成する。
	Create(ctx context.Context, member *model.Member) error
	// List は全会員を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Member, error)
}

// TransactionRepository は模擬決済記録の永続化インターフェース。
type TransactionRepository interface {
	// Create は決済記録を作成する。
	Create(ctx context.Context, txn *model.Transaction) error
	// List は全決済記録を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Transaction, error)
}

// WorkoutRepository はワークアウト記録の永続化インターフェース。
type WorkoutRepository interface {
	// Create はワークアウトを記録する。
	Create(ctx context.Context, session *model.WorkoutSession) error

	// ListByUser はユーザーの全ワークアウトをworkout_date降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.WorkoutSession, error)

	// ListByUserBetween は [from, to) の範囲のワークアウトをworkout_date昇順で返す。
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.WorkoutSession, error)
}

// MeasurementRepository は身体測定値の永続化インターフェース。
type MeasurementRepository interface {
	// Create は測定値を記録する。
	Create(ctx context.Context, m *model.BodyMeasurement) error
	// ListByUser はユーザーの測定値を新しい順に返す。
	ListByUser(ctx context.Context, userID string) ([]*model.BodyMeasurement, error)
}

// GoalRepository はフィットネス目標の永続化インターフェース。
type GoalRepository interface {
	// Create は目標を作成する。
	Create(ctx context.Context, goal *model.FitnessGoal) error

	// ListByUser はユーザーの目標をstatus昇順、target_date昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.FitnessGoal, error)

	// Update は目標を部分更新する。statusがcompletedの場合はcompleted_atを現在時刻にする。
	// 対象行が存在しない場合はfalseを返す。
	Update(ctx context.Context, id string, update model.GoalUpdate) (bool, error)

	// Delete は目標を削除する。対象行が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// ExerciseRepository はエクササイズライブラリの参照インターフェース。
type ExerciseRepository interface {
	// List は全エクササイズをカテゴリ、名前の順で返す。
	List(ctx context.Context) ([]*model.Exercise, error)
	// FindByName は名前（大文字小文字を区別しない）でエクササイズを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Exercise, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// dateLayout はDATE列への書き込みに使う書式。
const dateLayout = "2006-01-02"

// dateParam はDATE列に渡す値を返す。暦日のみを使い、タイムゾーン変換の影響を受けない。
func dateParam(t time.Time) string {
	return t.Format(dateLayout)
}

// nullableDate はnilを許容するDATEパラメータを返す。
func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateParam(*t)
}

// dateFromNull はsql.NullTimeを暦日ポインタに変換する。
func dateFromNull(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	d := time.Date(nt.Time.Year(), nt.Time.Month(), nt.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
