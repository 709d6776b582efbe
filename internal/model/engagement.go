package model

import "time"

// EngagementProfile はアイデンティティごとのゲーミフィケーション状態を表す。
// TotalWorkouts == 0 のプロフィールは未チェックイン（absent）として扱う。
type EngagementProfile struct {
	Identity        string
	Name            string
	Points          int
	Level           int
	CurrentStreak   int
	LongestStreak   int
	TotalWorkouts   int
	LastCheckinDate *time.Time // 基準タイムゾーンでの暦日（00:00 UTCで保持）
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Present はプロフィールが一度以上チェックイン済みかどうかを返す。
func (p *EngagementProfile) Present() bool {
	return p != nil && p.TotalWorkouts > 0
}

// AchievementUnlock は実績の解除記録を表す。(Identity, AchievementID) で一意。
type AchievementUnlock struct {
	Identity      string
	AchievementID string
	UnlockedAt    time.Time
}

// CheckInLog はチェックイン1回分の追記専用ログを表す。
type CheckInLog struct {
	ID           string
	Identity     string
	WorkoutType  string
	PointsEarned int
	CheckinDate  time.Time
	CreatedAt    time.Time
}
