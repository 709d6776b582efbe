package model

import (
	"fmt"
	"strings"
	"time"
)

// ClassType はフィットネスクラスの種別を表す。各種別が固有の食事プランを持つ。
type ClassType string

const (
	// ClassHIIT は高強度インターバルトレーニング。
	ClassHIIT ClassType = "HIIT"
	// ClassYoga はヨガ。
	ClassYoga ClassType = "Yoga"
	// ClassStrength は筋力トレーニング。
	ClassStrength ClassType = "Strength"
)

// ClassTypes は定義済みの全クラス種別を固定順で返す。
func ClassTypes() []ClassType {
	return []ClassType{ClassHIIT, ClassYoga, ClassStrength}
}

// ParseClassType は文字列をClassTypeに変換する。
// 大文字小文字は区別しない。未知の値はエラーを返す。
func ParseClassType(s string) (ClassType, error) {
	trimmed := strings.TrimSpace(s)
	for _, ct := range ClassTypes() {
		if strings.EqualFold(trimmed, string(ct)) {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown class type %q", s)
}

// ReminderSubscription は食事リマインダーの購読を表す。
// (Identity, ClassType) で一意。解除時はActive=falseとなり物理削除はしない。
type ReminderSubscription struct {
	ID              string
	Identity        string // 連絡先キー（メールアドレス）
	Name            string
	ClassType       ClassType
	Phone           string
	WhatsAppEnabled bool
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ChatReachable はチャットチャネルで送信すべき購読かどうかを返す。
func (s *ReminderSubscription) ChatReachable() bool {
	return s.WhatsAppEnabled && strings.TrimSpace(s.Phone) != ""
}
