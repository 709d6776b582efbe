// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, reminder, engagement, analytics, member, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeUnknownClassType     = "UNKNOWN_CLASS_TYPE"
	ErrCodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeNoUpcomingMeal       = "NO_UPCOMING_MEAL"
	ErrCodeProfileNotFound      = "PROFILE_NOT_FOUND"
	ErrCodeGoalNotFound         = "GOAL_NOT_FOUND"
	ErrCodeInvalidPeriod        = "INVALID_PERIOD"
	ErrCodeNoUpdates            = "NO_UPDATES"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Failed to parse request body.",
		Category: "validation",
		Action:   "Send a valid JSON body.",
	}
}

// NewValidationError は必須項目の欠落や形式不正のエラーを生成する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("%s %s", field, reason),
		Category: "validation",
		Action:   fmt.Sprintf("Check the %s field and try again.", field),
	}
}

// NewUnknownClassTypeError は未知のクラス種別エラーを生成する。
func NewUnknownClassTypeError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownClassType,
		Message:  fmt.Sprintf("Unknown class type: %q", value),
		Category: "validation",
		Action:   "Use one of HIIT, Yoga or Strength.",
	}
}

// NewSubscriptionNotFoundError は有効なリマインダー購読が存在しない場合のエラーを生成する。
func NewSubscriptionNotFoundError(identity string, classType ClassType) *APIError {
	return &APIError{
		Code:     ErrCodeSubscriptionNotFound,
		Message:  fmt.Sprintf("No active subscription found for %s (%s).", identity, classType),
		Category: "reminder",
		Action:   "Subscribe to meal reminders for this class first.",
	}
}

// NewNoUpcomingMealError はクラス種別の食事プランが空の場合のエラーを生成する。
func NewNoUpcomingMealError(classType ClassType) *APIError {
	return &APIError{
		Code:     ErrCodeNoUpcomingMeal,
		Message:  fmt.Sprintf("No meals are scheduled for %s.", classType),
		Category: "reminder",
		Action:   "Check the diet plan configuration.",
	}
}

// NewProfileNotFoundError はエンゲージメントプロフィールが存在しない場合のエラーを生成する。
func NewProfileNotFoundError(identity string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  fmt.Sprintf("No profile found for %s.", identity),
		Category: "engagement",
		Action:   "Check in once to create a profile.",
	}
}

// NewGoalNotFoundError は目標が存在しない場合のエラーを生成する。
func NewGoalNotFoundError(goalID string) *APIError {
	return &APIError{
		Code:     ErrCodeGoalNotFound,
		Message:  fmt.Sprintf("Goal not found: %s", goalID),
		Category: "analytics",
		Action:   "Check the goal ID.",
	}
}

// NewInvalidPeriodError はレポート期間が不正な場合のエラーを生成する。
func NewInvalidPeriodError(period string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPeriod,
		Message:  fmt.Sprintf("Invalid report period: %q", period),
		Category: "validation",
		Action:   "Use month or year.",
	}
}

// NewNoUpdatesError は更新項目が一つも指定されていない場合のエラーを生成する。
func NewNoUpdatesError() *APIError {
	return &APIError{
		Code:     ErrCodeNoUpdates,
		Message:  "No updates provided.",
		Category: "validation",
		Action:   "Provide current_value or status.",
	}
}
