package handler

import (
	"context"
	"strings"

	"github.com/hitoshi/fit2fit/internal/analytics"
	"github.com/hitoshi/fit2fit/internal/dietplan"
	"github.com/hitoshi/fit2fit/internal/engagement"
	"github.com/hitoshi/fit2fit/internal/member"
	"github.com/hitoshi/fit2fit/internal/model"
	"github.com/hitoshi/fit2fit/internal/reminder"
	"github.com/hitoshi/fit2fit/internal/subscription"
)

// parseClassTypeParam はリクエストのクラス種別を検証する。
func parseClassTypeParam(raw string) (model.ClassType, error) {
	if strings.TrimSpace(raw) == "" {
		return "", model.NewValidationError("class_type", "is required")
	}
	ct, err := model.ParseClassType(raw)
	if err != nil {
		return "", model.NewUnknownClassTypeError(raw)
	}
	return ct, nil
}

// reminderTrigger はテスト送信に必要なディスパッチャの操作。
type reminderTrigger interface {
	TriggerFor(ctx context.Context, identity string, classType model.ClassType) (*reminder.SubscriberResult, error)
}

// ReminderTriggerAdapter は reminder.Dispatcher を ReminderTriggerInterface に適合させるアダプタ。
type ReminderTriggerAdapter struct {
	dispatcher reminderTrigger
}

// NewReminderTriggerAdapter はReminderTriggerAdapterを生成する。
func NewReminderTriggerAdapter(dispatcher *reminder.Dispatcher) *ReminderTriggerAdapter {
	return &ReminderTriggerAdapter{dispatcher: dispatcher}
}

// TriggerReminder は入力を検証してからディスパッチャに委譲する。
// メールアドレスは購読登録時と同じく小文字に正規化する。
func (a *ReminderTriggerAdapter) TriggerReminder(ctx context.Context, email, classType string) (*reminder.SubscriberResult, error) {
	identity := strings.ToLower(strings.TrimSpace(email))
	if identity == "" {
		return nil, model.NewValidationError("email", "is required")
	}
	ct, err := parseClassTypeParam(classType)
	if err != nil {
		return nil, err
	}
	return a.dispatcher.TriggerFor(ctx, identity, ct)
}

// DietPlanAdapter は dietplan.Catalog を DietPlanServiceInterface に適合させるアダプタ。
type DietPlanAdapter struct {
	catalog *dietplan.Catalog
}

// NewDietPlanAdapter はDietPlanAdapterを生成する。
func NewDietPlanAdapter(catalog *dietplan.Catalog) *DietPlanAdapter {
	return &DietPlanAdapter{catalog: catalog}
}

// DietPlan はクラス種別の食事プランをhandlerレスポンス型で返す。
func (a *DietPlanAdapter) DietPlan(classType string) (*dietPlanResponse, error) {
	ct, err := parseClassTypeParam(classType)
	if err != nil {
		return nil, err
	}
	return toDietPlanResponse(ct, a.catalog.Plan(ct)), nil
}

// toDietPlanResponse はカタログのエントリをhandlerのレスポンス型に変換する。
func toDietPlanResponse(ct model.ClassType, entries []dietplan.Entry) *dietPlanResponse {
	meals := make([]dietPlanMeal, len(entries))
	for i, e := range entries {
		meals[i] = dietPlanMeal{
			Slot: e.Slot,
			Meal: e.Meal,
			Time: e.Time.String(),
		}
	}
	return &dietPlanResponse{
		ClassType: string(ct),
		Meals:     meals,
	}
}

// --- compile-time interface checks ---

var _ ReminderTriggerInterface = (*ReminderTriggerAdapter)(nil)
var _ DietPlanServiceInterface = (*DietPlanAdapter)(nil)
var _ reminderTrigger = (*reminder.Dispatcher)(nil)

// ドメインサービスはアダプタなしでハンドラーに渡せる。
var (
	_ ReminderServiceInterface   = (*subscription.Service)(nil)
	_ EngagementServiceInterface = (*engagement.Ledger)(nil)
	_ AnalyticsServiceInterface  = (*analytics.Service)(nil)
	_ MemberServiceInterface     = (*member.Service)(nil)
)
