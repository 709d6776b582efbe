package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/fit2fit/internal/reminder"
	"github.com/hitoshi/fit2fit/internal/subscription"
)

// ReminderServiceInterface はリマインダー購読ハンドラーが必要とするサービスインターフェース。
type ReminderServiceInterface interface {
	// Subscribe は購読を登録（または再有効化）し、確認メッセージを送信する。
	Subscribe(ctx context.Context, in subscription.SubscribeInput) (*subscription.SubscribeResult, error)
	// Unsubscribe は購読を解除する。
	Unsubscribe(ctx context.Context, email, classType string) error
	// Status は購読状態を返す。
	Status(ctx context.Context, email, classType string) (*subscription.Status, error)
}

// ReminderTriggerInterface はテスト送信に必要なインターフェース。
type ReminderTriggerInterface interface {
	// TriggerReminder は次の食事のリマインダーを1人の購読者に即時送信する。
	TriggerReminder(ctx context.Context, email, classType string) (*reminder.SubscriberResult, error)
}

// ReminderHandler はリマインダー購読のHTTPハンドラー。
type ReminderHandler struct {
	service ReminderServiceInterface
	trigger ReminderTriggerInterface
}

// NewReminderHandler はReminderHandlerを生成する。
func NewReminderHandler(service ReminderServiceInterface, trigger ReminderTriggerInterface) *ReminderHandler {
	return &ReminderHandler{
		service: service,
		trigger: trigger,
	}
}

// subscribeRequest は購読登録リクエストのボディ。
type subscribeRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	ClassType       string `json:"class_type"`
	PhoneNumber     string `json:"phone_number"`
	WhatsAppEnabled bool   `json:"whatsapp_enabled"`
}

// reminderTargetRequest は購読者とクラス種別を指定するリクエストのボディ。
type reminderTargetRequest struct {
	Email     string `json:"email"`
	ClassType string `json:"class_type"`
}

// Subscribe は食事リマインダーの購読を登録する。
// POST /api/subscribe
func (h *ReminderHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Subscribe(r.Context(), subscription.SubscribeInput{
		Email:           req.Email,
		Name:            req.Name,
		ClassType:       req.ClassType,
		Phone:           req.PhoneNumber,
		WhatsAppEnabled: req.WhatsAppEnabled,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

// Unsubscribe は食事リマインダーの購読を解除する。
// POST /api/unsubscribe
func (h *ReminderHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req reminderTargetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Unsubscribe(r.Context(), req.Email, req.ClassType); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"unsubscribed": true})
}

// Status は購読状態を返す。
// GET /api/reminder-status/{identity}/{classType}
func (h *ReminderHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context(), chi.URLParam(r, "identity"), chi.URLParam(r, "classType"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, status)
}

// TriggerTest は次の食事のリマインダーを即時送信する。
// POST /api/test-meal-reminder
func (h *ReminderHandler) TriggerTest(w http.ResponseWriter, r *http.Request) {
	var req reminderTargetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.trigger.TriggerReminder(r.Context(), req.Email, req.ClassType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}
