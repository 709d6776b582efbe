// Package subscription は食事リマインダー購読の管理（登録、解除、状態確認）を提供する。
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/hitoshi/fit2fit/internal/model"
	"github.com/hitoshi/fit2fit/internal/notify"
	"github.com/hitoshi/fit2fit/internal/repository"
	"github.com/hitoshi/fit2fit/internal/security"
)

// SubscribeInput は購読登録の入力。
type SubscribeInput struct {
	Email           string
	Name            string
	ClassType       string
	Phone           string
	WhatsAppEnabled bool
}

// Subscription は購読のAPI表現。
type Subscription struct {
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	ClassType       model.ClassType `json:"class_type"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	WhatsAppEnabled bool            `json:"whatsapp_enabled"`
	Active          bool            `json:"active"`
}

// SubscribeResult は購読登録の結果。確認メッセージの送信結果を含む。
type SubscribeResult struct {
	Subscription
	Confirmation []notify.Outcome `json:"confirmation"`
}

// Status は購読状態。Subscribedはactiveフラグを反映する。
type Status struct {
	Subscribed   bool          `json:"subscribed"`
	Subscription *Subscription `json:"subscription"`
}

// Service は購読管理のサービス層。
type Service struct {
	repo      repository.ReminderRepository
	sanitizer security.NameSanitizerService
	formatter *notify.Formatter
	email     notify.Notifier
	chat      notify.Notifier
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.ReminderRepository,
	sanitizer security.NameSanitizerService,
	formatter *notify.Formatter,
	email notify.Notifier,
	chat notify.Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		formatter: formatter,
		email:     email,
		chat:      chat,
		logger:    logger,
	}
}

// normalizeEmail はメールアドレスを検証し、小文字化した値を返す。
func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", model.NewValidationError("email", "is required")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", model.NewValidationError("email", "is not a valid email address")
	}
	return strings.ToLower(addr.Address), nil
}

func parseClassType(raw string) (model.ClassType, error) {
	if strings.TrimSpace(raw) == "" {
		return "", model.NewValidationError("class_type", "is required")
	}
	ct, err := model.ParseClassType(raw)
	if err != nil {
		return "", model.NewUnknownClassTypeError(raw)
	}
	return ct, nil
}

// Subscribe は購読を登録（または再有効化）し、確認メッセージを送信する。
// 確認メッセージの送信失敗はログと結果に記録するが、呼び出しは失敗させない。
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	ct, err := parseClassType(in.ClassType)
	if err != nil {
		return nil, err
	}

	sub := &model.ReminderSubscription{
		Identity:        email,
		Name:            s.sanitizer.Sanitize(in.Name),
		ClassType:       ct,
		Phone:           strings.TrimSpace(in.Phone),
		WhatsAppEnabled: in.WhatsAppEnabled,
	}
	saved, err := s.repo.Upsert(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("購読の保存に失敗しました: %w", err)
	}

	s.logger.Info("食事リマインダーを購読しました",
		slog.String("identity", saved.Identity),
		slog.String("class_type", string(saved.ClassType)),
		slog.Bool("whatsapp", saved.ChatReachable()),
	)

	return &SubscribeResult{
		Subscription: toSubscription(saved),
		Confirmation: s.confirm(ctx, saved),
	}, nil
}

func (s *Service) confirm(ctx context.Context, sub *model.ReminderSubscription) []notify.Outcome {
	ev := notify.SubscriptionEvent{Name: sub.Name, ClassType: sub.ClassType}
	outcomes := make([]notify.Outcome, 0, 2)

	if msg, err := s.formatter.SubscriptionEmail(ev); err != nil {
		outcomes = append(outcomes, notify.Failure(notify.ChannelEmail, "failed to render message: %v", err))
	} else {
		outcomes = append(outcomes, notify.SafeSend(ctx, s.email, sub.Identity, msg))
	}

	if sub.ChatReachable() {
		if msg, err := s.formatter.SubscriptionChat(ev); err != nil {
			outcomes = append(outcomes, notify.Failure(notify.ChannelWhatsApp, "failed to render message: %v", err))
		} else {
			outcomes = append(outcomes, notify.SafeSend(ctx, s.chat, sub.Phone, msg))
		}
	}

	for _, out := range outcomes {
		if !out.Success {
			s.logger.Warn("購読確認メッセージの送信に失敗しました",
				slog.String("identity", sub.Identity),
				slog.String("channel", string(out.Channel)),
				slog.String("error", out.Error),
			)
		}
	}
	return outcomes
}

// Unsubscribe は購読を解除（active=false）する。購読が存在しない場合はエラーを返す。
func (s *Service) Unsubscribe(ctx context.Context, rawEmail, rawClassType string) error {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return err
	}
	ct, err := parseClassType(rawClassType)
	if err != nil {
		return err
	}

	found, err := s.repo.Deactivate(ctx, email, ct)
	if err != nil {
		return fmt.Errorf("購読の解除に失敗しました: %w", err)
	}
	if !found {
		return model.NewSubscriptionNotFoundError(email, ct)
	}

	s.logger.Info("食事リマインダーの購読を解除しました",
		slog.String("identity", email),
		slog.String("class_type", string(ct)),
	)
	return nil
}

// Status は購読状態を返す。購読が存在しない場合はSubscribed=false、Subscription=nil。
func (s *Service) Status(ctx context.Context, rawEmail, rawClassType string) (*Status, error) {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	ct, err := parseClassType(rawClassType)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Find(ctx, email, ct)
	if err != nil {
		return nil, fmt.Errorf("購読状態の取得に失敗しました: %w", err)
	}
	if sub == nil {
		return &Status{}, nil
	}
	view := toSubscription(sub)
	return &Status{Subscribed: sub.Active, Subscription: &view}, nil
}

func toSubscription(sub *model.ReminderSubscription) Subscription {
	return Subscription{
		Email:           sub.Identity,
		Name:            sub.Name,
		ClassType:       sub.ClassType,
		PhoneNumber:     sub.Phone,
		WhatsAppEnabled: sub.WhatsAppEnabled,
		Active:          sub.Active,
	}
}
