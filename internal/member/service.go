// Package member は会員登録と模擬決済の記録を提供する。実際の決済処理は行わない。
package member

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/fit2fit/internal/model"
	"github.com/hitoshi/fit2fit/internal/repository"
	"github.com/hitoshi/fit2fit/internal/security"
)

// JoinInput は会員登録の入力。
type JoinInput struct {
	Name  string
	Email string
	Phone string
	Plan  string
}

// Member は会員のAPI表現。
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentInput は模擬決済の入力。
type PaymentInput struct {
	MemberName string
	Plan       string
	Amount     float64
	CardLast4  string
}

// Transaction は決済記録のAPI表現。
type Transaction struct {
	ID         string    `json:"id"`
	MemberName string    `json:"member_name"`
	Plan       string    `json:"plan"`
	Amount     float64   `json:"amount"`
	CardLast4  string    `json:"card_last4"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service は会員管理のサービス層。
type Service struct {
	members      repository.MemberRepository
	transactions repository.TransactionRepository
	sanitizer    security.NameSanitizerService
	logger       *slog.Logger
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	members repository.MemberRepository,
	transactions repository.TransactionRepository,
	sanitizer security.NameSanitizerService,
	logger *slog.Logger,
) *Service {
	return &Service{
		members:      members,
		transactions: transactions,
		sanitizer:    sanitizer,
		logger:       logger,
		now:          time.Now,
	}
}

// Join は会員を登録する。
func (s *Service) Join(ctx context.Context, in JoinInput) (*Member, error) {
	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, model.NewValidationError("email", "is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, model.NewValidationError("email", "is not a valid email address")
	}
	plan := strings.TrimSpace(in.Plan)
	if plan == "" {
		return nil, model.NewValidationError("plan", "is required")
	}

	m := &model.Member{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     strings.ToLower(email),
		Phone:     strings.TrimSpace(in.Phone),
		Plan:      plan,
		CreatedAt: s.now(),
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("会員の登録に失敗しました: %w", err)
	}

	s.logger.Info("会員を登録しました", slog.String("member_id", m.ID), slog.String("plan", m.Plan))
	out := toMember(m)
	return &out, nil
}

// Members は全会員を新しい順に返す。
func (s *Service) Members(ctx context.Context) ([]Member, error) {
	list, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("会員一覧の取得に失敗しました: %w", err)
	}
	out := make([]Member, len(list))
	for i, m := range list {
		out[i] = toMember(m)
	}
	return out, nil
}

func validCardLast4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Pay は模擬決済を記録する。決済処理は行わず、常にcompletedとして保存する。
func (s *Service) Pay(ctx context.Context, in PaymentInput) (*Transaction, error) {
	name := s.sanitizer.Sanitize(in.MemberName)
	if name == "" {
		return nil, model.NewValidationError("member_name", "is required")
	}
	plan := strings.TrimSpace(in.Plan)
	if plan == "" {
		return nil, model.NewValidationError("plan", "is required")
	}
	if in.Amount < 0 {
		return nil, model.NewValidationError("amount", "must not be negative")
	}
	card := strings.TrimSpace(in.CardLast4)
	if card != "" && !validCardLast4(card) {
		return nil, model.NewValidationError("card_last4", "must be exactly 4 digits")
	}

	t := &model.Transaction{
		ID:         uuid.New().String(),
		MemberName: name,
		Plan:       plan,
		Amount:     in.Amount,
		CardLast4:  card,
		Status:     model.TransactionStatusCompleted,
		CreatedAt:  s.now(),
	}
	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("決済記録の作成に失敗しました: %w", err)
	}

	s.logger.Info("模擬決済を記録しました", slog.String("transaction_id", t.ID), slog.String("plan", t.Plan))
	out := toTransaction(t)
	return &out, nil
}

// Transactions は全決済記録を新しい順に返す。
func (s *Service) Transactions(ctx context.Context) ([]Transaction, error) {
	list, err := s.transactions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("決済記録一覧の取得に失敗しました: %w", err)
	}
	out := make([]Transaction, len(list))
	for i, t := range list {
		out[i] = toTransaction(t)
	}
	return out, nil
}

func toMember(m *model.Member) Member {
	return Member{ID: m.ID, Name: m.Name, Email: m.Email, Phone: m.Phone, Plan: m.Plan, CreatedAt: m.CreatedAt}
}

func toTransaction(t *model.Transaction) Transaction {
	return Transaction{
		ID:         t.ID,
		MemberName: t.MemberName,
		Plan:       t.Plan,
		Amount:     t.Amount,
		CardLast4:  t.CardLast4,
		Status:     t.Status,
		CreatedAt:  t.CreatedAt,
	}
}
