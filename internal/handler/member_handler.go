package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/fit2fit/internal/member"
)

// MemberServiceInterface は会員ハンドラーが必要とするサービスインターフェース。
type MemberServiceInterface interface {
	Join(ctx context.Context, in member.JoinInput) (*member.Member, error)
	Members(ctx context.Context) ([]member.Member, error)
	Pay(ctx context.Context, in member.PaymentInput) (*member.Transaction, error)
	Transactions(ctx context.Context) ([]member.Transaction, error)
}

// MemberHandler は会員登録と模擬決済のHTTPハンドラー。
type MemberHandler struct {
	service MemberServiceInterface
}

// NewMemberHandler はMemberHandlerを生成する。
func NewMemberHandler(service MemberServiceInterface) *MemberHandler {
	return &MemberHandler{service: service}
}

// joinRequest は会員登録リクエストのボディ。
// 入会フォームはプランを"goal"として送るため、planが空の場合はgoalを使う。
type joinRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Plan  string `json:"plan"`
	Goal  string `json:"goal"`
}

// payRequest は模擬決済リクエストのボディ。
type payRequest struct {
	MemberName string  `json:"member_name"`
	Plan       string  `json:"plan"`
	Amount     float64 `json:"amount"`
	CardLast4  string  `json:"card_last4"`
}

// Join は会員を登録する。
// POST /api/join
func (h *MemberHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan := req.Plan
	if plan == "" {
		plan = req.Goal
	}

	m, err := h.service.Join(r.Context(), member.JoinInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Plan:  plan,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, m)
}

// Members は会員一覧を返す。
// GET /api/members
func (h *MemberHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.Members(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, members)
}

// Pay は模擬決済を記録する。実際の決済処理は行わない。
// POST /api/pay
func (h *MemberHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.service.Pay(r.Context(), member.PaymentInput{
		MemberName: req.MemberName,
		Plan:       req.Plan,
		Amount:     req.Amount,
		CardLast4:  req.CardLast4,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, txn)
}

// Transactions は決済記録の一覧を返す。
// GET /api/transactions
func (h *MemberHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.service.Transactions(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, txns)
}
