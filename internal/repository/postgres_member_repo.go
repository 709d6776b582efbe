package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/fit2fit/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用した会員リポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// Create は会員を作成する。
func (r *PostgresMemberRepo) Create(ctx context.Context, m *model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, name, email, phone, plan, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Name, m.Email, m.Phone, m.Plan, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("会員の作成に失敗しました: %w", err)
	}
	return nil
}

// List は全会員を作成日時の降順で返す。
func (r *PostgresMemberRepo) List(ctx context.Context) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, plan, created_at FROM members ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("会員一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var members []*model.Member
	for rows.Next() {
		m := &model.Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Plan, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("会員行の読み取りに失敗しました: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("会員一覧の走査に失敗しました: %w", err)
	}
	return members, nil
}

// PostgresTransactionRepo はPostgreSQLを使用した模擬決済リポジトリ。
type PostgresTransactionRepo struct {
	db *sql.DB
}

// NewPostgresTransactionRepo はPostgresTransactionRepoを生成する。
func NewPostgresTransactionRepo(db *sql.DB) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{db: db}
}

// Create は決済記録を作成する。
func (r *PostgresTransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, member_name, plan, amount, card_last4, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.MemberName, t.Plan, t.Amount, t.CardLast4, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("決済記録の作成に失敗しました: %w", err)
	}
	return nil
}

// List は全決済記録を作成日時の降順で返す。
func (r *PostgresTransactionRepo) List(ctx context.Context) ([]*model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_name, plan, amount, card_last4, status, created_at
		 FROM transactions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("決済記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var txns []*model.Transaction
	for rows.Next() {
		t := &model.Transaction{}
		if err := rows.Scan(&t.ID, &t.MemberName, &t.Plan, &t.Amount, &t.CardLast4, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("決済記録行の読み取りに失敗しました: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("決済記録一覧の走査に失敗しました: %w", err)
	}
	return txns, nil
}

var (
	_ MemberRepository      = (*PostgresMemberRepo)(nil)
	_ TransactionRepository = (*PostgresTransactionRepo)(nil)
)
