package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/fit2fit/internal/model"
)

// PostgresReminderRepo はPostgreSQLを使用したリマインダー購読リポジトリ。
type PostgresReminderRepo struct {
	db *sql.DB
}

// NewPostgresReminderRepo はPostgresReminderRepoを生成する。
func NewPostgresReminderRepo(db *sql.DB) *PostgresReminderRepo {
	return &PostgresReminderRepo{db: db}
}

const reminderColumns = `id, identity, name, class_type, phone_number, whatsapp_enabled, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*model.ReminderSubscription, error) {
	sub := &model.ReminderSubscription{}
	var classType string
	err := row.Scan(&sub.ID, &sub.Identity, &sub.Name, &classType, &sub.Phone,
		&sub.WhatsAppEnabled, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.ClassType = model.ClassType(classType)
	return sub, nil
}

// Upsert は購読を作成または更新し、active=trueに戻す。
func (r *PostgresReminderRepo) Upsert(ctx context.Context, sub *model.ReminderSubscription) (*model.ReminderSubscription, error) {
	id := sub.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()

	saved, err := scanReminder(r.db.QueryRowContext(ctx,
		`INSERT INTO diet_reminders (id, identity, name, class_type, phone_number, whatsapp_enabled, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)
		 ON CONFLICT (identity, class_type) DO UPDATE SET
		   name = EXCLUDED.name,
		   phone_number = EXCLUDED.phone_number,
		   whatsapp_enabled = EXCLUDED.whatsapp_enabled,
		   active = TRUE,
		   updated_at = EXCLUDED.updated_at
		 RETURNING `+reminderColumns,
		id, sub.Identity, sub.Name, string(sub.ClassType), sub.Phone, sub.WhatsAppEnabled, now,
	))
	if err != nil {
		return nil, fmt.Errorf("リマインダー購読の保存に失敗しました: %w", err)
	}
	return saved, nil
}

// Deactivate は購読をactive=falseにする。
func (r *PostgresReminderRepo) Deactivate(ctx context.Context, identity string, classType model.ClassType) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE diet_reminders SET active = FALSE, updated_at = NOW()
		 WHERE identity = $1 AND class_type = $2`,
		identity, string(classType),
	)
	if err != nil {
		return false, fmt.Errorf("リマインダー購読の解除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// Find はactiveフラグに関わらず購読を取得する。見つからない場合はnilを返す。
func (r *PostgresReminderRepo) Find(ctx context.Context, identity string, classType model.ClassType) (*model.ReminderSubscription, error) {
	sub, err := scanReminder(r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM diet_reminders WHERE identity = $1 AND class_type = $2`,
		identity, string(classType),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リマインダー購読の取得に失敗しました: %w", err)
	}
	return sub, nil
}

// FindActive は有効な購読を取得する。見つからない場合はnilを返す。
func (r *PostgresReminderRepo) FindActive(ctx context.Context, identity string, classType model.ClassType) (*model.ReminderSubscription, error) {
	sub, err := r.Find(ctx, identity, classType)
	if err != nil || sub == nil || !sub.Active {
		return nil, err
	}
	return sub, nil
}

// ListActive は指定クラス種別の有効な購読をcreated_at昇順で返す。
func (r *PostgresReminderRepo) ListActive(ctx context.Context, classTypes []model.ClassType) ([]*model.ReminderSubscription, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(classTypes) == 0 {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+reminderColumns+` FROM diet_reminders WHERE active ORDER BY created_at ASC`)
	} else {
		names := make([]string, len(classTypes))
		for i, ct := range classTypes {
			names[i] = string(ct)
		}
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+reminderColumns+` FROM diet_reminders
			 WHERE active AND class_type = ANY($1) ORDER BY created_at ASC`,
			pq.Array(names),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("有効なリマインダー購読の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var subs []*model.ReminderSubscription
	for rows.Next() {
		sub, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("リマインダー購読行の読み取りに失敗しました: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リマインダー購読一覧の走査に失敗しました: %w", err)
	}
	return subs, nil
}

var _ ReminderRepository = (*PostgresReminderRepo)(nil)
