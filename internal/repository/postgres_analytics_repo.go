package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/fit2fit/internal/model"
)

// PostgresWorkoutRepo はPostgreSQLを使用したワークアウト記録リポジトリ。
type PostgresWorkoutRepo struct {
	db *sql.DB
}

// NewPostgresWorkoutRepo はPostgresWorkoutRepoを生成する。
func NewPostgresWorkoutRepo(db *sql.DB) *PostgresWorkoutRepo {
	return &PostgresWorkoutRepo{db: db}
}

const workoutColumns = `id, user_id, exercise, duration, calories, intensity, notes, workout_date, created_at`

func scanWorkout(row rowScanner) (*model.WorkoutSession, error) {
	w := &model.WorkoutSession{}
	var date time.Time
	err := row.Scan(&w.ID, &w.UserID, &w.Exercise, &w.Duration, &w.Calories, &w.Intensity, &w.Notes, &date, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	w.WorkoutDate = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return w, nil
}

// Create はワークアウトを記録する。
func (r *PostgresWorkoutRepo) Create(ctx context.Context, w *model.WorkoutSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workout_sessions (id, user_id, exercise, duration, calories, intensity, notes, workout_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.UserID, w.Exercise, w.Duration, w.Calories, w.Intensity, w.Notes, dateParam(w.WorkoutDate), w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ワークアウトの記録に失敗しました: %w", err)
	}
	return nil
}

// ListByUser はユーザーの全ワークアウトをworkout_date降順で返す。
func (r *PostgresWorkoutRepo) ListByUser(ctx context.Context, userID string) ([]*model.WorkoutSession, error) {
	return r.query(ctx,
		`SELECT `+workoutColumns+` FROM workout_sessions
		 WHERE user_id = $1 ORDER BY workout_date DESC, created_at DESC`,
		userID,
	)
}

// ListByUserBetween は [from, to) の範囲のワークアウトをworkout_date昇順で返す。
func (r *PostgresWorkoutRepo) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]*model.WorkoutSession, error) {
	return r.query(ctx,
		`SELECT `+workoutColumns+` FROM workout_sessions
		 WHERE user_id = $1 AND workout_date >= $2 AND workout_date < $3
		 ORDER BY workout_date ASC, created_at ASC`,
		userID, dateParam(from), dateParam(to),
	)
}

func (r *PostgresWorkoutRepo) query(ctx context.Context, query string, args ...any) ([]*model.WorkoutSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ワークアウト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sessions []*model.WorkoutSession
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("ワークアウト行の読み取りに失敗しました: %w", err)
		}
		sessions = append(sessions, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ワークアウト一覧の走査に失敗しました: %w", err)
	}
	return sessions, nil
}

// PostgresMeasurementRepo はPostgreSQLを使用した身体測定値リポジトリ。
type PostgresMeasurementRepo struct {
	db *sql.DB
}

// NewPostgresMeasurementRepo はPostgresMeasurementRepoを生成する。
func NewPostgresMeasurementRepo(db *sql.DB) *PostgresMeasurementRepo {
	return &PostgresMeasurementRepo{db: db}
}

// Create は測定値を記録する。
func (r *PostgresMeasurementRepo) Create(ctx context.Context, m *model.BodyMeasurement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO body_measurements (id, user_id, weight, body_fat_percentage, muscle_mass, measurement_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.UserID, nullableFloat(m.Weight), nullableFloat(m.BodyFatPercentage), nullableFloat(m.MuscleMass),
		dateParam(m.MeasurementDate), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("測定値の記録に失敗しました: %w", err)
	}
	return nil
}

// ListByUser はユーザーの測定値を新しい順に返す。
func (r *PostgresMeasurementRepo) ListByUser(ctx context.Context, userID string) ([]*model.BodyMeasurement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, weight, body_fat_percentage, muscle_mass, measurement_date, created_at
		 FROM body_measurements WHERE user_id = $1
		 ORDER BY measurement_date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("測定値一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var list []*model.BodyMeasurement
	for rows.Next() {
		m := &model.BodyMeasurement{}
		var weight, fat, muscle sql.NullFloat64
		var date time.Time
		if err := rows.Scan(&m.ID, &m.UserID, &weight, &fat, &muscle, &date, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("測定値行の読み取りに失敗しました: %w", err)
		}
		m.Weight = floatFromNull(weight)
		m.BodyFatPercentage = floatFromNull(fat)
		m.MuscleMass = floatFromNull(muscle)
		m.MeasurementDate = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("測定値一覧の走査に失敗しました: %w", err)
	}
	return list, nil
}

// PostgresGoalRepo はPostgreSQLを使用したフィットネス目標リポジトリ。
type PostgresGoalRepo struct {
	db *sql.DB
}

// NewPostgresGoalRepo はPostgresGoalRepoを生成する。
func NewPostgresGoalRepo(db *sql.DB) *PostgresGoalRepo {
	return &PostgresGoalRepo{db: db}
}

// Create は目標を作成する。
func (r *PostgresGoalRepo) Create(ctx context.Context, g *model.FitnessGoal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fitness_goals (id, user_id, goal_type, title, description, target_value, current_value, target_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.UserID, g.GoalType, g.Title, g.Description, g.TargetValue, g.CurrentValue,
		nullableDate(g.TargetDate), string(g.Status), g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("目標の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUser はユーザーの目標をstatus昇順、target_date昇順で返す。
func (r *PostgresGoalRepo) ListByUser(ctx context.Context, userID string) ([]*model.FitnessGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, goal_type, title, description, target_value, current_value, target_date, status, completed_at, created_at
		 FROM fitness_goals WHERE user_id = $1
		 ORDER BY status ASC, target_date ASC NULLS LAST, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("目標一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var goals []*model.FitnessGoal
	for rows.Next() {
		g := &model.FitnessGoal{}
		var status string
		var targetDate, completedAt sql.NullTime
		if err := rows.Scan(&g.ID, &g.UserID, &g.GoalType, &g.Title, &g.Description, &g.TargetValue,
			&g.CurrentValue, &targetDate, &status, &completedAt, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("目標行の読み取りに失敗しました: %w", err)
		}
		g.Status = model.GoalStatus(status)
		g.TargetDate = dateFromNull(targetDate)
		if completedAt.Valid {
			t := completedAt.Time
			g.CompletedAt = &t
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("目標一覧の走査に失敗しました: %w", err)
	}
	return goals, nil
}

// Update は目標を部分更新する。nilのフィールドは既存の値を維持する。
func (r *PostgresGoalRepo) Update(ctx context.Context, id string, u model.GoalUpdate) (bool, error) {
	var current, status any
	if u.CurrentValue != nil {
		current = *u.CurrentValue
	}
	if u.Status != nil {
		status = string(*u.Status)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE fitness_goals SET
		   current_value = COALESCE($2::double precision, current_value),
		   status = COALESCE($3::text, status),
		   completed_at = CASE WHEN $3::text = 'completed' THEN NOW() ELSE completed_at END,
		   updated_at = NOW()
		 WHERE id = $1`,
		id, current, status,
	)
	if err != nil {
		return false, fmt.Errorf("目標の更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// Delete は目標を削除する。
func (r *PostgresGoalRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fitness_goals WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("目標の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// PostgresExerciseRepo はPostgreSQLを使用したエクササイズライブラリリポジトリ。
type PostgresExerciseRepo struct {
	db *sql.DB
}

// NewPostgresExerciseRepo はPostgresExerciseRepoを生成する。
func NewPostgresExerciseRepo(db *sql.DB) *PostgresExerciseRepo {
	return &PostgresExerciseRepo{db: db}
}

// List は全エクササイズをカテゴリ、名前の順で返す。
func (r *PostgresExerciseRepo) List(ctx context.Context) ([]*model.Exercise, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, calories_per FROM exercise_library ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("エクササイズ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var list []*model.Exercise
	for rows.Next() {
		e := &model.Exercise{}
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.CaloriesPer); err != nil {
			return nil, fmt.Errorf("エクササイズ行の読み取りに失敗しました: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("エクササイズ一覧の走査に失敗しました: %w", err)
	}
	return list, nil
}

// FindByName は名前でエクササイズを検索する。見つからない場合はnilを返す。
func (r *PostgresExerciseRepo) FindByName(ctx context.Context, name string) (*model.Exercise, error) {
	e := &model.Exercise{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, category, calories_per FROM exercise_library WHERE LOWER(name) = LOWER($1)`,
		name,
	).Scan(&e.ID, &e.Name, &e.Category, &e.CaloriesPer)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("エクササイズの検索に失敗しました: %w", err)
	}
	return e, nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func floatFromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

var (
	_ WorkoutRepository     = (*PostgresWorkoutRepo)(nil)
	_ MeasurementRepository = (*PostgresMeasurementRepo)(nil)
	_ GoalRepository        = (*PostgresGoalRepo)(nil)
	_ ExerciseRepository    = (*PostgresExerciseRepo)(nil)
)
