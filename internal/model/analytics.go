package model

import "time"

// Exercise はエクササイズライブラリの1項目を表す。
type Exercise struct {
	ID          int
	Name        string
	Category    string
	CaloriesPer int // 30分あたりの平均消費カロリー
}

// WorkoutSession はワークアウト記録を表す。
type WorkoutSession struct {
	ID          string
	UserID      string
	Exercise    string
	Duration    int // 分
	Calories    int
	Intensity   string
	Notes       string
	WorkoutDate time.Time
	CreatedAt   time.Time
}

// BodyMeasurement は身体測定値を表す。未計測の値はnil。
type BodyMeasurement struct {
	ID                string
	UserID            string
	Weight            *float64
	BodyFatPercentage *float64
	MuscleMass        *float64
	MeasurementDate   time.Time
	CreatedAt         time.Time
}

// GoalStatus はフィットネス目標の状態を表す。
type GoalStatus string

const (
	// GoalStatusActive は進行中の目標。
	GoalStatusActive GoalStatus = "active"
	// GoalStatusCompleted は達成済みの目標。
	GoalStatusCompleted GoalStatus = "completed"
	// GoalStatusAbandoned は中止した目標。
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// FitnessGoal はフィットネス目標を表す。
type FitnessGoal struct {
	ID           string
	UserID       string
	GoalType     string
	Title        string
	Description  string
	TargetValue  float64
	CurrentValue float64
	TargetDate   *time.Time
	Status       GoalStatus
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// GoalUpdate は目標の部分更新を表す。nilのフィールドは変更しない。
type GoalUpdate struct {
	CurrentValue *float64
	Status       *GoalStatus
}
