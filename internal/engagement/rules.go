// Package engagement はチェックインによるポイント、ストリーク、レベル、実績の台帳を提供する。
package engagement

import "strings"

// WorkoutTypeClass はクラス参加のワークアウト種別。他の種別より高いポイントを付与する。
const WorkoutTypeClass = "class"

const (
	classAward   = 15
	defaultAward = 10
)

// BaseAward はワークアウト種別に応じた基本ポイントを返す。
func BaseAward(workoutType string) int {
	if strings.EqualFold(strings.TrimSpace(workoutType), WorkoutTypeClass) {
		return classAward
	}
	return defaultAward
}

// 実績ID
const (
	AchievementFirstWorkout = "first_workout"
	AchievementWeekStreak   = "week_streak"
	AchievementMonthStreak  = "month_streak"
	AchievementWorkouts50   = "workouts_50"
	AchievementWorkouts100  = "workouts_100"
)

// Achievement は実績の定義。Rewardは初回解除時にのみ付与するボーナスポイント。
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Reward      int    `json:"points_reward"`
}

var achievements = []Achievement{
	{ID: AchievementFirstWorkout, Name: "First Workout", Description: "Complete your first workout", Icon: "🎯", Reward: 0},
	{ID: AchievementWeekStreak, Name: "Week Warrior", Description: "Work out 7 days in a row", Icon: "🔥", Reward: 50},
	{ID: AchievementMonthStreak, Name: "Monthly Master", Description: "Work out 30 days in a row", Icon: "👑", Reward: 200},
	{ID: AchievementWorkouts50, Name: "Half Century", Description: "Complete 50 workouts", Icon: "💪", Reward: 100},
	{ID: AchievementWorkouts100, Name: "Centurion", Description: "Complete 100 workouts", Icon: "🏆", Reward: 250},
}

// Achievements は全実績を定義順で返す。
func Achievements() []Achievement {
	out := make([]Achievement, len(achievements))
	copy(out, achievements)
	return out
}

// LookupAchievement はIDから実績を検索する。
func LookupAchievement(id string) (Achievement, bool) {
	for _, a := range achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Level はレベルの段階。MinPoints以上でそのレベルになる。
type Level struct {
	Level     int    `json:"level"`
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}

var levels = []Level{
	{Level: 1, Name: "Beginner", MinPoints: 0},
	{Level: 2, Name: "Regular", MinPoints: 101},
	{Level: 3, Name: "Committed", MinPoints: 301},
	{Level: 4, Name: "Advanced", MinPoints: 601},
	{Level: 5, Name: "Elite", MinPoints: 1001},
	{Level: 6, Name: "Legend", MinPoints: 1501},
}

// LevelFor は累積ポイントに対応するレベル段階を返す。ポイントに対して単調非減少。
func LevelFor(points int) Level {
	current := levels[0]
	for _, l := range levels[1:] {
		if points < l.MinPoints {
			break
		}
		current = l
	}
	return current
}

// Levels は全レベル段階を昇順で返す。
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}
