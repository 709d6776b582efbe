package engagement

import (
	"time"

	"github.com/hitoshi/fit2fit/internal/model"
)

const (
	weekStreak  = 7
	monthStreak = 30
)

// Transition はチェックイン1回分の状態遷移結果。
type Transition struct {
	// Next は遷移後のプロフィール。実績ボーナスは含まない。
	Next model.EngagementProfile
	// BaseAward はワークアウト種別による基本ポイント。
	BaseAward int
	// Gap は前回チェックインからの日数。初回は-1。
	Gap int
	// Candidates は解除を試みる実績ID。解除済みかどうかは台帳側で判定する。
	Candidates []string
}

// Advance はチェックイン前のプロフィールと当日の暦日から次の状態を計算する。
// prevがnilまたは未チェックインの場合は初回チェックインとして扱う。
// todayは基準タイムゾーンで切り出した暦日（時刻部分は無視する）。
func Advance(prev *model.EngagementProfile, workoutType string, today time.Time) Transition {
	day := civilDate(today)
	award := BaseAward(workoutType)

	if !prev.Present() {
		next := model.EngagementProfile{}
		if prev != nil {
			next = *prev
		}
		next.Points = award
		next.Level = LevelFor(award).Level
		next.CurrentStreak = 1
		next.LongestStreak = 1
		next.TotalWorkouts = 1
		next.LastCheckinDate = &day
		return Transition{
			Next:       next,
			BaseAward:  award,
			Gap:        -1,
			Candidates: []string{AchievementFirstWorkout},
		}
	}

	next := *prev
	gap := 0
	if prev.LastCheckinDate != nil {
		gap = DayGap(*prev.LastCheckinDate, day)
	}

	var candidates []string
	switch {
	case prev.LastCheckinDate == nil:
		next.CurrentStreak = 1
	case gap <= 0:
		// 同日（または時計の巻き戻り）はストリークを変えない
	case gap == 1:
		next.CurrentStreak = prev.CurrentStreak + 1
		if next.CurrentStreak == weekStreak {
			candidates = append(candidates, AchievementWeekStreak)
		}
		if next.CurrentStreak == monthStreak {
			candidates = append(candidates, AchievementMonthStreak)
		}
	default:
		next.CurrentStreak = 1
	}

	next.Points = prev.Points + award
	next.Level = LevelFor(next.Points).Level
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.TotalWorkouts = prev.TotalWorkouts + 1
	if gap >= 0 {
		next.LastCheckinDate = &day
	}

	if next.TotalWorkouts >= 50 {
		candidates = append(candidates, AchievementWorkouts50)
	}
	if next.TotalWorkouts >= 100 {
		candidates = append(candidates, AchievementWorkouts100)
	}

	return Transition{Next: next, BaseAward: award, Gap: gap, Candidates: candidates}
}

// DayGap はfromからtoまでの暦日差を返す。
func DayGap(from, to time.Time) int {
	f := civilDate(from)
	t := civilDate(to)
	return int(t.Sub(f).Hours() / 24)
}

// civilDate は年月日のみを残した00:00 UTCの時刻を返す。
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CivilDateIn はtをlocでの暦日に変換する。
func CivilDateIn(t time.Time, loc *time.Location) time.Time {
	return civilDate(t.In(loc))
}
