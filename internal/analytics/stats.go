package analytics

import (
	"sort"
	"time"
)

// dayNames は曜日名（time.Weekdayの順）。
var dayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// civilDay は時刻を暦日（00:00 UTC）に丸める。
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// distinctDays は重複を除いた暦日を降順で返す。
func distinctDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := civilDay(d)
		if seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}

// dateStreaks はワークアウト日の集合から現在と最長の連続日数を求める。
// 現在の連続は最新の日がtodayまたは前日の場合のみ数える。
func dateStreaks(dates []time.Time, today time.Time) (current, longest int) {
	days := distinctDays(dates)
	if len(days) == 0 {
		return 0, 0
	}
	today = civilDay(today)

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	gap := today.Sub(days[0])
	if gap != 0 && gap != 24*time.Hour {
		return 0, longest
	}
	current = 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		current++
	}
	return current, longest
}

// periodRange は基準日todayを含む月または年の [from, to) を返す。
func periodRange(period string, today time.Time) (from, to time.Time, ok bool) {
	today = civilDay(today)
	switch period {
	case PeriodMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	case PeriodYear:
		from = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0), true
	}
	return time.Time{}, time.Time{}, false
}

// mostActiveDay は最もワークアウトの多い曜日名を返す。同数の場合は週の早い曜日を優先する。
func mostActiveDay(dates []time.Time) string {
	if len(dates) == 0 {
		return "N/A"
	}
	var counts [7]int
	for _, d := range dates {
		counts[d.Weekday()]++
	}
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return dayNames[best]
}
