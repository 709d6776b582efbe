package dietplan

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay は基準タイムゾーンにおける時刻（時・分）を表す。
type TimeOfDay struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// ParseTimeOfDay は "7:00 AM" や "12:30 PM" 形式の文字列を解析する。
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(s)))
	if len(fields) != 2 || (fields[1] != "AM" && fields[1] != "PM") {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want H:MM AM|PM", s)
	}

	hh, mm, ok := strings.Cut(fields[0], ":")
	if !ok || len(mm) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want H:MM AM|PM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 1 || hour > 12 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}

	// 12 AM は 0時、12 PM は 12時
	hour %= 12
	if fields[1] == "PM" {
		hour += 12
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// At は時刻tの（tのロケーションにおける）時・分を返す。
func At(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// String は "7:00 AM" 形式で時刻を返す。
func (t TimeOfDay) String() string {
	suffix := "AM"
	if t.Hour >= 12 {
		suffix = "PM"
	}
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, suffix)
}

// CronSpec は毎日この時刻に発火する5フィールドのcron式を返す。
func (t TimeOfDay) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// Minutes は0時からの経過分を返す。
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before はtがuより前の時刻かどうかを返す。
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Minutes() < u.Minutes()
}
