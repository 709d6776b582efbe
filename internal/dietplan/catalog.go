// Package dietplan はクラス種別ごとの食事プラン（静的カタログ）を提供する。
// カタログはプロセス起動時に埋め込みYAMLから1回だけ構築され、以降は不変。
package dietplan

import (
	_ "embed"
	"fmt"
	"sort"
	"time"

	"github.com/hitoshi/fit2fit/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// Entry は食事プランの1エントリを表す。
type Entry struct {
	ClassType model.ClassType
	Slot      string // 食事スロット名（Breakfast等）
	Meal      string // 食事内容
	Time      TimeOfDay
}

// Slot は全プランを通じた1つの発火時刻と、その時刻にエントリを持つクラス種別の組。
type Slot struct {
	Time       TimeOfDay
	ClassTypes []model.ClassType
}

// Catalog はクラス種別ごとの順序付き食事プラン。
type Catalog struct {
	plans map[model.ClassType][]Entry
}

type rawCatalog struct {
	Plans []struct {
		ClassType string `yaml:"class_type"`
		Meals     []struct {
			Slot string `yaml:"slot"`
			Meal string `yaml:"meal"`
			Time string `yaml:"time"`
		} `yaml:"meals"`
	} `yaml:"plans"`
}

// Default は埋め込みのplans.yamlからカタログを構築する。
func Default() (*Catalog, error) {
	return Load(defaultPlans)
}

// MustDefault はDefaultの失敗時にpanicする。埋め込みデータは静的なためテストとワイヤリングで使う。
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load はYAMLデータからカタログを構築する。
// 未知のクラス種別、時刻の形式不正、同一クラス種別内の時刻重複はエラーとなる。
func Load(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("diet plan catalog: %w", err)
	}

	c := &Catalog{plans: make(map[model.ClassType][]Entry)}
	for _, p := range raw.Plans {
		ct, err := model.ParseClassType(p.ClassType)
		if err != nil {
			return nil, fmt.Errorf("diet plan catalog: %w", err)
		}
		if _, dup := c.plans[ct]; dup {
			return nil, fmt.Errorf("diet plan catalog: class type %s defined twice", ct)
		}

		seen := make(map[TimeOfDay]string)
		entries := make([]Entry, 0, len(p.Meals))
		for _, m := range p.Meals {
			tod, err := ParseTimeOfDay(m.Time)
			if err != nil {
				return nil, fmt.Errorf("diet plan catalog: %s %s: %w", ct, m.Slot, err)
			}
			if prev, dup := seen[tod]; dup {
				return nil, fmt.Errorf("diet plan catalog: %s has %s and %s both at %s", ct, prev, m.Slot, tod)
			}
			seen[tod] = m.Slot
			entries = append(entries, Entry{ClassType: ct, Slot: m.Slot, Meal: m.Meal, Time: tod})
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time.Before(entries[j].Time) })
		c.plans[ct] = entries
	}

	return c, nil
}

// Plan はクラス種別の食事プランを時刻順で返す。
func (c *Catalog) Plan(ct model.ClassType) []Entry {
	entries := c.plans[ct]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup はクラス種別と時刻に一致するエントリを返す。
func (c *Catalog) Lookup(ct model.ClassType, t TimeOfDay) (Entry, bool) {
	for _, e := range c.plans[ct] {
		if e.Time == t {
			return e, true
		}
	}
	return Entry{}, false
}

// Slots は全プランに現れる異なる時刻ごとに1つのSlotを時刻順で返す。
// 同時刻に複数クラス種別のエントリがある場合は1つのSlotにまとめる。
func (c *Catalog) Slots() []Slot {
	byTime := make(map[TimeOfDay][]model.ClassType)
	for _, ct := range model.ClassTypes() {
		for _, e := range c.plans[ct] {
			byTime[e.Time] = append(byTime[e.Time], ct)
		}
	}

	slots := make([]Slot, 0, len(byTime))
	for t, cts := range byTime {
		slots = append(slots, Slot{Time: t, ClassTypes: cts})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time.Before(slots[j].Time) })
	return slots
}

// ClassTypesAt は時刻tにエントリを持つクラス種別を返す。
func (c *Catalog) ClassTypesAt(t TimeOfDay) []model.ClassType {
	var out []model.ClassType
	for _, ct := range model.ClassTypes() {
		if _, ok := c.Lookup(ct, t); ok {
			out = append(out, ct)
		}
	}
	return out
}

// NextEntry はnow（呼び出し側で基準タイムゾーンに変換済み）の時刻以降で最初のエントリを返す。
// その日の残りにエントリがなければ翌日最初のエントリに折り返す。
// プランが空の場合はfalseを返す。
func (c *Catalog) NextEntry(ct model.ClassType, now time.Time) (Entry, bool) {
	entries := c.plans[ct]
	if len(entries) == 0 {
		return Entry{}, false
	}
	current := At(now)
	for _, e := range entries {
		if !e.Time.Before(current) {
			return e, true
		}
	}
	return entries[0], true
}
