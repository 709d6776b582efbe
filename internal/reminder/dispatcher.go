// Package reminder は食事リマインダーの配信と、その定時実行を提供する。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/fit2fit/internal/dietplan"
	"github.com/hitoshi/fit2fit/internal/model"
	"github.com/hitoshi/fit2fit/internal/notify"
	"github.com/hitoshi/fit2fit/internal/repository"
)

// Metrics はディスパッチャが記録するメトリクス。
type Metrics interface {
	RecordNotification(channel string, success bool)
	RecordFiring(duration time.Duration, subscribers int)
	RecordFiringAborted()
}

// SubscriberResult は購読者1人分の配信結果。Chatはチャット送信対象外の場合nil。
type SubscriberResult struct {
	Identity  string          `json:"identity"`
	ClassType model.ClassType `json:"class_type"`
	Slot      string          `json:"slot"`
	Meal      string          `json:"meal"`
	Time      string          `json:"time"`
	Email     notify.Outcome  `json:"email"`
	Chat      *notify.Outcome `json:"whatsapp,omitempty"`
}

// FiringReport は1回の発火の集計。
type FiringReport struct {
	Time        string             `json:"time"`
	Subscribers int                `json:"subscribers"`
	Skipped     int                `json:"skipped"`
	EmailSent   int                `json:"email_sent"`
	EmailFailed int                `json:"email_failed"`
	ChatSent    int                `json:"whatsapp_sent"`
	ChatFailed  int                `json:"whatsapp_failed"`
	Results     []SubscriberResult `json:"results"`
}

func (r *FiringReport) add(res SubscriberResult) {
	if res.Email.Success {
		r.EmailSent++
	} else {
		r.EmailFailed++
	}
	if res.Chat != nil {
		if res.Chat.Success {
			r.ChatSent++
		} else {
			r.ChatFailed++
		}
	}
	r.Results = append(r.Results, res)
}

// Dispatcher は食事リマインダーを購読者へ配信する。
// 購読者ごと、チャネルごとに失敗を分離し、1件の失敗が他の送信を妨げない。
type Dispatcher struct {
	repo      repository.ReminderRepository
	catalog   *dietplan.Catalog
	formatter *notify.Formatter
	email     notify.Notifier
	chat      notify.Notifier
	loc       *time.Location
	metrics   Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewDispatcher はDispatcherを生成する。metricsはnilでもよい。
func NewDispatcher(
	repo repository.ReminderRepository,
	catalog *dietplan.Catalog,
	formatter *notify.Formatter,
	email notify.Notifier,
	chat notify.Notifier,
	loc *time.Location,
	metrics Metrics,
	logger *slog.Logger,
) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		repo:      repo,
		catalog:   catalog,
		formatter: formatter,
		email:     email,
		chat:      chat,
		loc:       loc,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Fire は時刻tの発火を1回実行する。
// 購読者の取得に失敗した場合は発火全体を中断してエラーを返す。
// 再実行に対する冪等性はなく、呼び出すたびに送信する。
func (d *Dispatcher) Fire(ctx context.Context, t dietplan.TimeOfDay) (*FiringReport, error) {
	start := d.now()
	report := &FiringReport{Time: t.String(), Results: []SubscriberResult{}}

	classTypes := d.catalog.ClassTypesAt(t)
	if len(classTypes) == 0 {
		d.logger.Warn("この時刻の食事エントリがありません", slog.String("slot_time", t.String()))
		return report, nil
	}

	subs, err := d.repo.ListActive(ctx, classTypes)
	if err != nil {
		if d.metrics != nil {
			d.metrics.RecordFiringAborted()
		}
		d.logger.Error("購読者の取得に失敗したため発火を中断しました",
			slog.String("slot_time", t.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("有効な購読者の取得に失敗しました: %w", err)
	}

	d.logger.Info("食事リマインダーの発火を開始しました",
		slog.String("slot_time", t.String()),
		slog.Any("class_types", classTypes),
		slog.Int("subscribers", len(subs)),
	)

	for _, sub := range subs {
		entry, ok := d.catalog.Lookup(sub.ClassType, t)
		if !ok {
			report.Skipped++
			continue
		}
		report.Subscribers++
		report.add(d.deliver(ctx, sub, entry))
	}

	duration := d.now().Sub(start)
	if d.metrics != nil {
		d.metrics.RecordFiring(duration, report.Subscribers)
	}
	d.logger.Info("食事リマインダーの発火が完了しました",
		slog.String("slot_time", t.String()),
		slog.Int("subscribers", report.Subscribers),
		slog.Int("email_sent", report.EmailSent),
		slog.Int("email_failed", report.EmailFailed),
		slog.Int("whatsapp_sent", report.ChatSent),
		slog.Int("whatsapp_failed", report.ChatFailed),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)
	return report, nil
}

// TriggerFor は1人の購読者に対して次の食事のリマインダーを即時送信する。診断用。
func (d *Dispatcher) TriggerFor(ctx context.Context, identity string, classType model.ClassType) (*SubscriberResult, error) {
	sub, err := d.repo.FindActive(ctx, identity, classType)
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}
	if sub == nil {
		return nil, model.NewSubscriptionNotFoundError(identity, classType)
	}

	entry, ok := d.catalog.NextEntry(classType, d.now().In(d.loc))
	if !ok {
		return nil, model.NewNoUpcomingMealError(classType)
	}

	res := d.deliver(ctx, sub, entry)
	d.logger.Info("テスト用リマインダーを送信しました",
		slog.String("identity", identity),
		slog.String("class_type", string(classType)),
		slog.String("slot", entry.Slot),
		slog.Bool("email_success", res.Email.Success),
	)
	return &res, nil
}

// deliver は購読者1人にメールと（対象なら）チャットを送信する。
// フォーマッタや通知の失敗、panicはその購読者の結果として記録する。
func (d *Dispatcher) deliver(ctx context.Context, sub *model.ReminderSubscription, entry dietplan.Entry) (res SubscriberResult) {
	res = SubscriberResult{
		Identity:  sub.Identity,
		ClassType: sub.ClassType,
		Slot:      entry.Slot,
		Meal:      entry.Meal,
		Time:      entry.Time.String(),
		Email:     notify.Failure(notify.ChannelEmail, "not attempted"),
	}
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("購読者の処理中にpanicが発生しました",
				slog.String("identity", sub.Identity),
				slog.Any("panic", rec),
			)
			if res.Email.Error == "not attempted" {
				res.Email = notify.Failure(notify.ChannelEmail, "panic: %v", rec)
			} else if sub.ChatReachable() && res.Chat == nil {
				out := notify.Failure(notify.ChannelWhatsApp, "panic: %v", rec)
				res.Chat = &out
			}
		}
	}()

	ev := notify.MealEvent{
		Name:      sub.Name,
		Slot:      entry.Slot,
		Meal:      entry.Meal,
		Time:      entry.Time.String(),
		ClassType: sub.ClassType,
	}

	if msg, err := d.formatter.MealReminderEmail(ev); err != nil {
		res.Email = notify.Failure(notify.ChannelEmail, "failed to render message: %v", err)
	} else {
		res.Email = notify.SafeSend(ctx, d.email, sub.Identity, msg)
	}
	d.record(sub, res.Email)

	if sub.ChatReachable() {
		var out notify.Outcome
		if msg, err := d.formatter.MealReminderChat(ev); err != nil {
			out = notify.Failure(notify.ChannelWhatsApp, "failed to render message: %v", err)
		} else {
			out = notify.SafeSend(ctx, d.chat, sub.Phone, msg)
		}
		res.Chat = &out
		d.record(sub, out)
	}
	return res
}

func (d *Dispatcher) record(sub *model.ReminderSubscription, out notify.Outcome) {
	if d.metrics != nil {
		d.metrics.RecordNotification(string(out.Channel), out.Success)
	}
	if !out.Success {
		d.logger.Warn("リマインダーの送信に失敗しました",
			slog.String("identity", sub.Identity),
			slog.String("class_type", string(sub.ClassType)),
			slog.String("channel", string(out.Channel)),
			slog.String("error", out.Error),
		)
	}
}
