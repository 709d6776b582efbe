package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hitoshi/fit2fit/internal/dietplan"
)

// Firer は時刻を指定してリマインダーを発火させる。*Dispatcherが実装する。
type Firer interface {
	Fire(ctx context.Context, t dietplan.TimeOfDay) (*FiringReport, error)
}

// Scheduler はカタログの各時刻にcronエントリを1つずつ登録し、基準タイムゾーンで発火させる。
type Scheduler struct {
	cron   *cron.Cron
	firer  Firer
	logger *slog.Logger
	specs  []string
}

// NewScheduler はカタログの全スロットを登録したSchedulerを生成する。
func NewScheduler(catalog *dietplan.Catalog, firer Firer, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:   newCron(loc, logger),
		firer:  firer,
		logger: logger,
	}

	for _, slot := range catalog.Slots() {
		t := slot.Time
		if err := s.add(t.CronSpec(), func() {
			// 実行中の発火はキャンセルせず最後まで処理する
			if _, err := s.firer.Fire(context.Background(), t); err != nil {
				s.logger.Error("スケジュールされた発火が失敗しました",
					slog.String("slot_time", t.String()),
					slog.String("error", err.Error()),
				)
			}
		}); err != nil {
			return nil, fmt.Errorf("スロット %s の登録に失敗しました: %w", t, err)
		}
	}

	logger.Info("食事リマインダーのスケジュールを登録しました",
		slog.Int("slots", len(s.specs)),
		slog.String("timezone", loc.String()),
	)
	return s, nil
}

func newCron(loc *time.Location, logger *slog.Logger) *cron.Cron {
	cl := cronLogger{logger: logger}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

func (s *Scheduler) add(spec string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return err
	}
	s.specs = append(s.specs, spec)
	return nil
}

// AddDaily は任意の定時ジョブを追加する。specは5フィールドのcron式。
func (s *Scheduler) AddDaily(spec, name string, fn func(ctx context.Context) error) error {
	err := s.add(spec, func() {
		if err := fn(context.Background()); err != nil {
			s.logger.Error("定時ジョブが失敗しました",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("ジョブ %s の登録に失敗しました: %w", name, err)
	}
	return nil
}

// Specs は登録済みのcron式を登録順で返す。
func (s *Scheduler) Specs() []string {
	out := make([]string, len(s.specs))
	copy(out, s.specs)
	return out
}

// Start はスケジューラを開始する。呼び出しはブロックしない。
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("リマインダースケジューラを開始しました")
}

// Stop は新たな発火を止め、実行中のジョブが完了すると完了するコンテキストを返す。
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.logger.Info("リマインダースケジューラを停止しました")
	return ctx
}

// cronLogger はcron.Loggerをslogに接続する。
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}

var _ cron.Logger = cronLogger{}
