package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/fit2fit/internal/analytics"
	"github.com/hitoshi/fit2fit/internal/config"
	"github.com/hitoshi/fit2fit/internal/database"
	"github.com/hitoshi/fit2fit/internal/dietplan"
	"github.com/hitoshi/fit2fit/internal/engagement"
	"github.com/hitoshi/fit2fit/internal/handler"
	"github.com/hitoshi/fit2fit/internal/logger"
	"github.com/hitoshi/fit2fit/internal/member"
	"github.com/hitoshi/fit2fit/internal/metrics"
	"github.com/hitoshi/fit2fit/internal/middleware"
	"github.com/hitoshi/fit2fit/internal/notify"
	"github.com/hitoshi/fit2fit/internal/reminder"
	"github.com/hitoshi/fit2fit/internal/repository"
	"github.com/hitoshi/fit2fit/internal/security"
	"github.com/hitoshi/fit2fit/internal/subscription"
	"github.com/hitoshi/fit2fit/internal/worker/cleanup"
	"github.com/hitoshi/fit2fit/internal/worker/streak"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから、環境変数（と.env）からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	// fireの時刻は設定の読み込み前に検証する
	var fireAt dietplan.TimeOfDay
	if cmd == CommandFire {
		if fireAt, err = parseFireTime(args[1:]); err != nil {
			return err
		}
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("timezone", cfg.ReminderLocation.String()),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandFire:
		return runFire(cfg, w, fireAt)
	default:
		return runServe(cfg)
	}
}

// components はserveとworkerで共有するドメインコンポーネント一式。
type components struct {
	catalog      *dietplan.Catalog
	subscription *subscription.Service
	dispatcher   *reminder.Dispatcher
	ledger       *engagement.Ledger
	analytics    *analytics.Service
	members      *member.Service
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// newRegistry はGoランタイムとプロセスのコレクターを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// buildComponents はリポジトリ、通知チャネル、ドメインサービスを組み立てる。
func buildComponents(cfg *config.Config, db *sql.DB, collector *metrics.Collector) (*components, error) {
	base := slog.Default()

	// 1. 食事プランカタログ
	catalog, err := dietplan.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load diet plan catalog: %w", err)
	}

	// 2. リポジトリの初期化
	reminderRepo := repository.NewPostgresReminderRepo(db)
	engagementRepo := repository.NewPostgresEngagementRepo(db)
	workoutRepo := repository.NewPostgresWorkoutRepo(db)
	measurementRepo := repository.NewPostgresMeasurementRepo(db)
	goalRepo := repository.NewPostgresGoalRepo(db)
	exerciseRepo := repository.NewPostgresExerciseRepo(db)
	memberRepo := repository.NewPostgresMemberRepo(db)
	transactionRepo := repository.NewPostgresTransactionRepo(db)

	// 3. セキュリティサービスの初期化
	sanitizer := security.NewNameSanitizer()

	// 4. 通知チャネルの初期化（認証情報が欠けていれば無効化される）
	formatter := notify.NewFormatter(cfg.AppBaseURL)
	emailNotifier := notify.NewEmailNotifier(notify.EmailConfig{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
		Timeout:  cfg.NotifyTimeout,
	}, logger.With(base, "email"))
	chatNotifier := notify.NewWhatsAppNotifier(notify.WhatsAppConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppNumber,
		Timeout:    cfg.NotifyTimeout,
	}, &http.Client{Timeout: cfg.NotifyTimeout}, logger.With(base, "whatsapp"))

	// 5. ドメインサービスの初期化
	return &components{
		catalog: catalog,
		subscription: subscription.NewService(
			reminderRepo, sanitizer, formatter, emailNotifier, chatNotifier,
			logger.With(base, "subscription"),
		),
		dispatcher: reminder.NewDispatcher(
			reminderRepo, catalog, formatter, emailNotifier, chatNotifier,
			cfg.ReminderLocation, collector, logger.With(base, "dispatcher"),
		),
		ledger: engagement.NewLedger(engagementRepo, sanitizer, engagement.Config{
			Location:         cfg.ReminderLocation,
			LeaderboardLimit: cfg.LeaderboardLimit,
		}, collector, logger.With(base, "engagement")),
		analytics: analytics.NewService(
			workoutRepo, measurementRepo, goalRepo, exerciseRepo,
			cfg.ReminderLocation, logger.With(base, "analytics"),
		),
		members: member.NewService(memberRepo, transactionRepo, sanitizer, logger.With(base, "member")),
	}, nil
}

// newScheduler はリマインダーの各時刻と日次ジョブ（ストリーク失効、解除済み購読の削除）を
// 登録したスケジューラを返す。
func newScheduler(cfg *config.Config, db *sql.DB, c *components, collector *metrics.Collector) (*reminder.Scheduler, error) {
	base := slog.Default()

	scheduler, err := reminder.NewScheduler(c.catalog, c.dispatcher, cfg.ReminderLocation, logger.With(base, "scheduler"))
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder scheduler: %w", err)
	}

	expiry := streak.NewExpiryJob(db, cfg.ReminderLocation, collector, logger.With(base, "streak"))
	if err := scheduler.AddDaily(streak.DefaultSchedule, "streak-expiry", expiry.Run); err != nil {
		return nil, fmt.Errorf("failed to register streak expiry job: %w", err)
	}

	purge := cleanup.NewCleanupJob(db, cfg.AbandonedGoalRetentionDays, logger.With(base, "cleanup"))
	if err := scheduler.AddDaily(cleanup.DefaultSchedule, "abandoned-goal-cleanup", purge.Run); err != nil {
		return nil, fmt.Errorf("failed to register cleanup job: %w", err)
	}

	return scheduler, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクス
	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	// 3. ドメインコンポーネント
	c, err := buildComponents(cfg, db, collector)
	if err != nil {
		return err
	}

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitTrigger),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            logger.With(slog.Default(), "http"),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StatusMetrics:     collector,
		HealthChecker:     db,
		Gatherer:          reg,

		ReminderService: c.subscription,
		ReminderTrigger: handler.NewReminderTriggerAdapter(c.dispatcher),
		DietPlanService: handler.NewDietPlanAdapter(c.catalog),

		EngagementService: c.ledger,
		AnalyticsService:  c.analytics,
		MemberService:     c.members,
	}

	router := handler.NewRouter(deps)

	// 5. 同一プロセスでのスケジューラ起動（任意）
	var scheduler *reminder.Scheduler
	if cfg.ReminderInServe {
		scheduler, err = newScheduler(cfg, db, c, collector)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Bool("reminder_in_serve", cfg.ReminderInServe),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if scheduler != nil {
		waitScheduler(ctx, scheduler)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 食事リマインダーのスケジューラとストリーク失効ジョブを動かし、
// METRICS_PORTで/metricsを公開する。
// SIGINTまたはSIGTERMシグナルを受信すると実行中のジョブの完了を待って終了する。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクス
	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	// 3. ドメインコンポーネントとスケジューラ
	c, err := buildComponents(cfg, db, collector)
	if err != nil {
		return err
	}
	scheduler, err := newScheduler(cfg, db, c, collector)
	if err != nil {
		return err
	}

	// 4. メトリクス専用サーバー
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.SetupMetricsRoute(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics server starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	scheduler.Start()
	slog.Info("worker started")

	<-stop
	slog.Info("shutting down worker...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	waitScheduler(ctx, scheduler)
	if err := metricsServer.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runFire は指定時刻の食事リマインダーを1回発火し、集計をJSONでwに書き出す。
// カタログにない時刻は購読者を参照せずにエラーにする。
func runFire(cfg *config.Config, w io.Writer, at dietplan.TimeOfDay) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := buildComponents(cfg, db, metrics.NewCollector(newRegistry()))
	if err != nil {
		return err
	}
	if len(c.catalog.ClassTypesAt(at)) == 0 {
		return fmt.Errorf("no meal is scheduled at %s", at)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := c.dispatcher.Fire(ctx, at)
	if err != nil {
		return fmt.Errorf("firing %s failed: %w", at, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// waitScheduler はスケジューラを止め、実行中のジョブが終わるかctxが切れるまで待つ。
func waitScheduler(ctx context.Context, scheduler *reminder.Scheduler) {
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		slog.Warn("scheduler did not stop before timeout")
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
