package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/fit2fit/internal/metrics"
	"github.com/hitoshi/fit2fit/internal/middleware"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusMetrics     middleware.StatusMetrics

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer

	// リマインダー
	ReminderService ReminderServiceInterface
	ReminderTrigger ReminderTriggerInterface
	DietPlanService DietPlanServiceInterface

	// エンゲージメント
	EngagementService EngagementServiceInterface

	// アナリティクス
	AnalyticsService AnalyticsServiceInterface

	// 会員
	MemberService MemberServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → SecurityHeaders → CORS → Logging → RateLimit(GeneralMiddleware)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusMetrics))

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	reminderHandler := NewReminderHandler(deps.ReminderService, deps.ReminderTrigger)
	dietPlanHandler := NewDietPlanHandler(deps.DietPlanService)
	engagementHandler := NewEngagementHandler(deps.EngagementService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)
	memberHandler := NewMemberHandler(deps.MemberService)

	// --- API ---
	// ミドルウェアスタック: RateLimit(General)
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 食事リマインダー（旧パスはSPA互換のエイリアス）
		r.Post("/subscribe", reminderHandler.Subscribe)
		r.Post("/subscribe-reminders", reminderHandler.Subscribe)
		r.Post("/unsubscribe", reminderHandler.Unsubscribe)
		r.Post("/unsubscribe-reminders", reminderHandler.Unsubscribe)
		r.Get("/reminder-status/{identity}/{classType}", reminderHandler.Status)
		// テスト送信は実際に通知を送るため専用のレート制限を追加
		r.With(deps.RateLimiter.TriggerMiddleware()).Post("/test-meal-reminder", reminderHandler.TriggerTest)

		r.Get("/diet-plans/{classType}", dietPlanHandler.GetPlan)

		// エンゲージメント
		r.Post("/checkin", engagementHandler.CheckIn)
		r.Get("/profile/{identity}", engagementHandler.Profile)
		r.Get("/achievements/{identity}", engagementHandler.Achievements)
		r.Get("/leaderboard", engagementHandler.Leaderboard)

		// アナリティクス
		r.Route("/analytics", func(r chi.Router) {
			r.Post("/workout", analyticsHandler.LogWorkout)
			r.Get("/workouts/{userID}", analyticsHandler.Workouts)
			r.Get("/stats/{userID}", analyticsHandler.Stats)
			r.Get("/heatmap/{userID}/{year}", analyticsHandler.Heatmap)
			r.Get("/report/{userID}/{period}", analyticsHandler.Report)
			r.Get("/exercises", analyticsHandler.Exercises)

			r.Post("/measurement", analyticsHandler.AddMeasurement)
			r.Get("/measurements/{userID}", analyticsHandler.Measurements)

			r.Post("/goal", analyticsHandler.CreateGoal)
			r.Get("/goals/{userID}", analyticsHandler.Goals)
			r.Put("/goal/{goalID}", analyticsHandler.UpdateGoal)
			r.Delete("/goal/{goalID}", analyticsHandler.DeleteGoal)
		})

		// 会員
		r.Post("/join", memberHandler.Join)
		r.Get("/members", memberHandler.Members)
		r.Post("/pay", memberHandler.Pay)
		r.Get("/transactions", memberHandler.Transactions)
	})

	return r
}

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// healthHandler はプロセスの生存とDB疎通を返すハンドラーを生成する。
// checkerがnilの場合はDB確認を省略する。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Database: "skipped"}
		status := http.StatusOK

		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Warn("health check: database ping failed", slog.String("error", err.Error()))
				resp = healthResponse{Status: "unavailable", Database: "unreachable"}
				status = http.StatusServiceUnavailable
			} else {
				resp.Database = "ok"
			}
		}

		writeJSON(w, status, resp)
	}
}
