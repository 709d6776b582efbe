// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// リマインダー配信、エンゲージメント台帳、ワーカーから利用する。
type MetricsCollector interface {
	RecordNotification(channel string, success bool)
	RecordFiring(duration time.Duration, subscribers int)
	RecordFiringAborted()
	RecordCheckIn(workoutType string)
	RecordAchievementUnlocked(achievementID string)
	RecordStreaksExpired(count int64)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	notifications        *prometheus.CounterVec
	firingDuration       prometheus.Histogram
	firingSubscribers    prometheus.Histogram
	firingsAborted       prometheus.Counter
	checkIns             *prometheus.CounterVec
	achievementsUnlocked *prometheus.CounterVec
	streaksExpired       prometheus.Counter
	httpStatus           *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fit2fit_notifications_total",
			Help: "チャネル別・結果別の通知送信数",
		}, []string{"channel", "result"}),
		firingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fit2fit_reminder_firing_duration_seconds",
			Help:    "食事リマインダー1回の発火に要した時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		firingSubscribers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fit2fit_reminder_firing_subscribers",
			Help:    "食事リマインダー1回の発火で処理した購読者数",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		firingsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fit2fit_reminder_firings_aborted_total",
			Help: "購読者の取得失敗で中断した発火の数",
		}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fit2fit_checkins_total",
			Help: "ワークアウト種別ごとのチェックイン数",
		}, []string{"workout_type"}),
		achievementsUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fit2fit_achievements_unlocked_total",
			Help: "実績ごとの解除数",
		}, []string{"achievement"}),
		streaksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fit2fit_streaks_expired_total",
			Help: "日次ジョブでリセットしたストリークの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fit2fit_http_responses_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.notifications,
		c.firingDuration,
		c.firingSubscribers,
		c.firingsAborted,
		c.checkIns,
		c.achievementsUnlocked,
		c.streaksExpired,
		c.httpStatus,
	)

	return c
}

// RecordNotification は通知1件の送信結果を記録する。
func (c *Collector) RecordNotification(channel string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.notifications.WithLabelValues(channel, result).Inc()
}

// RecordFiring は完了した発火の所要時間と購読者数を記録する。
func (c *Collector) RecordFiring(duration time.Duration, subscribers int) {
	c.firingDuration.Observe(duration.Seconds())
	c.firingSubscribers.Observe(float64(subscribers))
}

// RecordFiringAborted は中断した発火を記録する。
func (c *Collector) RecordFiringAborted() {
	c.firingsAborted.Inc()
}

// RecordCheckIn はチェックインを記録する。
func (c *Collector) RecordCheckIn(workoutType string) {
	c.checkIns.WithLabelValues(workoutType).Inc()
}

// RecordAchievementUnlocked は実績の新規解除を記録する。
func (c *Collector) RecordAchievementUnlocked(achievementID string) {
	c.achievementsUnlocked.WithLabelValues(achievementID).Inc()
}

// RecordStreaksExpired はリセットしたストリーク数を記録する。
func (c *Collector) RecordStreaksExpired(count int64) {
	c.streaksExpired.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// ワーカーモードのメトリクス専用サーバーで使用する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var _ MetricsCollector = (*Collector)(nil)
