package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort        string
	MetricsPort       string
	CORSAllowedOrigin string
	AppBaseURL        string // 通知本文に埋め込むリンクのベースURL

	// Mail (SMTP)
	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailFrom     string

	// Twilio (WhatsApp)
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string

	// Reminder
	ReminderLocation *time.Location
	NotifyTimeout    time.Duration
	ReminderInServe  bool // serveプロセス内でもスケジューラを動かす

	// 中止した目標の保持日数
	AbandonedGoalRetentionDays int

	// Rate Limit (req/min/client)
	RateLimitGeneral int
	RateLimitTrigger int

	// Engagement
	LeaderboardLimit int
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合、またはタイムゾーンが解決できない場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	tz := getEnvString("REMINDER_TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", tz, err)
	}
	cfg.ReminderLocation = loc

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	cfg.AppBaseURL = getEnvString("APP_BASE_URL", "http://localhost:5173/")

	cfg.MailHost = getEnvString("MAIL_HOST", "")
	cfg.MailPort = getEnvInt("MAIL_PORT", 587)
	cfg.MailUsername = getEnvString("MAIL_USERNAME", "")
	cfg.MailPassword = getEnvString("MAIL_PASSWORD", "")
	cfg.MailFrom = getEnvString("MAIL_FROM", `"Fit2Fit Gym" <noreply@fit2fit.com>`)

	cfg.TwilioAccountSID = getEnvString("TWILIO_ACCOUNT_SID", "")
	cfg.TwilioAuthToken = getEnvString("TWILIO_AUTH_TOKEN", "")
	cfg.TwilioWhatsAppNumber = getEnvString("TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886")

	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.ReminderInServe = getEnvBool("REMINDER_IN_SERVE", false)
	cfg.AbandonedGoalRetentionDays = getEnvInt("ABANDONED_GOAL_RETENTION_DAYS", 90)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitTrigger = getEnvInt("RATE_LIMIT_TRIGGER", 5)
	cfg.LeaderboardLimit = getEnvInt("LEADERBOARD_LIMIT", 10)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt は正の整数のみ受け付け、それ以外はデフォルト値を返す。
func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
