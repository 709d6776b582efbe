package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnv はログレベルを指定する環境変数名。
const LevelEnv = "LOG_LEVEL"

// ParseLevel はdebug/info/warn/errorの文字列をslog.Levelに変換する。
// 大文字小文字は区別せず、解釈できない値はInfoとして扱う。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// wがnilの場合はos.Stdoutに出力する。レベルはLOG_LEVELから決める。
func SetupDefault(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, ParseLevel(os.Getenv(LevelEnv)))
	slog.SetDefault(logger)
	return logger
}

// With はコンポーネント名を付与した子ロガーを返す。
func With(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", component))
}
