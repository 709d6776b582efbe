package app

import (
	"fmt"
	"strings"

	"github.com/hitoshi/fit2fit/internal/dietplan"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はリマインダースケジューラと日次ジョブを動かすワーカーモード。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandFire は指定時刻の食事リマインダーを1回だけ発火する管理用コマンド。
	// 重複送信の防止はないため、動作確認や送信漏れの再送に限って使う。
	CommandFire Command = "fire"
)

// Usage はサブコマンドの一覧。
const Usage = "usage: fit2fit [serve | worker | migrate | healthcheck | fire <time, e.g. \"7:00 AM\">]"

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空の場合はCommandServeを返す。サポート外のコマンドはエラーにする。
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return CommandServe, nil
	}

	switch cmd := Command(args[0]); cmd {
	case CommandServe, CommandWorker, CommandMigrate, CommandHealthcheck, CommandFire:
		return cmd, nil
	default:
		return "", fmt.Errorf("unknown command %q\n%s", args[0], Usage)
	}
}

// parseFireTime はfireサブコマンドの残り引数を発火時刻として解析する。
// "7:00 AM" のように空白を含む時刻は、引用符なしで複数引数に分かれていても受け付ける。
func parseFireTime(args []string) (dietplan.TimeOfDay, error) {
	raw := strings.TrimSpace(strings.Join(args, " "))
	if raw == "" {
		return dietplan.TimeOfDay{}, fmt.Errorf("fire requires a time\n%s", Usage)
	}
	t, err := dietplan.ParseTimeOfDay(raw)
	if err != nil {
		return dietplan.TimeOfDay{}, fmt.Errorf("invalid fire time %q: %w", raw, err)
	}
	return t, nil
}
