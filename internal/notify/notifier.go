// Package notify は通知メッセージの整形と、チャネルごとの送信（メール、WhatsApp）を提供する。
//
// Notifierは送信結果を常にOutcomeとして返し、エラーやpanicを呼び出し元へ伝播させない。
package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Channel は通知チャネルを表す。
type Channel string

const (
	// ChannelEmail はメールチャネル。
	ChannelEmail Channel = "email"
	// ChannelWhatsApp はWhatsAppチャネル。
	ChannelWhatsApp Channel = "whatsapp"
)

// Message はチャネルに送信する整形済みメッセージ。
// チャットチャネルはTextのみを使用する。
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Outcome は1回の送信結果を表す。
type Outcome struct {
	Channel    Channel `json:"channel"`
	Success    bool    `json:"success"`
	DeliveryID string  `json:"delivery_id,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Notifier は1つのチャネルで1人の宛先にメッセージを送信する。
type Notifier interface {
	// Channel は送信チャネルを返す。
	Channel() Channel
	// Send はメッセージを送信し結果を返す。エラーはOutcomeに変換され、panicしない。
	Send(ctx context.Context, to string, msg Message) Outcome
}

// Failure は失敗のOutcomeを生成する。
func Failure(ch Channel, format string, args ...any) Outcome {
	return Outcome{Channel: ch, Success: false, Error: fmt.Sprintf(format, args...)}
}

// SafeSend はNotifier.Sendを呼び出し、実装がpanicした場合も失敗のOutcomeに変換する。
func SafeSend(ctx context.Context, n Notifier, to string, msg Message) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("通知処理でpanicが発生したため回復しました",
				slog.String("channel", string(n.Channel())),
				slog.Any("panic", rec),
			)
			out = Failure(n.Channel(), "notifier panic: %v", rec)
		}
	}()
	return n.Send(ctx, to, msg)
}
