package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// EmailConfig はSMTP送信の設定を保持する。
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// mailSender はSMTPクライアントの送信部分を抽象化する。テストで差し替える。
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier はSMTP経由でメールを送信するNotifier。
// Hostが未設定の場合は恒久的に無効化され、常に失敗のOutcomeを返す。
type EmailNotifier struct {
	cfg      EmailConfig
	sender   mailSender
	logger   *slog.Logger
	disabled string // 無効化理由。空なら有効
}

// NewEmailNotifier はEmailNotifierを生成する。
// 設定不備の場合はプロセスを停止せず、警告を1回だけログ出力して無効状態で返す。
func NewEmailNotifier(cfg EmailConfig, logger *slog.Logger) *EmailNotifier {
	if strings.TrimSpace(cfg.Host) == "" {
		logger.Warn("SMTPホストが未設定のため、メール通知を無効化します")
		return &EmailNotifier{cfg: cfg, logger: logger, disabled: "email not configured"}
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		logger.Warn("SMTPクライアントの生成に失敗したため、メール通知を無効化します",
			slog.String("error", err.Error()),
		)
		return &EmailNotifier{cfg: cfg, logger: logger, disabled: "email not configured"}
	}

	return newEmailNotifier(cfg, client, logger)
}

func newEmailNotifier(cfg EmailConfig, sender mailSender, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sender: sender, logger: logger}
}

// Channel はChannelEmailを返す。
func (n *EmailNotifier) Channel() Channel {
	return ChannelEmail
}

// Enabled は送信可能な状態かどうかを返す。
func (n *EmailNotifier) Enabled() bool {
	return n.disabled == ""
}

// Send はメールを1通送信する。DeliveryIDには生成したMessage-IDを設定する。
func (n *EmailNotifier) Send(ctx context.Context, to string, m Message) Outcome {
	if !n.Enabled() {
		return Failure(ChannelEmail, "%s", n.disabled)
	}
	if strings.TrimSpace(to) == "" {
		return Failure(ChannelEmail, "empty recipient address")
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return Failure(ChannelEmail, "invalid sender address: %v", err)
	}
	if err := msg.To(to); err != nil {
		return Failure(ChannelEmail, "invalid recipient address: %v", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	}
	msg.SetMessageID()
	msg.SetDate()

	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		n.logger.Warn("メールの送信に失敗しました",
			slog.String("to", to),
			slog.String("error", err.Error()),
		)
		return Failure(ChannelEmail, "%v", err)
	}

	var deliveryID string
	if ids := msg.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		deliveryID = ids[0]
	}
	n.logger.Info("メールを送信しました",
		slog.String("to", to),
		slog.String("message_id", deliveryID),
	)
	return Outcome{Channel: ChannelEmail, Success: true, DeliveryID: deliveryID}
}

var _ Notifier = (*EmailNotifier)(nil)
