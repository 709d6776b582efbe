package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// defaultTwilioBaseURL はTwilio REST APIのベースURL。
	defaultTwilioBaseURL = "https://api.twilio.com"
	// maxResponseBytes はAPIレスポンスの読み取り上限。
	maxResponseBytes = 64 << 10
)

// WhatsAppConfig はTwilio WhatsApp送信の設定を保持する。
type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	From       string // 例: whatsapp:+14155238886
	Timeout    time.Duration
}

// WhatsAppNotifier はTwilio Messages APIでWhatsAppメッセージを送信するNotifier。
// 認証情報が欠けている場合は恒久的に無効化され、常に失敗のOutcomeを返す。
type WhatsAppNotifier struct {
	cfg        WhatsAppConfig
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用に差し替え可能
	disabled   bool
}

// NewWhatsAppNotifier はWhatsAppNotifierを生成する。
// 認証情報が未設定の場合は警告を1回だけログ出力し、無効状態で返す。
func NewWhatsAppNotifier(cfg WhatsAppConfig, httpClient *http.Client, logger *slog.Logger) *WhatsAppNotifier {
	n := &WhatsAppNotifier{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		baseURL:    defaultTwilioBaseURL,
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		n.disabled = true
		logger.Warn("Twilioの認証情報が未設定のため、WhatsApp通知を無効化します")
	}
	return n
}

// Channel はChannelWhatsAppを返す。
func (n *WhatsAppNotifier) Channel() Channel {
	return ChannelWhatsApp
}

// Enabled は送信可能な状態かどうかを返す。
func (n *WhatsAppNotifier) Enabled() bool {
	return !n.disabled
}

// NormalizeWhatsAppNumber は電話番号から空白・ハイフン・括弧を除去し、
// 先頭に+を補ったうえで "whatsapp:" プレフィックスを付与する。
// 番号部分が空の場合は空文字列を返す。
func NormalizeWhatsAppNumber(phone string) string {
	cleaned := strings.TrimPrefix(strings.TrimSpace(phone), "whatsapp:")
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, cleaned)
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return ""
	}
	return "whatsapp:+" + cleaned
}

// twilioMessageResponse はMessages APIのレスポンスのうち使用する項目。
type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send はWhatsAppメッセージを1通送信する。DeliveryIDにはメッセージSIDを設定する。
func (n *WhatsAppNotifier) Send(ctx context.Context, to string, m Message) Outcome {
	if n.disabled {
		return Failure(ChannelWhatsApp, "whatsapp not configured")
	}

	dest := NormalizeWhatsAppNumber(to)
	if dest == "" {
		return Failure(ChannelWhatsApp, "empty destination number")
	}

	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.baseURL, url.PathEscape(n.cfg.AccountSID))
	form := url.Values{}
	form.Set("To", dest)
	form.Set("From", n.cfg.From)
	form.Set("Body", m.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Failure(ChannelWhatsApp, "failed to build request: %v", err)
	}
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("WhatsApp APIの呼び出しに失敗しました",
			slog.String("to", dest),
			slog.String("error", err.Error()),
		)
		return Failure(ChannelWhatsApp, "%v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Failure(ChannelWhatsApp, "failed to read response: %v", err)
	}

	var parsed twilioMessageResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		if decodeErr == nil && parsed.Message != "" {
			reason = fmt.Sprintf("%s: %s", reason, parsed.Message)
		}
		n.logger.Warn("WhatsApp APIがエラーステータスを返しました",
			slog.String("to", dest),
			slog.Int("http_status", resp.StatusCode),
			slog.Int("provider_code", parsed.Code),
		)
		return Failure(ChannelWhatsApp, "%s", reason)
	}
	if decodeErr != nil {
		return Failure(ChannelWhatsApp, "failed to parse response: %v", decodeErr)
	}

	n.logger.Info("WhatsAppメッセージを送信しました",
		slog.String("to", dest),
		slog.String("sid", parsed.SID),
	)
	return Outcome{Channel: ChannelWhatsApp, Success: true, DeliveryID: parsed.SID}
}

var _ Notifier = (*WhatsAppNotifier)(nil)
