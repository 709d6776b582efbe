package notify

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizeWhatsAppNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+91 98765 43210", "whatsapp:+919876543210"},
		{"919876543210", "whatsapp:+919876543210"},
		{"(415) 555-0100", "whatsapp:+4155550100"},
		{"whatsapp:+14155238886", "whatsapp:+14155238886"},
		{"  ", ""},
		{"+", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeWhatsAppNumber(tt.in); got != tt.want {
				t.Errorf("NormalizeWhatsAppNumber(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func newTestWhatsAppNotifier(t *testing.T, handler http.HandlerFunc, buf *bytes.Buffer) *WhatsAppNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewWhatsAppNotifier(WhatsAppConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "whatsapp:+14155238886",
		Timeout:    2 * time.Second,
	}, srv.Client(), newTestLogger(buf))
	n.baseURL = srv.URL
	return n
}

func TestWhatsAppNotifier_Send_Success(t *testing.T) {
	var buf bytes.Buffer
	n := newTestWhatsAppNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("basic auth = %q/%q (%v)", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("To"); got != "whatsapp:+919876543210" {
			t.Errorf("To = %q", got)
		}
		if got := r.PostForm.Get("From"); got != "whatsapp:+14155238886" {
			t.Errorf("From = %q", got)
		}
		if got := r.PostForm.Get("Body"); got != "hello" {
			t.Errorf("Body = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM0001","status":"queued"}`))
	}, &buf)

	out := n.Send(context.Background(), "+91 98765-43210", Message{Text: "hello"})

	if !out.Success {
		t.Fatalf("Success = false, error = %q", out.Error)
	}
	if out.DeliveryID != "SM0001" {
		t.Errorf("DeliveryID = %q, want SM0001", out.DeliveryID)
	}
	if out.Channel != ChannelWhatsApp {
		t.Errorf("Channel = %q", out.Channel)
	}
}

func TestWhatsAppNotifier_Send_ProviderError(t *testing.T) {
	var buf bytes.Buffer
	n := newTestWhatsAppNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":63007,"message":"Twilio could not find a Channel with the specified From address"}`))
	}, &buf)

	out := n.Send(context.Background(), "+919876543210", Message{Text: "hello"})

	if out.Success {
		t.Fatal("Success should be false")
	}
	if !strings.Contains(out.Error, "400") || !strings.Contains(out.Error, "could not find a Channel") {
		t.Errorf("Error = %q", out.Error)
	}
}

func TestWhatsAppNotifier_Send_NetworkErrorBecomesFailure(t *testing.T) {
	var buf bytes.Buffer
	n := NewWhatsAppNotifier(WhatsAppConfig{AccountSID: "AC123", AuthToken: "secret"}, &http.Client{Timeout: time.Second}, newTestLogger(&buf))
	n.baseURL = "http://127.0.0.1:1"

	out := n.Send(context.Background(), "+919876543210", Message{Text: "hello"})
	if out.Success {
		t.Fatal("Success should be false")
	}
	if out.Error == "" {
		t.Error("Error should describe the transport failure")
	}
}

func TestWhatsAppNotifier_Send_EmptyDestination(t *testing.T) {
	var buf bytes.Buffer
	called := false
	n := newTestWhatsAppNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, &buf)

	out := n.Send(context.Background(), " - ", Message{Text: "hello"})
	if out.Success {
		t.Fatal("Success should be false")
	}
	if called {
		t.Error("provider must not be called for an empty destination")
	}
}

func TestNewWhatsAppNotifier_MissingCredentialsDisables(t *testing.T) {
	var buf bytes.Buffer
	n := NewWhatsAppNotifier(WhatsAppConfig{AccountSID: "AC123"}, http.DefaultClient, newTestLogger(&buf))

	if n.Enabled() {
		t.Fatal("notifier without token should be disabled")
	}
	if strings.Count(buf.String(), "WhatsApp通知を無効化します") != 1 {
		t.Errorf("expected exactly one warning, log = %s", buf.String())
	}

	out := n.Send(context.Background(), "+919876543210", Message{Text: "hello"})
	if out.Success || out.Error != "whatsapp not configured" {
		t.Errorf("Send = %+v", out)
	}
	if strings.Count(buf.String(), "WhatsApp通知を無効化します") != 1 {
		t.Error("sending while disabled must not log the warning again")
	}
}
