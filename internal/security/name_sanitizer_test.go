package security

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestNameSanitizer_Sanitize は表示名の正規化を検証する。
func TestNameSanitizer_Sanitize(t *testing.T) {
	sanitizer := NewNameSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "通常の名前はそのまま", input: "Asha", want: "Asha"},
		{name: "前後の空白を除去", input: "  Asha Rao  ", want: "Asha Rao"},
		{name: "連続空白を1つにまとめる", input: "Asha \t\n Rao", want: "Asha Rao"},
		{name: "タグを除去", input: "<b>Asha</b>", want: "Asha"},
		{name: "scriptは中身ごと除去", input: "<script>alert(1)</script>Asha", want: "Asha"},
		{name: "アンパサンドは平文のまま", input: "Tom & Jerry", want: "Tom & Jerry"},
		{name: "エスケープ済みタグも残さない", input: "&lt;img src=x&gt;Ravi", want: "img src=xRavi"},
		{name: "日本語の名前", input: "山田 太郎", want: "山田 太郎"},
		{name: "空文字列", input: "", want: ""},
		{name: "空白のみ", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestNameSanitizer_Truncates は最大長を超える名前が切り詰められることを検証する。
func TestNameSanitizer_Truncates(t *testing.T) {
	sanitizer := NewNameSanitizer()

	got := sanitizer.Sanitize(strings.Repeat("あ", MaxNameLength+20))
	if n := utf8.RuneCountInString(got); n != MaxNameLength {
		t.Errorf("rune count = %d, want %d", n, MaxNameLength)
	}
}

// TestNameSanitizer_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestNameSanitizer_Idempotent(t *testing.T) {
	sanitizer := NewNameSanitizer()

	for _, input := range []string{"<i>Asha</i> & co", "Ravi", "  x  y "} {
		once := sanitizer.Sanitize(input)
		twice := sanitizer.Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q -> %q", input, once, twice)
		}
	}
}
