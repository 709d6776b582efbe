// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizer は利用者が入力した表示名からHTMLを取り除き、
// メール本文やチャットメッセージへ埋め込める平文に正規化する。
// bluemondayのStrictPolicyでタグを全て除去したうえで、
// 実体参照を元の文字に戻す（テンプレート側で改めてエスケープされるため）。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxNameLength は表示名の最大文字数（rune数）。
const MaxNameLength = 100

// NameSanitizerService は表示名のサニタイズ機能のインターフェースを定義する。
type NameSanitizerService interface {
	// Sanitize はタグを含まない、前後空白と連続空白を除いた表示名を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// nameSanitizer はNameSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフであり、複数goroutineから共有できる。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerServiceの新しいインスタンスを生成する。
func NewNameSanitizer() *nameSanitizer {
	return &nameSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize は表示名をサニタイズする。
func (s *nameSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	// エスケープ済みの山括弧は実体参照の復元で再び現れるため個別に除く
	stripped = strings.NewReplacer("<", "", ">", "").Replace(stripped)
	cleaned := strings.Join(strings.Fields(stripped), " ")

	if utf8.RuneCountInString(cleaned) > MaxNameLength {
		cleaned = strings.TrimSpace(string([]rune(cleaned)[:MaxNameLength]))
	}
	return cleaned
}

var _ NameSanitizerService = (*nameSanitizer)(nil)
