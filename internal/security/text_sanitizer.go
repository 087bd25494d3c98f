package security

import (
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// TextSanitizerService は自由記述の回答に含まれるマークアップを扱うインターフェースを定義する。
type TextSanitizerService interface {
	// Sanitize はタグを全て除去し、エンティティを復元したプレーンテキストを返す。
	// script, styleタグは内容ごと除去される。
	Sanitize(text string) string
	// HasMarkup はSanitizeによって内容が変わる文字列かどうかを返す。
	HasMarkup(text string) bool
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフなため、1インスタンスを共有してよい。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// 全てのタグを拒否するStrictPolicyを使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去したプレーンテキストを返す。
// bluemondayはテキストをHTMLエスケープして出力するため、元の文字へ戻す。
func (s *textSanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	return html.UnescapeString(s.policy.Sanitize(text))
}

// HasMarkup は入力を変更せずに、HTMLとして解釈される部分を含むかを判定する。
func (s *textSanitizer) HasMarkup(text string) bool {
	return s.Sanitize(text) != text
}
