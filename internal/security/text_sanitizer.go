package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses はエンティティの多重エンコードを展開する最大回数。
const maxSanitizePasses = 4

// TextSanitizer は表示用のプレーンテキストからHTMLタグを除去する。
// 名前や書籍タイトルはHTMLとして描画されることを想定しないため、
// 全タグを除去したうえでエスケープを戻し、元の文字（&や'）を保持する。
// エスケープを戻した結果がタグになる場合（&lt;script&gt;など）も除去する。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyを使用するTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去し、前後の空白を取り除いた文字列を返す。
// 除去とアンエスケープを結果が変わらなくなるまで繰り返す。
func (s *TextSanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	out := text
	for range maxSanitizePasses {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// 収束しない入力はエスケープ済みの形で返し、タグを復元しない
	return strings.TrimSpace(s.policy.Sanitize(out))
}

// SanitizePtr はnilを維持したままSanitizeを適用する。
func (s *TextSanitizer) SanitizePtr(text *string) *string {
	if text == nil {
		return nil
	}
	sanitized := s.Sanitize(*text)
	return &sanitized
}
