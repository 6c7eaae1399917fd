// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizer はユーザーが入力した表示名からHTMLマークアップを取り除く。
// 表示名はJSONやテンプレート側でエスケープされるため、
// 保存する値はタグを除いたプレーンテキストとする。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NameSanitizer は表示名のサニタイズ機能のインターフェースを定義する。
type NameSanitizer interface {
	// Sanitize は表示名から全てのHTMLタグを除去したプレーンテキストを返す。
	// 前後の空白は取り除く。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(name string) string
}

// nameSanitizer はNameSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので共有できる。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はタグを一切許可しないStrictPolicyでNameSanitizerを生成する。
func NewNameSanitizer() NameSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示名から全てのHTMLタグを除去する。
// bluemondayが出力するエンティティはプレーンテキストに戻す。
func (s *nameSanitizer) Sanitize(name string) string {
	stripped := s.policy.Sanitize(name)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
