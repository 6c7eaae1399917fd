// Package validation はサインアップ/サインイン入力の検証ルールを提供する。
// I/Oを持たない純粋な関数のみで構成する。
package validation

// Issue はフィールド単位の検証エラーを表す。
// Pathが空の場合はフォーム全体に対するエラーとして扱う。
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Issues は1回の検証で得られたIssueの順序付き集合。
type Issues []Issue

// Messages は指定フィールドのメッセージ一覧を返す。
func (is Issues) Messages(path string) []string {
	var msgs []string
	for _, i := range is {
		if i.Path == path {
			msgs = append(msgs, i.Message)
		}
	}
	return msgs
}

// Has は指定フィールドにIssueが存在するかを返す。
func (is Issues) Has(path string) bool {
	for _, i := range is {
		if i.Path == path {
			return true
		}
	}
	return false
}

// Reporter はビジネスルール違反をフィールドに紐づけて報告するコールバック。
// 入力検証と同じ経路でフォームに再表示させるために使う。
type Reporter interface {
	Report(path, message string)
}

// Collector はReporterの実装で、報告されたIssueを順に蓄積する。
type Collector struct {
	issues Issues
}

// Report はIssueを追加する。
func (c *Collector) Report(path, message string) {
	c.issues = append(c.issues, Issue{Path: path, Message: message})
}

// Issues は蓄積されたIssueを返す。
func (c *Collector) Issues() Issues {
	return c.issues
}

var _ Reporter = (*Collector)(nil)
