package handler

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/hitoshi/personality/internal/security"
	"github.com/hitoshi/personality/internal/validation"
)

// maxInputBytes はフォーム/JSON入力の最大サイズ。
const maxInputBytes = 64 << 10

// jsonInput はJSONオブジェクトをvalidation.Inputとして扱う。
// 文字列はそのまま保持する。真偽値はrememberMeに限り"true"/"false"として受け付け、
// それ以外の型の値は型不一致として記録する。
type jsonInput struct {
	values     map[string]string
	mismatched map[string]bool
}

// Get はキーに対応する値を返す。存在しない場合は空文字列を返す。
func (in jsonInput) Get(key string) string {
	return in.values[key]
}

// Mismatched はキーの値が期待する型でなかったかを返す。
func (in jsonInput) Mismatched(key string) bool {
	return in.mismatched[key]
}

// sanitizedNameInput はnameの値をサニタイズしてから返す。
// タグや空白だけの表示名を必須チェックで弾くため、検証の前に適用する。
type sanitizedNameInput struct {
	validation.Input
	sanitizer security.NameSanitizer
}

// Get はnameの場合のみサニタイズ済みの値を返す。
func (in sanitizedNameInput) Get(key string) string {
	v := in.Input.Get(key)
	if key == validation.FieldName {
		return in.sanitizer.Sanitize(v)
	}
	return v
}

// Mismatched は元の入力がTypedInputであればその結果を返す。
func (in sanitizedNameInput) Mismatched(key string) bool {
	typed, ok := in.Input.(validation.TypedInput)
	return ok && typed.Mismatched(key)
}

// parseInput はリクエストボディをフォームまたはJSONとして読み取る。
// Content-Typeがapplication/jsonの場合のみJSONとして扱う。
func parseInput(w http.ResponseWriter, r *http.Request) (validation.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxInputBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		return r.PostForm, nil
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode json body: %w", err)
	}

	in := jsonInput{
		values:     make(map[string]string, len(raw)),
		mismatched: make(map[string]bool),
	}
	for key, value := range raw {
		// nullは空文字列として扱う
		var str string
		if err := json.Unmarshal(value, &str); err == nil {
			in.values[key] = str
			continue
		}
		var b bool
		if key == validation.FieldRememberMe && json.Unmarshal(value, &b) == nil {
			in.values[key] = strconv.FormatBool(b)
			continue
		}
		in.mismatched[key] = true
	}
	return in, nil
}

var (
	_ validation.TypedInput = jsonInput{}
	_ validation.TypedInput = sanitizedNameInput{}
)
