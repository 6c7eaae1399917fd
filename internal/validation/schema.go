package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// フィールド名。フォームのname属性およびIssue.Pathと一致する。
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldRememberMe      = "rememberMe"
)

// 検証メッセージ
const (
	MsgNameRequired        = "Name is required"
	MsgInvalidEmail        = "Invalid email address"
	MsgPasswordTooShort    = "Password must be at least 8 characters"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
	MsgConfirmPassword     = "Please confirm your password"
	MsgPasswordsDoNotMatch = "Passwords do not match"
	MsgPasswordRequired    = "Password is required"
	MsgInvalidRememberMe   = "Invalid input: expected boolean"
	MsgExpectedString      = "Invalid input: expected string"
)

const (
	minPasswordLength = 8

	// maxPasswordBytes はbcryptが扱えるパスワードの最大バイト長。
	maxPasswordBytes = 72
)

// emailLocalDomain はメールアドレスの形式を検証する。
// 先頭のドットと連続するドットは別途isEmailで弾く。
var emailLocalDomain = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)

// Input は生のキー/値入力。url.Valuesがそのまま満たす。
type Input interface {
	Get(key string) string
}

// TypedInput は値の型を保持する入力（JSONなど）が実装する。
// Mismatchedがtrueのフィールドは文字列として検証せず型エラーを報告する。
type TypedInput interface {
	Input
	Mismatched(key string) bool
}

// SignUpCommand は検証済みのサインアップ入力。
type SignUpCommand struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// SignInCommand は検証済みのサインイン入力。
type SignInCommand struct {
	Email    string
	Password string
	Remember bool
}

// fieldRule は単一フィールドに対する宣言的な検証ルール。
// 同じフィールドに複数のルールがある場合、最初に失敗したものだけを報告する。
type fieldRule struct {
	field   string
	valid   func(string) bool
	message string

	// typeMessage は型不一致時のメッセージ。空ならMsgExpectedString。
	typeMessage string
}

var signUpRules = []fieldRule{
	{field: FieldName, valid: nonEmpty, message: MsgNameRequired},
	{field: FieldEmail, valid: isEmail, message: MsgInvalidEmail},
	{field: FieldPassword, valid: minLength(minPasswordLength), message: MsgPasswordTooShort},
	{field: FieldPassword, valid: maxBytes(maxPasswordBytes), message: MsgPasswordTooLong},
	{field: FieldConfirmPassword, valid: nonEmpty, message: MsgConfirmPassword},
}

var signInRules = []fieldRule{
	{field: FieldEmail, valid: isEmail, message: MsgInvalidEmail},
	{field: FieldPassword, valid: nonEmpty, message: MsgPasswordRequired},
	{field: FieldRememberMe, valid: isOptionalBool, message: MsgInvalidRememberMe, typeMessage: MsgInvalidRememberMe},
}

// ParseSignUp はサインアップ入力を検証する。
// 全フィールドのIssueをまとめて返し、途中で打ち切らない。
// パスワード一致チェックはpasswordとconfirmPasswordの双方が個別に妥当な場合のみ行う。
func ParseSignUp(in Input) (SignUpCommand, Issues) {
	issues := apply(signUpRules, in)

	password := in.Get(FieldPassword)
	confirm := in.Get(FieldConfirmPassword)
	if !issues.Has(FieldPassword) && !issues.Has(FieldConfirmPassword) && password != confirm {
		issues = append(issues, Issue{Path: FieldConfirmPassword, Message: MsgPasswordsDoNotMatch})
	}

	if len(issues) > 0 {
		return SignUpCommand{}, issues
	}
	return SignUpCommand{
		Name:            in.Get(FieldName),
		Email:           in.Get(FieldEmail),
		Password:        password,
		ConfirmPassword: confirm,
	}, nil
}

// ParseSignIn はサインイン入力を検証する。
// パスワード強度は再検証しない。rememberMeは省略時false。
func ParseSignIn(in Input) (SignInCommand, Issues) {
	issues := apply(signInRules, in)
	if len(issues) > 0 {
		return SignInCommand{}, issues
	}
	remember, _ := parseOptionalBool(in.Get(FieldRememberMe))
	return SignInCommand{
		Email:    in.Get(FieldEmail),
		Password: in.Get(FieldPassword),
		Remember: remember,
	}, nil
}

func apply(rules []fieldRule, in Input) Issues {
	typed, _ := in.(TypedInput)

	var issues Issues
	for _, r := range rules {
		if issues.Has(r.field) {
			continue
		}
		if typed != nil && typed.Mismatched(r.field) {
			msg := r.typeMessage
			if msg == "" {
				msg = MsgExpectedString
			}
			issues = append(issues, Issue{Path: r.field, Message: msg})
			continue
		}
		if !r.valid(in.Get(r.field)) {
			issues = append(issues, Issue{Path: r.field, Message: r.message})
		}
	}
	return issues
}

func nonEmpty(s string) bool {
	return s != ""
}

func minLength(n int) func(string) bool {
	return func(s string) bool {
		return utf8.RuneCountInString(s) >= n
	}
}

func maxBytes(n int) func(string) bool {
	return func(s string) bool {
		return len(s) <= n
	}
}

func isEmail(s string) bool {
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return emailLocalDomain.MatchString(s)
}

func isOptionalBool(s string) bool {
	_, ok := parseOptionalBool(s)
	return ok
}

// parseOptionalBool はチェックボックスおよびJSON由来の真偽値を解釈する。
func parseOptionalBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "", "false", "off", "0":
		return false, true
	case "true", "on", "1":
		return true, true
	default:
		return false, false
	}
}
