package validation

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func signUpInput(name, email, password, confirm string) url.Values {
	return url.Values{
		FieldName:            {name},
		FieldEmail:           {email},
		FieldPassword:        {password},
		FieldConfirmPassword: {confirm},
	}
}

func TestParseSignUp_ValidInput_ReturnsCommand(t *testing.T) {
	cmd, issues := ParseSignUp(signUpInput("Test User", "test@example.com", "password123", "password123"))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	want := SignUpCommand{
		Name:            "Test User",
		Email:           "test@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	}
	if cmd != want {
		t.Errorf("cmd = %+v, want %+v", cmd, want)
	}
}

func TestParseSignUp_EmptyName_ReportsNameOnly(t *testing.T) {
	_, issues := ParseSignUp(signUpInput("", "test@example.com", "password123", "password123"))

	want := Issues{{Path: FieldName, Message: MsgNameRequired}}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignUp_InvalidEmail_ReportsEmail(t *testing.T) {
	for _, email := range []string{"not-an-email", "", "a@b", ".a@b.com", "a..b@c.com", "a@b.c", "a b@c.com"} {
		_, issues := ParseSignUp(signUpInput("Test User", email, "password123", "password123"))
		if got := issues.Messages(FieldEmail); len(got) != 1 || got[0] != MsgInvalidEmail {
			t.Errorf("email %q: messages = %v, want [%q]", email, got, MsgInvalidEmail)
		}
	}
}

func TestParseSignUp_AcceptsCommonEmailForms(t *testing.T) {
	for _, email := range []string{"a@b.com", "first.last+tag@sub.example.co.jp", "o'neil@example.org"} {
		_, issues := ParseSignUp(signUpInput("Test User", email, "password123", "password123"))
		if issues.Has(FieldEmail) {
			t.Errorf("email %q rejected: %v", email, issues)
		}
	}
}

func TestParseSignUp_ShortPassword_ReportsLength(t *testing.T) {
	_, issues := ParseSignUp(signUpInput("Test User", "test@example.com", "short", "short"))

	want := Issues{{Path: FieldPassword, Message: MsgPasswordTooShort}}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignUp_PasswordLengthCountsCharacters(t *testing.T) {
	// 文字数で数える（マルチバイト文字を含む）
	_, issues := ParseSignUp(signUpInput("Test User", "test@example.com", "パスワード1234", "パスワード1234"))
	if issues.Has(FieldPassword) {
		t.Errorf("unexpected password issue: %v", issues)
	}
}

func TestParseSignUp_PasswordByteLimit(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     Issues
	}{
		{"72バイトは許可", strings.Repeat("a", 72), nil},
		{"73バイトは拒否", strings.Repeat("a", 73), Issues{{Path: FieldPassword, Message: MsgPasswordTooLong}}},
		{"80文字のパスフレーズ", strings.Repeat("a", 80), Issues{{Path: FieldPassword, Message: MsgPasswordTooLong}}},
		// 25文字だが75バイト
		{"マルチバイトはバイト数で数える", strings.Repeat("あ", 25), Issues{{Path: FieldPassword, Message: MsgPasswordTooLong}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, issues := ParseSignUp(signUpInput("Test User", "test@example.com", tt.password, tt.password))
			if !reflect.DeepEqual(issues, tt.want) {
				t.Errorf("issues = %v, want %v", issues, tt.want)
			}
		})
	}
}

func TestParseSignUp_EmptyConfirmPassword_ReportsConfirmOnly(t *testing.T) {
	_, issues := ParseSignUp(signUpInput("Test User", "test@example.com", "password123", ""))

	want := Issues{{Path: FieldConfirmPassword, Message: MsgConfirmPassword}}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignUp_PasswordMismatch_ReportsOnConfirmPassword(t *testing.T) {
	_, issues := ParseSignUp(signUpInput("Test User", "test@example.com", "password123", "differentpassword"))

	want := Issues{{Path: FieldConfirmPassword, Message: MsgPasswordsDoNotMatch}}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignUp_MismatchNotCheckedWhenPasswordInvalid(t *testing.T) {
	_, issues := ParseSignUp(signUpInput("Test User", "test@example.com", "short", "different"))

	if got := issues.Messages(FieldConfirmPassword); len(got) != 0 {
		t.Errorf("confirmPassword messages = %v, want none", got)
	}
	if !issues.Has(FieldPassword) {
		t.Error("expected password issue")
	}
}

func TestParseSignUp_CollectsAllIssues(t *testing.T) {
	_, issues := ParseSignUp(signUpInput("", "a@b.com", "short", "short"))

	want := Issues{
		{Path: FieldName, Message: MsgNameRequired},
		{Path: FieldPassword, Message: MsgPasswordTooShort},
	}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignUp_EmptySubmission_ReportsEveryField(t *testing.T) {
	_, issues := ParseSignUp(url.Values{})

	want := Issues{
		{Path: FieldName, Message: MsgNameRequired},
		{Path: FieldEmail, Message: MsgInvalidEmail},
		{Path: FieldPassword, Message: MsgPasswordTooShort},
		{Path: FieldConfirmPassword, Message: MsgConfirmPassword},
	}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignUp_Idempotent(t *testing.T) {
	in := signUpInput("", "bad", "short", "")

	_, first := ParseSignUp(in)
	_, second := ParseSignUp(in)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("first = %v, second = %v", first, second)
	}
}

func TestParseSignIn_ValidInput_DefaultsRememberToFalse(t *testing.T) {
	cmd, issues := ParseSignIn(url.Values{
		FieldEmail:    {"test@example.com"},
		FieldPassword: {"x"},
	})
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	want := SignInCommand{Email: "test@example.com", Password: "x", Remember: false}
	if cmd != want {
		t.Errorf("cmd = %+v, want %+v", cmd, want)
	}
}

func TestParseSignIn_RememberCheckbox(t *testing.T) {
	for _, v := range []string{"on", "true", "1", "TRUE"} {
		cmd, issues := ParseSignIn(url.Values{
			FieldEmail:      {"test@example.com"},
			FieldPassword:   {"password123"},
			FieldRememberMe: {v},
		})
		if len(issues) != 0 {
			t.Fatalf("rememberMe %q: unexpected issues: %v", v, issues)
		}
		if !cmd.Remember {
			t.Errorf("rememberMe %q: Remember = false, want true", v)
		}
	}
}

func TestParseSignIn_InvalidRemember_ReportsIssue(t *testing.T) {
	_, issues := ParseSignIn(url.Values{
		FieldEmail:      {"test@example.com"},
		FieldPassword:   {"password123"},
		FieldRememberMe: {"maybe"},
	})

	want := Issues{{Path: FieldRememberMe, Message: MsgInvalidRememberMe}}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignIn_EmptyPassword_ReportsRequired(t *testing.T) {
	_, issues := ParseSignIn(url.Values{
		FieldEmail: {"not-an-email"},
	})

	want := Issues{
		{Path: FieldEmail, Message: MsgInvalidEmail},
		{Path: FieldPassword, Message: MsgPasswordRequired},
	}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestCollector_ReportKeepsOrder(t *testing.T) {
	var c Collector
	c.Report(FieldEmail, "first")
	c.Report("", "second")

	want := Issues{{Path: FieldEmail, Message: "first"}, {Message: "second"}}
	if !reflect.DeepEqual(c.Issues(), want) {
		t.Errorf("issues = %v, want %v", c.Issues(), want)
	}
}

// typedValues は型不一致のフィールドを持つTypedInput。
type typedValues struct {
	url.Values
	mismatched map[string]bool
}

func (in typedValues) Mismatched(key string) bool {
	return in.mismatched[key]
}

func TestParseSignUp_TypeMismatch_ReportsExpectedString(t *testing.T) {
	in := typedValues{
		Values:     signUpInput("", "test@example.com", "12345678", "password123"),
		mismatched: map[string]bool{FieldName: true, FieldPassword: true},
	}

	_, issues := ParseSignUp(in)

	want := Issues{
		{Path: FieldName, Message: MsgExpectedString},
		{Path: FieldPassword, Message: MsgExpectedString},
	}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

func TestParseSignIn_RememberTypeMismatch_ReportsExpectedBoolean(t *testing.T) {
	in := typedValues{
		Values: url.Values{
			FieldEmail:    {"test@example.com"},
			FieldPassword: {"password123"},
		},
		mismatched: map[string]bool{FieldRememberMe: true},
	}

	_, issues := ParseSignIn(in)

	want := Issues{{Path: FieldRememberMe, Message: MsgInvalidRememberMe}}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
}

var _ TypedInput = typedValues{}
