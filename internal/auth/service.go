// Package auth は認証境界のビジネスロジックを提供する。
// サインアップ時のメールアドレス一意性チェック、外部プロバイダーへの
// クレデンシャル発行/検証の委譲、リクエストごとの認証主体の解決を担う。
package auth

import (
	"context"
	"log/slog"

	"github.com/hitoshi/personality/internal/model"
	"github.com/hitoshi/personality/internal/validation"
)

// MsgEmailTaken は既に登録済みのメールアドレスでサインアップしたときのメッセージ。
const MsgEmailTaken = "An account with this email already exists"

// NewCredential はクレデンシャル発行に渡す値。
// confirmPasswordは検証後に破棄するため含まない。
type NewCredential struct {
	Name     string
	Email    string
	Password string
}

// Credentials はクレデンシャル検証に渡す値。
type Credentials struct {
	Email    string
	Password string
	Remember bool
}

// AccountFinder はメールアドレスでアカウントを検索するインターフェース。
// 1件以上返れば「存在する」とみなす。
type AccountFinder interface {
	FindByEmail(ctx context.Context, email string) ([]*model.User, error)
}

// CredentialIssuer は新規クレデンシャルを発行する外部プロバイダーのインターフェース。
// 成功時はプロバイダーが確立したセッションを返す。
type CredentialIssuer interface {
	IssueCredential(ctx context.Context, cred NewCredential) (*model.Session, error)
}

// CredentialVerifier はクレデンシャルを検証する外部プロバイダーのインターフェース。
// 成功時はプロバイダーが確立したセッションを返す。
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, creds Credentials) (*model.Session, error)
}

// Service はサインアップ/サインインのビジネスロジックを提供する。
// リクエストをまたぐ可変状態は持たない。
type Service struct {
	accounts AccountFinder
	issuer   CredentialIssuer
	verifier CredentialVerifier
}

// NewService はServiceを生成する。
func NewService(accounts AccountFinder, issuer CredentialIssuer, verifier CredentialVerifier) *Service {
	return &Service{
		accounts: accounts,
		issuer:   issuer,
		verifier: verifier,
	}
}

// SignUp はメールアドレスの一意性を確認してからクレデンシャルを発行する。
// 既存アカウントがある場合はemailフィールドにIssueを報告し、発行は行わずnilを返す。
// 検索・発行のエラーはそのまま返す。
//
// 検索と発行の間はトランザクションではないため、同一メールアドレスの同時サインアップは
// 双方が検索を通過しうる。最終的な一意性はアカウントストア側の制約に委ねる。
func (s *Service) SignUp(ctx context.Context, cmd validation.SignUpCommand, invalid validation.Reporter) (*model.Session, error) {
	existing, err := s.accounts.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		slog.Info("sign-up rejected: email already registered")
		invalid.Report(validation.FieldEmail, MsgEmailTaken)
		return nil, nil
	}

	return s.issuer.IssueCredential(ctx, NewCredential{
		Name:     cmd.Name,
		Email:    cmd.Email,
		Password: cmd.Password,
	})
}

// SignIn はクレデンシャルをそのまま検証プロバイダーに委譲する。
// 未登録とパスワード不一致を区別しないよう、プロバイダーのエラーは解釈せずに返す。
func (s *Service) SignIn(ctx context.Context, cmd validation.SignInCommand) (*model.Session, error) {
	return s.verifier.VerifyCredential(ctx, Credentials{
		Email:    cmd.Email,
		Password: cmd.Password,
		Remember: cmd.Remember,
	})
}
