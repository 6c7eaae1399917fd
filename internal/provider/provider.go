// Package provider はメールアドレス+パスワード認証のクレデンシャルとセッションを管理する。
// auth.Serviceから見た外部プロバイダーの実装で、パスワードのハッシュ化、
// アカウント作成、セッションの発行と解決を担う。
package provider

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/personality/internal/auth"
	"github.com/hitoshi/personality/internal/model"
	"github.com/hitoshi/personality/internal/repository"
	"github.com/hitoshi/personality/internal/security"
)

const tracerName = "github.com/hitoshi/personality/internal/provider"

var (
	// ErrEmailTaken はクレデンシャル発行時にメールアドレスが既に登録されていた場合のエラー。
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials はサインインに失敗した場合のエラー。
	// 未登録のメールアドレスとパスワード不一致を区別しない。
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Config はプロバイダーの設定。
type Config struct {
	BcryptCost       int
	SessionMaxAge    time.Duration // rememberMeなしのセッション有効期間
	RememberMeMaxAge time.Duration // rememberMeありのセッション有効期間

	// TracerProvider がnilの場合はグローバルのプロバイダーを使用する。
	TracerProvider trace.TracerProvider
}

// Provider はクレデンシャルの発行・検証とセッション管理を行う。
type Provider struct {
	users     repository.UserRepository
	accounts  repository.AccountRepository
	sessions  repository.SessionRepository
	sanitizer security.NameSanitizer
	config    Config
	tracer    trace.Tracer
	now       func() time.Time

	// dummyHash は未登録メールアドレスでもbcrypt比較を行うためのハッシュ。
	dummyHash []byte
}

// NewProvider はProviderを生成する。
func NewProvider(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	sanitizer security.NameSanitizer,
	config Config,
) (*Provider, error) {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("personality-dummy-password"), config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Provider{
		users:     users,
		accounts:  accounts,
		sessions:  sessions,
		sanitizer: sanitizer,
		config:    config,
		tracer:    tp.Tracer(tracerName),
		now:       time.Now,
		dummyHash: dummyHash,
	}, nil
}

// IssueCredential は新規ユーザーとパスワード認証のaccountを作成し、セッションを開始する。
// ストアのユニーク制約でメールアドレスの重複が検出された場合はErrEmailTakenを返す。
func (p *Provider) IssueCredential(ctx context.Context, cred auth.NewCredential) (*model.Session, error) {
	ctx, span := p.tracer.Start(ctx, "provider.IssueCredential")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), p.config.BcryptCost)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("failed to hash password: %w", err))
	}

	now := p.now()
	user := &model.User{
		ID:        uuid.New().String(),
		Name:      p.sanitizer.Sanitize(cred.Name),
		Email:     cred.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account := &model.Account{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		ProviderID:   model.CredentialProviderID,
		AccountID:    user.ID,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.users.CreateWithAccount(ctx, user, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			span.SetAttributes(attribute.Bool("auth.email_taken", true))
			return nil, ErrEmailTaken
		}
		return nil, recordError(span, fmt.Errorf("failed to create user: %w", err))
	}
	span.SetAttributes(attribute.String("auth.user_id", user.ID))

	slog.Info("user registered", slog.String("user_id", user.ID))

	return p.openSession(ctx, span, user.ID, false)
}

// VerifyCredential はメールアドレスとパスワードを検証し、セッションを開始する。
// 失敗理由にかかわらずErrInvalidCredentialsを返す。
func (p *Provider) VerifyCredential(ctx context.Context, creds auth.Credentials) (*model.Session, error) {
	ctx, span := p.tracer.Start(ctx, "provider.VerifyCredential",
		trace.WithAttributes(attribute.Bool("auth.remember", creds.Remember)),
	)
	defer span.End()

	users, err := p.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("failed to find user: %w", err))
	}
	if len(users) == 0 {
		// 応答時間からアカウントの有無を推測されないよう比較だけは行う
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(creds.Password))
		return nil, ErrInvalidCredentials
	}
	user := users[0]

	account, err := p.accounts.FindByProvider(ctx, model.CredentialProviderID, user.ID)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("failed to find account: %w", err))
	}
	if account == nil || account.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(creds.Password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("auth.user_id", user.ID))

	return p.openSession(ctx, span, user.ID, creds.Remember)
}

// ResolveSession はセッションIDから認証主体を解決する。
// セッションが存在しない、期限切れ、またはユーザーが削除済みの場合はnil, nilを返す。
func (p *Provider) ResolveSession(ctx context.Context, sessionID string) (*model.Identity, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := p.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := p.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return model.IdentityFromUser(user), nil
}

// RevokeSession はセッションを削除する。存在しないセッションの削除はエラーにしない。
func (p *Provider) RevokeSession(ctx context.Context, sessionID string) error {
	return p.sessions.DeleteByID(ctx, sessionID)
}

// openSession はユーザーの新しいセッションを作成する。
func (p *Provider) openSession(ctx context.Context, span trace.Span, userID string, remember bool) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, recordError(span, fmt.Errorf("failed to generate session ID: %w", err))
	}

	maxAge := p.config.SessionMaxAge
	if remember {
		maxAge = p.config.RememberMeMaxAge
	}

	client := ClientInfoFromContext(ctx)
	now := p.now()
	session := &model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(maxAge),
		Remember:  remember,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.sessions.Create(ctx, session); err != nil {
		return nil, recordError(span, fmt.Errorf("failed to create session: %w", err))
	}

	return session, nil
}

// generateSessionID は推測不可能なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// compile-time interface checks
var (
	_ auth.CredentialIssuer   = (*Provider)(nil)
	_ auth.CredentialVerifier = (*Provider)(nil)
)
