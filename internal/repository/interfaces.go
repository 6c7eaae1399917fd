// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/personality/internal/model"
)

// ErrDuplicateEmail はusers.emailのユニーク制約に違反した場合に返される。
// 重複確認と作成の間に同じメールアドレスが登録された場合もこのエラーになる。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスが完全一致するユーザーを返す。
	// 見つからない場合は空のスライスを返す。
	FindByEmail(ctx context.Context, email string) ([]*model.User, error)

	// CreateWithAccount はユーザーとaccountを同一トランザクションで作成する。
	// メールアドレスが重複した場合はErrDuplicateEmailを返す。
	CreateWithAccount(ctx context.Context, user *model.User, account *model.Account) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するaccounts、sessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// AccountRepository は認証情報の永続化インターフェース。
type AccountRepository interface {
	// FindByProvider はprovider_idとaccount_idでaccountを検索する。
	// 見つからない場合はnilを返す。
	FindByProvider(ctx context.Context, providerID, accountID string) (*model.Account, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired はbefore以前に期限切れとなったセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// VerificationRepository はメール確認などの一時トークンの永続化インターフェース。
type VerificationRepository interface {
	// DeleteExpired はbefore以前に期限切れとなったトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
