package auth

import (
	"context"
	"net/http"

	"github.com/hitoshi/personality/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証主体を格納するためのキー。
var identityContextKey = contextKey("identity")

// ContextWithIdentity はコンテキストに認証主体を付与する。
// セッション付与ミドルウェアがリクエストごとに1回だけ呼び出す。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// CurrentIdentity はコンテキストに付与された認証主体を返す。
// 未認証の場合はnilを返す。検証は行わない。
func CurrentIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// UnauthorizedError は認証が必要な操作を未認証で呼び出した場合のエラー。
// 入力検証のIssueやプロバイダーのエラーとはerrors.Asで区別できる。
type UnauthorizedError struct {
	Status  int
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *UnauthorizedError) Error() string {
	return e.Message
}

// IdentityFunc は現在のリクエストの認証主体を返す関数。
type IdentityFunc func(ctx context.Context) *model.Identity

// RequireIdentity は認証主体を返す。未認証の場合は401のUnauthorizedErrorを返す。
func RequireIdentity(ctx context.Context) (*model.Identity, error) {
	return RequireIdentityFrom(ctx, CurrentIdentity)
}

// RequireIdentityFrom はresolveで得た認証主体をそのまま返す。
// nilの場合は401のUnauthorizedErrorを返す。
func RequireIdentityFrom(ctx context.Context, resolve IdentityFunc) (*model.Identity, error) {
	identity := resolve(ctx)
	if identity == nil {
		return nil, &UnauthorizedError{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		}
	}
	return identity, nil
}
