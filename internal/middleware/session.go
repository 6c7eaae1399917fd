// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/personality/internal/auth"
	"github.com/hitoshi/personality/internal/model"
)

// SessionCookieName はセッションIDを保持するCookie名。
const SessionCookieName = "session_id"

// IdentityResolver はセッションIDから認証主体を解決するインターフェース。
// 無効なセッションの場合はnil, nilを返す。
type IdentityResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*model.Identity, error)
}

// NewSessionMiddleware はHTTP Only CookieのセッションIDから認証主体を解決し、
// リクエストコンテキストに付与するミドルウェアを返す。
// Cookieがない、またはセッションが無効な場合は匿名のまま次へ進み、拒否は行わない。
func NewSessionMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := resolver.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			annotateUserID(r.Context(), identity.ID)
			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UnauthorizedRecorder は認可ゲートでの拒否を記録するインターフェース。
type UnauthorizedRecorder interface {
	RecordUnauthorized()
}

// NewRequireIdentityMiddleware は認証主体が付与されていないリクエストに
// 401 Unauthorizedを返すミドルウェアを返す。
// セッションミドルウェアより後段に配置すること。recはnilでもよい。
func NewRequireIdentityMiddleware(rec UnauthorizedRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := auth.RequireIdentity(r.Context()); err != nil {
				var unauthorized *auth.UnauthorizedError
				if errors.As(err, &unauthorized) {
					if rec != nil {
						rec.RecordUnauthorized()
					}
					WriteErrorResponse(w, unauthorized.Status, model.NewUnauthorizedError())
					return
				}
				WriteInternalServerError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
