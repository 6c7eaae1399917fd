// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/personality/internal/auth"
	"github.com/hitoshi/personality/internal/metrics"
	"github.com/hitoshi/personality/internal/middleware"
	"github.com/hitoshi/personality/internal/model"
	"github.com/hitoshi/personality/internal/provider"
	"github.com/hitoshi/personality/internal/security"
	"github.com/hitoshi/personality/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, cmd validation.SignUpCommand, invalid validation.Reporter) (*model.Session, error)
	SignIn(ctx context.Context, cmd validation.SignInCommand) (*model.Session, error)
}

// SessionRevoker はサインアウト時にセッションを破棄するインターフェース。
type SessionRevoker interface {
	RevokeSession(ctx context.Context, sessionID string) error
}

// AuthMetrics は認証ハンドラーが記録するメトリクスのインターフェース。
type AuthMetrics interface {
	RecordSignUp(result string)
	RecordSignIn(result string)
	RecordAuthLatency(operation string, duration time.Duration)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL          string
	CookieDomain     string
	CookieSecure     bool
	SessionMaxAge    int // セッションCookieの有効期間（秒）
	RememberMeMaxAge int // rememberMe指定時のセッションCookieの有効期間（秒）
}

// AuthHandler はサインアップ/サインイン/サインアウトのHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	revoker   SessionRevoker
	sanitizer security.NameSanitizer
	metrics   AuthMetrics
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
// sanitizerがnilの場合はbluemondayのStrictPolicyを使う。
func NewAuthHandler(service AuthServiceInterface, revoker SessionRevoker, sanitizer security.NameSanitizer, m AuthMetrics, config AuthHandlerConfig) *AuthHandler {
	if sanitizer == nil {
		sanitizer = security.NewNameSanitizer()
	}
	return &AuthHandler{
		service:   service,
		revoker:   revoker,
		sanitizer: sanitizer,
		metrics:   m,
		config:    config,
	}
}

// SignUp は新規アカウントを作成し、セッションCookieを設定してリダイレクトする。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe("signup", start)

	in, err := parseInput(w, r)
	if err != nil {
		slog.Warn("invalid sign-up body", slog.String("error", err.Error()))
		h.recordSignUp(metrics.ResultInvalid)
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationFailedError())
		return
	}

	cmd, issues := validation.ParseSignUp(sanitizedNameInput{Input: in, sanitizer: h.sanitizer})
	if len(issues) > 0 {
		h.recordSignUp(metrics.ResultInvalid)
		middleware.WriteValidationErrorResponse(w, issues)
		return
	}

	ctx := provider.ContextWithClientInfo(r.Context(), clientInfo(r))
	collector := &validation.Collector{}
	session, err := h.service.SignUp(ctx, cmd, collector)
	if errors.Is(err, provider.ErrEmailTaken) {
		collector.Report(validation.FieldEmail, auth.MsgEmailTaken)
		err = nil
	}
	if err != nil {
		slog.Error("sign-up failed", slog.String("error", err.Error()))
		h.recordSignUp(metrics.ResultError)
		middleware.WriteInternalServerError(w)
		return
	}
	if issues := collector.Issues(); len(issues) > 0 {
		h.recordSignUp(metrics.ResultEmailTaken)
		middleware.WriteValidationErrorResponse(w, issues)
		return
	}

	h.recordSignUp(metrics.ResultSuccess)
	h.setSessionCookie(w, session.ID, h.config.SessionMaxAge)
	http.Redirect(w, r, h.config.BaseURL, http.StatusSeeOther)
}

// SignIn はクレデンシャルを検証し、セッションCookieを設定してリダイレクトする。
// rememberMeが指定されない場合はブラウザ終了で破棄されるCookieとする。
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer h.observe("signin", start)

	in, err := parseInput(w, r)
	if err != nil {
		slog.Warn("invalid sign-in body", slog.String("error", err.Error()))
		h.recordSignIn(metrics.ResultInvalid)
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationFailedError())
		return
	}

	cmd, issues := validation.ParseSignIn(in)
	if len(issues) > 0 {
		h.recordSignIn(metrics.ResultInvalid)
		middleware.WriteValidationErrorResponse(w, issues)
		return
	}

	ctx := provider.ContextWithClientInfo(r.Context(), clientInfo(r))
	session, err := h.service.SignIn(ctx, cmd)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCredentials) {
			h.recordSignIn(metrics.ResultInvalidCredentials)
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
			return
		}
		slog.Error("sign-in failed", slog.String("error", err.Error()))
		h.recordSignIn(metrics.ResultError)
		middleware.WriteInternalServerError(w)
		return
	}

	maxAge := 0
	if session.Remember {
		maxAge = h.config.RememberMeMaxAge
	}

	h.recordSignIn(metrics.ResultSuccess)
	h.setSessionCookie(w, session.ID, maxAge)
	http.Redirect(w, r, h.config.BaseURL, http.StatusSeeOther)
}

// SignOut はセッションを破棄する。
// POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if revokeErr := h.revoker.RevokeSession(r.Context(), cookie.Value); revokeErr != nil {
			slog.Error("failed to revoke session", slog.String("error", revokeErr.Error()))
			// 破棄に失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, h.config.BaseURL, http.StatusSeeOther)
}

// Me は現在の認証主体を返す。未認証の場合はnullを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.CurrentIdentity(r.Context()))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	clearSessionCookie(w, h.config)
}

func (h *AuthHandler) recordSignUp(result string) {
	if h.metrics != nil {
		h.metrics.RecordSignUp(result)
	}
}

func (h *AuthHandler) recordSignIn(result string) {
	if h.metrics != nil {
		h.metrics.RecordSignIn(result)
	}
}

func (h *AuthHandler) observe(operation string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordAuthLatency(operation, time.Since(start))
	}
}

// clearSessionCookie はセッションCookieを削除する。
func clearSessionCookie(w http.ResponseWriter, config AuthHandlerConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientInfo はセッションに記録する接続元情報をリクエストから取り出す。
func clientInfo(r *http.Request) provider.ClientInfo {
	return provider.ClientInfo{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

var _ AuthMetrics = (*metrics.Collector)(nil)
