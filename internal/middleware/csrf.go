package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/personality/internal/model"
)

const (
	// csrfCookieName はdouble-submit用トークンのCookie名。
	// クライアントのスクリプトがヘッダーへ転記するためHttpOnlyにしない。
	csrfCookieName = "csrf_token"

	// csrfHeaderName はクライアントがトークンを送り返すヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	// csrfTokenBytes はトークンの乱数バイト長。
	csrfTokenBytes = 32

	// defaultCSRFMaxAge はCSRFConfig.MaxAge未指定時のCookie有効期間（秒）。
	defaultCSRFMaxAge = 24 * 60 * 60
)

var (
	errCSRFCookieMissing = errors.New("csrf cookie missing")
	errCSRFHeaderMissing = errors.New("csrf header missing")
	errCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
	// MaxAge はトークンCookieの有効期間（秒）。0以下なら24時間。
	MaxAge int
}

func (c CSRFConfig) maxAge() int {
	if c.MaxAge > 0 {
		return c.MaxAge
	}
	return defaultCSRFMaxAge
}

// NewCSRFMiddleware はdouble-submit方式でCSRFを防ぐミドルウェアを返す。
// 読み取り系メソッドは検証せず、トークンCookieがなければ発行する。
// それ以外のメソッドはCookieとX-CSRF-Tokenヘッダーの一致を要求し、不一致なら403を返す。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				if _, err := currentCSRFToken(r); err != nil {
					if _, err := issueCSRFToken(w, config); err != nil {
						slog.Error("failed to issue CSRF token", slog.String("error", err.Error()))
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			if err := verifyCSRFToken(r); err != nil {
				slog.Warn("CSRF validation failed",
					slog.String("reason", err.Error()),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFTokenInvalidError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewCSRFTokenHandler は GET /api/csrf-token のハンドラーを返す。
// Cookieに有効なトークンがあればそれを、なければ新しく発行したものを {"token": ...} で返す。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := currentCSRFToken(r)
		if err != nil {
			token, err = issueCSRFToken(w, config)
			if err != nil {
				slog.Error("failed to issue CSRF token", slog.String("error", err.Error()))
				WriteInternalServerError(w)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Token string `json:"token"`
		}{Token: token})
	})
}

// verifyCSRFToken はCookieとヘッダーのトークンを定数時間で比較する。
func verifyCSRFToken(r *http.Request) error {
	cookieToken, err := currentCSRFToken(r)
	if err != nil {
		return err
	}
	headerToken := r.Header.Get(csrfHeaderName)
	if headerToken == "" {
		return errCSRFHeaderMissing
	}
	if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
		return errCSRFTokenMismatch
	}
	return nil
}

func currentCSRFToken(r *http.Request) (string, error) {
	c, err := r.Cookie(csrfCookieName)
	if err != nil || c.Value == "" {
		return "", errCSRFCookieMissing
	}
	return c.Value, nil
}

// issueCSRFToken は新しいトークンを生成してCookieに設定する。
func issueCSRFToken(w http.ResponseWriter, config CSRFConfig) (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   config.maxAge(),
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
