package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// corsPreflightMaxAge はプリフライト結果をブラウザがキャッシュする秒数。
const corsPreflightMaxAge = 24 * 60 * 60

var (
	corsAllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsAllowHeaders = []string{"Content-Type", csrfHeaderName}
)

// NewCORSMiddleware は単一オリジンに対してCookie付きのクロスオリジン要求を許可する。
// Allow-Credentialsと併用するためワイルドカードは返さない。
// OPTIONSは後段に渡さず204で終える。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	fixed := http.Header{}
	fixed.Set("Access-Control-Allow-Origin", allowedOrigin)
	fixed.Set("Access-Control-Allow-Methods", strings.Join(corsAllowMethods, ", "))
	fixed.Set("Access-Control-Allow-Headers", strings.Join(corsAllowHeaders, ", "))
	fixed.Set("Access-Control-Allow-Credentials", "true")
	fixed.Set("Access-Control-Max-Age", strconv.Itoa(corsPreflightMaxAge))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range fixed {
				h[k] = append([]string(nil), v...)
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
