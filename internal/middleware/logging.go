package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hitoshi/personality/internal/auth"
)

// requestLogEntry は後段から書き戻されるアクセスログの追加情報。
// セッション解決はロギングより内側で行われるため、ユーザーIDはここ経由で受け取る。
type requestLogEntry struct {
	userID string
}

type requestLogKey struct{}

// annotateUserID はアクセスログのuser_idを設定する。ロギング外のリクエストでは何もしない。
func annotateUserID(ctx context.Context, userID string) {
	if entry, ok := ctx.Value(requestLogKey{}).(*requestLogEntry); ok {
		entry.userID = userID
	}
}

// statusRecorder は最初に書き込まれたステータスコードを覚えておく。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	return sr.ResponseWriter.Write(b)
}

// Unwrap はhttp.ResponseControllerから元のWriterを辿れるようにする。
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// statusOrOK は何も書かれなかったレスポンスを200として扱う。
func (sr *statusRecorder) statusOrOK() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}

// NewLoggingMiddleware は1リクエスト1行のアクセスログ "http_request" を出力する。
// 5xxはERROR、4xxはWARN、それ以外はINFOで記録する。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			entry := &requestLogEntry{}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestLogKey{}, entry)))

			status := rec.statusOrOK()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Float64("duration_ms", float64(time.Since(start))/float64(time.Millisecond)),
				slog.String("client_ip", ClientIP(r)),
			}
			if userID := loggedUserID(r.Context(), entry); userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
			}

			logger.LogAttrs(r.Context(), levelForStatus(status), "http_request", attrs...)
		})
	}
}

func loggedUserID(ctx context.Context, entry *requestLogEntry) string {
	if identity := auth.CurrentIdentity(ctx); identity != nil {
		return identity.ID
	}
	return entry.userID
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
