// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// サインアップ/サインインの結果ラベル
const (
	ResultSuccess            = "success"
	ResultInvalid            = "invalid"
	ResultEmailTaken         = "email_taken"
	ResultInvalidCredentials = "invalid_credentials"
	ResultError              = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordSignUp(result string)
	RecordSignIn(result string)
	RecordUnauthorized()
	RecordHTTPStatus(statusCode int)
	RecordAuthLatency(operation string, duration time.Duration)
	RecordSessionsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signUp         *prometheus.CounterVec
	signIn         *prometheus.CounterVec
	unauthorized   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	authLatency    *prometheus.HistogramVec
	sessionsPurged prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signUp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "personality_signup_total",
			Help: "結果別のサインアップ試行数",
		}, []string{"result"}),
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "personality_signin_total",
			Help: "結果別のサインイン試行数",
		}, []string{"result"}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "personality_unauthorized_total",
			Help: "認証が必要な操作を未認証で呼び出した回数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "personality_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		authLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "personality_auth_latency_seconds",
			Help:    "サインアップ/サインイン処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "personality_sessions_purged_total",
			Help: "期限切れで削除されたセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.signUp,
		c.signIn,
		c.unauthorized,
		c.httpStatus,
		c.authLatency,
		c.sessionsPurged,
	)

	return c
}

// RecordSignUp はサインアップ試行を結果別に記録する。
func (c *Collector) RecordSignUp(result string) {
	c.signUp.WithLabelValues(result).Inc()
}

// RecordSignIn はサインイン試行を結果別に記録する。
func (c *Collector) RecordSignIn(result string) {
	c.signIn.WithLabelValues(result).Inc()
}

// RecordUnauthorized は認可ゲートでの拒否を記録する。
func (c *Collector) RecordUnauthorized() {
	c.unauthorized.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAuthLatency は認証処理のレイテンシを記録する。
func (c *Collector) RecordAuthLatency(operation string, duration time.Duration) {
	c.authLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSessionsPurged は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// NewStatusMiddleware はレスポンスのステータスコードを記録するミドルウェアを返す。
func NewStatusMiddleware(c MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			c.RecordHTTPStatus(rec.statusCode)
		})
	}
}

// statusRecorder はhttp.ResponseWriterをラップし、最初に書き込まれたステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.statusCode = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.wroteHeader = true
	return sr.ResponseWriter.Write(b)
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsと/healthを提供するHTTPハンドラーを返す。
// APIサーバーを持たないワーカープロセスのスクレイプとヘルスチェック用。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler(gatherer))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
