// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// Webhook処理とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordWebhookEvent(eventType, result string)
	RecordVerificationFailure(reason string)
	RecordReconcileFailure()
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	webhookEvents        *prometheus.CounterVec
	verificationFailures *prometheus.CounterVec
	reconcileFailures    prometheus.Counter
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_webhook_events_total",
			Help: "イベント種別と処理結果ごとのWebhookイベント数",
		}, []string{"event_type", "result"}),
		verificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_webhook_verification_failures_total",
			Help: "理由別のWebhook検証失敗数",
		}, []string{"reason"}),
		reconcileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_reconcile_failures_total",
			Help: "IdPへのメタデータ反映失敗の合計数",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_http_requests_total",
			Help: "ルートとステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookshelf_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.verificationFailures,
		c.reconcileFailures,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// RecordWebhookEvent はWebhookイベントの処理結果を記録する。
func (c *Collector) RecordWebhookEvent(eventType, result string) {
	c.webhookEvents.WithLabelValues(eventType, result).Inc()
}

// RecordVerificationFailure は署名検証やヘッダー欠落による拒否を記録する。
func (c *Collector) RecordVerificationFailure(reason string) {
	c.verificationFailures.WithLabelValues(reason).Inc()
}

// RecordReconcileFailure はメタデータ反映の失敗を記録する。
func (c *Collector) RecordReconcileFailure() {
	c.reconcileFailures.Inc()
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
// routeにはURLパスではなくルートパターンを渡すこと。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
