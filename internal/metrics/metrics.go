// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 外部IdPとのセッション交換結果のラベル値。
const (
	ExchangeOutcomeSuccess        = "success"
	ExchangeOutcomeProviderFailed = "provider_failed"
	ExchangeOutcomeStoreFailed    = "store_failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordSurveySubmitted()
	RecordAnalyticsServed()
	RecordIdentityExchange(outcome string)
	RecordProviderLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordSessionsExpired(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	surveysSubmitted  prometheus.Counter
	analyticsServed   prometheus.Counter
	identityExchanges *prometheus.CounterVec
	providerLatency   prometheus.Histogram
	httpStatus        *prometheus.CounterVec
	sessionsExpired   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		surveysSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hygienesurvey_surveys_submitted_total",
			Help: "アンケート送信（新規・再送信）の合計数",
		}),
		analyticsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hygienesurvey_analytics_served_total",
			Help: "分析結果を返却した合計数",
		}),
		identityExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hygienesurvey_identity_exchanges_total",
			Help: "外部IdPとのセッション交換の結果別件数",
		}, []string{"outcome"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hygienesurvey_identity_provider_latency_seconds",
			Help:    "外部IdP呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hygienesurvey_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hygienesurvey_sessions_expired_removed_total",
			Help: "クリーンアップジョブが削除した期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.surveysSubmitted,
		c.analyticsServed,
		c.identityExchanges,
		c.providerLatency,
		c.httpStatus,
		c.sessionsExpired,
	)

	return c
}

// RecordSurveySubmitted はアンケート送信を記録する。
func (c *Collector) RecordSurveySubmitted() {
	c.surveysSubmitted.Inc()
}

// RecordAnalyticsServed は分析結果の返却を記録する。
func (c *Collector) RecordAnalyticsServed() {
	c.analyticsServed.Inc()
}

// RecordIdentityExchange はセッション交換の結果を記録する。
func (c *Collector) RecordIdentityExchange(outcome string) {
	c.identityExchanges.WithLabelValues(outcome).Inc()
}

// RecordProviderLatency は外部IdP呼び出しのレイテンシを記録する。
func (c *Collector) RecordProviderLatency(duration time.Duration) {
	c.providerLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsExpired は削除した期限切れセッション数を記録する。
func (c *Collector) RecordSessionsExpired(count int64) {
	c.sessionsExpired.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
