package middleware

import (
	"net/http"

	"github.com/hitoshi/hygienesurvey/internal/metrics"
)

// NewMetricsMiddleware は最終的なステータスコードをcollectorに記録する。
func NewMetricsMiddleware(collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := wrapWriter(w, r)
			next.ServeHTTP(ww, r)
			collector.RecordHTTPStatus(statusOf(ww))
		})
	}
}
