package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/hygienesurvey/internal/metrics"
	"github.com/hitoshi/hygienesurvey/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsGatherer   prometheus.Gatherer
	HealthChecker     HealthChecker

	// サービス
	AuthService      AuthServiceInterface
	SurveyService    SurveyServiceInterface
	AnalyticsService AnalyticsServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS → [Session] → RateLimit
//
// /api/auth/profile はIdPのセッションIDを受け取るためSessionミドルウェアの外に配置し、
// クライアントIP単位でレート制限する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	surveyHandler := NewSurveyHandler(deps.SurveyService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", Root)

		// --- 認証不要のルート ---
		r.With(deps.RateLimiter.GeneralMiddleware()).Post("/auth/profile", authHandler.Profile)

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Route("/survey", func(r chi.Router) {
				// POST /api/survey/submit - 送信専用のレート制限を追加
				r.With(deps.RateLimiter.SubmitMiddleware()).Post("/submit", surveyHandler.Submit)
				r.Get("/my-response", surveyHandler.MyResponse)
				r.Get("/analytics", analyticsHandler.Analytics)
			})
		})
	})

	return r
}
