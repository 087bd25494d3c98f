package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/hygienesurvey/internal/auth"
	"github.com/hitoshi/hygienesurvey/internal/metrics"
	"github.com/hitoshi/hygienesurvey/internal/middleware"
	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// stubResolver は固定トークンのみを受け付けるSessionResolver。
type stubResolver struct {
	token string
	user  *model.User
}

func (s *stubResolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == s.token {
		return s.user, nil
	}
	return nil, auth.ErrInvalidToken
}

func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()
	if deps.SessionResolver == nil {
		deps.SessionResolver = &stubResolver{token: "valid-token", user: &model.User{ID: "user-1"}}
	}
	if deps.RateLimiter == nil {
		rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		t.Cleanup(rl.Stop)
		deps.RateLimiter = rl
	}
	if deps.CORSAllowedOrigin == "" {
		deps.CORSAllowedOrigin = "*"
	}
	if deps.AuthService == nil {
		deps.AuthService = &mockAuthService{}
	}
	if deps.SurveyService == nil {
		deps.SurveyService = &mockSurveyService{}
	}
	if deps.AnalyticsService == nil {
		deps.AnalyticsService = &mockAnalyticsService{}
	}
	return NewRouter(deps)
}

func TestRouter_Root(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/ status = %d, want %d", w.Code, http.StatusOK)
	}
	var body rootResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Message != "Community Service Project API" {
		t.Errorf("message = %q, want %q", body.Message, "Community Service Project API")
	}
}

func TestRouter_ProtectedRoutes_RequireSessionHeader(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/survey/submit"},
		{http.MethodGet, "/api/survey/my-response"},
		{http.MethodGet, "/api/survey/analytics"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			// ヘッダー無しは422
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("without header: status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
			}

			// 不正なトークンは401
			req := httptest.NewRequest(rt.method, rt.path, nil)
			req.Header.Set("X-Session-ID", "bogus-token")
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("with invalid token: status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			body := decodeErrorBody(t, w)
			if body.Category != "auth" {
				t.Errorf("category = %q, want %q", body.Category, "auth")
			}
		})
	}
}

func TestRouter_ProtectedRoutes_ValidSession(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/api/survey/my-response", nil)
	req.Header.Set("X-Session-ID", "valid-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_AuthProfile_IsOutsideSessionMiddleware(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		AuthService: &mockAuthService{
			exchangeFn: func(ctx context.Context, providerSessionID string) (*auth.ExchangeResult, error) {
				return &auth.ExchangeResult{
					User:         auth.ProviderProfile{ID: "idp-1", Email: "a@example.com", Name: "A"},
					SessionToken: "fresh-token",
				}, nil
			},
		},
	})

	// IdPのセッションIDはサーバーセッションとして解決されない
	req := httptest.NewRequest(http.MethodPost, "/api/auth/profile", nil)
	req.Header.Set("X-Session-ID", "idp-session-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/survey/submit", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Session-ID") {
		t.Errorf("Access-Control-Allow-Headers = %q, should allow X-Session-ID", got)
	}
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"healthy", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &RouterDeps{HealthChecker: &mockHealthChecker{err: tt.err}})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.want {
				t.Errorf("GET /health status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	router := newTestRouter(t, &RouterDeps{Metrics: collector, MetricsGatherer: reg})

	// ステータスコードを記録させるためにリクエストを1件流す
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "hygienesurvey_http_status_total") {
		t.Error("metrics output should contain hygienesurvey_http_status_total")
	}
}

func TestRouter_UnknownRoute_Returns404Or405(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	// 存在しないルートには404か405が返ること
	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/unknown status = %d, want 404 or 405", w.Code)
	}
}
