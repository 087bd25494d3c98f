package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/hygienesurvey/internal/analytics"
	"github.com/hitoshi/hygienesurvey/internal/auth"
	"github.com/hitoshi/hygienesurvey/internal/middleware"
	"github.com/hitoshi/hygienesurvey/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	exchangeFn func(ctx context.Context, providerSessionID string) (*auth.ExchangeResult, error)
}

func (m *mockAuthService) Exchange(ctx context.Context, providerSessionID string) (*auth.ExchangeResult, error) {
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, providerSessionID)
	}
	return nil, auth.ErrAuthenticationFailed
}

// mockSurveyService はSurveyServiceInterfaceのモック実装。
type mockSurveyService struct {
	submitFn  func(ctx context.Context, userID string, answers *model.SurveyAnswers) (*model.SurveyResponse, error)
	getMineFn func(ctx context.Context, userID string) (*model.SurveyResponse, error)
}

func (m *mockSurveyService) Submit(ctx context.Context, userID string, answers *model.SurveyAnswers) (*model.SurveyResponse, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, answers)
	}
	return &model.SurveyResponse{ID: "survey-1", UserID: userID, SurveyAnswers: *answers}, nil
}

func (m *mockSurveyService) GetMine(ctx context.Context, userID string) (*model.SurveyResponse, error) {
	if m.getMineFn != nil {
		return m.getMineFn(ctx, userID)
	}
	return nil, nil
}

// mockAnalyticsService はAnalyticsServiceInterfaceのモック実装。
type mockAnalyticsService struct {
	analyzeFn func(ctx context.Context, userID string) (*analytics.Result, error)
}

func (m *mockAnalyticsService) Analyze(ctx context.Context, userID string) (*analytics.Result, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, userID)
	}
	return nil, model.NewSurveyNotFoundError()
}

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

var (
	_ AuthServiceInterface      = (*mockAuthService)(nil)
	_ SurveyServiceInterface    = (*mockSurveyService)(nil)
	_ AnalyticsServiceInterface = (*mockAnalyticsService)(nil)
	_ HealthChecker             = (*mockHealthChecker)(nil)
)

// --- ヘルパー ---

// withUserID はテスト用にコンテキストへユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// surveyPayload は全フィールドが非トリガー値で埋まった送信ボディを返す。
// overridesで個別のフィールドを上書きできる。
func surveyPayload(overrides map[string]any) map[string]any {
	payload := make(map[string]any, len(model.SurveyFields))
	for _, field := range model.SurveyFields {
		payload[field] = "Yes"
	}
	payload["village_name"] = "Rampur"
	payload["date"] = "2026-03-01"
	payload["respondent_age"] = 35
	payload["doctor_visits"] = "Monthly"
	payload["hand_washing"] = "Always"
	payload["toilet_facility"] = "Private toilet"
	payload["additional_comments"] = ""
	for k, v := range overrides {
		payload[k] = v
	}
	return payload
}

// jsonBody はvalueをJSONエンコードしたリクエストボディを返す。
func jsonBody(t *testing.T, value any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

// decodeErrorBody はエラーレスポンスボディを解析する。
func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
