package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/hygienesurvey/internal/analytics"
	"github.com/hitoshi/hygienesurvey/internal/model"
)

func TestAnalyticsHandler_Analytics_Success(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyticsService{
		analyzeFn: func(ctx context.Context, userID string) (*analytics.Result, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return &analytics.Result{
				UserResponses: analytics.UserResponses{
					HealthPractices: map[string]string{"hand_washing": "Always"},
					AccessIssues:    map[string]string{"medicines_available": "Yes"},
				},
				CommunityStats: analytics.CommunityStats{
					"clean_water_access": {"Yes": 50.0, "No, access is very limited": 50.0},
				},
				Suggestions:    analytics.Suggest(&model.SurveyAnswers{}),
				TotalResponses: 2,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/survey/analytics", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Analytics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"user_responses", "community_stats", "suggestions", "total_responses"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response is missing %q", key)
		}
	}

	var stats map[string]map[string]float64
	if err := json.Unmarshal(body["community_stats"], &stats); err != nil {
		t.Fatalf("failed to decode community_stats: %v", err)
	}
	if stats["clean_water_access"]["Yes"] != 50.0 {
		t.Errorf("clean_water_access[Yes] = %v, want 50.0", stats["clean_water_access"]["Yes"])
	}
}

func TestAnalyticsHandler_Analytics_NoSurvey_Returns404(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyticsService{
		analyzeFn: func(ctx context.Context, userID string) (*analytics.Result, error) {
			return nil, model.NewSurveyNotFoundError()
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/survey/analytics", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Analytics(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	body := decodeErrorBody(t, w)
	if body.Detail != "No survey found" {
		t.Errorf("detail = %q, want %q", body.Detail, "No survey found")
	}
}

func TestAnalyticsHandler_Analytics_StoreFailure_Returns500(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyticsService{
		analyzeFn: func(ctx context.Context, userID string) (*analytics.Result, error) {
			return nil, errors.New("failed to list surveys")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/survey/analytics", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Analytics(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAnalyticsHandler_Analytics_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyticsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/survey/analytics", nil)
	w := httptest.NewRecorder()

	h.Analytics(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
