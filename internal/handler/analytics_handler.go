package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/hygienesurvey/internal/analytics"
)

// AnalyticsServiceInterface は分析ハンドラーが必要とするサービスインターフェース。
type AnalyticsServiceInterface interface {
	Analyze(ctx context.Context, userID string) (*analytics.Result, error)
}

// AnalyticsHandler は分析結果のHTTPハンドラー。
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
}

// NewAnalyticsHandler はAnalyticsHandlerを生成する。
func NewAnalyticsHandler(service AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// Analytics は本人の回答・地域統計・改善提案を返す。
// GET /api/survey/analytics
//
// 未回答の場合は404を返す。
func (h *AnalyticsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Analyze(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
