package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/hitoshi/hygienesurvey/internal/survey"
)

// SurveyServiceInterface はアンケートハンドラーが必要とするサービスインターフェース。
type SurveyServiceInterface interface {
	// Submit は回答を検証・保存する。既存の回答は丸ごと置き換えられる。
	Submit(ctx context.Context, userID string, answers *model.SurveyAnswers) (*model.SurveyResponse, error)
	// GetMine は本人の回答を返す。未回答の場合はnilを返す。
	GetMine(ctx context.Context, userID string) (*model.SurveyResponse, error)
}

// SurveyHandler はアンケート回答のHTTPハンドラー。
type SurveyHandler struct {
	service SurveyServiceInterface
}

// NewSurveyHandler はSurveyHandlerを生成する。
func NewSurveyHandler(service SurveyServiceInterface) *SurveyHandler {
	return &SurveyHandler{
		service: service,
	}
}

// submitResponse はアンケート送信のAPIレスポンス。
type submitResponse struct {
	Message  string `json:"message"`
	SurveyID string `json:"survey_id"`
}

// myResponseResponse は本人の回答取得のAPIレスポンス。未回答の場合surveyはnull。
type myResponseResponse struct {
	Survey *model.SurveyResponse `json:"survey"`
}

// Submit はアンケート回答を受け付ける。
// POST /api/survey/submit
func (h *SurveyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	answers, err := survey.DecodeAnswers(r.Body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	saved, err := h.service.Submit(r.Context(), userID, answers)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Message:  "Survey submitted successfully",
		SurveyID: saved.ID,
	})
}

// MyResponse は本人の回答を返す。
// GET /api/survey/my-response
func (h *SurveyHandler) MyResponse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	mine, err := h.service.GetMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, myResponseResponse{Survey: mine})
}
