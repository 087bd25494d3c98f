// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/hygienesurvey/internal/auth"
	"github.com/hitoshi/hygienesurvey/internal/middleware"
	"github.com/hitoshi/hygienesurvey/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Exchange(ctx context.Context, providerSessionID string) (*auth.ExchangeResult, error)
}

// AuthHandler は外部IdPとのセッション交換を扱うHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// Profile はIdPのセッションIDをサーバーセッショントークンに交換する。
// POST /api/auth/profile
//
// X-Session-IDヘッダーにはIdPが発行したセッションIDを指定する。
// ヘッダーが無い場合は422、IdPとの交換に失敗した場合は401を返す。
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	providerSessionID := r.Header.Get(middleware.SessionHeader)
	if providerSessionID == "" {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, model.NewMissingSessionHeaderError())
		return
	}

	result, err := h.service.Exchange(r.Context(), providerSessionID)
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewAuthenticationFailedError())
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
