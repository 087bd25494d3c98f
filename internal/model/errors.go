// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, survey, system
	Action   string   // ユーザー向け対処方法
	Fields   []string // バリデーションエラー時の対象フィールド
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeMissingSessionHeader = "MISSING_SESSION_HEADER"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeSurveyNotFound       = "SURVEY_NOT_FOUND"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewValidationError は必須フィールド欠落・型不一致のエラーを生成する。
func NewValidationError(fields []string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("Invalid or missing survey fields: %s", strings.Join(fields, ", ")),
		Category: "validation",
		Action:   "Fill in every survey field and submit again.",
		Fields:   fields,
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Request body is not valid JSON.",
		Category: "validation",
		Action:   "Send the survey as a JSON object.",
	}
}

// NewPayloadTooLargeError はリクエストボディが上限を超えた場合のエラーを生成する。
func NewPayloadTooLargeError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodePayloadTooLarge,
		Message:  fmt.Sprintf("Request body exceeds %d bytes.", limit),
		Category: "validation",
		Action:   "Shorten the free-text answers and submit again.",
	}
}

// NewMissingSessionHeaderError はX-Session-IDヘッダーが無い場合のエラーを生成する。
func NewMissingSessionHeaderError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingSessionHeader,
		Message:  "X-Session-ID header is required.",
		Category: "validation",
		Action:   "Include the X-Session-ID header in the request.",
		Fields:   []string{"X-Session-ID"},
	}
}

// NewUnauthorizedError は認証失敗のエラーを生成する。
// ストア内部の状態を漏らさないよう、失敗理由の詳細は含めない。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Invalid session.",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewAuthenticationFailedError は外部IdPとのセッション交換に失敗した場合のエラーを生成する。
func NewAuthenticationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthenticationFailed,
		Message:  "Authentication failed.",
		Category: "auth",
		Action:   "Start the login flow again.",
	}
}

// NewSurveyNotFoundError はアンケート未回答のユーザーが分析を要求した場合のエラーを生成する。
func NewSurveyNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSurveyNotFound,
		Message:  "No survey found",
		Category: "survey",
		Action:   "Submit the survey before requesting analytics.",
	}
}

// NewRateLimitError はレート制限超過のエラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Wait for the Retry-After period and retry.",
	}
}

// NewInternalError は内部エラーの汎用レスポンスを生成する。原因はログにのみ残す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
