// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/hygienesurvey/internal/auth"
	"github.com/hitoshi/hygienesurvey/internal/model"
)

// SessionHeader はセッショントークンを受け取るリクエストヘッダー名。
const SessionHeader = "X-Session-ID"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// SessionResolver はセッショントークンからユーザーを解決するインターフェース。
// auth.Resolverが実装する。
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// NewSessionMiddleware はX-Session-IDヘッダーからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// ヘッダーが無い場合は422、セッションが無効・期限切れ・ユーザー不在の場合は401を返す。
// 認証済みユーザーをリクエストコンテキストに注入する。
func NewSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(SessionHeader)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnprocessableEntity, model.NewMissingSessionHeaderError())
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if auth.IsAuthFailure(err) {
					slog.Debug("session rejected", slog.String("reason", err.Error()))
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	user, err := UserFromContext(ctx)
	if err != nil || user.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return user.ID, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// ロギングミドルウェアの内側で呼ばれた場合は、アクセスログにもユーザーIDを記録する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if state, ok := ctx.Value(requestStateKey).(*requestState); ok && user != nil {
		state.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}

// ContextWithUserID はユーザーIDのみを持つユーザーをコンテキストに注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return ContextWithUser(ctx, &model.User{ID: userID})
}
