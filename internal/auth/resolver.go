// Package auth はセッショントークンの解決と外部IdPとのセッション交換を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/hitoshi/hygienesurvey/internal/repository"
)

// セッション解決の失敗理由。いずれもリクエストに対して終端的で、再試行しない。
var (
	// ErrMissingToken はトークンが指定されていないことを示す。
	ErrMissingToken = errors.New("session token is missing")
	// ErrInvalidToken は一致するセッションが存在しないことを示す。
	ErrInvalidToken = errors.New("session token is invalid")
	// ErrExpiredToken はセッションの有効期限切れを示す。該当セッションは削除済み。
	ErrExpiredToken = errors.New("session token has expired")
	// ErrUserNotFound はセッションが参照するユーザーが存在しないことを示す。
	ErrUserNotFound = errors.New("session user not found")
)

// IsAuthFailure はerrがセッション解決の失敗理由のいずれかであるかを返す。
// ストアの障害など、それ以外のエラーではfalseを返す。
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrUserNotFound)
}

// Resolver はセッショントークンからユーザーを解決する。
type Resolver struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	logger      *slog.Logger
	now         func() time.Time // テスト用に差し替え可能
}

// NewResolver はResolverを生成する。
func NewResolver(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, logger *slog.Logger) *Resolver {
	return &Resolver{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Resolve はトークンに対応するユーザーを返す。
// 有効期限は呼び出しごとに現在時刻と比較し、期限切れのセッションはその場で削除する。
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	session, err := r.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	if session.IsExpired(r.now()) {
		if err := r.sessionRepo.DeleteByToken(ctx, token); err != nil {
			// 削除に失敗しても期限切れとして扱う。残ったセッションはクリーンアップジョブが回収する。
			r.logger.Warn("期限切れセッションの削除に失敗しました",
				slog.String("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, ErrExpiredToken
	}

	user, err := r.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		r.logger.Error("セッションが存在しないユーザーを参照しています",
			slog.String("user_id", session.UserID),
		)
		return nil, ErrUserNotFound
	}

	return user, nil
}
