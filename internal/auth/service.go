package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/hygienesurvey/internal/metrics"
	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/hitoshi/hygienesurvey/internal/repository"
)

// DefaultSessionTTL はセッションの有効期間のデフォルト値（7日）。
const DefaultSessionTTL = 7 * 24 * time.Hour

// ErrAuthenticationFailed はIdPとのセッション交換に失敗したことを示す。
// ネットワーク障害・非200応答・不正なレスポンスのいずれもこのエラーになる。
var ErrAuthenticationFailed = errors.New("authentication failed")

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // セッション有効期間
}

// ExchangeResult はセッション交換の結果。
// userにはIdPから受け取ったプロフィールをそのまま返す。
type ExchangeResult struct {
	User         ProviderProfile `json:"user"`
	SessionToken string          `json:"session_token"`
}

// Service は外部IdPとのセッション交換を提供する。
type Service struct {
	provider    SessionDataProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
	config      ServiceConfig
	now         func() time.Time // テスト用に差し替え可能
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	provider SessionDataProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config ServiceConfig,
) *Service {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	return &Service{
		provider:    provider,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     collector,
		logger:      logger,
		config:      config,
		now:         time.Now,
	}
}

// Exchange はIdPのセッションIDをサーバーセッショントークンに交換する。
// 未登録のメールアドレスの場合のみIdPのプロフィールでユーザーを作成する。
// 登録済みユーザーの名前・画像はIdPの値で更新しない。
// 既存セッションの有無にかかわらず、常に新しいセッションを発行する。
func (s *Service) Exchange(ctx context.Context, providerSessionID string) (*ExchangeResult, error) {
	start := s.now()
	profile, err := s.provider.FetchSessionData(ctx, providerSessionID)
	s.recordLatency(s.now().Sub(start))
	if err != nil {
		s.recordOutcome(metrics.ExchangeOutcomeProviderFailed)
		s.logger.Warn("IdPとのセッション交換に失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	userID, err := s.ensureUser(ctx, profile)
	if err != nil {
		s.recordOutcome(metrics.ExchangeOutcomeStoreFailed)
		return nil, err
	}

	token, err := generateSessionToken()
	if err != nil {
		s.recordOutcome(metrics.ExchangeOutcomeStoreFailed)
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.recordOutcome(metrics.ExchangeOutcomeStoreFailed)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.recordOutcome(metrics.ExchangeOutcomeSuccess)
	s.logger.Info("session issued",
		slog.String("user_id", userID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return &ExchangeResult{
		User:         *profile,
		SessionToken: token,
	}, nil
}

// ensureUser はメールアドレスでユーザーを検索し、存在しなければ作成する。
// セッションに紐づけるユーザーIDを返す。
func (s *Service) ensureUser(ctx context.Context, profile *ProviderProfile) (string, error) {
	existing, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		return "", fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		s.logger.Info("existing user logged in", slog.String("user_id", existing.ID))
		return existing.ID, nil
	}

	user := &model.User{
		ID:        profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Picture:   profile.Picture,
		CreatedAt: s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("new user created", slog.String("user_id", user.ID))
	return user.ID, nil
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordIdentityExchange(outcome)
	}
}

func (s *Service) recordLatency(d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordProviderLatency(d)
	}
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する。
func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
