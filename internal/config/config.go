// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultIdentityProviderURL はセッションデータを取得するIdPエンドポイントのデフォルト値。
	DefaultIdentityProviderURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"
	// DefaultServerPort はAPIサーバーの待ち受けポート。
	DefaultServerPort = "8001"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Identity Provider
	IdentityProviderURL     string
	IdentityProviderTimeout time.Duration

	// Session
	SessionTTL time.Duration

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitSubmit  int

	// Worker
	CleanupInterval time.Duration

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.ServerPort = getEnvString("SERVER_PORT", DefaultServerPort)
	if n, err := strconv.Atoi(cfg.ServerPort); err != nil || n < 1 || n > 65535 {
		return nil, fmt.Errorf("invalid SERVER_PORT: %q", cfg.ServerPort)
	}

	// Optional fields with defaults
	cfg.IdentityProviderURL = getEnvString("IDENTITY_PROVIDER_URL", DefaultIdentityProviderURL)
	cfg.IdentityProviderTimeout = getEnvDuration("IDENTITY_PROVIDER_TIMEOUT", 10*time.Second)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 10)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

// RedactedDatabaseURL はパスワードを伏せたDATABASE_URLを返す。
func (c *Config) RedactedDatabaseURL() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}

// LogValue は起動ログ用に資格情報を伏せた設定値を返す。
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("database_url", c.RedactedDatabaseURL()),
		slog.String("identity_provider_url", c.IdentityProviderURL),
		slog.Duration("identity_provider_timeout", c.IdentityProviderTimeout),
		slog.Duration("session_ttl", c.SessionTTL),
		slog.Int("rate_limit_general", c.RateLimitGeneral),
		slog.Int("rate_limit_submit", c.RateLimitSubmit),
		slog.Duration("cleanup_interval", c.CleanupInterval),
		slog.String("server_port", c.ServerPort),
		slog.String("cors_allowed_origin", c.CORSAllowedOrigin),
	)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvInt は正の整数のみ受け付け、それ以外はデフォルト値を返す。
func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

// getEnvDuration は正の期間のみ受け付け、それ以外はデフォルト値を返す。
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
