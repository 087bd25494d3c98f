package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	// DefaultProviderEndpoint は外部IdPのセッションデータ取得エンドポイント。
	DefaultProviderEndpoint = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"
	// maxProviderResponseSize はIdPレスポンスボディの読み取り上限（1MB）。
	maxProviderResponseSize = 1 << 20
	// sessionIDHeader はIdPのセッションIDを渡すヘッダー名。
	sessionIDHeader = "X-Session-ID"
)

// ErrProviderRejected はIdPが200以外のステータスを返したことを示す。
var ErrProviderRejected = errors.New("identity provider rejected the session")

// ProviderProfile は外部IdPから取得したユーザープロフィール。
type ProviderProfile struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Picture *string `json:"picture"`
}

// SessionDataProvider は外部IdPのセッションIDをユーザープロフィールに交換するインターフェース。
type SessionDataProvider interface {
	// FetchSessionData はIdPを1回だけ呼び出してプロフィールを取得する。再試行は行わない。
	FetchSessionData(ctx context.Context, providerSessionID string) (*ProviderProfile, error)
}

// HTTPSessionDataProvider はHTTPでIdPを呼び出すSessionDataProviderの実装。
type HTTPSessionDataProvider struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

// NewHTTPSessionDataProvider はHTTPSessionDataProviderを生成する。
// タイムアウトはhttpClient側で設定する。endpointが空の場合はDefaultProviderEndpointを使う。
func NewHTTPSessionDataProvider(httpClient *http.Client, endpoint string, logger *slog.Logger) *HTTPSessionDataProvider {
	if endpoint == "" {
		endpoint = DefaultProviderEndpoint
	}
	return &HTTPSessionDataProvider{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
	}
}

// FetchSessionData はGETリクエストにX-Session-IDヘッダーを付けてIdPを呼び出す。
func (p *HTTPSessionDataProvider) FetchSessionData(ctx context.Context, providerSessionID string) (*ProviderProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set(sessionIDHeader, providerSessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("IdPの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("IdPがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	var profile ProviderProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		p.logger.Error("IdPレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}

	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("provider response is missing id or email")
	}

	return &profile, nil
}

// compile-time interface check
var _ SessionDataProvider = (*HTTPSessionDataProvider)(nil)
