// Package security は外部入力と外部呼び出しに対する防御を提供する。
package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// OutboundGuard は外部IdPへのリクエストを安全に行うための検証とクライアント生成を定義する。
type OutboundGuard interface {
	// NewSafeClient は接続先IPをダイヤル時に検証するHTTPクライアントを返す。
	NewSafeClient(timeout time.Duration) *http.Client
	// ValidateURL は設定されたエンドポイントURLを起動時に静的に検証する。
	ValidateURL(rawURL string) error
}

// 起動時検証のエラー。
var (
	ErrDisallowedScheme = errors.New("disallowed url scheme")
	ErrDisallowedPort   = errors.New("disallowed url port")
	ErrBlockedHost      = errors.New("blocked host")
	ErrEmbeddedUserInfo = errors.New("url must not embed credentials")
)

var (
	outboundSchemes = []string{"http", "https"}
	outboundPorts   = []int{80, 443}
)

// privateRanges はIdPエンドポイントとして拒否するアドレス範囲。
// 169.254.0.0/16 はクラウドのメタデータエンドポイントを含む。
var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// internalHostSuffixes はDNS上で内部向けに解決されうるホスト名の接尾辞。
var internalHostSuffixes = []string{".localhost", ".internal", ".local"}

type outboundGuard struct{}

// NewOutboundGuard はOutboundGuardを生成する。
func NewOutboundGuard() OutboundGuard {
	return outboundGuard{}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを返す。
// DNS解決後のIPをDialerのControlフックで検証するため、ValidateURLを通過した
// ホスト名が後から内部アドレスに解決された場合もここで遮断される。
func (outboundGuard) NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(outboundSchemes...).
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(cfg).Client
}

func (outboundGuard) ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("empty url")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if !containsFold(outboundSchemes, u.Scheme) {
		return fmt.Errorf("%w: %q", ErrDisallowedScheme, u.Scheme)
	}
	if u.User != nil {
		return ErrEmbeddedUserInfo
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrBlockedHost)
	}
	if p := u.Port(); p != "" {
		if err := checkPort(p); err != nil {
			return err
		}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isPrivateAddr(addr) {
			return fmt.Errorf("%w: %s", ErrBlockedHost, addr)
		}
		return nil
	}

	if isInternalHostname(host) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}
	return nil
}

func checkPort(raw string) error {
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrDisallowedPort, raw)
	}
	for _, allowed := range outboundPorts {
		if int(n) == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrDisallowedPort, n)
}

func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsLoopback() {
		return true
	}
	for _, prefix := range privateRanges {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func isInternalHostname(host string) bool {
	h := strings.TrimSuffix(strings.ToLower(host), ".")
	if h == "localhost" {
		return true
	}
	for _, suffix := range internalHostSuffixes {
		if strings.HasSuffix(h, suffix) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
