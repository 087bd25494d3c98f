package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/hygienesurvey/internal/model"
	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit // API全般（req/sec）
	GeneralBurst    int
	SubmitRate      rate.Limit // アンケート送信（req/sec）
	SubmitBurst     int
	CleanupInterval time.Duration // アイドルなキーを掃除する間隔
}

// DefaultRateLimiterConfig は120 req/min（全般）と10 req/min（送信）の設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(120, 10)
}

// NewRateLimiterConfig は1分あたりの上限から設定を生成する。
// バーストは1分ぶんの上限と同じにし、1分間の合計が上限を超えないようにする。
func NewRateLimiterConfig(generalPerMinute, submitPerMinute int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     perMinute(generalPerMinute),
		GeneralBurst:    generalPerMinute,
		SubmitRate:      perMinute(submitPerMinute),
		SubmitBurst:     submitPerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60)
}

// keyedLimiter はキーごとのトークンバケットを保持する。
type keyedLimiter struct {
	name  string
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(name string, limit rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{
		name:    name,
		limit:   limit,
		burst:   burst,
		buckets: make(map[string]*bucket),
	}
}

// allow はkeyのバケットから1トークン消費する。
// 拒否した場合は次のトークンが補充されるまでの待ち時間を返す。
func (k *keyedLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	k.mu.Lock()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	k.mu.Unlock()

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// evictIdle はidleより長く使われていないキーを削除する。
func (k *keyedLimiter) evictIdle(now time.Time, idle time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, b := range k.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(k.buckets, key)
		}
	}
}

func (k *keyedLimiter) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// RateLimiter はAPI全般とアンケート送信の2系統のレート制限を提供する。
// 認証済みリクエストはユーザー単位、未認証はクライアントIP単位で数える。
type RateLimiter struct {
	config  RateLimiterConfig
	general *keyedLimiter
	submit  *keyedLimiter
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter はRateLimiterを生成し、アイドルキーの掃除をバックグラウンドで開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newKeyedLimiter("general", config.GeneralRate, config.GeneralBurst),
		submit:  newKeyedLimiter("survey_submit", config.SubmitRate, config.SubmitBurst),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop はバックグラウンドの掃除を停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general)
}

// SubmitMiddleware はアンケート送信専用のレート制限ミドルウェアを返す。
// GeneralMiddlewareとは別のバケットを使う。
func (rl *RateLimiter) SubmitMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.submit)
}

func (rl *RateLimiter) middleware(k *keyedLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)
			ok, wait := k.allow(key, rl.now())
			if !ok {
				slog.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("limit_type", k.name),
					slog.Duration("retry_after", wait),
				)
				writeRateLimitResponse(w, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount はAPI全般で保持しているキー数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int { return rl.general.len() }

// SubmitLimiterCount はアンケート送信で保持しているキー数を返す。
func (rl *RateLimiter) SubmitLimiterCount() int { return rl.submit.len() }

// limiterKey は認証済みなら"user:<id>"、未認証なら"ip:<host>"を返す。
func limiterKey(r *http.Request) string {
	if userID, err := UserIDFromContext(r.Context()); err == nil {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := rl.now()
			idle := 2 * rl.config.CleanupInterval
			rl.general.evictIdle(now, idle)
			rl.submit.evictIdle(now, idle)
		case <-rl.stopCh:
			return
		}
	}
}

// writeRateLimitResponse は429とRetry-After（秒、切り上げ）を書き込む。
func writeRateLimitResponse(w http.ResponseWriter, wait time.Duration) {
	sec := int(math.Ceil(wait.Seconds()))
	if sec < 1 {
		sec = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(sec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitError())
}
