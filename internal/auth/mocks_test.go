package auth

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/hygienesurvey/internal/metrics"
	"github.com/hitoshi/hygienesurvey/internal/model"
	"github.com/hitoshi/hygienesurvey/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

// memorySessionRepo はセッションをメモリ上に保持するSessionRepositoryのフェイク。
type memorySessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*model.Session
	findErr   error
	createErr error
	deleteErr error
}

func newMemorySessionRepo(sessions ...*model.Session) *memorySessionRepo {
	r := &memorySessionRepo{sessions: make(map[string]*model.Session)}
	for _, s := range sessions {
		r.sessions[s.Token] = s
	}
	return r
}

func (r *memorySessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.sessions[session.Token] = session
	return nil
}

func (r *memorySessionRepo) FindByToken(_ context.Context, token string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.sessions[token], nil
}

func (r *memorySessionRepo) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.sessions, token)
	return nil
}

func (r *memorySessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, s := range r.sessions {
		if s.IsExpired(now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

func (r *memorySessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type mockProvider struct {
	fetchFn func(ctx context.Context, providerSessionID string) (*ProviderProfile, error)
}

func (m *mockProvider) FetchSessionData(ctx context.Context, providerSessionID string) (*ProviderProfile, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, providerSessionID)
	}
	return nil, nil
}

// recordingMetrics はセッション交換の結果のみを記録するMetricsCollectorのフェイク。
type recordingMetrics struct {
	outcomes  []string
	latencies int
}

func (m *recordingMetrics) RecordSurveySubmitted() {}
func (m *recordingMetrics) RecordAnalyticsServed() {}
func (m *recordingMetrics) RecordHTTPStatus(int) {}
func (m *recordingMetrics) RecordSessionsExpired(int64) {}
func (m *recordingMetrics) RecordProviderLatency(_ time.Duration) { m.latencies++ }
func (m *recordingMetrics) RecordIdentityExchange(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.SessionRepository = (*memorySessionRepo)(nil)
var _ SessionDataProvider = (*mockProvider)(nil)
var _ metrics.MetricsCollector = (*recordingMetrics)(nil)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
