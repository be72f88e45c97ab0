package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"voxcart-core-auth-layer/internal/domain"
)

var errRepoDown = errors.New("connection refused")

// nopMetrics satisfies ports.Metrics for tests that do not assert counters.
type nopMetrics struct{}

func (nopMetrics) FlowBegun()          {}
func (nopMetrics) FlowCompleted()      {}
func (nopMetrics) FlowFailed(string)   {}
func (nopMetrics) StateTierHit(string) {}
func (nopMetrics) StateMiss()          {}
func (nopMetrics) StateTier1Error()    {}

// recordingMetrics captures failure kinds and tier hits for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	failures []string
	tierHits []string
	misses   int
}

func (m *recordingMetrics) FlowBegun()     {}
func (m *recordingMetrics) FlowCompleted() {}
func (m *recordingMetrics) FlowFailed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, kind)
}
func (m *recordingMetrics) StateTierHit(tier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tierHits = append(m.tierHits, tier)
}
func (m *recordingMetrics) StateMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}
func (m *recordingMetrics) StateTier1Error() {}

// fakeStateRepository is an in-memory stand-in for the durable state tier
// with switchable failure injection.
type fakeStateRepository struct {
	mu       sync.Mutex
	records  map[string]*domain.OAuthStateRecord
	failing  bool
	putCalls int
	getCalls int
}

func newFakeStateRepository() *fakeStateRepository {
	return &fakeStateRepository{records: make(map[string]*domain.OAuthStateRecord)}
}

func (f *fakeStateRepository) Put(ctx context.Context, record *domain.OAuthStateRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.failing {
		return errRepoDown
	}
	clone := *record
	f.records[record.Shop] = &clone
	return nil
}

func (f *fakeStateRepository) Get(ctx context.Context, shop string) (*domain.OAuthStateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failing {
		return nil, errRepoDown
	}
	record, ok := f.records[shop]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (f *fakeStateRepository) MarkUsed(ctx context.Context, shop string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errRepoDown
	}
	if record, ok := f.records[shop]; ok {
		record.MarkUsed()
	}
	return nil
}

func (f *fakeStateRepository) DeleteExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (f *fakeStateRepository) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *fakeStateRepository) record(shop string) *domain.OAuthStateRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[shop]
	if !ok {
		return nil
	}
	clone := *record
	return &clone
}

func (f *fakeStateRepository) gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func (f *fakeStateRepository) puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCalls
}

// fakeStateCache is a plain concurrent map without expiry, enough for the
// store's tier ordering logic.
type fakeStateCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeStateCache() *fakeStateCache {
	return &fakeStateCache{entries: make(map[string]string)}
}

func (f *fakeStateCache) Put(shop, nonce string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[shop] = nonce
}

func (f *fakeStateCache) Get(shop string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	nonce, ok := f.entries[shop]
	return nonce, ok
}

func (f *fakeStateCache) Delete(shop string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, shop)
}

// fakeSessionRepository is an in-memory SessionRepository.
type fakeSessionRepository struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	failStore bool
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepository) Store(ctx context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStore {
		return errors.New("write failed")
	}
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeSessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessionRepository) Delete(ctx context.Context, shop string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, session := range f.sessions {
		if session.Shop == shop {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionRepository) session(id string) *domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil
	}
	clone := *session
	return &clone
}

// fakePlatform scripts the provider's side of the flow. Grants are single
// use, exchanging the same code twice reproduces the provider's consumed
// code rejection.
type fakePlatform struct {
	mu            sync.Mutex
	verifyOK      bool
	verifyErr     error
	grants        map[string]*domain.TokenGrant
	exchangeErr   error
	exchangeCalls int
	getShopErr    error
	getShopCalls  int
	lastState     string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		verifyOK: true,
		grants:   make(map[string]*domain.TokenGrant),
	}
}

func (f *fakePlatform) AuthorizeURL(shop, state string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastState = state
	return fmt.Sprintf("https://%s/oauth/authorize?client_id=test-key&state=%s", shop, state)
}

func (f *fakePlatform) VerifyCallback(rawQuery string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return f.verifyOK, nil
}

func (f *fakePlatform) ExchangeCode(ctx context.Context, shop, code string) (*domain.TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	grant, ok := f.grants[code]
	if !ok {
		return nil, &domain.ProviderError{
			Code:         "invalid_request",
			Description:  "The authorization code is invalid or has expired",
			CodeConsumed: true,
		}
	}
	delete(f.grants, code)
	return grant, nil
}

func (f *fakePlatform) GetShop(ctx context.Context, shop, accessToken string) (*goshopify.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getShopCalls++
	if f.getShopErr != nil {
		return nil, f.getShopErr
	}
	return &goshopify.Shop{Name: shop}, nil
}

func (f *fakePlatform) addGrant(code string, grant *domain.TokenGrant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants[code] = grant
}

func (f *fakePlatform) exchanges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeCalls
}

func (f *fakePlatform) issuedState() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastState
}

// serviceFixture wires an AuthService over fakes with a fresh state store.
type serviceFixture struct {
	repo     *fakeStateRepository
	cache    *fakeStateCache
	sessions *fakeSessionRepository
	platform *fakePlatform
	states   *StateStore
	service  *AuthService
}

func newServiceFixture() *serviceFixture {
	repo := newFakeStateRepository()
	cache := newFakeStateCache()
	sessions := newFakeSessionRepository()
	platform := newFakePlatform()
	states := NewStateStore(repo, cache, nopMetrics{}, zerolog.Nop(), 10*time.Minute, false)
	return &serviceFixture{
		repo:     repo,
		cache:    cache,
		sessions: sessions,
		platform: platform,
		states:   states,
		service:  NewAuthService(states, sessions, platform, nopMetrics{}, zerolog.Nop(), "https://app.example.com", false),
	}
}
