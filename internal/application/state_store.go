package application

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voxcart-core-auth-layer/internal/domain"
	"voxcart-core-auth-layer/internal/ports"
)

// StateCookieName is the cookie carrying the browser tier of the state store.
const StateCookieName = "voxcart_oauth_state"

// DefaultStateTTL bounds how long an authorization attempt stays valid. It
// matches the provider's authorization code lifetime, holding state longer
// would only keep records no callback can ever redeem.
const DefaultStateTTL = 10 * time.Minute

// tier1RetryCooldown is how long the persistent tier is skipped after a
// failed operation before it is probed again.
const tier1RetryCooldown = 30 * time.Second

// tier1SweepEvery triggers an expiry sweep of the persistent tier on every
// Nth write.
const tier1SweepEvery = 64

// Tier names as they appear in metrics and logs.
const (
	tierPersistent = "persistent"
	tierMemory     = "memory"
	tierCookie     = "cookie"
)

// StateStore binds a shop to its in-flight authorization nonce across three
// redundant tiers: a durable repository, an in-process cache and a browser
// cookie. The cache and cookie always receive writes. The repository is best
// effort, an outage there is logged and counted but never fails a flow, and
// the store stops calling it for a cooldown once it is known unreachable.
type StateStore struct {
	repo    ports.StateRepository
	cache   ports.StateCache
	metrics ports.Metrics
	logger  zerolog.Logger

	ttl           time.Duration
	secureCookies bool

	mu             sync.Mutex
	tier1DownUntil time.Time
	putCount       uint64
}

// NewStateStore creates a state store over the given tiers.
func NewStateStore(repo ports.StateRepository, cache ports.StateCache, metrics ports.Metrics, logger zerolog.Logger, ttl time.Duration, secureCookies bool) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{
		repo:          repo,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		ttl:           ttl,
		secureCookies: secureCookies,
	}
}

// TTL returns the configured lifetime of an authorization attempt.
func (s *StateStore) TTL() time.Duration {
	return s.ttl
}

// Put records a new authorization attempt for a shop across the tiers and
// returns the cookie directive for the browser tier. A new attempt for the
// same shop replaces the previous one everywhere, latest nonce wins.
func (s *StateStore) Put(ctx context.Context, shop, nonce, requestIP, userAgent string) domain.CookieDirective {
	record := domain.NewOAuthStateRecord(shop, nonce, domain.CorrelationIDFromContext(ctx), s.ttl, requestIP, userAgent)

	s.cache.Put(shop, nonce, s.ttl)

	if s.tier1Available() {
		if err := s.repo.Put(ctx, record); err != nil {
			s.tier1Failed(shop, "store", err)
		}
	} else {
		s.logger.Debug().
			Str("shop", shop).
			Msg("Skipping persistent state tier while unreachable")
	}

	s.maybeSweep()

	return domain.SetCookie(StateCookieName, nonce, int(s.ttl.Seconds()), s.secureCookies)
}

// Get returns the pending nonce for a shop, trying the durable tier, then
// the in-process cache, then the cookie value supplied by the caller. A miss
// in every tier returns ErrStateNotFound. Whether the state never existed,
// expired, was already used or was forged is not distinguishable from the
// return value, only server-side logs keep that detail.
func (s *StateStore) Get(ctx context.Context, shop, cookieNonce string) (string, error) {
	if s.tier1Available() {
		record, err := s.repo.Get(ctx, shop)
		switch {
		case err != nil:
			s.tier1Failed(shop, "load", err)
		case record != nil && record.IsPending():
			s.metrics.StateTierHit(tierPersistent)
			return record.Nonce, nil
		case record != nil:
			s.logger.Info().
				Str("shop", shop).
				Str("status", string(record.Status)).
				Time("expires_at", record.ExpiresAt).
				Str("flow_id", record.FlowID).
				Msg("State record found but no longer pending")
		}
	}

	if nonce, ok := s.cache.Get(shop); ok {
		s.metrics.StateTierHit(tierMemory)
		return nonce, nil
	}

	if cookieNonce != "" {
		s.metrics.StateTierHit(tierCookie)
		s.logger.Debug().
			Str("shop", shop).
			Msg("State resolved from cookie tier")
		return cookieNonce, nil
	}

	s.metrics.StateMiss()
	s.logger.Warn().
		Str("shop", shop).
		Str("correlation_id", domain.CorrelationIDFromContext(ctx)).
		Msg("No authorization state found in any tier")

	return "", domain.ErrStateNotFound
}

// Delete ends a shop's authorization attempt after a completed callback. The
// cache entry is dropped, the durable record is marked used so the audit
// trail survives, and the returned directive clears the browser cookie.
// Deleting state that no longer exists is a no-op, never an error.
func (s *StateStore) Delete(ctx context.Context, shop string) domain.CookieDirective {
	s.cache.Delete(shop)

	if s.tier1Available() {
		if err := s.repo.MarkUsed(ctx, shop); err != nil {
			s.tier1Failed(shop, "mark used", err)
		}
	}

	return domain.ClearCookie(StateCookieName, s.secureCookies)
}

func (s *StateStore) tier1Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().After(s.tier1DownUntil)
}

// tier1Failed records a persistent tier failure and pauses traffic to it.
// The flow that carried the failure continues on the remaining tiers.
func (s *StateStore) tier1Failed(shop, op string, err error) {
	s.mu.Lock()
	s.tier1DownUntil = time.Now().Add(tier1RetryCooldown)
	s.mu.Unlock()

	s.metrics.StateTier1Error()
	s.logger.Warn().
		Err(err).
		Str("shop", shop).
		Str("op", op).
		Dur("cooldown", tier1RetryCooldown).
		Msg("Persistent state tier unavailable, continuing without it")
}

// maybeSweep starts an expiry sweep of the durable tier on every Nth write,
// detached from the request that triggered it.
func (s *StateStore) maybeSweep() {
	s.mu.Lock()
	s.putCount++
	due := s.putCount%tier1SweepEvery == 0
	s.mu.Unlock()
	if !due {
		return
	}

	go func() {
		if !s.tier1Available() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		removed, err := s.repo.DeleteExpired(ctx)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Msg("Failed to sweep expired state records")
			return
		}
		if removed > 0 {
			s.logger.Debug().
				Int("removed", removed).
				Msg("Swept expired state records")
		}
	}()
}
