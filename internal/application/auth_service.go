package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voxcart-core-auth-layer/internal/domain"
	"voxcart-core-auth-layer/internal/ports"
)

// Failure kinds recorded in metrics for failed flows.
const (
	failKindValidation    = "validation"
	failKindCsrf          = "csrf"
	failKindProvider      = "provider"
	failKindTransient     = "transient"
	failKindConfiguration = "configuration"
	failKindInternal      = "internal"
)

// Flow steps as they appear in log lines, in the order a flow passes them.
const (
	stepBegin       = "begin"
	stepCallback    = "callback"
	stepVerifyHmac  = "verify_hmac"
	stepStateLookup = "state_lookup"
	stepExchange    = "exchange"
	stepPersist     = "persist"
	stepVerifyToken = "verify_token"
	stepCleanup     = "cleanup"
)

// AuthService drives the OAuth authorization flow from the first redirect to
// a persisted session. Both entry points are stateless request handlers, the
// whole life of an in-flight flow between them lives in the state store.
type AuthService struct {
	states         *StateStore
	sessions       ports.SessionRepository
	platform       ports.PlatformClient
	metrics        ports.Metrics
	logger         zerolog.Logger
	appURL         string
	validateTokens bool
}

// NewAuthService creates a new auth service
func NewAuthService(states *StateStore, sessions ports.SessionRepository, platform ports.PlatformClient, metrics ports.Metrics, logger zerolog.Logger, appURL string, validateTokens bool) *AuthService {
	return &AuthService{
		states:         states,
		sessions:       sessions,
		platform:       platform,
		metrics:        metrics,
		logger:         logger,
		appURL:         strings.TrimSuffix(appURL, "/"),
		validateTokens: validateTokens,
	}
}

// BeginInput carries the merchant's install request.
type BeginInput struct {
	Shop      string
	RemoteIP  string
	UserAgent string
}

// BeginResult tells the HTTP layer where to send the merchant and which
// cookie to set on the way out.
type BeginResult struct {
	RedirectURL string
	Cookie      domain.CookieDirective
}

// CallbackInput carries the provider's callback. RawQuery is the query
// string exactly as received, signature verification re-canonicalizes it
// rather than trusting pre-parsed values.
type CallbackInput struct {
	RawQuery    string
	Shop        string
	Code        string
	State       string
	Host        string
	CookieNonce string
	RemoteIP    string
}

// CompleteResult tells the HTTP layer where to send the merchant after the
// install and which cookie to clear. The session itself stays inside the
// service boundary.
type CompleteResult struct {
	RedirectURL string
	ClearCookie domain.CookieDirective
}

// Begin starts an authorization flow: normalize and validate the shop, mint
// a nonce, record it across the state tiers and build the consent URL the
// merchant is redirected to.
func (s *AuthService) Begin(ctx context.Context, input BeginInput) (*BeginResult, error) {
	ctx, flowID := ensureCorrelationID(ctx)

	shop, err := domain.NormalizeShopDomain(input.Shop)
	if err != nil {
		s.metrics.FlowFailed(failKindValidation)
		s.logger.Warn().
			Err(err).
			Str("step", stepBegin).
			Str("flow_id", flowID).
			Msg("Rejected authorization request")
		return nil, err
	}

	nonce := domain.NewNonce()
	cookie := s.states.Put(ctx, shop, nonce, input.RemoteIP, input.UserAgent)
	redirectURL := s.platform.AuthorizeURL(shop, nonce)

	s.metrics.FlowBegun()
	s.logger.Info().
		Str("shop", shop).
		Str("step", stepBegin).
		Str("flow_id", flowID).
		Msg("Authorization flow started")

	return &BeginResult{RedirectURL: redirectURL, Cookie: cookie}, nil
}

// Complete finishes an authorization flow from the provider's callback. The
// checks run in a fixed order: input validation, signature, state lookup,
// nonce comparison, token exchange, session persistence, state cleanup. The
// signature check runs before any state access so forged callbacks cost no
// lookups. Every CSRF-related failure carries an internal reason but is
// indistinguishable to the caller.
func (s *AuthService) Complete(ctx context.Context, input CallbackInput) (*CompleteResult, error) {
	ctx, flowID := ensureCorrelationID(ctx)

	if input.Shop == "" || input.Code == "" || input.State == "" {
		err := &domain.ValidationError{Field: "callback", Reason: "shop, code and state parameters are required"}
		s.metrics.FlowFailed(failKindValidation)
		s.logger.Warn().
			Err(err).
			Str("step", stepCallback).
			Str("flow_id", flowID).
			Msg("Rejected incomplete callback")
		return nil, err
	}

	shop, err := domain.NormalizeShopDomain(input.Shop)
	if err != nil {
		s.metrics.FlowFailed(failKindValidation)
		s.logger.Warn().
			Err(err).
			Str("step", stepCallback).
			Str("flow_id", flowID).
			Msg("Rejected callback with invalid shop")
		return nil, err
	}

	ok, err := s.platform.VerifyCallback(input.RawQuery)
	if err != nil {
		s.metrics.FlowFailed(failKindValidation)
		s.logger.Warn().
			Err(err).
			Str("shop", shop).
			Str("step", stepVerifyHmac).
			Str("flow_id", flowID).
			Msg("Callback query could not be parsed")
		return nil, &domain.ValidationError{Field: "query", Reason: "callback query could not be parsed"}
	}
	if !ok {
		return nil, s.csrfFailure(shop, flowID, stepVerifyHmac, "hmac verification failed")
	}

	nonce, err := s.states.Get(ctx, shop, input.CookieNonce)
	if err != nil {
		return nil, s.csrfFailure(shop, flowID, stepStateLookup, "no pending authorization state")
	}
	if nonce != input.State {
		return nil, s.csrfFailure(shop, flowID, stepStateLookup, "state parameter does not match stored nonce")
	}

	grant, err := s.platform.ExchangeCode(ctx, shop, input.Code)
	if err != nil {
		kind := classifyFailure(err)
		s.metrics.FlowFailed(kind)
		s.logger.Error().
			Err(err).
			Str("shop", shop).
			Str("step", stepExchange).
			Str("flow_id", flowID).
			Str("kind", kind).
			Str("code", domain.RedactSecret(input.Code)).
			Msg("Token exchange failed")
		return nil, err
	}

	session := domain.NewSessionFromGrant(shop, grant.ExpiresIn != nil, grant)
	if err := s.sessions.Store(ctx, session); err != nil {
		s.metrics.FlowFailed(failKindInternal)
		s.logger.Error().
			Err(err).
			Str("shop", shop).
			Str("step", stepPersist).
			Str("flow_id", flowID).
			Msg("Failed to persist session")
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	if s.validateTokens {
		s.verifyToken(ctx, shop, session.AccessToken, flowID)
	}

	// Cleanup never rolls back the stored session, the credential is worth
	// more than the stale state record.
	clearCookie := s.states.Delete(ctx, shop)

	s.metrics.FlowCompleted()
	s.logger.Info().
		Str("shop", shop).
		Str("scope", session.Scope).
		Bool("online", session.IsOnline).
		Str("step", stepCleanup).
		Str("flow_id", flowID).
		Msg("Authorization flow completed")

	return &CompleteResult{
		RedirectURL: s.postInstallRedirect(shop, input.Host),
		ClearCookie: clearCookie,
	}, nil
}

// verifyToken makes one advisory call with the fresh token. A failure is
// logged, the session is already stored and the flow still counts as done.
func (s *AuthService) verifyToken(ctx context.Context, shop, accessToken, flowID string) {
	if _, err := s.platform.GetShop(ctx, shop, accessToken); err != nil {
		s.logger.Warn().
			Err(err).
			Str("shop", shop).
			Str("step", stepVerifyToken).
			Str("flow_id", flowID).
			Msg("Token verification against shop API failed")
		return
	}
	s.logger.Debug().
		Str("shop", shop).
		Str("step", stepVerifyToken).
		Str("flow_id", flowID).
		Msg("Token verified against shop API")
}

// csrfFailure logs the true cause and returns the uniform error. The reason
// never reaches a client.
func (s *AuthService) csrfFailure(shop, flowID, step, reason string) error {
	s.metrics.FlowFailed(failKindCsrf)
	s.logger.Warn().
		Str("shop", shop).
		Str("step", step).
		Str("flow_id", flowID).
		Str("reason", reason).
		Msg("Rejected unverifiable callback")
	return &domain.CsrfError{Reason: reason}
}

// postInstallRedirect sends the merchant back into the application with the
// shop identity on the URL, never the token.
func (s *AuthService) postInstallRedirect(shop, host string) string {
	q := url.Values{}
	q.Set("shop", shop)
	if host != "" {
		q.Set("host", host)
	}
	return s.appURL + "/?" + q.Encode()
}

// classifyFailure maps an error to the failure kind recorded in metrics.
func classifyFailure(err error) string {
	var (
		validationErr    *domain.ValidationError
		configurationErr *domain.ConfigurationError
		providerErr      *domain.ProviderError
		transientErr     *domain.TransientError
	)
	switch {
	case errors.As(err, &validationErr):
		return failKindValidation
	case errors.As(err, &configurationErr):
		return failKindConfiguration
	case errors.As(err, &providerErr):
		return failKindProvider
	case errors.As(err, &transientErr):
		return failKindTransient
	default:
		return failKindInternal
	}
}

// ensureCorrelationID threads one identifier through every log line of a
// flow, minting one when the transport did not already provide it.
func ensureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := domain.CorrelationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return domain.WithCorrelationID(ctx, id), id
}
