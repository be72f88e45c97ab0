package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voxcart-core-auth-layer/internal/domain"
	"voxcart-core-auth-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// exchangeTimeout bounds the single token exchange request. The merchant is
// sitting on a redirect page while this runs, waiting longer than this is
// worse than failing.
const exchangeTimeout = 10 * time.Second

type client struct {
	apiKey      string
	apiSecret   string
	scopes      []string
	redirectURI string
	app         goshopify.App
	httpClient  *http.Client
	logger      zerolog.Logger

	// baseURL overrides the scheme and host used for OAuth endpoints.
	// Tests point it at a local server, production leaves it nil.
	baseURL func(shop string) string
}

// tokenRequest is the body posted to the token endpoint.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

// NewClient creates a new commerce platform client adapter.
func NewClient(apiKey, apiSecret string, scopes []string, redirectURI string, logger zerolog.Logger) ports.PlatformClient {
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
	}
	return &client{
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		scopes:      scopes,
		redirectURI: redirectURI,
		app:         app,
		httpClient:  &http.Client{Timeout: exchangeTimeout},
		logger:      logger,
	}
}

func (c *client) base(shop string) string {
	if c.baseURL != nil {
		return c.baseURL(shop)
	}
	return "https://" + shop
}

func (c *client) AuthorizeURL(shop string, state string) string {
	// The platform expects scopes comma-separated without spaces.
	scopesStr := strings.Join(c.scopes, ",")

	authURL := fmt.Sprintf(
		"%s/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		c.base(shop),
		c.apiKey,
		url.QueryEscape(scopesStr),
		url.QueryEscape(c.redirectURI),
		url.QueryEscape(state),
	)

	c.logger.Debug().
		Str("shop", shop).
		Str("scopes", scopesStr).
		Msg("Built authorization URL")

	return authURL
}

func (c *client) VerifyCallback(rawQuery string) (bool, error) {
	return VerifyHMAC(rawQuery, c.apiSecret)
}

func (c *client) ExchangeCode(ctx context.Context, shop string, code string) (*domain.TokenGrant, error) {
	if shop == "" {
		return nil, &domain.ValidationError{Field: "shop", Reason: "shop is required for token exchange"}
	}
	if code == "" {
		return nil, &domain.ValidationError{Field: "code", Reason: "authorization code is required"}
	}
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, &domain.ConfigurationError{Reason: "platform API credentials are not configured"}
	}

	payload, err := json.Marshal(tokenRequest{
		ClientID:     c.apiKey,
		ClientSecret: c.apiSecret,
		Code:         code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	tokenURL := c.base(shop) + "/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("shop", shop).
		Str("code", domain.RedactSecret(code)).
		Msg("Exchanging authorization code")

	// Exactly one delivery attempt, authorization codes are single-use.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransientError{Op: "token exchange", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransientError{Op: "token exchange response read", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		errCode, description := normalizeErrorBody(resp.StatusCode, body)
		return nil, &domain.ProviderError{
			Code:         errCode,
			Description:  description,
			CodeConsumed: descriptionIndicatesConsumedCode(description),
		}
	}

	var grant domain.TokenGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, &domain.ProviderError{
			Code:        "invalid_response",
			Description: fmt.Sprintf("failed to decode token response: %v", err),
		}
	}
	if grant.AccessToken == "" {
		return nil, &domain.ProviderError{
			Code:        "invalid_response",
			Description: "token response is missing access_token",
		}
	}

	c.logger.Info().
		Str("shop", shop).
		Str("scope", grant.Scope).
		Msg("Token exchange succeeded")

	return &grant, nil
}

func (c *client) GetShop(ctx context.Context, shopDomain string, accessToken string) (*goshopify.Shop, error) {
	apiClient, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	shop, err := apiClient.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return shop, nil
}
