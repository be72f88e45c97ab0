package ports

import (
	"context"

	goshopify "github.com/bold-commerce/go-shopify/v4"

	"voxcart-core-auth-layer/internal/domain"
)

// PlatformClient defines the interface for talking to the commerce platform
// during an authorization flow.
type PlatformClient interface {
	// AuthorizeURL builds the shop-specific consent page URL carrying the
	// configured scopes, the redirect URI and the state nonce.
	AuthorizeURL(shop, state string) string
	// VerifyCallback checks the platform's HMAC signature over the raw
	// callback query. A missing or mismatched signature returns false, a
	// query string that cannot be parsed returns an error.
	VerifyCallback(rawQuery string) (bool, error)
	// ExchangeCode redeems an authorization code for an access token. It
	// performs exactly one attempt, retrying is the caller's decision.
	ExchangeCode(ctx context.Context, shop, code string) (*domain.TokenGrant, error)
	// GetShop fetches the shop resource with a freshly issued token, used to
	// verify a token actually works before the install is reported complete.
	GetShop(ctx context.Context, shop, accessToken string) (*goshopify.Shop, error)
}
