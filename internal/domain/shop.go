package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultShopSuffix is appended to bare shop handles ("my-store" becomes
// "my-store.myshopify.com") so merchants can start an install without typing
// the full domain.
const defaultShopSuffix = ".myshopify.com"

const maxShopDomainLength = 255

// shopDomainPattern matches a lowercase hostname: dot-separated labels of
// letters, digits and hyphens, with at least two labels.
var shopDomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// NormalizeShopDomain canonicalizes a merchant-supplied shop identifier into
// the hostname used for provider endpoints and storage keys. It lowercases,
// strips any scheme and path, appends the platform suffix to bare handles and
// validates the result as a hostname. The returned error is a ValidationError.
func NormalizeShopDomain(raw string) (string, error) {
	shop := strings.ToLower(strings.TrimSpace(raw))
	if shop == "" {
		return "", &ValidationError{Field: "shop", Reason: "shop domain is required"}
	}

	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	if idx := strings.IndexAny(shop, "/?#"); idx >= 0 {
		shop = shop[:idx]
	}

	if !strings.Contains(shop, ".") {
		shop += defaultShopSuffix
	}

	if len(shop) > maxShopDomainLength {
		return "", &ValidationError{Field: "shop", Reason: "shop domain exceeds maximum length"}
	}
	if !shopDomainPattern.MatchString(shop) {
		return "", &ValidationError{Field: "shop", Reason: fmt.Sprintf("invalid shop domain %q", shop)}
	}

	return shop, nil
}
