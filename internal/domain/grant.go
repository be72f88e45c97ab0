package domain

// TokenGrant is the successful result of exchanging an authorization code
// with the commerce platform.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	ExpiresIn   *int64 `json:"expires_in,omitempty"`
}
