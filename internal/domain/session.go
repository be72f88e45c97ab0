package domain

import "time"

// Session represents an installed shop's OAuth session. The access token is
// only ever held in process memory and in the session repository (encrypted
// at rest), it is never written to logs or returned to clients.
type Session struct {
	ID          string     `json:"id"`
	Shop        string     `json:"shop"`
	IsOnline    bool       `json:"is_online"`
	Scope       string     `json:"scope"`
	AccessToken string     `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SessionID builds the composite identifier for a shop's session. A shop has
// at most one session per access mode, so a later install overwrites the
// earlier session rather than accumulating them.
func SessionID(shop string, isOnline bool) string {
	if isOnline {
		return shop + "_online"
	}
	return shop + "_offline"
}

// NewSessionFromGrant builds a session for a shop from a completed token
// exchange. Offline grants carry no expiry, online grants expire after the
// interval the provider reports.
func NewSessionFromGrant(shop string, isOnline bool, grant *TokenGrant) *Session {
	s := &Session{
		ID:          SessionID(shop, isOnline),
		Shop:        shop,
		IsOnline:    isOnline,
		Scope:       grant.Scope,
		AccessToken: grant.AccessToken,
		CreatedAt:   time.Now(),
	}
	if grant.ExpiresIn != nil {
		expiresAt := s.CreatedAt.Add(time.Duration(*grant.ExpiresIn) * time.Second)
		s.ExpiresAt = &expiresAt
	}
	return s
}

// Expired reports whether the session's token has passed its expiry. Sessions
// without an expiry (offline tokens) never expire.
func (s *Session) Expired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}
