package domain

import (
	"errors"
	"time"
)

// ErrStateNotFound is returned when no tier of the state store holds a usable
// record for a shop. The cause (never existed, expired, already used, forged)
// is deliberately not distinguishable from this error; callers restart the
// flow, server-side logs carry the detail.
var ErrStateNotFound = errors.New("oauth state not found")

// StateStatus tracks the lifecycle of an authorization attempt.
type StateStatus string

const (
	StateStatusPending StateStatus = "pending"
	StateStatusUsed    StateStatus = "used"
	StateStatusExpired StateStatus = "expired"
	StateStatusError   StateStatus = "error"
)

// OAuthStateRecord binds a shop to the nonce minted for its in-flight
// authorization attempt. At most one pending record exists per shop, a new
// attempt overwrites any prior one. A record leaves pending exactly once,
// either to used on a successful callback or to expired via the sweep, and
// never transitions out of used or expired.
type OAuthStateRecord struct {
	Shop      string      `json:"shop"`
	Nonce     string      `json:"nonce"`
	Status    StateStatus `json:"status"`
	FlowID    string      `json:"flow_id"`
	RequestIP string      `json:"request_ip,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	UsedAt    *time.Time  `json:"used_at,omitempty"`
}

// NewOAuthStateRecord creates a pending record for a shop with the given TTL.
func NewOAuthStateRecord(shop, nonce, flowID string, ttl time.Duration, requestIP, userAgent string) *OAuthStateRecord {
	now := time.Now()
	return &OAuthStateRecord{
		Shop:      shop,
		Nonce:     nonce,
		Status:    StateStatusPending,
		FlowID:    flowID,
		RequestIP: requestIP,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the record's TTL has elapsed.
func (r *OAuthStateRecord) Expired() bool {
	return time.Now().After(r.ExpiresAt)
}

// IsPending reports whether the record can still satisfy a callback.
func (r *OAuthStateRecord) IsPending() bool {
	return r.Status == StateStatusPending && !r.Expired()
}

// MarkUsed transitions the record from pending to used. It returns false when
// the record already left pending, making repeated calls a no-op.
func (r *OAuthStateRecord) MarkUsed() bool {
	if r.Status != StateStatusPending {
		return false
	}
	now := time.Now()
	r.Status = StateStatusUsed
	r.UsedAt = &now
	return true
}

// MarkExpired transitions the record from pending to expired. Used and
// expired records are left untouched.
func (r *OAuthStateRecord) MarkExpired() bool {
	if r.Status != StateStatusPending {
		return false
	}
	r.Status = StateStatusExpired
	return true
}
