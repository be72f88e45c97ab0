package entity

import (
	"time"

	"voxcart-core-auth-layer/internal/domain"
)

// RedisStateDoc represents an oauth state record as stored in Redis.
type RedisStateDoc struct {
	Shop      string     `json:"shop"`
	Nonce     string     `json:"nonce"`
	Status    string     `json:"status"`
	FlowID    string     `json:"flow_id"`
	RequestIP string     `json:"request_ip,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// ToDomain converts the Redis document to a domain entity
func (d *RedisStateDoc) ToDomain() *domain.OAuthStateRecord {
	return &domain.OAuthStateRecord{
		Shop:      d.Shop,
		Nonce:     d.Nonce,
		Status:    domain.StateStatus(d.Status),
		FlowID:    d.FlowID,
		RequestIP: d.RequestIP,
		UserAgent: d.UserAgent,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
		UsedAt:    d.UsedAt,
	}
}

// RedisStateDocFromDomain converts a domain entity to a Redis document
func RedisStateDocFromDomain(record *domain.OAuthStateRecord) *RedisStateDoc {
	return &RedisStateDoc{
		Shop:      record.Shop,
		Nonce:     record.Nonce,
		Status:    string(record.Status),
		FlowID:    record.FlowID,
		RequestIP: record.RequestIP,
		UserAgent: record.UserAgent,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
		UsedAt:    record.UsedAt,
	}
}
