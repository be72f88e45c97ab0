package ports

import (
	"context"

	"voxcart-core-auth-layer/internal/domain"
)

// StateRepository defines the interface for durable oauth state persistence.
// Implementations key records by shop, so storing a record replaces any
// earlier attempt for the same shop.
type StateRepository interface {
	// Put stores a pending record, overwriting any existing one for the shop.
	Put(ctx context.Context, record *domain.OAuthStateRecord) error
	// Get returns the record for a shop, or (nil, nil) when none exists.
	Get(ctx context.Context, shop string) (*domain.OAuthStateRecord, error)
	// MarkUsed flips a pending record to used. Absent or already consumed
	// records are a no-op, repeated calls must stay safe.
	MarkUsed(ctx context.Context, shop string) error
	// DeleteExpired removes records whose diagnostic window has passed and
	// flips overdue pending records to expired. It returns the number of
	// records removed.
	DeleteExpired(ctx context.Context) (int, error)
}
