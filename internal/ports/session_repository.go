package ports

import (
	"context"

	"voxcart-core-auth-layer/internal/domain"
)

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	// Store saves a session, replacing any session with the same ID.
	Store(ctx context.Context, session *domain.Session) error
	// Load returns the session with the given ID, or (nil, nil) when none
	// exists.
	Load(ctx context.Context, id string) (*domain.Session, error)
	// Delete removes every session belonging to a shop, both access modes.
	Delete(ctx context.Context, shop string) error
}
