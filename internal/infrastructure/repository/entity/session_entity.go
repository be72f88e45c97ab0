package entity

import (
	"time"

	"voxcart-core-auth-layer/internal/domain"
)

// MongoSessionDoc represents an OAuth session in MongoDB. AccessToken holds
// the encrypted form, plaintext tokens never reach the database.
type MongoSessionDoc struct {
	ID          string     `bson:"_id"`
	Shop        string     `bson:"shop"`
	IsOnline    bool       `bson:"isOnline"`
	Scope       string     `bson:"scope"`
	AccessToken string     `bson:"accessToken"`
	ExpiresAt   *time.Time `bson:"expiresAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity. The access
// token comes back still encrypted, the repository decrypts it.
func (d *MongoSessionDoc) ToDomain() *domain.Session {
	return &domain.Session{
		ID:          d.ID,
		Shop:        d.Shop,
		IsOnline:    d.IsOnline,
		Scope:       d.Scope,
		AccessToken: d.AccessToken,
		ExpiresAt:   d.ExpiresAt,
		CreatedAt:   d.CreatedAt,
	}
}

// MongoSessionDocFromDomain converts a domain entity to a MongoDB document
func MongoSessionDocFromDomain(session *domain.Session) *MongoSessionDoc {
	return &MongoSessionDoc{
		ID:          session.ID,
		Shop:        session.Shop,
		IsOnline:    session.IsOnline,
		Scope:       session.Scope,
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
	}
}
