package repository

import (
	"context"
	"fmt"
	"time"

	"voxcart-core-auth-layer/internal/domain"
	"voxcart-core-auth-layer/internal/infrastructure/repository/entity"
	"voxcart-core-auth-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSessionRepository implements SessionRepository using MongoDB. Access
// tokens are encrypted before they reach the collection and decrypted on the
// way out, a database dump alone never exposes a usable token.
type MongoSessionRepository struct {
	collection *mongo.Collection
	encryption ports.EncryptionService
}

// NewMongoSessionRepository creates a new MongoDB session repository
func NewMongoSessionRepository(db *mongo.Database, encryption ports.EncryptionService) ports.SessionRepository {
	return &MongoSessionRepository{
		collection: db.Collection("sessions"),
		encryption: encryption,
	}
}

// Store saves or updates a session, keyed by its composite ID
func (r *MongoSessionRepository) Store(ctx context.Context, session *domain.Session) error {
	encrypted, err := r.encryption.Encrypt(session.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	doc := entity.MongoSessionDocFromDomain(session)
	doc.AccessToken = encrypted
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": session.ID}
	update := bson.M{"$set": doc}

	_, err = r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Load retrieves a session by its composite ID
func (r *MongoSessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	var doc entity.MongoSessionDoc
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	token, err := r.encryption.Decrypt(doc.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	session := doc.ToDomain()
	session.AccessToken = token
	return session, nil
}

// Delete removes every session for a shop, both access modes
func (r *MongoSessionRepository) Delete(ctx context.Context, shop string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"shop": shop})
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	return nil
}
