package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"voxcart-core-auth-layer/internal/domain"
	"voxcart-core-auth-layer/internal/infrastructure/repository/entity"
	"voxcart-core-auth-layer/internal/ports"
)

// stateKeyPrefix namespaces oauth state keys in Redis.
const stateKeyPrefix = "oauth_state:"

// diagnosticGrace keeps consumed and expired records readable past their TTL
// so a failed install can still be investigated. Keys self-expire in Redis
// once the grace window passes.
const diagnosticGrace = time.Hour

// RedisStateRepository is the durable tier of the oauth state store. One key
// per shop, so writing a record replaces any earlier attempt.
type RedisStateRepository struct {
	client *redis.Client
}

// NewRedisStateRepository creates a new Redis state repository
func NewRedisStateRepository(client *redis.Client) ports.StateRepository {
	return &RedisStateRepository{client: client}
}

func stateKey(shop string) string {
	return stateKeyPrefix + shop
}

func (r *RedisStateRepository) Put(ctx context.Context, record *domain.OAuthStateRecord) error {
	payload, err := json.Marshal(entity.RedisStateDocFromDomain(record))
	if err != nil {
		return fmt.Errorf("failed to encode state record: %w", err)
	}

	ttl := time.Until(record.ExpiresAt) + diagnosticGrace
	if err := r.client.Set(ctx, stateKey(record.Shop), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store state record: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) Get(ctx context.Context, shop string) (*domain.OAuthStateRecord, error) {
	payload, err := r.client.Get(ctx, stateKey(shop)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state record: %w", err)
	}

	var doc entity.RedisStateDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode state record: %w", err)
	}
	return doc.ToDomain(), nil
}

func (r *RedisStateRepository) MarkUsed(ctx context.Context, shop string) error {
	record, err := r.Get(ctx, shop)
	if err != nil {
		return err
	}
	// Absent or already consumed records make this a no-op.
	if record == nil || !record.MarkUsed() {
		return nil
	}

	payload, err := json.Marshal(entity.RedisStateDocFromDomain(record))
	if err != nil {
		return fmt.Errorf("failed to encode state record: %w", err)
	}
	if err := r.client.Set(ctx, stateKey(shop), payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark state record used: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) DeleteExpired(ctx context.Context) (int, error) {
	removed := 0
	now := time.Now()

	iter := r.client.Scan(ctx, 0, stateKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		payload, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to load state record: %w", err)
		}

		var doc entity.RedisStateDoc
		if err := json.Unmarshal(payload, &doc); err != nil {
			// Undecodable records cannot be diagnosed, drop them.
			if delErr := r.client.Del(ctx, key).Err(); delErr == nil {
				removed++
			}
			continue
		}

		record := doc.ToDomain()
		switch {
		case now.After(record.ExpiresAt.Add(diagnosticGrace)):
			if err := r.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("failed to delete state record: %w", err)
			}
			removed++
		case record.Status == domain.StateStatusPending && now.After(record.ExpiresAt):
			record.MarkExpired()
			updated, err := json.Marshal(entity.RedisStateDocFromDomain(record))
			if err != nil {
				return removed, fmt.Errorf("failed to encode state record: %w", err)
			}
			if err := r.client.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
				return removed, fmt.Errorf("failed to expire state record: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan state records: %w", err)
	}

	return removed, nil
}
