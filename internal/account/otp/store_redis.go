package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "residora/pkg/domain"
	"residora/pkg/platform/sentinel"
)

// RedisStore keeps hashed codes in Redis, leaning on key TTLs for expiry. An
// expired code is indistinguishable from a never-issued one, which is fine:
// both redeem as expired.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

func (s *RedisStore) key(accountID id.AccountID) string {
	return s.prefix + accountID.String()
}

func (s *RedisStore) Save(ctx context.Context, accountID id.AccountID, hash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(accountID), hash, ttl).Err(); err != nil {
		return fmt.Errorf("storing otp hash: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, accountID id.AccountID) (string, error) {
	hash, err := s.client.Get(ctx, s.key(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading otp hash: %w", err)
	}
	return hash, nil
}

func (s *RedisStore) Delete(ctx context.Context, accountID id.AccountID) error {
	deleted, err := s.client.Del(ctx, s.key(accountID)).Result()
	if err != nil {
		return fmt.Errorf("deleting otp hash: %w", err)
	}
	if deleted == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
