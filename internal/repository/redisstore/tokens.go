package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// TokenRepository keeps revoked JWT ids as keys that expire together with the token.
type TokenRepository struct {
	r *redis.Client
}

func NewTokenRepository(r *redis.Client) *TokenRepository {
	return &TokenRepository{r: r}
}

func (s *TokenRepository) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.r.Set(ctx, revokedPrefix+jti, userID, ttl).Err()
}

func (s *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.r.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgeExpired is a no-op: Redis evicts the keys when their TTL runs out.
func (s *TokenRepository) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
