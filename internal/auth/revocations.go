package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedKeyPrefix = "gymscore::revoked-token::"

// Revocations keeps revoked token ids in redis until the token would have
// expired anyway.
type Revocations struct {
	redisClient *redis.Client
	// injectable clock, for tests
	Now func() time.Time
}

func NewRevocations(redisClient *redis.Client) *Revocations {
	return &Revocations{
		redisClient: redisClient,
		Now:         time.Now,
	}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.Now())
	if ttl <= 0 {
		return nil
	}
	return r.redisClient.Set(ctx, revokedKeyPrefix+tokenID, expiresAt.Unix(), ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.redisClient.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
