package gymscore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const scoreboardKeyPrefix = "gymscore::scoreboard::"

// ScoreboardCache keeps serialized scoreboards in redis. Entries are
// invalidated on every write for the user and expire after ttl anyway.
type ScoreboardCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewScoreboardCache(redisClient *redis.Client, ttl time.Duration) *ScoreboardCache {
	return &ScoreboardCache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func scoreboardKey(userID string) string {
	return scoreboardKeyPrefix + userID
}

// Get returns nil, nil on a cache miss.
func (c *ScoreboardCache) Get(ctx context.Context, userID string) (*Scoreboard, error) {
	cmd := c.redisClient.Get(ctx, scoreboardKey(userID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var sb Scoreboard
	if err := json.Unmarshal([]byte(cmd.Val()), &sb); err != nil {
		return nil, fmt.Errorf("unmarshal cached scoreboard: %w", err)
	}
	return &sb, nil
}

func (c *ScoreboardCache) Set(ctx context.Context, sb *Scoreboard) error {
	data, err := json.Marshal(sb)
	if err != nil {
		return fmt.Errorf("marshal scoreboard: %w", err)
	}
	return c.redisClient.Set(ctx, scoreboardKey(sb.UserID), string(data), c.ttl).Err()
}

func (c *ScoreboardCache) Invalidate(ctx context.Context, userID string) error {
	return c.redisClient.Del(ctx, scoreboardKey(userID)).Err()
}
