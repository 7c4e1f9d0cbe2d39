package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const standingsKey = "standings:xp"

// StandingsEntry is one row of the process-wide XP standings.
type StandingsEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Rank     int    `json:"rank"`
}

// StandingsCache handles the Redis ZSET behind the global XP leaderboard.
type StandingsCache interface {
	IncrementXP(ctx context.Context, userID string, delta int) error
	Top(ctx context.Context, limit int) ([]StandingsEntry, error)
	Rank(ctx context.Context, userID string) (int64, error)
}

type standingsCache struct {
	client *redis.Client
}

// NewStandingsCache creates a new standings cache.
func NewStandingsCache(client *redis.Client) StandingsCache {
	return &standingsCache{
		client: client,
	}
}

func (c *standingsCache) IncrementXP(ctx context.Context, userID string, delta int) error {
	return c.client.ZIncrBy(ctx, standingsKey, float64(delta), userID).Err()
}

func (c *standingsCache) Top(ctx context.Context, limit int) ([]StandingsEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, standingsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]StandingsEntry, len(results))
	for i, z := range results {
		entries[i] = StandingsEntry{
			UserID: z.Member.(string),
			XP:     int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (c *standingsCache) Rank(ctx context.Context, userID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, standingsKey, userID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
