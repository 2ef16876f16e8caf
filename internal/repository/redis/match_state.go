package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/halite-fleet/internal/model"
)

// Frames of a match expire if it is abandoned without cleanup.
const frameTTL = 6 * time.Hour

const leaderboardKey = "leaderboard:wins"

func frameKey(matchID string) string { return "match:" + matchID + ":frame" }

// SetFrame stores the latest frame JSON of a running match.
func (c *Client) SetFrame(ctx context.Context, matchID string, frame json.RawMessage) error {
	return c.rdb.Set(ctx, frameKey(matchID), []byte(frame), frameTTL).Err()
}

// GetFrame retrieves the latest frame JSON, or nil when none is stored.
func (c *Client) GetFrame(ctx context.Context, matchID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, frameKey(matchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get frame: %w", err)
	}
	return json.RawMessage(data), nil
}

// DeleteMatchData removes every key of a match.
func (c *Client) DeleteMatchData(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, frameKey(matchID)).Err()
}

// RecordWin adds score to a strategy's leaderboard entry. Draws split the point.
func (c *Client) RecordWin(ctx context.Context, strategy string, score float64) error {
	return c.rdb.ZIncrBy(ctx, leaderboardKey, score, strategy).Err()
}

// Leaderboard returns the top n strategies by score.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	zs, err := c.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	out := make([]model.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, model.LeaderboardEntry{Strategy: name, Wins: z.Score})
	}
	return out, nil
}
