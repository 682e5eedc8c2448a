// internal/store/cache.go
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"lodgement-workers/internal/engine/ranking"
)

// RankCache keeps each queue's current scores in a Redis sorted set so rank
// and score reads skip the database. Entries expire; a miss means recompute.
type RankCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRankCache(client *redis.Client, ttl time.Duration) *RankCache {
	return &RankCache{client: client, ttl: ttl}
}

func scoresKey(queueID int64) string {
	return fmt.Sprintf("lodgement:queue:%d:scores", queueID)
}

// SetScores replaces the queue's cached scores atomically.
func (c *RankCache) SetScores(ctx context.Context, queueID int64, scored []ranking.ScoredApplication) error {
	key := scoresKey(queueID)

	members := make([]redis.Z, 0, len(scored))
	for _, s := range scored {
		members = append(members, redis.Z{
			Score:  float64(s.Score),
			Member: strconv.FormatInt(s.Application.ID, 10),
		})
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Score returns the cached score for one application. The second return is
// false on a cache miss.
func (c *RankCache) Score(ctx context.Context, queueID, applicationID int64) (int, bool, error) {
	score, err := c.client.ZScore(ctx, scoresKey(queueID), strconv.FormatInt(applicationID, 10)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int(score), true, nil
}

// Rank returns the cached 1-based rank: one plus the count of strictly greater
// scores, so score ties share a rank. False on a cache miss.
func (c *RankCache) Rank(ctx context.Context, queueID, applicationID int64) (int, bool, error) {
	key := scoresKey(queueID)

	score, err := c.client.ZScore(ctx, key, strconv.FormatInt(applicationID, 10)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	greater, err := c.client.ZCount(ctx, key, "("+strconv.FormatFloat(score, 'f', -1, 64), "+inf").Result()
	if err != nil {
		return 0, false, err
	}
	return int(greater) + 1, true, nil
}

// Invalidate drops the queue's cached scores. Called after any mutation that
// changes the cohort, such as an allocation run or a status change.
func (c *RankCache) Invalidate(ctx context.Context, queueID int64) error {
	return c.client.Del(ctx, scoresKey(queueID)).Err()
}
