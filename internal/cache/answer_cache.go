package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// AnswerCache caches generated answers in Redis keyed by the normalized
// question, so repeated questions skip the embedding and generation calls
// entirely while the entry lives.
type AnswerCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewAnswerCache(client *redisv9.Client, ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AnswerCache{client: client, ttl: ttl}
}

func (c *AnswerCache) Get(ctx context.Context, question string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(question)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get answer failed: %w", err)
	}
	return raw, true, nil
}

func (c *AnswerCache) Set(ctx context.Context, question, answer string) error {
	if err := c.client.Set(ctx, c.key(question), answer, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set answer failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) key(question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	sum := sha256.Sum256([]byte(normalized))
	return "spokesbot:answer:" + hex.EncodeToString(sum[:])
}
